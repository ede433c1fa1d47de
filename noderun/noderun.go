// Package noderun is the concrete node driver: it builds a
// node.Node from configuration, opens the session logger, runs a
// user-supplied program against the node, and blocks for an OS
// shutdown signal before tearing everything down.
package noderun

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tenzoki/rosnode/internal/config"
	"github.com/tenzoki/rosnode/internal/node"
	"github.com/tenzoki/rosnode/internal/rlog"
	"github.com/tenzoki/rosnode/internal/rpcfacade"
)

// Run implements run_node: it constructs the node, opens the session
// log, invokes program with the running node (program does whatever
// Subscribe/Advertise calls it needs), then waits for SIGINT/SIGTERM
// or ctx cancellation before calling node.Shutdown(). It returns once
// shutdown has completed.
func Run(ctx context.Context, cfg config.NodeConfig, program func(*node.Node)) error {
	logger, err := rlog.New(cfg.LogDir, false)
	if err != nil {
		return fmt.Errorf("noderun: open session log: %w", err)
	}
	defer logger.Close()
	logger.RedirectStdlibLog()

	logger.Info("starting node %q (master %s)", cfg.Name, cfg.MasterURI)

	n := node.New(ctx, cfg, logger)
	program(n)

	// facade is the node's call surface for an out-of-scope master/slave
	// RPC server; nothing in this binary drives it over the network, but
	// building it here is what a real slave-API server would be handed.
	facade := rpcfacade.New(n)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		logger.Info("received signal %s, shutting down", sig)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	}

	logger.Debug("final state: %d subscription(s), %d publication(s)",
		len(facade.SnapshotSubscriptions()), len(facade.SnapshotPublications()))

	n.Shutdown()
	logger.Info("node %q stopped", cfg.Name)
	return nil
}
