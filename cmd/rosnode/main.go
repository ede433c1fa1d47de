// Command rosnode starts a single ROS-compatible pub/sub node: it loads
// a YAML configuration file, opens a session log, and runs until it
// receives SIGINT/SIGTERM. With -demo it also advertises and
// subscribes to a loopback chat topic, demonstrating the full
// round-trip negotiate/publish/fan-out/decode path end to end.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/tenzoki/rosnode/internal/config"
	"github.com/tenzoki/rosnode/internal/node"
	"github.com/tenzoki/rosnode/internal/stream"
	"github.com/tenzoki/rosnode/msgtype"
	"github.com/tenzoki/rosnode/noderun"
)

func main() {
	configPath := flag.String("config", "", "path to a node YAML config file")
	demo := flag.Bool("demo", false, "run the built-in loopback chat demo")
	debug := flag.Bool("debug", false, "force debug logging on")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *debug)
	if err != nil {
		log.Fatalf("rosnode: %v", err)
	}

	ctx := context.Background()
	program := func(n *node.Node) {
		if *demo {
			runChatDemo(ctx, n)
		}
	}

	if err := noderun.Run(ctx, *cfg, program); err != nil {
		log.Fatalf("rosnode: %v", err)
	}
}

// loadConfig reads -config if given, otherwise falls back to a
// hardcoded single-node default so the binary is runnable with no
// arguments at all.
func loadConfig(path string, debug bool) (*config.NodeConfig, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		if debug {
			cfg.Debug = true
		}
		return cfg, nil
	}
	return &config.NodeConfig{
		Name:      "rosnode",
		MasterURI: "http://localhost:11311",
		Debug:     debug,
		LogDir:    "./logs",
	}, nil
}

// runChatDemo advertises "chat", subscribes to the same topic from the
// port it was just handed, wires the publisher_update by hand (no
// master process is running), and logs every message the subscriber
// side decodes — scenario 1 of the testable-properties section.
func runChatDemo(ctx context.Context, n *node.Node) {
	lines := []msgtype.Chat{{Text: "a"}, {Text: "b"}, {Text: "c"}}
	in := chatLineStream(lines)

	if err := node.Advertise(n, "chat", msgtype.ChatCodec, in); err != nil {
		log.Printf("demo: advertise chat: %v", err)
		return
	}

	port, ok := n.TopicPort("chat")
	if !ok {
		log.Printf("demo: chat has no port after advertise")
		return
	}

	out, err := node.Subscribe(n, "chat", msgtype.ChatCodec)
	if err != nil {
		log.Printf("demo: subscribe chat: %v", err)
		return
	}

	uri := fmt.Sprintf("127.0.0.1:%d", port)
	if err := n.PublisherUpdate("chat", []string{uri}); err != nil {
		log.Printf("demo: publisher_update chat: %v", err)
		return
	}

	go func() {
		cur := out
		for {
			v, tail, err := cur.Next(ctx)
			if err != nil {
				return
			}
			cur = tail
			log.Printf("demo: received chat message %q", v.Text)
		}
	}()
}

// chatLineStream turns a fixed slice of lines into a lazy, function-
// backed Stream yielding one line every 100 ms (the pump drops lines
// pulled before the subscriber has connected), blocking forever on ctx
// after the last line so the publisher's pump stays alive instead of
// exhausting and shutting the publication down mid-demo.
func chatLineStream(lines []msgtype.Chat) stream.Stream[msgtype.Chat] {
	i := 0
	return stream.FromFunc(func(ctx context.Context) (msgtype.Chat, error) {
		if i < len(lines) {
			select {
			case <-time.After(100 * time.Millisecond):
			case <-ctx.Done():
				return msgtype.Chat{}, ctx.Err()
			}
			v := lines[i]
			i++
			return v, nil
		}
		<-ctx.Done()
		return msgtype.Chat{}, ctx.Err()
	})
}
