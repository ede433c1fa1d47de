// Package node implements the Node registry: topic→subscription and
// topic→publication bookkeeping, the additive-only publisher_update
// reconciliation, and the RPC-facing snapshot/shutdown facade. The
// registry itself is non-generic — it stores type-erased handles — so
// that subscriptions and publications over different message types can
// live side by side in the same maps.
package node

import (
	"context"
	"sort"
	"sync"

	"github.com/tenzoki/rosnode/internal/config"
	"github.com/tenzoki/rosnode/internal/rlog"
)

// subscriptionHandle is the erased view of a subscription[T] the
// registry stores; it never mentions T.
type subscriptionHandle interface {
	snapshotSub() SubscriptionSnapshot
	closeSub()
	publisherUpdate(uris []string)
}

// publicationHandle is the erased view of a publication[T] the
// registry stores.
type publicationHandle interface {
	snapshotPub() PublicationSnapshot
	closePub()
	portPub() int
}

// Node is one running ROS-compatible node: a named process holding a
// set of subscriptions and publications, plus the master URI and
// logger its driver wired up. The subs and pubs maps are guarded by mu;
// the other fields are set once by New.
type Node struct {
	name      string
	masterURI string
	debug     bool
	logger    *rlog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	subs map[string]subscriptionHandle
	pubs map[string]publicationHandle
}

// New builds a Node from cfg. The returned Node owns no goroutines of
// its own until Advertise or PublisherUpdate spawns them; ctx bounds every task
// the node ever starts and is cancelled by Shutdown.
func New(ctx context.Context, cfg config.NodeConfig, logger *rlog.Logger) *Node {
	runCtx, cancel := context.WithCancel(ctx)
	return &Node{
		name:      cfg.Name,
		masterURI: cfg.MasterURI,
		debug:     cfg.Debug,
		logger:    logger,
		ctx:       runCtx,
		cancel:    cancel,
		subs:      make(map[string]subscriptionHandle),
		pubs:      make(map[string]publicationHandle),
	}
}

// Name returns the node's caller ID, used as the "callerid" header
// field on every connection this node negotiates.
func (n *Node) Name() string { return n.name }

// MasterURI returns the configured ROS master URI.
func (n *Node) MasterURI() string { return n.masterURI }

// SnapshotSubscriptions returns the current state of every subscription,
// sorted by topic for deterministic output.
func (n *Node) SnapshotSubscriptions() []SubscriptionSnapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]SubscriptionSnapshot, 0, len(n.subs))
	for _, h := range n.subs {
		out = append(out, h.snapshotSub())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })
	return out
}

// SnapshotPublications returns the current state of every publication,
// sorted by topic.
func (n *Node) SnapshotPublications() []PublicationSnapshot {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]PublicationSnapshot, 0, len(n.pubs))
	for _, h := range n.pubs {
		out = append(out, h.snapshotPub())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })
	return out
}

// TopicPort returns the TCP port a publication is advertised on, and
// whether topic is in fact published by this node.
func (n *Node) TopicPort(topic string) (int, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	h, ok := n.pubs[topic]
	if !ok {
		return 0, false
	}
	return h.portPub(), true
}

// PublisherUpdate implements the reconciliation entry point the master
// (or, here, the in-process RPC facade stub) calls when a topic's
// publisher set changes: it is additive-only — uris already known to
// the subscription are a no-op, and peer removal is never performed.
// Calling PublisherUpdate for a topic this node does not subscribe to
// is silently ignored.
func (n *Node) PublisherUpdate(topic string, uris []string) error {
	n.mu.Lock()
	h, ok := n.subs[topic]
	n.mu.Unlock()
	if !ok {
		return nil
	}
	h.publisherUpdate(uris)
	return nil
}

// Shutdown tears every subscription and publication down and cancels
// every task this node has ever spawned. It is idempotent: a second
// call finds empty maps and does nothing.
func (n *Node) Shutdown() {
	n.mu.Lock()
	subs := n.subs
	pubs := n.pubs
	n.subs = make(map[string]subscriptionHandle)
	n.pubs = make(map[string]publicationHandle)
	n.mu.Unlock()

	n.cancel()
	for _, h := range subs {
		h.closeSub()
	}
	for _, h := range pubs {
		h.closePub()
	}
}
