package node

import (
	"context"
	"fmt"
	"sync"

	"github.com/tenzoki/rosnode/internal/stream"
	"github.com/tenzoki/rosnode/internal/transport"
	"github.com/tenzoki/rosnode/internal/wire"
)

// subscriberBufferCapacity bounds the sink every source feeds into: a
// source whose sink is full blocks, which is this runtime's sole
// flow-control mechanism on the consume side.
const subscriberBufferCapacity = 10

// subscription[T] is the concrete, typed state behind one
// subscriptionHandle: the merged sink every publisher's reader task
// feeds, and the set of known source URIs together with their cancel
// functions and stats, guarded by mu as a transactional cell for this
// shared roster.
type subscription[T any] struct {
	topic    string
	callerID string
	codec    wire.Codec[T]
	ctx      context.Context

	sink chan T

	mu      sync.Mutex
	sources map[string]func()
	stats   map[string]*transport.StatsBox
}

// Subscribe registers topic under n, returning the lazy merged stream
// every source PublisherUpdate adds feeds into. Subscribing to a topic
// this node already subscribes to is a configuration error — topics
// are registered exactly once.
func Subscribe[T any](n *Node, topic string, codec wire.Codec[T]) (stream.Stream[T], error) {
	n.mu.Lock()
	if _, exists := n.subs[topic]; exists {
		n.mu.Unlock()
		return nil, fmt.Errorf("node: topic %q is already subscribed", topic)
	}
	sub := &subscription[T]{
		topic:    topic,
		callerID: n.name,
		codec:    codec,
		ctx:      n.ctx,
		sink:     make(chan T, subscriberBufferCapacity),
		sources:  make(map[string]func()),
		stats:    make(map[string]*transport.StatsBox),
	}
	n.subs[topic] = sub
	n.mu.Unlock()

	out := stream.FromFunc(func(ctx context.Context) (T, error) {
		var zero T
		select {
		case v := <-sub.sink:
			return v, nil
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	})
	return out, nil
}

// publisherUpdate spawns a reader task for every uri not already known
// (additive-only: previously-known URIs are never torn down); uris
// already present are a no-op, making repeated calls with the same set
// idempotent.
func (s *subscription[T]) publisherUpdate(uris []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, uri := range uris {
		if _, known := s.sources[uri]; known {
			continue
		}
		stats := &transport.StatsBox{}
		cancel := transport.AddSource(s.ctx, uri, s.topic, s.callerID, s.codec, s.sink, stats)
		s.sources[uri] = cancel
		s.stats[uri] = stats
	}
}

func (s *subscription[T]) snapshotSub() SubscriptionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	uris := make([]string, 0, len(s.sources))
	stats := make(map[string]transport.PeerStats, len(s.stats))
	for uri := range s.sources {
		uris = append(uris, uri)
	}
	for uri, box := range s.stats {
		stats[uri] = box.Snapshot()
	}
	return SubscriptionSnapshot{Topic: s.topic, TypeName: s.codec.TypeName, KnownURIs: uris, Stats: stats}
}

func (s *subscription[T]) closeSub() {
	s.mu.Lock()
	sources := s.sources
	s.sources = make(map[string]func())
	s.mu.Unlock()
	for _, cancel := range sources {
		cancel()
	}
}
