package node

import (
	"fmt"

	"github.com/tenzoki/rosnode/internal/stream"
	"github.com/tenzoki/rosnode/internal/transport"
	"github.com/tenzoki/rosnode/internal/wire"
)

// publication[T] is the concrete, typed state behind one
// publicationHandle: the listening transport handle RunServer returns.
type publication[T any] struct {
	topic    string
	typeName string
	handle   *transport.PublisherHandle
}

// Advertise binds a listening port via transport.RunServer and
// registers it under topic. Advertising a topic this node already
// publishes is a configuration error.
func Advertise[T any](n *Node, topic string, codec wire.Codec[T], in stream.Stream[T]) error {
	n.mu.Lock()
	if _, exists := n.pubs[topic]; exists {
		n.mu.Unlock()
		return fmt.Errorf("node: topic %q is already advertised", topic)
	}
	n.mu.Unlock()

	handle, err := transport.RunServer(n.ctx, topic, n.name, codec, in, n.debug)
	if err != nil {
		return fmt.Errorf("node: advertise %q: %w", topic, err)
	}

	n.mu.Lock()
	if _, exists := n.pubs[topic]; exists {
		n.mu.Unlock()
		handle.Close()
		return fmt.Errorf("node: topic %q is already advertised", topic)
	}
	n.pubs[topic] = &publication[T]{topic: topic, typeName: codec.TypeName, handle: handle}
	n.mu.Unlock()
	return nil
}

// AdvertiseDeferred is the deferred-value variant of Advertise: in
// carries a thunk per message, forced only once the pump actually pulls
// it (e.g. a timestamp or sequence number computed at pull time rather
// than when the thunk was built); the forced value is encoded once and
// shared by every subscriber.
func AdvertiseDeferred[T any](n *Node, topic string, codec wire.Codec[T], in stream.Stream[stream.Deferred[T]]) error {
	return Advertise(n, topic, codec, stream.LiftDeferred(in))
}

func (p *publication[T]) snapshotPub() PublicationSnapshot {
	return PublicationSnapshot{
		Topic:    p.topic,
		TypeName: p.typeName,
		Port:     p.handle.Port(),
		Stats:    p.handle.Snapshot(),
	}
}

func (p *publication[T]) portPub() int {
	return p.handle.Port()
}

func (p *publication[T]) closePub() {
	p.handle.Close()
}
