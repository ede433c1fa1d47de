// Package transport implements the TCPROS subscriber and publisher
// transports: the per-peer client thread that feeds a bounded input
// buffer, and the accept/fan-out server that drains one stream to many
// clients.
package transport

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/tenzoki/rosnode/internal/stream"
	"github.com/tenzoki/rosnode/internal/wire"
)

// DialSubscriber resolves and connects, sends the subscriber header,
// validates the peer's header, and returns the lazy decode stream
// reading from the socket. The caller owns the returned io.Closer and
// must close it to tear the connection down.
func DialSubscriber[T any](ctx context.Context, uri, topic, callerID string, codec wire.Codec[T], stats *StatsBox) (net.Conn, stream.Stream[T], error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", uri)
	if err != nil {
		return nil, nil, fmt.Errorf("transport: dial %s: %w", uri, err)
	}

	outHeader := wire.Header{
		wire.FieldCallerID: callerID,
		wire.FieldTopic:    topic,
		wire.FieldType:     codec.TypeName,
		wire.FieldMD5Sum:   codec.MD5Sum,
	}
	if err := wire.WriteHeader(conn, outHeader); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("transport: send subscriber header to %s: %w", uri, err)
	}

	peerHeader, err := wire.ReadHeader(conn)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("transport: read publisher header from %s: %w", uri, err)
	}
	if err := wire.ValidateHeader(peerHeader, codec.TypeName, codec.MD5Sum); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("transport: negotiation with %s failed: %w", uri, err)
	}

	var onFrame func(int)
	if stats != nil {
		onFrame = stats.record
	}
	return conn, wire.DecodeStream(conn, codec, onFrame), nil
}

// AddSource spawns a reader task that dials uri, negotiates, and
// enqueues every decoded message into sink (the subscription's bounded
// input buffer). A full sink blocks the task — the backpressure
// surface on the subscriber side. The returned cancel function closes
// the underlying socket (unblocking any pending read) and waits for
// the task to exit, for use during subscription/node teardown.
func AddSource[T any](ctx context.Context, uri, topic, callerID string, codec wire.Codec[T], sink chan<- T, stats *StatsBox) (cancel func()) {
	runCtx, cancelCtx := context.WithCancel(ctx)
	done := make(chan struct{})

	var mu sync.Mutex
	var conn net.Conn

	go func() {
		defer close(done)

		c, s, err := DialSubscriber(runCtx, uri, topic, callerID, codec, stats)
		if err != nil {
			return
		}
		mu.Lock()
		conn = c
		mu.Unlock()
		defer c.Close()

		for {
			v, tail, err := s.Next(runCtx)
			if err != nil {
				return
			}
			s = tail
			select {
			case sink <- v:
			case <-runCtx.Done():
				return
			}
		}
	}()

	return func() {
		cancelCtx()
		mu.Lock()
		if conn != nil {
			conn.Close()
		}
		mu.Unlock()
		<-done
	}
}
