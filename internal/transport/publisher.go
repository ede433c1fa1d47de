package transport

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/tenzoki/rosnode/internal/stream"
	"github.com/tenzoki/rosnode/internal/wire"
)

// clientBufferCapacity is the bound on each connected client's per-socket
// output buffer — the backpressure surface on the publisher side.
const clientBufferCapacity = 10

// rosterEntry is one connected, negotiated subscriber.
type rosterEntry struct {
	id     string
	buf    chan []byte
	stats  *StatsBox
	stopCh chan struct{}
	stop   sync.Once
	close  func()
}

// PublisherHandle is what RunServer returns: the listening port and a
// cleanup function tearing down every client, the accept task, the pump
// task, and the listening socket.
type PublisherHandle struct {
	listener net.Listener
	cancel   context.CancelFunc
	done     chan struct{}
	debug    bool

	mu     sync.Mutex
	roster map[string]*rosterEntry
	closed bool
}

// Port returns the TCP port the publisher is listening on.
func (h *PublisherHandle) Port() int {
	return h.listener.Addr().(*net.TCPAddr).Port
}

// Snapshot returns current per-client send statistics, keyed by a
// synthetic client ID.
func (h *PublisherHandle) Snapshot() map[string]PeerStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]PeerStats, len(h.roster))
	for id, e := range h.roster {
		out[id] = e.stats.Snapshot()
	}
	return out
}

// Close tears the publication down: close every client, cancel the
// accept and pump tasks, shut the listening socket, and wait for them
// to exit.
func (h *PublisherHandle) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	entries := h.roster
	h.roster = nil
	h.mu.Unlock()

	for _, e := range entries {
		e.close()
	}

	h.cancel()
	h.listener.Close()
	<-h.done
}

func (h *PublisherHandle) addClient(e *rosterEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		e.close()
		return
	}
	h.roster[e.id] = e
}

func (h *PublisherHandle) removeClient(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.roster != nil {
		delete(h.roster, id)
	}
}

func (h *PublisherHandle) liveClients() []*rosterEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*rosterEntry, 0, len(h.roster))
	for _, e := range h.roster {
		out = append(out, e)
	}
	return out
}

// RunServer binds an OS-assigned TCP port, accepts clients and
// negotiates on each freshly accepted socket (never on the listening
// socket), maintain a roster of bounded per-client output buffers, and
// pump encoded messages from in to every live client, dropping on a
// full client buffer so one slow client cannot starve the others.
//
// Go's net.Listen does not expose a backlog parameter; a listen
// backlog of 5 is honored as far as the standard library allows (the
// OS default backlog applies).
func RunServer[T any](ctx context.Context, topic, callerID string, codec wire.Codec[T], in stream.Stream[T], debug bool) (*PublisherHandle, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("transport: listen for topic %s: %w", topic, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	h := &PublisherHandle{
		listener: listener,
		cancel:   cancel,
		done:     make(chan struct{}),
		roster:   make(map[string]*rosterEntry),
		debug:    debug,
	}

	acceptDone := make(chan struct{})
	pumpDone := make(chan struct{})
	go acceptLoop(runCtx, h, topic, callerID, codec, acceptDone)
	go pumpLoop(runCtx, h, topic, codec, in, pumpDone)
	go func() {
		<-acceptDone
		<-pumpDone
		close(h.done)
	}()

	return h, nil
}

// acceptLoop accepts connections and spawns negotiateClient for each.
func acceptLoop[T any](ctx context.Context, h *PublisherHandle, topic, callerID string, codec wire.Codec[T], done chan<- struct{}) {
	defer close(done)
	for {
		conn, err := h.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if h.debug {
				log.Printf("transport: accept error on topic %s: %v", topic, err)
			}
			continue
		}
		go negotiateClient(ctx, h, topic, callerID, codec, conn)
	}
}

// negotiateClient runs the per-client state machine:
//
//	NEW -> HEADER_READ -> HEADER_VALIDATED -> HEADER_SENT -> STREAMING -> CLOSED
//	                   -> HEADER_REJECTED -> CLOSED
//
// Negotiation happens on conn, the freshly accepted client socket — never
// on the listening socket.
func negotiateClient[T any](ctx context.Context, h *PublisherHandle, topic, callerID string, codec wire.Codec[T], conn net.Conn) {
	peerHeader, err := wire.ReadHeader(conn) // HEADER_READ
	if err != nil {
		conn.Close()
		return
	}
	if err := wire.ValidateHeader(peerHeader, codec.TypeName, codec.MD5Sum); err != nil { // HEADER_REJECTED
		conn.Close()
		return
	}
	// HEADER_VALIDATED
	ownHeader := wire.Header{
		wire.FieldCallerID: callerID,
		wire.FieldType:     codec.TypeName,
		wire.FieldMD5Sum:   codec.MD5Sum,
	}
	if err := wire.WriteHeader(conn, ownHeader); err != nil { // HEADER_SENT failed
		conn.Close()
		return
	}

	// STREAMING
	id := uuid.NewString()
	buf := make(chan []byte, clientBufferCapacity)
	writerDone := make(chan struct{})
	stopCh := make(chan struct{})
	entry := &rosterEntry{
		id:     id,
		buf:    buf,
		stats:  &StatsBox{},
		stopCh: stopCh,
	}
	entry.close = func() {
		entry.stop.Do(func() { close(stopCh) })
		conn.Close()
		<-writerDone
	}
	go writerLoop(conn, buf, entry.stats, stopCh, writerDone)
	h.addClient(entry)

	// Block until the connection dies (read side), then remove from the
	// roster. A TCPROS subscriber connection is send-only from the
	// publisher's perspective; any read here only detects peer close.
	one := make([]byte, 1)
	conn.Read(one)
	entry.close()
	h.removeClient(id)
}

// writerLoop drains buf into conn until stopped, framing each payload
// on the wire. It never blocks past the client's bounded buffer:
// payloads enqueued after a stop signal simply go undelivered, since
// cleanup has already torn the roster entry down.
func writerLoop(conn net.Conn, buf <-chan []byte, stats *StatsBox, stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case payload := <-buf:
			if err := wire.WriteFrame(conn, payload); err != nil {
				return
			}
			stats.record(len(payload))
		case <-stopCh:
			return
		}
	}
}

// pumpLoop pulls each message, encodes it once, then fans out to every
// live client's buffer, dropping (not blocking) on a full client
// buffer.
func pumpLoop[T any](ctx context.Context, h *PublisherHandle, topic string, codec wire.Codec[T], in stream.Stream[T], done chan<- struct{}) {
	defer close(done)
	cur := in
	for {
		v, tail, err := cur.Next(ctx)
		if err != nil {
			return
		}
		cur = tail

		payload, err := codec.Encode(v)
		if err != nil {
			if h.debug {
				log.Printf("transport: encode error on topic %s: %v", topic, err)
			}
			continue
		}

		for _, e := range h.liveClients() {
			select {
			case e.buf <- payload:
			default:
				// slow-client policy: drop for this client only.
			}
		}
	}
}
