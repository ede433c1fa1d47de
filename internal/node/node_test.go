package node

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tenzoki/rosnode/internal/config"
	"github.com/tenzoki/rosnode/internal/rlog"
	"github.com/tenzoki/rosnode/internal/stream"
	"github.com/tenzoki/rosnode/internal/wire"
)

func testCodec() wire.Codec[int] {
	return wire.Codec[int]{
		TypeName: "test/Int",
		MD5Sum:   "fixed",
		Encode:   func(v int) ([]byte, error) { return []byte{byte(v)}, nil },
		Decode: func(b []byte) (int, error) {
			if len(b) != 1 {
				return 0, fmt.Errorf("want 1 byte, got %d", len(b))
			}
			return int(b[0]), nil
		},
	}
}

func intSliceStream(vals []int) stream.Stream[int] {
	i := 0
	return stream.FromFunc(func(ctx context.Context) (int, error) {
		if i >= len(vals) {
			<-ctx.Done()
			return 0, ctx.Err()
		}
		v := vals[i]
		i++
		return v, nil
	})
}

func newTestNode(t *testing.T) (*Node, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	logger, err := rlog.New("", true)
	if err != nil {
		t.Fatalf("rlog.New: %v", err)
	}
	n := New(ctx, config.NodeConfig{Name: "/tester", MasterURI: "http://localhost:11311"}, logger)
	return n, cancel
}

func TestAdvertiseAndSubscribeRoundTrip(t *testing.T) {
	n, cancel := newTestNode(t)
	defer cancel()

	codec := testCodec()
	// The pump drops every value it pulls while no subscriber is
	// connected, so hold the values back until the reader has negotiated.
	gate := make(chan struct{})
	vals := intSliceStream([]int{7, 8, 9})
	in := stream.FromFunc(func(ctx context.Context) (int, error) {
		select {
		case <-gate:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
		v, _, err := vals.Next(ctx)
		return v, err
	})
	if err := Advertise(n, "nums", codec, in); err != nil {
		t.Fatalf("Advertise: %v", err)
	}

	out, err := Subscribe(n, "nums", codec)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	port, ok := n.TopicPort("nums")
	if !ok {
		t.Fatalf("TopicPort: topic not found")
	}
	uri := fmt.Sprintf("127.0.0.1:%d", port)
	if err := n.PublisherUpdate("nums", []string{uri}); err != nil {
		t.Fatalf("PublisherUpdate: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(n.SnapshotPublications()[0].Stats) < 1 {
		if time.Now().After(deadline) {
			t.Fatalf("subscriber never connected to the publication")
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(gate)

	got, err := stream.Drain(context.Background(), out, 3)
	if err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if len(got) != 3 || got[0] != 7 || got[1] != 8 || got[2] != 9 {
		t.Fatalf("got %v, want [7 8 9]", got)
	}
}

func TestDuplicateSubscribeIsConfigurationError(t *testing.T) {
	n, cancel := newTestNode(t)
	defer cancel()

	codec := testCodec()
	if _, err := Subscribe(n, "nums", codec); err != nil {
		t.Fatalf("first Subscribe: %v", err)
	}
	if _, err := Subscribe(n, "nums", codec); err == nil {
		t.Fatalf("second Subscribe to the same topic: want an error, got nil")
	}
}

func TestDuplicateAdvertiseIsConfigurationError(t *testing.T) {
	n, cancel := newTestNode(t)
	defer cancel()

	codec := testCodec()
	in1 := intSliceStream([]int{1})
	in2 := intSliceStream([]int{2})
	if err := Advertise(n, "nums", codec, in1); err != nil {
		t.Fatalf("first Advertise: %v", err)
	}
	if err := Advertise(n, "nums", codec, in2); err == nil {
		t.Fatalf("second Advertise to the same topic: want an error, got nil")
	}
}

func TestPublisherUpdateUnknownTopicIsNoOp(t *testing.T) {
	n, cancel := newTestNode(t)
	defer cancel()

	if err := n.PublisherUpdate("never-subscribed", []string{"127.0.0.1:1"}); err != nil {
		t.Fatalf("PublisherUpdate on an unsubscribed topic: want nil, got %v", err)
	}
}

func TestPublisherUpdateIsIdempotentOnRepeatedURIs(t *testing.T) {
	n, cancel := newTestNode(t)
	defer cancel()

	codec := testCodec()
	in := intSliceStream([]int{1, 2, 3})
	if err := Advertise(n, "nums", codec, in); err != nil {
		t.Fatalf("Advertise: %v", err)
	}
	if _, err := Subscribe(n, "nums", codec); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	port, _ := n.TopicPort("nums")
	uri := fmt.Sprintf("127.0.0.1:%d", port)

	if err := n.PublisherUpdate("nums", []string{uri}); err != nil {
		t.Fatalf("first PublisherUpdate: %v", err)
	}
	if err := n.PublisherUpdate("nums", []string{uri}); err != nil {
		t.Fatalf("second PublisherUpdate (repeat URI): %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	snaps := n.SnapshotSubscriptions()
	if len(snaps) != 1 {
		t.Fatalf("SnapshotSubscriptions: got %d entries, want 1", len(snaps))
	}
	if len(snaps[0].KnownURIs) != 1 {
		t.Fatalf("KnownURIs = %v, want exactly one reader spawned despite repeated publisher_update", snaps[0].KnownURIs)
	}
	if snaps[0].TypeName != codec.TypeName {
		t.Fatalf("TypeName = %q, want %q", snaps[0].TypeName, codec.TypeName)
	}
}

func TestShutdownClosesEverything(t *testing.T) {
	n, cancel := newTestNode(t)
	defer cancel()

	codec := testCodec()
	in := intSliceStream([]int{1, 2, 3})
	if err := Advertise(n, "nums", codec, in); err != nil {
		t.Fatalf("Advertise: %v", err)
	}
	if _, err := Subscribe(n, "other", codec); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	done := make(chan struct{})
	go func() {
		n.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Shutdown did not return within 2s")
	}

	if len(n.SnapshotSubscriptions()) != 0 || len(n.SnapshotPublications()) != 0 {
		t.Fatalf("snapshots non-empty after Shutdown")
	}

	// Idempotent: a second call must not hang or panic.
	n.Shutdown()
}
