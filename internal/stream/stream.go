// Package stream implements the lazy, single-consumer message stream that
// the rest of the node runtime is built on: a head/tail sequence of values
// of type T whose head may block until available, and which cannot be
// re-read once consumed.
package stream

import (
	"context"
	"io"
)

// Stream is a lazy, possibly-infinite, non-restartable sequence of T.
// Next blocks until the head is available (or ctx is done) and returns it
// along with the tail stream to continue consuming from. Once a value has
// been returned by Next, it cannot be observed again through this or any
// other Stream value — implementations must not memoize unconsumed tails.
//
// Next returns io.EOF when the stream is cleanly exhausted. Any other
// error is fatal: the caller must not call Next on the returned tail.
type Stream[T any] interface {
	Next(ctx context.Context) (head T, tail Stream[T], err error)
}

// chanStream is a channel-backed Stream. The channel already advances one
// element per receive, so the tail is the same chanStream value — pulling
// twice from the same Stream value yields the next two channel elements,
// which is exactly the single-pass contract this package requires.
type chanStream[T any] struct {
	ch <-chan item[T]
}

type item[T any] struct {
	val T
	err error
}

// FromChannel lifts a receive-only channel of values into a Stream. Close
// the channel to signal a clean end; the stream will then report io.EOF.
func FromChannel[T any](ch <-chan item[T]) Stream[T] {
	return &chanStream[T]{ch: ch}
}

// NewChannelPair returns a bounded channel (of the given capacity) together with
// the Stream that reads from it, for producers that feed a stream from a
// separate goroutine (the case throughout the subscriber/publisher
// transports).
func NewChannelPair[T any](capacity int) (chan<- item[T], Stream[T]) {
	ch := make(chan item[T], capacity)
	return ch, &chanStream[T]{ch: ch}
}

// Item builds the value wrapper NewChannelPair's channel carries.
func Item[T any](v T) item[T] { return item[T]{val: v} }

// ErrItem builds an error wrapper terminating a NewChannelPair stream.
func ErrItem[T any](err error) item[T] { var zero T; return item[T]{val: zero, err: err} }

func (s *chanStream[T]) Next(ctx context.Context) (T, Stream[T], error) {
	var zero T
	select {
	case it, ok := <-s.ch:
		if !ok {
			return zero, nil, io.EOF
		}
		if it.err != nil {
			return zero, nil, it.err
		}
		return it.val, s, nil
	case <-ctx.Done():
		return zero, nil, ctx.Err()
	}
}

// funcStream wraps a pull function; each Next call invokes it once and
// returns itself as the tail, since the function is its own advancing
// state (e.g. a closure over an index, or a decoder reading a socket).
type funcStream[T any] struct {
	pull func(context.Context) (T, error)
}

// FromFunc adapts a plain pull function into a Stream.
func FromFunc[T any](pull func(context.Context) (T, error)) Stream[T] {
	return &funcStream[T]{pull: pull}
}

func (s *funcStream[T]) Next(ctx context.Context) (T, Stream[T], error) {
	v, err := s.pull(ctx)
	if err != nil {
		var zero T
		return zero, nil, err
	}
	return v, s, nil
}

// Deferred is a value that must be produced by invoking a side effect —
// the element type of a stream passed to AdvertiseDeferred.
type Deferred[T any] func(context.Context) (T, error)

// LiftDeferred forces each deferred value of s on demand, producing a
// Stream[T] from a Stream[Deferred[T]].
func LiftDeferred[T any](s Stream[Deferred[T]]) Stream[T] {
	return &deferredStream[T]{inner: s}
}

type deferredStream[T any] struct {
	inner Stream[Deferred[T]]
}

func (d *deferredStream[T]) Next(ctx context.Context) (T, Stream[T], error) {
	var zero T
	thunk, tail, err := d.inner.Next(ctx)
	if err != nil {
		return zero, nil, err
	}
	v, err := thunk(ctx)
	if err != nil {
		return zero, nil, err
	}
	return v, &deferredStream[T]{inner: tail}, nil
}

// Drain reads n values off s, returning them in order. Used by tests and
// by callers that want a strict slice out of a lazy stream. It stops early
// (without error) if the stream ends before n values are produced.
func Drain[T any](ctx context.Context, s Stream[T], n int) ([]T, error) {
	out := make([]T, 0, n)
	cur := s
	for i := 0; i < n; i++ {
		v, tail, err := cur.Next(ctx)
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, v)
		cur = tail
	}
	return out, nil
}
