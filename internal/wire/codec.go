package wire

import (
	"context"
	"fmt"
	"io"

	"github.com/tenzoki/rosnode/internal/stream"
)

// Codec is the contract every message type T must satisfy, standing in
// for an out-of-scope .msg code generator: a type name, an MD5 schema
// signature, and an encode/decode pair producing/consuming the frame
// payload (framing itself is added by the transport).
type Codec[T any] struct {
	TypeName string
	MD5Sum   string
	Encode   func(T) ([]byte, error)
	Decode   func([]byte) (T, error)
}

// DecodeStream lazily reads frames off r and decodes each as T, repeating
// until the socket is exhausted (io.EOF from ReadFrame) or a parse error
// occurs, which is fatal to the reader task holding this stream. onFrame,
// if non-nil, is invoked with each successfully decoded frame's payload
// length, for receive-statistics bookkeeping.
func DecodeStream[T any](r io.Reader, codec Codec[T], onFrame func(payloadLen int)) stream.Stream[T] {
	return stream.FromFunc(func(ctx context.Context) (T, error) {
		var zero T
		payload, err := ReadFrame(r)
		if err != nil {
			return zero, err
		}
		v, err := codec.Decode(payload)
		if err != nil {
			return zero, fmt.Errorf("wire: decode payload: %w", err)
		}
		if onFrame != nil {
			onFrame(len(payload))
		}
		return v, nil
	})
}
