package wire

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
)

func intCodec() Codec[int] {
	return Codec[int]{
		TypeName: "test/Int",
		MD5Sum:   "ignored",
		Encode: func(v int) ([]byte, error) {
			return []byte{byte(v)}, nil
		},
		Decode: func(b []byte) (int, error) {
			if len(b) != 1 {
				return 0, fmt.Errorf("want 1 byte, got %d", len(b))
			}
			return int(b[0]), nil
		},
	}
}

func TestDecodeStreamReadsEachFrame(t *testing.T) {
	var buf bytes.Buffer
	codec := intCodec()
	for _, v := range []int{1, 2, 3} {
		payload, _ := codec.Encode(v)
		if err := WriteFrame(&buf, payload); err != nil {
			t.Fatalf("WriteFrame: %v", err)
		}
	}

	var frameLens []int
	s := DecodeStream(&buf, codec, func(n int) { frameLens = append(frameLens, n) })

	cur := s
	var got []int
	for {
		v, tail, err := cur.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		got = append(got, v)
		cur = tail
	}

	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("decoded %v, want [1 2 3]", got)
	}
	if len(frameLens) != 3 {
		t.Fatalf("onFrame invoked %d times, want 3", len(frameLens))
	}
}

func TestDecodeStreamDecodeErrorIsFatal(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, []byte{1, 2}); err != nil { // 2 bytes, decoder wants 1
		t.Fatalf("WriteFrame: %v", err)
	}

	s := DecodeStream[int](&buf, intCodec(), nil)
	_, _, err := s.Next(context.Background())
	if err == nil || errors.Is(err, io.EOF) {
		t.Fatalf("Next: want a non-EOF decode error, got %v", err)
	}
}
