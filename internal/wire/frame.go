// Package wire implements the TCPROS on-wire format: uint32-LE
// length-prefixed framing, the connection-header block exchanged at
// connect time, and the pluggable per-message-type codec contract the
// rest of the runtime builds on.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// maxFrameBytes bounds a single frame's payload so a corrupt or hostile
// length prefix cannot make a reader allocate unbounded memory.
const maxFrameBytes = 64 << 20

// WriteFrame writes a uint32-LE length prefix followed by payload.
func WriteFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("wire: write frame length: %w", err)
	}
	if len(payload) == 0 {
		return nil
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("wire: write frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one uint32-LE length prefix and that many payload bytes.
// io.EOF is returned verbatim when the stream ends cleanly on a frame
// boundary (no bytes of the next length prefix have been read); any other
// read failure, including a partial length prefix, is wrapped and treated
// as fatal to the caller.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("wire: read frame length: %w", err)
	}
	n := binary.LittleEndian.Uint32(lenBuf[:])
	if n > maxFrameBytes {
		return nil, fmt.Errorf("wire: frame length %d exceeds limit %d", n, maxFrameBytes)
	}
	if n == 0 {
		return []byte{}, nil
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("wire: read frame payload: %w", err)
	}
	return payload, nil
}
