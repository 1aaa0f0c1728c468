package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxRequestFrame bounds inbound frames. Requests are small; anything
// larger is a protocol violation. Responses are not bounded here — a full
// filtered listing can legitimately be large.
const MaxRequestFrame = 64 << 10

var (
	ErrFrameTooLarge = errors.New("frame exceeds size limit")
	ErrEmptyFrame    = errors.New("zero-length frame")
)

// ReadFrame reads one length-prefixed frame: a 4-byte big-endian payload
// length followed by the payload. max bounds the accepted payload size.
func ReadFrame(r io.Reader, max uint32) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(header[:])
	if n == 0 {
		return nil, ErrEmptyFrame
	}
	if n > max {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("reading %d-byte payload: %w", n, err)
	}
	return payload, nil
}

// WriteFrame writes payload as one length-prefixed frame.
func WriteFrame(w io.Writer, payload []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}
