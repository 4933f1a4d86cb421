package net

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxFrame is the payload ceiling used when none is configured.
const DefaultMaxFrame = 1 << 20

// ErrFrameTooLarge is returned by ReadFrame when the declared length exceeds
// the ceiling. The oversized payload has been consumed from the stream, so the
// caller may keep reading.
var ErrFrameTooLarge = errors.New("frame exceeds size limit")

// ReadFrame reads one frame from r.
// Wire format: [4 bytes BE: payload length][payload].
func ReadFrame(r io.Reader, maxSize int) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	n := binary.BigEndian.Uint32(header[:])
	if maxSize <= 0 {
		maxSize = DefaultMaxFrame
	}
	if uint64(n) > uint64(maxSize) {
		if _, err := io.CopyN(io.Discard, r, int64(n)); err != nil {
			return nil, fmt.Errorf("skip oversized frame (%d bytes): %w", n, err)
		}
		return nil, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, n, maxSize)
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload (%d bytes): %w", n, err)
	}
	return payload, nil
}

// WriteFrame writes one frame to w with a single Write call.
func WriteFrame(w io.Writer, data []byte) error {
	buf := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(buf, uint32(len(data)))
	copy(buf[4:], data)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
