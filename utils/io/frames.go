// Package io implements length-prefixed framing on a byte stream. A frame is
// a little-endian u32 length followed by that many body bytes; the stream is
// a pure concatenation of frames.
package io

import (
	"encoding/binary"
	"fmt"
	"io"
)

// DefaultMaxFrameSize bounds how much a single inbound frame may allocate.
// The length prefix alone would allow 4 GiB.
const DefaultMaxFrameSize = 1 << 24

// FrameHeaderSize is the size of the length prefix.
const FrameHeaderSize = 4

// ReadFrame reads exactly one frame from the stream. maxSize of zero means
// DefaultMaxFrameSize.
func ReadFrame(r io.Reader, maxSize uint32) ([]byte, error) {
	if maxSize == 0 {
		maxSize = DefaultMaxFrameSize
	}

	var header [FrameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	length := binary.LittleEndian.Uint32(header[:])
	if length > maxSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit of %d", length, maxSize)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return body, nil
}

// AppendFrame appends the length prefix and body to buf.
func AppendFrame(buf []byte, body []byte) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(body)))
	return append(buf, body...)
}

// WriteFrame writes one frame as a single Write call so that the prefix and
// body are never interleaved with other writers using their own frames.
func WriteFrame(w io.Writer, body []byte) error {
	frame := AppendFrame(make([]byte, 0, FrameHeaderSize+len(body)), body)
	_, err := w.Write(frame)
	return err
}
