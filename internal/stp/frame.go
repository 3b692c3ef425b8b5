package stp

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf8"
)

// flusher is implemented by buffered writers such as *bufio.Writer.
type flusher interface {
	Flush() error
}

// EncodeFrame returns data as a single wire frame: a 4-byte big-endian length
// followed by the UTF-8 bytes of data.
//
// It panics if data is longer than math.MaxUint32 bytes; WriteFrame checks
// that limit before calling it.
func EncodeFrame(data string) []byte {
	if uint64(len(data)) > math.MaxUint32 {
		panic("stp: frame payload exceeds u32 length")
	}
	buf := make([]byte, headerSize+len(data))
	binary.BigEndian.PutUint32(buf[:headerSize], uint32(len(data))) //nolint:gosec // length checked above
	copy(buf[headerSize:], data)
	return buf
}

// WriteFrame writes data as one frame and flushes w if it is buffered.
//
// Parameters:
//   - w: Destination stream
//   - data: Payload text
//
// Returns:
//   - error: *SendError wrapping the write fault, io.ErrShortWrite, or ErrFrameTooLarge
func WriteFrame(w io.Writer, data string) error {
	if err := writeFrame(w, data); err != nil {
		return &SendError{Err: err}
	}
	return nil
}

func writeFrame(w io.Writer, data string) error {
	if uint64(len(data)) > math.MaxUint32 {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(data))
	}

	frame := EncodeFrame(data)
	n, err := w.Write(frame)
	if err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if n != len(frame) {
		return fmt.Errorf("write frame: %w", io.ErrShortWrite)
	}

	if f, ok := w.(flusher); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flush: %w", err)
		}
	}
	return nil
}

// ReadFrame reads one frame from r and returns its payload.
//
// The length prefix is checked against maxSize before any payload byte is
// read or allocated. A maxSize of zero selects DefaultMaxFrameSize.
//
// Parameters:
//   - r: Source stream
//   - maxSize: Largest accepted payload in bytes
//
// Returns:
//   - string: The decoded payload
//   - error: *RecvError wrapping io.EOF (clean close before a frame),
//     io.ErrUnexpectedEOF (truncated frame), ErrFrameTooLarge, ErrBadEncoding,
//     or the underlying read fault
func ReadFrame(r io.Reader, maxSize uint32) (string, error) {
	s, err := readFrame(r, maxSize)
	if err != nil {
		return "", &RecvError{Err: err}
	}
	return s, nil
}

func readFrame(r io.Reader, maxSize uint32) (string, error) {
	if maxSize == 0 {
		maxSize = DefaultMaxFrameSize
	}

	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		// io.ReadFull reports io.EOF only when nothing was read, which is the
		// peer closing between frames.
		if err == io.EOF { //nolint:errorlint // io.ReadFull returns io.EOF unwrapped
			return "", io.EOF
		}
		return "", fmt.Errorf("read length: %w", err)
	}

	size := binary.BigEndian.Uint32(header[:])
	if size > maxSize {
		return "", fmt.Errorf("%w: %d bytes exceeds limit %d", ErrFrameTooLarge, size, maxSize)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		if err == io.EOF { //nolint:errorlint // io.ReadFull returns io.EOF unwrapped
			err = io.ErrUnexpectedEOF
		}
		return "", fmt.Errorf("read payload (%d bytes): %w", size, err)
	}

	if !utf8.Valid(payload) {
		return "", ErrBadEncoding
	}
	return string(payload), nil
}
