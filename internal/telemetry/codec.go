package telemetry

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DatagramSize is the exact size of a reading datagram.
const DatagramSize = 8

// EncodeReading returns v as 8 big-endian IEEE-754 bytes.
func EncodeReading(v float64) []byte {
	buf := make([]byte, DatagramSize)
	binary.BigEndian.PutUint64(buf, math.Float64bits(v))
	return buf
}

// DecodeReading parses a reading datagram.
// Returns ErrBadDatagram unless b is exactly DatagramSize bytes.
func DecodeReading(b []byte) (float64, error) {
	if len(b) != DatagramSize {
		return 0, fmt.Errorf("%w: got %d bytes, want %d", ErrBadDatagram, len(b), DatagramSize)
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}
