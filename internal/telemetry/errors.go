package telemetry

import (
	"errors"
	"net"
)

// Sentinel errors for telemetry operations.
var (
	// ErrAlreadyRunning is returned when Run is called on a collector that was already started.
	ErrAlreadyRunning = errors.New("telemetry: collector already running")

	// ErrInvalidInterval is returned for a non-positive poll or send interval.
	ErrInvalidInterval = errors.New("telemetry: interval must be positive")

	// ErrNoSource is returned when Run is called without a source.
	ErrNoSource = errors.New("telemetry: source is required")

	// ErrBadDatagram is returned when a datagram is not exactly DatagramSize bytes.
	ErrBadDatagram = errors.New("telemetry: bad datagram size")

	// ErrSendFailed wraps I/O failures of a sender.
	ErrSendFailed = errors.New("telemetry: send failed")

	// ErrInjectedFailure is returned by FailingSender for every call.
	ErrInjectedFailure = errors.New("telemetry: injected failure")
)

// IsTimeout reports whether err is a read deadline expiry.
func IsTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
