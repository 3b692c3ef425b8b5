package stp

import (
	"errors"
	"fmt"
	"net"
)

// Sentinel errors for STP operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrBadHandshake is returned when the peer's greeting does not match.
	ErrBadHandshake = errors.New("stp: bad handshake")

	// ErrBadEncoding is returned when a frame payload is not valid UTF-8.
	ErrBadEncoding = errors.New("stp: payload is not valid UTF-8")

	// ErrFrameTooLarge is returned when a length prefix exceeds the configured
	// maximum. The payload is never read, so the stream cannot be resynchronised
	// and the connection should be dropped.
	ErrFrameTooLarge = errors.New("stp: frame exceeds maximum size")

	// ErrInvalidAddress is returned by Bind for a malformed listen address.
	ErrInvalidAddress = errors.New("stp: invalid address")

	// ErrClosed is returned by Serve and Accept after the listener is closed.
	ErrClosed = errors.New("stp: listener closed")

	// ErrNoHandler is returned by Serve when no handler is supplied.
	ErrNoHandler = errors.New("stp: handler is required")
)

// ConnectError reports a failure to establish a client connection.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("stp: connect %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// SendError reports a failure to write a frame.
type SendError struct {
	Err error
}

func (e *SendError) Error() string { return "stp: send: " + e.Err.Error() }

func (e *SendError) Unwrap() error { return e.Err }

// RecvError reports a failure to read a frame.
type RecvError struct {
	Err error
}

func (e *RecvError) Error() string { return "stp: recv: " + e.Err.Error() }

func (e *RecvError) Unwrap() error { return e.Err }

// Phase identifies the half of a request/response cycle that failed.
type Phase int

const (
	// PhaseSend means the request frame was not fully written.
	PhaseSend Phase = iota + 1
	// PhaseRecv means the request was written but no response was read.
	PhaseRecv
)

func (p Phase) String() string {
	switch p {
	case PhaseSend:
		return "send"
	case PhaseRecv:
		return "recv"
	default:
		return "unknown"
	}
}

// RequestError reports a failed client round trip.
// Err is a *SendError for PhaseSend and a *RecvError for PhaseRecv.
type RequestError struct {
	Phase Phase
	Err   error
}

func (e *RequestError) Error() string {
	cause := e.Err
	if inner := errors.Unwrap(cause); inner != nil {
		cause = inner
	}
	return fmt.Sprintf("stp: request failed in %s phase: %v", e.Phase, cause)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Sent reports whether the request frame left the client before the failure.
func (e *RequestError) Sent() bool { return e.Phase == PhaseRecv }

// IsTimeout reports whether err was caused by an I/O deadline.
func IsTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
