package stp

import (
	"time"

	"github.com/pion/logging"
)

// Default limits and timeouts.
const (
	// DefaultMaxFrameSize is the largest payload accepted when Config.MaxFrameSize is zero.
	DefaultMaxFrameSize = 1 << 20 // 1 MiB

	// defaultConnectTimeout bounds dialing plus the optional greeting.
	defaultConnectTimeout = 10 * time.Second

	// defaultHandshakeTimeout bounds the server side of the greeting.
	defaultHandshakeTimeout = 5 * time.Second

	// headerSize is the length prefix size in bytes.
	headerSize = 4

	// minAcceptBackoff and maxAcceptBackoff bound the pause after a failed accept.
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// Config holds settings shared by listeners and clients.
// The zero value is usable.
type Config struct {
	// MaxFrameSize is the largest payload, in bytes, accepted or sent.
	// Default: DefaultMaxFrameSize.
	MaxFrameSize uint32

	// Handshake enables the "clnt"/"serv" greeting after connect.
	// Both ends must agree.
	Handshake bool

	// ConnectTimeout bounds Connect, including the greeting.
	// Default: 10 seconds.
	ConnectTimeout time.Duration

	// HandshakeTimeout bounds the server side of the greeting.
	// Default: 5 seconds.
	HandshakeTimeout time.Duration

	// ReadTimeout, if set, bounds every frame read. A server connection that
	// stays idle longer than this is closed. Zero means no limit.
	ReadTimeout time.Duration

	// WriteTimeout, if set, bounds every frame write. Zero means no limit.
	WriteTimeout time.Duration

	// LoggerFactory creates scoped loggers. If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory
}

// withDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) withDefaults() Config {
	if c.MaxFrameSize == 0 {
		c.MaxFrameSize = DefaultMaxFrameSize
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = defaultHandshakeTimeout
	}
	return c
}

// newLogger returns a scoped logger, or nil when logging is disabled.
func (c Config) newLogger(scope string) logging.LeveledLogger {
	if c.LoggerFactory == nil {
		return nil
	}
	return c.LoggerFactory.NewLogger(scope)
}
