package telemetry

import (
	"fmt"
	"net"
	"time"

	"github.com/pion/logging"
)

// Source is the receive side of a datagram transport.
// net.PacketConn satisfies it.
type Source interface {
	ReadFrom(p []byte) (n int, addr net.Addr, err error)
	SetReadDeadline(t time.Time) error
}

// Config holds settings shared by collectors and senders.
type Config struct {
	// LoggerFactory creates scoped loggers. If nil, logging is disabled.
	LoggerFactory logging.LoggerFactory

	// OnReading, if set, is called by the collector loop after each stored
	// reading, outside the reading lock. It must not block for long.
	OnReading func(value float64, from net.Addr)
}

func (c Config) newLogger(scope string) logging.LeveledLogger {
	if c.LoggerFactory == nil {
		return nil
	}
	return c.LoggerFactory.NewLogger(scope)
}

// ListenUDP opens a UDP socket on addr for use as a collector Source.
func ListenUDP(addr string) (net.PacketConn, error) {
	pc, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("telemetry: listen %s: %w", addr, err)
	}
	return pc, nil
}
