package telemetry

import (
	"net"

	"github.com/pion/logging"
)

// FailingSender fails every send without touching the wrapped sender.
// It is used to exercise error paths.
type FailingSender struct {
	inner Sender
}

// NewFailingSender wraps inner.
func NewFailingSender(inner Sender) *FailingSender {
	return &FailingSender{inner: inner}
}

// SendReading always returns ErrInjectedFailure.
func (f *FailingSender) SendReading(float64, net.Addr) error {
	return ErrInjectedFailure
}

// Unwrap returns the wrapped sender.
func (f *FailingSender) Unwrap() Sender { return f.inner }

// LoggingSender logs each send and its outcome, then returns the wrapped
// sender's result unchanged.
type LoggingSender struct {
	inner Sender
	log   logging.LeveledLogger
}

// NewLoggingSender wraps inner. With no LoggerFactory it only delegates.
func NewLoggingSender(inner Sender, cfg Config) *LoggingSender {
	return &LoggingSender{
		inner: inner,
		log:   cfg.newLogger("telemetry-sender"),
	}
}

// SendReading logs, delegates and logs the result.
func (l *LoggingSender) SendReading(value float64, peer net.Addr) error {
	if l.log != nil {
		l.log.Debugf("sending %v to %v", value, peer)
	}
	err := l.inner.SendReading(value, peer)
	if l.log != nil {
		if err != nil {
			l.log.Warnf("send %v to %v failed: %v", value, peer, err)
		} else {
			l.log.Infof("sent %v to %v", value, peer)
		}
	}
	return err
}

// Unwrap returns the wrapped sender.
func (l *LoggingSender) Unwrap() Sender { return l.inner }
