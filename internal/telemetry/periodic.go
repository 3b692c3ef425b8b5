package telemetry

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/pion/logging"
)

// DriftSequence returns a generator yielding start, then adding step*i on
// the i-th call: start, start+step, start+3*step, start+6*step, ...
func DriftSequence(start, step float64) func() float64 {
	t := start
	i := 0
	return func() float64 {
		t += step * float64(i)
		i++
		return t
	}
}

// PeriodicSenderStats holds counters for a PeriodicSender.
type PeriodicSenderStats struct {
	Sent   uint64
	Failed uint64
}

// PeriodicSender sends a reading every interval, ignoring individual failures.
type PeriodicSender struct {
	sender   Sender
	peer     net.Addr
	interval time.Duration
	next     func() float64
	count    int
	log      logging.LeveledLogger

	sent   atomic.Uint64
	failed atomic.Uint64
}

// NewPeriodicSender creates a sender loop. count limits the number of sends;
// zero means unlimited.
func NewPeriodicSender(s Sender, peer net.Addr, interval time.Duration, next func() float64, count int, cfg Config) *PeriodicSender {
	return &PeriodicSender{
		sender:   s,
		peer:     peer,
		interval: interval,
		next:     next,
		count:    count,
		log:      cfg.newLogger("telemetry-periodic"),
	}
}

// Run loops {next value, send, sleep} until ctx ends or count is reached.
// A failed send is logged and the loop continues.
//
// Returns:
//   - error: nil when count is reached, ctx.Err() when cancelled, ErrInvalidInterval
func (p *PeriodicSender) Run(ctx context.Context) error {
	if p.interval <= 0 {
		return ErrInvalidInterval
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for i := 0; p.count == 0 || i < p.count; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		value := p.next()
		if err := p.sender.SendReading(value, p.peer); err != nil {
			p.failed.Add(1)
			if p.log != nil {
				p.log.Warnf("send %v failed: %v", value, err)
			}
			continue
		}
		p.sent.Add(1)
	}
	return nil
}

// Stats returns current counters.
func (p *PeriodicSender) Stats() PeriodicSenderStats {
	return PeriodicSenderStats{
		Sent:   p.sent.Load(),
		Failed: p.failed.Load(),
	}
}
