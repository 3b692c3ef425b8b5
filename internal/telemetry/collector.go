package telemetry

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/logging"
)

// readBufferSize is larger than DatagramSize so oversized datagrams are
// seen at their real length instead of being silently truncated.
const readBufferSize = 512

// minRecvBackoff is the first pause after a failed receive. Consecutive
// failures double it up to the poll interval.
const minRecvBackoff = time.Millisecond

// CollectorStats holds operational counters for a Collector.
type CollectorStats struct {
	Received   uint64
	Dropped    uint64
	RecvErrors uint64
}

// Collector keeps the latest reading received from a Source.
//
// Thread Safety:
//   - CurrentReading, Reading, Stop, Close, Done and Stats are safe from any goroutine.
//   - Run starts exactly one background goroutine per Collector.
type Collector struct {
	log       logging.LeveledLogger
	onReading func(float64, net.Addr)

	started atomic.Bool
	stopped atomic.Bool
	done    chan struct{}

	mu         sync.RWMutex
	reading    float64
	hasReading bool

	received   atomic.Uint64
	dropped    atomic.Uint64
	recvErrors atomic.Uint64
}

// NewCollector creates a collector reporting initial until the first datagram arrives.
func NewCollector(initial float64, cfg Config) *Collector {
	return &Collector{
		log:       cfg.newLogger("telemetry-collector"),
		onReading: cfg.OnReading,
		done:      make(chan struct{}),
		reading:   initial,
	}
}

// Run starts the receive loop on src, polling every interval.
//
// Parameters:
//   - src: Datagram source; the collector does not close it
//   - interval: Read deadline per iteration, and the shutdown bound
//
// Returns:
//   - error: ErrInvalidInterval, ErrNoSource, or ErrAlreadyRunning
func (c *Collector) Run(src Source, interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}
	if src == nil {
		return ErrNoSource
	}
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	go c.loop(src, interval, func() bool { return true })
	return nil
}

// RunContext is Run with the collector also stopping when ctx ends.
func (c *Collector) RunContext(ctx context.Context, src Source, interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}
	if src == nil {
		return ErrNoSource
	}
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	stop := context.AfterFunc(ctx, c.Stop)
	go c.loop(src, interval, stop)
	return nil
}

func (c *Collector) loop(src Source, interval time.Duration, release func() bool) {
	defer close(c.done)
	defer release()

	if c.log != nil {
		c.log.Debugf("collector started, interval %v", interval)
	}

	buf := make([]byte, readBufferSize)
	var backoff time.Duration
	for {
		if c.stopped.Load() {
			if c.log != nil {
				c.log.Debug("collector stopped")
			}
			return
		}

		if err := src.SetReadDeadline(time.Now().Add(interval)); err != nil {
			if c.closedSource(err) {
				return
			}
			c.recvErrors.Add(1)
			if c.log != nil {
				c.log.Warnf("set read deadline: %v", err)
			}
			time.Sleep(interval)
			continue
		}

		n, from, err := src.ReadFrom(buf)
		if err != nil {
			if IsTimeout(err) {
				backoff = 0
				continue
			}
			if c.closedSource(err) {
				return
			}
			c.recvErrors.Add(1)
			backoff = nextRecvBackoff(backoff, interval)
			if c.log != nil {
				c.log.Warnf("can't receive datagram, retrying in %v: %v", backoff, err)
			}
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		value, err := DecodeReading(buf[:n])
		if err != nil {
			c.dropped.Add(1)
			if c.log != nil {
				c.log.Warnf("dropping datagram from %v: %v", from, err)
			}
			continue
		}

		// A reading that raced with Stop is discarded.
		if c.stopped.Load() {
			continue
		}

		c.mu.Lock()
		c.reading = value
		c.hasReading = true
		c.mu.Unlock()
		c.received.Add(1)

		if c.log != nil {
			c.log.Tracef("reading %v from %v", value, from)
		}
		if c.onReading != nil {
			c.onReading(value, from)
		}
	}
}

// closedSource reports whether err means the source was closed, which ends the loop.
func (c *Collector) closedSource(err error) bool {
	if !errors.Is(err, net.ErrClosed) {
		return false
	}
	if c.log != nil {
		c.log.Debug("source closed, collector exiting")
	}
	return true
}

// nextRecvBackoff doubles the receive retry pause within [minRecvBackoff, limit].
func nextRecvBackoff(current, limit time.Duration) time.Duration {
	next := max(current*2, minRecvBackoff)
	return min(next, limit)
}

// CurrentReading returns the latest reading, or the initial value if none arrived.
func (c *Collector) CurrentReading() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reading
}

// Reading returns the latest reading and whether any datagram has been stored.
func (c *Collector) Reading() (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reading, c.hasReading
}

// Stop asks the loop to exit. It does not wait. Safe to call multiple times.
func (c *Collector) Stop() {
	c.stopped.Store(true)
}

// Close stops the loop and waits for it to exit, which takes at most one
// poll interval. The source is not closed.
func (c *Collector) Close() error {
	c.Stop()
	if c.started.Load() {
		<-c.done
	}
	return nil
}

// Done is closed when the loop has exited.
func (c *Collector) Done() <-chan struct{} {
	return c.done
}

// Stats returns current operational counters.
func (c *Collector) Stats() CollectorStats {
	return CollectorStats{
		Received:   c.received.Load(),
		Dropped:    c.dropped.Load(),
		RecvErrors: c.recvErrors.Load(),
	}
}
