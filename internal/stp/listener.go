package stp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/logging"
)

// ListenerStats holds operational counters for a Listener.
type ListenerStats struct {
	Accepted          uint64
	AcceptErrors      uint64
	HandshakeFailures uint64
	Requests          uint64
	ActiveConns       int64
}

// Listener accepts STP connections on a TCP address.
//
// Thread Safety:
//   - Accept and Serve must not be used concurrently on the same Listener.
//   - Close, Addr and Stats are safe from any goroutine.
type Listener struct {
	ln  net.Listener
	cfg Config
	log logging.LeveledLogger

	closed atomic.Bool
	wg     sync.WaitGroup

	connsMu sync.Mutex
	conns   map[*Conn]struct{}

	accepted          atomic.Uint64
	acceptErrors      atomic.Uint64
	handshakeFailures atomic.Uint64
	requests          atomic.Uint64
	active            atomic.Int64
}

// Bind listens on addr ("host:port").
//
// Parameters:
//   - addr: TCP address to bind; port 0 picks a free port
//   - cfg: Frame limits, greeting and logging settings
//
// Returns:
//   - *Listener: Bound listener, not yet accepting
//   - error: ErrInvalidAddress for malformed input, or the bind failure
func Bind(addr string, cfg Config) (*Listener, error) {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, addr, err)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("stp: bind %s: %w", addr, err)
	}

	cfg = cfg.withDefaults()
	l := &Listener{
		ln:    ln,
		cfg:   cfg,
		log:   cfg.newLogger("stp-listener"),
		conns: make(map[*Conn]struct{}),
	}
	if l.log != nil {
		l.log.Infof("listening on %s", ln.Addr())
	}
	return l, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Accept blocks until the next connection is established and, when enabled,
// has completed the greeting. The caller owns the returned Conn.
//
// A failed accept does not close the listener; callers should log and call
// Accept again.
func (l *Listener) Accept() (*Conn, error) {
	return l.AcceptContext(context.Background())
}

// AcceptContext is Accept with cancellation. Cancelling ctx unblocks a
// pending accept when the underlying listener supports deadlines.
func (l *Listener) AcceptContext(ctx context.Context) (*Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dl, hasDeadline := l.ln.(interface{ SetDeadline(time.Time) error })
	if hasDeadline {
		stop := context.AfterFunc(ctx, func() {
			_ = dl.SetDeadline(aLongTimeAgo) //nolint:errcheck // best effort interruption
		})
		defer func() {
			if !stop() {
				_ = dl.SetDeadline(time.Time{}) //nolint:errcheck // restore blocking accepts
			}
		}()
	}

	nc, err := l.acceptNet(ctx)
	if err != nil {
		return nil, err
	}

	c := newConn(nc, l.cfg)
	if l.cfg.Handshake {
		if err := c.serverHandshake(ctx, l.cfg.HandshakeTimeout); err != nil {
			l.handshakeFailures.Add(1)
			c.Close()
			return nil, fmt.Errorf("stp: accept %s: %w", nc.RemoteAddr(), err)
		}
	}
	return c, nil
}

// Serve accepts connections until ctx is cancelled or the listener is closed,
// running h for every request. Each connection gets its own goroutine, which
// ends at the connection's first error without affecting other connections.
// Accept failures are logged and the loop continues.
//
// Serve waits for all connection goroutines before returning ErrClosed.
func (l *Listener) Serve(ctx context.Context, h Handler) error {
	if h == nil {
		return ErrNoHandler
	}

	stop := context.AfterFunc(ctx, func() {
		l.Close()
	})
	defer stop()

	var backoff time.Duration
	for {
		nc, err := l.acceptNet(ctx)
		if err != nil {
			if errors.Is(err, ErrClosed) || ctx.Err() != nil {
				l.Close()
				l.wg.Wait()
				return ErrClosed
			}

			backoff = nextBackoff(backoff)
			if l.log != nil {
				l.log.Warnf("accept failed, retrying in %v: %v", backoff, err)
			}

			select {
			case <-ctx.Done():
			case <-time.After(backoff):
			}
			continue
		}
		backoff = 0

		c := newConn(nc, l.cfg)
		if !l.track(c) {
			c.Close()
			continue
		}

		l.wg.Add(1)
		go l.serveConn(ctx, c, h)
	}
}

// acceptNet takes the next raw connection from the underlying listener and
// updates the accept counters. Failures after Close map to ErrClosed and
// failures caused by ctx wrap ctx.Err(); neither counts as an accept error.
func (l *Listener) acceptNet(ctx context.Context) (net.Conn, error) {
	nc, err := l.ln.Accept()
	if err != nil {
		if l.closed.Load() {
			return nil, ErrClosed
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("stp: accept: %w", ctx.Err())
		}
		l.acceptErrors.Add(1)
		return nil, fmt.Errorf("stp: accept: %w", err)
	}
	l.accepted.Add(1)
	return nc, nil
}

// serveConn runs the request loop for one connection.
func (l *Listener) serveConn(ctx context.Context, c *Conn, h Handler) {
	defer l.wg.Done()
	defer l.untrack(c)
	defer c.Close()

	l.active.Add(1)
	defer l.active.Add(-1)

	peer := c.RemoteAddr()
	if l.log != nil {
		l.log.Debugf("connection from %s", peer)
	}

	if l.cfg.Handshake {
		if err := c.serverHandshake(ctx, l.cfg.HandshakeTimeout); err != nil {
			l.handshakeFailures.Add(1)
			if l.log != nil {
				l.log.Warnf("handshake with %s failed: %v", peer, err)
			}
			return
		}
	}

	for {
		if err := c.ProcessOnceContext(ctx, h); err != nil {
			l.logConnEnd(ctx, peer, err)
			return
		}
		l.requests.Add(1)
	}
}

// logConnEnd logs why a connection loop stopped. Peer closes and shutdown
// are expected and logged at debug level.
func (l *Listener) logConnEnd(ctx context.Context, peer net.Addr, err error) {
	if l.log == nil {
		return
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
		l.log.Debugf("connection from %s closed: %v", peer, err)
		return
	}
	l.log.Warnf("connection from %s ended: %v", peer, err)
}

// track registers an active connection. It returns false after Close.
func (l *Listener) track(c *Conn) bool {
	l.connsMu.Lock()
	defer l.connsMu.Unlock()
	if l.closed.Load() {
		return false
	}
	l.conns[c] = struct{}{}
	return true
}

func (l *Listener) untrack(c *Conn) {
	l.connsMu.Lock()
	delete(l.conns, c)
	l.connsMu.Unlock()
}

// Close stops accepting and closes every connection started by Serve.
// Safe to call multiple times.
func (l *Listener) Close() error {
	l.connsMu.Lock()
	if l.closed.Swap(true) {
		l.connsMu.Unlock()
		return nil
	}
	for c := range l.conns {
		c.Close()
	}
	l.connsMu.Unlock()

	if l.log != nil {
		l.log.Info("listener closed")
	}
	return l.ln.Close()
}

// Stats returns current operational counters.
func (l *Listener) Stats() ListenerStats {
	return ListenerStats{
		Accepted:          l.accepted.Load(),
		AcceptErrors:      l.acceptErrors.Load(),
		HandshakeFailures: l.handshakeFailures.Load(),
		Requests:          l.requests.Load(),
		ActiveConns:       l.active.Load(),
	}
}

// nextBackoff doubles the accept retry delay within [minAcceptBackoff, maxAcceptBackoff].
func nextBackoff(current time.Duration) time.Duration {
	if current == 0 {
		return minAcceptBackoff
	}
	current *= 2
	if current > maxAcceptBackoff {
		current = maxAcceptBackoff
	}
	return current
}
