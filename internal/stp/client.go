package stp

import (
	"context"
	"net"
	"sync"

	"github.com/pion/logging"
)

// Client is a connected STP requester. Requests are serialised; a Client may
// be shared between goroutines but only one request is in flight at a time.
type Client struct {
	conn *Conn
	addr string
	log  logging.LeveledLogger

	mu sync.Mutex
}

// Connect dials addr and, when cfg.Handshake is set, performs the greeting.
// The whole operation is bounded by cfg.ConnectTimeout.
func Connect(addr string, cfg Config) (*Client, error) {
	return ConnectContext(context.Background(), addr, cfg)
}

// ConnectContext is Connect with cancellation.
//
// Returns:
//   - *Client: Ready for SendRequest
//   - error: *ConnectError wrapping the dial or greeting failure
func ConnectContext(ctx context.Context, addr string, cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &ConnectError{Addr: addr, Err: err}
	}

	c := newConn(nc, cfg)
	if cfg.Handshake {
		if err := c.clientHandshake(ctx, cfg.ConnectTimeout); err != nil {
			c.Close()
			return nil, &ConnectError{Addr: addr, Err: err}
		}
	}

	cl := &Client{
		conn: c,
		addr: addr,
		log:  cfg.newLogger("stp-client"),
	}
	if cl.log != nil {
		cl.log.Debugf("connected to %s from %s", addr, nc.LocalAddr())
	}
	return cl, nil
}

// SendRequest writes req and blocks until the response frame arrives.
//
// Returns:
//   - string: The response payload
//   - error: *RequestError with PhaseSend if the request was not written,
//     or PhaseRecv if it was written but no response was read
func (c *Client) SendRequest(req string) (string, error) {
	return c.SendRequestContext(context.Background(), req)
}

// SendRequestContext is SendRequest with cancellation. After a cancelled or
// failed request the connection state is undefined and the Client should be
// closed.
func (c *Client) SendRequestContext(ctx context.Context, req string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SendContext(ctx, req); err != nil {
		c.logFailure(PhaseSend, err)
		return "", &RequestError{Phase: PhaseSend, Err: err}
	}

	resp, err := c.conn.RecvContext(ctx)
	if err != nil {
		c.logFailure(PhaseRecv, err)
		return "", &RequestError{Phase: PhaseRecv, Err: err}
	}
	return resp, nil
}

func (c *Client) logFailure(phase Phase, err error) {
	if c.log != nil {
		c.log.Warnf("request to %s failed in %s phase: %v", c.addr, phase, err)
	}
}

// LocalAddr returns the client's local address.
func (c *Client) LocalAddr() net.Addr { return c.conn.LocalAddr() }

// RemoteAddr returns the server's address.
func (c *Client) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// Close closes the connection. Safe to call multiple times.
func (c *Client) Close() error {
	return c.conn.Close()
}
