package stp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// Greeting bytes exchanged when Config.Handshake is enabled.
var (
	clientGreeting = [4]byte{'c', 'l', 'n', 't'}
	serverGreeting = [4]byte{'s', 'e', 'r', 'v'}
)

// aLongTimeAgo is a deadline in the past, used to abort pending I/O.
var aLongTimeAgo = time.Unix(1, 0)

// Handler produces the response text for one request.
//
// Handlers decide how to answer requests they do not understand; returning
// an error text keeps the connection usable.
type Handler interface {
	HandleRequest(ctx context.Context, request string) string
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, request string) string

// HandleRequest calls f(ctx, request).
func (f HandlerFunc) HandleRequest(ctx context.Context, request string) string {
	return f(ctx, request)
}

// Conn is one established STP stream.
//
// A Conn is owned by a single goroutine; it carries one request/response
// cycle at a time. Close may be called from any goroutine.
type Conn struct {
	nc           net.Conn
	r            *bufio.Reader
	w            *bufio.Writer
	maxFrameSize uint32
	readTimeout  time.Duration
	writeTimeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

// newConn wraps nc using the limits from cfg. cfg must already have defaults applied.
func newConn(nc net.Conn, cfg Config) *Conn {
	return &Conn{
		nc:           nc,
		r:            bufio.NewReader(nc),
		w:            bufio.NewWriter(nc),
		maxFrameSize: cfg.MaxFrameSize,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
	}
}

// Send writes one frame.
func (c *Conn) Send(data string) error {
	return c.SendContext(context.Background(), data)
}

// Recv reads one frame.
func (c *Conn) Recv() (string, error) {
	return c.RecvContext(context.Background())
}

// SendContext writes one frame. Cancelling ctx aborts a blocked write; the
// connection must then be closed because a partial frame may be on the wire.
func (c *Conn) SendContext(ctx context.Context, data string) error {
	if uint64(len(data)) > uint64(c.maxFrameSize) {
		return &SendError{Err: fmt.Errorf("%w: %d bytes exceeds limit %d", ErrFrameTooLarge, len(data), c.maxFrameSize)}
	}
	if err := ctx.Err(); err != nil {
		return &SendError{Err: err}
	}
	if err := c.nc.SetWriteDeadline(deadlineFor(ctx, c.writeTimeout)); err != nil {
		return &SendError{Err: fmt.Errorf("set write deadline: %w", err)}
	}

	stop := c.interruptOnDone(ctx)
	err := writeFrame(c.w, data)
	if !stop() && err != nil {
		err = fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	if err != nil {
		return &SendError{Err: err}
	}
	return nil
}

// RecvContext reads one frame. Cancelling ctx aborts a blocked read.
func (c *Conn) RecvContext(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &RecvError{Err: err}
	}
	if err := c.nc.SetReadDeadline(deadlineFor(ctx, c.readTimeout)); err != nil {
		return "", &RecvError{Err: fmt.Errorf("set read deadline: %w", err)}
	}

	stop := c.interruptOnDone(ctx)
	s, err := readFrame(c.r, c.maxFrameSize)
	if !stop() && err != nil {
		err = fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	if err != nil {
		return "", &RecvError{Err: err}
	}
	return s, nil
}

// ProcessOnce serves one request: it reads a frame, passes it to h and writes
// h's result as the response frame. It does not retry; callers loop on it for
// the life of the connection and stop at the first error.
func (c *Conn) ProcessOnce(h Handler) error {
	return c.ProcessOnceContext(context.Background(), h)
}

// ProcessOnceContext is ProcessOnce with cancellation. ctx is also passed to h.
func (c *Conn) ProcessOnceContext(ctx context.Context, h Handler) error {
	request, err := c.RecvContext(ctx)
	if err != nil {
		return err
	}
	return c.SendContext(ctx, h.HandleRequest(ctx, request))
}

// LocalAddr returns the local network address.
func (c *Conn) LocalAddr() net.Addr { return c.nc.LocalAddr() }

// RemoteAddr returns the peer's network address.
func (c *Conn) RemoteAddr() net.Addr { return c.nc.RemoteAddr() }

// Close closes the underlying stream. Safe to call multiple times.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.nc.Close()
	})
	return c.closeErr
}

// interruptOnDone arranges for pending I/O to fail once ctx is done.
// The returned stop function reports false if the interruption already fired.
func (c *Conn) interruptOnDone(ctx context.Context) (stop func() bool) {
	if ctx.Done() == nil {
		return func() bool { return true }
	}
	return context.AfterFunc(ctx, func() {
		_ = c.nc.SetDeadline(aLongTimeAgo) //nolint:errcheck // best effort, connection is being abandoned
	})
}

// clientHandshake sends the client greeting and checks the server's reply.
func (c *Conn) clientHandshake(ctx context.Context, timeout time.Duration) error {
	if err := c.nc.SetDeadline(deadlineFor(ctx, timeout)); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}
	defer c.nc.SetDeadline(time.Time{}) //nolint:errcheck // cleared for normal operation

	if _, err := c.w.Write(clientGreeting[:]); err != nil {
		return fmt.Errorf("write greeting: %w", err)
	}
	if err := c.w.Flush(); err != nil {
		return fmt.Errorf("write greeting: %w", err)
	}

	var reply [4]byte
	if _, err := io.ReadFull(c.r, reply[:]); err != nil {
		return fmt.Errorf("read greeting: %w", err)
	}
	if reply != serverGreeting {
		return fmt.Errorf("%w: unexpected greeting %q", ErrBadHandshake, reply[:])
	}
	return nil
}

// serverHandshake checks the client greeting and answers it.
func (c *Conn) serverHandshake(ctx context.Context, timeout time.Duration) error {
	if err := c.nc.SetDeadline(deadlineFor(ctx, timeout)); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}
	defer c.nc.SetDeadline(time.Time{}) //nolint:errcheck // cleared for normal operation

	var greeting [4]byte
	if _, err := io.ReadFull(c.r, greeting[:]); err != nil {
		return fmt.Errorf("read greeting: %w", err)
	}
	if greeting != clientGreeting {
		return fmt.Errorf("%w: unexpected greeting %q", ErrBadHandshake, greeting[:])
	}

	if _, err := c.w.Write(serverGreeting[:]); err != nil {
		return fmt.Errorf("write greeting: %w", err)
	}
	if err := c.w.Flush(); err != nil {
		return fmt.Errorf("write greeting: %w", err)
	}
	return nil
}

// deadlineFor returns the earlier of now+timeout and the context deadline.
// A zero time means no deadline.
func deadlineFor(ctx context.Context, timeout time.Duration) time.Time {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	return deadline
}
