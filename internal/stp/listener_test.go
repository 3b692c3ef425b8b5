package stp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/pion/transport/v3/test"
)

// echoHandler answers every request with "echo: <request>".
var echoHandler = HandlerFunc(func(_ context.Context, req string) string {
	return "echo: " + req
})

// startServer binds a loopback listener and serves h until the test ends.
func startServer(t *testing.T, cfg Config, h Handler) *Listener {
	t.Helper()

	l, err := Bind("127.0.0.1:0", cfg)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- l.Serve(ctx, h)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if !errors.Is(err, ErrClosed) {
				t.Errorf("Serve() = %v, want ErrClosed", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Serve() did not return after cancel")
		}
	})
	return l
}

func TestBindInvalidAddress(t *testing.T) {
	tests := []struct {
		name string
		addr string
	}{
		{name: "missing port", addr: "127.0.0.1"},
		{name: "empty", addr: ""},
		{name: "garbage", addr: "not an address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := Bind(tt.addr, Config{})
			if err == nil {
				l.Close()
				t.Fatal("Bind() expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidAddress) {
				t.Errorf("Bind() = %v, want ErrInvalidAddress", err)
			}
		})
	}
}

func TestBindAddressInUse(t *testing.T) {
	l, err := Bind("127.0.0.1:0", Config{})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	defer l.Close()

	second, err := Bind(l.Addr().String(), Config{})
	if err == nil {
		second.Close()
		t.Fatal("second Bind() on same address expected error, got nil")
	}
}

func TestServeRoundTrip(t *testing.T) {
	defer test.TimeOut(10 * time.Second).Stop()

	l := startServer(t, Config{}, echoHandler)

	c, err := Connect(l.Addr().String(), Config{})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	for _, req := range []string{"on", "info", "", "off"} {
		resp, err := c.SendRequest(req)
		if err != nil {
			t.Fatalf("SendRequest(%q) error = %v", req, err)
		}
		if want := "echo: " + req; resp != want {
			t.Errorf("SendRequest(%q) = %q, want %q", req, resp, want)
		}
	}
}

func TestServeConcurrentClients(t *testing.T) {
	defer test.TimeOut(10 * time.Second).Stop()

	l := startServer(t, Config{}, echoHandler)

	const clients = 8
	var wg sync.WaitGroup
	errCh := make(chan error, clients)

	for i := range clients {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			c, err := Connect(l.Addr().String(), Config{})
			if err != nil {
				errCh <- err
				return
			}
			defer c.Close()

			for j := range 5 {
				req := fmt.Sprintf("client-%d-%d", id, j)
				resp, err := c.SendRequest(req)
				if err != nil {
					errCh <- err
					return
				}
				if resp != "echo: "+req {
					errCh <- fmt.Errorf("response %q for request %q", resp, req)
					return
				}
			}
		}(i)
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Error(err)
	}

	if got := l.Stats().Accepted; got != clients {
		t.Errorf("Stats().Accepted = %d, want %d", got, clients)
	}
}

func TestServeConnectionErrorIsolated(t *testing.T) {
	defer test.TimeOut(10 * time.Second).Stop()

	l := startServer(t, Config{MaxFrameSize: 16}, echoHandler)

	// A raw peer announcing an oversized frame loses its connection.
	raw, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer raw.Close()
	if _, err := raw.Write([]byte{0, 0, 1, 0}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	raw.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck // test
	if _, err := raw.Read(make([]byte, 1)); err == nil {
		t.Error("oversized frame: connection still open, want closed")
	}

	// Other clients are unaffected.
	c, err := Connect(l.Addr().String(), Config{})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	resp, err := c.SendRequest("info")
	if err != nil || resp != "echo: info" {
		t.Errorf("SendRequest() = %q, %v; want %q, nil", resp, err, "echo: info")
	}
}

func TestServeWithHandshake(t *testing.T) {
	defer test.TimeOut(10 * time.Second).Stop()

	l := startServer(t, Config{Handshake: true}, echoHandler)

	c, err := Connect(l.Addr().String(), Config{Handshake: true})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	resp, err := c.SendRequest("state")
	if err != nil || resp != "echo: state" {
		t.Errorf("SendRequest() = %q, %v; want %q, nil", resp, err, "echo: state")
	}
}

func TestServeHandshakeRejected(t *testing.T) {
	defer test.TimeOut(10 * time.Second).Stop()

	l := startServer(t, Config{Handshake: true}, echoHandler)

	raw, err := net.Dial("tcp", l.Addr().String())
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer raw.Close()

	if _, err := raw.Write([]byte("helo")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	raw.SetReadDeadline(time.Now().Add(2 * time.Second)) //nolint:errcheck // test
	if _, err := raw.Read(make([]byte, 4)); err == nil {
		t.Error("bad greeting: connection still open, want closed")
	}

	deadline := time.Now().Add(2 * time.Second)
	for l.Stats().HandshakeFailures == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := l.Stats().HandshakeFailures; got != 1 {
		t.Errorf("Stats().HandshakeFailures = %d, want 1", got)
	}
}

func TestServeNilHandler(t *testing.T) {
	l, err := Bind("127.0.0.1:0", Config{})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	defer l.Close()

	if err := l.Serve(context.Background(), nil); !errors.Is(err, ErrNoHandler) {
		t.Errorf("Serve(nil) = %v, want ErrNoHandler", err)
	}
}

func TestServeShutdownClosesConnections(t *testing.T) {
	defer test.CheckRoutines(t)()
	defer test.TimeOut(10 * time.Second).Stop()

	l, err := Bind("127.0.0.1:0", Config{})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- l.Serve(ctx, echoHandler)
	}()

	c, err := Connect(l.Addr().String(), Config{})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if _, err := c.SendRequest("on"); err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}

	cancel()
	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Errorf("Serve() = %v, want ErrClosed", err)
	}

	// The idle connection was closed by the server.
	if _, err := c.SendRequest("info"); err == nil {
		t.Error("SendRequest() after shutdown expected error, got nil")
	}
	c.Close()

	if got := l.Stats().ActiveConns; got != 0 {
		t.Errorf("Stats().ActiveConns = %d, want 0", got)
	}
}

func TestAccept(t *testing.T) {
	defer test.TimeOut(10 * time.Second).Stop()

	l, err := Bind("127.0.0.1:0", Config{})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	defer l.Close()

	errCh := make(chan error, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			errCh <- err
			return
		}
		defer conn.Close()
		errCh <- conn.ProcessOnce(echoHandler)
	}()

	c, err := Connect(l.Addr().String(), Config{})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	resp, err := c.SendRequest("ping")
	if err != nil || resp != "echo: ping" {
		t.Errorf("SendRequest() = %q, %v; want %q, nil", resp, err, "echo: ping")
	}
	if err := <-errCh; err != nil {
		t.Errorf("server side error = %v", err)
	}
}

func TestAcceptContextCancel(t *testing.T) {
	l, err := Bind("127.0.0.1:0", Config{})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err = l.AcceptContext(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("AcceptContext() = %v, want context.DeadlineExceeded", err)
	}
}

// flakyListener fails the first n accepts with err, then delegates.
type flakyListener struct {
	net.Listener

	mu  sync.Mutex
	n   int
	err error
}

func (f *flakyListener) Accept() (net.Conn, error) {
	f.mu.Lock()
	if f.n > 0 {
		f.n--
		f.mu.Unlock()
		return nil, f.err
	}
	f.mu.Unlock()
	return f.Listener.Accept()
}

var errAcceptStorm = errors.New("too many open files")

func TestServeRecoversFromAcceptErrors(t *testing.T) {
	defer test.TimeOut(10 * time.Second).Stop()

	l, err := Bind("127.0.0.1:0", Config{})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	l.ln = &flakyListener{Listener: l.ln, n: 3, err: errAcceptStorm}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- l.Serve(ctx, echoHandler)
	}()

	c, err := Connect(l.Addr().String(), Config{})
	if err != nil {
		cancel()
		t.Fatalf("Connect() error = %v", err)
	}

	resp, err := c.SendRequest("hi")
	if err != nil || resp != "echo: hi" {
		t.Errorf("SendRequest() = %q, %v; want %q, nil", resp, err, "echo: hi")
	}
	c.Close()

	stats := l.Stats()
	if stats.AcceptErrors != 3 {
		t.Errorf("Stats().AcceptErrors = %d, want 3", stats.AcceptErrors)
	}
	if stats.Accepted != 1 {
		t.Errorf("Stats().Accepted = %d, want 1", stats.Accepted)
	}

	cancel()
	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Errorf("Serve() = %v, want ErrClosed", err)
	}
}

func TestAcceptContextCountsErrors(t *testing.T) {
	defer test.TimeOut(10 * time.Second).Stop()

	l, err := Bind("127.0.0.1:0", Config{})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	defer l.Close()
	l.ln = &flakyListener{Listener: l.ln, n: 1, err: errAcceptStorm}

	if _, err := l.Accept(); !errors.Is(err, errAcceptStorm) {
		t.Fatalf("first Accept() = %v, want %v", err, errAcceptStorm)
	}

	errCh := make(chan error, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			errCh <- err
			return
		}
		defer conn.Close()
		errCh <- conn.ProcessOnce(echoHandler)
	}()

	c, err := Connect(l.Addr().String(), Config{})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	if resp, err := c.SendRequest("again"); err != nil || resp != "echo: again" {
		t.Errorf("SendRequest() = %q, %v; want %q, nil", resp, err, "echo: again")
	}
	if err := <-errCh; err != nil {
		t.Errorf("server side error = %v", err)
	}

	stats := l.Stats()
	if stats.AcceptErrors != 1 || stats.Accepted != 1 {
		t.Errorf("Stats() = %+v, want 1 accept error and 1 accepted", stats)
	}
}

func TestAcceptAfterClose(t *testing.T) {
	l, err := Bind("127.0.0.1:0", Config{})
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	l.Close()
	l.Close()

	if _, err := l.Accept(); !errors.Is(err, ErrClosed) {
		t.Errorf("Accept() after Close = %v, want ErrClosed", err)
	}
}

func TestNextBackoff(t *testing.T) {
	tests := []struct {
		current time.Duration
		want    time.Duration
	}{
		{0, minAcceptBackoff},
		{minAcceptBackoff, 2 * minAcceptBackoff},
		{600 * time.Millisecond, maxAcceptBackoff},
		{maxAcceptBackoff, maxAcceptBackoff},
	}

	for _, tt := range tests {
		if got := nextBackoff(tt.current); got != tt.want {
			t.Errorf("nextBackoff(%v) = %v, want %v", tt.current, got, tt.want)
		}
	}
}
