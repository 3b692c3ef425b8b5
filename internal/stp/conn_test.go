package stp

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"
)

// pipeConns returns both ends of an in-memory stream wrapped as Conns.
func pipeConns(t *testing.T, cfg Config) (*Conn, *Conn) {
	t.Helper()
	a, b := net.Pipe()
	cfg = cfg.withDefaults()
	ca, cb := newConn(a, cfg), newConn(b, cfg)
	t.Cleanup(func() {
		ca.Close()
		cb.Close()
	})
	return ca, cb
}

func TestConnSendRecv(t *testing.T) {
	client, server := pipeConns(t, Config{})

	errCh := make(chan error, 1)
	go func() {
		errCh <- client.Send("info")
	}()

	got, err := server.Recv()
	if err != nil {
		t.Fatalf("Recv() error = %v", err)
	}
	if got != "info" {
		t.Errorf("Recv() = %q, want %q", got, "info")
	}
	if err := <-errCh; err != nil {
		t.Errorf("Send() error = %v", err)
	}
}

func TestConnProcessOnce(t *testing.T) {
	client, server := pipeConns(t, Config{})

	upper := HandlerFunc(func(_ context.Context, req string) string {
		return strings.ToUpper(req)
	})

	errCh := make(chan error, 1)
	go func() {
		for range 2 {
			if err := server.ProcessOnce(upper); err != nil {
				errCh <- err
				return
			}
		}
		errCh <- nil
	}()

	for _, req := range []string{"on", "off"} {
		if err := client.Send(req); err != nil {
			t.Fatalf("Send(%q) error = %v", req, err)
		}
		resp, err := client.Recv()
		if err != nil {
			t.Fatalf("Recv() error = %v", err)
		}
		if want := strings.ToUpper(req); resp != want {
			t.Errorf("response = %q, want %q", resp, want)
		}
	}

	if err := <-errCh; err != nil {
		t.Errorf("ProcessOnce() error = %v", err)
	}
}

func TestConnProcessOncePeerClosed(t *testing.T) {
	client, server := pipeConns(t, Config{})
	client.Close()

	err := server.ProcessOnce(HandlerFunc(func(context.Context, string) string {
		t.Error("handler called without a request")
		return ""
	}))

	var recvErr *RecvError
	if !errors.As(err, &recvErr) {
		t.Errorf("ProcessOnce() error = %v, want *RecvError", err)
	}
}

func TestConnRecvContextCancel(t *testing.T) {
	_, server := pipeConns(t, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := server.RecvContext(ctx)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RecvContext() = %v, want context.Canceled", err)
		}
		var recvErr *RecvError
		if !errors.As(err, &recvErr) {
			t.Errorf("RecvContext() error type = %T, want *RecvError", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("RecvContext() did not return after cancel")
	}
}

func TestConnRecvContextDeadline(t *testing.T) {
	_, server := pipeConns(t, Config{})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := server.RecvContext(ctx)
	if !IsTimeout(err) {
		t.Errorf("RecvContext() = %v, want timeout", err)
	}
}

func TestConnReadTimeout(t *testing.T) {
	_, server := pipeConns(t, Config{ReadTimeout: 30 * time.Millisecond})

	_, err := server.Recv()
	if !IsTimeout(err) {
		t.Errorf("Recv() = %v, want timeout", err)
	}
}

func TestConnSendTooLarge(t *testing.T) {
	client, _ := pipeConns(t, Config{MaxFrameSize: 8})

	err := client.Send("this payload is too long")
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("Send() = %v, want ErrFrameTooLarge", err)
	}
}

func TestConnSendCancelledContext(t *testing.T) {
	client, _ := pipeConns(t, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := client.SendContext(ctx, "on"); !errors.Is(err, context.Canceled) {
		t.Errorf("SendContext() = %v, want context.Canceled", err)
	}
}

func TestHandshake(t *testing.T) {
	client, server := pipeConns(t, Config{})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.serverHandshake(context.Background(), time.Second)
	}()

	if err := client.clientHandshake(context.Background(), time.Second); err != nil {
		t.Fatalf("clientHandshake() error = %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("serverHandshake() error = %v", err)
	}

	// Frames flow normally after the greeting.
	go func() {
		errCh <- client.Send("state")
	}()
	got, err := server.Recv()
	if err != nil || got != "state" {
		t.Errorf("Recv() = %q, %v; want %q, nil", got, err, "state")
	}
	if err := <-errCh; err != nil {
		t.Errorf("Send() error = %v", err)
	}
}

func TestHandshakeMismatch(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	server := newConn(b, Config{}.withDefaults())

	go func() {
		a.Write([]byte("nope")) //nolint:errcheck // test peer
	}()

	err := server.serverHandshake(context.Background(), time.Second)
	if !errors.Is(err, ErrBadHandshake) {
		t.Errorf("serverHandshake() = %v, want ErrBadHandshake", err)
	}
}

func TestDeadlineFor(t *testing.T) {
	if got := deadlineFor(context.Background(), 0); !got.IsZero() {
		t.Errorf("deadlineFor(no timeout) = %v, want zero", got)
	}

	before := time.Now()
	got := deadlineFor(context.Background(), time.Minute)
	if got.Before(before.Add(time.Minute)) {
		t.Errorf("deadlineFor(1m) = %v, want >= %v", got, before.Add(time.Minute))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ctxDeadline, _ := ctx.Deadline()
	if got := deadlineFor(ctx, time.Minute); !got.Equal(ctxDeadline) {
		t.Errorf("deadlineFor(ctx 1s, 1m) = %v, want context deadline %v", got, ctxDeadline)
	}
}
