package stp

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/pion/transport/v3/test"
)

// rawServer accepts one TCP connection and hands it to fn.
func rawServer(t *testing.T, fn func(net.Conn)) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		fn(conn)
	}()

	t.Cleanup(func() {
		ln.Close()
		<-done
	})
	return ln.Addr().String()
}

func TestConnectRefused(t *testing.T) {
	// Reserve a port, then release it so nothing is listening.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	_, err = Connect(addr, Config{ConnectTimeout: time.Second})

	var connErr *ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("Connect() error = %v, want *ConnectError", err)
	}
	if connErr.Addr != addr {
		t.Errorf("ConnectError.Addr = %q, want %q", connErr.Addr, addr)
	}
}

func TestConnectBadGreeting(t *testing.T) {
	defer test.TimeOut(10 * time.Second).Stop()

	addr := rawServer(t, func(conn net.Conn) {
		var greeting [4]byte
		if _, err := io.ReadFull(conn, greeting[:]); err != nil {
			return
		}
		conn.Write([]byte("nope")) //nolint:errcheck // test peer
	})

	_, err := Connect(addr, Config{Handshake: true, ConnectTimeout: 2 * time.Second})

	var connErr *ConnectError
	if !errors.As(err, &connErr) {
		t.Fatalf("Connect() error = %v, want *ConnectError", err)
	}
	if !errors.Is(err, ErrBadHandshake) {
		t.Errorf("Connect() = %v, want ErrBadHandshake", err)
	}
}

func TestSendRequestTruncatedResponse(t *testing.T) {
	defer test.TimeOut(10 * time.Second).Stop()

	addr := rawServer(t, func(conn net.Conn) {
		if _, err := ReadFrame(conn, 0); err != nil {
			return
		}
		// Announce 100 bytes, deliver 10, then close.
		resp := make([]byte, headerSize+10)
		binary.BigEndian.PutUint32(resp, 100)
		copy(resp[headerSize:], "0123456789")
		conn.Write(resp) //nolint:errcheck // test peer
	})

	c, err := Connect(addr, Config{})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	_, err = c.SendRequest("info")

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("SendRequest() error = %v, want *RequestError", err)
	}
	if reqErr.Phase != PhaseRecv || !reqErr.Sent() {
		t.Errorf("Phase = %v, Sent() = %v; want recv, true", reqErr.Phase, reqErr.Sent())
	}

	var recvErr *RecvError
	if !errors.As(err, &recvErr) {
		t.Errorf("SendRequest() error chain lacks *RecvError: %v", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("SendRequest() = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestSendRequestServerClosed(t *testing.T) {
	defer test.TimeOut(10 * time.Second).Stop()

	addr := rawServer(t, func(conn net.Conn) {
		ReadFrame(conn, 0) //nolint:errcheck // read and hang up
	})

	c, err := Connect(addr, Config{})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	_, err = c.SendRequest("on")

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("SendRequest() error = %v, want *RequestError", err)
	}
	if reqErr.Phase != PhaseRecv {
		t.Errorf("Phase = %v, want recv", reqErr.Phase)
	}
	if !errors.Is(err, io.EOF) {
		t.Errorf("SendRequest() = %v, want io.EOF", err)
	}
}

func TestSendRequestSendPhase(t *testing.T) {
	defer test.TimeOut(10 * time.Second).Stop()

	l := startServer(t, Config{}, echoHandler)

	c, err := Connect(l.Addr().String(), Config{MaxFrameSize: 4})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	_, err = c.SendRequest("too long for the limit")

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("SendRequest() error = %v, want *RequestError", err)
	}
	if reqErr.Phase != PhaseSend || reqErr.Sent() {
		t.Errorf("Phase = %v, Sent() = %v; want send, false", reqErr.Phase, reqErr.Sent())
	}
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("SendRequest() = %v, want ErrFrameTooLarge", err)
	}

	// Nothing was written, so the connection is still usable.
	resp, err := c.SendRequest("on")
	if err != nil || resp != "echo: on" {
		t.Errorf("SendRequest() = %q, %v; want %q, nil", resp, err, "echo: on")
	}
}

func TestSendRequestAfterClose(t *testing.T) {
	l := startServer(t, Config{}, echoHandler)

	c, err := Connect(l.Addr().String(), Config{})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	c.Close()

	_, err = c.SendRequest("on")

	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Phase != PhaseSend {
		t.Errorf("SendRequest() after Close = %v, want *RequestError in send phase", err)
	}
}

func TestSendRequestContextCancel(t *testing.T) {
	defer test.TimeOut(10 * time.Second).Stop()

	// Server reads the request but never answers.
	hold := make(chan struct{})
	addr := rawServer(t, func(conn net.Conn) {
		ReadFrame(conn, 0) //nolint:errcheck // test peer
		<-hold
	})
	defer close(hold)

	c, err := Connect(addr, Config{})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.SendRequestContext(ctx, "info")

	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.Phase != PhaseRecv {
		t.Fatalf("SendRequestContext() = %v, want *RequestError in recv phase", err)
	}
	if !IsTimeout(err) {
		t.Errorf("SendRequestContext() = %v, want timeout", err)
	}
}

func TestRequestErrorMessage(t *testing.T) {
	err := &RequestError{Phase: PhaseRecv, Err: &RecvError{Err: io.ErrUnexpectedEOF}}

	want := "stp: request failed in recv phase: unexpected EOF"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
