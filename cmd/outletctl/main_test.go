package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/smarthome-core/internal/device"
	"github.com/nerrad567/smarthome-core/internal/outlet"
	"github.com/nerrad567/smarthome-core/internal/stp"
)

// startOutlet runs an outlet server on a loopback port.
func startOutlet(t *testing.T, cfg stp.Config) (*outlet.Handler, string) {
	t.Helper()

	h := outlet.NewHandler(device.NewOutlet("socket", "smart socket", false, 220))
	srv, err := outlet.NewServer("127.0.0.1:0", cfg, h)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { srv.Close() })

	return h, srv.Addr().String()
}

func TestRun_Commands(t *testing.T) {
	h, addr := startOutlet(t, stp.Config{})

	tests := []struct {
		command string
		want    string
		wantOn  bool
	}{
		{"state", "off\n", false},
		{"on", "Current state: on, 220 Volts", true},
		{"state", "on\n", true},
		{"info", "smart socket", true},
		{"off", "Current state: off, 220 Volts", false},
	}

	for _, tt := range tests {
		var stdout, stderr bytes.Buffer
		err := run(context.Background(), []string{"-addr", addr, tt.command}, strings.NewReader(""), &stdout, &stderr)
		if err != nil {
			t.Fatalf("run(%s) error = %v (stderr %q)", tt.command, err, stderr.String())
		}
		if !strings.Contains(stdout.String(), tt.want) {
			t.Errorf("run(%s) stdout = %q, want it to contain %q", tt.command, stdout.String(), tt.want)
		}
		if h.Outlet().IsOn() != tt.wantOn {
			t.Errorf("after %s IsOn() = %v, want %v", tt.command, h.Outlet().IsOn(), tt.wantOn)
		}
	}
}

func TestRun_Handshake(t *testing.T) {
	h, addr := startOutlet(t, stp.Config{Handshake: true})

	var stdout bytes.Buffer
	err := run(context.Background(), []string{"-addr", addr, "-handshake", "on"}, strings.NewReader(""), &stdout, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !h.Outlet().IsOn() {
		t.Error("outlet still off after on with handshake")
	}
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"two commands", []string{"on", "off"}},
		{"unknown command", []string{"explode"}},
		{"unknown flag", []string{"-nope", "on"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), tt.args, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
			if !errors.Is(err, errUsage) {
				t.Errorf("run(%v) error = %v, want errUsage", tt.args, err)
			}
		})
	}
}

func TestRun_Unreachable(t *testing.T) {
	// Bind a port and release it so nothing is listening there.
	h := outlet.NewHandler(device.NewOutlet("socket", "", false, 0))
	srv, err := outlet.NewServer("127.0.0.1:0", stp.Config{}, h)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	addr := srv.Addr().String()
	srv.Close()

	err = run(context.Background(), []string{"-addr", addr, "-timeout", "1s", "state"}, strings.NewReader(""), &bytes.Buffer{}, &bytes.Buffer{})
	if err == nil {
		t.Fatal("run() should fail against a closed port")
	}
	if errors.Is(err, errUsage) {
		t.Errorf("run() error = %v, want connection error", err)
	}
}

// syncBuffer is a bytes.Buffer safe for the MCP server's writer goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRun_MCP(t *testing.T) {
	h, addr := startOutlet(t, stp.Config{})

	stdin := strings.NewReader(
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"outlet_on","arguments":{}}}` + "\n")
	var stdout, stderr syncBuffer

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, []string{"-addr", addr, "mcp"}, stdin, &stdout, &stderr); err != nil {
		t.Fatalf("run(mcp) error = %v (stderr %q)", err, stderr.String())
	}
	if !h.Outlet().IsOn() {
		t.Error("outlet_on over MCP left the outlet off")
	}
	if !strings.Contains(stdout.String(), "Current state: on") {
		t.Errorf("stdout = %q, want outlet info", stdout.String())
	}
}
