package influxdb_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/smarthome-core/internal/device"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/config"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/smarthome-core/internal/outlet"
)

// fakeInflux answers /ping and records line protocol posted to /write.
type fakeInflux struct {
	mu        sync.Mutex
	lines     []string
	pingCode  int
	writeCode int
}

func newFakeInflux(t *testing.T) (*fakeInflux, *httptest.Server) {
	t.Helper()
	f := &fakeInflux{pingCode: http.StatusNoContent, writeCode: http.StatusNoContent}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/ping"):
			f.mu.Lock()
			code := f.pingCode
			f.mu.Unlock()
			w.WriteHeader(code)
		case strings.HasSuffix(r.URL.Path, "/write"):
			body, _ := io.ReadAll(r.Body)
			f.mu.Lock()
			code := f.writeCode
			if code < 300 {
				for _, l := range strings.Split(strings.TrimSpace(string(body)), "\n") {
					f.lines = append(f.lines, l)
				}
			}
			f.mu.Unlock()
			if code >= 300 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(code)
				io.WriteString(w, `{"code":"invalid","message":"rejected"}`) //nolint:errcheck // test
				return
			}
			w.WriteHeader(code)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeInflux) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "smarthome-dev-token",
		Org:           "home",
		Bucket:        "sensors",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

func waitForLines(f *fakeInflux, n int) []string {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if got := f.received(); len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	return f.received()
}

// =============================================================================
// Connection Tests
// =============================================================================

func TestConnect(t *testing.T) {
	_, srv := newFakeInflux(t)

	client, err := influxdb.Connect(context.Background(), testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Enabled = false

	_, err := influxdb.Connect(context.Background(), cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_PingFails(t *testing.T) {
	f, srv := newFakeInflux(t)
	f.pingCode = http.StatusServiceUnavailable

	_, err := influxdb.Connect(context.Background(), testConfig(srv.URL))
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	_, srv := newFakeInflux(t)
	url := srv.URL
	srv.Close()

	_, err := influxdb.Connect(context.Background(), testConfig(url))
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_DefaultBatchSettings(t *testing.T) {
	_, srv := newFakeInflux(t)
	cfg := testConfig(srv.URL)
	cfg.BatchSize = -5
	cfg.FlushInterval = 0

	client, err := influxdb.Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect() with default batch settings")
	}
}

// =============================================================================
// Write Tests
// =============================================================================

func TestWriteReading(t *testing.T) {
	f, srv := newFakeInflux(t)

	client, err := influxdb.Connect(context.Background(), testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	client.WriteReading("thermometer", 21.5)
	client.Close()

	lines := waitForLines(f, 1)
	if len(lines) != 1 {
		t.Fatalf("received %d lines, want 1: %v", len(lines), lines)
	}
	want := "temperature,device=thermometer celsius=21.5 "
	if !strings.HasPrefix(lines[0], want) {
		t.Errorf("line = %q, want prefix %q", lines[0], want)
	}
}

func TestWriteOutletState(t *testing.T) {
	tests := []struct {
		name  string
		state device.OutletState
		want  string
	}{
		{
			name:  "on",
			state: device.OutletState{Name: "socket", IsOn: true, Power: 220},
			want:  "outlet,device=socket is_on=true,power=220 ",
		},
		{
			name:  "off",
			state: device.OutletState{Name: "socket", Power: 110.5},
			want:  "outlet,device=socket is_on=false,power=110.5 ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, srv := newFakeInflux(t)

			client, err := influxdb.Connect(context.Background(), testConfig(srv.URL))
			if err != nil {
				t.Fatalf("Connect() error = %v", err)
			}

			client.WriteOutletState(tt.state)
			client.Close()

			lines := waitForLines(f, 1)
			if len(lines) != 1 || !strings.HasPrefix(lines[0], tt.want) {
				t.Errorf("lines = %q, want one line with prefix %q", lines, tt.want)
			}
		})
	}
}

func TestObserverAndSink(t *testing.T) {
	f, srv := newFakeInflux(t)

	client, err := influxdb.Connect(context.Background(), testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	var observer outlet.StateObserver = client
	observer.OutletStateChanged(context.Background(), device.OutletState{Name: "socket", IsOn: true, Power: 220})
	client.PublishReading("thermometer", 19.75)
	client.Flush()

	if got := client.Stats().Queued; got != 2 {
		t.Errorf("Stats().Queued = %d, want 2", got)
	}
	client.Close()

	lines := waitForLines(f, 2)
	if len(lines) != 2 {
		t.Fatalf("received %d lines, want 2: %v", len(lines), lines)
	}
	if !strings.HasPrefix(lines[0], "outlet,device=socket ") || !strings.HasPrefix(lines[1], "temperature,device=thermometer celsius=19.75 ") {
		t.Errorf("lines = %q", lines)
	}
}

func TestWriteErrorCallback(t *testing.T) {
	f, srv := newFakeInflux(t)
	f.writeCode = http.StatusBadRequest

	client, err := influxdb.Connect(context.Background(), testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	errCh := make(chan error, 1)
	client.SetOnError(func(err error) {
		select {
		case errCh <- err:
		default:
		}
	})

	client.WriteReading("thermometer", 1)
	client.Flush()

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("error callback received nil")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("error callback not invoked for rejected write")
	}
	if got := client.Stats().Failed; got != 1 {
		t.Errorf("Stats().Failed = %d, want 1", got)
	}
}

// =============================================================================
// Close Tests
// =============================================================================

func TestClose(t *testing.T) {
	_, srv := newFakeInflux(t)

	client, err := influxdb.Connect(context.Background(), testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() after Close = %v, want ErrNotConnected", err)
	}

	// Writes and flushes after Close are dropped.
	client.WriteReading("thermometer", 1)
	client.Flush()
	if err := client.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if got := client.Stats().Queued; got != 0 {
		t.Errorf("Stats().Queued = %d after Close, want 0", got)
	}
}

func TestHealthCheck_Unhealthy(t *testing.T) {
	f, srv := newFakeInflux(t)

	client, err := influxdb.Connect(context.Background(), testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	f.mu.Lock()
	f.pingCode = http.StatusServiceUnavailable
	f.mu.Unlock()

	if err := client.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() = nil with failing ping, want error")
	}
}
