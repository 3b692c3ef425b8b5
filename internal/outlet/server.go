package outlet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/nerrad567/smarthome-core/internal/stp"
)

// Server exposes a Handler over STP.
//
// The server follows the same lifecycle as the other components:
//
//	srv, err := outlet.NewServer(addr, cfg, handler)
//	srv.Start(ctx)
//	defer srv.Close()
type Server struct {
	listener *stp.Listener
	handler  *Handler
	logger   Logger

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewServer binds addr. The server does not accept connections until Start.
//
// Parameters:
//   - addr: Listen address ("host:port")
//   - cfg: Transport settings (frame limit, greeting, timeouts, logging)
//   - h: Command handler shared with the other entry points
//
// Returns:
//   - *Server: Bound server
//   - error: If the address is invalid or in use
func NewServer(addr string, cfg stp.Config, h *Handler) (*Server, error) {
	if h == nil {
		return nil, fmt.Errorf("handler is required")
	}

	l, err := stp.Bind(addr, cfg)
	if err != nil {
		return nil, fmt.Errorf("binding outlet server: %w", err)
	}

	return &Server{
		listener: l,
		handler:  h,
		logger:   noopLogger{},
		done:     make(chan struct{}),
	}, nil
}

// SetLogger sets the logger for the server.
func (s *Server) SetLogger(logger Logger) {
	s.logger = logger
}

// Addr returns the bound address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Start serves connections in a background goroutine until ctx is cancelled
// or Close is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrServerStarted
	}
	s.started = true

	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go func() {
		defer close(s.done)
		if err := s.listener.Serve(srvCtx, s.handler); err != nil && !errors.Is(err, stp.ErrClosed) {
			s.logger.Error("outlet server error", "error", err)
		}
	}()

	s.logger.Info("outlet server started", "address", s.listener.Addr().String())
	return nil
}

// Close stops the server and waits for active connections to finish.
func (s *Server) Close() error {
	s.mu.Lock()
	started := s.started
	cancel := s.cancel
	s.mu.Unlock()

	err := s.listener.Close()
	if started {
		cancel()
		<-s.done
	}

	s.logger.Info("outlet server stopped")
	return err
}

// HealthCheck reports whether the accept loop is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return fmt.Errorf("outlet server not started")
	}

	select {
	case <-s.done:
		return stp.ErrClosed
	default:
		return nil
	}
}

// Stats returns transport counters.
func (s *Server) Stats() stp.ListenerStats {
	return s.listener.Stats()
}
