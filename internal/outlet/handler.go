package outlet

import (
	"context"
	"sync"

	"github.com/nerrad567/smarthome-core/internal/device"
	"github.com/nerrad567/smarthome-core/internal/stp"
)

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// StateObserver is notified after every on/off command.
//
// Observers run synchronously on the handling goroutine after the outlet
// lock is released. They must not block for long.
type StateObserver interface {
	OutletStateChanged(ctx context.Context, state device.OutletState)
}

// StateObserverFunc adapts a function to StateObserver.
type StateObserverFunc func(ctx context.Context, state device.OutletState)

// OutletStateChanged calls f(ctx, state).
func (f StateObserverFunc) OutletStateChanged(ctx context.Context, state device.OutletState) {
	f(ctx, state)
}

// Handler executes outlet commands against one device.Outlet.
// It implements stp.Handler.
type Handler struct {
	outlet *device.Outlet
	logger Logger

	obsMu     sync.RWMutex
	observers []StateObserver
}

var _ stp.Handler = (*Handler)(nil)

// NewHandler creates a handler for o.
func NewHandler(o *device.Outlet) *Handler {
	return &Handler{
		outlet: o,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the handler.
func (h *Handler) SetLogger(logger Logger) {
	h.logger = logger
}

// AddObserver registers an observer for on/off commands.
func (h *Handler) AddObserver(obs StateObserver) {
	h.obsMu.Lock()
	h.observers = append(h.observers, obs)
	h.obsMu.Unlock()
}

// Outlet returns the served outlet.
func (h *Handler) Outlet() *device.Outlet {
	return h.outlet
}

// HandleRequest decodes one request payload and returns the response text.
func (h *Handler) HandleRequest(ctx context.Context, request string) string {
	req, ok := DecodeRequest(request)
	if !ok {
		h.logger.Debug("unknown outlet command", "request", request)
		return UnknownCommandResponse
	}
	return EncodeResponse(h.Execute(ctx, req.Command))
}

// Execute runs cmd and returns its response.
func (h *Handler) Execute(ctx context.Context, cmd Command) Response {
	switch cmd {
	case CommandOn:
		st := h.outlet.TurnOn()
		h.logger.Info("outlet switched on", "name", st.Name)
		h.notify(ctx, st)
		return Response{Text: st.Info()}
	case CommandOff:
		st := h.outlet.TurnOff()
		h.logger.Info("outlet switched off", "name", st.Name)
		h.notify(ctx, st)
		return Response{Text: st.Info()}
	case CommandInfo:
		return Response{Text: h.outlet.Info()}
	case CommandState:
		return Response{Text: h.outlet.Snapshot().StateText()}
	default:
		return Response{Text: UnknownCommandResponse}
	}
}

// TurnOn switches the outlet on. It lets a local Handler act as a Switch.
func (h *Handler) TurnOn(ctx context.Context) (string, error) {
	return h.Execute(ctx, CommandOn).Text, nil
}

// TurnOff switches the outlet off.
func (h *Handler) TurnOff(ctx context.Context) (string, error) {
	return h.Execute(ctx, CommandOff).Text, nil
}

// State reports whether the outlet is on.
func (h *Handler) State(context.Context) (bool, error) {
	return h.outlet.IsOn(), nil
}

func (h *Handler) notify(ctx context.Context, st device.OutletState) {
	h.obsMu.RLock()
	observers := h.observers
	h.obsMu.RUnlock()

	for _, obs := range observers {
		obs.OutletStateChanged(ctx, st)
	}
}
