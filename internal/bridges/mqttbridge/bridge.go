package mqttbridge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/nerrad567/smarthome-core/internal/device"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/smarthome-core/internal/outlet"
)

// MQTTClient is the subset of *mqtt.Client the bridge needs.
// This allows mocking in tests.
type MQTTClient interface {
	PublishOutletState(st device.OutletState) error
	PublishReading(name string, celsius float64) error
	PublishOutletResponse(name, text string) error
	SubscribeOutletCommands(name string, h mqtt.CommandHandler) error
	UnsubscribeOutletCommands(name string) error
}

// CommandExecutor runs outlet commands. *outlet.Handler satisfies it.
type CommandExecutor interface {
	Execute(ctx context.Context, cmd outlet.Command) outlet.Response
}

// Logger is the structured logger used by the bridge.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
}

// Options holds configuration for creating a bridge.
type Options struct {
	// MQTTClient is the MQTT client implementation.
	MQTTClient MQTTClient

	// Outlet executes inbound commands.
	Outlet CommandExecutor

	// OutletName selects the command topic to subscribe to.
	OutletName string

	// Logger is optional.
	Logger Logger
}

// Metrics holds bridge counters.
type Metrics struct {
	CommandsReceived uint64
	CommandsRejected uint64
	Published        uint64
	PublishErrors    uint64
}

// Bridge publishes device state to MQTT and routes MQTT commands to the outlet.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	mqtt       MQTTClient
	outlet     CommandExecutor
	outletName string
	logger     Logger

	ctx       context.Context
	ctxCancel context.CancelFunc
	stopOnce  sync.Once
	started   atomic.Bool

	commandsReceived atomic.Uint64
	commandsRejected atomic.Uint64
	published        atomic.Uint64
	publishErrors    atomic.Uint64
}

var (
	_ outlet.StateObserver = (*Bridge)(nil)
	_ MQTTClient           = (*mqtt.Client)(nil)
)

// NewBridge creates a bridge. Call Start to subscribe to commands.
func NewBridge(opts Options) (*Bridge, error) {
	if opts.MQTTClient == nil {
		return nil, ErrMissingClient
	}
	if opts.Outlet == nil {
		return nil, ErrMissingOutlet
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{
		mqtt:       opts.MQTTClient,
		outlet:     opts.Outlet,
		outletName: opts.OutletName,
		logger:     opts.Logger,
		ctx:        ctx,
		ctxCancel:  cancel,
	}, nil
}

// Start subscribes to the outlet command topic.
func (b *Bridge) Start(_ context.Context) error {
	if err := b.mqtt.SubscribeOutletCommands(b.outletName, b.handleCommand); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}
	b.started.Store(true)
	b.logInfo("subscribed to commands", "outlet", b.outletName)
	return nil
}

// Stop unsubscribes and abandons in-flight commands. Safe to call more than once.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.ctxCancel()
		if b.started.Load() {
			if err := b.mqtt.UnsubscribeOutletCommands(b.outletName); err != nil {
				b.logWarn("unsubscribe failed", "error", err)
			}
		}
		b.logInfo("bridge stopped")
	})
}

// OutletStateChanged publishes the new outlet state, retained.
func (b *Bridge) OutletStateChanged(_ context.Context, st device.OutletState) {
	b.count("outlet state", st.Name, b.mqtt.PublishOutletState(st))
}

// PublishReading publishes a thermometer reading, retained.
func (b *Bridge) PublishReading(name string, temperature float64) {
	b.count("reading", name, b.mqtt.PublishReading(name, temperature))
}

// handleCommand runs one command and publishes the reply text.
func (b *Bridge) handleCommand(name, text string) error {
	b.commandsReceived.Add(1)

	cmd, ok := outlet.ParseCommand(text)
	if !ok {
		b.commandsRejected.Add(1)
		b.count("response", name, b.mqtt.PublishOutletResponse(name, outlet.UnknownCommandResponse))
		return fmt.Errorf("%w: %q for %s", ErrUnknownCommand, text, name)
	}

	resp := b.outlet.Execute(b.ctx, cmd)
	b.logDebug("command executed", "command", cmd.String(), "response", resp.Text)
	b.count("response", name, b.mqtt.PublishOutletResponse(name, resp.Text))
	return nil
}

// count records the outcome of one publish.
func (b *Bridge) count(what, name string, err error) {
	if err != nil {
		b.publishErrors.Add(1)
		b.logWarn("publish failed", "message", what, "device", name, "error", err)
		return
	}
	b.published.Add(1)
}

// GetMetrics returns current counters.
func (b *Bridge) GetMetrics() Metrics {
	return Metrics{
		CommandsReceived: b.commandsReceived.Load(),
		CommandsRejected: b.commandsRejected.Load(),
		Published:        b.published.Load(),
		PublishErrors:    b.publishErrors.Load(),
	}
}

func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, keysAndValues...)
	}
}

func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, keysAndValues...)
	}
}
