package outlet

import (
	"context"
	"fmt"
	"sync"
)

// defaultHistoryLimit bounds History when no limit is given.
const defaultHistoryLimit = 64

// Switch is an outlet that can be switched and queried.
// Both Client and Handler satisfy it.
type Switch interface {
	TurnOn(ctx context.Context) (string, error)
	TurnOff(ctx context.Context) (string, error)
	State(ctx context.Context) (bool, error)
}

// Action is an undoable outlet operation.
type Action interface {
	// Execute performs the action and returns the outlet's response.
	Execute(ctx context.Context) (string, error)

	// Undo restores the state observed before Execute.
	Undo(ctx context.Context) (string, error)

	// Name describes the action for logs.
	Name() string
}

// TurnOnAction switches an outlet on.
type TurnOnAction struct {
	sw     Switch
	wasOn  bool
	probed bool
}

// NewTurnOnAction returns an action switching sw on.
func NewTurnOnAction(sw Switch) *TurnOnAction {
	return &TurnOnAction{sw: sw}
}

// Execute records the previous state, then switches on.
func (a *TurnOnAction) Execute(ctx context.Context) (string, error) {
	on, err := a.sw.State(ctx)
	if err != nil {
		return "", fmt.Errorf("reading state: %w", err)
	}
	a.wasOn, a.probed = on, true
	return a.sw.TurnOn(ctx)
}

// Undo switches off unless the outlet was already on before Execute.
func (a *TurnOnAction) Undo(ctx context.Context) (string, error) {
	if a.probed && a.wasOn {
		return a.sw.TurnOn(ctx)
	}
	return a.sw.TurnOff(ctx)
}

// Name returns "turn on".
func (a *TurnOnAction) Name() string { return "turn on" }

// TurnOffAction switches an outlet off.
type TurnOffAction struct {
	sw     Switch
	wasOn  bool
	probed bool
}

// NewTurnOffAction returns an action switching sw off.
func NewTurnOffAction(sw Switch) *TurnOffAction {
	return &TurnOffAction{sw: sw}
}

// Execute records the previous state, then switches off.
func (a *TurnOffAction) Execute(ctx context.Context) (string, error) {
	on, err := a.sw.State(ctx)
	if err != nil {
		return "", fmt.Errorf("reading state: %w", err)
	}
	a.wasOn, a.probed = on, true
	return a.sw.TurnOff(ctx)
}

// Undo switches on unless the outlet was already off before Execute.
func (a *TurnOffAction) Undo(ctx context.Context) (string, error) {
	if a.probed && !a.wasOn {
		return a.sw.TurnOff(ctx)
	}
	return a.sw.TurnOn(ctx)
}

// Name returns "turn off".
func (a *TurnOffAction) Name() string { return "turn off" }

// History executes actions and keeps the successful ones for undo.
// The oldest entries are dropped once the limit is reached.
type History struct {
	mu      sync.Mutex
	actions []Action
	limit   int
	logger  Logger
}

// NewHistory creates a history keeping at most limit actions.
// A non-positive limit selects a default of 64.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return &History{
		limit:  limit,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the history.
func (h *History) SetLogger(logger Logger) {
	h.logger = logger
}

// Execute runs a and records it on success. Failed actions are not recorded.
func (h *History) Execute(ctx context.Context, a Action) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	resp, err := a.Execute(ctx)
	if err != nil {
		h.logger.Warn("action failed", "action", a.Name(), "error", err)
		return "", err
	}

	h.actions = append(h.actions, a)
	if len(h.actions) > h.limit {
		h.actions = h.actions[len(h.actions)-h.limit:]
	}
	h.logger.Debug("action executed", "action", a.Name(), "depth", len(h.actions))
	return resp, nil
}

// Undo reverts the most recent action. The action is removed from the
// history even if undoing it fails.
//
// Returns:
//   - string: The outlet response to the undo
//   - error: ErrNothingToUndo when empty, or the undo failure
func (h *History) Undo(ctx context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.actions) == 0 {
		return "", ErrNothingToUndo
	}
	last := h.actions[len(h.actions)-1]
	h.actions[len(h.actions)-1] = nil
	h.actions = h.actions[:len(h.actions)-1]

	resp, err := last.Undo(ctx)
	if err != nil {
		h.logger.Warn("undo failed", "action", last.Name(), "error", err)
		return "", fmt.Errorf("undo %s: %w", last.Name(), err)
	}
	h.logger.Debug("action undone", "action", last.Name())
	return resp, nil
}

// Len returns the number of undoable actions.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.actions)
}
