package outlet

import "errors"

// Domain errors for the outlet package.
var (
	// ErrUnexpectedResponse is returned when the server answers a state query
	// with something other than "on" or "off".
	ErrUnexpectedResponse = errors.New("outlet: unexpected response")

	// ErrNothingToUndo is returned by History.Undo when no action is recorded.
	ErrNothingToUndo = errors.New("outlet: nothing to undo")

	// ErrServerStarted is returned by Server.Start when called twice.
	ErrServerStarted = errors.New("outlet: server already started")
)
