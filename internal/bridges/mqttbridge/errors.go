package mqttbridge

import "errors"

var (
	// ErrMissingClient is returned by NewBridge without an MQTT client.
	ErrMissingClient = errors.New("mqttbridge: MQTT client is required")

	// ErrMissingOutlet is returned by NewBridge without an outlet executor.
	ErrMissingOutlet = errors.New("mqttbridge: outlet is required")

	// ErrUnknownCommand is returned when a command payload does not name a command.
	ErrUnknownCommand = errors.New("mqttbridge: unknown command")
)
