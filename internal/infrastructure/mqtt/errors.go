package mqtt

import "errors"

var (
	// ErrNotConnected is returned while the broker connection is down.
	// Publishes are not queued; the retained state is republished on the
	// next change.
	ErrNotConnected = errors.New("mqtt: not connected to broker")

	// ErrConnectionFailed is returned by Connect when the broker cannot be reached.
	ErrConnectionFailed = errors.New("mqtt: broker connection failed")

	// ErrPublishFailed wraps broker-side publish failures and timeouts.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed wraps command subscription failures.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrUnsubscribeFailed wraps command unsubscription failures.
	ErrUnsubscribeFailed = errors.New("mqtt: unsubscribe failed")

	// ErrInvalidQoS is returned for a configured QoS outside 0-2.
	ErrInvalidQoS = errors.New("mqtt: QoS must be 0, 1 or 2")

	// ErrInvalidDeviceName is returned for device names that cannot form a topic level.
	ErrInvalidDeviceName = errors.New("mqtt: invalid device name")

	// ErrPayloadTooLarge is returned for payloads above the broker limit.
	ErrPayloadTooLarge = errors.New("mqtt: payload too large")
)
