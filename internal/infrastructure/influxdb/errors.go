package influxdb

import "errors"

var (
	// ErrDisabled is returned by Connect when influxdb.enabled is false.
	ErrDisabled = errors.New("influxdb: recording disabled in configuration")

	// ErrConnectionFailed is returned by Connect when the server does not
	// answer the initial ping.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrNotConnected is returned by HealthCheck after Close.
	// Writes after Close are dropped silently.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrUnhealthy is returned when the server answers a ping but reports
	// itself unhealthy.
	ErrUnhealthy = errors.New("influxdb: server not healthy")
)
