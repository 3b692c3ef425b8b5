// Package api implements the HTTP REST API and WebSocket server for SmartHome Core.
//
// This package provides:
//   - House registry endpoints (rooms, devices, report)
//   - Outlet switching and thermometer readings
//   - WebSocket hub for real-time outlet and thermometer events
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Architecture
//
// Outlet commands go through the same outlet.Handler that serves STP and
// MQTT clients, so every transport observes one state. The Server registers
// as an outlet.StateObserver and relays switches to WebSocket subscribers on
// the "outlet.state_changed" channel. Thermometer readings arrive through
// PublishReading and go out on "thermometer.reading".
//
// The server follows the same lifecycle pattern as other components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
