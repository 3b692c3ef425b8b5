// Package outlet serves and drives a remote power outlet over STP.
//
// The wire contract is one text command per request frame ("on", "off",
// "info", "state") and one text response per frame. Unknown commands are
// answered with "unknown command" and the connection stays open.
//
// # Server Side
//
//	out := device.NewOutlet("socket", "kitchen socket", false, 220)
//	h := outlet.NewHandler(out)
//	h.AddObserver(publisher) // MQTT, WebSocket, InfluxDB sinks
//
//	srv, err := outlet.NewServer("0.0.0.0:7878", stp.Config{}, h)
//	if err != nil {
//	    return err
//	}
//	srv.Start(ctx)
//	defer srv.Close()
//
// The same Handler also backs the HTTP API and MQTT command topic, so every
// entry point observes one outlet state.
//
// # Client Side
//
//	c, err := outlet.Dial(ctx, "127.0.0.1:7878", stp.Config{})
//	info, err := c.TurnOn(ctx)
//
// History wraps a Switch (the Client or a local Handler) with undo support.
package outlet
