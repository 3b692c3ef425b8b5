// Package stp implements the SmartHome Transport Protocol, a minimal framed
// request/response protocol over TCP.
//
// # Wire Format
//
// Every message in either direction is one frame:
//
//	┌──────────────────────┬──────────────────────────┐
//	│ length (u32, BE)     │ payload (length bytes)   │
//	└──────────────────────┴──────────────────────────┘
//
// The payload is UTF-8 text and is the whole application message. There are no
// request identifiers: one response follows each request, in order, on the
// same connection. Frames larger than Config.MaxFrameSize are rejected before
// the payload is read.
//
// An optional greeting ("clnt" from the client, "serv" from the server) can be
// enabled with Config.Handshake. It is off by default.
//
// # Scheduling Models
//
// Two variants share the same framing and handler contract:
//
//   - Blocking: Listener.Accept, Conn.ProcessOnce, Client.SendRequest. The caller
//     owns the goroutine and the call blocks until the I/O completes.
//   - Context-driven: Listener.Serve, Conn.ProcessOnceContext,
//     Client.SendRequestContext. Cancelling the context interrupts pending I/O
//     by forcing the connection deadline.
//
// # Errors
//
// Failures are typed so callers can decide how to recover:
//
//   - *ConnectError: dial failure or rejected greeting (ErrBadHandshake)
//   - *SendError: the frame could not be written
//   - *RecvError: the frame could not be read (ErrBadEncoding, ErrFrameTooLarge or I/O)
//   - *RequestError: a client round trip failed; Phase tells whether the request
//     left the client
//
// A send-phase failure is ambiguous (the server may or may not have seen the
// command). A receive-phase failure means the command was sent but its outcome
// is unknown. Read-only commands are safe to retry in both cases.
//
// # Usage
//
//	ln, err := stp.Bind("127.0.0.1:55333", stp.Config{})
//	if err != nil {
//	    return err
//	}
//	go ln.Serve(ctx, stp.HandlerFunc(func(_ context.Context, req string) string {
//	    return strings.ToUpper(req)
//	}))
//
//	client, err := stp.Connect("127.0.0.1:55333", stp.Config{})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//	resp, err := client.SendRequest("info")
package stp
