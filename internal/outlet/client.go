package outlet

import (
	"context"
	"fmt"
	"net"

	"github.com/nerrad567/smarthome-core/internal/stp"
)

// Client drives a remote outlet. It is safe for concurrent use; requests are
// serialised on the single connection.
type Client struct {
	stp *stp.Client
}

// Dial connects to an outlet server.
//
// Returns:
//   - *Client: Connected client
//   - error: *stp.ConnectError on failure
func Dial(ctx context.Context, addr string, cfg stp.Config) (*Client, error) {
	c, err := stp.ConnectContext(ctx, addr, cfg)
	if err != nil {
		return nil, err
	}
	return &Client{stp: c}, nil
}

// Do sends cmd and returns the server's response.
// Errors are *stp.RequestError.
func (c *Client) Do(ctx context.Context, cmd Command) (Response, error) {
	text, err := c.stp.SendRequestContext(ctx, EncodeRequest(Request{Command: cmd}))
	if err != nil {
		return Response{}, err
	}
	return DecodeResponse(text), nil
}

// TurnOn switches the outlet on and returns its info text.
func (c *Client) TurnOn(ctx context.Context) (string, error) {
	return c.text(ctx, CommandOn)
}

// TurnOff switches the outlet off and returns its info text.
func (c *Client) TurnOff(ctx context.Context) (string, error) {
	return c.text(ctx, CommandOff)
}

// Info returns the outlet info text.
func (c *Client) Info(ctx context.Context) (string, error) {
	return c.text(ctx, CommandInfo)
}

// State reports whether the outlet is on.
// Returns ErrUnexpectedResponse if the server does not answer "on" or "off".
func (c *Client) State(ctx context.Context) (bool, error) {
	text, err := c.text(ctx, CommandState)
	if err != nil {
		return false, err
	}
	switch text {
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("%w: state %q", ErrUnexpectedResponse, text)
	}
}

func (c *Client) text(ctx context.Context, cmd Command) (string, error) {
	resp, err := c.Do(ctx, cmd)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// RemoteAddr returns the server address.
func (c *Client) RemoteAddr() net.Addr {
	return c.stp.RemoteAddr()
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.stp.Close()
}
