package mqtt

import (
	"fmt"
	"strings"
)

// CommandHandler receives a command sent to an outlet's command topic.
// The command is the payload with surrounding whitespace removed; parsing
// it is up to the handler. A returned error is logged.
type CommandHandler func(outlet, command string) error

// SubscribeOutletCommands delivers every message on Topics.OutletCommand(name)
// to h. Handlers run on paho's delivery goroutine and should return promptly.
//
// The subscription is restored after a reconnect.
//
// Parameters:
//   - name: Outlet name, one topic level
//   - h: Command callback
//
// Returns:
//   - error: ErrInvalidDeviceName, ErrNotConnected, or ErrSubscribeFailed
func (c *Client) SubscribeOutletCommands(name string, h CommandHandler) error {
	if err := validateDeviceName(name); err != nil {
		return err
	}
	if h == nil {
		return fmt.Errorf("%w: nil command handler", ErrSubscribeFailed)
	}

	return c.subscribe(Topics{}.OutletCommand(name), func(_ string, payload []byte) error {
		return h(name, strings.TrimSpace(string(payload)))
	})
}

// UnsubscribeOutletCommands stops command delivery for name. Messages
// already in flight may still arrive.
func (c *Client) UnsubscribeOutletCommands(name string) error {
	if err := validateDeviceName(name); err != nil {
		return err
	}
	return c.unsubscribe(Topics{}.OutletCommand(name))
}

func (c *Client) subscribe(topic string, handler messageHandler) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.subMu.Lock()
	c.subs[topic] = handler
	c.subMu.Unlock()

	token := c.client.Subscribe(topic, c.qos, c.wrapHandler(handler))
	var err error
	if !token.WaitTimeout(publishTimeout) {
		err = fmt.Errorf("timeout after %v", publishTimeout)
	} else {
		err = token.Error()
	}
	if err != nil {
		c.subMu.Lock()
		delete(c.subs, topic)
		c.subMu.Unlock()
		return fmt.Errorf("%w: %s: %w", ErrSubscribeFailed, topic, err)
	}
	return nil
}

func (c *Client) unsubscribe(topic string) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.subMu.Lock()
	delete(c.subs, topic)
	c.subMu.Unlock()

	token := c.client.Unsubscribe(topic)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: %s: timeout after %v", ErrUnsubscribeFailed, topic, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnsubscribeFailed, topic, err)
	}
	return nil
}
