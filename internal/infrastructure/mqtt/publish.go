package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/smarthome-core/internal/device"
)

// PublishOutletState publishes an outlet snapshot as a retained
// OutletStateMessage on Topics.OutletState.
//
// Parameters:
//   - st: Outlet snapshot, as passed to outlet state observers
//
// Returns:
//   - error: ErrInvalidDeviceName, ErrNotConnected, or ErrPublishFailed
func (c *Client) PublishOutletState(st device.OutletState) error {
	if err := validateDeviceName(st.Name); err != nil {
		return err
	}
	return c.publishJSON(Topics{}.OutletState(st.Name), NewOutletStateMessage(st, time.Now()), true)
}

// PublishReading publishes a thermometer reading as a retained
// ReadingMessage on Topics.ThermometerState.
func (c *Client) PublishReading(name string, celsius float64) error {
	if err := validateDeviceName(name); err != nil {
		return err
	}
	return c.publishJSON(Topics{}.ThermometerState(name), NewReadingMessage(name, celsius, time.Now()), true)
}

// PublishOutletResponse publishes the reply text for a command received on
// the outlet's command topic. Replies are not retained.
func (c *Client) PublishOutletResponse(name, text string) error {
	if err := validateDeviceName(name); err != nil {
		return err
	}
	return c.publish(Topics{}.OutletResponse(name), []byte(text), false)
}

func (c *Client) publishJSON(topic string, v any, retained bool) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrPublishFailed, topic, err)
	}
	return c.publish(topic, payload, retained)
}

// publish sends payload at the client's QoS and waits for the broker.
func (c *Client) publish(topic string, payload []byte, retained bool) error {
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrPayloadTooLarge, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, c.qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: %s: timeout after %v", ErrPublishFailed, topic, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}
	return nil
}
