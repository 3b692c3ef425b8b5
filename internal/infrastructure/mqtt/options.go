package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/smarthome-core/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second

	// publishTimeout bounds every broker acknowledgement wait.
	publishTimeout = 5 * time.Second

	disconnectQuiesce = 1000 // milliseconds
	keepAlive         = 60 * time.Second

	maxQoS = 2

	// maxPayloadSize matches the default message limit of common brokers.
	maxPayloadSize = 1 << 20
)

// buildClientOptions maps the mqtt config section onto paho options.
//
// Sessions are clean: command subscriptions are re-established by the
// client after every reconnect instead of being kept by the broker.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))
	opts.SetClientID(cfg.Broker.ClientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetKeepAlive(keepAlive)

	return opts
}

// configureLWT registers the offline status as the connection's will, so
// subscribers of the status topic see the hub drop off after a crash.
func configureLWT(opts *pahomqtt.ClientOptions, cfg config.MQTTConfig) {
	opts.SetWill(systemTopic, string(statusPayload(cfg.Broker.ClientID, StatusOffline, reasonUnexpected, time.Now())), byte(cfg.QoS), true) //nolint:gosec // validated to 0-2
}

// statusPayload encodes a StatusMessage. StatusMessage has only plain
// fields, so encoding cannot fail.
func statusPayload(clientID, status, reason string, now time.Time) []byte {
	b, _ := json.Marshal(StatusMessage{ //nolint:errcheck // see above
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: now.UTC(),
	})
	return b
}
