package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for SmartHome Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Outlet    OutletConfig    `yaml:"outlet"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	House     HouseConfig     `yaml:"house"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	Name string `yaml:"name"`
}

// OutletConfig contains the STP outlet server settings and the served
// outlet's initial state.
type OutletConfig struct {
	Host        string  `yaml:"host"`
	Port        int     `yaml:"port"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Room        string  `yaml:"room"`
	Power       float64 `yaml:"power"`
	InitiallyOn bool    `yaml:"initially_on"`

	// MaxFrameSize is the largest accepted frame payload in bytes.
	// Default: 1 MiB
	MaxFrameSize uint32 `yaml:"max_frame_size"`

	// Handshake enables the "clnt"/"serv" greeting. Clients must match.
	Handshake bool `yaml:"handshake"`

	// ReadTimeout closes connections idle for longer (seconds, 0 = never).
	ReadTimeout int `yaml:"read_timeout"`

	// WriteTimeout bounds each response write (seconds, 0 = no limit).
	WriteTimeout int `yaml:"write_timeout"`
}

// TelemetryConfig contains the UDP collector settings.
type TelemetryConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// PollInterval is the collector read deadline in milliseconds. It also
	// bounds shutdown latency.
	PollInterval int `yaml:"poll_interval"`

	Thermometer ThermometerConfig `yaml:"thermometer"`
}

// ThermometerConfig describes the thermometer fed by the collector.
type ThermometerConfig struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Room        string  `yaml:"room"`
	Initial     float64 `yaml:"initial"`
}

// HouseConfig contains the initial room layout.
type HouseConfig struct {
	Rooms []RoomConfig `yaml:"rooms"`
}

// RoomConfig is one room and the device names placed in it.
type RoomConfig struct {
	Name    string   `yaml:"name"`
	Devices []string `yaml:"devices"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SMARTHOME_SECTION_KEY
// For example: SMARTHOME_OUTLET_PORT, SMARTHOME_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			Name: "SmartHome",
		},
		Outlet: OutletConfig{
			Host:         "0.0.0.0",
			Port:         7878,
			Name:         "socket",
			Description:  "smart socket",
			Room:         "kitchen",
			Power:        220,
			MaxFrameSize: 1 << 20,
		},
		Telemetry: TelemetryConfig{
			Host:         "0.0.0.0",
			Port:         55331,
			PollInterval: 500,
			Thermometer: ThermometerConfig{
				Name:        "thermometer",
				Description: "smart thermometer",
				Room:        "kitchen",
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "smarthome-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SMARTHOME_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	var errs []string

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %q is not an integer", key, v))
				return
			}
			*dst = n
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %q is not a boolean", key, v))
				return
			}
			*dst = b
		}
	}

	// Site
	setString("SMARTHOME_SITE_NAME", &cfg.Site.Name)

	// Outlet
	setString("SMARTHOME_OUTLET_HOST", &cfg.Outlet.Host)
	setInt("SMARTHOME_OUTLET_PORT", &cfg.Outlet.Port)
	setBool("SMARTHOME_OUTLET_HANDSHAKE", &cfg.Outlet.Handshake)

	// Telemetry
	setString("SMARTHOME_TELEMETRY_HOST", &cfg.Telemetry.Host)
	setInt("SMARTHOME_TELEMETRY_PORT", &cfg.Telemetry.Port)

	// MQTT
	setBool("SMARTHOME_MQTT_ENABLED", &cfg.MQTT.Enabled)
	setString("SMARTHOME_MQTT_HOST", &cfg.MQTT.Broker.Host)
	setString("SMARTHOME_MQTT_USERNAME", &cfg.MQTT.Auth.Username)
	setString("SMARTHOME_MQTT_PASSWORD", &cfg.MQTT.Auth.Password)

	// API
	setString("SMARTHOME_API_HOST", &cfg.API.Host)
	setInt("SMARTHOME_API_PORT", &cfg.API.Port)

	// InfluxDB
	setBool("SMARTHOME_INFLUXDB_ENABLED", &cfg.InfluxDB.Enabled)
	setString("SMARTHOME_INFLUXDB_URL", &cfg.InfluxDB.URL)
	setString("SMARTHOME_INFLUXDB_TOKEN", &cfg.InfluxDB.Token)

	// Logging
	setString("SMARTHOME_LOG_LEVEL", &cfg.Logging.Level)

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	validPort := func(p int) bool { return p >= 1 && p <= 65535 }

	// Site validation
	if strings.TrimSpace(c.Site.Name) == "" {
		errs = append(errs, "site.name is required")
	}

	// Outlet validation
	if !validPort(c.Outlet.Port) {
		errs = append(errs, "outlet.port must be between 1 and 65535")
	}
	if strings.TrimSpace(c.Outlet.Name) == "" {
		errs = append(errs, "outlet.name is required")
	}
	if c.Outlet.ReadTimeout < 0 || c.Outlet.WriteTimeout < 0 {
		errs = append(errs, "outlet timeouts must not be negative")
	}

	// Telemetry validation
	if !validPort(c.Telemetry.Port) {
		errs = append(errs, "telemetry.port must be between 1 and 65535")
	}
	if c.Telemetry.PollInterval <= 0 {
		errs = append(errs, "telemetry.poll_interval must be positive")
	}
	if strings.TrimSpace(c.Telemetry.Thermometer.Name) == "" {
		errs = append(errs, "telemetry.thermometer.name is required")
	}
	if c.Telemetry.Thermometer.Name == c.Outlet.Name {
		errs = append(errs, "telemetry.thermometer.name must differ from outlet.name")
	}

	// House validation
	for i, r := range c.House.Rooms {
		if strings.TrimSpace(r.Name) == "" {
			errs = append(errs, fmt.Sprintf("house.rooms[%d].name is required", i))
		}
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
	}

	// API validation
	if !validPort(c.API.Port) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// OutletAddr returns the outlet listen address.
func (c *Config) OutletAddr() string {
	return fmt.Sprintf("%s:%d", c.Outlet.Host, c.Outlet.Port)
}

// TelemetryAddr returns the collector listen address.
func (c *Config) TelemetryAddr() string {
	return fmt.Sprintf("%s:%d", c.Telemetry.Host, c.Telemetry.Port)
}

// OutletReadTimeout returns the outlet connection idle timeout as a Duration.
func (c *Config) OutletReadTimeout() time.Duration {
	return time.Duration(c.Outlet.ReadTimeout) * time.Second
}

// OutletWriteTimeout returns the outlet response write timeout as a Duration.
func (c *Config) OutletWriteTimeout() time.Duration {
	return time.Duration(c.Outlet.WriteTimeout) * time.Second
}

// TelemetryInterval returns the collector poll interval as a Duration.
func (c *Config) TelemetryInterval() time.Duration {
	return time.Duration(c.Telemetry.PollInterval) * time.Millisecond
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
