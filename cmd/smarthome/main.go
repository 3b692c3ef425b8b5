// SmartHome Core - smart home device controller.
//
// This is the main entry point for the SmartHome Core daemon. It runs:
//   - The smart outlet, reachable over the framed STP transport
//   - The thermometer, fed by UDP telemetry datagrams
//   - The house registry and REST/WebSocket API
//   - Optional MQTT bridge and InfluxDB telemetry recording
//
// Configuration is read from configs/config.yaml, or from the path in
// SMARTHOME_CONFIG.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/smarthome-core/internal/api"
	"github.com/nerrad567/smarthome-core/internal/bridges/mqttbridge"
	"github.com/nerrad567/smarthome-core/internal/device"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/config"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/logging"
	"github.com/nerrad567/smarthome-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/smarthome-core/internal/location"
	"github.com/nerrad567/smarthome-core/internal/outlet"
	"github.com/nerrad567/smarthome-core/internal/stp"
	"github.com/nerrad567/smarthome-core/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on Ctrl+C or SIGTERM for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting SmartHome Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Outlet and its command handler, shared by every entry point
	socket := device.NewOutlet(cfg.Outlet.Name, cfg.Outlet.Description, cfg.Outlet.InitiallyOn, cfg.Outlet.Power)
	handler := outlet.NewHandler(socket)
	handler.SetLogger(log.Component("outlet"))

	// Thermometer readings arrive over UDP. The collector runs only after
	// every reading sink below has been registered.
	var sinks []readingSink
	thermoName := cfg.Telemetry.Thermometer.Name
	collector := telemetry.NewCollector(cfg.Telemetry.Thermometer.Initial, telemetry.Config{
		LoggerFactory: log,
		OnReading: func(value float64, _ net.Addr) {
			for _, s := range sinks {
				s.PublishReading(thermoName, value)
			}
		},
	})
	thermometer := device.NewThermometer(thermoName, cfg.Telemetry.Thermometer.Description, collector)

	catalog := device.NewCatalog()
	catalog.SetLogger(log)
	for _, d := range []device.Describer{socket, thermometer} {
		if addErr := catalog.Add(d); addErr != nil {
			return fmt.Errorf("registering device %s: %w", d.Name(), addErr)
		}
	}

	house := buildHouse(cfg)
	house.SetLogger(log.Component("house"))
	log.Info("house initialised", "name", house.Name(), "rooms", len(house.Rooms()))

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		bridge, bridgeErr := mqttbridge.NewBridge(mqttbridge.Options{
			MQTTClient: mqttClient,
			Outlet:     handler,
			OutletName: socket.Name(),
			Logger:     log.Component("mqtt-bridge"),
		})
		if bridgeErr != nil {
			return fmt.Errorf("creating MQTT bridge: %w", bridgeErr)
		}
		if startErr := bridge.Start(ctx); startErr != nil {
			return fmt.Errorf("starting MQTT bridge: %w", startErr)
		}
		defer func() {
			log.Info("stopping MQTT bridge")
			bridge.Stop()
		}()
		handler.AddObserver(bridge)
		sinks = append(sinks, bridge)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
			stats := influxClient.Stats()
			log.Info("InfluxDB points written", "queued", stats.Queued, "failed_batches", stats.Failed)
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		handler.AddObserver(influxClient)
		sinks = append(sinks, influxClient)
	} else {
		log.Info("InfluxDB disabled")
	}

	// REST and WebSocket API
	apiServer, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Logger:      log,
		House:       house,
		Catalog:     catalog,
		Outlet:      handler,
		Thermometer: thermometer,
		Readings:    collector,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	handler.AddObserver(apiServer)
	sinks = append(sinks, apiServer)

	// Outlet STP server
	outletServer, err := outlet.NewServer(cfg.OutletAddr(), stp.Config{
		MaxFrameSize:  cfg.Outlet.MaxFrameSize,
		Handshake:     cfg.Outlet.Handshake,
		ReadTimeout:   cfg.OutletReadTimeout(),
		WriteTimeout:  cfg.OutletWriteTimeout(),
		LoggerFactory: log,
	}, handler)
	if err != nil {
		return fmt.Errorf("creating outlet server: %w", err)
	}
	outletServer.SetLogger(log.Component("outlet-server"))
	if startErr := outletServer.Start(ctx); startErr != nil {
		outletServer.Close() //nolint:errcheck // already failing
		return fmt.Errorf("starting outlet server: %w", startErr)
	}
	defer func() {
		if closeErr := outletServer.Close(); closeErr != nil {
			log.Error("error closing outlet server", "error", closeErr)
		}
	}()

	// Telemetry receiver
	pc, err := telemetry.ListenUDP(cfg.TelemetryAddr())
	if err != nil {
		return fmt.Errorf("opening telemetry socket: %w", err)
	}
	defer func() {
		log.Info("closing telemetry socket")
		if closeErr := pc.Close(); closeErr != nil {
			log.Error("error closing telemetry socket", "error", closeErr)
		}
	}()
	if runErr := collector.RunContext(ctx, pc, cfg.TelemetryInterval()); runErr != nil {
		return fmt.Errorf("starting telemetry collector: %w", runErr)
	}
	defer func() {
		log.Info("stopping telemetry collector")
		collector.Close() //nolint:errcheck // always nil
	}()
	log.Info("telemetry collector started",
		"address", pc.LocalAddr().String(),
		"thermometer", thermoName,
	)

	// The API starts last so that a healthy API implies a running outlet
	// server and collector.
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Verify all components are healthy
	if err := healthCheck(ctx, outletServer, apiServer, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred calls run in reverse order:
	// 1. API server
	// 2. Telemetry collector and socket
	// 3. Outlet server
	// 4. InfluxDB (if enabled)
	// 5. MQTT bridge and client (if enabled)

	log.Info("SmartHome Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SMARTHOME_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SMARTHOME_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all components are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - outletServer: Outlet STP server to check
//   - apiServer: API server to check
//   - mqttClient: MQTT client to check (may be nil if disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First failing component, or nil if all are healthy
func healthCheck(ctx context.Context, outletServer *outlet.Server, apiServer *api.Server, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if outletServer == nil {
		return fmt.Errorf("outlet: server not running")
	}
	if err := outletServer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("outlet: %w", err)
	}

	if apiServer == nil {
		return fmt.Errorf("api: server not running")
	}
	if err := apiServer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	// Check MQTT (if enabled)
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	// Check InfluxDB (if enabled)
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// buildHouse creates the house from the configured rooms and places the
// outlet and thermometer in their configured rooms.
func buildHouse(cfg *config.Config) *location.House {
	rooms := make([]location.Room, 0, len(cfg.House.Rooms))
	for _, r := range cfg.House.Rooms {
		rooms = append(rooms, location.Room{Name: r.Name, Devices: r.Devices})
	}
	house := location.NewHouseWithRooms(cfg.Site.Name, rooms)

	place := func(room, dev string) {
		if room == "" {
			return
		}
		house.AddRoom(room)
		house.AddDevice(room, dev) //nolint:errcheck // room was just added
	}
	place(cfg.Outlet.Room, cfg.Outlet.Name)
	place(cfg.Telemetry.Thermometer.Room, cfg.Telemetry.Thermometer.Name)

	return house
}

// readingSink receives every thermometer reading stored by the collector.
type readingSink interface {
	PublishReading(name string, celsius float64)
}
