// Package mqtt provides MQTT client connectivity for SmartHome Core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Typed publishing of outlet state, thermometer readings and replies
//   - Outlet command subscriptions, restored after reconnect
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// MQTT is an optional outer surface. Outlet state and thermometer readings
// are published retained so dashboards see the latest value on subscribe,
// and outlet commands arrive on a per-outlet command topic.
//
//	smarthome/state/outlet/{name}       retained JSON outlet state
//	smarthome/state/thermometer/{name}  retained JSON reading
//	smarthome/command/outlet/{name}     "on", "off", "info" or "state"
//	smarthome/response/outlet/{name}    command reply text
//	smarthome/system/status             online/offline (LWT)
//
// # Security Considerations
//
//   - TLS is recommended outside a trusted LAN (cfg.Broker.TLS=true)
//   - Anonymous access is only for local development
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.SubscribeOutletCommands("socket", func(outlet, command string) error {
//	    log.Printf("%s: %s", outlet, command)
//	    return nil
//	})
//
//	client.PublishOutletState(socket.Snapshot())
package mqtt
