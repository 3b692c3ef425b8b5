// Package mqttbridge connects the outlet and thermometer to an MQTT broker.
//
// Outbound, it publishes retained outlet state (as an outlet.StateObserver)
// and thermometer readings. Inbound, it subscribes to the outlet's command
// topic and runs each payload through the same command handler the STP
// server uses, so MQTT, HTTP and STP clients all act on one outlet.
//
// Topic layout and payload encoding live in infrastructure/mqtt.
package mqttbridge
