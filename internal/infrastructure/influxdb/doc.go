// Package influxdb records outlet and thermometer history in InfluxDB v2.
//
// The Client is both an outlet.StateObserver and a reading sink for the
// telemetry collector, so wiring it in is two registrations:
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	handler.AddObserver(client)
//	sinks = append(sinks, client)
//
// # Schema
//
//	temperature,device=<name> celsius=<float>
//	outlet,device=<name> is_on=<bool>,power=<float>
//
// # Error Handling
//
// Writes are batched and never block. Batch failures are counted in Stats
// and delivered to the SetOnError callback. Connect and HealthCheck return
// their errors directly.
package influxdb
