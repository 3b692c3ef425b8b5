package influxdb

import (
	"context"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/smarthome-core/internal/device"
)

// Measurements written by SmartHome Core. Every point carries a "device" tag
// with the device name.
const (
	// MeasurementTemperature has one field, celsius.
	MeasurementTemperature = "temperature"

	// MeasurementOutlet has the fields is_on (bool) and power (volts).
	MeasurementOutlet = "outlet"
)

const tagDevice = "device"

func readingPoint(name string, celsius float64, ts time.Time) *write.Point {
	return write.NewPointWithMeasurement(MeasurementTemperature).
		AddTag(tagDevice, name).
		AddField("celsius", celsius).
		SetTime(ts)
}

func outletPoint(st device.OutletState, ts time.Time) *write.Point {
	return write.NewPointWithMeasurement(MeasurementOutlet).
		AddTag(tagDevice, st.Name).
		AddField("is_on", st.IsOn).
		AddField("power", st.Power).
		SetTime(ts)
}

// WriteReading queues a thermometer reading. The write is batched and
// failures are reported through SetOnError.
func (c *Client) WriteReading(name string, celsius float64) {
	c.write(readingPoint(name, celsius, time.Now()))
}

// WriteOutletState queues an outlet snapshot.
func (c *Client) WriteOutletState(st device.OutletState) {
	c.write(outletPoint(st, time.Now()))
}

// PublishReading records a reading stored by the telemetry collector.
func (c *Client) PublishReading(name string, celsius float64) {
	c.WriteReading(name, celsius)
}

// OutletStateChanged records every outlet switch. It makes the client an
// outlet.StateObserver.
func (c *Client) OutletStateChanged(_ context.Context, st device.OutletState) {
	c.WriteOutletState(st)
}

func (c *Client) write(p *write.Point) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.connected {
		return
	}
	c.queued.Add(1)
	c.writeAPI.WritePoint(p)
}
