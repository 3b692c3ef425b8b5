package device

import (
	"math"
	"sync/atomic"
)

// TemperatureSource supplies the latest temperature in degrees Celsius.
// The telemetry collector satisfies it.
type TemperatureSource interface {
	CurrentReading() float64
}

// FixedTemperature is a TemperatureSource that can be set directly.
// The zero value reads 0.
type FixedTemperature struct {
	bits atomic.Uint64
}

// NewFixedTemperature returns a source reading celsius.
func NewFixedTemperature(celsius float64) *FixedTemperature {
	f := &FixedTemperature{}
	f.Set(celsius)
	return f
}

// Set replaces the reading.
func (f *FixedTemperature) Set(celsius float64) {
	f.bits.Store(math.Float64bits(celsius))
}

// CurrentReading returns the stored value.
func (f *FixedTemperature) CurrentReading() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Thermometer is a read-only temperature sensor.
type Thermometer struct {
	name        string
	description string
	source      TemperatureSource
}

// NewThermometer creates a thermometer reading from source.
func NewThermometer(name, description string, source TemperatureSource) *Thermometer {
	return &Thermometer{
		name:        name,
		description: description,
		source:      source,
	}
}

// Name returns the thermometer name.
func (t *Thermometer) Name() string { return t.name }

// Description returns the thermometer description.
func (t *Thermometer) Description() string { return t.description }

// Kind returns KindThermometer.
func (t *Thermometer) Kind() Kind { return KindThermometer }

// Temperature returns the latest reading from the source.
func (t *Thermometer) Temperature() float64 {
	return t.source.CurrentReading()
}

// Info renders the thermometer info text.
func (t *Thermometer) Info() string {
	return infoText(t.name, t.description,
		"Current temperature: "+formatNumber(t.Temperature())+" Celsus")
}
