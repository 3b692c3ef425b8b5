package device

import (
	"strconv"
	"strings"
)

// Kind identifies the category of a device in reports.
type Kind string

// Device kinds.
const (
	KindSocket      Kind = "Socket"
	KindThermometer Kind = "Thermometer"
)

// Describer is implemented by every device that can appear in a report.
type Describer interface {
	// Name returns the unique device name.
	Name() string

	// Kind returns the device category.
	Kind() Kind

	// Info returns the device's current info text.
	Info() string
}

// InfoProvider resolves a device inside a location to its report text.
type InfoProvider interface {
	// Info returns the report entry for deviceName in locationName.
	// The boolean is false when the provider does not know the device.
	Info(locationName, deviceName string) (string, bool)
}

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// formatNumber renders v in the shortest decimal form that round-trips.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// infoText builds the three-line device description.
func infoText(name, description, current string) string {
	var b strings.Builder
	b.WriteString("Name: ")
	b.WriteString(name)
	b.WriteString("\nDescription: ")
	b.WriteString(description)
	b.WriteString("\n")
	b.WriteString(current)
	return b.String()
}

// indent prefixes every line of s with prefix.
func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
