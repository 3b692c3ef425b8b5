// Package device models the smart devices of a SmartHome installation and
// renders their human-readable info text.
//
// # Key Types
//
//   - Outlet: A switchable power outlet. On/off state lives behind one mutex
//     and is mutated only through TurnOn/TurnOff.
//   - Thermometer: A read-only sensor whose temperature comes from a
//     TemperatureSource (usually the telemetry collector).
//   - Catalog: An InfoProvider that answers "what is device X in room Y"
//     for report generation.
//
// # Info Text
//
// Every device renders three lines without a trailing newline:
//
//	Name: <name>
//	Description: <description>
//	Current state: on, 220 Volts            (outlet)
//	Current temperature: 21.5 Celsus        (thermometer)
//
// Numbers use the shortest decimal form that round-trips, so 220.0 prints
// as "220". The Catalog prefixes the location and device kind and indents
// the device text by two spaces:
//
//	Location: Kitchen
//	Device/Socket:
//	  Name: socket
//	  ...
//
// # Thread Safety
//
// Outlet, Thermometer and Catalog are safe for concurrent use.
package device
