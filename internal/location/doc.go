// Package location keeps the in-memory house layout: named rooms, each
// holding a list of device names, and builds a textual report of every
// device through a device.InfoProvider.
//
// Rooms are kept in insertion order so that reports are deterministic.
package location
