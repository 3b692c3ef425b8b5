package location

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/nerrad567/smarthome-core/internal/device"
)

// Logger defines the logging interface used by House.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Room is a snapshot of one room and its devices.
type Room struct {
	Name    string   `json:"name"`
	Devices []string `json:"devices"`
}

// House is the registry of rooms and the devices placed in them.
//
// All public methods are thread-safe and return copies.
type House struct {
	name string

	mu      sync.RWMutex
	rooms   []string
	devices map[string][]string
	logger  Logger
}

// NewHouse creates an empty house.
func NewHouse(name string) *House {
	return &House{
		name:    name,
		devices: make(map[string][]string),
		logger:  noopLogger{},
	}
}

// NewHouseWithRooms creates a house from an ordered room list.
// Duplicate rooms and devices are merged.
func NewHouseWithRooms(name string, rooms []Room) *House {
	h := NewHouse(name)
	for _, r := range rooms {
		h.AddRoom(r.Name)
		for _, d := range r.Devices {
			h.AddDevice(r.Name, d) //nolint:errcheck // room was just added
		}
	}
	return h
}

// SetLogger sets the logger for the house.
func (h *House) SetLogger(logger Logger) {
	h.logger = logger
}

// Name returns the house name.
func (h *House) Name() string { return h.name }

// AddRoom adds a room. Adding an existing room is a no-op.
// Returns false if the room already existed.
func (h *House) AddRoom(room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.devices[room]; exists {
		return false
	}
	h.rooms = append(h.rooms, room)
	h.devices[room] = []string{}

	h.logger.Debug("room added", "house", h.name, "room", room)
	return true
}

// DeleteRoom removes a room and its device list.
// Returns false if the room did not exist.
func (h *House) DeleteRoom(room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.devices[room]; !exists {
		return false
	}
	delete(h.devices, room)
	h.rooms = slices.DeleteFunc(h.rooms, func(r string) bool { return r == room })

	h.logger.Debug("room deleted", "house", h.name, "room", room)
	return true
}

// Rooms returns room names in insertion order.
func (h *House) Rooms() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.rooms)
}

// HasRoom reports whether room exists.
func (h *House) HasRoom(room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.devices[room]
	return ok
}

// Devices returns the device names in room, or nil if the room is unknown.
func (h *House) Devices(room string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.devices[room])
}

// AddDevice places a device in an existing room. A device already present
// in the room is ignored.
//
// Returns:
//   - error: ErrRoomNotFound if the room does not exist, ErrInvalidName for an empty device name
func (h *House) AddDevice(room, dev string) error {
	if strings.TrimSpace(dev) == "" {
		return ErrInvalidName
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	devices, exists := h.devices[room]
	if !exists {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, room)
	}
	if slices.Contains(devices, dev) {
		return nil
	}
	h.devices[room] = append(devices, dev)

	h.logger.Debug("device added", "house", h.name, "room", room, "device", dev)
	return nil
}

// DeleteDevice removes a device from a room. Unknown devices are ignored.
//
// Returns:
//   - error: ErrRoomNotFound if the room does not exist
func (h *House) DeleteDevice(room, dev string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	devices, exists := h.devices[room]
	if !exists {
		return fmt.Errorf("%w: %s", ErrRoomNotFound, room)
	}
	h.devices[room] = slices.DeleteFunc(devices, func(d string) bool { return d == dev })

	h.logger.Debug("device deleted", "house", h.name, "room", room, "device", dev)
	return nil
}

// Snapshot returns every room with its devices, in insertion order.
func (h *House) Snapshot() []Room {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rooms := make([]Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, Room{Name: r, Devices: slices.Clone(h.devices[r])})
	}
	return rooms
}

// Report renders every device of every room through provider, one entry
// per device joined by newlines. Rooms appear in insertion order; rooms
// without devices contribute nothing.
//
// Returns:
//   - string: The full report
//   - error: ErrReportIncomplete naming the first device the provider does not know
func (h *House) Report(provider device.InfoProvider) (string, error) {
	entries := make([]string, 0)
	for _, room := range h.Snapshot() {
		for _, dev := range room.Devices {
			info, ok := provider.Info(room.Name, dev)
			if !ok {
				h.logger.Warn("report incomplete", "house", h.name, "room", room.Name, "device", dev)
				return "", fmt.Errorf("%w: no info for device %q in room %q", ErrReportIncomplete, dev, room.Name)
			}
			entries = append(entries, info)
		}
	}
	return strings.Join(entries, "\n"), nil
}
