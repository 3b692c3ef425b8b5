package device

import (
	"fmt"
	"strings"
	"sync"
)

// Catalog holds the devices known to the installation, keyed by name.
// It implements InfoProvider for report generation.
//
// All public methods are thread-safe.
type Catalog struct {
	mu      sync.RWMutex
	devices map[string]Describer
	order   []string
	logger  Logger
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		devices: make(map[string]Describer),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the catalog.
func (c *Catalog) SetLogger(logger Logger) {
	c.logger = logger
}

// Add registers a device under its name.
// Returns ErrInvalidName for an empty name and ErrDuplicateDevice if the
// name is taken.
func (c *Catalog) Add(d Describer) error {
	name := d.Name()
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.devices[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateDevice, name)
	}
	c.devices[name] = d
	c.order = append(c.order, name)

	c.logger.Debug("device added to catalog", "name", name, "kind", string(d.Kind()))
	return nil
}

// Remove unregisters a device. Returns ErrDeviceNotFound if absent.
func (c *Catalog) Remove(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.devices[name]; !exists {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}
	delete(c.devices, name)
	for i, n := range c.order {
		if n == name {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}

	c.logger.Debug("device removed from catalog", "name", name)
	return nil
}

// Get returns the device registered under name.
func (c *Catalog) Get(name string) (Describer, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.devices[name]
	return d, ok
}

// Names returns registered device names in insertion order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

// Info returns the report entry for deviceName located in locationName:
//
//	Location: <location>
//	Device/<Kind>:
//	  <device info, indented>
//
// The "Device/<Kind>:" line keeps a trailing space.
func (c *Catalog) Info(locationName, deviceName string) (string, bool) {
	d, ok := c.Get(deviceName)
	if !ok {
		return "", false
	}
	return Entry(locationName, d), true
}

// Entry formats the report entry for d located in locationName.
func Entry(locationName string, d Describer) string {
	return "Location: " + locationName + "\n" +
		"Device/" + string(d.Kind()) + ": \n" +
		indent(d.Info(), "  ")
}
