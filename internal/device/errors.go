package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, device.ErrDuplicateDevice) {
//	    // handle duplicate
//	}
var (
	// ErrDeviceNotFound is returned when a device name is not in the catalog.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrDuplicateDevice is returned when adding a device whose name is already registered.
	ErrDuplicateDevice = errors.New("device: already exists")

	// ErrInvalidName is returned when a device name is empty.
	ErrInvalidName = errors.New("device: invalid name")
)
