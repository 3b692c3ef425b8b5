package location

import "errors"

// Domain errors for the location package.
var (
	// ErrRoomNotFound is returned when a referenced room does not exist.
	ErrRoomNotFound = errors.New("location: room not found")

	// ErrInvalidName is returned when a room or device name is empty.
	ErrInvalidName = errors.New("location: invalid name")

	// ErrReportIncomplete is returned when a device in the house has no info.
	ErrReportIncomplete = errors.New("location: report incomplete")
)
