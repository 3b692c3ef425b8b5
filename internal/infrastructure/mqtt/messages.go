package mqtt

import (
	"time"

	"github.com/nerrad567/smarthome-core/internal/device"
)

// OutletStateMessage is the retained payload on an outlet state topic.
type OutletStateMessage struct {
	Name      string    `json:"name"`
	On        bool      `json:"on"`
	State     string    `json:"state"`
	Power     float64   `json:"power"`
	Timestamp time.Time `json:"timestamp"`
}

// NewOutletStateMessage builds a state payload from an outlet snapshot.
func NewOutletStateMessage(st device.OutletState, now time.Time) OutletStateMessage {
	return OutletStateMessage{
		Name:      st.Name,
		On:        st.IsOn,
		State:     st.StateText(),
		Power:     st.Power,
		Timestamp: now.UTC(),
	}
}

// ReadingMessage is the retained payload on a thermometer state topic.
type ReadingMessage struct {
	Name        string    `json:"name"`
	Temperature float64   `json:"temperature"`
	Unit        string    `json:"unit"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewReadingMessage builds a reading payload. Temperatures are Celsius.
func NewReadingMessage(name string, celsius float64, now time.Time) ReadingMessage {
	return ReadingMessage{
		Name:        name,
		Temperature: celsius,
		Unit:        "C",
		Timestamp:   now.UTC(),
	}
}

// Status values on the system status topic.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Reasons attached to an offline status.
const (
	reasonUnexpected = "unexpected_disconnect"
	reasonShutdown   = "graceful_shutdown"
)

// StatusMessage is the retained payload on the system status topic.
// The broker publishes the offline variant as the will when the
// connection drops without a disconnect.
type StatusMessage struct {
	Status    string    `json:"status"`
	ClientID  string    `json:"client_id"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
