package device

import "sync"

// OutletState is a point-in-time copy of an outlet.
type OutletState struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	IsOn        bool    `json:"is_on"`
	Power       float64 `json:"power"`
}

// StateText returns "on" or "off".
func (s OutletState) StateText() string {
	if s.IsOn {
		return "on"
	}
	return "off"
}

// Info renders the outlet info text.
func (s OutletState) Info() string {
	return infoText(s.Name, s.Description,
		"Current state: "+s.StateText()+", "+formatNumber(s.Power)+" Volts")
}

// Outlet is a switchable power outlet.
//
// All state is guarded by a single mutex. Every method takes the lock once
// and never holds it across I/O.
type Outlet struct {
	mu          sync.Mutex
	name        string
	description string
	isOn        bool
	power       float64
}

// NewOutlet creates an outlet with the given initial state.
func NewOutlet(name, description string, isOn bool, power float64) *Outlet {
	return &Outlet{
		name:        name,
		description: description,
		isOn:        isOn,
		power:       power,
	}
}

// Name returns the outlet name.
func (o *Outlet) Name() string { return o.name }

// Description returns the outlet description.
func (o *Outlet) Description() string { return o.description }

// Kind returns KindSocket.
func (o *Outlet) Kind() Kind { return KindSocket }

// TurnOn switches the outlet on and returns the resulting state.
func (o *Outlet) TurnOn() OutletState {
	return o.set(true)
}

// TurnOff switches the outlet off and returns the resulting state.
func (o *Outlet) TurnOff() OutletState {
	return o.set(false)
}

func (o *Outlet) set(on bool) OutletState {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.isOn = on
	return o.snapshotLocked()
}

// IsOn reports whether the outlet is switched on.
func (o *Outlet) IsOn() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.isOn
}

// Power returns the current power reading in volts.
func (o *Outlet) Power() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.power
}

// Snapshot returns a copy of the current state.
func (o *Outlet) Snapshot() OutletState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// Info returns the current info text without changing state.
func (o *Outlet) Info() string {
	return o.Snapshot().Info()
}

func (o *Outlet) snapshotLocked() OutletState {
	return OutletState{
		Name:        o.name,
		Description: o.description,
		IsOn:        o.isOn,
		Power:       o.power,
	}
}
