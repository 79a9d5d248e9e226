// Package connection tracks whether the telemetry source is reachable, driven
// purely by fetch outcomes.
package connection

import (
	"time"
)

// Status is the reachability of the telemetry source.
type Status string

const (
	// StatusUnknown is only observable before the first fetch resolves.
	StatusUnknown      Status = "unknown"
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
)

// State is a copy of the machine's state.
type State struct {
	Status              Status    `json:"status"`
	ConsecutiveFailures int       `json:"consecutiveFailures"`
	LastSuccessAt       time.Time `json:"lastSuccessAt,omitzero"`
	LastFailureAt       time.Time `json:"lastFailureAt,omitzero"`
	LastError           string    `json:"lastError,omitempty"`
}

// Machine is the connection status state machine. It is not safe for
// concurrent use; it lives on the kiosk loop.
type Machine struct {
	state State
}

// NewMachine returns a machine in StatusUnknown.
func NewMachine() *Machine {
	return &Machine{state: State{Status: StatusUnknown}}
}

// OnSuccess records a successful fetch at the given time.
func (m *Machine) OnSuccess(at time.Time) State {
	m.state.Status = StatusConnected
	m.state.ConsecutiveFailures = 0
	m.state.LastSuccessAt = at
	m.state.LastError = ""
	return m.state
}

// OnFailure records a failed fetch. The failure streak is unbounded.
func (m *Machine) OnFailure(at time.Time, err error) State {
	m.state.Status = StatusDisconnected
	m.state.ConsecutiveFailures++
	m.state.LastFailureAt = at
	if err != nil {
		m.state.LastError = err.Error()
	}
	return m.state
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}
