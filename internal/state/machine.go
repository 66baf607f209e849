// Package state tracks the session lifecycle of a single puppet
// instance. Transitions are monotonic within one login cycle:
// disconnected -> awaiting-scan -> authenticating -> online ->
// logged-out/disconnected, after which a fresh cycle may begin.
package state

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/bung87/puppet-whatsapp/internal/bus"
)

// State is a session lifecycle state.
type State string

const (
	Disconnected   State = "DISCONNECTED"
	AwaitingScan   State = "AWAITING_SCAN"
	Authenticating State = "AUTHENTICATING"
	Online         State = "ONLINE"
	LoggedOut      State = "LOGGED_OUT"
)

// validTransitions defines the allowed edges of one login cycle.
// Disconnected is additionally reachable from anywhere via Reset.
var validTransitions = map[State][]State{
	Disconnected:   {AwaitingScan, Authenticating},
	AwaitingScan:   {Authenticating, Online, Disconnected},
	Authenticating: {Online, AwaitingScan, Disconnected},
	Online:         {LoggedOut, Disconnected},
	LoggedOut:      {Disconnected},
}

// Machine enforces session state transitions and publishes each change
// on the bus as "session.state_changed".
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a machine starting in Disconnected.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{current: Disconnected, bus: b}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition moves to a new state, failing if the edge is not allowed.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	m.set(to)
	return nil
}

// Reset forces Disconnected from any state. Used by stop(); idempotent.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == Disconnected {
		return
	}
	m.set(Disconnected)
}

// set assumes m.mu is held for writing.
func (m *Machine) set(to State) {
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:      "session.state_changed",
			Timestamp: time.Now(),
			Payload:   Change{From: from, To: to},
		})
	}
}

// Change is the payload for state change events.
type Change struct {
	From State
	To   State
}
