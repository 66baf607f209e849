package bus

import "time"

// Event is a bridge event published on the bus. Kind is dot-namespaced
// ("puppet.message", "session.state_changed").
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
