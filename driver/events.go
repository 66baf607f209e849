package driver

import "encoding/json"

// Event is a raw driver event. Concrete types below are dispatched by
// type switch in the bridge's normalizer, in strict arrival order.
type Event any

// QRCodeEvent carries a fresh pairing code. A new code supersedes any
// previously issued one; stale codes are never retried.
type QRCodeEvent struct {
	Code string
}

// AuthenticatedEvent signals a successful login, silent or scanned.
type AuthenticatedEvent struct {
	SelfID string
	Name   string
}

// LoggedOutEvent signals the provider invalidated the session.
type LoggedOutEvent struct {
	Reason string
}

// MessageEvent carries a provider-shaped raw message payload.
type MessageEvent struct {
	Raw json.RawMessage
}

// DisconnectedEvent signals the transport dropped. While online this is
// treated as an implicit logout by the bridge.
type DisconnectedEvent struct {
	Err error
}

// ErrorEvent carries a driver-level error. Fatal means the session is
// dead and cannot recover without a fresh start.
type ErrorEvent struct {
	Err   error
	Fatal bool
}
