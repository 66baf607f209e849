package schema

// EventScan is emitted while the session awaits a QR scan. Each new code
// supersedes the previous one.
type EventScan struct {
	QRCode string
	Status ScanStatus
}

// EventLogin is emitted once the session reaches the online state.
type EventLogin struct {
	ContactID string
}

// EventLogout is emitted when the provider invalidates the session.
type EventLogout struct {
	ContactID string
	Reason    string
}

// ErrorClassification separates recoverable from fatal error events.
type ErrorClassification string

const (
	ErrorTransient ErrorClassification = "transient"
	ErrorTerminal  ErrorClassification = "terminal"
)

// EventError wraps a normalization-path or driver error for listeners.
type EventError struct {
	Classification ErrorClassification
	Data           string
}
