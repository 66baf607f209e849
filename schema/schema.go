// Package schema defines the normalized entity and event payload types
// exposed on the puppet's protocol boundary. These are provider-neutral:
// bot logic programs against them without knowing the raw WhatsApp shapes.
package schema

// MessageType classifies a normalized message.
type MessageType string

const (
	MessageTypeText    MessageType = "text"
	MessageTypeURL     MessageType = "url"
	MessageTypeMedia   MessageType = "media"
	MessageTypeSystem  MessageType = "system"
	MessageTypeUnknown MessageType = "unknown"
)

// ScanStatus mirrors the QR scan lifecycle reported to bots.
type ScanStatus int

const (
	ScanStatusUnknown   ScanStatus = 0
	ScanStatusCancel    ScanStatus = 1
	ScanStatusWaiting   ScanStatus = 2
	ScanStatusScanned   ScanStatus = 3
	ScanStatusConfirmed ScanStatus = 4
	ScanStatusTimeout   ScanStatus = 5
)

// Contact is the normalized representation of a provider contact.
// Contacts are never destroyed, only marked stale on logout.
type Contact struct {
	ID     string
	Name   string
	Avatar string
	Self   bool
}

// Room is the normalized representation of a group chat.
type Room struct {
	ID        string
	Topic     string
	OwnerID   string
	MemberIDs []string
}

// RoomMember carries room-scoped display attributes for a contact.
// Derived from room membership, never independently persisted.
type RoomMember struct {
	RoomID    string
	ContactID string
	Nickname  string
	IsAdmin   bool
}

// Message is a normalized, immutable message. RoomID is empty for
// direct messages. The ID is unique per session and drives redelivery
// suppression in the bridge.
type Message struct {
	ID        string
	Type      MessageType
	Text      string
	FromID    string
	ToID      string
	RoomID    string
	Timestamp int64
}

// URLLink is the payload for link messages sent via MessageSendURL.
type URLLink struct {
	Title        string
	URL          string
	Description  string
	ThumbnailURL string
}
