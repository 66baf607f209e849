package driver

// Raw payload shapes as the provider emits them. The bridge's parsers
// turn these into schema entities; nothing else in the module should
// touch them.

// RawContact is the provider-shaped contact payload.
type RawContact struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	PushName string `json:"pushname"`
	Avatar   string `json:"avatar"`
	IsMe     bool   `json:"isMe"`
}

// RawRoomParticipant is one entry of a room's participant list.
type RawRoomParticipant struct {
	ID       string `json:"id"`
	Nickname string `json:"nickname"`
	IsAdmin  bool   `json:"isAdmin"`
}

// RawRoom is the provider-shaped group chat payload.
type RawRoom struct {
	ID           string               `json:"id"`
	Subject      string               `json:"subject"`
	Owner        string               `json:"owner"`
	Participants []RawRoomParticipant `json:"participants"`
}

// RawMessage is the provider-shaped message payload. Room is empty for
// direct messages.
type RawMessage struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Body      string `json:"body"`
	From      string `json:"from"`
	To        string `json:"to"`
	Room      string `json:"room"`
	Timestamp int64  `json:"timestamp"`
}
