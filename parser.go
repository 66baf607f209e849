package puppetwhatsapp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bung87/puppet-whatsapp/driver"
	"github.com/bung87/puppet-whatsapp/schema"
)

// Raw payload parsers: provider-shaped JSON in, normalized entity out.
// A payload that does not match the expected shape fails that single
// parse; nothing already cached is touched.

// ContactRawPayloadParser parses a raw contact payload.
func (p *Puppet) ContactRawPayloadParser(raw json.RawMessage) (*schema.Contact, error) {
	return parseContact(raw)
}

// RoomRawPayloadParser parses a raw room payload.
func (p *Puppet) RoomRawPayloadParser(raw json.RawMessage) (*schema.Room, error) {
	return parseRoom(raw)
}

// MessageRawPayloadParser parses a raw message payload.
func (p *Puppet) MessageRawPayloadParser(raw json.RawMessage) (*schema.Message, error) {
	return parseMessage(raw)
}

func parseContact(raw json.RawMessage) (*schema.Contact, error) {
	var rc driver.RawContact
	if err := json.Unmarshal(raw, &rc); err != nil {
		return nil, fmt.Errorf("parse raw contact: %w", err)
	}
	if rc.ID == "" {
		return nil, fmt.Errorf("parse raw contact: missing id")
	}
	name := rc.Name
	if name == "" {
		name = rc.PushName
	}
	return &schema.Contact{
		ID:     rc.ID,
		Name:   name,
		Avatar: rc.Avatar,
		Self:   rc.IsMe,
	}, nil
}

func parseRoom(raw json.RawMessage) (*schema.Room, error) {
	var rr driver.RawRoom
	if err := json.Unmarshal(raw, &rr); err != nil {
		return nil, fmt.Errorf("parse raw room: %w", err)
	}
	if rr.ID == "" {
		return nil, fmt.Errorf("parse raw room: missing id")
	}
	memberIDs := make([]string, 0, len(rr.Participants))
	for _, part := range rr.Participants {
		if part.ID != "" {
			memberIDs = append(memberIDs, part.ID)
		}
	}
	return &schema.Room{
		ID:        rr.ID,
		Topic:     rr.Subject,
		OwnerID:   rr.Owner,
		MemberIDs: memberIDs,
	}, nil
}

func parseMessage(raw json.RawMessage) (*schema.Message, error) {
	var rm driver.RawMessage
	if err := json.Unmarshal(raw, &rm); err != nil {
		return nil, fmt.Errorf("parse raw message: %w", err)
	}
	if rm.ID == "" {
		return nil, fmt.Errorf("parse raw message: missing id")
	}
	return &schema.Message{
		ID:        rm.ID,
		Type:      detectMessageType(rm.Type),
		Text:      rm.Body,
		FromID:    rm.From,
		ToID:      rm.To,
		RoomID:    rm.Room,
		Timestamp: rm.Timestamp,
	}, nil
}

func detectMessageType(raw string) schema.MessageType {
	switch raw {
	case "chat", "text", "":
		return schema.MessageTypeText
	case "url", "link":
		return schema.MessageTypeURL
	case "image", "video", "audio", "ptt", "document", "sticker":
		return schema.MessageTypeMedia
	case "system", "notification", "e2e_notification", "gp2":
		return schema.MessageTypeSystem
	default:
		return schema.MessageTypeUnknown
	}
}

// isRoomID reports whether a conversation identifier addresses a group
// chat, by provider ID convention.
func isRoomID(conversationID string) bool {
	return strings.HasSuffix(conversationID, "@g.us")
}
