package puppetwhatsapp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bung87/puppet-whatsapp/driver"
	"github.com/bung87/puppet-whatsapp/internal/state"
	"github.com/bung87/puppet-whatsapp/schema"
)

// sessionContext returns the current session context iff the session is
// online. The read lock gives commands a snapshot consistent with any
// in-flight logout transition, which takes the write lock.
func (p *Puppet) sessionContext() (context.Context, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.machine.Current() != state.Online || p.sessionCtx == nil {
		return nil, ErrNotReady
	}
	return p.sessionCtx, nil
}

// command runs one driver-bound operation: online check, bounded wait
// for acknowledgment, prompt failure with ErrStopped if the session is
// torn down mid-flight.
func command[T any](p *Puppet, ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	sessCtx, err := p.sessionContext()
	if err != nil {
		return zero, err
	}

	cmdCtx, cancel := context.WithTimeout(ctx, p.cmdTimeout)
	defer cancel()
	detach := context.AfterFunc(sessCtx, cancel)
	defer detach()

	v, err := fn(cmdCtx)
	if err != nil {
		if sessCtx.Err() != nil {
			return zero, ErrStopped
		}
		return zero, err
	}
	return v, nil
}

// MessageSendText sends a text message to a contact or room and returns
// the new message identifier.
func (p *Puppet) MessageSendText(ctx context.Context, conversationID, text string) (string, error) {
	return command(p, ctx, func(ctx context.Context) (string, error) {
		msgID, err := p.drv.SendText(ctx, conversationID, text)
		if err != nil {
			return "", fmt.Errorf("send text: %w", err)
		}
		p.cacheSent(msgID, conversationID, text, schema.MessageTypeText)
		p.logger.Info("message sent", zap.String("to", conversationID), zap.String("id", msgID))
		return msgID, nil
	})
}

// MessageSendURL sends a link message and returns the new message
// identifier.
func (p *Puppet) MessageSendURL(ctx context.Context, conversationID string, link schema.URLLink) (string, error) {
	return command(p, ctx, func(ctx context.Context) (string, error) {
		msgID, err := p.drv.SendURL(ctx, conversationID, link)
		if err != nil {
			return "", fmt.Errorf("send url: %w", err)
		}
		p.cacheSent(msgID, conversationID, link.URL, schema.MessageTypeURL)
		return msgID, nil
	})
}

// cacheSent records an outbound message so MessagePayload resolves our
// own sends. Some providers acknowledge without an identifier; those
// get a locally generated one.
func (p *Puppet) cacheSent(msgID, conversationID, text string, typ schema.MessageType) {
	if msgID == "" {
		msgID = uuid.NewString()
	}
	self, _ := p.SelfID()
	msg := &schema.Message{
		ID:     msgID,
		Type:   typ,
		Text:   text,
		FromID: self,
	}
	if isRoomID(conversationID) {
		msg.RoomID = conversationID
	} else {
		msg.ToID = conversationID
	}
	p.messages.Upsert(msgID, msg)
}

// MessagePayload returns the normalized message for an identifier seen
// this session.
func (p *Puppet) MessagePayload(ctx context.Context, messageID string) (*schema.Message, error) {
	return command(p, ctx, func(ctx context.Context) (*schema.Message, error) {
		return p.messages.GetOrFetch(ctx, messageID)
	})
}

// ContactPayload returns the normalized contact, fetching and caching
// it if unseen.
func (p *Puppet) ContactPayload(ctx context.Context, contactID string) (*schema.Contact, error) {
	return command(p, ctx, func(ctx context.Context) (*schema.Contact, error) {
		return p.contacts.GetOrFetch(ctx, contactID)
	})
}

// RoomPayload returns the normalized room, fetching and caching it if
// unseen.
func (p *Puppet) RoomPayload(ctx context.Context, roomID string) (*schema.Room, error) {
	return command(p, ctx, func(ctx context.Context) (*schema.Room, error) {
		return p.rooms.GetOrFetch(ctx, roomID)
	})
}

// RoomMemberPayload returns room-scoped attributes for one member,
// recomputed from the room's current raw membership.
func (p *Puppet) RoomMemberPayload(ctx context.Context, roomID, contactID string) (*schema.RoomMember, error) {
	return command(p, ctx, func(ctx context.Context) (*schema.RoomMember, error) {
		raw, err := p.drv.RoomRaw(ctx, roomID)
		if err != nil {
			return nil, fmt.Errorf("fetch room %s: %w", roomID, err)
		}
		room, err := parseRoom(raw)
		if err != nil {
			return nil, err
		}
		p.rooms.Upsert(room.ID, room)
		return roomMemberFromRaw(raw, roomID, contactID)
	})
}

// ContactRawPayload returns the provider-shaped contact payload.
func (p *Puppet) ContactRawPayload(ctx context.Context, contactID string) (json.RawMessage, error) {
	return command(p, ctx, func(ctx context.Context) (json.RawMessage, error) {
		return p.drv.ContactRaw(ctx, contactID)
	})
}

// RoomRawPayload returns the provider-shaped room payload.
func (p *Puppet) RoomRawPayload(ctx context.Context, roomID string) (json.RawMessage, error) {
	return command(p, ctx, func(ctx context.Context) (json.RawMessage, error) {
		return p.drv.RoomRaw(ctx, roomID)
	})
}

// ContactList returns all known contact identifiers. The provider is
// authoritative; the call always goes to the driver.
func (p *Puppet) ContactList(ctx context.Context) ([]string, error) {
	return command(p, ctx, func(ctx context.Context) ([]string, error) {
		return p.drv.ContactIDs(ctx)
	})
}

// RoomList returns all known room identifiers.
func (p *Puppet) RoomList(ctx context.Context) ([]string, error) {
	return command(p, ctx, func(ctx context.Context) ([]string, error) {
		return p.drv.RoomIDs(ctx)
	})
}

// RoomMemberList returns the member identifiers of a room and refreshes
// the cached room's membership as a side effect.
func (p *Puppet) RoomMemberList(ctx context.Context, roomID string) ([]string, error) {
	return command(p, ctx, func(ctx context.Context) ([]string, error) {
		ids, err := p.drv.RoomMemberIDs(ctx, roomID)
		if err != nil {
			return nil, err
		}
		if room, ok := p.rooms.Get(roomID); ok {
			refreshed := *room
			refreshed.MemberIDs = ids
			p.rooms.Upsert(roomID, &refreshed)
		}
		return ids, nil
	})
}

// ContactSelfName sets the account's display name and updates the
// cached self contact.
func (p *Puppet) ContactSelfName(ctx context.Context, name string) error {
	_, err := command(p, ctx, func(ctx context.Context) (struct{}, error) {
		if err := p.drv.SetNickname(ctx, name); err != nil {
			return struct{}{}, fmt.Errorf("set nickname: %w", err)
		}
		if self, ok := p.SelfID(); ok {
			contact := &schema.Contact{ID: self, Name: name, Self: true}
			if cached, ok := p.contacts.Get(self); ok {
				updated := *cached
				updated.Name = name
				contact = &updated
			}
			p.contacts.Upsert(self, contact)
		}
		return struct{}{}, nil
	})
	return err
}

// ContactSelfSignature sets the account's status message.
func (p *Puppet) ContactSelfSignature(ctx context.Context, signature string) error {
	_, err := command(p, ctx, func(ctx context.Context) (struct{}, error) {
		if err := p.drv.SetStatusMessage(ctx, signature); err != nil {
			return struct{}{}, fmt.Errorf("set status message: %w", err)
		}
		return struct{}{}, nil
	})
	return err
}

// ContactSelfQRCode would return a rotating profile QR code; WhatsApp
// offers none, so the call fails explicitly rather than returning empty
// data.
func (p *Puppet) ContactSelfQRCode(ctx context.Context) (string, error) {
	return "", fmt.Errorf("contact self QR code: %w", ErrNotSupported)
}

// roomMemberFromRaw extracts one participant's room-scoped attributes.
func roomMemberFromRaw(raw json.RawMessage, roomID, contactID string) (*schema.RoomMember, error) {
	var rr driver.RawRoom
	if err := json.Unmarshal(raw, &rr); err != nil {
		return nil, fmt.Errorf("parse raw room: %w", err)
	}
	for _, part := range rr.Participants {
		if part.ID == contactID {
			return &schema.RoomMember{
				RoomID:    roomID,
				ContactID: contactID,
				Nickname:  part.Nickname,
				IsAdmin:   part.IsAdmin,
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: contact %s in room %s", ErrUnknownEntity, contactID, roomID)
}
