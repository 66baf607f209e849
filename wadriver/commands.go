package wadriver

import (
	"context"
	"encoding/json"
	"fmt"

	"go.mau.fi/whatsmeow/appstate"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"

	"github.com/bung87/puppet-whatsapp/driver"
	"github.com/bung87/puppet-whatsapp/schema"
)

// SendText sends a plain text message. Returns the server message ID.
func (a *Adapter) SendText(ctx context.Context, conversationID, text string) (string, error) {
	to, err := types.ParseJID(conversationID)
	if err != nil {
		return "", fmt.Errorf("parse JID: %w", err)
	}
	resp, err := a.client.SendMessage(ctx, to, &waE2E.Message{
		Conversation: proto.String(text),
	})
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}
	return resp.ID, nil
}

// SendURL sends a link preview message.
func (a *Adapter) SendURL(ctx context.Context, conversationID string, link schema.URLLink) (string, error) {
	to, err := types.ParseJID(conversationID)
	if err != nil {
		return "", fmt.Errorf("parse JID: %w", err)
	}
	resp, err := a.client.SendMessage(ctx, to, &waE2E.Message{
		ExtendedTextMessage: &waE2E.ExtendedTextMessage{
			Text:         proto.String(link.URL),
			Title:        proto.String(link.Title),
			Description:  proto.String(link.Description),
			MatchedText:  proto.String(link.URL),
			CanonicalURL: proto.String(link.URL),
		},
	})
	if err != nil {
		return "", fmt.Errorf("send url message: %w", err)
	}
	return resp.ID, nil
}

// ContactIDs lists all contacts from the device store.
func (a *Adapter) ContactIDs(ctx context.Context) ([]string, error) {
	allContacts, err := a.client.Store.Contacts.GetAllContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	var ids []string
	for jid := range allContacts {
		normalized := jid.ToNonAD()
		if normalized.Server == types.DefaultUserServer {
			ids = append(ids, normalized.String())
		}
	}
	return ids, nil
}

// RoomIDs lists all joined group chats.
func (a *Adapter) RoomIDs(ctx context.Context) ([]string, error) {
	groups, err := a.client.GetJoinedGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.JID.String())
	}
	return ids, nil
}

// RoomMemberIDs lists the participants of one group.
func (a *Adapter) RoomMemberIDs(ctx context.Context, roomID string) ([]string, error) {
	info, err := a.groupInfo(ctx, roomID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(info.Participants))
	for _, part := range info.Participants {
		ids = append(ids, part.JID.ToNonAD().String())
	}
	return ids, nil
}

// ContactRaw returns the provider-shaped contact payload.
func (a *Adapter) ContactRaw(ctx context.Context, contactID string) (json.RawMessage, error) {
	jid, err := types.ParseJID(contactID)
	if err != nil {
		return nil, fmt.Errorf("parse JID: %w", err)
	}
	info, err := a.client.Store.Contacts.GetContact(ctx, jid)
	if err != nil {
		return nil, fmt.Errorf("get contact %s: %w", contactID, err)
	}
	isMe := a.client.Store.ID != nil && a.client.Store.ID.ToNonAD() == jid.ToNonAD()
	return json.Marshal(driver.RawContact{
		ID:       jid.ToNonAD().String(),
		Name:     info.FullName,
		PushName: info.PushName,
		IsMe:     isMe,
	})
}

// RoomRaw returns the provider-shaped group payload.
func (a *Adapter) RoomRaw(ctx context.Context, roomID string) (json.RawMessage, error) {
	info, err := a.groupInfo(ctx, roomID)
	if err != nil {
		return nil, err
	}
	participants := make([]driver.RawRoomParticipant, 0, len(info.Participants))
	for _, part := range info.Participants {
		participants = append(participants, driver.RawRoomParticipant{
			ID:       part.JID.ToNonAD().String(),
			Nickname: part.DisplayName,
			IsAdmin:  part.IsAdmin || part.IsSuperAdmin,
		})
	}
	return json.Marshal(driver.RawRoom{
		ID:           info.JID.String(),
		Subject:      info.Name,
		Owner:        info.OwnerJID.ToNonAD().String(),
		Participants: participants,
	})
}

func (a *Adapter) groupInfo(ctx context.Context, roomID string) (*types.GroupInfo, error) {
	jid, err := types.ParseJID(roomID)
	if err != nil {
		return nil, fmt.Errorf("parse JID: %w", err)
	}
	info, err := a.client.GetGroupInfo(ctx, jid)
	if err != nil {
		return nil, fmt.Errorf("get group %s: %w", roomID, err)
	}
	return info, nil
}

// SetNickname sets the account's push name via app state.
func (a *Adapter) SetNickname(ctx context.Context, name string) error {
	if err := a.client.SendAppState(ctx, appstate.BuildSettingPushName(name)); err != nil {
		return fmt.Errorf("set push name: %w", err)
	}
	return nil
}

// SetStatusMessage sets the account's "about" text.
func (a *Adapter) SetStatusMessage(ctx context.Context, text string) error {
	if err := a.client.SetStatusMessage(ctx, text); err != nil {
		return fmt.Errorf("set status message: %w", err)
	}
	return nil
}
