package wadriver

import (
	"encoding/json"
	"errors"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"

	"github.com/bung87/puppet-whatsapp/driver"
)

var errStreamReplaced = errors.New("stream replaced by another client")

// translate is the whatsmeow event handler. Each event becomes zero or
// one raw driver events, in arrival order.
func (a *Adapter) translate(rawEvt any) {
	switch evt := rawEvt.(type) {
	case *events.Connected:
		self := ""
		if a.client.Store.ID != nil {
			self = a.client.Store.ID.ToNonAD().String()
		}
		a.logger.Info("connected", zap.String("self", self))
		a.push(driver.AuthenticatedEvent{
			SelfID: self,
			Name:   a.client.Store.PushName,
		})
	case *events.LoggedOut:
		a.logger.Warn("logged out", zap.String("reason", evt.Reason.String()))
		a.push(driver.LoggedOutEvent{Reason: evt.Reason.String()})
	case *events.Disconnected:
		a.logger.Warn("disconnected")
		a.push(driver.DisconnectedEvent{})
	case *events.StreamReplaced:
		a.push(driver.ErrorEvent{Err: errStreamReplaced, Fatal: true})
	case *events.Message:
		raw, err := json.Marshal(a.rawMessage(evt))
		if err != nil {
			a.logger.Warn("encode raw message", zap.Error(err))
			return
		}
		a.push(driver.MessageEvent{Raw: raw})
	}
}

// rawMessage builds the provider-shaped payload for a live message.
func (a *Adapter) rawMessage(evt *events.Message) driver.RawMessage {
	rm := driver.RawMessage{
		ID:        evt.Info.ID,
		Type:      detectMessageType(evt.Message),
		Body:      extractTextBody(evt.Message),
		From:      evt.Info.Sender.ToNonAD().String(),
		Timestamp: evt.Info.Timestamp.UnixMilli(),
	}
	if evt.Info.Chat.Server == types.GroupServer {
		rm.Room = evt.Info.Chat.String()
	} else if a.client.Store.ID != nil {
		if evt.Info.IsFromMe {
			rm.To = evt.Info.Chat.ToNonAD().String()
		} else {
			rm.To = a.client.Store.ID.ToNonAD().String()
		}
	}
	return rm
}

func extractTextBody(msg *waE2E.Message) string {
	if msg == nil {
		return ""
	}
	if c := msg.GetConversation(); c != "" {
		return c
	}
	if ext := msg.GetExtendedTextMessage(); ext != nil {
		return ext.GetText()
	}
	return ""
}

func detectMessageType(msg *waE2E.Message) string {
	if msg == nil {
		return "unknown"
	}
	switch {
	case msg.GetExtendedTextMessage().GetCanonicalURL() != "":
		return "url"
	case msg.GetConversation() != "" || msg.GetExtendedTextMessage() != nil:
		return "chat"
	case msg.GetImageMessage() != nil:
		return "image"
	case msg.GetVideoMessage() != nil:
		return "video"
	case msg.GetAudioMessage() != nil:
		return "audio"
	case msg.GetDocumentMessage() != nil:
		return "document"
	case msg.GetStickerMessage() != nil:
		return "sticker"
	case msg.GetProtocolMessage() != nil:
		return "system"
	default:
		return "unknown"
	}
}
