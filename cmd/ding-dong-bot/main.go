// Command ding-dong-bot is a minimal example bot. It logs in via QR
// code, prints every incoming message, and answers "ding" with "dong".
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/fx"
	"go.uber.org/zap"

	puppetwhatsapp "github.com/bung87/puppet-whatsapp"
	"github.com/bung87/puppet-whatsapp/internal/app"
	"github.com/bung87/puppet-whatsapp/schema"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	flag.Parse()

	fxApp := fx.New(
		app.Module(app.Params{SessionName: *sessionFlag}),
		fx.Invoke(registerBot),
	)

	fxApp.Run()
}

func registerBot(pup *puppetwhatsapp.Puppet, logger *zap.Logger) {
	pup.OnScan(onScan)
	pup.OnLogin(func(evt schema.EventLogin) { onLogin(pup, evt) })
	pup.OnLogout(onLogout)
	pup.OnError(onError)
	pup.OnMessage(func(m *schema.Message) { onMessage(pup, logger, m) })

	fmt.Printf("\nPuppet Version: %s\n\nPlease wait... I'm trying to login in...\n\n", pup.Version())
}

func onScan(evt schema.EventScan) {
	if evt.QRCode == "" {
		fmt.Printf("[%d]\n", evt.Status)
		return
	}
	qr, err := qrcode.New(evt.QRCode, qrcode.Low)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render qr code: %v\n", err)
		return
	}
	fmt.Println(qr.ToSmallString(false))
	fmt.Printf("[%d] https://wechaty.js.org/qrcode/%s\nScan QR Code above to log in:\n", evt.Status, evt.QRCode)
}

func onLogin(pup *puppetwhatsapp.Puppet, evt schema.EventLogin) {
	fmt.Printf("%s login\n", evt.ContactID)

	ctx := context.Background()
	contacts, err := pup.ContactList(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "contact list: %v\n", err)
		return
	}
	rooms, err := pup.RoomList(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "room list: %v\n", err)
		return
	}
	fmt.Printf("ready contactList length: %d roomList length: %d\n", len(contacts), len(rooms))
}

func onLogout(evt schema.EventLogout) {
	fmt.Printf("%s logouted: %s\n", evt.ContactID, evt.Reason)
}

func onError(evt schema.EventError) {
	fmt.Fprintf(os.Stderr, "Bot error: %s\n", evt.Data)
}

func onMessage(pup *puppetwhatsapp.Puppet, logger *zap.Logger, m *schema.Message) {
	fmt.Printf(`
  =========================================
  Message type: %s
  text: %s
  from: %s
  to: %s
  room: %s
  =========================================
`, m.Type, m.Text, m.FromID, m.ToID, m.RoomID)

	ctx := context.Background()
	conversation := m.RoomID
	if conversation == "" {
		conversation = m.FromID
	}

	switch {
	case m.Text == "link":
		if _, err := pup.MessageSendURL(ctx, m.FromID, schema.URLLink{
			Title: "www.baidu.com",
			URL:   "www.baidu.com",
		}); err != nil {
			logger.Warn("send url", zap.Error(err))
		}

	case m.Text == "all rooms":
		listRooms(ctx, pup, logger)

	case m.Text == "all contacts":
		listContacts(ctx, pup, logger)

	case strings.Contains(strings.ToLower(m.Text), "ding"):
		msgID, err := pup.MessageSendText(ctx, conversation, "dong")
		if err != nil {
			logger.Warn("send dong", zap.Error(err))
			return
		}
		fmt.Printf("messageId: %s\n", msgID)
	}
}

func listRooms(ctx context.Context, pup *puppetwhatsapp.Puppet, logger *zap.Logger) {
	roomIDs, err := pup.RoomList(ctx)
	if err != nil {
		logger.Warn("room list", zap.Error(err))
		return
	}
	for _, roomID := range roomIDs {
		raw, err := pup.RoomRawPayload(ctx, roomID)
		if err != nil {
			logger.Warn("room raw payload", zap.String("room", roomID), zap.Error(err))
			continue
		}
		room, err := pup.RoomRawPayloadParser(raw)
		if err != nil {
			logger.Warn("parse room payload", zap.String("room", roomID), zap.Error(err))
			continue
		}
		members, err := pup.RoomMemberList(ctx, roomID)
		if err != nil {
			logger.Warn("room member list", zap.String("room", roomID), zap.Error(err))
			continue
		}
		fmt.Printf("room %s topic %q members %d\n", room.ID, room.Topic, len(members))
	}
}

func listContacts(ctx context.Context, pup *puppetwhatsapp.Puppet, logger *zap.Logger) {
	contactIDs, err := pup.ContactList(ctx)
	if err != nil {
		logger.Warn("contact list", zap.Error(err))
		return
	}
	for _, contactID := range contactIDs {
		raw, err := pup.ContactRawPayload(ctx, contactID)
		if err != nil {
			logger.Warn("contact raw payload", zap.String("contact", contactID), zap.Error(err))
			continue
		}
		contact, err := pup.ContactRawPayloadParser(raw)
		if err != nil {
			logger.Warn("parse contact payload", zap.String("contact", contactID), zap.Error(err))
			continue
		}
		fmt.Printf("contact %s name %q\n", contact.ID, contact.Name)
	}
}
