// Package wadriver implements the driver boundary on top of whatsmeow.
// It owns the whatsmeow client and its sqlite-backed device store, and
// translates whatsmeow events into the bridge's raw event stream.
package wadriver

import (
	"bytes"
	"context"
	"fmt"

	"go.mau.fi/whatsmeow"
	wastore "go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.uber.org/zap"

	"github.com/bung87/puppet-whatsapp/driver"

	_ "github.com/mattn/go-sqlite3"
)

const eventBuffer = 128

var _ driver.Driver = (*Adapter)(nil)

// Adapter drives a whatsmeow session and implements driver.Driver.
type Adapter struct {
	client    *whatsmeow.Client
	container *sqlstore.Container
	logger    *zap.Logger
	events    chan driver.Event
}

// New creates an adapter whose device store lives at dbPath.
func New(ctx context.Context, dbPath string, logger *zap.Logger) (*Adapter, error) {
	// Device name shown on the phone's linked devices list.
	wastore.SetOSInfo("puppet-whatsapp", [3]uint32{0, 5, 0})

	container, err := sqlstore.New(ctx, "sqlite3",
		fmt.Sprintf("file:%s?_foreign_keys=on", dbPath),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create device store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get device store: %w", err)
	}

	a := &Adapter{
		client:    whatsmeow.NewClient(deviceStore, nil),
		container: container,
		logger:    logger,
		events:    make(chan driver.Event, eventBuffer),
	}
	a.client.AddEventHandler(a.translate)
	return a, nil
}

// SetProxy routes websocket and media traffic through the given proxy
// address. Must be called before Start.
func (a *Adapter) SetProxy(addr string) error {
	return a.client.SetProxyAddress(addr)
}

// Events returns the raw event stream.
func (a *Adapter) Events() <-chan driver.Event {
	return a.events
}

// Start connects the whatsmeow client. Without stored credentials the
// QR pairing flow begins and codes are forwarded as raw events.
func (a *Adapter) Start(ctx context.Context) error {
	if a.loggedIn() {
		a.logger.Info("connecting with stored credentials")
		return a.client.Connect()
	}

	// GetQRChannel must be called before Connect.
	qrChan, err := a.client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("get QR channel: %w", err)
	}
	if err := a.client.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	go a.forwardQR(qrChan)
	return nil
}

// Stop disconnects the client. The event channel stays open so the
// adapter can be restarted.
func (a *Adapter) Stop(_ context.Context) error {
	a.logger.Info("disconnecting")
	a.client.Disconnect()
	return nil
}

func (a *Adapter) loggedIn() bool {
	return a.client.Store.ID != nil
}

func (a *Adapter) forwardQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for item := range qrChan {
		switch item.Event {
		case "code":
			a.push(driver.QRCodeEvent{Code: item.Code})
		case "success":
			// The Connected event carries the authentication.
			return
		case "timeout":
			a.push(driver.ErrorEvent{Err: fmt.Errorf("QR code timeout"), Fatal: false})
			return
		default:
			if item.Error != nil {
				a.push(driver.ErrorEvent{Err: item.Error, Fatal: true})
				return
			}
		}
	}
}

// push hands an event to the bridge without ever blocking whatsmeow's
// dispatch goroutine. The bridge's buffer is generous; overflow is
// logged and dropped.
func (a *Adapter) push(evt driver.Event) {
	select {
	case a.events <- evt:
	default:
		a.logger.Warn("event buffer full, dropping", zap.Any("event", evt))
	}
}

// ExportSession returns a marker for the paired device. The credential
// material itself lives in the sqlite device store; the blob lets the
// bridge detect whether a prior pairing is usable.
func (a *Adapter) ExportSession(_ context.Context) ([]byte, error) {
	if a.client.Store.ID == nil {
		return nil, fmt.Errorf("no paired device to export")
	}
	return []byte(a.client.Store.ID.String()), nil
}

// RestoreSession checks the blob against the stored device. A match
// means Connect will re-authenticate silently.
func (a *Adapter) RestoreSession(_ context.Context, blob []byte) error {
	if a.client.Store.ID == nil {
		return fmt.Errorf("no stored device matches session blob")
	}
	if !bytes.Equal(blob, []byte(a.client.Store.ID.String())) {
		return fmt.Errorf("session blob is for device %s, store has %s",
			blob, a.client.Store.ID)
	}
	return nil
}
