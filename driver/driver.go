// Package driver defines the boundary to the underlying automated
// WhatsApp session. The bridge consumes this interface only; it never
// sees provider wire details beyond the raw payload shapes below.
package driver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bung87/puppet-whatsapp/schema"
)

// ErrNotSupported is returned by drivers for capabilities the provider
// does not offer, so callers can tell "no data" from "cannot do this here".
var ErrNotSupported = errors.New("not supported by this provider")

// Driver is the opaque session transport. Start begins the session and
// raw events flow on Events until Stop. Command methods may be called
// concurrently; each is bounded by its context.
type Driver interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error

	// Events returns the raw event stream. The channel is closed when
	// the driver stops for good.
	Events() <-chan Event

	SendText(ctx context.Context, conversationID, text string) (messageID string, err error)
	SendURL(ctx context.Context, conversationID string, link schema.URLLink) (messageID string, err error)

	ContactIDs(ctx context.Context) ([]string, error)
	RoomIDs(ctx context.Context) ([]string, error)
	RoomMemberIDs(ctx context.Context, roomID string) ([]string, error)

	ContactRaw(ctx context.Context, contactID string) (json.RawMessage, error)
	RoomRaw(ctx context.Context, roomID string) (json.RawMessage, error)

	SetNickname(ctx context.Context, name string) error
	SetStatusMessage(ctx context.Context, text string) error

	// ExportSession serializes the authentication material for the
	// memory card. RestoreSession attempts a silent re-login from a
	// previously exported blob.
	ExportSession(ctx context.Context) ([]byte, error)
	RestoreSession(ctx context.Context, blob []byte) error
}
