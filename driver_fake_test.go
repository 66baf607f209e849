package puppetwhatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bung87/puppet-whatsapp/driver"
	"github.com/bung87/puppet-whatsapp/schema"
)

var _ driver.Driver = (*fakeDriver)(nil)

// fakeDriver is a scripted driver for tests. Tests push raw events into
// the stream and inspect which commands the bridge issued.
type fakeDriver struct {
	mu sync.Mutex

	events chan driver.Event

	contacts map[string]json.RawMessage
	rooms    map[string]json.RawMessage

	nextMsgID string
	sendErr   error
	// When set, SendText blocks until the command context is done.
	blockSend bool

	startCalls     int
	stopCalls      int
	sendCalls      int
	contactFetches map[string]int
	roomFetches    map[string]int
	nicknames      []string
	statuses       []string
	restored       [][]byte
	exported       []byte
	restoreErr     error
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		events:         make(chan driver.Event, 32),
		contacts:       make(map[string]json.RawMessage),
		rooms:          make(map[string]json.RawMessage),
		contactFetches: make(map[string]int),
		roomFetches:    make(map[string]int),
		nextMsgID:      "sent-1",
		exported:       []byte(`{"device":"self@c.us"}`),
	}
}

func (d *fakeDriver) emit(evt driver.Event) { d.events <- evt }

func (d *fakeDriver) setContact(id string, raw string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contacts[id] = json.RawMessage(raw)
}

func (d *fakeDriver) setRoom(id string, raw string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rooms[id] = json.RawMessage(raw)
}

func (d *fakeDriver) Start(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.startCalls++
	return nil
}

func (d *fakeDriver) Stop(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopCalls++
	return nil
}

func (d *fakeDriver) Events() <-chan driver.Event { return d.events }

func (d *fakeDriver) SendText(ctx context.Context, conversationID, text string) (string, error) {
	d.mu.Lock()
	d.sendCalls++
	block := d.blockSend
	msgID, err := d.nextMsgID, d.sendErr
	d.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return msgID, nil
}

func (d *fakeDriver) SendURL(ctx context.Context, conversationID string, link schema.URLLink) (string, error) {
	return d.SendText(ctx, conversationID, link.URL)
}

func (d *fakeDriver) ContactIDs(_ context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.contacts))
	for id := range d.contacts {
		ids = append(ids, id)
	}
	return ids, nil
}

func (d *fakeDriver) RoomIDs(_ context.Context) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.rooms))
	for id := range d.rooms {
		ids = append(ids, id)
	}
	return ids, nil
}

func (d *fakeDriver) RoomMemberIDs(ctx context.Context, roomID string) ([]string, error) {
	raw, err := d.RoomRaw(ctx, roomID)
	if err != nil {
		return nil, err
	}
	var rr driver.RawRoom
	if err := json.Unmarshal(raw, &rr); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rr.Participants))
	for _, part := range rr.Participants {
		ids = append(ids, part.ID)
	}
	return ids, nil
}

func (d *fakeDriver) ContactRaw(_ context.Context, contactID string) (json.RawMessage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contactFetches[contactID]++
	raw, ok := d.contacts[contactID]
	if !ok {
		return nil, fmt.Errorf("no such contact %s", contactID)
	}
	return raw, nil
}

func (d *fakeDriver) RoomRaw(_ context.Context, roomID string) (json.RawMessage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.roomFetches[roomID]++
	raw, ok := d.rooms[roomID]
	if !ok {
		return nil, fmt.Errorf("no such room %s", roomID)
	}
	return raw, nil
}

func (d *fakeDriver) SetNickname(_ context.Context, name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nicknames = append(d.nicknames, name)
	return nil
}

func (d *fakeDriver) SetStatusMessage(_ context.Context, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.statuses = append(d.statuses, text)
	return nil
}

func (d *fakeDriver) ExportSession(_ context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.exported, nil
}

func (d *fakeDriver) RestoreSession(_ context.Context, blob []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.restored = append(d.restored, blob)
	return d.restoreErr
}

func (d *fakeDriver) counts() (starts, stops, sends int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.startCalls, d.stopCalls, d.sendCalls
}

func (d *fakeDriver) contactFetchCount(id string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.contactFetches[id]
}
