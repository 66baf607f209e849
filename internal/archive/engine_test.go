package archive

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/bung87/puppet-whatsapp/internal/store"
	"github.com/bung87/puppet-whatsapp/schema"
)

func testEngine(t *testing.T) (*Engine, *store.DB) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewEngine(db, zap.NewNop()), db
}

func TestHandleMessageArchives(t *testing.T) {
	eng, db := testEngine(t)

	msg := &schema.Message{ID: "m1", Type: schema.MessageTypeText, Text: "ding", FromID: "u1", Timestamp: 1000}
	eng.HandleMessage(msg)
	eng.HandleMessage(msg) // redelivery is harmless

	count, err := db.MessageCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("message count = %d, want 1", count)
	}
}

func TestHandleLoginRecordsSelf(t *testing.T) {
	eng, db := testEngine(t)

	eng.HandleLogin(schema.EventLogin{ContactID: "me@s.whatsapp.net"})

	c, err := db.GetContact("me@s.whatsapp.net")
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || !c.Self {
		t.Errorf("got %+v, want self contact", c)
	}
}
