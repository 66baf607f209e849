package store

import (
	"path/filepath"
	"testing"

	"github.com/bung87/puppet-whatsapp/schema"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIdempotent(t *testing.T) {
	db := testDB(t)

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 1 {
		t.Errorf("version = %d, want 1", result.Version)
	}
}

func TestUpsertMessageIdempotent(t *testing.T) {
	db := testDB(t)

	msg := &schema.Message{
		ID:        "m1",
		Type:      schema.MessageTypeText,
		Text:      "ding",
		FromID:    "u1@s.whatsapp.net",
		ToID:      "u2@s.whatsapp.net",
		Timestamp: 1000,
	}
	if err := db.UpsertMessage(msg); err != nil {
		t.Fatal(err)
	}
	// Redelivery: same ID again must not duplicate.
	if err := db.UpsertMessage(msg); err != nil {
		t.Fatal(err)
	}

	count, err := db.MessageCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("message count = %d, want 1", count)
	}
}

func TestListRoomMessages(t *testing.T) {
	db := testDB(t)

	for i, id := range []string{"m1", "m2", "m3"} {
		if err := db.UpsertMessage(&schema.Message{
			ID:        id,
			Type:      schema.MessageTypeText,
			Text:      "msg " + id,
			RoomID:    "r1@g.us",
			Timestamp: int64(1000 + i),
		}); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.UpsertMessage(&schema.Message{ID: "other", RoomID: "r2@g.us", Timestamp: 1001}); err != nil {
		t.Fatal(err)
	}

	msgs, err := db.ListRoomMessages("r1@g.us", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	// Newest first.
	if msgs[0].ID != "m3" {
		t.Errorf("first message = %s, want m3", msgs[0].ID)
	}
}

func TestUpsertContactKeepsKnownName(t *testing.T) {
	db := testDB(t)

	if err := db.UpsertContact(&schema.Contact{ID: "u1@s.whatsapp.net", Name: "Alice"}); err != nil {
		t.Fatal(err)
	}
	// Later update without a name must not erase it.
	if err := db.UpsertContact(&schema.Contact{ID: "u1@s.whatsapp.net"}); err != nil {
		t.Fatal(err)
	}

	c, err := db.GetContact("u1@s.whatsapp.net")
	if err != nil {
		t.Fatal(err)
	}
	if c == nil || c.Name != "Alice" {
		t.Errorf("got %+v, want name Alice", c)
	}
}

func TestGetContactUnknown(t *testing.T) {
	db := testDB(t)
	c, err := db.GetContact("missing@s.whatsapp.net")
	if err != nil {
		t.Fatal(err)
	}
	if c != nil {
		t.Errorf("got %+v, want nil", c)
	}
}
