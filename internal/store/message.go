package store

import (
	"time"

	"github.com/bung87/puppet-whatsapp/schema"
)

// UpsertMessage archives a normalized message, idempotent on its ID.
// Messages are immutable so a conflicting insert is simply ignored.
func (db *DB) UpsertMessage(m *schema.Message) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO messages (id, msg_type, body, from_id, to_id, room_id, timestamp, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		m.ID, string(m.Type), m.Text, m.FromID, m.ToID, m.RoomID, m.Timestamp, now)
	return err
}

// ListRoomMessages returns archived messages for a room using keyset
// pagination by timestamp.
func (db *DB) ListRoomMessages(roomID string, beforeTs int64, limit int) ([]schema.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if beforeTs <= 0 {
		beforeTs = time.Now().UnixMilli() + 1
	}
	rows, err := db.Query(`
		SELECT id, msg_type, body, from_id, to_id, room_id, timestamp
		FROM messages
		WHERE room_id = ? AND timestamp < ?
		ORDER BY timestamp DESC
		LIMIT ?`, roomID, beforeTs, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []schema.Message
	for rows.Next() {
		var m schema.Message
		var typ string
		if err := rows.Scan(&m.ID, &typ, &m.Text, &m.FromID, &m.ToID, &m.RoomID, &m.Timestamp); err != nil {
			return nil, err
		}
		m.Type = schema.MessageType(typ)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// MessageCount returns the total number of archived messages.
func (db *DB) MessageCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count)
	return count, err
}
