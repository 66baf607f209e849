package store

import (
	"database/sql"
	"time"

	"github.com/bung87/puppet-whatsapp/schema"
)

// UpsertContact archives a normalized contact. Empty names never
// overwrite a known one.
func (db *DB) UpsertContact(c *schema.Contact) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO contacts (id, name, avatar, is_self, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = CASE WHEN excluded.name != '' THEN excluded.name ELSE contacts.name END,
			avatar = CASE WHEN excluded.avatar != '' THEN excluded.avatar ELSE contacts.avatar END,
			is_self = excluded.is_self,
			updated_at = excluded.updated_at`,
		c.ID, c.Name, c.Avatar, c.Self, now)
	return err
}

// GetContact returns an archived contact, or nil if unknown.
func (db *DB) GetContact(id string) (*schema.Contact, error) {
	var c schema.Contact
	err := db.QueryRow(`SELECT id, name, avatar, is_self FROM contacts WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Avatar, &c.Self)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ContactCount returns the total number of archived contacts.
func (db *DB) ContactCount() (int64, error) {
	var count int64
	err := db.QueryRow(`SELECT COUNT(*) FROM contacts`).Scan(&count)
	return count, err
}
