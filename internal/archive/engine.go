// Package archive persists normalized messages and contacts flowing out
// of the bridge. It attaches through the puppet's listener API, so it
// gets the same ordered, deduplicated stream bots do.
package archive

import (
	"go.uber.org/zap"

	puppetwhatsapp "github.com/bung87/puppet-whatsapp"
	"github.com/bung87/puppet-whatsapp/internal/store"
	"github.com/bung87/puppet-whatsapp/schema"
)

// Engine writes bridge events into the archive database.
type Engine struct {
	db     *store.DB
	logger *zap.Logger
}

// NewEngine creates an archive engine over the given database.
func NewEngine(db *store.DB, logger *zap.Logger) *Engine {
	return &Engine{db: db, logger: logger}
}

// Attach registers the engine's handlers on the puppet.
func (e *Engine) Attach(p *puppetwhatsapp.Puppet) {
	p.OnMessage(e.HandleMessage)
	p.OnLogin(e.HandleLogin)
}

// HandleMessage archives one normalized message. Idempotent: the store
// ignores already-archived identifiers.
func (e *Engine) HandleMessage(m *schema.Message) {
	if err := e.db.UpsertMessage(m); err != nil {
		e.logger.Error("archive message", zap.Error(err), zap.String("id", m.ID))
	}
}

// HandleLogin records the self contact on login.
func (e *Engine) HandleLogin(evt schema.EventLogin) {
	if err := e.db.UpsertContact(&schema.Contact{ID: evt.ContactID, Self: true}); err != nil {
		e.logger.Error("archive self contact", zap.Error(err), zap.String("id", evt.ContactID))
	}
}
