package puppetwhatsapp

import (
	"context"

	"go.uber.org/zap"

	"github.com/bung87/puppet-whatsapp/driver"
	"github.com/bung87/puppet-whatsapp/internal/state"
	"github.com/bung87/puppet-whatsapp/schema"
)

// Event kinds on the protocol boundary.
const (
	kindScan    = "puppet.scan"
	kindLogin   = "puppet.login"
	kindLogout  = "puppet.logout"
	kindMessage = "puppet.message"
	kindError   = "puppet.error"
)

// normalize is the single normalization lane: raw driver events are
// processed strictly in arrival order, one at a time. Cache fetches
// issued by commands run elsewhere; nothing here blocks on the driver.
func (p *Puppet) normalize(ctx context.Context) {
	events := p.drv.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-events:
			if !ok {
				// The driver died for good. While online this is an
				// implicit logout; never silently stay "online" on a
				// dead transport.
				if p.machine.Current() == state.Online {
					p.crash("driver event stream closed")
				}
				return
			}
			p.handle(ctx, raw)
		}
	}
}

func (p *Puppet) handle(ctx context.Context, raw driver.Event) {
	switch evt := raw.(type) {
	case driver.QRCodeEvent:
		p.handleQRCode(evt)
	case driver.AuthenticatedEvent:
		p.handleAuthenticated(ctx, evt)
	case driver.LoggedOutEvent:
		p.handleLoggedOut(evt.Reason)
	case driver.MessageEvent:
		p.handleMessage(evt)
	case driver.DisconnectedEvent:
		p.handleDisconnected(evt)
	case driver.ErrorEvent:
		p.handleError(evt)
	default:
		p.logger.Debug("unhandled driver event", zap.Any("event", raw))
	}
}

func (p *Puppet) handleQRCode(evt driver.QRCodeEvent) {
	// A code during silent re-auth means the driver rejected the
	// restored material and fell back to the scan flow.
	if p.machine.Current() == state.Authenticating {
		if err := p.machine.Transition(state.AwaitingScan); err != nil {
			p.logger.Warn("QR code in unexpected state", zap.Error(err))
			return
		}
	}
	if p.machine.Current() != state.AwaitingScan {
		p.logger.Debug("ignoring QR code outside scan flow",
			zap.String("state", string(p.machine.Current())))
		return
	}

	scan := schema.EventScan{QRCode: evt.Code, Status: schema.ScanStatusWaiting}
	p.mu.Lock()
	p.lastScan = &scan
	p.mu.Unlock()

	p.logger.Info("QR code issued")
	p.emit(kindScan, scan)
}

func (p *Puppet) handleAuthenticated(ctx context.Context, evt driver.AuthenticatedEvent) {
	p.mu.Lock()
	if err := p.machine.Transition(state.Online); err != nil {
		p.mu.Unlock()
		p.logger.Warn("authenticated event in unexpected state", zap.Error(err))
		return
	}
	p.selfID = evt.SelfID
	p.lastScan = nil
	p.mu.Unlock()

	p.contacts.Upsert(evt.SelfID, &schema.Contact{
		ID:   evt.SelfID,
		Name: evt.Name,
		Self: true,
	})

	p.saveSession(ctx)

	p.logger.Info("session online", zap.String("self", evt.SelfID))
	p.emit(kindLogin, schema.EventLogin{ContactID: evt.SelfID})
}

// saveSession persists authentication material through the memory card.
// Failures are logged, never fatal.
func (p *Puppet) saveSession(ctx context.Context) {
	if p.card == nil {
		return
	}
	blob, err := p.drv.ExportSession(ctx)
	if err != nil {
		p.logger.Warn("session export failed", zap.Error(err))
		return
	}
	if err := p.card.Set(MemorySlot, blob); err != nil {
		p.logger.Warn("memory card save failed", zap.Error(err))
	}
}

func (p *Puppet) handleLoggedOut(reason string) {
	// Self is cleared before the logout event is emitted.
	p.mu.Lock()
	self := p.selfID
	p.selfID = ""
	err := p.machine.Transition(state.LoggedOut)
	p.mu.Unlock()
	if err != nil {
		p.logger.Warn("logout event in unexpected state", zap.Error(err))
		return
	}

	// Contacts and rooms stay cached but go stale; messages are
	// immutable and keep suppressing redelivery across cycles.
	p.contacts.InvalidateAll()
	p.rooms.InvalidateAll()

	p.logger.Warn("session invalidated", zap.String("reason", reason))
	p.emit(kindLogout, schema.EventLogout{ContactID: self, Reason: reason})
}

func (p *Puppet) handleMessage(evt driver.MessageEvent) {
	msg, err := parseMessage(evt.Raw)
	if err != nil {
		p.logger.Warn("malformed raw message", zap.Error(err))
		p.emit(kindError, schema.EventError{
			Classification: schema.ErrorTransient,
			Data:           err.Error(),
		})
		return
	}

	// Redelivery suppression: a previously seen identifier is dropped,
	// not re-emitted.
	if p.messages.Has(msg.ID) {
		p.logger.Debug("duplicate message dropped", zap.String("id", msg.ID))
		return
	}
	p.messages.Upsert(msg.ID, msg)

	p.emit(kindMessage, msg)
}

func (p *Puppet) handleDisconnected(evt driver.DisconnectedEvent) {
	if p.machine.Current() == state.Online {
		reason := "connection lost"
		if evt.Err != nil {
			reason = evt.Err.Error()
		}
		p.crash(reason)
		return
	}
	p.emit(kindError, schema.EventError{
		Classification: schema.ErrorTransient,
		Data:           "disconnected: " + errText(evt.Err),
	})
}

func (p *Puppet) handleError(evt driver.ErrorEvent) {
	if evt.Fatal && p.machine.Current() == state.Online {
		p.crash(errText(evt.Err))
		return
	}
	classification := schema.ErrorTransient
	if evt.Fatal {
		classification = schema.ErrorTerminal
	}
	p.emit(kindError, schema.EventError{
		Classification: classification,
		Data:           errText(evt.Err),
	})
}

// crash handles driver death while online: an implicit logout
// transition plus a terminal error event.
func (p *Puppet) crash(reason string) {
	p.logger.Error("driver crashed while online", zap.String("reason", reason))
	p.handleLoggedOut(reason)
	p.emit(kindError, schema.EventError{
		Classification: schema.ErrorTerminal,
		Data:           reason,
	})
}

func errText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
