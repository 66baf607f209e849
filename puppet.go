// Package puppetwhatsapp bridges an automated WhatsApp session to a
// fixed, provider-neutral bot interface: contacts, rooms, messages, and
// lifecycle events. The bridge owns the driver connection, survives its
// instability, deduplicates and normalizes raw provider payloads into
// stable entities, and emits an ordered event stream that bot logic can
// rely on without knowing about QR-login races or raw formats.
package puppetwhatsapp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bung87/puppet-whatsapp/driver"
	"github.com/bung87/puppet-whatsapp/internal/bus"
	"github.com/bung87/puppet-whatsapp/internal/cache"
	"github.com/bung87/puppet-whatsapp/internal/state"
	"github.com/bung87/puppet-whatsapp/memorycard"
	"github.com/bung87/puppet-whatsapp/schema"
)

// MemorySlot is the memory-card slot holding the session blob.
const MemorySlot = "session-file"

const defaultCommandTimeout = 15 * time.Second

// Puppet is the session bridge. One instance owns one driver session;
// event normalization runs in a single lane while commands run
// concurrently, sharing only the entity cache and session state.
type Puppet struct {
	drv    driver.Driver
	card   memorycard.Card
	logger *zap.Logger

	bus     *bus.Bus
	machine *state.Machine

	contacts *cache.Store[*schema.Contact]
	rooms    *cache.Store[*schema.Room]
	messages *cache.Store[*schema.Message]

	cmdTimeout time.Duration

	mu            sync.RWMutex
	selfID        string
	lastScan      *schema.EventScan
	sessionCtx    context.Context
	sessionCancel context.CancelFunc
}

// Option configures a Puppet.
type Option func(*Puppet)

// WithLogger sets the logger. Defaults to a nop logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Puppet) { p.logger = l }
}

// WithMemoryCard sets the persistence collaborator for session
// material. Without a card every start goes through the QR flow.
func WithMemoryCard(card memorycard.Card) Option {
	return func(p *Puppet) { p.card = card }
}

// WithCommandTimeout bounds the wait for driver acknowledgment of each
// command. Defaults to 15s.
func WithCommandTimeout(d time.Duration) Option {
	return func(p *Puppet) { p.cmdTimeout = d }
}

// New creates a puppet over the given driver. The instance starts
// disconnected; call Start to begin a session cycle.
func New(drv driver.Driver, opts ...Option) *Puppet {
	p := &Puppet{
		drv:        drv,
		logger:     zap.NewNop(),
		bus:        bus.New(),
		cmdTimeout: defaultCommandTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.machine = state.NewMachine(p.bus)

	p.contacts = cache.NewStore(func(ctx context.Context, id string) (*schema.Contact, error) {
		raw, err := p.drv.ContactRaw(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("fetch contact %s: %w", id, err)
		}
		return parseContact(raw)
	})
	p.rooms = cache.NewStore(func(ctx context.Context, id string) (*schema.Room, error) {
		raw, err := p.drv.RoomRaw(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("fetch room %s: %w", id, err)
		}
		return parseRoom(raw)
	})
	// Messages only enter the cache through the normalizer or through
	// sends; the provider cannot re-query an arbitrary message by ID.
	p.messages = cache.NewStore(func(_ context.Context, id string) (*schema.Message, error) {
		return nil, fmt.Errorf("%w: message %s", ErrUnknownEntity, id)
	})

	return p
}

// Start begins a session cycle: restore attempt through the memory
// card, driver start, and the normalization lane. Fails with
// ErrAlreadyStarted unless the session is disconnected.
func (p *Puppet) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.machine.Current() != state.Disconnected {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	if err := p.machine.Transition(state.AwaitingScan); err != nil {
		p.mu.Unlock()
		return err
	}
	sessCtx, cancel := context.WithCancel(context.Background())
	p.sessionCtx = sessCtx
	p.sessionCancel = cancel
	p.lastScan = nil
	p.mu.Unlock()

	// Persistence restore is best-effort: any failure falls back to
	// the fresh QR-scan flow.
	if p.restoreSession(ctx) {
		_ = p.machine.Transition(state.Authenticating)
	}

	if err := p.drv.Start(ctx); err != nil {
		cancel()
		p.machine.Reset()
		return fmt.Errorf("start driver: %w", err)
	}

	go p.normalize(sessCtx)

	p.logger.Info("puppet started", zap.String("state", string(p.machine.Current())))
	return nil
}

// restoreSession loads the memory card and hands a prior session blob
// to the driver. Reports whether a silent re-authentication is under way.
func (p *Puppet) restoreSession(ctx context.Context) bool {
	if p.card == nil {
		return false
	}
	if err := p.card.Load(); err != nil {
		p.logger.Warn("memory card load failed, proceeding unauthenticated", zap.Error(err))
		return false
	}
	blob, ok := p.card.Get(MemorySlot)
	if !ok {
		return false
	}
	if err := p.drv.RestoreSession(ctx, blob); err != nil {
		p.logger.Warn("session restore rejected, proceeding to QR scan", zap.Error(err))
		return false
	}
	p.logger.Info("prior session material restored, attempting silent re-auth")
	return true
}

// Stop tears the session down: in-flight commands fail promptly with
// ErrStopped, the driver is stopped best-effort, and the state machine
// returns to disconnected. Safe to call from any state; idempotent.
// Registered listeners stay attached for a later Start.
func (p *Puppet) Stop(ctx context.Context) error {
	p.mu.Lock()
	cancel := p.sessionCancel
	p.sessionCancel = nil
	p.selfID = ""
	p.lastScan = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if err := p.drv.Stop(ctx); err != nil {
		p.logger.Warn("driver stop failed", zap.Error(err))
	}
	p.machine.Reset()
	p.logger.Info("puppet stopped")
	return nil
}

// Close stops the session and tears down every listener subscription.
// The puppet cannot be restarted afterwards.
func (p *Puppet) Close(ctx context.Context) error {
	err := p.Stop(ctx)
	p.bus.Close()
	return err
}

// State returns the current session lifecycle state as a string.
func (p *Puppet) State() string {
	return string(p.machine.Current())
}

// LoggedIn reports whether the session is online.
func (p *Puppet) LoggedIn() bool {
	return p.machine.Current() == state.Online
}

// SelfID returns the authenticated contact identifier. Set if and only
// if the session is online.
func (p *Puppet) SelfID() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.selfID, p.selfID != ""
}

// CurrentScan returns the latest QR payload. Each new code supersedes
// the previous one; stale codes are never retried.
func (p *Puppet) CurrentScan() (schema.EventScan, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.lastScan == nil {
		return schema.EventScan{}, false
	}
	return *p.lastScan, true
}

// emit publishes a normalized protocol event for listener fan-out.
func (p *Puppet) emit(kind string, payload any) {
	p.bus.Publish(bus.Event{Kind: kind, Timestamp: time.Now(), Payload: payload})
}
