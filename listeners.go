package puppetwhatsapp

import (
	"go.uber.org/zap"

	"github.com/bung87/puppet-whatsapp/schema"
)

// Listener fan-out: each registered listener owns a bounded queue and a
// dedicated drain goroutine, so a slow or panicking listener never
// blocks the normalization lane or other listeners. Delivery order per
// listener matches emission order. Registrations are scoped to this
// puppet instance and survive stop/start cycles; Close tears them down.

const listenerBuffer = 64

// OnScan registers a listener for QR scan events.
func (p *Puppet) OnScan(fn func(schema.EventScan)) {
	listen(p, kindScan, fn)
}

// OnLogin registers a listener for login events.
func (p *Puppet) OnLogin(fn func(schema.EventLogin)) {
	listen(p, kindLogin, fn)
}

// OnLogout registers a listener for logout events.
func (p *Puppet) OnLogout(fn func(schema.EventLogout)) {
	listen(p, kindLogout, fn)
}

// OnMessage registers a listener for normalized messages.
func (p *Puppet) OnMessage(fn func(*schema.Message)) {
	listen(p, kindMessage, fn)
}

// OnError registers a listener for classified error events.
func (p *Puppet) OnError(fn func(schema.EventError)) {
	listen(p, kindError, fn)
}

func listen[T any](p *Puppet, kind string, fn func(T)) {
	ch, _ := p.bus.Subscribe(kind, listenerBuffer)
	go func() {
		for evt := range ch {
			payload, ok := evt.Payload.(T)
			if !ok {
				continue
			}
			deliver(p.logger, kind, fn, payload)
		}
	}()
}

// deliver invokes one listener, trapping panics so a failing listener
// cannot halt delivery to others.
func deliver[T any](logger *zap.Logger, kind string, fn func(T), payload T) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("listener panicked", zap.String("kind", kind), zap.Any("panic", r))
		}
	}()
	fn(payload)
}
