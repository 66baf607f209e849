package bus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("puppet.", 10)
	defer unsub()

	b.Publish(Event{Kind: "puppet.message", Timestamp: time.Now(), Payload: "m1"})

	select {
	case evt := <-ch:
		if evt.Kind != "puppet.message" {
			t.Errorf("got kind %q, want puppet.message", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestPrefixFiltering(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("session.", 10)
	defer unsub()

	b.Publish(Event{Kind: "puppet.message"})
	b.Publish(Event{Kind: "session.state_changed"})

	select {
	case evt := <-ch:
		if evt.Kind != "session.state_changed" {
			t.Errorf("got kind %q, want session.state_changed", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}

	select {
	case evt, ok := <-ch:
		if ok {
			t.Errorf("unexpected event: %v", evt)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("puppet.", 10)
	unsub()

	b.Publish(Event{Kind: "puppet.message"})

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("received event after unsubscribe")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after unsubscribe")
	}
}

func TestDropOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe("puppet.", 1)
	defer unsub()

	b.Publish(Event{Kind: "puppet.one"})
	// Buffer full: dropped rather than blocking the publisher.
	b.Publish(Event{Kind: "puppet.two"})

	evt := <-ch
	if evt.Kind != "puppet.one" {
		t.Errorf("got %q, want puppet.one", evt.Kind)
	}
}

func TestCloseTerminatesSubscribers(t *testing.T) {
	b := New()
	ch, _ := b.Subscribe("puppet.", 10)

	b.Close()
	b.Close() // idempotent

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel, got event")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after bus Close")
	}

	// Publishing after Close must not panic.
	b.Publish(Event{Kind: "puppet.message"})
}
