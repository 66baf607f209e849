package puppetwhatsapp

import (
	"errors"

	"github.com/bung87/puppet-whatsapp/driver"
)

var (
	// ErrNotReady is returned by every command invoked while the
	// session is not online. Such calls never reach the driver.
	ErrNotReady = errors.New("puppet not ready: session is not online")

	// ErrAlreadyStarted is returned by Start while a session cycle is
	// in progress. Calls are rejected, not queued.
	ErrAlreadyStarted = errors.New("puppet already started")

	// ErrStopped is returned to in-flight commands when Stop is called.
	ErrStopped = errors.New("session stopped")

	// ErrUnknownEntity is returned when an identifier resolves to
	// nothing the provider or cache knows about.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrNotSupported marks operations the provider cannot perform,
	// as opposed to operations that merely returned no data.
	ErrNotSupported = driver.ErrNotSupported
)
