// Package cache holds the normalized entity stores. Each store is keyed
// by provider-stable identifier and backed by a fetch function that
// queries the driver on a miss. Concurrent misses for the same key
// coalesce into a single in-flight fetch.
package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FetchFunc loads and parses one entity from the driver.
type FetchFunc[T any] func(ctx context.Context, id string) (T, error)

type entry[T any] struct {
	value T
	stale bool
}

// Store is one keyed entity store. Entries are never destroyed, only
// marked stale; a stale entry is re-fetched on the next GetOrFetch.
type Store[T any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[T]
	group   singleflight.Group
	fetch   FetchFunc[T]
}

// NewStore creates a store backed by the given fetch function.
func NewStore[T any](fetch FetchFunc[T]) *Store[T] {
	return &Store[T]{
		entries: make(map[string]*entry[T]),
		fetch:   fetch,
	}
}

// Get returns the cached entity if present and fresh.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e, ok := s.entries[id]; ok && !e.stale {
		return e.value, true
	}
	var zero T
	return zero, false
}

// Has reports whether the key has ever been stored, stale or not.
// Message dedup relies on this: a stale message is still a seen one.
func (s *Store[T]) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[id]
	return ok
}

// GetOrFetch returns the cached entity or fetches, parses, and stores
// it. At most one driver query is in flight per key; concurrent callers
// share its result. A failed fetch poisons nothing: other keys keep
// their entries and the next call retries.
func (s *Store[T]) GetOrFetch(ctx context.Context, id string) (T, error) {
	if v, ok := s.Get(id); ok {
		return v, nil
	}

	ch := s.group.DoChan(id, func() (any, error) {
		// Re-check: an Upsert may have landed while we queued.
		if v, ok := s.Get(id); ok {
			return v, nil
		}
		// Detached from the winning caller's context so one caller's
		// cancellation does not fail the shared fetch.
		v, err := s.fetch(context.WithoutCancel(ctx), id)
		if err != nil {
			return nil, err
		}
		s.Upsert(id, v)
		return v, nil
	})

	var zero T
	select {
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Upsert stores an entity, last write wins.
func (s *Store[T]) Upsert(id string, v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = &entry[T]{value: v}
}

// Invalidate marks one entry stale.
func (s *Store[T]) Invalidate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		e.stale = true
	}
}

// InvalidateAll marks every entry stale. Used on logout.
func (s *Store[T]) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		e.stale = true
	}
}

// Len returns the number of stored entries, stale included.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
