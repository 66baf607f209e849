package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetOrFetchCachesResult(t *testing.T) {
	var calls atomic.Int32
	s := NewStore(func(_ context.Context, id string) (string, error) {
		calls.Add(1)
		return "entity:" + id, nil
	})

	for i := 0; i < 3; i++ {
		v, err := s.GetOrFetch(context.Background(), "c1")
		if err != nil {
			t.Fatal(err)
		}
		if v != "entity:c1" {
			t.Errorf("got %q, want entity:c1", v)
		}
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("fetch called %d times, want 1", n)
	}
}

// TestConcurrentFetchCoalesces verifies at most one driver query per key
// even when invoked N times before the first resolves.
func TestConcurrentFetchCoalesces(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	s := NewStore(func(_ context.Context, id string) (string, error) {
		calls.Add(1)
		<-release
		return "entity:" + id, nil
	})

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.GetOrFetch(context.Background(), "r1")
			if err != nil {
				t.Error(err)
				return
			}
			if v != "entity:r1" {
				t.Errorf("got %q, want entity:r1", v)
			}
		}()
	}

	// Let the goroutines pile up on the in-flight fetch.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("fetch called %d times, want 1", got)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	var calls atomic.Int32
	s := NewStore(func(_ context.Context, id string) (string, error) {
		return fmt.Sprintf("v%d:%s", calls.Add(1), id), nil
	})

	v1, _ := s.GetOrFetch(context.Background(), "c1")
	s.Invalidate("c1")
	v2, err := s.GetOrFetch(context.Background(), "c1")
	if err != nil {
		t.Fatal(err)
	}
	if v1 == v2 {
		t.Errorf("expected refetch after invalidate, got %q twice", v1)
	}
	if calls.Load() != 2 {
		t.Errorf("fetch called %d times, want 2", calls.Load())
	}
}

// TestFetchErrorLeavesOtherKeysIntact: a parse failure fails only that
// fetch and never corrupts entries cached under other keys.
func TestFetchErrorLeavesOtherKeysIntact(t *testing.T) {
	parseErr := errors.New("malformed raw payload")
	s := NewStore(func(_ context.Context, id string) (string, error) {
		if id == "bad" {
			return "", parseErr
		}
		return "entity:" + id, nil
	})

	if _, err := s.GetOrFetch(context.Background(), "good"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetOrFetch(context.Background(), "bad"); !errors.Is(err, parseErr) {
		t.Errorf("err = %v, want %v", err, parseErr)
	}
	if v, ok := s.Get("good"); !ok || v != "entity:good" {
		t.Errorf("good entry corrupted: %q, %v", v, ok)
	}
	if s.Has("bad") {
		t.Error("failed fetch must not store an entry")
	}
}

func TestUpsertLastWriteWins(t *testing.T) {
	s := NewStore[string](nil)
	s.Upsert("c1", "first")
	s.Upsert("c1", "second")
	if v, _ := s.Get("c1"); v != "second" {
		t.Errorf("got %q, want second", v)
	}
}

func TestUpsertClearsStale(t *testing.T) {
	s := NewStore[string](nil)
	s.Upsert("c1", "v")
	s.InvalidateAll()
	if _, ok := s.Get("c1"); ok {
		t.Error("stale entry should not be returned by Get")
	}
	if !s.Has("c1") {
		t.Error("stale entry should still be present")
	}
	s.Upsert("c1", "v2")
	if v, ok := s.Get("c1"); !ok || v != "v2" {
		t.Errorf("upsert should refresh stale entry, got %q, %v", v, ok)
	}
}

func TestGetOrFetchContextCancel(t *testing.T) {
	s := NewStore(func(_ context.Context, id string) (string, error) {
		time.Sleep(5 * time.Second)
		return "never", nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := s.GetOrFetch(ctx, "slow")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}
