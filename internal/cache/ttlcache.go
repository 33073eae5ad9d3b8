// Package cache provides the process-wide expiring stores shared by every
// fetch path: a generic in-memory TTL cache with get-or-fetch semantics and
// an optional Redis-backed snapshot layer.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTTL is the cache lifetime applied when none is configured.
const DefaultTTL = 5 * time.Minute

type entry[T any] struct {
	value      T
	insertedAt time.Time
}

// inflight tracks one in-progress fetch so concurrent misses on the same key
// run the fetch function exactly once. Waiters read value/err only after
// done is closed.
type inflight[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Store is a concurrency-safe key→value cache with a single TTL policy.
// Entries older than the TTL are treated as absent and refreshed
// synchronously on read; they are never served stale and never refreshed
// early. There is no background sweeping.
type Store[T any] struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]entry[T]
	calls   map[string]*inflight[T]

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a Store with the given TTL. A non-positive TTL falls back to
// DefaultTTL.
func New[T any](ttl time.Duration) *Store[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store[T]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry[T]),
		calls:   make(map[string]*inflight[T]),
	}
}

// GetOrFetch returns the live cached value for key, or invokes fetch and
// stores its result unconditionally — an empty or zero value is a confirmed
// "no data" answer and caching it prevents repeated upstream calls. Errors
// are returned to the caller and not cached.
//
// When several goroutines miss the same key at once, one runs fetch and the
// rest wait for its result (or until their own context is done).
func (s *Store[T]) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	s.mu.Lock()
	if e, ok := s.entries[key]; ok && s.now().Sub(e.insertedAt) < s.ttl {
		s.mu.Unlock()
		s.hits.Add(1)
		return e.value, nil
	}
	if c, ok := s.calls[key]; ok {
		s.mu.Unlock()
		s.hits.Add(1)
		var zero T
		select {
		case <-c.done:
			if c.err != nil {
				return zero, c.err
			}
			return c.value, nil
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}

	c := &inflight[T]{done: make(chan struct{})}
	s.calls[key] = c
	s.mu.Unlock()
	s.misses.Add(1)

	value, err := fetch(ctx)

	s.mu.Lock()
	delete(s.calls, key)
	if err == nil {
		s.entries[key] = entry[T]{value: value, insertedAt: s.now()}
	}
	s.mu.Unlock()

	c.value, c.err = value, err
	close(c.done)

	if err != nil {
		var zero T
		return zero, err
	}
	return value, nil
}

// Peek returns the live cached value without triggering a fetch.
func (s *Store[T]) Peek(key string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || s.now().Sub(e.insertedAt) >= s.ttl {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Len returns the number of stored entries, expired ones included.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Hits returns the number of lookups served from a live entry or a shared
// in-flight fetch.
func (s *Store[T]) Hits() int64 { return s.hits.Load() }

// Misses returns the number of lookups that invoked the fetch function.
func (s *Store[T]) Misses() int64 { return s.misses.Load() }
