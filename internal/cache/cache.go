package cache

import (
	"sync"
	"time"
)

// Clock lets tests drive expiry without sleeping.
type Clock func() time.Time

// AllKey is the sentinel listing key covering every category. It is a
// distinct entry from any per-category key and is never used to
// satisfy a category-specific read.
const AllKey = "all"

type entry[V any] struct {
	value V
	at    time.Time
}

// Store is a time-expiring cache keyed by string. A stored entry is
// fresh while now-timestamp < TTL. Get returns only fresh entries;
// GetAny also returns stale ones for the degrade-to-stale path, where
// stale data beats no data.
type Store[V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     Clock
	entries map[string]entry[V]
}

func New[V any](ttl time.Duration, now Clock) *Store[V] {
	if now == nil {
		now = time.Now
	}
	return &Store[V]{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the entry for key if present and fresh.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok || s.now().Sub(e.at) >= s.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// GetAny returns the entry for key regardless of staleness. The
// second result reports presence, the third freshness.
func (s *Store[V]) GetAny(key string) (V, bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[key]
	if !ok {
		var zero V
		return zero, false, false
	}
	return e.value, true, s.now().Sub(e.at) < s.ttl
}

// Put overwrites the entry for key and stamps it with the current
// time. Only the key queried is touched; sibling keys are left alone.
func (s *Store[V]) Put(key string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry[V]{value: value, at: s.now()}
}

// Drop removes the entry for key, if any.
func (s *Store[V]) Drop(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// Len reports the number of stored entries, fresh or stale.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
