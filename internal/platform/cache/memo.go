// Package cache provides in-memory and Redis-backed caching for repository interfaces.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Entry is a cached value and the time it was fetched. Entries are replaced
// wholesale, never mutated in place.
type Entry[T any] struct {
	Value     T
	FetchedAt time.Time
}

// Memo is a string-keyed TTL cache. Staleness is checked lazily on read and
// nothing is evicted; callers keep the key space small.
type Memo[T any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]Entry[T]
	group   singleflight.Group
}

// NewMemo creates a Memo. A nil now uses time.Now.
func NewMemo[T any](ttl time.Duration, now func() time.Time) *Memo[T] {
	if now == nil {
		now = time.Now
	}
	return &Memo[T]{ttl: ttl, now: now, entries: make(map[string]Entry[T])}
}

// Get returns the value for key if now - FetchedAt < ttl.
func (m *Memo[T]) Get(key string) (T, bool) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok || !m.fresh(e) {
		var zero T
		return zero, false
	}
	return e.Value, true
}

// Peek returns the entry for key regardless of age.
func (m *Memo[T]) Peek(key string) (Entry[T], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	return e, ok
}

// Set stores v under key stamped with the current time.
func (m *Memo[T]) Set(key string, v T) {
	m.store(key, Entry[T]{Value: v, FetchedAt: m.now()})
}

// Delete drops key.
func (m *Memo[T]) Delete(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

// Clear drops every entry.
func (m *Memo[T]) Clear() {
	m.mu.Lock()
	m.entries = make(map[string]Entry[T])
	m.mu.Unlock()
}

// GetOrFetch returns the fresh value for key, or calls fetch and stores its
// result. A zero FetchedAt from fetch is stamped with the current time.
// On error nothing is stored and an existing entry is left as is.
// Concurrent misses for the same key share one fetch. The shared fetch does
// not inherit any caller's cancellation; a caller whose ctx ends returns
// ctx.Err() without affecting the others.
func (m *Memo[T]) GetOrFetch(ctx context.Context, key string, fetch func(ctx context.Context) (Entry[T], error)) (T, error) {
	var zero T
	if v, ok := m.Get(key); ok {
		return v, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (any, error) {
		// another caller may have filled it while we waited
		if v, ok := m.Get(key); ok {
			return v, nil
		}
		e, err := fetch(shared)
		if err != nil {
			return nil, err
		}
		if e.FetchedAt.IsZero() {
			e.FetchedAt = m.now()
		}
		m.store(key, e)
		return e.Value, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

func (m *Memo[T]) store(key string, e Entry[T]) {
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
}

func (m *Memo[T]) fresh(e Entry[T]) bool {
	return m.now().Sub(e.FetchedAt) < m.ttl
}
