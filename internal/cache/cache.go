// Poshan - Personalized Pregnancy Nutrition Recommendations
// Copyright 2026 Poshan Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/poshanlabs/poshan

// Package cache provides a generic in-memory key/value store with per-entry
// time-to-live.
//
// The cache is a pure memoization layer: removing it never changes what a
// fresh computation would produce, only its latency. Expiry is lazy — the
// read that discovers a stale entry evicts it and reports a miss; there is
// no background sweeper. The map is unbounded (callers bound cardinality by
// key space); this is a memoization table, not an LRU.
package cache

import (
	"sync"
	"time"
)

// entry holds a cached value with its creation timestamp.
type entry[V any] struct {
	value     V
	createdAt time.Time
}

// TTLCache is a thread-safe key/value store with lazy per-entry expiry.
// A zero or negative TTL means entries never expire.
type TTLCache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
	ttl     time.Duration
	now     func() time.Time

	stats Stats
}

// Stats tracks cache performance counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// Option configures a TTLCache.
type Option[K comparable, V any] func(*TTLCache[K, V])

// WithClock replaces the cache's time source. Tests use this to freeze the
// clock and cross TTL boundaries deterministically.
func WithClock[K comparable, V any](now func() time.Time) Option[K, V] {
	return func(c *TTLCache[K, V]) {
		c.now = now
	}
}

// New creates a cache whose entries expire ttl after they are written.
// If ttl <= 0 entries never expire.
func New[K comparable, V any](ttl time.Duration, opts ...Option[K, V]) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		entries: make(map[K]entry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value for key. An entry older than the TTL is treated as
// absent and is evicted by this read.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		c.recordMiss()
		return zero, false
	}

	if c.expired(e) {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have
		// refreshed the entry between the unlock and here.
		if cur, still := c.entries[key]; still && c.expired(cur) {
			delete(c.entries, key)
			c.mu.Unlock()
			c.recordMiss()
			c.recordEviction()
			return zero, false
		}
		c.mu.Unlock()
		c.recordMiss()
		return zero, false
	}

	c.recordHit()
	return e.value, true
}

// Set stores value under key, unconditionally overwriting any previous
// entry. Last write wins on concurrent writes to the same key.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[V]{
		value:     value,
		createdAt: c.now(),
	}
}

// Delete removes the entry for key. No-op if the key is absent.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of entries currently held, including entries that
// are stale but not yet evicted by a read.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetStats returns a snapshot of the hit/miss/eviction counters.
func (c *TTLCache[K, V]) GetStats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// HitRate returns the cache hit rate as a percentage.
func (c *TTLCache[K, V]) HitRate() float64 {
	s := c.GetStats()
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}
	return float64(s.Hits) / float64(total) * 100.0
}

// expired reports whether e is older than the TTL.
func (c *TTLCache[K, V]) expired(e entry[V]) bool {
	if c.ttl <= 0 {
		return false
	}
	return c.now().Sub(e.createdAt) > c.ttl
}

func (c *TTLCache[K, V]) recordHit() {
	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
}

func (c *TTLCache[K, V]) recordMiss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
}

func (c *TTLCache[K, V]) recordEviction() {
	c.mu.Lock()
	c.stats.Evictions++
	c.mu.Unlock()
}
