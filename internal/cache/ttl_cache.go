// Package cache provides a small in-process TTL cache for read-heavy
// dashboard queries.
package cache

import (
	"sync"
	"time"
)

// Cache is the read-through surface used by services. Implementations are
// safe for concurrent use.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V, ttl time.Duration)
	Delete(key K)
}

type cacheEntry[V any] struct {
	value    V
	deadline int64 // unix nanos, 0 means no expiry
}

// TTLCache keeps entries in a map and evicts lazily: an expired entry is
// removed on the read that discovers it. Suits a handful of hot keys, not
// unbounded key sets.
type TTLCache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]cacheEntry[V]
}

func NewTTLCache[K comparable, V any]() *TTLCache[K, V] {
	return &TTLCache[K, V]{entries: make(map[K]cacheEntry[V])}
}

func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if e.deadline != 0 && time.Now().UnixNano() > e.deadline {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

// Set stores a value. A non-positive ttl never expires.
func (c *TTLCache[K, V]) Set(key K, value V, ttl time.Duration) {
	if c == nil {
		return
	}
	var deadline int64
	if ttl > 0 {
		deadline = time.Now().Add(ttl).UnixNano()
	}
	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{value: value, deadline: deadline}
	c.mu.Unlock()
}

func (c *TTLCache[K, V]) Delete(key K) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// NoopCache always misses; used where caching is disabled.
type NoopCache[K comparable, V any] struct{}

func (NoopCache[K, V]) Get(key K) (V, bool) {
	var zero V
	return zero, false
}

func (NoopCache[K, V]) Set(key K, value V, ttl time.Duration) {}

func (NoopCache[K, V]) Delete(key K) {}
