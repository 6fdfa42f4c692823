// Package cache provides the injectable keyed caches that back the client's
// permission, user-directory and image lookups. Instances are explicit
// services with a lifecycle: the auth service clears every registered cache
// on both login and logout so no data leaks across accounts.
package cache

import "sync"

// Clearer is the subset of the cache contract the auth service needs to
// reset caches on session boundaries.
type Clearer interface {
	Clear()
}

// Cache is a concurrency-safe map with an explicit invalidation contract.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
}

// New creates an empty cache.
func New[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{entries: map[K]V{}}
}

// Get returns the cached value for key, or the zero value when absent.
func (c *Cache[K, V]) Get(key K) V {
	v, _ := c.Lookup(key)
	return v
}

// Lookup returns the cached value and whether it was present.
func (c *Cache[K, V]) Lookup(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[key]
	return v, ok
}

// Set stores a value for key.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
}

// GetOrLoad returns the cached value for key, calling load and caching its
// result on a miss. A load error is returned without caching anything.
func (c *Cache[K, V]) GetOrLoad(key K, load func() (V, error)) (V, error) {
	if v, ok := c.Lookup(key); ok {
		return v, nil
	}
	v, err := load()
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(key, v)
	return v, nil
}

// Invalidate removes a single key.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[K]V{}
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
