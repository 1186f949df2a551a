package cache

import (
	"sync"
	"time"

	"github.com/moznion/go-optional"
)

// Cache is an in-process key/value store. Entries remember when they were written;
// freshness is decided by the reader.
type Cache interface {
	// Get returns the value stored under key when it was written within ttl.
	// A ttl of None never expires.
	Get(key string, ttl optional.Option[time.Duration]) (any, bool)
	// Set stores value under key and reports whether it was stored.
	Set(key string, value any) bool
	// Clear removes key.
	Clear(key string)
	// Reset removes every entry.
	Reset()
	// Len is the number of stored entries, stale or not.
	Len() int
}

type entry struct {
	value    any
	storedAt time.Time
}

type CacheV1 struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

func NewCacheV1() Cache {
	return NewCacheV1WithClock(time.Now)
}

// NewCacheV1WithClock creates a cache that reads the current time from now.
func NewCacheV1WithClock(now func() time.Time) *CacheV1 {
	return &CacheV1{
		entries: make(map[string]entry),
		now:     now,
	}
}

// Get implements cache.Cache.
func (c *CacheV1) Get(key string, ttl optional.Option[time.Duration]) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if ttl.IsSome() && c.now().Sub(e.storedAt) > ttl.Unwrap() {
		return nil, false
	}

	return e.value, true
}

// Set implements cache.Cache. An empty key is rejected.
func (c *CacheV1) Set(key string, value any) bool {
	if key == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{value: value, storedAt: c.now()}

	return true
}

// Clear implements cache.Cache.
func (c *CacheV1) Clear(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

// Reset implements cache.Cache.
func (c *CacheV1) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
}

// Len implements cache.Cache.
func (c *CacheV1) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
