package cache

import (
	"sync"
	"time"
)

// entry holds one cached value and its expiry instant
type entry struct {
	value     string
	expiresAt time.Time
}

// Memory is an in-process implementation of domain.Cache with per-entry
// TTL. Expired entries are dropped lazily on read.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemory creates a new in-memory cache
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached value for key, or false when the key is missing
// or expired
func (c *Memory) Get(key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}
	if !c.now().Before(e.expiresAt) {
		c.Delete(key)
		return "", false
	}

	return e.value, true
}

// Set stores value under key for the given TTL. A non-positive TTL
// removes the key.
func (c *Memory) Set(key, value string, ttl time.Duration) {
	if ttl <= 0 {
		c.Delete(key)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

// Delete removes key from the cache
func (c *Memory) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
