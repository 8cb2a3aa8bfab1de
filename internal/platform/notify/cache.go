package notify

import (
	"sync"
	"time"
)

const pruneThreshold = 1024

// sentCache remembers recently sent markers for a TTL
type sentCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]time.Time
	now     func() time.Time
}

func newSentCache(ttl time.Duration, now func() time.Time) *sentCache {
	return &sentCache{
		ttl:     ttl,
		entries: make(map[string]time.Time),
		now:     now,
	}
}

// seen reports whether key was added within the TTL
func (c *sentCache) seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	added, ok := c.entries[key]
	if !ok {
		return false
	}
	if c.now().Sub(added) > c.ttl {
		delete(c.entries, key)
		return false
	}
	return true
}

// add records key and reports false when it was already present
func (c *sentCache) add(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if added, ok := c.entries[key]; ok && now.Sub(added) <= c.ttl {
		return false
	}
	if len(c.entries) >= pruneThreshold {
		c.prune(now)
	}
	c.entries[key] = now
	return true
}

func (c *sentCache) prune(now time.Time) {
	for k, added := range c.entries {
		if now.Sub(added) > c.ttl {
			delete(c.entries, k)
		}
	}
}
