package memory

import (
	"context"
	"sync"
	"time"

	portidem "github.com/alanyang/shiftdesk/internal/port/idempotency"
)

var _ portidem.Store = (*IdempotencyCache)(nil)

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// IdempotencyCache keeps processed responses for ttl. Expired entries are removed
// lazily on lookup.
type IdempotencyCache struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func NewIdempotencyCache(ttl time.Duration) *IdempotencyCache {
	return &IdempotencyCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

func (c *IdempotencyCache) Check(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Store keeps the first response for a key; later calls with the same key are ignored.
func (c *IdempotencyCache) Store(_ context.Context, key, _ string, result []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok && time.Now().Before(entry.expiresAt) {
		return nil
	}
	c.entries[key] = cacheEntry{
		value:     result,
		expiresAt: time.Now().Add(c.ttl),
	}
	return nil
}
