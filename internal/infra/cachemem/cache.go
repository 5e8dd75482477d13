package cachemem

import (
	"context"
	"sync"
	"time"

	"tecpd/internal/usecase"
)

// Cache memoizes positive signature-stage outcomes keyed by receipt digest.
// Only the signature check is cacheable; timestamp freshness is evaluated
// against the wall clock on every verification.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	valid     bool
	expiresAt time.Time
	hasExpiry bool
}

func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

func (c *Cache) Get(_ context.Context, key string) (bool, bool, error) {
	if c == nil {
		return false, false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return false, false, nil
	}
	if entry.hasExpiry && time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return false, false, nil
	}
	return entry.valid, true, nil
}

func (c *Cache) Put(_ context.Context, key string, valid bool) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := cacheEntry{valid: valid}
	if c.ttl > 0 {
		entry.hasExpiry = true
		entry.expiresAt = time.Now().Add(c.ttl)
	}
	c.entries[key] = entry
	return nil
}

var _ usecase.SignatureCache = (*Cache)(nil)
