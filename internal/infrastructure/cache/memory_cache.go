// Package cache provides edge cache backends for assembled feed responses.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"feed-proxy/internal/domain"
)

// cacheEntry is a stored response together with its own deadline.
type cacheEntry struct {
	response  *domain.CachedResponse
	expiresAt time.Time
}

// MemoryCache is a bounded in-process response cache with TTL.
// Implements domain.ResponseCache.
type MemoryCache struct {
	entries *expirable.LRU[string, cacheEntry]
	now     func() time.Time
}

// NewMemoryCache creates a cache holding at most maxEntries responses.
// maxTTL bounds every entry's lifetime regardless of the TTL passed to Set.
func NewMemoryCache(maxEntries int, maxTTL time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: expirable.NewLRU[string, cacheEntry](maxEntries, nil, maxTTL),
		now:     time.Now,
	}
}

// Get returns a copy of the stored response for key.
func (c *MemoryCache) Get(_ context.Context, key domain.CacheKey) (*domain.CachedResponse, bool, error) {
	entry, found := c.entries.Get(key.String())
	if !found {
		return nil, false, nil
	}
	if c.now().After(entry.expiresAt) {
		c.entries.Remove(key.String())
		return nil, false, nil
	}
	return entry.response.Clone(), true, nil
}

// Set stores resp under key. A non-positive ttl stores nothing.
func (c *MemoryCache) Set(_ context.Context, key domain.CacheKey, resp *domain.CachedResponse, ttl time.Duration) error {
	if ttl <= 0 || resp == nil {
		return nil
	}
	c.entries.Add(key.String(), cacheEntry{
		response:  resp.Clone(),
		expiresAt: c.now().Add(ttl),
	})
	return nil
}

// Len reports the number of live entries.
func (c *MemoryCache) Len() int {
	return c.entries.Len()
}
