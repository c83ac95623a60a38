package domain

import (
	"context"
	"time"
)

// FeedSource retrieves the raw upstream feed document.
type FeedSource interface {
	FetchFeed(ctx context.Context) ([]byte, error)
}

// FeedExtractor turns a raw feed document into at most a fixed number of items,
// preserving document order.
type FeedExtractor interface {
	Extract(raw []byte) ([]FeedItem, error)
}

// ResponseCache is the edge cache holding assembled responses by request identity.
type ResponseCache interface {
	Get(ctx context.Context, key CacheKey) (*CachedResponse, bool, error)
	Set(ctx context.Context, key CacheKey, resp *CachedResponse, ttl time.Duration) error
}

// BackgroundRunner schedules work that must finish before the process tears down
// but must not delay the caller. The task context keeps the values of ctx but
// is not canceled with it.
type BackgroundRunner interface {
	Go(ctx context.Context, name string, task func(ctx context.Context) error)
}
