package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feed-proxy/internal/domain"
)

// mockSource implements domain.FeedSource for testing.
type mockSource struct {
	raw   []byte
	err   error
	calls int
}

func (m *mockSource) FetchFeed(_ context.Context) ([]byte, error) {
	m.calls++
	return m.raw, m.err
}

// mockExtractor implements domain.FeedExtractor for testing.
type mockExtractor struct {
	items []domain.FeedItem
	err   error
	panic bool
}

func (m *mockExtractor) Extract(_ []byte) ([]domain.FeedItem, error) {
	if m.panic {
		panic("unexpected token")
	}
	return m.items, m.err
}

// mockCache implements domain.ResponseCache for testing.
type mockCache struct {
	mu       sync.Mutex
	entries  map[string]*domain.CachedResponse
	ttls     map[string]time.Duration
	getErr   error
	setErr   error
	getCalls int
	setCalls int
}

func newMockCache() *mockCache {
	return &mockCache{
		entries: make(map[string]*domain.CachedResponse),
		ttls:    make(map[string]time.Duration),
	}
}

func (m *mockCache) Get(_ context.Context, key domain.CacheKey) (*domain.CachedResponse, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	resp, found := m.entries[key.String()]
	if !found {
		return nil, false, nil
	}
	return resp.Clone(), true, nil
}

func (m *mockCache) Set(_ context.Context, key domain.CacheKey, resp *domain.CachedResponse, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	m.entries[key.String()] = resp
	m.ttls[key.String()] = ttl
	return nil
}

// deferredRunner queues tasks until Flush is called.
type deferredRunner struct {
	tasks []func(context.Context) error
	names []string
	errs  []error
}

func (r *deferredRunner) Go(_ context.Context, name string, task func(ctx context.Context) error) {
	r.names = append(r.names, name)
	r.tasks = append(r.tasks, task)
}

func (r *deferredRunner) Flush() {
	for _, task := range r.tasks {
		r.errs = append(r.errs, task(context.Background()))
	}
	r.tasks = nil
}

func feedKey(t *testing.T) domain.CacheKey {
	t.Helper()
	u, err := url.Parse("https://rss.example.com/")
	require.NoError(t, err)
	return domain.NewCacheKey(http.MethodGet, u)
}

func twoItems() []domain.FeedItem {
	return []domain.FeedItem{
		{Title: "First", Link: "https://example.com/1", PublishedAt: "Mon, 01 Jan 2024 10:00:00 GMT", Summary: "<p>one</p>"},
		{Title: "Second", Link: "https://example.com/2", PublishedAt: "", Summary: "two"},
	}
}

func TestServeFeed_CacheMiss(t *testing.T) {
	cache := newMockCache()
	source := &mockSource{raw: []byte("<rss/>")}
	runner := &deferredRunner{}
	uc := NewServeFeed(cache, source, &mockExtractor{items: twoItems()}, runner, time.Hour, slog.Default())

	result, err := uc.Execute(context.Background(), feedKey(t))

	require.NoError(t, err)
	assert.False(t, result.CacheHit)
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, http.StatusOK, result.Response.StatusCode)
	assert.Equal(t, "application/json", result.Response.Header.Get("Content-Type"))
	assert.Equal(t, "*", result.Response.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "public, max-age=3600", result.Response.Header.Get("Cache-Control"))

	var payload domain.FeedResponse
	require.NoError(t, json.Unmarshal(result.Response.Body, &payload))
	assert.Equal(t, twoItems(), payload.Items)

	// Response is ready before the cache is written
	assert.Equal(t, 0, cache.setCalls)
	assert.Equal(t, []string{"cache-populate"}, runner.names)

	runner.Flush()
	assert.Equal(t, 1, cache.setCalls)
	assert.Equal(t, time.Hour, cache.ttls[feedKey(t).String()])
	assert.Equal(t, result.Response.Body, cache.entries[feedKey(t).String()].Body)
}

func TestServeFeed_CachedDuplicateIsIndependent(t *testing.T) {
	cache := newMockCache()
	runner := &deferredRunner{}
	uc := NewServeFeed(cache, &mockSource{}, &mockExtractor{items: twoItems()}, runner, time.Hour, slog.Default())

	result, err := uc.Execute(context.Background(), feedKey(t))
	require.NoError(t, err)

	result.Response.Body[0] = 'X'
	result.Response.Header.Set("X-Cache", "MISS")
	runner.Flush()

	stored := cache.entries[feedKey(t).String()]
	assert.Equal(t, byte('{'), stored.Body[0])
	assert.Empty(t, stored.Header.Get("X-Cache"))
}

func TestServeFeed_CacheHit(t *testing.T) {
	cache := newMockCache()
	source := &mockSource{raw: []byte("<rss/>")}
	runner := &deferredRunner{}
	uc := NewServeFeed(cache, source, &mockExtractor{items: twoItems()}, runner, time.Hour, slog.Default())
	ctx := context.Background()

	first, err := uc.Execute(ctx, feedKey(t))
	require.NoError(t, err)
	runner.Flush()

	second, err := uc.Execute(ctx, feedKey(t))
	require.NoError(t, err)

	assert.True(t, second.CacheHit)
	assert.Equal(t, 1, source.calls, "cache hit must not fetch the origin")
	assert.Equal(t, first.Response.Body, second.Response.Body)
	assert.Empty(t, runner.tasks, "cache hit must not repopulate")
}

func TestServeFeed_EmptyExtraction(t *testing.T) {
	uc := NewServeFeed(newMockCache(), &mockSource{}, &mockExtractor{items: nil}, &deferredRunner{}, time.Hour, slog.Default())

	result, err := uc.Execute(context.Background(), feedKey(t))

	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[]}`, string(result.Response.Body))
	assert.Equal(t, `{"items":[]}`, string(result.Response.Body))
}

func TestServeFeed_OriginError(t *testing.T) {
	cache := newMockCache()
	runner := &deferredRunner{}
	source := &mockSource{err: &domain.OriginError{StatusCode: http.StatusServiceUnavailable}}
	uc := NewServeFeed(cache, source, &mockExtractor{}, runner, time.Hour, slog.Default())

	result, err := uc.Execute(context.Background(), feedKey(t))

	assert.Nil(t, result)
	assert.True(t, errors.Is(err, domain.ErrFetchFailure))
	assert.True(t, errors.Is(err, domain.ErrOrigin))
	assert.Equal(t, "Failed to fetch RSS: 503", err.Error())
	assert.Empty(t, runner.tasks, "failures are never cached")
}

func TestServeFeed_NetworkError(t *testing.T) {
	source := &mockSource{err: &domain.NetworkError{Cause: errors.New("dial tcp: connection refused")}}
	uc := NewServeFeed(newMockCache(), source, &mockExtractor{}, &deferredRunner{}, time.Hour, slog.Default())

	_, err := uc.Execute(context.Background(), feedKey(t))

	assert.True(t, errors.Is(err, domain.ErrFetchFailure))
	assert.True(t, errors.Is(err, domain.ErrNetwork))
	assert.Equal(t, "dial tcp: connection refused", err.Error())
}

func TestServeFeed_ExtractionFailure(t *testing.T) {
	tests := []struct {
		name      string
		extractor *mockExtractor
	}{
		{"error", &mockExtractor{err: domain.ErrExtraction}},
		{"panic", &mockExtractor{panic: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &deferredRunner{}
			uc := NewServeFeed(newMockCache(), &mockSource{}, tt.extractor, runner, time.Hour, slog.Default())

			result, err := uc.Execute(context.Background(), feedKey(t))

			assert.Nil(t, result)
			assert.True(t, errors.Is(err, domain.ErrFetchFailure))
			assert.True(t, errors.Is(err, domain.ErrExtraction))
			assert.Empty(t, runner.tasks)
		})
	}
}

func TestServeFeed_CacheLookupErrorTreatedAsMiss(t *testing.T) {
	cache := newMockCache()
	cache.getErr = errors.New("redis: connection refused")
	source := &mockSource{}
	uc := NewServeFeed(cache, source, &mockExtractor{items: twoItems()}, &deferredRunner{}, time.Hour, slog.Default())

	result, err := uc.Execute(context.Background(), feedKey(t))

	require.NoError(t, err)
	assert.False(t, result.CacheHit)
	assert.Equal(t, 1, source.calls)
}

func TestServeFeed_PopulateErrorDoesNotAffectCaller(t *testing.T) {
	cache := newMockCache()
	cache.setErr = errors.New("redis: OOM")
	runner := &deferredRunner{}
	uc := NewServeFeed(cache, &mockSource{}, &mockExtractor{items: twoItems()}, runner, time.Hour, slog.Default())

	result, err := uc.Execute(context.Background(), feedKey(t))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, result.Response.StatusCode)

	runner.Flush()
	require.Len(t, runner.errs, 1)
	assert.ErrorContains(t, runner.errs[0], "redis: OOM")
}

func TestServeFeed_ConfiguredTTL(t *testing.T) {
	cache := newMockCache()
	runner := &deferredRunner{}
	uc := NewServeFeed(cache, &mockSource{}, &mockExtractor{}, runner, 90*time.Second, slog.Default())

	result, err := uc.Execute(context.Background(), feedKey(t))
	require.NoError(t, err)
	runner.Flush()

	assert.Equal(t, "public, max-age=90", result.Response.Header.Get("Cache-Control"))
	assert.Equal(t, 90*time.Second, cache.ttls[feedKey(t).String()])
}
