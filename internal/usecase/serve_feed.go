package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"feed-proxy/internal/domain"
	"feed-proxy/metrics"
)

var tracer = otel.Tracer("feed-proxy/usecase")

// FeedResult is the outcome of one ServeFeed execution.
type FeedResult struct {
	Response *domain.CachedResponse
	CacheHit bool
}

// ServeFeed orchestrates cache lookup, origin fetch, extraction and
// background cache population.
//
// Concurrent misses for the same key are not collapsed: each fetches the
// origin and the last cache write wins.
type ServeFeed struct {
	cache     domain.ResponseCache
	source    domain.FeedSource
	extractor domain.FeedExtractor
	runner    domain.BackgroundRunner
	ttl       time.Duration
	logger    *slog.Logger
}

// NewServeFeed creates a new ServeFeed usecase. ttl is advertised as
// Cache-Control max-age and used as the edge cache lifetime.
func NewServeFeed(
	c domain.ResponseCache,
	s domain.FeedSource,
	e domain.FeedExtractor,
	r domain.BackgroundRunner,
	ttl time.Duration,
	l *slog.Logger,
) *ServeFeed {
	return &ServeFeed{cache: c, source: s, extractor: e, runner: r, ttl: ttl, logger: l}
}

// Execute returns the response for key, from the edge cache when possible.
// Any origin or extraction failure is returned as a domain.ErrFetchFailure.
func (uc *ServeFeed) Execute(ctx context.Context, key domain.CacheKey) (*FeedResult, error) {
	ctx, span := tracer.Start(ctx, "ServeFeed.Execute",
		trace.WithAttributes(attribute.String("feed.cache_key", key.String())))
	defer span.End()

	if cached, found := uc.lookup(ctx, key); found {
		span.SetAttributes(attribute.Bool("feed.cache_hit", true))
		return &FeedResult{Response: cached, CacheHit: true}, nil
	}
	span.SetAttributes(attribute.Bool("feed.cache_hit", false))

	items, err := uc.fetchAndExtract(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, domain.NewFetchFailure(err)
	}

	resp, err := uc.assemble(items)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, domain.NewFetchFailure(err)
	}

	uc.populate(ctx, key, resp.Clone())

	return &FeedResult{Response: resp, CacheHit: false}, nil
}

func (uc *ServeFeed) lookup(ctx context.Context, key domain.CacheKey) (*domain.CachedResponse, bool) {
	cached, found, err := uc.cache.Get(ctx, key)
	switch {
	case err != nil:
		uc.logger.WarnContext(ctx, "edge cache lookup failed, treating as miss", "error", err)
		metrics.RecordCacheLookup("error")
		return nil, false
	case found:
		metrics.RecordCacheLookup("hit")
		return cached, true
	default:
		metrics.RecordCacheLookup("miss")
		return nil, false
	}
}

func (uc *ServeFeed) fetchAndExtract(ctx context.Context) ([]domain.FeedItem, error) {
	ctx, span := tracer.Start(ctx, "ServeFeed.fetchOrigin")
	start := time.Now()
	raw, err := uc.source.FetchFeed(ctx)
	elapsed := time.Since(start)
	span.End()

	if err != nil {
		metrics.RecordOriginFetch("error", elapsed.Seconds())
		uc.logger.ErrorContext(ctx, "origin fetch failed",
			"error", err, "latency_ms", elapsed.Milliseconds())
		return nil, err
	}
	metrics.RecordOriginFetch("success", elapsed.Seconds())

	items, err := uc.extract(raw)
	if err != nil {
		uc.logger.ErrorContext(ctx, "feed extraction failed", "error", err, "bytes", len(raw))
		return nil, err
	}
	metrics.RecordItemsExtracted(len(items))

	uc.logger.InfoContext(ctx, "origin feed fetched",
		"bytes", len(raw),
		"items", len(items),
		"latency_ms", elapsed.Milliseconds())
	return items, nil
}

func (uc *ServeFeed) extract(raw []byte) (items []domain.FeedItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("%w: %v", domain.ErrExtraction, r)
		}
	}()
	return uc.extractor.Extract(raw)
}

func (uc *ServeFeed) assemble(items []domain.FeedItem) (*domain.CachedResponse, error) {
	body, err := json.Marshal(domain.NewFeedResponse(items))
	if err != nil {
		return nil, fmt.Errorf("encode feed response: %w", err)
	}

	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Cache-Control", "public, max-age="+strconv.Itoa(int(uc.ttl/time.Second)))

	return &domain.CachedResponse{
		StatusCode: http.StatusOK,
		Header:     h,
		Body:       body,
	}, nil
}

// populate stores dup in the edge cache without blocking the caller.
func (uc *ServeFeed) populate(ctx context.Context, key domain.CacheKey, dup *domain.CachedResponse) {
	ttl, ok := dup.MaxAge()
	if !ok {
		ttl = uc.ttl
	}

	uc.runner.Go(ctx, "cache-populate", func(ctx context.Context) error {
		ctx, span := tracer.Start(ctx, "ServeFeed.populateCache")
		defer span.End()

		err := uc.cache.Set(ctx, key, dup, ttl)
		metrics.RecordCachePopulate(err)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("populate %s: %w", key.String(), err)
		}
		return nil
	})
}
