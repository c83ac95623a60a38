package handler

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"feed-proxy/internal/domain"
	"feed-proxy/internal/usecase"
	"feed-proxy/metrics"
	"feed-proxy/utils/logger"
)

// FeedHandler serves the cached feed JSON.
type FeedHandler struct {
	uc *usecase.ServeFeed
}

// NewFeedHandler creates a new feed handler.
func NewFeedHandler(uc *usecase.ServeFeed) *FeedHandler {
	return &FeedHandler{uc: uc}
}

// Handle processes the feed endpoint. It is registered for every method so
// that non-GET requests are rejected here, before any cache or origin work.
func (h *FeedHandler) Handle(c echo.Context) error {
	if c.Request().Method != http.MethodGet {
		metrics.RecordResponse(http.StatusMethodNotAllowed)
		return c.String(http.StatusMethodNotAllowed, "Method not allowed")
	}

	key := domain.NewCacheKey(http.MethodGet, requestURL(c))
	ctx := logger.WithCacheKey(c.Request().Context(), key.String())
	result, err := h.uc.Execute(ctx, key)
	if err != nil {
		c.Response().Header().Set("Access-Control-Allow-Origin", "*")
		httpErr := mapDomainError(err)
		metrics.RecordResponse(httpErr.Code)
		return httpErr
	}

	resp := result.Response
	header := c.Response().Header()
	for name, values := range resp.Header {
		header[name] = append([]string(nil), values...)
	}
	if result.CacheHit {
		header.Set("X-Cache", "HIT")
	} else {
		header.Set("X-Cache", "MISS")
	}

	metrics.RecordResponse(resp.StatusCode)
	return c.Blob(resp.StatusCode, resp.Header.Get("Content-Type"), resp.Body)
}

// requestURL rebuilds the absolute URL the client asked for.
func requestURL(c echo.Context) *url.URL {
	req := c.Request()
	return &url.URL{
		Scheme:   c.Scheme(),
		Host:     req.Host,
		Path:     req.URL.Path,
		RawPath:  req.URL.RawPath,
		RawQuery: req.URL.RawQuery,
	}
}
