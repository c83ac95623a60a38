package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"feed-proxy/internal/domain"
)

// OriginGateway fetches the fixed upstream feed document.
// Implements domain.FeedSource.
type OriginGateway struct {
	feedURL  string
	client   *http.Client
	maxBytes int64
}

// NewOriginGateway creates a gateway for feedURL. A zero timeout leaves the
// fetch bounded only by the caller's context. maxBytes <= 0 disables the cap.
func NewOriginGateway(feedURL string, timeout time.Duration, maxBytes int64) *OriginGateway {
	return &OriginGateway{
		feedURL:  feedURL,
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
}

// NewOriginGatewayWithClient creates a gateway using an existing HTTP client.
func NewOriginGatewayWithClient(feedURL string, client *http.Client, maxBytes int64) *OriginGateway {
	return &OriginGateway{feedURL: feedURL, client: client, maxBytes: maxBytes}
}

// FetchFeed performs a plain GET against the origin and buffers the whole body.
func (g *OriginGateway) FetchFeed(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build origin request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &domain.OriginError{StatusCode: resp.StatusCode}
	}

	var body io.Reader = resp.Body
	if g.maxBytes > 0 {
		body = io.LimitReader(resp.Body, g.maxBytes+1)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, &domain.NetworkError{Cause: err}
	}
	if g.maxBytes > 0 && int64(len(raw)) > g.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", domain.ErrFeedTooLarge, g.maxBytes)
	}
	return raw, nil
}
