package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed/rss"

	"feed-proxy/internal/domain"
)

// StructuralExtractor parses the document as RSS with gofeed.
// Unlike PatternExtractor it rejects documents that are not well-formed RSS.
type StructuralExtractor struct {
	maxItems int
}

// NewStructuralExtractor creates an extractor capped at maxItems entries.
func NewStructuralExtractor(maxItems int) *StructuralExtractor {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &StructuralExtractor{maxItems: maxItems}
}

// Extract implements domain.FeedExtractor.
func (e *StructuralExtractor) Extract(raw []byte) ([]domain.FeedItem, error) {
	fp := &rss.Parser{}
	feed, err := fp.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExtraction, err)
	}

	n := min(len(feed.Items), e.maxItems)
	items := make([]domain.FeedItem, 0, n)
	for _, it := range feed.Items[:n] {
		if it == nil {
			continue
		}
		items = append(items, domain.FeedItem{
			Title:       it.Title,
			Link:        strings.TrimSpace(it.Link),
			PublishedAt: it.PubDate,
			Summary:     it.Description,
		})
	}
	return items, nil
}

// New returns the extractor registered under name.
func New(name string, maxItems int) (domain.FeedExtractor, error) {
	switch strings.ToLower(name) {
	case "", "pattern":
		return NewPatternExtractor(maxItems), nil
	case "structural", "gofeed":
		return NewStructuralExtractor(maxItems), nil
	default:
		return nil, fmt.Errorf("unknown extractor %q", name)
	}
}
