// Package extractor turns raw RSS documents into domain feed items.
package extractor

import (
	"regexp"
	"strings"

	"feed-proxy/internal/domain"
)

// DefaultMaxItems is the number of entries served when no cap is configured.
const DefaultMaxItems = 5

var (
	itemPattern        = regexp.MustCompile(`<item>([\s\S]*?)</item>`)
	titlePattern       = regexp.MustCompile(`<title><!\[CDATA\[(.*?)\]\]></title>`)
	linkPattern        = regexp.MustCompile(`<link>(.*?)</link>`)
	pubDatePattern     = regexp.MustCompile(`<pubDate>(.*?)</pubDate>`)
	descriptionPattern = regexp.MustCompile(`<description><!\[CDATA\[([\s\S]*?)\]\]></description>`)
)

// PatternExtractor scans the document syntactically instead of parsing it.
// It expects <item> blocks with CDATA-wrapped title and description and plain
// link and pubDate elements. A field that does not match is left empty.
type PatternExtractor struct {
	maxItems int
}

// NewPatternExtractor creates an extractor capped at maxItems entries.
func NewPatternExtractor(maxItems int) *PatternExtractor {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &PatternExtractor{maxItems: maxItems}
}

// Extract implements domain.FeedExtractor.
func (e *PatternExtractor) Extract(raw []byte) ([]domain.FeedItem, error) {
	blocks := itemPattern.FindAllSubmatch(raw, e.maxItems)

	items := make([]domain.FeedItem, 0, len(blocks))
	for _, block := range blocks {
		content := block[1]
		items = append(items, domain.FeedItem{
			Title:       firstGroup(titlePattern, content),
			Link:        strings.TrimSpace(firstGroup(linkPattern, content)),
			PublishedAt: firstGroup(pubDatePattern, content),
			Summary:     firstGroup(descriptionPattern, content),
		})
	}
	return items, nil
}

func firstGroup(re *regexp.Regexp, content []byte) string {
	m := re.FindSubmatch(content)
	if m == nil {
		return ""
	}
	return string(m[1])
}
