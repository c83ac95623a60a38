package domain

// FeedItem is one syndicated entry as served to the browser client.
// Field values are copied verbatim from the source document; formatting,
// tag stripping and truncation are left to the consumer.
type FeedItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	PublishedAt string `json:"pubDate"`
	Summary     string `json:"description"`
}

// FeedResponse is the wire payload of the feed endpoint.
type FeedResponse struct {
	Items []FeedItem `json:"items"`
}

// NewFeedResponse wraps items so that an empty result still serializes as [].
func NewFeedResponse(items []FeedItem) FeedResponse {
	if items == nil {
		items = []FeedItem{}
	}
	return FeedResponse{Items: items}
}
