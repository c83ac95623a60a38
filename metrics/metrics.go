// Package metrics provides Prometheus metrics for feed-proxy.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheLookupsTotal counts edge cache lookups by result.
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "feedproxy",
			Name:      "cache_lookups_total",
			Help:      "Total number of edge cache lookups",
		},
		[]string{"result"},
	)

	// OriginFetchDuration measures origin fetch duration.
	OriginFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "feedproxy",
			Name:      "origin_fetch_duration_seconds",
			Help:      "Duration of origin feed fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	// ItemsExtracted observes the number of items per extraction pass.
	ItemsExtracted = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "feedproxy",
			Name:      "items_extracted",
			Help:      "Distribution of items extracted per origin fetch",
			Buckets:   []float64{0, 1, 2, 3, 4, 5, 10, 25},
		},
	)

	// CachePopulateTotal counts background cache writes.
	CachePopulateTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "feedproxy",
			Name:      "cache_populate_total",
			Help:      "Total number of background cache populate tasks",
		},
		[]string{"status"},
	)

	// ResponsesTotal counts responses from the feed endpoint by status code.
	ResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "feedproxy",
			Name:      "responses_total",
			Help:      "Total number of feed endpoint responses",
		},
		[]string{"code"},
	)
)

// RecordCacheLookup records a cache hit, miss or error.
func RecordCacheLookup(result string) {
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordOriginFetch records an origin fetch outcome.
func RecordOriginFetch(status string, seconds float64) {
	OriginFetchDuration.WithLabelValues(status).Observe(seconds)
}

// RecordItemsExtracted records the size of one extraction result.
func RecordItemsExtracted(n int) {
	ItemsExtracted.Observe(float64(n))
}

// RecordCachePopulate records a background cache write.
func RecordCachePopulate(err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	CachePopulateTotal.WithLabelValues(status).Inc()
}

// RecordResponse records a feed endpoint response.
func RecordResponse(code int) {
	ResponsesTotal.WithLabelValues(strconv.Itoa(code)).Inc()
}
