// Package metrics provides Prometheus metrics for the Disscount backend.
// Scrape these at /metrics for Grafana dashboards and alerting.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "disscount_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "disscount_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Cijene API Metrics
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "disscount_cijene_requests_total",
			Help: "Total number of Cijene API requests by endpoint and status",
		},
		[]string{"endpoint", "status"}, // status: HTTP code, "timeout" or "error"
	)

	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "disscount_cijene_latency_seconds",
			Help:    "Cijene API call latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"},
	)

	UpstreamCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "disscount_cijene_cache_hits_total",
			Help: "Product search responses served from the in-memory cache",
		},
	)

	UpstreamCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "disscount_cijene_cache_misses_total",
			Help: "Product searches that went to the Cijene API",
		},
	)

	// Aggregation Metrics
	AggregateCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "disscount_aggregate_cache_hits_total",
			Help: "Price aggregates served from the per-snapshot memo",
		},
	)

	AggregateCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "disscount_aggregate_cache_misses_total",
			Help: "Price aggregates computed from scratch",
		},
	)

	// Search Session Metrics
	SearchSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "disscount_search_sessions_active",
			Help: "Number of live incremental search sessions",
		},
	)

	SearchBatchesRevealed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "disscount_search_batches_revealed_total",
			Help: "Batches revealed in search sessions",
		},
		[]string{"trigger"}, // "more", "scroll", "query"
	)

	// Snapshot Metrics
	SnapshotRowsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "disscount_snapshot_rows_written_total",
			Help: "Price snapshot rows upserted",
		},
	)

	SnapshotRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "disscount_snapshot_run_duration_seconds",
			Help:    "Time taken to take a full price snapshot",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	SnapshotErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "disscount_snapshot_errors_total",
			Help: "Products that failed to snapshot",
		},
	)

	WatchlistPriceChanges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "disscount_watchlist_price_changes_total",
			Help: "Watched products whose lowest price moved between snapshots",
		},
	)

	// Shopping List Metrics
	ShoppingListsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "disscount_shopping_lists_total",
			Help: "Number of stored shopping lists",
		},
	)
)

// GinMiddleware records request counts and latency per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
