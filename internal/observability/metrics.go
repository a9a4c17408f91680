package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	AggregationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aggregation_duration_seconds",
			Help:    "Duration of a full dashboard aggregation in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		},
	)

	AggregationCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregation_cache_total",
			Help: "Aggregation cache lookups by result",
		},
		[]string{"result"},
	)

	SourceQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "source_query_duration_seconds",
			Help:    "Duration of record source queries in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 16),
		},
		[]string{"op"},
	)

	QualityScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quality_scans_total",
			Help: "Uploaded file quality scans by outcome",
		},
		[]string{"outcome"},
	)
)

// Cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)
