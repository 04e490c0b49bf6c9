package metrics

import "github.com/prometheus/client_golang/prometheus"

// Feed Prometheus metrics.
var (
	FeedPagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stixfeed",
			Name:      "feed_pages_total",
			Help:      "Total number of feed pages served",
		},
		[]string{"endpoint", "status"}, // endpoint: "objects" / "manifest"
	)

	FeedObjectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stixfeed",
			Name:      "feed_objects_total",
			Help:      "Total number of objects or manifest entries served",
		},
		[]string{"endpoint"},
	)

	FeedOmittedRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stixfeed",
			Name:      "feed_omitted_records_total",
			Help:      "Page references that could not be materialized",
		},
	)

	StoreRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stixfeed",
			Name:      "store_request_duration_seconds",
			Help:      "Object store round-trip duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"operation"}, // "query" / "load"
	)
)

var feedMetricsRegistered bool

// RegisterFeedMetrics registers Prometheus feed metrics. Must be called once from main.
func RegisterFeedMetrics() {
	if feedMetricsRegistered {
		return
	}
	prometheus.MustRegister(FeedPagesTotal)
	prometheus.MustRegister(FeedObjectsTotal)
	prometheus.MustRegister(FeedOmittedRecordsTotal)
	prometheus.MustRegister(StoreRequestDuration)
	feedMetricsRegistered = true
}
