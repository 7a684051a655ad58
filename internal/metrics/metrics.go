package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Classifications by resulting category, including the short-input sentinel
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_classifier_classifications_total",
			Help: "Total number of emails classified",
		},
		[]string{"category"},
	)

	// Zero-shot backend call latency in seconds
	ClassifierLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "email_classifier_backend_latency_seconds",
			Help:    "Classifier backend call latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"provider", "status"},
	)

	// Inference cache lookups by outcome
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_classifier_cache_lookups_total",
			Help: "Inference cache lookups",
		},
		[]string{"result"}, // result: hit, miss, error
	)

	FetchedMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_classifier_fetched_messages_total",
			Help: "Messages pulled from a mailbox",
		},
		[]string{"status"}, // status: kept, short, failed
	)

	FilteredMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "email_classifier_filtered_messages_total",
			Help: "Messages passed through the SMTP content filter",
		},
		[]string{"status"}, // status: classified, whitelisted, error, relay_failed
	)
)

// RecordClassification counts one classification result
func RecordClassification(category string) {
	ClassificationsTotal.WithLabelValues(category).Inc()
}

// RecordClassifierLatency records one backend call
func RecordClassifierLatency(provider, status string, duration time.Duration) {
	ClassifierLatency.WithLabelValues(provider, status).Observe(duration.Seconds())
}

// RecordCacheLookup counts a cache lookup outcome
func RecordCacheLookup(result string) {
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

// IncrementFetched counts a fetched message by outcome
func IncrementFetched(status string) {
	FetchedMessagesTotal.WithLabelValues(status).Inc()
}

// IncrementFiltered counts a filtered message by outcome
func IncrementFiltered(status string) {
	FilteredMessagesTotal.WithLabelValues(status).Inc()
}
