// Package metrics provides Prometheus metrics for the article API.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "articles"

// Outcomes recorded for article writes.
const (
	OutcomeSuccess  = "success"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

var (
	// RequestsTotal counts handled HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by operation, method and status",
		},
		[]string{"operation", "method", "status"},
	)

	// RequestDuration measures HTTP request latency.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "method"},
	)

	// ArticleWritesTotal counts create, update and delete attempts by outcome.
	ArticleWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "writes_total",
			Help:      "Total number of article writes by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// RateLimitedTotal counts requests rejected by the rate limiter.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		},
	)
)

// RecordRequest records a completed HTTP request.
func RecordRequest(operation, method string, status int, seconds float64) {
	if operation == "" {
		operation = "unknown"
	}
	RequestsTotal.WithLabelValues(operation, method, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(operation, method).Observe(seconds)
}

// RecordArticleWrite records an article write attempt.
func RecordArticleWrite(operation, outcome string) {
	ArticleWritesTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordRateLimited records a rejected request.
func RecordRateLimited() {
	RateLimitedTotal.Inc()
}
