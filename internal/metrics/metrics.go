// Docent - Edge Personalization Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/docent

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of requests handled by the proxy",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Time to the end of the response body, in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Current number of in-flight requests",
		},
	)

	// Upstream Metrics (origin, recommender, catalog)
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of requests sent to upstream services",
		},
		[]string{"upstream", "outcome"}, // outcome: "ok", "error", "status_4xx", "status_5xx"
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Upstream request latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"upstream"},
	)

	UpstreamRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_retries_total",
			Help: "Total number of retried upstream requests",
		},
		[]string{"upstream"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Catalog Cache Metrics
	CatalogCacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_results_total",
			Help: "Catalog cache lookups by result",
		},
		[]string{"result"}, // result: "fresh", "stale", "miss"
	)

	CatalogCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_cache_entries",
			Help: "Current number of cached catalog objects",
		},
	)

	CatalogCacheSweeps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_cache_sweeps_total",
			Help: "Total number of scheduled cache sweeps",
		},
	)

	CatalogObjectsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_objects_dropped_total",
			Help: "Recommended objects dropped because their metadata could not be resolved",
		},
	)

	// Recommendation Metrics
	RecommenderLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommender_latency_seconds",
			Help:    "Round-trip time of the recommender call as reported to clients",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	SuggestionsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "suggestions_returned",
			Help:    "Number of objects in each suggestions response",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	// Rewriter Metrics
	RewriterDocuments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rewriter_documents_total",
			Help: "HTML documents streamed through the rewriter",
		},
		[]string{"result"}, // result: "injected", "straddled", "no_marker"
	)

	// Session Metrics
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_created_total",
			Help: "Total number of new visitor sessions",
		},
	)

	SessionCookiesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "session_cookies_issued_total",
			Help: "Total number of Set-Cookie headers emitted",
		},
	)
)

// RecordHTTPRequest records one completed request.
func RecordHTTPRequest(method, route, statusCode string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight requests.
func TrackActiveRequest(inc bool) {
	if inc {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}

// RecordUpstreamRequest records one upstream attempt. status is 0 when no
// response was received.
func RecordUpstreamRequest(upstream string, status int, duration time.Duration, err error) {
	UpstreamRequestsTotal.WithLabelValues(upstream, upstreamOutcome(status, err)).Inc()
	UpstreamRequestDuration.WithLabelValues(upstream).Observe(duration.Seconds())
}

func upstreamOutcome(status int, err error) string {
	switch {
	case err != nil && status == 0:
		return "error"
	case status >= 500:
		return "status_5xx"
	case status >= 400:
		return "status_4xx"
	default:
		return "ok"
	}
}

// RecordUpstreamRetry counts a retried upstream request.
func RecordUpstreamRetry(upstream string) {
	UpstreamRetries.WithLabelValues(upstream).Inc()
}

// RecordCacheResult counts a catalog cache lookup: fresh, stale or miss.
func RecordCacheResult(result string) {
	CatalogCacheResults.WithLabelValues(result).Inc()
}

// RecordRewrite counts a finished HTML document by outcome.
func RecordRewrite(injected, straddled bool) {
	switch {
	case injected:
		RewriterDocuments.WithLabelValues("injected").Inc()
	case straddled:
		RewriterDocuments.WithLabelValues("straddled").Inc()
	default:
		RewriterDocuments.WithLabelValues("no_marker").Inc()
	}
}

// RecordSuggestions records one suggestions response.
func RecordSuggestions(recommenderTime time.Duration, objects, dropped int) {
	RecommenderLatency.Observe(recommenderTime.Seconds())
	SuggestionsReturned.Observe(float64(objects))
	if dropped > 0 {
		CatalogObjectsDropped.Add(float64(dropped))
	}
}
