// Package metrics holds the gateway's Prometheus collectors.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for UpstreamRequests.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeRejected    = "rejected" // circuit open
	OutcomeStatusError = "status_error"
)

var (
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whib_upstream_requests_total",
			Help: "Outbound requests to backends by outcome",
		},
		[]string{"backend", "outcome"},
	)

	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "whib_upstream_request_duration_seconds",
			Help:    "Latency of outbound backend requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "whib_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"backend"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whib_http_requests_total",
			Help: "Inbound HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "whib_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	AuditEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whib_audit_events_total",
			Help: "Audit events by type and delivery result",
		},
		[]string{"type", "result"},
	)
)

// ObserveUpstream records one finished backend call.
func ObserveUpstream(backend, outcome string, took time.Duration) {
	UpstreamRequests.WithLabelValues(backend, outcome).Inc()
	UpstreamDuration.WithLabelValues(backend).Observe(took.Seconds())
}

// ObserveHTTP records one served request. route is the matched route
// pattern, not the raw path, to keep label cardinality bounded.
func ObserveHTTP(method, route string, status int, took time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(took.Seconds())
}
