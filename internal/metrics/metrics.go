// Package metrics defines the Prometheus metrics exposed by the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Event dispatch metrics
	EventsTotal *prometheus.CounterVec

	// Scan classification metrics
	ScanOutcomesTotal *prometheus.CounterVec

	// Reply delivery metrics
	RepliesTotal *prometheus.CounterVec

	// Backend service metrics
	BackendRequestsTotal   *prometheus.CounterVec
	BackendDurationSeconds *prometheus.HistogramVec

	// Scheduler metrics
	ScheduledRepliesPending prometheus.Gauge

	// Conversation metrics
	ConversationsActive prometheus.Gauge

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	return &Metrics{
		EventsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "andybot_events_total",
				Help: "Total number of dispatched events by handler and status",
			},
			[]string{"handler", "status"}, // status: success, error, ignored
		),

		ScanOutcomesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "andybot_scan_outcomes_total",
				Help: "Total number of resolved scan codes by outcome kind",
			},
			[]string{"kind"}, // kind: stamp, daily_limit, checkin, activity, scavengerhunt, unclassified
		),

		RepliesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "andybot_replies_total",
				Help: "Total number of replies sent by template and status",
			},
			[]string{"template", "status"}, // status: success, error
		),

		BackendRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "andybot_backend_requests_total",
				Help: "Total number of backend service requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),

		BackendDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "andybot_backend_duration_seconds",
				Help:    "Backend service request duration in seconds by endpoint",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"endpoint"},
		),

		ScheduledRepliesPending: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "andybot_scheduled_replies_pending",
				Help: "Number of delayed replies waiting on their timer",
			},
		),

		ConversationsActive: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "andybot_conversations_active",
				Help: "Number of currently active conversations",
			},
		),

		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "andybot_rate_limiter_dropped_total",
				Help: "Total number of events dropped by rate limiting",
			},
			[]string{"limiter"},
		),
	}
}

// RecordEvent records the outcome of dispatching an event to a handler.
func (m *Metrics) RecordEvent(handler, status string) {
	m.EventsTotal.WithLabelValues(handler, status).Inc()
}

// RecordScanOutcome records a classified scan outcome.
func (m *Metrics) RecordScanOutcome(kind string) {
	m.ScanOutcomesTotal.WithLabelValues(kind).Inc()
}

// RecordReply records a sent (or failed) reply.
func (m *Metrics) RecordReply(template, status string) {
	m.RepliesTotal.WithLabelValues(template, status).Inc()
}

// RecordBackendRequest records a backend request with its duration.
func (m *Metrics) RecordBackendRequest(endpoint, status string, seconds float64) {
	m.BackendRequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.BackendDurationSeconds.WithLabelValues(endpoint).Observe(seconds)
}

// RecordRateLimiterDrop records an event dropped by a rate limiter.
func (m *Metrics) RecordRateLimiterDrop(limiter string) {
	m.RateLimiterDropped.WithLabelValues(limiter).Inc()
}
