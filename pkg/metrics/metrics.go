// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks outbound API request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total outbound API requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total API requests",
		},
		[]string{"method", "path", "status"},
	)

	// TokenRefreshesTotal tracks refresh attempts after a 401.
	TokenRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_token_refreshes_total",
			Help: "Total access token refresh attempts",
		},
		[]string{"outcome"},
	)

	// SessionsExpiredTotal tracks terminal auth failures.
	SessionsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_sessions_expired_total",
			Help: "Total sessions ended by an irrecoverable auth failure",
		},
	)

	// CacheReadsTotal tracks cache reads by outcome (hit, miss, corrupt).
	CacheReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_reads_total",
			Help: "Total cache reads",
		},
		[]string{"key", "outcome"},
	)

	// ChatPollsTotal tracks incremental message polls.
	ChatPollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_polls_total",
			Help: "Total incremental chat polls",
		},
		[]string{"outcome"},
	)

	// ChatMessagesMerged tracks messages merged from incremental polls.
	ChatMessagesMerged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_messages_merged_total",
			Help: "Total messages merged into open conversations",
		},
	)

	// OptimisticRollbacksTotal tracks sends rolled back after a failure.
	OptimisticRollbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_optimistic_rollbacks_total",
			Help: "Total optimistic sends rolled back",
		},
	)

	// RemindersScheduledTotal tracks planner reminders by outcome.
	RemindersScheduledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planner_reminders_scheduled_total",
			Help: "Total planner reminders scheduled",
		},
		[]string{"outcome"},
	)
)

// RecordRequest records metrics for an outbound API request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordCacheRead records a cache read outcome.
func RecordCacheRead(key, outcome string) {
	CacheReadsTotal.WithLabelValues(key, outcome).Inc()
}

// RecordPoll records an incremental poll outcome.
func RecordPoll(outcome string, merged int) {
	ChatPollsTotal.WithLabelValues(outcome).Inc()
	if merged > 0 {
		ChatMessagesMerged.Add(float64(merged))
	}
}
