// Package observability exposes Prometheus metrics and health probes for
// the session orchestrator.
package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Session lifecycle metrics
	sessionsStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calmloop_sessions_started_total",
			Help: "Total number of therapeutic sessions started",
		},
		[]string{"emotion"},
	)

	sessionsEndedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calmloop_sessions_ended_total",
			Help: "Total number of therapeutic sessions ended",
		},
		[]string{"reason"},
	)

	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "calmloop_active_sessions",
			Help: "Number of currently active sessions",
		},
	)

	// Turn metrics
	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calmloop_turns_total",
			Help: "Total number of processed conversation turns",
		},
		[]string{"input", "source"},
	)

	turnDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "calmloop_turn_duration_seconds",
			Help:    "Turn processing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// Resilience metrics
	durableFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calmloop_durable_failures_total",
			Help: "Total number of durable-tier write failures (sessions continue memory-only)",
		},
		[]string{"op"},
	)

	adapterFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "calmloop_adapter_fallbacks_total",
			Help: "Total number of turns answered by the fallback responder",
		},
	)

	// Finalization metrics
	finalizeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "calmloop_finalize_duration_seconds",
			Help:    "Session finalization duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	journalEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "calmloop_journal_entries_total",
			Help: "Total number of derived journal entries",
		},
		[]string{"status"},
	)

	initOnce sync.Once
)

// InitMetrics registers all Prometheus metrics.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			sessionsStartedTotal,
			sessionsEndedTotal,
			activeSessions,
			turnsTotal,
			turnDuration,
			durableFailuresTotal,
			adapterFallbacksTotal,
			finalizeDuration,
			journalEntriesTotal,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordSessionStarted records a session start.
func RecordSessionStarted(emotion string) {
	sessionsStartedTotal.WithLabelValues(emotion).Inc()
}

// RecordSessionEnded records a session end ("user" or "reaped").
func RecordSessionEnded(reason string) {
	sessionsEndedTotal.WithLabelValues(reason).Inc()
}

// SetActiveSessions sets the active sessions gauge.
func SetActiveSessions(count int) {
	activeSessions.Set(float64(count))
}

// RecordTurn records a processed turn. input is "text" or "audio"; source
// is "live" or "fallback".
func RecordTurn(input, source string, duration time.Duration) {
	turnsTotal.WithLabelValues(input, source).Inc()
	turnDuration.WithLabelValues(source).Observe(duration.Seconds())
	if source == "fallback" {
		adapterFallbacksTotal.Inc()
	}
}

// RecordDurableFailure records a durable-tier write failure.
func RecordDurableFailure(op string) {
	durableFailuresTotal.WithLabelValues(op).Inc()
}

// RecordFinalize records a finalization outcome ("ok" or "error").
func RecordFinalize(status string, duration time.Duration) {
	finalizeDuration.Observe(duration.Seconds())
	journalEntriesTotal.WithLabelValues(status).Inc()
}
