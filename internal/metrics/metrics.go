// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "notes_assistant"

var (
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ChatTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Chat turns by classified intent and finish reason",
		},
		[]string{"intent", "finish_reason"},
	)

	ChatSteps = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chat_steps_per_turn",
			Help:      "Model steps used per chat turn",
			Buckets:   []float64{1, 2, 3, 4, 5, 8},
		},
	)

	ToolCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool invocations by tool and outcome",
		},
		[]string{"tool", "outcome"},
	)

	ClassificationFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classification_fallbacks_total",
			Help:      "Turns routed to general because classification failed",
		},
	)

	VectorDeleteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vector_delete_failures_total",
			Help:      "Index entries left behind after the source record was deleted",
		},
		[]string{"kind"},
	)

	PanicsRecovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_panics_recovered_total",
			Help:      "Handler panics turned into 500 responses",
		},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Requests rejected by the per-client limiter",
		},
		[]string{"route"},
	)

	EmbeddingCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_lookups_total",
			Help:      "Embedding cache lookups by result",
		},
		[]string{"result"},
	)
)

// UnknownTool labels calls to tools that are not offered, so model output
// never becomes a label value.
const UnknownTool = "unknown"

// Tool call outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeRefused  = "refused"
	OutcomeDeferred = "deferred"
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
