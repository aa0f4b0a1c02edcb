// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_messages_processed_total",
			Help: "Total number of chat messages processed, by routed intent",
		},
		[]string{"intent"},
	)

	MessagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_messages_failed_total",
			Help: "Total number of chat messages that ended in an error",
		},
		[]string{"intent", "error_code"},
	)

	MessageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "agent_message_duration_seconds",
			Help: "Duration of message handling in seconds",
		},
		[]string{"intent"},
	)

	ReturnsFinalized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_returns_finalized_total",
			Help: "Total number of return drafts persisted as records",
		},
	)

	StorageFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_storage_failures_total",
			Help: "Total number of failed storage operations",
		},
		[]string{"operation"},
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "agent_search_duration_seconds",
			Help: "Duration of relevance search in seconds",
		},
		[]string{"source"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agent_sessions_active",
			Help: "Number of sessions with an open return draft",
		},
	)
)
