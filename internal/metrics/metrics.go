// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// MessagesTotal tracks generated assistant messages by outcome.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_messages_total",
			Help: "Total assistant messages generated",
		},
		[]string{"outcome"},
	)

	// RetrievalsTotal tracks retrieval pipeline runs by outcome:
	// answered, empty, skipped, failed.
	RetrievalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retrievals_total",
			Help: "Total knowledge base retrieval runs",
		},
		[]string{"outcome"},
	)

	// RetrievalDuration tracks end-to-end retrieval pipeline duration.
	RetrievalDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "retrieval_duration_seconds",
			Help:    "Knowledge base retrieval duration in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		},
	)

	// LLMTokensTotal tracks LLM tokens by model and direction.
	LLMTokensTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Total LLM tokens processed",
		},
		[]string{"model", "direction"},
	)

	// SSEConnectionsActive tracks active SSE streams.
	SSEConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	// IngestJobsTotal tracks ingestion jobs by stage outcome.
	IngestJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_jobs_total",
			Help: "Total ingestion jobs processed",
		},
		[]string{"stage", "outcome"},
	)

	// IngestQueueWaiting tracks jobs waiting in the ingestion queue.
	IngestQueueWaiting = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_queue_waiting",
			Help: "Jobs waiting in the ingestion queue",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordRetrieval records one retrieval pipeline run.
func RecordRetrieval(outcome string, duration float64) {
	RetrievalsTotal.WithLabelValues(outcome).Inc()
	RetrievalDuration.Observe(duration)
}

// RecordTokens records LLM token usage for a completed generation.
func RecordTokens(model string, promptTokens, completionTokens int) {
	LLMTokensTotal.WithLabelValues(model, "in").Add(float64(promptTokens))
	LLMTokensTotal.WithLabelValues(model, "out").Add(float64(completionTokens))
}

// IncrementSSEConnections increments the active SSE connection count.
func IncrementSSEConnections() {
	SSEConnectionsActive.Inc()
}

// DecrementSSEConnections decrements the active SSE connection count.
func DecrementSSEConnections() {
	SSEConnectionsActive.Dec()
}
