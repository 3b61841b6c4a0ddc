package telemetry

import (
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/emaadiliX/retail-operations-copilot/config"
)

// Prometheus collectors for the copilot. Registered via promauto on the
// default registry, exposed through /metrics on the HTTP server.
var (
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "copilot",
			Name:      "pipeline_runs_total",
			Help:      "Total pipeline runs",
		},
		[]string{"status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "copilot",
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"stage", "status"},
	)

	RetrievalRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "copilot",
			Name:      "retrieval_requests_total",
			Help:      "Total retrieval requests",
		},
		[]string{"mode", "outcome"}, // mode "single"/"multi", outcome "found"/"not_found"
	)

	RetrievalChunksReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "copilot",
			Name:      "retrieval_chunks_returned",
			Help:      "Chunks returned per retrieval after the similarity gate",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
	)

	EmbeddingRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "copilot",
			Name:      "embedding_requests_total",
			Help:      "Total embedding API requests",
		},
		[]string{"status"},
	)

	EmbeddingTokensTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "copilot",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
	)

	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "copilot",
			Name:      "tool_calls_total",
			Help:      "Tool invocations made by the research stage",
		},
		[]string{"tool", "outcome"},
	)
)

// Telemetry records pipeline and retrieval events. Recording is a no-op
// when disabled in config.
type Telemetry struct {
	enabled bool
	logger  *log.Logger
}

// NewTelemetry creates a new telemetry instance
func NewTelemetry(cfg config.TelemetryConfig) *Telemetry {
	return &Telemetry{
		enabled: cfg.Enabled,
		logger:  log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
	}
}

// Enabled reports whether event recording is active.
func (t *Telemetry) Enabled() bool { return t != nil && t.enabled }

// RecordRun records the outcome of a whole pipeline run.
func (t *Telemetry) RecordRun(runID string, duration time.Duration, err error) {
	if !t.Enabled() {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	PipelineRunsTotal.WithLabelValues(status).Inc()
	t.logger.Printf("run %s finished in %s (status=%s)", runID, duration, status)
}

// RecordStageEvent records one pipeline stage execution.
func (t *Telemetry) RecordStageEvent(stage string, duration time.Duration, err error) {
	if !t.Enabled() {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	StageDuration.WithLabelValues(stage, status).Observe(duration.Seconds())
	t.logger.Printf("stage %s took %s (status=%s)", stage, duration, status)
}

// RecordRetrievalEvent records a retrieval request and its yield.
func (t *Telemetry) RecordRetrievalEvent(mode string, found bool, chunks int) {
	if !t.Enabled() {
		return
	}
	outcome := "found"
	if !found {
		outcome = "not_found"
	}
	RetrievalRequestsTotal.WithLabelValues(mode, outcome).Inc()
	RetrievalChunksReturned.Observe(float64(chunks))
}

// RecordEmbeddingUsage records one embedding API call.
func (t *Telemetry) RecordEmbeddingUsage(tokens int, err error) {
	if !t.Enabled() {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	EmbeddingRequestsTotal.WithLabelValues(status).Inc()
	if tokens > 0 {
		EmbeddingTokensTotal.Add(float64(tokens))
	}
}

// RecordToolCall records a research-stage tool invocation.
func (t *Telemetry) RecordToolCall(tool string, found bool) {
	if !t.Enabled() {
		return
	}
	outcome := "found"
	if !found {
		outcome = "not_found"
	}
	ToolCallsTotal.WithLabelValues(tool, outcome).Inc()
}
