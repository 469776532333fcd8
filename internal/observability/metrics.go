package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus metrics for suite runs: test executions and
// verdicts, LLM call latency, RAG query latency, and per-phase durations.
type Metrics struct {
	// TestExecutionCounter counts executed test cases.
	// Labels: category, verdict (pass|fail)
	TestExecutionCounter *prometheus.CounterVec

	// TestExecutionDuration measures per-test wall time in seconds.
	// Labels: category
	TestExecutionDuration *prometheus.HistogramVec

	// LLMRequestCounter counts LLM requests by provider, model, and status.
	// Labels: provider, model, status (success|error)
	LLMRequestCounter *prometheus.CounterVec

	// LLMRequestDuration measures LLM API call latency in seconds.
	// Labels: provider, model
	LLMRequestDuration *prometheus.HistogramVec

	// RAGQueryCounter counts knowledge-base probes.
	// Labels: backend (ragengine|qdrant), status (success|error)
	RAGQueryCounter *prometheus.CounterVec

	// RAGQueryDuration measures knowledge-base probe latency in seconds.
	// Labels: backend
	RAGQueryDuration *prometheus.HistogramVec

	// PhaseDuration measures how long each flow phase takes in seconds.
	// Labels: phase
	PhaseDuration *prometheus.HistogramVec

	// ErrorCounter tracks errors by component and error type.
	// Labels: component (flow|target|judge|rag|crew), error_type
	ErrorCounter *prometheus.CounterVec
}

// NewMetrics creates and registers all suite metrics on the given registerer.
// Pass prometheus.DefaultRegisterer for the process-wide registry, or a fresh
// registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TestExecutionCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragsuite_test_executions_total",
				Help: "Total number of executed test cases by category and verdict",
			},
			[]string{"category", "verdict"},
		),

		TestExecutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ragsuite_test_execution_duration_seconds",
				Help:    "Wall time per executed test case in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"category"},
		),

		LLMRequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragsuite_llm_requests_total",
				Help: "Total number of LLM requests by provider, model, and status",
			},
			[]string{"provider", "model", "status"},
		),

		LLMRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ragsuite_llm_request_duration_seconds",
				Help:    "Duration of LLM API requests in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider", "model"},
		),

		RAGQueryCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragsuite_rag_queries_total",
				Help: "Total number of knowledge-base queries by backend and status",
			},
			[]string{"backend", "status"},
		),

		RAGQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ragsuite_rag_query_duration_seconds",
				Help:    "Duration of knowledge-base queries in seconds",
				Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"backend"},
		),

		PhaseDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ragsuite_phase_duration_seconds",
				Help:    "Duration of each flow phase in seconds",
				Buckets: []float64{0.1, 1, 5, 15, 60, 300, 900, 1800},
			},
			[]string{"phase"},
		),

		ErrorCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragsuite_errors_total",
				Help: "Total number of errors by component and error type",
			},
			[]string{"component", "error_type"},
		),
	}
}

// RecordTestExecution records one executed test case.
func (m *Metrics) RecordTestExecution(category string, passed bool, durationSeconds float64) {
	verdict := "fail"
	if passed {
		verdict = "pass"
	}
	m.TestExecutionCounter.WithLabelValues(category, verdict).Inc()
	m.TestExecutionDuration.WithLabelValues(category).Observe(durationSeconds)
}

// RecordLLMRequest records one LLM API call.
func (m *Metrics) RecordLLMRequest(provider, model, status string, durationSeconds float64) {
	m.LLMRequestCounter.WithLabelValues(provider, model, status).Inc()
	m.LLMRequestDuration.WithLabelValues(provider, model).Observe(durationSeconds)
}

// RecordRAGQuery records one knowledge-base probe.
func (m *Metrics) RecordRAGQuery(backend, status string, durationSeconds float64) {
	m.RAGQueryCounter.WithLabelValues(backend, status).Inc()
	m.RAGQueryDuration.WithLabelValues(backend).Observe(durationSeconds)
}

// RecordPhase records the duration of one flow phase.
func (m *Metrics) RecordPhase(phase string, durationSeconds float64) {
	m.PhaseDuration.WithLabelValues(phase).Observe(durationSeconds)
}

// RecordError increments the error counter for a component and error type.
func (m *Metrics) RecordError(component, errorType string) {
	m.ErrorCounter.WithLabelValues(component, errorType).Inc()
}
