package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordTestExecution(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordTestExecution("factual", true, 1.5)
	m.RecordTestExecution("factual", false, 2.0)
	m.RecordTestExecution("reasoning", true, 0.5)

	if got := testutil.ToFloat64(m.TestExecutionCounter.WithLabelValues("factual", "pass")); got != 1 {
		t.Errorf("factual pass count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TestExecutionCounter.WithLabelValues("factual", "fail")); got != 1 {
		t.Errorf("factual fail count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TestExecutionCounter.WithLabelValues("reasoning", "pass")); got != 1 {
		t.Errorf("reasoning pass count = %v, want 1", got)
	}
}

func TestRecordLLMRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordLLMRequest("openai", "gpt-4o-mini", "success", 0.8)
	m.RecordLLMRequest("openai", "gpt-4o-mini", "error", 0.1)

	if got := testutil.ToFloat64(m.LLMRequestCounter.WithLabelValues("openai", "gpt-4o-mini", "success")); got != 1 {
		t.Errorf("success count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LLMRequestCounter.WithLabelValues("openai", "gpt-4o-mini", "error")); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
}

func TestRecordRAGQueryAndErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.RecordRAGQuery("qdrant", "success", 0.2)
	m.RecordError("target", "timeout")
	m.RecordError("target", "timeout")

	if got := testutil.ToFloat64(m.RAGQueryCounter.WithLabelValues("qdrant", "success")); got != 1 {
		t.Errorf("rag query count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ErrorCounter.WithLabelValues("target", "timeout")); got != 2 {
		t.Errorf("error count = %v, want 2", got)
	}
}

func TestSeparateRegistries(t *testing.T) {
	// Two metric sets on separate registries must not collide.
	a := NewMetrics(prometheus.NewRegistry())
	b := NewMetrics(prometheus.NewRegistry())

	a.RecordPhase("discover", 3.0)
	if a.PhaseDuration == b.PhaseDuration {
		t.Error("expected independent metric vectors per registry")
	}
}
