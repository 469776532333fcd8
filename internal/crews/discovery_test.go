package crews

import (
	"context"
	"testing"
)

func TestDiscoveryParsesValidOutput(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		`{"domains": [{"name": "HR Policies", "subtopics": ["leave", "benefits"], "depth": "deep"}],
		  "boundaries": ["engineering topics"],
		  "total_coverage_estimate": "HR knowledge base",
		  "quality_notes": "good retrieval"}`,
	}}
	d := NewDiscovery(deps(provider), &scriptedRAG{response: "HR content"}, 2)

	summary := d.Run(context.Background(), "HR assistant")
	if summary == nil {
		t.Fatal("summary is nil")
	}
	if len(summary.Domains) != 1 || summary.Domains[0].Name != "HR Policies" {
		t.Errorf("domains = %+v", summary.Domains)
	}
	if summary.TotalCoverageEstimate != "HR knowledge base" {
		t.Errorf("coverage = %q", summary.TotalCoverageEstimate)
	}
	if provider.calls != 1 {
		t.Errorf("calls = %d, want 1", provider.calls)
	}
}

func TestDiscoveryRetriesOnInvalidOutput(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"I could not map the knowledge base.",
		`{"domains": [{"name": "Support"}]}`,
	}}
	d := NewDiscovery(deps(provider), &scriptedRAG{response: "content"}, 3)

	summary := d.Run(context.Background(), "")
	if len(summary.Domains) != 1 || summary.Domains[0].Name != "Support" {
		t.Errorf("domains = %+v", summary.Domains)
	}
	if provider.calls != 2 {
		t.Errorf("calls = %d, want 2", provider.calls)
	}
}

func TestDiscoveryFallbackMatchesTopicMarkers(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []string
	}{
		{
			name:     "employee experience marker",
			response: "Results mention Employee Experience services",
			want:     []string{"Employee Experience"},
		},
		{
			name:     "genai and data markers",
			response: "Covers GenAI Advisory and Data services",
			want:     []string{"GenAI Advisory", "Data Foundation"},
		},
		{
			name:     "no markers",
			response: "nothing recognizable",
			want:     []string{"General Knowledge"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Every model call produces garbage, forcing the fallback.
			provider := &scriptedProvider{responses: []string{"garbage"}}
			rag := &scriptedRAG{response: tt.response}
			d := NewDiscovery(deps(provider), rag, 2)

			summary := d.Run(context.Background(), "")
			if len(summary.Domains) != len(tt.want) {
				t.Fatalf("domains = %+v, want %v", summary.Domains, tt.want)
			}
			for i, name := range tt.want {
				if summary.Domains[i].Name != name {
					t.Errorf("domain[%d] = %q, want %q", i, summary.Domains[i].Name, name)
				}
			}
			if summary.QualityNotes != "Fallback summary generated from direct RAG queries" {
				t.Errorf("quality notes = %q", summary.QualityNotes)
			}
		})
	}
}

func TestDiscoverySpendsWholeAttemptBudget(t *testing.T) {
	provider := &scriptedProvider{responses: []string{"garbage every time"}}
	d := NewDiscovery(deps(provider), &scriptedRAG{response: "plain"}, 3)

	summary := d.Run(context.Background(), "")
	if provider.calls != 3 {
		t.Errorf("calls = %d, want 3", provider.calls)
	}
	if summary.QualityNotes != "Fallback summary generated from direct RAG queries" {
		t.Errorf("quality notes = %q", summary.QualityNotes)
	}
}

func TestDiscoveryFallbackOnProviderError(t *testing.T) {
	provider := &scriptedProvider{err: contextError()}
	d := NewDiscovery(deps(provider), &scriptedRAG{response: "plain"}, 2)

	summary := d.Run(context.Background(), "")
	if summary == nil || len(summary.Domains) == 0 {
		t.Fatal("fallback summary missing domains")
	}
}

func contextError() error { return context.DeadlineExceeded }
