package crews

import (
	"context"
	"fmt"

	"github.com/haasonsaas/ragsuite/internal/jsonx"
	"github.com/haasonsaas/ragsuite/internal/model"
	"github.com/haasonsaas/ragsuite/internal/scoring"
)

// Analysis is the analyst's assessment of a completed result set.
type Analysis struct {
	FailurePatterns []string        `json:"failure_patterns"`
	RootCauses      []string        `json:"root_causes"`
	Recommendations Recommendations `json:"recommendations"`
	Summary         string          `json:"summary"`
}

// Recommendations groups suggested fixes by where they apply.
type Recommendations struct {
	PromptChanges []string `json:"prompt_changes"`
	RAGChanges    []string `json:"rag_changes"`
	PriorityOrder []string `json:"priority_order"`
}

// Analyst inspects test results for failure patterns and produces
// recommendations. It always returns an Analysis, even for an empty result
// set, so the reporting phase has consistent input.
type Analyst struct {
	deps Deps
}

// NewAnalyst creates the result-analysis collaborator.
func NewAnalyst(deps Deps) *Analyst {
	return &Analyst{deps: deps}
}

// Run analyzes the result set.
func (a *Analyst) Run(ctx context.Context, results []model.TestResult) Analysis {
	raw, err := a.deps.complete(ctx, analysisTemperature, a.buildPrompt(results))
	if err != nil {
		a.deps.logWarn(ctx, "result analysis failed", "error", err)
		return Analysis{Summary: fmt.Sprintf("Analysis unavailable: %v", err)}
	}
	return ParseAnalysis(raw)
}

func (a *Analyst) buildPrompt(results []model.TestResult) string {
	total := len(results)
	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	scores := scoring.CategoryScores(results)

	return fmt.Sprintf(`You are a quality analyst reviewing automated test results for an AI assistant.

**Overall:** %.1f%% pass rate (%d passed, %d failed, %d total)

**By category:**
%s

**Failed examples:**
%s

Identify recurring failure patterns and their likely root causes, then recommend fixes.

Return ONLY a JSON object:
{
    "failure_patterns": ["pattern description", ...],
    "root_causes": ["likely cause", ...],
    "recommendations": {
        "prompt_changes": ["suggested prompt change", ...],
        "rag_changes": ["suggested retrieval/knowledge change", ...],
        "priority_order": ["most important fix first", ...]
    },
    "summary": "short overall assessment"
}`,
		scoring.PassRate(results), passed, total-passed, total,
		scoring.FormatCategoryBreakdown(scores),
		scoring.FormatFailedExamples(results))
}

// ParseAnalysis decodes analyst output. Entries may come back as plain
// strings or as objects carrying pattern/cause/change keys; both forms are
// accepted. Unparseable output keeps the raw text as the summary.
func ParseAnalysis(raw string) Analysis {
	obj, ok := jsonx.ExtractObject(raw)
	if !ok {
		return Analysis{Summary: excerpt(raw, 500)}
	}

	analysis := Analysis{
		FailurePatterns: coerceStrings(obj["failure_patterns"], "pattern"),
		RootCauses:      coerceStrings(obj["root_causes"], "cause"),
		Summary:         jsonx.StringField(obj, "summary", ""),
	}
	if recs, ok := obj["recommendations"].(map[string]any); ok {
		analysis.Recommendations = Recommendations{
			PromptChanges: coerceStrings(recs["prompt_changes"], "change"),
			RAGChanges:    coerceStrings(recs["rag_changes"], "change"),
			PriorityOrder: coerceStrings(recs["priority_order"], ""),
		}
	} else if list, ok := obj["recommendations"].([]any); ok {
		analysis.Recommendations.PriorityOrder = coerceStrings(list, "")
	}
	return analysis
}

// coerceStrings flattens a JSON list whose entries are strings or objects
// with the named text key.
func coerceStrings(raw any, key string) []string {
	list, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case map[string]any:
			if key == "" {
				continue
			}
			if s, ok := v[key].(string); ok && s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
