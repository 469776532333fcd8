package crews

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/haasonsaas/ragsuite/internal/jsonx"
	"github.com/haasonsaas/ragsuite/internal/model"
)

// SkippedCase records a generated item that could not be turned into a test
// case, with the position it held in the model's output.
type SkippedCase struct {
	Index  int
	Reason string
}

// TestGenerator turns the discovered knowledge summary into concrete test
// cases spread across the configured categories.
type TestGenerator struct {
	deps Deps
}

// NewTestGenerator creates the test-generation collaborator.
func NewTestGenerator(deps Deps) *TestGenerator {
	return &TestGenerator{deps: deps}
}

// Run generates up to numTests cases. Items the model got wrong are dropped
// and reported in the second return rather than failing the batch.
func (g *TestGenerator) Run(ctx context.Context, summary *model.RagSummary, crewDescription string, numTests int, categories []string) ([]model.TestCase, []SkippedCase) {
	if numTests <= 0 {
		numTests = 20
	}
	if len(categories) == 0 {
		categories = []string{"factual", "reasoning", "edge_case", "out_of_scope", "ambiguous"}
	}

	raw, err := g.deps.complete(ctx, generationTemperature, g.buildPrompt(summary, crewDescription, numTests, categories))
	if err != nil {
		g.deps.logWarn(ctx, "test generation failed", "error", err)
		return nil, nil
	}

	cases, skipped := ParseTestCases(raw)
	for _, s := range skipped {
		g.deps.logWarn(ctx, "skipped generated test case", "index", s.Index, "reason", s.Reason)
	}
	return cases, skipped
}

func (g *TestGenerator) buildPrompt(summary *model.RagSummary, crewDescription string, numTests int, categories []string) string {
	summaryJSON := "{}"
	if summary != nil {
		if b, err := json.Marshal(summary); err == nil {
			summaryJSON = string(b)
		}
	}

	return fmt.Sprintf(`You are a test designer creating evaluation cases for an AI assistant over a knowledge base.

Assistant description: %s

Knowledge base summary:
%s

Create exactly %d test cases spread across these categories: %s.

Category meanings:
- factual: direct questions answerable from the knowledge base
- reasoning: questions requiring synthesis across multiple facts
- edge_case: unusual phrasings or boundary conditions
- out_of_scope: questions the assistant should decline or redirect
- ambiguous: underspecified questions needing clarification

Return ONLY a JSON array:
[
    {
        "id": "TEST-001",
        "question": "...",
        "expected_answer": "the ideal answer, or expected refusal for out_of_scope",
        "category": "factual",
        "difficulty": "easy|medium|hard",
        "rationale": "why this test matters"
    }
]`, orDefault(crewDescription, "General knowledge assistant"), summaryJSON, numTests, strings.Join(categories, ", "))
}

// ParseTestCases extracts test cases from model output. Unparseable output
// yields an empty list; individual bad items are skipped with a reason.
// Unknown categories and difficulties coerce to their defaults instead of
// skipping the item.
func ParseTestCases(raw string) ([]model.TestCase, []SkippedCase) {
	items, ok := jsonx.ExtractArray(raw)
	if !ok {
		return nil, nil
	}

	cases := make([]model.TestCase, 0, len(items))
	var skipped []SkippedCase
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			skipped = append(skipped, SkippedCase{Index: i, Reason: "not a JSON object"})
			continue
		}
		question := jsonx.StringField(obj, "question", "")
		if question == "" {
			skipped = append(skipped, SkippedCase{Index: i, Reason: "missing question"})
			continue
		}

		cases = append(cases, model.TestCase{
			ID:             jsonx.StringField(obj, "id", fmt.Sprintf("TEST-%03d", i+1)),
			Question:       question,
			ExpectedAnswer: jsonx.StringField(obj, "expected_answer", ""),
			Category:       model.ParseCategory(strings.ToLower(jsonx.StringField(obj, "category", "factual"))),
			Difficulty:     model.ParseDifficulty(strings.ToLower(jsonx.StringField(obj, "difficulty", "medium"))),
			Rationale:      jsonx.StringField(obj, "rationale", ""),
		})
	}
	return cases, skipped
}
