package scoring

import (
	"math"
	"strings"
	"testing"

	"github.com/haasonsaas/ragsuite/internal/model"
)

func result(id string, cat model.TestCategory, passed bool) model.TestResult {
	return model.TestResult{
		TestCase: model.TestCase{ID: id, Category: cat, Question: "q"},
		Passed:   passed,
	}
}

func TestPassRate(t *testing.T) {
	results := []model.TestResult{
		result("1", model.CategoryFactual, true),
		result("2", model.CategoryFactual, true),
		result("3", model.CategoryFactual, false),
	}
	got := PassRate(results)
	if math.Abs(got-66.666) > 0.01 {
		t.Errorf("pass rate = %v", got)
	}
}

func TestPassRateEmpty(t *testing.T) {
	if got := PassRate(nil); got != 0 {
		t.Errorf("pass rate = %v", got)
	}
}

func TestPassRateBounds(t *testing.T) {
	all := []model.TestResult{result("1", model.CategoryFactual, true)}
	none := []model.TestResult{result("1", model.CategoryFactual, false)}
	if got := PassRate(all); got != 100 {
		t.Errorf("all passed = %v", got)
	}
	if got := PassRate(none); got != 0 {
		t.Errorf("none passed = %v", got)
	}
}

func TestCategoryScoresAggregation(t *testing.T) {
	// Two factual (one failed), one reasoning: overall 66.67%.
	results := []model.TestResult{
		result("1", model.CategoryFactual, true),
		result("2", model.CategoryFactual, false),
		result("3", model.CategoryReasoning, true),
	}

	scores := CategoryScores(results)
	if len(scores) != 2 {
		t.Fatalf("scores = %+v", scores)
	}
	factual, reasoning := scores[0], scores[1]
	if factual.Category != model.CategoryFactual || factual.Total != 2 || factual.Passed != 1 || factual.PassRate != 50.0 {
		t.Errorf("factual = %+v", factual)
	}
	if reasoning.Category != model.CategoryReasoning || reasoning.Total != 1 || reasoning.Passed != 1 || reasoning.PassRate != 100.0 {
		t.Errorf("reasoning = %+v", reasoning)
	}

	// Category totals add up to the input size.
	sum := 0
	for _, s := range scores {
		sum += s.Total
	}
	if sum != len(results) {
		t.Errorf("totals sum to %d, want %d", sum, len(results))
	}
	if got := PassRate(results); math.Abs(got-66.666) > 0.01 {
		t.Errorf("overall = %v", got)
	}
}

func TestCategoryScoresIdempotent(t *testing.T) {
	results := []model.TestResult{
		result("1", model.CategoryFactual, true),
		result("2", model.CategoryEdgeCase, false),
	}
	first := CategoryScores(results)
	second := CategoryScores(results)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Category != second[i].Category || first[i].PassRate != second[i].PassRate {
			t.Errorf("pass %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestCategoryScoresFirstSeenOrder(t *testing.T) {
	results := []model.TestResult{
		result("1", model.CategoryAmbiguous, true),
		result("2", model.CategoryFactual, true),
		result("3", model.CategoryAmbiguous, false),
	}
	scores := CategoryScores(results)
	if scores[0].Category != model.CategoryAmbiguous || scores[1].Category != model.CategoryFactual {
		t.Errorf("order = %+v", scores)
	}
}

func TestCategoryScoresCommonIssuesCapped(t *testing.T) {
	var results []model.TestResult
	for i := 0; i < 5; i++ {
		r := result("x", model.CategoryFactual, false)
		r.EvaluationRationale = strings.Repeat("long rationale ", 20)
		results = append(results, r)
	}
	scores := CategoryScores(results)
	if len(scores[0].CommonIssues) != 3 {
		t.Errorf("issues = %d, want 3", len(scores[0].CommonIssues))
	}
	for _, issue := range scores[0].CommonIssues {
		if len(issue) > 100 {
			t.Errorf("issue length = %d", len(issue))
		}
	}
}

func TestFormatCategoryTableStatus(t *testing.T) {
	scores := []model.CategoryScore{
		{Category: model.CategoryFactual, Total: 10, Passed: 9, PassRate: 90},
		{Category: model.CategoryReasoning, Total: 10, Passed: 7, PassRate: 70},
		{Category: model.CategoryEdgeCase, Total: 10, Passed: 3, PassRate: 30},
	}
	table := FormatCategoryTable(scores)
	for _, want := range []string{
		"| factual | 90.0% | 9 | 1 | OK |",
		"| reasoning | 70.0% | 7 | 3 | WARN |",
		"| edge_case | 30.0% | 3 | 7 | FAIL |",
	} {
		if !strings.Contains(table, want) {
			t.Errorf("table missing %q:\n%s", want, table)
		}
	}
}

func TestFormatFailedExamplesCapped(t *testing.T) {
	var results []model.TestResult
	for i := 0; i < 8; i++ {
		results = append(results, result("FAIL", model.CategoryFactual, false))
	}
	out := FormatFailedExamples(results)
	if got := strings.Count(out, "**FAIL**"); got != 5 {
		t.Errorf("examples = %d, want 5", got)
	}
}

func TestFormatFailedExamplesNone(t *testing.T) {
	results := []model.TestResult{result("1", model.CategoryFactual, true)}
	if got := FormatFailedExamples(results); got != "No failed tests." {
		t.Errorf("got %q", got)
	}
}

func TestFormatCategoryBreakdown(t *testing.T) {
	scores := []model.CategoryScore{
		{Category: model.CategoryFactual, Total: 2, Passed: 1, PassRate: 50, CommonIssues: []string{"wrong fact"}},
	}
	out := FormatCategoryBreakdown(scores)
	if !strings.Contains(out, "- factual: 1/2 (50.0%)") || !strings.Contains(out, "Issue: wrong fact") {
		t.Errorf("out = %q", out)
	}
}
