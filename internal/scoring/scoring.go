// Package scoring computes category-level statistics from test results and
// formats them for the analysis and reporting collaborators. Everything here
// is a pure function over the result list; scores are recomputed in full on
// every call rather than updated incrementally.
package scoring

import (
	"fmt"
	"strings"

	"github.com/haasonsaas/ragsuite/internal/model"
)

const (
	maxCommonIssues   = 3
	issueExcerptLen   = 100
	maxFailedExamples = 5
)

// PassRate returns the overall pass rate on a 0-100 scale. Empty input is 0.
func PassRate(results []model.TestResult) float64 {
	if len(results) == 0 {
		return 0
	}
	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	return float64(passed) / float64(len(results)) * 100
}

// CategoryScores groups results by category and derives per-category stats.
// Output order is first-encounter order of each category in the input, which
// keeps the report deterministic for a deterministic result list. Categories
// absent from the input produce no entry.
func CategoryScores(results []model.TestResult) []model.CategoryScore {
	index := make(map[model.TestCategory]int)
	scores := make([]model.CategoryScore, 0, 4)

	for _, r := range results {
		cat := r.TestCase.Category
		i, ok := index[cat]
		if !ok {
			i = len(scores)
			index[cat] = i
			scores = append(scores, model.CategoryScore{Category: cat})
		}
		scores[i].Total++
		if r.Passed {
			scores[i].Passed++
		} else if len(scores[i].CommonIssues) < maxCommonIssues {
			scores[i].CommonIssues = append(scores[i].CommonIssues, truncate(r.EvaluationRationale, issueExcerptLen))
		}
	}

	for i := range scores {
		if scores[i].Total > 0 {
			scores[i].PassRate = float64(scores[i].Passed) / float64(scores[i].Total) * 100
		}
	}
	return scores
}

// FormatCategoryBreakdown renders scores as plain text for the analysis
// collaborator's prompt.
func FormatCategoryBreakdown(scores []model.CategoryScore) string {
	var b strings.Builder
	for _, s := range scores {
		fmt.Fprintf(&b, "- %s: %d/%d (%.1f%%)\n", s.Category, s.Passed, s.Total, s.PassRate)
		for i, issue := range s.CommonIssues {
			if i >= 2 {
				break
			}
			fmt.Fprintf(&b, "  Issue: %s\n", issue)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatCategoryTable renders scores as a markdown table with a status column
// at the 80/60 pass-rate thresholds.
func FormatCategoryTable(scores []model.CategoryScore) string {
	lines := []string{
		"| Category | Pass Rate | Passed | Failed | Status |",
		"|----------|-----------|--------|--------|--------|",
	}
	for _, s := range scores {
		status := "FAIL"
		switch {
		case s.PassRate >= 80:
			status = "OK"
		case s.PassRate >= 60:
			status = "WARN"
		}
		lines = append(lines, fmt.Sprintf("| %s | %.1f%% | %d | %d | %s |",
			s.Category, s.PassRate, s.Passed, s.Total-s.Passed, status))
	}
	return strings.Join(lines, "\n")
}

// FormatFailedExamples renders up to five failed results for the analysis
// prompt, in encounter order.
func FormatFailedExamples(results []model.TestResult) string {
	var b strings.Builder
	count := 0
	for _, r := range results {
		if r.Passed {
			continue
		}
		if count >= maxFailedExamples {
			break
		}
		count++
		fmt.Fprintf(&b, "\n**%s** (%s, %s)\n", r.TestCase.ID, r.TestCase.Category, r.TestCase.Difficulty)
		fmt.Fprintf(&b, "Question: %s\n", r.TestCase.Question)
		fmt.Fprintf(&b, "Expected: %s\n", truncate(r.TestCase.ExpectedAnswer, 200))
		fmt.Fprintf(&b, "Actual: %s\n", truncate(r.ActualAnswer, 200))
		fmt.Fprintf(&b, "Score: %.2f\n", r.SimilarityScore)
		fmt.Fprintf(&b, "Rationale: %s\n", r.EvaluationRationale)
	}
	if count == 0 {
		return "No failed tests."
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
