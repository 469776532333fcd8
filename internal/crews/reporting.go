package crews

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/haasonsaas/ragsuite/internal/model"
	"github.com/haasonsaas/ragsuite/internal/scoring"
)

// Reporter writes the final markdown quality report. When the model call
// fails it assembles a plain deterministic report from the same inputs, so a
// run always ends with a report.
type Reporter struct {
	deps Deps
	now  func() time.Time
}

// NewReporter creates the report-writing collaborator.
func NewReporter(deps Deps) *Reporter {
	return &Reporter{deps: deps, now: time.Now}
}

// Run produces the quality report for a completed run.
func (r *Reporter) Run(ctx context.Context, results []model.TestResult, scores []model.CategoryScore, analysis Analysis, targetName string) string {
	total := len(results)
	passed := 0
	for _, res := range results {
		if res.Passed {
			passed++
		}
	}
	passRate := scoring.PassRate(results)
	table := scoring.FormatCategoryTable(scores)
	summary := FormatAnalysisSummary(analysis)
	recommendations := FormatRecommendations(analysis.Recommendations)
	timestamp := r.now().Format("2006-01-02 15:04:05")

	prompt := fmt.Sprintf(`You are a technical report writer. Produce a markdown quality report for an automated evaluation of an AI assistant.

**Target:** %s
**Date:** %s
**Overall:** %.1f%% pass rate (%d passed, %d failed, %d total)

**Category breakdown:**
%s

**Analysis:**
%s

**Recommendations:**
%s

Write a complete markdown report with these sections: Executive Summary, Results by Category (include the table above verbatim), Key Findings, Recommendations, and Next Steps. Be specific and actionable. Return ONLY the markdown report.`,
		targetName, timestamp, passRate, passed, total-passed, total, table, summary, recommendations)

	report, err := r.deps.complete(ctx, reportingTemperature, prompt)
	if err != nil || strings.TrimSpace(report) == "" {
		r.deps.logWarn(ctx, "report generation failed, using fallback report", "error", err)
		return r.fallbackReport(targetName, timestamp, passRate, passed, total, table, summary, recommendations)
	}
	return report
}

func (r *Reporter) fallbackReport(targetName, timestamp string, passRate float64, passed, total int, table, summary, recommendations string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Quality Report: %s\n\n", targetName)
	fmt.Fprintf(&b, "Generated: %s\n\n", timestamp)
	fmt.Fprintf(&b, "## Summary\n\nOverall pass rate: %.1f%% (%d/%d tests passed)\n\n", passRate, passed, total)
	fmt.Fprintf(&b, "## Results by Category\n\n%s\n\n", table)
	if summary != "" {
		fmt.Fprintf(&b, "## Analysis\n\n%s\n\n", summary)
	}
	fmt.Fprintf(&b, "## Recommendations\n\n%s\n", recommendations)
	return b.String()
}

// FormatAnalysisSummary renders the analysis as markdown, listing at most
// three patterns and three causes.
func FormatAnalysisSummary(analysis Analysis) string {
	var b strings.Builder
	b.WriteString(analysis.Summary)

	if len(analysis.FailurePatterns) > 0 {
		b.WriteString("\n\n**Failure Patterns:**\n")
		for i, p := range analysis.FailurePatterns {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&b, "- %s\n", p)
		}
	}
	if len(analysis.RootCauses) > 0 {
		b.WriteString("\n**Root Causes:**\n")
		for i, c := range analysis.RootCauses {
			if i >= 3 {
				break
			}
			fmt.Fprintf(&b, "- %s\n", c)
		}
	}
	return b.String()
}

// FormatRecommendations renders the recommendation groups as markdown,
// listing at most five entries per group.
func FormatRecommendations(recs Recommendations) string {
	var lines []string

	if len(recs.PromptChanges) > 0 {
		lines = append(lines, "**Prompt Changes:**")
		for i, change := range recs.PromptChanges {
			if i >= 5 {
				break
			}
			lines = append(lines, "- "+change)
		}
	}
	if len(recs.RAGChanges) > 0 {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, "**RAG Changes:**")
		for i, change := range recs.RAGChanges {
			if i >= 5 {
				break
			}
			lines = append(lines, "- "+change)
		}
	}
	if len(recs.PriorityOrder) > 0 {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, "**Priority Order:**")
		for i, item := range recs.PriorityOrder {
			if i >= 5 {
				break
			}
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, item))
		}
	}
	if len(lines) == 0 {
		return "No specific recommendations."
	}
	return strings.Join(lines, "\n")
}
