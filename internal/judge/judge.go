// Package judge scores the target's answers with an LLM-as-judge. The judge
// compares each answer to the expected one, returns a score in [0, 1] with a
// rationale, and passes the answer when the score meets the threshold.
package judge

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/haasonsaas/ragsuite/internal/agent"
	"github.com/haasonsaas/ragsuite/internal/config"
	"github.com/haasonsaas/ragsuite/internal/jsonx"
	"github.com/haasonsaas/ragsuite/internal/observability"
)

const judgeMaxTokens = 2000

// Verdict is the judge's assessment of one answer.
type Verdict struct {
	Passed    bool    `json:"passed"`
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// Judge evaluates answers against expected answers.
type Judge struct {
	provider agent.LLMProvider
	cfg      config.EvaluationConfig
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// New creates a judge backed by the given provider.
func New(provider agent.LLMProvider, cfg config.EvaluationConfig, logger *observability.Logger, metrics *observability.Metrics) *Judge {
	return &Judge{provider: provider, cfg: cfg, logger: logger, metrics: metrics}
}

// Evaluate scores one answer. It never returns an error: a failed LLM call or
// an unparseable judgment degrades to a failing verdict so one bad
// evaluation cannot sink a whole run.
func (j *Judge) Evaluate(ctx context.Context, question, expected, actual, criteria string) Verdict {
	prompt := j.buildPrompt(question, expected, actual, criteria)
	temp := j.cfg.Temperature

	start := time.Now()
	content, err := agent.CollectText(ctx, j.provider, &agent.CompletionRequest{
		Model:       j.cfg.JudgeModel,
		Messages:    []agent.CompletionMessage{{Role: "user", Content: prompt}},
		MaxTokens:   judgeMaxTokens,
		Temperature: &temp,
	})
	if j.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		j.metrics.RecordLLMRequest(j.provider.Name(), j.cfg.JudgeModel, status, time.Since(start).Seconds())
	}
	if err != nil {
		if j.logger != nil {
			j.logger.Error(ctx, "judge call failed", "error", err)
		}
		return Verdict{Passed: false, Score: 0.0, Rationale: fmt.Sprintf("Evaluation error: %v", err)}
	}

	return j.parseVerdict(content)
}

func (j *Judge) buildPrompt(question, expected, actual, criteria string) string {
	baseCriteria := `Consider the following aspects:
1. **Factual Accuracy**: Does the response contain correct information?
2. **Completeness**: Does it address all parts of the question?
3. **Relevance**: Is the response focused on the question?
4. **Clarity**: Is the response clear and well-structured?`
	if criteria != "" {
		baseCriteria += "\n\nAdditional criteria:\n" + criteria
	}

	return fmt.Sprintf(`You are an expert evaluator assessing AI response quality.

**Question Asked:**
%s

**Expected Answer:**
%s

**Actual Response:**
%s

%s

**Instructions:**
Compare the actual response to the expected answer. Score the response from 0.0 to 1.0:
- 1.0 = Perfect match or equivalent quality
- 0.8-0.9 = Very good, minor differences
- 0.6-0.7 = Acceptable, some important content missing
- 0.4-0.5 = Partial answer, significant gaps
- 0.2-0.3 = Poor, mostly incorrect or irrelevant
- 0.0-0.1 = Completely wrong or off-topic

**Output Format:**
Return ONLY a JSON object with these exact fields:
{
    "passed": true/false,
    "score": 0.0-1.0,
    "rationale": "Brief explanation of the score"
}

The response passes if score >= %.2f.

**Your Evaluation:**`, question, expected, actual, baseCriteria, j.cfg.PassThreshold)
}

var (
	scorePattern  = regexp.MustCompile(`"score"\s*:\s*([\d.]+)`)
	passedPattern = regexp.MustCompile(`(?i)"passed"\s*:\s*(true|false)`)
)

// parseVerdict recovers a verdict from whatever the judge model produced.
// Fenced or truncated JSON is handled by jsonx; when even repair fails, a
// regex pass pulls the score out of partial output.
func (j *Judge) parseVerdict(content string) Verdict {
	if obj, ok := jsonx.ExtractObject(content); ok {
		score := 0.0
		if s, ok := obj["score"].(float64); ok {
			score = s
		}
		passed := score >= j.cfg.PassThreshold
		if p, ok := obj["passed"].(bool); ok {
			passed = p
		}
		rationale := jsonx.StringField(obj, "rationale", "No rationale provided")
		return Verdict{Passed: passed, Score: score, Rationale: rationale}
	}

	if m := scorePattern.FindStringSubmatch(content); m != nil {
		score, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			passed := score >= j.cfg.PassThreshold
			if pm := passedPattern.FindStringSubmatch(content); pm != nil {
				passed = strings.EqualFold(pm[1], "true")
			}
			return Verdict{
				Passed:    passed,
				Score:     score,
				Rationale: "Extracted from partial response: " + excerpt(content, 100),
			}
		}
	}

	return Verdict{
		Passed:    false,
		Score:     0.5,
		Rationale: "Could not parse evaluation: " + excerpt(content, 200),
	}
}

func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
