// Package crews holds the LLM collaborators behind each flow phase: knowledge
// discovery, prompt suggestion, test generation, result analysis, and report
// writing. Each collaborator sends one structured prompt and recovers a typed
// result from whatever the model returns, with deterministic fallbacks so a
// misbehaving model degrades output quality instead of failing the run.
package crews

import (
	"context"
	"time"

	"github.com/haasonsaas/ragsuite/internal/agent"
	"github.com/haasonsaas/ragsuite/internal/observability"
)

// Temperatures per collaborator. Generation wants variety, analysis and
// discovery want stability.
const (
	discoveryTemperature  = 0.3
	generationTemperature = 0.5
	analysisTemperature   = 0.3
	reportingTemperature  = 0.3
)

const defaultMaxTokens = 4000

// Deps bundles the collaborators shared by every crew.
type Deps struct {
	Provider agent.LLMProvider
	Model    string
	Logger   *observability.Logger
	Metrics  *observability.Metrics
}

func (d Deps) complete(ctx context.Context, temperature float32, prompt string) (string, error) {
	start := time.Now()
	text, err := agent.CollectText(ctx, d.Provider, &agent.CompletionRequest{
		Model:       d.Model,
		Messages:    []agent.CompletionMessage{{Role: "user", Content: prompt}},
		MaxTokens:   defaultMaxTokens,
		Temperature: &temperature,
	})
	if d.Metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		d.Metrics.RecordLLMRequest(d.Provider.Name(), d.Model, status, time.Since(start).Seconds())
	}
	return text, err
}

func (d Deps) logWarn(ctx context.Context, msg string, args ...any) {
	if d.Logger != nil {
		d.Logger.Warn(ctx, msg, args...)
	}
}

func (d Deps) logInfo(ctx context.Context, msg string, args ...any) {
	if d.Logger != nil {
		d.Logger.Info(ctx, msg, args...)
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
