// Package target executes the agent under test with a single question and
// returns its answer. Two modes exist: "api" drives a deployed agent through
// its kickoff/poll HTTP endpoints, "local" runs the agent as a subprocess.
//
// Failures come back as tagged answer strings ("API Error:", "Crew failed:",
// "Timeout:", ...) rather than Go errors. A broken target is exactly what
// this harness exists to measure, so its failures are data, not aborts; the
// judge scores them like any other answer.
package target

import (
	"context"
	"fmt"
	"time"

	"github.com/haasonsaas/ragsuite/internal/config"
	"github.com/haasonsaas/ragsuite/internal/observability"
)

// Runner asks the agent under test one question.
type Runner interface {
	// Ask returns the agent's answer, or a tagged failure string. sessionID
	// may be empty; it threads multi-turn context where the target supports
	// sessions.
	Ask(ctx context.Context, question, sessionID string) string

	// Mode names the execution mode: "api" or "local".
	Mode() string
}

// Options carries shared collaborators for runners.
type Options struct {
	Logger  *observability.Logger
	Metrics *observability.Metrics
}

// New builds the runner selected by cfg.Mode.
func New(cfg config.TargetConfig, opts Options) (Runner, error) {
	switch cfg.Mode {
	case "api":
		if cfg.APIURL == "" {
			return nil, fmt.Errorf("target api mode requires api_url")
		}
		return NewAPIRunner(cfg, opts), nil
	case "local":
		if cfg.CrewPath == "" {
			return nil, fmt.Errorf("target local mode requires crew_path")
		}
		if cfg.CrewEntrypoint == "" {
			return nil, fmt.Errorf("target local mode requires crew_entrypoint")
		}
		return NewLocalRunner(cfg, opts), nil
	default:
		return nil, fmt.Errorf("unknown target mode: %q", cfg.Mode)
	}
}

func (o Options) recordError(errorType string) {
	if o.Metrics != nil {
		o.Metrics.RecordError("target", errorType)
	}
}

func (o Options) logWarn(ctx context.Context, msg string, args ...any) {
	if o.Logger != nil {
		o.Logger.Warn(ctx, msg, args...)
	}
}

func (o Options) logDebug(ctx context.Context, msg string, args ...any) {
	if o.Logger != nil {
		o.Logger.Debug(ctx, msg, args...)
	}
}

func seconds(n int, fallback time.Duration) time.Duration {
	if n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}
