package flow

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/haasonsaas/ragsuite/internal/config"
	"github.com/haasonsaas/ragsuite/internal/model"
	"github.com/haasonsaas/ragsuite/internal/observability"
)

// Params carries the per-run inputs layered over the configuration.
type Params struct {
	Mode            string
	TestCSVPath     string
	NumTests        int
	CrewDescription string
}

// Kickoff builds the run state from configuration and parameters. Unknown run
// modes coerce to full with a warning; generate_and_execute collapses onto
// full before any routing happens.
func Kickoff(ctx context.Context, cfg *config.Config, params Params, logger *observability.Logger) *model.RunState {
	mode, known := model.ParseRunMode(strings.ToLower(strings.TrimSpace(params.Mode)))
	if !known && params.Mode != "" && logger != nil {
		logger.Warn(ctx, "unknown run mode, defaulting to full", "mode", params.Mode)
	}

	state := model.NewRunState()
	state.RunID = uuid.NewString()
	state.RunMode = mode.Normalized()
	state.TestCSVPath = params.TestCSVPath
	state.TargetMode = cfg.Target.Mode
	state.TargetAPIURL = cfg.Target.APIURL
	state.TargetCrewPath = cfg.Target.CrewPath
	state.RAGBackend = cfg.RAG.Backend
	state.PassThreshold = cfg.Evaluation.PassThreshold
	state.MaxRetries = cfg.TestGeneration.MaxRetries
	state.CrewDescription = params.CrewDescription
	if params.NumTests > 0 {
		state.NumTests = params.NumTests
	} else {
		state.NumTests = cfg.TestGeneration.NumTests
	}

	if logger != nil {
		args := []any{
			"run_id", state.RunID,
			"run_mode", string(state.RunMode),
			"rag_backend", state.RAGBackend,
		}
		if state.TargetAPIURL != "" {
			args = append(args, "target_api_url", MaskURL(state.TargetAPIURL))
		}
		if cfg.RAG.RAGEngine.MCPURL != "" {
			args = append(args, "rag_mcp_url", MaskURL(cfg.RAG.RAGEngine.MCPURL))
		}
		if cfg.RAG.Qdrant.URL != "" {
			args = append(args, "qdrant_url", MaskURL(cfg.RAG.Qdrant.URL))
		}
		logger.Info(ctx, "starting test suite run", args...)
	}
	return state
}

// MaskURL hides the path of a URL for logging, keeping scheme and host.
func MaskURL(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		if len(raw) > 30 {
			return raw[:30] + "..."
		}
		return raw
	}
	return parsed.Scheme + "://" + parsed.Host + "/..."
}
