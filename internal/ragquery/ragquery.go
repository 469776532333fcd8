// Package ragquery probes the knowledge base behind the agent under test.
// Two backends are supported: a RAG Engine reached over MCP's SSE transport,
// and a Qdrant vector store reached over its HTTP API.
//
// Query results and failures are both returned as strings. The callers feed
// whatever comes back into LLM prompts, so a failed probe must degrade into
// prompt text ("Error: ...") rather than abort a run.
package ragquery

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/haasonsaas/ragsuite/internal/config"
	"github.com/haasonsaas/ragsuite/internal/observability"
)

// QueryTool retrieves knowledge-base content for a search query.
type QueryTool interface {
	// Query returns formatted retrieval results, or a human-readable error
	// string prefixed with "Error:", "RAG Error:", or the backend name.
	// It never returns a Go error; failures become prompt-visible text.
	Query(ctx context.Context, query string, numResults int) string

	// Backend names the backend: "ragengine" or "qdrant".
	Backend() string
}

// Options carries the shared collaborators each backend uses.
type Options struct {
	Logger  *observability.Logger
	Metrics *observability.Metrics

	// HTTPTimeout bounds individual HTTP calls. Defaults to 30s.
	HTTPTimeout time.Duration
}

// New builds the query tool selected by cfg.Backend.
func New(cfg config.RAGConfig, opts Options) (QueryTool, error) {
	switch cfg.Backend {
	case "ragengine":
		return NewRAGEngineTool(cfg.RAGEngine, opts), nil
	case "qdrant":
		return NewQdrantTool(cfg.Qdrant, opts), nil
	default:
		return nil, fmt.Errorf("unknown rag backend: %q", cfg.Backend)
	}
}

func (o Options) httpTimeout() time.Duration {
	if o.HTTPTimeout > 0 {
		return o.HTTPTimeout
	}
	return 30 * time.Second
}

func (o Options) recordQuery(backend, status string, start time.Time) {
	if o.Metrics == nil {
		return
	}
	o.Metrics.RecordRAGQuery(backend, status, time.Since(start).Seconds())
}

func (o Options) logDebug(ctx context.Context, msg string, args ...any) {
	if o.Logger != nil {
		o.Logger.Debug(ctx, msg, args...)
	}
}

func (o Options) logWarn(ctx context.Context, msg string, args ...any) {
	if o.Logger != nil {
		o.Logger.Warn(ctx, msg, args...)
	}
}

func envToken(envVar string) (string, bool) {
	token := os.Getenv(envVar)
	return token, token != ""
}

func clampResults(numResults, maxResults int) int {
	if numResults <= 0 {
		numResults = 5
	}
	if maxResults > 0 && numResults > maxResults {
		return maxResults
	}
	return numResults
}
