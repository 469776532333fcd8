package ragquery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/haasonsaas/ragsuite/internal/config"
)

// Embedder turns query text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// QdrantTool queries a Qdrant vector store: it embeds the query text and
// posts a points/search request against the configured collection.
type QdrantTool struct {
	cfg      config.QdrantConfig
	opts     Options
	client   *http.Client
	embedder Embedder
}

// NewQdrantTool creates the Qdrant-backed query tool with an
// OpenAI-compatible embedder driven by OPENAI_API_KEY and OPENAI_API_BASE.
func NewQdrantTool(cfg config.QdrantConfig, opts Options) *QdrantTool {
	return &QdrantTool{
		cfg:      cfg,
		opts:     opts,
		client:   &http.Client{Timeout: opts.httpTimeout()},
		embedder: newOpenAIEmbedder(cfg.EmbeddingModel),
	}
}

// WithEmbedder swaps the embedder. Used by tests and callers with their own
// embedding endpoint.
func (t *QdrantTool) WithEmbedder(e Embedder) *QdrantTool {
	t.embedder = e
	return t
}

// Backend returns "qdrant".
func (t *QdrantTool) Backend() string { return "qdrant" }

type qdrantSearchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type qdrantSearchResponse struct {
	Result []struct {
		Score   float64        `json:"score"`
		Payload map[string]any `json:"payload"`
	} `json:"result"`
}

// Query embeds the query and searches the collection.
func (t *QdrantTool) Query(ctx context.Context, query string, numResults int) string {
	start := time.Now()
	if t.cfg.URL == "" {
		t.opts.recordQuery("qdrant", "error", start)
		return "Error: qdrant_url not configured"
	}
	if t.cfg.Collection == "" {
		t.opts.recordQuery("qdrant", "error", start)
		return "Error: collection not configured"
	}
	numResults = clampResults(numResults, t.cfg.MaxResults)

	vector, err := t.embedder.Embed(ctx, query)
	if err != nil || len(vector) == 0 {
		t.opts.logWarn(ctx, "embedding failed", "error", err)
		t.opts.recordQuery("qdrant", "error", start)
		return "Error: Could not generate embedding"
	}

	result, err := t.search(ctx, vector, numResults)
	if err != nil {
		t.opts.recordQuery("qdrant", "error", start)
		return fmt.Sprintf("Qdrant Error: %v", err)
	}
	t.opts.recordQuery("qdrant", "success", start)
	return result
}

func (t *QdrantTool) search(ctx context.Context, vector []float32, limit int) (string, error) {
	body, err := json.Marshal(qdrantSearchRequest{
		Vector:      vector,
		Limit:       limit,
		WithPayload: true,
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", t.cfg.URL, t.cfg.Collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey := os.Getenv(t.cfg.APIKeyEnv); apiKey != "" {
		req.Header.Set("api-key", apiKey)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var parsed qdrantSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	return formatPoints(parsed), nil
}

func formatPoints(resp qdrantSearchResponse) string {
	results := make([]string, 0, len(resp.Result))
	for _, point := range resp.Result {
		text := payloadString(point.Payload, "text", "content")
		source := payloadString(point.Payload, "source", "file")

		entry := fmt.Sprintf("[Score: %.3f]", point.Score)
		if source != "" {
			entry += fmt.Sprintf(" [Source: %s]", source)
		}
		entry += "\n" + text
		results = append(results, entry)
	}
	if len(results) == 0 {
		return "No results found"
	}
	return strings.Join(results, "\n\n---\n\n")
}

func payloadString(payload map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := payload[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

// openaiEmbedder calls an OpenAI-compatible embeddings endpoint.
type openaiEmbedder struct {
	client *openai.Client
	model  string
}

func newOpenAIEmbedder(model string) *openaiEmbedder {
	apiKey := os.Getenv("OPENAI_API_KEY")
	cfg := openai.DefaultConfig(apiKey)
	if base := os.Getenv("OPENAI_API_BASE"); base != "" {
		cfg.BaseURL = base
	}
	return &openaiEmbedder{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (e *openaiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: []string{text},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embeddings response contained no data")
	}
	return resp.Data[0].Embedding, nil
}
