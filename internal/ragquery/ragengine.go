package ragquery

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/haasonsaas/ragsuite/internal/config"
)

const (
	mcpProtocolVersion = "2024-11-05"
	mcpClientName      = "ragsuite"
	mcpClientVersion   = "0.1.0"

	sessionWait    = 20 * time.Second
	initializeWait = 10 * time.Second
	searchWait     = 150 * time.Second
)

// RAGEngineTool queries a RAG Engine through MCP's SSE transport: an SSE
// stream carries server responses while requests go to a per-session messages
// endpoint announced on the stream.
type RAGEngineTool struct {
	cfg    config.RAGEngineConfig
	opts   Options
	client *http.Client
}

// NewRAGEngineTool creates the MCP-backed query tool.
func NewRAGEngineTool(cfg config.RAGEngineConfig, opts Options) *RAGEngineTool {
	return &RAGEngineTool{
		cfg:    cfg,
		opts:   opts,
		client: &http.Client{Timeout: opts.httpTimeout()},
	}
}

// Backend returns "ragengine".
func (t *RAGEngineTool) Backend() string { return "ragengine" }

type sseEvent struct {
	kind string // "endpoint", "message", "raw", "error"
	data string
	msg  map[string]any
}

// Query runs one query_rag tool call over a fresh MCP session.
func (t *RAGEngineTool) Query(ctx context.Context, query string, numResults int) string {
	start := time.Now()
	token, ok := envToken(t.cfg.TokenEnv)
	if !ok {
		t.opts.recordQuery("ragengine", "error", start)
		return fmt.Sprintf("Error: %s not set", t.cfg.TokenEnv)
	}
	if t.cfg.MCPURL == "" {
		t.opts.recordQuery("ragengine", "error", start)
		return "Error: mcp_url not configured"
	}
	if t.cfg.Corpus == "" {
		t.opts.recordQuery("ragengine", "error", start)
		return "Error: corpus not configured"
	}
	numResults = clampResults(numResults, t.cfg.MaxResults)

	result := t.querySession(ctx, token, query, numResults)
	status := "success"
	if strings.HasPrefix(result, "Error:") || strings.HasPrefix(result, "RAG Error:") || strings.HasPrefix(result, "RAG Engine Error:") {
		status = "error"
	}
	t.opts.recordQuery("ragengine", status, start)
	return result
}

func (t *RAGEngineTool) querySession(ctx context.Context, token, query string, numResults int) string {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := t.openStream(streamCtx, token)
	if err != nil {
		return fmt.Sprintf("RAG Engine Error: %v", err)
	}

	endpoint, ok := waitForEndpoint(ctx, events, sessionWait)
	if !ok {
		return "Error: Failed to establish MCP session"
	}
	messagesURL := t.cfg.MCPURL + endpoint
	t.opts.logDebug(ctx, "mcp session established", "endpoint", endpoint)

	initReq := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "initialize",
		"params": map[string]any{
			"protocolVersion": mcpProtocolVersion,
			"capabilities":    map[string]any{},
			"clientInfo":      map[string]any{"name": mcpClientName, "version": mcpClientVersion},
		},
	}
	if err := t.post(ctx, messagesURL, token, initReq); err != nil {
		return fmt.Sprintf("RAG Engine Error: %v", err)
	}
	waitForResponse(ctx, events, 1, initializeWait)

	notify := map[string]any{"jsonrpc": "2.0", "method": "notifications/initialized"}
	if err := t.post(ctx, messagesURL, token, notify); err != nil {
		return fmt.Sprintf("RAG Engine Error: %v", err)
	}

	searchReq := map[string]any{
		"jsonrpc": "2.0",
		"id":      3,
		"method":  "tools/call",
		"params": map[string]any{
			"name": "query_rag",
			"arguments": map[string]any{
				"query":       query,
				"corpus_name": t.cfg.Corpus,
				"max_results": numResults,
			},
		},
	}
	if err := t.post(ctx, messagesURL, token, searchReq); err != nil {
		return fmt.Sprintf("RAG Engine Error: %v", err)
	}

	msg, ok := waitForResponse(ctx, events, 3, searchWait)
	if !ok {
		return "Error: Search timed out"
	}
	return t.extractToolResult(msg, query)
}

// openStream connects to the /sse endpoint and feeds parsed events onto the
// returned channel until the stream or ctx ends.
func (t *RAGEngineTool) openStream(ctx context.Context, token string) (<-chan sseEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.cfg.MCPURL+"/sse", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "text/event-stream")

	// The SSE connection outlives individual message posts, so it bypasses
	// the client's per-request timeout and is bounded by ctx instead.
	streamClient := &http.Client{}
	resp, err := streamClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("sse stream returned status %d", resp.StatusCode)
	}

	events := make(chan sseEvent, 16)
	go func() {
		defer close(events)
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			data := strings.TrimSpace(line[len("data: "):])
			if strings.Contains(data, "/messages/") {
				events <- sseEvent{kind: "endpoint", data: data}
				continue
			}
			var msg map[string]any
			if err := json.Unmarshal([]byte(data), &msg); err == nil {
				events <- sseEvent{kind: "message", data: data, msg: msg}
			} else {
				events <- sseEvent{kind: "raw", data: data}
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			events <- sseEvent{kind: "error", data: err.Error()}
		}
	}()
	return events, nil
}

func (t *RAGEngineTool) post(ctx context.Context, url, token string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func waitForEndpoint(ctx context.Context, events <-chan sseEvent, wait time.Duration) (string, bool) {
	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	for {
		select {
		case ev, open := <-events:
			if !open {
				return "", false
			}
			if ev.kind == "endpoint" {
				return ev.data, true
			}
		case <-deadline.C:
			return "", false
		case <-ctx.Done():
			return "", false
		}
	}
}

func waitForResponse(ctx context.Context, events <-chan sseEvent, id float64, wait time.Duration) (map[string]any, bool) {
	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	for {
		select {
		case ev, open := <-events:
			if !open {
				return nil, false
			}
			if ev.kind != "message" {
				continue
			}
			if got, ok := ev.msg["id"].(float64); ok && got == id {
				return ev.msg, true
			}
		case <-deadline.C:
			return nil, false
		case <-ctx.Done():
			return nil, false
		}
	}
}

func (t *RAGEngineTool) extractToolResult(msg map[string]any, query string) string {
	result, _ := msg["result"].(map[string]any)
	if result == nil {
		return "No results found"
	}
	if isError, _ := result["isError"].(bool); isError {
		errText := "Unknown error"
		if content, ok := result["content"].([]any); ok && len(content) > 0 {
			if item, ok := content[0].(map[string]any); ok {
				if text, ok := item["text"].(string); ok && text != "" {
					errText = text
				}
			}
		}
		return "RAG Error: " + errText
	}
	if content, ok := result["content"].([]any); ok {
		for _, raw := range content {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if itemType, _ := item["type"].(string); itemType == "text" {
				text, _ := item["text"].(string)
				return formatChunks(text, query)
			}
		}
	}
	return "No results found"
}

const (
	maxChunksShown   = 3
	maxChunkChars    = 500
	maxRawResultSize = 1000
)

type ragChunk struct {
	Rank           any     `json:"rank"`
	Text           string  `json:"text"`
	SourceURI      string  `json:"source_uri"`
	RelevanceScore float64 `json:"relevance_score"`
}

type ragPayload struct {
	Success bool       `json:"success"`
	Error   string     `json:"error"`
	Chunks  []ragChunk `json:"chunks"`
}

// formatChunks renders the tool's JSON payload as markdown. Output size is
// capped because it flows into LLM prompts where oversized chunks trigger
// repetition loops.
func formatChunks(rawResult, query string) string {
	var payload ragPayload
	if err := json.Unmarshal([]byte(rawResult), &payload); err != nil {
		if len(rawResult) > maxRawResultSize {
			rawResult = rawResult[:maxRawResultSize]
		}
		return "## Search Results\n\n" + rawResult
	}
	if !payload.Success {
		errText := payload.Error
		if errText == "" {
			errText = "Unknown error"
		}
		return "RAG Error: " + errText
	}
	if len(payload.Chunks) == 0 {
		return "No results found"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search Results for: %s\n\n", query)
	fmt.Fprintf(&sb, "Found %d relevant results.\n\n", len(payload.Chunks))

	shown := payload.Chunks
	if len(shown) > maxChunksShown {
		shown = shown[:maxChunksShown]
	}
	for _, chunk := range shown {
		rank := "?"
		if chunk.Rank != nil {
			rank = fmt.Sprintf("%v", chunk.Rank)
		}
		source := chunk.SourceURI
		if source == "" {
			source = "Unknown"
		}
		text := chunk.Text
		if len(text) > maxChunkChars {
			text = text[:maxChunkChars] + "..."
		}
		fmt.Fprintf(&sb, "### Result %s\n", rank)
		fmt.Fprintf(&sb, "**Source:** %s\n", source)
		fmt.Fprintf(&sb, "**Relevance:** %.2f\n", chunk.RelevanceScore)
		fmt.Fprintf(&sb, "**Content:**\n%s\n\n", text)
	}
	return sb.String()
}
