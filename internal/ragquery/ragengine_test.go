package ragquery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/haasonsaas/ragsuite/internal/config"
)

func TestRAGEngineQuerySession(t *testing.T) {
	t.Setenv("TEST_RAG_TOKEN", "test-token-value")

	chunksPayload, _ := json.Marshal(map[string]any{
		"success": true,
		"chunks": []map[string]any{
			{"rank": 1, "text": "Remote work policy allows three days per week.", "source_uri": "hr/policies.md", "relevance_score": 0.92},
		},
	})

	respCh := make(chan string, 4)
	mux := http.NewServeMux()
	mux.HandleFunc("/sse", func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Error("response writer does not support flushing")
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token-value" {
			t.Errorf("authorization header = %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: /messages/session-1\n\n")
		flusher.Flush()
		for {
			select {
			case msg := <-respCh:
				fmt.Fprintf(w, "data: %s\n\n", msg)
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	})
	mux.HandleFunc("/messages/session-1", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode message: %v", err)
			return
		}
		switch req["method"] {
		case "initialize":
			respCh <- `{"jsonrpc":"2.0","id":1,"result":{}}`
		case "tools/call":
			params := req["params"].(map[string]any)
			if params["name"] != "query_rag" {
				t.Errorf("tool name = %v", params["name"])
			}
			args := params["arguments"].(map[string]any)
			if args["corpus_name"] != "corp/main" {
				t.Errorf("corpus_name = %v", args["corpus_name"])
			}
			result := map[string]any{
				"jsonrpc": "2.0",
				"id":      3,
				"result": map[string]any{
					"content": []map[string]any{
						{"type": "text", "text": string(chunksPayload)},
					},
				},
			}
			encoded, _ := json.Marshal(result)
			respCh <- string(encoded)
		}
		w.WriteHeader(http.StatusAccepted)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	tool := NewRAGEngineTool(config.RAGEngineConfig{
		MCPURL:     server.URL,
		TokenEnv:   "TEST_RAG_TOKEN",
		Corpus:     "corp/main",
		MaxResults: 10,
	}, Options{})

	out := tool.Query(context.Background(), "remote work policy", 5)
	if !strings.Contains(out, "Search Results for: remote work policy") {
		t.Errorf("output missing header: %s", out)
	}
	if !strings.Contains(out, "hr/policies.md") {
		t.Errorf("output missing source: %s", out)
	}
}

func TestRAGEngineMissingToken(t *testing.T) {
	t.Setenv("MISSING_RAG_TOKEN", "")
	tool := NewRAGEngineTool(config.RAGEngineConfig{
		MCPURL:   "http://localhost:1",
		TokenEnv: "MISSING_RAG_TOKEN",
		Corpus:   "corp/main",
	}, Options{})

	out := tool.Query(context.Background(), "anything", 5)
	if out != "Error: MISSING_RAG_TOKEN not set" {
		t.Errorf("out = %q", out)
	}
}

func TestRAGEngineMissingConfig(t *testing.T) {
	t.Setenv("TEST_RAG_TOKEN", "tok")
	tests := []struct {
		name string
		cfg  config.RAGEngineConfig
		want string
	}{
		{
			name: "no url",
			cfg:  config.RAGEngineConfig{TokenEnv: "TEST_RAG_TOKEN", Corpus: "c"},
			want: "Error: mcp_url not configured",
		},
		{
			name: "no corpus",
			cfg:  config.RAGEngineConfig{TokenEnv: "TEST_RAG_TOKEN", MCPURL: "http://localhost:1"},
			want: "Error: corpus not configured",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := NewRAGEngineTool(tt.cfg, Options{})
			if out := tool.Query(context.Background(), "q", 5); out != tt.want {
				t.Errorf("out = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestFormatChunksCapsOutput(t *testing.T) {
	longText := strings.Repeat("x", 600)
	payload, _ := json.Marshal(map[string]any{
		"success": true,
		"chunks": []map[string]any{
			{"rank": 1, "text": longText, "source_uri": "a.md", "relevance_score": 0.9},
			{"rank": 2, "text": "b", "source_uri": "b.md", "relevance_score": 0.8},
			{"rank": 3, "text": "c", "source_uri": "c.md", "relevance_score": 0.7},
			{"rank": 4, "text": "d", "source_uri": "d.md", "relevance_score": 0.6},
		},
	})

	out := formatChunks(string(payload), "query")
	if strings.Contains(out, "d.md") {
		t.Errorf("output includes fourth chunk: %s", out)
	}
	if !strings.Contains(out, "Found 4 relevant results") {
		t.Errorf("output missing total count: %s", out)
	}
	if strings.Contains(out, strings.Repeat("x", 501)) {
		t.Error("chunk text not truncated to 500 chars")
	}
	if !strings.Contains(out, strings.Repeat("x", 500)+"...") {
		t.Error("truncated chunk missing ellipsis")
	}
}

func TestFormatChunksErrorAndEmpty(t *testing.T) {
	out := formatChunks(`{"success": false, "error": "corpus unavailable"}`, "q")
	if out != "RAG Error: corpus unavailable" {
		t.Errorf("out = %q", out)
	}

	out = formatChunks(`{"success": true, "chunks": []}`, "q")
	if out != "No results found" {
		t.Errorf("out = %q", out)
	}
}

func TestFormatChunksNonJSON(t *testing.T) {
	raw := strings.Repeat("y", 1200)
	out := formatChunks(raw, "q")
	if !strings.HasPrefix(out, "## Search Results\n\n") {
		t.Errorf("out = %q", out[:40])
	}
	if len(out) > len("## Search Results\n\n")+1000 {
		t.Errorf("raw fallback not truncated, len = %d", len(out))
	}
}
