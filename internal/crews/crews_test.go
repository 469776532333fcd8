package crews

import (
	"context"
	"errors"

	"github.com/haasonsaas/ragsuite/internal/agent"
)

// scriptedProvider returns queued responses in order, repeating the last one.
type scriptedProvider struct {
	responses []string
	err       error
	calls     int
}

func (s *scriptedProvider) Name() string          { return "scripted" }
func (s *scriptedProvider) Models() []agent.Model { return nil }

func (s *scriptedProvider) Complete(ctx context.Context, req *agent.CompletionRequest) (<-chan *agent.CompletionChunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	idx := s.calls
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.calls++
	if idx < 0 {
		return nil, errors.New("no scripted responses")
	}
	chunks := make(chan *agent.CompletionChunk, 2)
	chunks <- &agent.CompletionChunk{Text: s.responses[idx]}
	chunks <- &agent.CompletionChunk{Done: true}
	close(chunks)
	return chunks, nil
}

// scriptedRAG is a canned QueryTool for discovery tests.
type scriptedRAG struct {
	response string
	queries  []string
}

func (s *scriptedRAG) Query(ctx context.Context, query string, numResults int) string {
	s.queries = append(s.queries, query)
	return s.response
}

func (s *scriptedRAG) Backend() string { return "stub" }

func deps(p agent.LLMProvider) Deps {
	return Deps{Provider: p, Model: "test-model"}
}
