// Package agent defines the LLM provider contract shared by the generation
// collaborators and the judge.
package agent

import (
	"context"
	"fmt"
	"strings"
)

// LLMProvider is the interface for Large Language Model backends.
//
// Implementations handle the specifics of each API (Anthropic, OpenAI) while
// presenting a unified streaming interface. Implementations must be safe for
// concurrent use.
type LLMProvider interface {
	// Complete sends a prompt and returns a streaming response.
	Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error)

	// Name returns the provider name.
	Name() string

	// Models returns available models.
	Models() []Model
}

// CompletionRequest contains the parameters for one LLM completion.
type CompletionRequest struct {
	// Model selects the model; empty uses the provider default.
	Model string `json:"model"`

	// System sets the assistant's behavior, handled separately from messages.
	System string `json:"system,omitempty"`

	// Messages is the conversation in chronological order; at least one.
	Messages []CompletionMessage `json:"messages"`

	// MaxTokens caps response length; 0 uses the provider default.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls sampling; nil uses the provider default.
	Temperature *float32 `json:"temperature,omitempty"`
}

// CompletionMessage is a single message. Role is "user" or "assistant".
type CompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionChunk is one chunk in a streaming response.
type CompletionChunk struct {
	// Text contains partial response text.
	Text string `json:"text,omitempty"`

	// Done is true when the stream has completed successfully.
	Done bool `json:"done,omitempty"`

	// Error terminates the stream.
	Error error `json:"-"`
}

// Model describes an available LLM model.
type Model struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContextSize int    `json:"context_size"`
}

// CollectText drains a completion stream into a single trimmed string.
// Shared by every collaborator that wants a one-shot request/response call.
func CollectText(ctx context.Context, provider LLMProvider, req *CompletionRequest) (string, error) {
	if provider == nil {
		return "", fmt.Errorf("llm provider is nil")
	}
	ch, err := provider.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for chunk := range ch {
		if chunk == nil {
			continue
		}
		if chunk.Error != nil {
			return "", chunk.Error
		}
		if chunk.Text != "" {
			sb.WriteString(chunk.Text)
		}
		if chunk.Done {
			break
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
