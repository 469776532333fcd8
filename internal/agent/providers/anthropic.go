package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/haasonsaas/ragsuite/internal/agent"
)

const (
	defaultAnthropicModel     = "claude-sonnet-4-20250514"
	defaultAnthropicMaxTokens = 4096
)

// AnthropicProvider implements agent.LLMProvider for Anthropic's Messages API.
// Safe for concurrent use; each Complete call runs an independent request.
type AnthropicProvider struct {
	client       anthropic.Client
	configured   bool
	defaultModel string
}

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	// APIKey authenticates requests. Required.
	APIKey string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// DefaultModel is used when a request leaves Model empty.
	DefaultModel string
}

// NewAnthropicProvider creates the provider. An empty API key is allowed for
// delayed configuration; Complete will fail until one is set.
func NewAnthropicProvider(cfg AnthropicConfig) *AnthropicProvider {
	p := &AnthropicProvider{defaultModel: cfg.DefaultModel}
	if p.defaultModel == "" {
		p.defaultModel = defaultAnthropicModel
	}
	if cfg.APIKey == "" {
		return p
	}
	options := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		options = append(options, option.WithBaseURL(cfg.BaseURL))
	}
	p.client = anthropic.NewClient(options...)
	p.configured = true
	return p
}

// Name returns "anthropic".
func (p *AnthropicProvider) Name() string { return "anthropic" }

// Models returns the models this provider advertises.
func (p *AnthropicProvider) Models() []agent.Model {
	return []agent.Model{
		{ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet 4", ContextSize: 200000},
		{ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku", ContextSize: 200000},
	}
}

// Complete sends the request and delivers the full response as a single text
// chunk followed by a done chunk.
func (p *AnthropicProvider) Complete(ctx context.Context, req *agent.CompletionRequest) (<-chan *agent.CompletionChunk, error) {
	if !p.configured {
		return nil, fmt.Errorf("anthropic provider not configured: missing API key")
	}
	if req == nil || len(req.Messages) == 0 {
		return nil, fmt.Errorf("completion request requires at least one message")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.resolveModel(req.Model)),
		MaxTokens: int64(maxTokens),
		Messages:  convertMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(float64(*req.Temperature))
	}

	chunks := make(chan *agent.CompletionChunk, 2)
	go func() {
		defer close(chunks)
		msg, err := p.client.Messages.New(ctx, params)
		if err != nil {
			chunks <- &agent.CompletionChunk{Error: fmt.Errorf("anthropic completion: %w", err)}
			return
		}
		var sb strings.Builder
		for _, block := range msg.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		chunks <- &agent.CompletionChunk{Text: sb.String()}
		chunks <- &agent.CompletionChunk{Done: true}
	}()
	return chunks, nil
}

func (p *AnthropicProvider) resolveModel(model string) string {
	if model != "" {
		return model
	}
	return p.defaultModel
}

func convertMessages(messages []agent.CompletionMessage) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == "assistant" {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}
