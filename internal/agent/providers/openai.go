// Package providers implements the agent.LLMProvider contract for the LLM
// backends the suite can drive: OpenAI-compatible endpoints and Anthropic.
// Generation collaborators and the judge only ever see the interface.
package providers

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/haasonsaas/ragsuite/internal/agent"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIProvider implements agent.LLMProvider against OpenAI's chat API or
// any OpenAI-compatible gateway (set BaseURL for the latter). Safe for
// concurrent use; each Complete call runs an independent request.
type OpenAIProvider struct {
	client       *openai.Client
	defaultModel string
}

// OpenAIConfig configures the OpenAI provider.
type OpenAIConfig struct {
	// APIKey authenticates requests. Required.
	APIKey string

	// BaseURL overrides the API endpoint for OpenAI-compatible gateways.
	BaseURL string

	// DefaultModel is used when a request leaves Model empty.
	DefaultModel string
}

// NewOpenAIProvider creates the provider. An empty API key is allowed for
// delayed configuration; Complete will fail until one is set.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	p := &OpenAIProvider{defaultModel: cfg.DefaultModel}
	if p.defaultModel == "" {
		p.defaultModel = defaultOpenAIModel
	}
	if cfg.APIKey == "" {
		return p
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	p.client = openai.NewClientWithConfig(clientCfg)
	return p
}

// Name returns "openai".
func (p *OpenAIProvider) Name() string { return "openai" }

// Models returns the models this provider advertises.
func (p *OpenAIProvider) Models() []agent.Model {
	return []agent.Model{
		{ID: "gpt-4o", Name: "GPT-4o", ContextSize: 128000},
		{ID: "gpt-4o-mini", Name: "GPT-4o mini", ContextSize: 128000},
	}
}

// Complete sends the request and delivers the full response as a single text
// chunk followed by a done chunk. The suite's calls are all one-shot
// request/response, so incremental token delivery buys nothing here.
func (p *OpenAIProvider) Complete(ctx context.Context, req *agent.CompletionRequest) (<-chan *agent.CompletionChunk, error) {
	if p.client == nil {
		return nil, fmt.Errorf("openai provider not configured: missing API key")
	}
	if req == nil || len(req.Messages) == 0 {
		return nil, fmt.Errorf("completion request requires at least one message")
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, msg := range req.Messages {
		role := openai.ChatMessageRoleUser
		if msg.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}

	apiReq := openai.ChatCompletionRequest{
		Model:     p.resolveModel(req.Model),
		Messages:  messages,
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature != nil {
		apiReq.Temperature = *req.Temperature
	}

	chunks := make(chan *agent.CompletionChunk, 2)
	go func() {
		defer close(chunks)
		resp, err := p.client.CreateChatCompletion(ctx, apiReq)
		if err != nil {
			chunks <- &agent.CompletionChunk{Error: fmt.Errorf("openai completion: %w", err)}
			return
		}
		if len(resp.Choices) == 0 {
			chunks <- &agent.CompletionChunk{Error: fmt.Errorf("openai completion: no choices returned")}
			return
		}
		chunks <- &agent.CompletionChunk{Text: resp.Choices[0].Message.Content}
		chunks <- &agent.CompletionChunk{Done: true}
	}()
	return chunks, nil
}

func (p *OpenAIProvider) resolveModel(model string) string {
	if model != "" {
		return model
	}
	return p.defaultModel
}
