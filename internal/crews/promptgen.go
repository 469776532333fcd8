package crews

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/haasonsaas/ragsuite/internal/jsonx"
	"github.com/haasonsaas/ragsuite/internal/model"
)

// PromptGenerator derives agent and prompt configuration suggestions from the
// discovered knowledge summary. On any failure it falls back to deterministic
// defaults built from the summary's domain names.
type PromptGenerator struct {
	deps Deps
}

// NewPromptGenerator creates the prompt-suggestion collaborator.
func NewPromptGenerator(deps Deps) *PromptGenerator {
	return &PromptGenerator{deps: deps}
}

// Run generates prompt suggestions for the target system.
func (g *PromptGenerator) Run(ctx context.Context, summary *model.RagSummary, crewDescription string) *model.PromptSuggestions {
	raw, err := g.deps.complete(ctx, generationTemperature, g.buildPrompt(summary, crewDescription))
	if err != nil {
		g.deps.logWarn(ctx, "prompt generation failed", "error", err)
		return DefaultSuggestions(summary)
	}

	suggestions, ok := parseSuggestions(raw)
	if !ok {
		g.deps.logWarn(ctx, "failed to parse prompt suggestions, creating defaults")
		return DefaultSuggestions(summary)
	}
	return suggestions
}

func (g *PromptGenerator) buildPrompt(summary *model.RagSummary, crewDescription string) string {
	summaryJSON := "{}"
	if summary != nil {
		if b, err := json.Marshal(summary); err == nil {
			summaryJSON = string(b)
		}
	}

	return fmt.Sprintf(`You are a prompt engineer designing an AI assistant over a knowledge base.

Assistant description: %s

Knowledge base summary:
%s

Design the agent configuration and system prompt best suited to this knowledge base.

Return ONLY a JSON object with these fields:
{
    "primary_agent": {"role": "...", "goal": "...", "backstory": "...", "tools": ["..."], "expertise_areas": ["..."]},
    "supporting_agents": [{"role": "...", "goal": "...", "backstory": "...", "tools": ["..."], "expertise_areas": ["..."]}],
    "suggested_tasks": [{"name": "...", "description": "...", "expected_output": "..."}],
    "system_prompt": "full system prompt text",
    "example_queries": ["..."],
    "out_of_scope_examples": ["..."],
    "knowledge_summary": "...",
    "limitations": ["..."],
    "suggested_tone": "...",
    "response_format_guidance": "..."
}`, orDefault(crewDescription, "General knowledge assistant"), summaryJSON)
}

func parseSuggestions(raw string) (*model.PromptSuggestions, bool) {
	obj, ok := jsonx.ExtractObject(raw)
	if !ok {
		return nil, false
	}

	suggestions := &model.PromptSuggestions{
		SystemPrompt:           jsonx.StringField(obj, "system_prompt", ""),
		ExampleQueries:         jsonx.StringList(obj, "example_queries"),
		OutOfScopeExamples:     jsonx.StringList(obj, "out_of_scope_examples"),
		KnowledgeSummary:       jsonx.StringField(obj, "knowledge_summary", ""),
		Limitations:            jsonx.StringList(obj, "limitations"),
		SuggestedTone:          jsonx.StringField(obj, "suggested_tone", "professional"),
		ResponseFormatGuidance: jsonx.StringField(obj, "response_format_guidance", ""),
	}

	primary, _ := obj["primary_agent"].(map[string]any)
	suggestions.PrimaryAgent = parseAgent(primary, model.AgentSuggestion{
		Role:  "Knowledge Assistant",
		Goal:  "Help users find information",
		Tools: []string{"rag_search"},
	})

	if raw, ok := obj["supporting_agents"].([]any); ok {
		for _, item := range raw {
			if m, ok := item.(map[string]any); ok {
				suggestions.SupportingAgents = append(suggestions.SupportingAgents, parseAgent(m, model.AgentSuggestion{}))
			}
		}
	}
	if raw, ok := obj["suggested_tasks"].([]any); ok {
		for _, item := range raw {
			if m, ok := item.(map[string]any); ok {
				suggestions.SuggestedTasks = append(suggestions.SuggestedTasks, model.TaskSuggestion{
					Name:           jsonx.StringField(m, "name", ""),
					Description:    jsonx.StringField(m, "description", ""),
					ExpectedOutput: jsonx.StringField(m, "expected_output", ""),
				})
			}
		}
	}
	return suggestions, true
}

func parseAgent(m map[string]any, defaults model.AgentSuggestion) model.AgentSuggestion {
	if m == nil {
		return defaults
	}
	suggestion := model.AgentSuggestion{
		Role:           jsonx.StringField(m, "role", defaults.Role),
		Goal:           jsonx.StringField(m, "goal", defaults.Goal),
		Backstory:      jsonx.StringField(m, "backstory", defaults.Backstory),
		Tools:          jsonx.StringList(m, "tools"),
		ExpertiseAreas: jsonx.StringList(m, "expertise_areas"),
	}
	if len(suggestion.Tools) == 0 {
		suggestion.Tools = defaults.Tools
	}
	return suggestion
}

// DefaultSuggestions builds deterministic suggestions from the summary's
// first three domain names.
func DefaultSuggestions(summary *model.RagSummary) *model.PromptSuggestions {
	domainNames := []string{"General Knowledge"}
	coverage := "Various topics"
	if summary != nil {
		if len(summary.Domains) > 0 {
			domainNames = domainNames[:0]
			for i, d := range summary.Domains {
				if i >= 3 {
					break
				}
				domainNames = append(domainNames, orDefault(d.Name, "Unknown"))
			}
		}
		if summary.TotalCoverageEstimate != "" {
			coverage = summary.TotalCoverageEstimate
		}
	}
	expertise := strings.Join(domainNames, ", ")

	return &model.PromptSuggestions{
		PrimaryAgent: model.AgentSuggestion{
			Role: "Knowledge Assistant",
			Goal: "Help users find accurate information from the knowledge base",
			Backstory: fmt.Sprintf(`You are a helpful knowledge assistant with expertise in %s.
You are thorough in your research and always cite your sources.
When you don't know something, you say so honestly rather than making things up.
You communicate clearly and adapt your responses to the user's level of expertise.`, expertise),
			Tools:          []string{"rag_search"},
			ExpertiseAreas: domainNames,
		},
		SystemPrompt: fmt.Sprintf(`You are a helpful assistant with access to a knowledge base covering %s.

GUIDELINES:
1. Always search the knowledge base before answering
2. Cite sources in your responses
3. If you can't find information, say so clearly
4. Be concise but thorough
5. Ask clarifying questions if needed

LIMITATIONS:
- Only answer questions related to the knowledge base
- Do not make up information
- Redirect off-topic questions politely`, coverage),
		ExampleQueries: []string{
			fmt.Sprintf("What is %s?", domainNames[0]),
			"Tell me more about the available services",
			"How does this work?",
		},
		OutOfScopeExamples: []string{
			"What's the weather today?",
			"Tell me a joke",
			"What's happening in the news?",
		},
		KnowledgeSummary: coverage,
		Limitations: []string{
			"Limited to information in the knowledge base",
			"May not have the latest updates",
			"Cannot perform actions, only provide information",
		},
		SuggestedTone:          "professional",
		ResponseFormatGuidance: "Use markdown formatting. Include source citations. Keep responses focused and relevant.",
	}
}
