package flow

import (
	"encoding/json"

	"github.com/haasonsaas/ragsuite/internal/model"
)

// PromptsPayload renders the prompt_only terminal output: the suggestion
// fields a target operator would copy into their agent configuration.
func PromptsPayload(suggestions *model.PromptSuggestions) string {
	if suggestions == nil {
		return "{}"
	}

	type agentOut struct {
		Role string `json:"role"`
		Goal string `json:"goal"`
	}
	supporting := make([]agentOut, 0, len(suggestions.SupportingAgents))
	for _, a := range suggestions.SupportingAgents {
		supporting = append(supporting, agentOut{Role: a.Role, Goal: a.Goal})
	}

	payload := map[string]any{
		"primary_agent": map[string]string{
			"role":      suggestions.PrimaryAgent.Role,
			"goal":      suggestions.PrimaryAgent.Goal,
			"backstory": suggestions.PrimaryAgent.Backstory,
		},
		"supporting_agents":     supporting,
		"system_prompt":         suggestions.SystemPrompt,
		"example_queries":       suggestions.ExampleQueries,
		"out_of_scope_examples": suggestions.OutOfScopeExamples,
		"limitations":           suggestions.Limitations,
	}
	return marshalIndent(payload)
}

// TestsPayload renders the generate_only terminal output: the full generated
// test cases plus short echoes of the prompt suggestions and discovery.
func TestsPayload(state *model.RunState) string {
	cases := state.TestCases
	if cases == nil {
		cases = []model.TestCase{}
	}
	payload := map[string]any{
		"test_cases": cases,
	}

	if s := state.PromptSuggestions; s != nil {
		payload["prompt_suggestions"] = map[string]string{
			"primary_agent_role": s.PrimaryAgent.Role,
			"system_prompt":      s.SystemPrompt,
		}
	} else {
		payload["prompt_suggestions"] = nil
	}

	if r := state.RagSummary; r != nil {
		domains := make([]string, 0, len(r.Domains))
		for _, d := range r.Domains {
			domains = append(domains, d.Name)
		}
		payload["rag_summary"] = map[string]any{
			"domains":  domains,
			"coverage": r.TotalCoverageEstimate,
		}
	} else {
		payload["rag_summary"] = nil
	}
	return marshalIndent(payload)
}

func marshalIndent(payload any) string {
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
