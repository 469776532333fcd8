package crews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/haasonsaas/ragsuite/internal/jsonx"
	"github.com/haasonsaas/ragsuite/internal/model"
	"github.com/haasonsaas/ragsuite/internal/ragquery"
	"github.com/haasonsaas/ragsuite/internal/retry"
)

var errInvalidDiscoveryOutput = errors.New("discovery output missing required fields")

// Seed questions probed against the knowledge base before asking the model to
// map its domains.
var discoveryProbes = []string{
	"What are the main topics covered?",
	"What services or products are described?",
	"What policies or procedures are documented?",
}

// Discovery maps the knowledge base behind the target into domains. It never
// fails: invalid model output is retried, and exhausted retries fall back to
// a heuristic summary assembled from one direct probe.
type Discovery struct {
	deps       Deps
	ragTool    ragquery.QueryTool
	maxRetries int
}

// NewDiscovery creates the discovery collaborator.
func NewDiscovery(deps Deps, ragTool ragquery.QueryTool, maxRetries int) *Discovery {
	if maxRetries <= 0 {
		maxRetries = 2
	}
	return &Discovery{deps: deps, ragTool: ragTool, maxRetries: maxRetries}
}

// Run probes the knowledge base and asks the model for a structured domain
// summary.
func (d *Discovery) Run(ctx context.Context, crewDescription string) *model.RagSummary {
	prompt := d.buildPrompt(ctx, crewDescription)

	var summary *model.RagSummary
	attempt := 0
	result := retry.Do(ctx, retry.Linear(d.maxRetries, 0), func() error {
		attempt++
		raw, err := d.deps.complete(ctx, discoveryTemperature, prompt)
		if err != nil {
			d.deps.logWarn(ctx, "discovery attempt failed", "attempt", attempt, "error", err)
			return err
		}
		if !validDiscoveryOutput(raw) {
			d.deps.logWarn(ctx, "discovery attempt produced invalid output", "attempt", attempt)
			return errInvalidDiscoveryOutput
		}
		summary = parseSummary(raw)
		return nil
	})
	if result.Err != nil {
		d.deps.logWarn(ctx, "all discovery attempts failed, using fallback summary",
			"attempts", result.Attempts)
		return d.fallbackSummary(ctx)
	}
	return summary
}

func (d *Discovery) buildPrompt(ctx context.Context, crewDescription string) string {
	var probes strings.Builder
	for _, q := range discoveryProbes {
		fmt.Fprintf(&probes, "Query: %s\n%s\n\n", q, d.ragTool.Query(ctx, q, 5))
	}

	return fmt.Sprintf(`You are a RAG system analyst mapping the knowledge base behind an AI assistant.

Assistant description: %s

Below are retrieval results from probe queries against the knowledge base:

%s
Based on these results, identify the knowledge domains this system covers.

Return ONLY a JSON object with these fields:
{
    "domains": [
        {
            "name": "domain name",
            "subtopics": ["subtopic", ...],
            "depth": "shallow|medium|deep",
            "example_queries": ["question a user might ask", ...],
            "sample_facts": ["fact found in the retrieval results", ...]
        }
    ],
    "boundaries": ["topics the knowledge base does NOT cover", ...],
    "total_coverage_estimate": "one-sentence description of overall coverage",
    "quality_notes": "observations about retrieval quality"
}`, orDefault(crewDescription, "General knowledge assistant"), probes.String())
}

// validDiscoveryOutput reports whether the model produced a parseable summary
// with at least one of the required fields.
func validDiscoveryOutput(raw string) bool {
	obj, ok := jsonx.ExtractObject(raw)
	if !ok {
		return false
	}
	_, hasDomains := obj["domains"]
	_, hasCoverage := obj["total_coverage_estimate"]
	return hasDomains || hasCoverage
}

// parseSummary decodes the model output. When decoding fails despite the
// validity check, the raw text itself becomes the coverage estimate so the
// downstream phases still have something to work with.
func parseSummary(raw string) *model.RagSummary {
	var summary model.RagSummary
	if jsonx.DecodeObject(raw, &summary) {
		return &summary
	}
	return &model.RagSummary{TotalCoverageEstimate: excerpt(raw, 500)}
}

// fallbackSummary builds a summary from one direct probe using topic markers
// in the retrieval text. It always returns at least one domain.
func (d *Discovery) fallbackSummary(ctx context.Context) *model.RagSummary {
	topics := d.ragTool.Query(ctx, "What are the main topics covered?", 3)

	var domains []model.RagDomain
	if strings.Contains(topics, "Employee Experience") {
		domains = append(domains, model.RagDomain{
			Name:           "Employee Experience",
			Subtopics:      []string{"helpdesk support", "service desk", "employee tools"},
			Depth:          "medium",
			ExampleQueries: []string{"What is employee experience?"},
			SampleFacts:    []string{"Employee experience covers internal support services"},
		})
	}
	if strings.Contains(topics, "GenAI") || strings.Contains(topics, "Advisory") {
		domains = append(domains, model.RagDomain{
			Name:           "GenAI Advisory",
			Subtopics:      []string{"AI strategy", "consulting", "implementation"},
			Depth:          "medium",
			ExampleQueries: []string{"What is GenAI advisory?"},
			SampleFacts:    []string{"GenAI consulting services for enterprise adoption"},
		})
	}
	if strings.Contains(topics, "Data") {
		domains = append(domains, model.RagDomain{
			Name:           "Data Foundation",
			Subtopics:      []string{"data governance", "data management", "compliance"},
			Depth:          "medium",
			ExampleQueries: []string{"What is data governance?"},
			SampleFacts:    []string{"Data foundation services for enterprise data management"},
		})
	}
	if len(domains) == 0 {
		domains = append(domains, model.RagDomain{
			Name:           "General Knowledge",
			Subtopics:      []string{"various topics"},
			Depth:          "unknown",
			ExampleQueries: []string{"General query"},
			SampleFacts:    []string{"Knowledge base content"},
		})
	}

	return &model.RagSummary{
		Domains:               domains,
		Boundaries:            []string{"topics outside business/technology domain"},
		TotalCoverageEstimate: "Business and technology knowledge base with multiple domains",
		QualityNotes:          "Fallback summary generated from direct RAG queries",
	}
}
