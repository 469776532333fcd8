// Package model defines the domain records shared across the test-suite flow:
// test cases and results, discovered RAG knowledge summaries, prompt
// suggestions, and the run state threaded through every phase.
package model

// RunMode selects which subset of phases a run executes.
type RunMode string

const (
	RunModeFull               RunMode = "full"
	RunModePromptOnly         RunMode = "prompt_only"
	RunModeGenerateOnly       RunMode = "generate_only"
	RunModeExecuteOnly        RunMode = "execute_only"
	RunModeGenerateAndExecute RunMode = "generate_and_execute"
)

// ParseRunMode normalizes a mode string. Unknown values coerce to RunModeFull;
// the second return reports whether the input was recognized.
func ParseRunMode(s string) (RunMode, bool) {
	switch RunMode(s) {
	case RunModeFull, RunModePromptOnly, RunModeGenerateOnly, RunModeExecuteOnly, RunModeGenerateAndExecute:
		return RunMode(s), true
	default:
		return RunModeFull, false
	}
}

// Normalized collapses the generate_and_execute alias onto full.
func (m RunMode) Normalized() RunMode {
	if m == RunModeGenerateAndExecute {
		return RunModeFull
	}
	return m
}

// TestCategory stratifies test cases by what capability they probe.
type TestCategory string

const (
	CategoryFactual    TestCategory = "factual"
	CategoryReasoning  TestCategory = "reasoning"
	CategoryEdgeCase   TestCategory = "edge_case"
	CategoryOutOfScope TestCategory = "out_of_scope"
	CategoryAmbiguous  TestCategory = "ambiguous"
)

// ParseCategory maps a string to a category, defaulting to factual for any
// unrecognized value. Bad LLM or CSV input never fails a row.
func ParseCategory(s string) TestCategory {
	switch TestCategory(s) {
	case CategoryFactual, CategoryReasoning, CategoryEdgeCase, CategoryOutOfScope, CategoryAmbiguous:
		return TestCategory(s)
	default:
		return CategoryFactual
	}
}

// TestDifficulty grades how hard a test case is expected to be.
type TestDifficulty string

const (
	DifficultyEasy   TestDifficulty = "easy"
	DifficultyMedium TestDifficulty = "medium"
	DifficultyHard   TestDifficulty = "hard"
)

// ParseDifficulty maps a string to a difficulty, defaulting to medium.
func ParseDifficulty(s string) TestDifficulty {
	switch TestDifficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return TestDifficulty(s)
	default:
		return DifficultyMedium
	}
}

// TestCase is a single question with its expected answer. Immutable once
// created. Duplicate IDs are tolerated.
type TestCase struct {
	ID             string         `json:"id"`
	Question       string         `json:"question"`
	ExpectedAnswer string         `json:"expected_answer"`
	Category       TestCategory   `json:"category"`
	Difficulty     TestDifficulty `json:"difficulty"`
	Rationale      string         `json:"rationale"`
}

// TestResult records one executed test case. Results are appended to the run
// state in execution order and never mutated afterwards.
type TestResult struct {
	TestCase            TestCase `json:"test_case"`
	ActualAnswer        string   `json:"actual_answer"`
	Passed              bool     `json:"passed"`
	SimilarityScore     float64  `json:"similarity_score"`
	EvaluationRationale string   `json:"evaluation_rationale"`
	RetryCount          int      `json:"retry_count"`
	ExecutionTimeMS     int64    `json:"execution_time_ms"`
	Error               string   `json:"error,omitempty"`
}

// CategoryScore is the derived per-category breakdown. It is recomputed in
// full from the result list on every evaluation pass.
type CategoryScore struct {
	Category     TestCategory `json:"category"`
	Total        int          `json:"total"`
	Passed       int          `json:"passed"`
	PassRate     float64      `json:"pass_rate"`
	CommonIssues []string     `json:"common_issues,omitempty"`
}

// RagDomain is one knowledge domain discovered in the target's RAG backend.
type RagDomain struct {
	Name           string   `json:"name"`
	Subtopics      []string `json:"subtopics,omitempty"`
	Depth          string   `json:"depth,omitempty"`
	ExampleQueries []string `json:"example_queries,omitempty"`
	SampleFacts    []string `json:"sample_facts,omitempty"`
}

// RagSummary aggregates the discovered knowledge-base coverage.
type RagSummary struct {
	Domains               []RagDomain `json:"domains,omitempty"`
	Boundaries            []string    `json:"boundaries,omitempty"`
	TotalCoverageEstimate string      `json:"total_coverage_estimate,omitempty"`
	QualityNotes          string      `json:"quality_notes,omitempty"`
}

// AgentSuggestion is a recommended agent configuration for the target system.
type AgentSuggestion struct {
	Role           string   `json:"role"`
	Goal           string   `json:"goal"`
	Backstory      string   `json:"backstory,omitempty"`
	Tools          []string `json:"tools,omitempty"`
	ExpertiseAreas []string `json:"expertise_areas,omitempty"`
}

// TaskSuggestion is a recommended task configuration.
type TaskSuggestion struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	ExpectedOutput string `json:"expected_output"`
}

// PromptSuggestions bundles generated prompt and agent configuration advice.
type PromptSuggestions struct {
	PrimaryAgent           AgentSuggestion   `json:"primary_agent"`
	SupportingAgents       []AgentSuggestion `json:"supporting_agents,omitempty"`
	SuggestedTasks         []TaskSuggestion  `json:"suggested_tasks,omitempty"`
	SystemPrompt           string            `json:"system_prompt,omitempty"`
	ExampleQueries         []string          `json:"example_queries,omitempty"`
	OutOfScopeExamples     []string          `json:"out_of_scope_examples,omitempty"`
	KnowledgeSummary       string            `json:"knowledge_summary,omitempty"`
	Limitations            []string          `json:"limitations,omitempty"`
	SuggestedTone          string            `json:"suggested_tone,omitempty"`
	ResponseFormatGuidance string            `json:"response_format_guidance,omitempty"`
}

// RunState is the mutable aggregate owned by exactly one flow instance for the
// lifetime of one run. Phases execute sequentially; no concurrent writer.
type RunState struct {
	RunID string `json:"run_id"`

	// Configuration echoes.
	RunMode         RunMode `json:"run_mode"`
	TestCSVPath     string  `json:"test_csv_path,omitempty"`
	TargetMode      string  `json:"target_mode,omitempty"`
	TargetAPIURL    string  `json:"target_api_url,omitempty"`
	TargetCrewPath  string  `json:"target_crew_path,omitempty"`
	RAGBackend      string  `json:"rag_backend,omitempty"`
	NumTests        int     `json:"num_tests"`
	PassThreshold   float64 `json:"pass_threshold"`
	MaxRetries      int     `json:"max_retries"`
	CrewDescription string  `json:"crew_description,omitempty"`

	// Phase 1 outputs.
	RagSummary        *RagSummary        `json:"rag_summary,omitempty"`
	PromptSuggestions *PromptSuggestions `json:"prompt_suggestions,omitempty"`
	TestCases         []TestCase         `json:"test_cases,omitempty"`

	// Phase 2 progress. CurrentTestIndex is a progress marker, not a
	// resumption checkpoint.
	CurrentTestIndex int          `json:"current_test_index"`
	Results          []TestResult `json:"results,omitempty"`

	// Phase 3 outputs.
	PassRate        float64         `json:"pass_rate"`
	CategoryScores  []CategoryScore `json:"category_scores,omitempty"`
	Recommendations []string        `json:"recommendations,omitempty"`
	QualityReport   string          `json:"quality_report,omitempty"`
}

// NewRunState returns a state populated with defaults matching a fresh run.
func NewRunState() *RunState {
	return &RunState{
		RunMode:       RunModeFull,
		TargetMode:    "api",
		RAGBackend:    "ragengine",
		NumTests:      20,
		PassThreshold: 0.7,
		MaxRetries:    2,
	}
}
