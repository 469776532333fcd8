// Package flow drives a suite run through its phases. The state machine is an
// explicit phase table: each handler does one phase's work against the shared
// run state and returns the next phase. Routing depends only on the run mode
// set at kickoff, so a given mode always visits the same phases.
//
// Phase handlers never abort the run. Adapter failures arrive as tagged answer
// strings, collaborator failures as deterministic fallbacks, and a missing CSV
// as an empty test list; every run reaches a terminal output.
package flow

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/haasonsaas/ragsuite/internal/config"
	"github.com/haasonsaas/ragsuite/internal/crews"
	"github.com/haasonsaas/ragsuite/internal/judge"
	"github.com/haasonsaas/ragsuite/internal/model"
	"github.com/haasonsaas/ragsuite/internal/observability"
	"github.com/haasonsaas/ragsuite/internal/scoring"
	"github.com/haasonsaas/ragsuite/internal/target"
)

// Phase identifies one step of a run. Phase values double as metric labels.
type Phase string

const (
	PhaseLoadCSV         Phase = "load_csv"
	PhaseDiscover        Phase = "discover"
	PhaseGeneratePrompts Phase = "generate_prompts"
	PhaseOutputPrompts   Phase = "output_prompts"
	PhaseGenerateTests   Phase = "generate_tests"
	PhaseOutputTests     Phase = "output_tests"
	PhaseExecute         Phase = "execute"
	PhaseEvaluate        Phase = "evaluate"
	PhaseReport          Phase = "report"
	PhaseDone            Phase = "done"
)

// Discoverer maps the knowledge base into a coverage summary.
type Discoverer interface {
	Run(ctx context.Context, crewDescription string) *model.RagSummary
}

// PromptSuggester derives agent and prompt configuration suggestions.
type PromptSuggester interface {
	Run(ctx context.Context, summary *model.RagSummary, crewDescription string) *model.PromptSuggestions
}

// TestGenerator synthesizes test cases from the coverage summary.
type TestGenerator interface {
	Run(ctx context.Context, summary *model.RagSummary, crewDescription string, numTests int, categories []string) ([]model.TestCase, []crews.SkippedCase)
}

// Evaluator judges one answer against the expected one.
type Evaluator interface {
	Evaluate(ctx context.Context, question, expected, actual, criteria string) judge.Verdict
}

// Analyst inspects the full result set for failure patterns.
type Analyst interface {
	Run(ctx context.Context, results []model.TestResult) crews.Analysis
}

// Reporter renders the final quality report.
type Reporter interface {
	Run(ctx context.Context, results []model.TestResult, scores []model.CategoryScore, analysis crews.Analysis, targetName string) string
}

// Deps bundles everything a run needs. Runner and Judge may be nil in modes
// that never execute tests.
type Deps struct {
	Config    *config.Config
	Runner    target.Runner
	Judge     Evaluator
	Discovery Discoverer
	Prompts   PromptSuggester
	Tests     TestGenerator
	Analyst   Analyst
	Reporter  Reporter
	Logger    *observability.Logger
	Metrics   *observability.Metrics
	Tracer    *observability.Tracer
}

// Flow owns one run from kickoff to terminal output. One flow instance per
// run; the state is never shared across runs.
type Flow struct {
	deps     Deps
	state    *model.RunState
	analysis crews.Analysis
	output   string
}

// New creates a flow over an already kicked-off state.
func New(deps Deps, state *model.RunState) *Flow {
	return &Flow{deps: deps, state: state}
}

// State exposes the run state for inspection after Run returns.
func (f *Flow) State() *model.RunState { return f.state }

// Run executes phases until the terminal phase and returns the run's output:
// the markdown quality report, or a JSON payload for the prompt_only and
// generate_only exits.
func (f *Flow) Run(ctx context.Context) (string, error) {
	ctx = observability.WithRunID(ctx, f.state.RunID)
	handlers := f.handlers()

	phase := entryPhase(f.state.RunMode)
	for phase != PhaseDone {
		handler, ok := handlers[phase]
		if !ok {
			return "", fmt.Errorf("no handler for phase %q", phase)
		}

		pctx := observability.WithPhase(ctx, string(phase))
		start := time.Now()
		next := f.runPhase(pctx, phase, handler)
		if f.deps.Metrics != nil {
			f.deps.Metrics.RecordPhase(string(phase), time.Since(start).Seconds())
		}
		phase = next
	}
	return f.output, nil
}

func (f *Flow) runPhase(ctx context.Context, phase Phase, handler func(context.Context) Phase) Phase {
	if f.deps.Tracer == nil {
		return handler(ctx)
	}
	sctx, span := f.deps.Tracer.Start(ctx, "flow."+string(phase),
		attribute.String("run.id", f.state.RunID),
		attribute.String("run.mode", string(f.state.RunMode)),
	)
	defer span.End()
	return handler(sctx)
}

// handlers is the phase table. Adding a phase means adding a row here.
func (f *Flow) handlers() map[Phase]func(context.Context) Phase {
	return map[Phase]func(context.Context) Phase{
		PhaseLoadCSV:         f.loadCSV,
		PhaseDiscover:        f.discover,
		PhaseGeneratePrompts: f.generatePrompts,
		PhaseOutputPrompts:   f.outputPrompts,
		PhaseGenerateTests:   f.generateTests,
		PhaseOutputTests:     f.outputTests,
		PhaseExecute:         f.execute,
		PhaseEvaluate:        f.evaluate,
		PhaseReport:          f.report,
	}
}

func entryPhase(mode model.RunMode) Phase {
	if mode == model.RunModeExecuteOnly {
		return PhaseLoadCSV
	}
	return PhaseDiscover
}

func (f *Flow) loadCSV(ctx context.Context) Phase {
	f.state.TestCases = LoadCSV(ctx, f.state.TestCSVPath, f.deps.Logger)
	return PhaseExecute
}

func (f *Flow) discover(ctx context.Context) Phase {
	f.logInfo(ctx, "analyzing knowledge base coverage")
	f.state.RagSummary = f.deps.Discovery.Run(ctx, f.state.CrewDescription)
	domains := 0
	if f.state.RagSummary != nil {
		domains = len(f.state.RagSummary.Domains)
	}
	f.logInfo(ctx, "discovery complete", "domains", domains)
	return PhaseGeneratePrompts
}

func (f *Flow) generatePrompts(ctx context.Context) Phase {
	f.state.PromptSuggestions = f.deps.Prompts.Run(ctx, f.state.RagSummary, f.state.CrewDescription)
	if s := f.state.PromptSuggestions; s != nil {
		f.logInfo(ctx, "generated prompt suggestions",
			"primary_role", s.PrimaryAgent.Role,
			"example_queries", len(s.ExampleQueries),
			"limitations", len(s.Limitations))
	}
	if f.state.RunMode == model.RunModePromptOnly {
		return PhaseOutputPrompts
	}
	return PhaseGenerateTests
}

func (f *Flow) outputPrompts(ctx context.Context) Phase {
	f.output = PromptsPayload(f.state.PromptSuggestions)
	return PhaseDone
}

func (f *Flow) generateTests(ctx context.Context) Phase {
	cases, skipped := f.deps.Tests.Run(ctx, f.state.RagSummary, f.state.CrewDescription,
		f.state.NumTests, f.deps.Config.TestGeneration.Categories)
	f.state.TestCases = cases
	f.logInfo(ctx, "generated test cases", "count", len(cases), "skipped", len(skipped))
	if f.state.RunMode == model.RunModeGenerateOnly {
		return PhaseOutputTests
	}
	return PhaseExecute
}

func (f *Flow) outputTests(ctx context.Context) Phase {
	f.output = TestsPayload(f.state)
	return PhaseDone
}

func (f *Flow) execute(ctx context.Context) Phase {
	total := len(f.state.TestCases)
	for i, tc := range f.state.TestCases {
		f.state.CurrentTestIndex = i
		tctx := observability.WithTestID(ctx, tc.ID)
		f.logInfo(tctx, "executing test", "index", i+1, "total", total)

		start := time.Now()
		answer := f.deps.Runner.Ask(tctx, tc.Question, f.state.RunID)
		elapsed := time.Since(start)

		verdict := f.deps.Judge.Evaluate(tctx, tc.Question, tc.ExpectedAnswer, answer, "")

		result := model.TestResult{
			TestCase:            tc,
			ActualAnswer:        answer,
			Passed:              verdict.Passed,
			SimilarityScore:     verdict.Score,
			EvaluationRationale: verdict.Rationale,
			ExecutionTimeMS:     elapsed.Milliseconds(),
		}
		f.state.Results = append(f.state.Results, result)

		if f.deps.Metrics != nil {
			f.deps.Metrics.RecordTestExecution(string(tc.Category), verdict.Passed, elapsed.Seconds())
		}
		f.logInfo(tctx, "test finished",
			"passed", verdict.Passed,
			"score", fmt.Sprintf("%.2f", verdict.Score),
			"elapsed_ms", result.ExecutionTimeMS)
	}
	return PhaseEvaluate
}

func (f *Flow) evaluate(ctx context.Context) Phase {
	f.state.PassRate = scoring.PassRate(f.state.Results)
	f.state.CategoryScores = scoring.CategoryScores(f.state.Results)
	f.logInfo(ctx, "evaluation complete",
		"pass_rate", fmt.Sprintf("%.1f", f.state.PassRate),
		"results", len(f.state.Results))

	// Analysis runs even for zero results so the report always has a section.
	f.analysis = f.deps.Analyst.Run(ctx, f.state.Results)
	f.state.Recommendations = f.analysis.Recommendations.PriorityOrder
	return PhaseReport
}

func (f *Flow) report(ctx context.Context) Phase {
	targetName := f.state.TargetAPIURL
	if targetName == "" {
		targetName = f.state.TargetCrewPath
	}
	if targetName == "" {
		targetName = "Unknown"
	}

	f.state.QualityReport = f.deps.Reporter.Run(ctx, f.state.Results, f.state.CategoryScores, f.analysis, targetName)
	f.output = f.state.QualityReport

	passed := 0
	for _, r := range f.state.Results {
		if r.Passed {
			passed++
		}
	}
	f.logInfo(ctx, "run complete",
		"run_mode", string(f.state.RunMode),
		"pass_rate", fmt.Sprintf("%.1f", f.state.PassRate),
		"total", len(f.state.Results),
		"passed", passed)
	return PhaseDone
}

func (f *Flow) logInfo(ctx context.Context, msg string, args ...any) {
	if f.deps.Logger != nil {
		f.deps.Logger.Info(ctx, msg, args...)
	}
}
