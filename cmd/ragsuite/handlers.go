// handlers.go contains the command handlers: configuration loading, wiring of
// the adapters and collaborators, and the run itself.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/haasonsaas/ragsuite/internal/agent"
	"github.com/haasonsaas/ragsuite/internal/agent/providers"
	"github.com/haasonsaas/ragsuite/internal/config"
	"github.com/haasonsaas/ragsuite/internal/crews"
	"github.com/haasonsaas/ragsuite/internal/flow"
	"github.com/haasonsaas/ragsuite/internal/judge"
	"github.com/haasonsaas/ragsuite/internal/model"
	"github.com/haasonsaas/ragsuite/internal/observability"
	"github.com/haasonsaas/ragsuite/internal/ragquery"
	"github.com/haasonsaas/ragsuite/internal/target"
)

// runSuite wires the full dependency graph and executes one run.
func runSuite(ctx context.Context, opts *runOptions) error {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// CLI target flags override the config file and pin the matching mode.
	if opts.targetAPIURL != "" {
		cfg.Target.APIURL = opts.targetAPIURL
		cfg.Target.Mode = "api"
	}
	if opts.targetCrewPath != "" {
		cfg.Target.CrewPath = opts.targetCrewPath
		cfg.Target.Mode = "local"
	}

	level := cfg.Logging.Level
	if opts.debug {
		level = "debug"
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:  level,
		Format: cfg.Logging.Format,
	})
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	tracer, shutdownTracer := observability.NewTracer(observability.TraceConfig{
		ServiceVersion: version,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
		EnableInsecure: cfg.Tracing.Insecure,
	})
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn(ctx, "tracer shutdown failed", "error", err)
		}
	}()

	provider := buildProvider(cfg.LLM)
	state := flow.Kickoff(ctx, cfg, flow.Params{
		Mode:            opts.runMode,
		TestCSVPath:     opts.testCSVPath,
		NumTests:        opts.numTests,
		CrewDescription: opts.crewDescription,
	}, logger)

	deps, err := buildFlowDeps(cfg, state, provider, logger, metrics, tracer)
	if err != nil {
		return err
	}

	output, err := flow.New(deps, state).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(output)
	if opts.outputPath != "" {
		if err := os.WriteFile(opts.outputPath, []byte(output+"\n"), 0o644); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
		logger.Info(ctx, "wrote run output", "path", opts.outputPath)
	}
	return nil
}

// loadConfig reads the configuration file, tolerating a missing file at the
// default path so a bare invocation still works.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) && path == "ragsuite.yaml" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// buildProvider selects the LLM provider. Credentials come from the
// environment variable named in the config, never from the file itself.
func buildProvider(cfg config.LLMConfig) agent.LLMProvider {
	apiKey := os.Getenv(cfg.APIKeyEnv)
	switch cfg.Provider {
	case "anthropic":
		return providers.NewAnthropicProvider(providers.AnthropicConfig{
			APIKey:       apiKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
		})
	default:
		return providers.NewOpenAIProvider(providers.OpenAIConfig{
			APIKey:       apiKey,
			BaseURL:      cfg.BaseURL,
			DefaultModel: cfg.Model,
		})
	}
}

// buildFlowDeps assembles the collaborators the selected run mode needs. The
// RAG adapter is skipped for execute_only and the target runner for the modes
// that never execute, so partial configurations stay usable.
func buildFlowDeps(cfg *config.Config, state *model.RunState, provider agent.LLMProvider,
	logger *observability.Logger, metrics *observability.Metrics, tracer *observability.Tracer) (flow.Deps, error) {

	crewDeps := crews.Deps{
		Provider: provider,
		Model:    cfg.LLM.Model,
		Logger:   logger,
		Metrics:  metrics,
	}
	deps := flow.Deps{
		Config:   cfg,
		Prompts:  crews.NewPromptGenerator(crewDeps),
		Tests:    crews.NewTestGenerator(crewDeps),
		Analyst:  crews.NewAnalyst(crewDeps),
		Reporter: crews.NewReporter(crewDeps),
		Logger:   logger,
		Metrics:  metrics,
		Tracer:   tracer,
	}

	if state.RunMode != model.RunModeExecuteOnly {
		ragTool, err := ragquery.New(cfg.RAG, ragquery.Options{Logger: logger, Metrics: metrics})
		if err != nil {
			return flow.Deps{}, fmt.Errorf("configure rag backend: %w", err)
		}
		deps.Discovery = crews.NewDiscovery(crewDeps, ragTool, cfg.TestGeneration.MaxRetries)
	}

	executes := state.RunMode == model.RunModeFull || state.RunMode == model.RunModeExecuteOnly
	if executes {
		runner, err := target.New(cfg.Target, target.Options{Logger: logger, Metrics: metrics})
		if err != nil {
			return flow.Deps{}, fmt.Errorf("configure target: %w", err)
		}
		deps.Runner = runner

		evalCfg := cfg.Evaluation
		if evalCfg.JudgeModel == "" {
			evalCfg.JudgeModel = cfg.LLM.Model
		}
		deps.Judge = judge.New(provider, evalCfg, logger, metrics)
	}
	return deps, nil
}
