// Package main provides the CLI entry point for the ragsuite quality-testing
// harness.
//
// ragsuite discovers what a RAG-backed agent's knowledge base covers,
// generates test questions against that coverage, executes them on the target
// agent, grades the answers with an LLM judge, and renders a markdown quality
// report.
//
// # Basic Usage
//
// Run the full suite:
//
//	ragsuite run --config ragsuite.yaml --target-api-url https://host/kickoff
//
// Generate test cases without executing them:
//
//	ragsuite run --run-mode generate_only --num-tests 30
//
// Execute a prepared CSV of test cases:
//
//	ragsuite run --run-mode execute_only --test-csv tests.csv
//
// # Environment Variables
//
//   - RAGSUITE_CONFIG: Path to configuration file (default: ragsuite.yaml)
//   - OPENAI_API_KEY / ANTHROPIC_API_KEY: LLM provider credentials
//   - TARGET_API_TOKEN: Bearer token for the target agent's API
//   - PG_RAG_TOKEN: Bearer token for the RAG Engine MCP server
//   - QDRANT_API_KEY: API key for the Qdrant backend
//
// Configuration values can also be overridden with RAGSUITE_-prefixed
// variables, e.g. RAGSUITE_EVALUATION_PASS_THRESHOLD=0.8.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// Build information - populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := buildRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func buildVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
}
