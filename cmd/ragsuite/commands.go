// commands.go contains the cobra command definitions and their flag
// configurations. Each command builder creates a command and wires it to its
// handler in handlers.go.
package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/ragsuite/internal/model"
)

// runOptions carries every flag of the run command.
type runOptions struct {
	configPath      string
	runMode         string
	testCSVPath     string
	numTests        int
	crewDescription string
	targetAPIURL    string
	targetCrewPath  string
	outputPath      string
	debug           bool
}

// buildRootCmd creates the root command with all subcommands attached.
// Separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ragsuite",
		Short: "ragsuite - Automated quality testing for RAG chat agents",
		Long: `ragsuite probes a RAG-backed agent's knowledge base, generates test
questions against its coverage, executes them on the target agent, grades the
answers with an LLM judge, and renders a quality report.

Supported RAG backends: RAG Engine (MCP over SSE), Qdrant
Supported LLM providers: OpenAI, Anthropic (Claude)`,
		Version: buildVersion(),
		// SilenceUsage prevents printing usage on every error.
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildRunCmd(),
		buildModesCmd(),
	)
	return rootCmd
}

// buildRunCmd creates the "run" command, the primary entry point. Flag
// defaults come from the RUN_MODE, TEST_CSV_PATH, NUM_TESTS and
// CREW_DESCRIPTION environment variables so deployments can configure runs
// without a command line.
func buildRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the test suite against a target agent",
		Long: `Run the test suite in one of five modes:

  full                 discover, generate, execute, evaluate, report (default)
  prompt_only          discover coverage, output prompt suggestions, exit
  generate_only        generate test cases, output them as JSON, exit
  execute_only         load test cases from CSV, execute, evaluate, report
  generate_and_execute alias for full`,
		Example: `  # Full run against a deployed agent
  ragsuite run --target-api-url https://crews.example.com/kickoff

  # Generate 30 test cases without executing them
  ragsuite run --run-mode generate_only --num-tests 30 --output tests.json

  # Execute a prepared CSV
  ragsuite run --run-mode execute_only --test-csv tests.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, _ := model.ParseRunMode(strings.ToLower(strings.TrimSpace(opts.runMode)))
			if mode == model.RunModeExecuteOnly && opts.testCSVPath == "" {
				return fmt.Errorf("--test-csv is required for execute_only mode")
			}
			return runSuite(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", envOr("RAGSUITE_CONFIG", "ragsuite.yaml"),
		"Path to YAML or JSON5 configuration file")
	cmd.Flags().StringVar(&opts.runMode, "run-mode", envOr("RUN_MODE", "full"),
		"Run mode: full, prompt_only, generate_only, execute_only, generate_and_execute")
	cmd.Flags().StringVar(&opts.testCSVPath, "test-csv", os.Getenv("TEST_CSV_PATH"),
		"Path to CSV file with test cases (required for execute_only)")
	cmd.Flags().IntVar(&opts.numTests, "num-tests", envOrInt("NUM_TESTS", 0),
		"Number of test cases to generate (0 uses the configured default)")
	cmd.Flags().StringVar(&opts.crewDescription, "crew-description", os.Getenv("CREW_DESCRIPTION"),
		"Description of what the target agent does")
	cmd.Flags().StringVar(&opts.targetAPIURL, "target-api-url", os.Getenv("TARGET_API_URL"),
		"Kickoff URL of the target agent's API (switches target to api mode)")
	cmd.Flags().StringVar(&opts.targetCrewPath, "target-crew-path", os.Getenv("TARGET_CREW_PATH"),
		"Path to a local target agent (switches target to local mode)")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "",
		"Write the run output (report or JSON payload) to this file")
	cmd.Flags().BoolVarP(&opts.debug, "debug", "d", false,
		"Enable debug logging (verbose output)")

	return cmd
}

// buildModesCmd creates the "modes" command listing the run modes.
func buildModesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List the available run modes",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), `full                 discover, generate, execute, evaluate, report (default)
prompt_only          discover coverage, output prompt suggestions, exit
generate_only        generate test cases, output them as JSON, exit
execute_only         load test cases from CSV, execute, evaluate, report
generate_and_execute alias for full
`)
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
