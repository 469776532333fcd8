package target

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/haasonsaas/ragsuite/internal/config"
)

// Sentinel markers wrap the answer on stdout so it can be separated from the
// verbose framework logging local agents tend to emit.
const (
	resultMarkerStart = "<<<CREW_RESULT_START>>>"
	resultMarkerEnd   = "<<<CREW_RESULT_END>>>"
)

// LocalRunner executes the agent under test as a subprocess in its own
// working directory. The question and optional session ID are passed through
// the QUERY and SESSION_ID environment variables.
type LocalRunner struct {
	cfg  config.TargetConfig
	opts Options
}

// NewLocalRunner creates the local-mode runner.
func NewLocalRunner(cfg config.TargetConfig, opts Options) *LocalRunner {
	return &LocalRunner{cfg: cfg, opts: opts}
}

// Mode returns "local".
func (r *LocalRunner) Mode() string { return "local" }

// Ask runs the entrypoint command and extracts the marked answer from stdout.
func (r *LocalRunner) Ask(ctx context.Context, question, sessionID string) string {
	timeout := seconds(r.cfg.TimeoutSeconds, 180*time.Second)
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	parts := strings.Fields(r.cfg.CrewEntrypoint)
	if len(parts) == 0 {
		return "Execution Error: crew_entrypoint is empty"
	}
	cmd := exec.CommandContext(runCtx, parts[0], parts[1:]...)
	cmd.Dir = r.cfg.CrewPath
	cmd.Env = append(os.Environ(),
		"QUERY="+question,
		"SESSION_ID="+sessionID,
		// Keep subprocess output plain so marker extraction is reliable.
		"TERM=dumb",
		"NO_COLOR=1",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		r.opts.recordError("timeout")
		return fmt.Sprintf("Timeout Error: Crew execution exceeded %d seconds", int(timeout.Seconds()))
	}
	if err != nil {
		errText := strings.TrimSpace(stderr.String())
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if strings.Contains(errText, "ModuleNotFoundError") || strings.Contains(errText, "ImportError") {
				r.opts.recordError("import_error")
				return "Import Error: " + lastLine(errText)
			}
			r.opts.recordError("execution_error")
			return "Execution Error: " + errText
		}
		r.opts.recordError("subprocess_error")
		return fmt.Sprintf("Subprocess Error: %v", err)
	}

	return extractMarkedResult(stdout.String())
}

// extractMarkedResult returns the text between the result markers, or the
// whole trimmed stdout when the target does not emit markers.
func extractMarkedResult(stdout string) string {
	start := strings.Index(stdout, resultMarkerStart)
	end := strings.Index(stdout, resultMarkerEnd)
	if start >= 0 && end > start {
		return strings.TrimSpace(stdout[start+len(resultMarkerStart) : end])
	}
	return strings.TrimSpace(stdout)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return lines[len(lines)-1]
}
