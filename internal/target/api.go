package target

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/haasonsaas/ragsuite/internal/config"
	"github.com/haasonsaas/ragsuite/internal/retry"
)

var errKickoffPending = errors.New("kickoff still running")

// APIRunner drives a deployed agent through its HTTP kickoff endpoint. A
// kickoff either answers synchronously or returns a kickoff_id, in which case
// the runner polls the status endpoint at a fixed interval until the run
// completes, fails, or the timeout elapses.
type APIRunner struct {
	cfg    config.TargetConfig
	opts   Options
	client *http.Client
}

// NewAPIRunner creates the API-mode runner.
func NewAPIRunner(cfg config.TargetConfig, opts Options) *APIRunner {
	return &APIRunner{
		cfg:    cfg,
		opts:   opts,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Mode returns "api".
func (r *APIRunner) Mode() string { return "api" }

// Ask kicks off the agent and waits for its answer.
func (r *APIRunner) Ask(ctx context.Context, question, sessionID string) string {
	token := os.Getenv(r.cfg.APITokenEnv)
	if token == "" {
		r.opts.recordError("missing_token")
		return fmt.Sprintf("API Error: %s environment variable not set", r.cfg.APITokenEnv)
	}

	inputs := map[string]any{"QUERY": question}
	if sessionID != "" {
		inputs["SESSION_ID"] = sessionID
	}
	body, err := json.Marshal(map[string]any{"inputs": inputs})
	if err != nil {
		return fmt.Sprintf("API Error: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Sprintf("API Error: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.opts.recordError("kickoff_failed")
		return fmt.Sprintf("API Error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.opts.recordError("kickoff_failed")
		return fmt.Sprintf("API Error: kickoff returned status %d", resp.StatusCode)
	}

	var kickoff map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&kickoff); err != nil {
		return fmt.Sprintf("API Error: %v", err)
	}

	if kickoffID, ok := kickoff["kickoff_id"].(string); ok && kickoffID != "" {
		return r.pollForResult(ctx, kickoffID, token)
	}

	// Sync kickoff: the answer is in the response itself.
	if result, ok := kickoff["result"].(string); ok {
		return result
	}
	raw, _ := json.Marshal(kickoff)
	return string(raw)
}

func (r *APIRunner) pollForResult(ctx context.Context, kickoffID, token string) string {
	statusURL := strings.Replace(r.cfg.APIURL, "/kickoff", "/kickoffs/"+kickoffID, 1)
	timeout := seconds(r.cfg.APITimeoutSeconds, 300*time.Second)
	interval := seconds(r.cfg.APIPollIntervalSeconds, 5*time.Second)
	attempts := int(timeout / interval)
	if attempts < 1 {
		attempts = 1
	}

	var answer string
	result := retry.Do(ctx, retry.Linear(attempts, interval), func() error {
		status, err := r.fetchStatus(ctx, statusURL, token)
		if err != nil {
			r.opts.recordError("poll_failed")
			answer = fmt.Sprintf("Poll Error: %v", err)
			return retry.Permanent(err)
		}

		switch status.state {
		case "completed":
			answer = status.result
			return nil
		case "failed":
			r.opts.recordError("crew_failed")
			answer = fmt.Sprintf("Crew failed: %s", status.errText)
			return retry.Permanent(errors.New(status.errText))
		}
		// pending, running, or unknown states keep polling.
		r.opts.logDebug(ctx, "kickoff still running", "kickoff_id", kickoffID, "status", status.state)
		return errKickoffPending
	})

	if result.Err == nil || retry.IsPermanent(result.Err) {
		return answer
	}
	if !errors.Is(result.Err, context.Canceled) && !errors.Is(result.Err, context.DeadlineExceeded) {
		r.opts.recordError("timeout")
	}
	return "Timeout: Crew execution timed out"
}

type kickoffStatus struct {
	state   string
	result  string
	errText string
}

func (r *APIRunner) fetchStatus(ctx context.Context, url, token string) (kickoffStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return kickoffStatus{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := r.client.Do(req)
	if err != nil {
		return kickoffStatus{}, err
	}
	defer resp.Body.Close()

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return kickoffStatus{}, err
	}

	status := kickoffStatus{errText: "Unknown error"}
	if s, ok := data["status"].(string); ok {
		status.state = s
	}
	if res, ok := data["result"].(string); ok {
		status.result = res
	}
	if e, ok := data["error"].(string); ok && e != "" {
		status.errText = e
	}
	return status, nil
}
