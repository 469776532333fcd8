package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLoggerRedactsAPIKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "info", Format: "json", Output: &buf})

	logger.Info(context.Background(), "configured provider",
		"detail", "api_key: sk-abcdefghijklmnopqrstuvwxyz012345678901234567890123")

	out := buf.String()
	if strings.Contains(out, "sk-abcdef") {
		t.Errorf("output leaked API key: %s", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Errorf("output missing redaction marker: %s", out)
	}
}

func TestLoggerRedactsBearerTokens(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "info", Format: "text", Output: &buf})

	logger.Warn(context.Background(), "request failed",
		"header", "Bearer abcdefghijklmnop.qrstuvwxyz1234")

	if strings.Contains(buf.String(), "abcdefghijklmnop") {
		t.Errorf("output leaked token: %s", buf.String())
	}
}

func TestLoggerIncludesRunContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "debug", Format: "json", Output: &buf})

	ctx := WithRunID(context.Background(), "run-42")
	ctx = WithPhase(ctx, "execute")
	ctx = WithTestID(ctx, "TEST-003")
	logger.Info(ctx, "test executed", "elapsed_ms", 1200)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal log record: %v", err)
	}
	if record["run_id"] != "run-42" {
		t.Errorf("run_id = %v, want run-42", record["run_id"])
	}
	if record["phase"] != "execute" {
		t.Errorf("phase = %v, want execute", record["phase"])
	}
	if record["test_id"] != "TEST-003" {
		t.Errorf("test_id = %v, want TEST-003", record["test_id"])
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "warn", Format: "text", Output: &buf})

	logger.Debug(context.Background(), "debug message")
	logger.Info(context.Background(), "info message")
	if buf.Len() != 0 {
		t.Errorf("expected no output below warn, got: %s", buf.String())
	}

	logger.Error(context.Background(), "error message")
	if !strings.Contains(buf.String(), "error message") {
		t.Errorf("expected error output, got: %s", buf.String())
	}
}

func TestRedactMapSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: "info", Format: "json", Output: &buf})

	logger.Info(context.Background(), "config loaded", "settings", map[string]any{
		"api_key": "super-secret-value",
		"url":     "https://example.com",
	})

	out := buf.String()
	if strings.Contains(out, "super-secret-value") {
		t.Errorf("output leaked secret map value: %s", out)
	}
	if !strings.Contains(out, "https://example.com") {
		t.Errorf("output dropped non-sensitive value: %s", out)
	}
}

func TestLogLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug", "DEBUG"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"bogus", "INFO"},
		{"", "INFO"},
	}
	for _, tt := range tests {
		if got := LogLevelFromString(tt.in).String(); got != tt.want {
			t.Errorf("LogLevelFromString(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
