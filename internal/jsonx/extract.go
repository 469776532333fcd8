// Package jsonx extracts JSON payloads from free-form LLM output. Completions
// wrap JSON in markdown fences, prepend prose, or cut off mid-object when the
// token budget runs out; the helpers here recover a parseable payload from all
// of those shapes and report failure as a value instead of panicking.
package jsonx

import (
	"encoding/json"
	"strings"
)

const fence = "```"

// ExtractObject locates and parses a JSON object in raw text.
// Precedence: ```json fenced block, any fenced block, first '{' to last '}',
// then the whole string. Truncated payloads go through Repair before the
// second parse attempt.
func ExtractObject(raw string) (map[string]any, bool) {
	payload := CandidateObject(raw)
	var out map[string]any
	if err := json.Unmarshal([]byte(payload), &out); err == nil {
		return out, true
	}
	repaired := Repair(payload)
	if err := json.Unmarshal([]byte(repaired), &out); err == nil {
		return out, true
	}
	return nil, false
}

// ExtractArray locates and parses a JSON array, using '[' / ']' as the bare
// bracket pair when no fence is present.
func ExtractArray(raw string) ([]any, bool) {
	payload := candidate(raw, '[', ']')
	var out []any
	if err := json.Unmarshal([]byte(payload), &out); err == nil {
		return out, true
	}
	if err := json.Unmarshal([]byte(Repair(payload)), &out); err == nil {
		return out, true
	}
	return nil, false
}

// DecodeObject extracts an object payload and unmarshals it into dst.
func DecodeObject(raw string, dst any) bool {
	payload := CandidateObject(raw)
	if err := json.Unmarshal([]byte(payload), dst); err == nil {
		return true
	}
	return json.Unmarshal([]byte(Repair(payload)), dst) == nil
}

// CandidateObject returns the best-effort object payload substring without
// attempting to parse it.
func CandidateObject(raw string) string {
	return candidate(raw, '{', '}')
}

func candidate(raw string, open, close byte) string {
	if body, ok := fencedBlock(raw, "```json"); ok {
		return body
	}
	if body, ok := fencedBlock(raw, fence); ok {
		return body
	}
	start := strings.IndexByte(raw, open)
	end := strings.LastIndexByte(raw, close)
	if start != -1 && end > start {
		return raw[start : end+1]
	}
	return strings.TrimSpace(raw)
}

func fencedBlock(raw, marker string) (string, bool) {
	idx := strings.Index(raw, marker)
	if idx == -1 {
		return "", false
	}
	rest := raw[idx+len(marker):]
	end := strings.Index(rest, fence)
	if end == -1 {
		// Opened but never closed; treat the remainder as the block so the
		// truncation repair still gets a chance.
		return strings.TrimSpace(rest), true
	}
	return strings.TrimSpace(rest[:end]), true
}

// Repair patches a truncated JSON payload: an unterminated string value gets a
// closing quote, then every unmatched '{' or '[' is closed in reverse nesting
// order. The result is only useful for payloads cut off mid-generation;
// well-formed input passes through unchanged.
func Repair(payload string) string {
	s := strings.TrimSpace(payload)
	if s == "" || (s[0] != '{' && s[0] != '[') {
		return s
	}

	var stack []byte
	inString := false
	for i := 0; i < len(s); i++ {
		if inString {
			switch s[i] {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch s[i] {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, s[i])
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if inString {
		s += `"`
	}
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			s += "}"
		} else {
			s += "]"
		}
	}
	return s
}

// StringField returns a top-level string field from a decoded object, or the
// fallback when absent or of the wrong type.
func StringField(obj map[string]any, key, fallback string) string {
	if v, ok := obj[key].(string); ok {
		return v
	}
	return fallback
}

// StringList coerces a top-level field into a list of strings, skipping
// non-string entries.
func StringList(obj map[string]any, key string) []string {
	raw, ok := obj[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
