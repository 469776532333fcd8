package jsonx

import "testing"

func TestExtractObjectPrecedence(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "json fence wins over bare braces",
			raw:  "prose {\"decoy\": 1} more\n```json\n{\"key\": \"fenced\"}\n```",
			want: "fenced",
		},
		{
			name: "plain fence",
			raw:  "```\n{\"key\": \"plain\"}\n```",
			want: "plain",
		},
		{
			name: "bare braces",
			raw:  "The result is {\"key\": \"bare\"} as requested.",
			want: "bare",
		},
		{
			name: "whole string",
			raw:  `{"key": "whole"}`,
			want: "whole",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, ok := ExtractObject(tt.raw)
			if !ok {
				t.Fatal("extraction failed")
			}
			if got := obj["key"]; got != tt.want {
				t.Errorf("key = %v, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractObjectRoundTrip(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"passed\": true, \"score\": 0.85, \"rationale\": \"good\"}\n```\nDone."
	obj, ok := ExtractObject(raw)
	if !ok {
		t.Fatal("extraction failed")
	}
	if obj["passed"] != true || obj["score"] != 0.85 || obj["rationale"] != "good" {
		t.Errorf("obj = %v", obj)
	}
}

func TestExtractObjectTruncated(t *testing.T) {
	// Cut off mid string value, fence never closed.
	raw := "```json\n{\"passed\": true, \"score\": 0.75, \"rationale\": \"Good but incomp"
	obj, ok := ExtractObject(raw)
	if !ok {
		t.Fatal("repair failed")
	}
	if obj["score"] != 0.75 {
		t.Errorf("score = %v", obj["score"])
	}
	if _, ok := obj["rationale"]; !ok {
		t.Error("rationale key lost in repair")
	}
}

func TestExtractObjectTruncatedNestedArray(t *testing.T) {
	// Cut off inside an array nested in the object: closing delimiters must
	// come out in reverse nesting order for the payload to parse.
	raw := `{"domains": [{"name": "HR", "subtopics": ["leave`
	obj, ok := ExtractObject(raw)
	if !ok {
		t.Fatal("repair failed")
	}
	domains, ok := obj["domains"].([]any)
	if !ok || len(domains) != 1 {
		t.Fatalf("domains = %v", obj["domains"])
	}
	first := domains[0].(map[string]any)
	if first["name"] != "HR" {
		t.Errorf("name = %v", first["name"])
	}
}

func TestExtractObjectUnparseable(t *testing.T) {
	if _, ok := ExtractObject("no json at all"); ok {
		t.Error("expected failure")
	}
	if _, ok := ExtractObject(""); ok {
		t.Error("expected failure on empty input")
	}
}

func TestExtractArray(t *testing.T) {
	raw := "Tests:\n```json\n[{\"id\": \"a\"}, {\"id\": \"b\"}]\n```"
	items, ok := ExtractArray(raw)
	if !ok || len(items) != 2 {
		t.Fatalf("items = %v, ok = %v", items, ok)
	}
}

func TestExtractArrayBareBrackets(t *testing.T) {
	items, ok := ExtractArray(`The cases are [1, 2, 3] overall.`)
	if !ok || len(items) != 3 {
		t.Fatalf("items = %v, ok = %v", items, ok)
	}
}

func TestExtractArrayTruncated(t *testing.T) {
	items, ok := ExtractArray(`[{"id": "a"}, {"id": "b`)
	if !ok {
		t.Fatal("repair failed")
	}
	if len(items) != 2 {
		t.Errorf("items = %v", items)
	}
}

func TestDecodeObject(t *testing.T) {
	var dst struct {
		Score float64 `json:"score"`
	}
	if !DecodeObject("```json\n{\"score\": 0.5}\n```", &dst) {
		t.Fatal("decode failed")
	}
	if dst.Score != 0.5 {
		t.Errorf("score = %v", dst.Score)
	}
}

func TestRepairWellFormedUnchanged(t *testing.T) {
	in := `{"a": [1, 2], "b": "x"}`
	if got := Repair(in); got != in {
		t.Errorf("got %q", got)
	}
}

func TestRepairClosesInNestingOrder(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"subtopics": ["a`, `{"subtopics": ["a"]}`},
		{`[{"id": "a"}, {"id": "b`, `[{"id": "a"}, {"id": "b"}]`},
		{`{"a": {"b": [1, [2`, `{"a": {"b": [1, [2]]}}`},
		{`{"note": "brace } inside string`, `{"note": "brace } inside string"}`},
		{`{"esc": "ends with \"`, `{"esc": "ends with \""}`},
	}
	for _, tt := range tests {
		if got := Repair(tt.in); got != tt.want {
			t.Errorf("Repair(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStringField(t *testing.T) {
	obj := map[string]any{"name": "x", "count": 3.0}
	if got := StringField(obj, "name", "d"); got != "x" {
		t.Errorf("got %q", got)
	}
	if got := StringField(obj, "count", "d"); got != "d" {
		t.Errorf("wrong-type fallback = %q", got)
	}
	if got := StringField(obj, "absent", "d"); got != "d" {
		t.Errorf("absent fallback = %q", got)
	}
}

func TestStringList(t *testing.T) {
	obj := map[string]any{"items": []any{"a", 1.0, "b"}}
	got := StringList(obj, "items")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("got %v", got)
	}
	if StringList(obj, "absent") != nil {
		t.Error("absent key should be nil")
	}
}
