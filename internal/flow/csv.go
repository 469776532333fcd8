package flow

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/haasonsaas/ragsuite/internal/model"
	"github.com/haasonsaas/ragsuite/internal/observability"
)

// LoadCSV reads test cases from a CSV file with header-named columns: id,
// question, expected_answer, category, difficulty, rationale. Unknown enum
// values fall back to factual/medium, a missing id becomes CSV-NNN, and a
// missing rationale becomes "Loaded from CSV".
//
// Load failures are logged and yield an empty list; the run continues and
// still produces a report.
func LoadCSV(ctx context.Context, path string, logger *observability.Logger) []model.TestCase {
	logError := func(msg string, args ...any) {
		if logger != nil {
			logger.Error(ctx, msg, args...)
		}
	}
	if path == "" {
		logError("no test csv path provided")
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		logError("failed to open test csv", "path", path, "error", err)
		return nil
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		logError("failed to read test csv header", "path", path, "error", err)
		return nil
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var cases []model.TestCase
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logError("failed to read test csv row", "path", path, "error", err)
			break
		}
		field := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		tc := model.TestCase{
			ID:             field("id"),
			Question:       field("question"),
			ExpectedAnswer: field("expected_answer"),
			Category:       model.ParseCategory(strings.ToLower(field("category"))),
			Difficulty:     model.ParseDifficulty(strings.ToLower(field("difficulty"))),
			Rationale:      field("rationale"),
		}
		if tc.ID == "" {
			tc.ID = fmt.Sprintf("CSV-%03d", len(cases)+1)
		}
		if tc.Rationale == "" {
			tc.Rationale = "Loaded from CSV"
		}
		cases = append(cases, tc)
	}

	if logger != nil {
		logger.Info(ctx, "loaded test cases from csv", "path", path, "count", len(cases))
	}
	return cases
}
