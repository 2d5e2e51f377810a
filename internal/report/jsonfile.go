package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"yqhp/automation-engine/pkg/types"
)

// JSONFileReporter writes the full run result as indented JSON to a file.
type JSONFileReporter struct {
	path string
}

// NewJSONFileReporter creates a reporter writing to the given path.
func NewJSONFileReporter(path string) (Reporter, error) {
	if path == "" {
		return nil, fmt.Errorf("json reporter requires a file path, e.g. json=result.json")
	}
	return &JSONFileReporter{path: path}, nil
}

// Name implements Reporter.
func (r *JSONFileReporter) Name() string {
	return "json"
}

// Report implements Reporter.
func (r *JSONFileReporter) Report(_ context.Context, result *types.ExecutionResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(r.path, append(data, '\n'), 0o644)
}

// Close implements Reporter.
func (r *JSONFileReporter) Close() error {
	return nil
}
