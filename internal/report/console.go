package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"yqhp/automation-engine/pkg/types"
)

const timeRounding = time.Millisecond

// ConsoleReporter writes a human-readable run summary.
type ConsoleReporter struct {
	writer io.Writer
}

// NewConsoleReporter creates a console reporter. A nil writer means stdout.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleReporter{writer: w}
}

// Name implements Reporter.
func (r *ConsoleReporter) Name() string {
	return "console"
}

// Report implements Reporter.
func (r *ConsoleReporter) Report(_ context.Context, result *types.ExecutionResult) error {
	w := r.writer

	fmt.Fprintf(w, "\n%s %s (run %s)\n", result.WorkflowName, result.Status, result.RunID)
	if result.DryRun {
		fmt.Fprintln(w, "dry run: no steps were executed")
	}
	fmt.Fprintf(w, "started  %s\n", result.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "finished %s (%s)\n", result.FinishedAt.Format("2006-01-02 15:04:05"),
		result.FinishedAt.Sub(result.StartedAt).Round(timeRounding))

	ids := make([]string, 0, len(result.StepResults))
	for id := range result.StepResults {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		o := result.StepResults[id]
		line := fmt.Sprintf("  %-9s %s (%dms", o.Status, id, o.DurationMs())
		if o.Attempts > 1 {
			line += fmt.Sprintf(", %d attempts", o.Attempts)
		}
		line += ")"
		if o.Error != "" {
			line += ": " + o.Error
		}
		fmt.Fprintln(w, line)
	}

	if s := result.Stats; s != nil && s.Count > 0 {
		fmt.Fprintf(w, "durations: %d steps, avg %.1fms, p95 %dms, max %dms\n",
			s.Count, s.AvgMs, s.P95Ms, s.MaxMs)
	}
	if rb := result.Rollback; rb != nil {
		fmt.Fprintf(w, "rollback: %d rolled back, %d failed, %d not reversible\n",
			len(rb.RolledBack), len(rb.Failed), len(rb.NotReversible))
	}
	if len(result.Outputs) > 0 {
		fmt.Fprintln(w, "outputs:")
		names := make([]string, 0, len(result.Outputs))
		for name := range result.Outputs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s = %v\n", name, result.Outputs[name])
		}
	}
	if result.Error != "" {
		fmt.Fprintf(w, "error: %s\n", result.Error)
	}
	return nil
}

// Close implements Reporter.
func (r *ConsoleReporter) Close() error {
	return nil
}
