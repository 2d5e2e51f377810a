package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"yqhp/automation-engine/internal/parser"
	"yqhp/automation-engine/internal/report"
	"yqhp/automation-engine/pkg/engine"
	"yqhp/automation-engine/pkg/types"
)

var (
	runInputs        []string
	runDryRun        bool
	runMaxConcurrent int
	runReports       []string
)

var runCmd = &cobra.Command{
	Use:   "run <workflow.yaml>",
	Short: "Execute a workflow",
	Long: `Execute a workflow from a YAML file. The workflow is validated and
planned first; execution only starts if both succeed.

The exit code reflects the outcome: 0 the run completed, 1 it failed,
2 it was rolled back, 3 the workflow never started (parse, validation
or input errors).`,
	Example: `  automation-engine run deploy.yaml
  automation-engine run deploy.yaml --input env=staging --input replicas=3
  automation-engine run deploy.yaml --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkflow,
}

func init() {
	runCmd.Flags().StringArrayVarP(&runInputs, "input", "i", nil, "workflow input as key=value (repeatable)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "validate and plan without executing steps")
	runCmd.Flags().IntVar(&runMaxConcurrent, "max-concurrent", 0, "max steps in flight per stage (overrides config)")
	runCmd.Flags().StringArrayVar(&runReports, "report", nil, "result destination: console, json=<path>, webhook=<url> (repeatable)")
	rootCmd.AddCommand(runCmd)
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	wf, err := parser.ParseFile(args[0])
	if err != nil {
		return &exitError{code: 3, err: err}
	}

	inputs, err := parseInputs(runInputs)
	if err != nil {
		return &exitError{code: 3, err: err}
	}

	reports, err := report.NewManager(report.DefaultRegistry(), runReports)
	if err != nil {
		return &exitError{code: 3, err: err}
	}
	defer reports.Close()

	eng, err := newEngine()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.NewString()
	if !quietMode {
		go printProgress(eng, runID, cmd.ErrOrStderr())
	}

	result, err := eng.Execute(ctx, wf, inputs, engine.ExecuteOptions{
		DryRun: runDryRun,
		RunID:  runID,
	})
	if err != nil {
		// Execute only errors before the run starts.
		return &exitError{code: 3, err: err}
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if err := reports.Report(context.Background(), result); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Warning:", err)
	}

	if code := result.Status.ExitCode(); code != 0 {
		return &exitError{code: code}
	}
	return nil
}

func newEngine() (*engine.Engine, error) {
	ec := &engine.Config{
		MaxConcurrent:   cfg.Engine.MaxConcurrent,
		SafetyRulesFile: cfg.Engine.SafetyRulesFile,
		TemplateDir:     cfg.Engine.TemplateDir,
	}
	if runMaxConcurrent > 0 {
		ec.MaxConcurrent = runMaxConcurrent
	}
	return engine.New(ec)
}

// parseInputs converts repeated key=value flags into workflow inputs. Values
// that parse as JSON keep their type (3 is a number, true a boolean,
// [1,2] a list); everything else stays a string.
func parseInputs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	inputs := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid input %q, expected key=value", pair)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			inputs[key] = v
		} else {
			inputs[key] = raw
		}
	}
	return inputs, nil
}

// printProgress mirrors run events to stderr so stdout stays clean JSON.
func printProgress(eng *engine.Engine, runID string, w io.Writer) {
	events, cancel := eng.Events().Subscribe(runID)
	defer cancel()
	for ev := range events {
		switch ev.Type {
		case types.EventStepStarted:
			fmt.Fprintf(w, "step %s started\n", ev.StepID)
		case types.EventStepFinished:
			fmt.Fprintf(w, "step %s: %s\n", ev.StepID, ev.Status)
		case types.EventStepBlocked:
			fmt.Fprintf(w, "step %s: blocked\n", ev.StepID)
		case types.EventStepRolledBack:
			fmt.Fprintf(w, "step %s rolled back\n", ev.StepID)
		case types.EventRunFinished:
			fmt.Fprintf(w, "run %s finished: %s\n", ev.RunID, ev.Status)
		}
	}
}
