package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"yqhp/automation-engine/internal/parser"
)

var planCmd = &cobra.Command{
	Use:   "plan <workflow.yaml>",
	Short: "Show the staged execution plan for a workflow",
	Long: `Plan resolves the workflow's dependency graph into ordered stages.
Steps in the same stage have no dependencies on each other and may run
concurrently.`,
	Example: `  automation-engine plan deploy.yaml`,
	Args:    cobra.ExactArgs(1),
	RunE:    planWorkflow,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func planWorkflow(cmd *cobra.Command, args []string) error {
	wf, err := parser.ParseFile(args[0])
	if err != nil {
		return &exitError{code: 3, err: err}
	}

	eng, err := newEngine()
	if err != nil {
		return err
	}

	execPlan, err := eng.Plan(wf)
	if err != nil {
		return &exitError{code: 3, err: err}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "workflow %s: %d steps in %d stages\n", wf.Name, len(wf.Steps), len(execPlan.Stages))
	for i, stage := range execPlan.Stages {
		fmt.Fprintf(out, "  stage %d: %s\n", i+1, strings.Join(stage, ", "))
	}
	return nil
}
