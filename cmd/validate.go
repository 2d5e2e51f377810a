package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"yqhp/automation-engine/internal/parser"
)

var validateCmd = &cobra.Command{
	Use:   "validate <workflow.yaml>",
	Short: "Validate a workflow without executing it",
	Long: `Validate checks a workflow file for structural errors, unsafe commands
and dependency cycles. Exit code 0 means the workflow is valid; 3 means
it is not.`,
	Example: `  automation-engine validate deploy.yaml`,
	Args:    cobra.ExactArgs(1),
	RunE:    validateWorkflow,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateWorkflow(cmd *cobra.Command, args []string) error {
	wf, err := parser.ParseFile(args[0])
	if err != nil {
		return &exitError{code: 3, err: err}
	}

	eng, err := newEngine()
	if err != nil {
		return err
	}

	vr := eng.Validate(wf)
	out := cmd.OutOrStdout()
	for _, w := range vr.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w.String())
	}
	if !vr.IsValid() {
		for _, e := range vr.Errors {
			fmt.Fprintf(out, "error: %s\n", e.String())
		}
		return &exitError{code: 3, err: fmt.Errorf("workflow %s is invalid: %d error(s)", wf.Name, len(vr.Errors))}
	}

	fmt.Fprintf(out, "workflow %s is valid (%d steps)\n", wf.Name, len(wf.Steps))
	return nil
}
