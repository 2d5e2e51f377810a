package executor

import (
	"context"

	"yqhp/automation-engine/internal/expression"
	"yqhp/automation-engine/pkg/types"
)

// ConditionalExecutor evaluates a conditional step's expression and runs the
// selected branch as a nested step list inside the same run.
type ConditionalExecutor struct {
	*BaseExecutor
	evaluator *expression.Evaluator
	subRunner SubRunner
}

// NewConditionalExecutor creates a ConditionalExecutor. The SubRunner
// executes whichever branch the expression selects; the engine passes itself.
func NewConditionalExecutor(subRunner SubRunner) *ConditionalExecutor {
	return &ConditionalExecutor{
		BaseExecutor: NewBaseExecutor(types.StepKindConditional),
		evaluator:    expression.NewEvaluator(),
		subRunner:    subRunner,
	}
}

// Execute evaluates the expression against the run's inputs and finished
// outcomes, then runs the then- or else-branch. An empty selected branch is a
// success with nothing to do.
func (e *ConditionalExecutor) Execute(ctx context.Context, step *types.Step, run *types.ExecutionContext) (map[string]any, error) {
	params := step.Conditional
	if params == nil {
		return nil, NewParamsError(step.ID, "conditional step has no conditional parameters")
	}

	evalCtx := expression.NewEvaluationContext().
		WithInputs(run.Inputs).
		WithResults(run.Results())

	matched, err := e.evaluator.EvaluateString(params.Expression, evalCtx)
	if err != nil {
		return nil, NewInvocationError(step.ID, "condition evaluation failed", err)
	}

	branch := "then"
	steps := params.Then
	if !matched {
		branch = "else"
		steps = params.Else
	}

	output := map[string]any{
		"matched": matched,
		"branch":  branch,
		"steps":   len(steps),
	}

	if len(steps) == 0 {
		return output, nil
	}
	if err := e.subRunner.RunSteps(ctx, steps, run); err != nil {
		return output, NewInvocationError(step.ID, "branch execution failed", err)
	}
	return output, nil
}
