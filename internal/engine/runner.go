package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yqhp/automation-engine/internal/executor"
	"yqhp/automation-engine/pkg/types"
)

// StepRunner executes one step to a terminal outcome. It owns the per-step
// timeout and retry loop; the staged dispatcher above it owns concurrency and
// failure policy. Run never returns an error: every failure mode is folded
// into the outcome.
type StepRunner struct {
	registry *executor.Registry
}

// NewStepRunner creates a StepRunner over the given executor registry.
func NewStepRunner(registry *executor.Registry) *StepRunner {
	return &StepRunner{registry: registry}
}

// Run executes the step, retrying per its retry policy, and returns the
// sealed outcome. In a dry run no executor is invoked; the outcome describes
// what would have run.
func (r *StepRunner) Run(ctx context.Context, step *types.Step, run *types.ExecutionContext) *types.StepOutcome {
	outcome := types.NewStepOutcome(step.ID)
	defer outcome.Finish()

	if run.DryRun {
		outcome.Status = types.StepStatusSkipped
		outcome.Output = map[string]any{
			"dry_run":       true,
			"would_execute": describeStep(step),
		}
		return outcome
	}

	exec, err := r.registry.GetOrError(step.Kind)
	if err != nil {
		outcome.Fail(err)
		return outcome
	}

	timeout := time.Duration(step.EffectiveTimeout()) * time.Second
	attempts := 1
	var delay time.Duration
	if step.Retry != nil && step.Retry.Attempts > 1 {
		attempts = step.Retry.Attempts
		delay = time.Duration(step.Retry.DelayMs) * time.Millisecond
	}

	var lastErr error
	var lastOutput map[string]any
	timedOut := false

	for attempt := 1; attempt <= attempts; attempt++ {
		outcome.Attempts = attempt

		stepCtx, cancel := context.WithTimeout(ctx, timeout)
		output, execErr := exec.Execute(stepCtx, step, run)
		cancel()

		if execErr == nil {
			outcome.Output = output
			return outcome
		}

		// A cancelled run is not retried and not counted as a step failure.
		if ctx.Err() != nil {
			outcome.Cancel()
			return outcome
		}

		lastErr = execErr
		lastOutput = output
		timedOut = errors.Is(execErr, context.DeadlineExceeded)

		if attempt < attempts {
			if !sleepRetry(ctx, delay) {
				outcome.Cancel()
				return outcome
			}
		}
	}

	if lastOutput != nil {
		outcome.Output = lastOutput
	}
	if timedOut {
		outcome.Timeout(fmt.Errorf("step %s timed out after %v: %w", step.ID, timeout, lastErr))
	} else {
		outcome.Fail(lastErr)
	}
	return outcome
}

// sleepRetry waits out the retry delay, returning false if the run was
// cancelled while waiting.
func sleepRetry(ctx context.Context, delay time.Duration) bool {
	if delay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// describeStep renders a one-line description used by dry runs. Conditional
// branches are not descended: a dry run cannot know which branch real
// outcomes would select.
func describeStep(step *types.Step) string {
	switch step.Kind {
	case types.StepKindCommand:
		if step.Command != nil {
			return fmt.Sprintf("command: %s", step.Command.Line)
		}
	case types.StepKindDelegatedAction:
		if step.Action != nil {
			return fmt.Sprintf("action: %s.%s", step.Action.Capability, step.Action.Action)
		}
	case types.StepKindConditional:
		if step.Conditional != nil {
			return fmt.Sprintf("conditional: %s", step.Conditional.Expression)
		}
	case types.StepKindTemplateExpansion:
		if step.Template != nil {
			return fmt.Sprintf("template: %s", step.Template.Template)
		}
	}
	return string(step.Kind)
}
