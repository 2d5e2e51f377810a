package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"yqhp/automation-engine/internal/executor"
	"yqhp/automation-engine/pkg/logger"
	"yqhp/automation-engine/pkg/types"
)

// RollbackManager undoes completed steps by running their compensations in
// reverse completion order. It never returns an error: a compensation that
// fails is recorded and the pass moves on to the next step.
type RollbackManager struct {
	registry *executor.Registry
}

// NewRollbackManager creates a RollbackManager over the given registry.
func NewRollbackManager(registry *executor.Registry) *RollbackManager {
	return &RollbackManager{registry: registry}
}

// Rollback compensates every successfully completed step of the run, newest
// first. Steps without a compensation are recorded as not reversible.
func (m *RollbackManager) Rollback(ctx context.Context, run *types.ExecutionContext) *types.RollbackResult {
	result := &types.RollbackResult{}
	completed := run.CompletedSteps()

	for i := len(completed) - 1; i >= 0; i-- {
		id := completed[i]
		step := run.Workflow.StepByID(id)
		if step == nil || step.Compensation == nil {
			result.NotReversible = append(result.NotReversible, id)
			continue
		}
		if err := m.compensate(ctx, step, run); err != nil {
			logger.Warn("rollback of step failed",
				zap.String("step_id", id), zap.Error(err))
			result.Failed = append(result.Failed, types.RollbackFailure{
				StepID: id,
				Error:  err.Error(),
			})
			continue
		}
		result.RolledBack = append(result.RolledBack, id)
	}
	return result
}

// compensate runs one compensating command or action with the default step
// timeout. Panics from a misbehaving executor are contained here so a
// rollback pass always finishes.
func (m *RollbackManager) compensate(ctx context.Context, step *types.Step, run *types.ExecutionContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compensation panicked: %v", r)
		}
	}()

	synthetic := types.Step{ID: step.ID + ".compensate"}
	if step.Compensation.Command != nil {
		synthetic.Kind = types.StepKindCommand
		synthetic.Command = step.Compensation.Command
	} else {
		synthetic.Kind = types.StepKindDelegatedAction
		synthetic.Action = step.Compensation.Action
	}

	exec, err := m.registry.GetOrError(synthetic.Kind)
	if err != nil {
		return err
	}

	compCtx, cancel := context.WithTimeout(ctx, time.Duration(types.DefaultTimeoutSeconds)*time.Second)
	defer cancel()
	_, err = exec.Execute(compCtx, &synthetic, run)
	return err
}
