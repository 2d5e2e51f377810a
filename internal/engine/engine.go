// Package engine runs a validated workflow against its execution plan. The
// Runner dispatches each stage's steps concurrently under a bounded in-flight
// limit, applies per-step failure policies between stages, and drives the
// rollback manager when a run must be undone.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ohler55/ojg/jp"
	"go.uber.org/zap"

	"yqhp/automation-engine/internal/executor"
	"yqhp/automation-engine/internal/plan"
	"yqhp/automation-engine/pkg/logger"
	"yqhp/automation-engine/pkg/types"
)

// DefaultMaxConcurrent bounds in-flight steps within one stage.
const DefaultMaxConcurrent = 8

// Runner executes staged plans. It implements executor.SubRunner so
// conditional branches run through the same machinery as top-level steps.
type Runner struct {
	steps         *StepRunner
	rollback      *RollbackManager
	maxConcurrent int
	sink          types.EventSink
	sem           chan struct{}
}

// Option configures a Runner.
type Option func(*Runner)

// WithMaxConcurrent sets the in-flight step bound. Values below 1 keep the
// default.
func WithMaxConcurrent(n int) Option {
	return func(r *Runner) {
		if n >= 1 {
			r.maxConcurrent = n
		}
	}
}

// WithEventSink sets the sink run events are published to.
func WithEventSink(sink types.EventSink) Option {
	return func(r *Runner) {
		r.sink = sink
	}
}

// NewRunner creates a Runner over the given executor registry.
func NewRunner(registry *executor.Registry, opts ...Option) *Runner {
	r := &Runner{
		steps:         NewStepRunner(registry),
		rollback:      NewRollbackManager(registry),
		maxConcurrent: DefaultMaxConcurrent,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.sem = make(chan struct{}, r.maxConcurrent)
	return r
}

// Execute drives the run to a terminal state and returns its complete result.
// It never returns an error: step failures, timeouts, cancellation and
// rollback are all folded into the ExecutionResult.
func (r *Runner) Execute(ctx context.Context, run *types.ExecutionContext, execPlan *types.ExecutionPlan) *types.ExecutionResult {
	wf := run.Workflow
	run.SetStatus(types.RunStatusRunning)
	r.emit(types.RunEvent{Type: types.EventRunStarted, RunID: run.RunID, Status: string(types.RunStatusRunning)})
	logger.Info("run started",
		zap.String("run_id", run.RunID),
		zap.String("workflow", wf.Name),
		zap.Bool("dry_run", run.DryRun))

	blocked := make(map[string]string) // step id -> failed dependency
	stopped := false
	rollbackRequested := false
	anyFailed := false
	cancelled := false

stages:
	for _, stage := range execPlan.Stages {
		if stopped || cancelled {
			break
		}
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		eligible := make([]string, 0, len(stage))
		for _, id := range stage {
			if dep, isBlocked := blocked[id]; isBlocked {
				r.recordBlocked(run, id, dep)
				continue
			}
			eligible = append(eligible, id)
		}

		r.dispatchStage(ctx, run, eligible)

		for _, id := range eligible {
			outcome, ok := run.Result(id)
			if !ok || outcome.Success {
				continue
			}
			if outcome.Status == types.StepStatusCancelled {
				cancelled = true
				continue
			}
			anyFailed = true
			step := wf.StepByID(id)
			switch step.EffectivePolicy() {
			case types.FailureRollback:
				rollbackRequested = true
				stopped = true
			case types.FailureContinue:
				markDependentsBlocked(wf.Steps, id, blocked)
			default: // abort
				stopped = true
			}
		}
		if cancelled {
			break stages
		}
	}

	var rollbackResult *types.RollbackResult
	var status types.RunStatus
	switch {
	case cancelled:
		if wf.AutoRollback && !run.DryRun {
			rollbackResult = r.runRollback(ctx, run)
		}
		status = types.RunStatusFailed
	case rollbackRequested:
		rollbackResult = r.runRollback(ctx, run)
		status = types.RunStatusRolledBack
	case anyFailed:
		if wf.AutoRollback && !run.DryRun {
			rollbackResult = r.runRollback(ctx, run)
		}
		status = types.RunStatusFailed
	default:
		status = types.RunStatusCompleted
	}
	run.SetStatus(status)

	result := run.Snapshot()
	result.Rollback = rollbackResult
	result.Stats = ComputeStats(result.StepResults)
	if status == types.RunStatusCompleted && !run.DryRun {
		result.Outputs = extractOutputs(wf, result.StepResults)
	}

	r.emit(types.RunEvent{Type: types.EventRunFinished, RunID: run.RunID, Status: string(status)})
	logger.Info("run finished",
		zap.String("run_id", run.RunID),
		zap.String("status", string(status)))
	return result
}

// RunSteps executes a nested step list inside an existing run, resolving its
// own dependency graph. Conditional branches run with abort semantics: the
// first failed nested step ends the branch with an error.
func (r *Runner) RunSteps(ctx context.Context, steps []types.Step, run *types.ExecutionContext) error {
	subPlan, err := plan.Resolve(steps)
	if err != nil {
		return err
	}
	byID := make(map[string]*types.Step, len(steps))
	for i := range steps {
		byID[steps[i].ID] = &steps[i]
	}

	for _, stage := range subPlan.Stages {
		for _, id := range stage {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			step := byID[id]
			r.emit(types.RunEvent{Type: types.EventStepStarted, RunID: run.RunID, StepID: step.ID})
			outcome := r.steps.Run(ctx, step, run)
			run.SetResult(outcome)
			r.emit(types.RunEvent{Type: types.EventStepFinished, RunID: run.RunID, StepID: step.ID, Status: string(outcome.Status)})
			if !outcome.Success {
				return fmt.Errorf("step %s %s: %s", step.ID, outcome.Status, outcome.Error)
			}
		}
	}
	return nil
}

// dispatchStage runs one stage's eligible steps concurrently, bounded by the
// runner's semaphore, and waits for every step to reach a terminal outcome.
func (r *Runner) dispatchStage(ctx context.Context, run *types.ExecutionContext, eligible []string) {
	var wg sync.WaitGroup
	for _, id := range eligible {
		step := run.Workflow.StepByID(id)
		wg.Add(1)
		go func(step *types.Step) {
			defer wg.Done()
			select {
			case r.sem <- struct{}{}:
				defer func() { <-r.sem }()
			case <-ctx.Done():
				outcome := types.NewStepOutcome(step.ID)
				outcome.Cancel()
				outcome.Finish()
				run.SetResult(outcome)
				return
			}
			r.emit(types.RunEvent{Type: types.EventStepStarted, RunID: run.RunID, StepID: step.ID})
			outcome := r.steps.Run(ctx, step, run)
			run.SetResult(outcome)
			r.emit(types.RunEvent{Type: types.EventStepFinished, RunID: run.RunID, StepID: step.ID, Status: string(outcome.Status)})
		}(step)
	}
	wg.Wait()
}

// runRollback compensates completed steps and emits an event per step that
// was rolled back. The rollback context is detached from the run's
// cancellation so an aborted run can still be undone, with a hard cap so it
// cannot hang forever.
func (r *Runner) runRollback(ctx context.Context, run *types.ExecutionContext) *types.RollbackResult {
	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx),
		time.Duration(types.DefaultTimeoutSeconds)*time.Second)
	defer cancel()

	result := r.rollback.Rollback(rbCtx, run)
	for _, id := range result.RolledBack {
		r.emit(types.RunEvent{Type: types.EventStepRolledBack, RunID: run.RunID, StepID: id})
	}
	return result
}

func (r *Runner) recordBlocked(run *types.ExecutionContext, id, failedDep string) {
	outcome := types.NewStepOutcome(id)
	outcome.Status = types.StepStatusBlocked
	outcome.Success = false
	outcome.Error = fmt.Sprintf("dependency %s failed", failedDep)
	outcome.Finish()
	run.SetResult(outcome)
	r.emit(types.RunEvent{Type: types.EventStepBlocked, RunID: run.RunID, StepID: id, Message: outcome.Error})
}

// markDependentsBlocked blocks every transitive dependent of a failed step.
func markDependentsBlocked(steps []types.Step, failedID string, blocked map[string]string) {
	frontier := []string{failedID}
	for len(frontier) > 0 {
		next := frontier[:0:0]
		for _, blockedBy := range frontier {
			for i := range steps {
				id := steps[i].ID
				if _, done := blocked[id]; done {
					continue
				}
				for _, dep := range steps[i].DependsOn {
					if dep == blockedBy {
						blocked[id] = failedID
						next = append(next, id)
						break
					}
				}
			}
		}
		frontier = next
	}
}

// extractOutputs materializes the workflow's declared outputs from step
// results. A source is "<step id>.<path into the step's output>"; a source
// that does not resolve is logged and omitted rather than failing the run.
func extractOutputs(wf *types.Workflow, results map[string]*types.StepOutcome) map[string]any {
	if len(wf.Outputs) == 0 {
		return nil
	}
	outputs := make(map[string]any, len(wf.Outputs))
	for _, out := range wf.Outputs {
		stepID, path, _ := strings.Cut(out.Source, ".")
		outcome, ok := results[stepID]
		if !ok || outcome.Output == nil {
			logger.Warn("output source has no result",
				zap.String("output", out.Name), zap.String("source", out.Source))
			continue
		}
		if path == "" {
			outputs[out.Name] = outcome.Output
			continue
		}
		expr, err := jp.ParseString("$." + path)
		if err != nil {
			logger.Warn("output source path is invalid",
				zap.String("output", out.Name), zap.String("source", out.Source), zap.Error(err))
			continue
		}
		values := expr.Get(outcome.Output)
		if len(values) == 0 {
			logger.Warn("output source resolved to nothing",
				zap.String("output", out.Name), zap.String("source", out.Source))
			continue
		}
		outputs[out.Name] = values[0]
	}
	return outputs
}

func (r *Runner) emit(event types.RunEvent) {
	if r.sink == nil {
		return
	}
	event.Timestamp = time.Now()
	r.sink.Publish(event)
}
