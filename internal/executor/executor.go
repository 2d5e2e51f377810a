// Package executor implements per-kind step execution. An Executor resolves a
// single step's parameters and performs its side effect, returning the raw
// output map; timeout, retry and outcome bookkeeping live in the engine's
// step runner, not here.
package executor

import (
	"context"

	"yqhp/automation-engine/pkg/types"
)

// Executor performs one step kind.
type Executor interface {
	// Kind returns the step kind this executor handles.
	Kind() types.StepKind

	// Init prepares the executor with its configuration.
	Init(ctx context.Context, config map[string]any) error

	// Execute performs the step's side effect and returns its output. The run
	// context is read-only here: executors see inputs and finished outcomes
	// but never write results themselves.
	Execute(ctx context.Context, step *types.Step, run *types.ExecutionContext) (map[string]any, error)

	// Cleanup releases resources held by the executor.
	Cleanup(ctx context.Context) error
}

// SubRunner executes a nested step list inside an existing run. The engine
// implements it; conditional steps use it to run the branch they selected.
type SubRunner interface {
	RunSteps(ctx context.Context, steps []types.Step, run *types.ExecutionContext) error
}
