package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/automation-engine/internal/executor"
	"yqhp/automation-engine/pkg/types"
)

func completedRun(t *testing.T, wf *types.Workflow, completed ...string) *types.ExecutionContext {
	t.Helper()
	run := types.NewExecutionContext("run-rb", wf, map[string]any{}, false)
	for _, id := range completed {
		outcome := types.NewStepOutcome(id)
		outcome.Finish()
		run.SetResult(outcome)
	}
	return run
}

func TestRollbackReverseCompletionOrder(t *testing.T) {
	scripted := newScriptedExecutor()
	registry := executor.NewRegistry()
	registry.MustRegister(scripted)
	m := NewRollbackManager(registry)

	comp := func(line string) *types.Compensation {
		return &types.Compensation{Command: &types.CommandParams{Line: line}}
	}
	stepA := cmdStep("a")
	stepA.Compensation = comp("undo-a")
	stepB := cmdStep("b")
	stepB.Compensation = comp("undo-b")
	wf := &types.Workflow{Name: "rb", Version: "1.0.0", Steps: []types.Step{stepA, stepB}}

	run := completedRun(t, wf, "a", "b")
	result := m.Rollback(context.Background(), run)

	assert.Equal(t, []string{"b", "a"}, result.RolledBack)
	assert.Equal(t, []string{"b.compensate", "a.compensate"}, scripted.calls)
	assert.False(t, result.Partial())
}

func TestRollbackRecordsNotReversible(t *testing.T) {
	registry := executor.NewRegistry()
	registry.MustRegister(newScriptedExecutor())
	m := NewRollbackManager(registry)

	wf := &types.Workflow{Name: "rb", Version: "1.0.0", Steps: []types.Step{cmdStep("a")}}
	run := completedRun(t, wf, "a")

	result := m.Rollback(context.Background(), run)
	assert.Empty(t, result.RolledBack)
	assert.Equal(t, []string{"a"}, result.NotReversible)
}

func TestRollbackContinuesPastFailures(t *testing.T) {
	scripted := newScriptedExecutor()
	scripted.fail["b.compensate"] = fmt.Errorf("undo broke")
	registry := executor.NewRegistry()
	registry.MustRegister(scripted)
	m := NewRollbackManager(registry)

	comp := &types.Compensation{Command: &types.CommandParams{Line: "undo"}}
	stepA := cmdStep("a")
	stepA.Compensation = comp
	stepB := cmdStep("b")
	stepB.Compensation = comp
	wf := &types.Workflow{Name: "rb", Version: "1.0.0", Steps: []types.Step{stepA, stepB}}

	run := completedRun(t, wf, "a", "b")
	result := m.Rollback(context.Background(), run)

	// b's compensation failed, but a was still attempted and undone.
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "b", result.Failed[0].StepID)
	assert.Contains(t, result.Failed[0].Error, "undo broke")
	assert.Equal(t, []string{"a"}, result.RolledBack)
	assert.True(t, result.Partial())
}
