package executor

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/automation-engine/pkg/types"
)

type fakeSubRunner struct {
	ran []string
	err error
}

func (f *fakeSubRunner) RunSteps(ctx context.Context, steps []types.Step, run *types.ExecutionContext) error {
	for _, s := range steps {
		f.ran = append(f.ran, s.ID)
	}
	return f.err
}

func conditionalStep(expr string, thenSteps, elseSteps []types.Step) *types.Step {
	return &types.Step{
		ID:   "cond",
		Kind: types.StepKindConditional,
		Conditional: &types.ConditionalParams{
			Expression: expr,
			Then:       thenSteps,
			Else:       elseSteps,
		},
	}
}

func TestConditionalExecutorThenBranch(t *testing.T) {
	sub := &fakeSubRunner{}
	e := NewConditionalExecutor(sub)

	step := conditionalStep("inputs.mode == 'fast'",
		[]types.Step{{ID: "t1"}, {ID: "t2"}},
		[]types.Step{{ID: "e1"}})

	run := testRun(map[string]any{"mode": "fast"})
	output, err := e.Execute(context.Background(), step, run)
	require.NoError(t, err)
	assert.Equal(t, true, output["matched"])
	assert.Equal(t, "then", output["branch"])
	assert.Equal(t, []string{"t1", "t2"}, sub.ran)
}

func TestConditionalExecutorElseBranch(t *testing.T) {
	sub := &fakeSubRunner{}
	e := NewConditionalExecutor(sub)

	step := conditionalStep("inputs.mode == 'fast'",
		[]types.Step{{ID: "t1"}},
		[]types.Step{{ID: "e1"}})

	run := testRun(map[string]any{"mode": "slow"})
	output, err := e.Execute(context.Background(), step, run)
	require.NoError(t, err)
	assert.Equal(t, "else", output["branch"])
	assert.Equal(t, []string{"e1"}, sub.ran)
}

func TestConditionalExecutorStepReference(t *testing.T) {
	sub := &fakeSubRunner{}
	e := NewConditionalExecutor(sub)

	run := testRun(nil)
	outcome := types.NewStepOutcome("probe")
	outcome.Finish()
	run.SetResult(outcome)

	step := conditionalStep("probe.success", []types.Step{{ID: "t1"}}, nil)
	output, err := e.Execute(context.Background(), step, run)
	require.NoError(t, err)
	assert.Equal(t, true, output["matched"])
	assert.Equal(t, []string{"t1"}, sub.ran)
}

func TestConditionalExecutorEmptyBranch(t *testing.T) {
	sub := &fakeSubRunner{}
	e := NewConditionalExecutor(sub)

	step := conditionalStep("1 == 2", []types.Step{{ID: "t1"}}, nil)
	output, err := e.Execute(context.Background(), step, testRun(nil))
	require.NoError(t, err)
	assert.Equal(t, "else", output["branch"])
	assert.Equal(t, 0, output["steps"])
	assert.Empty(t, sub.ran)
}

func TestConditionalExecutorBranchFailure(t *testing.T) {
	sub := &fakeSubRunner{err: fmt.Errorf("nested step failed")}
	e := NewConditionalExecutor(sub)

	step := conditionalStep("1 == 1", []types.Step{{ID: "t1"}}, nil)
	_, err := e.Execute(context.Background(), step, testRun(nil))
	require.Error(t, err)
	assert.True(t, IsInvocationError(err))
}

func TestConditionalExecutorBadExpression(t *testing.T) {
	e := NewConditionalExecutor(&fakeSubRunner{})
	step := conditionalStep("inputs.x ==", nil, nil)
	_, err := e.Execute(context.Background(), step, testRun(nil))
	require.Error(t, err)
	assert.True(t, IsInvocationError(err))
}
