package executor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/automation-engine/pkg/types"
)

func commandStep(id, line string) *types.Step {
	return &types.Step{
		ID:      id,
		Kind:    types.StepKindCommand,
		Command: &types.CommandParams{Line: line},
	}
}

func testRun(inputs map[string]any) *types.ExecutionContext {
	wf := &types.Workflow{Name: "test", Version: "1.0.0"}
	return types.NewExecutionContext("run-1", wf, inputs, false)
}

func TestSplitCommandLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"plain words", "echo hello world", []string{"echo", "hello", "world"}},
		{"double quotes", `echo "hello world"`, []string{"echo", "hello world"}},
		{"single quotes", "echo 'a b' c", []string{"echo", "a b", "c"}},
		{"adjacent quote", `echo pre"fix"`, []string{"echo", "prefix"}},
		{"empty", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			argv, err := SplitCommandLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, argv)
		})
	}

	_, err := SplitCommandLine(`echo "unterminated`)
	assert.Error(t, err)
}

func TestCommandExecutorCapturesOutput(t *testing.T) {
	e := NewCommandExecutor()
	require.NoError(t, e.Init(context.Background(), nil))

	output, err := e.Execute(context.Background(), commandStep("s1", "echo hello"), testRun(nil))
	require.NoError(t, err)
	assert.Equal(t, "hello\n", output["stdout"])
	assert.Equal(t, 0, output["exit_code"])
}

func TestCommandExecutorNoShellInterpretation(t *testing.T) {
	e := NewCommandExecutor()
	require.NoError(t, e.Init(context.Background(), nil))

	// The pipe is passed to echo as a literal argument, not interpreted.
	output, err := e.Execute(context.Background(), commandStep("s1", "echo a | tr a b"), testRun(nil))
	require.NoError(t, err)
	assert.Equal(t, "a | tr a b\n", output["stdout"])
}

func TestCommandExecutorNonZeroExit(t *testing.T) {
	e := NewCommandExecutor()
	require.NoError(t, e.Init(context.Background(), nil))

	output, err := e.Execute(context.Background(), commandStep("s1", "false"), testRun(nil))
	require.Error(t, err)
	assert.True(t, IsInvocationError(err))
	assert.Equal(t, 1, output["exit_code"])
}

func TestCommandExecutorEnvAllowList(t *testing.T) {
	e := NewCommandExecutor()
	require.NoError(t, e.Init(context.Background(), nil))

	t.Setenv("SECRET_TOKEN", "hunter2")
	step := commandStep("s1", "env")
	step.Command.Env = map[string]string{"EXTRA": "yes"}

	output, err := e.Execute(context.Background(), step, testRun(map[string]any{"target env": "prod"}))
	require.NoError(t, err)
	stdout := output["stdout"].(string)
	assert.NotContains(t, stdout, "SECRET_TOKEN")
	assert.Contains(t, stdout, "WF_TARGET_ENV=prod")
	assert.Contains(t, stdout, "EXTRA=yes")
}

func TestCommandExecutorContextCancellation(t *testing.T) {
	e := NewCommandExecutor()
	require.NoError(t, e.Init(context.Background(), nil))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := e.Execute(ctx, commandStep("s1", "sleep 10"), testRun(nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCommandExecutorMissingParams(t *testing.T) {
	e := NewCommandExecutor()
	step := &types.Step{ID: "s1", Kind: types.StepKindCommand}
	_, err := e.Execute(context.Background(), step, testRun(nil))
	assert.True(t, IsParamsError(err))
}
