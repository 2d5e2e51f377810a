package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/automation-engine/pkg/types"
)

func TestMemoryStoreWorkflows(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SaveWorkflow(ctx, &types.Workflow{Name: "deploy", Version: "1.0.0"}))
	require.NoError(t, s.SaveWorkflow(ctx, &types.Workflow{Name: "deploy", Version: "1.1.0"}))

	wf, err := s.LoadWorkflow(ctx, "deploy", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", wf.Version)

	// Empty version selects the most recently saved one.
	wf, err = s.LoadWorkflow(ctx, "deploy", "")
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", wf.Version)

	_, err = s.LoadWorkflow(ctx, "deploy", "9.9.9")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.LoadWorkflow(ctx, "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreResults(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.SaveResult(ctx, &types.ExecutionResult{RunID: "r1", Status: types.RunStatusCompleted}))
	require.NoError(t, s.SaveResult(ctx, &types.ExecutionResult{RunID: "r2", Status: types.RunStatusFailed}))

	result, err := s.LoadResult(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, types.RunStatusCompleted, result.Status)

	_, err = s.LoadResult(ctx, "r9")
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := s.ListResults(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "r2", all[0].RunID) // newest first
}

func TestMemoryStoreRejectsMissingKeys(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	assert.Error(t, s.SaveWorkflow(ctx, &types.Workflow{}))
	assert.Error(t, s.SaveResult(ctx, &types.ExecutionResult{}))
}
