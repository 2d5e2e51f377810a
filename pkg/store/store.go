// Package store defines the persistence interface the engine reports to.
// The engine only saves results and loads workflow definitions; everything
// else about storage belongs to the collaborator behind the interface.
package store

import (
	"context"
	"fmt"

	"yqhp/automation-engine/pkg/types"
)

// ErrNotFound is returned when a workflow or result does not exist.
var ErrNotFound = fmt.Errorf("not found")

// Store persists execution results and serves workflow definitions.
type Store interface {
	// SaveResult persists a terminal execution result.
	SaveResult(ctx context.Context, result *types.ExecutionResult) error

	// LoadWorkflow returns a stored workflow definition. An empty version
	// selects the most recently saved one.
	LoadWorkflow(ctx context.Context, name, version string) (*types.Workflow, error)

	// SaveWorkflow stores a workflow definition under its name and version.
	SaveWorkflow(ctx context.Context, wf *types.Workflow) error

	// LoadResult returns the result of a finished run.
	LoadResult(ctx context.Context, runID string) (*types.ExecutionResult, error)

	// ListResults returns the results of all finished runs, newest first.
	ListResults(ctx context.Context) ([]*types.ExecutionResult, error)
}
