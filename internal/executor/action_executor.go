package executor

import (
	"context"
	"fmt"

	"yqhp/automation-engine/pkg/capability"
	"yqhp/automation-engine/pkg/types"
)

// ActionExecutor dispatches delegated_action steps to registered
// capabilities.
type ActionExecutor struct {
	*BaseExecutor
	capabilities *capability.Registry
}

// NewActionExecutor creates an ActionExecutor backed by the given capability
// registry.
func NewActionExecutor(capabilities *capability.Registry) *ActionExecutor {
	return &ActionExecutor{
		BaseExecutor: NewBaseExecutor(types.StepKindDelegatedAction),
		capabilities: capabilities,
	}
}

// Execute resolves the step's capability and invokes the named action.
func (e *ActionExecutor) Execute(ctx context.Context, step *types.Step, run *types.ExecutionContext) (map[string]any, error) {
	params := step.Action
	if params == nil {
		return nil, NewParamsError(step.ID, "delegated_action step has no action parameters")
	}

	cap, ok := e.capabilities.Get(params.Capability)
	if !ok {
		return nil, NewInvocationError(step.ID,
			fmt.Sprintf("capability %q is not registered", params.Capability), nil)
	}

	result, err := cap.Invoke(ctx, params.Action, params.Args)
	if err != nil {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		return result, NewInvocationError(step.ID,
			fmt.Sprintf("capability %s action %s failed", params.Capability, params.Action), err)
	}
	return result, nil
}
