package types

import (
	"sync"
	"time"
)

// ExecutionContext holds the mutable state of one run. The engine creates
// exactly one per Execute invocation and is the only component that mutates
// the status or the step results; concurrent step completions go through the
// mutex-guarded setters.
type ExecutionContext struct {
	RunID    string
	Workflow *Workflow
	Inputs   map[string]any
	DryRun   bool

	mu              sync.RWMutex
	status          RunStatus
	startedAt       time.Time
	finishedAt      time.Time
	stepResults     map[string]*StepOutcome
	completionOrder []string
}

// NewExecutionContext creates a run context in the DRAFT state.
func NewExecutionContext(runID string, wf *Workflow, inputs map[string]any, dryRun bool) *ExecutionContext {
	return &ExecutionContext{
		RunID:       runID,
		Workflow:    wf,
		Inputs:      inputs,
		DryRun:      dryRun,
		status:      RunStatusDraft,
		stepResults: make(map[string]*StepOutcome),
	}
}

// Status returns the current run status.
func (c *ExecutionContext) Status() RunStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

// SetStatus transitions the run to the given status. Entering RUNNING stamps
// the start time; entering a terminal state stamps the finish time.
func (c *ExecutionContext) SetStatus(status RunStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = status
	switch {
	case status == RunStatusRunning:
		c.startedAt = time.Now()
	case status.Terminal():
		c.finishedAt = time.Now()
	}
}

// SetResult records a step's terminal outcome. Successful steps are appended
// to the completion order consumed by the rollback manager.
func (c *ExecutionContext) SetResult(outcome *StepOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stepResults[outcome.StepID] = outcome
	if outcome.Success && outcome.Status == StepStatusSuccess {
		c.completionOrder = append(c.completionOrder, outcome.StepID)
	}
}

// Result returns the recorded outcome for a step, if any.
func (c *ExecutionContext) Result(stepID string) (*StepOutcome, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok := c.stepResults[stepID]
	return o, ok
}

// HasResult reports whether a step has reached a terminal outcome.
func (c *ExecutionContext) HasResult(stepID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.stepResults[stepID]
	return ok
}

// Results returns a snapshot copy of all recorded outcomes.
func (c *ExecutionContext) Results() map[string]*StepOutcome {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]*StepOutcome, len(c.stepResults))
	for k, v := range c.stepResults {
		out[k] = v
	}
	return out
}

// CompletedSteps returns the ids of successfully completed steps in
// completion order.
func (c *ExecutionContext) CompletedSteps() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.completionOrder))
	copy(out, c.completionOrder)
	return out
}

// Snapshot builds the immutable ExecutionResult for the run's current state.
func (c *ExecutionContext) Snapshot() *ExecutionResult {
	c.mu.RLock()
	defer c.mu.RUnlock()
	results := make(map[string]*StepOutcome, len(c.stepResults))
	for k, v := range c.stepResults {
		cp := *v
		results[k] = &cp
	}
	return &ExecutionResult{
		RunID:           c.RunID,
		WorkflowName:    c.Workflow.Name,
		WorkflowVersion: c.Workflow.Version,
		Status:          c.status,
		DryRun:          c.DryRun,
		StartedAt:       c.startedAt,
		FinishedAt:      c.finishedAt,
		Inputs:          c.Inputs,
		StepResults:     results,
	}
}
