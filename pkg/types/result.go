package types

import "time"

// StepStatus represents the terminal status of a step within a run.
type StepStatus string

const (
	// StepStatusSuccess indicates the step completed successfully.
	StepStatusSuccess StepStatus = "success"
	// StepStatusFailed indicates the step's command or action reported failure.
	StepStatusFailed StepStatus = "failed"
	// StepStatusSkipped indicates the step was not executed (dry run, untaken branch).
	StepStatusSkipped StepStatus = "skipped"
	// StepStatusTimeout indicates the step exceeded its timeout and was cancelled.
	StepStatusTimeout StepStatus = "timeout"
	// StepStatusBlocked indicates an upstream dependency failed under a
	// continue policy, so the step never became eligible to run.
	StepStatusBlocked StepStatus = "blocked"
	// StepStatusCancelled indicates the run was cancelled while the step was in flight.
	StepStatusCancelled StepStatus = "cancelled"
)

// StepOutcome records the terminal result of one step. Outcomes are built with
// NewStepOutcome, filled during execution, and sealed with Finish.
type StepOutcome struct {
	StepID    string        `json:"step_id"`
	Status    StepStatus    `json:"status"`
	Success   bool          `json:"success"`
	Output    any           `json:"output,omitempty"`
	Error     string        `json:"error,omitempty"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts,omitempty"`
}

// NewStepOutcome creates an outcome in the success state with the clock
// started. Pair with defer outcome.Finish().
func NewStepOutcome(stepID string) *StepOutcome {
	return &StepOutcome{
		StepID:    stepID,
		Status:    StepStatusSuccess,
		Success:   true,
		StartTime: time.Now(),
		Attempts:  1,
	}
}

// Fail marks the outcome failed with the given error.
func (o *StepOutcome) Fail(err error) {
	o.Status = StepStatusFailed
	o.Success = false
	if err != nil {
		o.Error = err.Error()
	}
}

// Timeout marks the outcome as a timeout failure.
func (o *StepOutcome) Timeout(err error) {
	o.Status = StepStatusTimeout
	o.Success = false
	if err != nil {
		o.Error = err.Error()
	}
}

// Cancel marks the outcome cancelled.
func (o *StepOutcome) Cancel() {
	o.Status = StepStatusCancelled
	o.Success = false
	if o.Error == "" {
		o.Error = "run cancelled"
	}
}

// Finish seals the outcome, setting EndTime and Duration.
func (o *StepOutcome) Finish() {
	o.EndTime = time.Now()
	o.Duration = o.EndTime.Sub(o.StartTime)
}

// DurationMs returns the outcome duration in whole milliseconds.
func (o *StepOutcome) DurationMs() int64 {
	return o.Duration.Milliseconds()
}

// RunStatus is the state of a workflow run.
//
// DRAFT -> VALIDATED -> RUNNING -> {COMPLETED | FAILED | ROLLED_BACK}
type RunStatus string

const (
	RunStatusDraft      RunStatus = "DRAFT"
	RunStatusValidated  RunStatus = "VALIDATED"
	RunStatusRunning    RunStatus = "RUNNING"
	RunStatusCompleted  RunStatus = "COMPLETED"
	RunStatusFailed     RunStatus = "FAILED"
	RunStatusRolledBack RunStatus = "ROLLED_BACK"
)

// Terminal reports whether the status is a terminal run state.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusRolledBack:
		return true
	}
	return false
}

// ExitCode maps a run status to the process exit code contract:
// 0 completed, 1 failed, 2 rolled back.
func (s RunStatus) ExitCode() int {
	switch s {
	case RunStatusCompleted:
		return 0
	case RunStatusRolledBack:
		return 2
	default:
		return 1
	}
}

// RollbackResult reports the outcome of a rollback pass. Rollback attempts
// every completed step regardless of individual failures, so the result can
// be complete or partial but is never an error.
type RollbackResult struct {
	RolledBack    []string          `json:"rolled_back,omitempty"`
	Failed        []RollbackFailure `json:"failed,omitempty"`
	NotReversible []string          `json:"not_reversible,omitempty"`
}

// Partial reports whether at least one compensating action failed.
func (r *RollbackResult) Partial() bool {
	return len(r.Failed) > 0
}

// RollbackFailure records one compensating action that itself failed.
type RollbackFailure struct {
	StepID string `json:"step_id"`
	Error  string `json:"error"`
}

// DurationStats summarizes step durations for a run.
type DurationStats struct {
	Count int     `json:"count"`
	AvgMs float64 `json:"avg_ms"`
	P95Ms int64   `json:"p95_ms"`
	MaxMs int64   `json:"max_ms"`
}

// ExecutionResult is the terminal snapshot of a run, persisted via the store
// collaborator. It is immutable once the run reaches a terminal state and is
// returned by Execute even for failed or rolled-back runs.
type ExecutionResult struct {
	RunID           string                  `json:"run_id"`
	WorkflowName    string                  `json:"workflow_name"`
	WorkflowVersion string                  `json:"workflow_version"`
	Status          RunStatus               `json:"status"`
	DryRun          bool                    `json:"dry_run,omitempty"`
	StartedAt       time.Time               `json:"started_at"`
	FinishedAt      time.Time               `json:"finished_at"`
	Inputs          map[string]any          `json:"inputs,omitempty"`
	StepResults     map[string]*StepOutcome `json:"step_results"`
	Outputs         map[string]any          `json:"outputs,omitempty"`
	Rollback        *RollbackResult         `json:"rollback,omitempty"`
	Stats           *DurationStats          `json:"stats,omitempty"`
	Error           string                  `json:"error,omitempty"`
}
