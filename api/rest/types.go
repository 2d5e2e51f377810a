package rest

import (
	"yqhp/automation-engine/pkg/types"
)

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status string `json:"status"`
}

// WorkflowRequest carries a workflow either as a structured object or as a
// raw YAML document. Exactly one of the two should be set; YAML wins if both
// are.
type WorkflowRequest struct {
	Workflow     *types.Workflow `json:"workflow,omitempty"`
	WorkflowYAML string          `json:"workflow_yaml,omitempty"`
}

// ValidateResponse reports what the validator found.
type ValidateResponse struct {
	Valid    bool                    `json:"valid"`
	Errors   []types.ValidationIssue `json:"errors,omitempty"`
	Warnings []types.ValidationIssue `json:"warnings,omitempty"`
}

// PlanResponse is the staged execution plan.
type PlanResponse struct {
	Stages [][]string `json:"stages"`
	Steps  int        `json:"steps"`
}

// ExecuteRequest starts a run.
type ExecuteRequest struct {
	WorkflowRequest
	Inputs map[string]any `json:"inputs,omitempty"`
	DryRun bool           `json:"dry_run,omitempty"`
	Async  bool           `json:"async,omitempty"`
}

// ExecuteAcceptedResponse is returned for async runs.
type ExecuteAcceptedResponse struct {
	RunID string `json:"run_id"`
}

// StatusResponse reports one run's current status.
type StatusResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}
