package types

import "fmt"

// ValidationIssue is a single structural error, safety violation, or warning
// found by the validator.
type ValidationIssue struct {
	Code    ErrorCode `json:"code"`
	StepID  string    `json:"step_id,omitempty"`
	Field   string    `json:"field,omitempty"`
	Message string    `json:"message"`
}

func (i ValidationIssue) String() string {
	switch {
	case i.StepID != "":
		return fmt.Sprintf("[%s] step %s: %s", i.Code, i.StepID, i.Message)
	case i.Field != "":
		return fmt.Sprintf("[%s] %s: %s", i.Code, i.Field, i.Message)
	default:
		return fmt.Sprintf("[%s] %s", i.Code, i.Message)
	}
}

// ValidationResult collects everything the validator found. A workflow with
// one or more errors is rejected outright; warnings are surfaced but do not
// block execution.
type ValidationResult struct {
	Errors   []ValidationIssue `json:"errors,omitempty"`
	Warnings []ValidationIssue `json:"warnings,omitempty"`
}

// IsValid reports whether the workflow may proceed to execution.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// AddError appends an error-severity issue.
func (r *ValidationResult) AddError(issue ValidationIssue) {
	r.Errors = append(r.Errors, issue)
}

// AddWarning appends a warning-severity issue.
func (r *ValidationResult) AddWarning(issue ValidationIssue) {
	r.Warnings = append(r.Warnings, issue)
}

// Merge folds another result's issues into this one.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}
