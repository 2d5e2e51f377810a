package types

import (
	"fmt"
	"strings"
)

// ErrorCode classifies engine errors.
type ErrorCode string

const (
	// ErrCodeParsing indicates the workflow document could not be decoded.
	ErrCodeParsing ErrorCode = "PARSING_ERROR"
	// ErrCodeValidation indicates a structural validation error.
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	// ErrCodeSafety indicates a deny-listed destructive pattern was matched.
	ErrCodeSafety ErrorCode = "SAFETY_VIOLATION"
	// ErrCodeCycle indicates the dependency graph contains a cycle.
	ErrCodeCycle ErrorCode = "CYCLIC_DEPENDENCY"
	// ErrCodeMissingInput indicates a required input had no value and no default.
	ErrCodeMissingInput ErrorCode = "MISSING_REQUIRED_INPUT"
	// ErrCodeTypeMismatch indicates a provided input value has the wrong type.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
	// ErrCodeStepTimeout indicates a step did not complete within its timeout.
	ErrCodeStepTimeout ErrorCode = "STEP_TIMEOUT"
	// ErrCodeStepExecution indicates the underlying command or action failed.
	ErrCodeStepExecution ErrorCode = "STEP_EXECUTION_ERROR"
	// ErrCodeCancelled indicates the run was cancelled by the caller.
	ErrCodeCancelled ErrorCode = "CANCELLATION_ERROR"
	// ErrCodeRunNotFound indicates no run with the given id is tracked.
	ErrCodeRunNotFound ErrorCode = "RUN_NOT_FOUND"
)

// EngineError is the common error type crossing the engine's package
// boundaries. Step-level failures never use it; they are captured in
// StepOutcome and handled by failure policy instead.
type EngineError struct {
	Code    ErrorCode
	Message string
	StepID  string
	Cause   error
}

func (e *EngineError) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("[%s] step %s: %s", e.Code, e.StepID, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}

// NewMissingRequiredInputError reports a required input with no value or default.
func NewMissingRequiredInputError(name string) *EngineError {
	return &EngineError{
		Code:    ErrCodeMissingInput,
		Message: fmt.Sprintf("missing required input: %s", name),
	}
}

// NewTypeMismatchError reports a provided input value of the wrong type.
func NewTypeMismatchError(name, wantType string, got any) *EngineError {
	return &EngineError{
		Code:    ErrCodeTypeMismatch,
		Message: fmt.Sprintf("input %s: expected %s, got %T", name, wantType, got),
	}
}

// NewRunNotFoundError reports an unknown run id.
func NewRunNotFoundError(runID string) *EngineError {
	return &EngineError{
		Code:    ErrCodeRunNotFound,
		Message: fmt.Sprintf("no such run: %s", runID),
	}
}

// IsErrorCode reports whether err is an EngineError with the given code.
func IsErrorCode(err error, code ErrorCode) bool {
	if ee, ok := err.(*EngineError); ok {
		return ee.Code == code
	}
	return false
}

// CyclicDependencyError names the step ids implicated in a dependency cycle.
type CyclicDependencyError struct {
	StepIDs []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency among steps: %s", strings.Join(e.StepIDs, ", "))
}

// IsCyclicDependencyError reports whether err is a CyclicDependencyError.
func IsCyclicDependencyError(err error) bool {
	_, ok := err.(*CyclicDependencyError)
	return ok
}
