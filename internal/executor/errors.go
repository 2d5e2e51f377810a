package executor

import "fmt"

// ErrorCode classifies executor errors.
type ErrorCode string

const (
	// ErrCodeNotFound indicates that no executor is registered for a kind.
	ErrCodeNotFound ErrorCode = "EXECUTOR_NOT_FOUND"
	// ErrCodeInvocation indicates the underlying command or action failed.
	ErrCodeInvocation ErrorCode = "INVOCATION_ERROR"
	// ErrCodeParams indicates the step's parameters are unusable.
	ErrCodeParams ErrorCode = "PARAMS_ERROR"
	// ErrCodeInit indicates an executor failed to initialize.
	ErrCodeInit ErrorCode = "INIT_ERROR"
	// ErrCodeSafety indicates a resolved command matched the safety deny-list.
	ErrCodeSafety ErrorCode = "SAFETY_VIOLATION"
)

// Error is the typed error returned by executors. It carries the step it
// belongs to so the runner can attribute failures without string matching.
type Error struct {
	Code    ErrorCode
	Message string
	StepID  string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewNotFoundError creates an error for a kind with no registered executor.
func NewNotFoundError(kind string) *Error {
	return &Error{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("no executor registered for kind: %s", kind),
	}
}

// NewInvocationError creates an error for a failed command or action.
func NewInvocationError(stepID, message string, cause error) *Error {
	return &Error{
		Code:    ErrCodeInvocation,
		Message: message,
		StepID:  stepID,
		Cause:   cause,
	}
}

// NewParamsError creates an error for unusable step parameters.
func NewParamsError(stepID, message string) *Error {
	return &Error{
		Code:    ErrCodeParams,
		Message: message,
		StepID:  stepID,
	}
}

// NewInitError creates an error for a failed executor initialization.
func NewInitError(kind, message string, cause error) *Error {
	return &Error{
		Code:    ErrCodeInit,
		Message: fmt.Sprintf("initialize executor %s: %s", kind, message),
		Cause:   cause,
	}
}

// NewSafetyError creates an error for a command blocked by the deny-list.
func NewSafetyError(stepID, message string) *Error {
	return &Error{
		Code:    ErrCodeSafety,
		Message: message,
		StepID:  stepID,
	}
}

// IsNotFoundError reports whether err is an executor-not-found error.
func IsNotFoundError(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Code == ErrCodeNotFound
}

// IsInvocationError reports whether err is an invocation error.
func IsInvocationError(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Code == ErrCodeInvocation
}

// IsParamsError reports whether err is a params error.
func IsParamsError(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Code == ErrCodeParams
}

// IsSafetyError reports whether err is a safety violation.
func IsSafetyError(err error) bool {
	e, ok := err.(*Error)
	return ok && e.Code == ErrCodeSafety
}
