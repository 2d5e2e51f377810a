package expression

import "fmt"

// ExpressionError reports a malformed literal or other position-bound problem
// found while parsing.
type ExpressionError struct {
	Position int
	Message  string
	Cause    error
}

func (e *ExpressionError) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("expression error at position %d: %s", e.Position, e.Message)
	}
	return fmt.Sprintf("expression error: %s", e.Message)
}

func (e *ExpressionError) Unwrap() error { return e.Cause }

func NewExpressionError(pos int, message string, cause error) *ExpressionError {
	return &ExpressionError{Position: pos, Message: message, Cause: cause}
}

// ParseError reports an unexpected token.
type ParseError struct {
	Position int
	Expected string
	Got      string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d: expected %s, got %s", e.Position, e.Expected, e.Got)
}

func NewParseError(pos int, expected, got string) *ParseError {
	return &ParseError{Position: pos, Expected: expected, Got: got}
}

// EvaluationError reports a failure while walking the AST.
type EvaluationError struct {
	Message string
	Cause   error
}

func (e *EvaluationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("evaluation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("evaluation error: %s", e.Message)
}

func (e *EvaluationError) Unwrap() error { return e.Cause }

func NewEvaluationError(message string, cause error) *EvaluationError {
	return &EvaluationError{Message: message, Cause: cause}
}

// TypeMismatchError reports a value whose runtime type does not fit the
// operator applied to it.
type TypeMismatchError struct {
	Expected string
	Got      string
	Value    any
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, got %s (value: %v)", e.Expected, e.Got, e.Value)
}

func NewTypeMismatchError(expected, got string, value any) *TypeMismatchError {
	return &TypeMismatchError{Expected: expected, Got: got, Value: value}
}

// VariableNotFoundError reports a reference to a variable, input, or step
// result that the evaluation context does not hold.
type VariableNotFoundError struct {
	Name string
}

func (e *VariableNotFoundError) Error() string {
	return fmt.Sprintf("variable not found: %s", e.Name)
}

func NewVariableNotFoundError(name string) *VariableNotFoundError {
	return &VariableNotFoundError{Name: name}
}
