package parser

import (
	"errors"
	"fmt"
)

// ParseError reports a workflow document that could not be decoded, with the
// source location when the YAML library provides one.
type ParseError struct {
	Line    int // 1-based, 0 when unknown
	Column  int // 1-based, 0 when unknown
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("parse error at line %d, column %d: %s", e.Line, e.Column, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Message)
	default:
		return fmt.Sprintf("parse error: %s", e.Message)
	}
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// NewParseError creates a ParseError.
func NewParseError(line, column int, message string, cause error) *ParseError {
	return &ParseError{Line: line, Column: column, Message: message, Cause: cause}
}

// IsParseError reports whether err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
