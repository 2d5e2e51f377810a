package template

import "fmt"

// NotFoundError is returned when a template_expansion step names a template
// the library does not hold.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template %q not found", e.Name)
}

// NewNotFoundError creates a NotFoundError for the given template name.
func NewNotFoundError(name string) *NotFoundError {
	return &NotFoundError{Name: name}
}

// IsNotFoundError reports whether err is a NotFoundError.
func IsNotFoundError(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}

// MissingVariableError is returned when expansion is invoked without a value
// for a variable the template requires.
type MissingVariableError struct {
	Template string
	Variable string
}

func (e *MissingVariableError) Error() string {
	return fmt.Sprintf("template %q requires variable %q", e.Template, e.Variable)
}

// NewMissingVariableError creates a MissingVariableError.
func NewMissingVariableError(tmpl, variable string) *MissingVariableError {
	return &MissingVariableError{Template: tmpl, Variable: variable}
}

// IsMissingVariableError reports whether err is a MissingVariableError.
func IsMissingVariableError(err error) bool {
	_, ok := err.(*MissingVariableError)
	return ok
}

// UnknownVariableError is returned when a template body references a variable
// that was neither declared required nor supplied at expansion time.
type UnknownVariableError struct {
	Template string
	Variable string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("template %q references undefined variable %q", e.Template, e.Variable)
}

// NewUnknownVariableError creates an UnknownVariableError.
func NewUnknownVariableError(tmpl, variable string) *UnknownVariableError {
	return &UnknownVariableError{Template: tmpl, Variable: variable}
}

// IsUnknownVariableError reports whether err is an UnknownVariableError.
func IsUnknownVariableError(err error) bool {
	_, ok := err.(*UnknownVariableError)
	return ok
}
