// Package types defines the core data structures for the workflow execution engine.
package types

import (
	"fmt"
)

// Workflow represents a declarative multi-step automation task. A workflow is
// immutable once validated; the engine never mutates it during a run.
type Workflow struct {
	Name         string   `yaml:"name" json:"name"`
	Version      string   `yaml:"version" json:"version"`
	Description  string   `yaml:"description,omitempty" json:"description,omitempty"`
	Inputs       []Input  `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Steps        []Step   `yaml:"steps" json:"steps"`
	Outputs      []Output `yaml:"outputs,omitempty" json:"outputs,omitempty"`
	AutoRollback bool     `yaml:"auto_rollback,omitempty" json:"auto_rollback,omitempty"`
}

// StepByID returns the step with the given id, or nil if no such step exists.
// Lookup is top-level only; steps nested inside conditional branches are not
// addressable from outside the branch.
func (w *Workflow) StepByID(id string) *Step {
	for i := range w.Steps {
		if w.Steps[i].ID == id {
			return &w.Steps[i]
		}
	}
	return nil
}

// ResolveInputs merges provided values with declared defaults and checks them
// against the input declarations. Unknown provided keys pass through untouched
// so callers can thread extra context values into a run.
func (w *Workflow) ResolveInputs(provided map[string]any) (map[string]any, error) {
	resolved := make(map[string]any, len(w.Inputs)+len(provided))
	for k, v := range provided {
		resolved[k] = v
	}
	for _, in := range w.Inputs {
		v, ok := resolved[in.Name]
		if !ok {
			if in.Default != nil {
				resolved[in.Name] = in.Default
				continue
			}
			if in.Required {
				return nil, NewMissingRequiredInputError(in.Name)
			}
			continue
		}
		if !in.Type.Matches(v) {
			return nil, NewTypeMismatchError(in.Name, string(in.Type), v)
		}
	}
	return resolved, nil
}

// Input declares a named workflow parameter.
type Input struct {
	Name     string    `yaml:"name" json:"name"`
	Type     InputType `yaml:"type" json:"type"`
	Default  any       `yaml:"default,omitempty" json:"default,omitempty"`
	Required bool      `yaml:"required,omitempty" json:"required,omitempty"`
}

// InputType is the declared type of a workflow input.
type InputType string

const (
	InputTypeString  InputType = "string"
	InputTypeNumber  InputType = "number"
	InputTypeBoolean InputType = "boolean"
)

// Matches reports whether a provided value conforms to the declared type.
// YAML and JSON decoders disagree on numeric Go types, so every numeric
// representation counts as "number".
func (t InputType) Matches(v any) bool {
	switch t {
	case InputTypeString:
		_, ok := v.(string)
		return ok
	case InputTypeNumber:
		switch v.(type) {
		case int, int32, int64, uint, uint32, uint64, float32, float64:
			return true
		}
		return false
	case InputTypeBoolean:
		_, ok := v.(bool)
		return ok
	}
	return true
}

// Output names a value extracted from step results after a successful run,
// e.g. source "deploy.stdout".
type Output struct {
	Name   string `yaml:"name" json:"name"`
	Source string `yaml:"source" json:"source"`
}

// StepKind discriminates the per-kind parameter struct carried by a step.
type StepKind string

const (
	// StepKindCommand runs a command line in a restricted subprocess.
	StepKindCommand StepKind = "command"
	// StepKindDelegatedAction dispatches to a registered capability.
	StepKindDelegatedAction StepKind = "delegated_action"
	// StepKindConditional evaluates an expression and runs one of two nested step lists.
	StepKindConditional StepKind = "conditional"
	// StepKindTemplateExpansion expands a named template into a concrete command or action.
	StepKindTemplateExpansion StepKind = "template_expansion"
)

// Step is a single execution unit in a workflow. Exactly one of the kind
// parameter fields must be set, matching Kind.
type Step struct {
	ID   string   `yaml:"id" json:"id"`
	Name string   `yaml:"name,omitempty" json:"name,omitempty"`
	Kind StepKind `yaml:"kind" json:"kind"`

	Command     *CommandParams     `yaml:"command,omitempty" json:"command,omitempty"`
	Action      *ActionParams      `yaml:"action,omitempty" json:"action,omitempty"`
	Conditional *ConditionalParams `yaml:"conditional,omitempty" json:"conditional,omitempty"`
	Template    *TemplateParams    `yaml:"template,omitempty" json:"template,omitempty"`

	DependsOn      []string      `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	OnFailure      FailurePolicy `yaml:"on_failure,omitempty" json:"on_failure,omitempty"`
	TimeoutSeconds int           `yaml:"timeout_seconds,omitempty" json:"timeout_seconds,omitempty"`
	Retry          *RetryPolicy  `yaml:"retry,omitempty" json:"retry,omitempty"`
	Compensation   *Compensation `yaml:"compensation,omitempty" json:"compensation,omitempty"`
}

// Params returns the parameter struct matching the step's kind, or nil if the
// document did not supply one (a validation error).
func (s *Step) Params() any {
	switch s.Kind {
	case StepKindCommand:
		if s.Command == nil {
			return nil
		}
		return s.Command
	case StepKindDelegatedAction:
		if s.Action == nil {
			return nil
		}
		return s.Action
	case StepKindConditional:
		if s.Conditional == nil {
			return nil
		}
		return s.Conditional
	case StepKindTemplateExpansion:
		if s.Template == nil {
			return nil
		}
		return s.Template
	}
	return nil
}

// EffectiveTimeout returns the configured step timeout, applying the default.
func (s *Step) EffectiveTimeout() int {
	if s.TimeoutSeconds > 0 {
		return s.TimeoutSeconds
	}
	return DefaultTimeoutSeconds
}

// EffectivePolicy returns the step's failure policy, applying the default.
func (s *Step) EffectivePolicy() FailurePolicy {
	if s.OnFailure == "" {
		return FailureAbort
	}
	return s.OnFailure
}

// DefaultTimeoutSeconds applies when a step declares no timeout.
const DefaultTimeoutSeconds = 300

// CommandParams holds parameters for a command step. Line is split into argv
// without shell interpretation; metacharacters have no effect.
type CommandParams struct {
	Line string            `yaml:"line" json:"line"`
	Env  map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
}

// ActionParams holds parameters for a delegated_action step.
type ActionParams struct {
	Capability string         `yaml:"capability" json:"capability"`
	Action     string         `yaml:"action" json:"action"`
	Args       map[string]any `yaml:"args,omitempty" json:"args,omitempty"`
}

// ConditionalParams holds parameters for a conditional step. The nested lists
// are full step lists with their own dependency graphs, resolved and executed
// as a sub-run scoped to the conditional.
type ConditionalParams struct {
	Expression string `yaml:"expression" json:"expression"`
	Then       []Step `yaml:"then,omitempty" json:"then,omitempty"`
	Else       []Step `yaml:"else,omitempty" json:"else,omitempty"`
}

// TemplateParams holds parameters for a template_expansion step.
type TemplateParams struct {
	Template  string         `yaml:"template" json:"template"`
	Variables map[string]any `yaml:"variables,omitempty" json:"variables,omitempty"`
}

// FailurePolicy defines how the engine reacts when a step fails.
type FailurePolicy string

const (
	// FailureAbort stops dispatching new stages and marks the run FAILED.
	FailureAbort FailurePolicy = "abort"
	// FailureContinue records the failure and proceeds; dependents are blocked.
	FailureContinue FailurePolicy = "continue"
	// FailureRollback stops dispatching and rolls back all completed steps.
	FailureRollback FailurePolicy = "rollback"
)

// Valid reports whether the policy is one of the known values.
func (p FailurePolicy) Valid() bool {
	switch p {
	case FailureAbort, FailureContinue, FailureRollback:
		return true
	}
	return false
}

// RetryPolicy configures per-step retries. Attempts counts total tries, not
// additional ones; Attempts <= 1 means no retry.
type RetryPolicy struct {
	Attempts int `yaml:"attempts" json:"attempts"`
	DelayMs  int `yaml:"delay_ms,omitempty" json:"delay_ms,omitempty"`
}

// Compensation declares the compensating action run by the rollback manager
// to undo a completed step. Exactly one of Command or Action must be set.
type Compensation struct {
	Command *CommandParams `yaml:"command,omitempty" json:"command,omitempty"`
	Action  *ActionParams  `yaml:"action,omitempty" json:"action,omitempty"`
}

// Validate checks that the compensation names exactly one target.
func (c *Compensation) Validate() error {
	if (c.Command == nil) == (c.Action == nil) {
		return fmt.Errorf("compensation must declare exactly one of command or action")
	}
	return nil
}
