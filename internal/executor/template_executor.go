package executor

import (
	"context"
	"fmt"

	"yqhp/automation-engine/internal/template"
	"yqhp/automation-engine/internal/validate"
	"yqhp/automation-engine/pkg/types"
)

// TemplateExecutor expands a named template into a concrete command or action
// and delegates to the matching executor in the registry.
type TemplateExecutor struct {
	*BaseExecutor
	library  *template.Library
	registry *Registry
	safety   *validate.RuleSet
}

// NewTemplateExecutor creates a TemplateExecutor over the given template
// library and executor registry. Expanded command lines are checked against
// rules before execution; substitution can produce a denied command out of a
// body that looked harmless at validation time.
func NewTemplateExecutor(library *template.Library, registry *Registry, rules *validate.RuleSet) *TemplateExecutor {
	if rules == nil {
		rules = validate.DefaultRuleSet()
	}
	return &TemplateExecutor{
		BaseExecutor: NewBaseExecutor(types.StepKindTemplateExpansion),
		library:      library,
		registry:     registry,
		safety:       rules,
	}
}

// Execute expands the template and runs the synthesized step. The synthesized
// step keeps the original id so outputs and errors stay attributed to it.
func (e *TemplateExecutor) Execute(ctx context.Context, step *types.Step, run *types.ExecutionContext) (map[string]any, error) {
	params := step.Template
	if params == nil {
		return nil, NewParamsError(step.ID, "template_expansion step has no template parameters")
	}

	expansion, err := e.library.Expand(params)
	if err != nil {
		return nil, NewParamsError(step.ID, err.Error())
	}

	synthesized := *step
	synthesized.Template = nil
	if expansion.Command != nil {
		if err := e.checkSafety(step.ID, expansion.Command.Line); err != nil {
			return nil, err
		}
		synthesized.Kind = types.StepKindCommand
		synthesized.Command = expansion.Command
	} else {
		synthesized.Kind = types.StepKindDelegatedAction
		synthesized.Action = expansion.Action
	}

	delegate, err := e.registry.GetOrError(synthesized.Kind)
	if err != nil {
		return nil, err
	}
	return delegate.Execute(ctx, &synthesized, run)
}

func (e *TemplateExecutor) checkSafety(stepID, line string) error {
	for _, rule := range e.safety.Check(line) {
		if rule.Severity == validate.SeverityError {
			return NewSafetyError(stepID, fmt.Sprintf("%s (rule %s)", rule.Description, rule.ID))
		}
	}
	return nil
}
