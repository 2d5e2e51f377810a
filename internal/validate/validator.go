// Package validate checks workflow documents for structural correctness and
// unsafe operations before anything executes.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"yqhp/automation-engine/internal/plan"
	"yqhp/automation-engine/internal/template"
	"yqhp/automation-engine/pkg/types"
)

var semverRe = regexp.MustCompile(`^\d+\.\d+\.\d+([-+].+)?$`)

// Validator applies structural and safety checks. It is a pure function over
// the document: no side effects, same result for the same input.
type Validator struct {
	safety    *RuleSet
	templates *template.Library
}

// New creates a validator with the built-in safety rules.
func New() *Validator {
	return &Validator{safety: DefaultRuleSet()}
}

// NewWithRules creates a validator with a custom rule set.
func NewWithRules(rules *RuleSet) *Validator {
	return &Validator{safety: rules}
}

// WithTemplates attaches a template library so template_expansion bodies go
// through the same safety checks as literal commands.
func (v *Validator) WithTemplates(lib *template.Library) *Validator {
	v.templates = lib
	return v
}

// Validate checks the workflow and returns every issue found. A result with
// one or more errors means the workflow must not execute; warnings are
// surfaced but do not block.
func (v *Validator) Validate(wf *types.Workflow) *types.ValidationResult {
	result := &types.ValidationResult{}

	if wf.Name == "" {
		result.AddError(types.ValidationIssue{
			Code: types.ErrCodeValidation, Field: "name", Message: "workflow name is required",
		})
	}
	if wf.Version == "" {
		result.AddError(types.ValidationIssue{
			Code: types.ErrCodeValidation, Field: "version", Message: "workflow version is required",
		})
	} else if !semverRe.MatchString(wf.Version) {
		result.AddWarning(types.ValidationIssue{
			Code: types.ErrCodeValidation, Field: "version",
			Message: fmt.Sprintf("version %q is not a semantic version", wf.Version),
		})
	}
	if wf.Description == "" {
		result.AddWarning(types.ValidationIssue{
			Code: types.ErrCodeValidation, Field: "description", Message: "workflow description is empty",
		})
	}
	if len(wf.Steps) == 0 {
		result.AddError(types.ValidationIssue{
			Code: types.ErrCodeValidation, Field: "steps", Message: "workflow must have at least one step",
		})
	}

	v.validateInputs(wf, result)

	ids := make(map[string]bool, len(wf.Steps))
	for i := range wf.Steps {
		v.validateStep(&wf.Steps[i], ids, result)
	}
	v.validateDependencies(wf, ids, result)
	v.validateOutputs(wf, ids, result)

	return result
}

func (v *Validator) validateInputs(wf *types.Workflow, result *types.ValidationResult) {
	seen := make(map[string]bool, len(wf.Inputs))
	for _, in := range wf.Inputs {
		if in.Name == "" {
			result.AddError(types.ValidationIssue{
				Code: types.ErrCodeValidation, Field: "inputs", Message: "input name is required",
			})
			continue
		}
		if seen[in.Name] {
			result.AddError(types.ValidationIssue{
				Code: types.ErrCodeValidation, Field: "inputs",
				Message: fmt.Sprintf("duplicate input name: %s", in.Name),
			})
		}
		seen[in.Name] = true
		switch in.Type {
		case types.InputTypeString, types.InputTypeNumber, types.InputTypeBoolean:
		default:
			result.AddError(types.ValidationIssue{
				Code: types.ErrCodeValidation, Field: "inputs",
				Message: fmt.Sprintf("input %s: unknown type %q", in.Name, in.Type),
			})
		}
		if in.Default != nil && !in.Type.Matches(in.Default) {
			result.AddError(types.ValidationIssue{
				Code: types.ErrCodeTypeMismatch, Field: "inputs",
				Message: fmt.Sprintf("input %s: default value %v does not match type %s", in.Name, in.Default, in.Type),
			})
		}
	}
}

// validateStep checks one step and recurses into conditional branches.
// Nested steps share the top-level id namespace so results stay unambiguous.
func (v *Validator) validateStep(step *types.Step, ids map[string]bool, result *types.ValidationResult) {
	if step.ID == "" {
		result.AddError(types.ValidationIssue{
			Code: types.ErrCodeValidation, Field: "steps", Message: "step id is required",
		})
		return
	}
	if ids[step.ID] {
		result.AddError(types.ValidationIssue{
			Code: types.ErrCodeValidation, StepID: step.ID,
			Message: fmt.Sprintf("duplicate step id: %s", step.ID),
		})
		return
	}
	ids[step.ID] = true

	switch step.Kind {
	case types.StepKindCommand, types.StepKindDelegatedAction,
		types.StepKindConditional, types.StepKindTemplateExpansion:
	case "":
		result.AddError(types.ValidationIssue{
			Code: types.ErrCodeValidation, StepID: step.ID, Message: "step kind is required",
		})
		return
	default:
		result.AddError(types.ValidationIssue{
			Code: types.ErrCodeValidation, StepID: step.ID,
			Message: fmt.Sprintf("unknown step kind: %s", step.Kind),
		})
		return
	}

	if step.Params() == nil {
		result.AddError(types.ValidationIssue{
			Code: types.ErrCodeValidation, StepID: step.ID,
			Message: fmt.Sprintf("step is missing %s parameters", step.Kind),
		})
		return
	}

	if step.OnFailure != "" && !step.OnFailure.Valid() {
		result.AddError(types.ValidationIssue{
			Code: types.ErrCodeValidation, StepID: step.ID,
			Message: fmt.Sprintf("invalid on_failure policy: %s", step.OnFailure),
		})
	}
	if step.TimeoutSeconds < 0 {
		result.AddError(types.ValidationIssue{
			Code: types.ErrCodeValidation, StepID: step.ID,
			Message: "timeout_seconds must be positive",
		})
	}
	if step.Retry != nil && step.Retry.Attempts < 1 {
		result.AddError(types.ValidationIssue{
			Code: types.ErrCodeValidation, StepID: step.ID,
			Message: "retry attempts must be at least 1",
		})
	}
	if step.Compensation != nil {
		if err := step.Compensation.Validate(); err != nil {
			result.AddError(types.ValidationIssue{
				Code: types.ErrCodeValidation, StepID: step.ID, Message: err.Error(),
			})
		} else if step.Compensation.Command != nil {
			v.checkCommandSafety(step.ID, step.Compensation.Command.Line, result)
		}
	}

	switch step.Kind {
	case types.StepKindCommand:
		if strings.TrimSpace(step.Command.Line) == "" {
			result.AddError(types.ValidationIssue{
				Code: types.ErrCodeValidation, StepID: step.ID, Message: "command line is empty",
			})
		} else {
			v.checkCommandSafety(step.ID, step.Command.Line, result)
		}
	case types.StepKindDelegatedAction:
		if step.Action.Capability == "" || step.Action.Action == "" {
			result.AddError(types.ValidationIssue{
				Code: types.ErrCodeValidation, StepID: step.ID,
				Message: "delegated_action requires capability and action names",
			})
		}
	case types.StepKindConditional:
		v.validateConditional(step, ids, result)
	case types.StepKindTemplateExpansion:
		if step.Template.Template == "" {
			result.AddError(types.ValidationIssue{
				Code: types.ErrCodeValidation, StepID: step.ID, Message: "template name is required",
			})
		} else {
			v.checkTemplateSafety(step, result)
		}
	}
}

// checkTemplateSafety runs the expanded template body through the safety
// rules. Templates can smuggle a denied command past the literal checks, so
// the substituted line is checked exactly like a command step. When the
// expansion cannot be resolved here, the raw body is checked instead so a
// literally unsafe template still surfaces at validation time.
func (v *Validator) checkTemplateSafety(step *types.Step, result *types.ValidationResult) {
	if v.templates == nil {
		return
	}
	if expansion, err := v.templates.Expand(step.Template); err == nil {
		if expansion.Command != nil {
			v.checkCommandSafety(step.ID, expansion.Command.Line, result)
		}
		return
	}
	if t, ok := v.templates.Get(step.Template.Template); ok && t.Command != nil {
		v.checkCommandSafety(step.ID, t.Command.Line, result)
	}
}

func (v *Validator) validateConditional(step *types.Step, ids map[string]bool, result *types.ValidationResult) {
	if strings.TrimSpace(step.Conditional.Expression) == "" {
		result.AddError(types.ValidationIssue{
			Code: types.ErrCodeValidation, StepID: step.ID, Message: "conditional expression is empty",
		})
	}
	if len(step.Conditional.Then) == 0 && len(step.Conditional.Else) == 0 {
		result.AddError(types.ValidationIssue{
			Code: types.ErrCodeValidation, StepID: step.ID,
			Message: "conditional has no then or else steps",
		})
	}
	for _, branch := range [][]types.Step{step.Conditional.Then, step.Conditional.Else} {
		for i := range branch {
			v.validateStep(&branch[i], ids, result)
		}
		v.checkBranchCycles(step.ID, branch, result)
	}
}

// checkBranchCycles resolves a conditional sublist so cycles inside a branch
// surface at validation time, not mid-run. Branch steps may only depend on
// steps in the same branch; references outside it are reported as unknown
// before the cycle check, which cannot tell the two apart.
func (v *Validator) checkBranchCycles(stepID string, branch []types.Step, result *types.ValidationResult) {
	if len(branch) == 0 {
		return
	}
	local := make(map[string]bool, len(branch))
	for i := range branch {
		local[branch[i].ID] = true
	}
	dangling := false
	for i := range branch {
		for _, dep := range branch[i].DependsOn {
			if !local[dep] {
				dangling = true
				result.AddError(types.ValidationIssue{
					Code: types.ErrCodeValidation, StepID: branch[i].ID,
					Message: fmt.Sprintf("depends_on references step outside the branch: %s", dep),
				})
			}
		}
	}
	if dangling {
		return
	}
	if _, err := plan.Resolve(branch); err != nil {
		if cycleErr, ok := err.(*types.CyclicDependencyError); ok {
			result.AddError(types.ValidationIssue{
				Code: types.ErrCodeCycle, StepID: stepID,
				Message: fmt.Sprintf("cyclic dependency in branch among steps: %s", strings.Join(cycleErr.StepIDs, ", ")),
			})
		}
	}
}

func (v *Validator) checkCommandSafety(stepID, line string, result *types.ValidationResult) {
	for _, rule := range v.safety.Check(line) {
		issue := types.ValidationIssue{
			Code: types.ErrCodeSafety, StepID: stepID,
			Message: fmt.Sprintf("%s (rule %s)", rule.Description, rule.ID),
		}
		if rule.Severity == SeverityWarn {
			result.AddWarning(issue)
		} else {
			result.AddError(issue)
		}
	}
}

// validateDependencies checks dangling references, self-dependencies, and
// whole-graph cycles over the top-level steps.
func (v *Validator) validateDependencies(wf *types.Workflow, ids map[string]bool, result *types.ValidationResult) {
	topLevel := make(map[string]bool, len(wf.Steps))
	for i := range wf.Steps {
		topLevel[wf.Steps[i].ID] = true
	}

	dangling := false
	for i := range wf.Steps {
		step := &wf.Steps[i]
		for _, dep := range step.DependsOn {
			if dep == step.ID {
				result.AddError(types.ValidationIssue{
					Code: types.ErrCodeCycle, StepID: step.ID,
					Message: "step depends on itself",
				})
				continue
			}
			if !topLevel[dep] {
				dangling = true
				result.AddError(types.ValidationIssue{
					Code: types.ErrCodeValidation, StepID: step.ID,
					Message: fmt.Sprintf("depends_on references unknown step: %s", dep),
				})
			}
		}
	}

	// With dangling references present, an unresolvable graph proves nothing
	// about cycles, so only check once references are sound.
	if dangling || len(wf.Steps) == 0 {
		return
	}
	if _, err := plan.Resolve(wf.Steps); err != nil {
		if cycleErr, ok := err.(*types.CyclicDependencyError); ok {
			result.AddError(types.ValidationIssue{
				Code: types.ErrCodeCycle,
				Message: fmt.Sprintf("cyclic dependency among steps: %s", strings.Join(cycleErr.StepIDs, ", ")),
			})
		}
	}
}

func (v *Validator) validateOutputs(wf *types.Workflow, ids map[string]bool, result *types.ValidationResult) {
	for _, out := range wf.Outputs {
		if out.Name == "" || out.Source == "" {
			result.AddError(types.ValidationIssue{
				Code: types.ErrCodeValidation, Field: "outputs",
				Message: "output name and source are required",
			})
			continue
		}
		stepID := out.Source
		if idx := strings.Index(out.Source, "."); idx > 0 {
			stepID = out.Source[:idx]
		}
		if !ids[stepID] {
			result.AddError(types.ValidationIssue{
				Code: types.ErrCodeValidation, Field: "outputs",
				Message: fmt.Sprintf("output %s references unknown step: %s", out.Name, stepID),
			})
		}
	}
}
