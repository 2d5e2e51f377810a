package validate

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"yqhp/automation-engine/pkg/types"
)

// genWorkflow builds workflows of varying shape, deliberately including
// invalid ones: missing versions, duplicate ids, forward and cyclic
// dependencies.
func genWorkflow() gopter.Gen {
	return gopter.CombineGens(
		gen.AlphaString(),
		gen.OneConstOf("1.0.0", "2.1.3", "v1", ""),
		gen.IntRange(0, 8),
		gen.IntRange(0, 3),
		gen.Bool(),
	).Map(func(vals []any) *types.Workflow {
		name := vals[0].(string)
		version := vals[1].(string)
		numSteps := vals[2].(int)
		depSpread := vals[3].(int)
		dupID := vals[4].(bool)

		wf := &types.Workflow{Name: name, Version: version, Description: "generated"}
		for i := 0; i < numSteps; i++ {
			id := fmt.Sprintf("step%d", i)
			if dupID && i == numSteps-1 && numSteps > 1 {
				id = "step0"
			}
			step := types.Step{
				ID:      id,
				Kind:    types.StepKindCommand,
				Command: &types.CommandParams{Line: fmt.Sprintf("echo %d", i)},
			}
			for d := 1; d <= depSpread; d++ {
				// Depending forward can produce cycles with later steps'
				// backward edges; both must validate deterministically.
				target := (i + d) % max(numSteps, 1)
				if target != i {
					step.DependsOn = append(step.DependsOn, fmt.Sprintf("step%d", target))
				}
			}
			wf.Steps = append(wf.Steps, step)
		}
		return wf
	})
}

// Validating the same document twice must produce identical results.
func TestValidateDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("validation is deterministic", prop.ForAll(
		func(wf *types.Workflow) bool {
			v := New()
			first := v.Validate(wf)
			second := v.Validate(wf)
			return reflect.DeepEqual(first, second)
		},
		genWorkflow(),
	))

	properties.Property("cyclic graphs never validate", prop.ForAll(
		func(n int) bool {
			wf := &types.Workflow{Name: "ring", Version: "1.0.0", Description: "ring"}
			for i := 0; i < n; i++ {
				wf.Steps = append(wf.Steps, types.Step{
					ID:        fmt.Sprintf("s%d", i),
					Kind:      types.StepKindCommand,
					Command:   &types.CommandParams{Line: "true"},
					DependsOn: []string{fmt.Sprintf("s%d", (i+1)%n)},
				})
			}
			return !New().Validate(wf).IsValid()
		},
		gen.IntRange(2, 12),
	))

	properties.TestingRun(t)
}
