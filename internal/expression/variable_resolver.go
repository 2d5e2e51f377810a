package expression

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"

	"yqhp/automation-engine/pkg/types"
)

// resolveReference resolves an identifier against the evaluation context.
//
// Supported forms:
//
//	name                   workflow input, or a step id (resolves to success)
//	inputs.name            workflow input, explicit namespace
//	steps.id.field         step outcome field
//	id.field               same, without the steps prefix
//	steps.id.output.a.b    JSONPath descent into the step's output value
func resolveReference(name string, ctx *EvaluationContext) (any, error) {
	if ctx == nil {
		return nil, NewVariableNotFoundError(name)
	}

	parts := strings.Split(name, ".")

	if len(parts) == 1 {
		if val, ok := ctx.Inputs[name]; ok {
			return val, nil
		}
		if outcome, ok := ctx.Results[name]; ok {
			return outcome.Success, nil
		}
		return nil, NewVariableNotFoundError(name)
	}

	switch parts[0] {
	case "inputs":
		val, ok := ctx.Inputs[parts[1]]
		if !ok {
			return nil, NewVariableNotFoundError(name)
		}
		return descend(name, val, parts[2:])
	case "steps":
		outcome, ok := ctx.Results[parts[1]]
		if !ok {
			return nil, NewVariableNotFoundError(name)
		}
		return resolveOutcomeField(name, outcome, parts[2:])
	default:
		// Unprefixed step reference, e.g. "login.success".
		if outcome, ok := ctx.Results[parts[0]]; ok {
			return resolveOutcomeField(name, outcome, parts[1:])
		}
		if val, ok := ctx.Inputs[parts[0]]; ok {
			return descend(name, val, parts[1:])
		}
		return nil, NewVariableNotFoundError(name)
	}
}

// resolveOutcomeField maps a path remainder onto a step outcome.
func resolveOutcomeField(full string, outcome *types.StepOutcome, rest []string) (any, error) {
	if len(rest) == 0 {
		return outcome.Success, nil
	}
	switch rest[0] {
	case "success":
		return outcome.Success, nil
	case "status":
		return string(outcome.Status), nil
	case "error":
		return outcome.Error, nil
	case "duration_ms":
		return outcome.DurationMs(), nil
	case "attempts":
		return outcome.Attempts, nil
	case "output":
		return descend(full, outcome.Output, rest[1:])
	default:
		return nil, NewEvaluationError(
			fmt.Sprintf("unknown step outcome field %q in %q", rest[0], full), nil)
	}
}

// descend walks the remaining path into a decoded value using JSONPath, so
// expressions can reach into structured command or action outputs.
func descend(full string, val any, rest []string) (any, error) {
	if len(rest) == 0 {
		return val, nil
	}
	expr, err := jp.ParseString("$." + strings.Join(rest, "."))
	if err != nil {
		return nil, NewEvaluationError(fmt.Sprintf("invalid path %q", full), err)
	}
	matches := expr.Get(val)
	if len(matches) == 0 {
		return nil, NewVariableNotFoundError(full)
	}
	return matches[0], nil
}
