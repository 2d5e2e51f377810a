package expression

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"yqhp/automation-engine/pkg/types"
)

// EvaluationContext exposes run state to condition expressions: resolved
// workflow inputs and the outcomes of previously completed steps.
type EvaluationContext struct {
	Inputs  map[string]any
	Results map[string]*types.StepOutcome
}

// NewEvaluationContext creates an empty EvaluationContext.
func NewEvaluationContext() *EvaluationContext {
	return &EvaluationContext{
		Inputs:  make(map[string]any),
		Results: make(map[string]*types.StepOutcome),
	}
}

// WithInputs sets the resolved input values.
func (c *EvaluationContext) WithInputs(inputs map[string]any) *EvaluationContext {
	c.Inputs = inputs
	return c
}

// WithResults sets the step outcomes visible to the expression.
func (c *EvaluationContext) WithResults(results map[string]*types.StepOutcome) *EvaluationContext {
	c.Results = results
	return c
}

// SetInput sets one input value.
func (c *EvaluationContext) SetInput(name string, value any) {
	c.Inputs[name] = value
}

// SetResult records one step outcome.
func (c *EvaluationContext) SetResult(outcome *types.StepOutcome) {
	c.Results[outcome.StepID] = outcome
}

// Evaluator evaluates condition expressions.
type Evaluator struct{}

// NewEvaluator creates an Evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Parse parses an expression string into an AST.
func (e *Evaluator) Parse(expr string) (*ExpressionAST, error) {
	return ParseExpression(expr)
}

// Evaluate evaluates an AST against the given context.
func (e *Evaluator) Evaluate(ast *ExpressionAST, ctx *EvaluationContext) (bool, error) {
	if ast == nil || ast.Root == nil {
		return false, NewEvaluationError("nil AST", nil)
	}
	return e.boolValue(ast.Root, ctx)
}

// EvaluateString parses and evaluates an expression string.
func (e *Evaluator) EvaluateString(expr string, ctx *EvaluationContext) (bool, error) {
	ast, err := e.Parse(expr)
	if err != nil {
		return false, err
	}
	return e.Evaluate(ast, ctx)
}

// Evaluate parses and evaluates an expression string in one call.
func Evaluate(expr string, ctx *EvaluationContext) (bool, error) {
	return NewEvaluator().EvaluateString(expr, ctx)
}

func (e *Evaluator) value(node Node, ctx *EvaluationContext) (any, error) {
	switch n := node.(type) {
	case *LiteralNode:
		return n.Value, nil
	case *VariableNode:
		return resolveReference(n.Name, ctx)
	case *ComparisonNode:
		left, err := e.value(n.Left, ctx)
		if err != nil {
			return nil, err
		}
		right, err := e.value(n.Right, ctx)
		if err != nil {
			return nil, err
		}
		return compare(left, right, n.Operator)
	case *LogicalNode:
		return e.evaluateLogical(n, ctx)
	case *NotNode:
		val, err := e.boolValue(n.Operand, ctx)
		if err != nil {
			return nil, err
		}
		return !val, nil
	default:
		return nil, NewEvaluationError(fmt.Sprintf("unknown node type: %T", node), nil)
	}
}

// boolValue evaluates a node and coerces the result to bool.
func (e *Evaluator) boolValue(node Node, ctx *EvaluationContext) (bool, error) {
	val, err := e.value(node, ctx)
	if err != nil {
		return false, err
	}
	return toBool(val)
}

// evaluateLogical short-circuits: the right operand is not evaluated when
// the left one already decides the result.
func (e *Evaluator) evaluateLogical(node *LogicalNode, ctx *EvaluationContext) (bool, error) {
	left, err := e.boolValue(node.Left, ctx)
	if err != nil {
		return false, err
	}

	switch node.Operator {
	case "AND":
		if !left {
			return false, nil
		}
	case "OR":
		if left {
			return true, nil
		}
	default:
		return false, NewEvaluationError("unknown logical operator: "+node.Operator, nil)
	}

	return e.boolValue(node.Right, ctx)
}

// compare applies a comparison operator. Two numeric values (including
// numeric strings) compare numerically; everything else compares as strings.
// nil only supports == and !=.
func compare(left, right any, op string) (bool, error) {
	if left == nil || right == nil {
		switch op {
		case "==":
			return left == right, nil
		case "!=":
			return left != right, nil
		default:
			return false, NewEvaluationError("cannot compare nil with operator "+op, nil)
		}
	}

	if lf, lok := toFloat64(left); lok {
		if rf, rok := toFloat64(right); rok {
			var ord int
			switch {
			case lf < rf:
				ord = -1
			case lf > rf:
				ord = 1
			}
			return applyOrder(ord, op)
		}
	}

	ls := fmt.Sprintf("%v", left)
	rs := fmt.Sprintf("%v", right)
	return applyOrder(strings.Compare(ls, rs), op)
}

func applyOrder(ord int, op string) (bool, error) {
	switch op {
	case "==":
		return ord == 0, nil
	case "!=":
		return ord != 0, nil
	case "<":
		return ord < 0, nil
	case ">":
		return ord > 0, nil
	case "<=":
		return ord <= 0, nil
	case ">=":
		return ord >= 0, nil
	default:
		return false, NewEvaluationError("unknown comparison operator: "+op, nil)
	}
}

func toFloat64(v any) (float64, bool) {
	switch val := v.(type) {
	case float32, float64:
		return reflect.ValueOf(val).Float(), true
	case int, int8, int16, int32, int64:
		return float64(reflect.ValueOf(val).Int()), true
	case uint, uint8, uint16, uint32, uint64:
		return float64(reflect.ValueOf(val).Uint()), true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	}
	return 0, false
}

// toBool coerces a value to bool. Numbers are true when non-zero; strings
// accept true/false/1/0 with empty meaning false; nil is false.
func toBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case int, int8, int16, int32, int64:
		return reflect.ValueOf(val).Int() != 0, nil
	case uint, uint8, uint16, uint32, uint64:
		return reflect.ValueOf(val).Uint() != 0, nil
	case float32, float64:
		return reflect.ValueOf(val).Float() != 0, nil
	case string:
		switch strings.ToLower(val) {
		case "true", "1":
			return true, nil
		case "false", "0", "":
			return false, nil
		}
		return false, NewTypeMismatchError("bool", "string", val)
	case nil:
		return false, nil
	default:
		return false, NewTypeMismatchError("bool", fmt.Sprintf("%T", v), v)
	}
}
