package expression

// Node is one vertex of a parsed condition expression. The concrete node
// types below are the whole language: literals, variable references,
// comparisons, AND/OR, and NOT.
type Node interface {
	exprNode()
}

// LiteralNode holds a string, int64, float64 or bool constant.
type LiteralNode struct {
	Value any
}

// VariableNode references a value from the evaluation context by name or
// dotted path ("inputs.env", "steps.login.success").
type VariableNode struct {
	Name string
}

// ComparisonNode applies ==, !=, <, >, <= or >= to two operands.
type ComparisonNode struct {
	Left     Node
	Operator string
	Right    Node
}

// LogicalNode combines two boolean operands with "AND" or "OR".
type LogicalNode struct {
	Left     Node
	Operator string
	Right    Node
}

// NotNode negates its operand.
type NotNode struct {
	Operand Node
}

func (*LiteralNode) exprNode()    {}
func (*VariableNode) exprNode()   {}
func (*ComparisonNode) exprNode() {}
func (*LogicalNode) exprNode()    {}
func (*NotNode) exprNode()        {}

// ExpressionAST wraps the root node of a parsed expression.
type ExpressionAST struct {
	Root Node
}
