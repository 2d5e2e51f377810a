package expression

import (
	"strconv"
	"strings"
)

// Binding strength for the binary operators. Comparisons bind tightest and
// do not chain: "a == b == c" is a parse error, not ((a == b) == c).
const (
	precOr = iota + 1
	precAnd
	precCompare
)

var precedence = map[TokenType]int{
	TokenOR:  precOr,
	TokenAND: precAnd,
	TokenEQ:  precCompare,
	TokenNE:  precCompare,
	TokenLT:  precCompare,
	TokenGT:  precCompare,
	TokenLE:  precCompare,
	TokenGE:  precCompare,
}

// Parser turns an expression string into an AST by precedence climbing.
type Parser struct {
	lexer     *Lexer
	curToken  Token
	peekToken Token
}

// NewParser creates a Parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	p.nextToken()
	p.nextToken()
	return p
}

// ParseExpression parses an expression string in one call.
func ParseExpression(input string) (*ExpressionAST, error) {
	return NewParser(input).Parse()
}

// Parse consumes the whole input and returns its AST. Trailing tokens after
// a complete expression are an error.
func (p *Parser) Parse() (*ExpressionAST, error) {
	root, err := p.parseBinary(precOr)
	if err != nil {
		return nil, err
	}
	if p.curToken.Type != TokenEOF {
		return nil, NewParseError(p.curToken.Pos, "end of expression", p.curToken.Literal)
	}
	return &ExpressionAST{Root: root}, nil
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.lexer.NextToken()
}

func (p *Parser) parseBinary(minPrec int) (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		op := p.curToken
		prec, ok := precedence[op.Type]
		if !ok || prec < minPrec {
			return left, nil
		}
		p.nextToken()

		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}

		switch op.Type {
		case TokenOR:
			left = &LogicalNode{Left: left, Operator: "OR", Right: right}
		case TokenAND:
			left = &LogicalNode{Left: left, Operator: "AND", Right: right}
		default:
			if precedence[p.curToken.Type] == precCompare {
				return nil, NewParseError(p.curToken.Pos, "logical operator or end of expression", p.curToken.Literal)
			}
			left = &ComparisonNode{Left: left, Operator: op.Literal, Right: right}
		}
	}
}

// parseUnary handles NOT, which is right-associative.
func (p *Parser) parseUnary() (Node, error) {
	if p.curToken.Type == TokenNOT {
		p.nextToken()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &NotNode{Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Node, error) {
	tok := p.curToken

	switch tok.Type {
	case TokenLParen:
		p.nextToken()
		inner, err := p.parseBinary(precOr)
		if err != nil {
			return nil, err
		}
		if p.curToken.Type != TokenRParen {
			return nil, NewParseError(p.curToken.Pos, ")", p.curToken.Literal)
		}
		p.nextToken()
		return inner, nil

	case TokenInt:
		val, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			return nil, NewExpressionError(tok.Pos, "invalid integer: "+tok.Literal, err)
		}
		p.nextToken()
		return &LiteralNode{Value: val}, nil

	case TokenFloat:
		val, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, NewExpressionError(tok.Pos, "invalid float: "+tok.Literal, err)
		}
		p.nextToken()
		return &LiteralNode{Value: val}, nil

	case TokenString:
		p.nextToken()
		return &LiteralNode{Value: tok.Literal}, nil

	case TokenBool:
		p.nextToken()
		return &LiteralNode{Value: strings.EqualFold(tok.Literal, "true")}, nil

	case TokenIdent:
		p.nextToken()
		return &VariableNode{Name: tok.Literal}, nil

	case TokenEOF:
		return nil, NewParseError(tok.Pos, "expression", "end of input")

	default:
		return nil, NewParseError(tok.Pos, "expression", tok.Literal)
	}
}
