// Package expression provides condition expression parsing and evaluation.
package expression

// TokenType classifies a lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIllegal

	TokenIdent  // variable name or dotted path
	TokenInt    // integer literal
	TokenFloat  // float literal
	TokenString // string literal
	TokenBool   // true/false

	TokenEQ // ==
	TokenNE // !=
	TokenLT // <
	TokenGT // >
	TokenLE // <=
	TokenGE // >=

	TokenAND // and, &&
	TokenOR  // or, ||
	TokenNOT // not, !

	TokenLParen // (
	TokenRParen // )
)

var tokenNames = map[TokenType]string{
	TokenEOF:     "EOF",
	TokenIllegal: "ILLEGAL",
	TokenIdent:   "IDENT",
	TokenInt:     "INT",
	TokenFloat:   "FLOAT",
	TokenString:  "STRING",
	TokenBool:    "BOOL",
	TokenEQ:      "==",
	TokenNE:      "!=",
	TokenLT:      "<",
	TokenGT:      ">",
	TokenLE:      "<=",
	TokenGE:      ">=",
	TokenAND:     "AND",
	TokenOR:      "OR",
	TokenNOT:     "NOT",
	TokenLParen:  "(",
	TokenRParen:  ")",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Token is a lexical token with its byte offset in the input.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int
}
