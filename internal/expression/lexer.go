package expression

import (
	"strings"
	"unicode"
)

// Lexer tokenizes expression strings.
type Lexer struct {
	input   string
	pos     int  // position of ch
	readPos int  // position after ch
	ch      byte // current character, 0 at end of input
}

// NewLexer creates a Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

// NextToken scans and returns the next token.
func (l *Lexer) NextToken() Token {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}

	pos := l.pos
	ch := l.ch

	switch {
	case ch == 0:
		return Token{Type: TokenEOF, Pos: pos}
	case ch == '"' || ch == '\'':
		return l.readString()
	case isDigit(ch) || (ch == '-' && isDigit(l.peekChar())):
		return l.readNumber()
	case isLetter(ch):
		return l.readIdentifier()
	}

	l.readChar()
	switch ch {
	case '(':
		return Token{Type: TokenLParen, Literal: "(", Pos: pos}
	case ')':
		return Token{Type: TokenRParen, Literal: ")", Pos: pos}
	case '=':
		if l.ch == '=' {
			l.readChar()
			return Token{Type: TokenEQ, Literal: "==", Pos: pos}
		}
	case '!':
		if l.ch == '=' {
			l.readChar()
			return Token{Type: TokenNE, Literal: "!=", Pos: pos}
		}
		return Token{Type: TokenNOT, Literal: "!", Pos: pos}
	case '&':
		if l.ch == '&' {
			l.readChar()
			return Token{Type: TokenAND, Literal: "&&", Pos: pos}
		}
	case '|':
		if l.ch == '|' {
			l.readChar()
			return Token{Type: TokenOR, Literal: "||", Pos: pos}
		}
	case '<':
		if l.ch == '=' {
			l.readChar()
			return Token{Type: TokenLE, Literal: "<=", Pos: pos}
		}
		return Token{Type: TokenLT, Literal: "<", Pos: pos}
	case '>':
		if l.ch == '=' {
			l.readChar()
			return Token{Type: TokenGE, Literal: ">=", Pos: pos}
		}
		return Token{Type: TokenGT, Literal: ">", Pos: pos}
	}
	return Token{Type: TokenIllegal, Literal: string(ch), Pos: pos}
}

// readIdentifier reads an identifier, keyword, or dotted path such as
// "inputs.env" or "steps.fetch.output.status". A trailing dot is not
// consumed so "x ." still lexes as IDENT ILLEGAL.
func (l *Lexer) readIdentifier() Token {
	pos := l.pos
	l.readWord()
	for l.ch == '.' && isWordChar(l.peekChar()) {
		l.readChar()
		l.readWord()
	}
	literal := l.input[pos:l.pos]
	return Token{Type: lookupIdent(literal), Literal: literal, Pos: pos}
}

func (l *Lexer) readWord() {
	for isWordChar(l.ch) {
		l.readChar()
	}
}

// readNumber reads an integer or float literal, with optional leading minus.
func (l *Lexer) readNumber() Token {
	pos := l.pos
	if l.ch == '-' {
		l.readChar()
	}
	for isDigit(l.ch) {
		l.readChar()
	}

	kind := TokenInt
	if l.ch == '.' && isDigit(l.peekChar()) {
		kind = TokenFloat
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	return Token{Type: kind, Literal: l.input[pos:l.pos], Pos: pos}
}

// readString reads a single- or double-quoted string literal. An unterminated
// string is tolerated and runs to end of input.
func (l *Lexer) readString() Token {
	pos := l.pos
	quote := l.ch
	l.readChar()

	start := l.pos
	for l.ch != quote && l.ch != 0 {
		l.readChar()
	}
	literal := l.input[start:l.pos]
	if l.ch == quote {
		l.readChar()
	}
	return Token{Type: TokenString, Literal: literal, Pos: pos}
}

// lookupIdent returns the token type for an identifier. Logical keywords are
// case-insensitive; dotted paths are always plain identifiers.
func lookupIdent(ident string) TokenType {
	if strings.Contains(ident, ".") {
		return TokenIdent
	}
	switch strings.ToUpper(ident) {
	case "AND":
		return TokenAND
	case "OR":
		return TokenOR
	case "NOT":
		return TokenNOT
	case "TRUE", "FALSE":
		return TokenBool
	default:
		return TokenIdent
	}
}

func isLetter(ch byte) bool {
	return unicode.IsLetter(rune(ch)) || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isWordChar(ch byte) bool {
	return isLetter(ch) || isDigit(ch)
}
