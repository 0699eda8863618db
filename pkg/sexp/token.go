package sexp

import "fmt"

// TokenType identifies the category of a lexed token.
type TokenType int

const (
	EOF TokenType = iota // sentinel: end of input

	LPAREN // ( or [
	RPAREN // ) or ]

	INTEGER // optionally signed decimal literal
	SYMBOL  // any other atom
)

var tokenNames = [...]string{
	EOF:     "EOF",
	LPAREN:  "LPAREN",
	RPAREN:  "RPAREN",
	INTEGER: "INTEGER",
	SYMBOL:  "SYMBOL",
}

func (tt TokenType) String() string {
	if int(tt) >= 0 && int(tt) < len(tokenNames) {
		return tokenNames[tt]
	}
	return fmt.Sprintf("TokenType(%d)", int(tt))
}

// Token is a single lexical unit produced by the Lexer.
type Token struct {
	Type   TokenType
	Lexeme string // the exact source text that was matched
	Line   int    // 1-based source line
	Col    int    // 1-based column of the first rune
}

func (t Token) String() string {
	return fmt.Sprintf("%-8s %-14q  %d:%d", t.Type, t.Lexeme, t.Line, t.Col)
}
