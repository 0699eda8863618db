package sexp

import (
	"unicode"
)

// Lexer holds all mutable state for a single scanning pass over src.
type Lexer struct {
	src  []rune
	pos  int // index of the next rune to consume
	line int // current 1-based source line
	col  int // current 1-based column
}

func newLexer(src string) *Lexer {
	return &Lexer{src: []rune(src), pos: 0, line: 1, col: 1}
}

// peek returns the rune at the current position without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

// advance consumes one rune and returns it.
func (l *Lexer) advance() rune {
	if l.pos >= len(l.src) {
		return 0
	}
	r := l.src[l.pos]
	l.pos++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.src) && unicode.IsSpace(l.peek()) {
		l.advance()
	}
}

// skipLineComment discards everything from the current position to end-of-line.
// The opening ';' must already have been consumed.
func (l *Lexer) skipLineComment() {
	for l.pos < len(l.src) && l.peek() != '\n' {
		l.advance()
	}
}

func isDelimiter(r rune) bool {
	switch r {
	case '(', ')', '[', ']', ';':
		return true
	}
	return unicode.IsSpace(r)
}

// scanAtom collects one atom and classifies it as INTEGER or SYMBOL.
// The first rune must still be at l.peek().
func (l *Lexer) scanAtom() Token {
	line, col := l.line, l.col
	start := l.pos
	for l.pos < len(l.src) && !isDelimiter(l.peek()) {
		l.advance()
	}
	lexeme := string(l.src[start:l.pos])
	tt := SYMBOL
	if isInteger(lexeme) {
		tt = INTEGER
	}
	return Token{Type: tt, Lexeme: lexeme, Line: line, Col: col}
}

// isInteger reports whether s is an optional sign followed by one or more
// decimal digits. Magnitude is not checked here.
func isInteger(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Lex scans src into a flat token slice terminated by an EOF token.
func Lex(src string) ([]Token, error) {
	l := newLexer(src)
	var tokens []Token

	for {
		l.skipWhitespace()
		if l.pos >= len(l.src) {
			tokens = append(tokens, Token{Type: EOF, Line: l.line, Col: l.col})
			return tokens, nil
		}

		line, col := l.line, l.col
		r := l.peek()
		switch r {
		case ';':
			l.advance()
			l.skipLineComment()
		case '(', '[':
			l.advance()
			tokens = append(tokens, Token{Type: LPAREN, Lexeme: string(r), Line: line, Col: col})
		case ')', ']':
			l.advance()
			tokens = append(tokens, Token{Type: RPAREN, Lexeme: string(r), Line: line, Col: col})
		default:
			if !unicode.IsPrint(r) {
				return nil, errorAt(line, col, ErrUnexpectedChar, "unexpected character %q", r)
			}
			tokens = append(tokens, l.scanAtom())
		}
	}
}
