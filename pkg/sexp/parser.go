package sexp

// Parser consumes the flat token slice produced by Lex and builds one Value.
type Parser struct {
	tokens []Token
	pos    int
}

func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		if n := len(p.tokens); n > 0 {
			last := p.tokens[n-1]
			return Token{Type: EOF, Line: last.Line, Col: last.Col}
		}
		return Token{Type: EOF, Line: 1, Col: 1}
	}
	return p.tokens[p.pos]
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func closerFor(opener string) string {
	if opener == "[" {
		return "]"
	}
	return ")"
}

// ParseValue reads the next complete value. Lists still waiting for their
// closing bracket are kept on an explicit stack.
func (p *Parser) ParseValue() (*Value, error) {
	var open []*Value
	var openers []Token

	for {
		tok := p.advance()

		var v *Value
		switch tok.Type {
		case EOF:
			if len(open) == 0 {
				return nil, errorAt(tok.Line, tok.Col, ErrEmptyInput, "expected an expression")
			}
			o := openers[len(openers)-1]
			return nil, errorAt(o.Line, o.Col, ErrUnexpectedEOF, "unclosed %q", o.Lexeme)

		case LPAREN:
			open = append(open, &Value{Kind: KindList, List: make([]*Value, 0), Line: tok.Line, Col: tok.Col})
			openers = append(openers, tok)
			continue

		case RPAREN:
			if len(open) == 0 {
				return nil, errorAt(tok.Line, tok.Col, ErrUnexpectedClose, "unexpected %q", tok.Lexeme)
			}
			o := openers[len(openers)-1]
			if want := closerFor(o.Lexeme); tok.Lexeme != want {
				return nil, errorAt(tok.Line, tok.Col, ErrMismatchedClose,
					"%q closes %q opened at %d:%d", tok.Lexeme, o.Lexeme, o.Line, o.Col)
			}
			v = open[len(open)-1]
			open = open[:len(open)-1]
			openers = openers[:len(openers)-1]

		case INTEGER:
			v = &Value{Kind: KindInt, Text: tok.Lexeme, Line: tok.Line, Col: tok.Col}

		case SYMBOL:
			v = &Value{Kind: KindSymbol, Text: tok.Lexeme, Line: tok.Line, Col: tok.Col}

		default:
			return nil, errorAt(tok.Line, tok.Col, ErrUnexpectedChar, "unexpected token %s", tok.Type)
		}

		if len(open) == 0 {
			return v, nil
		}
		top := open[len(open)-1]
		top.List = append(top.List, v)
	}
}

// Parse reads exactly one value from tokens; anything after it is an error.
func Parse(tokens []Token) (*Value, error) {
	p := NewParser(tokens)
	v, err := p.ParseValue()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Type != EOF {
		return nil, errorAt(tok.Line, tok.Col, ErrTrailingInput, "unexpected %q after expression", tok.Lexeme)
	}
	return v, nil
}

// Read lexes and parses src into a single value.
func Read(src string) (*Value, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}
	return Parse(tokens)
}
