// Package sexp reads the textual s-expression notation into a generic
// atom-or-list tree.
//
//	value   = INTEGER | SYMBOL | "(" value* ")" | "[" value* "]"
//	INTEGER = ["+" | "-"] digit+
//	SYMBOL  = any other run of non-delimiter characters
//
// Comments run from ';' to end of line.
package sexp

import "strings"

type Kind int

const (
	KindInt Kind = iota
	KindSymbol
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "integer"
	case KindSymbol:
		return "symbol"
	case KindList:
		return "list"
	}
	return "unknown"
}

// Value is one node of a symbolic expression. Atoms keep their source text
// in Text; lists keep their children in List.
type Value struct {
	Kind
	Text string
	List []*Value

	Line int // 1-based position of the atom or opening bracket; 0 if built in code
	Col  int
}

func Int(text string) *Value    { return &Value{Kind: KindInt, Text: text} }
func Symbol(name string) *Value { return &Value{Kind: KindSymbol, Text: name} }

func List(children ...*Value) *Value {
	if children == nil {
		children = make([]*Value, 0)
	}
	return &Value{Kind: KindList, List: children}
}

// IsAtom reports whether v is an integer or a symbol.
func (v *Value) IsAtom() bool { return v.Kind != KindList }

// piece is either a value still to render or literal text (v == nil).
type piece struct {
	v    *Value
	text string
}

// String renders v back to s-expression text. It walks an explicit stack so
// deeply nested values do not grow the goroutine stack.
func (v *Value) String() string {
	var sb strings.Builder

	work := []piece{{v: v}}
	for len(work) > 0 {
		p := work[len(work)-1]
		work = work[:len(work)-1]

		switch {
		case p.v == nil:
			sb.WriteString(p.text)
		case p.v.Kind != KindList:
			sb.WriteString(p.v.Text)
		default:
			sb.WriteByte('(')
			work = append(work, piece{text: ")"})
			for i := len(p.v.List) - 1; i >= 0; i-- {
				work = append(work, piece{v: p.v.List[i]})
				if i > 0 {
					work = append(work, piece{text: " "})
				}
			}
		}
	}

	return sb.String()
}
