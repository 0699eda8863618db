package compiler

import (
	"fmt"

	"adder/pkg/sexp"
)

// SyntaxError reports a symbolic value that is not an expression of the
// language: an unknown operator, a list of the wrong length, or an atom
// where a literal or operator was expected.
type SyntaxError struct {
	Line int // position of the offending value; 0 if it was built in code
	Col  int
	Form string // the offending value, rendered as an s-expression
	Msg  string
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d:%d: syntax error: %s: %s", e.Line, e.Col, e.Msg, e.Form)
	}
	return fmt.Sprintf("syntax error: %s: %s", e.Msg, e.Form)
}

// RangeError reports an integer literal outside the signed 32-bit range.
type RangeError struct {
	Line    int
	Col     int
	Literal string
}

func (e *RangeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d:%d: integer literal %s out of 32-bit range", e.Line, e.Col, e.Literal)
	}
	return fmt.Sprintf("integer literal %s out of 32-bit range", e.Literal)
}

func syntaxError(v *sexp.Value, format string, args ...any) error {
	return &SyntaxError{
		Line: v.Line,
		Col:  v.Col,
		Form: v.String(),
		Msg:  fmt.Sprintf(format, args...),
	}
}
