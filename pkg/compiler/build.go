package compiler

import (
	"errors"
	"strconv"

	"adder/pkg/sexp"
)

// unaryOps maps an operator keyword to the node it builds.
var unaryOps = map[string]func(Expr) Expr{
	"add1": func(e Expr) Expr { return &Add1{Operand: e} },
	"sub1": func(e Expr) Expr { return &Sub1{Operand: e} },
}

// Build translates a symbolic value into an expression tree.
//
//	expr = INTEGER
//	     | "(" "add1" expr ")"
//	     | "(" "sub1" expr ")"
//
// Every form other than an integer is a unary operator applied to exactly one
// operand, so the value is walked as a chain instead of recursively.
func Build(v *sexp.Value) (Expr, error) {
	// Operators are collected outermost first and applied innermost first.
	var wrap []func(Expr) Expr

	for v != nil && v.Kind == sexp.KindList {
		if len(v.List) != 2 {
			return nil, syntaxError(v, "expected (add1 <expr>) or (sub1 <expr>), got a list of %d elements", len(v.List))
		}
		head := v.List[0]
		if head == nil || head.Kind != sexp.KindSymbol {
			return nil, syntaxError(v, "operator must be a symbol")
		}
		mk, ok := unaryOps[head.Text]
		if !ok {
			return nil, syntaxError(head, "unknown operator %q", head.Text)
		}
		wrap = append(wrap, mk)
		v = v.List[1]
	}

	if v == nil {
		return nil, &SyntaxError{Form: "<nil>", Msg: "missing expression"}
	}
	if v.Kind != sexp.KindInt {
		return nil, syntaxError(v, "expected an integer literal, got %s", v.Kind)
	}

	n, err := strconv.ParseInt(v.Text, 10, 32)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil, &RangeError{Line: v.Line, Col: v.Col, Literal: v.Text}
		}
		return nil, syntaxError(v, "malformed integer literal")
	}

	var e Expr = &Num{Value: int32(n)}
	for i := len(wrap) - 1; i >= 0; i-- {
		e = wrap[i](e)
	}
	return e, nil
}

// Parse reads src and builds its expression tree.
func Parse(src string) (Expr, error) {
	v, err := sexp.Read(src)
	if err != nil {
		return nil, err
	}
	return Build(v)
}
