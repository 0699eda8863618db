package compiler

import (
	"fmt"
	"strings"
)

// Expr is implemented by every node that produces a value.
// Generate always leaves the result in rax.
//
// The set of implementations is closed: Num, Add1 and Sub1.
type Expr interface {
	exprNode()
	String() string
}

// Num is a signed 32-bit integer literal.
//
//	(add1 5)
//	      ^  Num{Value: 5}
type Num struct {
	Value int32
}

// Add1 increments the value of its operand.
//
//	(add1 5)
//	^^^^^^^^  Add1{Operand: &Num{Value: 5}}
type Add1 struct {
	Operand Expr
}

// Sub1 decrements the value of its operand.
type Sub1 struct {
	Operand Expr
}

func (*Num) exprNode()  {}
func (*Add1) exprNode() {}
func (*Sub1) exprNode() {}

func (n *Num) String() string  { return fmt.Sprintf("%d", n.Value) }
func (a *Add1) String() string { return format(a) }
func (s *Sub1) String() string { return format(s) }

// operator returns the source keyword of a unary node and its operand.
func operator(e Expr) (string, Expr, bool) {
	switch n := e.(type) {
	case *Add1:
		return "add1", n.Operand, true
	case *Sub1:
		return "sub1", n.Operand, true
	}
	return "", nil, false
}

// format renders e in source form without recursing, so arbitrarily deep
// chains print in constant stack space.
func format(e Expr) string {
	var sb strings.Builder
	depth := 0
	for {
		op, operand, ok := operator(e)
		if !ok {
			break
		}
		sb.WriteString("(" + op + " ")
		depth++
		e = operand
	}
	if e == nil {
		sb.WriteString("<nil>")
	} else {
		sb.WriteString(e.String())
	}
	sb.WriteString(strings.Repeat(")", depth))
	return sb.String()
}
