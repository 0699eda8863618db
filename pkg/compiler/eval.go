package compiler

import "fmt"

// Eval computes the value of e directly: the literal plus one for every
// enclosing Add1 and minus one for every enclosing Sub1. It is the reference
// the generated code is checked against.
func Eval(e Expr) int64 {
	var adjust int64
	for {
		switch n := e.(type) {
		case *Num:
			return int64(n.Value) + adjust
		case *Add1:
			adjust++
			e = n.Operand
		case *Sub1:
			adjust--
			e = n.Operand
		default:
			panic(fmt.Sprintf("eval: unexpected node %T", e))
		}
	}
}
