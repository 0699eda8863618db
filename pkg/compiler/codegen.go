package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Accumulator is the register every expression leaves its value in.
const Accumulator = "rax"

// Instr is one x86-64 instruction in Intel syntax.
type Instr struct {
	Op  string // mnemonic
	Dst string // destination operand, empty for none
	Src string // source operand, empty for none
}

func (i Instr) String() string {
	switch {
	case i.Dst == "":
		return i.Op
	case i.Src == "":
		return i.Op + " " + i.Dst
	}
	return i.Op + " " + i.Dst + ", " + i.Src
}

// CodeGen walks an AST and emits x86-64 instructions.
type CodeGen struct {
	out []Instr
}

func newCodeGen() *CodeGen {
	return &CodeGen{}
}

func (cg *CodeGen) emit(op, dst, src string) {
	cg.out = append(cg.out, Instr{Op: op, Dst: dst, Src: src})
}

// genExpr emits code that leaves the value of e in the accumulator.
//
// Code is emitted in postorder: the literal at the bottom of the chain is
// loaded first, then each enclosing operator adjusts the accumulator,
// innermost first. The chain is followed with a loop and the pending
// operators are kept on a slice, so nesting depth does not cost stack.
func (cg *CodeGen) genExpr(e Expr) {
	var pending []Expr // unary nodes, outermost first

	for {
		switch n := e.(type) {
		case *Num:
			cg.emit("mov", Accumulator, strconv.FormatInt(int64(n.Value), 10))
			for i := len(pending) - 1; i >= 0; i-- {
				cg.genAdjust(pending[i])
			}
			return
		case *Add1:
			pending = append(pending, n)
			e = n.Operand
		case *Sub1:
			pending = append(pending, n)
			e = n.Operand
		default:
			panic(fmt.Sprintf("codegen: unexpected node %T", e))
		}
	}
}

// genAdjust emits the single instruction a unary node contributes once its
// operand's value is in the accumulator.
func (cg *CodeGen) genAdjust(e Expr) {
	switch e.(type) {
	case *Add1:
		cg.emit("add", Accumulator, "1")
	case *Sub1:
		cg.emit("sub", Accumulator, "1")
	}
}

// Generate returns straight-line code computing e into rax. It cannot fail:
// e must be a tree built from Num, Add1 and Sub1 with no nil operands, as
// Build always returns.
func Generate(e Expr) []Instr {
	cg := newCodeGen()
	cg.genExpr(e)
	return cg.out
}

// Lines renders each instruction as one line of assembly text.
func Lines(instrs []Instr) []string {
	lines := make([]string, len(instrs))
	for i, in := range instrs {
		lines[i] = in.String()
	}
	return lines
}

// Assembly joins the rendered instructions with newlines.
func Assembly(instrs []Instr) string {
	return strings.Join(Lines(instrs), "\n")
}
