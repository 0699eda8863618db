// Package compiler builds the expression tree of the adder language and
// lowers it to x86-64 assembly that computes the value into rax.
//
// Pipeline: source → sexp.Read → Build → Generate → Program
package compiler
