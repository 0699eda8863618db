package compiler

import (
	"fmt"

	"adder/pkg/sexp"
)

// Compile runs the pipeline on src and returns the instruction sequence.
// Compilation is all-or-nothing: on any error no instructions are returned.
func Compile(src string) ([]Instr, error) {
	v, err := sexp.Read(src)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}

	e, err := Build(v)
	if err != nil {
		return nil, err
	}

	return Generate(e), nil
}

// CompileProgram compiles src and wraps the result in the program template.
func CompileProgram(src string) (string, error) {
	instrs, err := Compile(src)
	if err != nil {
		return "", err
	}
	return Program(instrs), nil
}
