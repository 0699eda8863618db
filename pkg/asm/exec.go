package asm

import (
	"fmt"
	"io"

	"adder/pkg/cpu"
)

// Entry returns the code offset of label, or 0 when label is empty.
func (o *Object) Entry(label string) (int, error) {
	if label == "" {
		return 0, nil
	}
	off, ok := o.Symbols[label]
	if !ok {
		return 0, fmt.Errorf("entry label '%s' is not defined", label)
	}
	return off, nil
}

// Line returns the source line of the instruction at offset, or 0.
func (o *Object) Line(offset int) int {
	return o.SourceMap[offset]
}

// ExecOptions tunes Exec.
type ExecOptions struct {
	Entry    string    // label to start at; empty starts at offset 0
	MaxSteps int       // 0 means unlimited
	Trace    io.Writer // per-instruction trace, optional
}

// Exec assembles source, runs it on a fresh CPU and returns the final rax.
func Exec(source string, opts ExecOptions) (int64, error) {
	obj, err := Assemble(source)
	if err != nil {
		return 0, fmt.Errorf("assembly error: %w", err)
	}

	entry, err := obj.Entry(opts.Entry)
	if err != nil {
		return 0, err
	}

	vm := cpu.NewCPU()
	vm.Trace = opts.Trace
	if err := vm.Load(obj.Code, entry); err != nil {
		return 0, err
	}
	if err := vm.RunUntilDone(opts.MaxSteps); err != nil {
		return 0, fmt.Errorf("runtime error: %w", err)
	}
	return vm.Rax(), nil
}
