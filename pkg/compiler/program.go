package compiler

import (
	"fmt"
	"strings"
)

// EntryLabel is the global symbol the runtime calls into.
const EntryLabel = "our_code_starts_here"

// Program wraps instrs in the fixed assembly file template:
//
//	section .text
//	global our_code_starts_here
//	our_code_starts_here:
//	  <instrs>
//	  ret
func Program(instrs []Instr) string {
	var sb strings.Builder
	sb.WriteString("section .text\n")
	fmt.Fprintf(&sb, "global %s\n", EntryLabel)
	fmt.Fprintf(&sb, "%s:\n", EntryLabel)
	for _, in := range instrs {
		sb.WriteString("  " + in.String() + "\n")
	}
	sb.WriteString("  ret\n")
	return sb.String()
}
