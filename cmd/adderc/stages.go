package main

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"adder/pkg/asm"
	"adder/pkg/compiler"
	"adder/pkg/sexp"
	"adder/pkg/utils"
)

func newTokensCmd() *cobra.Command {
	cmd := stageCmd("tokens", "Print the token stream", func(cmd *cobra.Command, src string) error {
		tokens, err := sexp.Lex(src)
		if err != nil {
			return fmt.Errorf("lex error: %w", err)
		}
		out := cmd.OutOrStdout()
		for _, tok := range tokens {
			fmt.Fprintln(out, tok)
		}
		return nil
	})
	return cmd
}

func newSexpCmd() *cobra.Command {
	cmd := stageCmd("sexp", "Print the s-expression the reader produces", func(cmd *cobra.Command, src string) error {
		v, err := sexp.Read(src)
		if err != nil {
			return fmt.Errorf("read error: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), v)
		return nil
	})
	return cmd
}

func newAstCmd() *cobra.Command {
	cmd := stageCmd("ast", "Print the expression tree", func(cmd *cobra.Command, src string) error {
		e, err := compiler.Parse(src)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), e)
		return nil
	})
	return cmd
}

func newAsmCmd() *cobra.Command {
	var (
		bare bool
		out  string
	)
	cmd := stageCmd("asm", "Print the generated assembly program", func(cmd *cobra.Command, src string) error {
		instrs, err := compiler.Compile(src)
		if err != nil {
			return err
		}

		text := compiler.Program(instrs)
		if bare {
			text = compiler.Assembly(instrs) + "\n"
		}
		if out != "" {
			return utils.WriteOutput(out, []byte(text))
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	})
	cmd.Flags().BoolVar(&bare, "bare", false, "print only the instruction sequence, without the program wrapper")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the assembly to a file instead of stdout")
	return cmd
}

func newHexCmd() *cobra.Command {
	cmd := stageCmd("hex", "Print the encoded machine code", func(cmd *cobra.Command, src string) error {
		program, err := compiler.CompileProgram(src)
		if err != nil {
			return err
		}
		obj, err := asm.Assemble(program)
		if err != nil {
			return fmt.Errorf("assembly error: %w", err)
		}

		offsets := make([]int, 0, len(obj.SourceMap))
		for off := range obj.SourceMap {
			offsets = append(offsets, off)
		}
		slices.Sort(offsets)

		out := cmd.OutOrStdout()
		for i, off := range offsets {
			end := len(obj.Code)
			if i+1 < len(offsets) {
				end = offsets[i+1]
			}
			fmt.Fprintf(out, "%04x  %-30x  ; line %d\n", off, obj.Code[off:end], obj.Line(off))
		}
		return nil
	})
	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		trace    bool
		maxSteps int
	)
	cmd := stageCmd("run", "Compile the program and run it on the emulator", func(cmd *cobra.Command, src string) error {
		program, err := compiler.CompileProgram(src)
		if err != nil {
			return err
		}

		opts := asm.ExecOptions{Entry: compiler.EntryLabel, MaxSteps: maxSteps}
		if trace {
			opts.Trace = os.Stderr
		}
		result, err := asm.Exec(program, opts)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), result)
		return nil
	})
	cmd.Flags().BoolVar(&trace, "trace", false, "trace each executed instruction to stderr")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "emulator step limit (0 means unlimited)")
	return cmd
}
