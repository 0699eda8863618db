package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"adder/pkg/asm"
	"adder/pkg/compiler"
	"adder/pkg/utils"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run is the whole command line program; it returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("adder", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inPath := fs.String("in", "", "input program file path")
	outPath := fs.String("out", "", "output assembly file path (default: input with .s extension)")
	runProgram := fs.Bool("run", false, "run the generated assembly on the emulator and print rax")
	showAsm := fs.Bool("show-asm", false, "print the generated assembly to stdout")
	maxSteps := fs.Int("max-steps", 0, "emulator step limit for -run (0 means unlimited)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *inPath == "" {
		if fs.NArg() != 1 {
			fmt.Fprintln(stderr, "nothing to do: provide -in <file> or a single input path")
			fs.Usage()
			return 2
		}
		*inPath = fs.Arg(0)
	}

	source, err := utils.ReadSource(*inPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	program, err := compiler.CompileProgram(source)
	if err != nil {
		fmt.Fprintf(stderr, "%s: compilation failed: %v\n", *inPath, err)
		return 1
	}

	output := *outPath
	if output == "" {
		output = utils.DefaultOutputPath(*inPath, ".s")
	}
	if err := utils.WriteOutput(output, []byte(program)); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	fmt.Fprintf(stdout, "compiled %s -> %s\n", *inPath, output)

	if *showAsm {
		fmt.Fprint(stdout, program)
	}

	if !*runProgram {
		return 0
	}

	result, err := asm.Exec(program, asm.ExecOptions{
		Entry:    compiler.EntryLabel,
		MaxSteps: *maxSteps,
	})
	if err != nil {
		fmt.Fprintf(stderr, "run failed for %q: %v\n", output, err)
		return 1
	}
	fmt.Fprintf(stdout, "rax = %d\n", result)
	return 0
}
