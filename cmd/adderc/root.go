package main

import (
	"errors"

	"github.com/spf13/cobra"

	"adder/pkg/utils"
)

// sourceFlags is shared by every stage command.
type sourceFlags struct {
	expr string
}

// load returns the program text from -e or from the single file argument.
func (f *sourceFlags) load(args []string) (string, error) {
	switch {
	case f.expr != "" && len(args) > 0:
		return "", errors.New("use either -e or a file argument, not both")
	case f.expr != "":
		return f.expr, nil
	case len(args) == 1:
		return utils.ReadSource(args[0])
	default:
		return "", errors.New("no input: provide a file argument or -e <expr>")
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "adderc",
		Short: "Inspect the stages of the adder compiler",
		Long: `Adderc runs the adder compiler pipeline on a program and prints
the result of one stage: the token stream, the s-expression, the
expression tree, the generated assembly, the encoded machine code, or
the value the program leaves in rax when run on the emulator.

Every subcommand takes either a single source file or an inline
program given with -e.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newTokensCmd(),
		newSexpCmd(),
		newAstCmd(),
		newAsmCmd(),
		newHexCmd(),
		newRunCmd(),
	)
	return root
}

// stageCmd builds a subcommand that reads its input the common way.
func stageCmd(use, short string, run func(cmd *cobra.Command, src string) error) *cobra.Command {
	flags := &sourceFlags{}
	cmd := &cobra.Command{
		Use:   use + " [file]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := flags.load(args)
			if err != nil {
				return err
			}
			return run(cmd, src)
		},
	}
	cmd.Flags().StringVarP(&flags.expr, "expr", "e", "", "inline program text")
	return cmd
}
