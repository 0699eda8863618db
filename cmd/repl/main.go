// Command repl is an interactive loop that compiles each entered program,
// runs it on the emulator and prints the value left in rax.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"adder/pkg/asm"
	"adder/pkg/compiler"
	"adder/pkg/sexp"
)

const (
	historyFile = ".adder_history"
	promptMain  = "adder> "
	promptCont  = "...    "
)

var (
	banner   = "adder REPL\nCtrl+C cancels input, Ctrl+D exits. Type :help for commands."
	helpText = `REPL commands:
  :asm     Toggle printing the generated assembly
  :help    Show this text
  :quit    Exit the REPL
`
)

func red(s string) string  { return "\x1b[31m" + s + "\x1b[0m" }
func blue(s string) string { return "\x1b[94m" + s + "\x1b[0m" }

// session holds the REPL state that survives between entries.
type session struct {
	showAsm bool
}

// command handles a ":" line. It reports whether the REPL should exit.
func (s *session) command(line string, out io.Writer) bool {
	switch strings.TrimSpace(strings.ToLower(line)) {
	case ":quit", ":q":
		return true
	case ":asm":
		s.showAsm = !s.showAsm
		fmt.Fprintf(out, "assembly output %s\n", onOff(s.showAsm))
	case ":help":
		fmt.Fprint(out, helpText)
	default:
		fmt.Fprintln(out, "unknown command. Type :help for commands.")
	}
	return false
}

// eval compiles and runs one entry and writes the result to out.
func (s *session) eval(src string, out io.Writer) error {
	instrs, err := compiler.Compile(src)
	if err != nil {
		return err
	}

	program := compiler.Program(instrs)
	if s.showAsm {
		for _, line := range compiler.Lines(instrs) {
			fmt.Fprintln(out, blue("  "+line))
		}
	}

	result, err := asm.Exec(program, asm.ExecOptions{Entry: compiler.EntryLabel})
	if err != nil {
		return err
	}
	fmt.Fprintln(out, result)
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func main() {
	os.Exit(repl())
}

func repl() int {
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	s := &session{}
	for {
		code, ok := readByParseProbe(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			return 0
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if s.command(trimmed, os.Stdout) {
				return 0
			}
			continue
		}

		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		if err := s.eval(code, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, red(err.Error()))
		}
	}
}

// readByParseProbe keeps prompting while the buffered text is an unfinished
// s-expression.
func readByParseProbe(ln *liner.State, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if complete(src) {
			return src, true
		}
	}
}

// complete reports whether src needs no further lines. Commands and
// anything that fails for a reason other than running out of input count
// as complete so the error is shown immediately.
func complete(src string) bool {
	if strings.HasPrefix(strings.TrimSpace(src), ":") {
		return true
	}
	_, err := sexp.Read(src)
	return !sexp.IsIncomplete(err)
}
