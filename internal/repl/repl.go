// Package repl implements dply's interactive shell: a chzyer/readline loop
// with sahilm/fuzzy-ranked tab completion over step functions, pipeline
// variables, and the current dataframe's columns, plus a go-fuzzyfinder
// column browser bound to the .pick meta-command.
package repl

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/ktr0731/go-fuzzyfinder"

	"dply/internal/config"
	"dply/internal/eval"
	"dply/internal/parser"
	"dply/internal/sig"
)

const helpText = `dply REPL

  Enter a script (pipelines separated by ; or newlines, steps by |) and
  press Enter to evaluate it. Pipeline variables and the current
  dataframe's schema persist across lines.

  .help     show this message
  .vars     list bound pipeline variables
  .pick     fuzzy-browse the current dataframe's columns
  .quit     exit

  Tab completion ranks function names, variables, and columns by fuzzy
  match; prefix the word with . to restrict completion to columns and
  variables only.
`

// Run starts the interactive loop against a fresh evaluation context,
// reading from stdin and writing to stdout until EOF or .quit.
func Run() error {
	cfgFile, err := config.Load()
	if err != nil {
		return err
	}
	ctx := eval.NewContext(os.Stdout)
	ctx.Display.MaxColumns = cfgFile.MaxColumns
	ctx.Display.MaxColumnWidth = cfgFile.MaxColumnWidth
	ctx.Display.MaxTableWidth = cfgFile.MaxTableWidth

	historyPath, err := config.HistoryPath(cfgFile)
	if err != nil {
		return err
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "dply> ",
		HistoryFile:     historyPath,
		AutoComplete:    &completer{ctx: ctx},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("starting REPL: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(rl.Stderr(), "dply REPL — .help for commands, .quit to exit")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if handled, err := metaCommand(line, ctx, rl); handled {
			if err != nil {
				fmt.Fprintln(rl.Stderr(), "dply:", err)
			}
			if line == ".quit" {
				return nil
			}
			continue
		}

		if err := evalLine(line, ctx); err != nil {
			fmt.Fprintln(rl.Stderr(), "dply:", err)
		}
	}
}

func evalLine(line string, ctx *eval.Context) error {
	script, err := parser.Parse(line)
	if err != nil {
		return err
	}
	if err := sig.Check(script); err != nil {
		return err
	}
	return eval.EvalScript(script, ctx)
}

func metaCommand(line string, ctx *eval.Context, rl *readline.Instance) (bool, error) {
	switch line {
	case ".help":
		fmt.Fprint(rl.Stderr(), helpText)
		return true, nil
	case ".quit":
		return true, nil
	case ".vars":
		for name := range ctx.Vars {
			fmt.Fprintln(rl.Stderr(), name)
		}
		return true, nil
	case ".pick":
		return true, pickColumn(ctx, rl)
	default:
		return false, nil
	}
}

// pickColumn opens a fuzzyfinder prompt over the current dataframe's
// columns and prints the chosen column's name and type.
func pickColumn(ctx *eval.Context, rl *readline.Instance) error {
	fields := ctx.LastSchema.Fields
	if len(fields) == 0 {
		fmt.Fprintln(rl.Stderr(), "no dataframe in scope yet")
		return nil
	}
	idx, err := fuzzyfinder.Find(
		fields,
		func(i int) string { return fields[i].Name },
		fuzzyfinder.WithPromptString("column> "),
	)
	if err != nil {
		if err == fuzzyfinder.ErrAbort {
			return nil
		}
		return err
	}
	fmt.Fprintf(rl.Stderr(), "%s: %s\n", fields[idx].Name, fields[idx].Type)
	return nil
}
