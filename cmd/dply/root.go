package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"dply/internal/ast"
	"dply/internal/config"
	"dply/internal/eval"
	"dply/internal/parser"
	"dply/internal/repl"
	"dply/internal/sig"
)

const appName = "dply"

var flagCommand string

var rootCmd = &cobra.Command{
	Use:   appName + " [scriptfile]",
	Short: "Evaluate dplyr-style pipeline scripts against CSV/NdJSON/Parquet data",
	Long: "dply evaluates a small pipe-composed expression language against tabular\n" +
		"data. Run it three ways:\n\n" +
		"  dply script.dply        read a script from a file\n" +
		"  dply -c 'csv(\"a.csv\") | head()'   evaluate a script given inline\n" +
		"  dply                    start an interactive REPL (stdin is a terminal)\n" +
		"  ... | dply               read a script piped in on stdin",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case flagCommand != "":
			return runSource(flagCommand)
		case len(args) == 1:
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			return runSource(string(data))
		case isatty.IsTerminal(os.Stdin.Fd()):
			return repl.Run()
		default:
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			return runSource(string(data))
		}
	},
}

func init() {
	rootCmd.Flags().StringVarP(&flagCommand, "command", "c", "", "evaluate SCRIPT given inline instead of reading a file")
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(exampleCmd)
}

// runSource parses, checks, and evaluates one script against a fresh
// evaluation context, printing its output to stdout.
func runSource(src string) error {
	script, err := parser.Parse(src)
	if err != nil {
		return reportErr(err)
	}
	if err := sig.Check(script); err != nil {
		return reportErr(err)
	}
	return reportErr(runScript(script, os.Stdout))
}

func runScript(script *ast.Script, out io.Writer) error {
	cfgFile, err := config.Load()
	if err != nil {
		return err
	}
	ctx := eval.NewContext(out)
	ctx.Display.MaxColumns = cfgFile.MaxColumns
	ctx.Display.MaxColumnWidth = cfgFile.MaxColumnWidth
	ctx.Display.MaxTableWidth = cfgFile.MaxTableWidth
	return eval.EvalScript(script, ctx)
}

// reportErr passes errors through unchanged; *dplyerr.Error already renders
// its kind and source span (when it has one) in Error().
func reportErr(err error) error {
	return err
}
