package main

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

//go:embed example.dply
var exampleScript []byte

var exampleCmd = &cobra.Command{
	Use:   "example",
	Short: "Print a reference script demonstrating common pipeline steps",
	Long: "Print a complete dply script covering csv(), filter(), mutate(),\n" +
		"group_by()+summarize(), arrange(desc()), and show(). By default the\n" +
		"output is written to stdout; use --output to write to a file instead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			os.Stdout.Write(exampleScript)
			return nil
		}
		if err := os.WriteFile(output, exampleScript, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}
		fmt.Fprintf(os.Stderr, "written to %s\n", output)
		return nil
	},
}

func init() {
	exampleCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")
}
