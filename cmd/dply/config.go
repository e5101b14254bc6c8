package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"dply/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage dply's config directory",
	Long:  "Commands for initialising and inspecting dply's config.yaml.",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively create config.yaml with display defaults",
	Long: "Prompt for max_columns, max_column_width, max_table_width, and the REPL\n" +
		"history file path, and write them to config.yaml. The default config\n" +
		"directory follows:\n" +
		"  $DPLY_CONFIG_DIR > $XDG_CONFIG_HOME/dply > ~/.config/dply",
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		path, err := config.Path()
		if err != nil {
			return err
		}
		if !force {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
		}

		f := config.Default()
		maxColumns := strconv.Itoa(f.MaxColumns)
		maxColumnWidth := strconv.Itoa(f.MaxColumnWidth)
		maxTableWidth := strconv.Itoa(f.MaxTableWidth)
		historyFile := f.HistoryFile

		form := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("max_columns").Description("columns shown before truncation").Value(&maxColumns),
			huh.NewInput().Title("max_column_width").Description("characters before a cell is truncated").Value(&maxColumnWidth),
			huh.NewInput().Title("max_table_width").Description("total table width before truncation").Value(&maxTableWidth),
			huh.NewInput().Title("history_file").Description("leave blank for <config dir>/history").Value(&historyFile),
		))
		if err := form.Run(); err != nil {
			return fmt.Errorf("config init: %w", err)
		}

		if f.MaxColumns, err = strconv.Atoi(maxColumns); err != nil {
			return fmt.Errorf("max_columns: %w", err)
		}
		if f.MaxColumnWidth, err = strconv.Atoi(maxColumnWidth); err != nil {
			return fmt.Errorf("max_column_width: %w", err)
		}
		if f.MaxTableWidth, err = strconv.Atoi(maxTableWidth); err != nil {
			return fmt.Errorf("max_table_width: %w", err)
		}
		f.HistoryFile = historyFile

		if err := config.Save(f); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current config.yaml contents",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := config.Load()
		if err != nil {
			return err
		}
		historyFile := f.HistoryFile
		if historyFile == "" {
			if hp, err := config.HistoryPath(f); err == nil {
				historyFile = hp + " (default)"
			}
		}
		fmt.Printf("max_columns: %d\nmax_column_width: %d\nmax_table_width: %d\nhistory_file: %s\n",
			f.MaxColumns, f.MaxColumnWidth, f.MaxTableWidth, historyFile)
		return nil
	},
}

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing config.yaml")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
