package display

import (
	"strconv"
	"strings"

	"github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	"dply/internal/engine"
)

var (
	flavor      = catppuccin.Mocha
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(flavor.Mauve().Hex))
	typeStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color(flavor.Overlay1().Hex))
	countStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(flavor.Subtext0().Hex))
)

// Render formats frame as a box-drawn table, a type row under the header,
// honoring cfg's column/width limits.
func Render(frame *engine.Frame, cfg *Config) string {
	names := frame.Schema.Names()
	shown := names
	truncatedCols := false
	if cfg.MaxColumns > 0 && len(shown) > cfg.MaxColumns {
		shown = shown[:cfg.MaxColumns]
		truncatedCols = true
	}

	var b strings.Builder
	table := tablewriter.NewWriter(&b)
	header := make([]string, len(shown))
	for i, n := range shown {
		header[i] = headerStyle.Render(n)
	}
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	if cfg.MaxTableWidth > 0 {
		table.SetColWidth(cfg.MaxTableWidth / max(len(shown), 1))
	}

	typeRow := make([]string, len(shown))
	for i, n := range shown {
		f, _ := frame.Schema.FieldByName(n)
		typeRow[i] = typeStyle.Render(f.Type.String())
	}
	table.Append(typeRow)

	for r := 0; r < frame.NRows; r++ {
		row := frame.Row(r)
		rec := make([]string, len(shown))
		for c, n := range shown {
			idx, _ := frame.Schema.IndexOf(n)
			rec[c] = truncate(engine.CellString(row[idx]), cfg.MaxColumnWidth)
		}
		table.Append(rec)
	}
	table.Render()

	out := b.String()
	if truncatedCols {
		out += countStyle.Render("... and "+strconv.Itoa(len(names)-cfg.MaxColumns)+" more columns") + "\n"
	}
	return out
}

func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	if limit <= 1 {
		return s[:limit]
	}
	return s[:limit-1] + "…"
}
