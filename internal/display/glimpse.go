package display

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"dply/internal/engine"
)

// glimpseValueWidth is how many characters of a column's comma-joined
// values glimpse() shows before truncating with an ellipsis.
const glimpseValueWidth = 30

// Glimpse renders frame transposed: one line per column, showing its name,
// type, and a truncated comma-joined preview of its values, preceded by a
// "Rows: R, Columns: C" summary line and a human-readable size footer.
func Glimpse(frame *engine.Frame) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Rows: %s, Columns: %d\n", humanize.Comma(int64(frame.NRows)), len(frame.Schema.Fields))

	nameWidth := 0
	for _, f := range frame.Schema.Fields {
		if len(f.Name) > nameWidth {
			nameWidth = len(f.Name)
		}
	}

	var approxBytes uint64
	for i, f := range frame.Schema.Fields {
		col := frame.Columns[i]
		parts := make([]string, len(col))
		for r, v := range col {
			s := engine.CellString(v)
			parts[r] = s
			approxBytes += uint64(len(s))
		}
		preview := truncate(strings.Join(parts, ", "), glimpseValueWidth)
		fmt.Fprintf(&b, "$ %-*s <%s> %s\n", nameWidth, f.Name, f.Type, preview)
	}
	fmt.Fprintf(&b, "Size: ~%s\n", humanize.Bytes(approxBytes))
	return b.String()
}
