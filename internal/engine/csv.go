package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// sniffRows is how many data rows ReadCSV samples to infer each column's
// Kind before committing to a Schema.
const sniffRows = 200

// ReadCSV reads a comma-separated file at path into a Frame, inferring a
// Schema from the header row and a sample of data rows. encoding/csv is
// the standard library's own RFC 4180 reader; nothing in the retrieved
// pack offers a CSV parser so there is no third-party alternative to
// prefer over it.
func ReadCSV(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}

	var raw [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		raw = append(raw, rec)
	}

	kinds := make([]Kind, len(header))
	for c := range header {
		kinds[c] = inferColumnKind(raw, c)
	}
	schema := Schema{Fields: make([]Field, len(header))}
	for i, name := range header {
		schema.Fields[i] = Field{Name: name, Type: Type{Kind: kinds[i]}}
	}

	cols := make([][]any, len(header))
	for c := range cols {
		cols[c] = make([]any, len(raw))
	}
	for r, rec := range raw {
		for c := range header {
			var cell string
			if c < len(rec) {
				cell = rec[c]
			}
			cols[c][r] = parseCell(cell, kinds[c])
		}
	}
	return NewFrame(schema, cols), nil
}

func inferColumnKind(raw [][]string, col int) Kind {
	limit := len(raw)
	if limit > sniffRows {
		limit = sniffRows
	}
	sawInt, sawFloat, sawBool, sawAny := false, false, false, false
	for r := 0; r < limit; r++ {
		if col >= len(raw[r]) {
			continue
		}
		cell := raw[r][col]
		if cell == "" {
			continue
		}
		sawAny = true
		switch {
		case isBoolCell(cell):
			sawBool = true
		case isIntCell(cell):
			sawInt = true
		case isFloatCell(cell):
			sawFloat = true
		default:
			return KindString
		}
	}
	switch {
	case !sawAny:
		return KindString
	case sawBool && !sawInt && !sawFloat:
		return KindBool
	case sawFloat:
		return KindFloat64
	case sawInt:
		return KindInt64
	default:
		return KindString
	}
}

func isBoolCell(s string) bool {
	return s == "true" || s == "false" || s == "TRUE" || s == "FALSE"
}

func isIntCell(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloatCell(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func parseCell(cell string, kind Kind) any {
	if cell == "" {
		return nil
	}
	switch kind {
	case KindInt64:
		n, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return nil
		}
		return n
	case KindFloat64:
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return nil
		}
		return f
	case KindBool:
		b, err := strconv.ParseBool(cell)
		if err != nil {
			return nil
		}
		return b
	default:
		return cell
	}
}

// WriteCSV writes a Frame to path as comma-separated values, rendering
// values with the same rules display.Render uses for terminal output.
func WriteCSV(path string, frame *Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(frame.Schema.Names()); err != nil {
		return err
	}
	for i := 0; i < frame.NRows; i++ {
		row := frame.Row(i)
		rec := make([]string, len(row))
		for c, v := range row {
			rec[c] = CellString(v)
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// CellString renders a single cell value as text, used by both CSV output
// and table display.
func CellString(v any) string {
	if v == nil {
		return ""
	}
	switch val := v.(type) {
	case time.Time:
		return val.Format(time.RFC3339)
	case time.Duration:
		return humanizeDuration(val)
	case []any:
		return fmt.Sprint(val)
	case map[string]any:
		return fmt.Sprint(val)
	default:
		return fmt.Sprint(val)
	}
}

// durationUnits are tried largest-first; humanizeDuration emits one term
// per unit with a nonzero count, space-separated (spec §8 scenario 6:
// 1h6m0s renders as "1h 6m", not Go's own "1h6m0s").
var durationUnits = []struct {
	suffix string
	size   time.Duration
}{
	{"h", time.Hour},
	{"m", time.Minute},
	{"s", time.Second},
}

func humanizeDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	var parts []string
	for _, u := range durationUnits {
		if d >= u.size {
			n := d / u.size
			parts = append(parts, fmt.Sprintf("%d%s", n, u.suffix))
			d -= n * u.size
		}
	}
	if d > 0 {
		parts = append(parts, fmt.Sprintf("%dms", d.Milliseconds()))
	}
	if len(parts) == 0 {
		return "0s"
	}
	return sign + strings.Join(parts, " ")
}
