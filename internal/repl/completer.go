package repl

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"dply/internal/eval"
)

// functionNames lists every step function completion should suggest,
// rendered with an opening paren the way a call is typed.
var functionNames = []string{
	"csv(", "json(", "parquet(", "config(",
	"select(", "rename(", "relocate(", "filter(", "mutate(",
	"group_by(", "summarize(", "arrange(", "desc(", "count(", "distinct(",
	"unnest(", "inner_join(", "left_join(", "outer_join(", "cross_join(", "anti_join(",
	"head(", "show(", "glimpse(",
	"starts_with(", "ends_with(", "contains(", "is_null(", "len(", "field(", "row(",
	"dt(", "ymd_hms(", "dnanos(", "dmicros(", "dmillis(", "dsecs(",
	"nanos(", "micros(", "millis(", "secs(",
	"mean(", "max(", "min(", "median(", "n(", "sum(", "sd(", "var(", "quantile(", "first(", "last(", "list(",
}

// wordSource adapts a []string to sahilm/fuzzy.Source.
type wordSource []string

func (s wordSource) String(i int) string { return s[i] }
func (s wordSource) Len() int            { return len(s) }

// candidates returns the completion vocabulary for ctx's current state.
// columnsOnly restricts the vocabulary to column and variable names, the
// behavior triggered by a leading `.` in the word being completed — the
// REPL's shorthand for "complete against the current dataframe", since
// function names are rarely useful mid-reference to a column.
func candidates(ctx *eval.Context, columnsOnly bool) []string {
	var out []string
	if !columnsOnly {
		out = append(out, functionNames...)
	}
	for _, f := range ctx.LastSchema.Fields {
		out = append(out, f.Name)
	}
	for name := range ctx.Vars {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// completer implements readline.AutoCompleter, ranking the vocabulary
// against the word under the cursor with sahilm/fuzzy.
type completer struct {
	ctx *eval.Context
}

func (c *completer) Do(line []rune, pos int) (newLine [][]rune, length int) {
	start := pos
	for start > 0 && !isWordBreak(line[start-1]) {
		start--
	}
	word := string(line[start:pos])
	columnsOnly := strings.HasPrefix(word, ".")
	pattern := strings.TrimPrefix(word, ".")

	pool := candidates(c.ctx, columnsOnly)
	if pattern == "" {
		out := make([][]rune, len(pool))
		for i, w := range pool {
			out[i] = []rune(w)
		}
		return out, 0
	}

	matches := fuzzy.Find(pattern, wordSource(pool))
	out := make([][]rune, len(matches))
	for i, m := range matches {
		out[i] = []rune(m.Str[len(pattern):])
	}
	return out, len(pattern)
}

func isWordBreak(r rune) bool {
	switch r {
	case ' ', '\t', '(', ')', '|', ',', '=', ';', '\n':
		return true
	default:
		return false
	}
}
