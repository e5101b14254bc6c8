package engine

import (
	"fmt"
	"sort"
)

// RenameField pairs an input column name with the name it should carry in
// the projected output. select()/rename()/relocate() all reduce to this.
type RenameField struct {
	From string
	To   string
}

// projectNode implements select()/rename()/relocate(): a pure column
// reorder/rename/subset with no row-level computation.
type projectNode struct {
	input  planNode
	fields []RenameField
}

// Project builds a projection over input selecting/renaming/reordering
// columns per fields.
func Project(input *LazyFrame, fields []RenameField) *LazyFrame {
	return newLazyFrame(&projectNode{input: input.root, fields: fields})
}

func (n *projectNode) Schema() Schema {
	in := n.input.Schema()
	out := Schema{}
	for _, f := range n.fields {
		inField, ok := in.FieldByName(f.From)
		if !ok {
			continue
		}
		out.Fields = append(out.Fields, Field{Name: f.To, Type: inField.Type})
	}
	return out
}

func (n *projectNode) Execute() (*Frame, error) {
	in, err := n.input.Execute()
	if err != nil {
		return nil, err
	}
	schema := n.Schema()
	cols := make([][]any, len(n.fields))
	for i, f := range n.fields {
		src, ok := in.Column(f.From)
		if !ok {
			return nil, fmt.Errorf("unknown column %q", f.From)
		}
		cols[i] = src
	}
	return NewFrame(schema, cols), nil
}

// filterNode implements filter(): keep rows where pred evaluates true.
type filterNode struct {
	input planNode
	pred  RowExpr
}

// Filter builds a row filter over input.
func Filter(input *LazyFrame, pred RowExpr) *LazyFrame {
	return newLazyFrame(&filterNode{input: input.root, pred: pred})
}

func (n *filterNode) Schema() Schema { return n.input.Schema() }

func (n *filterNode) Execute() (*Frame, error) {
	in, err := n.input.Execute()
	if err != nil {
		return nil, err
	}
	schema := in.Schema
	kept := make([]int, 0, in.NRows)
	for i := 0; i < in.NRows; i++ {
		row := in.Row(i)
		v, err := n.pred.Eval(i, row, schema)
		if err != nil {
			return nil, err
		}
		if b, _ := v.(bool); b {
			kept = append(kept, i)
		}
	}
	return selectRows(in, kept), nil
}

func selectRows(in *Frame, idxs []int) *Frame {
	cols := make([][]any, len(in.Columns))
	for c := range in.Columns {
		out := make([]any, len(idxs))
		for i, idx := range idxs {
			out[i] = in.Columns[c][idx]
		}
		cols[c] = out
	}
	return NewFrame(in.Schema, cols)
}

// MutateField is one mutate() assignment, in argument order: name = expr.
// Later fields may reference earlier ones by name, and a name equal to an
// existing column overwrites it in place.
type MutateField struct {
	Name string
	Expr RowExpr
}

// mutateNode implements mutate(): add/overwrite columns computed row by
// row, left to right.
type mutateNode struct {
	input  planNode
	fields []MutateField
}

// Mutate builds a mutate over input.
func Mutate(input *LazyFrame, fields []MutateField) *LazyFrame {
	return newLazyFrame(&mutateNode{input: input.root, fields: fields})
}

func (n *mutateNode) Schema() Schema {
	schema := n.input.Schema().Clone()
	for _, f := range n.fields {
		t := f.Expr.Type(schema)
		if i, ok := schema.IndexOf(f.Name); ok {
			schema.Fields[i].Type = t
		} else {
			schema.Fields = append(schema.Fields, Field{Name: f.Name, Type: t})
		}
	}
	return schema
}

func (n *mutateNode) Execute() (*Frame, error) {
	in, err := n.input.Execute()
	if err != nil {
		return nil, err
	}
	schema := in.Schema.Clone()
	cols := make([][]any, len(in.Columns))
	copy(cols, in.Columns)

	for _, f := range n.fields {
		expr := f.Expr
		if p, ok := expr.(Preparable); ok {
			resolved, err := p.Prepare(&Frame{Schema: schema, Columns: cols, NRows: in.NRows})
			if err != nil {
				return nil, err
			}
			expr = resolved
		}
		t := expr.Type(schema)
		values := make([]any, in.NRows)
		evalSchema := Schema{Fields: append(append([]Field{}, schema.Fields...))}
		evalFrame := &Frame{Schema: evalSchema, Columns: cols, NRows: in.NRows}
		for i := 0; i < in.NRows; i++ {
			v, err := expr.Eval(i, evalFrame.Row(i), evalSchema)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
		if idx, ok := schema.IndexOf(f.Name); ok {
			schema.Fields[idx].Type = t
			cols[idx] = values
		} else {
			schema.Fields = append(schema.Fields, Field{Name: f.Name, Type: t})
			cols = append(cols, values)
		}
	}
	return NewFrame(schema, cols), nil
}

// GroupAgg fuses group_by()+summarize(): one row per distinct key tuple,
// in order of first appearance, the way dplyr's grouped summarize behaves.
type AggField struct {
	Name string
	Agg  AggExpr
}

type groupAggNode struct {
	input   planNode
	keys    []string
	aggs    []AggField
}

// GroupAgg builds a grouped aggregation over input.
func GroupAgg(input *LazyFrame, keys []string, aggs []AggField) *LazyFrame {
	return newLazyFrame(&groupAggNode{input: input.root, keys: keys, aggs: aggs})
}

func (n *groupAggNode) Schema() Schema {
	in := n.input.Schema()
	out := Schema{}
	for _, k := range n.keys {
		f, _ := in.FieldByName(k)
		out.Fields = append(out.Fields, f)
	}
	for _, a := range n.aggs {
		out.Fields = append(out.Fields, Field{Name: a.Name, Type: a.Agg.Type(in)})
	}
	return out
}

func (n *groupAggNode) Execute() (*Frame, error) {
	in, err := n.input.Execute()
	if err != nil {
		return nil, err
	}
	if len(n.keys) == 0 {
		// No grouping keys: one group over the whole frame.
		all := make([]int, in.NRows)
		for i := range all {
			all[i] = i
		}
		return n.buildOutput(in, []groupEntry{{idxs: all}})
	}

	order := []string{}
	groups := map[string][]int{}
	keyVals := map[string][]any{}
	for i := 0; i < in.NRows; i++ {
		row := in.Row(i)
		key, vals := groupKey(in.Schema, row, n.keys)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
			keyVals[key] = vals
		}
		groups[key] = append(groups[key], i)
	}
	entries := make([]groupEntry, len(order))
	for i, k := range order {
		entries[i] = groupEntry{keyVals: keyVals[k], idxs: groups[k]}
	}
	return n.buildOutput(in, entries)
}

type groupEntry struct {
	keyVals []any
	idxs    []int
}

func (n *groupAggNode) buildOutput(in *Frame, entries []groupEntry) (*Frame, error) {
	schema := n.Schema()
	cols := make([][]any, len(schema.Fields))
	for i := range cols {
		cols[i] = make([]any, len(entries))
	}
	for row, e := range entries {
		for k := range n.keys {
			cols[k][row] = e.keyVals[k]
		}
		for a, agg := range n.aggs {
			v, err := agg.Agg.Eval(in, e.idxs)
			if err != nil {
				return nil, err
			}
			cols[len(n.keys)+a][row] = v
		}
	}
	return NewFrame(schema, cols), nil
}

func groupKey(schema Schema, row []any, keys []string) (string, []any) {
	vals := make([]any, len(keys))
	key := ""
	for i, k := range keys {
		idx, _ := schema.IndexOf(k)
		vals[i] = row[idx]
		key += fmt.Sprintf("%v\x1f", row[idx])
	}
	return key, vals
}

// SortKey is one arrange() key: a column plus direction. Nulls always sort
// last regardless of direction.
type SortKey struct {
	Col  string
	Desc bool
}

type sortNode struct {
	input planNode
	keys  []SortKey
}

// Sort builds an arrange() over input.
func Sort(input *LazyFrame, keys []SortKey) *LazyFrame {
	return newLazyFrame(&sortNode{input: input.root, keys: keys})
}

func (n *sortNode) Schema() Schema { return n.input.Schema() }

func (n *sortNode) Execute() (*Frame, error) {
	in, err := n.input.Execute()
	if err != nil {
		return nil, err
	}
	idxs := make([]int, in.NRows)
	for i := range idxs {
		idxs[i] = i
	}
	colIdx := make([]int, len(n.keys))
	for i, k := range n.keys {
		ci, ok := in.Schema.IndexOf(k.Col)
		if !ok {
			return nil, fmt.Errorf("unknown column %q", k.Col)
		}
		colIdx[i] = ci
	}
	sort.SliceStable(idxs, func(a, b int) bool {
		ra, rb := idxs[a], idxs[b]
		for i, ci := range colIdx {
			va, vb := in.Columns[ci][ra], in.Columns[ci][rb]
			if va == nil && vb == nil {
				continue
			}
			if va == nil {
				return false
			}
			if vb == nil {
				return true
			}
			cmp, err := compareValues(va, vb)
			if err != nil {
				continue
			}
			if cmp == 0 {
				continue
			}
			if n.keys[i].Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	return selectRows(in, idxs), nil
}

type limitNode struct {
	input planNode
	n     int
}

// Limit builds a head(n) over input.
func Limit(input *LazyFrame, n int) *LazyFrame {
	return newLazyFrame(&limitNode{input: input.root, n: n})
}

func (n *limitNode) Schema() Schema { return n.input.Schema() }

func (n *limitNode) Execute() (*Frame, error) {
	in, err := n.input.Execute()
	if err != nil {
		return nil, err
	}
	limit := n.n
	if limit > in.NRows {
		limit = in.NRows
	}
	idxs := make([]int, limit)
	for i := range idxs {
		idxs[i] = i
	}
	return selectRows(in, idxs), nil
}

// distinctNode implements distinct(): first-occurrence dedup, optionally
// keyed on a subset of columns.
type distinctNode struct {
	input planNode
	cols  []string
}

// Distinct builds a distinct() over input. An empty cols means "all
// columns".
func Distinct(input *LazyFrame, cols []string) *LazyFrame {
	return newLazyFrame(&distinctNode{input: input.root, cols: cols})
}

func (n *distinctNode) Schema() Schema { return n.input.Schema() }

func (n *distinctNode) Execute() (*Frame, error) {
	in, err := n.input.Execute()
	if err != nil {
		return nil, err
	}
	keyCols := n.cols
	if len(keyCols) == 0 {
		keyCols = in.Schema.Names()
	}
	seen := map[string]bool{}
	var kept []int
	for i := 0; i < in.NRows; i++ {
		row := in.Row(i)
		key, _ := groupKey(in.Schema, row, keyCols)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, i)
	}
	return selectRows(in, kept), nil
}

// JoinKind selects a join's row-matching semantics.
type JoinKind int

const (
	InnerJoin JoinKind = iota
	LeftJoin
	OuterJoin
	CrossJoin
	AntiJoin
)

// JoinOn pairs the left and right column compared for equality.
type JoinOn struct {
	Left  string
	Right string
}

type joinNode struct {
	left, right planNode
	kind        JoinKind
	on          []JoinOn
}

// Join builds a join of left and right over the given equality keys. An
// empty on with kind CrossJoin is the Cartesian product. Join itself does
// not reject an empty on for the other kinds: every left row then matches
// every right row.
func Join(left, right *LazyFrame, kind JoinKind, on []JoinOn) *LazyFrame {
	return newLazyFrame(&joinNode{left: left.root, right: right.root, kind: kind, on: on})
}

func (n *joinNode) Schema() Schema {
	l := n.left.Schema()
	if n.kind == AntiJoin {
		return l.Clone()
	}
	r := n.right.Schema()
	rightSkip := map[string]bool{}
	for _, on := range n.on {
		rightSkip[on.Right] = true
	}
	out := Schema{Fields: append([]Field{}, l.Fields...)}
	for _, f := range r.Fields {
		if rightSkip[f.Name] {
			continue
		}
		name := f.Name
		if l.Has(name) {
			name = name + ".y"
		}
		out.Fields = append(out.Fields, Field{Name: name, Type: f.Type})
	}
	return out
}

func (n *joinNode) Execute() (*Frame, error) {
	lf, err := n.left.Execute()
	if err != nil {
		return nil, err
	}
	rf, err := n.right.Execute()
	if err != nil {
		return nil, err
	}
	schema := n.Schema()

	if n.kind == AntiJoin {
		return n.executeAnti(lf, rf)
	}
	rightSkip := map[string]bool{}
	for _, on := range n.on {
		rightSkip[on.Right] = true
	}
	var outRows [][]any

	matchRight := func(lrow []any) []int {
		if len(n.on) == 0 {
			all := make([]int, rf.NRows)
			for i := range all {
				all[i] = i
			}
			return all
		}
		var matches []int
		for ri := 0; ri < rf.NRows; ri++ {
			rrow := rf.Row(ri)
			ok := true
			for _, on := range n.on {
				li, _ := lf.Schema.IndexOf(on.Left)
				ridx, _ := rf.Schema.IndexOf(on.Right)
				cmp, err := compareValues(lrow[li], rrow[ridx])
				if err != nil || cmp != 0 {
					ok = false
					break
				}
			}
			if ok {
				matches = append(matches, ri)
			}
		}
		return matches
	}

	projectRight := func(rrow []any) []any {
		out := make([]any, 0, len(rf.Schema.Fields))
		for i, f := range rf.Schema.Fields {
			if rightSkip[f.Name] {
				continue
			}
			out = append(out, rrow[i])
		}
		return out
	}
	rightNullRow := func() []any {
		out := make([]any, 0, len(rf.Schema.Fields))
		for _, f := range rf.Schema.Fields {
			if rightSkip[f.Name] {
				continue
			}
			_ = f
			out = append(out, nil)
		}
		return out
	}

	matchedRight := map[int]bool{}
	for li := 0; li < lf.NRows; li++ {
		lrow := lf.Row(li)
		matches := matchRight(lrow)
		if len(matches) == 0 {
			if n.kind == LeftJoin || n.kind == OuterJoin {
				outRows = append(outRows, append(append([]any{}, lrow...), rightNullRow()...))
			}
			continue
		}
		for _, ri := range matches {
			matchedRight[ri] = true
			rrow := rf.Row(ri)
			outRows = append(outRows, append(append([]any{}, lrow...), projectRight(rrow)...))
		}
	}
	if n.kind == OuterJoin {
		for ri := 0; ri < rf.NRows; ri++ {
			if matchedRight[ri] {
				continue
			}
			rrow := rf.Row(ri)
			leftNull := make([]any, len(lf.Schema.Fields))
			outRows = append(outRows, append(leftNull, projectRight(rrow)...))
		}
	}

	cols := make([][]any, len(schema.Fields))
	for c := range cols {
		cols[c] = make([]any, len(outRows))
	}
	for r, row := range outRows {
		for c, v := range row {
			cols[c][r] = v
		}
	}
	return NewFrame(schema, cols), nil
}

// executeAnti keeps left rows with no matching right row, dropping right's
// columns entirely from the output.
func (n *joinNode) executeAnti(lf, rf *Frame) (*Frame, error) {
	var kept []int
	for li := 0; li < lf.NRows; li++ {
		lrow := lf.Row(li)
		matched := false
		if len(n.on) == 0 {
			matched = rf.NRows > 0
		} else {
			for ri := 0; ri < rf.NRows && !matched; ri++ {
				rrow := rf.Row(ri)
				ok := true
				for _, on := range n.on {
					li2, _ := lf.Schema.IndexOf(on.Left)
					ri2, _ := rf.Schema.IndexOf(on.Right)
					cmp, err := compareValues(lrow[li2], rrow[ri2])
					if err != nil || cmp != 0 {
						ok = false
						break
					}
				}
				if ok {
					matched = true
				}
			}
		}
		if !matched {
			kept = append(kept, li)
		}
	}
	return selectRows(lf, kept), nil
}

// unnestNode implements unnest(): explodes a list column into one row per
// element, or spreads a struct column's fields into top-level columns.
type unnestNode struct {
	input planNode
	col   string
}

// Unnest builds an unnest() over input.
func Unnest(input *LazyFrame, col string) *LazyFrame {
	return newLazyFrame(&unnestNode{input: input.root, col: col})
}

func (n *unnestNode) Schema() Schema {
	in := n.input.Schema()
	f, ok := in.FieldByName(n.col)
	if !ok {
		return in
	}
	out := Schema{}
	for _, field := range in.Fields {
		if field.Name != n.col {
			out.Fields = append(out.Fields, field)
			continue
		}
		switch f.Type.Kind {
		case KindList:
			elemType := Type{Kind: KindString}
			if f.Type.Elem != nil {
				elemType = *f.Type.Elem
			}
			out.Fields = append(out.Fields, Field{Name: n.col, Type: elemType})
		case KindStruct:
			out.Fields = append(out.Fields, f.Type.Fields...)
		default:
			out.Fields = append(out.Fields, field)
		}
	}
	return out
}

func (n *unnestNode) Execute() (*Frame, error) {
	in, err := n.input.Execute()
	if err != nil {
		return nil, err
	}
	ci, ok := in.Schema.IndexOf(n.col)
	if !ok {
		return nil, fmt.Errorf("unknown column %q", n.col)
	}
	field := in.Schema.Fields[ci]
	schema := n.Schema()
	var rows [][]any

	for i := 0; i < in.NRows; i++ {
		row := in.Row(i)
		switch field.Type.Kind {
		case KindList:
			list, _ := row[ci].([]any)
			if len(list) == 0 {
				out := replaceAt(row, ci, nil)
				rows = append(rows, out)
				continue
			}
			for _, v := range list {
				rows = append(rows, replaceAt(row, ci, v))
			}
		case KindStruct:
			m, _ := row[ci].(map[string]any)
			out := make([]any, 0, len(schema.Fields))
			out = append(out, row[:ci]...)
			for _, f := range field.Type.Fields {
				out = append(out, m[f.Name])
			}
			out = append(out, row[ci+1:]...)
			rows = append(rows, out)
		default:
			rows = append(rows, row)
		}
	}

	cols := make([][]any, len(schema.Fields))
	for c := range cols {
		cols[c] = make([]any, len(rows))
	}
	for r, row := range rows {
		for c := range cols {
			cols[c][r] = row[c]
		}
	}
	return NewFrame(schema, cols), nil
}

func replaceAt(row []any, i int, v any) []any {
	out := make([]any, len(row))
	copy(out, row)
	out[i] = v
	return out
}
