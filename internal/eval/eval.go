package eval

import (
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"dply/internal/ast"
	"dply/internal/compile"
	"dply/internal/display"
	"dply/internal/dplyerr"
	"dply/internal/engine"
	"dply/internal/selector"
)

// EvalScript runs every pipeline in script against ctx, in source order.
func EvalScript(script *ast.Script, ctx *Context) error {
	for _, pl := range script.Pipelines {
		if err := evalPipeline(pl, ctx); err != nil {
			return err
		}
	}
	return nil
}

// EvalPipeline runs a single pipeline, exported for REPL use where each
// submitted line is one pipeline evaluated against the persistent context.
func EvalPipeline(pl *ast.Pipeline, ctx *Context) error {
	return evalPipeline(pl, ctx)
}

func evalPipeline(pl *ast.Pipeline, ctx *Context) error {
	var cur *engine.LazyFrame
	var groupKeys []string

	for i, step := range pl.Steps {
		isFirst := i == 0

		switch s := step.(type) {
		case *ast.Ident:
			if isFirst {
				lf, ok := ctx.Vars[s.Name]
				if !ok {
					return dplyerr.Variable(s.SpanV, "undefined variable %q", s.Name)
				}
				cur = lf
				continue
			}
			ctx.Vars[s.Name] = cur
			continue
		case *ast.Call:
			next, terminal, err := evalCall(s, cur, isFirst, ctx, &groupKeys)
			if err != nil {
				return err
			}
			cur = next
			if terminal {
				if cur != nil {
					ctx.LastSchema = cur.Schema
				}
				return nil
			}
		default:
			return dplyerr.SignatureNoSpan("invalid pipeline step")
		}
	}
	if cur != nil {
		ctx.LastSchema = cur.Schema
	}
	return nil
}

func evalCall(c *ast.Call, cur *engine.LazyFrame, isFirst bool, ctx *Context, groupKeys *[]string) (*engine.LazyFrame, bool, error) {
	switch c.Name {
	case "csv", "json", "parquet":
		return evalFileFunc(c, cur, isFirst)
	case "config":
		return evalConfig(c, cur, ctx)
	case "select":
		return evalSelect(c, cur)
	case "rename":
		return evalRename(c, cur)
	case "relocate":
		return evalRelocate(c, cur)
	case "filter":
		return evalFilter(c, cur)
	case "mutate":
		return evalMutate(c, cur)
	case "group_by":
		return evalGroupBy(c, cur, groupKeys)
	case "summarize":
		return evalSummarize(c, cur, groupKeys)
	case "arrange":
		return evalArrange(c, cur)
	case "count":
		return evalCount(c, cur)
	case "distinct":
		return evalDistinct(c, cur)
	case "unnest":
		return evalUnnest(c, cur)
	case "inner_join":
		return evalJoin(c, cur, ctx, engine.InnerJoin)
	case "left_join":
		return evalJoin(c, cur, ctx, engine.LeftJoin)
	case "outer_join":
		return evalJoin(c, cur, ctx, engine.OuterJoin)
	case "cross_join":
		return evalJoin(c, cur, ctx, engine.CrossJoin)
	case "anti_join":
		return evalJoin(c, cur, ctx, engine.AntiJoin)
	case "head":
		return evalHead(c, cur, ctx)
	case "show":
		return evalShow(cur, ctx)
	case "glimpse":
		return evalGlimpse(cur, ctx)
	default:
		return nil, false, dplyerr.Signature(c.SpanV, "unknown function %q", c.Name)
	}
}

// positional splits c's arguments into (positional, named) by the callee's
// own disambiguation rule: mutate/summarize/select/rename never treat
// `x = e` as a named option, every other function does.
func positional(c *ast.Call) ([]ast.Expr, map[string]ast.Expr) {
	named := map[string]ast.Expr{}
	var pos []ast.Expr
	columnAssigning := c.Name == "mutate" || c.Name == "summarize" || c.Name == "select" || c.Name == "rename"
	for _, arg := range c.Args {
		if a, ok := arg.(*ast.Assign); ok && !columnAssigning {
			named[a.Target] = a.Value
			continue
		}
		pos = append(pos, arg)
	}
	return pos, named
}

func evalFileFunc(c *ast.Call, cur *engine.LazyFrame, isFirst bool) (*engine.LazyFrame, bool, error) {
	pos, named := positional(c)
	if len(pos) < 1 {
		return nil, false, dplyerr.Signature(c.SpanV, "%s() requires a path argument", c.Name)
	}
	path, err := literalString(pos[0])
	if err != nil {
		return nil, false, err
	}

	if isFirst {
		var frame *engine.Frame
		var rerr error
		switch c.Name {
		case "csv":
			frame, rerr = engine.ReadCSV(path)
		case "json":
			frame, rerr = engine.ReadNDJSON(path)
		case "parquet":
			frame, rerr = engine.ReadParquet(path)
		}
		if rerr != nil {
			return nil, false, dplyerr.RuntimeWrap(rerr, "reading %s", path)
		}
		return engine.FromFrame(frame), false, nil
	}

	overwrite := false
	if v, ok := named["overwrite"]; ok {
		b, err := literalBool(v)
		if err != nil {
			return nil, false, err
		}
		overwrite = b
	}
	if !overwrite && fileExists(path) {
		return nil, false, dplyerr.Runtime("refusing to overwrite %s without overwrite=true", path)
	}
	frame, err := cur.Execute()
	if err != nil {
		return nil, false, dplyerr.RuntimeWrap(err, "materializing pipeline for %s", c.Name)
	}
	var werr error
	switch c.Name {
	case "csv":
		werr = engine.WriteCSV(path, frame)
	case "json":
		werr = engine.WriteNDJSON(path, frame)
	case "parquet":
		werr = engine.WriteParquet(path, frame)
	}
	if werr != nil {
		return nil, false, dplyerr.RuntimeWrap(werr, "writing %s", path)
	}
	return engine.FromFrame(frame), false, nil
}

func evalConfig(c *ast.Call, cur *engine.LazyFrame, ctx *Context) (*engine.LazyFrame, bool, error) {
	_, named := positional(c)
	opts := map[string]int{}
	for k, v := range named {
		n, err := literalInt(v)
		if err != nil {
			return nil, false, err
		}
		opts[k] = n
	}
	ctx.Display.ApplyNamed(opts)
	return cur, false, nil
}

func evalSelect(c *ast.Call, cur *engine.LazyFrame) (*engine.LazyFrame, bool, error) {
	fields, err := selector.Resolve(c.Args, cur.Schema)
	if err != nil {
		return nil, false, err
	}
	return engine.Project(cur, fields), false, nil
}

func evalRename(c *ast.Call, cur *engine.LazyFrame) (*engine.LazyFrame, bool, error) {
	fields, err := selector.Rename(c.Args, cur.Schema)
	if err != nil {
		return nil, false, err
	}
	return engine.Project(cur, fields), false, nil
}

func evalRelocate(c *ast.Call, cur *engine.LazyFrame) (*engine.LazyFrame, bool, error) {
	fields, err := selector.Relocate(c.Args, cur.Schema)
	if err != nil {
		return nil, false, err
	}
	return engine.Project(cur, fields), false, nil
}

func evalFilter(c *ast.Call, cur *engine.LazyFrame) (*engine.LazyFrame, bool, error) {
	pos, _ := positional(c)
	var pred engine.RowExpr
	for _, arg := range pos {
		e, err := compile.Row(arg, cur.Schema)
		if err != nil {
			return nil, false, err
		}
		if pred == nil {
			pred = e
		} else {
			pred = engine.LogicalExpr{Op: engine.LogicalAnd, L: pred, R: e}
		}
	}
	return engine.Filter(cur, pred), false, nil
}

func evalMutate(c *ast.Call, cur *engine.LazyFrame) (*engine.LazyFrame, bool, error) {
	pos, _ := positional(c)
	var fields []engine.MutateField
	schema := cur.Schema.Clone()
	for _, arg := range pos {
		a, ok := arg.(*ast.Assign)
		if !ok {
			return nil, false, dplyerr.Signature(arg.Span(), "mutate() arguments must be `name = expr`")
		}
		e, err := compile.Row(a.Value, schema)
		if err != nil {
			return nil, false, err
		}
		fields = append(fields, engine.MutateField{Name: a.Target, Expr: e})
		if idx, ok := schema.IndexOf(a.Target); ok {
			schema.Fields[idx].Type = e.Type(schema)
		} else {
			schema.Fields = append(schema.Fields, engine.Field{Name: a.Target, Type: e.Type(schema)})
		}
	}
	return engine.Mutate(cur, fields), false, nil
}

func evalGroupBy(c *ast.Call, cur *engine.LazyFrame, groupKeys *[]string) (*engine.LazyFrame, bool, error) {
	pos, _ := positional(c)
	var keys []string
	for _, arg := range pos {
		id, ok := arg.(*ast.Ident)
		if !ok {
			return nil, false, dplyerr.Signature(arg.Span(), "group_by() arguments must be column names")
		}
		if !cur.Schema.Has(id.Name) {
			return nil, false, dplyerr.Schema(id.SpanV, "unknown column %q", id.Name)
		}
		keys = append(keys, id.Name)
	}
	*groupKeys = keys
	return cur, false, nil
}

func evalSummarize(c *ast.Call, cur *engine.LazyFrame, groupKeys *[]string) (*engine.LazyFrame, bool, error) {
	pos, _ := positional(c)
	keys := *groupKeys
	*groupKeys = nil

	keySet := map[string]bool{}
	for _, k := range keys {
		keySet[k] = true
	}

	var aggs []engine.AggField
	for _, arg := range pos {
		a, ok := arg.(*ast.Assign)
		if !ok {
			return nil, false, dplyerr.Signature(arg.Span(), "summarize() arguments must be `name = agg(col)`")
		}
		if keySet[a.Target] {
			return nil, false, dplyerr.Schema(a.SpanV, "summarize() output %q collides with a group_by() key", a.Target)
		}
		agg, err := compile.Agg(a.Value, cur.Schema)
		if err != nil {
			return nil, false, err
		}
		aggs = append(aggs, engine.AggField{Name: a.Target, Agg: agg})
	}
	return engine.GroupAgg(cur, keys, aggs), false, nil
}

func evalArrange(c *ast.Call, cur *engine.LazyFrame) (*engine.LazyFrame, bool, error) {
	pos, _ := positional(c)
	var keys []engine.SortKey
	for _, arg := range pos {
		switch a := arg.(type) {
		case *ast.Ident:
			if !cur.Schema.Has(a.Name) {
				return nil, false, dplyerr.Schema(a.SpanV, "unknown column %q", a.Name)
			}
			keys = append(keys, engine.SortKey{Col: a.Name})
		case *ast.Call:
			if a.Name != "desc" || len(a.Args) != 1 {
				return nil, false, dplyerr.Signature(a.SpanV, "arrange() only accepts a column name or desc(column)")
			}
			id, ok := a.Args[0].(*ast.Ident)
			if !ok {
				return nil, false, dplyerr.Signature(a.Args[0].Span(), "desc() requires a column name")
			}
			if !cur.Schema.Has(id.Name) {
				return nil, false, dplyerr.Schema(id.SpanV, "unknown column %q", id.Name)
			}
			keys = append(keys, engine.SortKey{Col: id.Name, Desc: true})
		default:
			return nil, false, dplyerr.Signature(arg.Span(), "arrange() only accepts a column name or desc(column)")
		}
	}
	return engine.Sort(cur, keys), false, nil
}

func evalCount(c *ast.Call, cur *engine.LazyFrame) (*engine.LazyFrame, bool, error) {
	pos, named := positional(c)
	var keys []string
	for _, arg := range pos {
		id, ok := arg.(*ast.Ident)
		if !ok {
			return nil, false, dplyerr.Signature(arg.Span(), "count() arguments must be column names")
		}
		if !cur.Schema.Has(id.Name) {
			return nil, false, dplyerr.Schema(id.SpanV, "unknown column %q", id.Name)
		}
		keys = append(keys, id.Name)
	}
	result := engine.GroupAgg(cur, keys, []engine.AggField{{Name: "n", Agg: engine.AggCall{Fn: "n"}}})

	if v, ok := named["sort"]; ok {
		doSort, err := literalBool(v)
		if err != nil {
			return nil, false, err
		}
		if doSort {
			result = engine.Sort(result, []engine.SortKey{{Col: "n", Desc: true}})
		}
	}
	return result, false, nil
}

func evalDistinct(c *ast.Call, cur *engine.LazyFrame) (*engine.LazyFrame, bool, error) {
	pos, _ := positional(c)
	var cols []string
	for _, arg := range pos {
		id, ok := arg.(*ast.Ident)
		if !ok {
			return nil, false, dplyerr.Signature(arg.Span(), "distinct() arguments must be column names")
		}
		if !cur.Schema.Has(id.Name) {
			return nil, false, dplyerr.Schema(id.SpanV, "unknown column %q", id.Name)
		}
		cols = append(cols, id.Name)
	}
	return engine.Distinct(cur, cols), false, nil
}

func evalUnnest(c *ast.Call, cur *engine.LazyFrame) (*engine.LazyFrame, bool, error) {
	pos, _ := positional(c)
	result := cur
	for _, arg := range pos {
		id, ok := arg.(*ast.Ident)
		if !ok {
			return nil, false, dplyerr.Signature(arg.Span(), "unnest() arguments must be column names")
		}
		if !result.Schema.Has(id.Name) {
			return nil, false, dplyerr.Schema(id.SpanV, "unknown column %q", id.Name)
		}
		result = engine.Unnest(result, id.Name)
	}
	return result, false, nil
}

func evalJoin(c *ast.Call, cur *engine.LazyFrame, ctx *Context, kind engine.JoinKind) (*engine.LazyFrame, bool, error) {
	pos, _ := positional(c)
	if len(pos) < 1 {
		return nil, false, dplyerr.Signature(c.SpanV, "%s() requires a pipeline variable argument", c.Name)
	}
	id, ok := pos[0].(*ast.Ident)
	if !ok {
		return nil, false, dplyerr.Signature(pos[0].Span(), "%s() requires a pipeline variable argument", c.Name)
	}
	right, ok := ctx.Vars[id.Name]
	if !ok {
		return nil, false, dplyerr.Variable(id.SpanV, "undefined variable %q", id.Name)
	}

	var on []engine.JoinOn
	for _, arg := range pos[1:] {
		cmp, ok := arg.(*ast.Cmp)
		if !ok || cmp.Op != ast.CmpEq {
			return nil, false, dplyerr.Signature(arg.Span(), "join predicates must be column equalities")
		}
		lid, lok := cmp.Lhs.(*ast.Ident)
		rid, rok := cmp.Rhs.(*ast.Ident)
		if !lok || !rok {
			return nil, false, dplyerr.Signature(arg.Span(), "join predicates must compare two columns")
		}
		on = append(on, engine.JoinOn{Left: lid.Name, Right: rid.Name})
	}
	if len(on) == 0 && kind != engine.CrossJoin {
		on = commonColumns(cur.Schema, right.Schema)
		if len(on) == 0 && kind == engine.OuterJoin {
			return nil, false, dplyerr.Signature(c.SpanV, "outer_join() with no shared columns requires explicit join predicates")
		}
	}
	return engine.Join(cur, right, kind, on), false, nil
}

func commonColumns(left, right engine.Schema) []engine.JoinOn {
	var on []engine.JoinOn
	for _, f := range left.Fields {
		if right.Has(f.Name) {
			on = append(on, engine.JoinOn{Left: f.Name, Right: f.Name})
		}
	}
	return on
}

func evalHead(c *ast.Call, cur *engine.LazyFrame, ctx *Context) (*engine.LazyFrame, bool, error) {
	pos, _ := positional(c)
	n := 10
	if len(pos) > 0 {
		v, err := literalInt(pos[0])
		if err != nil {
			return nil, false, err
		}
		n = v
	}
	limited := engine.Limit(cur, n)
	frame, err := limited.Execute()
	if err != nil {
		return nil, false, dplyerr.RuntimeWrap(err, "materializing head()")
	}
	writeOut(ctx, display.Render(frame, ctx.Display))
	return engine.FromFrame(frame), true, nil
}

func evalShow(cur *engine.LazyFrame, ctx *Context) (*engine.LazyFrame, bool, error) {
	frame, err := cur.Execute()
	if err != nil {
		return nil, false, dplyerr.RuntimeWrap(err, "materializing show()")
	}
	writeOut(ctx, display.Render(frame, ctx.Display))
	return engine.FromFrame(frame), true, nil
}

func evalGlimpse(cur *engine.LazyFrame, ctx *Context) (*engine.LazyFrame, bool, error) {
	frame, err := cur.Execute()
	if err != nil {
		return nil, false, dplyerr.RuntimeWrap(err, "materializing glimpse()")
	}
	writeOut(ctx, display.Glimpse(frame))
	return engine.FromFrame(frame), true, nil
}

// writeOut sends rendered show()/head()/glimpse() output to ctx.Out. When
// ctx.Out is a terminal too short to show it in one screen, it opens a
// scrollable pager instead of scrolling the content past.
func writeOut(ctx *Context, s string) {
	if ctx.Out == nil {
		return
	}
	if f, ok := ctx.Out.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		if w, h, err := term.GetSize(int(f.Fd())); err == nil && display.NeedsPaging(s, h) {
			if err := display.Page(s, w, h-1); err == nil {
				return
			}
		}
	}
	ctx.Out.Write([]byte(s))
}

func literalString(e ast.Expr) (string, error) {
	l, ok := e.(*ast.Literal)
	if !ok || l.Kind != ast.LitString {
		return "", dplyerr.Signature(e.Span(), "expected a string literal")
	}
	return l.Str, nil
}

func literalInt(e ast.Expr) (int, error) {
	l, ok := e.(*ast.Literal)
	if !ok || l.Kind != ast.LitInt {
		return 0, dplyerr.Signature(e.Span(), "expected an integer literal")
	}
	return int(l.Int), nil
}

func literalBool(e ast.Expr) (bool, error) {
	l, ok := e.(*ast.Literal)
	if !ok || l.Kind != ast.LitBool {
		return false, dplyerr.Signature(e.Span(), "expected a boolean literal")
	}
	return l.Bool, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
