// Package compile translates filter()/mutate()/summarize() argument ASTs
// into engine.RowExpr and engine.AggExpr trees the execution engine can
// evaluate. It is the one place column references, timestamp/duration
// literals, and the small built-in function set get resolved against a
// concrete Schema.
package compile

import (
	"time"

	"dply/internal/ast"
	"dply/internal/dplyerr"
	"dply/internal/engine"
	"dply/internal/lexer"
)

// dateLayouts are tried in order by dt(); the first one that parses wins.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
}

const ymdHmsLayout = "2006-01-02 15:04:05"

// Row compiles expr as a per-row expression (filter()/mutate() context)
// against schema.
func Row(expr ast.Expr, schema engine.Schema) (engine.RowExpr, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		return literalRow(e)
	case *ast.Ident:
		if !schema.Has(e.Name) {
			return nil, dplyerr.Schema(e.SpanV, "unknown column %q", e.Name)
		}
		return engine.ColRef{Name: e.Name}, nil
	case *ast.Cmp:
		l, err := Row(e.Lhs, schema)
		if err != nil {
			return nil, err
		}
		r, err := Row(e.Rhs, schema)
		if err != nil {
			return nil, err
		}
		return engine.CmpExpr{Op: engine.CmpOp(e.Op), L: l, R: r}, nil
	case *ast.Logical:
		l, err := Row(e.Lhs, schema)
		if err != nil {
			return nil, err
		}
		r, err := Row(e.Rhs, schema)
		if err != nil {
			return nil, err
		}
		return engine.LogicalExpr{Op: engine.LogicalOp(e.Op), L: l, R: r}, nil
	case *ast.Arith:
		l, err := Row(e.Lhs, schema)
		if err != nil {
			return nil, err
		}
		r, err := Row(e.Rhs, schema)
		if err != nil {
			return nil, err
		}
		return engine.ArithExpr{Op: engine.ArithOp(e.Op), L: l, R: r}, nil
	case *ast.Not:
		inner, err := Row(e.Inner, schema)
		if err != nil {
			return nil, err
		}
		return engine.NotExpr{Inner: inner}, nil
	case *ast.Neg:
		inner, err := Row(e.Inner, schema)
		if err != nil {
			return nil, err
		}
		return engine.NegExpr{Inner: inner}, nil
	case *ast.Call:
		return callRow(e, schema)
	case *ast.Assign:
		return Row(e.Value, schema)
	default:
		return nil, dplyerr.SignatureNoSpan("unsupported expression in this context")
	}
}

func literalRow(l *ast.Literal) (engine.RowExpr, error) {
	switch l.Kind {
	case ast.LitInt:
		return engine.LitVal{Value: l.Int, T: engine.Type{Kind: engine.KindInt64}}, nil
	case ast.LitFloat:
		return engine.LitVal{Value: l.Float, T: engine.Type{Kind: engine.KindFloat64}}, nil
	case ast.LitString:
		return engine.LitVal{Value: l.Str, T: engine.Type{Kind: engine.KindString}}, nil
	case ast.LitBool:
		return engine.LitVal{Value: l.Bool, T: engine.Type{Kind: engine.KindBool}}, nil
	default:
		return nil, dplyerr.Parse(l.SpanV, "unknown literal kind")
	}
}

func callRow(c *ast.Call, schema engine.Schema) (engine.RowExpr, error) {
	switch c.Name {
	case "contains":
		if len(c.Args) != 2 {
			return nil, dplyerr.Signature(c.SpanV, "contains() takes exactly 2 arguments, got %d", len(c.Args))
		}
		col, err := Row(c.Args[0], schema)
		if err != nil {
			return nil, err
		}
		lit, ok := c.Args[1].(*ast.Literal)
		if !ok {
			return nil, dplyerr.Signature(c.Args[1].Span(), "contains() pattern must be a literal")
		}
		if lit.Kind == ast.LitString {
			return &engine.ContainsExpr{Col: col, Pattern: lit.Str}, nil
		}
		return &engine.ContainsExpr{Col: col, Numeric: true, Num: numericLitValue(lit)}, nil
	case "is_null":
		if len(c.Args) != 1 {
			return nil, dplyerr.Signature(c.SpanV, "is_null() takes exactly 1 argument, got %d", len(c.Args))
		}
		col, err := Row(c.Args[0], schema)
		if err != nil {
			return nil, err
		}
		return engine.IsNullExpr{Col: col}, nil
	case "len":
		if len(c.Args) != 1 {
			return nil, dplyerr.Signature(c.SpanV, "len() takes exactly 1 argument, got %d", len(c.Args))
		}
		col, err := Row(c.Args[0], schema)
		if err != nil {
			return nil, err
		}
		return engine.LenExpr{Col: col}, nil
	case "field":
		if len(c.Args) != 2 {
			return nil, dplyerr.Signature(c.SpanV, "field() takes exactly 2 arguments, got %d", len(c.Args))
		}
		strct, err := Row(c.Args[0], schema)
		if err != nil {
			return nil, err
		}
		name, err := identOrStringArg(c.Args[1])
		if err != nil {
			return nil, err
		}
		return engine.FieldExpr{Struct: strct, Name: name}, nil
	case "row":
		if len(c.Args) != 0 {
			return nil, dplyerr.Signature(c.SpanV, "row() takes no arguments")
		}
		return engine.RowIndexExpr{}, nil
	case "dt":
		return timestampLiteral(c, dateLayouts)
	case "ymd_hms":
		return timestampLiteral(c, []string{ymdHmsLayout})
	case "dnanos", "dmicros", "dmillis", "dsecs":
		if len(c.Args) != 1 {
			return nil, dplyerr.Signature(c.SpanV, "%s() takes exactly 1 argument", c.Name)
		}
		inner, err := Row(c.Args[0], schema)
		if err != nil {
			return nil, err
		}
		return engine.DurFromNumber{Unit: durationUnit(c.Name[1:]), Inner: inner}, nil
	case "nanos", "micros", "millis", "secs":
		if len(c.Args) != 1 {
			return nil, dplyerr.Signature(c.SpanV, "%s() takes exactly 1 argument", c.Name)
		}
		inner, err := Row(c.Args[0], schema)
		if err != nil {
			return nil, err
		}
		return engine.NumberFromDur{Unit: durationUnit(c.Name), Inner: inner}, nil
	case "mean", "max", "min", "median":
		if len(c.Args) != 1 {
			return nil, dplyerr.Signature(c.SpanV, "%s() takes exactly 1 argument in mutate() context", c.Name)
		}
		col, err := identOrStringArg(c.Args[0])
		if err != nil {
			return nil, err
		}
		return engine.BroadcastAgg{Fn: c.Name, Col: col}, nil
	default:
		return nil, dplyerr.Signature(c.SpanV, "unknown function %q", c.Name)
	}
}

func numericLitValue(l *ast.Literal) float64 {
	if l.Kind == ast.LitFloat {
		return l.Float
	}
	return float64(l.Int)
}

func identOrStringArg(e ast.Expr) (string, error) {
	switch v := e.(type) {
	case *ast.Ident:
		return v.Name, nil
	case *ast.Literal:
		if v.Kind == ast.LitString {
			return v.Str, nil
		}
	}
	return "", dplyerr.Signature(e.Span(), "expected a column name")
}

func timestampLiteral(c *ast.Call, layouts []string) (engine.RowExpr, error) {
	if len(c.Args) != 1 {
		return nil, dplyerr.Signature(c.SpanV, "%s() takes exactly 1 argument", c.Name)
	}
	lit, ok := c.Args[0].(*ast.Literal)
	if !ok || lit.Kind != ast.LitString {
		return nil, dplyerr.Signature(c.Args[0].Span(), "%s() requires a string literal", c.Name)
	}
	var parsed time.Time
	var err error
	for _, layout := range layouts {
		parsed, err = time.Parse(layout, lit.Str)
		if err == nil {
			return engine.LitVal{Value: parsed, T: engine.Type{Kind: engine.KindTimestamp}}, nil
		}
	}
	return nil, dplyerr.Runtime("cannot parse %q as a timestamp: %v", lit.Str, err)
}

func durationUnit(suffix string) engine.DurationUnit {
	switch suffix {
	case "nanos":
		return engine.UnitNanos
	case "micros":
		return engine.UnitMicros
	case "millis":
		return engine.UnitMillis
	case "secs":
		return engine.UnitSecs
	}
	return engine.UnitNanos
}

// aggFns lists the summarize() function names compiled as AggExpr rather
// than per-row RowExpr.
var aggFns = map[string]bool{
	"n": true, "sum": true, "mean": true, "median": true, "min": true,
	"max": true, "sd": true, "var": true, "quantile": true, "list": true,
	"first": true, "last": true,
}

// Agg compiles a summarize() argument into an engine.AggExpr.
func Agg(expr ast.Expr, schema engine.Schema) (engine.AggExpr, error) {
	if a, ok := expr.(*ast.Assign); ok {
		expr = a.Value
	}
	call, ok := expr.(*ast.Call)
	if !ok {
		return nil, dplyerr.Signature(expr.Span(), "summarize() arguments must be aggregate function calls")
	}
	if !aggFns[call.Name] {
		return nil, dplyerr.Signature(call.SpanV, "%q is not a recognized aggregate function", call.Name)
	}
	if call.Name == "n" {
		if len(call.Args) != 0 {
			return nil, dplyerr.Signature(call.SpanV, "n() takes no arguments")
		}
		return engine.AggCall{Fn: "n"}, nil
	}
	if len(call.Args) == 0 {
		return nil, dplyerr.Signature(call.SpanV, "%s() requires a column argument", call.Name)
	}
	col, err := identOrStringArg(call.Args[0])
	if err != nil {
		return nil, err
	}
	if f, ok := schema.FieldByName(col); ok && f.Type.Kind == engine.KindDuration {
		switch call.Name {
		case "sum", "mean", "min", "max":
			return engine.AggDuration{Fn: call.Name, Col: col}, nil
		}
	}
	if call.Name == "quantile" {
		if len(call.Args) != 2 {
			return nil, dplyerr.Signature(call.SpanV, "quantile() takes exactly 2 arguments")
		}
		lit, ok := call.Args[1].(*ast.Literal)
		if !ok {
			return nil, dplyerr.Signature(call.Args[1].Span(), "quantile() probability must be a literal")
		}
		return engine.AggCall{Fn: "quantile", Col: col, Arg: numericLitValue(lit)}, nil
	}
	return engine.AggCall{Fn: call.Name, Col: col}, nil
}

// VerifyColumn reports a SchemaError if name is not present in schema.
func VerifyColumn(name string, span lexer.Span, schema engine.Schema) error {
	if !schema.Has(name) {
		return dplyerr.Schema(span, "unknown column %q", name)
	}
	return nil
}
