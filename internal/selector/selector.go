// Package selector resolves select()/rename()/relocate() argument lists —
// bare names, rename pairs, starts_with()/ends_with()/contains() pattern
// selectors, and their negation — against a concrete Schema.
package selector

import (
	"strings"

	"dply/internal/ast"
	"dply/internal/dplyerr"
	"dply/internal/engine"
)

// Resolve turns a select()/relocate() argument list into an ordered, deduped
// list of engine.RenameField. A column named more than once keeps its
// first occurrence's position and rename.
func Resolve(args []ast.Expr, schema engine.Schema) ([]engine.RenameField, error) {
	var positive []engine.RenameField
	seen := map[string]bool{}
	excluded := map[string]bool{}
	hasNegation := false
	hasPositive := false

	add := func(from, to string) {
		if seen[from] {
			return
		}
		seen[from] = true
		positive = append(positive, engine.RenameField{From: from, To: to})
	}

	for _, arg := range args {
		switch a := arg.(type) {
		case *ast.Not:
			hasNegation = true
			names, err := matchSelectorCall(a.Inner, schema)
			if err != nil {
				return nil, err
			}
			for _, n := range names {
				excluded[n] = true
			}
		case *ast.Assign:
			hasPositive = true
			oldName, err := identName(a.Value)
			if err != nil {
				return nil, err
			}
			if !schema.Has(oldName) {
				return nil, dplyerr.Schema(a.SpanV, "unknown column %q", oldName)
			}
			add(oldName, a.Target)
		case *ast.Ident:
			hasPositive = true
			if !schema.Has(a.Name) {
				return nil, dplyerr.Schema(a.SpanV, "unknown column %q", a.Name)
			}
			add(a.Name, a.Name)
		case *ast.Call:
			hasPositive = true
			names, err := matchSelectorCall(a, schema)
			if err != nil {
				return nil, err
			}
			if len(names) == 0 {
				return nil, dplyerr.Schema(a.Span(), "%s() matched no columns", a.Name)
			}
			for _, n := range names {
				add(n, n)
			}
		default:
			return nil, dplyerr.Signature(arg.Span(), "invalid selector expression")
		}
	}

	if hasNegation && !hasPositive {
		var out []engine.RenameField
		for _, f := range schema.Fields {
			if !excluded[f.Name] {
				out = append(out, engine.RenameField{From: f.Name, To: f.Name})
			}
		}
		return out, nil
	}
	if hasNegation {
		var out []engine.RenameField
		for _, f := range positive {
			if !excluded[f.From] {
				out = append(out, f)
			}
		}
		return out, nil
	}
	return positive, nil
}

// Rename resolves rename()'s `new = old` argument list, preserving every
// column's original schema position (unlike Resolve/select, which follows
// argument order).
func Rename(args []ast.Expr, schema engine.Schema) ([]engine.RenameField, error) {
	renames := map[string]string{}
	for _, arg := range args {
		a, ok := arg.(*ast.Assign)
		if !ok {
			return nil, dplyerr.Signature(arg.Span(), "rename() arguments must be `new = old`")
		}
		oldName, err := identName(a.Value)
		if err != nil {
			return nil, err
		}
		if !schema.Has(oldName) {
			return nil, dplyerr.Schema(a.SpanV, "unknown column %q", oldName)
		}
		renames[oldName] = a.Target
	}
	out := make([]engine.RenameField, len(schema.Fields))
	for i, f := range schema.Fields {
		to := f.Name
		if r, ok := renames[f.Name]; ok {
			to = r
		}
		out[i] = engine.RenameField{From: f.Name, To: to}
	}
	return out, nil
}

func identName(e ast.Expr) (string, error) {
	id, ok := e.(*ast.Ident)
	if !ok {
		return "", dplyerr.Signature(e.Span(), "expected a column name")
	}
	return id.Name, nil
}

// matchSelectorCall evaluates starts_with()/ends_with()/contains() against
// schema, returning matching column names in schema order.
func matchSelectorCall(e ast.Expr, schema engine.Schema) ([]string, error) {
	call, ok := e.(*ast.Call)
	if !ok {
		return nil, dplyerr.Signature(e.Span(), "expected a column selector, e.g. starts_with(\"x\")")
	}
	if len(call.Args) != 1 {
		return nil, dplyerr.Signature(call.SpanV, "%s() takes exactly 1 argument", call.Name)
	}
	lit, ok := call.Args[0].(*ast.Literal)
	if !ok || lit.Kind != ast.LitString {
		return nil, dplyerr.Signature(call.Args[0].Span(), "%s() requires a string literal", call.Name)
	}
	pattern := lit.Str

	var match func(name string) bool
	switch call.Name {
	case "starts_with":
		match = func(name string) bool { return strings.HasPrefix(name, pattern) }
	case "ends_with":
		match = func(name string) bool { return strings.HasSuffix(name, pattern) }
	case "contains":
		match = func(name string) bool { return strings.Contains(name, pattern) }
	default:
		return nil, dplyerr.Signature(call.SpanV, "unknown column selector %q", call.Name)
	}

	var out []string
	for _, f := range schema.Fields {
		if match(f.Name) {
			out = append(out, f.Name)
		}
	}
	return out, nil
}
