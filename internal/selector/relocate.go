package selector

import (
	"dply/internal/ast"
	"dply/internal/dplyerr"
	"dply/internal/engine"
)

// Relocate resolves relocate()'s positional arguments (the columns being
// moved, via Resolve) plus its before=/after= named option, returning the
// full output column order for every column in schema.
func Relocate(args []ast.Expr, schema engine.Schema) ([]engine.RenameField, error) {
	var moving []ast.Expr
	var anchor string
	before := true
	haveAnchor := false

	for _, arg := range args {
		if a, ok := arg.(*ast.Assign); ok && (a.Target == "before" || a.Target == "after") {
			if haveAnchor {
				return nil, dplyerr.Signature(a.SpanV, "relocate()'s before= and after= are mutually exclusive")
			}
			name, err := identName(a.Value)
			if err != nil {
				return nil, err
			}
			if !schema.Has(name) {
				return nil, dplyerr.Schema(a.SpanV, "unknown column %q", name)
			}
			anchor = name
			before = a.Target == "before"
			haveAnchor = true
			continue
		}
		moving = append(moving, arg)
	}

	movedFields, err := Resolve(moving, schema)
	if err != nil {
		return nil, err
	}
	movedSet := map[string]bool{}
	for _, f := range movedFields {
		movedSet[f.From] = true
	}

	rest := make([]engine.RenameField, 0, len(schema.Fields))
	for _, f := range schema.Fields {
		if !movedSet[f.Name] {
			rest = append(rest, engine.RenameField{From: f.Name, To: f.Name})
		}
	}

	if !haveAnchor {
		// No before=/after=: moved columns go to the front, as in dplyr.
		return append(append([]engine.RenameField{}, movedFields...), rest...), nil
	}

	out := make([]engine.RenameField, 0, len(schema.Fields))
	for _, f := range rest {
		if f.From == anchor && before {
			out = append(out, movedFields...)
		}
		out = append(out, f)
		if f.From == anchor && !before {
			out = append(out, movedFields...)
		}
	}
	return out, nil
}
