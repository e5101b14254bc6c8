// Package sig statically validates a parsed script against the fixed
// function vocabulary: each call's position in its pipeline, its arity
// and argument shapes, its named-argument whitelist, and pipeline
// variable legality. It never touches column data or a Schema — that is
// the expression compiler's job (internal/compile) once a concrete
// schema is available during evaluation.
package sig

import (
	"dply/internal/ast"
	"dply/internal/dplyerr"
)

// position describes where in a pipeline a function is allowed to appear.
type position int

const (
	posSourceOrSink position = iota // step 1, or any later step as a sink
	posMiddle                       // any non-first, non-last step
	posTerminal                     // last step only
	posStandalone                   // config(): any position
)

// funcSig is one function's static shape.
type funcSig struct {
	position position
	minArgs  int
	maxArgs  int // -1 means unbounded
	named    map[string]bool
}

var functions = map[string]funcSig{
	"csv":     {posSourceOrSink, 1, 2, map[string]bool{"overwrite": true}},
	"json":    {posSourceOrSink, 1, 2, map[string]bool{"overwrite": true}},
	"parquet": {posSourceOrSink, 1, 2, map[string]bool{"overwrite": true}},

	"config": {posStandalone, 0, 3, map[string]bool{
		"max_columns": true, "max_column_width": true, "max_table_width": true,
	}},

	"select":    {posMiddle, 0, -1, nil},
	"rename":    {posMiddle, 1, -1, nil},
	"relocate":  {posMiddle, 0, -1, map[string]bool{"before": true, "after": true}},
	"filter":    {posMiddle, 1, -1, nil},
	"mutate":    {posMiddle, 1, -1, nil},
	"group_by":  {posMiddle, 1, -1, nil},
	"summarize": {posMiddle, 1, -1, nil},
	"arrange":   {posMiddle, 1, -1, nil},
	"count":     {posMiddle, 0, -1, map[string]bool{"sort": true}},
	"distinct":  {posMiddle, 0, -1, nil},
	"unnest":    {posMiddle, 1, -1, nil},

	"inner_join": {posMiddle, 1, -1, nil},
	"left_join":  {posMiddle, 1, -1, nil},
	"outer_join": {posMiddle, 1, -1, nil},
	"cross_join": {posMiddle, 1, -1, nil},
	"anti_join":  {posMiddle, 1, -1, nil},

	"head":    {posTerminal, 0, 1, nil},
	"show":    {posTerminal, 0, 0, nil},
	"glimpse": {posTerminal, 0, 0, nil},
}

// joinFuncs names the functions whose first argument must be a pipeline
// variable reference, not an inline expression.
var joinFuncs = map[string]bool{
	"inner_join": true, "left_join": true, "outer_join": true,
	"cross_join": true, "anti_join": true,
}

// Check validates every pipeline in script, returning the first violation
// found.
func Check(script *ast.Script) error {
	vars := map[string]bool{}
	for _, pl := range script.Pipelines {
		if err := checkPipeline(pl, vars); err != nil {
			return err
		}
	}
	return nil
}

func checkPipeline(pl *ast.Pipeline, vars map[string]bool) error {
	for i, step := range pl.Steps {
		isFirst := i == 0
		isLast := i == len(pl.Steps)-1

		switch s := step.(type) {
		case *ast.Ident:
			if isFirst {
				if functions[s.Name].maxArgs != 0 && isFunctionName(s.Name) {
					return dplyerr.Variable(s.SpanV, "%q is a function name and cannot be used as a variable", s.Name)
				}
				if !vars[s.Name] {
					return dplyerr.Variable(s.SpanV, "undefined variable %q", s.Name)
				}
			} else {
				if isFunctionName(s.Name) {
					return dplyerr.Variable(s.SpanV, "cannot bind variable %q: shadows a function name", s.Name)
				}
				vars[s.Name] = true
			}
		case *ast.Call:
			if err := checkCall(s, isFirst, isLast); err != nil {
				return err
			}
			if isFunctionName(s.Name) && (s.Name == "group_by") {
				if isLast {
					return dplyerr.Signature(s.SpanV, "group_by() must be immediately followed by summarize()")
				}
				next, ok := pl.Steps[i+1].(*ast.Call)
				if !ok || next.Name != "summarize" {
					return dplyerr.Signature(s.SpanV, "group_by() must be immediately followed by summarize()")
				}
			}
			if s.Name == "summarize" {
				prevIsGroupBy := false
				if i > 0 {
					if prev, ok := pl.Steps[i-1].(*ast.Call); ok && prev.Name == "group_by" {
						prevIsGroupBy = true
					}
				}
				_ = prevIsGroupBy // ungrouped summarize() over the whole frame is legal
			}
		default:
			return dplyerr.SignatureNoSpan("invalid pipeline step")
		}
	}
	return nil
}

func isFunctionName(name string) bool {
	_, ok := functions[name]
	return ok
}

func checkCall(c *ast.Call, isFirst, isLast bool) error {
	fs, ok := functions[c.Name]
	if !ok {
		return dplyerr.Signature(c.SpanV, "unknown function %q", c.Name)
	}

	switch fs.position {
	case posSourceOrSink:
		// legal anywhere; step index alone decides source-vs-sink role,
		// handled by the evaluator rather than the checker.
	case posMiddle:
		if isFirst {
			return dplyerr.Signature(c.SpanV, "%s() cannot be the first step of a pipeline", c.Name)
		}
		if isLast {
			return dplyerr.Signature(c.SpanV, "%s() cannot be the last step of a pipeline", c.Name)
		}
	case posTerminal:
		if !isLast {
			return dplyerr.Signature(c.SpanV, "%s() must be the last step of a pipeline", c.Name)
		}
	case posStandalone:
		// legal anywhere
	}

	var positional []ast.Expr
	named := map[string]ast.Expr{}
	for _, arg := range c.Args {
		if a, ok := arg.(*ast.Assign); ok && isNamedOnly(c.Name, a.Target, fs) {
			if _, dup := named[a.Target]; dup {
				return dplyerr.Signature(a.SpanV, "duplicate named argument %q", a.Target)
			}
			named[a.Target] = a.Value
			continue
		}
		positional = append(positional, arg)
	}

	for key := range named {
		if !fs.named[key] {
			return dplyerr.Signature(c.SpanV, "unknown named argument %q for %s()", key, c.Name)
		}
	}

	if len(positional) < fs.minArgs {
		return dplyerr.Signature(c.SpanV, "%s() requires at least %d argument(s), got %d", c.Name, fs.minArgs, len(positional))
	}
	if fs.maxArgs >= 0 && len(positional) > fs.maxArgs {
		return dplyerr.Signature(c.SpanV, "%s() accepts at most %d argument(s), got %d", c.Name, fs.maxArgs, len(positional))
	}

	if joinFuncs[c.Name] && len(c.Args) > 0 {
		if _, ok := c.Args[0].(*ast.Ident); !ok {
			return dplyerr.Signature(c.Args[0].Span(), "%s() requires a pipeline variable as its first argument", c.Name)
		}
	}

	return nil
}

// isNamedOnly reports whether an `x = expr` argument to fn is a named
// option, as opposed to an in-band column assignment (mutate/summarize/
// select/rename use `x = expr` to introduce columns, never named options).
// For every other function it is a named option, and its key is then
// checked against fs.named.
func isNamedOnly(fn, target string, fs funcSig) bool {
	switch fn {
	case "mutate", "summarize", "select", "rename":
		return false
	default:
		return true
	}
}
