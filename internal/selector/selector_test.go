package selector

import (
	"testing"

	"dply/internal/ast"
	"dply/internal/engine"
	"dply/internal/parser"
)

func schemaOf(names ...string) engine.Schema {
	fields := make([]engine.Field, len(names))
	for i, n := range names {
		fields[i] = engine.Field{Name: n, Type: engine.Type{Kind: engine.KindString}}
	}
	return engine.Schema{Fields: fields}
}

// callArgs parses `fn(...)` and returns its argument expressions.
func callArgs(t *testing.T, src string) []ast.Expr {
	t.Helper()
	script, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return script.Pipelines[0].Steps[0].(*ast.Call).Args
}

func names(fields []engine.RenameField, pick func(engine.RenameField) string) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = pick(f)
	}
	return out
}

func assertEq(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestResolve_ArgumentOrder(t *testing.T) {
	schema := schemaOf("a", "b", "c")
	out, err := Resolve(callArgs(t, `select(c, a)`), schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertEq(t, names(out, func(f engine.RenameField) string { return f.From }), []string{"c", "a"})
}

func TestResolve_NegationSelectsComplementInSchemaOrder(t *testing.T) {
	schema := schemaOf("a", "b", "c")
	out, err := Resolve(callArgs(t, `select(!starts_with("b"))`), schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertEq(t, names(out, func(f engine.RenameField) string { return f.From }), []string{"a", "c"})
}

func TestResolve_DuplicatesElidedOnFirstOccurrence(t *testing.T) {
	schema := schemaOf("a", "b")
	out, err := Resolve(callArgs(t, `select(a, a, b)`), schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertEq(t, names(out, func(f engine.RenameField) string { return f.From }), []string{"a", "b"})
}

func TestResolve_UnknownColumnErrors(t *testing.T) {
	schema := schemaOf("a", "b")
	if _, err := Resolve(callArgs(t, `select(missing)`), schema); err == nil {
		t.Fatal("expected an error for an unknown column")
	}
}

func TestRename_PreservesSchemaPosition(t *testing.T) {
	schema := schemaOf("a", "b", "c")
	out, err := Rename(callArgs(t, `rename(z = c)`), schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertEq(t, names(out, func(f engine.RenameField) string { return f.To }), []string{"a", "b", "z"})
}

func TestRelocate_DefaultsToFront(t *testing.T) {
	schema := schemaOf("a", "b", "c", "d")
	out, err := Relocate(callArgs(t, `relocate(c)`), schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertEq(t, names(out, func(f engine.RenameField) string { return f.From }), []string{"c", "a", "b", "d"})
}

func TestRelocate_BeforeAndAfterAreMutuallyExclusive(t *testing.T) {
	schema := schemaOf("a", "b", "c", "d")
	if _, err := Relocate(callArgs(t, `relocate(d, before = a, after = b)`), schema); err == nil {
		t.Fatal("expected error: before= and after= are mutually exclusive")
	}
}

func TestResolve_PositiveSelectorMatchingNoColumnsErrors(t *testing.T) {
	schema := schemaOf("a", "b", "c")
	if _, err := Resolve(callArgs(t, `select(starts_with("zzz"))`), schema); err == nil {
		t.Fatal("expected schema error: selector matched no columns")
	}
}

func TestResolve_NegatedSelectorMatchingNoColumnsIsFine(t *testing.T) {
	schema := schemaOf("a", "b", "c")
	out, err := Resolve(callArgs(t, `select(!starts_with("zzz"))`), schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertEq(t, names(out, func(f engine.RenameField) string { return f.From }), []string{"a", "b", "c"})
}

func TestRelocate_AfterAnchor(t *testing.T) {
	schema := schemaOf("a", "b", "c", "d")
	out, err := Relocate(callArgs(t, `relocate(d, after = a)`), schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertEq(t, names(out, func(f engine.RenameField) string { return f.From }), []string{"a", "d", "b", "c"})
}
