package compile

import (
	"testing"

	"dply/internal/ast"
	"dply/internal/engine"
	"dply/internal/parser"
)

func firstArg(t *testing.T, src string) ast.Expr {
	t.Helper()
	script, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return script.Pipelines[0].Steps[0].(*ast.Call).Args[0]
}

func schemaWith(fields ...engine.Field) engine.Schema {
	return engine.Schema{Fields: fields}
}

func intField(name string) engine.Field {
	return engine.Field{Name: name, Type: engine.Type{Kind: engine.KindInt64}}
}

func TestRow_ColumnReferenceResolvesAgainstSchema(t *testing.T) {
	schema := schemaWith(intField("age"))
	expr, err := Row(firstArg(t, `filter(age)`), schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := expr.(engine.ColRef); !ok {
		t.Fatalf("expected ColRef, got %#v", expr)
	}
}

func TestRow_UnknownColumnIsSchemaError(t *testing.T) {
	schema := schemaWith(intField("age"))
	if _, err := Row(firstArg(t, `filter(height)`), schema); err == nil {
		t.Fatal("expected schema error for unknown column")
	}
}

func TestRow_ComparisonEvaluatesAgainstRow(t *testing.T) {
	schema := schemaWith(intField("age"))
	expr, err := Row(firstArg(t, `filter(age > 18)`), schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := expr.Eval(0, []any{int64(30)}, schema)
	if err != nil {
		t.Fatalf("unexpected eval error: %v", err)
	}
	if got != true {
		t.Fatalf("got %v, want true", got)
	}
}

func TestRow_ArithmeticBuildsNestedExpr(t *testing.T) {
	schema := schemaWith(intField("a"), intField("b"))
	expr, err := Row(firstArg(t, `mutate(x = a + b)`), schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := expr.Eval(0, []any{int64(2), int64(3)}, schema)
	if err != nil {
		t.Fatalf("unexpected eval error: %v", err)
	}
	if got != int64(5) {
		t.Fatalf("got %v, want 5", got)
	}
}

func TestRow_ContainsWithStringPattern(t *testing.T) {
	schema := schemaWith(engine.Field{Name: "name", Type: engine.Type{Kind: engine.KindString}})
	expr, err := Row(firstArg(t, `filter(contains(name, "ali"))`), schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := expr.Eval(0, []any{"alice"}, schema)
	if err != nil {
		t.Fatalf("unexpected eval error: %v", err)
	}
	if got != true {
		t.Fatalf("got %v, want true", got)
	}
}

func TestRow_ContainsRequiresLiteralPattern(t *testing.T) {
	schema := schemaWith(engine.Field{Name: "name", Type: engine.Type{Kind: engine.KindString}})
	if _, err := Row(firstArg(t, `filter(contains(name, name))`), schema); err == nil {
		t.Fatal("expected error: contains() pattern must be a literal")
	}
}

func TestRow_UnknownFunctionErrors(t *testing.T) {
	schema := schemaWith(intField("x"))
	if _, err := Row(firstArg(t, `mutate(y = frobnicate(x))`), schema); err == nil {
		t.Fatal("expected error for unknown function")
	}
}

func TestAgg_CountRequiresNoArguments(t *testing.T) {
	schema := schemaWith(intField("x"))
	if _, err := Agg(firstArg(t, `summarize(n = n(x))`), schema); err == nil {
		t.Fatal("expected error: n() takes no arguments")
	}
}

func TestAgg_MeanCompilesAggCall(t *testing.T) {
	schema := schemaWith(intField("price"))
	expr, err := Agg(firstArg(t, `summarize(avg = mean(price))`), schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call, ok := expr.(engine.AggCall)
	if !ok || call.Fn != "mean" || call.Col != "price" {
		t.Fatalf("got %#v", expr)
	}
}

func TestAgg_UnrecognizedAggregateFunctionErrors(t *testing.T) {
	schema := schemaWith(intField("price"))
	if _, err := Agg(firstArg(t, `summarize(x = upper(price))`), schema); err == nil {
		t.Fatal("expected error: not a recognized aggregate function")
	}
}

func TestAgg_NonCallArgumentErrors(t *testing.T) {
	schema := schemaWith(intField("price"))
	if _, err := Agg(firstArg(t, `summarize(x = price)`), schema); err == nil {
		t.Fatal("expected error: summarize() arguments must be aggregate function calls")
	}
}

func TestRow_DsecsRequiresExactlyOneArgument(t *testing.T) {
	schema := schemaWith(intField("x"))
	if _, err := Row(firstArg(t, `mutate(y = dsecs())`), schema); err == nil {
		t.Fatal("expected error: dsecs() takes exactly 1 argument")
	}
}

func TestRow_SecsRequiresExactlyOneArgument(t *testing.T) {
	schema := schemaWith(intField("x"))
	if _, err := Row(firstArg(t, `mutate(y = secs())`), schema); err == nil {
		t.Fatal("expected error: secs() takes exactly 1 argument")
	}
}

func TestVerifyColumn_UnknownNameIsSchemaError(t *testing.T) {
	schema := schemaWith(intField("a"))
	if err := VerifyColumn("b", firstArg(t, `filter(a)`).Span(), schema); err == nil {
		t.Fatal("expected schema error")
	}
}
