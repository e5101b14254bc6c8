package parser

import (
	"testing"

	"dply/internal/ast"
)

func TestParse_SimplePipeline(t *testing.T) {
	script, err := Parse(`csv("a.csv") | filter(age > 18) | head()`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(script.Pipelines) != 1 {
		t.Fatalf("expected 1 pipeline, got %d", len(script.Pipelines))
	}
	steps := script.Pipelines[0].Steps
	if len(steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(steps))
	}
	for i, name := range []string{"csv", "filter", "head"} {
		c, ok := steps[i].(*ast.Call)
		if !ok || c.Name != name {
			t.Fatalf("step %d: got %#v, want call to %s", i, steps[i], name)
		}
	}
}

func TestParse_MultiplePipelinesSeparatedBySemicolon(t *testing.T) {
	script, err := Parse(`csv("a.csv") | df; df | show()`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(script.Pipelines) != 2 {
		t.Fatalf("expected 2 pipelines, got %d", len(script.Pipelines))
	}
}

func TestParse_BareIdentStep(t *testing.T) {
	script, err := Parse(`csv("a.csv") | df`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	steps := script.Pipelines[0].Steps
	id, ok := steps[1].(*ast.Ident)
	if !ok || id.Name != "df" {
		t.Fatalf("expected bare ident step `df`, got %#v", steps[1])
	}
}

func TestParse_OperatorPrecedence(t *testing.T) {
	// `&` (AND) binds tighter than `|` (OR); filter's arg should parse as
	// Logical{Or, Logical{And, a>1, b<2}, c==3}.
	script, err := Parse(`filter(a > 1 & b < 2 | c == 3)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call := script.Pipelines[0].Steps[0].(*ast.Call)
	or, ok := call.Args[0].(*ast.Logical)
	if !ok || or.Op != ast.LogicalOr {
		t.Fatalf("expected top-level OR, got %#v", call.Args[0])
	}
	and, ok := or.Lhs.(*ast.Logical)
	if !ok || and.Op != ast.LogicalAnd {
		t.Fatalf("expected LHS of OR to be AND, got %#v", or.Lhs)
	}
}

func TestParse_ArithmeticAndMultiplicativePrecedence(t *testing.T) {
	script, err := Parse(`mutate(x = a + b * c)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call := script.Pipelines[0].Steps[0].(*ast.Call)
	assign := call.Args[0].(*ast.Assign)
	add, ok := assign.Value.(*ast.Arith)
	if !ok || add.Op != ast.ArithAdd {
		t.Fatalf("expected top-level add, got %#v", assign.Value)
	}
	if _, ok := add.Rhs.(*ast.Arith); !ok {
		t.Fatalf("expected RHS of + to be a nested * expression, got %#v", add.Rhs)
	}
}

func TestParse_BacktickIdentAndAssign(t *testing.T) {
	script, err := Parse("select(new_name = `weird col`)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call := script.Pipelines[0].Steps[0].(*ast.Call)
	assign := call.Args[0].(*ast.Assign)
	if assign.Target != "new_name" {
		t.Fatalf("expected target new_name, got %q", assign.Target)
	}
	id, ok := assign.Value.(*ast.Ident)
	if !ok || !id.Quoted || id.Name != "weird col" {
		t.Fatalf("expected quoted ident `weird col`, got %#v", assign.Value)
	}
}

func TestParse_NegationAndUnaryMinus(t *testing.T) {
	script, err := Parse(`filter(!done & x == -1)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call := script.Pipelines[0].Steps[0].(*ast.Call)
	and := call.Args[0].(*ast.Logical)
	if _, ok := and.Lhs.(*ast.Not); !ok {
		t.Fatalf("expected LHS to be Not, got %#v", and.Lhs)
	}
	cmp := and.Rhs.(*ast.Cmp)
	if _, ok := cmp.Rhs.(*ast.Neg); !ok {
		t.Fatalf("expected RHS of == to be Neg, got %#v", cmp.Rhs)
	}
}

func TestParse_ErrorOnUnclosedCall(t *testing.T) {
	_, err := Parse(`csv("a.csv"`)
	if err == nil {
		t.Fatal("expected a parse error for an unclosed call")
	}
}
