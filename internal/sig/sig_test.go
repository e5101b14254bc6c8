package sig

import (
	"testing"

	"dply/internal/parser"
)

func check(t *testing.T, src string) error {
	t.Helper()
	script, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return Check(script)
}

func TestCheck_ValidPipelineAccepted(t *testing.T) {
	if err := check(t, `csv("a.csv") | filter(x > 1) | group_by(g) | summarize(n = n()) | arrange(desc(n)) | head()`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheck_UngroupedSummarizeIsLegal(t *testing.T) {
	if err := check(t, `csv("a.csv") | summarize(n = n()) | show()`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheck_GroupByMustPrecedeSummarize(t *testing.T) {
	if err := check(t, `csv("a.csv") | group_by(g) | head()`); err == nil {
		t.Fatal("expected error: group_by() not followed by summarize()")
	}
}

func TestCheck_TerminalMustBeLast(t *testing.T) {
	if err := check(t, `csv("a.csv") | show() | head()`); err == nil {
		t.Fatal("expected error: show() is terminal and cannot be followed by another step")
	}
}

func TestCheck_MiddleFunctionCannotBeFirst(t *testing.T) {
	if err := check(t, `filter(x > 1) | show()`); err == nil {
		t.Fatal("expected error: filter() cannot be the first step")
	}
}

func TestCheck_UnknownFunction(t *testing.T) {
	if err := check(t, `csv("a.csv") | frobnicate()`); err == nil {
		t.Fatal("expected error: unknown function")
	}
}

func TestCheck_JoinRequiresVariableFirstArg(t *testing.T) {
	if err := check(t, `csv("a.csv") | left_join(filter(x > 1)) | show()`); err == nil {
		t.Fatal("expected error: join()'s first argument must be a pipeline variable")
	}
}

func TestCheck_JoinAcceptsBoundVariable(t *testing.T) {
	src := `csv("right.csv") | right_df; csv("left.csv") | left_join(right_df) | show()`
	if err := check(t, src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheck_UndefinedVariable(t *testing.T) {
	if err := check(t, `undefined_df | show()`); err == nil {
		t.Fatal("expected error: undefined variable")
	}
}

func TestCheck_VariableCannotShadowFunctionName(t *testing.T) {
	if err := check(t, `csv("a.csv") | filter | show()`); err == nil {
		t.Fatal("expected error: cannot bind a variable named after a function")
	}
}

func TestCheck_UnknownNamedArgument(t *testing.T) {
	if err := check(t, `csv("a.csv", bogus = true) | show()`); err == nil {
		t.Fatal("expected error: unknown named argument")
	}
}

func TestCheck_ConfigNamedOptionsOnly(t *testing.T) {
	if err := check(t, `config(max_columns = 10, max_column_width = 20)`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheck_ArityTooFewArguments(t *testing.T) {
	if err := check(t, `csv("a.csv") | rename() | show()`); err == nil {
		t.Fatal("expected error: rename() requires at least 1 argument")
	}
}
