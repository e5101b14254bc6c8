package eval

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dply/internal/dplyerr"
	"dply/internal/parser"
	"dply/internal/sig"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func run(t *testing.T, script string) (string, error) {
	t.Helper()
	s, err := parser.Parse(script)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if err := sig.Check(s); err != nil {
		t.Fatalf("signature error: %v", err)
	}
	var out bytes.Buffer
	ctx := NewContext(&out)
	err = EvalScript(s, ctx)
	return out.String(), err
}

func TestEval_CountAndSort(t *testing.T) {
	path := writeCSV(t, "p.csv", "name,dept\nalice,eng\nbob,eng\ncarol,sales\n")
	out, err := run(t, `csv("`+path+`") | count(dept, sort = true) | show()`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "eng") || !strings.Contains(out, "sales") {
		t.Fatalf("expected departments in output, got:\n%s", out)
	}
}

func TestEval_ArrangeDesc(t *testing.T) {
	path := writeCSV(t, "p.csv", "name,age\nalice,30\nbob,25\ncarol,35\n")
	out, err := run(t, `csv("`+path+`") | arrange(desc(age)) | head(1)`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "carol") {
		t.Fatalf("expected carol (oldest) first, got:\n%s", out)
	}
}

func TestEval_FilterThenGlimpseReportsRowAndColumnCounts(t *testing.T) {
	path := writeCSV(t, "p.csv", "name,age,dept\nalice,30,eng\nbob,25,eng\ncarol,35,sales\ndave,20,sales\n")
	out, err := run(t, `csv("`+path+`") | filter(age > 24 & dept == "eng") | glimpse()`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Rows: 2") || !strings.Contains(out, "Columns: 3") {
		t.Fatalf("expected 2 rows / 3 columns in glimpse output, got:\n%s", out)
	}
}

func TestEval_UngroupedSummarize(t *testing.T) {
	path := writeCSV(t, "p.csv", "price\n10\n20\n30\n")
	out, err := run(t, `csv("`+path+`") | summarize(mean_price = mean(price), n = n()) | show()`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "20") {
		t.Fatalf("expected mean_price 20 in output, got:\n%s", out)
	}
}

func TestEval_LeftJoinOnRenamedCommonColumn(t *testing.T) {
	leftPath := writeCSV(t, "left.csv", "id,name\n1,alice\n2,bob\n")
	rightPath := writeCSV(t, "right.csv", "user_id,score\n1,90\n3,70\n")
	script := `csv("` + rightPath + `") | rename(id = user_id) | right_scores;
csv("` + leftPath + `") | left_join(right_scores) | show()`
	out, err := run(t, script)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "alice") || !strings.Contains(out, "bob") {
		t.Fatalf("expected both left rows preserved, got:\n%s", out)
	}
}

func TestEval_QuotedColumnMutateArrangeHead(t *testing.T) {
	path := writeCSV(t, "p.csv", "odd col,base\n1,10\n2,20\n3,5\n")
	script := "csv(\"" + path + "\") | mutate(scaled = `odd col` * base) | arrange(desc(scaled)) | head(1)"
	out, err := run(t, script)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// row 2 (odd col=2, base=20) has the largest product, 40.
	if !strings.Contains(out, "40") {
		t.Fatalf("expected scaled=40 to be the top row, got:\n%s", out)
	}
}

func TestEval_UndefinedVariableIsVariableError(t *testing.T) {
	// sig.Check already rejects this script, so evaluate it directly to
	// exercise the evaluator's own check.
	s, err := parser.Parse(`missing_df | show()`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	err = EvalScript(s, NewContext(&bytes.Buffer{}))
	if !dplyerr.Is(err, dplyerr.KindVariable) {
		t.Fatalf("expected a VariableError for an undefined pipeline variable, got %v", err)
	}
}
