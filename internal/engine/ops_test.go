package engine

import "testing"

func intType() Type    { return Type{Kind: KindInt64} }
func stringType() Type { return Type{Kind: KindString} }

func peopleFrame() *Frame {
	schema := Schema{Fields: []Field{
		{Name: "name", Type: stringType()},
		{Name: "age", Type: intType()},
		{Name: "dept", Type: stringType()},
	}}
	cols := [][]any{
		{"alice", "bob", "carol", "dave"},
		{int64(30), int64(25), int64(35), int64(25)},
		{"eng", "eng", "sales", "sales"},
	}
	return NewFrame(schema, cols)
}

func TestProject_RenamesAndReorders(t *testing.T) {
	lf := FromFrame(peopleFrame())
	out := Project(lf, []RenameField{{From: "dept", To: "dept"}, {From: "name", To: "person"}})
	f, err := out.Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.Schema.Names()[0] != "dept" || f.Schema.Names()[1] != "person" {
		t.Fatalf("got column order %v", f.Schema.Names())
	}
	col, _ := f.Column("person")
	if col[0] != "alice" {
		t.Fatalf("got %v, want alice", col[0])
	}
}

func TestFilter_KeepsMatchingRows(t *testing.T) {
	lf := FromFrame(peopleFrame())
	pred := CmpExpr{Op: CmpGt, L: ColRef{Name: "age"}, R: LitVal{Value: int64(25), T: intType()}}
	f, err := Filter(lf, pred).Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.NRows != 2 {
		t.Fatalf("got %d rows, want 2", f.NRows)
	}
	col, _ := f.Column("name")
	if col[0] != "alice" || col[1] != "carol" {
		t.Fatalf("got %v, want [alice carol]", col)
	}
}

func TestSort_StableAndMultiKey(t *testing.T) {
	lf := FromFrame(peopleFrame())
	f, err := Sort(lf, []SortKey{{Col: "age"}, {Col: "name"}}).Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	col, _ := f.Column("name")
	want := []any{"bob", "dave", "alice", "carol"}
	for i, w := range want {
		if col[i] != w {
			t.Fatalf("got %v, want %v", col, want)
		}
	}
}

func TestSort_NullsSortLast(t *testing.T) {
	schema := Schema{Fields: []Field{{Name: "x", Type: intType()}}}
	f0 := NewFrame(schema, [][]any{{int64(2), nil, int64(1)}})
	out, err := Sort(FromFrame(f0), []SortKey{{Col: "x", Desc: true}}).Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	col, _ := out.Column("x")
	if col[len(col)-1] != nil {
		t.Fatalf("expected null last, got %v", col)
	}
}

func TestDistinct_FirstOccurrenceWins(t *testing.T) {
	lf := FromFrame(peopleFrame())
	f, err := Distinct(lf, []string{"dept"}).Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.NRows != 2 {
		t.Fatalf("got %d rows, want 2", f.NRows)
	}
	col, _ := f.Column("dept")
	if col[0] != "eng" || col[1] != "sales" {
		t.Fatalf("got %v", col)
	}
}

func TestGroupAgg_GroupsAndCounts(t *testing.T) {
	lf := FromFrame(peopleFrame())
	f, err := GroupAgg(lf, []string{"dept"}, []AggField{{Name: "n", Agg: AggCall{Fn: "n"}}}).Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.NRows != 2 {
		t.Fatalf("got %d groups, want 2", f.NRows)
	}
	nCol, _ := f.Column("n")
	if nCol[0] != int64(2) || nCol[1] != int64(2) {
		t.Fatalf("got %v, want [2 2]", nCol)
	}
}

func TestGroupAgg_NoKeysAggregatesWholeFrame(t *testing.T) {
	lf := FromFrame(peopleFrame())
	f, err := GroupAgg(lf, nil, []AggField{{Name: "n", Agg: AggCall{Fn: "n"}}}).Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.NRows != 1 {
		t.Fatalf("got %d rows, want 1", f.NRows)
	}
	nCol, _ := f.Column("n")
	if nCol[0] != int64(4) {
		t.Fatalf("got %v, want 4", nCol[0])
	}
}

func leftRight() (*Frame, *Frame) {
	lSchema := Schema{Fields: []Field{{Name: "id", Type: intType()}, {Name: "name", Type: stringType()}}}
	left := NewFrame(lSchema, [][]any{{int64(1), int64(2), int64(3)}, {"a", "b", "c"}})

	rSchema := Schema{Fields: []Field{{Name: "id", Type: intType()}, {Name: "score", Type: intType()}}}
	right := NewFrame(rSchema, [][]any{{int64(2), int64(3)}, {int64(90), int64(80)}})
	return left, right
}

func TestJoin_Inner(t *testing.T) {
	left, right := leftRight()
	out, err := Join(FromFrame(left), FromFrame(right), InnerJoin, []JoinOn{{Left: "id", Right: "id"}}).Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.NRows != 2 {
		t.Fatalf("got %d rows, want 2", out.NRows)
	}
}

func TestJoin_Left_KeepsUnmatchedWithNulls(t *testing.T) {
	left, right := leftRight()
	out, err := Join(FromFrame(left), FromFrame(right), LeftJoin, []JoinOn{{Left: "id", Right: "id"}}).Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.NRows != 3 {
		t.Fatalf("got %d rows, want 3", out.NRows)
	}
	scoreCol, _ := out.Column("score")
	if scoreCol[0] != nil {
		t.Fatalf("expected unmatched left row's score to be nil, got %v", scoreCol[0])
	}
}

func TestJoin_Anti_KeepsOnlyUnmatchedLeftColumnsOnly(t *testing.T) {
	left, right := leftRight()
	out, err := Join(FromFrame(left), FromFrame(right), AntiJoin, []JoinOn{{Left: "id", Right: "id"}}).Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.NRows != 1 {
		t.Fatalf("got %d rows, want 1", out.NRows)
	}
	if len(out.Schema.Fields) != 2 {
		t.Fatalf("expected anti_join to keep only left's columns, got %v", out.Schema.Names())
	}
	nameCol, _ := out.Column("name")
	if nameCol[0] != "a" {
		t.Fatalf("got %v, want [a]", nameCol)
	}
}

func TestJoin_Cross_IsCartesianProduct(t *testing.T) {
	left, right := leftRight()
	out, err := Join(FromFrame(left), FromFrame(right), CrossJoin, nil).Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.NRows != 6 {
		t.Fatalf("got %d rows, want 3*2=6", out.NRows)
	}
}

func TestUnnest_ExplodesListColumn(t *testing.T) {
	schema := Schema{Fields: []Field{
		{Name: "id", Type: intType()},
		{Name: "tags", Type: Type{Kind: KindList, Elem: &Type{Kind: KindString}}},
	}}
	f0 := NewFrame(schema, [][]any{{int64(1), int64(2)}, {[]any{"x", "y"}, []any{}}})
	out, err := Unnest(FromFrame(f0), "tags").Execute()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.NRows != 3 {
		t.Fatalf("got %d rows, want 3 (2 exploded + 1 empty-list row)", out.NRows)
	}
}
