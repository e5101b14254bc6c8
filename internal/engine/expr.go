package engine

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// RowExpr is a compiled logical column expression evaluated once per row.
// The compiler (internal/compile) builds these from filter/mutate ASTs;
// the plan nodes in ops.go call Eval.
type RowExpr interface {
	Eval(rowIdx int, row []any, schema Schema) (any, error)
	Type(schema Schema) Type
	rowExprNode()
}

// Preparable is implemented by expressions that must see the full input
// frame once before per-row evaluation, such as a scalar mean() broadcast
// in mutate(). The mutate plan node calls Prepare on each mutate()
// expression that is itself Preparable before evaluating rows; a
// Preparable nested inside another expression is not prepared.
type Preparable interface {
	Prepare(frame *Frame) (RowExpr, error)
}

// ColRef reads a named column from the current row.
type ColRef struct{ Name string }

func (c ColRef) rowExprNode() {}
func (c ColRef) Eval(rowIdx int, row []any, schema Schema) (any, error) {
	i, ok := schema.IndexOf(c.Name)
	if !ok {
		return nil, fmt.Errorf("unknown column %q", c.Name)
	}
	return row[i], nil
}
func (c ColRef) Type(schema Schema) Type {
	if f, ok := schema.FieldByName(c.Name); ok {
		return f.Type
	}
	return Type{Kind: KindString}
}

// LitVal is a constant value shared by every row.
type LitVal struct {
	Value any
	T     Type
}

func (l LitVal) rowExprNode()                                          {}
func (l LitVal) Eval(rowIdx int, row []any, schema Schema) (any, error) { return l.Value, nil }
func (l LitVal) Type(schema Schema) Type                                { return l.T }

// CmpOp values mirror ast.CmpOp without importing the ast package, keeping
// engine free of a dependency on the language layer.
type CmpOp string

const (
	CmpEq CmpOp = "=="
	CmpNe CmpOp = "!="
	CmpLt CmpOp = "<"
	CmpLe CmpOp = "<="
	CmpGt CmpOp = ">"
	CmpGe CmpOp = ">="
)

// CmpExpr compares two expressions.
type CmpExpr struct {
	Op   CmpOp
	L, R RowExpr
}

func (c CmpExpr) rowExprNode() {}
func (c CmpExpr) Type(schema Schema) Type { return Type{Kind: KindBool} }
func (c CmpExpr) Eval(rowIdx int, row []any, schema Schema) (any, error) {
	lv, err := c.L.Eval(rowIdx, row, schema)
	if err != nil {
		return nil, err
	}
	rv, err := c.R.Eval(rowIdx, row, schema)
	if err != nil {
		return nil, err
	}
	if lv == nil || rv == nil {
		return false, nil
	}
	cmp, err := compareValues(lv, rv)
	if err != nil {
		return nil, err
	}
	switch c.Op {
	case CmpEq:
		return cmp == 0, nil
	case CmpNe:
		return cmp != 0, nil
	case CmpLt:
		return cmp < 0, nil
	case CmpLe:
		return cmp <= 0, nil
	case CmpGt:
		return cmp > 0, nil
	case CmpGe:
		return cmp >= 0, nil
	}
	return nil, fmt.Errorf("unknown comparison operator %q", c.Op)
}

// compareValues orders two scalar values of the same logical family,
// returning -1/0/1 the way bytes.Compare does.
func compareValues(a, b any) (int, error) {
	switch av := a.(type) {
	case int64:
		bf, ok := toFloat(b)
		if !ok {
			return 0, fmt.Errorf("cannot compare %T with %T", a, b)
		}
		af := float64(av)
		return cmpFloat(af, bf), nil
	case float64:
		bf, ok := toFloat(b)
		if !ok {
			return 0, fmt.Errorf("cannot compare %T with %T", a, b)
		}
		return cmpFloat(av, bf), nil
	case string:
		bs, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("cannot compare string with %T", b)
		}
		return strings.Compare(av, bs), nil
	case bool:
		bb, ok := b.(bool)
		if !ok {
			return 0, fmt.Errorf("cannot compare bool with %T", b)
		}
		if av == bb {
			return 0, nil
		}
		if av {
			return 1, nil
		}
		return -1, nil
	case time.Time:
		bt, ok := b.(time.Time)
		if !ok {
			return 0, fmt.Errorf("cannot compare timestamp with %T", b)
		}
		switch {
		case av.Before(bt):
			return -1, nil
		case av.After(bt):
			return 1, nil
		default:
			return 0, nil
		}
	case time.Duration:
		bd, ok := b.(time.Duration)
		if !ok {
			return 0, fmt.Errorf("cannot compare duration with %T", b)
		}
		switch {
		case av < bd:
			return -1, nil
		case av > bd:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, fmt.Errorf("cannot compare value of type %T", a)
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// LogicalOp is '&' (and) or '|' (or).
type LogicalOp string

const (
	LogicalAnd LogicalOp = "&"
	LogicalOr  LogicalOp = "|"
)

// LogicalExpr combines two boolean expressions.
type LogicalExpr struct {
	Op   LogicalOp
	L, R RowExpr
}

func (l LogicalExpr) rowExprNode()         {}
func (l LogicalExpr) Type(schema Schema) Type { return Type{Kind: KindBool} }
func (l LogicalExpr) Eval(rowIdx int, row []any, schema Schema) (any, error) {
	lv, err := l.L.Eval(rowIdx, row, schema)
	if err != nil {
		return nil, err
	}
	lb, _ := lv.(bool)
	if l.Op == LogicalAnd && !lb {
		return false, nil
	}
	if l.Op == LogicalOr && lb {
		return true, nil
	}
	rv, err := l.R.Eval(rowIdx, row, schema)
	if err != nil {
		return nil, err
	}
	rb, _ := rv.(bool)
	return rb, nil
}

// NotExpr negates a boolean expression.
type NotExpr struct{ Inner RowExpr }

func (n NotExpr) rowExprNode()         {}
func (n NotExpr) Type(schema Schema) Type { return Type{Kind: KindBool} }
func (n NotExpr) Eval(rowIdx int, row []any, schema Schema) (any, error) {
	v, err := n.Inner.Eval(rowIdx, row, schema)
	if err != nil {
		return nil, err
	}
	b, _ := v.(bool)
	return !b, nil
}

// ArithOp is one of + - * /.
type ArithOp string

const (
	ArithAdd ArithOp = "+"
	ArithSub ArithOp = "-"
	ArithMul ArithOp = "*"
	ArithDiv ArithOp = "/"
)

// ArithExpr performs numeric, duration, or timestamp arithmetic.
type ArithExpr struct {
	Op   ArithOp
	L, R RowExpr
}

func (a ArithExpr) rowExprNode() {}
func (a ArithExpr) Type(schema Schema) Type {
	lt := a.L.Type(schema)
	rt := a.R.Type(schema)
	if lt.Kind == KindTimestamp && rt.Kind == KindTimestamp && a.Op == ArithSub {
		return Type{Kind: KindDuration}
	}
	if lt.Kind == KindTimestamp && rt.Kind == KindDuration {
		return Type{Kind: KindTimestamp}
	}
	if lt.Kind == KindDuration || rt.Kind == KindDuration {
		return Type{Kind: KindDuration}
	}
	if lt.Kind == KindFloat64 || rt.Kind == KindFloat64 {
		return Type{Kind: KindFloat64}
	}
	return Type{Kind: KindInt64}
}

func (a ArithExpr) Eval(rowIdx int, row []any, schema Schema) (any, error) {
	lv, err := a.L.Eval(rowIdx, row, schema)
	if err != nil {
		return nil, err
	}
	rv, err := a.R.Eval(rowIdx, row, schema)
	if err != nil {
		return nil, err
	}
	if lv == nil || rv == nil {
		return nil, nil
	}

	// timestamp - timestamp => duration
	if lt, ok := lv.(time.Time); ok {
		if rt, ok := rv.(time.Time); ok && a.Op == ArithSub {
			return lt.Sub(rt), nil
		}
		if rd, ok := rv.(time.Duration); ok {
			switch a.Op {
			case ArithAdd:
				return lt.Add(rd), nil
			case ArithSub:
				return lt.Add(-rd), nil
			}
			return nil, fmt.Errorf("invalid timestamp/duration operator %q", a.Op)
		}
	}
	if ld, ok := lv.(time.Duration); ok {
		if rd, ok := rv.(time.Duration); ok {
			return applyArith(a.Op, float64(ld), float64(rd), true)
		}
	}

	lf, lok := toFloat(lv)
	rf, rok := toFloat(rv)
	if !lok || !rok {
		return nil, fmt.Errorf("arithmetic requires numeric operands, got %T and %T", lv, rv)
	}
	_, lIsFloat := lv.(float64)
	_, rIsFloat := rv.(float64)
	result, err := applyArith(a.Op, lf, rf, false)
	if err != nil {
		return nil, err
	}
	if lIsFloat || rIsFloat {
		return result.(float64), nil
	}
	return int64(result.(float64)), nil
}

func applyArith(op ArithOp, l, r float64, duration bool) (any, error) {
	var v float64
	switch op {
	case ArithAdd:
		v = l + r
	case ArithSub:
		v = l - r
	case ArithMul:
		v = l * r
	case ArithDiv:
		if r == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		v = l / r
	default:
		return nil, fmt.Errorf("unknown arithmetic operator %q", op)
	}
	if duration {
		return time.Duration(v), nil
	}
	return v, nil
}

// NegExpr negates a numeric or duration expression.
type NegExpr struct{ Inner RowExpr }

func (n NegExpr) rowExprNode()         {}
func (n NegExpr) Type(schema Schema) Type { return n.Inner.Type(schema) }
func (n NegExpr) Eval(rowIdx int, row []any, schema Schema) (any, error) {
	v, err := n.Inner.Eval(rowIdx, row, schema)
	if err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case int64:
		return -x, nil
	case float64:
		return -x, nil
	case time.Duration:
		return -x, nil
	default:
		return nil, fmt.Errorf("cannot negate value of type %T", v)
	}
}

// ContainsExpr implements contains(col, pattern): regex match against a
// string column, or element-wise match/equality against a list column.
type ContainsExpr struct {
	Col     RowExpr
	Pattern string
	re      *regexp.Regexp
	Numeric bool
	Num     float64
}

func (c *ContainsExpr) rowExprNode()         {}
func (c *ContainsExpr) Type(schema Schema) Type { return Type{Kind: KindBool} }
func (c *ContainsExpr) compiled() (*regexp.Regexp, error) {
	if c.re != nil {
		return c.re, nil
	}
	re, err := regexp.Compile(c.Pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid contains() pattern %q: %w", c.Pattern, err)
	}
	c.re = re
	return re, nil
}
func (c *ContainsExpr) Eval(rowIdx int, row []any, schema Schema) (any, error) {
	v, err := c.Col.Eval(rowIdx, row, schema)
	if err != nil {
		return nil, err
	}
	switch val := v.(type) {
	case string:
		re, err := c.compiled()
		if err != nil {
			return nil, err
		}
		return re.MatchString(val), nil
	case []any:
		if c.Numeric {
			for _, e := range val {
				if f, ok := toFloat(e); ok && f == c.Num {
					return true, nil
				}
			}
			return false, nil
		}
		re, err := c.compiled()
		if err != nil {
			return nil, err
		}
		for _, e := range val {
			if s, ok := e.(string); ok && re.MatchString(s) {
				return true, nil
			}
		}
		return false, nil
	case nil:
		return false, nil
	default:
		return nil, fmt.Errorf("contains() requires a string or list column, got %T", v)
	}
}

// IsNullExpr implements is_null(col).
type IsNullExpr struct{ Col RowExpr }

func (e IsNullExpr) rowExprNode()         {}
func (e IsNullExpr) Type(schema Schema) Type { return Type{Kind: KindBool} }
func (e IsNullExpr) Eval(rowIdx int, row []any, schema Schema) (any, error) {
	v, err := e.Col.Eval(rowIdx, row, schema)
	if err != nil {
		return nil, err
	}
	return v == nil, nil
}

// LenExpr implements len(col): element count for lists, character count
// for strings.
type LenExpr struct{ Col RowExpr }

func (e LenExpr) rowExprNode()         {}
func (e LenExpr) Type(schema Schema) Type { return Type{Kind: KindInt64} }
func (e LenExpr) Eval(rowIdx int, row []any, schema Schema) (any, error) {
	v, err := e.Col.Eval(rowIdx, row, schema)
	if err != nil {
		return nil, err
	}
	switch val := v.(type) {
	case string:
		return int64(len([]rune(val))), nil
	case []any:
		return int64(len(val)), nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("len() requires a string or list column, got %T", v)
	}
}

// FieldExpr implements field(struct_col, name): struct sub-field projection.
type FieldExpr struct {
	Struct RowExpr
	Name   string
}

func (e FieldExpr) rowExprNode() {}
func (e FieldExpr) Type(schema Schema) Type {
	st := e.Struct.Type(schema)
	for _, f := range st.Fields {
		if f.Name == e.Name {
			return f.Type
		}
	}
	return Type{Kind: KindString}
}
func (e FieldExpr) Eval(rowIdx int, row []any, schema Schema) (any, error) {
	v, err := e.Struct.Eval(rowIdx, row, schema)
	if err != nil {
		return nil, err
	}
	m, ok := v.(map[string]any)
	if !ok {
		if v == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("field() requires a struct column, got %T", v)
	}
	return m[e.Name], nil
}

// DurationUnit is one of the nanos/micros/millis/secs families.
type DurationUnit int

const (
	UnitNanos DurationUnit = iota
	UnitMicros
	UnitMillis
	UnitSecs
)

func (u DurationUnit) scale() time.Duration {
	switch u {
	case UnitNanos:
		return time.Nanosecond
	case UnitMicros:
		return time.Microsecond
	case UnitMillis:
		return time.Millisecond
	case UnitSecs:
		return time.Second
	}
	return time.Nanosecond
}

// DurFromNumber implements dnanos/dmicros/dmillis/dsecs: number -> duration.
type DurFromNumber struct {
	Unit  DurationUnit
	Inner RowExpr
}

func (d DurFromNumber) rowExprNode()         {}
func (d DurFromNumber) Type(schema Schema) Type { return Type{Kind: KindDuration} }
func (d DurFromNumber) Eval(rowIdx int, row []any, schema Schema) (any, error) {
	v, err := d.Inner.Eval(rowIdx, row, schema)
	if err != nil {
		return nil, err
	}
	f, ok := toFloat(v)
	if !ok {
		return nil, fmt.Errorf("duration constructor requires a numeric operand, got %T", v)
	}
	return time.Duration(f * float64(d.Unit.scale())), nil
}

// NumberFromDur implements nanos/micros/millis/secs: duration -> number.
type NumberFromDur struct {
	Unit  DurationUnit
	Inner RowExpr
}

func (d NumberFromDur) rowExprNode()         {}
func (d NumberFromDur) Type(schema Schema) Type { return Type{Kind: KindFloat64} }
func (d NumberFromDur) Eval(rowIdx int, row []any, schema Schema) (any, error) {
	v, err := d.Inner.Eval(rowIdx, row, schema)
	if err != nil {
		return nil, err
	}
	dur, ok := v.(time.Duration)
	if !ok {
		return nil, fmt.Errorf("duration accessor requires a duration operand, got %T", v)
	}
	return float64(dur) / float64(d.Unit.scale()), nil
}

// RowIndexExpr implements row(): the zero-based row index, as int64.
type RowIndexExpr struct{}

func (RowIndexExpr) rowExprNode()         {}
func (RowIndexExpr) Type(schema Schema) Type { return Type{Kind: KindInt64} }
func (RowIndexExpr) Eval(rowIdx int, row []any, schema Schema) (any, error) {
	return int64(rowIdx), nil
}

// BroadcastAgg implements a scalar mean/max/min/median over a column used
// inside mutate(), which the engine must resolve once against the whole
// input frame before any row is evaluated. It implements Preparable;
// Prepare computes the aggregate and returns a LitVal standing in for it.
type BroadcastAgg struct {
	Fn  string
	Col string
}

func (b BroadcastAgg) rowExprNode()         {}
func (b BroadcastAgg) Type(schema Schema) Type { return schemaNumericType(schema, b.Col) }
func (b BroadcastAgg) Eval(rowIdx int, row []any, schema Schema) (any, error) {
	return nil, fmt.Errorf("%s(%s) must be resolved via Prepare before evaluation", b.Fn, b.Col)
}
func (b BroadcastAgg) Prepare(frame *Frame) (RowExpr, error) {
	col, ok := frame.Column(b.Col)
	if !ok {
		return nil, fmt.Errorf("unknown column %q", b.Col)
	}
	v, err := scalarAgg(b.Fn, col)
	if err != nil {
		return nil, err
	}
	return LitVal{Value: v, T: b.Type(frame.Schema)}, nil
}

func schemaNumericType(schema Schema, col string) Type {
	if f, ok := schema.FieldByName(col); ok {
		return f.Type
	}
	return Type{Kind: KindFloat64}
}

func scalarAgg(fn string, col []any) (any, error) {
	vals := numericValues(col)
	if len(vals) == 0 {
		return nil, nil
	}
	switch fn {
	case "mean":
		return mean(vals), nil
	case "max":
		return maxOf(vals), nil
	case "min":
		return minOf(vals), nil
	case "median":
		return median(vals), nil
	default:
		return nil, fmt.Errorf("unsupported scalar aggregate %q", fn)
	}
}

func numericValues(col []any) []float64 {
	out := make([]float64, 0, len(col))
	for _, v := range col {
		if f, ok := toFloat(v); ok {
			out = append(out, f)
		}
	}
	return out
}
