package engine

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// AggExpr is a compiled summarize() expression: it reduces the rows of one
// group down to a single value. Unlike RowExpr it sees the whole group at
// once, since aggregates like mean() or n() are not defined per row.
type AggExpr interface {
	Eval(frame *Frame, rowIdxs []int) (any, error)
	Type(schema Schema) Type
	aggExprNode()
}

// AggCall is the general summarize() aggregate: fn(col) or fn(col, arg).
type AggCall struct {
	Fn  string
	Col string
	// Arg holds the quantile() probability; unused by other functions.
	Arg float64
}

func (a AggCall) aggExprNode() {}

func (a AggCall) Type(schema Schema) Type {
	switch a.Fn {
	case "n":
		return Type{Kind: KindInt64}
	case "list":
		elem := schemaNumericType(schema, a.Col)
		return Type{Kind: KindList, Elem: &elem}
	case "first", "last", "min", "max":
		return schemaNumericType(schema, a.Col)
	default:
		return Type{Kind: KindFloat64}
	}
}

func (a AggCall) Eval(frame *Frame, rowIdxs []int) (any, error) {
	if a.Fn == "n" {
		return int64(len(rowIdxs)), nil
	}
	col, ok := frame.Column(a.Col)
	if !ok {
		return nil, fmt.Errorf("unknown column %q", a.Col)
	}
	group := make([]any, len(rowIdxs))
	for i, idx := range rowIdxs {
		group[i] = col[idx]
	}

	switch a.Fn {
	case "list":
		out := make([]any, 0, len(group))
		for _, v := range group {
			if v != nil {
				out = append(out, v)
			}
		}
		return out, nil
	case "first":
		for _, v := range group {
			if v != nil {
				return v, nil
			}
		}
		return nil, nil
	case "last":
		for i := len(group) - 1; i >= 0; i-- {
			if group[i] != nil {
				return group[i], nil
			}
		}
		return nil, nil
	}

	vals := numericValues(group)
	if len(vals) == 0 {
		return nil, nil
	}
	switch a.Fn {
	case "sum":
		var s float64
		for _, v := range vals {
			s += v
		}
		return maybeInt(s, col), nil
	case "mean":
		return mean(vals), nil
	case "median":
		return median(vals), nil
	case "min":
		return maybeInt(minOf(vals), col), nil
	case "max":
		return maybeInt(maxOf(vals), col), nil
	case "sd":
		return stddev(vals), nil
	case "var":
		return variance(vals), nil
	case "quantile":
		return quantile(vals, a.Arg), nil
	default:
		return nil, fmt.Errorf("unsupported aggregate function %q", a.Fn)
	}
}

// maybeInt preserves int64 results for sum/min/max when the source column
// itself is integral, matching dplyr's type-preserving reductions.
func maybeInt(f float64, col []any) any {
	for _, v := range col {
		switch v.(type) {
		case int64:
			return int64(f)
		case float64:
			return f
		}
	}
	return f
}

func mean(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s / float64(len(vals))
}

func maxOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minOf(vals []float64) float64 {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func sorted(vals []float64) []float64 {
	out := make([]float64, len(vals))
	copy(out, vals)
	sort.Float64s(out)
	return out
}

func median(vals []float64) float64 {
	return quantile(vals, 0.5)
}

// quantile uses linear interpolation between closest ranks, matching the
// default method most dplyr-adjacent tools use for quantile()/median().
func quantile(vals []float64, q float64) float64 {
	s := sorted(vals)
	if len(s) == 1 {
		return s[0]
	}
	pos := q * float64(len(s)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return s[lo]
	}
	frac := pos - float64(lo)
	return s[lo]*(1-frac) + s[hi]*frac
}

func variance(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := mean(vals)
	var ss float64
	for _, v := range vals {
		d := v - m
		ss += d * d
	}
	return ss / float64(len(vals)-1)
}

func stddev(vals []float64) float64 {
	return math.Sqrt(variance(vals))
}

// AggDuration summarizes a duration column via sum/mean/min/max, kept
// separate from AggCall's numeric path because time.Duration needs its own
// scale to render correctly after the reduction.
type AggDuration struct {
	Fn  string
	Col string
}

func (a AggDuration) aggExprNode()            {}
func (a AggDuration) Type(schema Schema) Type { return Type{Kind: KindDuration} }
func (a AggDuration) Eval(frame *Frame, rowIdxs []int) (any, error) {
	col, ok := frame.Column(a.Col)
	if !ok {
		return nil, fmt.Errorf("unknown column %q", a.Col)
	}
	var durs []time.Duration
	for _, idx := range rowIdxs {
		if d, ok := col[idx].(time.Duration); ok {
			durs = append(durs, d)
		}
	}
	if len(durs) == 0 {
		return nil, nil
	}
	switch a.Fn {
	case "sum":
		var s time.Duration
		for _, d := range durs {
			s += d
		}
		return s, nil
	case "mean":
		var s time.Duration
		for _, d := range durs {
			s += d
		}
		return s / time.Duration(len(durs)), nil
	case "min":
		m := durs[0]
		for _, d := range durs[1:] {
			if d < m {
				m = d
			}
		}
		return m, nil
	case "max":
		m := durs[0]
		for _, d := range durs[1:] {
			if d > m {
				m = d
			}
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported duration aggregate %q", a.Fn)
	}
}
