package engine

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"
)

// ReadParquet reads a Parquet file at path into a Frame using the file's
// own embedded schema; dply never needs a caller-supplied Go struct since
// columns and types are discovered straight from the file footer.
func ReadParquet(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet file %s: %w", path, err)
	}

	fields := pf.Schema().Fields()
	schema := Schema{Fields: make([]Field, len(fields))}
	for i, pfield := range fields {
		schema.Fields[i] = Field{Name: pfield.Name(), Type: parquetKindToType(pfield)}
	}

	cols := make([][]any, len(fields))

	reader := parquet.NewReader(pf)
	defer reader.Close()

	buf := make([]parquet.Row, 128)
	for {
		n, err := reader.ReadRows(buf)
		for i := 0; i < n; i++ {
			row := buf[i]
			for _, v := range row {
				ci := v.Column()
				if ci >= len(cols) {
					continue
				}
				cols[ci] = append(cols[ci], parquetValueToAny(v))
			}
		}
		if err != nil {
			break
		}
	}
	for c := range cols {
		if cols[c] == nil {
			cols[c] = []any{}
		}
	}
	return NewFrame(schema, cols), nil
}

func parquetKindToType(f parquet.Field) Type {
	switch f.Type().Kind() {
	case parquet.Boolean:
		return Type{Kind: KindBool}
	case parquet.Int32, parquet.Int64, parquet.Int96:
		return Type{Kind: KindInt64}
	case parquet.Float, parquet.Double:
		return Type{Kind: KindFloat64}
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return Type{Kind: KindString}
	default:
		return Type{Kind: KindString}
	}
}

func parquetValueToAny(v parquet.Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}

// WriteParquet writes a Frame to path, building a Parquet schema that
// mirrors the frame's own column types.
func WriteParquet(path string, frame *Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	group := parquet.Group{}
	for _, field := range frame.Schema.Fields {
		group[field.Name] = parquet.Optional(parquetNodeFor(field.Type))
	}
	schema := parquet.NewSchema("dply", group)

	writer := parquet.NewGenericWriter[map[string]any](f, schema)
	names := frame.Schema.Names()
	for i := 0; i < frame.NRows; i++ {
		row := frame.Row(i)
		rec := make(map[string]any, len(names))
		for c, name := range names {
			rec[name] = row[c]
		}
		if _, err := writer.Write([]map[string]any{rec}); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

func parquetNodeFor(t Type) parquet.Node {
	switch t.Kind {
	case KindBool:
		return parquet.Leaf(parquet.BooleanType)
	case KindInt64:
		return parquet.Int(64)
	case KindFloat64:
		return parquet.Leaf(parquet.DoubleType)
	case KindTimestamp:
		return parquet.Timestamp(parquet.Nanosecond)
	default:
		return parquet.String()
	}
}
