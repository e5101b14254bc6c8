package engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ReadNDJSON reads a newline-delimited JSON file at path into a Frame. The
// schema is the union of every object's keys seen in the file, in
// first-seen order; a key absent from a given record reads as null.
func ReadNDJSON(path string) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var order []string
	seen := map[string]bool{}
	var records []map[string]any

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		dec := json.NewDecoder(strings.NewReader(line))
		dec.Token()
		for dec.More() {
			tok, _ := dec.Token()
			var skip json.RawMessage
			dec.Decode(&skip)
			if k, _ := tok.(string); !seen[k] {
				seen[k] = true
				order = append(order, k)
			}
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	kinds := make([]Kind, len(order))
	for i, k := range order {
		kinds[i] = inferJSONKind(records, k)
	}
	schema := Schema{Fields: make([]Field, len(order))}
	for i, k := range order {
		schema.Fields[i] = Field{Name: k, Type: Type{Kind: kinds[i]}}
	}

	cols := make([][]any, len(order))
	for c := range cols {
		cols[c] = make([]any, len(records))
	}
	for r, rec := range records {
		for c, k := range order {
			cols[c][r] = coerceJSONValue(rec[k], kinds[c])
		}
	}
	return NewFrame(schema, cols), nil
}

func inferJSONKind(records []map[string]any, key string) Kind {
	for _, rec := range records {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case bool:
			return KindBool
		case string:
			return KindString
		case float64:
			if val == float64(int64(val)) {
				return KindInt64
			}
			return KindFloat64
		case []any:
			return KindList
		case map[string]any:
			return KindStruct
		}
	}
	return KindString
}

func coerceJSONValue(v any, kind Kind) any {
	if v == nil {
		return nil
	}
	switch kind {
	case KindInt64:
		if f, ok := v.(float64); ok {
			return int64(f)
		}
		return nil
	case KindFloat64:
		if f, ok := v.(float64); ok {
			return f
		}
		return nil
	case KindList:
		if list, ok := v.([]any); ok {
			return list
		}
		return nil
	case KindStruct:
		if m, ok := v.(map[string]any); ok {
			return m
		}
		return nil
	default:
		return v
	}
}

// WriteNDJSON writes a Frame to path as newline-delimited JSON objects.
func WriteNDJSON(path string, frame *Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	names := frame.Schema.Names()
	for i := 0; i < frame.NRows; i++ {
		row := frame.Row(i)
		rec := make(map[string]any, len(names))
		for c, name := range names {
			rec[name] = row[c]
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return w.Flush()
}
