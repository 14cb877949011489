package io

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	json "github.com/goccy/go-json"
	"github.com/paveg/dsformat/internal/common"
	"github.com/paveg/dsformat/internal/dataset"
	"github.com/paveg/dsformat/internal/series"
	"github.com/tidwall/gjson"
)

// Read reads JSON data and returns a Dataset.
// Columns appear in the order their keys are first seen; keys missing from a record are null.
func (r *JSONReader) Read() (*dataset.Dataset, error) {
	var (
		records *recordSet
		err     error
	)

	switch r.options.Format {
	case JSONArray:
		records, err = r.readJSONArray()
	case JSONLines:
		records, err = r.readJSONLines()
	default:
		return nil, fmt.Errorf("unsupported JSON format: %d", r.options.Format)
	}
	if err != nil {
		return nil, err
	}

	return records.toDataset(r.mem)
}

// readJSONArray reads JSON array format.
func (r *JSONReader) readJSONArray() (*recordSet, error) {
	data, err := io.ReadAll(r.reader)
	if err != nil {
		return nil, fmt.Errorf("reading JSON data: %w", err)
	}

	var raw []json.RawMessage
	if unmarshalErr := json.Unmarshal(data, &raw); unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshaling JSON array: %w", unmarshalErr)
	}

	if r.options.MaxRecords > 0 && len(raw) > r.options.MaxRecords {
		raw = raw[:r.options.MaxRecords]
	}

	records := newRecordSet()
	for i, msg := range raw {
		if err := records.add(gjson.ParseBytes(msg)); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return records, nil
}

// readJSONLines reads JSON Lines format.
func (r *JSONReader) readJSONLines() (*recordSet, error) {
	scanner := bufio.NewScanner(r.reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	records := newRecordSet()
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !gjson.Valid(line) {
			return nil, fmt.Errorf("invalid JSON on line %d", lineNum)
		}
		if err := records.add(gjson.Parse(line)); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		if r.options.MaxRecords > 0 && records.rows >= r.options.MaxRecords {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning JSON lines: %w", err)
	}
	return records, nil
}

// recordSet accumulates JSON objects column by column
type recordSet struct {
	order   []string
	columns map[string][]any
	rows    int
}

func newRecordSet() *recordSet {
	return &recordSet{columns: make(map[string][]any)}
}

func (rs *recordSet) add(obj gjson.Result) error {
	if !obj.IsObject() {
		return fmt.Errorf("expected JSON object, got %s", obj.Type)
	}

	obj.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		col, ok := rs.columns[name]
		if !ok {
			rs.order = append(rs.order, name)
			col = make([]any, rs.rows)
		}
		if len(col) > rs.rows {
			// duplicate key, last one wins
			col[rs.rows] = jsonValue(value)
		} else {
			col = append(col, jsonValue(value))
		}
		rs.columns[name] = col
		return true
	})

	rs.rows++
	for name, col := range rs.columns {
		if len(col) < rs.rows {
			rs.columns[name] = append(col, nil)
		}
	}
	return nil
}

func (rs *recordSet) toDataset(mem memory.Allocator) (*dataset.Dataset, error) {
	seriesList := make([]dataset.ISeries, 0, len(rs.order))
	for _, name := range rs.order {
		s, err := columnFromJSON(name, rs.columns[name], mem)
		if err != nil {
			for _, created := range seriesList {
				created.Release()
			}
			return nil, fmt.Errorf("creating series for column %s: %w", name, err)
		}
		seriesList = append(seriesList, s)
	}
	return dataset.NewWithAllocator(mem, seriesList...), nil
}

// columnFromJSON infers the column kind; columns mixing incompatible kinds are read as text
func columnFromJSON(name string, values []any, mem memory.Allocator) (dataset.ISeries, error) {
	if s, err := series.FromValues(name, values, mem); err == nil {
		return s, nil
	}

	text := make([]any, len(values))
	for i, v := range values {
		if v != nil {
			text[i] = common.ToString(v)
		}
	}
	return series.FromKindValues(name, series.KindString, text, mem)
}

// jsonValue converts a gjson value to a Go scalar. Nested objects and arrays keep their raw JSON text.
func jsonValue(value gjson.Result) any {
	switch value.Type {
	case gjson.Null:
		return nil
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		if !strings.ContainsAny(value.Raw, ".eE") {
			if n, err := strconv.ParseInt(value.Raw, 10, 64); err == nil {
				return n
			}
		}
		return value.Float()
	case gjson.String:
		return value.String()
	default:
		return value.Raw
	}
}

// Write writes the Dataset as JSON, keeping column order within each object.
func (w *JSONWriter) Write(ds *dataset.Dataset) error {
	switch w.options.Format {
	case JSONArray:
		return w.writeJSONArray(ds)
	case JSONLines:
		return w.writeJSONLines(ds)
	default:
		return fmt.Errorf("unsupported JSON format: %d", w.options.Format)
	}
}

// writeJSONArray writes JSON array format.
func (w *JSONWriter) writeJSONArray(ds *dataset.Dataset) error {
	enc, err := newRecordEncoder(ds)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := range ds.Len() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.encode(&buf, i); err != nil {
			return err
		}
	}
	buf.WriteByte(']')

	out := buf.Bytes()
	if w.options.Indent != "" {
		var indented bytes.Buffer
		if err := json.Indent(&indented, out, "", w.options.Indent); err != nil {
			return fmt.Errorf("indenting JSON: %w", err)
		}
		indented.WriteByte('\n')
		out = indented.Bytes()
	}

	if _, err := w.writer.Write(out); err != nil {
		return fmt.Errorf("writing JSON array: %w", err)
	}
	return nil
}

// writeJSONLines writes JSON Lines format.
func (w *JSONWriter) writeJSONLines(ds *dataset.Dataset) error {
	enc, err := newRecordEncoder(ds)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w.writer)
	var buf bytes.Buffer
	for i := range ds.Len() {
		buf.Reset()
		if err := enc.encode(&buf, i); err != nil {
			return err
		}
		buf.WriteByte('\n')
		if _, err := bw.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("writing JSON line %d: %w", i, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flushing JSON lines: %w", err)
	}
	return nil
}

// recordEncoder renders dataset rows as JSON objects with pre-encoded keys
type recordEncoder struct {
	keys    [][]byte
	columns []dataset.ISeries
}

func newRecordEncoder(ds *dataset.Dataset) (*recordEncoder, error) {
	names := ds.Columns()
	enc := &recordEncoder{
		keys:    make([][]byte, len(names)),
		columns: make([]dataset.ISeries, len(names)),
	}
	for j, name := range names {
		key, err := json.Marshal(name)
		if err != nil {
			return nil, fmt.Errorf("encoding column name %q: %w", name, err)
		}
		enc.keys[j] = key
		enc.columns[j], _ = ds.Column(name)
	}
	return enc, nil
}

func (e *recordEncoder) encode(buf *bytes.Buffer, row int) error {
	buf.WriteByte('{')
	for j, key := range e.keys {
		if j > 0 {
			buf.WriteByte(',')
		}
		buf.Write(key)
		buf.WriteByte(':')

		value, err := json.Marshal(jsonSafe(e.columns[j].ValueAt(row)))
		if err != nil {
			return fmt.Errorf("encoding row %d column %s: %w", row, e.columns[j].Name(), err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return nil
}

// jsonSafe maps NaN and infinities, which JSON cannot represent, to null
func jsonSafe(v any) any {
	switch f := v.(type) {
	case float64:
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
	case float32:
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return nil
		}
	}
	return v
}
