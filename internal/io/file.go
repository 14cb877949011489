package io

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/dsformat/internal/dataset"
	"github.com/pierrec/lz4/v4"
)

// Format identifies a file format
type Format int

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatJSON
	FormatJSONLines
	FormatParquet
)

var formatNames = map[Format]string{
	FormatUnknown:   "unknown",
	FormatCSV:       "csv",
	FormatJSON:      "json",
	FormatJSONLines: "jsonl",
	FormatParquet:   "parquet",
}

func (f Format) String() string {
	return formatNames[f]
}

const lz4Ext = ".lz4"

// DetectFormat infers the format from a path extension. A trailing .lz4
// marks the stream as lz4-framed and is stripped before detection.
func DetectFormat(path string) (format Format, compressed bool, err error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, lz4Ext) {
		compressed = true
		lower = strings.TrimSuffix(lower, lz4Ext)
	}

	switch filepath.Ext(lower) {
	case ".csv":
		return FormatCSV, compressed, nil
	case ".json":
		return FormatJSON, compressed, nil
	case ".jsonl", ".ndjson":
		return FormatJSONLines, compressed, nil
	case ".parquet", ".pq":
		return FormatParquet, compressed, nil
	default:
		return FormatUnknown, compressed, fmt.Errorf("cannot infer format of %s", path)
	}
}

// NewReader returns a DataReader for format with default options
func NewReader(r io.Reader, format Format, mem memory.Allocator) (DataReader, error) {
	switch format {
	case FormatCSV:
		return NewCSVReader(r, DefaultCSVOptions(), mem), nil
	case FormatJSON:
		return NewJSONReader(r, DefaultJSONOptions(), mem), nil
	case FormatJSONLines:
		return NewJSONReader(r, JSONOptions{Format: JSONLines}, mem), nil
	case FormatParquet:
		return NewParquetReader(r, DefaultParquetOptions(), mem), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// NewWriter returns a DataWriter for format with default options
func NewWriter(w io.Writer, format Format) (DataWriter, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(w, DefaultCSVOptions()), nil
	case FormatJSON:
		return NewJSONWriter(w, DefaultJSONOptions()), nil
	case FormatJSONLines:
		return NewJSONWriter(w, JSONOptions{Format: JSONLines}), nil
	case FormatParquet:
		return NewParquetWriter(w, DefaultParquetOptions()), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// NewLZ4Reader wraps r so that it decompresses an lz4 frame
func NewLZ4Reader(r io.Reader) io.Reader {
	return lz4.NewReader(r)
}

// NewLZ4Writer wraps w in an lz4 frame. Close must be called to flush the frame.
func NewLZ4Writer(w io.Writer) io.WriteCloser {
	return lz4.NewWriter(w)
}

// ReadFile reads a Dataset from path, choosing the reader by extension
func ReadFile(path string, mem memory.Allocator) (*dataset.Dataset, error) {
	format, compressed, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var src io.Reader = f
	if compressed {
		src = NewLZ4Reader(f)
	}

	reader, err := NewReader(src, format, mem)
	if err != nil {
		return nil, err
	}

	ds, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ds, nil
}

// WriteFile writes ds to path, choosing the writer by extension
func WriteFile(path string, ds *dataset.Dataset) (err error) {
	format, compressed, err := DetectFormat(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	var dst io.Writer = f
	if compressed {
		zw := NewLZ4Writer(f)
		defer func() { err = errors.Join(err, zw.Close()) }()
		dst = zw
	}

	writer, err := NewWriter(dst, format)
	if err != nil {
		return err
	}

	if err := writer.Write(ds); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
