// Package io provides I/O operations for reading and writing Dataset data.
//
// This package includes readers and writers for CSV, JSON (array and
// lines) and Parquet, with automatic type inference for text formats.
// Empty CSV cells and JSON nulls become null cells; writers render nulls
// back as empty CSV cells, JSON null and Parquet nulls.
//
// Memory management: every Dataset returned by a reader owns Arrow memory
// and must be released by the caller.
package io

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/dsformat/internal/dataset"
)

const (
	// DefaultBatchSize is the default batch size for Parquet writes
	DefaultBatchSize = 1000
)

// DataReader defines the interface for reading data from various sources
type DataReader interface {
	// Read reads data from the source and returns a Dataset
	Read() (*dataset.Dataset, error)
}

// DataWriter defines the interface for writing data to various destinations
type DataWriter interface {
	// Write writes the Dataset to the destination
	Write(ds *dataset.Dataset) error
}

// CSVOptions contains configuration options for CSV operations
type CSVOptions struct {
	// Delimiter is the field delimiter (default: comma)
	Delimiter rune
	// Comment is the comment character (default: 0 = disabled)
	Comment rune
	// Header indicates whether the first row contains headers
	Header bool
	// SkipInitialSpace indicates whether to skip initial whitespace
	SkipInitialSpace bool
	// InferTypes converts columns to bool, int64 or float64 when every non-empty cell parses
	InferTypes bool
}

// DefaultCSVOptions returns default CSV options
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:        ',',
		Comment:          0,
		Header:           true,
		SkipInitialSpace: false,
		InferTypes:       true,
	}
}

// CSVReader reads CSV data and converts it to Datasets
type CSVReader struct {
	reader  io.Reader
	options CSVOptions
	mem     memory.Allocator
}

// NewCSVReader creates a new CSV reader with the specified options
func NewCSVReader(reader io.Reader, options CSVOptions, mem memory.Allocator) *CSVReader {
	return &CSVReader{
		reader:  reader,
		options: options,
		mem:     allocator(mem),
	}
}

// CSVWriter writes Datasets to CSV format
type CSVWriter struct {
	writer  io.Writer
	options CSVOptions
}

// NewCSVWriter creates a new CSV writer with the specified options
func NewCSVWriter(writer io.Writer, options CSVOptions) *CSVWriter {
	return &CSVWriter{
		writer:  writer,
		options: options,
	}
}

// JSONFormat selects the JSON layout
type JSONFormat int

const (
	// JSONArray is a single array of objects
	JSONArray JSONFormat = iota
	// JSONLines is one object per line
	JSONLines
)

// JSONOptions contains configuration options for JSON operations
type JSONOptions struct {
	// Format selects array or lines layout
	Format JSONFormat
	// MaxRecords limits the records read (0 = unlimited)
	MaxRecords int
	// Indent pretty-prints JSON arrays when set
	Indent string
}

// DefaultJSONOptions returns default JSON options
func DefaultJSONOptions() JSONOptions {
	return JSONOptions{
		Format: JSONArray,
	}
}

// JSONReader reads JSON data and converts it to Datasets
type JSONReader struct {
	reader  io.Reader
	options JSONOptions
	mem     memory.Allocator
}

// NewJSONReader creates a new JSON reader with the specified options
func NewJSONReader(reader io.Reader, options JSONOptions, mem memory.Allocator) *JSONReader {
	return &JSONReader{
		reader:  reader,
		options: options,
		mem:     allocator(mem),
	}
}

// JSONWriter writes Datasets to JSON format
type JSONWriter struct {
	writer  io.Writer
	options JSONOptions
}

// NewJSONWriter creates a new JSON writer with the specified options
func NewJSONWriter(writer io.Writer, options JSONOptions) *JSONWriter {
	return &JSONWriter{
		writer:  writer,
		options: options,
	}
}

// ParquetOptions contains configuration options for Parquet operations
type ParquetOptions struct {
	// Compression type for Parquet files: snappy, gzip, lz4, zstd or uncompressed
	Compression string
	// BatchSize for writing operations
	BatchSize int
}

// DefaultParquetOptions returns default Parquet options
func DefaultParquetOptions() ParquetOptions {
	return ParquetOptions{
		Compression: "snappy",
		BatchSize:   DefaultBatchSize,
	}
}

// ParquetReader reads Parquet data and converts it to Datasets
type ParquetReader struct {
	reader  io.Reader
	options ParquetOptions
	mem     memory.Allocator
}

// NewParquetReader creates a new Parquet reader with the specified options
func NewParquetReader(reader io.Reader, options ParquetOptions, mem memory.Allocator) *ParquetReader {
	return &ParquetReader{
		reader:  reader,
		options: options,
		mem:     allocator(mem),
	}
}

// ParquetWriter writes Datasets to Parquet format
type ParquetWriter struct {
	writer  io.Writer
	options ParquetOptions
}

// NewParquetWriter creates a new Parquet writer with the specified options
func NewParquetWriter(writer io.Writer, options ParquetOptions) *ParquetWriter {
	return &ParquetWriter{
		writer:  writer,
		options: options,
	}
}

func allocator(mem memory.Allocator) memory.Allocator {
	if mem == nil {
		return memory.NewGoAllocator()
	}
	return mem
}
