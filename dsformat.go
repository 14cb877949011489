// Package dsformat provides a column-transformation wrapper over an in-memory
// Arrow-backed dataset. This package is the sole public API for the library.
//
// A Formatter holds one Dataset and exposes hashing, identifier tagging, text
// normalization, filtering, renaming, dropping, constant columns, type
// conversion, missing-value filling and summary statistics. Each successful
// operation replaces the held Dataset with a new one; a failed operation
// leaves it untouched.
package dsformat

import (
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/dsformat/internal/dataset"
	"github.com/paveg/dsformat/internal/errors"
	"github.com/paveg/dsformat/internal/series"
)

// ISeries provides a type-erased interface for Series of any type
type ISeries = series.ISeries

// Row is a single record keyed by column name. Null cells are nil.
type Row = dataset.Row

// Kind identifies the scalar type stored in a column
type Kind = series.Kind

// Column kinds
const (
	KindString  = series.KindString
	KindInt64   = series.KindInt64
	KindInt32   = series.KindInt32
	KindFloat64 = series.KindFloat64
	KindFloat32 = series.KindFloat32
	KindBool    = series.KindBool
)

// ParseKind maps a type name such as "int", "float", "str" or "bool" to a Kind.
func ParseKind(name string) (Kind, error) {
	return series.ParseKind(name)
}

// DatasetError is the error type returned by every dataset operation
type DatasetError = errors.DatasetError

// Sentinel causes. Test for them with errors.Is.
var (
	ErrColumnNotFound = errors.ErrColumnNotFound
	ErrTypeConversion = errors.ErrTypeConversion
	ErrInvalidInput   = errors.ErrInvalidInput
)

// Dataset is the public type for an ordered table of typed, nullable columns.
// It wraps the internal dataset.Dataset to hide implementation details.
type Dataset struct {
	ds *dataset.Dataset
}

// NewDataset creates a new Dataset from ISeries. The Dataset takes ownership of the series.
func NewDataset(series ...ISeries) *Dataset {
	return &Dataset{ds: dataset.New(series...)}
}

// NewDatasetWithAllocator creates a new Dataset whose derived columns are allocated from mem.
func NewDatasetWithAllocator(mem memory.Allocator, series ...ISeries) *Dataset {
	return &Dataset{ds: dataset.NewWithAllocator(mem, series...)}
}

// NewSeries creates a new typed Series from values.
func NewSeries[T any](name string, values []T, mem memory.Allocator) ISeries {
	return series.New(name, values, mem)
}

// NewSeriesWithNulls creates a typed Series where valid[i] == false marks a null cell.
func NewSeriesWithNulls[T any](name string, values []T, valid []bool, mem memory.Allocator) (ISeries, error) {
	return series.NewWithNulls(name, values, valid, mem)
}

// SeriesFromValues creates a Series from untyped values, inferring its kind. nil values are null.
func SeriesFromValues(name string, values []any, mem memory.Allocator) (ISeries, error) {
	return series.FromValues(name, values, mem)
}

// Columns returns the column names in order.
func (d *Dataset) Columns() []string {
	return d.ds.Columns()
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return d.ds.Len()
}

// Width returns the number of columns.
func (d *Dataset) Width() int {
	return d.ds.Width()
}

// Column returns the column with the given name.
func (d *Dataset) Column(name string) (ISeries, bool) {
	return d.ds.Column(name)
}

// HasColumn returns true if the Dataset has the given column.
func (d *Dataset) HasColumn(name string) bool {
	return d.ds.HasColumn(name)
}

// Kinds returns the column kinds keyed by column name.
func (d *Dataset) Kinds() map[string]Kind {
	return d.ds.Kinds()
}

// Row returns the record at index i.
func (d *Dataset) Row(i int) Row {
	return d.ds.Row(i)
}

// Rows returns every record in order.
func (d *Dataset) Rows() []Row {
	return d.ds.Rows()
}

// Values returns every value of the named column in row order.
func (d *Dataset) Values(name string) ([]any, bool) {
	col, ok := d.ds.Column(name)
	if !ok {
		return nil, false
	}
	values := make([]any, col.Len())
	for i := range values {
		values[i] = col.ValueAt(i)
	}
	return values, true
}

// String returns a string representation of the Dataset.
func (d *Dataset) String() string {
	return d.ds.String()
}

// Release frees the memory used by the Dataset.
func (d *Dataset) Release() {
	d.ds.Release()
}
