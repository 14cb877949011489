// Package dataset provides an ordered, column-typed in-memory table backed by Apache Arrow.
//
// Every operation returns a new Dataset and leaves the receiver untouched.
// Columns that an operation does not rewrite are shared with the source
// Dataset through Arrow reference counting, so each Dataset must be
// released independently once it is no longer needed.
package dataset

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/dsformat/internal/series"
)

// ISeries is the type-erased column interface stored in a Dataset
type ISeries = series.ISeries

// Row is a single record viewed as a mapping from column name to value.
// Null cells are represented as nil.
type Row map[string]any

// Dataset represents a table of data with typed columns
type Dataset struct {
	columns map[string]ISeries
	order   []string // Maintains column order
	rows    int
	mem     memory.Allocator
}

// New creates a new Dataset from a slice of ISeries.
// The Dataset takes ownership of the given series. A later series with the
// same name as an earlier one replaces it in place.
func New(series ...ISeries) *Dataset {
	return NewWithAllocator(memory.NewGoAllocator(), series...)
}

// NewWithAllocator creates a new Dataset whose derived columns are allocated from mem
func NewWithAllocator(mem memory.Allocator, series ...ISeries) *Dataset {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	columns := make(map[string]ISeries, len(series))
	order := make([]string, 0, len(series))
	rows := 0
	if len(series) > 0 {
		rows = series[0].Len()
	}

	for _, s := range series {
		name := s.Name()
		if prev, exists := columns[name]; exists {
			prev.Release()
		} else {
			order = append(order, name)
		}
		columns[name] = s
	}

	return &Dataset{
		columns: columns,
		order:   order,
		rows:    rows,
		mem:     mem,
	}
}

// Allocator returns the allocator used for derived columns
func (ds *Dataset) Allocator() memory.Allocator {
	return ds.mem
}

// Columns returns the names of all columns in order
func (ds *Dataset) Columns() []string {
	if len(ds.order) == 0 {
		return []string{}
	}
	return append([]string(nil), ds.order...)
}

// Len returns the number of rows. A Dataset whose columns were all dropped
// keeps the row count it had.
func (ds *Dataset) Len() int {
	return ds.rows
}

// Width returns the number of columns
func (ds *Dataset) Width() int {
	return len(ds.columns)
}

// Column returns the series for the given column name
func (ds *Dataset) Column(name string) (ISeries, bool) {
	s, exists := ds.columns[name]
	return s, exists
}

// HasColumn checks if a column exists
func (ds *Dataset) HasColumn(name string) bool {
	_, exists := ds.columns[name]
	return exists
}

// Kinds returns the column kinds keyed by column name
func (ds *Dataset) Kinds() map[string]series.Kind {
	kinds := make(map[string]series.Kind, len(ds.columns))
	for name, s := range ds.columns {
		kinds[name] = s.Kind()
	}
	return kinds
}

// Row returns the record at index i
func (ds *Dataset) Row(i int) Row {
	row := make(Row, len(ds.order))
	for _, name := range ds.order {
		row[name] = ds.columns[name].ValueAt(i)
	}
	return row
}

// Rows returns every record in order
func (ds *Dataset) Rows() []Row {
	rows := make([]Row, ds.Len())
	for i := range rows {
		rows[i] = ds.Row(i)
	}
	return rows
}

// String returns a string representation of the Dataset
func (ds *Dataset) String() string {
	if len(ds.columns) == 0 {
		return "Dataset[empty]"
	}

	parts := []string{fmt.Sprintf("Dataset[%dx%d]", ds.Len(), ds.Width())}

	for _, name := range ds.order {
		parts = append(parts, fmt.Sprintf("  %s: %s", name, safeDataType(ds.columns[name])))
	}

	return strings.Join(parts, "\n")
}

// Release releases all underlying Arrow memory
func (ds *Dataset) Release() {
	for _, s := range ds.columns {
		s.Release()
	}
}

// share builds a new Dataset over the given column order, sharing every
// column from ds except those in replace, which are adopted as-is.
// share always takes ownership of the replace series, even on error.
func (ds *Dataset) share(order []string, replace map[string]ISeries) (*Dataset, error) {
	result := make([]ISeries, 0, len(order))
	for _, name := range order {
		if s, ok := replace[name]; ok {
			result = append(result, s)
			delete(replace, name)
			continue
		}
		shared, err := series.Share(ds.columns[name], name)
		if err != nil {
			releaseAll(result)
			for _, s := range replace {
				s.Release()
			}
			return nil, err
		}
		result = append(result, shared)
	}
	out := NewWithAllocator(ds.mem, result...)
	if len(result) == 0 {
		out.rows = ds.rows
	}
	return out, nil
}

func releaseAll(list []ISeries) {
	for _, s := range list {
		s.Release()
	}
}

// safeDataType safely gets the data type from a series, returning nil if the series has a nil array
func safeDataType(s ISeries) (result arrow.DataType) {
	if s == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
		}
	}()

	return s.DataType()
}
