package dataset

import (
	"slices"

	"github.com/paveg/dsformat/internal/common"
	"github.com/paveg/dsformat/internal/errors"
	"github.com/paveg/dsformat/internal/series"
	"github.com/paveg/dsformat/internal/validation"
)

// RequireColumns returns a column-not-found error for the first name absent from ds
func (ds *Dataset) RequireColumns(op string, names ...string) error {
	return validation.ValidateColumns(ds, op, names...)
}

// WithColumn returns a new Dataset containing s. A column with the same name
// is replaced in place; otherwise s is appended. WithColumn takes ownership of s.
func (ds *Dataset) WithColumn(op string, s ISeries) (*Dataset, error) {
	if ds.Width() > 0 || ds.rows > 0 {
		if err := validation.ValidateLength(ds.rows, s.Len(), op, s.Name()); err != nil {
			s.Release()
			return nil, err
		}
	}

	order := ds.Columns()
	if !ds.HasColumn(s.Name()) {
		order = append(order, s.Name())
	}
	return ds.share(order, map[string]ISeries{s.Name(): s})
}

// MapColumn applies fn to every cell of source and stores the results in target.
// Null cells are passed to fn as nil. The result kind is inferred from the returned values.
func (ds *Dataset) MapColumn(op, source, target string, fn func(value any) (any, error)) (*Dataset, error) {
	if err := ds.RequireColumns(op, source); err != nil {
		return nil, err
	}
	col := ds.columns[source]

	values := make([]any, col.Len())
	for i := range values {
		v, err := fn(col.ValueAt(i))
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	return ds.WithValues(op, target, values)
}

// Generate fills target with one value per row index
func (ds *Dataset) Generate(op, target string, fn func(index int) (any, error)) (*Dataset, error) {
	values := make([]any, ds.Len())
	for i := range values {
		v, err := fn(i)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	return ds.WithValues(op, target, values)
}

// WithValues stores values, one per row, in target. The kind is inferred from the values.
func (ds *Dataset) WithValues(op, target string, values []any) (*Dataset, error) {
	s, err := series.FromValues(target, values, ds.mem)
	if err != nil {
		return nil, errors.NewValidationError(op, target, err.Error())
	}
	return ds.WithColumn(op, s)
}

// Filter keeps the rows for which pred returns true, preserving order.
// When no row matches the result is empty but keeps the schema.
func (ds *Dataset) Filter(op string, pred func(Row) bool) (*Dataset, error) {
	if pred == nil {
		return nil, errors.NewInvalidInputError(op, "predicate is nil")
	}

	indices := make([]int, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		if pred(ds.Row(i)) {
			indices = append(indices, i)
		}
	}

	return ds.Take(op, indices)
}

// Take returns the rows at the given indices, in the given order
func (ds *Dataset) Take(op string, indices []int) (*Dataset, error) {
	n := ds.Len()
	for _, idx := range indices {
		if err := validation.ValidateIndex(idx, n, op); err != nil {
			return nil, err
		}
	}

	taken := make([]ISeries, 0, ds.Width())
	for _, name := range ds.order {
		col := ds.columns[name]
		values := make([]any, len(indices))
		for i, idx := range indices {
			values[i] = col.ValueAt(idx)
		}
		s, err := series.FromKindValues(name, col.Kind(), values, ds.mem)
		if err != nil {
			releaseAll(taken)
			return nil, errors.NewInternalError(op, err)
		}
		taken = append(taken, s)
	}

	out := NewWithAllocator(ds.mem, taken...)
	out.rows = len(indices)
	return out, nil
}

// Rename returns a new Dataset with column old renamed to name, keeping its position
func (ds *Dataset) Rename(op, old, name string) (*Dataset, error) {
	err := validation.NewCompoundValidator(
		validation.NewColumnValidator(ds, op, old),
		validation.NewNameValidator(name, "new column name", op),
	).Validate()
	if err != nil {
		return nil, err
	}
	if old == name {
		return ds.share(ds.Columns(), nil)
	}
	if err := validation.NewAbsentColumnValidator(ds, op, name).Validate(); err != nil {
		return nil, err
	}

	renamed, err := series.Share(ds.columns[old], name)
	if err != nil {
		return nil, errors.NewInternalError(op, err)
	}

	order := ds.Columns()
	order[slices.Index(order, old)] = name
	return ds.share(order, map[string]ISeries{name: renamed})
}

// Drop returns a new Dataset without the specified columns
func (ds *Dataset) Drop(op string, names ...string) (*Dataset, error) {
	if err := ds.RequireColumns(op, names...); err != nil {
		return nil, err
	}

	order := slices.DeleteFunc(ds.Columns(), func(name string) bool {
		return slices.Contains(names, name)
	})
	return ds.share(order, nil)
}

// Select returns a new Dataset with only the specified columns, in the given order
func (ds *Dataset) Select(op string, names ...string) (*Dataset, error) {
	if err := ds.RequireColumns(op, names...); err != nil {
		return nil, err
	}
	return ds.share(slices.Clone(names), nil)
}

// Cast converts every value of column to kind. The first value that cannot be
// converted aborts the cast with a type conversion error naming its row.
// Null cells stay null.
func (ds *Dataset) Cast(op, column string, kind series.Kind) (*Dataset, error) {
	if err := ds.RequireColumns(op, column); err != nil {
		return nil, err
	}
	col := ds.columns[column]

	values := make([]any, col.Len())
	for i := range values {
		v := col.ValueAt(i)
		converted, err := common.Convert(v, kind)
		if err != nil {
			return nil, errors.NewTypeConversionError(op, column, i, v, kind.String(), err)
		}
		values[i] = converted
	}

	s, err := series.FromKindValues(column, kind, values, ds.mem)
	if err != nil {
		return nil, errors.NewInternalError(op, err)
	}
	return ds.WithColumn(op, s)
}

// FillNull replaces null cells of column with value converted to the column's kind
func (ds *Dataset) FillNull(op, column string, value any) (*Dataset, error) {
	if err := ds.RequireColumns(op, column); err != nil {
		return nil, err
	}
	col := ds.columns[column]
	kind := col.Kind()

	fill, err := common.Convert(value, kind)
	if err != nil {
		return nil, errors.NewTypeConversionError(op, column, -1, value, kind.String(), err)
	}

	values := make([]any, col.Len())
	for i := range values {
		if col.IsNull(i) {
			values[i] = fill
		} else {
			values[i] = col.ValueAt(i)
		}
	}

	s, err := series.FromKindValues(column, kind, values, ds.mem)
	if err != nil {
		return nil, errors.NewInternalError(op, err)
	}
	return ds.WithColumn(op, s)
}
