// Package series provides typed, nullable dataset columns backed by Apache Arrow arrays
package series

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ISeries provides a type-erased interface for Series of any type
type ISeries interface {
	Name() string
	Len() int
	DataType() arrow.DataType
	Kind() Kind
	IsNull(index int) bool
	NullCount() int
	String() string
	Array() arrow.Array
	Release()
	GetAsString(index int) string
	ValueAt(index int) any
}

// Series represents a typed data column with Apache Arrow backend
type Series[T any] struct {
	name  string
	array arrow.Array
}

// New creates a new Series from a slice of values.
// It panics on unsupported element types; use NewSafe to get an error instead.
func New[T any](name string, values []T, mem memory.Allocator) *Series[T] {
	s, err := NewSafe(name, values, mem)
	if err != nil {
		panic(err.Error())
	}
	return s
}

// NewSafe creates a new Series from a slice of values, returning an error for unsupported types
func NewSafe[T any](name string, values []T, mem memory.Allocator) (*Series[T], error) {
	return NewWithNulls(name, values, nil, mem)
}

// NewWithNulls creates a Series where valid[i] == false marks row i as null.
// A nil valid slice means every row is present.
func NewWithNulls[T any](name string, values []T, valid []bool, mem memory.Allocator) (*Series[T], error) {
	if valid != nil && len(valid) != len(values) {
		return nil, fmt.Errorf("validity length %d does not match values length %d", len(valid), len(values))
	}
	if mem == nil {
		mem = memory.NewGoAllocator()
	}

	arr, err := buildArray(values, valid, mem)
	if err != nil {
		return nil, err
	}

	return &Series[T]{
		name:  name,
		array: arr,
	}, nil
}

func buildArray[T any](values []T, valid []bool, mem memory.Allocator) (arrow.Array, error) {
	switch v := any(values).(type) {
	case []string:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		return builder.NewArray(), nil
	case []int64:
		builder := array.NewInt64Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		return builder.NewArray(), nil
	case []int32:
		builder := array.NewInt32Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		return builder.NewArray(), nil
	case []float64:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		return builder.NewArray(), nil
	case []float32:
		builder := array.NewFloat32Builder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		return builder.NewArray(), nil
	case []bool:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		builder.AppendValues(v, valid)
		return builder.NewArray(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", values)
	}
}

// FromArray wraps an existing Arrow array as a Series named name.
// The Series takes ownership of the caller's reference to arr.
func FromArray(name string, arr arrow.Array) (ISeries, error) {
	switch arr.(type) {
	case *array.String:
		return &Series[string]{name: name, array: arr}, nil
	case *array.Int64:
		return &Series[int64]{name: name, array: arr}, nil
	case *array.Int32:
		return &Series[int32]{name: name, array: arr}, nil
	case *array.Float64:
		return &Series[float64]{name: name, array: arr}, nil
	case *array.Float32:
		return &Series[float32]{name: name, array: arr}, nil
	case *array.Boolean:
		return &Series[bool]{name: name, array: arr}, nil
	default:
		return nil, fmt.Errorf("unsupported array type: %s", arr.DataType())
	}
}

// Share returns a new Series named name that shares s's Arrow buffers
func Share(s ISeries, name string) (ISeries, error) {
	return FromArray(name, s.Array())
}

// Name returns the column name
func (s *Series[T]) Name() string {
	return s.name
}

// Len returns the length of the series
func (s *Series[T]) Len() int {
	return s.array.Len()
}

// Values returns the data as a Go slice. Null slots hold the zero value.
func (s *Series[T]) Values() []T {
	result := make([]T, s.array.Len())
	for i := range result {
		result[i] = s.Value(i)
	}
	return result
}

// Value returns the value at the given index
func (s *Series[T]) Value(index int) T {
	var result T
	if index < 0 || index >= s.array.Len() || s.array.IsNull(index) {
		return result
	}

	switch arr := s.array.(type) {
	case *array.String:
		if v, ok := any(&result).(*string); ok {
			*v = arr.Value(index)
		}
	case *array.Int64:
		if v, ok := any(&result).(*int64); ok {
			*v = arr.Value(index)
		}
	case *array.Int32:
		if v, ok := any(&result).(*int32); ok {
			*v = arr.Value(index)
		}
	case *array.Float64:
		if v, ok := any(&result).(*float64); ok {
			*v = arr.Value(index)
		}
	case *array.Float32:
		if v, ok := any(&result).(*float32); ok {
			*v = arr.Value(index)
		}
	case *array.Boolean:
		if v, ok := any(&result).(*bool); ok {
			*v = arr.Value(index)
		}
	}

	return result
}

// ValueAt returns the value at index as an untyped value, or nil for null slots
func (s *Series[T]) ValueAt(index int) any {
	if index < 0 || index >= s.array.Len() || s.array.IsNull(index) {
		return nil
	}
	return s.Value(index)
}

// GetAsString renders the value at index as text. Null slots render as "".
func (s *Series[T]) GetAsString(index int) string {
	if index < 0 || index >= s.array.Len() || s.array.IsNull(index) {
		return ""
	}

	switch arr := s.array.(type) {
	case *array.String:
		return arr.Value(index)
	case *array.Int64:
		return strconv.FormatInt(arr.Value(index), 10)
	case *array.Int32:
		return strconv.FormatInt(int64(arr.Value(index)), 10)
	case *array.Float64:
		return strconv.FormatFloat(arr.Value(index), 'g', -1, 64)
	case *array.Float32:
		return strconv.FormatFloat(float64(arr.Value(index)), 'g', -1, 32)
	case *array.Boolean:
		return strconv.FormatBool(arr.Value(index))
	default:
		return ""
	}
}

// DataType returns the Arrow data type
func (s *Series[T]) DataType() arrow.DataType {
	return s.array.DataType()
}

// Kind returns the column kind of the series
func (s *Series[T]) Kind() Kind {
	return KindOf(s.array.DataType())
}

// IsNull checks if the value at index is null
func (s *Series[T]) IsNull(index int) bool {
	return s.array.IsNull(index)
}

// NullCount returns the number of null slots
func (s *Series[T]) NullCount() int {
	return s.array.NullN()
}

// String returns a string representation of the series
func (s *Series[T]) String() string {
	return fmt.Sprintf("Series[%s]: %s (len=%d)",
		reflect.TypeOf(new(T)).Elem().Name(),
		s.name,
		s.Len())
}

// Array returns the underlying Arrow array (retains a reference)
func (s *Series[T]) Array() arrow.Array {
	if s.array != nil {
		s.array.Retain()
		return s.array
	}
	return nil
}

// Release releases the underlying Arrow memory
func (s *Series[T]) Release() {
	if s.array != nil {
		s.array.Release()
	}
}
