package series

import (
	"fmt"
	"math"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// Kind identifies the scalar type stored in a column
type Kind int

const (
	KindInvalid Kind = iota
	KindString
	KindInt64
	KindInt32
	KindFloat64
	KindFloat32
	KindBool
)

var kindNames = map[Kind]string{
	KindInvalid: "invalid",
	KindString:  "string",
	KindInt64:   "int64",
	KindInt32:   "int32",
	KindFloat64: "float64",
	KindFloat32: "float32",
	KindBool:    "bool",
}

// String returns the kind name
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// IsNumeric reports whether the kind holds integers or floating-point values
func (k Kind) IsNumeric() bool {
	switch k {
	case KindInt64, KindInt32, KindFloat64, KindFloat32:
		return true
	default:
		return false
	}
}

// KindOf maps an Arrow data type onto a column kind
func KindOf(dt arrow.DataType) Kind {
	if dt == nil {
		return KindInvalid
	}

	//nolint:exhaustive // Only handling supported types
	switch dt.ID() {
	case arrow.STRING:
		return KindString
	case arrow.INT64:
		return KindInt64
	case arrow.INT32:
		return KindInt32
	case arrow.FLOAT64:
		return KindFloat64
	case arrow.FLOAT32:
		return KindFloat32
	case arrow.BOOL:
		return KindBool
	default:
		return KindInvalid
	}
}

// ParseKind parses a user-facing type name such as "int", "float" or "str"
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "str", "string", "text", "utf8":
		return KindString, nil
	case "int", "int64", "integer", "long":
		return KindInt64, nil
	case "int32":
		return KindInt32, nil
	case "float", "float64", "double":
		return KindFloat64, nil
	case "float32":
		return KindFloat32, nil
	case "bool", "boolean":
		return KindBool, nil
	default:
		return KindInvalid, fmt.Errorf("unknown column type %q", name)
	}
}

// Empty creates a zero-length series of the given kind
func Empty(name string, kind Kind, mem memory.Allocator) (ISeries, error) {
	return FromKindValues(name, kind, nil, mem)
}

// FromKindValues builds a series of the given kind from untyped values.
// Each element must be nil (null) or hold the Go type matching kind.
func FromKindValues(name string, kind Kind, values []any, mem memory.Allocator) (ISeries, error) {
	switch kind {
	case KindString:
		return fromTyped[string](name, values, mem)
	case KindInt64:
		return fromTyped[int64](name, values, mem)
	case KindInt32:
		return fromTyped[int32](name, values, mem)
	case KindFloat64:
		return fromTyped[float64](name, values, mem)
	case KindFloat32:
		return fromTyped[float32](name, values, mem)
	case KindBool:
		return fromTyped[bool](name, values, mem)
	default:
		return nil, fmt.Errorf("unsupported column kind: %s", kind)
	}
}

func fromTyped[T any](name string, values []any, mem memory.Allocator) (ISeries, error) {
	typed := make([]T, len(values))
	valid := make([]bool, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		tv, ok := v.(T)
		if !ok {
			var zero T
			return nil, fmt.Errorf("value %v at row %d is %T, expected %T", v, i, v, zero)
		}
		typed[i] = tv
		valid[i] = true
	}
	return NewWithNulls(name, typed, valid, mem)
}

// FromValues builds a series from untyped values, inferring the column kind.
// Go integer types widen to int64 and floats to float64; a column mixing
// integers and floats becomes float64. A column of only nils is a null string column.
func FromValues(name string, values []any, mem memory.Allocator) (ISeries, error) {
	kind := KindInvalid
	for i, v := range values {
		if v == nil {
			continue
		}
		if n, ok := v.(uint); ok && uint64(n) > math.MaxInt64 {
			return nil, fmt.Errorf("value %d at row %d overflows int64", n, i)
		}
		k := kindOfValue(v)
		if k == KindInvalid {
			return nil, fmt.Errorf("unsupported value type %T at row %d", v, i)
		}
		switch {
		case kind == KindInvalid, kind == k:
			kind = k
		case kind == KindInt64 && k == KindFloat64, kind == KindFloat64 && k == KindInt64:
			kind = KindFloat64
		default:
			return nil, fmt.Errorf("mixed column types: %s and %s at row %d", kind, k, i)
		}
	}
	if kind == KindInvalid {
		kind = KindString
	}

	normalized := make([]any, len(values))
	for i, v := range values {
		if v != nil {
			normalized[i] = widen(v, kind)
		}
	}
	return FromKindValues(name, kind, normalized, mem)
}

// KindOfValue reports the column kind a Go value would be stored as
func KindOfValue(v any) Kind {
	return kindOfValue(v)
}

func kindOfValue(v any) Kind {
	switch n := v.(type) {
	case string:
		return KindString
	case uint:
		if uint64(n) > math.MaxInt64 {
			return KindInvalid
		}
		return KindInt64
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return KindInt64
	case float32, float64:
		return KindFloat64
	case bool:
		return KindBool
	default:
		return KindInvalid
	}
}

func widen(v any, kind Kind) any {
	switch kind {
	case KindInt64:
		switch n := v.(type) {
		case int:
			return int64(n)
		case int8:
			return int64(n)
		case int16:
			return int64(n)
		case int32:
			return int64(n)
		case uint:
			return int64(n) //nolint:gosec // values above math.MaxInt64 are rejected by kindOfValue
		case uint8:
			return int64(n)
		case uint16:
			return int64(n)
		case uint32:
			return int64(n)
		}
	case KindFloat64:
		switch n := v.(type) {
		case float32:
			return float64(n)
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32:
			return float64(widen(n, KindInt64).(int64))
		}
	}
	return v
}
