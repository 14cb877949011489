// Package common provides shared value conversion utilities for dataset columns
package common

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paveg/dsformat/internal/series"
)

var errOverflow = errors.New("value out of range")

// TypeConverter converts individual cell values between column kinds.
type TypeConverter struct{}

// NewTypeConverter creates a new TypeConverter instance.
func NewTypeConverter() *TypeConverter {
	return &TypeConverter{}
}

// Convert casts value to the Go type backing kind. nil stays nil.
func (tc *TypeConverter) Convert(value any, kind series.Kind) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch kind {
	case series.KindString:
		return tc.ToString(value), nil
	case series.KindInt64:
		return tc.ToInt64(value)
	case series.KindInt32:
		v, err := tc.ToInt64(value)
		if err != nil {
			return nil, err
		}
		if v > math.MaxInt32 || v < math.MinInt32 {
			return nil, fmt.Errorf("int64 value %d overflows int32 range: %w", v, errOverflow)
		}
		return int32(v), nil
	case series.KindFloat64:
		return tc.ToFloat64(value)
	case series.KindFloat32:
		v, err := tc.ToFloat64(value)
		if err != nil {
			return nil, err
		}
		return tc.SafeFloat64ToFloat32(v)
	case series.KindBool:
		return tc.ToBool(value)
	default:
		return nil, fmt.Errorf("unsupported target kind %s", kind)
	}
}

// SafeFloat64ToFloat32 safely converts float64 to float32, checking for overflow.
func (tc *TypeConverter) SafeFloat64ToFloat32(value float64) (float32, error) {
	if math.IsInf(value, 0) || math.IsNaN(value) {
		return float32(value), nil // Preserve special values
	}
	if value > math.MaxFloat32 || value < -math.MaxFloat32 {
		return 0, fmt.Errorf("float64 value %g overflows float32 range: %w", value, errOverflow)
	}
	return float32(value), nil
}

// ToInt64 converts numeric, boolean and textual values to int64.
// Floats are truncated toward zero; text must be a base-10 integer literal.
func (tc *TypeConverter) ToInt64(value any) (int64, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, fmt.Errorf("uint value %d overflows int64 range: %w", v, errOverflow)
		}
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("uint64 value %d overflows int64 range: %w", v, errOverflow)
		}
		return int64(v), nil
	case float32:
		return tc.floatToInt64(float64(v))
	case float64:
		return tc.floatToInt64(v)
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", value)
	}
}

func (tc *TypeConverter) floatToInt64(v float64) (int64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("cannot convert %g to int64", v)
	}
	if v >= math.MaxInt64 || v < math.MinInt64 {
		return 0, fmt.Errorf("float64 value %g overflows int64 range: %w", v, errOverflow)
	}
	return int64(v), nil
}

// ToFloat64 converts numeric, boolean and textual values to float64.
func (tc *TypeConverter) ToFloat64(value any) (float64, error) {
	switch v := value.(type) {
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), 64)
	case bool:
		if v {
			return 1.0, nil
		}
		return 0.0, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", value)
	}
}

// ToString renders a value as text.
func (tc *TypeConverter) ToString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToBool converts various types to bool.
func (tc *TypeConverter) ToBool(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case int8:
		return v != 0, nil
	case int16:
		return v != 0, nil
	case int32:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case uint:
		return v != 0, nil
	case uint8:
		return v != 0, nil
	case uint16:
		return v != 0, nil
	case uint32:
		return v != 0, nil
	case uint64:
		return v != 0, nil
	case float32:
		return v != 0.0, nil
	case float64:
		return v != 0.0, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(v))
	default:
		return false, fmt.Errorf("cannot convert %T to bool", value)
	}
}

// IsNumericType checks if a value is of a numeric type.
func (tc *TypeConverter) IsNumericType(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}

// Default converter instance for convenience.
var defaultConverter = NewTypeConverter()

// Convert casts value to kind using the default converter.
func Convert(value any, kind series.Kind) (any, error) {
	return defaultConverter.Convert(value, kind)
}

// ToString renders value as text using the default converter.
func ToString(value any) string {
	return defaultConverter.ToString(value)
}

// ToFloat64 converts value to float64 using the default converter.
func ToFloat64(value any) (float64, error) {
	return defaultConverter.ToFloat64(value)
}

// IsNumericType checks if a value is numeric using the default converter.
func IsNumericType(value any) bool {
	return defaultConverter.IsNumericType(value)
}
