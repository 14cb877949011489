// Package errors provides standardized error types for dataset operations.
// This package defines DatasetError for consistent error handling across
// all public APIs, with operation context and error wrapping support.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Sentinel causes. Test for them with errors.Is.
var (
	// ErrColumnNotFound indicates that a referenced column is absent from the dataset
	ErrColumnNotFound = stderrors.New("column not found")

	// ErrTypeConversion indicates that a value cannot be coerced to the requested type
	ErrTypeConversion = stderrors.New("type conversion failed")

	// ErrInvalidInput indicates a malformed argument such as a nil predicate
	ErrInvalidInput = stderrors.New("invalid input")
)

// DatasetError represents standardized errors across all dataset operations
type DatasetError struct {
	Op      string // Operation name (e.g., "Hash", "RenameColumn")
	Column  string // Column name if applicable
	Message string // Human-readable error description
	Hint    string // Optional remediation hint
	Cause   error  // Underlying error cause
}

// Error implements the error interface
func (e *DatasetError) Error() string {
	var msg string
	if e.Column != "" {
		msg = fmt.Sprintf("%s operation failed on column '%s': %s", e.Op, e.Column, e.Message)
	} else {
		msg = fmt.Sprintf("%s operation failed: %s", e.Op, e.Message)
	}
	if e.Hint != "" {
		msg += ". Hint: " + e.Hint
	}
	return msg
}

// Unwrap returns the underlying cause for error wrapping support
func (e *DatasetError) Unwrap() error {
	return e.Cause
}

// Is implements error equality checking for errors.Is()
func (e *DatasetError) Is(target error) bool {
	if de, ok := target.(*DatasetError); ok {
		return e.Op == de.Op && e.Column == de.Column && e.Message == de.Message
	}
	return false
}

// NewColumnNotFoundError creates an error for operations on non-existent columns
func NewColumnNotFoundError(op, column string) *DatasetError {
	return &DatasetError{
		Op:      op,
		Column:  column,
		Message: "column does not exist",
		Cause:   ErrColumnNotFound,
	}
}

// NewColumnNotFoundErrorWithSuggestions adds a "did you mean" hint drawn from available
func NewColumnNotFoundErrorWithSuggestions(op, column string, available []string) *DatasetError {
	err := NewColumnNotFoundError(op, column)

	var hint strings.Builder
	if suggestion, ok := closestColumn(column, available); ok {
		fmt.Fprintf(&hint, "did you mean '%s'? ", suggestion)
	}
	fmt.Fprintf(&hint, "available columns: [%s]", strings.Join(available, ", "))
	err.Hint = hint.String()

	return err
}

// NewTypeConversionError creates an error for a value that cannot be cast to target
func NewTypeConversionError(op, column string, row int, value any, target string, cause error) *DatasetError {
	wrapped := ErrTypeConversion
	if cause != nil {
		wrapped = fmt.Errorf("%w: %w", ErrTypeConversion, cause)
	}

	message := fmt.Sprintf("cannot convert %v (%T) to %s", value, value, target)
	if row >= 0 {
		message = fmt.Sprintf("cannot convert %v (%T) at row %d to %s", value, value, row, target)
	}

	return &DatasetError{
		Op:      op,
		Column:  column,
		Message: message,
		Cause:   wrapped,
	}
}

// NewInvalidInputError creates an error for invalid operation inputs
func NewInvalidInputError(op, message string) *DatasetError {
	return &DatasetError{
		Op:      op,
		Message: message,
		Cause:   ErrInvalidInput,
	}
}

// NewUnsupportedTypeError creates an error for unsupported data types
func NewUnsupportedTypeError(op, column, typeName string) *DatasetError {
	return &DatasetError{
		Op:      op,
		Column:  column,
		Message: fmt.Sprintf("unsupported type: %s", typeName),
		Cause:   ErrTypeConversion,
	}
}

// NewValidationError creates an error for input validation failures
func NewValidationError(op, column, message string) *DatasetError {
	return &DatasetError{
		Op:      op,
		Column:  column,
		Message: message,
		Cause:   ErrInvalidInput,
	}
}

// NewInternalError creates an error for internal operation failures
func NewInternalError(op string, cause error) *DatasetError {
	return &DatasetError{
		Op:      op,
		Message: "internal error occurred",
		Cause:   cause,
	}
}

// IsColumnNotFound reports whether err was caused by a missing column
func IsColumnNotFound(err error) bool {
	return stderrors.Is(err, ErrColumnNotFound)
}

// IsTypeConversion reports whether err was caused by a failed type conversion
func IsTypeConversion(err error) bool {
	return stderrors.Is(err, ErrTypeConversion)
}

// closestColumn returns the available column with the smallest edit distance
// to name, provided the distance is small enough to be a plausible typo.
func closestColumn(name string, available []string) (string, bool) {
	best := ""
	bestDist := -1
	for _, col := range available {
		d := levenshtein(strings.ToLower(name), strings.ToLower(col))
		if bestDist < 0 || d < bestDist {
			best, bestDist = col, d
		}
	}

	maxDist := len(name) / 3
	if maxDist < 1 {
		maxDist = 1
	}
	if bestDist < 0 || bestDist > maxDist {
		return "", false
	}
	return best, true
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
