// Package validation provides input validation utilities for dataset operations.
// Validators are composable and return *errors.DatasetError values carrying
// the calling operation's name.
package validation

import (
	"fmt"
	"strings"

	"github.com/paveg/dsformat/internal/errors"
)

// Validator interface for input validation
type Validator interface {
	Validate() error
}

// ColumnProvider interface for types that provide column information
type ColumnProvider interface {
	HasColumn(name string) bool
	Columns() []string
}

// ColumnValidator validates column existence
type ColumnValidator struct {
	ds      ColumnProvider
	columns []string
	op      string
}

// NewColumnValidator creates a validator for column operations
func NewColumnValidator(ds ColumnProvider, op string, columns ...string) *ColumnValidator {
	return &ColumnValidator{
		ds:      ds,
		columns: columns,
		op:      op,
	}
}

// Validate checks that every column exists. The error for a missing column
// lists the available columns and the closest match.
func (v *ColumnValidator) Validate() error {
	for _, column := range v.columns {
		if !v.ds.HasColumn(column) {
			return errors.NewColumnNotFoundErrorWithSuggestions(v.op, column, v.ds.Columns())
		}
	}
	return nil
}

// AbsentColumnValidator validates that a column name is free
type AbsentColumnValidator struct {
	ds     ColumnProvider
	column string
	op     string
}

// NewAbsentColumnValidator creates a validator that fails when column already exists
func NewAbsentColumnValidator(ds ColumnProvider, op, column string) *AbsentColumnValidator {
	return &AbsentColumnValidator{
		ds:     ds,
		column: column,
		op:     op,
	}
}

// Validate checks that the column does not exist
func (v *AbsentColumnValidator) Validate() error {
	if v.ds.HasColumn(v.column) {
		return errors.NewValidationError(v.op, v.column, "column already exists")
	}
	return nil
}

// NameValidator validates a column name argument
type NameValidator struct {
	name string
	role string
	op   string
}

// NewNameValidator creates a validator for a column name. role describes the
// argument in the error message, e.g. "new column name".
func NewNameValidator(name, role, op string) *NameValidator {
	return &NameValidator{
		name: name,
		role: role,
		op:   op,
	}
}

// Validate checks that the name is not blank
func (v *NameValidator) Validate() error {
	if strings.TrimSpace(v.name) == "" {
		return errors.NewInvalidInputError(v.op, v.role+" is empty")
	}
	return nil
}

// LengthValidator validates column length consistency
type LengthValidator struct {
	expected int
	actual   int
	op       string
	column   string
}

// NewLengthValidator creates a validator for length consistency
func NewLengthValidator(expected, actual int, op, column string) *LengthValidator {
	return &LengthValidator{
		expected: expected,
		actual:   actual,
		op:       op,
		column:   column,
	}
}

// Validate checks if lengths match
func (v *LengthValidator) Validate() error {
	if v.expected != v.actual {
		message := fmt.Sprintf("column length %d does not match dataset length %d", v.actual, v.expected)
		return errors.NewValidationError(v.op, v.column, message)
	}
	return nil
}

// IndexValidator validates index bounds
type IndexValidator struct {
	index int
	max   int
	op    string
}

// NewIndexValidator creates a validator for index operations
func NewIndexValidator(index, maxIndex int, op string) *IndexValidator {
	return &IndexValidator{
		index: index,
		max:   maxIndex,
		op:    op,
	}
}

// Validate checks if index is within bounds
func (v *IndexValidator) Validate() error {
	if v.index < 0 || v.index >= v.max {
		message := fmt.Sprintf("row index %d out of range [0, %d)", v.index, v.max)
		return errors.NewValidationError(v.op, "", message)
	}
	return nil
}

// CompoundValidator combines multiple validators
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator creates a validator that checks multiple conditions
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{
		validators: validators,
	}
}

// Validate runs all validators and returns the first error encountered
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Convenience validation functions

// ValidateColumns is a convenience function for column validation
func ValidateColumns(ds ColumnProvider, op string, columns ...string) error {
	return NewColumnValidator(ds, op, columns...).Validate()
}

// ValidateLength is a convenience function for length validation
func ValidateLength(expected, actual int, op, column string) error {
	return NewLengthValidator(expected, actual, op, column).Validate()
}

// ValidateIndex is a convenience function for index validation
func ValidateIndex(index, maxIndex int, op string) error {
	return NewIndexValidator(index, maxIndex, op).Validate()
}
