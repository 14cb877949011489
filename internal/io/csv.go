package io

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/paveg/dsformat/internal/dataset"
	"github.com/paveg/dsformat/internal/series"
)

const (
	trueStr  = "true"
	falseStr = "false"
)

// Read reads CSV data and returns a Dataset
func (r *CSVReader) Read() (*dataset.Dataset, error) {
	csvReader := csv.NewReader(r.reader)
	csvReader.Comma = r.options.Delimiter
	csvReader.Comment = r.options.Comment
	csvReader.TrimLeadingSpace = r.options.SkipInitialSpace
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}

	if len(records) == 0 {
		return dataset.NewWithAllocator(r.mem), nil
	}

	var headers []string
	var dataRows [][]string

	if r.options.Header {
		headers = records[0]
		dataRows = records[1:]
	} else {
		numCols := len(records[0])
		headers = make([]string, numCols)
		for i := range numCols {
			headers[i] = fmt.Sprintf("column_%d", i)
		}
		dataRows = records
	}

	// Transpose data to work with columns; short rows are padded with empty cells
	columns := make([][]string, len(headers))
	for i := range headers {
		columns[i] = make([]string, len(dataRows))
		for j, row := range dataRows {
			if i < len(row) {
				columns[i][j] = row[i]
			}
		}
	}

	seriesList := make([]dataset.ISeries, 0, len(headers))
	for i, header := range headers {
		s, err := r.createSeriesFromStrings(header, columns[i])
		if err != nil {
			for _, created := range seriesList {
				created.Release()
			}
			return nil, fmt.Errorf("creating series for column %s: %w", header, err)
		}
		seriesList = append(seriesList, s)
	}

	return dataset.NewWithAllocator(r.mem, seriesList...), nil
}

// createSeriesFromStrings creates a series from string data, inferring the appropriate type.
// Empty cells become nulls.
func (r *CSVReader) createSeriesFromStrings(name string, data []string) (dataset.ISeries, error) {
	kind := series.KindString
	if r.options.InferTypes {
		kind = inferKind(data)
	}

	values := make([]any, len(data))
	for i, cell := range data {
		if cell == "" {
			continue
		}
		v, err := parseCell(cell, kind)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		values[i] = v
	}

	return series.FromKindValues(name, kind, values, r.mem)
}

// inferKind determines the most specific kind every non-empty cell parses as
func inferKind(data []string) series.Kind {
	canBeInt := true
	canBeFloat := true
	canBeBool := true
	hasNonEmptyValue := false

	for _, value := range data {
		if value == "" {
			continue
		}
		hasNonEmptyValue = true

		if canBeBool {
			lower := strings.ToLower(value)
			if lower != trueStr && lower != falseStr {
				canBeBool = false
			}
		}

		if canBeInt {
			if _, err := strconv.ParseInt(value, 10, 64); err != nil {
				canBeInt = false
			}
		}

		if canBeFloat {
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				canBeFloat = false
			}
		}
	}

	switch {
	case !hasNonEmptyValue:
		return series.KindString
	case canBeBool:
		return series.KindBool
	case canBeInt:
		return series.KindInt64
	case canBeFloat:
		return series.KindFloat64
	default:
		return series.KindString
	}
}

func parseCell(cell string, kind series.Kind) (any, error) {
	//nolint:exhaustive // inferKind only yields these kinds
	switch kind {
	case series.KindBool:
		return strings.EqualFold(cell, trueStr), nil
	case series.KindInt64:
		return strconv.ParseInt(cell, 10, 64)
	case series.KindFloat64:
		return strconv.ParseFloat(cell, 64)
	default:
		return cell, nil
	}
}

// Write writes the Dataset to CSV format. Null cells are written as empty fields.
func (w *CSVWriter) Write(ds *dataset.Dataset) error {
	csvWriter := csv.NewWriter(w.writer)
	if w.options.Delimiter != 0 {
		csvWriter.Comma = w.options.Delimiter
	}

	names := ds.Columns()
	if w.options.Header {
		if err := csvWriter.Write(names); err != nil {
			return fmt.Errorf("writing headers: %w", err)
		}
	}

	columns := make([]dataset.ISeries, len(names))
	for j, name := range names {
		columns[j], _ = ds.Column(name)
	}

	row := make([]string, len(names))
	for i := range ds.Len() {
		for j, column := range columns {
			row[j] = column.GetAsString(i)
		}
		if err := csvWriter.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("flushing CSV: %w", err)
	}
	return nil
}
