package dataset

import (
	"math"
	"slices"

	"github.com/paveg/dsformat/internal/errors"
	"github.com/paveg/dsformat/internal/series"
	"golang.org/x/exp/constraints"
)

// Stats holds descriptive statistics over the non-null cells of a numeric column.
// Std is the population standard deviation; SampleStd divides by n-1.
type Stats struct {
	Count     int
	Nulls     int
	Mean      float64
	Median    float64
	Std       float64
	SampleStd float64
	Min       float64
	Max       float64
}

// Describe computes Stats for column. Non-numeric columns fail with a type
// conversion error. A column without any non-null values yields NaN statistics.
func (ds *Dataset) Describe(op, column string) (Stats, error) {
	if err := ds.RequireColumns(op, column); err != nil {
		return Stats{}, err
	}
	col := ds.columns[column]
	if !col.Kind().IsNumeric() {
		return Stats{}, errors.NewUnsupportedTypeError(op, column, col.Kind().String())
	}

	var values []float64
	switch s := col.(type) {
	case *series.Series[int64]:
		values = collect(s)
	case *series.Series[int32]:
		values = collect(s)
	case *series.Series[float64]:
		values = collect(s)
	case *series.Series[float32]:
		values = collect(s)
	default:
		return Stats{}, errors.NewUnsupportedTypeError(op, column, col.Kind().String())
	}

	stats := describe(values)
	stats.Nulls = col.NullCount()
	return stats, nil
}

func collect[T constraints.Integer | constraints.Float](s *series.Series[T]) []float64 {
	values := make([]float64, 0, s.Len()-s.NullCount())
	for i := 0; i < s.Len(); i++ {
		if !s.IsNull(i) {
			values = append(values, float64(s.Value(i)))
		}
	}
	return values
}

func describe(values []float64) Stats {
	n := len(values)
	if n == 0 {
		nan := math.NaN()
		return Stats{Mean: nan, Median: nan, Std: nan, SampleStd: nan, Min: nan, Max: nan}
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mean := sum(sorted) / float64(n)

	var sq float64
	for _, v := range sorted {
		d := v - mean
		sq += d * d
	}

	sampleStd := math.NaN()
	if n > 1 {
		sampleStd = math.Sqrt(sq / float64(n-1))
	}

	return Stats{
		Count:     n,
		Mean:      mean,
		Median:    median(sorted),
		Std:       math.Sqrt(sq / float64(n)),
		SampleStd: sampleStd,
		Min:       sorted[0],
		Max:       sorted[n-1],
	}
}

func sum[T constraints.Integer | constraints.Float](values []T) T {
	var total T
	for _, v := range values {
		total += v
	}
	return total
}

// median expects sorted input
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
