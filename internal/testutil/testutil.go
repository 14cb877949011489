// Package testutil provides common testing utilities shared by the dataset
// and formatter tests:
// - Memory allocator setup with leak checks
// - Standard document dataset creation
// - Common dataset assertions
package testutil

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/dsformat/internal/dataset"
	"github.com/paveg/dsformat/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// defaultRowCount is the default number of rows in test datasets.
	defaultRowCount = 4
)

// TestMemoryContext provides a checked allocator that verifies every
// Arrow buffer was released when the test ends.
type TestMemoryContext struct {
	Allocator *memory.CheckedAllocator
	tb        testing.TB
}

// Release asserts that no Arrow memory is still allocated.
func (tmc *TestMemoryContext) Release() {
	tmc.Allocator.AssertSize(tmc.tb, 0)
}

// SetupMemoryTest creates a checked allocator for tests.
//
// Example usage:
//
//	mem := testutil.SetupMemoryTest(t)
//	defer mem.Release()
func SetupMemoryTest(tb testing.TB) *TestMemoryContext {
	tb.Helper()
	return &TestMemoryContext{
		Allocator: memory.NewCheckedAllocator(memory.NewGoAllocator()),
		tb:        tb,
	}
}

// TestDatasetOption configures test Dataset creation.
type TestDatasetOption func(*testDatasetConfig)

type testDatasetConfig struct {
	includeNulls bool
	rowCount     int
}

// WithNulls makes every third score and every fourth category null.
func WithNulls() TestDatasetOption {
	return func(cfg *testDatasetConfig) {
		cfg.includeNulls = true
	}
}

// WithRowCount sets the number of rows in test data.
func WithRowCount(count int) TestDatasetOption {
	return func(cfg *testDatasetConfig) {
		cfg.rowCount = count
	}
}

// CreateDocumentDataset creates a standard dataset of legal documents.
//
// Default Dataset includes:
// - document (string): ["Legal Text.", "  Other Doc ", "Contract CLAUSE", "Appendix"]
// - score (int64): [2, 4, 6, 8]
// - category (string): ["law", "misc", "law", "annex"]
func CreateDocumentDataset(allocator memory.Allocator, opts ...TestDatasetOption) *dataset.Dataset {
	cfg := &testDatasetConfig{rowCount: defaultRowCount}
	for _, opt := range opts {
		opt(cfg)
	}

	documents := cycle(cfg.rowCount, []string{"Legal Text.", "  Other Doc ", "Contract CLAUSE", "Appendix"})
	scores := make([]int64, cfg.rowCount)
	for i := range scores {
		scores[i] = int64(2 * (i + 1))
	}
	categories := cycle(cfg.rowCount, []string{"law", "misc", "law", "annex"})

	scoreValid := make([]bool, cfg.rowCount)
	categoryValid := make([]bool, cfg.rowCount)
	for i := range cfg.rowCount {
		scoreValid[i] = !cfg.includeNulls || i%3 != 1
		categoryValid[i] = !cfg.includeNulls || i%4 != 3
	}

	docSeries := series.New("document", documents, allocator)
	scoreSeries, err := series.NewWithNulls("score", scores, scoreValid, allocator)
	if err != nil {
		panic(err)
	}
	categorySeries, err := series.NewWithNulls("category", categories, categoryValid, allocator)
	if err != nil {
		panic(err)
	}

	return dataset.NewWithAllocator(allocator, docSeries, scoreSeries, categorySeries)
}

// CreateColumnDataset creates a single-column dataset from untyped values; nil values are null.
func CreateColumnDataset(tb testing.TB, allocator memory.Allocator, name string, values ...any) *dataset.Dataset {
	tb.Helper()
	s, err := series.FromValues(name, values, allocator)
	require.NoError(tb, err)
	return dataset.NewWithAllocator(allocator, s)
}

// AssertDatasetEqual compares schema, kinds and every row of two datasets.
func AssertDatasetEqual(t *testing.T, expected, actual *dataset.Dataset) {
	t.Helper()

	require.NotNil(t, expected, "expected Dataset should not be nil")
	require.NotNil(t, actual, "actual Dataset should not be nil")

	assert.Equal(t, expected.Columns(), actual.Columns(), "Dataset columns should match")
	assert.Equal(t, expected.Kinds(), actual.Kinds(), "Dataset column kinds should match")
	assert.Equal(t, expected.Rows(), actual.Rows(), "Dataset rows should match")
}

// AssertDatasetHasColumns verifies that a Dataset has exactly the expected columns, in order.
func AssertDatasetHasColumns(t *testing.T, ds *dataset.Dataset, expectedColumns ...string) {
	t.Helper()

	require.NotNil(t, ds, "Dataset should not be nil")
	assert.Equal(t, expectedColumns, ds.Columns())
}

// ColumnValues returns every value of column in row order; null cells are nil.
func ColumnValues(t *testing.T, ds *dataset.Dataset, column string) []any {
	t.Helper()

	col, ok := ds.Column(column)
	require.True(t, ok, "Dataset should have column %s", column)

	values := make([]any, col.Len())
	for i := range values {
		values[i] = col.ValueAt(i)
	}
	return values
}

func cycle[T any](count int, base []T) []T {
	out := make([]T, count)
	for i := range count {
		out[i] = base[i%len(base)]
	}
	return out
}
