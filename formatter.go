package dsformat

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/paveg/dsformat/internal/config"
	"github.com/paveg/dsformat/internal/dataset"
	"github.com/paveg/dsformat/internal/digest"
	"github.com/paveg/dsformat/internal/errors"
	"github.com/paveg/dsformat/internal/monitoring"
	"github.com/paveg/dsformat/internal/parallel"
	"github.com/paveg/dsformat/internal/series"
)

// Config holds the Formatter defaults. See config.Config for the fields.
type Config = config.Config

// OperationMetrics describes one recorded Formatter operation
type OperationMetrics = monitoring.OperationMetrics

// Hasher computes the digests written by Hash and Apply
type Hasher = digest.Hasher

// IDGenerator produces the identifiers written by UUID and Apply
type IDGenerator = digest.IDGenerator

// IDGeneratorFunc adapts a function to the IDGenerator interface
type IDGeneratorFunc = digest.IDGeneratorFunc

// MetricsCollector records per-operation metrics
type MetricsCollector = monitoring.MetricsCollector

// NewHasher returns the hasher for "sha256", "sha512" or "xxhash64"
func NewHasher(algorithm string) (Hasher, error) {
	return digest.NewHasher(algorithm)
}

// NewMetricsCollector creates a collector; a disabled collector records nothing
func NewMetricsCollector(enabled bool) *MetricsCollector {
	return monitoring.NewMetricsCollector(enabled)
}

// Summary holds descriptive statistics for a numeric column.
// Std is the population standard deviation; SampleStd divides by n-1.
type Summary struct {
	Count     int
	Nulls     int
	Mean      float64
	Median    float64
	Std       float64
	SampleStd float64
	Min       float64
	Max       float64
}

// Map returns the mean, median and std keyed by name
func (s Summary) Map() map[string]float64 {
	return map[string]float64{
		"mean":   s.Mean,
		"median": s.Median,
		"std":    s.Std,
	}
}

// Option configures a Formatter
type Option func(*Formatter)

// WithConfig replaces the global configuration for this Formatter
func WithConfig(cfg Config) Option {
	return func(f *Formatter) {
		f.cfg = cfg.WithDefaults()
	}
}

// WithLogger sets the logger that receives per-operation records
func WithLogger(logger *slog.Logger) Option {
	return func(f *Formatter) {
		f.logger = logger
	}
}

// WithHasher overrides the configured hash algorithm
func WithHasher(h Hasher) Option {
	return func(f *Formatter) {
		f.hasher = h
	}
}

// WithIDGenerator overrides the configured UUID version
func WithIDGenerator(g IDGenerator) Option {
	return func(f *Formatter) {
		f.ids = g
	}
}

// WithMetrics records every operation in collector
func WithMetrics(collector *MetricsCollector) Option {
	return func(f *Formatter) {
		f.metrics = collector
	}
}

// Formatter applies column transformations to a Dataset.
//
// Every successful operation replaces the held Dataset and releases the one
// it replaced; a failed operation returns an error and leaves it untouched.
// The Dataset passed to NewFormatter stays valid until Release.
//
// A Formatter is not safe for concurrent use.
type Formatter struct {
	current  *dataset.Dataset
	original *dataset.Dataset
	cfg     config.Config
	hasher  digest.Hasher
	ids     digest.IDGenerator
	logger  *slog.Logger
	metrics *monitoring.MetricsCollector
	memory  *MemoryManager
	pool    *parallel.WorkerPool
}

// NewFormatter wraps ds. On success the Formatter owns ds and releases it on Release;
// on error the caller keeps ownership.
func NewFormatter(ds *Dataset, opts ...Option) (*Formatter, error) {
	if ds == nil || ds.ds == nil {
		return nil, errors.NewInvalidInputError("NewFormatter", "dataset is nil")
	}

	f := &Formatter{
		cfg:    config.GetGlobalConfig().WithDefaults(),
		memory: NewMemoryManager(),
	}
	for _, opt := range opts {
		opt(f)
	}

	if err := f.cfg.Validate(); err != nil {
		return nil, errors.NewValidationError("NewFormatter", "", err.Error())
	}

	if f.hasher == nil {
		h, err := digest.NewHasher(f.cfg.HashAlgorithm)
		if err != nil {
			return nil, errors.NewValidationError("NewFormatter", "", err.Error())
		}
		f.hasher = h
	}
	if f.ids == nil {
		g, err := digest.NewUUIDGenerator(f.cfg.UUIDVersion)
		if err != nil {
			return nil, errors.NewValidationError("NewFormatter", "", err.Error())
		}
		f.ids = g
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.metrics == nil {
		f.metrics = monitoring.NewMetricsCollector(f.cfg.MetricsCollection)
	}

	f.pool = parallel.NewWorkerPool(f.cfg.Workers)
	f.memory.Track(ds.ds)
	f.original = ds.ds
	f.current = ds.ds
	return f, nil
}

// Dataset returns the current Dataset. It is owned by the Formatter, must not
// be released and stays valid until the next successful operation or Release.
func (f *Formatter) Dataset() *Dataset {
	return &Dataset{ds: f.current}
}

// Config returns the effective configuration
func (f *Formatter) Config() Config {
	return f.cfg
}

// Metrics returns a snapshot of the recorded operations
func (f *Formatter) Metrics() []OperationMetrics {
	return f.metrics.GetMetrics()
}

// Release frees the held Dataset and the one passed to NewFormatter.
// Any later operation fails with ErrInvalidInput.
func (f *Formatter) Release() {
	f.pool.Close()
	f.swap(nil)
	f.memory.ReleaseAll()
	f.original = nil
}

// Hash writes the hex digest of each value of column into hashColumn,
// adding it or overwriting it in place. Values are hashed over the UTF-8 bytes
// of their text rendering: integers in decimal, floats in shortest round-trip
// form that always carries a fraction or exponent ("1.0", "2.5", "1e+16", "nan"),
// and booleans as "True" or "False". Null cells produce null digests.
// Empty names fall back to the configured source and hash columns.
func (f *Formatter) Hash(column, hashColumn string) error {
	column = orDefault(column, f.cfg.SourceColumn)
	hashColumn = orDefault(hashColumn, f.cfg.HashColumn)

	return f.apply("Hash", column, func(ds *dataset.Dataset) (*dataset.Dataset, error) {
		return f.hashed(ds, "Hash", column, hashColumn)
	})
}

// UUID writes a fresh identifier for each row into uuidColumn.
// An empty name falls back to the configured UUID column.
func (f *Formatter) UUID(uuidColumn string) error {
	uuidColumn = orDefault(uuidColumn, f.cfg.UUIDColumn)

	return f.apply("UUID", uuidColumn, func(ds *dataset.Dataset) (*dataset.Dataset, error) {
		return f.tagged(ds, "UUID", uuidColumn)
	})
}

// Apply hashes the configured source column into hashColumn and then tags
// every row in uuidColumn, replacing the Dataset once both succeed.
func (f *Formatter) Apply(hashColumn, uuidColumn string) error {
	column := f.cfg.SourceColumn
	hashColumn = orDefault(hashColumn, f.cfg.HashColumn)
	uuidColumn = orDefault(uuidColumn, f.cfg.UUIDColumn)

	return f.apply("Apply", column, func(ds *dataset.Dataset) (*dataset.Dataset, error) {
		hashed, err := f.hashed(ds, "Apply", column, hashColumn)
		if err != nil {
			return nil, err
		}
		defer hashed.Release()
		return f.tagged(hashed, "Apply", uuidColumn)
	})
}

// NormalizeText lowercases and trims the text of column. The result replaces
// column when normalizedColumn is empty and is added as normalizedColumn otherwise.
// Null cells stay null.
func (f *Formatter) NormalizeText(column, normalizedColumn string) error {
	target := orDefault(normalizedColumn, column)

	return f.apply("NormalizeText", column, func(ds *dataset.Dataset) (*dataset.Dataset, error) {
		if err := ds.RequireColumns("NormalizeText", column); err != nil {
			return nil, err
		}
		col, _ := ds.Column(column)
		if col.Kind() != series.KindString {
			return nil, errors.NewUnsupportedTypeError("NormalizeText", column, col.Kind().String())
		}
		return ds.MapColumn("NormalizeText", column, target, func(v any) (any, error) {
			if v == nil {
				return nil, nil
			}
			return strings.ToLower(strings.TrimSpace(v.(string))), nil
		})
	})
}

// FilterRows keeps the rows for which predicate returns true, in order.
// When no row matches the Dataset becomes empty but keeps its columns.
func (f *Formatter) FilterRows(predicate func(Row) bool) error {
	return f.apply("FilterRows", "", func(ds *dataset.Dataset) (*dataset.Dataset, error) {
		return ds.Filter("FilterRows", predicate)
	})
}

// RenameColumn renames old to name, keeping its values and position
func (f *Formatter) RenameColumn(old, name string) error {
	return f.apply("RenameColumn", old, func(ds *dataset.Dataset) (*dataset.Dataset, error) {
		return ds.Rename("RenameColumn", old, name)
	})
}

// DropColumn removes column
func (f *Formatter) DropColumn(column string) error {
	return f.apply("DropColumn", column, func(ds *dataset.Dataset) (*dataset.Dataset, error) {
		return ds.Drop("DropColumn", column)
	})
}

// AddConstantColumn sets every row of column to value. An existing column is
// overwritten in place. A nil value yields an all-null text column.
func (f *Formatter) AddConstantColumn(column string, value any) error {
	return f.apply("AddConstantColumn", column, func(ds *dataset.Dataset) (*dataset.Dataset, error) {
		if column == "" {
			return nil, errors.NewInvalidInputError("AddConstantColumn", "column name is empty")
		}
		if value != nil && series.KindOfValue(value) == series.KindInvalid {
			return nil, errors.NewValidationError("AddConstantColumn", column,
				fmt.Sprintf("unsupported constant type %T", value))
		}
		return ds.Generate("AddConstantColumn", column, func(int) (any, error) {
			return value, nil
		})
	})
}

// ConvertColumnType casts every value of column to kind. The first value that
// cannot be converted aborts the cast with an error wrapping ErrTypeConversion.
func (f *Formatter) ConvertColumnType(column string, kind Kind) error {
	return f.apply("ConvertColumnType", column, func(ds *dataset.Dataset) (*dataset.Dataset, error) {
		if err := ds.RequireColumns("ConvertColumnType", column); err != nil {
			return nil, err
		}
		if kind == series.KindInvalid {
			return nil, errors.NewValidationError("ConvertColumnType", column, "target kind is invalid")
		}
		return ds.Cast("ConvertColumnType", column, kind)
	})
}

// FillMissing replaces the null cells of column with value converted to the column's kind
func (f *Formatter) FillMissing(column string, value any) error {
	return f.apply("FillMissing", column, func(ds *dataset.Dataset) (*dataset.Dataset, error) {
		return ds.FillNull("FillMissing", column, value)
	})
}

// ComputeSummary returns statistics over the non-null values of a numeric column.
// Non-numeric columns fail with an error wrapping ErrTypeConversion.
func (f *Formatter) ComputeSummary(column string) (Summary, error) {
	if f.current == nil {
		return Summary{}, errReleased("ComputeSummary")
	}
	var stats dataset.Stats
	start := time.Now()
	rows := f.current.Len()

	err := f.metrics.RecordOperation("ComputeSummary", column, rows, func() (monitoring.Shape, error) {
		var err error
		stats, err = f.current.Describe("ComputeSummary", column)
		return monitoring.Shape{Rows: rows, Columns: f.current.Width()}, err
	})
	if err != nil {
		return Summary{}, err
	}

	f.log("ComputeSummary", column, rows, start)
	return Summary(stats), nil
}

// apply runs fn against the current Dataset and swaps in the result on success
func (f *Formatter) apply(op, column string, fn func(*dataset.Dataset) (*dataset.Dataset, error)) error {
	if f.current == nil {
		return errReleased(op)
	}
	start := time.Now()
	var next *dataset.Dataset

	err := f.metrics.RecordOperation(op, column, f.current.Len(), func() (monitoring.Shape, error) {
		var err error
		next, err = fn(f.current)
		if err != nil {
			return monitoring.Shape{}, err
		}
		return monitoring.Shape{Rows: next.Len(), Columns: next.Width()}, nil
	})
	if err != nil {
		return err
	}

	f.swap(next)
	f.log(op, column, next.Len(), start)
	return nil
}

// swap releases the held Dataset unless it is the caller's original
func (f *Formatter) swap(next *dataset.Dataset) {
	if f.current != nil && f.current != f.original {
		f.current.Release()
	}
	f.current = next
}

func errReleased(op string) error {
	return errors.NewInvalidInputError(op, "formatter has been released")
}

func (f *Formatter) log(op, column string, rows int, start time.Time) {
	level := slog.LevelDebug
	if f.cfg.VerboseLogging {
		level = slog.LevelInfo
	}
	f.logger.Log(context.Background(), level, "operation completed",
		"op", op,
		"column", column,
		"rows", rows,
		"duration", time.Since(start),
	)
}

func (f *Formatter) hashed(ds *dataset.Dataset, op, column, target string) (*dataset.Dataset, error) {
	if err := ds.RequireColumns(op, column); err != nil {
		return nil, err
	}
	col, _ := ds.Column(column)

	digests, err := parallel.Map(f.pool, col.Len(), func(i int) (any, error) {
		if col.IsNull(i) {
			return nil, nil
		}
		return f.hasher.Sum(hashText(col, i)), nil
	})
	if err != nil {
		return nil, errors.NewInternalError(op, err)
	}
	return ds.WithValues(op, target, digests)
}

func hashText(col series.ISeries, i int) string {
	switch v := col.ValueAt(i).(type) {
	case float64:
		return floatText(v)
	case float32:
		return floatText(float64(v))
	case bool:
		if v {
			return "True"
		}
		return "False"
	default:
		return col.GetAsString(i)
	}
}

// floatText switches to exponent form below 1e-4 and from 1e16 on
func floatText(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	if abs := math.Abs(v); abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	text := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(text, ".") {
		text += ".0"
	}
	return text
}

func (f *Formatter) tagged(ds *dataset.Dataset, op, target string) (*dataset.Dataset, error) {
	return ds.Generate(op, target, func(int) (any, error) {
		id, err := f.ids.NewID()
		if err != nil {
			return nil, errors.NewInternalError(op, err)
		}
		return id, nil
	})
}

func orDefault(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}
