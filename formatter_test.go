package dsformat_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"maps"
	"math"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/google/uuid"
	"github.com/paveg/dsformat"
	"github.com/paveg/dsformat/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexDigest = regexp.MustCompile(`^[0-9a-f]{64}$`)

// newFormatter builds a Formatter over a single column and checks for leaks on cleanup
func newFormatter(t *testing.T, column string, values []any, opts ...dsformat.Option) *dsformat.Formatter {
	t.Helper()

	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	s, err := dsformat.SeriesFromValues(column, values, mem)
	require.NoError(t, err)

	f, err := dsformat.NewFormatter(dsformat.NewDatasetWithAllocator(mem, s), opts...)
	require.NoError(t, err)

	t.Cleanup(func() {
		f.Release()
		mem.AssertSize(t, 0)
	})
	return f
}

func values(t *testing.T, f *dsformat.Formatter, column string) []any {
	t.Helper()
	v, ok := f.Dataset().Values(column)
	require.True(t, ok, "column %s should exist", column)
	return v
}

func TestNewFormatter(t *testing.T) {
	t.Run("nil dataset", func(t *testing.T) {
		_, err := dsformat.NewFormatter(nil)
		require.ErrorIs(t, err, dsformat.ErrInvalidInput)
	})

	t.Run("invalid configuration", func(t *testing.T) {
		mem := memory.NewGoAllocator()
		ds := dsformat.NewDataset(dsformat.NewSeries("document", []string{"a"}, mem))
		defer ds.Release()

		cfg := dsformat.Config{HashAlgorithm: "md5", UUIDVersion: 3}
		_, err := dsformat.NewFormatter(ds, dsformat.WithConfig(cfg))
		require.ErrorIs(t, err, dsformat.ErrInvalidInput)
		assert.Contains(t, err.Error(), "HashAlgorithm")
		assert.Contains(t, err.Error(), "UUIDVersion")
	})

	t.Run("defaults", func(t *testing.T) {
		f := newFormatter(t, "document", []any{"a"})
		cfg := f.Config()
		assert.Equal(t, "document", cfg.SourceColumn)
		assert.Equal(t, "hash", cfg.HashColumn)
		assert.Equal(t, "uuid", cfg.UUIDColumn)
	})
}

func TestFormatter_NormalizeThenHash(t *testing.T) {
	f := newFormatter(t, "document", []any{"Legal Text.", "  Other Doc "})

	require.NoError(t, f.NormalizeText("document", ""))
	assert.Equal(t, []any{"legal text.", "other doc"}, values(t, f, "document"))

	require.NoError(t, f.Hash("document", ""))
	assert.Equal(t, []string{"document", "hash"}, f.Dataset().Columns())

	digests := values(t, f, "hash")
	require.Len(t, digests, 2)
	for _, d := range digests {
		assert.Regexp(t, hexDigest, d)
	}
	assert.NotEqual(t, digests[0], digests[1])

	again := newFormatter(t, "document", []any{"legal text.", "other doc"})
	require.NoError(t, again.Hash("", ""))
	assert.Equal(t, digests, values(t, again, "hash"))
}

func TestFormatter_Hash(t *testing.T) {
	t.Run("matches SHA-256 over UTF-8", func(t *testing.T) {
		text := "This is a test document."
		sum := sha256.Sum256([]byte(text))

		f := newFormatter(t, "document", []any{text, "Ünïcode ✓"})
		require.NoError(t, f.Hash("document", "hash"))

		unicode := sha256.Sum256([]byte("Ünïcode ✓"))
		assert.Equal(t, []any{hex.EncodeToString(sum[:]), hex.EncodeToString(unicode[:])}, values(t, f, "hash"))
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		f := newFormatter(t, "document", []any{"a", "b", "a"})
		require.NoError(t, f.Hash("document", "h1"))
		require.NoError(t, f.Hash("document", "h2"))

		assert.Equal(t, values(t, f, "h1"), values(t, f, "h2"))
		h := values(t, f, "h1")
		assert.Equal(t, h[0], h[2])
	})

	t.Run("hashes text rendering of numbers and keeps nulls", func(t *testing.T) {
		f := newFormatter(t, "score", []any{1, nil})
		require.NoError(t, f.Hash("score", "hash"))

		one := sha256.Sum256([]byte("1"))
		assert.Equal(t, []any{hex.EncodeToString(one[:]), nil}, values(t, f, "hash"))
	})

	t.Run("floats keep a fraction and booleans are capitalized", func(t *testing.T) {
		f := newFormatter(t, "score", []any{1.0, 2.5, 1e16})
		require.NoError(t, f.AddConstantColumn("flag", true))
		require.NoError(t, f.Hash("score", "score_hash"))
		require.NoError(t, f.Hash("flag", "flag_hash"))

		hexOf := func(text string) string {
			sum := sha256.Sum256([]byte(text))
			return hex.EncodeToString(sum[:])
		}
		assert.Equal(t, []any{hexOf("1.0"), hexOf("2.5"), hexOf("1e+16")}, values(t, f, "score_hash"))
		assert.Equal(t, hexOf("True"), values(t, f, "flag_hash")[0])
	})

	t.Run("overwrites an existing hash column in place", func(t *testing.T) {
		f := newFormatter(t, "document", []any{"a"})
		require.NoError(t, f.AddConstantColumn("hash", int64(0)))
		require.NoError(t, f.AddConstantColumn("tail", true))

		require.NoError(t, f.Hash("document", "hash"))
		assert.Equal(t, []string{"document", "hash", "tail"}, f.Dataset().Columns())
		assert.Equal(t, dsformat.KindString, f.Dataset().Kinds()["hash"])
	})

	t.Run("configured algorithm", func(t *testing.T) {
		cfg := dsformat.Config{HashAlgorithm: "xxhash64"}
		f := newFormatter(t, "document", []any{"a"}, dsformat.WithConfig(cfg))
		require.NoError(t, f.Hash("", ""))
		assert.Len(t, values(t, f, "hash")[0], 16)
	})
}

func TestFormatter_HashLargeDatasetMatchesSequential(t *testing.T) {
	docs := make([]any, 2500)
	for i := range docs {
		docs[i] = fmt.Sprintf("document %d", i)
	}
	docs[1234] = nil

	parallelF := newFormatter(t, "document", docs, dsformat.WithConfig(dsformat.Config{Workers: 4}))
	sequentialF := newFormatter(t, "document", docs, dsformat.WithConfig(dsformat.Config{Workers: 1}))

	require.NoError(t, parallelF.Hash("", ""))
	require.NoError(t, sequentialF.Hash("", ""))

	got := values(t, parallelF, "hash")
	assert.Equal(t, values(t, sequentialF, "hash"), got)
	assert.Nil(t, got[1234])

	last := sha256.Sum256([]byte("document 2499"))
	assert.Equal(t, hex.EncodeToString(last[:]), got[2499])
}

func TestFormatter_UUID(t *testing.T) {
	f := newFormatter(t, "document", []any{"a", "b", "c"})

	require.NoError(t, f.UUID(""))
	first := values(t, f, "uuid")

	seen := map[any]bool{}
	for _, id := range first {
		require.NotNil(t, id)
		parsed, err := uuid.Parse(id.(string))
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(4), parsed.Version())
		seen[id] = true
	}
	assert.Len(t, seen, 3)

	require.NoError(t, f.UUID("uuid"))
	assert.NotEqual(t, first, values(t, f, "uuid"))
}

func TestFormatter_UUIDGeneratorOverride(t *testing.T) {
	errExhausted := errors.New("entropy exhausted")
	n := 0
	gen := dsformat.IDGeneratorFunc(func() (string, error) {
		n++
		if n > 1 {
			return "", errExhausted
		}
		return "id-1", nil
	})

	f := newFormatter(t, "document", []any{"a", "b"}, dsformat.WithIDGenerator(gen))
	err := f.UUID("id")
	require.ErrorIs(t, err, errExhausted)
	assert.False(t, f.Dataset().HasColumn("id"))
}

func TestFormatter_Apply(t *testing.T) {
	t.Run("hash then uuid", func(t *testing.T) {
		f := newFormatter(t, "document", []any{"x", "y"})
		require.NoError(t, f.Apply("digest", "id"))

		assert.Equal(t, []string{"document", "digest", "id"}, f.Dataset().Columns())
		assert.Regexp(t, hexDigest, values(t, f, "digest")[0])
		assert.Len(t, values(t, f, "id")[1], 36)
	})

	t.Run("missing source column leaves state untouched", func(t *testing.T) {
		f := newFormatter(t, "text", []any{"x"})
		err := f.Apply("", "")
		require.ErrorIs(t, err, dsformat.ErrColumnNotFound)
		assert.Equal(t, []string{"text"}, f.Dataset().Columns())
	})
}

func TestFormatter_NormalizeText(t *testing.T) {
	t.Run("idempotent", func(t *testing.T) {
		f := newFormatter(t, "document", []any{"  MiXeD Case\t", nil, "already"})
		require.NoError(t, f.NormalizeText("document", ""))
		once := values(t, f, "document")

		require.NoError(t, f.NormalizeText("document", ""))
		assert.Equal(t, once, values(t, f, "document"))
		assert.Equal(t, []any{"mixed case", nil, "already"}, once)
	})

	t.Run("into a new column", func(t *testing.T) {
		f := newFormatter(t, "document", []any{" A "})
		require.NoError(t, f.NormalizeText("document", "clean"))

		assert.Equal(t, []any{" A "}, values(t, f, "document"))
		assert.Equal(t, []any{"a"}, values(t, f, "clean"))
	})

	t.Run("non-text column", func(t *testing.T) {
		f := newFormatter(t, "score", []any{1, 2})
		err := f.NormalizeText("score", "")
		require.ErrorIs(t, err, dsformat.ErrTypeConversion)
	})
}

func TestFormatter_FilterRows(t *testing.T) {
	input := []any{"keep", "drop", "keep too"}

	t.Run("always true is identity", func(t *testing.T) {
		f := newFormatter(t, "document", input)
		before := f.Dataset().Rows()

		require.NoError(t, f.FilterRows(func(dsformat.Row) bool { return true }))
		assert.Equal(t, before, f.Dataset().Rows())
	})

	t.Run("always false keeps schema", func(t *testing.T) {
		f := newFormatter(t, "document", input)
		require.NoError(t, f.FilterRows(func(dsformat.Row) bool { return false }))

		assert.Equal(t, 0, f.Dataset().Len())
		assert.Equal(t, []string{"document"}, f.Dataset().Columns())
		assert.Equal(t, dsformat.KindString, f.Dataset().Kinds()["document"])
	})

	t.Run("preserves order", func(t *testing.T) {
		f := newFormatter(t, "document", input)
		require.NoError(t, f.FilterRows(func(r dsformat.Row) bool {
			return strings.HasPrefix(r["document"].(string), "keep")
		}))
		assert.Equal(t, []any{"keep", "keep too"}, values(t, f, "document"))
	})

	t.Run("nil predicate", func(t *testing.T) {
		f := newFormatter(t, "document", input)
		require.ErrorIs(t, f.FilterRows(nil), dsformat.ErrInvalidInput)
		assert.Equal(t, 3, f.Dataset().Len())
	})
}

func TestFormatter_RenameColumn(t *testing.T) {
	t.Run("round trip restores schema", func(t *testing.T) {
		f := newFormatter(t, "a", []any{1, 2})
		require.NoError(t, f.AddConstantColumn("z", "k"))
		before := f.Dataset().Rows()

		require.NoError(t, f.RenameColumn("a", "b"))
		assert.Equal(t, []string{"b", "z"}, f.Dataset().Columns())

		require.NoError(t, f.RenameColumn("b", "a"))
		assert.Equal(t, []string{"a", "z"}, f.Dataset().Columns())
		assert.Equal(t, before, f.Dataset().Rows())
	})

	t.Run("missing column", func(t *testing.T) {
		f := newFormatter(t, "a", []any{1})
		require.ErrorIs(t, f.RenameColumn("nope", "b"), dsformat.ErrColumnNotFound)
	})

	t.Run("onto an existing column", func(t *testing.T) {
		f := newFormatter(t, "a", []any{1})
		require.NoError(t, f.AddConstantColumn("b", 2))
		require.ErrorIs(t, f.RenameColumn("a", "b"), dsformat.ErrInvalidInput)
		assert.Equal(t, []string{"a", "b"}, f.Dataset().Columns())
	})
}

func TestFormatter_DropColumnThenReference(t *testing.T) {
	f := newFormatter(t, "document", []any{"a", nil})
	require.NoError(t, f.AddConstantColumn("keep", 1))
	require.NoError(t, f.DropColumn("document"))
	assert.Equal(t, []string{"keep"}, f.Dataset().Columns())

	checks := map[string]func() error{
		"Hash":              func() error { return f.Hash("document", "") },
		"NormalizeText":     func() error { return f.NormalizeText("document", "") },
		"RenameColumn":      func() error { return f.RenameColumn("document", "x") },
		"DropColumn":        func() error { return f.DropColumn("document") },
		"ConvertColumnType": func() error { return f.ConvertColumnType("document", dsformat.KindInt64) },
		"FillMissing":       func() error { return f.FillMissing("document", "x") },
		"ComputeSummary": func() error {
			_, err := f.ComputeSummary("document")
			return err
		},
	}

	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			err := check()
			require.ErrorIs(t, err, dsformat.ErrColumnNotFound)

			var dsErr *dsformat.DatasetError
			require.ErrorAs(t, err, &dsErr)
			assert.Equal(t, name, dsErr.Op)
			assert.Equal(t, "document", dsErr.Column)
		})
	}
	assert.Equal(t, []string{"keep"}, f.Dataset().Columns())
}

func TestFormatter_DropLastColumnKeepsRows(t *testing.T) {
	f := newFormatter(t, "document", []any{"a", "b", "c"})
	require.NoError(t, f.DropColumn("document"))
	assert.Empty(t, f.Dataset().Columns())
	assert.Equal(t, 3, f.Dataset().Len())

	require.NoError(t, f.AddConstantColumn("k", 1))
	assert.Equal(t, []any{int64(1), int64(1), int64(1)}, values(t, f, "k"))

	require.NoError(t, f.UUID(""))
	assert.Len(t, values(t, f, "uuid"), 3)
}

func TestFormatter_AddConstantColumn(t *testing.T) {
	t.Run("adds and overwrites in place", func(t *testing.T) {
		f := newFormatter(t, "document", []any{"a", "b"})
		require.NoError(t, f.AddConstantColumn("source", "court"))
		require.NoError(t, f.AddConstantColumn("year", 2024))
		assert.Equal(t, []any{"court", "court"}, values(t, f, "source"))
		assert.Equal(t, []any{int64(2024), int64(2024)}, values(t, f, "year"))

		require.NoError(t, f.AddConstantColumn("source", 1.5))
		assert.Equal(t, []string{"document", "source", "year"}, f.Dataset().Columns())
		assert.Equal(t, []any{1.5, 1.5}, values(t, f, "source"))
	})

	t.Run("nil constant is a null column", func(t *testing.T) {
		f := newFormatter(t, "document", []any{"a"})
		require.NoError(t, f.AddConstantColumn("note", nil))
		assert.Equal(t, []any{nil}, values(t, f, "note"))
	})

	t.Run("unsupported value type", func(t *testing.T) {
		f := newFormatter(t, "document", []any{"a"})
		require.ErrorIs(t, f.AddConstantColumn("bad", struct{}{}), dsformat.ErrInvalidInput)
		require.ErrorIs(t, f.AddConstantColumn("", 1), dsformat.ErrInvalidInput)
		assert.Equal(t, []string{"document"}, f.Dataset().Columns())
	})

	t.Run("uint beyond int64 range", func(t *testing.T) {
		f := newFormatter(t, "document", []any{"a"})
		require.ErrorIs(t, f.AddConstantColumn("big", uint(math.MaxUint64)), dsformat.ErrInvalidInput)
		assert.Equal(t, []string{"document"}, f.Dataset().Columns())

		require.NoError(t, f.AddConstantColumn("max", uint(math.MaxInt64)))
		assert.Equal(t, []any{int64(math.MaxInt64)}, values(t, f, "max"))
	})
}

func TestFormatter_ConvertColumnType(t *testing.T) {
	t.Run("failure leaves dataset unchanged", func(t *testing.T) {
		f := newFormatter(t, "score", []any{"1", "2", "bad"})

		err := f.ConvertColumnType("score", dsformat.KindInt64)
		require.ErrorIs(t, err, dsformat.ErrTypeConversion)
		assert.Contains(t, err.Error(), "row 2")

		assert.Equal(t, []any{"1", "2", "bad"}, values(t, f, "score"))
		assert.Equal(t, dsformat.KindString, f.Dataset().Kinds()["score"])
	})

	t.Run("text to int to float to text", func(t *testing.T) {
		f := newFormatter(t, "score", []any{"1", nil, " 3 "})

		require.NoError(t, f.ConvertColumnType("score", dsformat.KindInt64))
		assert.Equal(t, []any{int64(1), nil, int64(3)}, values(t, f, "score"))

		kind, err := dsformat.ParseKind("float")
		require.NoError(t, err)
		require.NoError(t, f.ConvertColumnType("score", kind))
		assert.Equal(t, []any{1.0, nil, 3.0}, values(t, f, "score"))

		require.NoError(t, f.ConvertColumnType("score", dsformat.KindString))
		assert.Equal(t, []any{"1", nil, "3"}, values(t, f, "score"))
	})

	t.Run("invalid kind", func(t *testing.T) {
		f := newFormatter(t, "score", []any{1})
		var invalid dsformat.Kind
		require.ErrorIs(t, f.ConvertColumnType("score", invalid), dsformat.ErrInvalidInput)
	})
}

func TestFormatter_FillMissing(t *testing.T) {
	t.Run("fills only nulls", func(t *testing.T) {
		f := newFormatter(t, "score", []any{1, nil, 3})
		require.NoError(t, f.FillMissing("score", 0))
		assert.Equal(t, []any{int64(1), int64(0), int64(3)}, values(t, f, "score"))
	})

	t.Run("fill value converted to column kind", func(t *testing.T) {
		f := newFormatter(t, "document", []any{nil, "x"})
		require.NoError(t, f.FillMissing("document", 42))
		assert.Equal(t, []any{"42", "x"}, values(t, f, "document"))
	})

	t.Run("unconvertible fill value", func(t *testing.T) {
		f := newFormatter(t, "score", []any{1, nil})
		require.ErrorIs(t, f.FillMissing("score", "n/a"), dsformat.ErrTypeConversion)
		assert.Equal(t, []any{int64(1), nil}, values(t, f, "score"))
	})
}

func TestFormatter_ComputeSummary(t *testing.T) {
	t.Run("two four six", func(t *testing.T) {
		f := newFormatter(t, "score", []any{2, 4, 6})
		summary, err := f.ComputeSummary("score")
		require.NoError(t, err)

		assert.InDelta(t, 4.0, summary.Mean, 1e-9)
		assert.InDelta(t, 4.0, summary.Median, 1e-9)
		assert.InDelta(t, math.Sqrt(8.0/3.0), summary.Std, 1e-9)
		assert.InDelta(t, 2.0, summary.SampleStd, 1e-9)
		assert.Equal(t, []string{"mean", "median", "std"}, sortedKeys(summary.Map()))
	})

	t.Run("population std of one to five", func(t *testing.T) {
		f := newFormatter(t, "score", []any{1.0, 2.0, 3.0, 4.0, 5.0})
		summary, err := f.ComputeSummary("score")
		require.NoError(t, err)
		assert.InDelta(t, 1.414, summary.Std, 1e-3)
		assert.InDelta(t, 3.0, summary.Median, 1e-9)
	})

	t.Run("skips nulls", func(t *testing.T) {
		f := newFormatter(t, "score", []any{1, nil, 3, 10})
		summary, err := f.ComputeSummary("score")
		require.NoError(t, err)
		assert.Equal(t, 3, summary.Count)
		assert.Equal(t, 1, summary.Nulls)
		assert.InDelta(t, 3.0, summary.Median, 1e-9)
	})

	t.Run("non-numeric column", func(t *testing.T) {
		f := newFormatter(t, "score", []any{"1", "2", "bad"})
		_, err := f.ComputeSummary("score")
		require.ErrorIs(t, err, dsformat.ErrTypeConversion)
	})

	t.Run("no values yields NaN", func(t *testing.T) {
		f := newFormatter(t, "score", []any{1})
		require.NoError(t, f.FilterRows(func(dsformat.Row) bool { return false }))
		summary, err := f.ComputeSummary("score")
		require.NoError(t, err)
		assert.True(t, math.IsNaN(summary.Mean))
	})
}

func TestFormatter_MetricsAndLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(&buf, "debug", "json")
	collector := dsformat.NewMetricsCollector(true)

	f := newFormatter(t, "document", []any{"a", "b", "c"},
		dsformat.WithLogger(logger), dsformat.WithMetrics(collector))

	require.NoError(t, f.FilterRows(func(r dsformat.Row) bool { return r["document"] != "b" }))
	require.ErrorIs(t, f.DropColumn("missing"), dsformat.ErrColumnNotFound)

	metrics := f.Metrics()
	require.Len(t, metrics, 2)
	assert.Equal(t, "FilterRows", metrics[0].Operation)
	assert.Equal(t, int64(3), metrics[0].RowsIn)
	assert.Equal(t, int64(2), metrics[0].RowsOut)
	assert.True(t, metrics[1].Failed)

	out := buf.String()
	assert.Contains(t, out, `"op":"FilterRows"`)
	assert.NotContains(t, out, `"op":"DropColumn"`)
}

func TestFormatter_ReleasesReplacedDatasets(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	docs := make([]string, 1000)
	for i := range docs {
		docs[i] = fmt.Sprintf("  Document %d  ", i)
	}
	original := dsformat.NewDatasetWithAllocator(mem, dsformat.NewSeries("document", docs, mem))
	f, err := dsformat.NewFormatter(original)
	require.NoError(t, err)

	require.NoError(t, f.NormalizeText("document", ""))
	baseline := mem.CurrentAlloc()
	for range 50 {
		require.NoError(t, f.NormalizeText("document", ""))
	}
	assert.LessOrEqual(t, mem.CurrentAlloc(), 2*baseline)

	// the caller's dataset is kept until Release
	assert.Equal(t, "  Document 0  ", original.Row(0)["document"])
	assert.Equal(t, "document 0", f.Dataset().Row(0)["document"])

	f.Release()
}

func TestFormatter_AfterRelease(t *testing.T) {
	f := newFormatter(t, "document", []any{"a"})
	f.Release()

	_, err := f.ComputeSummary("document")
	require.ErrorIs(t, err, dsformat.ErrInvalidInput)
	require.ErrorIs(t, f.DropColumn("document"), dsformat.ErrInvalidInput)
	require.ErrorIs(t, f.Apply("", ""), dsformat.ErrInvalidInput)
	assert.Contains(t, f.Hash("", "").Error(), "formatter has been released")
}

func sortedKeys(m map[string]float64) []string {
	return slices.Sorted(maps.Keys(m))
}
