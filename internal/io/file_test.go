package io_test

import (
	"bytes"
	goio "io"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/dsformat/internal/io"
	"github.com/paveg/dsformat/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path       string
		format     io.Format
		compressed bool
		wantErr    bool
	}{
		{"data.csv", io.FormatCSV, false, false},
		{"DATA.JSON", io.FormatJSON, false, false},
		{"rows.jsonl", io.FormatJSONLines, false, false},
		{"rows.ndjson.lz4", io.FormatJSONLines, true, false},
		{"table.parquet", io.FormatParquet, false, false},
		{"data.csv.lz4", io.FormatCSV, true, false},
		{"notes.txt", io.FormatUnknown, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, compressed, err := io.DetectFormat(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.format, format)
			assert.Equal(t, tt.compressed, compressed)
		})
	}
}

func TestLZ4RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	zw := io.NewLZ4Writer(&buf)
	_, err := zw.Write([]byte("document\nLegal Text.\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	out, err := goio.ReadAll(io.NewLZ4Reader(&buf))
	require.NoError(t, err)
	assert.Equal(t, "document\nLegal Text.\n", string(out))
}

func TestReadWriteFile(t *testing.T) {
	mem := memory.NewGoAllocator()
	dir := t.TempDir()

	for _, name := range []string{"out.csv", "out.json", "out.jsonl", "out.parquet", "out.csv.lz4", "out.jsonl.lz4"} {
		t.Run(name, func(t *testing.T) {
			ds := createParquetTestDataset(t, mem)
			defer ds.Release()

			path := filepath.Join(dir, name)
			require.NoError(t, io.WriteFile(path, ds))

			back, err := io.ReadFile(path, mem)
			require.NoError(t, err)
			defer back.Release()

			assert.Equal(t, ds.Columns(), back.Columns())
			assert.Equal(t, ds.Len(), back.Len())
			assert.Equal(t, "Legal Text.", back.Row(0)["document"])
			assert.Nil(t, back.Row(1)["document"])
		})
	}

	t.Run("unknown extension", func(t *testing.T) {
		ds := createParquetTestDataset(t, mem)
		defer ds.Release()

		require.Error(t, io.WriteFile(filepath.Join(dir, "out.xlsx"), ds))
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := io.ReadFile(filepath.Join(dir, "missing.csv"), mem)
		require.Error(t, err)
	})
}

func TestWriteReadFile_DocumentDataset(t *testing.T) {
	mem := testutil.SetupMemoryTest(t)
	defer mem.Release()

	ds := testutil.CreateDocumentDataset(mem.Allocator, testutil.WithNulls(), testutil.WithRowCount(9))
	defer ds.Release()

	dir := t.TempDir()
	for _, name := range []string{"docs.parquet", "docs.jsonl.lz4", "docs.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, io.WriteFile(path, ds))

			back, err := io.ReadFile(path, memory.NewGoAllocator())
			require.NoError(t, err)
			defer back.Release()

			testutil.AssertDatasetEqual(t, ds, back)
		})
	}
}
