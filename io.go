package dsformat

import (
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/paveg/dsformat/internal/io"
)

// ReadFile reads a Dataset from a .csv, .json, .jsonl/.ndjson or .parquet file.
// A trailing .lz4 extension marks an lz4-framed file.
func ReadFile(path string) (*Dataset, error) {
	return ReadFileWithAllocator(path, memory.NewGoAllocator())
}

// ReadFileWithAllocator reads a Dataset whose columns are allocated from mem.
func ReadFileWithAllocator(path string, mem memory.Allocator) (*Dataset, error) {
	ds, err := io.ReadFile(path, mem)
	if err != nil {
		return nil, err
	}
	return &Dataset{ds: ds}, nil
}

// WriteFile writes ds to path, choosing the format from the extension as ReadFile does.
func WriteFile(path string, ds *Dataset) error {
	return io.WriteFile(path, ds.ds)
}
