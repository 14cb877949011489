package io

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/paveg/dsformat/internal/dataset"
	"github.com/paveg/dsformat/internal/series"
)

// Read reads Parquet data and returns a Dataset.
func (r *ParquetReader) Read() (*dataset.Dataset, error) {
	// Parquet needs random access, so the whole stream is buffered
	data, err := io.ReadAll(r.reader)
	if err != nil {
		return nil, fmt.Errorf("reading data: %w", err)
	}

	pqReader, err := file.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating parquet file reader: %w", err)
	}
	defer func() { _ = pqReader.Close() }()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, r.mem)
	if err != nil {
		return nil, fmt.Errorf("creating arrow file reader: %w", err)
	}

	table, err := arrowReader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("reading table: %w", err)
	}
	defer table.Release()

	return r.arrowTableToDataset(table)
}

// arrowTableToDataset converts an Arrow table to a Dataset.
func (r *ParquetReader) arrowTableToDataset(table arrow.Table) (*dataset.Dataset, error) {
	schema := table.Schema()
	seriesList := make([]dataset.ISeries, 0, table.NumCols())

	for i := range int(table.NumCols()) {
		field := schema.Field(i)
		s, err := r.arrowColumnToSeries(field, table.Column(i))
		if err != nil {
			for _, created := range seriesList {
				created.Release()
			}
			return nil, fmt.Errorf("converting column %s: %w", field.Name, err)
		}
		seriesList = append(seriesList, s)
	}

	return dataset.NewWithAllocator(r.mem, seriesList...), nil
}

// arrowColumnToSeries flattens a chunked Arrow column into a single-array Series.
func (r *ParquetReader) arrowColumnToSeries(field arrow.Field, column *arrow.Column) (dataset.ISeries, error) {
	kind := series.KindOf(field.Type)
	if kind == series.KindInvalid {
		return nil, fmt.Errorf("unsupported Arrow type: %s", field.Type)
	}

	chunks := column.Data().Chunks()
	switch len(chunks) {
	case 0:
		return series.Empty(field.Name, kind, r.mem)
	case 1:
		chunks[0].Retain()
		return series.FromArray(field.Name, chunks[0])
	default:
		arr, err := array.Concatenate(chunks, r.mem)
		if err != nil {
			return nil, fmt.Errorf("concatenating chunks: %w", err)
		}
		return series.FromArray(field.Name, arr)
	}
}

// Write writes the Dataset to Parquet format.
func (w *ParquetWriter) Write(ds *dataset.Dataset) error {
	table := w.datasetToArrowTable(ds)
	defer table.Release()

	compression, err := parquetCodec(w.options.Compression)
	if err != nil {
		return err
	}

	batchSize := w.options.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compression),
		parquet.WithBatchSize(int64(batchSize)),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithAllocator(ds.Allocator()),
		pqarrow.WithStoreSchema(),
	)

	// pqarrow closes a sink that implements io.Closer; the caller owns w.writer
	sink := struct{ io.Writer }{w.writer}
	writer, err := pqarrow.NewFileWriter(table.Schema(), sink, props, arrowProps)
	if err != nil {
		return fmt.Errorf("creating file writer: %w", err)
	}

	chunkSize := int64(ds.Len())
	if chunkSize == 0 {
		chunkSize = 1
	}
	if err := writer.WriteTable(table, chunkSize); err != nil {
		_ = writer.Close()
		return fmt.Errorf("writing table: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing parquet writer: %w", err)
	}
	return nil
}

func parquetCodec(name string) (compress.Compression, error) {
	switch strings.ToLower(name) {
	case "", "snappy":
		return compress.Codecs.Snappy, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "lz4":
		return compress.Codecs.Lz4Raw, nil
	case "zstd":
		return compress.Codecs.Zstd, nil
	case "uncompressed", "none":
		return compress.Codecs.Uncompressed, nil
	default:
		return compress.Codecs.Uncompressed, fmt.Errorf("unsupported parquet compression %q", name)
	}
}

// datasetToArrowTable builds an Arrow table sharing the Dataset's column buffers.
func (w *ParquetWriter) datasetToArrowTable(ds *dataset.Dataset) arrow.Table {
	names := ds.Columns()
	fields := make([]arrow.Field, 0, len(names))
	columns := make([]arrow.Column, 0, len(names))

	for _, name := range names {
		col, _ := ds.Column(name)
		arr := col.Array()

		field := arrow.Field{Name: name, Type: arr.DataType(), Nullable: true}
		fields = append(fields, field)

		chunked := arrow.NewChunked(arr.DataType(), []arrow.Array{arr})
		arr.Release()
		column := arrow.NewColumn(field, chunked)
		chunked.Release()
		columns = append(columns, *column)
	}

	schema := arrow.NewSchema(fields, nil)
	table := array.NewTable(schema, columns, int64(ds.Len()))
	for i := range columns {
		columns[i].Release()
	}
	return table
}
