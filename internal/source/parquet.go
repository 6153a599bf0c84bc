package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	pqfile "github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/vvka-141/pgstage/internal/frame"
)

// parquetBatchRows bounds the rows per record batch handed to the frame.
const parquetBatchRows = 64 * 1024

// readParquet reads a Parquet file, keeping its Arrow schema.
// Parquet needs random access, so the whole file is buffered.
func readParquet(ctx context.Context, r io.Reader, index []string) (*frame.Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet data: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("empty parquet file")
	}

	pqReader, err := pqfile.NewParquetReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer pqReader.Close()

	arrowReader, err := pqarrow.NewFileReader(pqReader, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("failed to create arrow reader: %w", err)
	}

	table, err := arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	defer table.Release()

	tableReader := array.NewTableReader(table, parquetBatchRows)
	defer tableReader.Release()

	var batches []arrow.Record
	defer func() {
		for _, b := range batches {
			b.Release()
		}
	}()
	for tableReader.Next() {
		rec := tableReader.Record()
		rec.Retain()
		batches = append(batches, rec)
	}
	if err := tableReader.Err(); err != nil {
		return nil, fmt.Errorf("error reading table records: %w", err)
	}

	return frame.New(table.Schema(), batches, index...)
}
