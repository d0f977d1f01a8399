package readers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// defaultBatchSize bounds the rows converted per record batch.
const defaultBatchSize = 10000

// ParquetReader implements a reader for Parquet files. Values are converted
// to their string form.
type ParquetReader struct {
	config      core.ReaderConfig
	fileReader  *file.Reader
	arrowReader *pqarrow.FileReader
	file        *os.File
}

// NewParquetReader creates a new Parquet reader.
func NewParquetReader(config core.ReaderConfig) (core.TableReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Parquet reader")
	}

	f, err := os.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Parquet file: %w", err)
	}

	parquetReader, err := file.NewParquetReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create Parquet file reader: %w", err)
	}

	arrowProps := pqarrow.ArrowReadProperties{
		Parallel:  true,
		BatchSize: defaultBatchSize,
	}
	arrowReader, err := pqarrow.NewFileReader(parquetReader, arrowProps, memory.NewGoAllocator())
	if err != nil {
		parquetReader.Close()
		f.Close()
		return nil, fmt.Errorf("failed to create Arrow reader: %w", err)
	}

	return &ParquetReader{
		config:      config,
		fileReader:  parquetReader,
		arrowReader: arrowReader,
		file:        f,
	}, nil
}

// ReadTable reads the whole file.
func (r *ParquetReader) ReadTable(ctx context.Context) (*core.Table, error) {
	tbl, err := r.arrowReader.ReadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read Parquet file %s: %w", r.config.Path, err)
	}
	defer tbl.Release()

	table := &core.Table{Side: r.config.Side, Path: r.config.Path}
	if r.config.WithHeaders {
		table.Header = schemaHeader(tbl.Schema())
	}

	tableReader := array.NewTableReader(tbl, defaultBatchSize)
	defer tableReader.Release()

	for tableReader.Next() {
		appendRecordRows(table, tableReader.Record(), 1)
	}
	if err := tableReader.Err(); err != nil {
		return nil, fmt.Errorf("failed to convert Parquet file %s: %w", r.config.Path, err)
	}

	return table, nil
}

// Close closes the reader and releases resources.
func (r *ParquetReader) Close() error {
	var err error

	if r.fileReader != nil {
		if closeErr := r.fileReader.Close(); closeErr != nil {
			err = closeErr
		}
		r.fileReader = nil
	}

	if r.file != nil {
		// The parquet reader may already have closed the file.
		if closeErr := r.file.Close(); closeErr != nil && err == nil && !errors.Is(closeErr, os.ErrClosed) {
			err = closeErr
		}
		r.file = nil
	}

	return err
}
