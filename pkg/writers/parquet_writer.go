package writers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// ParquetWriter implements a writer for Parquet files.
type ParquetWriter struct {
	writer           *pqarrow.FileWriter
	file             *os.File
	alloc            memory.Allocator
	includeUnchanged bool
}

// NewParquetWriter creates a new Parquet writer.
func NewParquetWriter(config core.WriterConfig) (core.ResultWriter, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Parquet writer")
	}

	// Create file
	file, err := os.Create(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create Parquet file: %w", err)
	}

	// Create Parquet writer with SNAPPY compression
	writeProps := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithDictionaryDefault(false),
	)

	writer, err := pqarrow.NewFileWriter(
		ResultSchema,
		file,
		writeProps,
		pqarrow.NewArrowWriterProperties(),
	)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create Parquet writer: %w", err)
	}

	return &ParquetWriter{
		writer:           writer,
		file:             file,
		alloc:            memory.NewGoAllocator(),
		includeUnchanged: config.ShowUnchanged,
	}, nil
}

// Write writes the result as one row group.
func (w *ParquetWriter) Write(ctx context.Context, result *core.Result) error {
	// Check if context is canceled
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	record := buildRecord(w.alloc, result, w.includeUnchanged)
	defer record.Release()

	if err := w.writer.Write(record); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}

	return nil
}

// Close closes the writer and flushes any pending data.
func (w *ParquetWriter) Close() error {
	var err error

	// Close the writer
	if w.writer != nil {
		if closeErr := w.writer.Close(); closeErr != nil {
			err = closeErr
		}
		w.writer = nil
	}

	// The Parquet writer may already have closed the file
	if w.file != nil {
		if closeErr := w.file.Close(); closeErr != nil && err == nil && !errors.Is(closeErr, os.ErrClosed) {
			err = closeErr
		}
		w.file = nil
	}

	return err
}
