package readers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ArrowReader implements a reader for Arrow IPC files. Values are converted
// to their string form.
type ArrowReader struct {
	config core.ReaderConfig
	reader *ipc.FileReader
	file   *os.File
}

// NewArrowReader creates a new Arrow IPC reader.
func NewArrowReader(config core.ReaderConfig) (core.TableReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Arrow reader")
	}

	file, err := os.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Arrow file: %w", err)
	}

	reader, err := ipc.NewFileReader(file, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create Arrow file reader: %w", err)
	}

	return &ArrowReader{
		config: config,
		reader: reader,
		file:   file,
	}, nil
}

// ReadTable reads every record batch of the file.
func (r *ArrowReader) ReadTable(ctx context.Context) (*core.Table, error) {
	table := &core.Table{Side: r.config.Side, Path: r.config.Path}
	if r.config.WithHeaders {
		table.Header = schemaHeader(r.reader.Schema())
	}

	for i := 0; i < r.reader.NumRecords(); i++ {
		// Check if context is canceled
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		// The record is only valid until the next call, so it is
		// converted right away.
		record, err := r.reader.Record(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read record batch %d of %s: %w", i, r.config.Path, err)
		}
		appendRecordRows(table, record, 1)
	}

	return table, nil
}

// Close closes the reader and releases resources.
func (r *ArrowReader) Close() error {
	var err error

	if r.reader != nil {
		if closeErr := r.reader.Close(); closeErr != nil {
			err = closeErr
		}
		r.reader = nil
	}

	if r.file != nil {
		if closeErr := r.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		r.file = nil
	}

	return err
}
