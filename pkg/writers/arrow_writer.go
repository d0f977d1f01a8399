package writers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ArrowWriter implements a writer for Arrow IPC files.
type ArrowWriter struct {
	writer           *ipc.FileWriter
	file             *os.File
	alloc            memory.Allocator
	includeUnchanged bool
}

// NewArrowWriter creates a new Arrow IPC writer.
func NewArrowWriter(config core.WriterConfig) (core.ResultWriter, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for Arrow writer")
	}

	// Create file
	file, err := os.Create(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create Arrow file: %w", err)
	}

	alloc := memory.NewGoAllocator()
	writer, err := ipc.NewFileWriter(file, ipc.WithSchema(ResultSchema), ipc.WithAllocator(alloc))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create Arrow writer: %w", err)
	}

	return &ArrowWriter{
		writer:           writer,
		file:             file,
		alloc:            alloc,
		includeUnchanged: config.ShowUnchanged,
	}, nil
}

// Write writes the result as one record batch.
func (w *ArrowWriter) Write(ctx context.Context, result *core.Result) error {
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
func (w *ArrowWriter) Close() error {
	var err error

	// Close the writer
	if w.writer != nil {
		if closeErr := w.writer.Close(); closeErr != nil {
			err = closeErr
		}
		w.writer = nil
	}

	// Close the file
	if w.file != nil {
		if closeErr := w.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		w.file = nil
	}

	return err
}
