package readers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/TFMV/keydiff/pkg/core"
)

// CSVReader reads delimited text files. Every field is kept as text.
type CSVReader struct {
	config core.ReaderConfig
	file   io.ReadCloser
	reader *csv.Reader
}

// NewCSVReader creates a new CSV reader.
func NewCSVReader(config core.ReaderConfig) (core.TableReader, error) {
	if config.Path == "" {
		return nil, errors.New("path is required for CSV reader")
	}

	file, err := os.Open(config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}

	return newCSVReader(config, file), nil
}

// NewTSVReader creates a CSV reader that splits on tabs unless another
// delimiter is configured.
func NewTSVReader(config core.ReaderConfig) (core.TableReader, error) {
	if config.Delimiter == 0 || config.Delimiter == ',' {
		config.Delimiter = '\t'
	}
	return NewCSVReader(config)
}

// NewCSVStreamReader reads CSV data from r instead of a file. Closing the
// reader closes r when it implements io.Closer.
func NewCSVStreamReader(config core.ReaderConfig, r io.Reader) core.TableReader {
	rc, ok := r.(io.ReadCloser)
	if !ok {
		rc = io.NopCloser(r)
	}
	return newCSVReader(config, rc)
}

func newCSVReader(config core.ReaderConfig, rc io.ReadCloser) *CSVReader {
	reader := csv.NewReader(rc)
	if config.Delimiter != 0 {
		reader.Comma = config.Delimiter
	}
	reader.Comment = config.Comment
	reader.LazyQuotes = config.LazyQuotes
	// Width is fixed by the first record.
	reader.FieldsPerRecord = 0
	reader.ReuseRecord = false

	return &CSVReader{config: config, file: rc, reader: reader}
}

// ReadTable reads the whole input. Parse failures are returned wrapped, with
// the underlying *csv.ParseError reachable through errors.As.
func (r *CSVReader) ReadTable(ctx context.Context) (*core.Table, error) {
	table := &core.Table{Side: r.config.Side, Path: r.config.Path}

	for line := 1; ; line++ {
		// Check if context is canceled
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		record, err := r.reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s input %s: %w", r.config.Side, r.config.Path, err)
		}

		if line == 1 && r.config.WithHeaders {
			table.Header = core.Header(record)
			continue
		}

		table.Rows = append(table.Rows, core.Row{Fields: record, Side: r.config.Side, Line: line})
	}

	return table, nil
}

// Close closes the reader and releases resources.
func (r *CSVReader) Close() error {
	if r.file != nil {
		err := r.file.Close()
		r.file = nil
		return err
	}
	return nil
}
