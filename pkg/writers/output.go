package writers

import (
	"fmt"
	"io"
	"os"
)

// nopCloser keeps Close from closing stdout or a caller-owned writer.
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// openOutput returns the file at path, or out (stdout when nil) when path is empty.
func openOutput(path string, out io.Writer) (io.WriteCloser, error) {
	if path == "" {
		if out == nil {
			out = os.Stdout
		}
		return nopCloser{out}, nil
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, nil
}
