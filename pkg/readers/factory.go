// Package readers provides implementations of table readers for various input formats.
package readers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/TFMV/keydiff/pkg/core"
)

// Factory creates a reader based on the given configuration.
type Factory struct {
	// registered readers by type
	readers map[string]Creator
}

// Creator is a function that creates a reader from a configuration.
type Creator func(config core.ReaderConfig) (core.TableReader, error)

// NewFactory creates a new reader factory.
func NewFactory() *Factory {
	return &Factory{
		readers: make(map[string]Creator),
	}
}

// Register registers a creator for a reader type.
func (f *Factory) Register(typ string, creator Creator) {
	f.readers[typ] = creator
}

// Create creates a reader based on the given configuration. An empty or
// "auto" type is detected from the file extension.
func (f *Factory) Create(config core.ReaderConfig) (core.TableReader, error) {
	if config.Type == "" || config.Type == "auto" {
		config.Type = DetectType(config.Path)
	}
	creator, ok := f.readers[config.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported reader type: %s", config.Type)
	}
	return creator(config)
}

// DefaultFactory is the default reader factory with built-in reader types.
var DefaultFactory = NewFactory()

// init registers built-in reader types.
func init() {
	DefaultFactory.Register("csv", NewCSVReader)
	DefaultFactory.Register("tsv", NewTSVReader)
	DefaultFactory.Register("arrow", NewArrowReader)
	DefaultFactory.Register("parquet", NewParquetReader)
}

// DetectType detects the type of a file based on its extension.
func DetectType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab":
		return "tsv"
	case ".arrow", ".ipc", ".feather":
		return "arrow"
	case ".parquet", ".pq":
		return "parquet"
	default:
		return "csv"
	}
}
