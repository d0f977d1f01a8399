// Package core provides the core types and interfaces for the keydiff comparison tool.
package core

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
)

// Side identifies which input a row came from.
type Side int

const (
	// Orig is the baseline input.
	Orig Side = iota
	// Diff is the input compared against the baseline.
	Diff
)

// String returns the lower-case name of the side.
func (s Side) String() string {
	switch s {
	case Orig:
		return "orig"
	case Diff:
		return "diff"
	default:
		return "unknown"
	}
}

// Row is one parsed record.
type Row struct {
	// Fields holds the field values exactly as parsed.
	Fields []string

	// Side is the input the row was read from.
	Side Side

	// Line is the 1-based record number within the source file, header included.
	Line int
}

// Field returns the value at position i, or a MalformedRow error.
func (r Row) Field(i int) (string, error) {
	if i < 0 || i >= len(r.Fields) {
		return "", &ColumnError{
			Kind:   ErrMalformedRow,
			Side:   r.Side,
			Line:   r.Line,
			Column: i,
			Width:  len(r.Fields),
		}
	}
	return r.Fields[i], nil
}

// Equal reports whether both rows carry identical field sequences.
func (r Row) Equal(other Row) bool {
	if len(r.Fields) != len(other.Fields) {
		return false
	}
	for i := range r.Fields {
		if r.Fields[i] != other.Fields[i] {
			return false
		}
	}
	return true
}

// String formats the fields as one CSV record, quoting fields that contain
// commas, quotes, line breaks or leading spaces.
func (r Row) String() string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	// A strings.Builder never fails and the default comma is valid.
	_ = w.Write(r.Fields)
	w.Flush()
	return strings.TrimSuffix(b.String(), "\n")
}

// Header holds column labels. Used for display only.
type Header []string

// Label returns the column name at position i, or its index when unknown.
func (h Header) Label(i int) string {
	if i >= 0 && i < len(h) && h[i] != "" {
		return h[i]
	}
	return "#" + strconv.Itoa(i)
}

// Table is one fully materialized input.
type Table struct {
	// Side is the role of the input in the comparison.
	Side Side

	// Path is the source location, used in error messages.
	Path string

	// Header is nil unless the input was read in with-headers mode.
	Header Header

	// Rows are the data records in file order.
	Rows []Row
}

// EntryKind classifies one comparison outcome.
type EntryKind int

const (
	// Unchanged means the key is on both sides with equal fields.
	Unchanged EntryKind = iota
	// Changed means the key is on both sides and at least one field differs.
	Changed
	// Added means the row only exists in the diff input.
	Added
	// Removed means the row only exists in the orig input.
	Removed
)

// String returns the lower-case name of the kind.
func (k EntryKind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Changed:
		return "changed"
	case Added:
		return "added"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Entry is one classified outcome.
type Entry struct {
	// Kind is the classification.
	Kind EntryKind

	// Key is the matching value the entry was classified under.
	Key string

	// Orig is set for Removed, Changed and Unchanged entries.
	Orig *Row

	// Diff is set for Added, Changed and Unchanged entries.
	Diff *Row

	// Changed lists the differing field positions of a Changed entry.
	Changed []int
}

// Summary provides counts over a Result.
type Summary struct {
	// TotalOrig is the number of orig rows that passed the filter.
	TotalOrig int64

	// TotalDiff is the number of diff rows that passed the filter.
	TotalDiff int64

	Added     int64
	Removed   int64
	Changed   int64
	Unchanged int64

	// Columns maps a field position to the number of Changed entries touching it.
	Columns map[int]int64
}

// HasDifferences reports whether anything was added, removed or changed.
func (s Summary) HasDifferences() bool {
	return s.Added+s.Removed+s.Changed > 0
}

// Result is the ordered outcome of a comparison.
type Result struct {
	// Header is the orig header, falling back to the diff header.
	Header Header

	// Entries are ordered by orig traversal, then diff-only keys.
	Entries []Entry

	// Summary provides counts over Entries.
	Summary Summary
}

// Options controls how a comparison is performed.
type Options struct {
	// OrigIndex is the zero-based key column in orig rows.
	OrigIndex int

	// DiffIndex is the zero-based key column in diff rows. Nil means OrigIndex.
	DiffIndex *int

	// Prefix restricts both inputs to rows whose key field starts with it.
	// Nil disables filtering.
	Prefix *string

	// KeyDelimiter, when set, keys rows on the text following its first
	// occurrence in the key field.
	KeyDelimiter string
}

// DiffKeyIndex returns the effective key column for diff rows.
func (o Options) DiffKeyIndex() int {
	if o.DiffIndex != nil {
		return *o.DiffIndex
	}
	return o.OrigIndex
}

// ReaderConfig provides configuration for creating a reader.
type ReaderConfig struct {
	// Type is the type of the reader.
	Type string

	// Path is the path to the file.
	Path string

	// Side is the role of the input.
	Side Side

	// WithHeaders treats the first record as column labels.
	WithHeaders bool

	// Delimiter is the field separator for text inputs. Zero means ','.
	Delimiter rune

	// Comment marks lines to skip in text inputs. Zero disables.
	Comment rune

	// LazyQuotes relaxes quote handling in text inputs.
	LazyQuotes bool
}

// WriterConfig provides configuration for creating a writer.
type WriterConfig struct {
	// Type is the output format.
	Type string

	// Path is the destination file. Empty means Out where supported.
	Path string

	// Out receives output when Path is empty. Nil means os.Stdout.
	Out io.Writer

	// Color enables ANSI colors in text output.
	Color bool

	// ShowUnchanged includes Unchanged entries in text output.
	ShowUnchanged bool
}

// TableReader loads one input fully into memory.
type TableReader interface {
	// ReadTable reads every record of the input.
	ReadTable(ctx context.Context) (*Table, error)

	// Close closes the reader and releases resources.
	Close() error
}

// ResultWriter renders or exports a Result.
type ResultWriter interface {
	// Write writes the result to the destination.
	Write(ctx context.Context, result *Result) error

	// Close closes the writer and flushes any pending data.
	Close() error
}

// Differ defines an interface for computing differences between two tables.
type Differ interface {
	// Diff computes the difference between two tables.
	Diff(ctx context.Context, orig, diff *Table, options Options) (*Result, error)
}
