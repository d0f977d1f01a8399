package writers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/TFMV/keydiff/pkg/core"
)

// Document is the serialized form of a result.
type Document struct {
	Header  []string        `json:"header,omitempty"`
	Summary SummaryDocument `json:"summary"`
	Entries []EntryDocument `json:"entries"`
}

// SummaryDocument is the serialized form of core.Summary. Columns are keyed by
// header label, or "#<index>" without headers.
type SummaryDocument struct {
	TotalOrig int64            `json:"total_orig"`
	TotalDiff int64            `json:"total_diff"`
	Added     int64            `json:"added"`
	Removed   int64            `json:"removed"`
	Changed   int64            `json:"changed"`
	Unchanged int64            `json:"unchanged"`
	Columns   map[string]int64 `json:"columns,omitempty"`
}

// RowDocument is the serialized form of core.Row.
type RowDocument struct {
	Line   int      `json:"line"`
	Fields []string `json:"fields"`
}

// EntryDocument is the serialized form of core.Entry.
type EntryDocument struct {
	Kind    string       `json:"kind"`
	Key     string       `json:"key"`
	Orig    *RowDocument `json:"orig,omitempty"`
	Diff    *RowDocument `json:"diff,omitempty"`
	Changed []int        `json:"changed,omitempty"`
}

// NewDocument converts result. Unchanged entries are dropped unless
// includeUnchanged is set; the summary always counts them.
func NewDocument(result *core.Result, includeUnchanged bool) Document {
	doc := Document{
		Header:  result.Header,
		Summary: NewSummaryDocument(result),
		Entries: make([]EntryDocument, 0, len(result.Entries)),
	}

	for _, e := range result.Entries {
		if e.Kind == core.Unchanged && !includeUnchanged {
			continue
		}
		doc.Entries = append(doc.Entries, EntryDocument{
			Kind:    e.Kind.String(),
			Key:     e.Key,
			Orig:    rowDocument(e.Orig),
			Diff:    rowDocument(e.Diff),
			Changed: e.Changed,
		})
	}
	return doc
}

// NewSummaryDocument converts the summary of result.
func NewSummaryDocument(result *core.Result) SummaryDocument {
	s := result.Summary
	doc := SummaryDocument{
		TotalOrig: s.TotalOrig,
		TotalDiff: s.TotalDiff,
		Added:     s.Added,
		Removed:   s.Removed,
		Changed:   s.Changed,
		Unchanged: s.Unchanged,
	}
	if len(s.Columns) > 0 {
		doc.Columns = make(map[string]int64, len(s.Columns))
		for col, n := range s.Columns {
			doc.Columns[result.Header.Label(col)] = n
		}
	}
	return doc
}

func rowDocument(row *core.Row) *RowDocument {
	if row == nil {
		return nil
	}
	return &RowDocument{Line: row.Line, Fields: row.Fields}
}

// JSONWriter implements a writer for JSON documents.
type JSONWriter struct {
	out           io.WriteCloser
	showUnchanged bool
}

// NewJSONWriter creates a new JSON writer. Output goes to config.Path, or to
// config.Out (stdout when nil) when no path is set.
func NewJSONWriter(config core.WriterConfig) (core.ResultWriter, error) {
	out, err := openOutput(config.Path, config.Out)
	if err != nil {
		return nil, err
	}
	return &JSONWriter{out: out, showUnchanged: config.ShowUnchanged}, nil
}

// Write writes the result as one indented JSON document.
func (w *JSONWriter) Write(ctx context.Context, result *core.Result) error {
	// Check if context is canceled
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	encoder := json.NewEncoder(w.out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(NewDocument(result, w.showUnchanged)); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}

// Close closes the writer and flushes any pending data.
func (w *JSONWriter) Close() error {
	if w.out == nil {
		return nil
	}
	err := w.out.Close()
	w.out = nil
	return err
}
