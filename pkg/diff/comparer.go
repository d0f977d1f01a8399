package diff

import (
	"github.com/TFMV/keydiff/pkg/core"
)

// Compare classifies every indexed row of orig and diff. Traversal is driven
// by the rows in file order, so the result never depends on map ordering.
// The result header is the orig header, falling back to the diff header.
func Compare(orig, diff *Index) *core.Result {
	result := &core.Result{
		Header:  orig.header,
		Entries: make([]core.Entry, 0, orig.Len()+diff.Len()),
		Summary: core.Summary{
			TotalOrig: int64(orig.Len()),
			TotalDiff: int64(diff.Len()),
			Columns:   make(map[int]int64),
		},
	}

	// Keys are handled as a group on first sighting: matched pairs, then
	// surplus orig rows, then surplus diff rows.
	seen := make(map[string]struct{}, orig.Keys())
	for _, key := range orig.keys {
		if _, done := seen[key]; done {
			continue
		}
		seen[key] = struct{}{}

		origRows := orig.Lookup(key)
		diffRows := diff.Lookup(key)

		paired := min(len(origRows), len(diffRows))
		for i := 0; i < paired; i++ {
			appendEntry(result, compareRows(key, origRows[i], diffRows[i]))
		}
		for _, row := range origRows[paired:] {
			appendEntry(result, core.Entry{Kind: core.Removed, Key: key, Orig: ptr(row)})
		}
		for _, row := range diffRows[paired:] {
			appendEntry(result, core.Entry{Kind: core.Added, Key: key, Diff: ptr(row)})
		}
	}

	for n, key := range diff.keys {
		if orig.Has(key) {
			continue
		}
		appendEntry(result, core.Entry{Kind: core.Added, Key: key, Diff: ptr(diff.rows[n])})
	}

	if result.Header == nil {
		result.Header = diff.header
	}
	return result
}

// compareRows pairs two rows sharing a key. The comparison covers every field,
// the key field included. Positions present on one side only count as changed.
func compareRows(key string, o, d core.Row) core.Entry {
	entry := core.Entry{Key: key, Orig: ptr(o), Diff: ptr(d)}
	if o.Equal(d) {
		entry.Kind = core.Unchanged
		return entry
	}

	width := max(len(o.Fields), len(d.Fields))
	for i := 0; i < width; i++ {
		if i >= len(o.Fields) || i >= len(d.Fields) || o.Fields[i] != d.Fields[i] {
			entry.Changed = append(entry.Changed, i)
		}
	}
	entry.Kind = core.Changed
	return entry
}

// appendEntry records e and updates the summary counters.
func appendEntry(result *core.Result, e core.Entry) {
	result.Entries = append(result.Entries, e)

	s := &result.Summary
	switch e.Kind {
	case core.Added:
		s.Added++
	case core.Removed:
		s.Removed++
	case core.Unchanged:
		s.Unchanged++
	case core.Changed:
		s.Changed++
		for _, col := range e.Changed {
			s.Columns[col]++
		}
	}
}

func ptr(row core.Row) *core.Row {
	return &row
}
