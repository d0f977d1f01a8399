package diff

import (
	"github.com/TFMV/keydiff/pkg/core"
)

// newTable creates a table for side from raw records, numbering lines from 1.
func newTable(side core.Side, records ...[]string) *core.Table {
	table := &core.Table{Side: side, Path: side.String() + ".csv"}
	for i, fields := range records {
		table.Rows = append(table.Rows, core.Row{Fields: fields, Side: side, Line: i + 1})
	}
	return table
}

// kinds returns the entry kinds of a result in order.
func kinds(result *core.Result) []core.EntryKind {
	out := make([]core.EntryKind, len(result.Entries))
	for i, e := range result.Entries {
		out[i] = e.Kind
	}
	return out
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
