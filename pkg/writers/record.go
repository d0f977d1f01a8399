package writers

import (
	"github.com/TFMV/keydiff/pkg/core"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// ResultSchema is the Arrow schema of an exported result. Line columns are
// null when the row is absent on that side.
var ResultSchema = arrow.NewSchema([]arrow.Field{
	{Name: "kind", Type: arrow.BinaryTypes.String},
	{Name: "key", Type: arrow.BinaryTypes.String},
	{Name: "orig_line", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	{Name: "diff_line", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
	{Name: "orig_fields", Type: arrow.ListOf(arrow.BinaryTypes.String), Nullable: true},
	{Name: "diff_fields", Type: arrow.ListOf(arrow.BinaryTypes.String), Nullable: true},
	{Name: "changed", Type: arrow.ListOf(arrow.PrimitiveTypes.Int32), Nullable: true},
}, nil)

// buildRecord converts result into a single record with ResultSchema. The
// caller owns the returned record.
func buildRecord(alloc memory.Allocator, result *core.Result, includeUnchanged bool) arrow.Record {
	b := array.NewRecordBuilder(alloc, ResultSchema)
	defer b.Release()

	kindB := b.Field(0).(*array.StringBuilder)
	keyB := b.Field(1).(*array.StringBuilder)
	origLineB := b.Field(2).(*array.Int64Builder)
	diffLineB := b.Field(3).(*array.Int64Builder)
	origFieldsB := b.Field(4).(*array.ListBuilder)
	diffFieldsB := b.Field(5).(*array.ListBuilder)
	changedB := b.Field(6).(*array.ListBuilder)

	for _, e := range result.Entries {
		if e.Kind == core.Unchanged && !includeUnchanged {
			continue
		}

		kindB.Append(e.Kind.String())
		keyB.Append(e.Key)
		appendRow(origLineB, origFieldsB, e.Orig)
		appendRow(diffLineB, diffFieldsB, e.Diff)

		if e.Kind != core.Changed {
			changedB.AppendNull()
			continue
		}
		changedB.Append(true)
		vb := changedB.ValueBuilder().(*array.Int32Builder)
		for _, col := range e.Changed {
			vb.Append(int32(col))
		}
	}

	return b.NewRecord()
}

func appendRow(lineB *array.Int64Builder, fieldsB *array.ListBuilder, row *core.Row) {
	if row == nil {
		lineB.AppendNull()
		fieldsB.AppendNull()
		return
	}
	lineB.Append(int64(row.Line))
	fieldsB.Append(true)
	fieldsB.ValueBuilder().(*array.StringBuilder).AppendValues(row.Fields, nil)
}
