package readers

import (
	"github.com/TFMV/keydiff/pkg/core"
	"github.com/apache/arrow-go/v18/arrow"
)

// schemaHeader returns the field names of schema.
func schemaHeader(schema *arrow.Schema) core.Header {
	header := make(core.Header, schema.NumFields())
	for i, field := range schema.Fields() {
		header[i] = field.Name
	}
	return header
}

// appendRecordRows stringifies every row of record into table. Nulls become
// empty fields. Line numbers continue from the rows already in table.
func appendRecordRows(table *core.Table, record arrow.Record, firstLine int) {
	numCols := int(record.NumCols())
	for i := 0; i < int(record.NumRows()); i++ {
		fields := make([]string, numCols)
		for j := 0; j < numCols; j++ {
			col := record.Column(j)
			if col.IsNull(i) {
				continue
			}
			fields[j] = col.ValueStr(i)
		}
		table.Rows = append(table.Rows, core.Row{
			Fields: fields,
			Side:   table.Side,
			Line:   firstLine + len(table.Rows),
		})
	}
}
