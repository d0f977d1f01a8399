package readers

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// buildRecord creates an id/name/score record with a null score in the last row.
func buildRecord(mem memory.Allocator) arrow.Record {
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String},
		{Name: "score", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	b.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2}, nil)
	b.Field(1).(*array.StringBuilder).AppendValues([]string{"alice", "bob"}, nil)
	b.Field(2).(*array.Float64Builder).AppendValues([]float64{1.5, 0}, []bool{true, false})

	return b.NewRecord()
}

func TestDetectType(t *testing.T) {
	assert.Equal(t, "csv", DetectType("a.csv"))
	assert.Equal(t, "csv", DetectType("a.txt"))
	assert.Equal(t, "tsv", DetectType("A.TSV"))
	assert.Equal(t, "arrow", DetectType("data.arrow"))
	assert.Equal(t, "parquet", DetectType("data.parquet"))
}

func TestFactory_Unsupported(t *testing.T) {
	_, err := DefaultFactory.Create(core.ReaderConfig{Type: "xlsx", Path: "x.xlsx"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported reader type: xlsx")
}

func TestCSVReader_NoHeaders(t *testing.T) {
	path := writeFile(t, "orig.csv", "1,alice, 30 \n2,\"bob, jr\",25\n")

	table, err := Load(context.Background(), core.ReaderConfig{Path: path, Side: core.Orig})
	require.NoError(t, err)

	assert.Nil(t, table.Header)
	assert.Equal(t, path, table.Path)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"1", "alice", " 30 "}, table.Rows[0].Fields)
	assert.Equal(t, []string{"2", "bob, jr", "25"}, table.Rows[1].Fields)
	assert.Equal(t, 1, table.Rows[0].Line)
	assert.Equal(t, core.Orig, table.Rows[1].Side)
}

func TestCSVReader_WithHeaders(t *testing.T) {
	path := writeFile(t, "diff.csv", "id,name\n1,alice\n")

	table, err := Load(context.Background(), core.ReaderConfig{Path: path, Side: core.Diff, WithHeaders: true})
	require.NoError(t, err)

	assert.Equal(t, core.Header{"id", "name"}, table.Header)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, 2, table.Rows[0].Line)
	assert.Equal(t, core.Diff, table.Rows[0].Side)
}

func TestCSVReader_DelimiterAndComment(t *testing.T) {
	path := writeFile(t, "semi.csv", "# comment\na;b\nc;d\n")

	table, err := Load(context.Background(), core.ReaderConfig{Path: path, Delimiter: ';', Comment: '#'})
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"c", "d"}, table.Rows[1].Fields)
}

func TestTSVReader(t *testing.T) {
	path := writeFile(t, "data.tsv", "a\tb,c\n")

	table, err := Load(context.Background(), core.ReaderConfig{Type: "auto", Path: path})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"a", "b,c"}, table.Rows[0].Fields)
}

func TestCSVReader_InconsistentWidth(t *testing.T) {
	path := writeFile(t, "bad.csv", "a,b\nc\n")

	_, err := Load(context.Background(), core.ReaderConfig{Path: path})
	require.Error(t, err)

	var parseErr *csv.ParseError
	assert.True(t, errors.As(err, &parseErr))
	assert.True(t, errors.Is(err, csv.ErrFieldCount))
}

func TestCSVReader_BadQuotes(t *testing.T) {
	path := writeFile(t, "quotes.csv", "a,\"b\n")

	_, err := Load(context.Background(), core.ReaderConfig{Path: path})
	assert.Error(t, err)
}

func TestCSVReader_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), core.ReaderConfig{Path: filepath.Join(t.TempDir(), "nope.csv")})
	assert.Error(t, err)
}

func TestCSVStreamReader(t *testing.T) {
	reader := NewCSVStreamReader(core.ReaderConfig{Side: core.Diff}, strings.NewReader("x,y\n"))
	defer reader.Close()

	table, err := reader.ReadTable(context.Background())
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
}

func TestCSVReader_CanceledContext(t *testing.T) {
	path := writeFile(t, "a.csv", "1\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, core.ReaderConfig{Path: path})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestArrowReader(t *testing.T) {
	mem := memory.NewGoAllocator()
	record := buildRecord(mem)
	defer record.Release()

	path := filepath.Join(t.TempDir(), "data.arrow")
	f, err := os.Create(path)
	require.NoError(t, err)
	w, err := ipc.NewFileWriter(f, ipc.WithSchema(record.Schema()), ipc.WithAllocator(mem))
	require.NoError(t, err)
	require.NoError(t, w.Write(record))
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	table, err := Load(context.Background(), core.ReaderConfig{Path: path, WithHeaders: true})
	require.NoError(t, err)

	assert.Equal(t, core.Header{"id", "name", "score"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"1", "alice", "1.5"}, table.Rows[0].Fields)
	assert.Equal(t, []string{"2", "bob", ""}, table.Rows[1].Fields)
}

func TestParquetReader(t *testing.T) {
	mem := memory.NewGoAllocator()
	record := buildRecord(mem)
	defer record.Release()

	tbl := array.NewTableFromRecords(record.Schema(), []arrow.Record{record})
	defer tbl.Release()

	path := filepath.Join(t.TempDir(), "data.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, pqarrow.WriteTable(tbl, f, 1024, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps()))
	require.NoError(t, f.Close())

	table, err := Load(context.Background(), core.ReaderConfig{Path: path, Side: core.Diff})
	require.NoError(t, err)

	assert.Nil(t, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"2", "bob", ""}, table.Rows[1].Fields)
	assert.Equal(t, core.Diff, table.Rows[1].Side)
}

func TestLoadPair(t *testing.T) {
	origPath := writeFile(t, "orig.csv", "1,a\n")
	diffPath := writeFile(t, "diff.csv", "1,b\n2,c\n")

	orig, diff, err := LoadPair(context.Background(),
		core.ReaderConfig{Path: origPath, Side: core.Orig},
		core.ReaderConfig{Path: diffPath, Side: core.Diff},
	)
	require.NoError(t, err)
	assert.Len(t, orig.Rows, 1)
	assert.Len(t, diff.Rows, 2)
	assert.Equal(t, core.Diff, diff.Side)

	_, _, err = LoadPair(context.Background(),
		core.ReaderConfig{Path: origPath, Side: core.Orig},
		core.ReaderConfig{Path: filepath.Join(t.TempDir(), "missing.csv"), Side: core.Diff},
	)
	assert.Error(t, err)
}
