package diff

import (
	"context"
	"errors"
	"testing"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compareTables(t *testing.T, orig, diff *core.Table, options core.Options) *core.Result {
	t.Helper()
	result, err := NewKeyedDiffer(nil).Diff(context.Background(), orig, diff, options)
	require.NoError(t, err)
	return result
}

func TestCompare_Identity(t *testing.T) {
	records := [][]string{
		{"1", "alice", "30"},
		{"2", "bob", "25"},
		{"2", "bob", "26"},
		{"3", "carol", ""},
	}
	orig := newTable(core.Orig, records...)
	diff := newTable(core.Diff, records...)

	result := compareTables(t, orig, diff, core.Options{OrigIndex: 0})

	assert.Len(t, result.Entries, len(records))
	assert.Equal(t, int64(len(records)), result.Summary.Unchanged)
	assert.Zero(t, result.Summary.Added)
	assert.Zero(t, result.Summary.Removed)
	assert.Zero(t, result.Summary.Changed)
	assert.False(t, result.Summary.HasDifferences())
}

func TestCompare_SymmetryOfCounts(t *testing.T) {
	a := newTable(core.Orig,
		[]string{"1", "x"},
		[]string{"2", "y"},
		[]string{"3", "z"},
		[]string{"3", "z"},
	)
	b := newTable(core.Diff,
		[]string{"2", "y"},
		[]string{"3", "changed"},
		[]string{"4", "new"},
		[]string{"5", "new"},
	)

	forward := compareTables(t, a, b, core.Options{OrigIndex: 0})
	a.Side, b.Side = core.Diff, core.Orig
	backward := compareTables(t, b, a, core.Options{OrigIndex: 0})

	assert.Equal(t, forward.Summary.Added, backward.Summary.Removed)
	assert.Equal(t, forward.Summary.Removed, backward.Summary.Added)
	assert.Equal(t, forward.Summary.Changed, backward.Summary.Changed)
	assert.Equal(t, forward.Summary.Unchanged, backward.Summary.Unchanged)
}

func TestCompare_DuplicateKeys(t *testing.T) {
	orig := newTable(core.Orig,
		[]string{"A", "1"},
		[]string{"A", "2"},
		[]string{"B", "3"},
	)
	diff := newTable(core.Diff,
		[]string{"A", "1"},
		[]string{"B", "3"},
		[]string{"B", "9"},
	)

	result := compareTables(t, orig, diff, core.Options{OrigIndex: 0})

	require.Equal(t, []core.EntryKind{core.Unchanged, core.Removed, core.Unchanged, core.Added}, kinds(result))

	assert.Equal(t, []string{"A", "1"}, result.Entries[0].Orig.Fields)
	assert.Equal(t, []string{"A", "1"}, result.Entries[0].Diff.Fields)

	assert.Equal(t, []string{"A", "2"}, result.Entries[1].Orig.Fields)
	assert.Nil(t, result.Entries[1].Diff)

	assert.Equal(t, "B", result.Entries[2].Key)

	assert.Nil(t, result.Entries[3].Orig)
	assert.Equal(t, []string{"B", "9"}, result.Entries[3].Diff.Fields)
}

func TestCompare_Ordering(t *testing.T) {
	orig := newTable(core.Orig,
		[]string{"c", "1"},
		[]string{"a", "1"},
		[]string{"gone", "1"},
	)
	diff := newTable(core.Diff,
		[]string{"new2", "1"},
		[]string{"a", "2"},
		[]string{"c", "1"},
		[]string{"new1", "1"},
	)

	for run := 0; run < 5; run++ {
		result := compareTables(t, orig, diff, core.Options{OrigIndex: 0})
		keys := make([]string, len(result.Entries))
		for i, e := range result.Entries {
			keys[i] = e.Key
		}
		assert.Equal(t, []string{"c", "a", "gone", "new2", "new1"}, keys)
		assert.Equal(t, []core.EntryKind{core.Unchanged, core.Changed, core.Removed, core.Added, core.Added}, kinds(result))
	}
}

func TestCompare_ChangedDetection(t *testing.T) {
	orig := newTable(core.Orig, []string{"A", "x", "1"})
	diff := newTable(core.Diff, []string{"A", "x", "2"})

	result := compareTables(t, orig, diff, core.Options{OrigIndex: 0})

	require.Len(t, result.Entries, 1)
	entry := result.Entries[0]
	assert.Equal(t, core.Changed, entry.Kind)
	assert.Equal(t, []int{2}, entry.Changed)
	assert.NotContains(t, entry.Changed, 1)
	assert.Equal(t, int64(1), result.Summary.Columns[2])
	assert.Zero(t, result.Summary.Columns[1])
}

func TestCompare_DifferentWidths(t *testing.T) {
	orig := newTable(core.Orig, []string{"A", "x"})
	diff := newTable(core.Diff, []string{"A", "x", "extra"})

	result := compareTables(t, orig, diff, core.Options{OrigIndex: 0})

	require.Len(t, result.Entries, 1)
	assert.Equal(t, core.Changed, result.Entries[0].Kind)
	assert.Equal(t, []int{2}, result.Entries[0].Changed)
}

func TestCompare_DefaultDiffIndex(t *testing.T) {
	orig := newTable(core.Orig,
		[]string{"x", "1", "a"},
		[]string{"y", "2", "b"},
	)
	diff := newTable(core.Diff,
		[]string{"x", "2", "b"},
		[]string{"z", "3", "c"},
	)

	implicit := compareTables(t, orig, diff, core.Options{OrigIndex: 1})
	explicit := compareTables(t, orig, diff, core.Options{OrigIndex: 1, DiffIndex: intPtr(1)})

	assert.Equal(t, explicit, implicit)
}

func TestCompare_RelocatedKeyColumn(t *testing.T) {
	orig := newTable(core.Orig,
		[]string{"1", "alice"},
		[]string{"2", "bob"},
	)
	diff := newTable(core.Diff,
		[]string{"bob", "2"},
		[]string{"carol", "3"},
	)

	result := compareTables(t, orig, diff, core.Options{OrigIndex: 0, DiffIndex: intPtr(1)})

	require.Equal(t, []core.EntryKind{core.Removed, core.Changed, core.Added}, kinds(result))
	assert.Equal(t, "2", result.Entries[1].Key)
	assert.Equal(t, []int{0, 1}, result.Entries[1].Changed)
}

func TestCompare_PrefixMonotonicity(t *testing.T) {
	orig := newTable(core.Orig,
		[]string{"img/a", "1"},
		[]string{"doc/b", "1"},
		[]string{"img/c", "1"},
	)
	diff := newTable(core.Diff,
		[]string{"img/a", "2"},
		[]string{"doc/b", "1"},
		[]string{"img/d", "1"},
	)

	unfiltered := compareTables(t, orig, diff, core.Options{OrigIndex: 0})
	empty := compareTables(t, orig, diff, core.Options{OrigIndex: 0, Prefix: strPtr("")})
	assert.Equal(t, unfiltered, empty)

	filtered := compareTables(t, orig, diff, core.Options{OrigIndex: 0, Prefix: strPtr("img/")})

	all := make(map[string]bool)
	for _, e := range unfiltered.Entries {
		all[e.Key] = true
	}
	for _, e := range filtered.Entries {
		assert.True(t, all[e.Key], "key %q not considered without filter", e.Key)
		assert.NotEqual(t, "doc/b", e.Key)
	}
	assert.Equal(t, int64(2), filtered.Summary.TotalOrig)
	assert.Equal(t, int64(2), filtered.Summary.TotalDiff)
	assert.Equal(t, []core.EntryKind{core.Changed, core.Removed, core.Added}, kinds(filtered))
}

func TestCompare_FilteredRowsAreNotRemoved(t *testing.T) {
	orig := newTable(core.Orig, []string{"skip", "1"})
	diff := newTable(core.Diff)

	result := compareTables(t, orig, diff, core.Options{OrigIndex: 0, Prefix: strPtr("keep")})
	assert.Empty(t, result.Entries)
	assert.Zero(t, result.Summary.Removed)
}

func TestDiff_OutOfRangeColumn(t *testing.T) {
	orig := newTable(core.Orig,
		[]string{"a", "b", "c"},
		[]string{"d", "e", "f"},
	)
	diff := newTable(core.Diff, []string{"a", "b", "c"})

	result, err := NewKeyedDiffer(nil).Diff(context.Background(), orig, diff, core.Options{OrigIndex: 5})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, core.ErrColumnOutOfRange))

	result, err = NewKeyedDiffer(nil).Diff(context.Background(), orig, diff, core.Options{OrigIndex: 0, DiffIndex: intPtr(3)})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "failed to index diff input")
}

func TestDiff_InvalidOptions(t *testing.T) {
	orig := newTable(core.Orig, []string{"a"})
	diff := newTable(core.Diff, []string{"a"})

	_, err := NewKeyedDiffer(nil).Diff(context.Background(), orig, diff, core.Options{OrigIndex: -1})
	assert.Error(t, err)

	_, err = NewKeyedDiffer(nil).Diff(context.Background(), orig, diff, core.Options{DiffIndex: intPtr(-2)})
	assert.Error(t, err)
}

func TestDiff_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewKeyedDiffer(nil).Diff(ctx, newTable(core.Orig), newTable(core.Diff), core.Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiff_HeaderFallback(t *testing.T) {
	orig := newTable(core.Orig, []string{"1"})
	diff := newTable(core.Diff, []string{"1"})
	diff.Header = core.Header{"id"}

	result := compareTables(t, orig, diff, core.Options{})
	assert.Equal(t, core.Header{"id"}, result.Header)

	orig.Header = core.Header{"key"}
	result = compareTables(t, orig, diff, core.Options{})
	assert.Equal(t, core.Header{"key"}, result.Header)
}

func TestKeyedDiffer_IndexThenCompare(t *testing.T) {
	orig := newTable(core.Orig,
		[]string{"doc x/1", "v"},
		[]string{"img a/1", "v"},
		[]string{"img a/2", "v"},
	)
	diff := newTable(core.Diff,
		[]string{"img b/2", "w"},
	)
	options := core.Options{Prefix: strPtr("img"), KeyDelimiter: "/"}
	differ := NewKeyedDiffer(nil)

	origIdx, diffIdx, err := differ.Index(context.Background(), orig, diff, options)
	require.NoError(t, err)

	assert.Equal(t, core.Orig, origIdx.Side())
	assert.Equal(t, 2, origIdx.Len())
	first, ok := origIdx.FirstKey()
	require.True(t, ok)
	assert.Equal(t, "1", first, "filtered, then keyed on the text after the delimiter")

	result, err := differ.CompareIndexes(context.Background(), origIdx, diffIdx)
	require.NoError(t, err)

	direct, err := differ.Diff(context.Background(), orig, diff, options)
	require.NoError(t, err)
	assert.Equal(t, direct, result)
	assert.Equal(t, []core.EntryKind{core.Removed, core.Changed}, kinds(result))
}

func TestKeyedDiffer_IndexRejectsInvalidOptions(t *testing.T) {
	_, _, err := NewKeyedDiffer(nil).Index(context.Background(), newTable(core.Orig), newTable(core.Diff), core.Options{OrigIndex: -1})
	assert.Error(t, err)
}
