package diff

import (
	"strings"

	"github.com/TFMV/keydiff/pkg/core"
)

// Index maps key values to the rows sharing them, for one input.
type Index struct {
	side   core.Side
	header core.Header
	rows   []core.Row
	keys   []string
	byKey  map[string][]int
}

// BuildIndex keys every row of table that passes filter on column. The
// KeyDelimiter, when not empty, keys rows on the text after its first
// occurrence in the field. Any row too short for column fails the whole build.
func BuildIndex(table *core.Table, column int, filter *PrefixFilter, keyDelimiter string) (*Index, error) {
	idx := &Index{
		side:   table.Side,
		header: table.Header,
		byKey:  make(map[string][]int),
	}

	for _, row := range table.Rows {
		ok, err := filter.Matches(row, column)
		if err != nil {
			return nil, core.OutOfRange(err, table.Path)
		}
		if !ok {
			continue
		}

		key := row.Fields[column]
		if keyDelimiter != "" {
			_, after, found := strings.Cut(key, keyDelimiter)
			if !found {
				after = ""
			}
			key = after
		}

		pos := len(idx.rows)
		idx.rows = append(idx.rows, row)
		idx.keys = append(idx.keys, key)
		idx.byKey[key] = append(idx.byKey[key], pos)
	}

	return idx, nil
}

// Side returns the input the index was built from.
func (i *Index) Side() core.Side { return i.side }

// Len returns the number of indexed rows.
func (i *Index) Len() int { return len(i.rows) }

// Keys returns the number of distinct keys.
func (i *Index) Keys() int { return len(i.byKey) }

// Lookup returns the rows stored under key, in first-seen order.
func (i *Index) Lookup(key string) []core.Row {
	positions := i.byKey[key]
	if len(positions) == 0 {
		return nil
	}
	rows := make([]core.Row, len(positions))
	for n, pos := range positions {
		rows[n] = i.rows[pos]
	}
	return rows
}

// Has reports whether any row is stored under key.
func (i *Index) Has(key string) bool {
	_, ok := i.byKey[key]
	return ok
}

// FirstKey returns the key of the first indexed row, if any.
func (i *Index) FirstKey() (string, bool) {
	if len(i.keys) == 0 {
		return "", false
	}
	return i.keys[0], true
}
