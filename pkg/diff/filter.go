package diff

import (
	"strings"

	"github.com/TFMV/keydiff/pkg/core"
)

// PrefixFilter keeps rows whose selected field starts with a prefix. The zero
// value (and a nil *PrefixFilter) matches every row.
type PrefixFilter struct {
	prefix  string
	enabled bool
}

// NewPrefixFilter returns a filter for prefix. A nil prefix disables filtering.
func NewPrefixFilter(prefix *string) *PrefixFilter {
	if prefix == nil {
		return &PrefixFilter{}
	}
	return &PrefixFilter{prefix: *prefix, enabled: true}
}

// Enabled reports whether the filter restricts anything.
func (f *PrefixFilter) Enabled() bool {
	return f != nil && f.enabled && f.prefix != ""
}

// Matches reports whether the field at column starts with the prefix. The
// column is resolved even when filtering is disabled so that a bad index is
// never silently accepted.
func (f *PrefixFilter) Matches(row core.Row, column int) (bool, error) {
	field, err := row.Field(column)
	if err != nil {
		return false, core.OutOfRange(err, "")
	}
	if !f.Enabled() {
		return true, nil
	}
	return strings.HasPrefix(field, f.prefix), nil
}
