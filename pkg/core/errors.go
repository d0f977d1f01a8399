package core

import (
	"errors"
	"fmt"
)

var (
	// ErrColumnOutOfRange is the kind of a key or filter column that does not
	// exist in a row.
	ErrColumnOutOfRange = errors.New("column out of range")

	// ErrMalformedRow is the kind of a row that cannot be resolved against a
	// required column.
	ErrMalformedRow = errors.New("malformed row")

	// ErrAborted is returned when the user declines to continue.
	ErrAborted = errors.New("aborted by user")
)

// ColumnError describes a column-resolution failure. It matches its Kind with
// errors.Is.
type ColumnError struct {
	Kind   error
	Side   Side
	Path   string
	Line   int
	Column int
	Width  int
}

func (e *ColumnError) Error() string {
	src := e.Side.String()
	if e.Path != "" {
		src = fmt.Sprintf("%s (%s)", src, e.Path)
	}
	return fmt.Sprintf("%v: %s row %d: column %d requested, row has %d fields",
		e.Kind, src, e.Line, e.Column, e.Width)
}

// Is reports whether target is the kind of this error.
func (e *ColumnError) Is(target error) bool {
	return target == e.Kind
}

// OutOfRange converts err into a ColumnOutOfRange error for the given input
// path. Other errors are returned unchanged.
func OutOfRange(err error, path string) error {
	var ce *ColumnError
	if !errors.As(err, &ce) {
		return err
	}
	out := *ce
	out.Kind = ErrColumnOutOfRange
	out.Path = path
	return &out
}
