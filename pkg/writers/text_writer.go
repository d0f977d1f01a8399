package writers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/TFMV/keydiff/pkg/core"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// TextWriter renders a result as a line-oriented report: "-" for removed
// rows, "+" for added rows and "~" for changed rows followed by one line per
// differing field.
type TextWriter struct {
	out           io.WriteCloser
	showUnchanged bool

	added     *color.Color
	removed   *color.Color
	changed   *color.Color
	unchanged *color.Color
}

// NewTextWriter creates a text writer. Output goes to config.Path, or to
// config.Out (stdout when nil) when no path is set.
func NewTextWriter(config core.WriterConfig) (core.ResultWriter, error) {
	out, err := openOutput(config.Path, config.Out)
	if err != nil {
		return nil, err
	}

	w := &TextWriter{
		out:           out,
		showUnchanged: config.ShowUnchanged,
		added:         color.New(color.FgGreen),
		removed:       color.New(color.FgRed),
		changed:       color.New(color.FgYellow),
		unchanged:     color.New(color.Faint),
	}
	for _, c := range []*color.Color{w.added, w.removed, w.changed, w.unchanged} {
		if config.Color {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return w, nil
}

// Write renders every entry followed by the summary.
func (w *TextWriter) Write(ctx context.Context, result *core.Result) error {
	buf := bufio.NewWriter(w.out)

	for i := range result.Entries {
		if i%1024 == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		w.writeEntry(buf, result.Header, &result.Entries[i])
	}

	writeSummary(buf, result)

	if err := buf.Flush(); err != nil {
		return fmt.Errorf("failed to write text output: %w", err)
	}
	return nil
}

func (w *TextWriter) writeEntry(buf *bufio.Writer, header core.Header, e *core.Entry) {
	switch e.Kind {
	case core.Removed:
		w.removed.Fprintf(buf, "- %s\n", e.Orig.String())
	case core.Added:
		w.added.Fprintf(buf, "+ %s\n", e.Diff.String())
	case core.Changed:
		w.changed.Fprintf(buf, "~ %s\n", e.Key)
		for _, col := range e.Changed {
			fmt.Fprintf(buf, "    %s: %s -> %s\n",
				header.Label(col),
				w.removed.Sprint(fieldOrMissing(e.Orig, col)),
				w.added.Sprint(fieldOrMissing(e.Diff, col)),
			)
		}
	case core.Unchanged:
		if w.showUnchanged {
			w.unchanged.Fprintf(buf, "  %s\n", e.Orig.String())
		}
	}
}

// fieldOrMissing returns the field at col, or a marker when the row is too short.
func fieldOrMissing(row *core.Row, col int) string {
	if row == nil {
		return "<none>"
	}
	v, err := row.Field(col)
	if err != nil {
		return "<missing>"
	}
	return v
}

// writeSummary prints the counts block, with changed columns in index order.
func writeSummary(w io.Writer, result *core.Result) {
	summary := result.Summary
	fmt.Fprintln(w, "\nDiff Summary:")
	fmt.Fprintf(w, "  Orig rows:      %s\n", humanize.Comma(summary.TotalOrig))
	fmt.Fprintf(w, "  Diff rows:      %s\n", humanize.Comma(summary.TotalDiff))
	fmt.Fprintf(w, "  Added rows:     %s\n", humanize.Comma(summary.Added))
	fmt.Fprintf(w, "  Removed rows:   %s\n", humanize.Comma(summary.Removed))
	fmt.Fprintf(w, "  Changed rows:   %s\n", humanize.Comma(summary.Changed))
	fmt.Fprintf(w, "  Unchanged rows: %s\n", humanize.Comma(summary.Unchanged))

	if len(summary.Columns) > 0 {
		cols := make([]int, 0, len(summary.Columns))
		for col := range summary.Columns {
			cols = append(cols, col)
		}
		sort.Ints(cols)

		fmt.Fprintln(w, "\nChanged columns:")
		for _, col := range cols {
			fmt.Fprintf(w, "  %s: %s changes\n", result.Header.Label(col), humanize.Comma(summary.Columns[col]))
		}
	}
}

// Close closes the writer and flushes any pending data.
func (w *TextWriter) Close() error {
	if w.out == nil {
		return nil
	}
	err := w.out.Close()
	w.out = nil
	return err
}
