// Package diff provides the keyed comparison engine: per-input key indexes, the
// prefix filter and the comparator that classifies rows.
package diff

import (
	"context"
	"fmt"
	"time"

	"github.com/TFMV/keydiff/pkg/core"
	"go.uber.org/zap"
)

// KeyedDiffer implements core.Differ by matching rows on a single key column.
type KeyedDiffer struct {
	logger *zap.Logger
}

// NewKeyedDiffer creates a differ. A nil logger disables logging.
func NewKeyedDiffer(logger *zap.Logger) *KeyedDiffer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeyedDiffer{logger: logger}
}

// Diff indexes both tables and compares them. Column resolution failures
// abort the comparison and no partial result is returned.
func (d *KeyedDiffer) Diff(ctx context.Context, orig, diff *core.Table, options core.Options) (*core.Result, error) {
	origIdx, diffIdx, err := d.Index(ctx, orig, diff, options)
	if err != nil {
		return nil, err
	}
	return d.CompareIndexes(ctx, origIdx, diffIdx)
}

// Index validates options and builds the filtered key index of each table.
// Callers that need to inspect the indexes before comparing, such as a
// confirmation step, pass them to CompareIndexes afterwards.
func (d *KeyedDiffer) Index(ctx context.Context, orig, diff *core.Table, options core.Options) (*Index, *Index, error) {
	if err := ValidateOptions(options); err != nil {
		return nil, nil, err
	}

	select {
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	default:
	}

	filter := NewPrefixFilter(options.Prefix)
	diffColumn := options.DiffKeyIndex()

	d.logger.Debug("Building indexes",
		zap.Int("orig_index", options.OrigIndex),
		zap.Int("diff_index", diffColumn),
		zap.Bool("prefix_filter", filter.Enabled()),
	)

	origIdx, err := BuildIndex(orig, options.OrigIndex, filter, options.KeyDelimiter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to index orig input: %w", err)
	}

	diffIdx, err := BuildIndex(diff, diffColumn, filter, options.KeyDelimiter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to index diff input: %w", err)
	}

	return origIdx, diffIdx, nil
}

// CompareIndexes classifies the rows of two indexes built by Index.
func (d *KeyedDiffer) CompareIndexes(ctx context.Context, origIdx, diffIdx *Index) (*core.Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	start := time.Now()
	result := Compare(origIdx, diffIdx)

	d.logger.Info("Comparison completed",
		zap.Int64("orig_rows", result.Summary.TotalOrig),
		zap.Int64("diff_rows", result.Summary.TotalDiff),
		zap.Int64("added", result.Summary.Added),
		zap.Int64("removed", result.Summary.Removed),
		zap.Int64("changed", result.Summary.Changed),
		zap.Int64("unchanged", result.Summary.Unchanged),
		zap.Duration("elapsed", time.Since(start)),
	)

	return result, nil
}

// ValidateOptions rejects negative key columns.
func ValidateOptions(options core.Options) error {
	if options.OrigIndex < 0 {
		return fmt.Errorf("orig index must be non-negative, got %d", options.OrigIndex)
	}
	if options.DiffIndex != nil && *options.DiffIndex < 0 {
		return fmt.Errorf("diff index must be non-negative, got %d", *options.DiffIndex)
	}
	return nil
}
