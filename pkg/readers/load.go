package readers

import (
	"context"
	"fmt"

	"github.com/TFMV/keydiff/pkg/core"
	"golang.org/x/sync/errgroup"
)

// Load creates a reader from config with the default factory and reads it fully.
func Load(ctx context.Context, config core.ReaderConfig) (*core.Table, error) {
	reader, err := DefaultFactory.Create(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s reader: %w", config.Side, err)
	}
	defer reader.Close()

	return reader.ReadTable(ctx)
}

// LoadPair reads the orig and diff inputs concurrently. Both must succeed.
func LoadPair(ctx context.Context, origConfig, diffConfig core.ReaderConfig) (orig, diff *core.Table, err error) {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := Load(ctx, origConfig)
		if err != nil {
			return err
		}
		orig = t
		return nil
	})

	g.Go(func() error {
		t, err := Load(ctx, diffConfig)
		if err != nil {
			return err
		}
		diff = t
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return orig, diff, nil
}
