package geo

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// forEach calls fn on every item, at most workers at a time. It stops at the first error.
func forEach[T any](ctx context.Context, workers int, items []T, fn func(context.Context, T) error) error {
	if workers <= 1 {
		for _, item := range items {
			if err := ctx.Err(); err != nil {
				return errors.Wrap(err, "interrupted")
			}

			if err := fn(ctx, item); err != nil {
				return err
			}
		}

		return nil
	}

	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(workers)

	for _, item := range items {
		localItem := item
		errGrp.Go(func() error {
			if err := dCtx.Err(); err != nil {
				return errors.Wrap(err, "interrupted")
			}

			return fn(dCtx, localItem)
		})
	}

	return errGrp.Wait()
}
