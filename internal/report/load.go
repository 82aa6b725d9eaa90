package report

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/mikelcalvo/erp-console/internal/api"
)

// Load fetches a header and its line items concurrently.
func Load[H any](
	ctx context.Context,
	header func(ctx context.Context) (H, error),
	lines func(ctx context.Context) ([]api.LineItem, error),
) (H, []api.LineItem, error) {
	var (
		h     H
		items []api.LineItem
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		h, err = header(ctx)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = lines(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		var zero H
		return zero, nil, err
	}
	return h, items, nil
}
