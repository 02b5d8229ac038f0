package healing

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ResolveAll resolves independent requests concurrently, at most
// parallelism at a time (unbounded when <= 0). Results keep request order.
// The first error cancels the remaining resolutions.
func (e *Engine) ResolveAll(ctx context.Context, reqs []Request, parallelism int) ([]*Result, error) {
	results := make([]*Result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i := range reqs {
		g.Go(func() error {
			res, err := e.Resolve(gctx, reqs[i])
			if err != nil {
				return fmt.Errorf("request %d (%s): %w", i, reqs[i].ObjectID, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
