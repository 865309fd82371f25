package client

import (
	"context"

	"cloudconsole/internal/model"

	"golang.org/x/sync/errgroup"
)

// SyncAll lists every kind concurrently. Nothing is applied to local state;
// the caller does that on its own goroutine.
func (c *Client) SyncAll(ctx context.Context, kinds ...model.Kind) (map[model.Kind][]model.Doc, error) {
	if len(kinds) == 0 {
		kinds = model.Kinds
	}
	results := make([][]model.Doc, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, k := range kinds {
		g.Go(func() error {
			docs, err := c.List(gctx, k)
			if err != nil {
				return err
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make(map[model.Kind][]model.Doc, len(kinds))
	for i, k := range kinds {
		out[k] = results[i]
	}
	return out, nil
}
