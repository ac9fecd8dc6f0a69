// service/batch.go
package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pbirs-tools/admin-api/model"
)

const defaultBatchSize = 20

// fetchPoliciesBatched retrieves per-item policy lists in fixed-size batches.
// Batches run one after another to keep upstream load bounded; items within a
// batch are fetched concurrently. The result is aligned index-for-index with
// items, with nil in the slot of every item whose fetch yielded nothing.
func (s *PermissionService) fetchPoliciesBatched(ctx context.Context, serverURI string, items []model.CatalogItem) []*model.PolicyList {
	results := make([]*model.PolicyList, len(items))

	for start := 0; start < len(items); start += s.batchSize {
		end := start + s.batchSize
		if end > len(items) {
			end = len(items)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			item := items[i]
			g.Go(func() error {
				// A missing list simply leaves the slot nil; fetch errors
				// were already swallowed further down the stack.
				results[i] = s.itemPoliciesCached(gctx, serverURI, item)
				return nil
			})
		}
		// No goroutine returns an error; Wait only synchronizes the batch.
		_ = g.Wait()
	}

	return results
}
