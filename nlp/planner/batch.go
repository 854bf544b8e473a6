package planner

import (
	"context"
	"log"

	"github.com/AnneBeyer/tgen/alg/search"
	"github.com/AnneBeyer/tgen/nlp/types"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// GenerateBatch plans a tree for every DA with up to workers concurrent
// searches. Results are in input order. A DA whose search is exhausted
// gets an empty tree (root only) and a logged warning; any other error
// aborts the batch.
func GenerateBatch(ctx context.Context, g Generator, das []types.DA, workers int, logger *log.Logger) ([]*types.Tree, error) {
	if workers < 1 {
		workers = 1
	}
	retval := make([]*types.Tree, len(das))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i, da := range das {
		i, da := i, da
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			tree, err := g.GenerateTree(da)
			switch {
			case err == nil:
				retval[i] = tree
			case errors.Cause(err) == search.ErrSearchExhausted:
				if logger != nil {
					logger.Printf("WARNING: DA %d %s: %v", i, da, err)
				}
				retval[i] = types.NewRootTree(nil)
			default:
				return errors.Wrapf(err, "DA %d", i)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return retval, nil
}
