package rank

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AnneBeyer/tgen/alg/perceptron"
	"github.com/AnneBeyer/tgen/nlp/types"
	"github.com/AnneBeyer/tgen/util"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// TrainParallel trains Options.JobsNumber independent rankers on
// contiguous shards of the selected corpus portion and sets the weights to
// their average. With a work directory every shard model is also written
// to <workDir>/<run id>-shard<k>.model.
func (r *Ranker) TrainParallel(ctx context.Context, das []types.DA, trees []*types.Tree, portion float64, workDir string) error {
	if len(das) != len(trees) {
		return errors.Errorf("got %d DAs but %d trees", len(das), len(trees))
	}
	if r.CandGen == nil {
		return errors.New("ranker has no candidate generator")
	}
	selected := util.Portion(len(das), portion, r.Options.Seed)
	shardDAs := make([]types.DA, len(selected))
	shardTrees := make([]*types.Tree, len(selected))
	for j, i := range selected {
		shardDAs[j], shardTrees[j] = das[i], trees[i]
	}
	if workDir != "" {
		if err := os.MkdirAll(workDir, 0755); err != nil {
			return errors.Wrapf(err, "failed creating work dir %s", workDir)
		}
	}
	runID := uuid.NewString()
	r.logf("Ranker: run %s, %d jobs over %d DAs", runID, r.Options.JobsNumber, len(selected))

	train := func(ctx context.Context, shard int, items perceptron.Range) (perceptron.Model, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		opts := r.Options
		opts.Seed = r.Options.Seed + int64(shard)
		shardRanker, err := New(opts, r.CandGen.Copy())
		if err != nil {
			return nil, err
		}
		shardRanker.Log = r.Log
		if err := shardRanker.Train(shardDAs[items.Lo:items.Hi], shardTrees[items.Lo:items.Hi], 1.0); err != nil {
			return nil, err
		}
		if workDir != "" {
			file := filepath.Join(workDir, fmt.Sprintf("%s-shard%d.model", runID, shard))
			if err := shardRanker.Save(file); err != nil {
				return nil, err
			}
			r.logf("Ranker: shard %d written to %s", shard, file)
		}
		return shardRanker.Model, nil
	}
	merged, err := (&perceptron.Parallel{Jobs: r.Options.JobsNumber, Log: r.Log}).Train(ctx, len(selected), train)
	if err != nil {
		return errors.Wrapf(err, "run %s", runID)
	}
	r.Model = merged.(*perceptron.SparseModel)
	return nil
}
