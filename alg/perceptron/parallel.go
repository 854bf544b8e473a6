package perceptron

import (
	"context"
	"fmt"
	"log"

	"github.com/AnneBeyer/tgen/alg/featurevector"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ShardError reports the failure of one training shard. A failed shard
// fails the whole parallel training run.
type ShardError struct {
	Shard int
	Err   error
}

func (e *ShardError) Error() string {
	return fmt.Sprintf("training shard %d failed: %v", e.Shard, e.Err)
}

func (e *ShardError) Cause() error {
	return e.Err
}

func (e *ShardError) Unwrap() error {
	return e.Err
}

// Range is the half-open interval [Lo, Hi) of training items of a shard.
type Range struct {
	Lo, Hi int
}

func (r Range) Len() int {
	return r.Hi - r.Lo
}

// Partition splits n items into jobs contiguous shards in corpus order.
// Shard sizes differ by at most one; earlier shards get the extra items.
func Partition(n, jobs int) []Range {
	if jobs < 1 {
		jobs = 1
	}
	if jobs > n && n > 0 {
		jobs = n
	}
	retval := make([]Range, jobs)
	size, rest := n/jobs, n%jobs
	lo := 0
	for i := range retval {
		hi := lo + size
		if i < rest {
			hi++
		}
		retval[i] = Range{lo, hi}
		lo = hi
	}
	return retval
}

// ShardTrainer trains an independent model on the items of one shard. It
// must not share mutable state with other shards.
type ShardTrainer func(ctx context.Context, shard int, items Range) (Model, error)

type shardResult struct {
	shard int
	model Model
}

// Parallel trains one model per shard concurrently and merges them.
type Parallel struct {
	Jobs int
	Log  *log.Logger
}

func (p *Parallel) logf(format string, v ...interface{}) {
	if p.Log != nil {
		p.Log.Printf(format, v...)
	}
}

// Train partitions n items, runs train for every shard and returns the
// unweighted average of the shard models. The first shard failure cancels
// the remaining shards and is returned as a *ShardError.
func (p *Parallel) Train(ctx context.Context, n int, train ShardTrainer) (Model, error) {
	shards := Partition(n, p.Jobs)
	results := make(chan shardResult, len(shards))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, items := range shards {
		shard, items := i, items
		group.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &ShardError{shard, errors.Errorf("panic: %v", r)}
				}
			}()
			p.logf("Shard %d: training on items [%d,%d)", shard, items.Lo, items.Hi)
			model, err := train(groupCtx, shard, items)
			if err != nil {
				return &ShardError{shard, err}
			}
			if model == nil {
				return &ShardError{shard, errors.New("no model returned")}
			}
			results <- shardResult{shard, model}
			p.logf("Shard %d: done", shard)
			return nil
		})
	}
	err := group.Wait()
	close(results)
	if err != nil {
		return nil, err
	}
	models := make([]Model, len(shards))
	for result := range results {
		models[result.shard] = result.model
	}
	return Merge(models), nil
}

// Merge averages models; every model contributes equally. Sparse models
// are averaged over their weight vectors.
func Merge(models []Model) Model {
	if len(models) == 0 {
		return nil
	}
	if weights, ok := sparseWeights(models); ok {
		return &SparseModel{featurevector.Average(weights...)}
	}
	merged := models[0].New()
	for _, model := range models {
		merged.AddModel(model)
	}
	merged.ScalarDivide(float64(len(models)))
	return merged
}

func sparseWeights(models []Model) ([]featurevector.Sparse, bool) {
	retval := make([]featurevector.Sparse, len(models))
	for i, model := range models {
		sparse, ok := model.(*SparseModel)
		if !ok {
			return nil, false
		}
		retval[i] = sparse.Weights
	}
	return retval, true
}
