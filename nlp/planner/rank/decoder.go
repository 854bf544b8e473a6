package rank

import (
	"github.com/AnneBeyer/tgen/alg/featurevector"
	"github.com/AnneBeyer/tgen/alg/perceptron"
	"github.com/AnneBeyer/tgen/nlp/types"
	"github.com/AnneBeyer/tgen/util"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// step is one oracle decision: the gold prefix state of a tree and the
// index of the step in the corpus.
type step struct {
	id    int
	da    types.DA
	state *types.State
}

func (s *step) Equal(other util.Equaler) bool {
	o, ok := other.(*step)
	return ok && o == s
}

type opLabel types.Operation

func (o opLabel) Equal(other util.Equaler) bool {
	otherOp, ok := other.(opLabel)
	return ok && otherOp == o
}

// stepInstances turns a gold tree into one perceptron instance per oracle
// operation.
func stepInstances(da types.DA, tree *types.Tree) []perceptron.DecodedInstance {
	states, ops := types.OracleStates(da, tree)
	retval := make([]perceptron.DecodedInstance, len(ops))
	for i, op := range ops {
		retval[i] = &perceptron.Decoded{
			InstanceVal: &step{i, da, states[i]},
			DecodedVal:  opLabel(op),
		}
	}
	return retval
}

type cacheKey struct {
	step *step
	op   types.Operation
}

// stepDecoder picks the best scoring extension of a gold prefix among the
// generator's proposals and the gold extension. Features of the candidate
// states are cached across passes.
type stepDecoder struct {
	ranker *Ranker
	cache  *lru.Cache
}

var _ perceptron.EarlyUpdateInstanceDecoder = &stepDecoder{}

func newStepDecoder(r *Ranker, cacheSize int) (*stepDecoder, error) {
	if cacheSize < 1 {
		cacheSize = DEFAULT_CACHE_SIZE
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed creating feature cache")
	}
	return &stepDecoder{r, cache}, nil
}

func (d *stepDecoder) features(s *step, op types.Operation) featurevector.Sparse {
	key := cacheKey{s, op}
	if feats, exists := d.cache.Get(key); exists {
		return feats.(featurevector.Sparse)
	}
	feats := d.ranker.Features(s.da, s.state.Apply(op))
	d.cache.Add(key, feats)
	return feats
}

// candidates are the proposed operations in proposal order with the gold
// operation appended when it was not proposed.
func (d *stepDecoder) candidates(s *step, gold types.Operation) []types.Operation {
	proposal := d.ranker.CandGen.Propose(s.state)
	retval := make([]types.Operation, 0, len(proposal.Candidates)+1)
	var hasGold bool
	for _, cand := range proposal.Candidates {
		retval = append(retval, cand.Op)
		if cand.Op == gold {
			hasGold = true
		}
	}
	if !hasGold {
		retval = append(retval, gold)
	}
	return retval
}

func (d *stepDecoder) DecodeEarlyUpdate(gold perceptron.DecodedInstance, m perceptron.Model) (perceptron.DecodedInstance, interface{}, interface{}, float64) {
	s := gold.Instance().(*step)
	goldOp := types.Operation(gold.Decoded().(opLabel))
	var (
		best      types.Operation
		bestFeats featurevector.Sparse
		bestScore float64
	)
	for i, op := range d.candidates(s, goldOp) {
		feats := d.features(s, op)
		// first proposed wins ties
		if score := m.Score(feats); i == 0 || score > bestScore {
			best, bestFeats, bestScore = op, feats, score
		}
	}
	return &perceptron.Decoded{InstanceVal: s, DecodedVal: opLabel(best)}, bestFeats, d.features(s, goldOp), bestScore
}
