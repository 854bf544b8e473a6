package planner

import (
	"log"
	"math/rand"

	"github.com/AnneBeyer/tgen/alg/search"
	"github.com/AnneBeyer/tgen/nlp/planner/candgen"
	"github.com/AnneBeyer/tgen/nlp/types"

	"github.com/pkg/errors"
)

// SamplingPlanner builds trees by drawing each extension at random,
// weighted by the generator's probabilities. It owns its random source
// and is not safe for concurrent use.
type SamplingPlanner struct {
	CandGen Proposer
	Options Options
	Rand    *rand.Rand
	Log     *log.Logger
}

func NewSamplingPlanner(cg Proposer, opts Options, seed int64) *SamplingPlanner {
	return &SamplingPlanner{
		CandGen: cg,
		Options: opts,
		Rand:    rand.New(rand.NewSource(seed)),
	}
}

func (p *SamplingPlanner) choose(cands []candgen.Candidate) types.Operation {
	r := p.Rand.Float64()
	var total float64
	for _, cand := range cands {
		total += cand.Prob
		if r < total {
			return cand.Op
		}
	}
	return cands[len(cands)-1].Op
}

// sample makes one attempt; it fails on a dead end or when the tree grows
// past the bounds.
func (p *SamplingPlanner) sample(da types.DA) (*types.Tree, bool) {
	state := types.NewState(da, types.NewArena(2*p.Options.MaxTreeSize))
	maxSteps := 2*p.Options.MaxTreeSize + 1
	for steps := 0; !state.Terminal(); steps++ {
		if steps >= maxSteps {
			return nil, false
		}
		proposal := p.CandGen.Propose(state)
		if !proposal.Found || len(proposal.Candidates) == 0 {
			return nil, false
		}
		op := p.choose(proposal.Candidates)
		state = state.Apply(op)
		if op.Kind == types.ADD_CHILD && !withinBounds(state, p.Options) {
			return nil, false
		}
	}
	return state.Tree, true
}

func (p *SamplingPlanner) GenerateTree(da types.DA) (*types.Tree, error) {
	for attempt := 0; attempt < p.Options.MaxRetries; attempt++ {
		if tree, ok := p.sample(da); ok {
			return tree, nil
		}
		if p.Log != nil {
			p.Log.Printf("Sampling %s: attempt %d discarded", da, attempt)
		}
	}
	return nil, errors.Wrapf(search.ErrSearchExhausted, "sampling %s: %d attempts failed", da, p.Options.MaxRetries)
}

// GenerateTrees samples n trees for da.
func (p *SamplingPlanner) GenerateTrees(da types.DA, n int) ([]*types.Tree, error) {
	retval := make([]*types.Tree, 0, n)
	for i := 0; i < n; i++ {
		tree, err := p.GenerateTree(da)
		if err != nil {
			return retval, err
		}
		retval = append(retval, tree)
	}
	return retval, nil
}
