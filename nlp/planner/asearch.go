package planner

import (
	"log"

	"github.com/AnneBeyer/tgen/alg/search"
	"github.com/AnneBeyer/tgen/nlp/types"

	"github.com/pkg/errors"
)

// ASearchPlanner finds the best scoring complete tree for a DA by A*
// search over partial trees. It is read-only during generation, so one
// planner may serve several goroutines.
type ASearchPlanner struct {
	CandGen Proposer
	Ranker  Scorer
	Options Options
	Log     *log.Logger

	ShowAgenda bool
}

var _ search.Interface = &ASearchPlanner{}

type problem struct {
	da    types.DA
	arena *types.Arena
}

func (p *ASearchPlanner) Name() string {
	return "A*"
}

func (p *ASearchPlanner) StartItem(prob search.Problem) []search.Candidate {
	pr := prob.(*problem)
	return []search.Candidate{types.NewState(pr.da, pr.arena)}
}

func (p *ASearchPlanner) Expand(c search.Candidate, prob search.Problem) []search.Candidate {
	pr := prob.(*problem)
	state := c.(*types.State)
	proposal := p.CandGen.Propose(state)
	if !proposal.Found {
		if p.ShowAgenda && p.Log != nil {
			p.Log.Printf("dead end at %v", state)
		}
		return nil
	}
	retval := make([]search.Candidate, 0, len(proposal.Candidates))
	for _, cand := range proposal.Candidates {
		child := state.Apply(cand.Op)
		if cand.Op.Kind == types.ADD_CHILD && !withinBounds(child, p.Options) {
			continue
		}
		retval = append(retval, child.WithScore(p.Ranker.Score(pr.da, child)))
	}
	return retval
}

func (p *ASearchPlanner) GoalTest(prob search.Problem, c search.Candidate) bool {
	return c.Terminal()
}

// Lists is the outcome of one search with its final open and closed lists.
type Lists struct {
	Best       *types.State
	Open       []*types.State
	Closed     []*types.State
	Expansions int
}

func toStates(cands []search.Candidate) []*types.State {
	retval := make([]*types.State, len(cands))
	for i, c := range cands {
		retval[i] = c.(*types.State)
	}
	return retval
}

// OpenTrees and ClosedTrees return the trees on the lists, best first and
// in expansion order respectively.
func (l *Lists) OpenTrees() []*types.Tree {
	return trees(l.Open)
}

func (l *Lists) ClosedTrees() []*types.Tree {
	return trees(l.Closed)
}

func trees(states []*types.State) []*types.Tree {
	retval := make([]*types.Tree, len(states))
	for i, s := range states {
		retval[i] = s.Tree
	}
	return retval
}

// GenerateTreeWithLists runs the search for da. On exhaustion the lists
// are returned along with an error whose cause is search.ErrSearchExhausted.
func (p *ASearchPlanner) GenerateTreeWithLists(da types.DA) (*Lists, error) {
	engine := &search.AStar{
		MaxExpansions: p.Options.MaxIter,
		MaxClosed:     p.Options.MaxClosed,
		Log:           p.Log,
		ShowAgenda:    p.ShowAgenda,
	}
	result, err := engine.Search(p, &problem{da, types.NewArena(4 * p.Options.MaxTreeSize)})
	lists := &Lists{
		Open:       toStates(result.Open.Items()),
		Closed:     toStates(result.Closed.Items()),
		Expansions: result.Expansions,
	}
	if err != nil {
		return lists, errors.Wrapf(err, "planning %s", da)
	}
	lists.Best = result.Best.(*types.State)
	return lists, nil
}

func (p *ASearchPlanner) GenerateTree(da types.DA) (*types.Tree, error) {
	lists, err := p.GenerateTreeWithLists(da)
	if err != nil {
		return nil, err
	}
	return lists.Best.Tree, nil
}
