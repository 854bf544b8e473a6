package planner

import (
	"fmt"

	"github.com/AnneBeyer/tgen/nlp/planner/candgen"
	"github.com/AnneBeyer/tgen/nlp/types"
	"github.com/AnneBeyer/tgen/util/conf"
)

const (
	DEFAULT_MAX_ITER      = 3000
	DEFAULT_MAX_CLOSED    = 0
	DEFAULT_MAX_TREE_SIZE = 40
	DEFAULT_MAX_DEPTH     = 8
	DEFAULT_MAX_RETRIES   = 10
)

// Options bound the search; they are read from the same YAML
// configuration as the ranker options.
type Options struct {
	MaxIter     int `yaml:"max_iter"`
	MaxClosed   int `yaml:"max_closed"`
	MaxTreeSize int `yaml:"max_tree_size"`
	MaxDepth    int `yaml:"max_depth"`
	MaxRetries  int `yaml:"max_retries"`
}

func (o *Options) SetDefaults() {
	o.MaxIter = DEFAULT_MAX_ITER
	o.MaxClosed = DEFAULT_MAX_CLOSED
	o.MaxTreeSize = DEFAULT_MAX_TREE_SIZE
	o.MaxDepth = DEFAULT_MAX_DEPTH
	o.MaxRetries = DEFAULT_MAX_RETRIES
}

func (o *Options) Validate() error {
	for _, opt := range []struct {
		name  string
		value int
	}{
		{"max_iter", o.MaxIter},
		{"max_tree_size", o.MaxTreeSize},
		{"max_depth", o.MaxDepth},
		{"max_retries", o.MaxRetries},
	} {
		if opt.value < 1 {
			return &conf.ConfigurationError{Option: opt.name, Reason: fmt.Sprintf("must be positive, got %d", opt.value)}
		}
	}
	if o.MaxClosed < 0 {
		return &conf.ConfigurationError{Option: "max_closed", Reason: "must not be negative"}
	}
	return nil
}

func DefaultOptions() Options {
	o := Options{}
	o.SetDefaults()
	return o
}

// Proposer proposes the extensions of a state's frontier head.
type Proposer interface {
	Propose(s *types.State) candgen.Proposal
}

// Scorer scores a (partial) tree state for a DA.
type Scorer interface {
	Score(da types.DA, s *types.State) float64
}

// Generator plans one tree for a DA.
type Generator interface {
	GenerateTree(da types.DA) (*types.Tree, error)
}

// withinBounds reports whether the node added last to s respects the
// size and depth bounds.
func withinBounds(s *types.State, opts Options) bool {
	size := s.Tree.Size() - 1
	if size > opts.MaxTreeSize {
		return false
	}
	return s.Tree.Depth(s.Tree.Size()-1) <= opts.MaxDepth
}
