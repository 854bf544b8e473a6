package rank

import (
	"strconv"

	"github.com/AnneBeyer/tgen/alg/featurevector"
	"github.com/AnneBeyer/tgen/nlp/types"
	"github.com/pkg/errors"
)

// FeatureGroup is a named set of feature templates over a DA and a
// (partial) tree state.
type FeatureGroup struct {
	Group   string
	Extract func(ctx *featureContext, feats featurevector.Sparse)
}

type featureContext struct {
	da     types.DA
	state  *types.State
	nodes  []types.Node
	closed []bool
}

func newFeatureContext(da types.DA, state *types.State) *featureContext {
	nodes := state.Tree.Nodes()
	closed := make([]bool, len(nodes))
	for i := range closed {
		closed[i] = true
	}
	for _, open := range state.Frontier {
		closed[open] = false
	}
	return &featureContext{da, state, nodes, closed}
}

func (c *featureContext) numChildren() []int {
	retval := make([]int, len(c.nodes))
	for _, node := range c.nodes[1:] {
		retval[node.Parent]++
	}
	return retval
}

func lemmaOf(n types.Node) string {
	if n.Parent < 0 {
		return types.ROOT_LABEL
	}
	return types.EscapeField(n.Lemma)
}

func formemeOf(n types.Node) string {
	if n.Parent < 0 {
		return types.ROOT_LABEL
	}
	return types.EscapeField(n.Formeme)
}

var FEATURE_GROUPS = []FeatureGroup{
	{"bias", func(c *featureContext, feats featurevector.Sparse) {
		feats["bias"] = 1.0
	}},
	{"node", func(c *featureContext, feats featurevector.Sparse) {
		for _, node := range c.nodes[1:] {
			feats["node:"+node.Label()] += 1.0
		}
	}},
	{"edge", func(c *featureContext, feats featurevector.Sparse) {
		for _, node := range c.nodes[1:] {
			parent := c.nodes[node.Parent]
			feats["edge:"+lemmaOf(parent)+">"+lemmaOf(node)] += 1.0
			feats["edgef:"+formemeOf(parent)+">"+formemeOf(node)] += 1.0
		}
	}},
	{"functor", func(c *featureContext, feats featurevector.Sparse) {
		for _, node := range c.nodes[1:] {
			feats["functor:"+node.Functor] += 1.0
		}
	}},
	{"close", func(c *featureContext, feats featurevector.Sparse) {
		children := c.numChildren()
		for i, node := range c.nodes {
			if !c.closed[i] {
				continue
			}
			n := strconv.Itoa(children[i])
			feats["nchildren:"+lemmaOf(node)+"|"+n] += 1.0
			feats["close:"+lemmaOf(node)+"|"+formemeOf(node)+"|"+n] += 1.0
		}
	}},
	{"depth", func(c *featureContext, feats featurevector.Sparse) {
		if head, ok := c.state.Head(); ok {
			feats["depth:"+strconv.Itoa(c.state.Tree.Depth(head))] = 1.0
		}
	}},
	{"da", func(c *featureContext, feats featurevector.Sparse) {
		unrealized := len(c.da.Unrealized(c.state.Tree))
		feats["realized:"+strconv.Itoa(len(c.da)-unrealized)] = 1.0
		feats["unrealized:"+strconv.Itoa(unrealized)] = 1.0
		for _, dai := range c.da {
			for _, node := range c.nodes[1:] {
				feats["dai:"+dai.Slot+"|"+node.Lemma] += 1.0
			}
		}
	}},
	{"size", func(c *featureContext, feats featurevector.Sparse) {
		feats["size:"+strconv.Itoa(len(c.nodes)-1)] = 1.0
	}},
}

func AllFeatureGroups() []string {
	retval := make([]string, len(FEATURE_GROUPS))
	for i, group := range FEATURE_GROUPS {
		retval[i] = group.Group
	}
	return retval
}

// splitKnownGroups separates the group names this build implements from
// the others, keeping their order.
func splitKnownGroups(names []string) (known, unknown []string) {
	byName := make(map[string]bool, len(FEATURE_GROUPS))
	for _, group := range FEATURE_GROUPS {
		byName[group.Group] = true
	}
	for _, name := range names {
		if byName[name] {
			known = append(known, name)
		} else {
			unknown = append(unknown, name)
		}
	}
	return known, unknown
}

// Extractor computes the features of the enabled groups.
type Extractor struct {
	groups []FeatureGroup
}

// NewExtractor enables the named groups, all of them if none are given.
func NewExtractor(groups []string) (*Extractor, error) {
	if len(groups) == 0 {
		return &Extractor{FEATURE_GROUPS}, nil
	}
	byName := make(map[string]FeatureGroup, len(FEATURE_GROUPS))
	for _, group := range FEATURE_GROUPS {
		byName[group.Group] = group
	}
	retval := &Extractor{make([]FeatureGroup, 0, len(groups))}
	for _, name := range groups {
		group, exists := byName[name]
		if !exists {
			return nil, errors.Errorf("unknown feature group %q", name)
		}
		retval.groups = append(retval.groups, group)
	}
	return retval, nil
}

func (e *Extractor) Extract(da types.DA, state *types.State) featurevector.Sparse {
	feats := featurevector.NewSparse()
	ctx := newFeatureContext(da, state)
	for _, group := range e.groups {
		group.Extract(ctx, feats)
	}
	return feats
}

// Extract computes all feature groups.
func Extract(da types.DA, state *types.State) featurevector.Sparse {
	return (&Extractor{FEATURE_GROUPS}).Extract(da, state)
}
