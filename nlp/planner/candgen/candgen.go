// Package candgen learns which tree extensions are observed in a training
// corpus under a given context and proposes them, most frequent first.
package candgen

import (
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/AnneBeyer/tgen/nlp/types"
	"github.com/AnneBeyer/tgen/util"
)

const (
	DEFAULT_PRUNE_THRESHOLD = 1
	DEFAULT_MAX_CHILDREN    = 8

	CONTEXT_SEPARATOR = "#"
)

// A Generalization maps a state to a context key. Generalizations are tried
// from the most specific to the least specific one.
type Generalization struct {
	Name    string
	Context func(s *types.State, head types.Node, numChildren int) string
}

func unrealizedKeys(s *types.State, withValues bool) string {
	unrealized := s.DA.Unrealized(s.Tree)
	strs := make([]string, len(unrealized))
	for i, dai := range unrealized {
		if withValues {
			strs[i] = dai.SlotValue()
		} else {
			strs[i] = dai.TypeSlot()
		}
	}
	sort.Strings(strs)
	return strings.Join(strs, ",")
}

var GENERALIZATIONS = []Generalization{
	{"full", func(s *types.State, head types.Node, numChildren int) string {
		return strings.Join([]string{head.String(), strconv.Itoa(numChildren), unrealizedKeys(s, true)}, CONTEXT_SEPARATOR)
	}},
	{"slots", func(s *types.State, head types.Node, numChildren int) string {
		return strings.Join([]string{head.Label(), strconv.Itoa(numChildren), unrealizedKeys(s, false)}, CONTEXT_SEPARATOR)
	}},
	{"formeme", func(s *types.State, head types.Node, numChildren int) string {
		return strings.Join([]string{types.EscapeField(head.Formeme), strconv.Itoa(numChildren), unrealizedKeys(s, false)}, CONTEXT_SEPARATOR)
	}},
	{"head", func(s *types.State, head types.Node, numChildren int) string {
		return strings.Join([]string{types.EscapeField(head.Formeme), strconv.Itoa(numChildren)}, CONTEXT_SEPARATOR)
	}},
}

// OpCount is an operation with the number of times it was observed.
type OpCount struct {
	Op    types.Operation
	Count int
}

// Candidate is a proposed operation with its relative frequency within the
// matched context.
type Candidate struct {
	Op   types.Operation
	Prob float64
}

// Proposal is the answer to a context lookup. Found is false when no
// generalization level has seen the context: the state is a dead end.
type Proposal struct {
	Candidates []Candidate
	Level      int
	Found      bool
}

// Model is the trained context -> operations table, one table per
// generalization level. It is read-only after training or loading and may
// be shared between goroutines.
type Model struct {
	PruneThreshold int
	MaxChildren    int
	Levels         []string
	Tables         []map[string][]OpCount
}

func New(pruneThreshold int) *Model {
	if pruneThreshold < 1 {
		pruneThreshold = DEFAULT_PRUNE_THRESHOLD
	}
	m := &Model{
		PruneThreshold: pruneThreshold,
		MaxChildren:    DEFAULT_MAX_CHILDREN,
		Levels:         make([]string, len(GENERALIZATIONS)),
		Tables:         make([]map[string][]OpCount, len(GENERALIZATIONS)),
	}
	for i, g := range GENERALIZATIONS {
		m.Levels[i] = g.Name
		m.Tables[i] = make(map[string][]OpCount)
	}
	return m
}

func contexts(s *types.State, levels int) []string {
	head, ok := s.Head()
	if !ok {
		return nil
	}
	numChildren := len(s.Tree.Children(head))
	headNode := s.Tree.Node(head)
	retval := make([]string, levels)
	for i := 0; i < levels && i < len(GENERALIZATIONS); i++ {
		retval[i] = GENERALIZATIONS[i].Context(s, headNode, numChildren)
	}
	return retval
}

// Train counts the gold operations of every (DA, tree) pair under every
// generalization of their context, then prunes and sorts the tables.
func (m *Model) Train(das []types.DA, trees []*types.Tree, logger *log.Logger) error {
	if len(das) != len(trees) {
		return errors.Errorf("got %d DAs but %d trees", len(das), len(trees))
	}
	counts := make([]map[string]map[types.Operation]int, len(m.Tables))
	for i := range counts {
		counts[i] = make(map[string]map[types.Operation]int)
	}
	for i, da := range das {
		states, ops := types.OracleStates(da, trees[i])
		for j, op := range ops {
			for level, ctx := range contexts(states[j], len(m.Tables)) {
				ctxCounts, exists := counts[level][ctx]
				if !exists {
					ctxCounts = make(map[types.Operation]int)
					counts[level][ctx] = ctxCounts
				}
				ctxCounts[op]++
			}
		}
	}
	var pruned, kept int
	for level, levelCounts := range counts {
		table := make(map[string][]OpCount, len(levelCounts))
		for ctx, ctxCounts := range levelCounts {
			var total int
			opCounts := make([]OpCount, 0, len(ctxCounts))
			for op, count := range ctxCounts {
				opCounts = append(opCounts, OpCount{op, count})
				total += count
			}
			if total < m.PruneThreshold {
				pruned++
				continue
			}
			sortOpCounts(opCounts)
			table[ctx] = opCounts
			kept++
		}
		m.Tables[level] = table
	}
	if logger != nil {
		logger.Printf("Candidate generator: %s training pairs, %s contexts kept, %s pruned (threshold %d)",
			humanize.Comma(int64(len(das))), humanize.Comma(int64(kept)), humanize.Comma(int64(pruned)), m.PruneThreshold)
	}
	return nil
}

// sortOpCounts orders by descending count; ties by operation string so
// that training is deterministic regardless of map iteration order.
func sortOpCounts(opCounts []OpCount) {
	sort.Slice(opCounts, func(i, j int) bool {
		if opCounts[i].Count != opCounts[j].Count {
			return opCounts[i].Count > opCounts[j].Count
		}
		return opCounts[i].Op.String() < opCounts[j].Op.String()
	})
}

// Propose returns the legal extensions of the state's frontier head from
// the most specific seen context.
func (m *Model) Propose(s *types.State) Proposal {
	ctxs := contexts(s, len(m.Tables))
	if ctxs == nil {
		return Proposal{}
	}
	head, _ := s.Head()
	full := m.MaxChildren > 0 && len(s.Tree.Children(head)) >= m.MaxChildren
	for level, ctx := range ctxs {
		opCounts, exists := m.Tables[level][ctx]
		if !exists {
			continue
		}
		var total int
		for _, oc := range opCounts {
			if full && oc.Op.Kind == types.ADD_CHILD {
				continue
			}
			total += oc.Count
		}
		if total == 0 {
			// the head is full and this context never closed it
			return Proposal{[]Candidate{{types.Close, 1.0}}, level, true}
		}
		cands := make([]Candidate, 0, len(opCounts))
		for _, oc := range opCounts {
			if full && oc.Op.Kind == types.ADD_CHILD {
				continue
			}
			cands = append(cands, Candidate{oc.Op, float64(oc.Count) / float64(total)})
		}
		return Proposal{cands, level, true}
	}
	return Proposal{}
}

func (m *Model) NumContexts() int {
	var retval int
	for _, table := range m.Tables {
		retval += len(table)
	}
	return retval
}

// TopContexts returns the n most observed contexts of a level, for logging.
func (m *Model) TopContexts(level, n int) []util.TopNStrIntDatum {
	totals := make(map[string]int, len(m.Tables[level]))
	for ctx, opCounts := range m.Tables[level] {
		for _, oc := range opCounts {
			totals[ctx] += oc.Count
		}
	}
	return util.GetTopNStrInt(totals, n)
}

// Copy returns a deep copy, so independent workers never share tables.
func (m *Model) Copy() *Model {
	copied := &Model{
		PruneThreshold: m.PruneThreshold,
		MaxChildren:    m.MaxChildren,
		Levels:         append([]string(nil), m.Levels...),
		Tables:         make([]map[string][]OpCount, len(m.Tables)),
	}
	for i, table := range m.Tables {
		copied.Tables[i] = make(map[string][]OpCount, len(table))
		for ctx, opCounts := range table {
			copied.Tables[i][ctx] = append([]OpCount(nil), opCounts...)
		}
	}
	return copied
}

func (m *Model) Save(file string) error {
	return util.WriteModel(file, m)
}

// Load reads a model written by Save. Tables of levels unknown to this
// build are dropped; levels missing from the file stay empty and simply
// never match.
func Load(file string) (*Model, error) {
	stored := &Model{}
	if err := util.ReadModel(file, stored); err != nil {
		return nil, err
	}
	if len(stored.Levels) != len(stored.Tables) {
		return nil, &util.ModelLoadError{Path: file, Err: errors.Errorf("%d levels but %d tables", len(stored.Levels), len(stored.Tables))}
	}
	m := New(stored.PruneThreshold)
	m.MaxChildren = stored.MaxChildren
	for i, name := range m.Levels {
		for j, storedName := range stored.Levels {
			if name == storedName && stored.Tables[j] != nil {
				m.Tables[i] = stored.Tables[j]
			}
		}
	}
	return m, nil
}
