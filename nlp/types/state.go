package types

import (
	"fmt"
	"strconv"
	"strings"
)

type OpKind byte

const (
	ADD_CHILD OpKind = 'A'
	CLOSE     OpKind = 'C'
)

// Operation is an atomic tree extension applied at the head of a state's
// frontier: either append a child with the given labels to the head node,
// or close the head node so it receives no further children.
type Operation struct {
	Kind                    OpKind
	Lemma, Formeme, Functor string
}

var Close = Operation{Kind: CLOSE}

func AddChild(lemma, formeme, functor string) Operation {
	return Operation{ADD_CHILD, lemma, formeme, functor}
}

func (o Operation) String() string {
	if o.Kind == CLOSE {
		return "CLOSE"
	}
	return "+" + EscapeField(o.Lemma) + "|" + EscapeField(o.Formeme) + "|" + EscapeField(o.Functor)
}

// State is a partial (or complete) tree being planned for a DA. States are
// never modified once created; Apply and WithScore return new states that
// share the tree arena with their parent.
type State struct {
	DA       DA
	Tree     *Tree
	Frontier []int
	History  []Operation

	score float64
}

// NewState returns the initial state: a lone root on the frontier.
func NewState(da DA, arena *Arena) *State {
	return &State{
		DA:       da,
		Tree:     NewRootTree(arena),
		Frontier: []int{0},
	}
}

func (s *State) Score() float64 {
	return s.score
}

func (s *State) WithScore(score float64) *State {
	copied := *s
	copied.score = score
	return &copied
}

// Head returns the node currently being extended.
func (s *State) Head() (int, bool) {
	if len(s.Frontier) == 0 {
		return 0, false
	}
	return s.Frontier[0], true
}

// Terminal is true once every node has been closed.
func (s *State) Terminal() bool {
	return len(s.Frontier) == 0
}

func (s *State) Len() int {
	return len(s.History)
}

// Apply returns the state resulting from op. The score is carried over
// unchanged; callers rescore the result.
func (s *State) Apply(op Operation) *State {
	head, ok := s.Head()
	if !ok {
		panic("Can't extend a terminal state")
	}
	next := &State{
		DA:      s.DA,
		History: append(s.History[:len(s.History):len(s.History)], op),
		score:   s.score,
	}
	switch op.Kind {
	case ADD_CHILD:
		next.Tree = s.Tree.AddChild(head, Node{
			Lemma:     op.Lemma,
			Formeme:   op.Formeme,
			Functor:   op.Functor,
			Generated: true,
		})
		next.Frontier = make([]int, len(s.Frontier), len(s.Frontier)+1)
		copy(next.Frontier, s.Frontier)
		next.Frontier = append(next.Frontier, next.Tree.Size()-1)
	case CLOSE:
		next.Tree = s.Tree
		next.Frontier = s.Frontier[1:len(s.Frontier):len(s.Frontier)]
	default:
		panic(fmt.Sprintf("Unknown operation kind %c", op.Kind))
	}
	return next
}

// Signature identifies the state structurally: same tree and same
// frontier means the same set of reachable completions.
func (s *State) Signature() string {
	strs := make([]string, len(s.Frontier))
	for i, f := range s.Frontier {
		strs[i] = strconv.Itoa(f)
	}
	return s.Tree.Signature() + "|" + strings.Join(strs, ",")
}

func (s *State) String() string {
	return fmt.Sprintf("%s [%.4f]", s.Signature(), s.score)
}

// OracleOperations returns the canonical breadth-first operation sequence
// that builds t from a lone root: every node receives its children in
// order and is then closed.
func OracleOperations(t *Tree) []Operation {
	nodes := t.Nodes()
	children := make([][]int, len(nodes))
	for j, node := range nodes[1:] {
		children[node.Parent] = append(children[node.Parent], j+1)
	}
	ops := make([]Operation, 0, 2*len(nodes))
	queue := []int{0}
	for len(queue) > 0 {
		head := queue[0]
		queue = queue[1:]
		for _, child := range children[head] {
			node := nodes[child]
			ops = append(ops, AddChild(node.Lemma, node.Formeme, node.Functor))
			queue = append(queue, child)
		}
		ops = append(ops, Close)
	}
	return ops
}

// OracleStates replays the oracle sequence for t, returning every state
// from the initial one to the terminal one (len(ops)+1 states).
func OracleStates(da DA, t *Tree) ([]*State, []Operation) {
	ops := OracleOperations(t)
	states := make([]*State, 0, len(ops)+1)
	cur := NewState(da, NewArena(t.Size()))
	states = append(states, cur)
	for _, op := range ops {
		cur = cur.Apply(op)
		states = append(states, cur)
	}
	return states, ops
}
