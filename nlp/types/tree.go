package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Node is a t-tree node. Parent is the index of the parent node within the
// tree (-1 for the technical root).
type Node struct {
	Lemma, Formeme, Functor string
	Generated               bool
	Parent                  int
}

var fieldEscaper = strings.NewReplacer(
	`\`, `\\`, `|`, `\|`, ` `, `\ `, `(`, `\(`, `)`, `\)`,
	`,`, `\,`, `#`, `\#`, `=`, `\=`, `>`, `\>`,
)

// EscapeField backslash-escapes the separators used in labels, tree
// signatures and context keys, so distinct fields never join into the
// same string.
func EscapeField(s string) string {
	return fieldEscaper.Replace(s)
}

// Label identifies a node for features and evaluation.
func (n Node) Label() string {
	if n.Parent < 0 {
		return ROOT_LABEL
	}
	return EscapeField(n.Lemma) + "|" + EscapeField(n.Formeme)
}

func (n Node) String() string {
	if n.Parent < 0 {
		return ROOT_LABEL
	}
	return EscapeField(n.Lemma) + "|" + EscapeField(n.Formeme) + "|" + EscapeField(n.Functor)
}

type slot struct {
	node Node
	prev int
}

// Arena is append-only node storage shared by all trees derived from one
// ancestor. Extending a tree allocates a single slot and links it to the
// slot of the previous node of the same tree, so unchanged nodes are never
// copied. An Arena is not safe for concurrent appends.
type Arena struct {
	slots []slot
}

func NewArena(capacity int) *Arena {
	return &Arena{make([]slot, 0, capacity)}
}

func (a *Arena) alloc(n Node, prev int) int {
	a.slots = append(a.slots, slot{n, prev})
	return len(a.slots) - 1
}

func (a *Arena) Len() int {
	return len(a.slots)
}

// Tree is an immutable ordered rooted tree. Node 0 is the technical root;
// the children of a node are ordered by node index.
type Tree struct {
	arena *Arena
	last  int
	size  int

	once  sync.Once
	nodes []Node
}

// NewRootTree returns a tree holding only the technical root.
func NewRootTree(arena *Arena) *Tree {
	if arena == nil {
		arena = NewArena(16)
	}
	idx := arena.alloc(Node{Parent: -1}, -1)
	return &Tree{arena: arena, last: idx, size: 1}
}

// NewTree builds a tree in its own arena. nodes[0] must be the root and
// every other node must point to an earlier node.
func NewTree(nodes []Node) (*Tree, error) {
	if len(nodes) == 0 {
		return nil, errors.New("tree has no root")
	}
	if nodes[0].Parent >= 0 {
		return nil, errors.Errorf("node 0 must be the root, has parent %d", nodes[0].Parent)
	}
	t := NewRootTree(NewArena(len(nodes)))
	for i, node := range nodes[1:] {
		if node.Parent < 0 || node.Parent > i {
			return nil, errors.Errorf("node %d has invalid parent %d", i+1, node.Parent)
		}
		t = t.add(node)
	}
	return t, nil
}

func (t *Tree) add(n Node) *Tree {
	idx := t.arena.alloc(n, t.last)
	return &Tree{arena: t.arena, last: idx, size: t.size + 1}
}

// AddChild returns a new tree with n appended as the last child of parent.
// The receiver is left untouched.
func (t *Tree) AddChild(parent int, n Node) *Tree {
	if parent < 0 || parent >= t.size {
		panic(fmt.Sprintf("Parent %d out of range (tree size %d)", parent, t.size))
	}
	n.Parent = parent
	return t.add(n)
}

func (t *Tree) Size() int {
	return t.size
}

// Nodes returns the nodes in index order. The slice is shared and must not
// be modified.
func (t *Tree) Nodes() []Node {
	t.once.Do(func() {
		nodes := make([]Node, t.size)
		for i, cur := t.size-1, t.last; i >= 0; i-- {
			nodes[i] = t.arena.slots[cur].node
			cur = t.arena.slots[cur].prev
		}
		t.nodes = nodes
	})
	return t.nodes
}

func (t *Tree) Node(i int) Node {
	return t.Nodes()[i]
}

func (t *Tree) Children(i int) []int {
	var retval []int
	for j, node := range t.Nodes() {
		if node.Parent == i {
			retval = append(retval, j)
		}
	}
	return retval
}

func (t *Tree) Depth(i int) int {
	nodes := t.Nodes()
	depth := 0
	for nodes[i].Parent >= 0 {
		i = nodes[i].Parent
		depth++
	}
	return depth
}

func (t *Tree) signature(i int, children [][]int, b *strings.Builder) {
	node := t.Nodes()[i]
	b.WriteString(node.String())
	if len(children[i]) == 0 {
		return
	}
	b.WriteByte('(')
	for j, child := range children[i] {
		if j > 0 {
			b.WriteByte(' ')
		}
		t.signature(child, children, b)
	}
	b.WriteByte(')')
}

// Signature is a canonical bracketed form; two trees have the same
// signature iff they have the same shape, labels and child order.
func (t *Tree) Signature() string {
	nodes := t.Nodes()
	children := make([][]int, len(nodes))
	for j, node := range nodes[1:] {
		children[node.Parent] = append(children[node.Parent], j+1)
	}
	b := &strings.Builder{}
	t.signature(0, children, b)
	return b.String()
}

func (t *Tree) Equal(other *Tree) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.size == other.size && t.Signature() == other.Signature()
}

func (t *Tree) String() string {
	return t.Signature()
}
