package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var TEST_DA = DA{
	{"inform", "food", "Italian"},
	{"inform", "area", "centre"},
	{"request", "phone", ""},
}

func testTree(t *testing.T) *Tree {
	tree, err := NewTree([]Node{
		{Parent: -1},
		{Lemma: "be", Formeme: "v:fin", Functor: "PRED", Parent: 0},
		{Lemma: "restaurant", Formeme: "n:subj", Functor: "ACT", Parent: 1},
		{Lemma: "Italian", Formeme: "adj:attr", Functor: "RSTR", Parent: 2},
		{Lemma: "centre", Formeme: "n:in+X", Functor: "LOC", Parent: 1},
	})
	require.NoError(t, err)
	return tree
}

func TestDAString(t *testing.T) {
	assert.Equal(t, "inform(food=Italian)&inform(area=centre)&request(phone)", TEST_DA.String())
	assert.Equal(t, "hello()", DAI{Type: "hello"}.String())
	assert.True(t, TEST_DA.Equal(DA{TEST_DA[0], TEST_DA[1], TEST_DA[2]}))
	assert.False(t, TEST_DA.Equal(DA{TEST_DA[1], TEST_DA[0], TEST_DA[2]}))
}

func TestUnrealized(t *testing.T) {
	tree := testTree(t)
	assert.Equal(t, DA{{"request", "phone", ""}}, TEST_DA.Unrealized(tree))
	assert.Equal(t, TEST_DA, TEST_DA.Unrealized(NewRootTree(nil)))
}

func TestNewTreeValidation(t *testing.T) {
	_, err := NewTree(nil)
	assert.Error(t, err)
	_, err = NewTree([]Node{{Parent: 0}})
	assert.Error(t, err)
	_, err = NewTree([]Node{{Parent: -1}, {Lemma: "x", Parent: 1}})
	assert.Error(t, err, "forward parent references are rejected")
}

func TestTreeSharing(t *testing.T) {
	arena := NewArena(4)
	root := NewRootTree(arena)
	left := root.AddChild(0, Node{Lemma: "a"})
	right := root.AddChild(0, Node{Lemma: "b"})
	leftChild := left.AddChild(1, Node{Lemma: "c"})

	assert.Equal(t, 4, arena.Len(), "every extension allocates exactly one slot")
	assert.Equal(t, 1, root.Size())
	assert.Equal(t, "a", left.Node(1).Lemma)
	assert.Equal(t, "b", right.Node(1).Lemma)
	assert.Equal(t, 3, leftChild.Size())
	assert.Equal(t, []int{2}, leftChild.Children(1))
	assert.Equal(t, 2, leftChild.Depth(2))
	assert.Panics(t, func() { root.AddChild(3, Node{}) })
}

func TestTreeSignature(t *testing.T) {
	tree := testTree(t)
	assert.Equal(t,
		"ROOT(be|v:fin|PRED(restaurant|n:subj|ACT(Italian|adj:attr|RSTR) centre|n:in+X|LOC))",
		tree.Signature())

	// same structure, different creation order
	other, err := NewTree([]Node{
		{Parent: -1},
		{Lemma: "be", Formeme: "v:fin", Functor: "PRED", Parent: 0},
		{Lemma: "restaurant", Formeme: "n:subj", Functor: "ACT", Parent: 1},
		{Lemma: "centre", Formeme: "n:in+X", Functor: "LOC", Parent: 1},
		{Lemma: "Italian", Formeme: "adj:attr", Functor: "RSTR", Parent: 2},
	})
	require.NoError(t, err)
	assert.True(t, tree.Equal(other))

	swapped, err := NewTree([]Node{
		{Parent: -1},
		{Lemma: "be", Formeme: "v:fin", Functor: "PRED", Parent: 0},
		{Lemma: "centre", Formeme: "n:in+X", Functor: "LOC", Parent: 1},
		{Lemma: "restaurant", Formeme: "n:subj", Functor: "ACT", Parent: 1},
		{Lemma: "Italian", Formeme: "adj:attr", Functor: "RSTR", Parent: 3},
	})
	require.NoError(t, err)
	assert.False(t, tree.Equal(swapped), "child order is significant")
}

func TestOracleReplay(t *testing.T) {
	tree := testTree(t)
	states, ops := OracleStates(TEST_DA, tree)
	require.Len(t, ops, 2*tree.Size()-1)
	require.Len(t, states, len(ops)+1)

	final := states[len(states)-1]
	assert.True(t, final.Terminal())
	assert.True(t, final.Tree.Equal(tree))
	for _, state := range states[:len(states)-1] {
		assert.False(t, state.Terminal())
	}
	assert.Equal(t, AddChild("be", "v:fin", "PRED"), ops[0])
	assert.Equal(t, Close, ops[1], "root has a single child")
}

func TestStateImmutability(t *testing.T) {
	start := NewState(TEST_DA, nil)
	child := start.Apply(AddChild("be", "v:fin", "PRED"))
	closed := start.Apply(Close)

	assert.Equal(t, []int{0}, start.Frontier)
	assert.Empty(t, start.History)
	assert.Equal(t, []int{0, 1}, child.Frontier)
	assert.True(t, closed.Terminal())
	assert.NotEqual(t, child.Signature(), start.Signature())

	grandchild := child.Apply(Close)
	sibling := child.Apply(AddChild("x", "n:obj", "PAT"))
	assert.Equal(t, []int{1}, grandchild.Frontier)
	assert.Equal(t, []int{0, 1, 2}, sibling.Frontier)
	assert.Equal(t, []Operation{AddChild("be", "v:fin", "PRED")}, child.History)
	assert.Panics(t, func() { closed.Apply(Close) })

	scored := child.WithScore(2.5)
	assert.Equal(t, 2.5, scored.Score())
	assert.Equal(t, 0.0, child.Score())
	assert.Equal(t, child.Signature(), scored.Signature())
}

func TestSignatureSeparatorsInLabels(t *testing.T) {
	pipeInLemma, err := NewTree([]Node{
		{Parent: -1},
		{Lemma: "a|b", Formeme: "c", Functor: "F", Parent: 0},
	})
	require.NoError(t, err)
	pipeInFormeme, err := NewTree([]Node{
		{Parent: -1},
		{Lemma: "a", Formeme: "b|c", Functor: "F", Parent: 0},
	})
	require.NoError(t, err)
	assert.NotEqual(t, pipeInLemma.Signature(), pipeInFormeme.Signature())
	assert.False(t, pipeInLemma.Equal(pipeInFormeme))

	// one child whose lemma looks like two siblings
	spaced, err := NewTree([]Node{
		{Parent: -1},
		{Lemma: "x|v|F x", Formeme: "v", Functor: "F", Parent: 0},
	})
	require.NoError(t, err)
	siblings, err := NewTree([]Node{
		{Parent: -1},
		{Lemma: "x", Formeme: "v", Functor: "F", Parent: 0},
		{Lemma: "x", Formeme: "v", Functor: "F", Parent: 0},
	})
	require.NoError(t, err)
	assert.NotEqual(t, spaced.Signature(), siblings.Signature())
	assert.Equal(t, `ROOT(x\|v\|F\ x|v|F)`, spaced.Signature())
}

func TestSlotValueKeys(t *testing.T) {
	assert.Equal(t, "food=Italian", DAI{"inform", "food", "Italian"}.SlotValue())
	assert.Equal(t, "request:phone", DAI{"request", "phone", ""}.SlotValue())
	assert.NotEqual(t,
		DAI{"inform", "name", "a,name=b"}.SlotValue(),
		DAI{"inform", "name", "a"}.SlotValue()+","+DAI{"inform", "name", "b"}.SlotValue())
	assert.NotEqual(t, DAI{"a:b", "c", ""}.TypeSlot(), DAI{"a", "b:c", ""}.TypeSlot())
}
