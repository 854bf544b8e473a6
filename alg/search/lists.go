package search

import (
	"container/heap"
	"sort"
)

type agendaItem struct {
	candidate Candidate
	seq       int
}

type agenda []agendaItem

func (a agenda) Len() int { return len(a) }

// Less puts higher scores first; equal scores keep insertion order.
func (a agenda) Less(i, j int) bool {
	if a[i].candidate.Score() != a[j].candidate.Score() {
		return a[i].candidate.Score() > a[j].candidate.Score()
	}
	return a[i].seq < a[j].seq
}

func (a agenda) Swap(i, j int) { a[i], a[j] = a[j], a[i] }

func (a *agenda) Push(x interface{}) {
	*a = append(*a, x.(agendaItem))
}

func (a *agenda) Pop() interface{} {
	old := *a
	n := len(old)
	item := old[n-1]
	old[n-1] = agendaItem{}
	*a = old[:n-1]
	return item
}

// OpenList is a max-priority queue of candidates by score, first-in wins
// among equal scores.
type OpenList struct {
	items agenda
	seq   int
}

func NewOpenList() *OpenList {
	return &OpenList{items: make(agenda, 0, 64)}
}

func (o *OpenList) Push(c Candidate) {
	heap.Push(&o.items, agendaItem{c, o.seq})
	o.seq++
}

func (o *OpenList) Pop() Candidate {
	return heap.Pop(&o.items).(agendaItem).candidate
}

func (o *OpenList) Peek() Candidate {
	if len(o.items) == 0 {
		return nil
	}
	return o.items[0].candidate
}

func (o *OpenList) Len() int {
	return len(o.items)
}

// Items returns the candidates in pop order without modifying the list.
func (o *OpenList) Items() []Candidate {
	sorted := make(agenda, len(o.items))
	copy(sorted, o.items)
	sort.Sort(sorted)
	retval := make([]Candidate, len(sorted))
	for i, item := range sorted {
		retval[i] = item.candidate
	}
	return retval
}

// ClosedList holds expanded candidates by signature, in expansion order.
type ClosedList struct {
	index map[string]int
	items []Candidate
}

func NewClosedList() *ClosedList {
	return &ClosedList{index: make(map[string]int)}
}

func (c *ClosedList) Contains(cand Candidate) bool {
	_, exists := c.index[cand.Signature()]
	return exists
}

func (c *ClosedList) Add(cand Candidate) bool {
	sig := cand.Signature()
	if _, exists := c.index[sig]; exists {
		return false
	}
	c.index[sig] = len(c.items)
	c.items = append(c.items, cand)
	return true
}

func (c *ClosedList) Len() int {
	return len(c.items)
}

// Items returns the candidates in expansion order.
func (c *ClosedList) Items() []Candidate {
	return c.items
}
