package search

import (
	"fmt"
	"log"

	"github.com/pkg/errors"
)

const (
	DEFAULT_MAX_EXPANSIONS = 3000
)

type Problem interface{}

type Candidate interface {
	Score() float64
	// Signature is the structural identity used by the closed list.
	Signature() string
	Terminal() bool
	Len() int
}

type Interface interface {
	StartItem(p Problem) []Candidate
	Expand(c Candidate, p Problem) []Candidate
	GoalTest(p Problem, c Candidate) bool
	Name() string
}

var ErrSearchExhausted = errors.New("search exhausted")

// ExhaustedError is returned when the open list empties or a size bound is
// hit before a goal is reached.
type ExhaustedError struct {
	Reason     string
	Expansions int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%v after %d expansions: %s", ErrSearchExhausted, e.Expansions, e.Reason)
}

func (e *ExhaustedError) Cause() error {
	return ErrSearchExhausted
}

func (e *ExhaustedError) Unwrap() error {
	return ErrSearchExhausted
}

type Result struct {
	Best       Candidate
	Open       *OpenList
	Closed     *ClosedList
	Expansions int
}

// AStar is a best-first search over candidates ordered by score. It is
// deterministic: equal scores are popped in insertion order.
type AStar struct {
	MaxExpansions int
	MaxClosed     int // 0 means unbounded
	Log           *log.Logger
	ShowAgenda    bool
}

func (a *AStar) logf(format string, v ...interface{}) {
	if a.Log != nil {
		a.Log.Printf(format, v...)
	}
}

// Search runs until a goal candidate is popped. The returned result is
// non-nil even on failure so the lists can be inspected.
func (a *AStar) Search(b Interface, problem Problem) (*Result, error) {
	maxExpansions := a.MaxExpansions
	if maxExpansions <= 0 {
		maxExpansions = DEFAULT_MAX_EXPANSIONS
	}
	result := &Result{Open: NewOpenList(), Closed: NewClosedList()}
	for _, start := range b.StartItem(problem) {
		result.Open.Push(start)
	}
	for result.Open.Len() > 0 {
		current := result.Open.Pop()
		if result.Closed.Contains(current) {
			continue
		}
		if a.ShowAgenda {
			a.logf("%s: pop #%d %v (open %d, closed %d)", b.Name(), result.Expansions, current, result.Open.Len(), result.Closed.Len())
		}
		result.Closed.Add(current)
		if b.GoalTest(problem, current) {
			result.Best = current
			a.logf("%s: goal after %d expansions, score %.4f", b.Name(), result.Expansions, current.Score())
			return result, nil
		}
		if result.Expansions >= maxExpansions {
			return result, a.exhausted(b, result, fmt.Sprintf("reached %d expansions", maxExpansions))
		}
		if a.MaxClosed > 0 && result.Closed.Len() > a.MaxClosed {
			return result, a.exhausted(b, result, fmt.Sprintf("closed list exceeded %d", a.MaxClosed))
		}
		result.Expansions++
		for _, child := range b.Expand(current, problem) {
			if !result.Closed.Contains(child) {
				result.Open.Push(child)
			}
		}
	}
	return result, a.exhausted(b, result, "open list empty")
}

func (a *AStar) exhausted(b Interface, result *Result, reason string) error {
	if top := result.Open.Peek(); top != nil {
		a.logf("%s: %s, best open %v (score %.4f)", b.Name(), reason, top, top.Score())
	} else {
		a.logf("%s: %s", b.Name(), reason)
	}
	return &ExhaustedError{reason, result.Expansions}
}
