package eval

import (
	"github.com/AnneBeyer/tgen/nlp/types"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// ListsAnalyzer counts how often the gold tree is the search result, is on
// the closed list, or is on any of the two lists.
type ListsAnalyzer struct {
	Total, GoldBest, GoldOnClose, GoldOnAny int
}

func contains(trees []*types.Tree, sig string) bool {
	for _, t := range trees {
		if t != nil && t.Signature() == sig {
			return true
		}
	}
	return false
}

// Append records one search. best may be nil for a failed search.
func (l *ListsAnalyzer) Append(gold, best *types.Tree, open, closed []*types.Tree) {
	l.Total++
	sig := gold.Signature()
	if best != nil && best.Signature() == sig {
		l.GoldBest++
	}
	onClose := contains(closed, sig)
	if onClose {
		l.GoldOnClose++
	}
	if onClose || contains(open, sig) {
		l.GoldOnAny++
	}
}

func (l *ListsAnalyzer) ratio(count int) float64 {
	if l.Total == 0 {
		return 0
	}
	return float64(count) / float64(l.Total)
}

// Stats returns the ratios of searches with the gold tree best, on the
// closed list and on any list.
func (l *ListsAnalyzer) Stats() (best, onClose, onAny float64) {
	return l.ratio(l.GoldBest), l.ratio(l.GoldOnClose), l.ratio(l.GoldOnAny)
}

// SearchStats summarizes the number of expansions per search.
type SearchStats struct {
	Mean, Median, Max float64
}

func SummarizeExpansions(expansions []int) (*SearchStats, error) {
	if len(expansions) == 0 {
		return &SearchStats{}, nil
	}
	data := make(stats.Float64Data, len(expansions))
	for i, n := range expansions {
		data[i] = float64(n)
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return nil, errors.Wrap(err, "mean")
	}
	median, err := stats.Median(data)
	if err != nil {
		return nil, errors.Wrap(err, "median")
	}
	max, err := stats.Max(data)
	if err != nil {
		return nil, errors.Wrap(err, "max")
	}
	return &SearchStats{mean, median, max}, nil
}
