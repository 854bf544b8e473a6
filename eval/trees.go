package eval

import (
	"github.com/AnneBeyer/tgen/nlp/types"
)

type EvalType int

const (
	NODE EvalType = iota
	DEP
)

var EVAL_TYPES = []EvalType{NODE, DEP}

func (e EvalType) String() string {
	switch e {
	case NODE:
		return "NODE"
	case DEP:
		return "DEP"
	default:
		return "UNKNOWN"
	}
}

// items counts the comparable units of a tree: (lemma, formeme) of every
// non-root node for NODE, parent -> child label pairs for DEP (with ROOT
// as the parent label of top nodes).
func items(t *types.Tree, evalType EvalType) map[string]int {
	retval := make(map[string]int)
	if t == nil {
		return retval
	}
	nodes := t.Nodes()
	for _, node := range nodes[1:] {
		switch evalType {
		case DEP:
			retval[nodes[node.Parent].Label()+">"+node.Label()]++
		default:
			retval[node.Label()]++
		}
	}
	return retval
}

// CorrPredGold returns the number of matching items, items in the
// predicted tree and items in the gold tree. Items are matched as
// multisets.
func CorrPredGold(gold, pred *types.Tree, evalType EvalType) (correct, predicted, goldCount int) {
	goldItems := items(gold, evalType)
	for key, count := range items(pred, evalType) {
		predicted += count
		if goldVal := goldItems[key]; goldVal < count {
			correct += goldVal
		} else {
			correct += count
		}
	}
	for _, count := range goldItems {
		goldCount += count
	}
	return
}

func PRF1FromCounts(correct, predicted, gold int) (precision, recall, f1 float64) {
	precision = Precision(correct, predicted)
	recall = Recall(correct, gold)
	f1 = F1(precision, recall)
	return
}

func F1FromCounts(correct, predicted, gold int) float64 {
	_, _, f1 := PRF1FromCounts(correct, predicted, gold)
	return f1
}

// Compare returns the counts of pred against gold as a Result.
func Compare(gold, pred *types.Tree, evalType EvalType) *Result {
	correct, predicted, goldCount := CorrPredGold(gold, pred, evalType)
	return &Result{TP: correct, FP: predicted - correct, FN: goldCount - correct}
}

// Evaluator accumulates NODE and DEP counts over a test set.
type Evaluator struct {
	totals map[EvalType]*Total
}

func NewEvaluator() *Evaluator {
	e := &Evaluator{make(map[EvalType]*Total, len(EVAL_TYPES))}
	for _, et := range EVAL_TYPES {
		e.totals[et] = &Total{}
	}
	return e
}

func (e *Evaluator) Append(gold, pred *types.Tree) {
	for _, et := range EVAL_TYPES {
		e.totals[et].Add(Compare(gold, pred, et))
	}
}

func (e *Evaluator) Total(evalType EvalType) *Total {
	return e.totals[evalType]
}

func (e *Evaluator) PRF1(evalType EvalType) (precision, recall, f1 float64) {
	total := e.totals[evalType]
	return total.Precision(), total.Recall(), total.F1()
}

// OracleCounts picks, for every gold tree, the sample with the best F1
// (the first one on ties) and sums the counts of the picked samples.
func OracleCounts(golds []*types.Tree, samples [][]*types.Tree, evalType EvalType) *Result {
	total := &Result{}
	for i, gold := range golds {
		if i >= len(samples) || len(samples[i]) == 0 {
			_, _, goldCount := CorrPredGold(gold, nil, evalType)
			total.FN += goldCount
			continue
		}
		var (
			best   *Result
			bestF1 float64
		)
		for _, sample := range samples[i] {
			r := Compare(gold, sample, evalType)
			if f1 := r.F1(); best == nil || f1 > bestF1 {
				best, bestF1 = r, f1
			}
		}
		total.TP += best.TP
		total.FP += best.FP
		total.FN += best.FN
	}
	return total
}
