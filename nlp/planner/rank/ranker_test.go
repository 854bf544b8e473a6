package rank

import (
	"bytes"
	"context"
	"log"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnneBeyer/tgen/nlp/planner/candgen"
	"github.com/AnneBeyer/tgen/nlp/types"
	"github.com/AnneBeyer/tgen/util"
	"github.com/AnneBeyer/tgen/util/conf"
)

var DA_ITALIAN = types.DA{{Type: "inform", Slot: "food", Value: "Italian"}}

func verbTree(t *testing.T, verb string) *types.Tree {
	tree, err := types.NewTree([]types.Node{
		{Parent: -1},
		{Lemma: verb, Formeme: "v:fin", Functor: "PRED", Parent: 0},
		{Lemma: "Italian", Formeme: "n:attr", Functor: "RSTR", Parent: 1},
	})
	require.NoError(t, err)
	return tree
}

// the generator knows two verbs for the DA; "be" is proposed first
func twoVerbGenerator(t *testing.T) *candgen.Model {
	m := candgen.New(1)
	require.NoError(t, m.Train(
		[]types.DA{DA_ITALIAN, DA_ITALIAN},
		[]*types.Tree{verbTree(t, "be"), verbTree(t, "have")},
		nil))
	return m
}

func newRanker(t *testing.T, opts Options) *Ranker {
	r, err := New(opts, twoVerbGenerator(t))
	require.NoError(t, err)
	return r
}

func TestExtract(t *testing.T) {
	states, _ := types.OracleStates(DA_ITALIAN, verbTree(t, "be"))
	feats := Extract(DA_ITALIAN, states[len(states)-1])

	for _, feat := range []string{
		"bias", "node:be|v:fin", "node:Italian|n:attr", "edge:ROOT>be", "edgef:v:fin>n:attr",
		"functor:PRED", "nchildren:ROOT|1", "close:be|v:fin|1", "close:Italian|n:attr|0",
		"realized:1", "unrealized:0", "dai:food|Italian", "size:2",
	} {
		assert.Equal(t, 1.0, feats[feat], feat)
	}
	for feat := range feats {
		assert.NotContains(t, feat, "depth:", "terminal states have no head")
	}

	start := Extract(DA_ITALIAN, states[0])
	assert.Equal(t, 1.0, start["depth:0"])
	assert.Equal(t, 1.0, start["unrealized:1"])
	assert.Equal(t, 1.0, start["size:0"])
	assert.NotContains(t, start, "nchildren:ROOT|0", "the root is still open")
}

func TestExtractorGroups(t *testing.T) {
	states, _ := types.OracleStates(DA_ITALIAN, verbTree(t, "be"))
	extractor, err := NewExtractor([]string{"bias", "size"})
	require.NoError(t, err)
	feats := extractor.Extract(DA_ITALIAN, states[3])
	assert.Len(t, feats, 2)

	_, err = NewExtractor([]string{"bias", "ngrams"})
	assert.Error(t, err)
	assert.Len(t, AllFeatureGroups(), len(FEATURE_GROUPS))
}

func TestOptionsValidate(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, opts.Validate())

	opts.Passes = 0
	err := opts.Validate()
	var confErr *conf.ConfigurationError
	require.True(t, errors.As(err, &confErr))
	assert.Equal(t, "passes", confErr.Option)

	opts = DefaultOptions()
	opts.Features = []string{"nope"}
	_, err = New(opts, nil)
	require.True(t, errors.As(err, &confErr))
	assert.Equal(t, "features", confErr.Option)
}

func assertPrefersGold(t *testing.T, r *Ranker, da types.DA, tree *types.Tree) {
	states, ops := types.OracleStates(da, tree)
	for i, op := range ops {
		goldScore := r.Score(da, states[i].Apply(op))
		for _, cand := range r.CandGen.Propose(states[i]).Candidates {
			if cand.Op != op {
				assert.Greater(t, goldScore, r.Score(da, states[i].Apply(cand.Op)), "step %d: %v over %v", i, op, cand.Op)
			}
		}
	}
}

func TestRankerLearnsGoldPreference(t *testing.T) {
	r := newRanker(t, DefaultOptions())
	start := types.NewState(DA_ITALIAN, nil)
	be := start.Apply(types.AddChild("be", "v:fin", "PRED"))
	have := start.Apply(types.AddChild("have", "v:fin", "PRED"))
	assert.Equal(t, r.Score(DA_ITALIAN, be), r.Score(DA_ITALIAN, have), "untrained")

	gold := verbTree(t, "have")
	require.NoError(t, r.Train([]types.DA{DA_ITALIAN}, []*types.Tree{gold}, 1.0))
	assert.Greater(t, r.Score(DA_ITALIAN, have), r.Score(DA_ITALIAN, be))
	assert.Greater(t, r.Model.Weights["node:have|v:fin"], 0.0)
	assert.Less(t, r.Model.Weights["node:be|v:fin"], 0.0)
	assertPrefersGold(t, r, DA_ITALIAN, gold)
}

func TestRankerAveraging(t *testing.T) {
	opts := DefaultOptions()
	opts.Averaging = true
	averaged := newRanker(t, opts)
	plain := newRanker(t, DefaultOptions())
	das, trees := []types.DA{DA_ITALIAN}, []*types.Tree{verbTree(t, "have")}
	require.NoError(t, averaged.Train(das, trees, 1.0))
	require.NoError(t, plain.Train(das, trees, 1.0))

	// the only update happens on the first step, so the average is the
	// final weight vector
	for feat, weight := range plain.Model.Weights {
		assert.InDelta(t, weight, averaged.Model.Weights[feat], 1e-9, feat)
	}
}

func TestRankerTrainErrors(t *testing.T) {
	r := newRanker(t, DefaultOptions())
	assert.Error(t, r.Train([]types.DA{DA_ITALIAN}, nil, 1.0))
	r.CandGen = nil
	assert.Error(t, r.Train([]types.DA{DA_ITALIAN}, []*types.Tree{verbTree(t, "be")}, 1.0))
}

func TestRankerSaveLoad(t *testing.T) {
	r := newRanker(t, DefaultOptions())
	gold := verbTree(t, "have")
	require.NoError(t, r.Train([]types.DA{DA_ITALIAN}, []*types.Tree{gold}, 1.0))

	file := filepath.Join(t.TempDir(), "ranker.model")
	require.NoError(t, r.Save(file))
	loaded, err := Load(file, r.CandGen, nil)
	require.NoError(t, err)
	assert.Equal(t, r.Options, loaded.Options)

	states, _ := types.OracleStates(DA_ITALIAN, gold)
	for _, state := range states {
		assert.InDelta(t, r.Score(DA_ITALIAN, state), loaded.Score(DA_ITALIAN, state), 1e-9)
	}

	_, err = Load(filepath.Join(t.TempDir(), "missing.model"), nil, nil)
	assert.Error(t, err)
}

func TestLoadUnknownFeatureGroups(t *testing.T) {
	opts := DefaultOptions()
	opts.Features = []string{"bias", "node"}
	r := newRanker(t, opts)
	gold := verbTree(t, "have")
	require.NoError(t, r.Train([]types.DA{DA_ITALIAN}, []*types.Tree{gold}, 1.0))
	states, _ := types.OracleStates(DA_ITALIAN, gold)

	// a model written by a build with an extra feature group
	dir := t.TempDir()
	file := filepath.Join(dir, "newer.model")
	newer := r.Options
	newer.Features = []string{"bias", "no_such_group", "node"}
	weights := map[string]float64{"no_such_group:x": 5}
	for k, v := range r.Model.Weights {
		weights[k] = v
	}
	require.NoError(t, util.WriteModel(file, &stored{newer, weights}))

	var buf bytes.Buffer
	loaded, err := Load(file, r.CandGen, log.New(&buf, "", 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"bias", "node"}, loaded.Options.Features)
	assert.Contains(t, buf.String(), `unknown feature group "no_such_group" ignored`)
	for _, state := range states {
		assert.InDelta(t, r.Score(DA_ITALIAN, state), loaded.Score(DA_ITALIAN, state), 1e-9)
	}

	// nothing known: every state scores 0 instead of falling back to all groups
	file = filepath.Join(dir, "unknown.model")
	newer.Features = []string{"no_such_group"}
	require.NoError(t, util.WriteModel(file, &stored{newer, weights}))
	loaded, err = Load(file, r.CandGen, nil)
	require.NoError(t, err)
	for _, state := range states {
		assert.Equal(t, 0.0, loaded.Score(DA_ITALIAN, state))
	}
}

func TestTrainParallelSingleJob(t *testing.T) {
	das := []types.DA{DA_ITALIAN, DA_ITALIAN}
	trees := []*types.Tree{verbTree(t, "have"), verbTree(t, "be")}

	sequential := newRanker(t, DefaultOptions())
	require.NoError(t, sequential.Train(das, trees, 1.0))

	parallel := newRanker(t, DefaultOptions())
	workDir := t.TempDir()
	require.NoError(t, parallel.TrainParallel(context.Background(), das, trees, 1.0, workDir))
	assert.True(t, sequential.Model.Weights.Equal(parallel.Model.Weights))

	shards, err := filepath.Glob(filepath.Join(workDir, "*-shard0.model"))
	require.NoError(t, err)
	assert.Len(t, shards, 1)
}

func TestTrainParallelMerge(t *testing.T) {
	gold := verbTree(t, "have")
	single := newRanker(t, DefaultOptions())
	require.NoError(t, single.Train([]types.DA{DA_ITALIAN}, []*types.Tree{gold}, 1.0))

	opts := DefaultOptions()
	opts.JobsNumber = 2
	parallel := newRanker(t, opts)
	require.NoError(t, parallel.TrainParallel(context.Background(),
		[]types.DA{DA_ITALIAN, DA_ITALIAN}, []*types.Tree{gold, gold}, 1.0, ""))
	// both shards learn the same weights, so does their average
	assert.True(t, single.Model.Weights.Equal(parallel.Model.Weights))
	assertPrefersGold(t, parallel, DA_ITALIAN, gold)
}

func TestTrainParallelCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := newRanker(t, DefaultOptions())
	err := r.TrainParallel(ctx, []types.DA{DA_ITALIAN}, []*types.Tree{verbTree(t, "be")}, 1.0, "")
	assert.Error(t, err)
}
