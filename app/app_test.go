package app

import (
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gonuts/commander"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnneBeyer/tgen/nlp/format/da"
	"github.com/AnneBeyer/tgen/nlp/format/ttree"
	"github.com/AnneBeyer/tgen/nlp/types"
)

const (
	DA_LINES = "inform(food=Italian)\ninform(area=centre)\n"
	CONFIG   = "passes: 2\nalpha: 0.5\nmax_iter: 200\n"
)

func goldTrees(t *testing.T) []*types.Tree {
	serve, err := types.NewTree([]types.Node{
		{Parent: -1},
		{Lemma: "serve", Formeme: "v:fin", Functor: "PRED", Parent: 0},
		{Lemma: "Italian", Formeme: "n:obj", Functor: "PAT", Parent: 1},
	})
	require.NoError(t, err)
	be, err := types.NewTree([]types.Node{
		{Parent: -1},
		{Lemma: "be", Formeme: "v:fin", Functor: "PRED", Parent: 0},
		{Lemma: "centre", Formeme: "n:in+X", Functor: "LOC", Parent: 1},
	})
	require.NoError(t, err)
	return []*types.Tree{serve, be}
}

// writeCorpus writes the DA file, the gold trees and a ranker config.
func writeCorpus(t *testing.T, dir string) (daFile, treeFile, configFile string) {
	daFile = filepath.Join(dir, "train-das.txt")
	treeFile = filepath.Join(dir, "train-ttrees.yaml")
	configFile = filepath.Join(dir, "config.yaml")
	require.NoError(t, ioutil.WriteFile(daFile, []byte(DA_LINES), 0644))
	require.NoError(t, ioutil.WriteFile(configFile, []byte(CONFIG), 0644))
	das, err := da.ReadFile(daFile, 0)
	require.NoError(t, err)
	require.NoError(t, ttree.WriteFile(treeFile, das, goldTrees(t)))
	return
}

func run(t *testing.T, cmd *commander.Command, args ...string) error {
	require.NoError(t, cmd.Flag.Parse(args))
	return cmd.Run(cmd, cmd.Flag.Args())
}

func TestAllCommands(t *testing.T) {
	cmd := AllCommands()
	var names []string
	for _, sub := range cmd.Subcommands {
		names = append(names, sub.Name())
		assert.NotNil(t, sub.Flag.Lookup(NUM_CPUS_FLAG), sub.Name())
	}
	assert.Equal(t, []string{"candgen_train", "percrank_train", "sample_gen", "asearch_gen"}, names)
}

func TestVerifyArgs(t *testing.T) {
	err := run(t, CandGenTrainCmd(), "only-one")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 3 arguments")

	err = run(t, CandGenTrainCmd(), filepath.Join(t.TempDir(), "missing"), "b", "c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing input file")
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	_, _, configFile := writeCorpus(t, dir)
	c, err := LoadConfig(configFile)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Ranker.Passes)
	assert.Equal(t, 0.5, c.Ranker.Alpha)
	assert.Equal(t, 200, c.Planner.MaxIter)
	assert.Equal(t, 40, c.Planner.MaxTreeSize, "unset options keep their defaults")

	c, err = LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 3000, c.Planner.MaxIter)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, ioutil.WriteFile(bad, []byte("no_such_option: 1\n"), 0644))
	_, err = LoadConfig(bad)
	assert.Error(t, err)
}

func TestPipeline(t *testing.T) {
	dir := t.TempDir()
	daFile, treeFile, configFile := writeCorpus(t, dir)
	candgenFile := filepath.Join(dir, "candgen.model")
	rankFile := filepath.Join(dir, "percrank.model")

	require.NoError(t, run(t, CandGenTrainCmd(), daFile, treeFile, candgenFile))
	require.FileExists(t, candgenFile)

	require.NoError(t, run(t, PercRankTrainCmd(), "-c", candgenFile, configFile, daFile, treeFile, rankFile))
	require.FileExists(t, rankFile)

	// sampling with a single observed tree per context reproduces it
	sampled := filepath.Join(dir, "sampled.yaml")
	require.NoError(t, run(t, SampleGenCmd(), "-n", "3", "-o", treeFile, "-w", sampled, candgenFile, daFile))
	sampledDAs, sampledTrees, err := ttree.ReadFile(sampled)
	require.NoError(t, err)
	require.Len(t, sampledTrees, 6)
	assert.Len(t, sampledDAs, 6)
	golds := goldTrees(t)
	for i, tree := range sampledTrees {
		assert.True(t, golds[i/3].Equal(tree), "sample %d: %v", i, tree)
	}

	generated := filepath.Join(dir, "generated.yaml")
	report := filepath.Join(dir, "report.csv")
	require.NoError(t, run(t, ASearchGenCmd(), "-e", treeFile, "-r", report, "-w", generated, candgenFile, rankFile, daFile))
	_, trees, err := ttree.ReadFile(generated)
	require.NoError(t, err)
	require.Len(t, trees, 2)
	for i, tree := range trees {
		assert.True(t, golds[i].Equal(tree), "DA %d: %v", i, tree)
	}
	data, err := ioutil.ReadFile(report)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "index,da,precision,recall,f1"), lines[0])
	assert.Contains(t, lines[1], "true")

	// without gold trees the DAs are planned concurrently
	batch := filepath.Join(dir, "batch.yaml")
	require.NoError(t, run(t, ASearchGenCmd(), "-t", "2", "-w", batch, candgenFile, rankFile, daFile))
	_, batchTrees, err := ttree.ReadFile(batch)
	require.NoError(t, err)
	require.Len(t, batchTrees, 2)
	for i, tree := range batchTrees {
		assert.True(t, trees[i].Equal(tree))
	}
}

func TestPercRankTrainParallel(t *testing.T) {
	dir := t.TempDir()
	daFile, treeFile, configFile := writeCorpus(t, dir)
	rankFile := filepath.Join(dir, "percrank.model")
	work := filepath.Join(dir, "work")
	require.NoError(t, run(t, PercRankTrainCmd(), "-j", "2", "-w", work, configFile, daFile, treeFile, rankFile))
	require.FileExists(t, rankFile)

	shards, err := filepath.Glob(filepath.Join(work, "*-shard*.model"))
	require.NoError(t, err)
	assert.Len(t, shards, 2)
}

func TestPercRankTrainBadPortion(t *testing.T) {
	dir := t.TempDir()
	daFile, treeFile, configFile := writeCorpus(t, dir)
	err := run(t, PercRankTrainCmd(), "-s", "1.5", configFile, daFile, treeFile, filepath.Join(dir, "m"))
	assert.Error(t, err)
}

func TestPercRankTrainFeatureList(t *testing.T) {
	dir := t.TempDir()
	daFile, treeFile, configFile := writeCorpus(t, dir)
	features := filepath.Join(dir, "features.txt")
	require.NoError(t, ioutil.WriteFile(features, []byte("# groups\nbias\nnode\nedge\n"), 0644))
	rankFile := filepath.Join(dir, "percrank.model")
	require.NoError(t, run(t, PercRankTrainCmd(), "-f", features, configFile, daFile, treeFile, rankFile))
	require.FileExists(t, rankFile)

	require.NoError(t, ioutil.WriteFile(features, []byte("no_such_group\n"), 0644))
	err := run(t, PercRankTrainCmd(), "-f", features, configFile, daFile, treeFile, rankFile)
	assert.Error(t, err)
}
