package app

import (
	"github.com/AnneBeyer/tgen/alg/search"
	"github.com/AnneBeyer/tgen/eval"
	"github.com/AnneBeyer/tgen/nlp/format/ttree"
	"github.com/AnneBeyer/tgen/nlp/planner"
	"github.com/AnneBeyer/tgen/nlp/planner/candgen"
	"github.com/AnneBeyer/tgen/nlp/types"

	"github.com/dustin/go-humanize"
	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"github.com/pkg/errors"
)

func SampleGen(cmd *commander.Command, args []string) error {
	logger := NewLogger()
	if err := VerifyArgs(cmd, logger, args, 2, 0, 1); err != nil {
		return err
	}
	if treesPerDA < 1 {
		return errors.Errorf("-n must be positive, got %d", treesPerDA)
	}
	modelFile, daFile := args[0], args[1]

	logger.Println("Initializing...")
	cg, err := candgen.Load(modelFile)
	if err != nil {
		return err
	}
	das, _, err := readCorpus(logger, daFile, "")
	if err != nil {
		return err
	}
	sampler := planner.NewSamplingPlanner(cg, planner.DefaultOptions(), SEED)

	logger.Println("Generating...")
	samples := make([][]*types.Tree, len(das))
	var (
		outDAs   []types.DA
		outTrees []*types.Tree
	)
	for i, da := range das {
		for j := 0; j < treesPerDA; j++ {
			tree, err := sampler.GenerateTree(da)
			if err != nil {
				if errors.Cause(err) != search.ErrSearchExhausted {
					return errors.Wrapf(err, "DA %d", i)
				}
				logger.Printf("WARNING: DA %d %s: %v", i, da, err)
				tree = types.NewRootTree(nil)
			}
			samples[i] = append(samples[i], tree)
			outDAs, outTrees = append(outDAs, da), append(outTrees, tree)
		}
	}
	logger.Printf("Generated %s trees", humanize.Comma(int64(len(outTrees))))

	if oracleFile != "" {
		logger.Println("Evaluating oracle F1...")
		logger.Println("Loading gold data from", oracleFile)
		_, golds, err := ttree.ReadFile(oracleFile)
		if err != nil {
			return err
		}
		if len(golds) != len(das) {
			return errors.Errorf("%s has %d trees for %d DAs", oracleFile, len(golds), len(das))
		}
		total := eval.OracleCounts(golds, samples, eval.NODE)
		logger.Printf("Oracle Precision: %.6f, Recall: %.6f, F1: %.6f", total.Precision(), total.Recall(), total.F1())
	}
	if outputFile != "" {
		logger.Println("Writing output...")
		if err := ttree.WriteFile(outputFile, outDAs, outTrees); err != nil {
			return err
		}
	}
	return nil
}

func SampleGenCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       SampleGen,
		UsageLine: "sample_gen [-n trees-per-da] [-o oracle-eval-ttrees] [-w output-ttrees] <candgen-model> <test-das>",
		Short:     "generates trees by sampling from the candidate generator",
		Long: `
generates trees by weighted random choice among the candidate generator's proposals

	$ ./tgen sample_gen [-n trees-per-da] [-o oracle-eval-ttrees] [-w output-ttrees] candgen-model test-das

`,
		Flag: *flag.NewFlagSet("sample_gen", flag.ExitOnError),
	}
	cmd.Flag.IntVar(&treesPerDA, "n", 1, "Number of trees to generate per DA")
	cmd.Flag.StringVar(&oracleFile, "o", "", "Gold trees for oracle evaluation")
	cmd.Flag.StringVar(&outputFile, "w", "", "Output trees file")
	return cmd
}
