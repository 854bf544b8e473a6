package app

import (
	"context"
	"log"
	"os"

	"github.com/AnneBeyer/tgen/alg/search"
	"github.com/AnneBeyer/tgen/eval"
	"github.com/AnneBeyer/tgen/nlp/format/ttree"
	"github.com/AnneBeyer/tgen/nlp/planner"
	"github.com/AnneBeyer/tgen/nlp/planner/candgen"
	"github.com/AnneBeyer/tgen/nlp/planner/rank"
	"github.com/AnneBeyer/tgen/nlp/types"

	"github.com/gocarina/gocsv"
	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"github.com/pkg/errors"
)

// daScore is one line of the per-DA report.
type daScore struct {
	Index      int     `csv:"index"`
	DA         string  `csv:"da"`
	Precision  float64 `csv:"precision"`
	Recall     float64 `csv:"recall"`
	F1         float64 `csv:"f1"`
	DepF1      float64 `csv:"dep_f1"`
	Expansions int     `csv:"expansions"`
	GoldBest   bool    `csv:"gold_best"`
	Failed     bool    `csv:"failed"`
}

func writeReport(filename string, rows []*daScore) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed creating report %s", filename)
	}
	if err := gocsv.Marshal(&rows, file); err != nil {
		file.Close()
		return errors.Wrapf(err, "failed writing report %s", filename)
	}
	return errors.Wrapf(file.Close(), "closing %s", filename)
}

// generateAndEvaluate plans every DA keeping the search lists, and
// evaluates the results against the gold trees.
func generateAndEvaluate(logger *log.Logger, p *planner.ASearchPlanner, das []types.DA, golds []*types.Tree) ([]*types.Tree, []*daScore, error) {
	var (
		analyzer   = &eval.ListsAnalyzer{}
		evaluator  = eval.NewEvaluator()
		expansions = make([]int, len(das))
		generated  = make([]*types.Tree, len(das))
		rows       = make([]*daScore, len(das))
	)
	for i, da := range das {
		if p.Log != nil {
			p.Log.Printf("\n\nTREE No. %03d", i)
		}
		lists, err := p.GenerateTreeWithLists(da)
		failed := err != nil
		if failed {
			if errors.Cause(err) != search.ErrSearchExhausted {
				return nil, nil, errors.Wrapf(err, "DA %d", i)
			}
			logger.Printf("WARNING: DA %d %s: %v", i, da, err)
			generated[i] = types.NewRootTree(nil)
		} else {
			generated[i] = lists.Best.Tree
		}
		var best *types.Tree
		if !failed {
			best = generated[i]
		}
		analyzer.Append(golds[i], best, lists.OpenTrees(), lists.ClosedTrees())
		expansions[i] = lists.Expansions

		evaluator.Append(golds[i], generated[i])
		node := eval.Compare(golds[i], generated[i], eval.NODE)
		dep := eval.Compare(golds[i], generated[i], eval.DEP)
		rows[i] = &daScore{
			Index:      i,
			DA:         da.String(),
			Precision:  node.Precision(),
			Recall:     node.Recall(),
			F1:         node.F1(),
			DepF1:      dep.F1(),
			Expansions: lists.Expansions,
			GoldBest:   best != nil && best.Equal(golds[i]),
			Failed:     failed,
		}
	}
	goldBest, onClose, onAny := analyzer.Stats()
	logger.Printf("Gold tree BEST: %.4f, on CLOSE: %.4f, on ANY list: %.4f", goldBest, onClose, onAny)

	logger.Println("Evaluating...")
	for _, et := range eval.EVAL_TYPES {
		precision, recall, f1 := evaluator.PRF1(et)
		logger.Printf("%-4s precision: %.4f, Recall: %.4f, F1: %.4f", et, precision, recall, f1)
	}
	if summary, err := eval.SummarizeExpansions(expansions); err == nil {
		logger.Printf("Expansions mean: %.2f, median: %.1f, max: %.0f", summary.Mean, summary.Median, summary.Max)
	}
	return generated, rows, nil
}

func ASearchGen(cmd *commander.Command, args []string) error {
	logger := NewLogger()
	if err := VerifyArgs(cmd, logger, args, 3, 0, 1, 2); err != nil {
		return err
	}
	candgenFile, rankFile, daFile := args[0], args[1], args[2]
	debug, closer, err := NewDebugLogger(debugFile)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	config, err := LoadConfig(configFile)
	if err != nil {
		return err
	}

	logger.Println("Initializing...")
	cg, err := candgen.Load(candgenFile)
	if err != nil {
		return err
	}
	ranker, err := rank.Load(rankFile, cg, logger)
	if err != nil {
		return err
	}
	p := &planner.ASearchPlanner{
		CandGen:    cg,
		Ranker:     ranker,
		Options:    config.Planner,
		Log:        debug,
		ShowAgenda: showAgenda,
	}

	logger.Println("Generating...")
	das, _, err := readCorpus(logger, daFile, "")
	if err != nil {
		return err
	}
	var generated []*types.Tree
	if evalFile != "" {
		_, golds, err := ttree.ReadFile(evalFile)
		if err != nil {
			return err
		}
		if len(golds) != len(das) {
			return errors.Errorf("%s has %d trees for %d DAs", evalFile, len(golds), len(das))
		}
		var rows []*daScore
		if generated, rows, err = generateAndEvaluate(logger, p, das, golds); err != nil {
			return err
		}
		if reportFile != "" {
			if err := writeReport(reportFile, rows); err != nil {
				return err
			}
			logger.Println("Wrote per-DA scores to", reportFile)
		}
	} else if generated, err = planner.GenerateBatch(context.Background(), p, das, workers, logger); err != nil {
		return err
	}

	if outputFile != "" {
		logger.Println("Writing output...")
		if err := ttree.WriteFile(outputFile, das, generated); err != nil {
			return err
		}
	}
	return nil
}

func ASearchGenCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       ASearchGen,
		UsageLine: "asearch_gen [options] <candgen-model> <percrank-model> <test-das>",
		Short:     "generates trees with the A* search planner",
		Long: `
generates trees with the A* search planner, optionally evaluating them

	$ ./tgen asearch_gen [-e eval-ttrees-file] [-d debug-output] [-w output-ttrees] [-c config] [-r report-csv] candgen-model percrank-model test-das

`,
		Flag: *flag.NewFlagSet("asearch_gen", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&evalFile, "e", "", "Gold trees to evaluate against")
	cmd.Flag.StringVar(&debugFile, "d", "", "Debug output file")
	cmd.Flag.StringVar(&outputFile, "w", "", "Output trees file")
	cmd.Flag.StringVar(&configFile, "c", "", "Planner configuration (YAML)")
	cmd.Flag.StringVar(&reportFile, "r", "", "Per-DA scores report (CSV)")
	cmd.Flag.IntVar(&workers, "t", 1, "Number of concurrent searches (without -e)")
	cmd.Flag.BoolVar(&showAgenda, "showagenda", false, "Show every popped state in the debug output")
	return cmd
}
