package app

import (
	"log"

	"github.com/AnneBeyer/tgen/nlp/planner/candgen"
	"github.com/AnneBeyer/tgen/nlp/types"

	"github.com/dustin/go-humanize"
	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
)

func trainCandGen(logger *log.Logger, threshold int, das []types.DA, trees []*types.Tree) (*candgen.Model, error) {
	logger.Println("Training candidate generator...")
	model := candgen.New(threshold)
	if err := model.Train(das, trees, logger); err != nil {
		return nil, err
	}
	for level, name := range model.Levels {
		top := model.TopContexts(level, 3)
		logger.Printf("Level %s: %s contexts", name, humanize.Comma(int64(len(model.Tables[level]))))
		for _, datum := range top {
			logger.Printf("\t%s\t%d", datum.S, datum.N)
		}
	}
	return model, nil
}

func CandGenTrain(cmd *commander.Command, args []string) error {
	logger := NewLogger()
	if err := VerifyArgs(cmd, logger, args, 3, 0, 1); err != nil {
		return err
	}
	daFile, treeFile, modelFile := args[0], args[1], args[2]
	logger.Println("Configuration")
	logger.Printf("Prune threshold:\t%d", pruneThreshold)
	logger.Printf("Output model:\t%s", modelFile)

	das, trees, err := readCorpus(logger, daFile, treeFile)
	if err != nil {
		return err
	}
	model, err := trainCandGen(logger, pruneThreshold, das, trees)
	if err != nil {
		return err
	}
	if err := model.Save(modelFile); err != nil {
		return err
	}
	logger.Println("Wrote candidate generator model to", modelFile)
	return nil
}

func CandGenTrainCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       CandGenTrain,
		UsageLine: "candgen_train [-p prune_threshold] <train-das> <train-ttrees> <output-model>",
		Short:     "trains the candidate generator",
		Long: `
trains the candidate generator (operation frequencies per context)

	$ ./tgen candgen_train [-p prune_threshold] train-das train-ttrees output-model

`,
		Flag: *flag.NewFlagSet("candgen_train", flag.ExitOnError),
	}
	cmd.Flag.IntVar(&pruneThreshold, "p", candgen.DEFAULT_PRUNE_THRESHOLD, "Prune contexts seen less often than this")
	return cmd
}
