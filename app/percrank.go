package app

import (
	"context"
	"path/filepath"

	"github.com/AnneBeyer/tgen/nlp/planner/candgen"
	"github.com/AnneBeyer/tgen/nlp/planner/rank"
	"github.com/AnneBeyer/tgen/util"
	"github.com/AnneBeyer/tgen/util/conf"

	"github.com/gonuts/commander"
	"github.com/gonuts/flag"
	"github.com/pkg/errors"
)

func PercRankTrain(cmd *commander.Command, args []string) error {
	logger := NewLogger()
	if err := VerifyArgs(cmd, logger, args, 4, 0, 1, 2); err != nil {
		return err
	}
	configPath, daFile, treeFile, modelFile := args[0], args[1], args[2], args[3]
	debug, closer, err := NewDebugLogger(debugFile)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	config, err := LoadConfig(configPath)
	if err != nil {
		return err
	}
	if candgenModel != "" {
		config.CandGenModel = candgenModel
	}
	parallel := jobsNumber > 0
	if parallel {
		config.Ranker.JobsNumber = jobsNumber
	}
	if featuresFile != "" {
		groups, err := conf.ReadFile(featuresFile)
		if err != nil {
			return err
		}
		config.Ranker.Features = groups.Values
		if err := config.Ranker.Validate(); err != nil {
			return err
		}
	}
	if dataPortion <= 0 || dataPortion > 1 {
		return &conf.ConfigurationError{Option: "-s", Reason: "data portion must be in (0, 1]"}
	}
	logger.Println("Configuration")
	logger.Printf("Data portion:\t%v", dataPortion)
	logger.Printf("Output model:\t%s", modelFile)
	logger.Printf("Options:\n%s", conf.Dump(config))

	das, trees, err := readCorpus(logger, daFile, treeFile)
	if err != nil {
		return err
	}
	var cg *candgen.Model
	if config.CandGenModel != "" {
		logger.Println("Loading candidate generator from", config.CandGenModel)
		if cg, err = candgen.Load(config.CandGenModel); err != nil {
			return err
		}
	} else if cg, err = trainCandGen(logger, config.PruneThreshold, das, trees); err != nil {
		return err
	}

	ranker, err := rank.New(config.Ranker, cg)
	if err != nil {
		return err
	}
	ranker.Log = logger
	if debug != nil {
		ranker.Log = debug
	}
	logger.Println("Training perceptron ranker...")
	if parallel {
		dir := workDir
		if dir == "" {
			dir = filepath.Dir(configPath)
		}
		err = ranker.TrainParallel(context.Background(), das, trees, dataPortion, dir)
	} else {
		err = ranker.Train(das, trees, dataPortion)
	}
	if err != nil {
		return errors.Wrap(err, "training failed")
	}
	util.LogMemory(debug)
	if err := ranker.Save(modelFile); err != nil {
		return err
	}
	logger.Println("Wrote ranker model to", modelFile)
	return nil
}

func PercRankTrainCmd() *commander.Command {
	cmd := &commander.Command{
		Run:       PercRankTrain,
		UsageLine: "percrank_train [options] <ranker-config> <train-das> <train-ttrees> <output-model>",
		Short:     "trains the perceptron ranker",
		Long: `
trains the perceptron ranker, optionally in parallel over corpus shards

	$ ./tgen percrank_train [-d debug-output] [-c candgen-model] [-f feature-groups] [-s data-portion] [-j parallel-jobs] [-w parallel-work-dir] ranker-config train-das train-ttrees output-model

`,
		Flag: *flag.NewFlagSet("percrank_train", flag.ExitOnError),
	}
	cmd.Flag.StringVar(&debugFile, "d", "", "Debug output file")
	cmd.Flag.StringVar(&candgenModel, "c", "", "Candidate generator model (trained on the training data if not given)")
	cmd.Flag.StringVar(&featuresFile, "f", "", "Feature groups list file, one group per line (overrides the config)")
	cmd.Flag.Float64Var(&dataPortion, "s", 1.0, "Portion of the training data to use")
	cmd.Flag.IntVar(&jobsNumber, "j", 0, "Number of parallel training jobs (0 = sequential)")
	cmd.Flag.StringVar(&workDir, "w", "", "Work directory for parallel shard models")
	return cmd
}
