package app

import (
	"io"
	"log"
	"os"

	"github.com/AnneBeyer/tgen/nlp/format/da"
	"github.com/AnneBeyer/tgen/nlp/format/ttree"
	"github.com/AnneBeyer/tgen/nlp/planner"
	"github.com/AnneBeyer/tgen/nlp/planner/candgen"
	"github.com/AnneBeyer/tgen/nlp/planner/rank"
	"github.com/AnneBeyer/tgen/nlp/types"
	"github.com/AnneBeyer/tgen/util"
	"github.com/AnneBeyer/tgen/util/conf"

	"github.com/gonuts/commander"
	"github.com/pkg/errors"
)

const (
	// fixed process seed; threaded explicitly into every random source
	SEED = 1206
)

var (
	// file names
	candgenModel string
	debugFile    string
	workDir      string
	evalFile     string
	outputFile   string
	oracleFile   string
	reportFile   string
	configFile   string
	featuresFile string

	pruneThreshold int
	dataPortion    float64
	jobsNumber     int
	treesPerDA     int
	workers        int
	showAgenda     bool
)

// Config is the YAML configuration shared by the ranker and the planners.
type Config struct {
	Ranker         rank.Options    `yaml:",inline"`
	Planner        planner.Options `yaml:",inline"`
	PruneThreshold int             `yaml:"prune_threshold"`
	CandGenModel   string          `yaml:"candgen_model"`
}

func (c *Config) SetDefaults() {
	c.Ranker.SetDefaults()
	c.Planner.SetDefaults()
	c.PruneThreshold = candgen.DEFAULT_PRUNE_THRESHOLD
}

func (c *Config) Validate() error {
	if c.PruneThreshold < 1 {
		return &conf.ConfigurationError{Option: "prune_threshold", Reason: "must be positive"}
	}
	if err := c.Ranker.Validate(); err != nil {
		return err
	}
	return c.Planner.Validate()
}

// LoadConfig reads filename, or returns the defaults if it is empty.
func LoadConfig(filename string) (*Config, error) {
	c := &Config{}
	if filename == "" {
		c.SetDefaults()
		return c, nil
	}
	if err := conf.LoadFile(filename, c); err != nil {
		return nil, err
	}
	return c, nil
}

func NewLogger() *log.Logger {
	return log.New(os.Stderr, "", log.LstdFlags)
}

// NewDebugLogger writes to filename; without a file name debug output is
// discarded and the returned logger is nil.
func NewDebugLogger(filename string) (*log.Logger, io.Closer, error) {
	if filename == "" {
		return nil, nil, nil
	}
	file, err := os.Create(filename)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed creating debug output %s", filename)
	}
	return log.New(file, "", log.Lmicroseconds), file, nil
}

func VerifyExists(logger *log.Logger, filename string) bool {
	_, err := os.Stat(filename)
	if err != nil {
		logger.Println("Error accessing file", filename)
		logger.Println(err)
		return false
	}
	return true
}

// VerifyArgs checks the number of positional arguments and that the
// input files among them exist.
func VerifyArgs(cmd *commander.Command, logger *log.Logger, args []string, num int, inputs ...int) error {
	if len(args) != num {
		cmd.Usage()
		return errors.Errorf("%s: expected %d arguments, got %d", cmd.Name(), num, len(args))
	}
	for _, i := range inputs {
		if !VerifyExists(logger, args[i]) {
			return errors.Errorf("%s: missing input file %s", cmd.Name(), args[i])
		}
	}
	return nil
}

func logFingerprint(logger *log.Logger, name, filename string) {
	sum, err := util.MD5File(filename)
	if err != nil {
		logger.Printf("%s:\t%s (%v)", name, filename, err)
		return
	}
	logger.Printf("%s:\t%s (md5 %s)", name, filename, sum)
}

// readCorpus reads a DA file and the matching tree document.
func readCorpus(logger *log.Logger, daFile, treeFile string) ([]types.DA, []*types.Tree, error) {
	logFingerprint(logger, "DAs", daFile)
	das, err := da.ReadFile(daFile, 0)
	if err != nil {
		return nil, nil, err
	}
	if treeFile == "" {
		return das, nil, nil
	}
	logFingerprint(logger, "Trees", treeFile)
	_, trees, err := ttree.ReadFile(treeFile)
	if err != nil {
		return nil, nil, err
	}
	if len(das) != len(trees) {
		return nil, nil, errors.Errorf("%s has %d DAs but %s has %d trees", daFile, len(das), treeFile, len(trees))
	}
	return das, trees, nil
}
