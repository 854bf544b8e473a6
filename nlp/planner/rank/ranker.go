package rank

import (
	"fmt"
	"log"

	"github.com/AnneBeyer/tgen/alg/featurevector"
	"github.com/AnneBeyer/tgen/alg/perceptron"
	"github.com/AnneBeyer/tgen/nlp/planner/candgen"
	"github.com/AnneBeyer/tgen/nlp/types"
	"github.com/AnneBeyer/tgen/util"
	"github.com/AnneBeyer/tgen/util/conf"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

const (
	DEFAULT_PASSES     = 5
	DEFAULT_ALPHA      = 1.0
	DEFAULT_SEED       = 1206
	DEFAULT_JOBS       = 1
	DEFAULT_CACHE_SIZE = 100000
)

// Options are the ranker training options as found in the YAML
// configuration.
type Options struct {
	Passes     int      `yaml:"passes"`
	Alpha      float64  `yaml:"alpha"`
	Averaging  bool     `yaml:"averaging"`
	Seed       int64    `yaml:"seed"`
	JobsNumber int      `yaml:"jobs_number"`
	Features   []string `yaml:"features"`
	CacheSize  int      `yaml:"feature_cache_size"`
}

func (o *Options) SetDefaults() {
	o.Passes = DEFAULT_PASSES
	o.Alpha = DEFAULT_ALPHA
	o.Seed = DEFAULT_SEED
	o.JobsNumber = DEFAULT_JOBS
	o.CacheSize = DEFAULT_CACHE_SIZE
}

func (o *Options) Validate() error {
	if o.Passes < 1 {
		return &conf.ConfigurationError{Option: "passes", Reason: fmt.Sprintf("must be positive, got %d", o.Passes)}
	}
	if o.Alpha <= 0 {
		return &conf.ConfigurationError{Option: "alpha", Reason: fmt.Sprintf("must be positive, got %v", o.Alpha)}
	}
	if o.JobsNumber < 1 {
		return &conf.ConfigurationError{Option: "jobs_number", Reason: fmt.Sprintf("must be positive, got %d", o.JobsNumber)}
	}
	if _, err := NewExtractor(o.Features); err != nil {
		return &conf.ConfigurationError{Option: "features", Reason: err.Error()}
	}
	return nil
}

func DefaultOptions() Options {
	o := Options{}
	o.SetDefaults()
	return o
}

// Ranker scores tree states with a linear model over the state features.
// Once trained or loaded it is read-only and safe for concurrent scoring.
type Ranker struct {
	Options Options
	Model   *perceptron.SparseModel
	CandGen *candgen.Model
	Log     *log.Logger

	extractor *Extractor
}

func New(opts Options, cg *candgen.Model) (*Ranker, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	extractor, _ := NewExtractor(opts.Features)
	return &Ranker{
		Options:   opts,
		Model:     perceptron.NewSparseModel(),
		CandGen:   cg,
		extractor: extractor,
	}, nil
}

func (r *Ranker) logf(format string, v ...interface{}) {
	if r.Log != nil {
		r.Log.Printf(format, v...)
	}
}

func (r *Ranker) Features(da types.DA, state *types.State) featurevector.Sparse {
	return r.extractor.Extract(da, state)
}

func (r *Ranker) Score(da types.DA, state *types.State) float64 {
	return r.Model.Score(r.Features(da, state))
}

// Train learns the weights from the oracle steps of the selected portion
// of the corpus, replacing any previous weights. The candidate generator
// must already be trained.
func (r *Ranker) Train(das []types.DA, trees []*types.Tree, portion float64) error {
	if len(das) != len(trees) {
		return errors.Errorf("got %d DAs but %d trees", len(das), len(trees))
	}
	if r.CandGen == nil {
		return errors.New("ranker has no candidate generator")
	}
	selected := util.Portion(len(das), portion, r.Options.Seed)
	instances := make([]perceptron.DecodedInstance, 0, len(selected)*8)
	for _, i := range selected {
		instances = append(instances, stepInstances(das[i], trees[i])...)
	}
	r.logf("Ranker: training on %s of %s DAs (%s steps), %d passes",
		humanize.Comma(int64(len(selected))), humanize.Comma(int64(len(das))),
		humanize.Comma(int64(len(instances))), r.Options.Passes)

	decoder, err := newStepDecoder(r, r.Options.CacheSize)
	if err != nil {
		return err
	}
	var updater perceptron.UpdateStrategy = &perceptron.TrivialStrategy{}
	if r.Options.Averaging {
		updater = &perceptron.AveragedStrategy{}
	}
	trainer := &perceptron.LinearPerceptron{
		Decoder:      decoder,
		Updater:      updater,
		Iterations:   r.Options.Passes,
		LearningRate: r.Options.Alpha,
		Log:          r.Log,
	}
	trainer.Init(perceptron.NewSparseModel())
	trainer.Train(instances)
	r.Model = trainer.Model.(*perceptron.SparseModel)
	r.logf("Ranker: %s features with non-zero weight", humanize.Comma(int64(len(r.Model.Weights))))
	return nil
}

type stored struct {
	Options Options
	Weights map[string]float64
}

func (r *Ranker) Save(file string) error {
	return util.WriteModel(file, &stored{r.Options, r.Model.Weights})
}

// Load reads the weights and options written by Save. The candidate
// generator is stored separately. Feature groups this build does not know
// are dropped with a warning; their weights never match and score 0.
func Load(file string, cg *candgen.Model, logger *log.Logger) (*Ranker, error) {
	s := &stored{}
	if err := util.ReadModel(file, s); err != nil {
		return nil, err
	}
	requested := s.Options.Features
	var unknown []string
	s.Options.Features, unknown = splitKnownGroups(requested)
	for _, name := range unknown {
		if logger != nil {
			logger.Printf("WARNING: %s: unknown feature group %q ignored", file, name)
		}
	}
	r, err := New(s.Options, cg)
	if err != nil {
		return nil, &util.ModelLoadError{Path: file, Err: err}
	}
	if len(requested) > 0 && len(s.Options.Features) == 0 {
		// none of the stored groups exist, not all of them
		r.extractor = &Extractor{}
	}
	r.Log = logger
	if s.Weights != nil {
		r.Model.Weights = s.Weights
	}
	return r, nil
}
