// Package experiment runs an algorithm over a selection of a suite and logs
// every evaluation.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/mihai-snyk/iohbench/pkg/ioh/algorithms"
	"github.com/mihai-snyk/iohbench/pkg/ioh/framework"
	"github.com/mihai-snyk/iohbench/pkg/ioh/logger"
	"github.com/mihai-snyk/iohbench/pkg/ioh/problem"
	"github.com/mihai-snyk/iohbench/pkg/ioh/suite"
)

var ErrInvalidConfig = errors.New("invalid experiment configuration")

// Config selects what to run and where the data goes.
type Config struct {
	Selection suite.Selection
	// Runs is the number of independent runs per problem instance.
	Runs int
	// Budget is the maximum number of evaluations per run.
	Budget int
	Seed   uint64

	// COCO logs the distance to the optimum in place of the raw values.
	COCO bool

	Output     logger.Options
	Attributes map[string]string
}

// Result is the outcome of one run.
type Result struct {
	Problem     framework.ProblemInfo
	Run         int
	Evaluations int
	// Best is the best transformed objective value of the run.
	Best  float64
	Found bool
}

// Experiment binds an algorithm to a suite.
type Experiment[T framework.Variable] struct {
	id        string
	suite     *suite.Suite[T]
	algorithm algorithms.Algorithm[T]
	cfg       Config
	log       logr.Logger
	dir       string
}

// New validates cfg against s and returns an experiment ready to run.
func New[T framework.Variable](s *suite.Suite[T], alg algorithms.Algorithm[T], cfg Config) (*Experiment[T], error) {
	var errs []error
	if cfg.Runs < 1 {
		errs = append(errs, fmt.Errorf("%w: runs must be positive, got %d", ErrInvalidConfig, cfg.Runs))
	}
	if cfg.Budget < 1 {
		errs = append(errs, fmt.Errorf("%w: budget must be positive, got %d", ErrInvalidConfig, cfg.Budget))
	}
	if len(cfg.Selection.InstanceIDs) == 0 || len(cfg.Selection.Dimensions) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one instance and one dimension are required", ErrInvalidConfig))
	}
	errs = append(errs, s.Validate(cfg.Selection))
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	log := cfg.Output.Logger
	if log.GetSink() == nil {
		log = klog.Background()
	}
	if cfg.Output.AlgorithmName == "" {
		cfg.Output.AlgorithmName = alg.Name()
	}
	return &Experiment[T]{
		id:        uuid.NewString(),
		suite:     s,
		algorithm: alg,
		cfg:       cfg,
		log:       log.WithValues("experiment", alg.Name(), "suite", s.Name()),
	}, nil
}

// ID is the run id written into every info block.
func (e *Experiment[T]) ID() string { return e.id }

// Dir is the output folder of the last Run.
func (e *Experiment[T]) Dir() string { return e.dir }

// Run executes every run of every selected problem. The logger is closed on
// every exit path; results of the runs that completed are returned together
// with the first error.
func (e *Experiment[T]) Run(ctx context.Context) ([]Result, error) {
	var results []Result
	err := logger.With(e.cfg.Output, func(l *logger.Logger) error {
		e.dir = l.Dir()
		l.TrackSuite(e.suite.Name())
		if err := l.AddAttribute("run_id", e.id); err != nil {
			return err
		}
		for name, value := range e.cfg.Attributes {
			if err := l.AddAttribute(name, value); err != nil {
				return err
			}
		}
		e.log.V(2).Info("Starting experiment", "directory", l.Dir(), "runs", e.cfg.Runs,
			"budget", humanize.Comma(int64(e.cfg.Budget)))

		return e.suite.Each(e.cfg.Selection, func(p *problem.Problem[T]) error {
			for run := 0; run < e.cfg.Runs; run++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if run > 0 {
					p.Reset()
				}
				res, err := e.runOnce(ctx, l, p, run)
				if err != nil {
					return err
				}
				results = append(results, res)
			}
			return nil
		})
	})
	if err != nil {
		return results, fmt.Errorf("experiment %s: %w", e.id, err)
	}
	e.log.V(2).Info("Finished experiment", "runs", len(results))
	return results, nil
}

func (e *Experiment[T]) runOnce(ctx context.Context, l *logger.Logger, p *problem.Problem[T], run int) (Result, error) {
	if err := l.Track(p); err != nil {
		return Result{}, err
	}
	t := &tracked[T]{Problem: p, ctx: ctx, logger: l, coco: e.cfg.COCO}
	e.algorithm.Run(t, e.cfg.Budget, e.rand(p, run))
	if t.err != nil {
		return Result{}, t.err
	}

	res := Result{
		Problem:     p.Info(),
		Run:         run,
		Evaluations: p.Evaluations(),
		Best:        p.BestSoFarTransformed().Y,
		Found:       p.OptimumFound(),
	}
	e.log.V(4).Info("Finished run", "problem", p, "run", run,
		"evaluations", res.Evaluations, "best", res.Best, "found", res.Found)
	return res, nil
}

// rand returns the generator of one run. Every (problem, instance,
// dimension, run) gets its own stream of the configured seed.
func (e *Experiment[T]) rand(p *problem.Problem[T], run int) *rand.Rand {
	stream := uint64(p.ID())<<48 | uint64(p.InstanceID())<<40 | uint64(p.Dimension())<<20 | uint64(run)
	return rand.New(rand.NewPCG(e.cfg.Seed, stream))
}

// tracked forwards every evaluation of the algorithm to the logger.
type tracked[T framework.Variable] struct {
	*problem.Problem[T]
	ctx    context.Context
	logger *logger.Logger
	coco   bool
	err    error
}

func (t *tracked[T]) Evaluate(x []T) float64 {
	y := t.Problem.Evaluate(x)
	if t.err != nil {
		return y
	}
	info := t.Problem.LogInfo()
	if t.coco {
		info = t.Problem.COCOLogInfo()
	}
	t.err = t.logger.Log(info)
	return y
}

// OptimumFound also stops the algorithm once logging failed or the context
// is done.
func (t *tracked[T]) OptimumFound() bool {
	if t.err == nil {
		t.err = t.ctx.Err()
	}
	return t.err != nil || t.Problem.OptimumFound()
}
