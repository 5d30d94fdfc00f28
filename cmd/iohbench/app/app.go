// Package app builds the iohbench command.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	logsapi "k8s.io/component-base/logs/api/v1"
	"k8s.io/klog/v2"
	"k8s.io/utils/ptr"

	"github.com/mihai-snyk/iohbench/apis/experiment/v1alpha1"
	"github.com/mihai-snyk/iohbench/pkg/ioh/algorithms"
	"github.com/mihai-snyk/iohbench/pkg/ioh/experiment"
	"github.com/mihai-snyk/iohbench/pkg/ioh/framework"
	"github.com/mihai-snyk/iohbench/pkg/ioh/logger"
	"github.com/mihai-snyk/iohbench/pkg/ioh/metrics"
	"github.com/mihai-snyk/iohbench/pkg/ioh/suite"
	"github.com/mihai-snyk/iohbench/pkg/ioh/transformation"
	"github.com/mihai-snyk/iohbench/pkg/ioh/util"
)

// NewCommand creates the iohbench command with default options.
func NewCommand() *cobra.Command {
	opts := NewOptions()
	cmd := &cobra.Command{
		Use:   "iohbench",
		Short: "Run an optimization algorithm on a benchmark suite and log it in IOHprofiler format",
		Long: `iohbench runs a reference algorithm over a selection of problems, instances
and dimensions, and writes every logged evaluation as IOHprofiler data files.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logsapi.ValidateAndApply(opts.Logs, nil); err != nil {
				return err
			}

			exp, err := opts.Experiment(cmd.Flags())
			if err != nil {
				return err
			}
			return Run(cmd.Context(), exp)
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

// Run executes a defaulted, validated experiment.
func Run(ctx context.Context, exp *v1alpha1.Experiment) error {
	log := klog.FromContext(ctx)
	spec := &exp.Spec

	var recorder *metrics.Recorder
	if spec.Output.MetricsFile != "" {
		recorder = metrics.New()
	}

	var (
		results []experiment.Result
		dir     string
		err     error
	)
	switch spec.Suite {
	case v1alpha1.SuitePBO:
		var alg algorithms.Algorithm[int]
		if alg, err = pboAlgorithm(spec.Algorithm); err != nil {
			return err
		}
		results, dir, err = runSuite(ctx, suite.PBO(log), alg, spec, recorder)
	case v1alpha1.SuiteBBOB:
		var alg algorithms.Algorithm[float64]
		if alg, err = bbobAlgorithm(spec.Algorithm); err != nil {
			return err
		}
		results, dir, err = runSuite(ctx, suite.BBOB(log), alg, spec, recorder)
	default:
		return fmt.Errorf("unsupported suite %q", spec.Suite)
	}
	if err != nil {
		return err
	}

	var evaluations int
	for _, s := range experiment.Summarize(results) {
		log.Info("Summary", "problem", s.Name, "dimension", s.Dimension, "runs", s.Runs,
			"hits", s.Hits, "meanBest", s.MeanBest, "stdBest", s.StdBest, "ert", s.ERT)
	}
	for _, r := range results {
		evaluations += r.Evaluations
	}
	log.Info("Experiment finished", "directory", dir, "runs", len(results),
		"evaluations", humanize.Comma(int64(evaluations)))

	if recorder != nil {
		if err := recorder.WriteToTextfile(spec.Output.MetricsFile); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	if spec.Output.Plot {
		return plotAll(dir)
	}
	return nil
}

func runSuite[T framework.Variable](ctx context.Context, s *suite.Suite[T], alg algorithms.Algorithm[T],
	spec *v1alpha1.ExperimentSpec, recorder *metrics.Recorder) ([]experiment.Result, string, error) {
	cfg, err := experimentConfig(s, spec)
	if err != nil {
		return nil, "", err
	}
	cfg.Output.Logger = klog.FromContext(ctx)
	if recorder != nil {
		cfg.Output.Metrics = recorder
	}

	e, err := experiment.New(s, alg, cfg)
	if err != nil {
		return nil, "", err
	}
	results, err := e.Run(ctx)
	return results, e.Dir(), err
}

// experimentConfig expands the range expressions of spec against s.
func experimentConfig[T framework.Variable](s *suite.Suite[T], spec *v1alpha1.ExperimentSpec) (experiment.Config, error) {
	sel := suite.Selection{Dimensions: spec.Dimensions}
	if spec.Problems != "" {
		var err error
		if sel.ProblemIDs, err = s.ParseProblems(spec.Problems); err != nil {
			return experiment.Config{}, fmt.Errorf("problems: %w", err)
		}
	}
	var err error
	if sel.InstanceIDs, err = suite.ParseRange(spec.Instances, transformation.MinInstance, transformation.MaxInstance); err != nil {
		return experiment.Config{}, fmt.Errorf("instances: %w", err)
	}

	return experiment.Config{
		Selection:  sel,
		Runs:       ptr.Deref(spec.Runs, v1alpha1.DefaultRuns),
		Budget:     ptr.Deref(spec.Budget, v1alpha1.DefaultBudget),
		Seed:       ptr.Deref(spec.Seed, v1alpha1.DefaultSeed),
		COCO:       spec.COCO,
		Attributes: spec.Attributes,
		Output: logger.Options{
			OutputDirectory: spec.Output.Directory,
			FolderName:      spec.Output.FolderName,
			AlgorithmName:   spec.Algorithm.Name,
			AlgorithmInfo:   spec.Output.AlgorithmInfo,
			BufferSize:      ptr.Deref(spec.Output.BufferSize, 0),
			Triggers:        triggers(spec.Triggers),
		},
	}, nil
}

func triggers(t *v1alpha1.TriggersSpec) logger.Triggers {
	if t == nil {
		return logger.DefaultTriggers()
	}
	out := logger.Triggers{
		Always:      t.Always,
		Improvement: ptr.Deref(t.Improvement, true),
		Interval:    t.Interval,
		Update:      t.Update,
	}
	if tp := t.TimePoints; tp != nil {
		out.TimePoints = &logger.TimePoints{
			Bases:            tp.Bases,
			PerDecade:        tp.PerDecade,
			Explicit:         tp.Explicit,
			ScaleByDimension: tp.ScaleByDimension,
		}
	}
	if r := t.TimeRange; r != nil {
		out.TimeRange = &logger.TimeRange{Start: r.Start, End: r.End}
	}
	return out
}

func pboAlgorithm(spec v1alpha1.AlgorithmSpec) (algorithms.Algorithm[int], error) {
	switch spec.Name {
	case v1alpha1.AlgorithmRandomSearch:
		return algorithms.RandomSearch[int]{}, nil
	case v1alpha1.AlgorithmOnePlusOneEA:
		return algorithms.OnePlusOneEA{MutationRate: ptr.Deref(spec.MutationRate, 0)}, nil
	}
	return nil, fmt.Errorf("algorithm %q cannot run on suite %s", spec.Name, v1alpha1.SuitePBO)
}

func bbobAlgorithm(spec v1alpha1.AlgorithmSpec) (algorithms.Algorithm[float64], error) {
	switch spec.Name {
	case v1alpha1.AlgorithmRandomSearch:
		return algorithms.RandomSearch[float64]{}, nil
	case v1alpha1.AlgorithmGA:
		return &algorithms.GA{
			PopSize:       ptr.Deref(spec.PopulationSize, v1alpha1.DefaultPopulationSize),
			CrossoverRate: ptr.Deref(spec.CrossoverRate, v1alpha1.DefaultCrossoverRate),
			MutationRate:  ptr.Deref(spec.MutationRate, 0),
		}, nil
	}
	return nil, fmt.Errorf("algorithm %q cannot run on suite %s", spec.Name, v1alpha1.SuiteBBOB)
}

// plotAll renders a chart for every improvement channel file under dir.
func plotAll(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "data_f*", "*."+string(logger.Improvement)))
	if err != nil {
		return err
	}
	for _, f := range files {
		base := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		if err := util.PlotConvergenceFile(f, strings.TrimSuffix(f, filepath.Ext(f))+".html", base); err != nil {
			return err
		}
	}
	return nil
}
