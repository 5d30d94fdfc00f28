package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/klog/v2"
	"k8s.io/utils/ptr"

	"github.com/mihai-snyk/iohbench/apis/experiment/v1alpha1"
	"github.com/mihai-snyk/iohbench/pkg/ioh/algorithms"
	"github.com/mihai-snyk/iohbench/pkg/ioh/logger"
	"github.com/mihai-snyk/iohbench/pkg/ioh/suite"
)

func parse(t *testing.T, args ...string) (*v1alpha1.Experiment, error) {
	t.Helper()
	opts := NewOptions()
	fs := pflag.NewFlagSet("iohbench", pflag.ContinueOnError)
	opts.AddFlags(fs)
	require.NoError(t, fs.Parse(args))
	return opts.Experiment(fs)
}

func TestFlagsOverrideExperimentFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "experiment.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
spec:
  suite: PBO
  algorithm: {name: RandomSearch}
  runs: 3
  budget: 200
`), 0o644))

	exp, err := parse(t, "--config", path, "--runs", "2", "--algorithm", "OnePlusOneEA", "--dimensions", "8,16")
	require.NoError(t, err)
	assert.Equal(t, v1alpha1.AlgorithmOnePlusOneEA, exp.Spec.Algorithm.Name)
	assert.Equal(t, 2, *exp.Spec.Runs)
	assert.Equal(t, 200, *exp.Spec.Budget)
	assert.Equal(t, []int{8, 16}, exp.Spec.Dimensions)
	assert.Equal(t, v1alpha1.DefaultFolderName, exp.Spec.Output.FolderName)
}

func TestFlagsWithoutFile(t *testing.T) {
	exp, err := parse(t, "--suite", "BBOB", "--algorithm", "GA", "--seed", "7")
	require.NoError(t, err)
	assert.Equal(t, v1alpha1.GroupVersion, exp.APIVersion)
	assert.Equal(t, uint64(7), *exp.Spec.Seed)
	assert.Equal(t, v1alpha1.DefaultPopulationSize, *exp.Spec.Algorithm.PopulationSize)

	_, err = parse(t, "--suite", "PBO", "--algorithm", "GA")
	assert.Error(t, err)

	_, err = parse(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestExperimentConfig(t *testing.T) {
	s := suite.PBO(klog.Background())
	spec := &v1alpha1.ExperimentSpec{
		Suite:      v1alpha1.SuitePBO,
		Algorithm:  v1alpha1.AlgorithmSpec{Name: v1alpha1.AlgorithmRandomSearch},
		Problems:   "1-3",
		Instances:  "0,5-6",
		Dimensions: []int{16},
		Runs:       ptr.To(4),
		Budget:     ptr.To(100),
		Seed:       ptr.To(uint64(9)),
		Output:     v1alpha1.OutputSpec{Directory: "out", FolderName: "data", BufferSize: ptr.To(1024)},
	}

	cfg, err := experimentConfig(s, spec)
	require.NoError(t, err)
	assert.Equal(t, suite.Selection{ProblemIDs: []int{1, 2, 3}, InstanceIDs: []int{0, 5, 6}, Dimensions: []int{16}}, cfg.Selection)
	assert.Equal(t, 4, cfg.Runs)
	assert.Equal(t, 100, cfg.Budget)
	assert.Equal(t, uint64(9), cfg.Seed)
	assert.Equal(t, "out", cfg.Output.OutputDirectory)
	assert.Equal(t, 1024, cfg.Output.BufferSize)
	assert.Equal(t, v1alpha1.AlgorithmRandomSearch, cfg.Output.AlgorithmName)
	assert.Equal(t, logger.DefaultTriggers(), cfg.Output.Triggers)

	spec.Problems = ""
	cfg, err = experimentConfig(s, spec)
	require.NoError(t, err)
	assert.Nil(t, cfg.Selection.ProblemIDs)

	spec.Problems = "8-"
	cfg, err = experimentConfig(s, spec)
	require.NoError(t, err)
	assert.Equal(t, []int{8, 13, 18}, cfg.Selection.ProblemIDs)

	spec.Instances = "99-101"
	_, err = experimentConfig(s, spec)
	assert.ErrorIs(t, err, suite.ErrRangeSyntax)
}

func TestTriggers(t *testing.T) {
	assert.Equal(t, logger.DefaultTriggers(), triggers(nil))

	got := triggers(&v1alpha1.TriggersSpec{
		Always:     true,
		Interval:   10,
		TimePoints: &v1alpha1.TimePointsSpec{Bases: []int{1, 2, 5}, PerDecade: 3, ScaleByDimension: true},
		TimeRange:  &v1alpha1.TimeRangeSpec{Start: 1, End: 50},
	})
	assert.Equal(t, logger.Triggers{
		Always:      true,
		Improvement: true,
		Interval:    10,
		TimePoints:  &logger.TimePoints{Bases: []int{1, 2, 5}, PerDecade: 3, ScaleByDimension: true},
		TimeRange:   &logger.TimeRange{Start: 1, End: 50},
	}, got)

	assert.False(t, triggers(&v1alpha1.TriggersSpec{Improvement: ptr.To(false)}).Improvement)
}

func TestAlgorithmSelection(t *testing.T) {
	alg, err := pboAlgorithm(v1alpha1.AlgorithmSpec{Name: v1alpha1.AlgorithmOnePlusOneEA, MutationRate: ptr.To(0.25)})
	require.NoError(t, err)
	assert.Equal(t, algorithms.OnePlusOneEA{MutationRate: 0.25}, alg)

	_, err = pboAlgorithm(v1alpha1.AlgorithmSpec{Name: v1alpha1.AlgorithmGA})
	assert.Error(t, err)

	ga, err := bbobAlgorithm(v1alpha1.AlgorithmSpec{Name: v1alpha1.AlgorithmGA, PopulationSize: ptr.To(30)})
	require.NoError(t, err)
	assert.Equal(t, &algorithms.GA{PopSize: 30, CrossoverRate: v1alpha1.DefaultCrossoverRate}, ga)

	_, err = bbobAlgorithm(v1alpha1.AlgorithmSpec{Name: v1alpha1.AlgorithmOnePlusOneEA})
	assert.Error(t, err)
}

func TestRunWritesDataMetricsAndCharts(t *testing.T) {
	dir := t.TempDir()
	metricsFile := filepath.Join(dir, "iohbench.prom")
	exp, err := parse(t,
		"--suite", "PBO",
		"--algorithm", "RandomSearch",
		"--problems", "1-2",
		"--dimensions", "4",
		"--runs", "2",
		"--budget", "50",
		"--output", dir,
		"--metrics-file", metricsFile,
		"--plot",
	)
	require.NoError(t, err)
	require.NoError(t, Run(context.Background(), exp))

	dat, err := filepath.Glob(filepath.Join(dir, v1alpha1.DefaultFolderName, "data_f*", "*.dat"))
	require.NoError(t, err)
	assert.Len(t, dat, 2)
	for _, f := range dat {
		assert.FileExists(t, f[:len(f)-len(".dat")]+".html")
	}

	info, err := filepath.Glob(filepath.Join(dir, v1alpha1.DefaultFolderName, "*.info"))
	require.NoError(t, err)
	assert.Len(t, info, 2)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "iohbench_logger_runs_total")
}

func TestRunUnsupportedSuite(t *testing.T) {
	exp := &v1alpha1.Experiment{Spec: v1alpha1.ExperimentSpec{Suite: "COCO"}}
	assert.Error(t, Run(context.Background(), exp))
}
