package experiment

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihai-snyk/iohbench/pkg/ioh/algorithms"
	"github.com/mihai-snyk/iohbench/pkg/ioh/framework"
	"github.com/mihai-snyk/iohbench/pkg/ioh/logger"
	"github.com/mihai-snyk/iohbench/pkg/ioh/suite"
)

type countingMetrics struct {
	records map[logger.Channel]int
	runs    int
}

func (m *countingMetrics) RecordWritten(ch logger.Channel) {
	if m.records == nil {
		m.records = map[logger.Channel]int{}
	}
	m.records[ch]++
}

func (m *countingMetrics) RunFinished(framework.ProblemInfo, int) { m.runs++ }

func testConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		Selection: suite.Selection{
			ProblemIDs:  []int{1, 2},
			InstanceIDs: []int{1, 2},
			Dimensions:  []int{8},
		},
		Runs:   2,
		Budget: 2000,
		Seed:   5,
		Output: logger.Options{
			OutputDirectory: t.TempDir(),
			FolderName:      "exp",
			Triggers:        logger.DefaultTriggers(),
			Logger:          logr.Discard(),
		},
	}
}

func readInfo(t *testing.T, path string) []logger.InfoBlock {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	blocks, err := logger.ReadInfo(f)
	require.NoError(t, err)
	return blocks
}

func TestRunLogsEveryRun(t *testing.T) {
	cfg := testConfig(t)
	metrics := &countingMetrics{}
	cfg.Output.Metrics = metrics
	cfg.Attributes = map[string]string{"note": "smoke"}

	e, err := New[int](suite.PBO(logr.Discard()), algorithms.OnePlusOneEA{}, cfg)
	require.NoError(t, err)
	results, err := e.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 8)
	assert.Equal(t, 8, metrics.runs)
	assert.Positive(t, metrics.records[logger.Improvement])

	for _, r := range results {
		assert.True(t, r.Found, "%s instance %d run %d", r.Problem.Name, r.Problem.InstanceID, r.Run)
		assert.LessOrEqual(t, r.Evaluations, cfg.Budget)
	}
	assert.Equal(t, []int{1, 1, 2, 2}, []int{results[0].Problem.InstanceID, results[1].Problem.InstanceID,
		results[2].Problem.InstanceID, results[3].Problem.InstanceID})
	assert.Equal(t, []int{0, 1, 0, 1}, []int{results[0].Run, results[1].Run, results[2].Run, results[3].Run})

	dir := filepath.Join(cfg.Output.OutputDirectory, "exp")
	blocks := readInfo(t, filepath.Join(dir, "IOHprofiler_f1_OneMax.info"))
	require.Len(t, blocks, 1)
	assert.Equal(t, "OnePlusOneEA", blocks[0].AlgorithmID)
	assert.Equal(t, map[string]string{"note": "smoke", "run_id": e.ID()}, blocks[0].Attributes)
	var instances []int
	for _, run := range blocks[0].Runs {
		instances = append(instances, run.InstanceID)
		assert.Equal(t, 8.0, run.BestY)
	}
	assert.Equal(t, []int{1, 1, 2, 2}, instances)

	assert.FileExists(t, filepath.Join(dir, "IOHprofiler_f2_LeadingOnes.info"))
	f, err := os.Open(filepath.Join(dir, "data_f2_LeadingOnes", "IOHprofiler_f2_DIM8.dat"))
	require.NoError(t, err)
	defer f.Close()
	runs, err := logger.ReadDat(f)
	require.NoError(t, err)
	assert.Len(t, runs, 4)
}

func TestRunIsReproducible(t *testing.T) {
	run := func() []Result {
		cfg := testConfig(t)
		cfg.Selection.ProblemIDs = []int{2}
		e, err := New[int](suite.PBO(logr.Discard()), algorithms.OnePlusOneEA{}, cfg)
		require.NoError(t, err)
		results, err := e.Run(context.Background())
		require.NoError(t, err)
		return results
	}
	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
}

func TestCOCOLogsDistanceToOptimum(t *testing.T) {
	cfg := testConfig(t)
	cfg.Selection.ProblemIDs = []int{1}
	cfg.Selection.InstanceIDs = []int{3}
	cfg.Runs = 1
	cfg.COCO = true

	e, err := New[int](suite.PBO(logr.Discard()), algorithms.OnePlusOneEA{}, cfg)
	require.NoError(t, err)
	_, err = e.Run(context.Background())
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(cfg.Output.OutputDirectory, "exp", "data_f1_OneMax", "IOHprofiler_f1_DIM8.dat"))
	require.NoError(t, err)
	defer f.Close()
	runs, err := logger.ReadDat(f)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	last := runs[0].Records[len(runs[0].Records)-1]
	assert.Equal(t, 0.0, last.BestY)
	assert.Equal(t, 0.0, last.Y)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e, err := New[float64](suite.BBOB(logr.Discard()), algorithms.RandomSearch[float64]{}, cfg)
	require.NoError(t, err)
	results, err := e.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
	assert.DirExists(t, filepath.Join(cfg.Output.OutputDirectory, "exp"))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Runs = 0
	cfg.Budget = -1
	cfg.Selection.ProblemIDs = []int{99}
	cfg.Selection.InstanceIDs = nil

	_, err := New[int](suite.PBO(logr.Discard()), algorithms.OnePlusOneEA{}, cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, suite.ErrUnknownProblem)
}

func TestSummarize(t *testing.T) {
	onemax := framework.ProblemInfo{ID: 1, Name: "OneMax", Dimension: 4}
	sphere := framework.ProblemInfo{ID: 1, Name: "Sphere", Dimension: 8}
	results := []Result{
		{Problem: onemax, Evaluations: 10, Best: 4, Found: true},
		{Problem: sphere, Evaluations: 100, Best: 0.5},
		{Problem: onemax, Evaluations: 30, Best: 2},
	}

	got := Summarize(results)
	require.Len(t, got, 2)
	assert.Equal(t, Summary{
		ProblemID: 1, Name: "OneMax", Dimension: 4, Runs: 2, Hits: 1,
		MeanBest: 3, StdBest: math.Sqrt2, ERT: 40,
	}, got[0])
	assert.Equal(t, "Sphere", got[1].Name)
	assert.Equal(t, 0.5, got[1].MeanBest)
	assert.True(t, math.IsInf(got[1].ERT, 1))
}
