package logger

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihai-snyk/iohbench/pkg/ioh/framework"
)

var oneMax = framework.ProblemInfo{ID: 1, Name: "OneMax", Suite: "PBO", Dimension: 4, InstanceID: 1, Type: framework.Maximization}

func testOptions(t *testing.T, triggers Triggers) Options {
	t.Helper()
	return Options{
		OutputDirectory: t.TempDir(),
		FolderName:      "run",
		AlgorithmName:   "rs",
		AlgorithmInfo:   "random search",
		Triggers:        triggers,
		Logger:          logr.Discard(),
	}
}

func newTestLogger(t *testing.T, triggers Triggers) *Logger {
	t.Helper()
	l, err := New(testOptions(t, triggers))
	require.NoError(t, err)
	l.TrackSuite("PBO")
	return l
}

func readRuns(t *testing.T, path string) []Run {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	runs, err := ReadDat(f)
	require.NoError(t, err)
	return runs
}

func readBlocks(t *testing.T, path string) []InfoBlock {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	blocks, err := ReadInfo(f)
	require.NoError(t, err)
	return blocks
}

func evaluations(run Run) []int {
	var out []int
	for _, r := range run.Records {
		out = append(out, r.Evaluations)
	}
	return out
}

// logSequence logs one record per transformed value, with the raw value ten
// times larger.
func logSequence(t *testing.T, l *Logger, ys ...float64) {
	t.Helper()
	best := math.NaN()
	for i, y := range ys {
		if i == 0 || y < best {
			best = y
		}
		require.NoError(t, l.Log(framework.LogInfo{
			Evaluations:      i + 1,
			Y:                10 * y,
			BestY:            10 * best,
			TransformedY:     y,
			BestTransformedY: best,
		}))
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	l := newTestLogger(t, Triggers{Always: true})
	require.NoError(t, l.TrackProblem(oneMax))

	in := []framework.LogInfo{
		{Evaluations: 1, Y: 0.1, BestY: 0.1, TransformedY: 1.0 / 3, BestTransformedY: 1.0 / 3},
		{Evaluations: 2, Y: 1e-300, BestY: 1e-300, TransformedY: math.Pi, BestTransformedY: math.Pi},
		{Evaluations: 3, Y: -2.5e17, BestY: 1e-300, TransformedY: 2, BestTransformedY: math.Pi},
		{Evaluations: 4, Y: math.Inf(-1), BestY: 1e-300, TransformedY: math.Inf(-1), BestTransformedY: math.Pi},
	}
	for _, info := range in {
		require.NoError(t, l.Log(info))
	}
	require.NoError(t, l.Close())

	runs := readRuns(t, filepath.Join(l.Dir(), "data_f1_OneMax", "IOHprofiler_f1_DIM4.cdat"))
	require.Len(t, runs, 1)
	var want []Record
	for _, info := range in {
		want = append(want, Record{
			Evaluations:      info.Evaluations,
			Y:                info.Y,
			BestY:            info.BestY,
			TransformedY:     info.TransformedY,
			BestTransformedY: info.BestTransformedY,
		})
	}
	if diff := cmp.Diff(want, runs[0].Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	blocks := readBlocks(t, filepath.Join(l.Dir(), "IOHprofiler_f1_OneMax.info"))
	wantBlocks := []InfoBlock{{
		Suite:         "PBO",
		FunctionID:    1,
		FunctionName:  "OneMax",
		Dimension:     4,
		Maximization:  true,
		AlgorithmID:   "rs",
		AlgorithmInfo: "random search",
		Attributes:    map[string]string{},
		DataFile:      "data_f1_OneMax/IOHprofiler_f1_DIM4.dat",
		Runs:          []InfoRun{{InstanceID: 1, Evaluations: 2, BestY: 1e-300}},
	}}
	if diff := cmp.Diff(wantBlocks, blocks); diff != "" {
		t.Errorf("info mismatch (-want +got):\n%s", diff)
	}
}

func TestInfoBlocksPerProblemAndDimension(t *testing.T) {
	l := newTestLogger(t, DefaultTriggers())
	l.opts.AlgorithmInfo = "info"
	record := framework.LogInfo{Evaluations: 1, Y: 3, BestY: 3, TransformedY: 3, BestTransformedY: 3}

	leadingOnes := framework.ProblemInfo{ID: 2, Name: "LeadingOnes", Dimension: 4, InstanceID: 1, Type: framework.Maximization}
	contexts := []framework.ProblemInfo{oneMax, oneMax, oneMax, leadingOnes, oneMax}
	contexts[1].InstanceID = 2
	contexts[2].Dimension = 8
	contexts[4].InstanceID = 3
	for _, ctx := range contexts {
		require.NoError(t, l.TrackProblem(ctx))
		require.NoError(t, l.Log(record))
	}
	require.NoError(t, l.Close())

	got, err := os.ReadFile(filepath.Join(l.Dir(), "IOHprofiler_f1_OneMax.info"))
	require.NoError(t, err)
	meta := `suite = "PBO", funcId = 1, funcName = "OneMax", DIM = %d, maximization = "T", algId = "rs", algInfo = "info"` + "\n"
	want := fmt.Sprintf(meta, 4) + "data_f1_OneMax/IOHprofiler_f1_DIM4.dat, 1:1|3, 2:1|3\n" +
		fmt.Sprintf(meta, 8) + "data_f1_OneMax/IOHprofiler_f1_DIM8.dat, 1:1|3\n" +
		fmt.Sprintf(meta, 4) + "data_f1_OneMax/IOHprofiler_f1_DIM4.dat, 3:1|3\n"
	assert.Equal(t, want, string(got))

	blocks := readBlocks(t, filepath.Join(l.Dir(), "IOHprofiler_f2_LeadingOnes.info"))
	require.Len(t, blocks, 1)
	assert.Equal(t, 2, blocks[0].FunctionID)
	assert.Len(t, blocks[0].Runs, 1)

	// Each context gets its own header in the shared channel file.
	runs := readRuns(t, filepath.Join(l.Dir(), "data_f1_OneMax", "IOHprofiler_f1_DIM4.dat"))
	assert.Len(t, runs, 3)
}

func TestImprovementChannel(t *testing.T) {
	l := newTestLogger(t, DefaultTriggers())
	p := oneMax
	p.Type = framework.Minimization
	require.NoError(t, l.TrackProblem(p))
	logSequence(t, l, 5, 5, 3, 4, 3, 1, 2)
	require.NoError(t, l.Close())

	runs := readRuns(t, filepath.Join(l.Dir(), "data_f1_OneMax", "IOHprofiler_f1_DIM4.dat"))
	require.Len(t, runs, 1)
	assert.Equal(t, []int{1, 3, 6, 7}, evaluations(runs[0]))
	assert.Equal(t, 2.0, runs[0].Records[3].TransformedY)

	blocks := readBlocks(t, filepath.Join(l.Dir(), "IOHprofiler_f1_OneMax.info"))
	require.Len(t, blocks, 1)
	assert.False(t, blocks[0].Maximization)
	assert.Equal(t, []InfoRun{{InstanceID: 1, Evaluations: 6, BestY: 10}}, blocks[0].Runs)

	_, err := os.Stat(filepath.Join(l.Dir(), "data_f1_OneMax", "IOHprofiler_f1_DIM4.cdat"))
	assert.True(t, os.IsNotExist(err), "disabled channels are not created")
}

func TestIntervalChannelAddsLastEvaluation(t *testing.T) {
	tests := []struct {
		evaluations int
		want        []int
	}{
		{evaluations: 7, want: []int{1, 3, 6, 7}},
		{evaluations: 6, want: []int{1, 3, 6}},
		{evaluations: 1, want: []int{1}},
	}
	for _, tt := range tests {
		l := newTestLogger(t, Triggers{Interval: 3})
		require.NoError(t, l.TrackProblem(oneMax))
		logSequence(t, l, make([]float64, tt.evaluations)...)
		require.NoError(t, l.Close())

		runs := readRuns(t, filepath.Join(l.Dir(), "data_f1_OneMax", "IOHprofiler_f1_DIM4.idat"))
		require.Len(t, runs, 1)
		assert.Equal(t, tt.want, evaluations(runs[0]), "%d evaluations", tt.evaluations)
	}
}

func TestTimeChannel(t *testing.T) {
	l := newTestLogger(t, Triggers{
		TimePoints: &TimePoints{Bases: []int{1, 5}},
		TimeRange:  &TimeRange{Start: 12, End: 13},
	})
	require.NoError(t, l.TrackProblem(oneMax))
	logSequence(t, l, make([]float64, 25)...)
	require.NoError(t, l.Close())

	runs := readRuns(t, filepath.Join(l.Dir(), "data_f1_OneMax", "IOHprofiler_f1_DIM4.tdat"))
	require.Len(t, runs, 1)
	assert.Equal(t, []int{1, 5, 10, 12, 13, 25}, evaluations(runs[0]))
}

func TestParameters(t *testing.T) {
	l := newTestLogger(t, Triggers{Always: true})
	require.NoError(t, l.SetParameterNames([]string{"mu", "lambda"}, []float64{1, 2}))
	require.NoError(t, l.TrackProblem(oneMax))
	require.NoError(t, l.SetParameter("mu", 3))
	logSequence(t, l, 1)
	require.NoError(t, l.SetParameters([]string{"lambda", "mu"}, []float64{0.5, 4}))
	logSequence(t, l, 1, 1)
	require.NoError(t, l.Close())

	path := filepath.Join(l.Dir(), "data_f1_OneMax", "IOHprofiler_f1_DIM4.cdat")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		`"function evaluation" "current f(x)" "best-so-far f(x)" "current af(x)+b" "best af(x)+b" "lambda" "mu"`+"\n"+
			"1 10 10 1 1 2 3\n"+
			"1 10 10 1 1 0.5 4\n"+
			"2 10 10 1 1 0.5 4\n",
		string(raw))

	runs := readRuns(t, path)
	require.Len(t, runs, 1)
	assert.Equal(t, []string{"lambda", "mu"}, runs[0].Parameters)
	assert.Equal(t, []float64{2, 3}, runs[0].Records[0].Parameters)
}

func TestConfigurationErrors(t *testing.T) {
	l := newTestLogger(t, DefaultTriggers())
	defer l.Close()

	assert.ErrorIs(t, l.SetParameterNames([]string{"a", "b"}, []float64{1}), ErrConfiguration)
	assert.ErrorIs(t, l.SetParameterNames([]string{"a", "a"}, nil), ErrConfiguration)
	assert.ErrorIs(t, l.SetParameterNames([]string{"has space"}, nil), ErrConfiguration)
	require.NoError(t, l.SetParameterNames([]string{"a"}, nil))
	assert.ErrorIs(t, l.SetParameters([]string{"a"}, []float64{1, 2}), ErrConfiguration)
	assert.ErrorIs(t, l.SetParameter("b", 1), ErrConfiguration)

	assert.ErrorIs(t, l.AddAttribute("seed", `say "hi"`), ErrConfiguration)
	assert.ErrorIs(t, l.SetDynamicAttributeNames([]string{"x"}, []float64{1, 2}), ErrConfiguration)
	assert.ErrorIs(t, l.SetDynamicAttribute("missing", 1), ErrConfiguration)

	_, err := New(Options{OutputDirectory: t.TempDir(), Triggers: Triggers{Interval: -3}})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLifecycle(t *testing.T) {
	l := newTestLogger(t, DefaultTriggers())
	assert.ErrorIs(t, l.Log(framework.LogInfo{Evaluations: 1}), ErrNotTracking)

	require.NoError(t, l.TrackProblem(oneMax))
	logSequence(t, l, 1)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	assert.ErrorIs(t, l.Log(framework.LogInfo{Evaluations: 2}), ErrClosed)
	assert.ErrorIs(t, l.TrackProblem(oneMax), ErrClosed)

	blocks := readBlocks(t, filepath.Join(l.Dir(), "IOHprofiler_f1_OneMax.info"))
	require.Len(t, blocks, 1)
	assert.Len(t, blocks[0].Runs, 1, "a second Close must not write another summary")
}

func TestFlushWritesBufferedRecords(t *testing.T) {
	l := newTestLogger(t, Triggers{Always: true})
	defer l.Close()
	require.NoError(t, l.TrackProblem(oneMax))
	logSequence(t, l, 1, 2)

	path := filepath.Join(l.Dir(), "data_f1_OneMax", "IOHprofiler_f1_DIM4.cdat")
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, raw)

	require.NoError(t, l.Flush())
	assert.Len(t, readRuns(t, path)[0].Records, 2)
}

func TestDynamicAttributes(t *testing.T) {
	l := newTestLogger(t, Triggers{Update: true})
	require.NoError(t, l.AddAttribute("seed", "42"))
	require.NoError(t, l.SetDynamicAttributeNames([]string{"sigma"}, []float64{0.5}))
	require.NoError(t, l.TrackProblem(oneMax))

	record := func(evaluations int) framework.LogInfo {
		return framework.LogInfo{Evaluations: evaluations, Y: 10, BestY: 10, TransformedY: 1, BestTransformedY: 1}
	}
	require.NoError(t, l.Log(record(1)))
	require.NoError(t, l.SetDynamicAttribute("sigma", 0.25))
	require.NoError(t, l.Log(record(2)))
	require.NoError(t, l.Log(record(3)))
	require.NoError(t, l.SetDynamicAttribute("sigma", 0.25))
	require.NoError(t, l.Log(record(4)))
	require.NoError(t, l.Close())

	runs := readRuns(t, filepath.Join(l.Dir(), "data_f1_OneMax", "IOHprofiler_f1_DIM4.dat"))
	require.Len(t, runs, 1)
	assert.Equal(t, []int{2, 4}, evaluations(runs[0]))

	blocks := readBlocks(t, filepath.Join(l.Dir(), "IOHprofiler_f1_OneMax.info"))
	require.Len(t, blocks, 1)
	assert.Equal(t, map[string]string{"seed": "42"}, blocks[0].Attributes)
	assert.Equal(t, []string{"sigma"}, blocks[0].DynamicAttributes)
	assert.Equal(t, []float64{0.25}, blocks[0].Runs[0].DynamicValues)
}

func TestWithClosesOnEveryExit(t *testing.T) {
	boom := errors.New("boom")
	opts := testOptions(t, DefaultTriggers())
	var dir string
	err := With(opts, func(l *Logger) error {
		dir = l.Dir()
		require.NoError(t, l.TrackProblem(oneMax))
		logSequence(t, l, 1)
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, readBlocks(t, filepath.Join(dir, "IOHprofiler_f1_OneMax.info"))[0].Runs, 1)

	assert.Panics(t, func() {
		_ = With(opts, func(l *Logger) error {
			dir = l.Dir()
			require.NoError(t, l.TrackProblem(oneMax))
			logSequence(t, l, 1)
			panic("algorithm crashed")
		})
	})
	assert.Equal(t, filepath.Join(opts.OutputDirectory, "run-1"), dir)
	assert.Len(t, readBlocks(t, filepath.Join(dir, "IOHprofiler_f1_OneMax.info"))[0].Runs, 1)
}

func TestOutputDirectoryCollision(t *testing.T) {
	opts := testOptions(t, DefaultTriggers())
	var dirs []string
	for i := 0; i < 3; i++ {
		l, err := New(opts)
		require.NoError(t, err)
		dirs = append(dirs, filepath.Base(l.Dir()))
		require.NoError(t, l.Close())
	}
	assert.Equal(t, []string{"run", "run-1", "run-2"}, dirs)
}
