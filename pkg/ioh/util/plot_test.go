package util

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihai-snyk/iohbench/pkg/ioh/logger"
)

func TestPlotConvergence(t *testing.T) {
	runs := []logger.Run{
		{Records: []logger.Record{{Evaluations: 1, BestY: 3}, {Evaluations: 10, BestY: 5}}},
		{Records: []logger.Record{{Evaluations: 1, BestY: 2}}},
	}
	var buf bytes.Buffer
	require.NoError(t, PlotConvergence(&buf, "OneMax d16", runs))
	html := buf.String()
	assert.Contains(t, html, "OneMax d16")
	assert.Contains(t, html, "run 1")
	assert.Contains(t, html, "run 2")
}

func TestPlotConvergenceWithoutRecords(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, PlotConvergence(&buf, "empty", []logger.Run{{}}), ErrNoRecords)
	assert.ErrorIs(t, PlotConvergence(&buf, "empty", nil), ErrNoRecords)
}

func TestPlotConvergenceFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "IOHprofiler_f1_DIM4.dat")
	data := `"function evaluation" "current f(x)" "best-so-far f(x)" "current af(x)+b" "best af(x)+b"` + "\n" +
		"1 2 2 2 2\n" +
		"3 4 4 4 4\n"
	require.NoError(t, os.WriteFile(src, []byte(data), 0o644))

	dst := filepath.Join(dir, "plot.html")
	require.NoError(t, PlotConvergenceFile(src, dst, "f1"))
	assert.FileExists(t, dst)

	assert.Error(t, PlotConvergenceFile(filepath.Join(dir, "missing.dat"), dst, "f1"))
}
