package logger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mihai-snyk/iohbench/pkg/ioh/framework"
)

// columns are the fixed header columns of every channel file.
var columns = []string{
	"function evaluation",
	"current f(x)",
	"best-so-far f(x)",
	"current af(x)+b",
	"best af(x)+b",
}

// formatFloat writes the shortest representation that parses back to v.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func header(params []string) string {
	var b strings.Builder
	for i, c := range append(append([]string(nil), columns...), params...) {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Quote(c))
	}
	b.WriteByte('\n')
	return b.String()
}

func record(info framework.LogInfo, params []float64) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(info.Evaluations))
	for _, v := range []float64{info.Y, info.BestY, info.TransformedY, info.BestTransformedY} {
		b.WriteByte(' ')
		b.WriteString(formatFloat(v))
	}
	for _, v := range params {
		b.WriteByte(' ')
		b.WriteString(formatFloat(v))
	}
	b.WriteByte('\n')
	return b.String()
}

func maximizationFlag(t framework.OptimizationType) string {
	if t == framework.Maximization {
		return "T"
	}
	return "F"
}

// dataPath is the channel file of a problem relative to the logger root.
func dataPath(id int, name string, dimension int, ch Channel) string {
	return fmt.Sprintf("%s/IOHprofiler_f%d_DIM%d.%s", dataDir(id, name), id, dimension, ch)
}

func dataDir(id int, name string) string {
	return fmt.Sprintf("data_f%d_%s", id, name)
}

func infoName(id int, name string) string {
	return fmt.Sprintf("IOHprofiler_f%d_%s.info", id, name)
}
