package util

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/mihai-snyk/iohbench/pkg/ioh/logger"
)

var ErrNoRecords = errors.New("no records to plot")

// PlotConvergence renders the best-so-far curve of every run as one line of
// an HTML chart, evaluations on a logarithmic x axis.
func PlotConvergence(w io.Writer, title string, runs []logger.Run) error {
	empty := true
	for _, r := range runs {
		if len(r.Records) > 0 {
			empty = false
			break
		}
	}
	if empty {
		return fmt.Errorf("%w: %s", ErrNoRecords, title)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: title,
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "evaluations",
			Type: "log",
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "best-so-far f(x)",
			Type: "value",
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}))

	for i, r := range runs {
		points := make([]opts.LineData, len(r.Records))
		for j, rec := range r.Records {
			points[j] = opts.LineData{Value: []float64{float64(rec.Evaluations), rec.BestY}}
		}
		line.AddSeries(fmt.Sprintf("run %d", i+1), points)
	}
	line.SetSeriesOptions(
		charts.WithLabelOpts(opts.Label{
			Show: opts.Bool(false),
		}),
	)
	return line.Render(w)
}

// PlotConvergenceFile reads the channel file at src and writes the chart to
// dst.
func PlotConvergenceFile(src, dst, title string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	runs, err := logger.ReadDat(in)
	if err != nil {
		return fmt.Errorf("reading %q: %w", src, err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := PlotConvergence(out, title, runs); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
