package experiment

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates the runs of one (problem, dimension) pair over all
// instances.
type Summary struct {
	ProblemID int
	Name      string
	Dimension int
	Runs      int
	// Hits is the number of runs that found the optimum.
	Hits     int
	MeanBest float64
	StdBest  float64
	// ERT is the expected running time: evaluations spent over all runs
	// divided by the number of hits, +Inf without hits.
	ERT float64
}

type summaryKey struct {
	id        int
	dimension int
}

// Summarize groups results by problem and dimension, keeping the order in
// which the groups first appear.
func Summarize(results []Result) []Summary {
	var order []summaryKey
	groups := map[summaryKey][]Result{}
	for _, r := range results {
		k := summaryKey{id: r.Problem.ID, dimension: r.Problem.Dimension}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	out := make([]Summary, 0, len(order))
	for _, k := range order {
		runs := groups[k]
		best := make([]float64, len(runs))
		evals := make([]float64, len(runs))
		hits := 0
		for i, r := range runs {
			best[i] = r.Best
			evals[i] = float64(r.Evaluations)
			if r.Found {
				hits++
			}
		}
		s := Summary{
			ProblemID: k.id,
			Name:      runs[0].Problem.Name,
			Dimension: k.dimension,
			Runs:      len(runs),
			Hits:      hits,
			ERT:       math.Inf(1),
		}
		if len(runs) > 1 {
			s.MeanBest, s.StdBest = stat.MeanStdDev(best, nil)
		} else {
			s.MeanBest = best[0]
		}
		if hits > 0 {
			s.ERT = floats.Sum(evals) / float64(hits)
		}
		out = append(out, s)
	}
	return out
}
