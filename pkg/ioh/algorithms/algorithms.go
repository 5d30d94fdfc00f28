// Package algorithms holds reference optimizers used to exercise problems and
// loggers. They are deliberately simple; the benchmarking harness treats
// every algorithm as a black box that calls Evaluate until it is done.
package algorithms

import (
	"math"
	"math/rand/v2"

	"github.com/mihai-snyk/iohbench/pkg/ioh/framework"
)

// Evaluator is the view of a problem an algorithm optimizes.
// *problem.Problem[T] satisfies it.
type Evaluator[T framework.Variable] interface {
	Evaluate(x []T) float64
	Dimension() int
	LowerBounds() []T
	UpperBounds() []T
	OptimizationType() framework.OptimizationType

	// OptimumFound reports that the run should stop before the budget is
	// used up.
	OptimumFound() bool
}

// Algorithm describes the contract an optimizer needs to implement. Run
// spends at most budget evaluations and returns the best solution it saw.
type Algorithm[T framework.Variable] interface {
	Name() string
	Run(p Evaluator[T], budget int, rng *rand.Rand) Solution[T]
}

// Solution is a candidate together with the objective value the problem
// returned for it.
type Solution[T framework.Variable] struct {
	X []T
	Y float64
}

func (s Solution[T]) Clone() Solution[T] {
	return Solution[T]{X: append([]T(nil), s.X...), Y: s.Y}
}

// unevaluated returns the placeholder every evaluated solution improves upon.
func unevaluated[T framework.Variable](t framework.OptimizationType) Solution[T] {
	return Solution[T]{Y: framework.Worst(t)}
}

// budgeted counts evaluations and tracks the best solution of one run.
type budgeted[T framework.Variable] struct {
	p      Evaluator[T]
	budget int
	used   int
	best   Solution[T]
}

func newBudgeted[T framework.Variable](p Evaluator[T], budget int) *budgeted[T] {
	return &budgeted[T]{p: p, budget: budget, best: unevaluated[T](p.OptimizationType())}
}

func (b *budgeted[T]) done() bool {
	return b.used >= b.budget || b.p.OptimumFound()
}

func (b *budgeted[T]) evaluate(x []T) Solution[T] {
	b.used++
	s := Solution[T]{X: x, Y: b.p.Evaluate(x)}
	if framework.Better(s.Y, b.best.Y, b.p.OptimizationType()) {
		b.best = s.Clone()
	}
	return s
}

func (b *budgeted[T]) better(a, c Solution[T]) bool {
	return framework.Better(a.Y, c.Y, b.p.OptimizationType())
}

// integral reports whether T is an integer type.
func integral[T framework.Variable]() bool {
	var one T = 1
	return one/2 == 0
}

// sample draws a point uniformly from the box [lower, upper]. Integer
// coordinates are drawn from the closed range.
func sample[T framework.Variable](rng *rand.Rand, lower, upper []T) []T {
	x := make([]T, len(lower))
	for i := range x {
		if integral[T]() {
			x[i] = lower[i] + T(rng.Int64N(int64(upper[i]-lower[i])+1))
			continue
		}
		x[i] = lower[i] + T(rng.Float64()*float64(upper[i]-lower[i]))
	}
	return x
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
