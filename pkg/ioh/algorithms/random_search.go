package algorithms

import (
	"math/rand/v2"

	"github.com/mihai-snyk/iohbench/pkg/ioh/framework"
)

// RandomSearch samples the search box uniformly.
type RandomSearch[T framework.Variable] struct{}

func (RandomSearch[T]) Name() string { return "RandomSearch" }

func (RandomSearch[T]) Run(p Evaluator[T], budget int, rng *rand.Rand) Solution[T] {
	b := newBudgeted(p, budget)
	lower, upper := p.LowerBounds(), p.UpperBounds()
	for !b.done() {
		b.evaluate(sample(rng, lower, upper))
	}
	return b.best
}
