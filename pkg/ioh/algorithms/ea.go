package algorithms

import (
	"math/rand/v2"
)

// OnePlusOneEA is the (1+1) evolutionary algorithm on bit strings. Each
// offspring flips every bit of the parent independently with probability
// MutationRate and replaces the parent unless it is strictly worse.
type OnePlusOneEA struct {
	// MutationRate defaults to 1/n.
	MutationRate float64
}

func (OnePlusOneEA) Name() string { return "OnePlusOneEA" }

func (ea OnePlusOneEA) Run(p Evaluator[int], budget int, rng *rand.Rand) Solution[int] {
	b := newBudgeted(p, budget)
	if b.done() {
		return b.best
	}
	rate := ea.MutationRate
	if rate <= 0 {
		rate = 1 / float64(p.Dimension())
	}

	parent := b.evaluate(sample(rng, p.LowerBounds(), p.UpperBounds()))
	for !b.done() {
		child := parent.Clone()
		flipBits(child.X, rate, rng)
		child = b.evaluate(child.X)
		if !b.better(parent, child) {
			parent = child
		}
	}
	return b.best
}

// flipBits applies standard bit mutation to x. A mutation that flips nothing
// is resampled, so no evaluation is spent on a copy of the parent.
func flipBits(x []int, rate float64, rng *rand.Rand) {
	if len(x) == 0 {
		return
	}
	for {
		flipped := false
		for i := range x {
			if rng.Float64() < rate {
				x[i] = 1 - x[i]
				flipped = true
			}
		}
		if flipped {
			return
		}
	}
}
