package algorithms

import (
	"math"
	"math/rand/v2"
	"slices"
)

// GA is a real-coded genetic algorithm: binary tournament selection, SBX
// crossover, polynomial mutation and elitist (mu+lambda) survival.
type GA struct {
	PopSize       int
	CrossoverRate float64
	// MutationRate defaults to 1/n.
	MutationRate float64
}

// NewGA creates a GA with the given population size and default rates.
func NewGA(popSize int) *GA {
	return &GA{
		PopSize:       popSize,
		CrossoverRate: 0.8,
	}
}

func (*GA) Name() string { return "GA" }

// Run executes the generational loop until the budget is used up or the
// optimum is hit.
func (g *GA) Run(p Evaluator[float64], budget int, rng *rand.Rand) Solution[float64] {
	b := newBudgeted(p, budget)
	lower, upper := p.LowerBounds(), p.UpperBounds()
	rate := g.MutationRate
	if rate <= 0 {
		rate = 1 / float64(max(p.Dimension(), 1))
	}
	popSize := max(g.PopSize, 2)

	population := make([]Solution[float64], 0, popSize)
	for len(population) < popSize && !b.done() {
		population = append(population, b.evaluate(sample(rng, lower, upper)))
	}

	for !b.done() {
		offspring := make([]Solution[float64], 0, popSize)
		for len(offspring) < popSize && !b.done() {
			parent1 := g.tournament(b, population, rng)
			parent2 := g.tournament(b, population, rng)

			child1, child2 := g.crossover(parent1.X, parent2.X, lower, upper, rng)
			mutate(child1, rate, lower, upper, rng)
			mutate(child2, rate, lower, upper, rng)

			offspring = append(offspring, b.evaluate(child1))
			if len(offspring) < popSize && !b.done() {
				offspring = append(offspring, b.evaluate(child2))
			}
		}

		combined := append(population, offspring...)
		slices.SortStableFunc(combined, func(x, y Solution[float64]) int {
			switch {
			case b.better(x, y):
				return -1
			case b.better(y, x):
				return 1
			}
			return 0
		})
		population = combined[:min(popSize, len(combined))]
	}
	return b.best
}

// tournament picks the better of two uniformly drawn individuals.
func (g *GA) tournament(b *budgeted[float64], population []Solution[float64], rng *rand.Rand) Solution[float64] {
	best := population[rng.IntN(len(population))]
	contestant := population[rng.IntN(len(population))]
	if b.better(contestant, best) {
		return contestant
	}
	return best
}

// crossover performs SBX (Simulated Binary Crossover) with distribution
// index 2 and clamps the children into the box.
func (g *GA) crossover(p1, p2, lower, upper []float64, rng *rand.Rand) ([]float64, []float64) {
	child1 := slices.Clone(p1)
	child2 := slices.Clone(p2)
	if rng.Float64() >= g.CrossoverRate {
		return child1, child2
	}
	for i := range p1 {
		var beta float64
		if rng.Float64() <= 0.5 {
			beta = math.Pow(2*rng.Float64(), 1.0/3.0)
		} else {
			beta = math.Pow(1.0/(2*(1.0-rng.Float64())), 1.0/3.0)
		}
		child1[i] = clamp(0.5*((1+beta)*p1[i]+(1-beta)*p2[i]), lower[i], upper[i])
		child2[i] = clamp(0.5*((1-beta)*p1[i]+(1+beta)*p2[i]), lower[i], upper[i])
	}
	return child1, child2
}

// mutate performs polynomial mutation in place.
func mutate(x []float64, rate float64, lower, upper []float64, rng *rand.Rand) {
	for i := range x {
		if rng.Float64() >= rate {
			continue
		}
		var delta float64
		if rng.Float64() <= 0.5 {
			delta = math.Pow(2*rng.Float64(), 1.0/3.0) - 1
		} else {
			delta = 1 - math.Pow(2*(1-rng.Float64()), 1.0/3.0)
		}
		x[i] = clamp(x[i]+delta*(upper[i]-lower[i]), lower[i], upper[i])
	}
}
