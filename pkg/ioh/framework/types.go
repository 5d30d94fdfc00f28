package framework

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Variable is the set of input types a problem can be defined over: integers
// for pseudo-Boolean problems and floats for continuous ones.
type Variable interface {
	constraints.Integer | constraints.Float
}

// OptimizationType is the direction in which objective values improve.
type OptimizationType int

const (
	Minimization OptimizationType = iota
	Maximization
)

func (t OptimizationType) String() string {
	switch t {
	case Minimization:
		return "minimization"
	case Maximization:
		return "maximization"
	default:
		return fmt.Sprintf("OptimizationType(%d)", int(t))
	}
}

// Instance identifies one transformed variant of a problem. RawOptimum is the
// untransformed objective value at the best known variables, or nil when the
// optimum is not known.
type Instance struct {
	ProblemID  int
	InstanceID int
	Dimension  int
	Type       OptimizationType
	RawOptimum *float64
}

// Definition describes the contract a concrete benchmark function needs to
// implement. The generic problem engine owns dimension, bounds, counters and
// best-so-far state; a Definition only supplies the math.
type Definition[T Variable] interface {
	// Evaluate returns the raw objective value of already transformed variables.
	Evaluate(x []T) float64

	// TransformVariables maps the caller's variables into the space the raw
	// function is evaluated in. It must not modify x.
	TransformVariables(x, lower, upper []T, inst Instance) ([]T, error)

	// TransformObjective maps a raw objective value to the value the
	// algorithm under test observes.
	TransformObjective(x []T, y float64, inst Instance) (float64, error)
}

// Preparer is implemented by definitions that precompute data depending on
// dimension or instance (weights, targets). Prepare runs before the optimum is
// recalculated.
type Preparer interface {
	Prepare(dimension, instanceID int)
}

// OptimumCustomizer is implemented by definitions whose optimum is known but
// cannot be derived from best known variables.
type OptimumCustomizer interface {
	CustomizeOptimum(inst Instance, optimum []float64) []float64
}

// ProblemInfo is the identity of a tracked problem as seen by loggers.
type ProblemInfo struct {
	ID         int
	Name       string
	Suite      string
	Dimension  int
	InstanceID int
	Type       OptimizationType
}

// LogInfo is the fixed-format record handed to loggers after every evaluation.
type LogInfo struct {
	Evaluations      int
	Y                float64
	BestY            float64
	TransformedY     float64
	BestTransformedY float64
}
