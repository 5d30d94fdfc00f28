package benchmarks

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"k8s.io/utils/ptr"

	"github.com/mihai-snyk/iohbench/pkg/ioh/framework"
	"github.com/mihai-snyk/iohbench/pkg/ioh/problem"
)

// Continuous problem ids.
const (
	SphereID    = 1
	EllipsoidID = 2
	RastriginID = 3
)

const (
	bbobLower = -5.0
	bbobUpper = 5.0

	// ellipsoidCondition is the ratio between the largest and smallest axis weight.
	ellipsoidCondition = 1e6
)

func newBBOB(def framework.Definition[float64], id int, name string, opts Options) (*problem.Problem[float64], error) {
	return problem.New(def, problem.Config[float64]{
		ID:                id,
		Name:              name,
		Suite:             BBOBSuite,
		Type:              framework.Minimization,
		InstanceID:        opts.InstanceID,
		Dimension:         opts.Dimension,
		LowerBound:        bbobLower,
		UpperBound:        bbobUpper,
		BestKnownVariable: ptr.To(0.0),
		Logger:            opts.Logger,
	})
}

// SphereFunc is the squared norm of x.
type SphereFunc struct{ continuous }

func (SphereFunc) Evaluate(x []float64) float64 { return floats.Dot(x, x) }

func NewSphere(opts Options) (*problem.Problem[float64], error) {
	return newBBOB(SphereFunc{continuous{opts.engine()}}, SphereID, "Sphere", opts)
}

// EllipsoidFunc is a separable quadratic with axis weights spread
// geometrically between 1 and ellipsoidCondition.
type EllipsoidFunc struct {
	continuous
	weights []float64
}

func (e *EllipsoidFunc) Prepare(dimension, _ int) {
	e.weights = make([]float64, dimension)
	for i := range e.weights {
		if dimension == 1 {
			e.weights[i] = 1
			continue
		}
		e.weights[i] = math.Pow(ellipsoidCondition, float64(i)/float64(dimension-1))
	}
}

func (e *EllipsoidFunc) Evaluate(x []float64) float64 {
	sq := make([]float64, len(x))
	floats.MulTo(sq, x, x)
	return floats.Dot(e.weights[:len(x)], sq)
}

func NewEllipsoid(opts Options) (*problem.Problem[float64], error) {
	return newBBOB(&EllipsoidFunc{continuous: continuous{opts.engine()}}, EllipsoidID, "Ellipsoid", opts)
}

// RastriginFunc is the sphere overlaid with a regular cosine grid of local
// optima.
type RastriginFunc struct{ continuous }

func (RastriginFunc) Evaluate(x []float64) float64 {
	var cos float64
	for _, v := range x {
		cos += math.Cos(2 * math.Pi * v)
	}
	return 10*(float64(len(x))-cos) + floats.Dot(x, x)
}

func NewRastrigin(opts Options) (*problem.Problem[float64], error) {
	return newBBOB(RastriginFunc{continuous{opts.engine()}}, RastriginID, "Rastrigin", opts)
}
