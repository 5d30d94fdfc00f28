// Package benchmarks holds the concrete test functions. Each function is a
// plain struct implementing framework.Definition; the constructors wrap it in
// the generic problem engine with the function's bounds, direction and best
// known variables.
package benchmarks

import (
	"github.com/go-logr/logr"

	"github.com/mihai-snyk/iohbench/pkg/ioh/framework"
	"github.com/mihai-snyk/iohbench/pkg/ioh/transformation"
)

const (
	PBOSuite  = "PBO"
	BBOBSuite = "BBOB"
)

// Options are shared by every benchmark constructor.
type Options struct {
	InstanceID int
	Dimension  int

	// Engine is shared between problems to reuse memoized transformation
	// parameters. A nil Engine gets a private one.
	Engine *transformation.Engine
	Logger logr.Logger
}

func (o Options) engine() *transformation.Engine {
	if o.Engine == nil {
		return transformation.NewEngine()
	}
	return o.Engine
}

// discrete transforms pseudo-Boolean and integer variables.
type discrete struct {
	engine *transformation.Engine
}

func (d discrete) TransformVariables(x, lower, upper []int, inst framework.Instance) ([]int, error) {
	return d.engine.IntegerVariables(x, lower, upper, inst.ProblemID, inst.InstanceID)
}

func (d discrete) TransformObjective(_ []int, y float64, inst framework.Instance) (float64, error) {
	return d.engine.Objective(y, inst)
}

// continuous transforms real-valued variables.
type continuous struct {
	engine *transformation.Engine
}

func (c continuous) TransformVariables(x, lower, upper []float64, inst framework.Instance) ([]float64, error) {
	return c.engine.ContinuousVariables(x, lower, upper, inst.ProblemID, inst.InstanceID)
}

func (c continuous) TransformObjective(_ []float64, y float64, inst framework.Instance) (float64, error) {
	return c.engine.Objective(y, inst)
}

func toFloats(x []int) []float64 {
	f := make([]float64, len(x))
	for i, v := range x {
		f[i] = float64(v)
	}
	return f
}
