package benchmarks

import (
	"gonum.org/v1/gonum/floats"
	"k8s.io/utils/ptr"

	"github.com/mihai-snyk/iohbench/pkg/ioh/framework"
	"github.com/mihai-snyk/iohbench/pkg/ioh/problem"
)

// Pseudo-Boolean problem ids.
const (
	OneMaxID                = 1
	LeadingOnesID           = 2
	LinearID                = 3
	OneMaxNeutralityID      = 6
	OneMaxRuggedness1ID     = 8
	LeadingOnesNeutralityID = 13
	LABSID                  = 18
)

// neutralityBlock is the block size used by the neutrality variants.
const neutralityBlock = 3

func newPBO(def framework.Definition[int], id int, name string, best *int, opts Options) (*problem.Problem[int], error) {
	return problem.New(def, problem.Config[int]{
		ID:                id,
		Name:              name,
		Suite:             PBOSuite,
		Type:              framework.Maximization,
		InstanceID:        opts.InstanceID,
		Dimension:         opts.Dimension,
		LowerBound:        0,
		UpperBound:        1,
		BestKnownVariable: best,
		Logger:            opts.Logger,
	})
}

func oneMax(x []int) float64 {
	return floats.Sum(toFloats(x))
}

func leadingOnes(x []int) float64 {
	for i, v := range x {
		if v != 1 {
			return float64(i)
		}
	}
	return float64(len(x))
}

// OneMaxFunc counts the ones in a bit string.
type OneMaxFunc struct{ discrete }

func (OneMaxFunc) Evaluate(x []int) float64 { return oneMax(x) }

func NewOneMax(opts Options) (*problem.Problem[int], error) {
	return newPBO(OneMaxFunc{discrete{opts.engine()}}, OneMaxID, "OneMax", ptr.To(1), opts)
}

// LeadingOnesFunc is the length of the longest prefix of ones.
type LeadingOnesFunc struct{ discrete }

func (LeadingOnesFunc) Evaluate(x []int) float64 { return leadingOnes(x) }

func NewLeadingOnes(opts Options) (*problem.Problem[int], error) {
	return newPBO(LeadingOnesFunc{discrete{opts.engine()}}, LeadingOnesID, "LeadingOnes", ptr.To(1), opts)
}

// LinearFunc weighs bit i with i+1.
type LinearFunc struct {
	discrete
	weights []float64
}

func (l *LinearFunc) Prepare(dimension, _ int) {
	l.weights = make([]float64, dimension)
	floats.AddConst(1, l.weights)
	floats.CumSum(l.weights, l.weights)
}

func (l *LinearFunc) Evaluate(x []int) float64 {
	return floats.Dot(l.weights[:len(x)], toFloats(x))
}

func NewLinear(opts Options) (*problem.Problem[int], error) {
	return newPBO(&LinearFunc{discrete: discrete{opts.engine()}}, LinearID, "Linear", ptr.To(1), opts)
}

// OneMaxNeutralityFunc is OneMax over majority votes of bit blocks.
type OneMaxNeutralityFunc struct{ discrete }

func (OneMaxNeutralityFunc) Evaluate(x []int) float64 {
	return oneMax(Neutrality(x, neutralityBlock))
}

func NewOneMaxNeutrality(opts Options) (*problem.Problem[int], error) {
	return newPBO(OneMaxNeutralityFunc{discrete{opts.engine()}}, OneMaxNeutralityID, "OneMax_Neutrality", ptr.To(1), opts)
}

// OneMaxRuggedness1Func is OneMax with pairs of fitness levels merged.
type OneMaxRuggedness1Func struct{ discrete }

func (OneMaxRuggedness1Func) Evaluate(x []int) float64 {
	return Ruggedness1(oneMax(x), len(x))
}

func NewOneMaxRuggedness1(opts Options) (*problem.Problem[int], error) {
	return newPBO(OneMaxRuggedness1Func{discrete{opts.engine()}}, OneMaxRuggedness1ID, "OneMax_Ruggedness1", ptr.To(1), opts)
}

// LeadingOnesNeutralityFunc is LeadingOnes over majority votes of bit blocks.
type LeadingOnesNeutralityFunc struct{ discrete }

func (LeadingOnesNeutralityFunc) Evaluate(x []int) float64 {
	return leadingOnes(Neutrality(x, neutralityBlock))
}

func NewLeadingOnesNeutrality(opts Options) (*problem.Problem[int], error) {
	return newPBO(LeadingOnesNeutralityFunc{discrete{opts.engine()}}, LeadingOnesNeutralityID, "LeadingOnes_Neutrality", ptr.To(1), opts)
}

// LABSFunc is the merit factor of the spin sequence 2x-1, the low
// autocorrelation binary sequence problem. Its optimum is unknown for most
// dimensions.
type LABSFunc struct{ discrete }

func (LABSFunc) Evaluate(x []int) float64 {
	n := len(x)
	s := make([]float64, n)
	for i, v := range x {
		s[i] = float64(2*v - 1)
	}
	var energy float64
	for k := 1; k < n; k++ {
		c := floats.Dot(s[:n-k], s[k:])
		energy += c * c
	}
	if energy == 0 {
		// A single spin has no aperiodic autocorrelation.
		return 0
	}
	return float64(n*n) / (2 * energy)
}

func NewLABS(opts Options) (*problem.Problem[int], error) {
	return newPBO(LABSFunc{discrete{opts.engine()}}, LABSID, "LABS", nil, opts)
}
