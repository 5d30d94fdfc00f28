// Package transformation derives per-instance variants of a benchmark
// function. Every transformation is a pure function of (problem id, instance
// id, dimension): calling it twice yields bit-identical results, which the
// optimum recalculation and cross-run comparisons rely on.
package transformation

import (
	"errors"
	"fmt"
	"math"

	"github.com/patrickmn/go-cache"

	"github.com/mihai-snyk/iohbench/pkg/ioh/framework"
	"github.com/mihai-snyk/iohbench/pkg/ioh/random"
)

// ErrInvalidInstance is returned for instance ids outside [MinInstance, MaxInstance].
var ErrInvalidInstance = errors.New("invalid instance id")

const (
	MinInstance = 0
	MaxInstance = 100

	// Instances 1..firstHalfEnd permute and flip variables, the rest shift them.
	firstHalfEnd = 50

	// objectiveSeedOffset separates the objective stream from the variable
	// stream of the same (problem, instance) pair. Problem ids stay below it.
	objectiveSeedOffset = 5000
)

// Range is the transformation family an instance id belongs to.
type Range int

const (
	Identity Range = iota
	PermuteFlip
	Shift
)

func (r Range) String() string {
	switch r {
	case Identity:
		return "identity"
	case PermuteFlip:
		return "permute-flip"
	case Shift:
		return "shift"
	default:
		return fmt.Sprintf("Range(%d)", int(r))
	}
}

// Classify returns the transformation family of instanceID.
func Classify(instanceID int) (Range, error) {
	switch {
	case instanceID < MinInstance || instanceID > MaxInstance:
		return Identity, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidInstance, instanceID, MinInstance, MaxInstance)
	case instanceID == 0:
		return Identity, nil
	case instanceID <= firstHalfEnd:
		return PermuteFlip, nil
	default:
		return Shift, nil
	}
}

// ValidateInstance returns an error wrapping ErrInvalidInstance if instanceID
// is not supported.
func ValidateInstance(instanceID int) error {
	_, err := Classify(instanceID)
	return err
}

// Affine is the objective map y' = A*y + B.
type Affine struct {
	A float64
	B float64
}

// Apply returns A*y + B. The product is rounded before the addition so the
// result never depends on fused multiply-add support.
func (a Affine) Apply(y float64) float64 {
	return float64(a.A*y) + a.B
}

// variableParams holds the random draws of one (problem, instance, dimension)
// triple. Offsets are stored as unit draws and scaled by the domain width
// when applied, so they do not depend on the bounds.
type variableParams struct {
	perm    []int
	flip    []bool
	offsets []float64
}

type objectiveParams struct {
	a     float64
	shift float64
}

// Engine applies instance transformations and memoizes their derived
// parameters. An Engine is safe for concurrent use.
type Engine struct {
	cache *cache.Cache
}

func NewEngine() *Engine {
	return &Engine{cache: cache.New(cache.NoExpiration, 0)}
}

func (e *Engine) variables(problemID, instanceID, n int, r Range) variableParams {
	key := fmt.Sprintf("vars/%d/%d/%d", problemID, instanceID, n)
	if v, ok := e.cache.Get(key); ok {
		return v.(variableParams)
	}

	s := random.NewStream(random.Seed(problemID, instanceID))
	var p variableParams
	switch r {
	case PermuteFlip:
		p.perm = make([]int, n)
		for i := range p.perm {
			p.perm[i] = i
		}
		for i, u := range s.UniformN(n) {
			t := int(math.Floor(u * float64(n)))
			if t >= n {
				t = n - 1
			}
			p.perm[i], p.perm[t] = p.perm[t], p.perm[i]
		}
		p.flip = make([]bool, n)
		for i, u := range s.UniformN(n) {
			p.flip[i] = math.Floor(2*u) == 1
		}
	case Shift:
		p.offsets = s.UniformN(n)
	}
	e.cache.Set(key, p, cache.NoExpiration)
	return p
}

func permuteFlip[T framework.Variable](p variableParams, x, lower, upper []T) []T {
	y := make([]T, len(x))
	for i := range y {
		y[i] = x[p.perm[i]]
	}
	for i := range y {
		if p.flip[i] {
			y[i] = lower[i] + upper[i] - y[i]
		}
	}
	return y
}

// IntegerVariables transforms integer (including binary) variables. On the
// permute-flip range a flip reflects a value inside its bounds, which is an
// XOR for {0, 1} domains. On the shift range every coordinate is moved by an
// offset modulo the domain size.
func (e *Engine) IntegerVariables(x, lower, upper []int, problemID, instanceID int) ([]int, error) {
	r, err := Classify(instanceID)
	if err != nil {
		return nil, err
	}
	switch r {
	case PermuteFlip:
		return permuteFlip(e.variables(problemID, instanceID, len(x), r), x, lower, upper), nil
	case Shift:
		p := e.variables(problemID, instanceID, len(x), r)
		y := make([]int, len(x))
		for i := range y {
			width := upper[i] - lower[i] + 1
			if width <= 0 {
				y[i] = x[i]
				continue
			}
			o := int(math.Floor(p.offsets[i] * float64(width)))
			y[i] = lower[i] + mod(x[i]-lower[i]+o, width)
		}
		return y, nil
	default:
		return append([]int(nil), x...), nil
	}
}

// ContinuousVariables transforms real-valued variables. The permute-flip
// range reflects selected coordinates through the center of their box, the
// shift range moves every coordinate by an offset modulo the box width.
func (e *Engine) ContinuousVariables(x, lower, upper []float64, problemID, instanceID int) ([]float64, error) {
	r, err := Classify(instanceID)
	if err != nil {
		return nil, err
	}
	switch r {
	case PermuteFlip:
		return permuteFlip(e.variables(problemID, instanceID, len(x), r), x, lower, upper), nil
	case Shift:
		p := e.variables(problemID, instanceID, len(x), r)
		y := make([]float64, len(x))
		for i := range y {
			width := upper[i] - lower[i]
			if width <= 0 {
				y[i] = x[i]
				continue
			}
			v := math.Mod(x[i]-lower[i]+p.offsets[i]*width, width)
			if v < 0 {
				v += width
			}
			y[i] = lower[i] + v
		}
		return y, nil
	default:
		return append([]float64(nil), x...), nil
	}
}

// ObjectiveMap returns the affine objective map of inst. Instance 0 is the
// identity. For minimization problems with a known raw optimum the shift is
// chosen so the optimum maps exactly to zero.
func (e *Engine) ObjectiveMap(inst framework.Instance) (Affine, error) {
	r, err := Classify(inst.InstanceID)
	if err != nil {
		return Affine{}, err
	}
	if r == Identity {
		return Affine{A: 1}, nil
	}

	key := fmt.Sprintf("obj/%d/%d", inst.ProblemID, inst.InstanceID)
	var p objectiveParams
	if v, ok := e.cache.Get(key); ok {
		p = v.(objectiveParams)
	} else {
		u := random.Uniform(2, random.Seed(inst.ProblemID, inst.InstanceID)+objectiveSeedOffset)
		p = objectiveParams{a: 1 + 4*u[0], shift: 2000*u[1] - 1000}
		e.cache.Set(key, p, cache.NoExpiration)
	}

	if inst.Type == framework.Minimization && inst.RawOptimum != nil {
		return Affine{A: p.a, B: -(p.a * *inst.RawOptimum)}, nil
	}
	return Affine{A: p.a, B: p.shift}, nil
}

// Objective applies the objective map of inst to y.
func (e *Engine) Objective(y float64, inst framework.Instance) (float64, error) {
	m, err := e.ObjectiveMap(inst)
	if err != nil {
		return 0, err
	}
	return m.Apply(y), nil
}

func mod(a, n int) int {
	m := a % n
	if m < 0 {
		m += n
	}
	return m
}
