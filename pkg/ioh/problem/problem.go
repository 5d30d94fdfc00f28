// Package problem implements the generic evaluation engine shared by every
// benchmark. A Problem owns dimension, bounds, counters and best-so-far state
// and delegates the math to a framework.Definition.
package problem

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"k8s.io/klog/v2"

	"github.com/mihai-snyk/iohbench/pkg/ioh/framework"
	"github.com/mihai-snyk/iohbench/pkg/ioh/transformation"
)

var (
	// ErrMultiObjectiveUnsupported is returned when an optimum is requested for
	// a problem with more than one objective.
	ErrMultiObjectiveUnsupported = errors.New("multi-objective optimum calculation is not supported")

	// ErrBoundsLength reports bounds whose length no longer matches the
	// dimension, typically explicit bounds left over from a dimension change.
	ErrBoundsLength = errors.New("bounds length does not match dimension")

	// ErrInvalidDimension is returned for dimensions below one.
	ErrInvalidDimension = errors.New("invalid dimension")
)

// Config is the construction-time description of a Problem.
type Config[T framework.Variable] struct {
	ID    int
	Name  string
	Suite string
	Type  framework.OptimizationType

	// NumberOfObjectives defaults to 1.
	NumberOfObjectives int

	InstanceID int
	Dimension  int

	// LowerBound and UpperBound are scalar defaults, rebuilt on every
	// dimension change until replaced by explicit vectors.
	LowerBound T
	UpperBound T

	// BestKnownVariable is the scalar default of the best known solution, nil
	// when the optimum is not known.
	BestKnownVariable *T

	// Logger defaults to klog.Background().
	Logger logr.Logger
}

// Best is a best-so-far objective value and the evaluation it was found at.
type Best struct {
	Y          float64
	Evaluation int
}

// vector is a per-variable sequence that remembers whether it was built from
// a scalar, in which case it follows dimension changes.
type vector[T framework.Variable] struct {
	values []T
	scalar bool
	fill   T
}

func scalarVector[T framework.Variable](v T, n int) vector[T] {
	return vector[T]{values: framework.Fill(v, n), scalar: true, fill: v}
}

func explicitVector[T framework.Variable](v []T) vector[T] {
	return vector[T]{values: append([]T(nil), v...)}
}

func (v vector[T]) resize(n int) vector[T] {
	if v.scalar {
		return scalarVector(v.fill, n)
	}
	return v
}

// Problem is one benchmark instance of a fixed dimension. A Problem is not
// safe for concurrent use.
type Problem[T framework.Variable] struct {
	def    framework.Definition[T]
	logger logr.Logger

	id         int
	name       string
	suite      string
	objectives int
	instanceID int
	dimension  int
	optType    framework.OptimizationType

	lower    vector[T]
	upper    vector[T]
	bestVars vector[T]
	hasBest  bool

	optimum    []float64
	hasOptimum bool
	rawOptimum *float64

	evaluations     int
	rawY            float64
	transformedY    float64
	bestRaw         Best
	bestTransformed Best
	optimumFound    bool
}

// New builds a Problem for def. It validates the instance id and dimension,
// runs the optional preparation hook and calculates the optimum.
func New[T framework.Variable](def framework.Definition[T], cfg Config[T]) (*Problem[T], error) {
	if cfg.Dimension < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, cfg.Dimension)
	}
	if err := transformation.ValidateInstance(cfg.InstanceID); err != nil {
		return nil, err
	}
	if cfg.NumberOfObjectives == 0 {
		cfg.NumberOfObjectives = 1
	}
	logger := cfg.Logger
	if logger.GetSink() == nil {
		logger = klog.Background()
	}

	p := &Problem[T]{
		def:        def,
		logger:     logger,
		id:         cfg.ID,
		name:       cfg.Name,
		suite:      cfg.Suite,
		objectives: cfg.NumberOfObjectives,
		instanceID: cfg.InstanceID,
		dimension:  cfg.Dimension,
		optType:    cfg.Type,
		lower:      scalarVector(cfg.LowerBound, cfg.Dimension),
		upper:      scalarVector(cfg.UpperBound, cfg.Dimension),
	}
	if cfg.BestKnownVariable != nil {
		p.bestVars = scalarVector(*cfg.BestKnownVariable, cfg.Dimension)
		p.hasBest = true
	}
	p.resetState()
	if err := p.refresh(); err != nil {
		return nil, err
	}
	p.logger.V(5).Info("Created problem", "problem", p, "type", p.optType)
	return p, nil
}

func (p *Problem[T]) resetState() {
	worst := framework.Worst(p.optType)
	p.evaluations = 0
	p.rawY, p.transformedY = worst, worst
	p.bestRaw = Best{Y: worst}
	p.bestTransformed = Best{Y: worst}
	p.optimumFound = false
}

// refresh runs the preparation hook and recalculates the optimum.
func (p *Problem[T]) refresh() error {
	if pr, ok := p.def.(framework.Preparer); ok {
		pr.Prepare(p.dimension, p.instanceID)
	}
	return p.CalcOptimal()
}

func (p *Problem[T]) mustRefresh() {
	if err := p.refresh(); err != nil {
		panic(fmt.Sprintf("problem %s: recalculating optimum: %v", p, err))
	}
}

func (p *Problem[T]) instance() framework.Instance {
	return framework.Instance{
		ProblemID:  p.id,
		InstanceID: p.instanceID,
		Dimension:  p.dimension,
		Type:       p.optType,
		RawOptimum: p.rawOptimum,
	}
}

// Evaluate returns the transformed objective value of x.
//
// An input of the wrong length is not an error: a warning is logged, the
// evaluation is still counted and the worst value for the optimization type
// is returned. Evaluate panics if the bounds no longer match the dimension.
func (p *Problem[T]) Evaluate(x []T) float64 {
	p.evaluations++

	if len(x) != p.dimension {
		p.logger.Info("Dimension of solution is incorrect", "problem", p, "got", len(x), "want", p.dimension)
		worst := framework.Worst(p.optType)
		p.rawY, p.transformedY = worst, worst
		return worst
	}
	if err := p.checkBounds(); err != nil {
		panic(err)
	}

	inst := p.instance()
	tx, err := p.def.TransformVariables(x, p.lower.values, p.upper.values, inst)
	if err != nil {
		panic(fmt.Errorf("problem %s: transforming variables: %w", p, err))
	}
	p.rawY = p.def.Evaluate(tx)
	p.transformedY, err = p.def.TransformObjective(tx, p.rawY, inst)
	if err != nil {
		panic(fmt.Errorf("problem %s: transforming objective: %w", p, err))
	}

	if framework.Better(p.transformedY, p.bestTransformed.Y, p.optType) {
		p.bestTransformed = Best{Y: p.transformedY, Evaluation: p.evaluations}
		p.bestRaw = Best{Y: p.rawY, Evaluation: p.evaluations}
	}
	if p.hasOptimum && framework.EqualObjectives([]float64{p.transformedY}, p.optimum[:1]) {
		p.optimumFound = true
	}
	return p.transformedY
}

func (p *Problem[T]) checkBounds() error {
	if len(p.lower.values) != p.dimension || len(p.upper.values) != p.dimension {
		return fmt.Errorf("%w: problem %s has %d lower and %d upper bounds",
			ErrBoundsLength, p, len(p.lower.values), len(p.upper.values))
	}
	return nil
}

// CalcOptimal recalculates the optimum. With best known variables of the
// right length the optimum is their untransformed raw value passed through
// the objective transformation. Otherwise it is the unreachable sentinel,
// possibly overridden by an OptimumCustomizer.
func (p *Problem[T]) CalcOptimal() error {
	if p.objectives > 1 {
		return fmt.Errorf("%w: problem %s has %d objectives", ErrMultiObjectiveUnsupported, p, p.objectives)
	}

	if p.hasBest && len(p.bestVars.values) == p.dimension {
		raw := p.def.Evaluate(append([]T(nil), p.bestVars.values...))
		p.rawOptimum = &raw
		y, err := p.def.TransformObjective(p.bestVars.values, raw, p.instance())
		if err != nil {
			return fmt.Errorf("problem %s: transforming optimum: %w", p, err)
		}
		p.optimum = []float64{y}
		p.hasOptimum = true
		p.logger.V(5).Info("Calculated optimum", "problem", p, "optimum", y)
		return nil
	}

	p.rawOptimum = nil
	unreachable := framework.Unreachable(p.optType)
	optimum := framework.Fill(unreachable, p.objectives)
	if c, ok := p.def.(framework.OptimumCustomizer); ok {
		optimum = c.CustomizeOptimum(p.instance(), optimum)
	}
	p.optimum = optimum
	p.hasOptimum = len(optimum) > 0 && optimum[0] != unreachable
	return nil
}

// Reset starts a new run: counters and best-so-far state are cleared and the
// optimum is recalculated.
func (p *Problem[T]) Reset() {
	p.resetState()
	p.mustRefresh()
}

// SetDimension changes the number of variables. Bounds and best known
// variables built from scalars follow the new dimension; explicit vectors do
// not, in which case ErrBoundsLength is returned and Evaluate refuses to run
// until the bounds are replaced.
func (p *Problem[T]) SetDimension(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidDimension, n)
	}
	p.dimension = n
	p.lower = p.lower.resize(n)
	p.upper = p.upper.resize(n)
	p.bestVars = p.bestVars.resize(n)
	if err := p.refresh(); err != nil {
		return err
	}
	return p.checkBounds()
}

// SetInstanceID switches to another instance of the same function.
func (p *Problem[T]) SetInstanceID(id int) error {
	if err := transformation.ValidateInstance(id); err != nil {
		return err
	}
	p.instanceID = id
	p.lower = p.lower.resize(p.dimension)
	p.upper = p.upper.resize(p.dimension)
	p.bestVars = p.bestVars.resize(p.dimension)
	return p.refresh()
}

func (p *Problem[T]) SetBestKnownVariable(v T) {
	p.bestVars = scalarVector(v, p.dimension)
	p.hasBest = true
	p.mustRefresh()
}

func (p *Problem[T]) SetBestKnownVariables(v []T) {
	p.bestVars = explicitVector(v)
	p.hasBest = true
	p.mustRefresh()
}

func (p *Problem[T]) SetLowerBound(v T)    { p.lower = scalarVector(v, p.dimension) }
func (p *Problem[T]) SetLowerBounds(v []T) { p.lower = explicitVector(v) }
func (p *Problem[T]) SetUpperBound(v T)    { p.upper = scalarVector(v, p.dimension) }
func (p *Problem[T]) SetUpperBounds(v []T) { p.upper = explicitVector(v) }

// SetOptimizationType changes the direction of improvement. Best-so-far state
// is re-initialized and the optimum recalculated.
func (p *Problem[T]) SetOptimizationType(t framework.OptimizationType) {
	p.optType = t
	worst := framework.Worst(t)
	p.bestRaw = Best{Y: worst, Evaluation: 0}
	p.bestTransformed = Best{Y: worst, Evaluation: 0}
	p.mustRefresh()
}

// SetOptimum overrides the calculated optimum.
func (p *Problem[T]) SetOptimum(v ...float64) {
	p.optimum = append([]float64(nil), v...)
	p.hasOptimum = len(v) > 0
}

func (p *Problem[T]) ID() int                                      { return p.id }
func (p *Problem[T]) Name() string                                 { return p.name }
func (p *Problem[T]) Suite() string                                { return p.suite }
func (p *Problem[T]) Dimension() int                               { return p.dimension }
func (p *Problem[T]) InstanceID() int                              { return p.instanceID }
func (p *Problem[T]) NumberOfObjectives() int                      { return p.objectives }
func (p *Problem[T]) OptimizationType() framework.OptimizationType { return p.optType }
func (p *Problem[T]) Evaluations() int                             { return p.evaluations }
func (p *Problem[T]) RawY() float64                                { return p.rawY }
func (p *Problem[T]) TransformedY() float64                        { return p.transformedY }
func (p *Problem[T]) BestSoFarRaw() Best                           { return p.bestRaw }
func (p *Problem[T]) BestSoFarTransformed() Best                   { return p.bestTransformed }
func (p *Problem[T]) OptimumFound() bool                           { return p.optimumFound }
func (p *Problem[T]) HasOptimum() bool                             { return p.hasOptimum }

func (p *Problem[T]) LowerBounds() []T { return append([]T(nil), p.lower.values...) }
func (p *Problem[T]) UpperBounds() []T { return append([]T(nil), p.upper.values...) }

func (p *Problem[T]) BestKnownVariables() []T {
	if !p.hasBest {
		return nil
	}
	return append([]T(nil), p.bestVars.values...)
}

func (p *Problem[T]) Optimum() []float64 { return append([]float64(nil), p.optimum...) }

// LogInfo returns the record loggers persist after an evaluation.
func (p *Problem[T]) LogInfo() framework.LogInfo {
	return framework.LogInfo{
		Evaluations:      p.evaluations,
		Y:                p.rawY,
		BestY:            p.bestRaw.Y,
		TransformedY:     p.transformedY,
		BestTransformedY: p.bestTransformed.Y,
	}
}

// COCOLogInfo is LogInfo with the raw columns replaced by the distance of the
// transformed values to the optimum. Without a known optimum it is LogInfo.
func (p *Problem[T]) COCOLogInfo() framework.LogInfo {
	info := p.LogInfo()
	if p.hasOptimum {
		info.Y = p.transformedY - p.optimum[0]
		info.BestY = p.bestTransformed.Y - p.optimum[0]
	}
	return info
}

// Info is the identity loggers track.
func (p *Problem[T]) Info() framework.ProblemInfo {
	return framework.ProblemInfo{
		ID:         p.id,
		Name:       p.name,
		Suite:      p.suite,
		Dimension:  p.dimension,
		InstanceID: p.instanceID,
		Type:       p.optType,
	}
}

func (p *Problem[T]) String() string {
	return fmt.Sprintf("f%d_d%d_i%d", p.id, p.dimension, p.instanceID)
}
