// Package suite groups benchmark functions into catalogues that can be
// iterated over problem ids, instances and dimensions.
package suite

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/util/sets"
	"k8s.io/klog/v2"

	"github.com/mihai-snyk/iohbench/pkg/ioh/benchmarks"
	"github.com/mihai-snyk/iohbench/pkg/ioh/framework"
	"github.com/mihai-snyk/iohbench/pkg/ioh/problem"
	"github.com/mihai-snyk/iohbench/pkg/ioh/transformation"
)

// ErrUnknownProblem is returned for problem ids a suite has no factory for.
var ErrUnknownProblem = errors.New("unknown problem id")

// Factory builds one problem of a suite.
type Factory[T framework.Variable] func(benchmarks.Options) (*problem.Problem[T], error)

// Selection picks the problems a suite iterates over. Problems are visited in
// the order given, and for each problem every dimension with every instance.
type Selection struct {
	ProblemIDs  []int
	InstanceIDs []int
	Dimensions  []int
}

// Suite is a validated mapping from problem id to factory. Problems created
// by the same Suite share one transformation engine.
type Suite[T framework.Variable] struct {
	name      string
	factories map[int]Factory[T]
	engine    *transformation.Engine
	logger    logr.Logger
}

func New[T framework.Variable](name string, factories map[int]Factory[T], logger logr.Logger) *Suite[T] {
	if logger.GetSink() == nil {
		logger = klog.Background()
	}
	return &Suite[T]{
		name:      name,
		factories: factories,
		engine:    transformation.NewEngine(),
		logger:    logger,
	}
}

// PBO is the pseudo-Boolean suite.
func PBO(logger logr.Logger) *Suite[int] {
	return New(benchmarks.PBOSuite, map[int]Factory[int]{
		benchmarks.OneMaxID:                benchmarks.NewOneMax,
		benchmarks.LeadingOnesID:           benchmarks.NewLeadingOnes,
		benchmarks.LinearID:                benchmarks.NewLinear,
		benchmarks.OneMaxNeutralityID:      benchmarks.NewOneMaxNeutrality,
		benchmarks.OneMaxRuggedness1ID:     benchmarks.NewOneMaxRuggedness1,
		benchmarks.LeadingOnesNeutralityID: benchmarks.NewLeadingOnesNeutrality,
		benchmarks.LABSID:                  benchmarks.NewLABS,
	}, logger)
}

// BBOB is the continuous suite.
func BBOB(logger logr.Logger) *Suite[float64] {
	return New(benchmarks.BBOBSuite, map[int]Factory[float64]{
		benchmarks.SphereID:    benchmarks.NewSphere,
		benchmarks.EllipsoidID: benchmarks.NewEllipsoid,
		benchmarks.RastriginID: benchmarks.NewRastrigin,
	}, logger)
}

func (s *Suite[T]) Name() string { return s.name }

// ProblemIDs returns the ids of the suite in ascending order.
func (s *Suite[T]) ProblemIDs() []int {
	return sets.List(sets.KeySet(s.factories))
}

// Create builds problem id for one instance and dimension.
func (s *Suite[T]) Create(id, instanceID, dimension int) (*problem.Problem[T], error) {
	f, ok := s.factories[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d in suite %s", ErrUnknownProblem, id, s.name)
	}
	p, err := f(benchmarks.Options{
		InstanceID: instanceID,
		Dimension:  dimension,
		Engine:     s.engine,
		Logger:     s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating problem %d of suite %s: %w", id, s.name, err)
	}
	return p, nil
}

// Validate checks every id of sel before any problem is created. An empty
// ProblemIDs selects the whole suite.
func (s *Suite[T]) Validate(sel Selection) error {
	var errs []error
	for _, id := range sel.ProblemIDs {
		if _, ok := s.factories[id]; !ok {
			errs = append(errs, fmt.Errorf("%w: %d in suite %s", ErrUnknownProblem, id, s.name))
		}
	}
	for _, id := range sel.InstanceIDs {
		errs = append(errs, transformation.ValidateInstance(id))
	}
	for _, d := range sel.Dimensions {
		if d < 1 {
			errs = append(errs, fmt.Errorf("%w: %d", problem.ErrInvalidDimension, d))
		}
	}
	return errors.Join(errs...)
}

// Each creates every problem of sel in turn and hands it to fn. Iteration
// stops at the first error.
func (s *Suite[T]) Each(sel Selection, fn func(*problem.Problem[T]) error) error {
	if err := s.Validate(sel); err != nil {
		return err
	}
	ids := sel.ProblemIDs
	if len(ids) == 0 {
		ids = s.ProblemIDs()
	}
	for _, id := range ids {
		for _, d := range sel.Dimensions {
			for _, i := range sel.InstanceIDs {
				p, err := s.Create(id, i, d)
				if err != nil {
					return err
				}
				s.logger.V(4).Info("Visiting problem", "suite", s.name, "problem", p)
				if err := fn(p); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Contains reports whether the suite has a factory for id.
func (s *Suite[T]) Contains(id int) bool {
	_, ok := s.factories[id]
	return ok
}

// ParseProblems expands a range expression over the ids of the suite. Ranges
// skip ids the suite has no factory for; ids listed on their own are kept, so
// Validate still rejects unknown ones.
func (s *Suite[T]) ParseProblems(expr string) ([]int, error) {
	ids := s.ProblemIDs()
	expanded, err := ParseRange(expr, ids[0], ids[len(ids)-1])
	if err != nil {
		return nil, err
	}
	listed := sets.New[int]()
	for _, item := range strings.Split(expr, ",") {
		if id, err := strconv.Atoi(strings.TrimSpace(item)); err == nil {
			listed.Insert(id)
		}
	}
	var out []int
	for _, id := range expanded {
		if s.Contains(id) || listed.Has(id) {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %q selects no problem of suite %s", ErrUnknownProblem, expr, s.name)
	}
	return out, nil
}
