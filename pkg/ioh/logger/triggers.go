package logger

import (
	"fmt"
	"math"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/mihai-snyk/iohbench/pkg/ioh/framework"
)

// Triggers configures which evaluations are persisted to which channel. A
// record may satisfy several triggers and is then written to each of their
// channels.
type Triggers struct {
	// Always writes every evaluation to the complete history channel.
	Always bool

	// Improvement writes every strict improvement of the transformed
	// objective, and the first evaluation, to the improvement channel.
	Improvement bool

	// Interval writes the first evaluation and every Interval-th evaluation
	// to the interval channel. The last evaluation of a run is added when
	// the run is finalized. Zero disables the trigger.
	Interval int

	TimePoints *TimePoints
	TimeRange  *TimeRange

	// Update writes a record to the improvement channel whenever a dynamic
	// attribute changed since the previous record.
	Update bool
}

// TimePoints is a set of evaluation checkpoints: every b*10^e for b in
// Bases, every floor(10^(i/PerDecade)), and every Explicit value. With
// ScaleByDimension the generated checkpoints are multiplied by the dimension.
type TimePoints struct {
	Bases            []int
	PerDecade        int
	Explicit         []int
	ScaleByDimension bool
}

// TimeRange is the closed range [Start, End] of evaluations.
type TimeRange struct {
	Start int
	End   int
}

// DefaultTriggers records improvements only.
func DefaultTriggers() Triggers {
	return Triggers{Improvement: true}
}

func (t Triggers) Validate() error {
	if t.Interval < 0 {
		return fmt.Errorf("%w: negative interval %d", ErrConfiguration, t.Interval)
	}
	if tp := t.TimePoints; tp != nil {
		if tp.PerDecade < 0 {
			return fmt.Errorf("%w: negative points per decade %d", ErrConfiguration, tp.PerDecade)
		}
		for _, b := range tp.Bases {
			if b < 1 {
				return fmt.Errorf("%w: time point base %d must be positive", ErrConfiguration, b)
			}
		}
	}
	if r := t.TimeRange; r != nil && (r.Start < 1 || r.Start > r.End) {
		return fmt.Errorf("%w: time range [%d, %d]", ErrConfiguration, r.Start, r.End)
	}
	return nil
}

// AtInterval reports whether evaluation number evaluations is on the k grid.
func AtInterval(evaluations, k int) bool {
	return k > 0 && (evaluations == 1 || evaluations%k == 0)
}

// Contains reports whether evaluations is one of the checkpoints.
func (tp TimePoints) Contains(evaluations, dimension int) bool {
	for _, v := range tp.Explicit {
		if v == evaluations {
			return true
		}
	}
	if evaluations < 1 {
		return false
	}
	v := evaluations
	if tp.ScaleByDimension && dimension > 1 {
		if v%dimension != 0 {
			return false
		}
		v /= dimension
	}
	for _, b := range tp.Bases {
		q := v
		for q > b && q%10 == 0 {
			q /= 10
		}
		if q == b {
			return true
		}
	}
	if tp.PerDecade > 0 {
		p := float64(tp.PerDecade)
		i := int(math.Floor(p * math.Log10(float64(v))))
		for j := max(i-1, 0); j <= i+2; j++ {
			if int(math.Floor(math.Pow(10, float64(j)/p))) == v {
				return true
			}
		}
	}
	return false
}

func (r TimeRange) Contains(evaluations int) bool {
	return r.Start <= evaluations && evaluations <= r.End
}

// triggerSet evaluates Triggers against the record stream of one tracked
// context.
type triggerSet struct {
	cfg       Triggers
	explicit  sets.Set[int]
	optType   framework.OptimizationType
	dimension int
	best      float64
	seen      bool
}

func newTriggerSet(cfg Triggers) *triggerSet {
	t := &triggerSet{cfg: cfg}
	if cfg.TimePoints != nil {
		t.explicit = sets.New(cfg.TimePoints.Explicit...)
	}
	return t
}

func (t *triggerSet) reset(optType framework.OptimizationType, dimension int) {
	t.optType = optType
	t.dimension = dimension
	t.best = framework.Worst(optType)
	t.seen = false
}

// enabled returns the channels at least one configured trigger feeds.
func (t *triggerSet) enabled() []Channel {
	var out []Channel
	if t.cfg.Always {
		out = append(out, Complete)
	}
	if t.cfg.Interval > 0 {
		out = append(out, Interval)
	}
	if t.cfg.Improvement || t.cfg.Update {
		out = append(out, Improvement)
	}
	if t.cfg.TimePoints != nil || t.cfg.TimeRange != nil {
		out = append(out, Time)
	}
	return out
}

func (t *triggerSet) improvement(y float64) bool {
	first := !t.seen
	t.seen = true
	if first || framework.Better(y, t.best, t.optType) {
		t.best = y
		return true
	}
	return false
}

func (t *triggerSet) atTimePoint(evaluations int) bool {
	tp := t.cfg.TimePoints
	if tp == nil {
		return false
	}
	if t.explicit.Has(evaluations) {
		return true
	}
	generated := *tp
	generated.Explicit = nil
	return generated.Contains(evaluations, t.dimension)
}

// fire evaluates every trigger against info and returns the channels the
// record goes to. updated reports a dynamic attribute change since the last
// record.
func (t *triggerSet) fire(info framework.LogInfo, updated bool) []Channel {
	var out []Channel
	if t.cfg.Always {
		out = append(out, Complete)
	}
	if AtInterval(info.Evaluations, t.cfg.Interval) {
		out = append(out, Interval)
	}
	improved := t.improvement(info.TransformedY)
	if (t.cfg.Improvement && improved) || (t.cfg.Update && updated) {
		out = append(out, Improvement)
	}
	inRange := t.cfg.TimeRange != nil && t.cfg.TimeRange.Contains(info.Evaluations)
	if inRange || t.atTimePoint(info.Evaluations) {
		out = append(out, Time)
	}
	return out
}
