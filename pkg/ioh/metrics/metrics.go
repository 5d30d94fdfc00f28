// Package metrics exports logger activity as Prometheus counters. An
// experiment has no server to scrape, so the registry is written to a node
// exporter textfile when the experiment ends.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mihai-snyk/iohbench/pkg/ioh/framework"
	"github.com/mihai-snyk/iohbench/pkg/ioh/logger"
)

const namespace = "iohbench"

// Recorder implements logger.Metrics on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	// RecordsTotal counts lines written, by channel.
	RecordsTotal *prometheus.CounterVec
	// RunsTotal counts finalized runs, by problem and dimension.
	RunsTotal *prometheus.CounterVec
	// EvaluationsTotal counts evaluations of finalized runs, by problem and
	// dimension.
	EvaluationsTotal *prometheus.CounterVec
}

var _ logger.Metrics = &Recorder{}

// New creates a Recorder with its counters registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		RecordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "logger",
				Name:      "records_total",
				Help:      "Records written by channel",
			},
			[]string{"channel"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "logger",
				Name:      "runs_total",
				Help:      "Finalized runs by problem and dimension",
			},
			[]string{"problem", "dimension"},
		),
		EvaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "problem",
				Name:      "evaluations_total",
				Help:      "Evaluations spent in finalized runs by problem and dimension",
			},
			[]string{"problem", "dimension"},
		),
	}
	r.registry.MustRegister(r.RecordsTotal, r.RunsTotal, r.EvaluationsTotal)
	return r
}

func (r *Recorder) RecordWritten(ch logger.Channel) {
	r.RecordsTotal.WithLabelValues(string(ch)).Inc()
}

func (r *Recorder) RunFinished(p framework.ProblemInfo, evaluations int) {
	dim := strconv.Itoa(p.Dimension)
	r.RunsTotal.WithLabelValues(p.Name, dim).Inc()
	r.EvaluationsTotal.WithLabelValues(p.Name, dim).Add(float64(evaluations))
}

// Registry exposes the registry, e.g. for a push gateway.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// WriteToTextfile writes every counter in the text exposition format.
func (r *Recorder) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
