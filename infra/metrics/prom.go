package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records solver runs in Prometheus metrics.
type PromSink struct {
	solves    *prometheus.CounterVec
	wallTime  prometheus.Histogram
	objective prometheus.Gauge
}

// NewPromSink registers solver metrics on the provided Prometheus registerer.
// If reg is nil, the default registerer is used. If the collectors are
// already registered, the existing ones are reused.
func NewPromSink(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "railsched_solves_total",
		Help: "Total number of solver runs by terminal status",
	}, []string{"status"})
	wallTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "railsched_solve_wall_seconds",
		Help:    "Wall-clock time spent in the solver",
		Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
	})
	objective := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "railsched_last_objective",
		Help: "Objective value of the most recent feasible solve",
	})

	if err := reg.Register(solves); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			solves = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(wallTime); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			wallTime = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(objective); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			objective = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{solves: solves, wallTime: wallTime, objective: objective}, nil
}

// RecordSolve implements Sink.
func (s *PromSink) RecordSolve(stats SolveStats) error {
	s.solves.WithLabelValues(stats.Status).Inc()
	s.wallTime.Observe(stats.WallTime.Seconds())
	if stats.Status == "optimal" || stats.Status == "feasible" {
		s.objective.Set(stats.Objective)
	}
	return nil
}
