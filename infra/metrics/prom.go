package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/makespan/core/metrics"
)

// PromSink records annealing runs in Prometheus metrics.
type PromSink struct {
	runs         *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	iterations   *prometheus.CounterVec
	accepted     *prometheus.CounterVec
	improvements *prometheus.CounterVec
	bestScore    *prometheus.GaugeVec
	gap          prometheus.Gauge
}

// NewPromSink registers run metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "makespan_runs_total",
			Help: "Total number of finished annealing restarts",
		}, []string{"schedule", "interrupted"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "makespan_run_duration_seconds",
			Help:    "Wall time of one annealing restart",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"schedule"}),
		iterations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "makespan_iterations_total",
			Help: "Total number of annealing iterations",
		}, []string{"schedule"}),
		accepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "makespan_accepted_moves_total",
			Help: "Accepted candidate moves by direction",
		}, []string{"schedule", "direction"}),
		improvements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "makespan_improvements_total",
			Help: "Strict improvements of the best solution",
		}, []string{"schedule"}),
		bestScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "makespan_best_score",
			Help: "Best makespan of the latest restart",
		}, []string{"schedule", "restart"}),
		gap: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "makespan_optimality_gap",
			Help: "Relative distance of the latest solve to the lower bound",
		}),
	}

	var err error
	if s.runs, err = register(reg, s.runs); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.iterations, err = register(reg, s.iterations); err != nil {
		return nil, err
	}
	if s.accepted, err = register(reg, s.accepted); err != nil {
		return nil, err
	}
	if s.improvements, err = register(reg, s.improvements); err != nil {
		return nil, err
	}
	if s.bestScore, err = register(reg, s.bestScore); err != nil {
		return nil, err
	}
	if s.gap, err = register(reg, s.gap); err != nil {
		return nil, err
	}
	return s, nil
}

// register reuses an already registered collector of the same type so that
// several sinks can share the default registerer.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRun updates counters and gauges for a finished restart.
func (s *PromSink) RecordRun(rec coremetrics.RunRecord) error {
	s.runs.WithLabelValues(rec.Schedule, strconv.FormatBool(rec.Interrupted)).Inc()
	s.duration.WithLabelValues(rec.Schedule).Observe(rec.Duration.Seconds())
	s.iterations.WithLabelValues(rec.Schedule).Add(float64(rec.Iterations))
	s.accepted.WithLabelValues(rec.Schedule, "downhill").Add(float64(rec.Accepted - rec.Uphill))
	s.accepted.WithLabelValues(rec.Schedule, "uphill").Add(float64(rec.Uphill))
	s.improvements.WithLabelValues(rec.Schedule).Add(float64(rec.Improvements))
	s.bestScore.WithLabelValues(rec.Schedule, strconv.Itoa(rec.Restart)).Set(float64(rec.BestScore))
	return nil
}

// RecordSolve sets the optimality gap gauge.
func (s *PromSink) RecordSolve(rec coremetrics.SolveRecord) error {
	s.gap.Set(rec.Gap)
	return nil
}
