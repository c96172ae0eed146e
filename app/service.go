package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/makespan/config"
	"github.com/kilianp07/makespan/core/anneal"
	"github.com/kilianp07/makespan/core/events"
	coremetrics "github.com/kilianp07/makespan/core/metrics"
	"github.com/kilianp07/makespan/core/model"
	coremon "github.com/kilianp07/makespan/core/monitoring"
	coremqtt "github.com/kilianp07/makespan/core/mqtt"
	"github.com/kilianp07/makespan/infra/logger"
	"github.com/kilianp07/makespan/infra/metrics"
	"github.com/kilianp07/makespan/infra/monitoring"
	"github.com/kilianp07/makespan/infra/mqtt"
	"github.com/kilianp07/makespan/internal/eventbus"
	"github.com/kilianp07/makespan/pkg/bench"
	"github.com/kilianp07/makespan/pkg/jobsfile"
)

// eventBuffer bounds the improvement events queued for the metrics collector.
const eventBuffer = 1024

// Service wires the solver to metrics, monitoring and the MQTT publisher.
type Service struct {
	cfg       *config.Config
	sink      coremetrics.MetricsSink
	publisher coremqtt.Publisher
	bus       *eventbus.Bus
	collector <-chan struct{}
	log       logger.Logger
}

// Option customises a Service.
type Option func(*Service)

// WithSink replaces the configured metrics sinks.
func WithSink(s coremetrics.MetricsSink) Option {
	return func(svc *Service) { svc.sink = s }
}

// WithPublisher replaces the configured MQTT publisher.
func WithPublisher(p coremqtt.Publisher) Option {
	return func(svc *Service) { svc.publisher = p }
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, err
	}
	lc := cfg.Logging
	if err := logger.SetFile(lc.File, lc.MaxSizeMB, lc.MaxBackups, lc.MaxAgeDays); err != nil {
		return nil, err
	}
	svc := &Service{cfg: cfg, log: logger.New("service")}
	for _, o := range opts {
		o(svc)
	}

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	if svc.sink == nil {
		sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
		svc.sink = sink
	}
	if svc.publisher == nil && cfg.MQTT.Enabled() {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.publisher = pub
	}

	svc.bus = eventbus.NewWithBuffer(eventBuffer)
	svc.collector = metrics.StartEventCollector(context.Background(), svc.bus, svc.sink)
	return svc, nil
}

// StartMetricsServer serves /metrics until ctx is canceled when a
// prometheus sink is configured.
func (s *Service) StartMetricsServer(ctx context.Context) {
	if !s.cfg.Metrics.PrometheusEnabled() {
		return
	}
	go func() {
		if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort); err != nil {
			s.log.Errorf("prom server: %v", err)
		}
	}()
}

// LoadProblem reads the jobs file and builds the instance. Zero arguments
// fall back to the problem section of the configuration.
func (s *Service) LoadProblem(processors int, jobsFile string) (*model.Problem, error) {
	if processors == 0 {
		processors = s.cfg.Problem.Processors
	}
	if jobsFile == "" {
		jobsFile = s.cfg.Problem.JobsFile
	}
	if jobsFile == "" {
		return nil, model.NewConfigError("problem.jobs_file", "no jobs file given")
	}
	durations, err := jobsfile.ReadFile(jobsFile)
	if err != nil {
		return nil, model.NewConfigError("problem.jobs_file", "%v", err)
	}
	return model.NewProblem(processors, durations)
}

// Solve runs the configured solver on p, records metrics and publishes the
// best assignment when a publisher is configured.
func (s *Service) Solve(ctx context.Context, p *model.Problem) (anneal.Result, error) {
	solver, err := s.newSolver(s.cfg.Anneal)
	if err != nil {
		coremon.CaptureSearchError(err, nil)
		return anneal.Result{}, err
	}
	res, err := solver.Solve(ctx, p)
	if err != nil {
		coremon.CaptureSearchError(err, map[string]string{"run_id": res.RunID})
		return res, err
	}
	s.record(p, res)
	if s.publisher != nil {
		if err := s.publisher.PublishAssignment(ctx, res.RunID, res.Best); err != nil {
			return res, fmt.Errorf("publish assignment: %w", err)
		}
	}
	return res, nil
}

// Bench repeats the solve runs times with disjoint seeds.
func (s *Service) Bench(ctx context.Context, p *model.Problem, runs int) ([]bench.Sample, bench.Summary, error) {
	samples, err := bench.Run(ctx, p, s.cfg.Anneal, runs, anneal.WithSolverLogger(s.log))
	if err != nil {
		coremon.CaptureSearchError(err, nil)
		return samples, bench.Summary{}, err
	}
	return samples, bench.Summarize(samples), nil
}

// Grid benchmarks random instances over several sizes.
func (s *Service) Grid(ctx context.Context, spec bench.GridSpec) ([]bench.Cell, error) {
	return bench.Grid(ctx, spec, s.cfg.Anneal, anneal.WithSolverLogger(s.log))
}

func (s *Service) newSolver(cfg anneal.Config) (*anneal.Solver, error) {
	progress := func(runID string, restart int, pr anneal.Progress) {
		if !pr.Improved {
			return
		}
		s.bus.Publish(events.ImprovementEvent{
			RunID:       runID,
			Restart:     restart,
			Iteration:   pr.Iteration,
			Score:       pr.BestScore,
			Temperature: pr.Temperature,
			Time:        time.Now(),
		})
	}
	return anneal.NewSolver(cfg, anneal.WithSolverLogger(s.log), anneal.WithProgress(progress))
}

func (s *Service) record(p *model.Problem, res anneal.Result) {
	now := time.Now()
	for _, run := range res.Runs {
		if run.Best == nil {
			continue
		}
		rec := coremetrics.RunRecord{
			RunID:        res.RunID,
			Restart:      run.Restart,
			Seed:         run.Seed,
			Schedule:     res.Schedule,
			Processors:   p.Processors(),
			Jobs:         p.NumJobs(),
			InitialScore: run.Stats.InitialScore,
			BestScore:    run.Best.Score(),
			Iterations:   run.Stats.Iterations,
			Accepted:     run.Stats.Accepted,
			Uphill:       run.Stats.UphillAccepted,
			Improvements: run.Stats.Improvements,
			Duration:     run.Duration,
			Interrupted:  run.Interrupted,
			Time:         now,
		}
		if err := s.sink.RecordRun(rec); err != nil {
			s.log.Warnf("record run %d: %v", run.Restart, err)
		}
	}
	if r, ok := s.sink.(coremetrics.SolveRecorder); ok {
		err := r.RecordSolve(coremetrics.SolveRecord{
			RunID:      res.RunID,
			Schedule:   res.Schedule,
			BestScore:  res.Best.Score(),
			LowerBound: res.LowerBound,
			Gap:        res.Gap(),
			Restarts:   len(res.Runs),
			Duration:   res.Duration,
			TimedOut:   res.TimedOut,
			Time:       now,
		})
		if err != nil {
			s.log.Warnf("record solve: %v", err)
		}
	}
}

// Close drains the metrics collector, releases the publisher and closes the
// log file.
func (s *Service) Close() error {
	s.bus.Close()
	<-s.collector
	if s.publisher != nil {
		s.publisher.Close()
	}
	coremon.Flush(2 * time.Second)
	return logger.CloseFile()
}
