package anneal

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/makespan/core/logger"
	"github.com/kilianp07/makespan/core/model"
)

// RunResult is the outcome of one restart.
type RunResult struct {
	Restart  int
	Seed     int64
	Best     *model.Solution
	Stats    Stats
	Moves    map[MoveKind]int
	Trace    []TracePoint
	Duration time.Duration
	// Interrupted is set when the run stopped before its budget.
	Interrupted bool
}

// Result aggregates all restarts of a Solve call.
type Result struct {
	RunID       string
	Schedule    string
	Best        *model.Solution
	BestRestart int
	LowerBound  int64
	Runs        []RunResult
	Duration    time.Duration
	TimedOut    bool
}

// Gap is the relative distance of the best score to the lower bound.
func (r Result) Gap() float64 {
	if r.Best == nil || r.LowerBound == 0 {
		return 0
	}
	return float64(r.Best.Score()-r.LowerBound) / float64(r.LowerBound)
}

// ProgressFunc observes iterations of every restart. It is called
// concurrently from the run goroutines.
type ProgressFunc func(runID string, restart int, p Progress)

// Solver runs independent annealing restarts and keeps the best result.
type Solver struct {
	cfg      Config
	log      logger.Logger
	progress ProgressFunc
}

// SolverOption customises a Solver.
type SolverOption func(*Solver)

// WithSolverLogger sets the logger used by the solver and its loops.
func WithSolverLogger(log logger.Logger) SolverOption {
	return func(s *Solver) {
		if log != nil {
			s.log = log
		}
	}
}

// WithProgress installs an iteration observer for all restarts.
func WithProgress(f ProgressFunc) SolverOption {
	return func(s *Solver) { s.progress = f }
}

// NewSolver validates cfg after applying defaults.
func NewSolver(cfg Config, opts ...SolverOption) (*Solver, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Solver{cfg: cfg, log: nopLogger{}}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Config returns the effective configuration.
func (s *Solver) Config() Config { return s.cfg }

// Solve runs cfg.Restarts independent loops, at most cfg.Workers at a time.
// Each restart owns its random source seeded with Seed+restart, so the
// result only depends on the configuration. The best run wins; ties go to
// the lowest restart index.
func (s *Solver) Solve(ctx context.Context, p *model.Problem) (Result, error) {
	if p == nil {
		return Result{}, model.NewConfigError("problem", "nil problem")
	}
	start := time.Now()
	res := Result{
		RunID:      uuid.NewString(),
		LowerBound: p.LowerBound(),
		Runs:       make([]RunResult, s.cfg.Restarts),
	}

	runCtx := ctx
	if s.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	s.log.Infow("solve started", map[string]any{
		"run_id":     res.RunID,
		"processors": p.Processors(),
		"jobs":       p.NumJobs(),
		"restarts":   s.cfg.Restarts,
		"iterations": s.cfg.Iterations,
		"schedule":   s.cfg.Schedule.Type,
	})

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(s.cfg.Workers)
	for r := 0; r < s.cfg.Restarts; r++ {
		restart := r
		g.Go(func() error {
			run, err := s.run(gctx, res.RunID, restart, p)
			if err != nil {
				return fmt.Errorf("restart %d: %w", restart, err)
			}
			res.Runs[restart] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res.BestRestart = -1
	for i, run := range res.Runs {
		if run.Best == nil {
			continue
		}
		if res.Best == nil || run.Best.Score() < res.Best.Score() {
			res.Best = run.Best
			res.BestRestart = i
		}
	}
	res.Schedule = s.cfg.Schedule.Type
	res.Duration = time.Since(start)

	if err := ctx.Err(); err != nil {
		return res, err
	}
	res.TimedOut = runCtx.Err() != nil
	if res.Best == nil {
		return res, errors.New("no restart produced a solution")
	}
	s.log.Infow("solve finished", map[string]any{
		"run_id":       res.RunID,
		"best_score":   res.Best.Score(),
		"best_restart": res.BestRestart,
		"lower_bound":  res.LowerBound,
		"timed_out":    res.TimedOut,
		"duration_ms":  res.Duration.Milliseconds(),
	})
	return res, nil
}

func (s *Solver) run(ctx context.Context, runID string, restart int, p *model.Problem) (RunResult, error) {
	start := time.Now()
	seed := s.cfg.Seed + int64(restart)
	rng := rand.New(rand.NewSource(seed))

	placement, err := model.PlacementByName(s.cfg.Placement, rng)
	if err != nil {
		return RunResult{}, err
	}
	initial, err := model.NewSolution(p, placement)
	if err != nil {
		return RunResult{}, err
	}
	mutator, err := NewMutator(s.cfg.MoveKinds, rng, WithMaxBlock(s.cfg.MaxBlock))
	if err != nil {
		return RunResult{}, err
	}
	schedule, err := NewSchedule(s.cfg.Schedule)
	if err != nil {
		return RunResult{}, err
	}

	trace := NewTrace(s.cfg.TraceEvery)
	hook := func(pr Progress) {
		trace.Observe(pr)
		if s.progress != nil {
			s.progress(runID, restart, pr)
		}
	}
	loop, err := NewLoop(initial, s.cfg.Iterations, mutator, schedule, rng, WithHook(hook), WithLogger(s.log))
	if err != nil {
		return RunResult{}, err
	}

	best, err := loop.ProcessContext(ctx)
	interrupted := false
	if err != nil {
		if best == nil || ctx.Err() == nil {
			return RunResult{}, err
		}
		interrupted = true
	}
	if verr := best.Validate(); verr != nil {
		return RunResult{}, fmt.Errorf("best solution invariant: %w", verr)
	}
	return RunResult{
		Restart:     restart,
		Seed:        seed,
		Best:        best,
		Stats:       loop.Stats(),
		Moves:       mutator.Counts(),
		Trace:       trace.Points,
		Duration:    time.Since(start),
		Interrupted: interrupted,
	}, nil
}
