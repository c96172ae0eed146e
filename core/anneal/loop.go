package anneal

import (
	"context"
	"math/rand"

	"github.com/kilianp07/makespan/core/logger"
	"github.com/kilianp07/makespan/core/model"
)

// Progress describes one finished iteration of a Loop.
type Progress struct {
	Iteration    int
	Temperature  float64
	Delta        float64
	CurrentScore int64
	BestScore    int64
	Accepted     bool
	Improved     bool
}

// Hook receives every iteration's Progress. It runs on the loop goroutine and
// must not retain the Solutions of the loop.
type Hook func(Progress)

// Stats summarises a run.
type Stats struct {
	Iterations       int
	Accepted         int
	UphillAccepted   int
	Rejected         int
	Improvements     int
	BestIteration    int
	InitialScore     int64
	BestScore        int64
	FinalTemperature float64
}

// AcceptanceRate is the share of proposals that replaced the current solution.
func (s Stats) AcceptanceRate() float64 {
	if s.Iterations == 0 {
		return 0
	}
	return float64(s.Accepted) / float64(s.Iterations)
}

// Loop is one simulated-annealing run over a fixed iteration budget. A Loop
// runs once, owns its search state and is not safe for concurrent use; run
// independent loops for parallel multi-start.
type Loop struct {
	current  *model.Solution
	best     *model.Solution
	budget   int
	mutator  Neighborhood
	schedule Schedule
	rng      *rand.Rand
	hook     Hook
	log      logger.Logger
	stats    Stats
	done     bool
}

// LoopOption customises a Loop.
type LoopOption func(*Loop)

// WithHook installs a per-iteration callback.
func WithHook(h Hook) LoopOption {
	return func(l *Loop) { l.hook = h }
}

// WithLogger sets the logger used for improvement and summary messages.
func WithLogger(log logger.Logger) LoopOption {
	return func(l *Loop) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLoop prepares a run starting from initial. The loop takes ownership of
// initial; the caller must not modify it afterwards.
func NewLoop(initial *model.Solution, budget int, mutator Neighborhood, schedule Schedule, rng *rand.Rand, opts ...LoopOption) (*Loop, error) {
	if initial == nil {
		return nil, model.NewConfigError("initial", "nil initial solution")
	}
	if budget < 1 {
		return nil, model.NewConfigError("iterations", "must be > 0 (got %d)", budget)
	}
	if mutator == nil {
		return nil, model.NewConfigError("mutator", "nil mutator")
	}
	if schedule == nil {
		return nil, model.NewConfigError("schedule", "nil cooling schedule")
	}
	if rng == nil {
		return nil, model.NewConfigError("rng", "random source not initialised (nil)")
	}
	l := &Loop{
		current:  initial,
		best:     initial.Clone(),
		budget:   budget,
		mutator:  mutator,
		schedule: schedule,
		rng:      rng,
		log:      nopLogger{},
	}
	for _, o := range opts {
		o(l)
	}
	l.stats.InitialScore = initial.Score()
	l.stats.BestScore = initial.Score()
	return l, nil
}

// Process runs the whole iteration budget and returns the best Solution
// found. Ownership of the result passes to the caller.
func (l *Loop) Process() (*model.Solution, error) {
	return l.ProcessContext(context.Background())
}

// ProcessContext is Process with cancellation checked between iterations.
// On cancellation it returns the best Solution so far with ctx.Err().
func (l *Loop) ProcessContext(ctx context.Context) (*model.Solution, error) {
	if l.done {
		return l.best.Clone(), nil
	}
	for i := 0; i < l.budget; i++ {
		if err := ctx.Err(); err != nil {
			l.log.Warnf("annealing stopped at iteration %d: %v", i, err)
			l.done = true
			return l.best, err
		}
		if err := l.step(i); err != nil {
			return nil, err
		}
	}
	l.done = true
	l.stats.FinalTemperature = l.schedule.Temperature(l.budget - 1)
	l.log.Infow("annealing finished", map[string]any{
		"schedule":        l.schedule.Name(),
		"iterations":      l.stats.Iterations,
		"initial_score":   l.stats.InitialScore,
		"best_score":      l.stats.BestScore,
		"best_iteration":  l.stats.BestIteration,
		"acceptance_rate": l.stats.AcceptanceRate(),
	})
	return l.best, nil
}

func (l *Loop) step(i int) error {
	candidate, err := l.mutator.Mutate(l.current)
	if err != nil {
		return err
	}
	delta := float64(candidate.Score() - l.current.Score())

	// Worse candidates pass the Metropolis criterion with probability
	// exp(-delta/T(i)); the uniform draw only happens for them.
	accept := delta <= 0 || l.rng.Float64() < l.schedule.AcceptanceProbability(delta, i)

	l.stats.Iterations++
	if accept {
		l.current = candidate
		l.stats.Accepted++
		if delta > 0 {
			l.stats.UphillAccepted++
		}
	} else {
		l.stats.Rejected++
	}

	improved := l.current.Score() < l.best.Score()
	if improved {
		l.best = l.current.Clone()
		l.stats.Improvements++
		l.stats.BestIteration = i
		l.stats.BestScore = l.best.Score()
		l.log.Debugw("new best", map[string]any{"iteration": i, "score": l.best.Score()})
	}

	if l.hook != nil {
		l.hook(Progress{
			Iteration:    i,
			Temperature:  l.schedule.Temperature(i),
			Delta:        delta,
			CurrentScore: l.current.Score(),
			BestScore:    l.best.Score(),
			Accepted:     accept,
			Improved:     improved,
		})
	}
	return nil
}

// Stats returns the counters collected so far.
func (l *Loop) Stats() Stats { return l.stats }

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Infow(string, map[string]any)  {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}
