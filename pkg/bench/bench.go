// Package bench repeats solves over several seeds and instance sizes and
// summarises score and wall time.
package bench

import (
	"context"
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/makespan/core/anneal"
	"github.com/kilianp07/makespan/core/model"
	"github.com/kilianp07/makespan/pkg/jobsfile"
)

// Sample is the outcome of one solve.
type Sample struct {
	Seed    int64   `json:"seed"`
	Score   int64   `json:"score"`
	Seconds float64 `json:"seconds"`
	Gap     float64 `json:"gap"`
}

// Summary aggregates samples.
type Summary struct {
	Runs        int     `json:"runs"`
	BestScore   int64   `json:"best_score"`
	WorstScore  int64   `json:"worst_score"`
	MeanScore   float64 `json:"mean_score"`
	StdScore    float64 `json:"std_score"`
	MeanSeconds float64 `json:"mean_seconds"`
	StdSeconds  float64 `json:"std_seconds"`
	MeanGap     float64 `json:"mean_gap"`
}

// Summarize computes the statistics of samples. The standard deviations are
// zero for a single sample.
func Summarize(samples []Sample) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	scores := make([]float64, len(samples))
	secs := make([]float64, len(samples))
	gaps := make([]float64, len(samples))
	for i, s := range samples {
		scores[i] = float64(s.Score)
		secs[i] = s.Seconds
		gaps[i] = s.Gap
	}
	sum := Summary{
		Runs:       len(samples),
		BestScore:  int64(floats.Min(scores)),
		WorstScore: int64(floats.Max(scores)),
		MeanGap:    stat.Mean(gaps, nil),
	}
	if len(samples) == 1 {
		sum.MeanScore = scores[0]
		sum.MeanSeconds = secs[0]
		return sum
	}
	sum.MeanScore, sum.StdScore = stat.MeanStdDev(scores, nil)
	sum.MeanSeconds, sum.StdSeconds = stat.MeanStdDev(secs, nil)
	return sum
}

// Run solves p runs times. Run i starts its restarts at seed
// cfg.Seed + i*cfg.Restarts so no two runs share a random stream.
func Run(ctx context.Context, p *model.Problem, cfg anneal.Config, runs int, opts ...anneal.SolverOption) ([]Sample, error) {
	if runs < 1 {
		return nil, model.NewConfigError("runs", "must be > 0 (got %d)", runs)
	}
	cfg.SetDefaults()
	base := cfg.Seed
	samples := make([]Sample, 0, runs)
	for i := 0; i < runs; i++ {
		cfg.Seed = base + int64(i*cfg.Restarts)
		solver, err := anneal.NewSolver(cfg, opts...)
		if err != nil {
			return nil, err
		}
		res, err := solver.Solve(ctx, p)
		if err != nil {
			return samples, fmt.Errorf("run %d: %w", i, err)
		}
		samples = append(samples, Sample{
			Seed:    cfg.Seed,
			Score:   res.Best.Score(),
			Seconds: res.Duration.Seconds(),
			Gap:     res.Gap(),
		})
	}
	return samples, nil
}

// GridSpec describes a sweep over instance sizes.
type GridSpec struct {
	Jobs        []int
	Processors  []int
	MinDuration int64
	MaxDuration int64
	Seed        int64
	Runs        int
}

// Cell is the summary of one (jobs, processors) pair.
type Cell struct {
	Jobs       int     `json:"jobs"`
	Processors int     `json:"processors"`
	Summary    Summary `json:"summary"`
}

// Grid generates a random instance per jobs count and benchmarks it on every
// processor count. Cells are ordered by jobs then processors.
func Grid(ctx context.Context, spec GridSpec, cfg anneal.Config, opts ...anneal.SolverOption) ([]Cell, error) {
	if len(spec.Jobs) == 0 || len(spec.Processors) == 0 {
		return nil, model.NewConfigError("grid", "jobs and processors must not be empty")
	}
	if spec.Runs < 1 {
		spec.Runs = 1
	}
	rng := rand.New(rand.NewSource(spec.Seed))
	var cells []Cell
	for _, n := range spec.Jobs {
		durations, err := jobsfile.Generate(rng, n, spec.MinDuration, spec.MaxDuration)
		if err != nil {
			return nil, err
		}
		for _, m := range spec.Processors {
			p, err := model.NewProblem(m, durations)
			if err != nil {
				return nil, err
			}
			samples, err := Run(ctx, p, cfg, spec.Runs, opts...)
			if err != nil {
				return cells, err
			}
			cells = append(cells, Cell{Jobs: n, Processors: m, Summary: Summarize(samples)})
		}
	}
	return cells, nil
}
