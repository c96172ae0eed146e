package metrics

import "time"

// RunRecord summarises one annealing restart.
type RunRecord struct {
	RunID        string
	Restart      int
	Seed         int64
	Schedule     string
	Processors   int
	Jobs         int
	InitialScore int64
	BestScore    int64
	Iterations   int
	Accepted     int
	Uphill       int
	Improvements int
	Duration     time.Duration
	Interrupted  bool
	Time         time.Time
}

// MetricsSink records finished restarts for observability purposes.
type MetricsSink interface {
	RecordRun(rec RunRecord) error
}

// ImprovementRecord is a new best score found during a restart.
type ImprovementRecord struct {
	RunID       string
	Restart     int
	Iteration   int
	Score       int64
	Temperature float64
	Time        time.Time
}

// ImprovementRecorder records improvements as they happen.
type ImprovementRecorder interface {
	RecordImprovement(rec ImprovementRecord) error
}

// SolveRecord is the reduced outcome of all restarts.
type SolveRecord struct {
	RunID      string
	Schedule   string
	BestScore  int64
	LowerBound int64
	Gap        float64
	Restarts   int
	Duration   time.Duration
	TimedOut   bool
	Time       time.Time
}

// SolveRecorder records reduced solve results.
type SolveRecorder interface {
	RecordSolve(rec SolveRecord) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordRun(RunRecord) error                 { return nil }
func (NopSink) RecordImprovement(ImprovementRecord) error { return nil }
func (NopSink) RecordSolve(SolveRecord) error             { return nil }
