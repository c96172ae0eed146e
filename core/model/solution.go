package model

import "fmt"

// Solution is a candidate assignment of every job to one processor. The
// per-processor loads and the makespan are maintained incrementally on each
// move so Score is O(1).
type Solution struct {
	problem *Problem
	assign  []int
	loads   []int64
	score   int64
}

// NewSolution builds a Solution from the given placement strategy.
func NewSolution(p *Problem, placement Placement) (*Solution, error) {
	if p == nil {
		return nil, NewConfigError("problem", "nil problem")
	}
	if placement == nil {
		placement = RoundRobin{}
	}
	return NewSolutionFromAssignment(p, placement.Place(p))
}

// NewSolutionFromAssignment validates an explicit job to processor mapping
// and derives the loads and score from it. The slice is copied.
func NewSolutionFromAssignment(p *Problem, assign []int) (*Solution, error) {
	if p == nil {
		return nil, NewConfigError("problem", "nil problem")
	}
	if len(assign) != p.NumJobs() {
		return nil, NewConfigError("assignment", "length must be %d (got %d)", p.NumJobs(), len(assign))
	}
	s := &Solution{
		problem: p,
		assign:  make([]int, len(assign)),
		loads:   make([]int64, p.processors),
	}
	for j, proc := range assign {
		if proc < 0 || proc >= p.processors {
			return nil, &InvalidMoveError{Job: j, Processor: proc, Reason: "processor out of range"}
		}
		s.assign[j] = proc
		s.loads[proc] += p.durations[j]
	}
	s.rescan()
	return s, nil
}

// Problem returns the instance this Solution belongs to.
func (s *Solution) Problem() *Problem { return s.problem }

// Score returns the makespan, the maximum processor load.
func (s *Solution) Score() int64 { return s.score }

// Assignment returns a copy of the job to processor mapping.
func (s *Solution) Assignment() []int {
	out := make([]int, len(s.assign))
	copy(out, s.assign)
	return out
}

// Processor returns the processor currently running job.
func (s *Solution) Processor(job int) int { return s.assign[job] }

// Loads returns a copy of the per-processor loads.
func (s *Solution) Loads() []int64 {
	out := make([]int64, len(s.loads))
	copy(out, s.loads)
	return out
}

// Load returns the total duration assigned to processor.
func (s *Solution) Load(processor int) int64 { return s.loads[processor] }

// Jobs lists the jobs assigned to processor in increasing index order.
func (s *Solution) Jobs(processor int) []int {
	var jobs []int
	for j, p := range s.assign {
		if p == processor {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

// ApplyMove reassigns job to newProcessor and updates the loads and score.
func (s *Solution) ApplyMove(job, newProcessor int) error {
	if job < 0 || job >= len(s.assign) {
		return &InvalidMoveError{Job: job, Processor: newProcessor, Reason: "job out of range"}
	}
	if newProcessor < 0 || newProcessor >= len(s.loads) {
		return &InvalidMoveError{Job: job, Processor: newProcessor, Reason: "processor out of range"}
	}
	old := s.assign[job]
	if old == newProcessor {
		return nil
	}
	d := s.problem.durations[job]
	s.assign[job] = newProcessor
	s.shift(old, newProcessor, d)
	return nil
}

// Swap exchanges the processors of two jobs.
func (s *Solution) Swap(jobA, jobB int) error {
	for _, j := range []int{jobA, jobB} {
		if j < 0 || j >= len(s.assign) {
			return &InvalidMoveError{Job: j, Processor: -1, Reason: "job out of range"}
		}
	}
	pa, pb := s.assign[jobA], s.assign[jobB]
	if pa == pb {
		return nil
	}
	da, db := s.problem.durations[jobA], s.problem.durations[jobB]
	s.assign[jobA], s.assign[jobB] = pb, pa
	// Net transfer from pa to pb is da-db; a negative value moves load back.
	if da >= db {
		s.shift(pa, pb, da-db)
	} else {
		s.shift(pb, pa, db-da)
	}
	return nil
}

// shift moves d units of load from processor from to processor to.
func (s *Solution) shift(from, to int, d int64) {
	if d == 0 {
		return
	}
	wasMax := s.loads[from] == s.score
	s.loads[from] -= d
	s.loads[to] += d
	switch {
	case s.loads[to] >= s.score:
		s.score = s.loads[to]
	case wasMax:
		s.rescan()
	}
}

func (s *Solution) rescan() {
	var m int64
	for _, l := range s.loads {
		if l > m {
			m = l
		}
	}
	s.score = m
}

// Clone returns a deep copy sharing no mutable state with s. The Problem is
// shared since it is immutable.
func (s *Solution) Clone() *Solution {
	c := &Solution{
		problem: s.problem,
		assign:  make([]int, len(s.assign)),
		loads:   make([]int64, len(s.loads)),
		score:   s.score,
	}
	copy(c.assign, s.assign)
	copy(c.loads, s.loads)
	return c
}

// Equal reports whether both solutions assign every job identically.
func (s *Solution) Equal(o *Solution) bool {
	if o == nil || len(s.assign) != len(o.assign) {
		return false
	}
	for j := range s.assign {
		if s.assign[j] != o.assign[j] {
			return false
		}
	}
	return true
}

// Validate recomputes loads and score from the assignment and reports any
// drift from the incrementally maintained values.
func (s *Solution) Validate() error {
	loads := make([]int64, len(s.loads))
	for j, p := range s.assign {
		if p < 0 || p >= len(loads) {
			return &InvalidMoveError{Job: j, Processor: p, Reason: "processor out of range"}
		}
		loads[p] += s.problem.durations[j]
	}
	var total, m int64
	for i, l := range loads {
		if l != s.loads[i] {
			return fmt.Errorf("load drift on processor %d: cached %d, actual %d", i, s.loads[i], l)
		}
		total += l
		if l > m {
			m = l
		}
	}
	if total != s.problem.total {
		return fmt.Errorf("load sum %d differs from total duration %d", total, s.problem.total)
	}
	if m != s.score {
		return fmt.Errorf("score drift: cached %d, actual %d", s.score, m)
	}
	return nil
}
