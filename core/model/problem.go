package model

// Problem is the immutable description of a scheduling instance: a number of
// identical processors and the duration of each job. The job index is the
// position in the duration list.
type Problem struct {
	processors int
	durations  []int64
	total      int64
	longest    int64
}

// NewProblem validates the input and returns a Problem owning a private copy
// of the durations.
func NewProblem(processors int, durations []int64) (*Problem, error) {
	if processors < 1 {
		return nil, NewConfigError("processors", "must be >= 1 (got %d)", processors)
	}
	if len(durations) == 0 {
		return nil, NewConfigError("durations", "at least one job is required")
	}
	p := &Problem{processors: processors, durations: make([]int64, len(durations))}
	for i, d := range durations {
		if d < 0 {
			return nil, NewConfigError("durations", "durations[%d] must be >= 0 (got %d)", i, d)
		}
		p.durations[i] = d
		p.total += d
		if d > p.longest {
			p.longest = d
		}
	}
	return p, nil
}

// Processors returns the number of processors.
func (p *Problem) Processors() int { return p.processors }

// NumJobs returns the number of jobs.
func (p *Problem) NumJobs() int { return len(p.durations) }

// Duration returns the duration of the given job.
func (p *Problem) Duration(job int) int64 { return p.durations[job] }

// Durations returns a copy of the job durations.
func (p *Problem) Durations() []int64 {
	out := make([]int64, len(p.durations))
	copy(out, p.durations)
	return out
}

// TotalDuration is the sum of all job durations.
func (p *Problem) TotalDuration() int64 { return p.total }

// MaxDuration is the longest single job.
func (p *Problem) MaxDuration() int64 { return p.longest }

// LowerBound returns max(ceil(total/processors), longest job). No assignment
// can have a smaller makespan.
func (p *Problem) LowerBound() int64 {
	m := int64(p.processors)
	avg := (p.total + m - 1) / m
	if p.longest > avg {
		return p.longest
	}
	return avg
}
