package anneal

// TracePoint is one sample of a run's convergence.
type TracePoint struct {
	Iteration    int     `json:"iteration"`
	Temperature  float64 `json:"temperature"`
	CurrentScore int64   `json:"current_score"`
	BestScore    int64   `json:"best_score"`
}

// Trace samples Progress every n iterations and at every improvement.
type Trace struct {
	every  int
	Points []TracePoint
}

// NewTrace returns a Trace sampling every n iterations.
func NewTrace(every int) *Trace {
	return &Trace{every: every}
}

// Observe records p when it falls on the sampling grid or improves the best.
func (t *Trace) Observe(p Progress) {
	if t.every <= 0 {
		return
	}
	if p.Iteration%t.every != 0 && !p.Improved {
		return
	}
	t.Points = append(t.Points, TracePoint{
		Iteration:    p.Iteration,
		Temperature:  p.Temperature,
		CurrentScore: p.CurrentScore,
		BestScore:    p.BestScore,
	})
}
