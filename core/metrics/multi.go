package metrics

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRun forwards the record to all sinks, returning the first error encountered.
func (m *MultiSink) RecordRun(rec RunRecord) error {
	for _, s := range m.Sinks {
		if err := s.RecordRun(rec); err != nil {
			return err
		}
	}
	return nil
}

// RecordImprovement forwards improvements to sinks that support them.
func (m *MultiSink) RecordImprovement(rec ImprovementRecord) error {
	for _, s := range m.Sinks {
		if r, ok := s.(ImprovementRecorder); ok {
			if err := r.RecordImprovement(rec); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordSolve forwards solve results to sinks that support them.
func (m *MultiSink) RecordSolve(rec SolveRecord) error {
	for _, s := range m.Sinks {
		if r, ok := s.(SolveRecorder); ok {
			if err := r.RecordSolve(rec); err != nil {
				return err
			}
		}
	}
	return nil
}
