package metrics

import "testing"

// TestMultiSink ensures records are forwarded to all sinks.

type recordSink struct {
	count int
}

func (r *recordSink) RecordRun(RunRecord) error {
	r.count++
	return nil
}

func (r *recordSink) RecordImprovement(ImprovementRecord) error {
	r.count++
	return nil
}

type runOnlySink struct {
	count int
}

func (r *runOnlySink) RecordRun(RunRecord) error {
	r.count++
	return nil
}

func TestMultiSink(t *testing.T) {
	s1 := &recordSink{}
	s2 := &recordSink{}
	s3 := &runOnlySink{}
	m := NewMultiSink(s1, s2, s3)
	if err := m.RecordRun(RunRecord{RunID: "r"}); err != nil {
		t.Fatalf("record run: %v", err)
	}
	if err := m.RecordImprovement(ImprovementRecord{RunID: "r"}); err != nil {
		t.Fatalf("record improvement: %v", err)
	}
	if err := m.RecordSolve(SolveRecord{RunID: "r"}); err != nil {
		t.Fatalf("record solve: %v", err)
	}
	if s1.count != 2 || s2.count != 2 {
		t.Fatalf("records not forwarded")
	}
	if s3.count != 1 {
		t.Fatalf("run-only sink got %d records", s3.count)
	}
}

func TestConfigPrometheusEnabled(t *testing.T) {
	var c Config
	c.SetDefaults()
	if c.PrometheusEnabled() {
		t.Fatalf("no sinks configured")
	}
	if c.PrometheusPort != ":2112" {
		t.Fatalf("unexpected default port %s", c.PrometheusPort)
	}
}
