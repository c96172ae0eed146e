package model

import (
	"errors"
	"testing"
)

func TestNewProblem_Invalid(t *testing.T) {
	cases := []struct {
		name  string
		procs int
		durs  []int64
		field string
	}{
		{"zero processors", 0, []int64{1}, "processors"},
		{"negative processors", -2, []int64{1}, "processors"},
		{"no jobs", 2, nil, "durations"},
		{"negative duration", 2, []int64{3, -1}, "durations"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := NewProblem(c.procs, c.durs)
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
			if cerr.Field != c.field {
				t.Fatalf("expected field %s got %s", c.field, cerr.Field)
			}
		})
	}
}

func TestNewProblem_CopiesInput(t *testing.T) {
	durs := []int64{5, 1, 2, 1}
	p, err := NewProblem(2, durs)
	if err != nil {
		t.Fatalf("new problem: %v", err)
	}
	durs[0] = 100
	if p.Duration(0) != 5 {
		t.Fatalf("problem aliased caller slice")
	}
	if p.TotalDuration() != 9 || p.MaxDuration() != 5 {
		t.Fatalf("unexpected totals %d %d", p.TotalDuration(), p.MaxDuration())
	}
}

func TestProblem_LowerBound(t *testing.T) {
	p, _ := NewProblem(2, []int64{5, 1, 2, 1})
	if lb := p.LowerBound(); lb != 5 {
		t.Fatalf("expected 5 got %d", lb)
	}
	p, _ = NewProblem(3, []int64{4, 4, 4, 4})
	if lb := p.LowerBound(); lb != 6 {
		t.Fatalf("expected ceil(16/3)=6 got %d", lb)
	}
	p, _ = NewProblem(4, []int64{0, 0})
	if lb := p.LowerBound(); lb != 0 {
		t.Fatalf("expected 0 got %d", lb)
	}
}
