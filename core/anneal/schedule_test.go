package anneal

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/makespan/core/factory"
	"github.com/kilianp07/makespan/core/model"
)

func allSchedules() []Schedule {
	return []Schedule{
		Boltzmann{T0: 100},
		Exponential{T0: 100, Alpha: 0.99},
		Linear{T0: 100, Floor: 0.1, Horizon: 500},
		Cauchy{T0: 100},
	}
}

func TestBoltzmann_Temperature(t *testing.T) {
	b := Boltzmann{T0: 10}
	assert.InDelta(t, 10/math.Log(2), b.Temperature(0), 1e-12)
	assert.InDelta(t, 10/math.Log(102), b.Temperature(100), 1e-12)
}

func TestSchedules_PositiveNonIncreasing(t *testing.T) {
	for _, s := range allSchedules() {
		prev := math.Inf(1)
		for i := 0; i < 5000; i++ {
			temp := s.Temperature(i)
			if temp <= 0 {
				t.Fatalf("%s: temperature %v at %d not positive", s.Name(), temp, i)
			}
			if temp > prev {
				t.Fatalf("%s: temperature increased at %d", s.Name(), i)
			}
			prev = temp
		}
	}
}

func TestAcceptance_NonPositiveDeltaIsCertain(t *testing.T) {
	for _, s := range allSchedules() {
		for _, i := range []int{0, 1, 10, 100000} {
			for _, d := range []float64{0, -1, -1e9} {
				if p := s.AcceptanceProbability(d, i); p != 1.0 {
					t.Fatalf("%s: p(%v,%d)=%v", s.Name(), d, i, p)
				}
			}
		}
	}
}

func TestAcceptance_DecreasesWithIteration(t *testing.T) {
	for _, s := range allSchedules() {
		prev := 1.0
		for i := 0; i < 2000; i++ {
			p := s.AcceptanceProbability(3, i)
			if p < 0 || p > 1 {
				t.Fatalf("%s: probability %v out of range", s.Name(), p)
			}
			if p > prev {
				t.Fatalf("%s: acceptance increased at %d", s.Name(), i)
			}
			prev = p
		}
	}
	b := Boltzmann{T0: 50}
	assert.Greater(t, b.AcceptanceProbability(5, 10), b.AcceptanceProbability(5, 11))
}

func TestExponential_Underflow(t *testing.T) {
	e := Exponential{T0: 1, Alpha: 0.5}
	assert.Greater(t, e.Temperature(1<<20), 0.0)
	assert.Equal(t, 0.0, e.AcceptanceProbability(1, 1<<20))
}

func TestNewSchedule(t *testing.T) {
	s, err := NewSchedule(factory.ModuleConfig{})
	require.NoError(t, err)
	assert.Equal(t, Boltzmann{T0: DefaultInitialTemperature}, s)

	s, err = NewSchedule(factory.ModuleConfig{Type: "exponential", Conf: map[string]any{"initial_temperature": 20, "alpha": 0.9}})
	require.NoError(t, err)
	assert.Equal(t, Exponential{T0: 20, Alpha: 0.9}, s)

	s, err = NewSchedule(factory.ModuleConfig{Type: "linear", Conf: map[string]any{"initial_temperature": "10", "horizon": "100"}})
	require.NoError(t, err)
	assert.Equal(t, Linear{T0: 10, Floor: 0.01, Horizon: 100}, s)

	s, err = NewSchedule(factory.ModuleConfig{Type: "cauchy"})
	require.NoError(t, err)
	assert.Equal(t, "cauchy", s.Name())

	assert.ElementsMatch(t, []string{"boltzmann", "cauchy", "exponential", "linear"}, ScheduleTypes())
}

func TestNewSchedule_Invalid(t *testing.T) {
	cfgs := []factory.ModuleConfig{
		{Type: "quadratic"},
		{Type: "boltzmann", Conf: map[string]any{"initial_temperature": -1}},
		{Type: "exponential", Conf: map[string]any{"alpha": 1.5}},
		{Type: "linear", Conf: map[string]any{"horizon": 0}},
		{Type: "linear", Conf: map[string]any{"horizon": 10, "initial_temperature": 1, "final_temperature": 2}},
	}
	for _, c := range cfgs {
		_, err := NewSchedule(c)
		var cerr *model.ConfigError
		if !errors.As(err, &cerr) {
			t.Fatalf("%+v: expected ConfigError got %v", c, err)
		}
	}
}
