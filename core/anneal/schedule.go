package anneal

import (
	"errors"
	"math"

	"github.com/kilianp07/makespan/core/factory"
	"github.com/kilianp07/makespan/core/model"
)

// Schedule maps an iteration to a strictly positive, non-increasing
// temperature and turns a score delta into an acceptance probability.
type Schedule interface {
	Name() string
	Temperature(iteration int) float64
	AcceptanceProbability(delta float64, iteration int) float64
}

// metropolis accepts improvements and ties unconditionally and worse
// candidates with probability exp(-delta/T).
func metropolis(delta, temperature float64) float64 {
	if delta <= 0 {
		return 1.0
	}
	return math.Exp(-delta / temperature)
}

// positive keeps a temperature strictly above zero once it underflows.
func positive(t float64) float64 {
	if t <= 0 || math.IsNaN(t) {
		return math.SmallestNonzeroFloat64
	}
	return t
}

// Boltzmann is the logarithmic schedule T0 / ln(i+2). The +2 offset keeps
// the first iterations away from ln(0) and ln(1)=0.
type Boltzmann struct {
	T0 float64
}

func (Boltzmann) Name() string { return "boltzmann" }

func (b Boltzmann) Temperature(i int) float64 {
	return positive(b.T0 / math.Log(float64(i)+2))
}

func (b Boltzmann) AcceptanceProbability(delta float64, i int) float64 {
	return metropolis(delta, b.Temperature(i))
}

// Exponential is the geometric schedule T0 * Alpha^i.
type Exponential struct {
	T0    float64
	Alpha float64
}

func (Exponential) Name() string { return "exponential" }

func (e Exponential) Temperature(i int) float64 {
	return positive(e.T0 * math.Pow(e.Alpha, float64(i)))
}

func (e Exponential) AcceptanceProbability(delta float64, i int) float64 {
	return metropolis(delta, e.Temperature(i))
}

// Linear decreases from T0 to Floor over Horizon iterations and stays at
// Floor afterwards.
type Linear struct {
	T0      float64
	Floor   float64
	Horizon int
}

func (Linear) Name() string { return "linear" }

func (l Linear) Temperature(i int) float64 {
	if i >= l.Horizon {
		return positive(l.Floor)
	}
	frac := float64(i) / float64(l.Horizon)
	return positive(l.T0 - frac*(l.T0-l.Floor))
}

func (l Linear) AcceptanceProbability(delta float64, i int) float64 {
	return metropolis(delta, l.Temperature(i))
}

// Cauchy is the fast annealing schedule T0 / (i+1).
type Cauchy struct {
	T0 float64
}

func (Cauchy) Name() string { return "cauchy" }

func (c Cauchy) Temperature(i int) float64 {
	return positive(c.T0 / (float64(i) + 1))
}

func (c Cauchy) AcceptanceProbability(delta float64, i int) float64 {
	return metropolis(delta, c.Temperature(i))
}

// DefaultInitialTemperature is used when a schedule config omits T0.
const DefaultInitialTemperature = 100.0

type scheduleConf struct {
	InitialTemperature float64 `json:"initial_temperature"`
	Alpha              float64 `json:"alpha"`
	FinalTemperature   float64 `json:"final_temperature"`
	Horizon            int     `json:"horizon"`
}

func (c *scheduleConf) setDefaults() {
	if c.InitialTemperature == 0 {
		c.InitialTemperature = DefaultInitialTemperature
	}
}

func (c scheduleConf) validate() error {
	if c.InitialTemperature <= 0 || math.IsInf(c.InitialTemperature, 0) || math.IsNaN(c.InitialTemperature) {
		return model.NewConfigError("schedule.initial_temperature", "must be a finite value > 0 (got %v)", c.InitialTemperature)
	}
	return nil
}

var schedules = factory.NewRegistry[Schedule]()

func decodeSchedule(conf map[string]any) (scheduleConf, error) {
	var c scheduleConf
	if err := factory.Decode(conf, &c); err != nil {
		return c, model.NewConfigError("schedule.conf", "%v", err)
	}
	c.setDefaults()
	return c, c.validate()
}

func init() {
	schedules.MustRegister("boltzmann", func(conf map[string]any) (Schedule, error) {
		c, err := decodeSchedule(conf)
		if err != nil {
			return nil, err
		}
		return Boltzmann{T0: c.InitialTemperature}, nil
	})
	schedules.MustRegister("exponential", func(conf map[string]any) (Schedule, error) {
		c, err := decodeSchedule(conf)
		if err != nil {
			return nil, err
		}
		if c.Alpha == 0 {
			c.Alpha = 0.995
		}
		if c.Alpha <= 0 || c.Alpha > 1 {
			return nil, model.NewConfigError("schedule.alpha", "must lie in (0,1] (got %v)", c.Alpha)
		}
		return Exponential{T0: c.InitialTemperature, Alpha: c.Alpha}, nil
	})
	schedules.MustRegister("linear", func(conf map[string]any) (Schedule, error) {
		c, err := decodeSchedule(conf)
		if err != nil {
			return nil, err
		}
		if c.FinalTemperature == 0 {
			c.FinalTemperature = c.InitialTemperature / 1000
		}
		if c.FinalTemperature <= 0 || c.FinalTemperature > c.InitialTemperature {
			return nil, model.NewConfigError("schedule.final_temperature", "must lie in (0, initial_temperature] (got %v)", c.FinalTemperature)
		}
		if c.Horizon <= 0 {
			return nil, model.NewConfigError("schedule.horizon", "must be > 0 (got %d)", c.Horizon)
		}
		return Linear{T0: c.InitialTemperature, Floor: c.FinalTemperature, Horizon: c.Horizon}, nil
	})
	schedules.MustRegister("cauchy", func(conf map[string]any) (Schedule, error) {
		c, err := decodeSchedule(conf)
		if err != nil {
			return nil, err
		}
		return Cauchy{T0: c.InitialTemperature}, nil
	})
}

// NewSchedule builds a cooling schedule from configuration. An empty type
// selects the Boltzmann schedule.
func NewSchedule(cfg factory.ModuleConfig) (Schedule, error) {
	if cfg.Type == "" {
		cfg.Type = "boltzmann"
	}
	s, err := schedules.Create(cfg)
	if err != nil {
		var cerr *model.ConfigError
		if errors.As(err, &cerr) {
			return nil, err
		}
		return nil, model.NewConfigError("schedule.type", "%v", err)
	}
	return s, nil
}

// ScheduleTypes lists the registered schedule names.
func ScheduleTypes() []string { return schedules.Names() }
