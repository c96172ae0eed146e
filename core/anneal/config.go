package anneal

import (
	"runtime"

	"github.com/kilianp07/makespan/core/factory"
	"github.com/kilianp07/makespan/core/model"
)

// Config is the run configuration of a Solver.
type Config struct {
	// Iterations is the budget of every annealing run.
	Iterations int `json:"iterations"`
	// MoveKinds selects the neighbourhood: 1 reassign, 2 +swap, 3 +block.
	MoveKinds int `json:"move_kinds"`
	// MaxBlock bounds the block move length.
	MaxBlock int `json:"max_block"`
	// Placement is the initial assignment: round_robin, random or longest_first.
	Placement string `json:"placement"`
	// Schedule selects the cooling schedule and its parameters.
	Schedule factory.ModuleConfig `json:"schedule"`
	// Seed of the first restart; restart i uses Seed+i.
	Seed int64 `json:"seed"`
	// Restarts is the number of independent runs.
	Restarts int `json:"restarts"`
	// Workers bounds how many runs execute concurrently.
	Workers int `json:"workers"`
	// TimeoutSeconds stops all runs between iterations once elapsed. 0 disables it.
	TimeoutSeconds int `json:"timeout_seconds"`
	// TraceEvery samples the convergence trace every n iterations. 0 disables it.
	TraceEvery int `json:"trace_every"`
}

// DefaultConfig mirrors the reference setup: three move kinds, Boltzmann
// cooling and a single run.
func DefaultConfig() Config {
	c := Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills zero values.
func (c *Config) SetDefaults() {
	if c.Iterations == 0 {
		c.Iterations = 10000
	}
	if c.MoveKinds == 0 {
		c.MoveKinds = maxMoveKinds
	}
	if c.MaxBlock == 0 {
		c.MaxBlock = DefaultMaxBlock
	}
	if c.Placement == "" {
		c.Placement = "round_robin"
	}
	if c.Schedule.Type == "" {
		c.Schedule.Type = "boltzmann"
	}
	if c.Schedule.Type == "linear" {
		if c.Schedule.Conf == nil {
			c.Schedule.Conf = map[string]any{}
		}
		if _, ok := c.Schedule.Conf["horizon"]; !ok {
			c.Schedule.Conf["horizon"] = c.Iterations
		}
	}
	if c.Restarts == 0 {
		c.Restarts = 1
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Validate checks the settings and the schedule configuration.
func (c Config) Validate() error {
	if c.Iterations < 1 {
		return model.NewConfigError("iterations", "must be > 0 (got %d)", c.Iterations)
	}
	if c.MoveKinds < 1 || c.MoveKinds > maxMoveKinds {
		return model.NewConfigError("move_kinds", "must lie in [1,%d] (got %d)", maxMoveKinds, c.MoveKinds)
	}
	if c.MaxBlock < 1 {
		return model.NewConfigError("max_block", "must be > 0 (got %d)", c.MaxBlock)
	}
	switch c.Placement {
	case "round_robin", "random", "longest_first":
	default:
		return model.NewConfigError("placement", "unknown placement %q", c.Placement)
	}
	if c.Restarts < 1 {
		return model.NewConfigError("restarts", "must be > 0 (got %d)", c.Restarts)
	}
	if c.Workers < 1 {
		return model.NewConfigError("workers", "must be > 0 (got %d)", c.Workers)
	}
	if c.TimeoutSeconds < 0 {
		return model.NewConfigError("timeout_seconds", "must be >= 0 (got %d)", c.TimeoutSeconds)
	}
	if c.TraceEvery < 0 {
		return model.NewConfigError("trace_every", "must be >= 0 (got %d)", c.TraceEvery)
	}
	if _, err := NewSchedule(c.Schedule); err != nil {
		return err
	}
	return nil
}
