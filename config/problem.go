package config

import "github.com/kilianp07/makespan/core/model"

// ProblemConfig locates the instance to solve.
type ProblemConfig struct {
	// Processors is the number of identical machines.
	Processors int `json:"processors"`
	// JobsFile holds the job count followed by the durations.
	JobsFile string `json:"jobs_file"`
}

// Validate rejects a negative processor count. Zero means "set on the
// command line".
func (c ProblemConfig) Validate() error {
	if c.Processors < 0 {
		return model.NewConfigError("problem.processors", "must be >= 1 (got %d)", c.Processors)
	}
	return nil
}
