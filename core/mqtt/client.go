package mqtt

import (
	"context"

	"github.com/kilianp07/makespan/core/model"
)

// Publisher hands a finished assignment to the processors. Each processor
// receives the list of jobs it must run.
type Publisher interface {
	// PublishAssignment sends one message per processor plus a summary for
	// the solution found by run runID.
	PublishAssignment(ctx context.Context, runID string, s *model.Solution) error

	// Close releases the broker connection.
	Close()
}
