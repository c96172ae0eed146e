package mqtt

import "errors"

var (
	// ErrPublishTimeout is returned when the broker does not confirm a publish in time.
	ErrPublishTimeout = errors.New("timeout waiting for publish confirmation")
	// ErrNoSolution is returned when asked to publish a nil assignment.
	ErrNoSolution = errors.New("no solution to publish")
)
