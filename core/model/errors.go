package model

import "fmt"

// ConfigError reports an invalid problem or run configuration. It is raised
// before any search starts and is never recovered.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

// NewConfigError builds a ConfigError with a formatted reason.
func NewConfigError(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InvalidMoveError reports a move referencing a job or processor outside the
// problem bounds. It means a neighbourhood produced an illegal move and the
// run must abort.
type InvalidMoveError struct {
	Job       int
	Processor int
	Reason    string
}

func (e *InvalidMoveError) Error() string {
	return fmt.Sprintf("invalid move job=%d processor=%d: %s", e.Job, e.Processor, e.Reason)
}
