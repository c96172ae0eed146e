package monitoring

import (
	"errors"
	"time"

	"github.com/kilianp07/makespan/core/model"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init sets the global monitor implementation.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	if current != nil {
		current.CaptureException(err, tags)
	}
}

// CaptureSearchError reports a failed solve. The error kind tag separates
// rejected configurations from illegal moves, which indicate a bug.
func CaptureSearchError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	out := make(map[string]string, len(tags)+1)
	for k, v := range tags {
		out[k] = v
	}
	out["kind"] = ErrorKind(err)
	CaptureException(err, out)
}

// ErrorKind classifies err for reporting.
func ErrorKind(err error) string {
	var cerr *model.ConfigError
	var merr *model.InvalidMoveError
	switch {
	case errors.As(err, &cerr):
		return "config"
	case errors.As(err, &merr):
		return "invalid_move"
	default:
		return "internal"
	}
}

// Recover captures panics in goroutines.
func Recover() {
	if current != nil {
		current.Recover()
	}
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	if current != nil {
		current.Flush(d)
	}
}
