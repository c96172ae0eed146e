package events

import "time"

// ImprovementEvent is published when a restart improves its best score.
type ImprovementEvent struct {
	RunID       string
	Restart     int
	Iteration   int
	Score       int64
	Temperature float64
	Time        time.Time
}
