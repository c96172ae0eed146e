package metrics

import (
	"context"

	"github.com/kilianp07/makespan/core/events"
	coremetrics "github.com/kilianp07/makespan/core/metrics"
	"github.com/kilianp07/makespan/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// improvement events. The returned channel is closed once the collector has
// stopped, either because ctx was canceled or the bus was closed.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	rec, ok := sink.(coremetrics.ImprovementRecorder)
	if bus == nil || !ok {
		close(done)
		return done
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if e, ok := ev.(events.ImprovementEvent); ok {
					_ = rec.RecordImprovement(coremetrics.ImprovementRecord{
						RunID:       e.RunID,
						Restart:     e.Restart,
						Iteration:   e.Iteration,
						Score:       e.Score,
						Temperature: e.Temperature,
						Time:        e.Time,
					})
				}
			}
		}
	}()
	return done
}
