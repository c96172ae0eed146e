package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kilianp07/makespan/core/events"
	coremetrics "github.com/kilianp07/makespan/core/metrics"
	"github.com/kilianp07/makespan/internal/eventbus"
)

type improvementSink struct {
	coremetrics.NopSink
	mu   sync.Mutex
	recs []coremetrics.ImprovementRecord
}

func (s *improvementSink) RecordImprovement(rec coremetrics.ImprovementRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

func TestStartEventCollector(t *testing.T) {
	bus := eventbus.New()
	sink := &improvementSink{}
	done := StartEventCollector(context.Background(), bus, sink)

	bus.Publish(events.ImprovementEvent{RunID: "r", Restart: 1, Iteration: 3, Score: 7})
	bus.Publish("unrelated")
	bus.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop after bus close")
	}
	if len(sink.recs) != 1 {
		t.Fatalf("expected 1 improvement, got %d", len(sink.recs))
	}
	if sink.recs[0].Iteration != 3 || sink.recs[0].Score != 7 {
		t.Fatalf("unexpected record %+v", sink.recs[0])
	}
}

func TestStartEventCollector_NoRecorder(t *testing.T) {
	done := StartEventCollector(context.Background(), eventbus.New(), runOnly{})
	select {
	case <-done:
	default:
		t.Fatal("expected closed channel for a sink without improvement support")
	}
}

type runOnly struct{}

func (runOnly) RecordRun(coremetrics.RunRecord) error { return nil }
