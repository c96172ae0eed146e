package mqtt

import (
	"context"
	"fmt"
	"sync"

	"github.com/kilianp07/makespan/core/model"
	coremqtt "github.com/kilianp07/makespan/core/mqtt"
)

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	// Jobs holds the last published job list per processor.
	Jobs  map[int][]int
	RunID string
	Fail  bool
	mu    sync.Mutex
}

var _ coremqtt.Publisher = (*MockPublisher)(nil)

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{Jobs: make(map[int][]int)}
}

// PublishAssignment records the job lists or returns an error if configured to fail.
func (m *MockPublisher) PublishAssignment(_ context.Context, runID string, s *model.Solution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return fmt.Errorf("publish failed")
	}
	m.RunID = runID
	for proc := 0; proc < s.Problem().Processors(); proc++ {
		m.Jobs[proc] = s.Jobs(proc)
	}
	return nil
}

// Close is a no-op.
func (m *MockPublisher) Close() {}
