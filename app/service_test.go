package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/makespan/config"
	coremetrics "github.com/kilianp07/makespan/core/metrics"
	"github.com/kilianp07/makespan/core/model"
	"github.com/kilianp07/makespan/infra/mqtt"
	"github.com/kilianp07/makespan/pkg/jobsfile"
)

type memorySink struct {
	mu           sync.Mutex
	runs         []coremetrics.RunRecord
	improvements []coremetrics.ImprovementRecord
	solves       []coremetrics.SolveRecord
}

func (m *memorySink) RecordRun(r coremetrics.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, r)
	return nil
}

func (m *memorySink) RecordImprovement(r coremetrics.ImprovementRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.improvements = append(m.improvements, r)
	return nil
}

func (m *memorySink) RecordSolve(r coremetrics.SolveRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.solves = append(m.solves, r)
	return nil
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishAssignment(ctx context.Context, runID string, s *model.Solution) error {
	return m.Called(ctx, runID, s).Error(0)
}

func (m *mockPublisher) Close() { m.Called() }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.txt")
	require.NoError(t, jobsfile.WriteFile(path, []int64{3, 3, 2, 2, 2}))
	cfg := &config.Config{Problem: config.ProblemConfig{Processors: 2, JobsFile: path}}
	cfg.Anneal.Iterations = 500
	cfg.Anneal.Restarts = 2
	cfg.Anneal.Placement = "random"
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestService_Solve(t *testing.T) {
	cfg := testConfig(t)
	sink := &memorySink{}
	pub := mqtt.NewMockPublisher()
	svc, err := New(cfg, WithSink(sink), WithPublisher(pub))
	require.NoError(t, err)

	p, err := svc.LoadProblem(0, "")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Processors())
	assert.Equal(t, 5, p.NumJobs())

	res, err := svc.Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, int64(6), res.Best.Score())
	require.NoError(t, svc.Close())

	assert.Len(t, sink.runs, 2)
	require.Len(t, sink.solves, 1)
	assert.Equal(t, res.RunID, sink.solves[0].RunID)
	for _, imp := range sink.improvements {
		assert.Equal(t, res.RunID, imp.RunID)
	}

	assert.Equal(t, res.RunID, pub.RunID)
	total := 0
	for _, jobs := range pub.Jobs {
		total += len(jobs)
	}
	assert.Equal(t, 5, total)
}

func TestService_PublishFailure(t *testing.T) {
	cfg := testConfig(t)
	pub := mqtt.NewMockPublisher()
	pub.Fail = true
	svc, err := New(cfg, WithSink(coremetrics.NopSink{}), WithPublisher(pub))
	require.NoError(t, err)
	defer svc.Close()

	p, err := svc.LoadProblem(0, "")
	require.NoError(t, err)
	_, err = svc.Solve(context.Background(), p)
	assert.Error(t, err)
}

func TestService_LoadProblemErrors(t *testing.T) {
	cfg := testConfig(t)
	svc, err := New(cfg, WithSink(coremetrics.NopSink{}))
	require.NoError(t, err)
	defer svc.Close()

	var cerr *model.ConfigError
	_, err = svc.LoadProblem(0, filepath.Join(t.TempDir(), "missing.txt"))
	assert.True(t, errors.As(err, &cerr))
	_, err = svc.LoadProblem(-2, "")
	assert.True(t, errors.As(err, &cerr))

	cfg.Problem.JobsFile = ""
	_, err = svc.LoadProblem(2, "")
	assert.True(t, errors.As(err, &cerr))
}

func TestService_Bench(t *testing.T) {
	cfg := testConfig(t)
	svc, err := New(cfg, WithSink(coremetrics.NopSink{}))
	require.NoError(t, err)
	defer svc.Close()

	p, err := svc.LoadProblem(0, "")
	require.NoError(t, err)
	samples, sum, err := svc.Bench(context.Background(), p, 3)
	require.NoError(t, err)
	assert.Len(t, samples, 3)
	assert.Equal(t, 3, sum.Runs)
	assert.Equal(t, int64(6), sum.BestScore)
}

func TestService_PublishesBestOnce(t *testing.T) {
	cfg := testConfig(t)
	pub := &mockPublisher{}
	pub.On("PublishAssignment", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("*model.Solution")).
		Return(nil).Once()
	pub.On("Close").Return().Once()

	svc, err := New(cfg, WithSink(coremetrics.NopSink{}), WithPublisher(pub))
	require.NoError(t, err)
	p, err := svc.LoadProblem(0, "")
	require.NoError(t, err)
	res, err := svc.Solve(context.Background(), p)
	require.NoError(t, err)
	require.NoError(t, svc.Close())

	pub.AssertExpectations(t)
	published := pub.Calls[0].Arguments.Get(2).(*model.Solution)
	assert.Equal(t, res.Best.Score(), published.Score())
	assert.Equal(t, res.RunID, pub.Calls[0].Arguments.String(1))
}
