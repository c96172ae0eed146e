package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/makespan/core/metrics"
	"github.com/kilianp07/makespan/infra/logger"
)

// InfluxSink writes run records to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRun writes one anneal_run point.
func (s *InfluxSink) RecordRun(rec coremetrics.RunRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("anneal_run").
		AddTag("run_id", rec.RunID).
		AddTag("restart", strconv.Itoa(rec.Restart)).
		AddTag("schedule", rec.Schedule).
		AddTag("interrupted", strconv.FormatBool(rec.Interrupted)).
		AddField("seed", rec.Seed).
		AddField("processors", rec.Processors).
		AddField("jobs", rec.Jobs).
		AddField("initial_score", rec.InitialScore).
		AddField("best_score", rec.BestScore).
		AddField("iterations", rec.Iterations).
		AddField("accepted", rec.Accepted).
		AddField("uphill", rec.Uphill).
		AddField("improvements", rec.Improvements).
		AddField("duration_ms", round3(rec.Duration.Seconds()*1000)).
		SetTime(stamp(rec.Time))
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordImprovement writes one anneal_improvement point.
func (s *InfluxSink) RecordImprovement(rec coremetrics.ImprovementRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("anneal_improvement").
		AddTag("run_id", rec.RunID).
		AddTag("restart", strconv.Itoa(rec.Restart)).
		AddField("iteration", rec.Iteration).
		AddField("score", rec.Score).
		AddField("temperature", round3(rec.Temperature)).
		SetTime(stamp(rec.Time))
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordSolve writes the reduced result as an anneal_solve point.
func (s *InfluxSink) RecordSolve(rec coremetrics.SolveRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("anneal_solve").
		AddTag("run_id", rec.RunID).
		AddTag("schedule", rec.Schedule).
		AddTag("timed_out", strconv.FormatBool(rec.TimedOut)).
		AddField("best_score", rec.BestScore).
		AddField("lower_bound", rec.LowerBound).
		AddField("gap", round3(rec.Gap)).
		AddField("restarts", rec.Restarts).
		AddField("duration_ms", round3(rec.Duration.Seconds()*1000)).
		SetTime(stamp(rec.Time))
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying HTTP client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
