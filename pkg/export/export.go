package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kilianp07/makespan/core/anneal"
	"github.com/kilianp07/makespan/core/model"
)

// ProcessorPlan lists the work of one processor.
type ProcessorPlan struct {
	Processor int     `json:"processor"`
	Jobs      []int   `json:"jobs"`
	Durations []int64 `json:"durations"`
	Load      int64   `json:"load"`
}

// Document is the JSON representation of a solve.
type Document struct {
	RunID       string          `json:"run_id"`
	Schedule    string          `json:"schedule"`
	Makespan    int64           `json:"makespan"`
	LowerBound  int64           `json:"lower_bound"`
	Gap         float64         `json:"gap"`
	BestRestart int             `json:"best_restart"`
	Restarts    int             `json:"restarts"`
	DurationMS  int64           `json:"duration_ms"`
	TimedOut    bool            `json:"timed_out"`
	Assignment  []int           `json:"assignment"`
	Processors  []ProcessorPlan `json:"processors"`
}

// Plans splits s into per-processor job lists in job index order.
func Plans(s *model.Solution) []ProcessorPlan {
	p := s.Problem()
	plans := make([]ProcessorPlan, p.Processors())
	for proc := range plans {
		jobs := s.Jobs(proc)
		durations := make([]int64, len(jobs))
		for i, j := range jobs {
			durations[i] = p.Duration(j)
		}
		plans[proc] = ProcessorPlan{Processor: proc, Jobs: jobs, Durations: durations, Load: s.Load(proc)}
	}
	return plans
}

// NewDocument builds the JSON document of res.
func NewDocument(res anneal.Result) Document {
	return Document{
		RunID:       res.RunID,
		Schedule:    res.Schedule,
		Makespan:    res.Best.Score(),
		LowerBound:  res.LowerBound,
		Gap:         res.Gap(),
		BestRestart: res.BestRestart,
		Restarts:    len(res.Runs),
		DurationMS:  res.Duration.Milliseconds(),
		TimedOut:    res.TimedOut,
		Assignment:  res.Best.Assignment(),
		Processors:  Plans(res.Best),
	}
}

// WriteJSON writes the solve result to w in JSON format.
func WriteJSON(w io.Writer, res anneal.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(res))
}

// WriteCSV writes one row per job with its duration and processor.
func WriteCSV(w io.Writer, s *model.Solution) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"job", "duration", "processor"}); err != nil {
		return err
	}
	p := s.Problem()
	for j := 0; j < p.NumJobs(); j++ {
		rec := []string{
			strconv.Itoa(j),
			strconv.FormatInt(p.Duration(j), 10),
			strconv.Itoa(s.Processor(j)),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteText prints the per-processor duration lists followed by the score,
// the lower bound and the elapsed time.
func WriteText(w io.Writer, res anneal.Result) error {
	var b strings.Builder
	for _, plan := range Plans(res.Best) {
		parts := make([]string, len(plan.Durations))
		for i, d := range plan.Durations {
			parts[i] = strconv.FormatInt(d, 10)
		}
		fmt.Fprintf(&b, "proc_num %d: %s\n", plan.Processor, strings.Join(parts, " "))
	}
	fmt.Fprintf(&b, "score: %d\n", res.Best.Score())
	fmt.Fprintf(&b, "lower bound: %d (gap %.2f%%)\n", res.LowerBound, res.Gap()*100)
	fmt.Fprintf(&b, "%.3f secs\n", res.Duration.Seconds())
	if res.TimedOut {
		b.WriteString("timed out before the iteration budget\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Write dispatches on format: text, json or csv.
func Write(w io.Writer, format string, res anneal.Result) error {
	switch format {
	case "", "text":
		return WriteText(w, res)
	case "json":
		return WriteJSON(w, res)
	case "csv":
		return WriteCSV(w, res.Best)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
