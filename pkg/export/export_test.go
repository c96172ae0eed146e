package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/kilianp07/makespan/core/anneal"
	"github.com/kilianp07/makespan/core/model"
	"github.com/kilianp07/makespan/pkg/bench"
)

func testResult(t *testing.T) anneal.Result {
	t.Helper()
	p, err := model.NewProblem(2, []int64{3, 3, 2, 2, 2})
	if err != nil {
		t.Fatalf("problem: %v", err)
	}
	s, err := model.NewSolutionFromAssignment(p, []int{0, 0, 1, 1, 1})
	if err != nil {
		t.Fatalf("solution: %v", err)
	}
	return anneal.Result{
		RunID:      "run-1",
		Schedule:   "boltzmann",
		Best:       s,
		LowerBound: p.LowerBound(),
		Runs: []anneal.RunResult{{
			Best: s,
			Trace: []anneal.TracePoint{
				{Iteration: 0, CurrentScore: 8, BestScore: 7},
				{Iteration: 10, CurrentScore: 6, BestScore: 6},
			},
		}},
		Duration: 1500 * time.Millisecond,
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteText(&buf, testResult(t)); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "proc_num 0: 3 3\nproc_num 1: 2 2 2\nscore: 6\nlower bound: 6 (gap 0.00%)\n1.500 secs\n"
	if buf.String() != want {
		t.Fatalf("unexpected report:\n%s", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "json", testResult(t)); err != nil {
		t.Fatalf("write: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Makespan != 6 || doc.RunID != "run-1" || len(doc.Processors) != 2 || doc.DurationMS != 1500 {
		t.Fatalf("unexpected doc %+v", doc)
	}
	if doc.Processors[1].Load != 6 || len(doc.Processors[1].Jobs) != 3 {
		t.Fatalf("unexpected plan %+v", doc.Processors[1])
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "csv", testResult(t)); err != nil {
		t.Fatalf("write: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 6 || rows[0][2] != "processor" || rows[3][0] != "2" || rows[3][2] != "1" {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	if err := Write(&bytes.Buffer{}, "xml", testResult(t)); err == nil {
		t.Fatal("expected error")
	}
}

func TestConvergenceChartHTML(t *testing.T) {
	res := testResult(t)
	html, err := ConvergenceChartHTML(res.Runs[0])
	if err != nil {
		t.Fatalf("chart: %v", err)
	}
	if !strings.Contains(html, "Annealing convergence") {
		t.Fatalf("title missing")
	}
	if _, err := ConvergenceChartHTML(anneal.RunResult{}); err == nil {
		t.Fatal("expected error without trace")
	}
}

func TestGridHeatmapHTML(t *testing.T) {
	cells := []bench.Cell{
		{Jobs: 100, Processors: 2, Summary: bench.Summary{MeanSeconds: 0.5}},
		{Jobs: 200, Processors: 2, Summary: bench.Summary{MeanSeconds: 1.5}},
	}
	html, err := GridHeatmapHTML(cells)
	if err != nil {
		t.Fatalf("heatmap: %v", err)
	}
	if !strings.Contains(html, "Mean solve time") {
		t.Fatalf("title missing")
	}
	if _, err := GridHeatmapHTML(nil); err == nil {
		t.Fatal("expected error for empty grid")
	}
}
