package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/makespan/core/anneal"
	"github.com/kilianp07/makespan/pkg/bench"
)

// ConvergenceChartHTML renders the sampled trace of run as a line chart of
// the current and best score.
func ConvergenceChartHTML(run anneal.RunResult) (string, error) {
	if len(run.Trace) == 0 {
		return "", fmt.Errorf("restart %d has no trace; set trace_every", run.Restart)
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Annealing convergence", Subtitle: "restart " + strconv.Itoa(run.Restart)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Iteration"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Makespan"}),
	)

	xAxis := make([]string, len(run.Trace))
	current := make([]opts.LineData, len(run.Trace))
	best := make([]opts.LineData, len(run.Trace))
	for i, p := range run.Trace {
		xAxis[i] = strconv.Itoa(p.Iteration)
		current[i] = opts.LineData{Value: p.CurrentScore}
		best[i] = opts.LineData{Value: p.BestScore}
	}
	line.SetXAxis(xAxis).
		AddSeries("current", current).
		AddSeries("best", best)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.String(), nil
}

// GridHeatmapHTML renders the mean wall time of a benchmark grid, jobs on
// the x axis and processors on the y axis.
func GridHeatmapHTML(cells []bench.Cell) (string, error) {
	if len(cells) == 0 {
		return "", fmt.Errorf("empty benchmark grid")
	}
	jobIdx := map[int]int{}
	procIdx := map[int]int{}
	var jobs, procs []string
	maxSecs := 0.0
	for _, c := range cells {
		if _, ok := jobIdx[c.Jobs]; !ok {
			jobIdx[c.Jobs] = len(jobs)
			jobs = append(jobs, strconv.Itoa(c.Jobs))
		}
		if _, ok := procIdx[c.Processors]; !ok {
			procIdx[c.Processors] = len(procs)
			procs = append(procs, strconv.Itoa(c.Processors))
		}
		if c.Summary.MeanSeconds > maxSecs {
			maxSecs = c.Summary.MeanSeconds
		}
	}
	data := make([]opts.HeatMapData, len(cells))
	for i, c := range cells {
		data[i] = opts.HeatMapData{Value: [3]interface{}{jobIdx[c.Jobs], procIdx[c.Processors], c.Summary.MeanSeconds}}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Mean solve time (s)"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Tasks number", Type: "category", Data: jobs}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Processors number", Type: "category", Data: procs}),
		charts.WithVisualMapOpts(opts.VisualMap{Min: 0, Max: float32(maxSecs)}),
	)
	hm.SetXAxis(jobs).AddSeries("seconds", data)

	var buf bytes.Buffer
	if err := hm.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render heatmap: %w", err)
	}
	return buf.String(), nil
}
