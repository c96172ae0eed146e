package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/makespan/app"
	"github.com/kilianp07/makespan/pkg/bench"
	"github.com/kilianp07/makespan/pkg/export"
)

var benchOpts struct {
	jobsFile   string
	processors int
	runs       int
	gridJobs   []int
	gridProcs  []int
	minDur     int64
	maxDur     int64
	heatmap    string
	asJSON     bool
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Repeat the solve over several seeds and report score and time statistics",
	RunE:  runBench,
}

func init() {
	f := benchCmd.Flags()
	f.StringVarP(&benchOpts.jobsFile, "jobs-file", "f", "", "job list: count followed by durations")
	f.IntVarP(&benchOpts.processors, "processors", "p", 0, "number of processors")
	f.IntVar(&benchOpts.runs, "runs", 5, "solves per instance")
	f.IntSliceVar(&benchOpts.gridJobs, "grid-jobs", nil, "sweep random instances with these job counts")
	f.IntSliceVar(&benchOpts.gridProcs, "grid-processors", nil, "processor counts of the sweep")
	f.Int64Var(&benchOpts.minDur, "min", 1, "shortest generated duration in a sweep")
	f.Int64Var(&benchOpts.maxDur, "max", 100, "longest generated duration in a sweep")
	f.StringVar(&benchOpts.heatmap, "heatmap", "", "write the sweep mean time heatmap as HTML")
	f.BoolVar(&benchOpts.asJSON, "json", false, "print JSON instead of text")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, _ []string) error {
	return withService(nil, func(ctx context.Context, svc *app.Service) error {
		if len(benchOpts.gridJobs) > 0 || len(benchOpts.gridProcs) > 0 {
			return runGrid(ctx, cmd, svc)
		}
		p, err := svc.LoadProblem(benchOpts.processors, benchOpts.jobsFile)
		if err != nil {
			return err
		}
		samples, sum, err := svc.Bench(ctx, p, benchOpts.runs)
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		if benchOpts.asJSON {
			return json.NewEncoder(w).Encode(struct {
				Samples []bench.Sample `json:"samples"`
				Summary bench.Summary  `json:"summary"`
			}{samples, sum})
		}
		fmt.Fprintf(w, "runs: %d\n", sum.Runs)
		fmt.Fprintf(w, "best score: %d\n", sum.BestScore)
		fmt.Fprintf(w, "average score: %.2f (std %.2f)\n", sum.MeanScore, sum.StdScore)
		fmt.Fprintf(w, "average gap: %.2f%%\n", sum.MeanGap*100)
		fmt.Fprintf(w, "%.3f secs (std %.3f)\n", sum.MeanSeconds, sum.StdSeconds)
		return nil
	})
}

func runGrid(ctx context.Context, cmd *cobra.Command, svc *app.Service) error {
	cells, err := svc.Grid(ctx, bench.GridSpec{
		Jobs:        benchOpts.gridJobs,
		Processors:  benchOpts.gridProcs,
		MinDuration: benchOpts.minDur,
		MaxDuration: benchOpts.maxDur,
		Runs:        benchOpts.runs,
	})
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if benchOpts.asJSON {
		if err := json.NewEncoder(w).Encode(cells); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(w, "%6s %6s %10s %10s\n", "jobs", "procs", "score", "secs")
		for _, c := range cells {
			fmt.Fprintf(w, "%6d %6d %10.2f %10.3f\n", c.Jobs, c.Processors, c.Summary.MeanScore, c.Summary.MeanSeconds)
		}
	}
	if benchOpts.heatmap != "" {
		html, err := export.GridHeatmapHTML(cells)
		if err != nil {
			return err
		}
		return os.WriteFile(benchOpts.heatmap, []byte(html), 0o644)
	}
	return nil
}
