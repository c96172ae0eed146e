package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/makespan/app"
	"github.com/kilianp07/makespan/config"
	"github.com/kilianp07/makespan/core/factory"
	"github.com/kilianp07/makespan/pkg/export"
)

var solveOpts struct {
	jobsFile   string
	processors int
	format     string
	out        string
	chart      string
	iterations int
	restarts   int
	seed       int64
	schedule   string
	serve      bool
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Assign the jobs of a file to processors",
	RunE:  runSolve,
}

func init() {
	f := solveCmd.Flags()
	f.StringVarP(&solveOpts.jobsFile, "jobs-file", "f", "", "job list: count followed by durations")
	f.IntVarP(&solveOpts.processors, "processors", "p", 0, "number of processors")
	f.StringVar(&solveOpts.format, "format", "text", "output format: text, json or csv")
	f.StringVarP(&solveOpts.out, "out", "o", "", "write the result to this file instead of stdout")
	f.StringVar(&solveOpts.chart, "chart", "", "write the convergence chart of the best restart as HTML")
	f.IntVar(&solveOpts.iterations, "iterations", 0, "iteration budget per restart")
	f.IntVar(&solveOpts.restarts, "restarts", 0, "independent restarts")
	f.Int64Var(&solveOpts.seed, "seed", 0, "seed of the first restart")
	f.StringVar(&solveOpts.schedule, "schedule", "", "cooling schedule: boltzmann, exponential, linear or cauchy")
	f.BoolVar(&solveOpts.serve, "serve", false, "keep serving /metrics after solving until interrupted")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	adjust := func(cfg *config.Config) {
		if flags.Changed("iterations") {
			if cfg.Anneal.Schedule.Type == "linear" && cfg.Anneal.Schedule.Conf["horizon"] == cfg.Anneal.Iterations {
				cfg.Anneal.Schedule.Conf["horizon"] = solveOpts.iterations
			}
			cfg.Anneal.Iterations = solveOpts.iterations
		}
		if flags.Changed("restarts") {
			cfg.Anneal.Restarts = solveOpts.restarts
		}
		if flags.Changed("seed") {
			cfg.Anneal.Seed = solveOpts.seed
		}
		if flags.Changed("schedule") {
			cfg.Anneal.Schedule = factory.ModuleConfig{Type: solveOpts.schedule}
			cfg.Anneal.SetDefaults()
		}
		if solveOpts.chart != "" && cfg.Anneal.TraceEvery == 0 {
			cfg.Anneal.TraceEvery = max(1, cfg.Anneal.Iterations/200)
		}
	}
	return withService(adjust, func(ctx context.Context, svc *app.Service) error {
		svc.StartMetricsServer(ctx)
		p, err := svc.LoadProblem(solveOpts.processors, solveOpts.jobsFile)
		if err != nil {
			return err
		}
		res, err := svc.Solve(ctx, p)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if solveOpts.out != "" {
			f, err := os.Create(solveOpts.out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}
		if err := export.Write(w, solveOpts.format, res); err != nil {
			return err
		}

		if solveOpts.chart != "" {
			html, err := export.ConvergenceChartHTML(res.Runs[res.BestRestart])
			if err != nil {
				return err
			}
			if err := os.WriteFile(solveOpts.chart, []byte(html), 0o644); err != nil {
				return fmt.Errorf("write chart: %w", err)
			}
		}
		if solveOpts.serve {
			<-ctx.Done()
		}
		return nil
	})
}
