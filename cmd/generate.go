package cmd

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/makespan/pkg/jobsfile"
)

var genOpts struct {
	jobs int
	min  int64
	max  int64
	seed int64
	out  string
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a random job list",
	RunE:  runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.IntVarP(&genOpts.jobs, "jobs", "n", 100, "number of jobs")
	f.Int64Var(&genOpts.min, "min", 1, "shortest duration")
	f.Int64Var(&genOpts.max, "max", 100, "longest duration")
	f.Int64Var(&genOpts.seed, "seed", 0, "random seed, 0 uses the current time")
	f.StringVarP(&genOpts.out, "out", "o", "jobs.txt", "output file")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	seed := genOpts.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	durations, err := jobsfile.Generate(rand.New(rand.NewSource(seed)), genOpts.jobs, genOpts.min, genOpts.max)
	if err != nil {
		return err
	}
	if err := jobsfile.WriteFile(genOpts.out, durations); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d jobs to %s (seed %d)\n", len(durations), genOpts.out, seed)
	return nil
}
