package cmd

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/classplan/core/solver"
	"github.com/kilianp07/classplan/qa/scenarios"
)

var benchOpts struct {
	scenario string
	n        int
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Time repeated solves of a scenario file",
	RunE:  runBench,
}

func init() {
	benchCmd.Flags().StringVarP(&benchOpts.scenario, "scenario", "s", "", "scenario file (YAML)")
	benchCmd.Flags().IntVarP(&benchOpts.n, "runs", "n", 200, "number of solves")
	_ = benchCmd.MarkFlagRequired("scenario")
	rootCmd.AddCommand(benchCmd)
}

// BenchStats summarises solve latencies in milliseconds.
type BenchStats struct {
	Runs   int
	Mean   float64
	StdDev float64
	P95    float64
	Max    float64
}

func summarize(samples []float64) BenchStats {
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	mean, std := stat.MeanStdDev(sorted, nil)
	return BenchStats{
		Runs:   len(sorted),
		Mean:   mean,
		StdDev: std,
		P95:    stat.Quantile(0.95, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
}

func runBench(cmd *cobra.Command, args []string) error {
	if benchOpts.n <= 0 {
		return fmt.Errorf("runs must be > 0")
	}
	sc, err := scenarios.Load(benchOpts.scenario)
	if err != nil {
		return err
	}
	s := solver.New(solver.Config{})
	samples := make([]float64, 0, benchOpts.n)
	var last scenarios.Outcome
	for i := 0; i < benchOpts.n; i++ {
		start := time.Now()
		last, err = scenarios.Run(context.Background(), s, sc)
		if err != nil {
			return err
		}
		samples = append(samples, float64(time.Since(start).Microseconds())/1000)
	}
	if err := sc.Expected.Check(last); err != nil {
		return fmt.Errorf("%s: %w", sc.Name, err)
	}
	st := summarize(samples)
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, %d nodes\n", sc.Name, last.Status+last.Error, last.Nodes)
	fmt.Fprintf(cmd.OutOrStdout(), "runs=%d mean=%.3fms stddev=%.3fms p95=%.3fms max=%.3fms\n",
		st.Runs, st.Mean, st.StdDev, st.P95, st.Max)
	return nil
}
