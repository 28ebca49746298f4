package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chronodrachma/daasim/pkg/simulator"
)

var (
	sweepFactors     []float64
	sweepParallelism int
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one simulation per shock factor in parallel",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		cases := make([]simulator.Case, 0, len(sweepFactors))
		for _, f := range sweepFactors {
			caseCfg := cfg
			caseCfg.ShockFactor = f
			c, err := simulator.CaseFromConfig(fmt.Sprintf("factor_%g", f), caseCfg)
			if err != nil {
				return err
			}
			cases = append(cases, c)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		results, err := simulator.Sweep(ctx, logger, cases, sweepParallelism)
		if err != nil {
			return err
		}

		fmt.Fprintf(
			os.Stdout,
			"%-14s %-12s %-14s %-16s %s\n",
			"scenario",
			"final diff",
			"final time(s)",
			"span avg(s)",
			"digest",
		)
		for i, result := range results {
			s := simulator.Summarize(result, cfg.ShockHeight, cfg.AnalysisSpan)
			spanAvg := "n/a"
			if s.Analyzed {
				spanAvg = s.AverageSpanBlockTime.StringFixed(2)
			}
			fmt.Fprintf(
				os.Stdout,
				"%-14s %-12s %-14s %-16s %s\n",
				cases[i].Name,
				s.FinalDifficulty.StringFixed(6),
				s.FinalBlockTime.StringFixed(2),
				spanAvg,
				result.Digest().Hex()[:16],
			)
		}
		return nil
	},
}

func init() {
	sweepCmd.Flags().Float64SliceVar(
		&sweepFactors,
		"shock-factors",
		[]float64{0.1, 0.3, 0.5, 2},
		"hashrate multipliers to simulate",
	)
	sweepCmd.Flags().IntVar(&sweepParallelism, "parallelism", 0, "concurrent runs (0 = GOMAXPROCS)")
}
