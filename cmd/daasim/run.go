package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chronodrachma/daasim/pkg/config"
	"github.com/chronodrachma/daasim/pkg/simulator"
	"github.com/chronodrachma/daasim/pkg/store"
)

var (
	runBlocks      int
	runShockHeight int
	runShockFactor float64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulation and print its summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("blocks") {
			cfg.NumBlocks = runBlocks
		}
		if cmd.Flags().Changed("shock-height") {
			cfg.ShockHeight = runShockHeight
		}
		if cmd.Flags().Changed("shock-factor") {
			cfg.ShockFactor = runShockFactor
		}

		result, err := simulator.RunConfig(logger, simulator.DefaultScenario, cfg)
		if err != nil {
			return err
		}

		summary := simulator.Summarize(result, cfg.ShockHeight, cfg.AnalysisSpan)
		printSummary(os.Stdout, cfg, summary)
		fmt.Fprintf(os.Stdout, "Run digest: %s\n", result.Digest().Hex())

		if dbPath == "" {
			return nil
		}
		return archiveRun(cfg, result)
	},
}

func init() {
	runCmd.Flags().IntVar(&runBlocks, "blocks", 0, "number of blocks to simulate")
	runCmd.Flags().IntVar(&runShockHeight, "shock-height", 0, "height of the hashrate change")
	runCmd.Flags().Float64Var(&runShockFactor, "shock-factor", 0, "hashrate multiplier from the shock height on")
}

func archiveRun(cfg config.SimulationConfig, result *simulator.Result) error {
	s, err := store.NewBadgerStore(dbPath, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	digest := result.Digest()
	meta := store.RunMeta{
		ID:              digest.Hex()[:16],
		Scenario:        simulator.DefaultScenario,
		CreatedAt:       time.Now().UTC(),
		Config:          cfg,
		NumBlocks:       result.NumBlocks(),
		FinalDifficulty: result.FinalDifficulty(),
		Digest:          digest,
	}
	if err := s.SaveRun(meta, result.Blocks()); err != nil {
		return err
	}

	logger.Info("run archived", zap.String("id", meta.ID), zap.String("db", dbPath))
	fmt.Fprintf(os.Stdout, "Archived as run %s\n", meta.ID)
	return nil
}

func printSummary(w io.Writer, cfg config.SimulationConfig, s simulator.Summary) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Simulation complete. Final Block Time: %ss\n", s.FinalBlockTime.StringFixed(2))
	fmt.Fprintf(w, "Final Difficulty: %s\n", s.FinalDifficulty.StringFixed(4))
	fmt.Fprintf(w, "Mean Block Time: %ss\n", s.MeanBlockTime.StringFixed(2))
	fmt.Fprintf(w, "Timespan clamps: %d upper, %d lower\n", s.UpperBoundHits, s.LowerBoundHits)

	if !s.Analyzed {
		fmt.Fprintf(
			w,
			"\nNot enough blocks simulated (%d) to analyze %d blocks after shock height (%d).\n",
			s.NumBlocks,
			s.Span,
			s.ShockHeight+s.Span,
		)
		return
	}

	fmt.Fprintln(w, "------------------------------------------------")
	fmt.Fprintf(w, "Time for %d blocks at target block time (%ds):\n", s.Span, cfg.TargetSpacing)
	fmt.Fprintf(
		w,
		"Total: %s (%s seconds)\n",
		simulator.FormatDuration(s.ExpectedSpanTime),
		s.ExpectedSpanTime.StringFixed(2),
	)
	fmt.Fprintln(w, "------------------------------------------------")
	fmt.Fprintf(
		w,
		"Time taken for %d blocks after hashrate change (from Block %d to Block %d):\n",
		s.Span,
		s.ShockHeight,
		s.ShockHeight+s.Span,
	)
	fmt.Fprintf(
		w,
		"Total: %s (%s seconds)\n",
		simulator.FormatDuration(s.ActualSpanTime),
		s.ActualSpanTime.StringFixed(2),
	)
	fmt.Fprintf(w, "Average time per block in this period: %s seconds/block\n", s.AverageSpanBlockTime.StringFixed(2))
	fmt.Fprintln(w, "------------------------------------------------")
}
