package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/chronodrachma/daasim/pkg/core/types"
	"github.com/chronodrachma/daasim/pkg/simulator"
	"github.com/chronodrachma/daasim/pkg/store"
)

var (
	showRun    string
	showDigest string
	showHeight uint64
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "List archived runs or show one of them",
	RunE: func(cmd *cobra.Command, args []string) error {
		if dbPath == "" {
			return errors.New("--db is required")
		}
		if showRun != "" && showDigest != "" {
			return errors.New("--run and --digest are mutually exclusive")
		}

		s, err := store.NewBadgerStore(dbPath, logger)
		if err != nil {
			return err
		}
		defer s.Close()

		id := showRun
		if showDigest != "" {
			if id, err = findRunByDigest(s, showDigest); err != nil {
				return err
			}
		}

		if id == "" {
			if cmd.Flags().Changed("height") {
				return errors.New("--height needs --run or --digest")
			}
			return listRuns(os.Stdout, s)
		}

		if cmd.Flags().Changed("height") {
			b, err := s.GetBlock(id, showHeight)
			if err != nil {
				return err
			}
			printBlock(os.Stdout, id, b)
			return nil
		}
		return verifyRun(os.Stdout, s, id)
	},
}

func init() {
	showCmd.Flags().StringVar(&showRun, "run", "", "id of the run to show")
	showCmd.Flags().StringVar(&showDigest, "digest", "", "full hex digest of the run to show")
	showCmd.Flags().Uint64Var(&showHeight, "height", 0, "show only the archived block at this height")
}

func listRuns(w io.Writer, s store.RunStore) error {
	runs, err := s.ListRuns()
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintf(
			w,
			"%s  %s  blocks=%d  shock=%g@%d  final_difficulty=%s\n",
			r.ID,
			r.CreatedAt.Format("2006-01-02T15:04:05Z"),
			r.NumBlocks,
			r.Config.ShockFactor,
			r.Config.ShockHeight,
			r.FinalDifficulty.StringFixed(6),
		)
	}
	return nil
}

// findRunByDigest returns the id of the archived run whose digest is the
// given hex string.
func findRunByDigest(s store.RunStore, hexDigest string) (string, error) {
	digest, err := types.HashFromHex(hexDigest)
	if err != nil {
		return "", errors.Wrap(err, "--digest")
	}

	runs, err := s.ListRuns()
	if err != nil {
		return "", err
	}
	for _, r := range runs {
		if r.Digest == digest {
			return r.ID, nil
		}
	}
	return "", errors.Wrapf(store.ErrRunNotFound, "digest %s", digest)
}

func printBlock(w io.Writer, id string, b types.Block) {
	fmt.Fprintf(w, "Run %s block %d\n", id, b.Height)
	fmt.Fprintf(w, "Timestamp: %s\n", b.Timestamp.String())
	fmt.Fprintf(w, "Difficulty: %s\n", b.Difficulty.String())
	fmt.Fprintf(w, "Target: %s\n", b.Target().String())
	fmt.Fprintf(w, "Block hash: %s\n", b.ComputeHash())
}

// verifyRun checks an archived run against its digest and against a fresh
// replay of its config, then prints its summary.
func verifyRun(w io.Writer, s store.RunStore, id string) error {
	meta, blocks, err := s.LoadRun(id)
	if err != nil {
		return err
	}

	if types.ComputeChainDigest(blocks) != meta.Digest {
		return errors.Errorf("run %s: archived blocks do not match digest", meta.ID)
	}

	// Replaying the archived config must reproduce the archived blocks.
	result, err := simulator.RunConfig(logger, meta.Scenario, meta.Config)
	if err != nil {
		return err
	}
	if result.Digest() != meta.Digest {
		return errors.Errorf("run %s: replay digest %s differs", meta.ID, result.Digest())
	}

	summary := simulator.Summarize(result, meta.Config.ShockHeight, meta.Config.AnalysisSpan)
	printSummary(w, meta.Config, summary)
	fmt.Fprintf(w, "Run digest: %s\n", meta.Digest)
	return nil
}
