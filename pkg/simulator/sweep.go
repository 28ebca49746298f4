package simulator

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chronodrachma/daasim/pkg/core/consensus"
)

// Case is one independent run of a sweep.
type Case struct {
	Name              string
	Params            consensus.Params
	NumBlocks         int
	InitialDifficulty decimal.Decimal
	Schedule          HashrateSchedule
}

// Sweep runs every case concurrently, at most parallelism at a time
// (GOMAXPROCS when parallelism <= 0). Results are returned in case order. The
// first failure cancels the cases that have not started yet and is returned
// with the index of the failing case.
func Sweep(
	ctx context.Context,
	logger *zap.Logger,
	cases []Case,
	parallelism int,
) ([]*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	output := make([]*Result, len(cases))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(parallelism)

	for i := range cases {
		caseIndex := i
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			c := cases[caseIndex]
			sim, err := NewSimulator(logger, c.Params, c.Name)
			if err != nil {
				return errors.Wrapf(err, "case %d (%s)", caseIndex, c.Name)
			}

			result, err := sim.Run(c.NumBlocks, c.InitialDifficulty, c.Schedule)
			if err != nil {
				return errors.Wrapf(err, "case %d (%s)", caseIndex, c.Name)
			}

			output[caseIndex] = result
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	logger.Info("sweep complete", zap.Int("cases", len(cases)))
	return output, nil
}
