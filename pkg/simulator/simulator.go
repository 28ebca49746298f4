package simulator

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/chronodrachma/daasim/pkg/core/blockchain"
	"github.com/chronodrachma/daasim/pkg/core/consensus"
	"github.com/chronodrachma/daasim/pkg/core/types"
)

// DefaultScenario labels runs that were not given a name.
const DefaultScenario = "default"

// Simulator produces blocks under a hashrate schedule and retargets after
// every block. A Simulator holds no run state, so one value can serve many
// sequential or concurrent runs.
type Simulator struct {
	logger     *zap.Logger
	retargeter *consensus.AveragingRetargeter
	scenario   string
}

// NewSimulator validates params and returns a simulator whose logs and
// metrics are labelled with scenario.
func NewSimulator(
	logger *zap.Logger,
	params consensus.Params,
	scenario string,
) (*Simulator, error) {
	r, err := consensus.NewAveragingRetargeter(params)
	if err != nil {
		return nil, err
	}
	if scenario == "" {
		scenario = DefaultScenario
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Simulator{
		logger:     logger.With(zap.String("scenario", scenario)),
		retargeter: r,
		scenario:   scenario,
	}, nil
}

// Params returns the retargeting parameters of the simulator.
func (s *Simulator) Params() consensus.Params {
	return s.retargeter.Params()
}

// Run simulates numBlocks blocks on top of a genesis block with
// initialDifficulty. Block h takes spacing * difficulty(h-1) / hashrate(h-1)
// seconds; its difficulty is then computed from the history including its own
// timestamp. Any error aborts the run and no partial result is returned.
func (s *Simulator) Run(
	numBlocks int,
	initialDifficulty decimal.Decimal,
	schedule HashrateSchedule,
) (*Result, error) {
	start := time.Now()

	result, err := s.run(numBlocks, initialDifficulty, schedule)
	runDuration.WithLabelValues(s.scenario).Observe(time.Since(start).Seconds())
	if err != nil {
		runsTotal.WithLabelValues(s.scenario, "error").Inc()
		s.logger.Error("simulation failed", zap.Error(err))
		return nil, err
	}
	runsTotal.WithLabelValues(s.scenario, "success").Inc()

	s.logger.Info(
		"simulation complete",
		zap.Int("blocks", numBlocks),
		zap.String("final_difficulty", result.FinalDifficulty().String()),
		zap.String("final_block_time", result.FinalBlockTime().StringFixed(2)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func (s *Simulator) run(
	numBlocks int,
	initialDifficulty decimal.Decimal,
	schedule HashrateSchedule,
) (*Result, error) {
	if numBlocks <= 0 {
		return nil, types.NewConfigError("numBlocks", "must be positive, got %d", numBlocks)
	}
	if !initialDifficulty.IsPositive() {
		return nil, types.NewConfigError(
			"initialDifficulty",
			"must be positive, got %s",
			initialDifficulty.String(),
		)
	}
	if schedule == nil {
		return nil, types.NewConfigError("schedule", "must not be nil")
	}

	// The whole schedule is checked up front so a bad hashrate fails the run
	// before any block is produced.
	hashrates := make([]decimal.Decimal, numBlocks)
	for h := range hashrates {
		hashrates[h] = schedule.Hashrate(h)
		if !hashrates[h].IsPositive() {
			return nil, types.NewConfigError(
				"hashrate",
				"height %d: must be positive, got %s",
				h,
				hashrates[h].String(),
			)
		}
	}

	chain, err := blockchain.NewChain(initialDifficulty, numBlocks)
	if err != nil {
		return nil, errors.Wrap(err, "create chain")
	}

	params := s.retargeter.Params()
	spacing := decimal.NewFromInt(params.TargetSpacing)

	result := &Result{
		Params:      params,
		BlockTimes:  make([]decimal.Decimal, 0, numBlocks),
		Hashrates:   hashrates,
		Adjustments: make([]consensus.Adjustment, 0, numBlocks),
		chain:       chain,
	}

	s.logger.Debug(
		"simulation started",
		zap.Int("blocks", numBlocks),
		zap.String("initial_difficulty", initialDifficulty.String()),
		zap.Int64("target_spacing", params.TargetSpacing),
		zap.Int("averaging_window", params.AveragingWindow),
		zap.Int("median_time_window", params.MedianTimeWindow),
	)

	for chain.Height() < numBlocks {
		tip := chain.Height()
		height := tip + 1

		blockTime := types.Div(types.Mul(spacing, chain.Difficulties()[tip]), hashrates[tip])
		timestamp := chain.Timestamps()[tip].Add(blockTime)

		if err := chain.AppendTimestamp(timestamp); err != nil {
			return nil, errors.Wrapf(err, "append block %d", height)
		}

		adj, err := s.retargeter.Adjust(height, chain.Timestamps(), chain.Difficulties())
		if err != nil {
			return nil, errors.Wrapf(err, "retarget block %d", height)
		}

		if err := chain.SetTipDifficulty(adj.Difficulty); err != nil {
			return nil, errors.Wrapf(err, "append block %d", height)
		}

		result.BlockTimes = append(result.BlockTimes, blockTime)
		result.Adjustments = append(result.Adjustments, adj)
		s.observe(adj, blockTime)
	}

	result.Timestamps = chain.Timestamps()
	result.Difficulties = chain.Difficulties()
	return result, nil
}

func (s *Simulator) observe(adj consensus.Adjustment, blockTime decimal.Decimal) {
	blocksSimulated.WithLabelValues(s.scenario).Inc()
	lastDifficulty.WithLabelValues(s.scenario).Set(types.ToFloat(adj.Difficulty))
	lastBlockTime.WithLabelValues(s.scenario).Set(types.ToFloat(blockTime))

	if adj.Warmup {
		retargetsTotal.WithLabelValues(s.scenario, "warmup").Inc()
		return
	}
	retargetsTotal.WithLabelValues(s.scenario, "steady").Inc()

	if adj.Bound != consensus.BoundNone {
		timespanClamps.WithLabelValues(s.scenario, adj.Bound.String()).Inc()
		s.logger.Debug(
			"timespan clamped",
			zap.Int("height", adj.Height),
			zap.Stringer("bound", adj.Bound),
			zap.String("raw_timespan", adj.RawTimespan.StringFixed(4)),
			zap.String("timespan", adj.Timespan.StringFixed(4)),
		)
	}
	if adj.PowLimited {
		timespanClamps.WithLabelValues(s.scenario, "pow_limit").Inc()
	}
}

// Run simulates numBlocks blocks with params and no logging.
func Run(
	numBlocks int,
	initialDifficulty decimal.Decimal,
	schedule HashrateSchedule,
	params consensus.Params,
) (*Result, error) {
	sim, err := NewSimulator(zap.NewNop(), params, DefaultScenario)
	if err != nil {
		return nil, err
	}
	return sim.Run(numBlocks, initialDifficulty, schedule)
}
