package simulator

import (
	"go.uber.org/zap"

	"github.com/chronodrachma/daasim/pkg/config"
	"github.com/chronodrachma/daasim/pkg/core/types"
)

// ScheduleFromConfig returns the step schedule of cfg: InitialHashrate until
// ShockHeight, then InitialHashrate*ShockFactor.
func ScheduleFromConfig(cfg config.SimulationConfig) StepHashrate {
	return StepHashrate{
		Base:        types.FromFloat(cfg.InitialHashrate),
		ShockHeight: cfg.ShockHeight,
		Factor:      types.FromFloat(cfg.ShockFactor),
	}
}

// CaseFromConfig validates cfg and turns it into a sweep case.
func CaseFromConfig(name string, cfg config.SimulationConfig) (Case, error) {
	if err := cfg.Validate(); err != nil {
		return Case{}, err
	}
	params, err := cfg.Params()
	if err != nil {
		return Case{}, err
	}

	return Case{
		Name:              name,
		Params:            params,
		NumBlocks:         cfg.NumBlocks,
		InitialDifficulty: types.FromFloat(cfg.InitialDifficulty),
		Schedule:          ScheduleFromConfig(cfg),
	}, nil
}

// RunConfig validates cfg and runs the single simulation it describes.
func RunConfig(logger *zap.Logger, name string, cfg config.SimulationConfig) (*Result, error) {
	c, err := CaseFromConfig(name, cfg)
	if err != nil {
		return nil, err
	}

	sim, err := NewSimulator(logger, c.Params, c.Name)
	if err != nil {
		return nil, err
	}
	return sim.Run(c.NumBlocks, c.InitialDifficulty, c.Schedule)
}
