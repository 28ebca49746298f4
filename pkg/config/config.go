package config

import (
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/chronodrachma/daasim/pkg/core/consensus"
	"github.com/chronodrachma/daasim/pkg/core/types"
)

// EnvPrefix prefixes every environment override, e.g. DAASIM_NUM_BLOCKS.
const EnvPrefix = "DAASIM"

// SimulationConfig is the input bundle of one simulation run. Quantities a
// human types in (difficulty, hashrate, shock factor) are float64 here and
// converted to the decimal model by Params and the simulator.
type SimulationConfig struct {
	TargetSpacing        int64   `yaml:"targetSpacing" envconfig:"TARGET_SPACING"`
	AveragingWindow      int     `yaml:"averagingWindow" envconfig:"AVERAGING_WINDOW"`
	MedianTimeWindow     int     `yaml:"medianTimeWindow" envconfig:"MEDIAN_TIME_WINDOW"`
	MaxAdjustUpPercent   int64   `yaml:"maxAdjustUpPercent" envconfig:"MAX_ADJUST_UP_PERCENT"`
	MaxAdjustDownPercent int64   `yaml:"maxAdjustDownPercent" envconfig:"MAX_ADJUST_DOWN_PERCENT"`
	EvenMedian           string  `yaml:"evenMedian" envconfig:"EVEN_MEDIAN"`
	MaxTarget            float64 `yaml:"maxTarget" envconfig:"MAX_TARGET"`

	InitialDifficulty float64 `yaml:"initialDifficulty" envconfig:"INITIAL_DIFFICULTY"`
	InitialHashrate   float64 `yaml:"initialHashrate" envconfig:"INITIAL_HASHRATE"`
	ShockHeight       int     `yaml:"shockHeight" envconfig:"SHOCK_HEIGHT"`
	ShockFactor       float64 `yaml:"shockFactor" envconfig:"SHOCK_FACTOR"`
	NumBlocks         int     `yaml:"numBlocks" envconfig:"NUM_BLOCKS"`
	AnalysisSpan      int     `yaml:"analysisSpan" envconfig:"ANALYSIS_SPAN"`
}

// DefaultConfig returns the Horizen mainnet parameters and a 70% hashrate
// drop at height 100 over 500 blocks.
func DefaultConfig() SimulationConfig {
	return SimulationConfig{
		TargetSpacing:        consensus.TargetSpacing,
		AveragingWindow:      consensus.AveragingWindow,
		MedianTimeWindow:     consensus.MedianTimeWindow,
		MaxAdjustUpPercent:   consensus.MaxAdjustUpPercent,
		MaxAdjustDownPercent: consensus.MaxAdjustDownPercent,
		EvenMedian:           consensus.MedianLowerMiddle.String(),
		InitialDifficulty:    1.0,
		InitialHashrate:      1.0,
		ShockHeight:          100,
		ShockFactor:          0.3,
		NumBlocks:            500,
		AnalysisSpan:         100,
	}
}

// LoadFile reads a YAML file over DefaultConfig. Keys missing from the file
// keep their default.
func LoadFile(path string) (SimulationConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "load file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrap(err, "load file")
	}
	return cfg, nil
}

// ApplyEnv overrides fields from DAASIM_* environment variables. Unset
// variables leave the field unchanged.
func (c *SimulationConfig) ApplyEnv() error {
	return errors.Wrap(envconfig.Process(EnvPrefix, c), "apply env")
}

// Params converts the retargeting fields into consensus parameters.
func (c SimulationConfig) Params() (consensus.Params, error) {
	convention, err := consensus.ParseMedianConvention(c.EvenMedian)
	if err != nil {
		return consensus.Params{}, err
	}

	params := consensus.Params{
		TargetSpacing:        c.TargetSpacing,
		AveragingWindow:      c.AveragingWindow,
		MedianTimeWindow:     c.MedianTimeWindow,
		MaxAdjustUpPercent:   c.MaxAdjustUpPercent,
		MaxAdjustDownPercent: c.MaxAdjustDownPercent,
		EvenMedian:           convention,
	}
	if c.MaxTarget != 0 {
		params.MaxTarget = types.FromFloat(c.MaxTarget)
	}
	if err := params.Validate(); err != nil {
		return consensus.Params{}, err
	}
	return params, nil
}

// Validate checks every field and returns the first problem as a
// *types.ConfigError.
func (c SimulationConfig) Validate() error {
	if _, err := c.Params(); err != nil {
		return err
	}
	if c.InitialDifficulty <= 0 {
		return types.NewConfigError("initialDifficulty", "must be positive, got %g", c.InitialDifficulty)
	}
	if c.InitialHashrate <= 0 {
		return types.NewConfigError("initialHashrate", "must be positive, got %g", c.InitialHashrate)
	}
	if c.ShockFactor <= 0 {
		return types.NewConfigError("shockFactor", "must be positive, got %g", c.ShockFactor)
	}
	if c.ShockHeight < 0 {
		return types.NewConfigError("shockHeight", "must not be negative, got %d", c.ShockHeight)
	}
	if c.NumBlocks <= 0 {
		return types.NewConfigError("numBlocks", "must be positive, got %d", c.NumBlocks)
	}
	if c.AnalysisSpan < 0 {
		return types.NewConfigError("analysisSpan", "must not be negative, got %d", c.AnalysisSpan)
	}
	return nil
}
