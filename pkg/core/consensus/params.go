package consensus

import (
	"github.com/shopspring/decimal"

	"github.com/chronodrachma/daasim/pkg/core/types"
)

const (
	// TargetSpacing is the expected time between blocks in seconds (2.5 minutes).
	TargetSpacing = 150

	// AveragingWindow is the number of blocks whose targets are averaged and
	// over which the timespan is measured.
	AveragingWindow = 17

	// MedianTimeWindow is the number of blocks whose timestamps feed each
	// median-time-past value. Odd, so the median is a single element.
	MedianTimeWindow = 11

	// MaxAdjustUpPercent bounds how far the measured timespan may shrink
	// below the ideal, i.e. how fast difficulty may rise.
	MaxAdjustUpPercent = 16

	// MaxAdjustDownPercent bounds how far the measured timespan may grow
	// above the ideal, i.e. how fast difficulty may fall.
	MaxAdjustDownPercent = 32

	// TimespanDampingDivisor controls how much of the deviation between the
	// measured and ideal timespan survives into the retarget. Fixed by the
	// Horizen chain; not a tunable.
	TimespanDampingDivisor = 4
)

// MedianConvention selects the median of an even number of timestamps.
// Horizen only uses odd windows, where both conventions agree.
type MedianConvention int

const (
	// MedianLowerMiddle returns the lower of the two middle elements.
	MedianLowerMiddle MedianConvention = iota
	// MedianMean returns the mean of the two middle elements.
	MedianMean
)

func (c MedianConvention) String() string {
	switch c {
	case MedianLowerMiddle:
		return "lower"
	case MedianMean:
		return "mean"
	default:
		return "unknown"
	}
}

// ParseMedianConvention parses "lower" or "mean".
func ParseMedianConvention(s string) (MedianConvention, error) {
	switch s {
	case "", "lower":
		return MedianLowerMiddle, nil
	case "mean":
		return MedianMean, nil
	default:
		return 0, types.NewConfigError("evenMedian", "unknown convention %q", s)
	}
}

// Params is the immutable parameter bundle of the retargeting algorithm.
type Params struct {
	TargetSpacing        int64
	AveragingWindow      int
	MedianTimeWindow     int
	MaxAdjustUpPercent   int64
	MaxAdjustDownPercent int64
	EvenMedian           MedianConvention

	// MaxTarget is the proof-of-work limit. Zero disables the clamp; in the
	// normalized model the limit is never reached.
	MaxTarget decimal.Decimal
}

// DefaultParams returns the Horizen mainnet parameters.
func DefaultParams() Params {
	return Params{
		TargetSpacing:        TargetSpacing,
		AveragingWindow:      AveragingWindow,
		MedianTimeWindow:     MedianTimeWindow,
		MaxAdjustUpPercent:   MaxAdjustUpPercent,
		MaxAdjustDownPercent: MaxAdjustDownPercent,
		EvenMedian:           MedianLowerMiddle,
	}
}

// AveragingWindowTimespan is the ideal duration of one averaging window.
func (p Params) AveragingWindowTimespan() decimal.Decimal {
	return decimal.NewFromInt(p.TargetSpacing * int64(p.AveragingWindow))
}

// WarmupHeight is the first height at which a full retarget is computed.
// Below it the previous difficulty is carried forward unchanged.
func (p Params) WarmupHeight() int {
	return p.AveragingWindow + p.MedianTimeWindow
}

// Validate checks every field and returns a *types.ConfigError naming the
// first bad one.
func (p Params) Validate() error {
	if p.TargetSpacing <= 0 {
		return types.NewConfigError("targetSpacing", "must be positive, got %d", p.TargetSpacing)
	}
	if p.AveragingWindow <= 0 {
		return types.NewConfigError("averagingWindow", "must be positive, got %d", p.AveragingWindow)
	}
	if p.MedianTimeWindow <= 0 {
		return types.NewConfigError("medianTimeWindow", "must be positive, got %d", p.MedianTimeWindow)
	}
	// 100 - up is the lower timespan bound and must stay positive.
	if p.MaxAdjustUpPercent < 0 || p.MaxAdjustUpPercent >= 100 {
		return types.NewConfigError("maxAdjustUpPercent", "must be in [0, 100), got %d", p.MaxAdjustUpPercent)
	}
	if p.MaxAdjustDownPercent < 0 {
		return types.NewConfigError("maxAdjustDownPercent", "must not be negative, got %d", p.MaxAdjustDownPercent)
	}
	if p.EvenMedian != MedianLowerMiddle && p.EvenMedian != MedianMean {
		return types.NewConfigError("evenMedian", "unknown convention %d", int(p.EvenMedian))
	}
	if p.MaxTarget.Sign() < 0 {
		return types.NewConfigError("maxTarget", "must not be negative, got %s", p.MaxTarget.String())
	}
	return nil
}
