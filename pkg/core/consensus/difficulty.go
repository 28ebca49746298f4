package consensus

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/chronodrachma/daasim/pkg/core/types"
)

var (
	ErrInsufficientHistory = errors.New("not enough difficulty history for averaging window")
	ErrHeightOutOfRange    = errors.New("height is outside the recorded history")
)

// Retargeter produces the difficulty of the block at height from the
// timestamps and difficulties recorded so far. The timestamp of height must
// already be recorded; the difficulty of height must not.
type Retargeter interface {
	NextDifficulty(
		height int,
		timestamps []decimal.Decimal,
		difficulties []decimal.Decimal,
	) (decimal.Decimal, error)
}

// ClampBound reports which timespan bound, if any, was applied.
type ClampBound int

const (
	BoundNone ClampBound = iota
	BoundLower
	BoundUpper
)

func (b ClampBound) String() string {
	switch b {
	case BoundLower:
		return "lower"
	case BoundUpper:
		return "upper"
	default:
		return "none"
	}
}

// Adjustment is the full trace of one retarget.
type Adjustment struct {
	Height int
	Warmup bool

	AverageTarget decimal.Decimal
	FirstMTP      decimal.Decimal
	LastMTP       decimal.Decimal
	RawTimespan   decimal.Decimal
	Dampened      decimal.Decimal
	MinTimespan   decimal.Decimal
	MaxTimespan   decimal.Decimal
	Timespan      decimal.Decimal // Dampened, then clamped.
	Bound         ClampBound
	PowLimited    bool

	Target     decimal.Decimal
	Difficulty decimal.Decimal
}

// AverageTarget returns the mean target (1 / difficulty) of the window blocks
// strictly before height: difficulties[height-1] down to
// difficulties[height-window].
func AverageTarget(
	height int,
	difficulties []decimal.Decimal,
	window int,
) (decimal.Decimal, error) {
	if window <= 0 || height-window < 0 || height > len(difficulties) {
		return types.Zero, errors.Wrapf(
			ErrInsufficientHistory,
			"height %d, window %d, history %d",
			height,
			window,
			len(difficulties),
		)
	}

	sum := types.Zero
	for i := 0; i < window; i++ {
		d := difficulties[height-1-i]
		if !d.IsPositive() {
			return types.Zero, &types.ArithmeticError{
				Height:   height - 1 - i,
				Quantity: "difficulty",
				Value:    d,
			}
		}
		sum = sum.Add(types.Inverse(d))
	}

	return types.Div(sum, decimal.NewFromInt(int64(window))), nil
}

// TimespanBounds returns the inclusive [min, max] range of the actual
// timespan for an ideal window timespan.
//
// NOTE: the mapping is inverted on purpose and must be kept. maxUpPercent
// bounds the MINIMUM timespan (the fastest difficulty increase) and
// maxDownPercent bounds the MAXIMUM timespan (the fastest decrease). Swapping
// them changes consensus.
func TimespanBounds(
	ideal decimal.Decimal,
	maxUpPercent int64,
	maxDownPercent int64,
) (decimal.Decimal, decimal.Decimal) {
	lower := types.Div(
		ideal.Mul(decimal.NewFromInt(100-maxUpPercent)),
		types.Hundred,
	)
	upper := types.Div(
		ideal.Mul(decimal.NewFromInt(100+maxDownPercent)),
		types.Hundred,
	)
	return lower, upper
}

// Dampen pulls the raw timespan toward the ideal:
// ideal + (raw - ideal) / TimespanDampingDivisor.
func Dampen(raw, ideal decimal.Decimal) decimal.Decimal {
	return ideal.Add(
		types.Div(raw.Sub(ideal), decimal.NewFromInt(TimespanDampingDivisor)),
	)
}

// DampenAndClamp dampens the raw timespan and clamps it into TimespanBounds.
func DampenAndClamp(
	raw decimal.Decimal,
	ideal decimal.Decimal,
	maxUpPercent int64,
	maxDownPercent int64,
) decimal.Decimal {
	clamped, _ := dampenAndClamp(raw, ideal, maxUpPercent, maxDownPercent)
	return clamped
}

func dampenAndClamp(
	raw decimal.Decimal,
	ideal decimal.Decimal,
	maxUpPercent int64,
	maxDownPercent int64,
) (decimal.Decimal, ClampBound) {
	dampened := Dampen(raw, ideal)
	lower, upper := TimespanBounds(ideal, maxUpPercent, maxDownPercent)

	if dampened.LessThan(lower) {
		return lower, BoundLower
	}
	if dampened.GreaterThan(upper) {
		return upper, BoundUpper
	}
	return dampened, BoundNone
}

// AveragingRetargeter is the windowed median-time-past retargeting algorithm.
type AveragingRetargeter struct {
	params Params
}

var _ Retargeter = (*AveragingRetargeter)(nil)

// NewAveragingRetargeter validates params and returns a retargeter.
func NewAveragingRetargeter(params Params) (*AveragingRetargeter, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &AveragingRetargeter{params: params}, nil
}

// Params returns the parameters the retargeter was built with.
func (r *AveragingRetargeter) Params() Params {
	return r.params
}

// NextDifficulty implements Retargeter.
func (r *AveragingRetargeter) NextDifficulty(
	height int,
	timestamps []decimal.Decimal,
	difficulties []decimal.Decimal,
) (decimal.Decimal, error) {
	adj, err := r.Adjust(height, timestamps, difficulties)
	if err != nil {
		return types.Zero, err
	}
	return adj.Difficulty, nil
}

// Adjust computes the difficulty for height and returns every intermediate
// value of the computation.
func (r *AveragingRetargeter) Adjust(
	height int,
	timestamps []decimal.Decimal,
	difficulties []decimal.Decimal,
) (Adjustment, error) {
	p := r.params

	if height < 1 || height-1 >= len(difficulties) {
		return Adjustment{}, errors.Wrapf(
			ErrHeightOutOfRange,
			"height %d with %d difficulties",
			height,
			len(difficulties),
		)
	}

	// 1. Warm-up: carry the previous difficulty until both the averaging
	// window and the median window behind it are filled.
	if height < p.WarmupHeight() {
		return Adjustment{
			Height:     height,
			Warmup:     true,
			Difficulty: difficulties[height-1],
		}, nil
	}

	if height >= len(timestamps) {
		return Adjustment{}, errors.Wrapf(
			ErrHeightOutOfRange,
			"timestamp of height %d not recorded (have %d)",
			height,
			len(timestamps),
		)
	}

	// 2. Average target over the window.
	avgTarget, err := AverageTarget(height, difficulties, p.AveragingWindow)
	if err != nil {
		return Adjustment{}, errors.Wrap(err, "adjust")
	}

	// 3. Timespan measured between median times, not raw block times.
	last := MedianTimePast(height, timestamps, p.MedianTimeWindow, p.EvenMedian)
	first := MedianTimePast(
		height-p.AveragingWindow,
		timestamps,
		p.MedianTimeWindow,
		p.EvenMedian,
	)
	raw := last.Sub(first)

	// 4. Dampen and clamp.
	ideal := p.AveragingWindowTimespan()
	lower, upper := TimespanBounds(ideal, p.MaxAdjustUpPercent, p.MaxAdjustDownPercent)
	timespan, bound := dampenAndClamp(raw, ideal, p.MaxAdjustUpPercent, p.MaxAdjustDownPercent)

	// 5. Scale the average target by the timespan ratio.
	target := types.Mul(avgTarget, types.Div(timespan, ideal))

	powLimited := false
	if p.MaxTarget.IsPositive() && target.GreaterThan(p.MaxTarget) {
		target = p.MaxTarget
		powLimited = true
	}

	if !target.IsPositive() {
		return Adjustment{}, &types.ArithmeticError{
			Height:   height,
			Quantity: "target",
			Value:    target,
		}
	}

	return Adjustment{
		Height:        height,
		AverageTarget: avgTarget,
		FirstMTP:      first,
		LastMTP:       last,
		RawTimespan:   raw,
		Dampened:      Dampen(raw, ideal),
		MinTimespan:   lower,
		MaxTimespan:   upper,
		Timespan:      timespan,
		Bound:         bound,
		PowLimited:    powLimited,
		Target:        target,
		Difficulty:    types.Inverse(target),
	}, nil
}

// NextDifficulty computes the difficulty for height with params, without
// keeping a retargeter around.
func NextDifficulty(
	height int,
	timestamps []decimal.Decimal,
	difficulties []decimal.Decimal,
	params Params,
) (decimal.Decimal, error) {
	r, err := NewAveragingRetargeter(params)
	if err != nil {
		return types.Zero, err
	}
	return r.NextDifficulty(height, timestamps, difficulties)
}
