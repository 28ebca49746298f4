package consensus

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronodrachma/daasim/pkg/core/types"
)

// uniformHistory returns n+1 timestamps spaced evenly and n+1 equal
// difficulties, as if every block so far took exactly spacing seconds.
func uniformHistory(n int, spacing int64, difficulty decimal.Decimal) ([]decimal.Decimal, []decimal.Decimal) {
	timestamps := make([]decimal.Decimal, n+1)
	difficulties := make([]decimal.Decimal, n+1)
	for i := 0; i <= n; i++ {
		timestamps[i] = decimal.NewFromInt(int64(i) * spacing)
		difficulties[i] = difficulty
	}
	return timestamps, difficulties
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	w := decimal.RequireFromString(want)
	assert.True(t, w.Equal(got), "got %s, want %s", got.String(), want)
}

func TestAverageTarget(t *testing.T) {
	diffs := decimals(1, 2, 4, 8)

	avg, err := AverageTarget(3, diffs, 2)
	require.NoError(t, err)
	assertDecimal(t, "0.375", avg) // (1/4 + 1/2) / 2

	avg, err = AverageTarget(4, diffs, 4)
	require.NoError(t, err)
	assertDecimal(t, "0.46875", avg) // (1 + 1/2 + 1/4 + 1/8) / 4
}

func TestAverageTarget_InsufficientHistory(t *testing.T) {
	diffs := decimals(1, 1, 1)

	_, err := AverageTarget(2, diffs, 3)
	assert.True(t, errors.Is(err, ErrInsufficientHistory))

	_, err = AverageTarget(5, diffs, 2)
	assert.True(t, errors.Is(err, ErrInsufficientHistory))

	_, err = AverageTarget(2, diffs, 0)
	assert.True(t, errors.Is(err, ErrInsufficientHistory))
}

func TestAverageTarget_NonPositiveDifficulty(t *testing.T) {
	diffs := decimals(1, 0, 1)

	_, err := AverageTarget(3, diffs, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrArithmetic))

	var arithErr *types.ArithmeticError
	require.True(t, errors.As(err, &arithErr))
	assert.Equal(t, 1, arithErr.Height)
	assert.Equal(t, "difficulty", arithErr.Quantity)
}

func TestAverageTarget_Idempotent(t *testing.T) {
	diffs := []decimal.Decimal{
		decimal.RequireFromString("0.966825"),
		decimal.RequireFromString("0.933895"),
		decimal.RequireFromString("0.901096"),
	}

	first, err := AverageTarget(3, diffs, 3)
	require.NoError(t, err)
	second, err := AverageTarget(3, diffs, 3)
	require.NoError(t, err)
	assert.True(t, first.Equal(second))
}

func TestDampenAndClamp(t *testing.T) {
	ideal := decimal.NewFromInt(2550) // 17 * 150

	tests := []struct {
		name string
		raw  int64
		want string
	}{
		{"on target", 2550, "2550"},
		{"slow within bounds", 2900, "2637.5"},
		{"fast within bounds", 1275, "2231.25"},
		{"clamped to lower bound", 0, "2142"},   // 2550 * 84 / 100
		{"clamped to upper bound", 10000, "3366"}, // 2550 * 132 / 100
		{"negative raw timespan", -5000, "2142"},
		{"exactly at lower bound", 918, "2142"},
		{"exactly at upper bound", 5814, "3366"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DampenAndClamp(decimal.NewFromInt(tt.raw), ideal, 16, 32)
			assertDecimal(t, tt.want, got)
		})
	}
}

func TestDampenAndClamp_Idempotent(t *testing.T) {
	ideal := decimal.NewFromInt(2550)
	raw := decimal.RequireFromString("4983.412322274882")

	a := DampenAndClamp(raw, ideal, 16, 32)
	b := DampenAndClamp(raw, ideal, 16, 32)
	assert.True(t, a.Equal(b))
}

// The up parameter bounds the minimum timespan and the down parameter the
// maximum. This looks inverted but matches Horizen consensus; a "fix" here
// changes which blocks are valid on the modelled chain.
func TestTimespanBounds_UpBoundsMinimumDownBoundsMaximum(t *testing.T) {
	ideal := decimal.NewFromInt(100)

	lower, upper := TimespanBounds(ideal, 16, 32)
	assertDecimal(t, "84", lower)
	assertDecimal(t, "132", upper)

	// Swapping the parameters must give different bounds.
	swappedLower, swappedUpper := TimespanBounds(ideal, 32, 16)
	assertDecimal(t, "68", swappedLower)
	assertDecimal(t, "116", swappedUpper)
}

func TestAdjust_Warmup(t *testing.T) {
	r, err := NewAveragingRetargeter(DefaultParams())
	require.NoError(t, err)

	timestamps, difficulties := uniformHistory(40, 37, decimal.NewFromInt(1))
	// Distinct difficulties so the identity is observable.
	for i := range difficulties {
		difficulties[i] = decimal.NewFromInt(int64(i + 1))
	}

	for h := 1; h < AveragingWindow+MedianTimeWindow; h++ {
		adj, err := r.Adjust(h, timestamps, difficulties)
		require.NoError(t, err)
		assert.True(t, adj.Warmup, "height %d", h)
		assert.True(t, adj.Difficulty.Equal(difficulties[h-1]), "height %d", h)
	}

	adj, err := r.Adjust(AveragingWindow+MedianTimeWindow, timestamps, difficulties)
	require.NoError(t, err)
	assert.False(t, adj.Warmup)
}

func TestAdjust_Warmup_NoTimestampNeeded(t *testing.T) {
	r, err := NewAveragingRetargeter(DefaultParams())
	require.NoError(t, err)

	d, err := r.NextDifficulty(1, decimals(0), decimals(3))
	require.NoError(t, err)
	assertDecimal(t, "3", d)
}

func TestAdjust_SteadyState(t *testing.T) {
	r, err := NewAveragingRetargeter(DefaultParams())
	require.NoError(t, err)
	height := AveragingWindow + MedianTimeWindow

	tests := []struct {
		name       string
		spacing    int64
		raw        string
		timespan   string
		bound      ClampBound
		difficulty string
	}{
		{
			name:       "on schedule keeps difficulty",
			spacing:    150,
			raw:        "2550",
			timespan:   "2550",
			bound:      BoundNone,
			difficulty: "1",
		},
		{
			name:       "twice as slow lowers difficulty",
			spacing:    300,
			raw:        "5100",
			timespan:   "3187.5",
			bound:      BoundNone,
			difficulty: "0.8",
		},
		{
			name:       "much slower hits upper bound",
			spacing:    1000,
			raw:        "17000",
			timespan:   "3366",
			bound:      BoundUpper,
			difficulty: types.Inverse(decimal.RequireFromString("1.32")).String(),
		},
		{
			name:       "twice as fast raises difficulty",
			spacing:    75,
			raw:        "1275",
			timespan:   "2231.25",
			bound:      BoundNone,
			difficulty: types.Inverse(decimal.RequireFromString("0.875")).String(),
		},
		{
			name:       "much faster hits lower bound",
			spacing:    10,
			raw:        "170",
			timespan:   "2142",
			bound:      BoundLower,
			difficulty: types.Inverse(decimal.RequireFromString("0.84")).String(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timestamps, difficulties := uniformHistory(height, tt.spacing, decimal.NewFromInt(1))
			difficulties = difficulties[:height]

			adj, err := r.Adjust(height, timestamps, difficulties)
			require.NoError(t, err)
			assert.False(t, adj.Warmup)
			assertDecimal(t, "1", adj.AverageTarget)
			assertDecimal(t, tt.raw, adj.RawTimespan)
			assertDecimal(t, tt.timespan, adj.Timespan)
			assert.Equal(t, tt.bound, adj.Bound)
			assertDecimal(t, tt.difficulty, adj.Difficulty)
			assertDecimal(t, "2142", adj.MinTimespan)
			assertDecimal(t, "3366", adj.MaxTimespan)
			assert.False(t, adj.Timespan.LessThan(adj.MinTimespan))
			assert.False(t, adj.Timespan.GreaterThan(adj.MaxTimespan))
		})
	}
}

func TestAdjust_MatchesPackageLevelNextDifficulty(t *testing.T) {
	params := DefaultParams()
	height := params.WarmupHeight() + 3
	timestamps, difficulties := uniformHistory(height, 300, decimal.NewFromInt(2))
	difficulties = difficulties[:height]

	r, err := NewAveragingRetargeter(params)
	require.NoError(t, err)
	viaRetargeter, err := r.NextDifficulty(height, timestamps, difficulties)
	require.NoError(t, err)

	viaFunc, err := NextDifficulty(height, timestamps, difficulties, params)
	require.NoError(t, err)
	assert.True(t, viaRetargeter.Equal(viaFunc))
	assertDecimal(t, "1.6", viaFunc) // 2 / 1.25
}

func TestAdjust_PowLimit(t *testing.T) {
	params := DefaultParams()
	params.MaxTarget = decimal.RequireFromString("1.1")
	r, err := NewAveragingRetargeter(params)
	require.NoError(t, err)

	height := params.WarmupHeight()
	timestamps, difficulties := uniformHistory(height, 300, decimal.NewFromInt(1))
	difficulties = difficulties[:height]

	adj, err := r.Adjust(height, timestamps, difficulties)
	require.NoError(t, err)
	assert.True(t, adj.PowLimited)
	assertDecimal(t, "1.1", adj.Target)
}

func TestAdjust_HeightOutOfRange(t *testing.T) {
	r, err := NewAveragingRetargeter(DefaultParams())
	require.NoError(t, err)

	timestamps, difficulties := uniformHistory(30, 150, decimal.NewFromInt(1))

	_, err = r.Adjust(0, timestamps, difficulties)
	assert.True(t, errors.Is(err, ErrHeightOutOfRange))

	_, err = r.Adjust(40, timestamps, difficulties)
	assert.True(t, errors.Is(err, ErrHeightOutOfRange))

	// Steady state needs the timestamp of height itself.
	_, err = r.Adjust(30, timestamps[:30], difficulties[:30])
	assert.True(t, errors.Is(err, ErrHeightOutOfRange))
}

func TestAdjust_NonPositiveDifficultyInWindow(t *testing.T) {
	r, err := NewAveragingRetargeter(DefaultParams())
	require.NoError(t, err)

	height := AveragingWindow + MedianTimeWindow
	timestamps, difficulties := uniformHistory(height, 150, decimal.NewFromInt(1))
	difficulties = difficulties[:height]
	difficulties[height-2] = decimal.NewFromInt(-1)

	_, err = r.Adjust(height, timestamps, difficulties)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrArithmetic))
}

func TestNewAveragingRetargeter_InvalidParams(t *testing.T) {
	params := DefaultParams()
	params.AveragingWindow = 0

	_, err := NewAveragingRetargeter(params)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidConfig))
}
