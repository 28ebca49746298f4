package simulator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/chronodrachma/daasim/pkg/core/consensus"
	"github.com/chronodrachma/daasim/pkg/core/types"
)

// DefaultAnalysisSpan is the number of blocks after a shock that Summarize
// measures.
const DefaultAnalysisSpan = 100

// Summary is the post-run report of a simulation.
type Summary struct {
	NumBlocks       int
	FinalBlockTime  decimal.Decimal
	FinalDifficulty decimal.Decimal
	MeanBlockTime   decimal.Decimal
	LowerBoundHits  int
	UpperBoundHits  int

	ShockHeight int
	Span        int

	// Analyzed is false when the run is too short to contain Span blocks
	// after ShockHeight; the span fields are then zero.
	Analyzed             bool
	ExpectedSpanTime     decimal.Decimal
	ActualSpanTime       decimal.Decimal
	AverageSpanBlockTime decimal.Decimal
}

// Summarize measures how long the span blocks after shockHeight took compared
// to the target spacing.
func Summarize(result *Result, shockHeight, span int) Summary {
	n := result.NumBlocks()
	s := Summary{
		NumBlocks:       n,
		FinalBlockTime:  result.FinalBlockTime(),
		FinalDifficulty: result.FinalDifficulty(),
		MeanBlockTime:   types.Zero,
		ShockHeight:     shockHeight,
		Span:            span,
	}

	if n > 0 {
		s.MeanBlockTime = types.Div(
			result.Timestamps[n].Sub(result.Timestamps[0]),
			decimal.NewFromInt(int64(n)),
		)
	}

	for _, adj := range result.Adjustments {
		switch adj.Bound {
		case consensus.BoundLower:
			s.LowerBoundHits++
		case consensus.BoundUpper:
			s.UpperBoundHits++
		}
	}

	if span <= 0 || shockHeight < 0 || n <= shockHeight+span {
		return s
	}

	spanLen := decimal.NewFromInt(int64(span))
	s.Analyzed = true
	s.ExpectedSpanTime = spanLen.Mul(decimal.NewFromInt(result.Params.TargetSpacing))
	s.ActualSpanTime = result.Timestamps[shockHeight+span].Sub(result.Timestamps[shockHeight])
	s.AverageSpanBlockTime = types.Div(s.ActualSpanTime, spanLen)
	return s
}

// FormatDuration renders seconds as "Xh Ym Z.ZZs".
func FormatDuration(seconds decimal.Decimal) string {
	if seconds.IsNegative() {
		return "-" + FormatDuration(seconds.Neg())
	}

	hour := decimal.NewFromInt(3600)
	minute := decimal.NewFromInt(60)

	hours := seconds.Div(hour).Floor()
	rest := seconds.Sub(hours.Mul(hour))
	minutes := rest.Div(minute).Floor()
	rest = rest.Sub(minutes.Mul(minute))

	return fmt.Sprintf("%sh %sm %ss", hours.String(), minutes.String(), rest.StringFixed(2))
}
