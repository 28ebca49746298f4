package consensus

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/chronodrachma/daasim/pkg/core/types"
)

// MedianTimePast returns the median of the timestamps in the trailing window
// ending at height, i.e. timestamps[max(0, height-window+1) .. height].
// Near genesis fewer than window timestamps are used. A negative height, or an
// empty window, yields zero.
func MedianTimePast(
	height int,
	timestamps []decimal.Decimal,
	window int,
	convention MedianConvention,
) decimal.Decimal {
	if height < 0 || window <= 0 {
		return types.Zero
	}

	start := height - window + 1
	if start < 0 {
		start = 0
	}
	end := height + 1
	if end > len(timestamps) {
		end = len(timestamps)
	}
	if end <= start {
		return types.Zero
	}

	sorted := make([]decimal.Decimal, end-start)
	copy(sorted, timestamps[start:end])
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].LessThan(sorted[j])
	})

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}

	lower := sorted[(n-1)/2]
	if convention == MedianMean {
		return types.Div(lower.Add(sorted[n/2]), decimal.NewFromInt(2))
	}
	return lower
}
