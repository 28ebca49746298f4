package blockchain

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func appendBlock(t *testing.T, chain *Chain, timestamp, difficulty string) {
	t.Helper()
	require.NoError(t, chain.AppendTimestamp(d(timestamp)))
	require.NoError(t, chain.SetTipDifficulty(d(difficulty)))
}

func TestNewChain_Genesis(t *testing.T) {
	chain, err := NewChain(d("2.5"), 10)
	require.NoError(t, err)

	assert.Equal(t, 0, chain.Height())
	require.Len(t, chain.Timestamps(), 1)
	require.Len(t, chain.Difficulties(), 1)
	assert.True(t, chain.Timestamps()[0].IsZero())
	assert.True(t, chain.Difficulties()[0].Equal(d("2.5")))

	blocks := chain.Blocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, uint64(0), blocks[0].Height)
	assert.True(t, blocks[0].Difficulty.Equal(d("2.5")))
}

func TestNewChain_NonPositiveDifficulty(t *testing.T) {
	for _, v := range []string{"0", "-1"} {
		_, err := NewChain(d(v), 0)
		assert.True(t, errors.Is(err, ErrNonPositiveDifficulty), "difficulty %s", v)
	}
}

func TestChain_Blocks(t *testing.T) {
	chain, err := NewChain(d("1"), 0)
	require.NoError(t, err)

	appendBlock(t, chain, "150", "1")
	appendBlock(t, chain, "300", "0.9")
	// Equal timestamps are allowed.
	appendBlock(t, chain, "300", "0.8")

	assert.Equal(t, 3, chain.Height())
	assert.Len(t, chain.Timestamps(), 4)
	assert.Len(t, chain.Difficulties(), 4)

	blocks := chain.Blocks()
	require.Len(t, blocks, 4)
	for h, b := range blocks {
		assert.Equal(t, uint64(h), b.Height)
	}
	assert.True(t, blocks[2].Difficulty.Equal(d("0.9")))
	assert.True(t, blocks[3].Timestamp.Equal(d("300")))
}

func TestChain_BlocksOmitsPendingTip(t *testing.T) {
	chain, err := NewChain(d("1"), 0)
	require.NoError(t, err)
	appendBlock(t, chain, "150", "1")

	require.NoError(t, chain.AppendTimestamp(d("300")))
	assert.Len(t, chain.Blocks(), 2)
}

func TestChain_AppendTimestampRejectsOlder(t *testing.T) {
	chain, err := NewChain(d("1"), 0)
	require.NoError(t, err)
	appendBlock(t, chain, "150", "1")

	err = chain.AppendTimestamp(d("149"))
	assert.True(t, errors.Is(err, ErrTimestampTooOld))
	assert.Equal(t, 1, chain.Height())
	assert.Len(t, chain.Timestamps(), 2)
}

func TestChain_SetTipDifficultyRejectsNonPositive(t *testing.T) {
	chain, err := NewChain(d("1"), 0)
	require.NoError(t, err)
	require.NoError(t, chain.AppendTimestamp(d("150")))

	err = chain.SetTipDifficulty(d("0"))
	assert.True(t, errors.Is(err, ErrNonPositiveDifficulty))
	assert.Equal(t, 0, chain.Height())
	assert.Len(t, chain.Difficulties(), 1)
}

func TestChain_TwoPhaseAppend(t *testing.T) {
	chain, err := NewChain(d("1"), 0)
	require.NoError(t, err)

	require.NoError(t, chain.AppendTimestamp(d("150")))
	assert.Len(t, chain.Timestamps(), 2)
	assert.Len(t, chain.Difficulties(), 1)
	assert.Equal(t, 0, chain.Height())

	// A second timestamp before the difficulty is recorded is out of order.
	err = chain.AppendTimestamp(d("300"))
	assert.True(t, errors.Is(err, ErrInvalidHeight))

	require.NoError(t, chain.SetTipDifficulty(d("1")))
	assert.Equal(t, 1, chain.Height())

	err = chain.SetTipDifficulty(d("1"))
	assert.True(t, errors.Is(err, ErrInvalidHeight))
}
