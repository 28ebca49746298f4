package blockchain

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/chronodrachma/daasim/pkg/core/types"
)

// Chain is the append-only block history of one simulation run. It keeps the
// timestamp and difficulty sequences side by side so the retargeter can read
// them as plain slices. A Chain has a single owner and is not safe for
// concurrent use.
type Chain struct {
	timestamps   []decimal.Decimal
	difficulties []decimal.Decimal
}

// NewChain creates a chain holding only the genesis block, at time zero with
// the given difficulty. capacity reserves room for that many further blocks.
func NewChain(initialDifficulty decimal.Decimal, capacity int) (*Chain, error) {
	if err := ValidateDifficulty(initialDifficulty); err != nil {
		return nil, errors.Wrap(err, "genesis")
	}
	if capacity < 0 {
		capacity = 0
	}

	c := &Chain{
		timestamps:   make([]decimal.Decimal, 0, capacity+1),
		difficulties: make([]decimal.Decimal, 0, capacity+1),
	}
	c.timestamps = append(c.timestamps, types.Zero)
	c.difficulties = append(c.difficulties, initialDifficulty)
	return c, nil
}

// AppendTimestamp records the time the next block was found. It must be
// followed by SetTipDifficulty before the next AppendTimestamp; the retargeter
// reads the new timestamp while the difficulty of that height is still open.
func (c *Chain) AppendTimestamp(timestamp decimal.Decimal) error {
	if len(c.timestamps) != len(c.difficulties) {
		return errors.Wrapf(
			ErrInvalidHeight,
			"difficulty of height %d not yet recorded",
			len(c.timestamps)-1,
		)
	}
	if err := ValidateTimestamp(timestamp, c.timestamps[len(c.timestamps)-1]); err != nil {
		return errors.Wrapf(err, "height %d", len(c.timestamps))
	}
	c.timestamps = append(c.timestamps, timestamp)
	return nil
}

// SetTipDifficulty records the difficulty of the block whose timestamp was
// appended last.
func (c *Chain) SetTipDifficulty(difficulty decimal.Decimal) error {
	if len(c.difficulties) != len(c.timestamps)-1 {
		return errors.Wrap(ErrInvalidHeight, "no pending timestamp")
	}
	if err := ValidateDifficulty(difficulty); err != nil {
		return errors.Wrapf(err, "height %d", len(c.difficulties))
	}
	c.difficulties = append(c.difficulties, difficulty)
	return nil
}

// Timestamps returns the recorded timestamps. The slice is shared with the
// chain and must not be modified.
func (c *Chain) Timestamps() []decimal.Decimal {
	return c.timestamps
}

// Difficulties returns the recorded difficulties. The slice is shared with the
// chain and must not be modified.
func (c *Chain) Difficulties() []decimal.Decimal {
	return c.difficulties
}

// Height returns the height of the last complete block.
func (c *Chain) Height() int {
	return len(c.difficulties) - 1
}

// Blocks returns every complete block from genesis to the tip.
func (c *Chain) Blocks() []types.Block {
	blocks := make([]types.Block, len(c.difficulties))
	for h := range blocks {
		blocks[h] = types.Block{
			Height:     uint64(h),
			Timestamp:  c.timestamps[h],
			Difficulty: c.difficulties[h],
		}
	}
	return blocks
}
