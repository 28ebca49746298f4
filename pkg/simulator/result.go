package simulator

import (
	"github.com/shopspring/decimal"

	"github.com/chronodrachma/daasim/pkg/core/blockchain"
	"github.com/chronodrachma/daasim/pkg/core/consensus"
	"github.com/chronodrachma/daasim/pkg/core/types"
)

// Result is the complete history of one run. Timestamps and Difficulties hold
// numBlocks+1 entries (genesis included); BlockTimes, Hashrates and
// Adjustments hold one entry per simulated block, index i describing block
// i+1.
type Result struct {
	Params       consensus.Params
	Timestamps   []decimal.Decimal
	Difficulties []decimal.Decimal
	BlockTimes   []decimal.Decimal
	Hashrates    []decimal.Decimal
	Adjustments  []consensus.Adjustment

	chain *blockchain.Chain
}

// NumBlocks returns the number of simulated blocks, genesis excluded.
func (r *Result) NumBlocks() int {
	return len(r.BlockTimes)
}

// FinalDifficulty returns the difficulty of the last block.
func (r *Result) FinalDifficulty() decimal.Decimal {
	if len(r.Difficulties) == 0 {
		return types.Zero
	}
	return r.Difficulties[len(r.Difficulties)-1]
}

// FinalBlockTime returns the time taken by the last block.
func (r *Result) FinalBlockTime() decimal.Decimal {
	if len(r.BlockTimes) == 0 {
		return types.Zero
	}
	return r.BlockTimes[len(r.BlockTimes)-1]
}

// Blocks returns the history as block records, genesis first.
func (r *Result) Blocks() []types.Block {
	if r.chain == nil {
		return nil
	}
	return r.chain.Blocks()
}

// Digest fingerprints the run. Two runs with identical inputs have identical
// digests.
func (r *Result) Digest() types.Hash {
	return types.ComputeChainDigest(r.Blocks())
}
