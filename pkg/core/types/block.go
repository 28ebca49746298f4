package types

import (
	"encoding/binary"

	"github.com/shopspring/decimal"
)

// Block is one simulated block: the time it was found and the difficulty that
// was required of it.
type Block struct {
	Height     uint64
	Timestamp  decimal.Decimal // Seconds since genesis.
	Difficulty decimal.Decimal
}

// Target returns the proof-of-work target of the block (1 / difficulty).
func (b *Block) Target() decimal.Decimal {
	return Inverse(b.Difficulty)
}

// Serialize returns a deterministic encoding of the block.
// Field order: Height(8) || len(Timestamp)(4) || Timestamp || len(Difficulty)(4) || Difficulty
// where both decimals are written in their shortest exact form, so trailing
// zeros in the internal representation never change the encoding.
func (b *Block) Serialize() []byte {
	ts := []byte(b.Timestamp.String())
	diff := []byte(b.Difficulty.String())

	buf := make([]byte, 16+len(ts)+len(diff))
	binary.BigEndian.PutUint64(buf[0:8], b.Height)
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(ts)))
	copy(buf[12:12+len(ts)], ts)
	off := 12 + len(ts)
	binary.BigEndian.PutUint32(buf[off:off+4], uint32(len(diff)))
	copy(buf[off+4:], diff)
	return buf
}

// ComputeHash computes the SHA-256 of the serialized block.
func (b *Block) ComputeHash() Hash {
	return ComputeSHA256(b.Serialize())
}

// ComputeChainDigest folds the block hashes in order into one SHA-256 digest:
// d_0 = H(block_0), d_i = H(d_{i-1} || H(block_i)).
func ComputeChainDigest(blocks []Block) Hash {
	if len(blocks) == 0 {
		return ZeroHash
	}

	digest := blocks[0].ComputeHash()
	for i := 1; i < len(blocks); i++ {
		h := blocks[i].ComputeHash()
		combined := append(digest.Bytes(), h.Bytes()...)
		digest = ComputeSHA256(combined)
	}
	return digest
}
