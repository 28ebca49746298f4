package blockchain

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidHeight         = errors.New("block height is not parent height + 1")
	ErrTimestampTooOld       = errors.New("block timestamp is before parent timestamp")
	ErrNonPositiveDifficulty = errors.New("block difficulty must be positive")
)

// ValidateTimestamp checks that a block is not older than its parent. Equal
// timestamps are allowed.
func ValidateTimestamp(timestamp, parent decimal.Decimal) error {
	if timestamp.LessThan(parent) {
		return ErrTimestampTooOld
	}
	return nil
}

// ValidateDifficulty checks that a difficulty is usable as a divisor.
func ValidateDifficulty(difficulty decimal.Decimal) error {
	if !difficulty.IsPositive() {
		return ErrNonPositiveDifficulty
	}
	return nil
}
