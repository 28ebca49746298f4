package simulator

import (
	"github.com/shopspring/decimal"

	"github.com/chronodrachma/daasim/pkg/core/types"
)

// HashrateSchedule gives the network hashrate that mines the block after
// height. Values are normalized: a hashrate of 1 finds a difficulty 1 block in
// exactly the target spacing.
type HashrateSchedule interface {
	Hashrate(height int) decimal.Decimal
}

// HashrateFunc adapts a function to a HashrateSchedule.
type HashrateFunc func(height int) decimal.Decimal

func (f HashrateFunc) Hashrate(height int) decimal.Decimal {
	return f(height)
}

// ConstantHashrate returns the same hashrate at every height.
func ConstantHashrate(rate decimal.Decimal) HashrateSchedule {
	return HashrateFunc(func(int) decimal.Decimal { return rate })
}

// StepHashrate is Base below ShockHeight and Base*Factor from ShockHeight on.
type StepHashrate struct {
	Base        decimal.Decimal
	ShockHeight int
	Factor      decimal.Decimal
}

func (s StepHashrate) Hashrate(height int) decimal.Decimal {
	if height < s.ShockHeight {
		return s.Base
	}
	return types.Mul(s.Base, s.Factor)
}
