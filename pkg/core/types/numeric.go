package types

import "github.com/shopspring/decimal"

// Precision is the number of significant decimal digits every division and
// multiplication in the retargeting core is rounded to. Rounding is relative
// to the magnitude of the result, so scaling difficulty and hashrate by a
// power of ten scales every result by the same power and leaves its digits
// unchanged.
const Precision int32 = 24

var (
	// Zero and One are shared constants; decimal values are immutable.
	Zero    = decimal.Zero
	One     = decimal.NewFromInt(1)
	Hundred = decimal.NewFromInt(100)
)

// magnitude returns the position of the leading digit of a non-zero v:
// floor(log10(|v|)) + 1. It does not depend on trailing zeros in the
// representation.
func magnitude(v decimal.Decimal) int32 {
	return int32(v.NumDigits()) + v.Exponent()
}

// Div returns a / b rounded to Precision significant digits (one more when
// the quotient's leading digit lands one place higher). b must be non-zero.
func Div(a, b decimal.Decimal) decimal.Decimal {
	if a.IsZero() {
		return Zero
	}
	return a.DivRound(b, Precision-(magnitude(a)-magnitude(b)))
}

// Mul returns a * b rounded to Precision significant digits.
func Mul(a, b decimal.Decimal) decimal.Decimal {
	p := a.Mul(b)
	if p.IsZero() {
		return Zero
	}
	return p.Round(Precision - magnitude(p))
}

// Inverse converts between difficulty and target (target = 1 / difficulty).
func Inverse(v decimal.Decimal) decimal.Decimal {
	return Div(One, v)
}

// FromFloat converts a human-supplied float (config input) into the core
// numeric model using its shortest decimal representation, so 0.3 becomes
// exactly 0.3.
func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// ToFloat returns the float64 value (for display and metrics only, never
// arithmetic).
func ToFloat(v decimal.Decimal) float64 {
	return v.InexactFloat64()
}
