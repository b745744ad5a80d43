package amm

import (
	"cosmossdk.io/math"
)

// All reserve, amount, and share quantities are fixed-point integers scaled
// by 10^18. No floating point is used anywhere in the engine.

// ScaleDecimals is the number of decimal places in the fixed-point scale.
const ScaleDecimals = 18

// BpsDenom is the basis-point denominator: 10000 bps = 100%.
const BpsDenom = 10_000

// Scale returns the fixed-point scaling factor 10^18 as an Int.
func Scale() math.Int {
	return math.NewIntWithDecimal(1, ScaleDecimals)
}

// Units converts a whole-token count into scaled base units.
func Units(n int64) math.Int {
	return math.NewInt(n).Mul(Scale())
}

// ZeroAmount returns a zero quantity.
func ZeroAmount() math.Int {
	return math.ZeroInt()
}

// ParseAmount parses a decimal string of scaled base units.
func ParseAmount(s string) (math.Int, error) {
	v, ok := math.NewIntFromString(s)
	if !ok {
		return math.ZeroInt(), ErrInvalidAmount.Wrapf("not an integer amount: %q", s)
	}
	return v, nil
}

// ValidateFeeBps checks the fee is inside [0, 10000).
func ValidateFeeBps(feeBps uint16) error {
	if feeBps >= BpsDenom {
		return ErrInvalidFee.Wrapf("fee %d bps outside [0,%d)", feeBps, BpsDenom)
	}
	return nil
}

func positive(v math.Int) bool {
	return !v.IsNil() && v.IsPositive()
}
