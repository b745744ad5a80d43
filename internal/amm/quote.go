package amm

import (
	"cosmossdk.io/math"
)

// Quote is the result of a constant-product swap computation. It is pure
// output: nothing is applied to a pool until TradeExecutor commits it under
// the pool's trade lock.
type Quote struct {
	AmountIn       math.Int
	AmountOut      math.Int
	FeePaid        math.Int
	PriceImpactBps int64
}

// ComputeSwapOutput prices a swap against the constant-product curve
// reserveIn * reserveOut = k. The fee is deducted from the input before the
// curve is applied; both the fee and the output truncate toward zero.
//
// Price impact is measured between the spot price and the execution price of
// the post-fee input, so a fee-only trade on an infinitely deep pool has zero
// impact.
//
// The caller must pass the reserves current at commit time; quoting against
// stale reserves and honoring the result is exactly the bug this engine
// exists to prevent.
func ComputeSwapOutput(reserveIn, reserveOut, amountIn math.Int, feeBps uint16) (Quote, error) {
	if !positive(amountIn) {
		return Quote{}, ErrInvalidAmount.Wrap("amount in must be positive")
	}
	if !positive(reserveIn) || !positive(reserveOut) {
		return Quote{}, ErrInvalidAmount.Wrap("reserves must be positive")
	}
	if err := ValidateFeeBps(feeBps); err != nil {
		return Quote{}, err
	}

	// inWithFee = amountIn * (10000 - feeBps) / 10000, truncated.
	inWithFee := amountIn.MulRaw(BpsDenom - int64(feeBps)).QuoRaw(BpsDenom)
	feePaid := amountIn.Sub(inWithFee)
	if !positive(inWithFee) {
		return Quote{}, ErrInsufficientLiquidity.Wrap("amount too small after fee")
	}

	// amountOut = reserveOut * inWithFee / (reserveIn + inWithFee), truncated.
	amountOut := reserveOut.Mul(inWithFee).Quo(reserveIn.Add(inWithFee))

	if amountOut.IsZero() {
		return Quote{}, ErrInsufficientLiquidity.Wrap("dust trade: output rounds to zero")
	}
	if amountOut.GTE(reserveOut) {
		return Quote{}, ErrInsufficientLiquidity.Wrapf(
			"output %s would drain reserve %s", amountOut, reserveOut)
	}

	// impactBps = (reserveOut*inWithFee - amountOut*reserveIn) * 10000
	//             / (reserveOut*inWithFee), truncated.
	denom := reserveOut.Mul(inWithFee)
	num := denom.Sub(amountOut.Mul(reserveIn))
	impact := num.MulRaw(BpsDenom).Quo(denom)

	return Quote{
		AmountIn:       amountIn,
		AmountOut:      amountOut,
		FeePaid:        feePaid,
		PriceImpactBps: impact.Int64(),
	}, nil
}

// SpotPrice returns the instantaneous price of the base asset in quote units.
func SpotPrice(reserveBase, reserveQuote math.Int) math.LegacyDec {
	if !positive(reserveBase) {
		return math.LegacyZeroDec()
	}
	return math.LegacyNewDecFromInt(reserveQuote).Quo(math.LegacyNewDecFromInt(reserveBase))
}

// GenesisShares computes the initial share mint for a brand-new pool as
// sqrt(reserveA * reserveB), the geometric mean of the genesis reserves.
func GenesisShares(reserveA, reserveB math.Int) (math.Int, error) {
	product := reserveA.Mul(reserveB)
	root, err := math.LegacyNewDecFromInt(product).ApproxSqrt()
	if err != nil {
		return math.ZeroInt(), ErrInvalidAmount.Wrapf("genesis share sqrt: %v", err)
	}
	shares := root.TruncateInt()
	if !positive(shares) {
		return math.ZeroInt(), ErrInvalidAmount.Wrap("genesis reserves too small to mint shares")
	}
	return shares, nil
}
