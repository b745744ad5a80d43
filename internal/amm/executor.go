package amm

import (
	"context"
	"time"

	"cosmossdk.io/math"
	"go.uber.org/zap"
)

// DefaultLockTimeout bounds how long a caller waits for a pool's trade lock
// before failing with ErrPoolBusy.
const DefaultLockTimeout = 250 * time.Millisecond

// TradeExecutor atomically applies swaps to pools. It is stateless; all state
// lives in the registry's pools.
type TradeExecutor struct {
	registry    *Registry
	metrics     *Metrics
	logger      *zap.Logger
	lockTimeout time.Duration
}

// NewTradeExecutor builds an executor over the registry.
func NewTradeExecutor(registry *Registry, metrics *Metrics, logger *zap.Logger, lockTimeout time.Duration) *TradeExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &TradeExecutor{
		registry:    registry,
		metrics:     metrics,
		logger:      logger,
		lockTimeout: lockTimeout,
	}
}

// ExecuteTrade swaps amountIn against the pool's current reserves. The quote
// is always recomputed under the pool's trade lock; anything the caller
// quoted earlier is advisory only. minAmountOut is the caller's slippage
// bound: if the re-quote comes in below it, the trade fails with reserves
// unchanged.
//
// The returned spot price is taken from the reserves this trade committed,
// still under the trade lock, so it cannot reflect a later trade.
func (e *TradeExecutor) ExecuteTrade(ctx context.Context, pair PairID, side Side, amountIn, minAmountOut math.Int, trader string) (TradeRecord, math.LegacyDec, error) {
	start := time.Now()
	defer func() {
		e.metrics.recordLatency(time.Since(start).Seconds())
	}()

	if side != SideBuy && side != SideSell {
		return TradeRecord{}, math.LegacyDec{}, ErrInvalidDirection.Wrapf("direction %q", side)
	}
	if !positive(amountIn) {
		return TradeRecord{}, math.LegacyDec{}, ErrInvalidAmount.Wrap("amount in must be positive")
	}
	if minAmountOut.IsNil() {
		minAmountOut = math.ZeroInt()
	}
	if minAmountOut.IsNegative() {
		return TradeRecord{}, math.LegacyDec{}, ErrInvalidAmount.Wrap("min amount out cannot be negative")
	}

	pool, err := e.registry.Get(pair)
	if err != nil {
		return TradeRecord{}, math.LegacyDec{}, err
	}

	if err := pool.acquire(ctx, e.lockTimeout); err != nil {
		e.metrics.recordLockTimeout(pair.String())
		e.metrics.recordTrade(pair.String(), side, "busy")
		return TradeRecord{}, math.LegacyDec{}, err
	}
	defer pool.release()

	if err := pool.requireActive(); err != nil {
		e.metrics.recordTrade(pair.String(), side, "rejected")
		return TradeRecord{}, math.LegacyDec{}, err
	}

	// Holding the trade lock: these are the reserves the trade commits at.
	reserveIn, reserveOut := pool.reservesFor(side)

	quote, err := ComputeSwapOutput(reserveIn, reserveOut, amountIn, pool.feeBps)
	if err != nil {
		e.metrics.recordTrade(pair.String(), side, "rejected")
		return TradeRecord{}, math.LegacyDec{}, err
	}

	if quote.AmountOut.LT(minAmountOut) {
		e.metrics.recordTrade(pair.String(), side, "slippage")
		return TradeRecord{}, math.LegacyDec{}, ErrSlippageExceeded.Wrapf(
			"quoted %s, caller requires at least %s", quote.AmountOut, minAmountOut)
	}

	newReserveIn := reserveIn.Add(amountIn)
	newReserveOut := reserveOut.Sub(quote.AmountOut)

	// k must never decrease. Fee-on-input with truncated output cannot
	// violate this; the check is a circuit breaker against math bugs, and
	// tripping it is fatal for the pool until an operator reconciles.
	oldK := reserveIn.Mul(reserveOut)
	newK := newReserveIn.Mul(newReserveOut)
	if newK.LT(oldK) {
		pool.mu.Lock()
		pool.status = StatusPaused
		pool.mu.Unlock()

		e.metrics.recordInvariantBreak(pair.String())
		e.metrics.setPoolStatus(pair.String(), StatusPaused)
		e.logger.Error("constant product invariant violated, pool paused",
			zap.String("pair", pair.String()),
			zap.String("side", string(side)),
			zap.String("amount_in", amountIn.String()),
			zap.String("amount_out", quote.AmountOut.String()),
			zap.String("reserve_in_old", reserveIn.String()),
			zap.String("reserve_out_old", reserveOut.String()),
			zap.String("reserve_in_new", newReserveIn.String()),
			zap.String("reserve_out_new", newReserveOut.String()),
			zap.String("k_old", oldK.String()),
			zap.String("k_new", newK.String()),
		)
		return TradeRecord{}, math.LegacyDec{}, ErrInvariantViolation.Wrapf(
			"pool %s: k decreased from %s to %s", pair, oldK, newK)
	}

	newReserveBase, newReserveQuote := newReserveIn, newReserveOut
	if side == SideBuy {
		newReserveBase, newReserveQuote = newReserveOut, newReserveIn
	}

	pool.mu.Lock()
	pool.reserveBase = newReserveBase
	pool.reserveQuote = newReserveQuote
	pool.mu.Unlock()

	spot := SpotPrice(newReserveBase, newReserveQuote)

	rec := TradeRecord{
		TradeID:        e.registry.nextTradeID(),
		Pair:           pair,
		Side:           side,
		AmountIn:       amountIn,
		AmountOut:      quote.AmountOut,
		FeePaid:        quote.FeePaid,
		PriceImpactBps: quote.PriceImpactBps,
		Trader:         trader,
		Timestamp:      e.registry.now().UTC(),
	}
	pool.ledger.append(rec)

	e.metrics.recordTrade(pair.String(), side, "ok")
	e.metrics.recordImpact(quote.PriceImpactBps)
	e.logger.Debug("trade executed",
		zap.Uint64("trade_id", rec.TradeID),
		zap.String("pair", pair.String()),
		zap.String("side", string(side)),
		zap.String("amount_in", amountIn.String()),
		zap.String("amount_out", quote.AmountOut.String()),
		zap.Int64("price_impact_bps", quote.PriceImpactBps),
		zap.String("trader", trader),
	)

	return rec, spot, nil
}
