package amm

import (
	"context"
	"time"

	"cosmossdk.io/math"
	"go.uber.org/zap"
)

// DefaultRatioToleranceBps is how far a deposit's implied ratio may deviate
// from the pool's reserve ratio before it is rejected. Accepting mismatched
// ratios silently moves value between the depositor and existing providers.
const DefaultRatioToleranceBps = 50

// LiquidityManager handles proportional share accounting for pools. It is
// stateless; positions and share supply live on the pools.
type LiquidityManager struct {
	registry     *Registry
	metrics      *Metrics
	logger       *zap.Logger
	lockTimeout  time.Duration
	toleranceBps int64
}

// NewLiquidityManager builds a manager over the registry.
func NewLiquidityManager(registry *Registry, metrics *Metrics, logger *zap.Logger, lockTimeout time.Duration, toleranceBps int64) *LiquidityManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	if toleranceBps <= 0 {
		toleranceBps = DefaultRatioToleranceBps
	}
	return &LiquidityManager{
		registry:     registry,
		metrics:      metrics,
		logger:       logger,
		lockTimeout:  lockTimeout,
		toleranceBps: toleranceBps,
	}
}

// AddResult reports a completed deposit: shares minted plus any excess
// returned to the caller. The smaller-ratio side is consumed in full; the
// other side is consumed proportionally and the remainder refunded, never
// retained.
type AddResult struct {
	SharesMinted  math.Int
	ConsumedBase  math.Int
	ConsumedQuote math.Int
	RefundBase    math.Int
	RefundQuote   math.Int
}

// AddLiquidity deposits into an existing, non-empty pool. Genesis deposits
// only happen through Registry.CreatePool; a drained pool cannot be reseeded
// here because an arbitrary depositor would then set the price alone.
func (m *LiquidityManager) AddLiquidity(ctx context.Context, pair PairID, amountBase, amountQuote math.Int, provider string) (AddResult, error) {
	if !positive(amountBase) || !positive(amountQuote) {
		return AddResult{}, ErrInvalidAmount.Wrap("deposit amounts must be positive")
	}

	pool, err := m.registry.Get(pair)
	if err != nil {
		return AddResult{}, err
	}

	if err := pool.acquire(ctx, m.lockTimeout); err != nil {
		m.metrics.recordLockTimeout(pair.String())
		m.metrics.recordLiquidity(pair.String(), "add", "busy")
		return AddResult{}, err
	}
	defer pool.release()

	if err := pool.requireActive(); err != nil {
		m.metrics.recordLiquidity(pair.String(), "add", "rejected")
		return AddResult{}, err
	}

	if !positive(pool.reserveBase) || !positive(pool.reserveQuote) || !positive(pool.totalShares) {
		m.metrics.recordLiquidity(pair.String(), "add", "rejected")
		return AddResult{}, ErrInsufficientLiquidity.Wrapf(
			"pool %s is empty; deposits require existing reserves", pair)
	}

	ratioBase := math.LegacyNewDecFromInt(amountBase).Quo(math.LegacyNewDecFromInt(pool.reserveBase))
	ratioQuote := math.LegacyNewDecFromInt(amountQuote).Quo(math.LegacyNewDecFromInt(pool.reserveQuote))

	larger, smaller := ratioBase, ratioQuote
	if ratioQuote.GT(ratioBase) {
		larger, smaller = ratioQuote, ratioBase
	}
	deviationBps := larger.Sub(smaller).Quo(larger).MulInt64(BpsDenom)
	if deviationBps.GT(math.LegacyNewDec(m.toleranceBps)) {
		m.metrics.recordLiquidity(pair.String(), "add", "rejected")
		return AddResult{}, ErrRatioMismatch.Wrapf(
			"deposit ratio deviates %s bps from reserve ratio, tolerance %d bps",
			deviationBps.TruncateInt(), m.toleranceBps)
	}

	minted := smaller.MulInt(pool.totalShares).TruncateInt()
	if !positive(minted) {
		m.metrics.recordLiquidity(pair.String(), "add", "rejected")
		return AddResult{}, ErrInvalidAmount.Wrap("deposit too small to mint shares")
	}

	res := AddResult{SharesMinted: minted}
	if ratioBase.LTE(ratioQuote) {
		res.ConsumedBase = amountBase
		res.ConsumedQuote = smaller.MulInt(pool.reserveQuote).TruncateInt()
	} else {
		res.ConsumedQuote = amountQuote
		res.ConsumedBase = smaller.MulInt(pool.reserveBase).TruncateInt()
	}
	res.RefundBase = amountBase.Sub(res.ConsumedBase)
	res.RefundQuote = amountQuote.Sub(res.ConsumedQuote)

	pool.mu.Lock()
	pool.reserveBase = pool.reserveBase.Add(res.ConsumedBase)
	pool.reserveQuote = pool.reserveQuote.Add(res.ConsumedQuote)
	pool.totalShares = pool.totalShares.Add(minted)
	pool.positions[provider] = m.positionAfterAdd(pool, provider, minted)
	pool.mu.Unlock()

	m.metrics.recordLiquidity(pair.String(), "add", "ok")
	m.logger.Debug("liquidity added",
		zap.String("pair", pair.String()),
		zap.String("provider", provider),
		zap.String("shares_minted", minted.String()),
		zap.String("consumed_base", res.ConsumedBase.String()),
		zap.String("consumed_quote", res.ConsumedQuote.String()),
		zap.String("refund_base", res.RefundBase.String()),
		zap.String("refund_quote", res.RefundQuote.String()),
	)

	return res, nil
}

func (m *LiquidityManager) positionAfterAdd(pool *Pool, provider string, minted math.Int) math.Int {
	if owned, ok := pool.positions[provider]; ok {
		return owned.Add(minted)
	}
	return minted
}

// RemoveLiquidity burns shares for a proportional slice of both reserves.
// Reserves may legitimately reach zero; the pool stays Active until an
// operator retires it.
func (m *LiquidityManager) RemoveLiquidity(ctx context.Context, pair PairID, shares math.Int, provider string) (amountBase, amountQuote math.Int, err error) {
	zero := math.ZeroInt()
	if !positive(shares) {
		return zero, zero, ErrInvalidAmount.Wrap("shares must be positive")
	}

	pool, err := m.registry.Get(pair)
	if err != nil {
		return zero, zero, err
	}

	if err := pool.acquire(ctx, m.lockTimeout); err != nil {
		m.metrics.recordLockTimeout(pair.String())
		m.metrics.recordLiquidity(pair.String(), "remove", "busy")
		return zero, zero, err
	}
	defer pool.release()

	if err := pool.requireActive(); err != nil {
		m.metrics.recordLiquidity(pair.String(), "remove", "rejected")
		return zero, zero, err
	}

	owned, ok := pool.positions[provider]
	if !ok || shares.GT(owned) {
		m.metrics.recordLiquidity(pair.String(), "remove", "rejected")
		if !ok {
			owned = zero
		}
		return zero, zero, ErrInsufficientShares.Wrapf(
			"provider %s owns %s shares, requested %s", provider, owned, shares)
	}

	amountBase = pool.reserveBase.Mul(shares).Quo(pool.totalShares)
	amountQuote = pool.reserveQuote.Mul(shares).Quo(pool.totalShares)

	pool.mu.Lock()
	pool.reserveBase = pool.reserveBase.Sub(amountBase)
	pool.reserveQuote = pool.reserveQuote.Sub(amountQuote)
	pool.totalShares = pool.totalShares.Sub(shares)
	remaining := owned.Sub(shares)
	if remaining.IsZero() {
		delete(pool.positions, provider)
	} else {
		pool.positions[provider] = remaining
	}
	pool.mu.Unlock()

	m.metrics.recordLiquidity(pair.String(), "remove", "ok")
	m.logger.Debug("liquidity removed",
		zap.String("pair", pair.String()),
		zap.String("provider", provider),
		zap.String("shares_burned", shares.String()),
		zap.String("amount_base", amountBase.String()),
		zap.String("amount_quote", amountQuote.String()),
	)

	return amountBase, amountQuote, nil
}
