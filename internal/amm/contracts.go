package amm

import (
	"time"

	"cosmossdk.io/math"
)

// Request and response structs consumed by transport layers. External callers
// only ever see these; pool internals never escape the engine.

// CreatePoolRequest seeds a new pool. AssetA/AssetB may arrive in either
// order; the engine canonicalizes them.
type CreatePoolRequest struct {
	AssetA          AssetSymbol
	AssetB          AssetSymbol
	InitialReserveA math.Int
	InitialReserveB math.Int
	FeeBps          uint16
	Creator         string
}

// CreatePoolResponse reports the canonical pair id and the genesis mint.
type CreatePoolResponse struct {
	Pair          PairID
	GenesisShares math.Int
}

// GetQuoteRequest prices a prospective trade. The answer is read-only and may
// be stale by the time a trade is submitted; ExecuteTrade re-quotes.
type GetQuoteRequest struct {
	Pair     PairID
	Side     Side
	AmountIn math.Int
}

// GetQuoteResponse is an advisory quote.
type GetQuoteResponse struct {
	AmountOut      math.Int
	FeePaid        math.Int
	PriceImpactBps int64
	FeeBps         uint16
}

// ExecuteTradeRequest commits a swap with a slippage bound.
type ExecuteTradeRequest struct {
	Pair         PairID
	Side         Side
	AmountIn     math.Int
	MinAmountOut math.Int
	Trader       string
}

// ExecuteTradeResponse reports the committed trade.
type ExecuteTradeResponse struct {
	Trade        TradeRecord
	NewSpotPrice math.LegacyDec
}

// AddLiquidityRequest deposits into an existing pool.
type AddLiquidityRequest struct {
	Pair        PairID
	AmountBase  math.Int
	AmountQuote math.Int
	Provider    string
}

// AddLiquidityResponse reports minted shares and refunded excess.
type AddLiquidityResponse struct {
	SharesMinted math.Int
	RefundBase   math.Int
	RefundQuote  math.Int
}

// RemoveLiquidityRequest burns shares for reserves.
type RemoveLiquidityRequest struct {
	Pair     PairID
	Shares   math.Int
	Provider string
}

// RemoveLiquidityResponse reports the withdrawn amounts.
type RemoveLiquidityResponse struct {
	AmountBase  math.Int
	AmountQuote math.Int
}

// PoolSummary is one row of a ListPools response.
type PoolSummary struct {
	Pair           PairID
	ReserveBase    math.Int
	ReserveQuote   math.Int
	FeeBps         uint16
	TotalShares    math.Int
	SpotPrice      math.LegacyDec
	VolumeBase24h  math.Int
	VolumeQuote24h math.Int
	Status         Status
}

// TradeHistoryRequest filters the trade ledgers. A zero Pair matches all
// pools; Limit bounds the result to the most recent matches.
type TradeHistoryRequest struct {
	Pair   *PairID
	Trader string
	Since  time.Time
	Limit  int
}
