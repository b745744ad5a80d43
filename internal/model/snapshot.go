package model

import "time"

// PoolRecord is a pool's externally visible state for storage.
type PoolRecord struct {
	Pair         string `json:"pair"`
	BaseAsset    string `json:"base_asset"`
	QuoteAsset   string `json:"quote_asset"`
	ReserveBase  string `json:"reserve_base"`
	ReserveQuote string `json:"reserve_quote"`
	FeeBps       uint16 `json:"fee_bps"`
	TotalShares  string `json:"total_shares"`
	SpotPrice    string `json:"spot_price"`
	Status       string `json:"status"`
	CreatedAt    int64  `json:"created_at"`
}

// PositionRecord is one provider's share stake in a pool.
type PositionRecord struct {
	Pair     string `json:"pair"`
	Provider string `json:"provider"`
	Shares   string `json:"shares"`
}

// TradeRow is an executed trade for storage.
type TradeRow struct {
	TradeID        uint64 `json:"trade_id"`
	Pair           string `json:"pair"`
	Side           string `json:"side"`
	AmountIn       string `json:"amount_in"`
	AmountOut      string `json:"amount_out"`
	FeePaid        string `json:"fee_paid"`
	PriceImpactBps int64  `json:"price_impact_bps"`
	Trader         string `json:"trader"`
	Timestamp      int64  `json:"timestamp"`
}

// EngineSnapshot is a point-in-time copy of all pools, positions, and the
// ledger tail since the previous snapshot, keyed by canonical pair id.
type EngineSnapshot struct {
	TakenAt      time.Time        `json:"taken_at"`
	Pools        []PoolRecord     `json:"pools"`
	Positions    []PositionRecord `json:"positions"`
	Trades       []TradeRow       `json:"trades"`
	LastTradeID  uint64           `json:"last_trade_id"`
	FirstTradeID uint64           `json:"first_trade_id"`
}
