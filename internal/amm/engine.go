package amm

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"ammcore/internal/model"
)

// VolumeWindowDefault is the trailing window for listed pool volume.
const VolumeWindowDefault = 24 * time.Hour

// EngineConfig tunes the engine. Zero values fall back to defaults.
type EngineConfig struct {
	LockTimeout       time.Duration
	RatioToleranceBps int64
	VolumeWindow      time.Duration
}

// Engine is the in-process AMM exchange service: a pool registry plus the
// stateless orchestrators over it. It is safe for concurrent use; operations
// on different pools proceed fully in parallel.
type Engine struct {
	cfg       EngineConfig
	registry  *Registry
	executor  *TradeExecutor
	liquidity *LiquidityManager
	metrics   *Metrics
	logger    *zap.Logger

	snapMu          sync.Mutex
	lastSnapTradeID uint64
}

// NewEngine wires the registry, executor, and liquidity manager. metrics may
// be nil to disable instrumentation.
func NewEngine(cfg EngineConfig, metrics *Metrics, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}
	if cfg.RatioToleranceBps <= 0 {
		cfg.RatioToleranceBps = DefaultRatioToleranceBps
	}
	if cfg.VolumeWindow <= 0 {
		cfg.VolumeWindow = VolumeWindowDefault
	}

	registry := NewRegistry(logger)
	return &Engine{
		cfg:       cfg,
		registry:  registry,
		executor:  NewTradeExecutor(registry, metrics, logger, cfg.LockTimeout),
		liquidity: NewLiquidityManager(registry, metrics, logger, cfg.LockTimeout, cfg.RatioToleranceBps),
		metrics:   metrics,
		logger:    logger,
	}
}

// CreatePool registers a pool for the pair and mints genesis shares to the
// creator. Fails if the canonical pair already exists.
func (e *Engine) CreatePool(req CreatePoolRequest) (CreatePoolResponse, error) {
	pair, err := NewPairID(req.AssetA, req.AssetB)
	if err != nil {
		return CreatePoolResponse{}, err
	}

	// Reserves arrive in the caller's asset order; swap alongside the
	// symbols so they stay attached to the right asset.
	reserveBase, reserveQuote := req.InitialReserveA, req.InitialReserveB
	if pair.Base != normalizeSymbol(req.AssetA) {
		reserveBase, reserveQuote = reserveQuote, reserveBase
	}

	pool, err := e.registry.CreatePool(pair, reserveBase, reserveQuote, req.FeeBps, req.Creator)
	if err != nil {
		return CreatePoolResponse{}, err
	}

	e.metrics.setPoolsTotal(e.registry.Len())
	e.metrics.setPoolStatus(pair.String(), StatusActive)

	return CreatePoolResponse{
		Pair:          pair,
		GenesisShares: pool.View().TotalShares,
	}, nil
}

// GetQuote prices a trade against a consistent view of the reserves without
// taking the trade lock. The quote is advisory; execution re-quotes.
func (e *Engine) GetQuote(req GetQuoteRequest) (GetQuoteResponse, error) {
	if req.Side != SideBuy && req.Side != SideSell {
		return GetQuoteResponse{}, ErrInvalidDirection.Wrapf("direction %q", req.Side)
	}

	pool, err := e.registry.Get(req.Pair)
	if err != nil {
		return GetQuoteResponse{}, err
	}

	view := pool.View()
	if view.Status != StatusActive {
		return GetQuoteResponse{}, ErrPoolPaused.Wrapf("pool %s is %s", req.Pair, view.Status)
	}

	reserveIn, reserveOut := view.ReserveBase, view.ReserveQuote
	if req.Side == SideBuy {
		reserveIn, reserveOut = view.ReserveQuote, view.ReserveBase
	}

	quote, err := ComputeSwapOutput(reserveIn, reserveOut, req.AmountIn, view.FeeBps)
	if err != nil {
		return GetQuoteResponse{}, err
	}

	return GetQuoteResponse{
		AmountOut:      quote.AmountOut,
		FeePaid:        quote.FeePaid,
		PriceImpactBps: quote.PriceImpactBps,
		FeeBps:         view.FeeBps,
	}, nil
}

// ExecuteTrade atomically applies a swap and appends it to the pool's ledger.
// The reported spot price is the one this trade's commit produced, not
// whatever the reserves hold by the time the response is read.
func (e *Engine) ExecuteTrade(ctx context.Context, req ExecuteTradeRequest) (ExecuteTradeResponse, error) {
	rec, spot, err := e.executor.ExecuteTrade(ctx, req.Pair, req.Side, req.AmountIn, req.MinAmountOut, req.Trader)
	if err != nil {
		return ExecuteTradeResponse{}, err
	}

	return ExecuteTradeResponse{
		Trade:        rec,
		NewSpotPrice: spot,
	}, nil
}

// AddLiquidity deposits into an existing pool and mints proportional shares.
func (e *Engine) AddLiquidity(ctx context.Context, req AddLiquidityRequest) (AddLiquidityResponse, error) {
	res, err := e.liquidity.AddLiquidity(ctx, req.Pair, req.AmountBase, req.AmountQuote, req.Provider)
	if err != nil {
		return AddLiquidityResponse{}, err
	}
	return AddLiquidityResponse{
		SharesMinted: res.SharesMinted,
		RefundBase:   res.RefundBase,
		RefundQuote:  res.RefundQuote,
	}, nil
}

// RemoveLiquidity burns shares for a proportional withdrawal.
func (e *Engine) RemoveLiquidity(ctx context.Context, req RemoveLiquidityRequest) (RemoveLiquidityResponse, error) {
	amountBase, amountQuote, err := e.liquidity.RemoveLiquidity(ctx, req.Pair, req.Shares, req.Provider)
	if err != nil {
		return RemoveLiquidityResponse{}, err
	}
	return RemoveLiquidityResponse{AmountBase: amountBase, AmountQuote: amountQuote}, nil
}

// ListPools returns summaries of every pool with trailing-window volume.
func (e *Engine) ListPools() []PoolSummary {
	cutoff := time.Now().UTC().Add(-e.cfg.VolumeWindow)

	views := e.registry.List()
	out := make([]PoolSummary, 0, len(views))
	for _, view := range views {
		pool, err := e.registry.Get(view.Pair)
		if err != nil {
			continue
		}
		vol := pool.Ledger().VolumeSince(cutoff)
		out = append(out, PoolSummary{
			Pair:           view.Pair,
			ReserveBase:    view.ReserveBase,
			ReserveQuote:   view.ReserveQuote,
			FeeBps:         view.FeeBps,
			TotalShares:    view.TotalShares,
			SpotPrice:      SpotPrice(view.ReserveBase, view.ReserveQuote),
			VolumeBase24h:  vol.Base,
			VolumeQuote24h: vol.Quote,
			Status:         view.Status,
		})
	}
	return out
}

// GetTradeHistory queries one or all ledgers, ordered by trade id.
func (e *Engine) GetTradeHistory(req TradeHistoryRequest) ([]TradeRecord, error) {
	filter := LedgerFilter{Trader: req.Trader, Since: req.Since}

	if req.Pair != nil {
		pool, err := e.registry.Get(*req.Pair)
		if err != nil {
			return nil, err
		}
		filter.Limit = req.Limit
		return pool.Ledger().Query(filter), nil
	}

	var all []TradeRecord
	for _, view := range e.registry.List() {
		pool, err := e.registry.Get(view.Pair)
		if err != nil {
			continue
		}
		all = append(all, pool.Ledger().Query(filter)...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].TradeID < all[j].TradeID })
	if req.Limit > 0 && len(all) > req.Limit {
		all = all[len(all)-req.Limit:]
	}
	return all, nil
}

// PausePool halts trading and liquidity changes on an active pool.
func (e *Engine) PausePool(ctx context.Context, pair PairID) error {
	return e.transition(ctx, pair, StatusActive, StatusPaused, "pool paused")
}

// ResumePool reactivates a paused pool after operator reconciliation.
func (e *Engine) ResumePool(ctx context.Context, pair PairID) error {
	return e.transition(ctx, pair, StatusPaused, StatusActive, "pool resumed")
}

// RetirePool permanently closes an active pool whose reserves and shares are
// both zero. Retired pools stay listed for audit.
func (e *Engine) RetirePool(ctx context.Context, pair PairID) error {
	pool, err := e.registry.Get(pair)
	if err != nil {
		return err
	}
	if err := pool.acquire(ctx, e.cfg.LockTimeout); err != nil {
		return err
	}
	defer pool.release()

	pool.mu.Lock()
	defer pool.mu.Unlock()

	if pool.status != StatusActive {
		return ErrInvalidTransition.Wrapf("pool %s is %s, retire requires active", pair, pool.status)
	}
	if !pool.reserveBase.IsZero() || !pool.reserveQuote.IsZero() || !pool.totalShares.IsZero() {
		return ErrPoolNotEmpty.Wrapf(
			"pool %s holds reserves %s/%s and %s shares",
			pair, pool.reserveBase, pool.reserveQuote, pool.totalShares)
	}

	pool.status = StatusRetired
	e.metrics.setPoolStatus(pair.String(), StatusRetired)
	e.logger.Info("pool retired", zap.String("pair", pair.String()))
	return nil
}

func (e *Engine) transition(ctx context.Context, pair PairID, from, to Status, msg string) error {
	pool, err := e.registry.Get(pair)
	if err != nil {
		return err
	}
	if err := pool.acquire(ctx, e.cfg.LockTimeout); err != nil {
		return err
	}
	defer pool.release()

	pool.mu.Lock()
	defer pool.mu.Unlock()

	if pool.status != from {
		return ErrInvalidTransition.Wrapf("pool %s is %s, expected %s", pair, pool.status, from)
	}
	pool.status = to

	e.metrics.setPoolStatus(pair.String(), to)
	e.logger.Info(msg, zap.String("pair", pair.String()))
	return nil
}

// Snapshot assembles a point-in-time copy of all pools, positions, and the
// trade tail appended since the previous snapshot. Persistence of the result
// is the caller's concern.
func (e *Engine) Snapshot() model.EngineSnapshot {
	start := time.Now()
	defer func() {
		e.metrics.recordSnapshot(time.Since(start).Seconds())
	}()

	e.snapMu.Lock()
	defer e.snapMu.Unlock()

	snap := model.EngineSnapshot{
		TakenAt:      time.Now().UTC(),
		FirstTradeID: e.lastSnapTradeID + 1,
	}

	maxID := e.lastSnapTradeID
	for _, view := range e.registry.List() {
		pool, err := e.registry.Get(view.Pair)
		if err != nil {
			continue
		}

		snap.Pools = append(snap.Pools, model.PoolRecord{
			Pair:         view.Pair.String(),
			BaseAsset:    string(view.Pair.Base),
			QuoteAsset:   string(view.Pair.Quote),
			ReserveBase:  view.ReserveBase.String(),
			ReserveQuote: view.ReserveQuote.String(),
			FeeBps:       view.FeeBps,
			TotalShares:  view.TotalShares.String(),
			SpotPrice:    SpotPrice(view.ReserveBase, view.ReserveQuote).String(),
			Status:       string(view.Status),
			CreatedAt:    view.CreatedAt.Unix(),
		})

		for provider, shares := range pool.Positions() {
			snap.Positions = append(snap.Positions, model.PositionRecord{
				Pair:     view.Pair.String(),
				Provider: provider,
				Shares:   shares.String(),
			})
		}

		for _, rec := range pool.Ledger().TailAfter(e.lastSnapTradeID) {
			snap.Trades = append(snap.Trades, model.TradeRow{
				TradeID:        rec.TradeID,
				Pair:           rec.Pair.String(),
				Side:           string(rec.Side),
				AmountIn:       rec.AmountIn.String(),
				AmountOut:      rec.AmountOut.String(),
				FeePaid:        rec.FeePaid.String(),
				PriceImpactBps: rec.PriceImpactBps,
				Trader:         rec.Trader,
				Timestamp:      rec.Timestamp.Unix(),
			})
			if rec.TradeID > maxID {
				maxID = rec.TradeID
			}
		}
	}

	sort.Slice(snap.Positions, func(i, j int) bool {
		if snap.Positions[i].Pair != snap.Positions[j].Pair {
			return snap.Positions[i].Pair < snap.Positions[j].Pair
		}
		return snap.Positions[i].Provider < snap.Positions[j].Provider
	})
	sort.Slice(snap.Trades, func(i, j int) bool {
		return snap.Trades[i].TradeID < snap.Trades[j].TradeID
	})

	snap.LastTradeID = maxID
	e.lastSnapTradeID = maxID
	return snap
}

