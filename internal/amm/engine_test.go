package amm

import (
	"context"
	"errors"
	"testing"

	"cosmossdk.io/math"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eng := NewEngine(EngineConfig{}, nil, nil)
	_, err := eng.CreatePool(CreatePoolRequest{
		AssetA:          "ETH",
		AssetB:          "USDC",
		InitialReserveA: Units(1000),
		InitialReserveB: Units(2_000_000),
		FeeBps:          30,
		Creator:         "alice",
	})
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	return eng
}

func TestCreatePoolCanonicalizesReserveOrder(t *testing.T) {
	eng := NewEngine(EngineConfig{}, nil, nil)

	// Assets submitted quote-first; reserves must follow their symbols.
	resp, err := eng.CreatePool(CreatePoolRequest{
		AssetA:          "usdc",
		AssetB:          "eth",
		InitialReserveA: Units(2_000_000),
		InitialReserveB: Units(1000),
		FeeBps:          30,
		Creator:         "alice",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Pair.Base != "ETH" || resp.Pair.Quote != "USDC" {
		t.Fatalf("pair not canonical: %s", resp.Pair)
	}

	pools := eng.ListPools()
	if len(pools) != 1 {
		t.Fatalf("expected 1 pool, got %d", len(pools))
	}
	if !pools[0].ReserveBase.Equal(Units(1000)) || !pools[0].ReserveQuote.Equal(Units(2_000_000)) {
		t.Fatalf("reserves attached to wrong assets: %s / %s",
			pools[0].ReserveBase, pools[0].ReserveQuote)
	}

	// A duplicate in the original order must still collide.
	_, err = eng.CreatePool(CreatePoolRequest{
		AssetA:          "ETH",
		AssetB:          "USDC",
		InitialReserveA: Units(1),
		InitialReserveB: Units(1),
		FeeBps:          30,
		Creator:         "bob",
	})
	if !errors.Is(err, ErrPoolAlreadyExists) {
		t.Fatalf("expected ErrPoolAlreadyExists, got %v", err)
	}
}

func TestEngineQuoteMatchesTrade(t *testing.T) {
	eng := newTestEngine(t)
	pair := mustPair(t, "ETH", "USDC")

	quote, err := eng.GetQuote(GetQuoteRequest{Pair: pair, Side: SideSell, AmountIn: Units(10)})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}

	resp, err := eng.ExecuteTrade(context.Background(), ExecuteTradeRequest{
		Pair:         pair,
		Side:         SideSell,
		AmountIn:     Units(10),
		MinAmountOut: quote.AmountOut,
		Trader:       "bob",
	})
	if err != nil {
		t.Fatalf("trade: %v", err)
	}
	if !resp.Trade.AmountOut.Equal(quote.AmountOut) {
		t.Fatalf("trade output %s diverged from quote %s", resp.Trade.AmountOut, quote.AmountOut)
	}
	if !resp.Trade.FeePaid.Equal(quote.FeePaid) {
		t.Fatalf("fee %s diverged from quote %s", resp.Trade.FeePaid, quote.FeePaid)
	}

	// Spot price moved down: ETH was sold into the pool. It must be exactly
	// the price this trade's commit produced.
	before := SpotPrice(Units(1000), Units(2_000_000))
	if !resp.NewSpotPrice.LT(before) {
		t.Fatalf("spot price did not drop: %s -> %s", before, resp.NewSpotPrice)
	}
	want := SpotPrice(Units(1010), Units(2_000_000).Sub(resp.Trade.AmountOut))
	if !resp.NewSpotPrice.Equal(want) {
		t.Fatalf("spot price mismatch: got %s want %s", resp.NewSpotPrice, want)
	}
}

func TestEngineQuoteRejectsUnknownDirection(t *testing.T) {
	eng := newTestEngine(t)
	pair := mustPair(t, "ETH", "USDC")

	_, err := eng.GetQuote(GetQuoteRequest{Pair: pair, Side: Side("hold"), AmountIn: Units(1)})
	if !errors.Is(err, ErrInvalidDirection) {
		t.Fatalf("expected ErrInvalidDirection, got %v", err)
	}
	if _, err := eng.GetQuote(GetQuoteRequest{Pair: pair, AmountIn: Units(1)}); !errors.Is(err, ErrInvalidDirection) {
		t.Fatalf("expected ErrInvalidDirection for empty direction, got %v", err)
	}
}

func TestEnginePauseResume(t *testing.T) {
	eng := newTestEngine(t)
	pair := mustPair(t, "ETH", "USDC")
	ctx := context.Background()

	if err := eng.PausePool(ctx, pair); err != nil {
		t.Fatalf("pause: %v", err)
	}

	if _, err := eng.GetQuote(GetQuoteRequest{Pair: pair, Side: SideSell, AmountIn: Units(1)}); !errors.Is(err, ErrPoolPaused) {
		t.Fatalf("expected ErrPoolPaused on quote, got %v", err)
	}
	_, err := eng.ExecuteTrade(ctx, ExecuteTradeRequest{
		Pair: pair, Side: SideSell, AmountIn: Units(1), MinAmountOut: math.NewInt(1), Trader: "bob",
	})
	if !errors.Is(err, ErrPoolPaused) {
		t.Fatalf("expected ErrPoolPaused on trade, got %v", err)
	}
	if _, err := eng.AddLiquidity(ctx, AddLiquidityRequest{
		Pair: pair, AmountBase: Units(1), AmountQuote: Units(2000), Provider: "bob",
	}); !errors.Is(err, ErrPoolPaused) {
		t.Fatalf("expected ErrPoolPaused on deposit, got %v", err)
	}

	// Double pause and pause-while-paused style misuse.
	if err := eng.PausePool(ctx, pair); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on double pause, got %v", err)
	}

	if err := eng.ResumePool(ctx, pair); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if err := eng.ResumePool(ctx, pair); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on resuming active pool, got %v", err)
	}

	if _, err := eng.GetQuote(GetQuoteRequest{Pair: pair, Side: SideSell, AmountIn: Units(1)}); err != nil {
		t.Fatalf("quote after resume: %v", err)
	}
}

func TestEngineRetire(t *testing.T) {
	eng := newTestEngine(t)
	pair := mustPair(t, "ETH", "USDC")
	ctx := context.Background()

	// Retire with funds still in the pool must fail.
	if err := eng.RetirePool(ctx, pair); !errors.Is(err, ErrPoolNotEmpty) {
		t.Fatalf("expected ErrPoolNotEmpty, got %v", err)
	}

	// Drain, then retire succeeds.
	pool, err := eng.registry.Get(pair)
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	shares := pool.Position("alice")
	if _, err := eng.RemoveLiquidity(ctx, RemoveLiquidityRequest{Pair: pair, Shares: shares, Provider: "alice"}); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if err := eng.RetirePool(ctx, pair); err != nil {
		t.Fatalf("retire: %v", err)
	}

	// Retired is terminal.
	if err := eng.ResumePool(ctx, pair); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if err := eng.RetirePool(ctx, pair); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on double retire, got %v", err)
	}

	// The pool stays listed for audit.
	pools := eng.ListPools()
	if len(pools) != 1 || pools[0].Status != StatusRetired {
		t.Fatalf("retired pool not listed: %+v", pools)
	}

	// Paused pools cannot be retired directly.
	if _, err := eng.CreatePool(CreatePoolRequest{
		AssetA: "BTC", AssetB: "USDC",
		InitialReserveA: Units(10), InitialReserveB: Units(600_000),
		FeeBps: 30, Creator: "alice",
	}); err != nil {
		t.Fatalf("create second pool: %v", err)
	}
	btc := mustPair(t, "BTC", "USDC")
	if err := eng.PausePool(ctx, btc); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := eng.RetirePool(ctx, btc); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition retiring paused pool, got %v", err)
	}
}

func TestEngineListPoolsVolume(t *testing.T) {
	eng := newTestEngine(t)
	pair := mustPair(t, "ETH", "USDC")
	ctx := context.Background()

	for _, amt := range []int64{3, 7} {
		if _, err := eng.ExecuteTrade(ctx, ExecuteTradeRequest{
			Pair: pair, Side: SideSell, AmountIn: Units(amt), MinAmountOut: math.NewInt(1), Trader: "bob",
		}); err != nil {
			t.Fatalf("trade %d: %v", amt, err)
		}
	}
	if _, err := eng.ExecuteTrade(ctx, ExecuteTradeRequest{
		Pair: pair, Side: SideBuy, AmountIn: Units(5000), MinAmountOut: math.NewInt(1), Trader: "carol",
	}); err != nil {
		t.Fatalf("buy: %v", err)
	}

	pools := eng.ListPools()
	if len(pools) != 1 {
		t.Fatalf("expected 1 pool, got %d", len(pools))
	}
	if !pools[0].VolumeBase24h.Equal(Units(10)) {
		t.Fatalf("base volume mismatch: %s", pools[0].VolumeBase24h)
	}
	if !pools[0].VolumeQuote24h.Equal(Units(5000)) {
		t.Fatalf("quote volume mismatch: %s", pools[0].VolumeQuote24h)
	}
	if pools[0].SpotPrice.IsZero() {
		t.Fatal("spot price missing")
	}
}

func TestEngineTradeHistoryMerge(t *testing.T) {
	eng := newTestEngine(t)
	ctx := context.Background()

	if _, err := eng.CreatePool(CreatePoolRequest{
		AssetA: "BTC", AssetB: "USDC",
		InitialReserveA: Units(100), InitialReserveB: Units(6_000_000),
		FeeBps: 30, Creator: "alice",
	}); err != nil {
		t.Fatalf("create second pool: %v", err)
	}

	eth := mustPair(t, "ETH", "USDC")
	btc := mustPair(t, "BTC", "USDC")

	// Interleave trades across pools so the merged order exercises the sort.
	for i, tr := range []struct {
		pair   PairID
		trader string
	}{
		{eth, "bob"}, {btc, "bob"}, {eth, "carol"}, {btc, "carol"}, {btc, "bob"},
	} {
		if _, err := eng.ExecuteTrade(ctx, ExecuteTradeRequest{
			Pair: tr.pair, Side: SideSell, AmountIn: Units(1), MinAmountOut: math.NewInt(1), Trader: tr.trader,
		}); err != nil {
			t.Fatalf("trade %d: %v", i, err)
		}
	}

	all, err := eng.GetTradeHistory(TradeHistoryRequest{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 trades, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].TradeID <= all[i-1].TradeID {
			t.Fatalf("merged history out of order at %d", i)
		}
	}

	bob, err := eng.GetTradeHistory(TradeHistoryRequest{Trader: "bob"})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(bob) != 3 {
		t.Fatalf("expected 3 trades for bob, got %d", len(bob))
	}

	ethOnly, err := eng.GetTradeHistory(TradeHistoryRequest{Pair: &eth, Limit: 1})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(ethOnly) != 1 || ethOnly[0].Trader != "carol" {
		t.Fatalf("limited pool history wrong: %+v", ethOnly)
	}

	missing := mustPair(t, "DOGE", "USDC")
	if _, err := eng.GetTradeHistory(TradeHistoryRequest{Pair: &missing}); !errors.Is(err, ErrPoolNotFound) {
		t.Fatalf("expected ErrPoolNotFound, got %v", err)
	}
}

func TestEngineSnapshotTail(t *testing.T) {
	eng := newTestEngine(t)
	pair := mustPair(t, "ETH", "USDC")
	ctx := context.Background()

	trade := func(amt int64) {
		t.Helper()
		if _, err := eng.ExecuteTrade(ctx, ExecuteTradeRequest{
			Pair: pair, Side: SideSell, AmountIn: Units(amt), MinAmountOut: math.NewInt(1), Trader: "bob",
		}); err != nil {
			t.Fatalf("trade: %v", err)
		}
	}

	trade(1)
	trade(2)

	first := eng.Snapshot()
	if len(first.Pools) != 1 || len(first.Trades) != 2 {
		t.Fatalf("first snapshot shape wrong: %d pools, %d trades", len(first.Pools), len(first.Trades))
	}
	if first.FirstTradeID != 1 || first.LastTradeID != 2 {
		t.Fatalf("first snapshot range wrong: %d..%d", first.FirstTradeID, first.LastTradeID)
	}
	if len(first.Positions) != 1 || first.Positions[0].Provider != "alice" {
		t.Fatalf("positions wrong: %+v", first.Positions)
	}

	// Only trades since the previous snapshot appear in the next tail.
	trade(3)
	second := eng.Snapshot()
	if len(second.Trades) != 1 || second.Trades[0].TradeID != 3 {
		t.Fatalf("second snapshot tail wrong: %+v", second.Trades)
	}
	if second.FirstTradeID != 3 || second.LastTradeID != 3 {
		t.Fatalf("second snapshot range wrong: %d..%d", second.FirstTradeID, second.LastTradeID)
	}

	// Pool state is always the full current picture, tail or not.
	if len(second.Pools) != 1 || second.Pools[0].Pair != "ETH-USDC" {
		t.Fatalf("second snapshot pools wrong: %+v", second.Pools)
	}

	// An idle snapshot carries no trades and does not advance the cursor.
	third := eng.Snapshot()
	if len(third.Trades) != 0 || third.LastTradeID != 3 {
		t.Fatalf("idle snapshot wrong: %d trades, last id %d", len(third.Trades), third.LastTradeID)
	}
}
