package amm

import (
	"testing"
	"time"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	pair := mustPair(t, "ETH", "USDC")
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	l := NewLedger()
	for i := 0; i < 6; i++ {
		side := SideSell
		if i%2 == 1 {
			side = SideBuy
		}
		trader := "alice"
		if i >= 4 {
			trader = "bob"
		}
		l.append(TradeRecord{
			TradeID:   uint64(i + 1),
			Pair:      pair,
			Side:      side,
			AmountIn:  Units(int64(i + 1)),
			AmountOut: Units(int64(i+1) * 2),
			FeePaid:   ZeroAmount(),
			Trader:    trader,
			Timestamp: base.Add(time.Duration(i) * time.Hour),
		})
	}
	return l
}

func TestLedgerQueryFilters(t *testing.T) {
	l := newTestLedger(t)

	all := l.Query(LedgerFilter{})
	if len(all) != 6 {
		t.Fatalf("expected 6 trades, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].TradeID <= all[i-1].TradeID {
			t.Fatalf("trade ids not increasing at %d", i)
		}
	}

	bob := l.Query(LedgerFilter{Trader: "bob"})
	if len(bob) != 2 || bob[0].TradeID != 5 || bob[1].TradeID != 6 {
		t.Fatalf("bob filter wrong: %+v", bob)
	}

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	since := l.Query(LedgerFilter{Since: base.Add(3 * time.Hour)})
	if len(since) != 3 || since[0].TradeID != 4 {
		t.Fatalf("since filter wrong: %+v", since)
	}

	// Limit keeps the most recent matches, not the oldest.
	limited := l.Query(LedgerFilter{Limit: 2})
	if len(limited) != 2 || limited[0].TradeID != 5 || limited[1].TradeID != 6 {
		t.Fatalf("limit wrong: %+v", limited)
	}

	if got := l.Query(LedgerFilter{Trader: "nobody"}); len(got) != 0 {
		t.Fatalf("expected no trades for unknown trader, got %d", len(got))
	}
}

func TestLedgerVolumeWindow(t *testing.T) {
	l := newTestLedger(t)
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	// Full window: sells are trades 1, 3, 5 (base side); buys 2, 4, 6.
	vol := l.VolumeSince(base)
	if !vol.Base.Equal(Units(1 + 3 + 5)) {
		t.Fatalf("base volume mismatch: %s", vol.Base)
	}
	if !vol.Quote.Equal(Units(2 + 4 + 6)) {
		t.Fatalf("quote volume mismatch: %s", vol.Quote)
	}

	// Cutoff between trades 3 and 4 drops the older half.
	vol = l.VolumeSince(base.Add(2*time.Hour + time.Minute))
	if !vol.Base.Equal(Units(5)) || !vol.Quote.Equal(Units(4 + 6)) {
		t.Fatalf("windowed volume mismatch: %s / %s", vol.Base, vol.Quote)
	}

	vol = l.VolumeSince(base.Add(24 * time.Hour))
	if !vol.Base.IsZero() || !vol.Quote.IsZero() {
		t.Fatalf("expired window not empty: %s / %s", vol.Base, vol.Quote)
	}
}

func TestLedgerTailAfter(t *testing.T) {
	l := newTestLedger(t)

	tail := l.TailAfter(0)
	if len(tail) != 6 {
		t.Fatalf("full tail length %d", len(tail))
	}

	tail = l.TailAfter(4)
	if len(tail) != 2 || tail[0].TradeID != 5 || tail[1].TradeID != 6 {
		t.Fatalf("tail after 4 wrong: %+v", tail)
	}

	if tail = l.TailAfter(6); len(tail) != 0 {
		t.Fatalf("tail past end should be empty, got %d", len(tail))
	}

	// The tail is a copy; mutating it must not touch the ledger.
	tail = l.TailAfter(5)
	tail[0].Trader = "mallory"
	if got := l.Query(LedgerFilter{})[5].Trader; got != "bob" {
		t.Fatalf("ledger mutated through tail: %s", got)
	}
}
