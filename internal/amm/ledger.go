package amm

import (
	"sort"
	"sync"
	"time"

	"cosmossdk.io/math"
)

// TradeRecord is an immutable entry in a pool's trade ledger.
type TradeRecord struct {
	TradeID        uint64
	Pair           PairID
	Side           Side
	AmountIn       math.Int
	AmountOut      math.Int
	FeePaid        math.Int
	PriceImpactBps int64
	Trader         string
	Timestamp      time.Time
}

// VolumeWindow holds per-asset input volume over a trailing window.
// Sell inputs accrue to the base asset, buy inputs to the quote asset.
type VolumeWindow struct {
	Base  math.Int
	Quote math.Int
}

// Ledger is the append-only trade record sequence for one pool. Appends
// happen under the pool's trade lock, so timestamps and trade ids are
// non-decreasing; queries only need the ledger's own read lock.
type Ledger struct {
	mu     sync.RWMutex
	trades []TradeRecord
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) append(rec TradeRecord) {
	l.mu.Lock()
	l.trades = append(l.trades, rec)
	l.mu.Unlock()
}

// Len returns the number of recorded trades.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.trades)
}

// LedgerFilter narrows a ledger query. Zero values match everything.
type LedgerFilter struct {
	Trader string
	Since  time.Time
	Limit  int
}

// Query returns trades matching the filter in append order. With a positive
// limit only the most recent matches are returned.
func (l *Ledger) Query(f LedgerFilter) []TradeRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	start := 0
	if !f.Since.IsZero() {
		start = l.cutoffIndex(f.Since)
	}

	out := make([]TradeRecord, 0, len(l.trades)-start)
	for _, rec := range l.trades[start:] {
		if f.Trader != "" && rec.Trader != f.Trader {
			continue
		}
		out = append(out, rec)
	}

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}

// VolumeSince sums trade inputs with timestamps at or after the cutoff. The
// window is recomputed lazily on query; nothing prunes in the background.
func (l *Ledger) VolumeSince(cutoff time.Time) VolumeWindow {
	l.mu.RLock()
	defer l.mu.RUnlock()

	vol := VolumeWindow{Base: math.ZeroInt(), Quote: math.ZeroInt()}
	for _, rec := range l.trades[l.cutoffIndex(cutoff):] {
		switch rec.Side {
		case SideSell:
			vol.Base = vol.Base.Add(rec.AmountIn)
		case SideBuy:
			vol.Quote = vol.Quote.Add(rec.AmountIn)
		}
	}
	return vol
}

// TailAfter returns all trades with ids strictly greater than tradeID.
// Ids are monotonic within a pool, so the tail is a suffix.
func (l *Ledger) TailAfter(tradeID uint64) []TradeRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	start := sort.Search(len(l.trades), func(i int) bool {
		return l.trades[i].TradeID > tradeID
	})
	out := make([]TradeRecord, len(l.trades)-start)
	copy(out, l.trades[start:])
	return out
}

// cutoffIndex binary-searches the first trade at or after ts. Timestamps are
// non-decreasing because appends happen under the pool's trade lock.
func (l *Ledger) cutoffIndex(ts time.Time) int {
	return sort.Search(len(l.trades), func(i int) bool {
		return !l.trades[i].Timestamp.Before(ts)
	})
}
