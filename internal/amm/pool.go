package amm

import (
	"context"
	"sync"
	"time"

	"cosmossdk.io/math"
)

// Status is a pool's lifecycle state. Transitions are Active -> Paused (on
// invariant violation or explicit admin pause), Paused -> Active (explicit
// admin resume), and Active -> Retired (reserves and shares at zero, explicit
// operator action). Nothing else is permitted.
type Status string

const (
	StatusActive  Status = "active"
	StatusPaused  Status = "paused"
	StatusRetired Status = "retired"
)

// Pool owns the reserves, fee, share supply, provider positions, and trade
// ledger for one trading pair.
//
// Two layers of exclusion apply. The trade lock (a capacity-1 semaphore with
// bounded acquisition) serializes writers: trades, liquidity changes, and
// admin transitions. The state mutex guards the fields themselves so that
// read paths (quotes, listings, snapshots) observe a consistent view without
// queueing behind writers. Writers hold the trade lock across compute and
// apply, and take the state mutex only for the apply step, which is pure
// arithmetic.
type Pool struct {
	pair      PairID
	feeBps    uint16
	createdAt time.Time

	lock chan struct{}

	mu           sync.RWMutex
	status       Status
	reserveBase  math.Int
	reserveQuote math.Int
	totalShares  math.Int
	positions    map[string]math.Int
	ledger       *Ledger
}

func newPool(pair PairID, reserveBase, reserveQuote, shares math.Int, feeBps uint16, creator string, now time.Time) *Pool {
	p := &Pool{
		pair:         pair,
		feeBps:       feeBps,
		createdAt:    now,
		lock:         make(chan struct{}, 1),
		status:       StatusActive,
		reserveBase:  reserveBase,
		reserveQuote: reserveQuote,
		totalShares:  shares,
		positions:    map[string]math.Int{creator: shares},
		ledger:       NewLedger(),
	}
	return p
}

// Pair returns the pool's canonical pair id.
func (p *Pool) Pair() PairID { return p.pair }

// FeeBps returns the pool's immutable fee rate.
func (p *Pool) FeeBps() uint16 { return p.feeBps }

// Ledger returns the pool's trade ledger.
func (p *Pool) Ledger() *Ledger { return p.ledger }

// acquire takes the trade lock, failing with ErrPoolBusy once the timeout
// elapses. A caller that gives up before acquisition has no effect on the
// pool. Lock hold times are bounded to pure arithmetic, so the timeout only
// trips under severe contention.
func (p *Pool) acquire(ctx context.Context, timeout time.Duration) error {
	select {
	case p.lock <- struct{}{}:
		return nil
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case p.lock <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrPoolBusy.Wrapf("pool %s: no lock within %s", p.pair, timeout)
	case <-ctx.Done():
		return ErrPoolBusy.Wrapf("pool %s: %v", p.pair, ctx.Err())
	}
}

func (p *Pool) release() {
	<-p.lock
}

// requireActive reports the pool usable for trading and liquidity changes.
// Caller must hold the trade lock so the answer stays true until release.
func (p *Pool) requireActive() error {
	p.mu.RLock()
	st := p.status
	p.mu.RUnlock()

	if st != StatusActive {
		return ErrPoolPaused.Wrapf("pool %s is %s", p.pair, st)
	}
	return nil
}

// PoolView is a point-in-time copy of a pool's externally visible state.
type PoolView struct {
	Pair         PairID
	ReserveBase  math.Int
	ReserveQuote math.Int
	FeeBps       uint16
	TotalShares  math.Int
	Status       Status
	CreatedAt    time.Time
}

// View returns a consistent snapshot of the pool's state. It may be slightly
// stale under concurrent mutation, which is acceptable for quoting and
// listing; ExecuteTrade always re-reads under the trade lock.
func (p *Pool) View() PoolView {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return PoolView{
		Pair:         p.pair,
		ReserveBase:  p.reserveBase,
		ReserveQuote: p.reserveQuote,
		FeeBps:       p.feeBps,
		TotalShares:  p.totalShares,
		Status:       p.status,
		CreatedAt:    p.createdAt,
	}
}

// Position returns the shares owned by a provider, zero if none.
func (p *Pool) Position(provider string) math.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if shares, ok := p.positions[provider]; ok {
		return shares
	}
	return math.ZeroInt()
}

// Positions returns a copy of the provider -> shares map.
func (p *Pool) Positions() map[string]math.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]math.Int, len(p.positions))
	for provider, shares := range p.positions {
		out[provider] = shares
	}
	return out
}

// reservesFor maps a trade direction onto (reserveIn, reserveOut).
// Caller must hold the state mutex or the trade lock.
func (p *Pool) reservesFor(side Side) (math.Int, math.Int) {
	if side == SideSell {
		return p.reserveBase, p.reserveQuote
	}
	return p.reserveQuote, p.reserveBase
}
