package amm

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"cosmossdk.io/math"
	"go.uber.org/zap"
)

// Registry owns the collection of pools keyed by canonical pair id and is the
// sole entry point to them. Each pool is independently lockable; the registry
// lock only guards the map, so unrelated pairs never contend.
type Registry struct {
	mu    sync.RWMutex
	pools map[string]*Pool

	tradeSeq atomic.Uint64

	logger *zap.Logger
	now    func() time.Time
}

// NewRegistry builds an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		pools:  make(map[string]*Pool),
		logger: logger,
		now:    time.Now,
	}
}

// CreatePool registers a pool for the pair, seeds its reserves, and mints
// genesis shares sqrt(reserveA*reserveB) to the creator. A pair is created
// exactly once; it is never silently recreated.
func (r *Registry) CreatePool(pair PairID, reserveBase, reserveQuote math.Int, feeBps uint16, creator string) (*Pool, error) {
	if !positive(reserveBase) || !positive(reserveQuote) {
		return nil, ErrInvalidAmount.Wrap("initial reserves must be positive")
	}
	if err := ValidateFeeBps(feeBps); err != nil {
		return nil, err
	}

	shares, err := GenesisShares(reserveBase, reserveQuote)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := pair.String()
	if _, exists := r.pools[key]; exists {
		return nil, ErrPoolAlreadyExists.Wrapf("pool %s", key)
	}

	pool := newPool(pair, reserveBase, reserveQuote, shares, feeBps, creator, r.now().UTC())
	r.pools[key] = pool

	r.logger.Info("pool created",
		zap.String("pair", key),
		zap.String("reserve_base", reserveBase.String()),
		zap.String("reserve_quote", reserveQuote.String()),
		zap.Uint16("fee_bps", feeBps),
		zap.String("genesis_shares", shares.String()),
		zap.String("creator", creator),
	)

	return pool, nil
}

// Get resolves a pool by canonical pair id.
func (r *Registry) Get(pair PairID) (*Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pool, ok := r.pools[pair.String()]
	if !ok {
		return nil, ErrPoolNotFound.Wrapf("pool %s", pair)
	}
	return pool, nil
}

// List returns point-in-time views of all pools, sorted by pair id. Views may
// be slightly stale under concurrent mutation.
func (r *Registry) List() []PoolView {
	r.mu.RLock()
	pools := make([]*Pool, 0, len(r.pools))
	for _, pool := range r.pools {
		pools = append(pools, pool)
	}
	r.mu.RUnlock()

	views := make([]PoolView, 0, len(pools))
	for _, pool := range pools {
		views = append(views, pool.View())
	}
	sort.Slice(views, func(i, j int) bool {
		return views[i].Pair.String() < views[j].Pair.String()
	})
	return views
}

// Len returns the number of registered pools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pools)
}

// nextTradeID hands out engine-wide unique trade ids. Executors call it under
// the pool's trade lock, so ids are also monotonic per pool.
func (r *Registry) nextTradeID() uint64 {
	return r.tradeSeq.Add(1)
}
