package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ammcore/internal/model"
)

// Store provides Postgres persistence for engine snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// SaveSnapshot upserts pool and position rows and appends the trade tail.
// Trades are insert-only; a replayed snapshot is a no-op on conflict.
func (s *Store) SaveSnapshot(ctx context.Context, snap model.EngineSnapshot) error {
	batch := &pgx.Batch{}

	for _, pool := range snap.Pools {
		batch.Queue(`
			INSERT INTO pools (
				pair, base_asset, quote_asset, reserve_base, reserve_quote,
				fee_bps, total_shares, spot_price, status, pool_created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, to_timestamp($10), now())
			ON CONFLICT (pair)
			DO UPDATE SET
				reserve_base = EXCLUDED.reserve_base,
				reserve_quote = EXCLUDED.reserve_quote,
				total_shares = EXCLUDED.total_shares,
				spot_price = EXCLUDED.spot_price,
				status = EXCLUDED.status,
				updated_at = now()
		`,
			pool.Pair,
			pool.BaseAsset,
			pool.QuoteAsset,
			pool.ReserveBase,
			pool.ReserveQuote,
			int32(pool.FeeBps),
			pool.TotalShares,
			pool.SpotPrice,
			pool.Status,
			pool.CreatedAt,
		)
	}

	for _, pos := range snap.Positions {
		batch.Queue(`
			INSERT INTO positions (pair, provider, shares, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (pair, provider)
			DO UPDATE SET
				shares = EXCLUDED.shares,
				updated_at = now()
		`,
			pos.Pair,
			pos.Provider,
			pos.Shares,
		)
	}

	for _, trade := range snap.Trades {
		batch.Queue(`
			INSERT INTO trades (
				trade_id, pair, side, amount_in, amount_out, fee_paid,
				price_impact_bps, trader, executed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, to_timestamp($9))
			ON CONFLICT (trade_id) DO NOTHING
		`,
			int64(trade.TradeID),
			trade.Pair,
			trade.Side,
			trade.AmountIn,
			trade.AmountOut,
			trade.FeePaid,
			trade.PriceImpactBps,
			trade.Trader,
			trade.Timestamp,
		)
	}

	batch.Queue(`
		INSERT INTO snapshots (taken_at, first_trade_id, last_trade_id, pools, positions, trades)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		snap.TakenAt.UTC().Format(time.RFC3339Nano),
		int64(snap.FirstTradeID),
		int64(snap.LastTradeID),
		len(snap.Pools),
		len(snap.Positions),
		len(snap.Trades),
	)

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("snapshot batch statement %d: %w", i, err)
		}
	}
	return nil
}
