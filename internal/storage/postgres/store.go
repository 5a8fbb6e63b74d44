package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"positionLens/internal/model"
)

// Store provides Postgres persistence for fee reports.
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

// UpsertReports inserts or updates fee reports, one row per position per block.
func (s *Store) UpsertReports(ctx context.Context, reports []model.FeeReport) error {
	if len(reports) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, report := range reports {
		batch.Queue(`
			INSERT INTO fee_reports (
				chain_id, token_id, block_number, owner, pool, token0, token1,
				symbol0, symbol1, fee, tick_lower, tick_upper, liquidity,
				amount0, amount1, generated_at, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,now(),now())
			ON CONFLICT (chain_id, token_id, block_number)
			DO UPDATE SET
				owner = EXCLUDED.owner,
				pool = EXCLUDED.pool,
				symbol0 = EXCLUDED.symbol0,
				symbol1 = EXCLUDED.symbol1,
				liquidity = EXCLUDED.liquidity,
				amount0 = EXCLUDED.amount0,
				amount1 = EXCLUDED.amount1,
				generated_at = EXCLUDED.generated_at,
				updated_at = now()
		`,
			int64(report.ChainID),
			report.TokenID,
			int64(report.BlockNumber),
			report.Owner,
			report.Pool,
			report.Token0,
			report.Token1,
			report.Symbol0,
			report.Symbol1,
			int64(report.Fee),
			report.TickLower,
			report.TickUpper,
			report.Liquidity,
			report.Amount0,
			report.Amount1,
			report.GeneratedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range reports {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// PutReports satisfies the storage.Storage interface.
func (s *Store) PutReports(reports []model.FeeReport) error {
	return s.UpsertReports(context.Background(), reports)
}
