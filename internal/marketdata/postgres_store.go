package marketdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/algosim/internal/contracts"
)

var _ contracts.PriceStore = (*PostgresStore)(nil)

const postgresSchema = `
CREATE SCHEMA IF NOT EXISTS market;

CREATE TABLE IF NOT EXISTS market.price_series (
	series_key  TEXT PRIMARY KEY,
	symbol      TEXT NOT NULL,
	interval    TEXT NOT NULL,
	start_date  DATE NOT NULL,
	end_date    DATE NOT NULL,
	bar_count   INTEGER NOT NULL,
	fetched_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS market.daily_prices (
	series_key  TEXT NOT NULL REFERENCES market.price_series(series_key) ON DELETE CASCADE,
	trade_date  DATE NOT NULL,
	open_price  DOUBLE PRECISION NOT NULL,
	high_price  DOUBLE PRECISION NOT NULL,
	low_price   DOUBLE PRECISION NOT NULL,
	close_price DOUBLE PRECISION NOT NULL,
	adj_close   DOUBLE PRECISION NOT NULL,
	volume      BIGINT NOT NULL,
	PRIMARY KEY (series_key, trade_date)
);
`

// PostgresStore persists series in PostgreSQL
// ⭐ SSOT: 가격 데이터 저장소는 여기서만
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on an existing pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the schema if it does not exist
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("apply postgres schema: %w", err)
	}
	return nil
}

// Load returns the bars saved under key
func (s *PostgresStore) Load(ctx context.Context, key contracts.SeriesKey) (contracts.PriceSeries, bool, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT bar_count FROM market.price_series WHERE series_key = $1`, key.String(),
	).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query series %s: %w", key, err)
	}

	query := `
		SELECT trade_date, open_price, high_price, low_price, close_price, adj_close, volume
		FROM market.daily_prices
		WHERE series_key = $1
		ORDER BY trade_date ASC
	`

	rows, err := s.pool.Query(ctx, query, key.String())
	if err != nil {
		return nil, false, fmt.Errorf("query bars %s: %w", key, err)
	}
	defer rows.Close()

	series := make(contracts.PriceSeries, 0, count)
	for rows.Next() {
		var b contracts.Bar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.AdjClose, &b.Volume); err != nil {
			return nil, false, fmt.Errorf("scan bar: %w", err)
		}
		b.Date = truncateDay(b.Date)
		series = append(series, b)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return series, true, nil
}

// Save replaces the bars stored under key in one transaction
func (s *PostgresStore) Save(ctx context.Context, key contracts.SeriesKey, series contracts.PriceSeries) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO market.price_series (series_key, symbol, interval, start_date, end_date, bar_count, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (series_key) DO UPDATE SET
			bar_count = EXCLUDED.bar_count,
			fetched_at = EXCLUDED.fetched_at
	`, key.String(), key.Symbol, key.Interval, key.Start, key.End, len(series))
	if err != nil {
		return fmt.Errorf("upsert series %s: %w", key, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM market.daily_prices WHERE series_key = $1`, key.String()); err != nil {
		return fmt.Errorf("clear bars %s: %w", key, err)
	}

	rows := make([][]interface{}, len(series))
	for i, b := range series {
		rows[i] = []interface{}{key.String(), b.Date, b.Open, b.High, b.Low, b.Close, b.AdjClose, b.Volume}
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"market", "daily_prices"},
		[]string{"series_key", "trade_date", "open_price", "high_price", "low_price", "close_price", "adj_close", "volume"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy bars %s: %w", key, err)
	}

	return tx.Commit(ctx)
}
