package marketdata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/wonny/algosim/internal/contracts"
)

var _ contracts.PriceStore = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS price_series (
	series_key  TEXT PRIMARY KEY,
	symbol      TEXT NOT NULL,
	interval    TEXT NOT NULL,
	start_date  TEXT NOT NULL,
	end_date    TEXT NOT NULL,
	bar_count   INTEGER NOT NULL,
	fetched_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS price_bars (
	series_key  TEXT NOT NULL REFERENCES price_series(series_key) ON DELETE CASCADE,
	trade_date  TEXT NOT NULL,
	open        REAL NOT NULL,
	high        REAL NOT NULL,
	low         REAL NOT NULL,
	close       REAL NOT NULL,
	adj_close   REAL NOT NULL,
	volume      INTEGER NOT NULL,
	PRIMARY KEY (series_key, trade_date)
);
`

// SQLiteStore keeps every series in one local SQLite file
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and applies the schema
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// sqlite는 단일 writer
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load returns the bars saved under key
func (s *SQLiteStore) Load(ctx context.Context, key contracts.SeriesKey) (contracts.PriceSeries, bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT bar_count FROM price_series WHERE series_key = ?`, key.String(),
	).Scan(&count)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query series %s: %w", key, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT trade_date, open, high, low, close, adj_close, volume
		FROM price_bars
		WHERE series_key = ?
		ORDER BY trade_date ASC
	`, key.String())
	if err != nil {
		return nil, false, fmt.Errorf("query bars %s: %w", key, err)
	}
	defer rows.Close()

	series := make(contracts.PriceSeries, 0, count)
	for rows.Next() {
		var b contracts.Bar
		var day string
		if err := rows.Scan(&day, &b.Open, &b.High, &b.Low, &b.Close, &b.AdjClose, &b.Volume); err != nil {
			return nil, false, fmt.Errorf("scan bar: %w", err)
		}
		if b.Date, err = time.Parse("2006-01-02", day); err != nil {
			return nil, false, fmt.Errorf("parse trade date %q: %w", day, err)
		}
		series = append(series, b)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return series, true, nil
}

// Save replaces the bars stored under key in one transaction
func (s *SQLiteStore) Save(ctx context.Context, key contracts.SeriesKey, series contracts.PriceSeries) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"price_bars", "price_series"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE series_key = ?", key.String()); err != nil {
			return fmt.Errorf("clear %s for %s: %w", table, key, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO price_series (series_key, symbol, interval, start_date, end_date, bar_count, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, key.String(), key.Symbol, key.Interval,
		key.Start.Format("2006-01-02"), key.End.Format("2006-01-02"),
		len(series), time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("insert series %s: %w", key, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO price_bars (series_key, trade_date, open, high, low, close, adj_close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare bar insert: %w", err)
	}
	defer stmt.Close()

	for _, b := range series {
		if _, err := stmt.ExecContext(ctx, key.String(), b.Date.Format("2006-01-02"),
			b.Open, b.High, b.Low, b.Close, b.AdjClose, b.Volume); err != nil {
			return fmt.Errorf("insert bar %s: %w", b.Date.Format("2006-01-02"), err)
		}
	}

	return tx.Commit()
}
