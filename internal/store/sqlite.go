// Package store provides candle persistence implementations.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	apperrors "pattern-engine/internal/errors"
	"pattern-engine/internal/models"
	"pattern-engine/pkg/utils"
)

// writeRetry retries writes that lose a lock race past busy_timeout.
var writeRetry = utils.RetryConfig{
	MaxAttempts:   4,
	InitialDelay:  50 * time.Millisecond,
	MaxDelay:      time.Second,
	BackoffFactor: 2.0,
	Retryable:     isBusy,
}

// isBusy reports whether err is SQLITE_BUSY or SQLITE_LOCKED.
func isBusy(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
}

// SQLiteStore implements CandleStore using SQLite.
// Prices are stored as decimal text and timestamps as UTC unix milliseconds.
type SQLiteStore struct {
	db      *sql.DB
	mu      sync.RWMutex
	imports map[string]ImportRecord
}

// NewSQLiteStore creates a new SQLite-based candle store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent scans
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:      db,
		imports: make(map[string]ImportRecord),
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Candles table for historical OHLCV data
	CREATE TABLE IF NOT EXISTS candles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		ts INTEGER NOT NULL,
		open TEXT NOT NULL,
		high TEXT NOT NULL,
		low TEXT NOT NULL,
		close TEXT NOT NULL,
		volume INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(symbol, timeframe, ts)
	);

	-- Import bookkeeping, one row per series
	CREATE TABLE IF NOT EXISTS imports (
		symbol TEXT NOT NULL,
		timeframe TEXT NOT NULL,
		source TEXT NOT NULL,
		count INTEGER NOT NULL,
		imported_at INTEGER NOT NULL,
		PRIMARY KEY (symbol, timeframe)
	);

	CREATE INDEX IF NOT EXISTS idx_candles_series_ts ON candles(symbol, timeframe, ts);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveCandles upserts candles for a series in one transaction.
func (s *SQLiteStore) SaveCandles(ctx context.Context, symbol, timeframe string, candles []models.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	return utils.Retry(ctx, writeRetry, func() error {
		return s.saveCandlesTx(ctx, symbol, timeframe, candles)
	})
}

func (s *SQLiteStore) saveCandlesTx(ctx context.Context, symbol, timeframe string, candles []models.Candle) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO candles (symbol, timeframe, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range candles {
		_, err := stmt.ExecContext(ctx, symbol, timeframe, c.Timestamp.UnixMilli(),
			c.Open.String(), c.High.String(), c.Low.String(), c.Close.String(), c.Volume)
		if err != nil {
			return fmt.Errorf("failed to insert candle: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetCandles returns candles with from <= timestamp <= to in ascending order.
func (s *SQLiteStore) GetCandles(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]models.Candle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume
		FROM candles
		WHERE symbol = ? AND timeframe = ? AND ts >= ? AND ts <= ?
		ORDER BY ts ASC
	`, symbol, timeframe, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}
	defer rows.Close()

	return scanCandles(rows)
}

// GetLatestCandles returns the most recent limit candles in ascending order.
// A limit of zero or less returns the whole series.
func (s *SQLiteStore) GetLatestCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume FROM (
			SELECT ts, open, high, low, close, volume
			FROM candles
			WHERE symbol = ? AND timeframe = ?
			ORDER BY ts DESC
			LIMIT ?
		) ORDER BY ts ASC
	`, symbol, timeframe, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}
	defer rows.Close()

	candles, err := scanCandles(rows)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, apperrors.NewDataError("candles", symbol, timeframe, "no stored candles", apperrors.ErrDataNotFound)
	}
	return candles, nil
}

func scanCandles(rows *sql.Rows) ([]models.Candle, error) {
	candles := make([]models.Candle, 0)
	for rows.Next() {
		var c models.Candle
		var ts int64
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan candle: %w", err)
		}
		c.Timestamp = time.UnixMilli(ts).UTC()
		candles = append(candles, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candles: %w", err)
	}

	return candles, nil
}

// GetCandlesFreshness returns the timestamp of the newest candle, or the zero time.
func (s *SQLiteStore) GetCandlesFreshness(ctx context.Context, symbol, timeframe string) (time.Time, error) {
	var ts sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(ts) FROM candles WHERE symbol = ? AND timeframe = ?
	`, symbol, timeframe).Scan(&ts)
	if err != nil && err != sql.ErrNoRows {
		return time.Time{}, fmt.Errorf("failed to get candles freshness: %w", err)
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return time.UnixMilli(ts.Int64).UTC(), nil
}

// ListSeries summarizes every stored symbol and timeframe.
func (s *SQLiteStore) ListSeries(ctx context.Context) ([]models.Series, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, timeframe, COUNT(*), MIN(ts), MAX(ts)
		FROM candles
		GROUP BY symbol, timeframe
		ORDER BY symbol, timeframe
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query series: %w", err)
	}
	defer rows.Close()

	series := make([]models.Series, 0)
	for rows.Next() {
		var sr models.Series
		var timeframe string
		var first, last int64
		if err := rows.Scan(&sr.Symbol, &timeframe, &sr.Count, &first, &last); err != nil {
			return nil, fmt.Errorf("failed to scan series: %w", err)
		}
		sr.Timeframe = models.Timeframe(timeframe)
		sr.First = time.UnixMilli(first).UTC()
		sr.Last = time.UnixMilli(last).UTC()
		series = append(series, sr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating series: %w", err)
	}

	return series, nil
}

// ListSymbols returns the symbols that have candles for timeframe.
func (s *SQLiteStore) ListSymbols(ctx context.Context, timeframe string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT symbol FROM candles WHERE timeframe = ? ORDER BY symbol
	`, timeframe)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}

	return symbols, rows.Err()
}

func importKey(symbol, timeframe string) string {
	return symbol + "|" + timeframe
}

// RecordImport stores the latest import for a series.
func (s *SQLiteStore) RecordImport(ctx context.Context, rec ImportRecord) error {
	if rec.ImportedAt.IsZero() {
		rec.ImportedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO imports (symbol, timeframe, source, count, imported_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.Symbol, rec.Timeframe, rec.Source, rec.Count, rec.ImportedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}

	rec.ImportedAt = time.UnixMilli(rec.ImportedAt.UnixMilli()).UTC()
	s.mu.Lock()
	s.imports[importKey(rec.Symbol, rec.Timeframe)] = rec
	s.mu.Unlock()

	return nil
}

// GetLastImport returns the latest import for a series, if any.
func (s *SQLiteStore) GetLastImport(symbol, timeframe string) (ImportRecord, bool) {
	key := importKey(symbol, timeframe)

	s.mu.RLock()
	if rec, ok := s.imports[key]; ok {
		s.mu.RUnlock()
		return rec, true
	}
	s.mu.RUnlock()

	rec := ImportRecord{Symbol: symbol, Timeframe: timeframe}
	var importedAt int64
	err := s.db.QueryRow(`
		SELECT source, count, imported_at FROM imports WHERE symbol = ? AND timeframe = ?
	`, symbol, timeframe).Scan(&rec.Source, &rec.Count, &importedAt)
	if err != nil {
		return ImportRecord{}, false
	}
	rec.ImportedAt = time.UnixMilli(importedAt).UTC()

	s.mu.Lock()
	s.imports[key] = rec
	s.mu.Unlock()

	return rec, true
}
