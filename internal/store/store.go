// Package store provides candle persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"pattern-engine/internal/models"
)

// CandleStore defines the interface for candle persistence.
type CandleStore interface {
	// Candles
	SaveCandles(ctx context.Context, symbol, timeframe string, candles []models.Candle) error
	GetCandles(ctx context.Context, symbol, timeframe string, from, to time.Time) ([]models.Candle, error)
	GetLatestCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error)
	GetCandlesFreshness(ctx context.Context, symbol, timeframe string) (time.Time, error)

	// Series
	ListSeries(ctx context.Context) ([]models.Series, error)
	ListSymbols(ctx context.Context, timeframe string) ([]string, error)

	// Imports
	RecordImport(ctx context.Context, rec ImportRecord) error
	GetLastImport(symbol, timeframe string) (ImportRecord, bool)

	// Lifecycle
	Close() error
}

// ImportRecord describes the most recent import into a series.
type ImportRecord struct {
	Symbol     string
	Timeframe  string
	Source     string
	Count      int
	ImportedAt time.Time
}
