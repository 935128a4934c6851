package store

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pattern-engine/internal/errors"
	"pattern-engine/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "candles.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_LatestCandles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	candles := generateTestCandles(30, 250.5, 1000)
	require.NoError(t, s.SaveCandles(ctx, "INFY", "1m", candles))

	latest, err := s.GetLatestCandles(ctx, "INFY", "1m", 10)
	require.NoError(t, err)
	require.Len(t, latest, 10)
	assert.True(t, latest[0].Timestamp.Equal(candles[20].Timestamp))
	assert.True(t, latest[9].Timestamp.Equal(candles[29].Timestamp))

	all, err := s.GetLatestCandles(ctx, "INFY", "1m", 0)
	require.NoError(t, err)
	assert.Len(t, all, 30)

	_, err = s.GetLatestCandles(ctx, "INFY", "1d", 10)
	assert.ErrorIs(t, err, apperrors.ErrDataNotFound)
}

func TestSQLiteStore_Upsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	candles := generateTestCandles(5, 100, 10)
	require.NoError(t, s.SaveCandles(ctx, "TCS", "1h", candles))

	candles[2].Close = decimal.RequireFromString("101.25")
	require.NoError(t, s.SaveCandles(ctx, "TCS", "1h", candles[2:3]))

	got, err := s.GetLatestCandles(ctx, "TCS", "1h", 0)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, "101.25", got[2].Close.String())
}

func TestSQLiteStore_ListSeries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveCandles(ctx, "SBIN", "1d", generateTestCandles(3, 600, 10)))
	require.NoError(t, s.SaveCandles(ctx, "INFY", "1d", generateTestCandles(4, 1500, 10)))
	require.NoError(t, s.SaveCandles(ctx, "INFY", "5m", generateTestCandles(2, 1500, 10)))

	series, err := s.ListSeries(ctx)
	require.NoError(t, err)
	require.Len(t, series, 3)
	assert.Equal(t, "INFY", series[0].Symbol)
	assert.Equal(t, models.Timeframe1Day, series[0].Timeframe)
	assert.Equal(t, 4, series[0].Count)
	assert.True(t, series[0].Last.After(series[0].First))

	symbols, err := s.ListSymbols(ctx, "1d")
	require.NoError(t, err)
	assert.Equal(t, []string{"INFY", "SBIN"}, symbols)

	fresh, err := s.GetCandlesFreshness(ctx, "INFY", "1d")
	require.NoError(t, err)
	assert.True(t, fresh.Equal(series[0].Last))

	none, err := s.GetCandlesFreshness(ctx, "NOPE", "1d")
	require.NoError(t, err)
	assert.True(t, none.IsZero())
}

func TestSQLiteStore_Imports(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, ok := s.GetLastImport("INFY", "1d")
	assert.False(t, ok)

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordImport(ctx, ImportRecord{
		Symbol: "INFY", Timeframe: "1d", Source: "infy.csv", Count: 250, ImportedAt: at,
	}))

	rec, ok := s.GetLastImport("INFY", "1d")
	require.True(t, ok)
	assert.Equal(t, "infy.csv", rec.Source)
	assert.Equal(t, 250, rec.Count)
	assert.True(t, rec.ImportedAt.Equal(at))
}

func TestIsBusy(t *testing.T) {
	assert.True(t, isBusy(sqlite3.Error{Code: sqlite3.ErrBusy}))
	assert.True(t, isBusy(fmt.Errorf("insert: %w", sqlite3.Error{Code: sqlite3.ErrLocked})))
	assert.False(t, isBusy(sqlite3.Error{Code: sqlite3.ErrConstraint}))
	assert.False(t, isBusy(apperrors.ErrDataNotFound))
}

func TestReadCandlesCSV(t *testing.T) {
	input := strings.Join([]string{
		"timestamp,open,high,low,close,volume",
		"2024-01-03,102,106,101,105,1500",
		"2024-01-02T00:00:00Z,100,103,99,102,1200",
		"1704326400,105,107,104,104.5,",
	}, "\n")

	candles, err := ReadCandlesCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, candles, 3)

	assert.True(t, candles[0].Timestamp.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "102", candles[1].Open.String())
	assert.Equal(t, int64(1500), candles[1].Volume)
	assert.Equal(t, "104.5", candles[2].Close.String())
	assert.Equal(t, int64(0), candles[2].Volume)
}

func TestReadCandlesCSV_Invalid(t *testing.T) {
	input := "timestamp,open,high,low,close,volume\n2024-01-02,100,99,98,101,10\n"

	_, err := ReadCandlesCSV(strings.NewReader(input))
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInputValidation)
	assert.Contains(t, err.Error(), "line 2")

	_, err = ReadCandlesCSV(strings.NewReader("timestamp,open,high,low,close\nyesterday,1,2,0,1\n"))
	assert.ErrorIs(t, err, apperrors.ErrInputValidation)
}

func TestWriteCandlesCSV_RoundTrip(t *testing.T) {
	candles := generateTestCandles(5, 321.45, 100)

	var buf bytes.Buffer
	require.NoError(t, WriteCandlesCSV(&buf, candles))

	back, err := ReadCandlesCSV(&buf)
	require.NoError(t, err)
	require.Len(t, back, len(candles))
	for i := range candles {
		assert.True(t, candlesEqual(candles[i], back[i]), "candle %d", i)
	}
}
