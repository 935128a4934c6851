package scanner

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pattern-engine/internal/analysis/patterns"
	apperrors "pattern-engine/internal/errors"
	"pattern-engine/internal/models"
)

type fakeLoader struct {
	series   map[string][]models.Candle
	inflight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (f *fakeLoader) GetLatestCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	candles, ok := f.series[symbol+"/"+timeframe]
	if !ok {
		return nil, apperrors.NewDataError("candles", symbol, timeframe, "no stored candles", apperrors.ErrDataNotFound)
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

// risingCandles builds a steady advance of bullish bars.
func risingCandles(n int) []models.Candle {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := range out {
		open := decimal.NewFromInt(int64(100 + 2*i))
		out[i] = models.Candle{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      open,
			High:      open.Add(decimal.NewFromFloat(2.5)),
			Low:       open.Sub(decimal.NewFromFloat(0.5)),
			Close:     open.Add(decimal.NewFromInt(2)),
			Volume:    100,
		}
	}
	return out
}

func newRecognizer() *patterns.PatternRecognizer {
	return patterns.NewPatternRecognizer(patterns.DefaultPatternConfig())
}

func TestScanner_Scan(t *testing.T) {
	loader := &fakeLoader{series: map[string][]models.Candle{
		"INFY/1h": risingCandles(40),
		"TCS/1h":  risingCandles(25),
	}}
	s := New(loader, newRecognizer(), 2, 30, zerolog.Nop())

	results, err := s.Scan(context.Background(), "1h", []string{"INFY", "TCS"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "INFY", results[0].Symbol)
	assert.Equal(t, 30, results[0].Detection.CandlesAnalyzed)
	assert.Equal(t, "TCS", results[1].Symbol)
	assert.Equal(t, 25, results[1].Detection.CandlesAnalyzed)

	stats := s.Stats()
	assert.Equal(t, uint64(2), stats.Total)
	assert.Equal(t, uint64(2), stats.Done)
	assert.Zero(t, stats.Failed)
}

func TestScanner_PartialFailure(t *testing.T) {
	loader := &fakeLoader{series: map[string][]models.Candle{
		"INFY/1d": risingCandles(20),
	}}
	s := New(loader, newRecognizer(), 4, 0, zerolog.Nop())

	results, err := s.Scan(context.Background(), "1d", []string{"INFY", "MISSING"})
	require.Error(t, err)

	var scanErr *apperrors.ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Len(t, scanErr.Failures, 1)
	assert.ErrorIs(t, scanErr.Failures["MISSING"], apperrors.ErrDataNotFound)

	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.Len(t, RankBySignal(results), 1)
}

func TestScanner_BoundedWorkers(t *testing.T) {
	series := make(map[string][]models.Candle)
	var symbols []string
	for i := 0; i < 12; i++ {
		sym := fmt.Sprintf("SYM%02d", i)
		symbols = append(symbols, sym)
		series[sym+"/5m"] = risingCandles(15)
	}
	loader := &fakeLoader{series: series, delay: 5 * time.Millisecond}

	s := New(loader, newRecognizer(), 3, 0, zerolog.Nop())
	_, err := s.Scan(context.Background(), "5m", symbols)
	require.NoError(t, err)

	assert.LessOrEqual(t, loader.peak.Load(), int32(3))
}

func TestScanner_Cancelled(t *testing.T) {
	loader := &fakeLoader{series: map[string][]models.Candle{"INFY/1d": risingCandles(20)}}
	s := New(loader, newRecognizer(), 1, 0, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := s.Scan(ctx, "1d", []string{"INFY"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results)
}

func TestRankBySignal(t *testing.T) {
	results := []Result{
		{Symbol: "A", Detection: patterns.DetectionResult{SignalStrength: -0.5}},
		{Symbol: "B", Detection: patterns.DetectionResult{SignalStrength: 0.8}},
		{Symbol: "C", Detection: patterns.DetectionResult{SignalStrength: 0.1}},
		{Symbol: "D", Detection: patterns.DetectionResult{SignalStrength: -0.9}},
		{Symbol: "E", Err: fmt.Errorf("load failed")},
	}

	ranked := RankBySignal(results)
	require.Len(t, ranked, 4)

	var order []string
	for _, r := range ranked {
		order = append(order, r.Symbol)
	}
	assert.Equal(t, []string{"D", "B", "A", "C"}, order)
}

func TestRankBySignal_StrongBearishSurvivesTop(t *testing.T) {
	results := []Result{
		{Symbol: "WEAK", Detection: patterns.DetectionResult{SignalStrength: 0.1}},
		{Symbol: "BEAR", Detection: patterns.DetectionResult{SignalStrength: -0.9}},
	}

	ranked := RankBySignal(results)
	require.NotEmpty(t, ranked)
	assert.Equal(t, "BEAR", ranked[0].Symbol)
}

func TestRankBySignal_TiesKeepOrder(t *testing.T) {
	results := []Result{
		{Symbol: "UP", Detection: patterns.DetectionResult{SignalStrength: 0.5}},
		{Symbol: "DOWN", Detection: patterns.DetectionResult{SignalStrength: -0.5}},
	}

	ranked := RankBySignal(results)
	require.Len(t, ranked, 2)
	assert.Equal(t, "UP", ranked[0].Symbol)
	assert.Equal(t, "DOWN", ranked[1].Symbol)
}
