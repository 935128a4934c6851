package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"pattern-engine/internal/models"
)

// Property: For any valid candle data, saving candles to the database and then
// retrieving them produces identical candles. Decimal prices are stored as text,
// so the round trip is exact.
func TestProperty_CandleRoundTripConsistency(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "candles_property.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	symbols := []string{"RELIANCE", "TCS", "INFY", "HDFCBANK", "ICICIBANK", "SBIN", "BTCUSDT", "ETHUSDT"}
	timeframeGen := gen.OneConstOf("1m", "5m", "15m", "1h", "4h", "1d")
	countGen := gen.IntRange(1, 20)
	priceGen := gen.Float64Range(0.5, 5000.0)
	volumeGen := gen.Int64Range(0, 1000000)

	run := 0

	properties.Property("Candle round-trip: save then retrieve produces identical data", prop.ForAll(
		func(symbolIdx int, timeframe string, count int, basePrice float64, baseVolume int64) bool {
			ctx := context.Background()
			run++
			symbol := fmt.Sprintf("%s_%d", symbols[symbolIdx%len(symbols)], run)

			candles := generateTestCandles(count, basePrice, baseVolume)

			if err := store.SaveCandles(ctx, symbol, timeframe, candles); err != nil {
				t.Logf("Failed to save candles: %v", err)
				return false
			}

			from := candles[0].Timestamp.Add(-time.Second)
			to := candles[len(candles)-1].Timestamp.Add(time.Second)
			retrieved, err := store.GetCandles(ctx, symbol, timeframe, from, to)
			if err != nil {
				t.Logf("Failed to get candles: %v", err)
				return false
			}

			if len(retrieved) != len(candles) {
				t.Logf("Count mismatch: expected %d, got %d", len(candles), len(retrieved))
				return false
			}

			for i, orig := range candles {
				if !candlesEqual(orig, retrieved[i]) {
					t.Logf("Candle mismatch at index %d: original=%+v, retrieved=%+v", i, orig, retrieved[i])
					return false
				}
			}

			return true
		},
		gen.IntRange(0, len(symbols)-1),
		timeframeGen,
		countGen,
		priceGen,
		volumeGen,
	))

	properties.Property("Empty candles: saving empty slice should succeed", prop.ForAll(
		func(symbolIdx int, timeframe string) bool {
			symbol := fmt.Sprintf("%s_empty", symbols[symbolIdx%len(symbols)])
			return store.SaveCandles(context.Background(), symbol, timeframe, []models.Candle{}) == nil
		},
		gen.IntRange(0, len(symbols)-1),
		timeframeGen,
	))

	properties.TestingRun(t)
}

// generateTestCandles creates valid candles with two-decimal prices.
func generateTestCandles(count int, basePrice float64, baseVolume int64) []models.Candle {
	candles := make([]models.Candle, count)
	baseTime := time.Date(2024, 1, 1, 9, 15, 0, 0, time.UTC)
	base := decimal.NewFromFloat(basePrice).Round(2)

	for i := 0; i < count; i++ {
		variation := base.Mul(decimal.NewFromFloat(float64(i%10) * 0.01)).Round(2)
		open := base.Add(variation)
		cls := base.Add(variation.Div(decimal.NewFromInt(2)).Round(2))

		candles[i] = models.Candle{
			Timestamp: baseTime.Add(time.Duration(i) * time.Minute),
			Open:      open,
			High:      decimal.Max(open, cls).Mul(decimal.NewFromFloat(1.01)).Round(2),
			Low:       decimal.Min(open, cls).Mul(decimal.NewFromFloat(0.99)).Round(2),
			Close:     cls,
			Volume:    baseVolume + int64(i*1000),
		}
	}

	return candles
}

// candlesEqual compares two candles exactly.
func candlesEqual(a, b models.Candle) bool {
	return a.Timestamp.Equal(b.Timestamp) &&
		a.Open.Equal(b.Open) &&
		a.High.Equal(b.High) &&
		a.Low.Equal(b.Low) &&
		a.Close.Equal(b.Close) &&
		a.Volume == b.Volume
}
