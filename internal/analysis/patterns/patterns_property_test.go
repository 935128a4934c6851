package patterns

import (
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"pattern-engine/internal/models"
)

// barShape is the raw material for one generated candle.
type barShape struct {
	Open  float64
	Close float64
	Up    float64
	Down  float64
}

func barShapeGen() gopter.Gen {
	return gen.Struct(reflect.TypeOf(barShape{}), map[string]gopter.Gen{
		"Open":  gen.Float64Range(50.0, 150.0),
		"Close": gen.Float64Range(50.0, 150.0),
		"Up":    gen.Float64Range(0.0, 5.0),
		"Down":  gen.Float64Range(0.0, 5.0),
	})
}

// candleSeriesGen generates well formed candles with two-decimal prices.
func candleSeriesGen(maxLen int) gopter.Gen {
	return gen.SliceOfN(maxLen, barShapeGen()).Map(func(shapes []barShape) []models.Candle {
		candles := make([]models.Candle, len(shapes))
		for i, s := range shapes {
			open := decimal.NewFromFloat(s.Open).Round(2)
			cls := decimal.NewFromFloat(s.Close).Round(2)
			candles[i] = models.Candle{
				Timestamp: testStart.Add(time.Duration(i) * time.Minute),
				Open:      open,
				Close:     cls,
				High:      decimal.Max(open, cls).Add(decimal.NewFromFloat(s.Up).Round(2)),
				Low:       decimal.Min(open, cls).Sub(decimal.NewFromFloat(s.Down).Round(2)),
				Volume:    1000,
			}
		}
		return candles
	})
}

func propertyParameters() *gopter.TestParameters {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())
	return parameters
}

// Property: detection over the same bars and configuration is deterministic.
func TestProperty_DetectionDeterministic(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("two runs produce identical results", prop.ForAll(
		func(candles []models.Candle, lookback int) bool {
			cfg := DefaultPatternConfig()
			cfg.PivotLookback = lookback
			r := NewPatternRecognizer(cfg)

			first := r.Detect("TEST", "5m", candles)
			second := r.Detect("TEST", "5m", candles)
			return reflect.DeepEqual(first, second)
		},
		candleSeriesGen(80),
		gen.IntRange(1, 6),
	))

	properties.TestingRun(t)
}

// Property: every emitted pattern meets the minimum confidence.
func TestProperty_ConfidenceFilter(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("confidence >= min_confidence", prop.ForAll(
		func(candles []models.Candle, minConf float64) bool {
			cfg := DefaultPatternConfig()
			cfg.MinConfidence = minConf
			cfg.PivotLookback = 2
			r := NewPatternRecognizer(cfg)

			for _, p := range r.DetectCandlestickPatterns(candles) {
				if p.Confidence < minConf {
					return false
				}
			}
			for _, p := range r.DetectChartPatterns(candles) {
				if p.Confidence < minConf {
					return false
				}
			}
			return true
		},
		candleSeriesGen(60),
		gen.Float64Range(0.0, 1.0),
	))

	properties.TestingRun(t)
}

// Property: all confidences lie in [0, 1] and candle counts match the kind.
func TestProperty_CandlestickOutputWellFormed(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("candlestick patterns are well formed", prop.ForAll(
		func(candles []models.Candle) bool {
			for _, p := range NewCandlestickDetector(DefaultPatternConfig()).Detect(candles) {
				if p.Confidence < 0 || p.Confidence > 1 {
					return false
				}
				if p.CandleCount != p.Type.CandleCount() || p.EndIndex+1 < p.CandleCount {
					return false
				}
				if !p.Timestamp.Equal(candles[p.EndIndex].Timestamp) {
					return false
				}
			}
			return true
		},
		candleSeriesGen(40),
	))

	properties.TestingRun(t)
}

// Property: a bar is a peak iff its high is the maximum of its clamped window,
// and a valley iff its low is the minimum.
func TestProperty_PivotWindow(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("pivots match their window extremes", prop.ForAll(
		func(candles []models.Candle, k int) bool {
			isPeak := make(map[int]bool)
			isValley := make(map[int]bool)
			for _, p := range FindPivots(candles, k) {
				if p.Kind == Peak {
					isPeak[p.Index] = true
				} else {
					isValley[p.Index] = true
				}
			}

			for i := k; i < len(candles)-k; i++ {
				maxHigh, minLow := candles[i].High, candles[i].Low
				for j := i - k; j <= i+k; j++ {
					maxHigh = decimal.Max(maxHigh, candles[j].High)
					minLow = decimal.Min(minLow, candles[j].Low)
				}
				if isPeak[i] != candles[i].High.Equal(maxHigh) {
					return false
				}
				if isValley[i] != candles[i].Low.Equal(minLow) {
					return false
				}
			}
			return true
		},
		candleSeriesGen(50),
		gen.IntRange(1, 6),
	))

	properties.TestingRun(t)
}

// Property: shifting every price by a constant leaves pivot indices unchanged.
func TestProperty_PivotTranslationInvariance(t *testing.T) {
	properties := gopter.NewProperties(propertyParameters())

	properties.Property("pivots are translation invariant", prop.ForAll(
		func(candles []models.Candle, k int, shift float64) bool {
			offset := decimal.NewFromFloat(shift).Round(2)
			shifted := make([]models.Candle, len(candles))
			for i, c := range candles {
				c.Open = c.Open.Add(offset)
				c.High = c.High.Add(offset)
				c.Low = c.Low.Add(offset)
				c.Close = c.Close.Add(offset)
				shifted[i] = c
			}

			before := FindPivots(candles, k)
			after := FindPivots(shifted, k)
			if len(before) != len(after) {
				return false
			}
			for i := range before {
				if before[i].Index != after[i].Index || before[i].Kind != after[i].Kind {
					return false
				}
				if !after[i].Price.Sub(before[i].Price).Equal(offset) {
					return false
				}
			}
			return true
		},
		candleSeriesGen(50),
		gen.IntRange(1, 6),
		gen.Float64Range(-40.0, 1000.0),
	))

	properties.TestingRun(t)
}
