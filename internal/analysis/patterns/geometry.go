package patterns

import (
	"github.com/shopspring/decimal"

	"pattern-engine/internal/models"
)

var (
	decTwo   = decimal.NewFromInt(2)
	decThree = decimal.NewFromInt(3)
)

// Helper functions for candle analysis

func bodySize(c models.Candle) decimal.Decimal {
	return c.Close.Sub(c.Open).Abs()
}

func candleRange(c models.Candle) decimal.Decimal {
	return c.High.Sub(c.Low)
}

func upperShadow(c models.Candle) decimal.Decimal {
	return c.High.Sub(decimal.Max(c.Open, c.Close))
}

func lowerShadow(c models.Candle) decimal.Decimal {
	return decimal.Min(c.Open, c.Close).Sub(c.Low)
}

func isBullish(c models.Candle) bool {
	return c.Close.GreaterThan(c.Open)
}

func isBearish(c models.Candle) bool {
	return c.Close.LessThan(c.Open)
}

// bodyMidpoint returns the midpoint of the candle's real body.
func bodyMidpoint(c models.Candle) decimal.Decimal {
	return c.Open.Add(c.Close).Div(decTwo)
}

// shape holds the ratios of one bar against its full range.
// ok is false for zero-range bars, for which no ratio exists.
type shape struct {
	body  decimal.Decimal
	rng   decimal.Decimal
	upper decimal.Decimal
	lower decimal.Decimal

	bodyRatio  decimal.Decimal
	upperRatio decimal.Decimal
	lowerRatio decimal.Decimal
	ok         bool
}

func measure(c models.Candle) shape {
	s := shape{
		body:  bodySize(c),
		rng:   candleRange(c),
		upper: upperShadow(c),
		lower: lowerShadow(c),
	}
	if s.rng.IsZero() {
		return s
	}
	s.bodyRatio = s.body.Div(s.rng)
	s.upperRatio = s.upper.Div(s.rng)
	s.lowerRatio = s.lower.Div(s.rng)
	s.ok = true
	return s
}
