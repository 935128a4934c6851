package patterns

import (
	"math"

	"github.com/shopspring/decimal"
)

// PatternConfig holds the thresholds used by pattern detection.
type PatternConfig struct {
	// Candlestick thresholds
	DojiBodyRatio       float64 `mapstructure:"doji_body_ratio" json:"doji_body_ratio"`             // body/range below which a bar is a doji
	ShadowBodyRatio     float64 `mapstructure:"shadow_body_ratio" json:"shadow_body_ratio"`         // shadow/body for hammer and star shapes
	MarubozuShadowRatio float64 `mapstructure:"marubozu_shadow_ratio" json:"marubozu_shadow_ratio"` // max shadow/range for marubozu
	EngulfingRatio      float64 `mapstructure:"engulfing_ratio" json:"engulfing_ratio"`             // min body ratio for engulfing
	StarGapRatio        float64 `mapstructure:"star_gap_ratio" json:"star_gap_ratio"`               // reserved

	// Chart thresholds
	PivotLookback  int     `mapstructure:"pivot_lookback" json:"pivot_lookback"`
	MinPatternBars int     `mapstructure:"min_pattern_bars" json:"min_pattern_bars"`
	MaxPatternBars int     `mapstructure:"max_pattern_bars" json:"max_pattern_bars"` // advisory
	PriceTolerance float64 `mapstructure:"price_tolerance" json:"price_tolerance"`
	SlopeTolerance float64 `mapstructure:"slope_tolerance" json:"slope_tolerance"`
	MinConfidence  float64 `mapstructure:"min_confidence" json:"min_confidence"`
}

// DefaultPatternConfig returns the default detection thresholds.
func DefaultPatternConfig() PatternConfig {
	return PatternConfig{
		DojiBodyRatio:       0.1,
		ShadowBodyRatio:     2.0,
		MarubozuShadowRatio: 0.05,
		EngulfingRatio:      1.0,
		StarGapRatio:        0.01,
		PivotLookback:       5,
		MinPatternBars:      10,
		MaxPatternBars:      100,
		PriceTolerance:      0.02,
		SlopeTolerance:      0.1,
		MinConfidence:       0.6,
	}
}

// thresholds is a PatternConfig resolved into the numeric forms the rules compare against.
// Values that cannot be represented fall back to the defaults.
type thresholds struct {
	dojiBodyRatio       decimal.Decimal
	shadowBodyRatio     decimal.Decimal
	marubozuShadowRatio decimal.Decimal
	engulfingRatio      decimal.Decimal
	priceTolerance      decimal.Decimal
	slopeTolerance      decimal.Decimal

	dojiBodyRatioF   float64
	shadowBodyRatioF float64
	minConfidence    float64

	pivotLookback  int
	minPatternBars int
}

func resolveThresholds(cfg PatternConfig) thresholds {
	def := DefaultPatternConfig()
	t := thresholds{
		dojiBodyRatioF:   finiteOr(cfg.DojiBodyRatio, def.DojiBodyRatio),
		shadowBodyRatioF: finiteOr(cfg.ShadowBodyRatio, def.ShadowBodyRatio),
		minConfidence:    finiteOr(cfg.MinConfidence, def.MinConfidence),
		pivotLookback:    cfg.PivotLookback,
		minPatternBars:   cfg.MinPatternBars,
	}
	t.dojiBodyRatio = decimal.NewFromFloat(t.dojiBodyRatioF)
	t.shadowBodyRatio = decimal.NewFromFloat(t.shadowBodyRatioF)
	t.marubozuShadowRatio = decimal.NewFromFloat(finiteOr(cfg.MarubozuShadowRatio, def.MarubozuShadowRatio))
	t.engulfingRatio = decimal.NewFromFloat(finiteOr(cfg.EngulfingRatio, def.EngulfingRatio))
	t.priceTolerance = decimal.NewFromFloat(finiteOr(cfg.PriceTolerance, def.PriceTolerance))
	t.slopeTolerance = decimal.NewFromFloat(finiteOr(cfg.SlopeTolerance, def.SlopeTolerance))

	if t.pivotLookback < 0 {
		t.pivotLookback = def.PivotLookback
	}
	if t.minPatternBars < 0 {
		t.minPatternBars = def.MinPatternBars
	}
	return t
}

// finiteOr returns v, or fallback when v is NaN or infinite.
func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
