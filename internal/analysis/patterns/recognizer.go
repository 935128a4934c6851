package patterns

import (
	"github.com/rs/zerolog"

	"pattern-engine/internal/models"
)

// Weights applied to pattern confidence when scoring the overall signal.
const (
	candlestickWeight = 0.4
	chartWeight       = 0.6
	signalThreshold   = 0.2
)

// Signal is the aggregated direction of a detection run.
type Signal string

const (
	SignalBullish Signal = "bullish"
	SignalBearish Signal = "bearish"
	SignalNeutral Signal = "neutral"
)

// DetectionResult is the combined output of one detection run over a series.
type DetectionResult struct {
	Symbol              string               `json:"symbol"`
	Timeframe           string               `json:"timeframe"`
	CandlesAnalyzed     int                  `json:"candles_analyzed"`
	CandlestickPatterns []CandlestickPattern `json:"candlestick_patterns"`
	ChartPatterns       []ChartPattern       `json:"chart_patterns"`
	OverallSignal       Signal               `json:"overall_signal"`
	SignalStrength      float64              `json:"signal_strength"` // -1.0 to 1.0
}

// Option configures a PatternRecognizer.
type Option func(r *PatternRecognizer)

// WithLogger sets the logger used for debug output.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *PatternRecognizer) {
		r.logger = logger
	}
}

// PatternRecognizer runs candlestick and chart detection and applies the
// minimum confidence filter.
type PatternRecognizer struct {
	config      PatternConfig
	minConf     float64
	candlestick *CandlestickDetector
	chart       *ChartPatternDetector
	logger      zerolog.Logger
}

// NewPatternRecognizer creates a new recognizer for the given configuration.
func NewPatternRecognizer(cfg PatternConfig, opts ...Option) *PatternRecognizer {
	r := &PatternRecognizer{
		config:      cfg,
		minConf:     resolveThresholds(cfg).minConfidence,
		candlestick: NewCandlestickDetector(cfg),
		chart:       NewChartPatternDetector(cfg),
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the configuration the recognizer was built with.
func (r *PatternRecognizer) Config() PatternConfig {
	return r.config
}

// DetectCandlestickPatterns returns candlestick patterns at or above the minimum confidence.
func (r *PatternRecognizer) DetectCandlestickPatterns(candles []models.Candle) []CandlestickPattern {
	found := r.candlestick.Detect(candles)

	filtered := make([]CandlestickPattern, 0, len(found))
	for _, p := range found {
		if p.Confidence >= r.minConf {
			filtered = append(filtered, p)
		}
	}

	r.logger.Debug().
		Int("candles", len(candles)).
		Int("found", len(found)).
		Int("kept", len(filtered)).
		Msg("Candlestick detection complete")

	return filtered
}

// DetectChartPatterns returns chart patterns at or above the minimum confidence.
func (r *PatternRecognizer) DetectChartPatterns(candles []models.Candle) []ChartPattern {
	found := r.chart.Detect(candles)

	filtered := make([]ChartPattern, 0, len(found))
	for _, p := range found {
		if p.Confidence >= r.minConf {
			filtered = append(filtered, p)
		}
	}

	r.logger.Debug().
		Int("candles", len(candles)).
		Int("found", len(found)).
		Int("kept", len(filtered)).
		Msg("Chart pattern detection complete")

	return filtered
}

// Detect runs both detectors and scores the overall signal.
func (r *PatternRecognizer) Detect(symbol, timeframe string, candles []models.Candle) DetectionResult {
	candlestick := r.DetectCandlestickPatterns(candles)
	chart := r.DetectChartPatterns(candles)
	signal, strength := OverallSignal(candlestick, chart)

	return DetectionResult{
		Symbol:              symbol,
		Timeframe:           timeframe,
		CandlesAnalyzed:     len(candles),
		CandlestickPatterns: candlestick,
		ChartPatterns:       chart,
		OverallSignal:       signal,
		SignalStrength:      strength,
	}
}

// OverallSignal weighs candlestick confidences by 0.4 and chart confidences by 0.6
// and returns the net direction with strength (bull-bear)/(bull+bear).
func OverallSignal(candlestick []CandlestickPattern, chart []ChartPattern) (Signal, float64) {
	var bullish, bearish float64

	for _, p := range candlestick {
		w := p.Confidence * candlestickWeight
		if p.Bullish {
			bullish += w
		} else {
			bearish += w
		}
	}
	for _, p := range chart {
		w := p.Confidence * chartWeight
		if p.Bullish {
			bullish += w
		} else {
			bearish += w
		}
	}

	var strength float64
	if total := bullish + bearish; total > 0 {
		strength = (bullish - bearish) / total
	}

	switch {
	case strength > signalThreshold:
		return SignalBullish, strength
	case strength < -signalThreshold:
		return SignalBearish, strength
	default:
		return SignalNeutral, strength
	}
}
