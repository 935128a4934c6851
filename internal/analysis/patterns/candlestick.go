// Package patterns provides chart and candlestick pattern detection.
package patterns

import (
	"math"

	"github.com/shopspring/decimal"

	"pattern-engine/internal/models"
)

var (
	dojiShadowLong    = decimal.NewFromFloat(0.6)
	dojiShadowShort   = decimal.NewFromFloat(0.1)
	hammerOppositeMax = decimal.NewFromFloat(0.2)
	spinningTopRatio  = decimal.NewFromFloat(0.3)
)

// trendLookback is the number of preceding bars checked by the hammer and star rules.
const trendLookback = 3

// CandlestickDetector detects candlestick patterns in price data.
type CandlestickDetector struct {
	t thresholds
}

// NewCandlestickDetector creates a new candlestick pattern detector.
func NewCandlestickDetector(cfg PatternConfig) *CandlestickDetector {
	return &CandlestickDetector{t: resolveThresholds(cfg)}
}

func (d *CandlestickDetector) Name() string {
	return "CandlestickDetector"
}

// Detect detects all candlestick patterns in the given candles.
// No confidence filtering is applied here.
func (d *CandlestickDetector) Detect(candles []models.Candle) []CandlestickPattern {
	patterns := make([]CandlestickPattern, 0)
	if len(candles) == 0 {
		return patterns
	}

	add := func(p *CandlestickPattern) {
		if p != nil {
			patterns = append(patterns, *p)
		}
	}

	// Detect single-candle patterns
	for i := 0; i < len(candles); i++ {
		s := measure(candles[i])
		if !s.ok {
			continue
		}
		add(d.detectDoji(candles, i, s))
		add(d.detectHammer(candles, i, s))
		add(d.detectShootingStar(candles, i, s))
		add(d.detectMarubozu(candles, i, s))
		add(d.detectSpinningTop(candles, i, s))
	}

	// Detect two-candle patterns
	for i := 1; i < len(candles); i++ {
		add(d.detectBullishEngulfing(candles, i))
		add(d.detectBearishEngulfing(candles, i))
		add(d.detectBullishHarami(candles, i))
		add(d.detectBearishHarami(candles, i))
		add(d.detectPiercingLine(candles, i))
		add(d.detectDarkCloudCover(candles, i))
		add(d.detectTweezerBottom(candles, i))
		add(d.detectTweezerTop(candles, i))
	}

	// Detect three-candle patterns
	for i := 2; i < len(candles); i++ {
		add(d.detectMorningStar(candles, i))
		add(d.detectEveningStar(candles, i))
		add(d.detectThreeWhiteSoldiers(candles, i))
		add(d.detectThreeBlackCrows(candles, i))
		add(d.detectBullishAbandonedBaby(candles, i))
		add(d.detectBearishAbandonedBaby(candles, i))
	}

	return patterns
}

func newCandlestickPattern(candles []models.Candle, idx int, kind CandlestickPatternType, confidence float64, bullish bool) *CandlestickPattern {
	return &CandlestickPattern{
		Type:        kind,
		EndIndex:    idx,
		CandleCount: kind.CandleCount(),
		Confidence:  confidence,
		Bullish:     bullish,
		Timestamp:   candles[idx].Timestamp,
		Metadata:    map[string]string{},
	}
}

// isDoji reports whether the candle's body is below the doji ratio.
// A zero-range candle counts as a doji.
func (d *CandlestickDetector) isDoji(c models.Candle) bool {
	s := measure(c)
	if !s.ok {
		return true
	}
	return s.bodyRatio.LessThan(d.t.dojiBodyRatio)
}

// isInDowntrend checks the bars before idx. Each of the previous three bars must
// be bearish or close below the close three bars back. With fewer than three
// predecessors the check passes.
func isInDowntrend(candles []models.Candle, idx int) bool {
	if idx < trendLookback {
		return true
	}
	ref := candles[idx-trendLookback].Close
	for _, k := range candles[idx-trendLookback : idx] {
		if !(isBearish(k) || k.Close.LessThan(ref)) {
			return false
		}
	}
	return true
}

// isInUptrend mirrors isInDowntrend.
func isInUptrend(candles []models.Candle, idx int) bool {
	if idx < trendLookback {
		return true
	}
	ref := candles[idx-trendLookback].Close
	for _, k := range candles[idx-trendLookback : idx] {
		if !(isBullish(k) || k.Close.GreaterThan(ref)) {
			return false
		}
	}
	return true
}

func (d *CandlestickDetector) dojiConfidence(bodyRatio decimal.Decimal) float64 {
	c := 1 - bodyRatio.InexactFloat64()/d.t.dojiBodyRatioF
	return math.Min(math.Max(c, 0.5), 0.95)
}

func (d *CandlestickDetector) shadowConfidence(ratio decimal.Decimal) float64 {
	if d.t.shadowBodyRatioF <= 0 {
		return 0.9
	}
	return math.Min(0.9, ratio.InexactFloat64()/d.t.shadowBodyRatioF*0.4+0.5)
}

func engulfingConfidence(ratio decimal.Decimal) float64 {
	return math.Min(0.9, 0.5+ratio.InexactFloat64()*0.1)
}

// Single-candle pattern detection

// detectDoji detects Doji, Dragonfly Doji and Gravestone Doji.
func (d *CandlestickDetector) detectDoji(candles []models.Candle, idx int, s shape) *CandlestickPattern {
	if !s.bodyRatio.LessThan(d.t.dojiBodyRatio) {
		return nil
	}

	kind := Doji
	switch {
	case s.lowerRatio.GreaterThan(dojiShadowLong) && s.upperRatio.LessThan(dojiShadowShort):
		kind = DragonflyDoji
	case s.upperRatio.GreaterThan(dojiShadowLong) && s.lowerRatio.LessThan(dojiShadowShort):
		kind = GravestoneDoji
	}

	p := newCandlestickPattern(candles, idx, kind, d.dojiConfidence(s.bodyRatio), kind != GravestoneDoji)
	p.Metadata["body_ratio"] = s.bodyRatio.StringFixed(4)
	return p
}

// detectHammer detects Hammer (after a downtrend) or Hanging Man.
func (d *CandlestickDetector) detectHammer(candles []models.Candle, idx int, s shape) *CandlestickPattern {
	if s.body.IsZero() {
		return nil
	}
	ratio := s.lower.Div(s.body)
	if ratio.LessThan(d.t.shadowBodyRatio) || !s.upperRatio.LessThan(hammerOppositeMax) {
		return nil
	}

	kind := HangingMan
	if isInDowntrend(candles, idx) {
		kind = Hammer
	}

	p := newCandlestickPattern(candles, idx, kind, d.shadowConfidence(ratio), kind == Hammer)
	p.Metadata["shadow_ratio"] = ratio.StringFixed(4)
	return p
}

// detectShootingStar detects Shooting Star (after an uptrend) or Inverted Hammer.
func (d *CandlestickDetector) detectShootingStar(candles []models.Candle, idx int, s shape) *CandlestickPattern {
	if s.body.IsZero() {
		return nil
	}
	ratio := s.upper.Div(s.body)
	if ratio.LessThan(d.t.shadowBodyRatio) || !s.lowerRatio.LessThan(hammerOppositeMax) {
		return nil
	}

	kind := InvertedHammer
	if isInUptrend(candles, idx) {
		kind = ShootingStar
	}

	p := newCandlestickPattern(candles, idx, kind, d.shadowConfidence(ratio), kind == InvertedHammer)
	p.Metadata["shadow_ratio"] = ratio.StringFixed(4)
	return p
}

// detectMarubozu detects Marubozu patterns (almost no shadows)
func (d *CandlestickDetector) detectMarubozu(candles []models.Candle, idx int, s shape) *CandlestickPattern {
	if !s.upperRatio.LessThan(d.t.marubozuShadowRatio) || !s.lowerRatio.LessThan(d.t.marubozuShadowRatio) {
		return nil
	}

	bullish := isBullish(candles[idx])
	kind := BearishMarubozu
	if bullish {
		kind = BullishMarubozu
	}
	return newCandlestickPattern(candles, idx, kind, 0.85, bullish)
}

// detectSpinningTop detects Spinning Top patterns (indecision)
func (d *CandlestickDetector) detectSpinningTop(candles []models.Candle, idx int, s shape) *CandlestickPattern {
	if !s.bodyRatio.LessThan(spinningTopRatio) ||
		!s.upperRatio.GreaterThan(spinningTopRatio) ||
		!s.lowerRatio.GreaterThan(spinningTopRatio) {
		return nil
	}
	return newCandlestickPattern(candles, idx, SpinningTop, 0.6, false)
}

// Two-candle pattern detection

func (d *CandlestickDetector) detectBullishEngulfing(candles []models.Candle, idx int) *CandlestickPattern {
	prev, curr := candles[idx-1], candles[idx]
	prevBody := bodySize(prev)
	if !isBearish(prev) || !isBullish(curr) || prevBody.IsZero() {
		return nil
	}
	if curr.Open.GreaterThan(prev.Close) || curr.Close.LessThan(prev.Open) {
		return nil
	}
	ratio := bodySize(curr).Div(prevBody)
	if ratio.LessThan(d.t.engulfingRatio) {
		return nil
	}

	p := newCandlestickPattern(candles, idx, BullishEngulfing, engulfingConfidence(ratio), true)
	p.Metadata["engulf_ratio"] = ratio.StringFixed(4)
	return p
}

func (d *CandlestickDetector) detectBearishEngulfing(candles []models.Candle, idx int) *CandlestickPattern {
	prev, curr := candles[idx-1], candles[idx]
	prevBody := bodySize(prev)
	if !isBullish(prev) || !isBearish(curr) || prevBody.IsZero() {
		return nil
	}
	if curr.Open.LessThan(prev.Close) || curr.Close.GreaterThan(prev.Open) {
		return nil
	}
	ratio := bodySize(curr).Div(prevBody)
	if ratio.LessThan(d.t.engulfingRatio) {
		return nil
	}

	p := newCandlestickPattern(candles, idx, BearishEngulfing, engulfingConfidence(ratio), false)
	p.Metadata["engulf_ratio"] = ratio.StringFixed(4)
	return p
}

func (d *CandlestickDetector) detectBullishHarami(candles []models.Candle, idx int) *CandlestickPattern {
	prev, curr := candles[idx-1], candles[idx]
	if !isBearish(prev) || !isBullish(curr) {
		return nil
	}
	if !curr.Open.GreaterThan(prev.Close) || !curr.Close.LessThan(prev.Open) {
		return nil
	}
	if !bodySize(curr).LessThan(bodySize(prev)) {
		return nil
	}
	return newCandlestickPattern(candles, idx, BullishHarami, 0.7, true)
}

func (d *CandlestickDetector) detectBearishHarami(candles []models.Candle, idx int) *CandlestickPattern {
	prev, curr := candles[idx-1], candles[idx]
	if !isBullish(prev) || !isBearish(curr) {
		return nil
	}
	if !curr.Open.LessThan(prev.Close) || !curr.Close.GreaterThan(prev.Open) {
		return nil
	}
	if !bodySize(curr).LessThan(bodySize(prev)) {
		return nil
	}
	return newCandlestickPattern(candles, idx, BearishHarami, 0.7, false)
}

// detectPiercingLine: bullish bar opening below a bearish close and recovering past its midpoint.
func (d *CandlestickDetector) detectPiercingLine(candles []models.Candle, idx int) *CandlestickPattern {
	prev, curr := candles[idx-1], candles[idx]
	if !isBearish(prev) || !isBullish(curr) {
		return nil
	}
	mid := bodyMidpoint(prev)
	if curr.Open.LessThan(prev.Close) && curr.Close.GreaterThan(mid) && curr.Close.LessThan(prev.Open) {
		return newCandlestickPattern(candles, idx, PiercingLine, 0.75, true)
	}
	return nil
}

// detectDarkCloudCover: bearish bar opening above a bullish close and falling past its midpoint.
func (d *CandlestickDetector) detectDarkCloudCover(candles []models.Candle, idx int) *CandlestickPattern {
	prev, curr := candles[idx-1], candles[idx]
	if !isBullish(prev) || !isBearish(curr) {
		return nil
	}
	mid := bodyMidpoint(prev)
	if curr.Open.GreaterThan(prev.Close) && curr.Close.LessThan(mid) && curr.Close.GreaterThan(prev.Open) {
		return newCandlestickPattern(candles, idx, DarkCloudCover, 0.75, false)
	}
	return nil
}

func (d *CandlestickDetector) tweezerTolerance(prev models.Candle) decimal.Decimal {
	return candleRange(prev).Mul(d.t.priceTolerance)
}

func (d *CandlestickDetector) detectTweezerBottom(candles []models.Candle, idx int) *CandlestickPattern {
	prev, curr := candles[idx-1], candles[idx]
	if !isBearish(prev) || !isBullish(curr) {
		return nil
	}
	if prev.Low.Sub(curr.Low).Abs().GreaterThan(d.tweezerTolerance(prev)) {
		return nil
	}
	return newCandlestickPattern(candles, idx, TweezerBottom, 0.7, true)
}

func (d *CandlestickDetector) detectTweezerTop(candles []models.Candle, idx int) *CandlestickPattern {
	prev, curr := candles[idx-1], candles[idx]
	if !isBullish(prev) || !isBearish(curr) {
		return nil
	}
	if prev.High.Sub(curr.High).Abs().GreaterThan(d.tweezerTolerance(prev)) {
		return nil
	}
	return newCandlestickPattern(candles, idx, TweezerTop, 0.7, false)
}

// Three-candle pattern detection

// detectMorningStar detects Morning Star and Morning Doji Star.
func (d *CandlestickDetector) detectMorningStar(candles []models.Candle, idx int) *CandlestickPattern {
	first, second, third := candles[idx-2], candles[idx-1], candles[idx]
	if !isBearish(first) || !isBullish(third) {
		return nil
	}
	if !bodySize(second).LessThan(bodySize(first).Div(decThree)) {
		return nil
	}
	if !third.Close.GreaterThan(bodyMidpoint(first)) {
		return nil
	}

	kind := MorningStar
	if d.isDoji(second) {
		kind = MorningDojiStar
	}
	return newCandlestickPattern(candles, idx, kind, 0.85, true)
}

// detectEveningStar detects Evening Star and Evening Doji Star.
func (d *CandlestickDetector) detectEveningStar(candles []models.Candle, idx int) *CandlestickPattern {
	first, second, third := candles[idx-2], candles[idx-1], candles[idx]
	if !isBullish(first) || !isBearish(third) {
		return nil
	}
	if !bodySize(second).LessThan(bodySize(first).Div(decThree)) {
		return nil
	}
	if !third.Close.LessThan(bodyMidpoint(first)) {
		return nil
	}

	kind := EveningStar
	if d.isDoji(second) {
		kind = EveningDojiStar
	}
	return newCandlestickPattern(candles, idx, kind, 0.85, false)
}

func (d *CandlestickDetector) detectThreeWhiteSoldiers(candles []models.Candle, idx int) *CandlestickPattern {
	first, second, third := candles[idx-2], candles[idx-1], candles[idx]
	if !isBullish(first) || !isBullish(second) || !isBullish(third) {
		return nil
	}
	if !second.Close.GreaterThan(first.Close) || !third.Close.GreaterThan(second.Close) {
		return nil
	}
	if !second.Open.GreaterThan(first.Open) || !third.Open.GreaterThan(second.Open) {
		return nil
	}
	return newCandlestickPattern(candles, idx, ThreeWhiteSoldiers, 0.9, true)
}

func (d *CandlestickDetector) detectThreeBlackCrows(candles []models.Candle, idx int) *CandlestickPattern {
	first, second, third := candles[idx-2], candles[idx-1], candles[idx]
	if !isBearish(first) || !isBearish(second) || !isBearish(third) {
		return nil
	}
	if !second.Close.LessThan(first.Close) || !third.Close.LessThan(second.Close) {
		return nil
	}
	if !second.Open.LessThan(first.Open) || !third.Open.LessThan(second.Open) {
		return nil
	}
	return newCandlestickPattern(candles, idx, ThreeBlackCrows, 0.9, false)
}

// detectBullishAbandonedBaby: a doji gapped below both neighbours between a bearish and a bullish bar.
func (d *CandlestickDetector) detectBullishAbandonedBaby(candles []models.Candle, idx int) *CandlestickPattern {
	first, second, third := candles[idx-2], candles[idx-1], candles[idx]
	if !d.isDoji(second) || !isBearish(first) || !isBullish(third) {
		return nil
	}
	if !second.High.LessThan(first.Low) || !second.High.LessThan(third.Low) {
		return nil
	}
	return newCandlestickPattern(candles, idx, BullishAbandonedBaby, 0.95, true)
}

// detectBearishAbandonedBaby: a doji gapped above both neighbours between a bullish and a bearish bar.
func (d *CandlestickDetector) detectBearishAbandonedBaby(candles []models.Candle, idx int) *CandlestickPattern {
	first, second, third := candles[idx-2], candles[idx-1], candles[idx]
	if !d.isDoji(second) || !isBullish(first) || !isBearish(third) {
		return nil
	}
	if !second.Low.GreaterThan(first.High) || !second.Low.GreaterThan(third.High) {
		return nil
	}
	return newCandlestickPattern(candles, idx, BearishAbandonedBaby, 0.95, false)
}
