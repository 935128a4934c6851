package patterns

import (
	"github.com/shopspring/decimal"

	"pattern-engine/internal/models"
)

const (
	flagMinBars  = 20 // bars required before flags and pennants are considered
	flagLookback = 10 // bars of prior move measured at each index
)

var flagMoveThreshold = decimal.NewFromFloat(0.05)

// ChartPatternDetector detects chart patterns in price data.
type ChartPatternDetector struct {
	t thresholds
}

// NewChartPatternDetector creates a new chart pattern detector.
func NewChartPatternDetector(cfg PatternConfig) *ChartPatternDetector {
	return &ChartPatternDetector{t: resolveThresholds(cfg)}
}

func (d *ChartPatternDetector) Name() string {
	return "ChartPatternDetector"
}

// Detect detects all chart patterns in the given candles.
// No confidence filtering is applied here.
func (d *ChartPatternDetector) Detect(candles []models.Candle) []ChartPattern {
	patterns := make([]ChartPattern, 0)
	if len(candles) == 0 || len(candles) < d.t.minPatternBars {
		return patterns
	}

	pivots := FindPivots(candles, d.t.pivotLookback)
	peaks, valleys := splitPivots(pivots)
	quartets := lineQuartets(peaks, valleys)

	patterns = append(patterns, d.detectHeadAndShoulders(candles, peaks, valleys)...)
	patterns = append(patterns, d.detectInverseHeadAndShoulders(candles, peaks, valleys)...)
	patterns = append(patterns, d.detectDoubleTops(candles, peaks, valleys)...)
	patterns = append(patterns, d.detectDoubleBottoms(candles, peaks, valleys)...)
	patterns = append(patterns, d.detectTripleTops(candles, peaks, valleys)...)
	patterns = append(patterns, d.detectTripleBottoms(candles, peaks, valleys)...)
	patterns = append(patterns, d.detectTriangles(candles, quartets)...)
	patterns = append(patterns, d.detectWedges(candles, quartets)...)
	patterns = append(patterns, d.detectChannels(candles, quartets)...)
	patterns = append(patterns, d.detectFlagsAndPennants(candles, peaks, valleys)...)

	return patterns
}

// withinTolerance reports |a-b| / avg(a,b) <= tolerance. A zero average never matches.
func (d *ChartPatternDetector) withinTolerance(a, b decimal.Decimal) bool {
	avg := a.Add(b).Div(decTwo)
	if avg.IsZero() {
		return false
	}
	return !a.Sub(b).Abs().Div(avg).GreaterThan(d.t.priceTolerance)
}

func target(v decimal.Decimal) *decimal.Decimal {
	return &v
}

// Head and Shoulders pattern detection

// detectHeadAndShoulders detects Head and Shoulders tops (bearish reversal).
func (d *ChartPatternDetector) detectHeadAndShoulders(candles []models.Candle, peaks, valleys []PivotPoint) []ChartPattern {
	var patterns []ChartPattern
	if len(peaks) < 3 || len(valleys) < 2 {
		return patterns
	}

	for i := 0; i+2 < len(peaks); i++ {
		left, head, right := peaks[i], peaks[i+1], peaks[i+2]

		// Head must be higher than both shoulders
		if head.Price.LessThanOrEqual(left.Price) || head.Price.LessThanOrEqual(right.Price) {
			continue
		}
		if !d.withinTolerance(left.Price, right.Price) {
			continue
		}

		neck := pivotsBetween(valleys, left.Index, right.Index)
		if len(neck) < 2 {
			continue
		}
		first, last := neck[0], neck[len(neck)-1]
		neckline := first.Price.Add(last.Price).Div(decTwo)
		height := head.Price.Sub(neckline)

		patterns = append(patterns, ChartPattern{
			Type:        HeadAndShoulders,
			StartIndex:  left.Index,
			EndIndex:    right.Index,
			KeyPoints:   []PivotPoint{left, head, right},
			TrendLines:  []TrendLine{NewTrendLine(first, last, Neckline)},
			PriceTarget: target(neckline.Sub(height)),
			Confidence:  0.8,
			Bullish:     false,
			IsComplete:  true,
			Timestamp:   candles[right.Index].Timestamp,
		})
	}

	return patterns
}

// detectInverseHeadAndShoulders detects inverse Head and Shoulders bottoms (bullish reversal).
func (d *ChartPatternDetector) detectInverseHeadAndShoulders(candles []models.Candle, peaks, valleys []PivotPoint) []ChartPattern {
	var patterns []ChartPattern
	if len(peaks) < 3 || len(valleys) < 2 {
		return patterns
	}

	for i := 0; i+2 < len(valleys); i++ {
		left, head, right := valleys[i], valleys[i+1], valleys[i+2]

		// Head must be lower than both shoulders
		if head.Price.GreaterThanOrEqual(left.Price) || head.Price.GreaterThanOrEqual(right.Price) {
			continue
		}
		if !d.withinTolerance(left.Price, right.Price) {
			continue
		}

		neck := pivotsBetween(peaks, left.Index, right.Index)
		if len(neck) < 2 {
			continue
		}
		first, last := neck[0], neck[len(neck)-1]
		neckline := first.Price.Add(last.Price).Div(decTwo)
		height := neckline.Sub(head.Price)

		patterns = append(patterns, ChartPattern{
			Type:        InverseHeadAndShoulders,
			StartIndex:  left.Index,
			EndIndex:    right.Index,
			KeyPoints:   []PivotPoint{left, head, right},
			TrendLines:  []TrendLine{NewTrendLine(first, last, Neckline)},
			PriceTarget: target(neckline.Add(height)),
			Confidence:  0.8,
			Bullish:     true,
			IsComplete:  true,
			Timestamp:   candles[right.Index].Timestamp,
		})
	}

	return patterns
}

// Double Top/Bottom pattern detection

// detectDoubleTops detects Double Top patterns (bearish reversal)
func (d *ChartPatternDetector) detectDoubleTops(candles []models.Candle, peaks, valleys []PivotPoint) []ChartPattern {
	var patterns []ChartPattern

	for i := 0; i+1 < len(peaks); i++ {
		first, second := peaks[i], peaks[i+1]
		if !d.withinTolerance(first.Price, second.Price) {
			continue
		}

		// Lowest valley between the peaks; the earliest wins ties
		var neck *PivotPoint
		for _, v := range pivotsBetween(valleys, first.Index, second.Index) {
			if neck == nil || v.Price.LessThan(neck.Price) {
				v := v
				neck = &v
			}
		}
		if neck == nil {
			continue
		}

		avg := first.Price.Add(second.Price).Div(decTwo)
		height := avg.Sub(neck.Price)

		patterns = append(patterns, ChartPattern{
			Type:        DoubleTop,
			StartIndex:  first.Index,
			EndIndex:    second.Index,
			KeyPoints:   []PivotPoint{first, *neck, second},
			TrendLines:  []TrendLine{},
			PriceTarget: target(neck.Price.Sub(height)),
			Confidence:  0.75,
			Bullish:     false,
			IsComplete:  true,
			Timestamp:   candles[second.Index].Timestamp,
		})
	}

	return patterns
}

// detectDoubleBottoms detects Double Bottom patterns (bullish reversal)
func (d *ChartPatternDetector) detectDoubleBottoms(candles []models.Candle, peaks, valleys []PivotPoint) []ChartPattern {
	var patterns []ChartPattern

	for i := 0; i+1 < len(valleys); i++ {
		first, second := valleys[i], valleys[i+1]
		if !d.withinTolerance(first.Price, second.Price) {
			continue
		}

		// Highest peak between the valleys; the latest wins ties
		var neck *PivotPoint
		for _, p := range pivotsBetween(peaks, first.Index, second.Index) {
			if neck == nil || p.Price.GreaterThanOrEqual(neck.Price) {
				p := p
				neck = &p
			}
		}
		if neck == nil {
			continue
		}

		avg := first.Price.Add(second.Price).Div(decTwo)
		height := neck.Price.Sub(avg)

		patterns = append(patterns, ChartPattern{
			Type:        DoubleBottom,
			StartIndex:  first.Index,
			EndIndex:    second.Index,
			KeyPoints:   []PivotPoint{first, *neck, second},
			TrendLines:  []TrendLine{},
			PriceTarget: target(neck.Price.Add(height)),
			Confidence:  0.75,
			Bullish:     true,
			IsComplete:  true,
			Timestamp:   candles[second.Index].Timestamp,
		})
	}

	return patterns
}

// tripleAverage returns the average of three prices and whether every price lies
// within the price tolerance of it.
func (d *ChartPatternDetector) tripleAverage(a, b, c decimal.Decimal) (decimal.Decimal, bool) {
	avg := a.Add(b).Add(c).Div(decThree)
	if avg.IsZero() {
		return avg, false
	}
	maxDiff := decimal.Max(a.Sub(avg).Abs(), b.Sub(avg).Abs(), c.Sub(avg).Abs())
	return avg, !maxDiff.Div(avg).GreaterThan(d.t.priceTolerance)
}

// detectTripleTops detects Triple Top patterns (bearish reversal)
func (d *ChartPatternDetector) detectTripleTops(candles []models.Candle, peaks, valleys []PivotPoint) []ChartPattern {
	var patterns []ChartPattern
	if len(peaks) < 3 || len(valleys) < 2 {
		return patterns
	}

	for i := 0; i+2 < len(peaks); i++ {
		p1, p2, p3 := peaks[i], peaks[i+1], peaks[i+2]
		avg, ok := d.tripleAverage(p1.Price, p2.Price, p3.Price)
		if !ok {
			continue
		}

		between := pivotsBetween(valleys, p1.Index, p3.Index)
		if len(between) == 0 {
			continue
		}
		support := between[0].Price
		for _, v := range between[1:] {
			support = decimal.Min(support, v.Price)
		}
		height := avg.Sub(support)

		patterns = append(patterns, ChartPattern{
			Type:        TripleTop,
			StartIndex:  p1.Index,
			EndIndex:    p3.Index,
			KeyPoints:   []PivotPoint{p1, p2, p3},
			TrendLines:  []TrendLine{},
			PriceTarget: target(support.Sub(height)),
			Confidence:  0.8,
			Bullish:     false,
			IsComplete:  true,
			Timestamp:   candles[p3.Index].Timestamp,
		})
	}

	return patterns
}

// detectTripleBottoms detects Triple Bottom patterns (bullish reversal).
// It is gated on the same pivot counts as triple tops: three peaks and two valleys.
func (d *ChartPatternDetector) detectTripleBottoms(candles []models.Candle, peaks, valleys []PivotPoint) []ChartPattern {
	var patterns []ChartPattern
	if len(peaks) < 3 || len(valleys) < 2 {
		return patterns
	}

	for i := 0; i+2 < len(valleys); i++ {
		v1, v2, v3 := valleys[i], valleys[i+1], valleys[i+2]
		avg, ok := d.tripleAverage(v1.Price, v2.Price, v3.Price)
		if !ok {
			continue
		}

		between := pivotsBetween(peaks, v1.Index, v3.Index)
		if len(between) == 0 {
			continue
		}
		resistance := between[0].Price
		for _, p := range between[1:] {
			resistance = decimal.Max(resistance, p.Price)
		}
		height := resistance.Sub(avg)

		patterns = append(patterns, ChartPattern{
			Type:        TripleBottom,
			StartIndex:  v1.Index,
			EndIndex:    v3.Index,
			KeyPoints:   []PivotPoint{v1, v2, v3},
			TrendLines:  []TrendLine{},
			PriceTarget: target(resistance.Add(height)),
			Confidence:  0.8,
			Bullish:     true,
			IsComplete:  true,
			Timestamp:   candles[v3.Index].Timestamp,
		})
	}

	return patterns
}

// quartet is a pair of consecutive peaks and a pair of consecutive valleys whose
// spans overlap, with the resistance and support lines fitted through them.
type quartet struct {
	peak1, peak2     PivotPoint
	valley1, valley2 PivotPoint
	resistance       TrendLine
	support          TrendLine
	start, end       int
}

func (q quartet) keyPoints() []PivotPoint {
	return []PivotPoint{q.peak1, q.peak2, q.valley1, q.valley2}
}

func (q quartet) lines() []TrendLine {
	return []TrendLine{q.resistance, q.support}
}

// lineQuartets enumerates every consecutive peak pair against every consecutive
// valley pair, keeping those whose index ranges overlap.
func lineQuartets(peaks, valleys []PivotPoint) []quartet {
	var out []quartet
	if len(peaks) < 2 || len(valleys) < 2 {
		return out
	}

	for i := 0; i+1 < len(peaks); i++ {
		for j := 0; j+1 < len(valleys); j++ {
			p1, p2 := peaks[i], peaks[i+1]
			v1, v2 := valleys[j], valleys[j+1]
			if p2.Index <= p1.Index || v2.Index <= v1.Index {
				continue
			}

			start := max(p1.Index, v1.Index)
			end := min(p2.Index, v2.Index)
			if end <= start {
				continue
			}

			out = append(out, quartet{
				peak1:      p1,
				peak2:      p2,
				valley1:    v1,
				valley2:    v2,
				resistance: NewTrendLine(p1, p2, Resistance),
				support:    NewTrendLine(v1, v2, Support),
				start:      start,
				end:        end,
			})
		}
	}
	return out
}

func newQuartetPattern(candles []models.Candle, q quartet, kind ChartPatternType, priceTarget *decimal.Decimal, confidence float64, bullish bool) ChartPattern {
	return ChartPattern{
		Type:        kind,
		StartIndex:  q.start,
		EndIndex:    q.end,
		KeyPoints:   q.keyPoints(),
		TrendLines:  q.lines(),
		PriceTarget: priceTarget,
		Confidence:  confidence,
		Bullish:     bullish,
		IsComplete:  false,
		Timestamp:   candles[q.end].Timestamp,
	}
}

// Triangle pattern detection

// detectTriangles detects ascending, descending and symmetrical triangles.
func (d *ChartPatternDetector) detectTriangles(candles []models.Candle, quartets []quartet) []ChartPattern {
	var patterns []ChartPattern
	tol := d.t.slopeTolerance

	for _, q := range quartets {
		height := q.peak1.Price.Sub(q.valley1.Price)

		// Flat resistance, rising support
		if q.resistance.IsFlat(tol) && q.support.IsRising(tol) {
			patterns = append(patterns, newQuartetPattern(candles, q, AscendingTriangle,
				target(q.peak1.Price.Add(height)), 0.7, true))
		}

		// Flat support, falling resistance
		if q.support.IsFlat(tol) && q.resistance.IsFalling(tol) {
			patterns = append(patterns, newQuartetPattern(candles, q, DescendingTriangle,
				target(q.valley1.Price.Sub(height)), 0.7, false))
		}

		// Both lines converging; breakout direction is unknown so there is no target
		if q.resistance.IsFalling(tol) && q.support.IsRising(tol) {
			patterns = append(patterns, newQuartetPattern(candles, q, SymmetricalTriangle,
				nil, 0.65, true))
		}
	}

	return patterns
}

// Wedge pattern detection

func (d *ChartPatternDetector) detectWedges(candles []models.Candle, quartets []quartet) []ChartPattern {
	var patterns []ChartPattern
	tol := d.t.slopeTolerance

	for _, q := range quartets {
		if q.resistance.IsRising(tol) && q.support.IsRising(tol) && q.resistance.Converges(q.support) {
			patterns = append(patterns, newQuartetPattern(candles, q, RisingWedge,
				target(q.valley1.Price), 0.7, false))
		}

		if q.resistance.IsFalling(tol) && q.support.IsFalling(tol) &&
			q.resistance.Slope.GreaterThan(q.support.Slope) {
			patterns = append(patterns, newQuartetPattern(candles, q, FallingWedge,
				target(q.peak1.Price), 0.7, true))
		}
	}

	return patterns
}

// Channel pattern detection

func (d *ChartPatternDetector) detectChannels(candles []models.Candle, quartets []quartet) []ChartPattern {
	var patterns []ChartPattern
	tol := d.t.slopeTolerance

	for _, q := range quartets {
		if !q.resistance.IsParallel(q.support, tol) {
			continue
		}

		kind := HorizontalChannel
		switch {
		case q.resistance.IsRising(tol):
			kind = AscendingChannel
		case q.resistance.IsFalling(tol):
			kind = DescendingChannel
		}

		patterns = append(patterns, newQuartetPattern(candles, q, kind, nil, 0.65,
			q.resistance.Slope.IsPositive()))
	}

	return patterns
}

// Flag and pennant detection

// detectFlagsAndPennants looks for a consolidation after a sharp move of more than
// 5% over the previous flagLookback bars.
func (d *ChartPatternDetector) detectFlagsAndPennants(candles []models.Candle, peaks, valleys []PivotPoint) []ChartPattern {
	var patterns []ChartPattern
	if len(candles) < flagMinBars || len(peaks) < 2 || len(valleys) < 2 {
		return patterns
	}
	tol := d.t.slopeTolerance

	for i := flagLookback; i < len(candles); i++ {
		from := i - flagLookback
		base := candles[from].Close
		if base.IsZero() {
			continue
		}
		move := candles[i].Close.Sub(base)
		pct := move.Div(base)

		bullishMove := pct.GreaterThan(flagMoveThreshold)
		bearishMove := pct.LessThan(flagMoveThreshold.Neg())
		if !bullishMove && !bearishMove {
			continue
		}

		recentPeaks := pivotsBetween(peaks, from, i+1)
		recentValleys := pivotsBetween(valleys, from, i+1)
		if len(recentPeaks) < 2 || len(recentValleys) < 2 {
			continue
		}

		upper := NewTrendLine(recentPeaks[0], recentPeaks[len(recentPeaks)-1], Resistance)
		lower := NewTrendLine(recentValleys[0], recentValleys[len(recentValleys)-1], Support)
		ps, vs := upper.Slope, lower.Slope
		tight := ps.Sub(vs).Abs().LessThan(tol)
		converging := ps.IsNegative() && vs.IsPositive()

		emit := func(kind ChartPatternType, bullish bool) {
			patterns = append(patterns, ChartPattern{
				Type:        kind,
				StartIndex:  from,
				EndIndex:    i,
				KeyPoints:   []PivotPoint{upper.Start, upper.End, lower.Start, lower.End},
				TrendLines:  []TrendLine{upper, lower},
				PriceTarget: target(candles[i].Close.Add(move)),
				Confidence:  0.65,
				Bullish:     bullish,
				IsComplete:  false,
				Timestamp:   candles[i].Timestamp,
			})
		}

		if bullishMove {
			// Counter-trend channel drifting down
			if ps.IsNegative() && vs.IsNegative() && tight {
				emit(BullishFlag, true)
			}
			if converging {
				emit(BullishPennant, true)
			}
		}

		if bearishMove {
			// Counter-trend channel drifting up
			if ps.IsPositive() && vs.IsPositive() && tight {
				emit(BearishFlag, false)
			}
			if converging {
				emit(BearishPennant, false)
			}
		}
	}

	return patterns
}
