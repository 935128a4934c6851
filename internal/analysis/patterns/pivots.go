package patterns

import (
	"pattern-engine/internal/models"
)

// FindPivots marks local extrema with a symmetric window of lookback bars on each side.
// A bar is a peak when its high is the maximum high of [i-lookback, i+lookback] and a
// valley when its low is the window minimum. Ties qualify, and one bar may be both;
// the peak is then emitted first. Output is ordered by index.
func FindPivots(candles []models.Candle, lookback int) []PivotPoint {
	pivots := make([]PivotPoint, 0)
	if lookback < 0 {
		return pivots
	}

	for i := lookback; i < len(candles)-lookback; i++ {
		lo := i - lookback
		if lo < 0 {
			lo = 0
		}
		hi := i + lookback
		if hi > len(candles)-1 {
			hi = len(candles) - 1
		}
		window := candles[lo : hi+1]

		high, low := candles[i].High, candles[i].Low
		isPeak, isValley := true, true
		for _, c := range window {
			if c.High.GreaterThan(high) {
				isPeak = false
			}
			if c.Low.LessThan(low) {
				isValley = false
			}
			if !isPeak && !isValley {
				break
			}
		}

		if isPeak {
			pivots = append(pivots, PivotPoint{
				Index:     i,
				Price:     high,
				Timestamp: candles[i].Timestamp,
				Kind:      Peak,
			})
		}
		if isValley {
			pivots = append(pivots, PivotPoint{
				Index:     i,
				Price:     low,
				Timestamp: candles[i].Timestamp,
				Kind:      Valley,
			})
		}
	}

	return pivots
}

// splitPivots separates peaks and valleys, preserving index order.
func splitPivots(pivots []PivotPoint) (peaks, valleys []PivotPoint) {
	for _, p := range pivots {
		if p.Kind == Peak {
			peaks = append(peaks, p)
		} else {
			valleys = append(valleys, p)
		}
	}
	return peaks, valleys
}

// pivotsBetween returns the pivots with from < index < to.
func pivotsBetween(pivots []PivotPoint, from, to int) []PivotPoint {
	var out []PivotPoint
	for _, p := range pivots {
		if p.Index > from && p.Index < to {
			out = append(out, p)
		}
	}
	return out
}
