package patterns

import (
	"github.com/shopspring/decimal"
)

// Slope returns the price change per bar between two pivots.
// Pivots on the same index have zero slope.
func Slope(a, b PivotPoint) decimal.Decimal {
	dx := int64(b.Index - a.Index)
	if dx == 0 {
		return decimal.Zero
	}
	return b.Price.Sub(a.Price).Div(decimal.NewFromInt(dx))
}

// NewTrendLine fits a line through start and end.
func NewTrendLine(start, end PivotPoint, role TrendLineRole) TrendLine {
	return TrendLine{
		Start: start,
		End:   end,
		Slope: Slope(start, end),
		Role:  role,
	}
}

// IsFlat reports |slope| < tolerance.
func (l TrendLine) IsFlat(tolerance decimal.Decimal) bool {
	return l.Slope.Abs().LessThan(tolerance)
}

// IsRising reports slope > tolerance.
func (l TrendLine) IsRising(tolerance decimal.Decimal) bool {
	return l.Slope.GreaterThan(tolerance)
}

// IsFalling reports slope < -tolerance.
func (l TrendLine) IsFalling(tolerance decimal.Decimal) bool {
	return l.Slope.LessThan(tolerance.Neg())
}

// IsParallel reports |slope - other.slope| <= tolerance.
func (l TrendLine) IsParallel(other TrendLine, tolerance decimal.Decimal) bool {
	return l.Slope.Sub(other.Slope).Abs().LessThanOrEqual(tolerance)
}

// Converges reports whether l, taken as the upper line, closes in on the lower line.
func (l TrendLine) Converges(lower TrendLine) bool {
	return l.Slope.LessThan(lower.Slope)
}
