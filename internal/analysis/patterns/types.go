package patterns

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CandlestickPatternType identifies a candlestick pattern kind.
type CandlestickPatternType int

const (
	// Single candle
	Doji CandlestickPatternType = iota
	DragonflyDoji
	GravestoneDoji
	Hammer
	InvertedHammer
	BullishMarubozu
	SpinningTop
	ShootingStar
	HangingMan
	BearishMarubozu

	// Double candle
	BullishEngulfing
	BullishHarami
	PiercingLine
	TweezerBottom
	BearishEngulfing
	BearishHarami
	DarkCloudCover
	TweezerTop

	// Triple candle
	MorningStar
	MorningDojiStar
	ThreeWhiteSoldiers
	BullishAbandonedBaby
	EveningStar
	EveningDojiStar
	ThreeBlackCrows
	BearishAbandonedBaby

	candlestickPatternTypeCount
)

var candlestickPatternTags = [...]string{
	Doji:                 "doji",
	DragonflyDoji:        "dragonfly_doji",
	GravestoneDoji:       "gravestone_doji",
	Hammer:               "hammer",
	InvertedHammer:       "inverted_hammer",
	BullishMarubozu:      "bullish_marubozu",
	SpinningTop:          "spinning_top",
	ShootingStar:         "shooting_star",
	HangingMan:           "hanging_man",
	BearishMarubozu:      "bearish_marubozu",
	BullishEngulfing:     "bullish_engulfing",
	BullishHarami:        "bullish_harami",
	PiercingLine:         "piercing_line",
	TweezerBottom:        "tweezer_bottom",
	BearishEngulfing:     "bearish_engulfing",
	BearishHarami:        "bearish_harami",
	DarkCloudCover:       "dark_cloud_cover",
	TweezerTop:           "tweezer_top",
	MorningStar:          "morning_star",
	MorningDojiStar:      "morning_doji_star",
	ThreeWhiteSoldiers:   "three_white_soldiers",
	BullishAbandonedBaby: "bullish_abandoned_baby",
	EveningStar:          "evening_star",
	EveningDojiStar:      "evening_doji_star",
	ThreeBlackCrows:      "three_black_crows",
	BearishAbandonedBaby: "bearish_abandoned_baby",
}

// CandlestickPatternTypes returns every candlestick pattern kind in declaration order.
func CandlestickPatternTypes() []CandlestickPatternType {
	types := make([]CandlestickPatternType, 0, candlestickPatternTypeCount)
	for t := CandlestickPatternType(0); t < candlestickPatternTypeCount; t++ {
		types = append(types, t)
	}
	return types
}

func (t CandlestickPatternType) String() string {
	if t < 0 || t >= candlestickPatternTypeCount {
		return fmt.Sprintf("candlestick_pattern(%d)", int(t))
	}
	return candlestickPatternTags[t]
}

// MarshalText encodes the pattern kind as its snake_case tag.
func (t CandlestickPatternType) MarshalText() ([]byte, error) {
	if t < 0 || t >= candlestickPatternTypeCount {
		return nil, fmt.Errorf("unknown candlestick pattern type %d", int(t))
	}
	return []byte(candlestickPatternTags[t]), nil
}

// UnmarshalText decodes a snake_case tag.
func (t *CandlestickPatternType) UnmarshalText(text []byte) error {
	parsed, err := ParseCandlestickPatternType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseCandlestickPatternType looks up a candlestick pattern kind by tag.
func ParseCandlestickPatternType(tag string) (CandlestickPatternType, error) {
	for i, s := range candlestickPatternTags {
		if s == tag {
			return CandlestickPatternType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown candlestick pattern type %q", tag)
}

// CandleCount returns the number of bars the pattern kind spans.
func (t CandlestickPatternType) CandleCount() int {
	switch {
	case t <= BearishMarubozu:
		return 1
	case t <= TweezerTop:
		return 2
	default:
		return 3
	}
}

// ChartPatternType identifies a chart pattern kind.
type ChartPatternType int

const (
	// Reversal
	HeadAndShoulders ChartPatternType = iota
	InverseHeadAndShoulders
	DoubleTop
	DoubleBottom
	TripleTop
	TripleBottom
	RoundingTop
	RoundingBottom

	// Continuation
	AscendingTriangle
	DescendingTriangle
	SymmetricalTriangle
	RisingWedge
	FallingWedge
	BullishFlag
	BearishFlag
	BullishPennant
	BearishPennant
	AscendingChannel
	DescendingChannel
	HorizontalChannel

	// Other
	CupAndHandle
	InverseCupAndHandle
	BroadeningFormation

	chartPatternTypeCount
)

var chartPatternTags = [...]string{
	HeadAndShoulders:        "head_and_shoulders",
	InverseHeadAndShoulders: "inverse_head_and_shoulders",
	DoubleTop:               "double_top",
	DoubleBottom:            "double_bottom",
	TripleTop:               "triple_top",
	TripleBottom:            "triple_bottom",
	RoundingTop:             "rounding_top",
	RoundingBottom:          "rounding_bottom",
	AscendingTriangle:       "ascending_triangle",
	DescendingTriangle:      "descending_triangle",
	SymmetricalTriangle:     "symmetrical_triangle",
	RisingWedge:             "rising_wedge",
	FallingWedge:            "falling_wedge",
	BullishFlag:             "bullish_flag",
	BearishFlag:             "bearish_flag",
	BullishPennant:          "bullish_pennant",
	BearishPennant:          "bearish_pennant",
	AscendingChannel:        "ascending_channel",
	DescendingChannel:       "descending_channel",
	HorizontalChannel:       "horizontal_channel",
	CupAndHandle:            "cup_and_handle",
	InverseCupAndHandle:     "inverse_cup_and_handle",
	BroadeningFormation:     "broadening_formation",
}

// ChartPatternTypes returns every chart pattern kind in declaration order.
func ChartPatternTypes() []ChartPatternType {
	types := make([]ChartPatternType, 0, chartPatternTypeCount)
	for t := ChartPatternType(0); t < chartPatternTypeCount; t++ {
		types = append(types, t)
	}
	return types
}

func (t ChartPatternType) String() string {
	if t < 0 || t >= chartPatternTypeCount {
		return fmt.Sprintf("chart_pattern(%d)", int(t))
	}
	return chartPatternTags[t]
}

// MarshalText encodes the pattern kind as its snake_case tag.
func (t ChartPatternType) MarshalText() ([]byte, error) {
	if t < 0 || t >= chartPatternTypeCount {
		return nil, fmt.Errorf("unknown chart pattern type %d", int(t))
	}
	return []byte(chartPatternTags[t]), nil
}

// UnmarshalText decodes a snake_case tag.
func (t *ChartPatternType) UnmarshalText(text []byte) error {
	parsed, err := ParseChartPatternType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseChartPatternType looks up a chart pattern kind by tag.
func ParseChartPatternType(tag string) (ChartPatternType, error) {
	for i, s := range chartPatternTags {
		if s == tag {
			return ChartPatternType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown chart pattern type %q", tag)
}

// PivotKind distinguishes local maxima from local minima.
type PivotKind int

const (
	Peak PivotKind = iota
	Valley
)

func (k PivotKind) String() string {
	if k == Valley {
		return "valley"
	}
	return "peak"
}

// MarshalText encodes the pivot kind as "peak" or "valley".
func (k PivotKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes "peak" or "valley".
func (k *PivotKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "peak":
		*k = Peak
	case "valley":
		*k = Valley
	default:
		return fmt.Errorf("unknown pivot kind %q", text)
	}
	return nil
}

// TrendLineRole describes what a trend line represents in a formation.
type TrendLineRole int

const (
	Support TrendLineRole = iota
	Resistance
	Neckline
)

func (r TrendLineRole) String() string {
	switch r {
	case Resistance:
		return "resistance"
	case Neckline:
		return "neckline"
	default:
		return "support"
	}
}

// MarshalText encodes the role as its lowercase tag.
func (r TrendLineRole) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a lowercase role tag.
func (r *TrendLineRole) UnmarshalText(text []byte) error {
	switch string(text) {
	case "support":
		*r = Support
	case "resistance":
		*r = Resistance
	case "neckline":
		*r = Neckline
	default:
		return fmt.Errorf("unknown trend line role %q", text)
	}
	return nil
}

// CandlestickPattern is a detected candlestick pattern.
type CandlestickPattern struct {
	Type        CandlestickPatternType `json:"pattern_type"`
	EndIndex    int                    `json:"end_index"`
	CandleCount int                    `json:"candle_count"`
	Confidence  float64                `json:"confidence"`
	Bullish     bool                   `json:"bullish"`
	Timestamp   time.Time              `json:"timestamp"`
	Metadata    map[string]string      `json:"metadata"`
}

// PivotPoint is a local price extremum.
type PivotPoint struct {
	Index     int             `json:"index"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
	Kind      PivotKind       `json:"kind"`
}

// TrendLine connects two pivots of the same kind.
type TrendLine struct {
	Start PivotPoint      `json:"start"`
	End   PivotPoint      `json:"end"`
	Slope decimal.Decimal `json:"slope"`
	Role  TrendLineRole   `json:"role"`
}

// ChartPattern is a detected multi-bar formation.
type ChartPattern struct {
	Type        ChartPatternType `json:"pattern_type"`
	StartIndex  int              `json:"start_index"`
	EndIndex    int              `json:"end_index"`
	KeyPoints   []PivotPoint     `json:"key_points"`
	TrendLines  []TrendLine      `json:"trendlines"`
	PriceTarget *decimal.Decimal `json:"price_target,omitempty"`
	Confidence  float64          `json:"confidence"`
	Bullish     bool             `json:"bullish"`
	IsComplete  bool             `json:"is_complete"`
	Timestamp   time.Time        `json:"timestamp"`
}
