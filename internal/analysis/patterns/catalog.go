package patterns

// ConfidenceLevel buckets a confidence score for display.
type ConfidenceLevel string

const (
	ConfidenceVeryHigh ConfidenceLevel = "very_high"
	ConfidenceHigh     ConfidenceLevel = "high"
	ConfidenceMedium   ConfidenceLevel = "medium"
	ConfidenceLow      ConfidenceLevel = "low"
)

// ConfidenceLevelOf maps a score to its level.
func ConfidenceLevelOf(score float64) ConfidenceLevel {
	switch {
	case score >= 0.9:
		return ConfidenceVeryHigh
	case score >= 0.75:
		return ConfidenceHigh
	case score >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Category groups pattern kinds for display.
type Category string

const (
	CategorySingleCandle Category = "single_candle"
	CategoryDoubleCandle Category = "double_candle"
	CategoryTripleCandle Category = "triple_candle"
	CategoryReversal     Category = "reversal"
	CategoryContinuation Category = "continuation"
	CategoryOther        Category = "other"
)

// PatternInfo describes one supported pattern kind.
type PatternInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Family      string   `json:"family"` // candlestick or chart
	Category    Category `json:"category"`
	Signal      Signal   `json:"signal"`
	Description string   `json:"description"`
}

type kindInfo struct {
	name        string
	signal      Signal
	description string
}

var candlestickInfo = [...]kindInfo{
	Doji:                 {"Doji", SignalNeutral, "Open and close nearly equal, indecision"},
	DragonflyDoji:        {"Dragonfly Doji", SignalBullish, "Doji with a long lower shadow"},
	GravestoneDoji:       {"Gravestone Doji", SignalBearish, "Doji with a long upper shadow"},
	Hammer:               {"Hammer", SignalBullish, "Long lower shadow after a decline"},
	InvertedHammer:       {"Inverted Hammer", SignalBullish, "Long upper shadow after a decline"},
	BullishMarubozu:      {"Bullish Marubozu", SignalBullish, "Full bullish body with no shadows"},
	SpinningTop:          {"Spinning Top", SignalNeutral, "Small body with shadows on both sides"},
	ShootingStar:         {"Shooting Star", SignalBearish, "Long upper shadow after an advance"},
	HangingMan:           {"Hanging Man", SignalBearish, "Long lower shadow after an advance"},
	BearishMarubozu:      {"Bearish Marubozu", SignalBearish, "Full bearish body with no shadows"},
	BullishEngulfing:     {"Bullish Engulfing", SignalBullish, "Bullish body engulfs the prior bearish body"},
	BullishHarami:        {"Bullish Harami", SignalBullish, "Small bullish body inside a large bearish body"},
	PiercingLine:         {"Piercing Line", SignalBullish, "Bullish bar closes above the prior body midpoint"},
	TweezerBottom:        {"Tweezer Bottom", SignalBullish, "Two bars with matching lows"},
	BearishEngulfing:     {"Bearish Engulfing", SignalBearish, "Bearish body engulfs the prior bullish body"},
	BearishHarami:        {"Bearish Harami", SignalBearish, "Small bearish body inside a large bullish body"},
	DarkCloudCover:       {"Dark Cloud Cover", SignalBearish, "Bearish bar closes below the prior body midpoint"},
	TweezerTop:           {"Tweezer Top", SignalBearish, "Two bars with matching highs"},
	MorningStar:          {"Morning Star", SignalBullish, "Bearish bar, small star, strong bullish bar"},
	MorningDojiStar:      {"Morning Doji Star", SignalBullish, "Morning star whose middle bar is a doji"},
	ThreeWhiteSoldiers:   {"Three White Soldiers", SignalBullish, "Three rising bullish bars"},
	BullishAbandonedBaby: {"Bullish Abandoned Baby", SignalBullish, "Gapped doji between a bearish and a bullish bar"},
	EveningStar:          {"Evening Star", SignalBearish, "Bullish bar, small star, strong bearish bar"},
	EveningDojiStar:      {"Evening Doji Star", SignalBearish, "Evening star whose middle bar is a doji"},
	ThreeBlackCrows:      {"Three Black Crows", SignalBearish, "Three falling bearish bars"},
	BearishAbandonedBaby: {"Bearish Abandoned Baby", SignalBearish, "Gapped doji between a bullish and a bearish bar"},
}

var chartInfo = [...]kindInfo{
	HeadAndShoulders:        {"Head and Shoulders", SignalBearish, "Three peaks with the middle highest"},
	InverseHeadAndShoulders: {"Inverse Head and Shoulders", SignalBullish, "Three valleys with the middle lowest"},
	DoubleTop:               {"Double Top", SignalBearish, "Two peaks at a similar level"},
	DoubleBottom:            {"Double Bottom", SignalBullish, "Two valleys at a similar level"},
	TripleTop:               {"Triple Top", SignalBearish, "Three peaks at a similar level"},
	TripleBottom:            {"Triple Bottom", SignalBullish, "Three valleys at a similar level"},
	RoundingTop:             {"Rounding Top", SignalBearish, "Gradual arc topping out"},
	RoundingBottom:          {"Rounding Bottom", SignalBullish, "Gradual arc bottoming out"},
	AscendingTriangle:       {"Ascending Triangle", SignalBullish, "Flat resistance with rising support"},
	DescendingTriangle:      {"Descending Triangle", SignalBearish, "Flat support with falling resistance"},
	SymmetricalTriangle:     {"Symmetrical Triangle", SignalNeutral, "Falling resistance meets rising support"},
	RisingWedge:             {"Rising Wedge", SignalBearish, "Both lines rising and converging"},
	FallingWedge:            {"Falling Wedge", SignalBullish, "Both lines falling and converging"},
	BullishFlag:             {"Bullish Flag", SignalBullish, "Downward drifting channel after a sharp rise"},
	BearishFlag:             {"Bearish Flag", SignalBearish, "Upward drifting channel after a sharp fall"},
	BullishPennant:          {"Bullish Pennant", SignalBullish, "Converging consolidation after a sharp rise"},
	BearishPennant:          {"Bearish Pennant", SignalBearish, "Converging consolidation after a sharp fall"},
	AscendingChannel:        {"Ascending Channel", SignalBullish, "Parallel rising lines"},
	DescendingChannel:       {"Descending Channel", SignalBearish, "Parallel falling lines"},
	HorizontalChannel:       {"Horizontal Channel", SignalNeutral, "Parallel flat lines"},
	CupAndHandle:            {"Cup and Handle", SignalBullish, "Rounded base followed by a shallow pullback"},
	InverseCupAndHandle:     {"Inverse Cup and Handle", SignalBearish, "Rounded top followed by a shallow bounce"},
	BroadeningFormation:     {"Broadening Formation", SignalNeutral, "Diverging support and resistance"},
}

// DisplayName returns the human readable name of the kind.
func (t CandlestickPatternType) DisplayName() string {
	if t < 0 || t >= candlestickPatternTypeCount {
		return t.String()
	}
	return candlestickInfo[t].name
}

// DisplayName returns the human readable name of the kind.
func (t ChartPatternType) DisplayName() string {
	if t < 0 || t >= chartPatternTypeCount {
		return t.String()
	}
	return chartInfo[t].name
}

// Category returns the display group of the kind.
func (t CandlestickPatternType) Category() Category {
	switch t.CandleCount() {
	case 1:
		return CategorySingleCandle
	case 2:
		return CategoryDoubleCandle
	default:
		return CategoryTripleCandle
	}
}

// Category returns the display group of the kind.
func (t ChartPatternType) Category() Category {
	switch t {
	case HeadAndShoulders, InverseHeadAndShoulders, DoubleTop, DoubleBottom,
		TripleTop, TripleBottom, RoundingTop, RoundingBottom, RisingWedge, FallingWedge,
		CupAndHandle, InverseCupAndHandle:
		return CategoryReversal
	case AscendingTriangle, DescendingTriangle, SymmetricalTriangle,
		BullishFlag, BearishFlag, BullishPennant, BearishPennant,
		AscendingChannel, DescendingChannel, HorizontalChannel:
		return CategoryContinuation
	default:
		return CategoryOther
	}
}

// Catalog lists every supported pattern kind, candlestick kinds first.
func Catalog() []PatternInfo {
	out := make([]PatternInfo, 0, int(candlestickPatternTypeCount)+int(chartPatternTypeCount))
	for _, t := range CandlestickPatternTypes() {
		info := candlestickInfo[t]
		out = append(out, PatternInfo{
			ID:          t.String(),
			Name:        info.name,
			Family:      "candlestick",
			Category:    t.Category(),
			Signal:      info.signal,
			Description: info.description,
		})
	}
	for _, t := range ChartPatternTypes() {
		info := chartInfo[t]
		out = append(out, PatternInfo{
			ID:          t.String(),
			Name:        info.name,
			Family:      "chart",
			Category:    t.Category(),
			Signal:      info.signal,
			Description: info.description,
		})
	}
	return out
}
