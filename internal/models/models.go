// Package models provides domain models for the pattern engine.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Timeframe represents the bar interval of a price series.
type Timeframe string

const (
	Timeframe1Min  Timeframe = "1m"
	Timeframe5Min  Timeframe = "5m"
	Timeframe15Min Timeframe = "15m"
	Timeframe1Hour Timeframe = "1h"
	Timeframe4Hour Timeframe = "4h"
	Timeframe1Day  Timeframe = "1d"
	Timeframe1Week Timeframe = "1w"
)

// Candle represents OHLCV data for a time period.
// Timestamp is the open time of the bar.
type Candle struct {
	Timestamp time.Time       `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
}

// Series identifies a stored candle series.
type Series struct {
	Symbol    string    `json:"symbol"`
	Timeframe Timeframe `json:"timeframe"`
	Count     int       `json:"count"`
	First     time.Time `json:"first"`
	Last      time.Time `json:"last"`
}

// IsValid reports whether the candle respects low <= min(open, close) <= max(open, close) <= high.
func (c Candle) IsValid() bool {
	lo := decimal.Min(c.Open, c.Close)
	hi := decimal.Max(c.Open, c.Close)
	return c.Low.LessThanOrEqual(lo) && hi.LessThanOrEqual(c.High)
}
