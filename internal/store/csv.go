package store

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	apperrors "pattern-engine/internal/errors"
	"pattern-engine/internal/models"
)

// csvCandle is one row of a candle CSV file.
// Columns: timestamp,open,high,low,close,volume
type csvCandle struct {
	Timestamp string `csv:"timestamp"`
	Open      string `csv:"open"`
	High      string `csv:"high"`
	Low       string `csv:"low"`
	Close     string `csv:"close"`
	Volume    string `csv:"volume"`
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ReadCandlesFile reads candles from a CSV file on disk.
func ReadCandlesFile(path string) ([]models.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ReadCandlesCSV(f)
}

// ReadCandlesCSV parses candles and returns them sorted by timestamp.
// Timestamps may be RFC3339, a plain date/time, or unix seconds or milliseconds.
func ReadCandlesCSV(r io.Reader) ([]models.Candle, error) {
	var rows []*csvCandle
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnsupportedFormat, err)
	}

	candles := make([]models.Candle, 0, len(rows))
	for i, row := range rows {
		line := i + 2 // header is line 1
		c, err := row.candle()
		if err != nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("line %d", line), row.Timestamp, err.Error())
		}
		if !c.IsValid() {
			return nil, apperrors.NewValidationError(fmt.Sprintf("line %d", line), row.Timestamp,
				"low/high do not bound open and close")
		}
		candles = append(candles, c)
	}

	sort.SliceStable(candles, func(i, j int) bool {
		return candles[i].Timestamp.Before(candles[j].Timestamp)
	})

	return candles, nil
}

func (r *csvCandle) candle() (models.Candle, error) {
	ts, err := parseTimestamp(strings.TrimSpace(r.Timestamp))
	if err != nil {
		return models.Candle{}, err
	}

	c := models.Candle{Timestamp: ts}
	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"open", r.Open, &c.Open},
		{"high", r.High, &c.High},
		{"low", r.Low, &c.Low},
		{"close", r.Close, &c.Close},
	}
	for _, f := range fields {
		d, err := decimal.NewFromString(strings.TrimSpace(f.raw))
		if err != nil {
			return models.Candle{}, fmt.Errorf("invalid %s %q", f.name, f.raw)
		}
		*f.dst = d
	}

	if v := strings.TrimSpace(r.Volume); v != "" {
		vol, err := strconv.ParseFloat(v, 64)
		if err != nil || vol < 0 {
			return models.Candle{}, fmt.Errorf("invalid volume %q", r.Volume)
		}
		c.Volume = int64(vol)
	}

	return c, nil
}

func parseTimestamp(s string) (time.Time, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		// Values past year 2286 in seconds are taken as milliseconds.
		if n > 9999999999 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// WriteCandlesCSV writes candles with the same columns ReadCandlesCSV accepts.
func WriteCandlesCSV(w io.Writer, candles []models.Candle) error {
	rows := make([]*csvCandle, len(candles))
	for i, c := range candles {
		rows[i] = &csvCandle{
			Timestamp: c.Timestamp.UTC().Format(time.RFC3339),
			Open:      c.Open.String(),
			High:      c.High.String(),
			Low:       c.Low.String(),
			Close:     c.Close.String(),
			Volume:    strconv.FormatInt(c.Volume, 10),
		}
	}
	return gocsv.Marshal(rows, w)
}
