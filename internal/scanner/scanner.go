// Package scanner runs pattern detection over many stored series concurrently.
package scanner

import (
	"context"
	"math"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"pattern-engine/internal/analysis/patterns"
	apperrors "pattern-engine/internal/errors"
	"pattern-engine/internal/logging"
	"pattern-engine/internal/models"
)

// CandleLoader loads the most recent candles of a series.
type CandleLoader interface {
	GetLatestCandles(ctx context.Context, symbol, timeframe string, limit int) ([]models.Candle, error)
}

// Result is the outcome of scanning one symbol.
type Result struct {
	Symbol    string                   `json:"symbol"`
	Detection patterns.DetectionResult `json:"detection"`
	Err       error                    `json:"-"`
}

// Stats contains scanner statistics.
type Stats struct {
	Workers int
	Total   uint64
	Done    uint64
	Failed  uint64
}

// Scanner fans detection out over symbols with a bounded number of workers.
// The recognizer is shared read-only between goroutines.
type Scanner struct {
	loader     CandleLoader
	recognizer *patterns.PatternRecognizer
	workers    int
	limit      int
	logger     zerolog.Logger

	total  atomic.Uint64
	done   atomic.Uint64
	failed atomic.Uint64
}

// New creates a scanner. If workers is 0, it defaults to runtime.NumCPU().
func New(loader CandleLoader, recognizer *patterns.PatternRecognizer, workers, limit int, logger zerolog.Logger) *Scanner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scanner{
		loader:     loader,
		recognizer: recognizer,
		workers:    workers,
		limit:      limit,
		logger:     logger,
	}
}

// Scan detects patterns for each symbol on timeframe. Results keep the order of
// symbols. A symbol that fails to load is reported in its Result and in the
// returned *errors.ScanError; cancellation of ctx aborts the scan.
func (s *Scanner) Scan(ctx context.Context, timeframe string, symbols []string) ([]Result, error) {
	start := time.Now()
	results := make([]Result, len(symbols))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, symbol := range symbols {
		i, symbol := i, symbol
		s.total.Add(1)

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			results[i] = s.scanOne(gctx, symbol, timeframe)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	failures := make(map[string]error)
	for _, r := range results {
		if r.Err != nil {
			failures[r.Symbol] = r.Err
		}
	}

	logging.LogScan(s.logger, timeframe, len(symbols), len(failures), time.Since(start), err)

	if err != nil {
		return nil, err
	}
	if len(failures) > 0 {
		return results, &apperrors.ScanError{Failures: failures}
	}
	return results, nil
}

func (s *Scanner) scanOne(ctx context.Context, symbol, timeframe string) Result {
	logger := logging.WithTimeframe(logging.WithSymbol(s.logger, symbol), timeframe)

	candles, err := s.loader.GetLatestCandles(ctx, symbol, timeframe, s.limit)
	if err != nil {
		s.failed.Add(1)
		logger.Warn().Err(err).Msg("Failed to load candles")
		return Result{Symbol: symbol, Err: err}
	}

	detection := s.recognizer.Detect(symbol, timeframe, candles)
	s.done.Add(1)

	logger.Debug().
		Int("candlestick_patterns", len(detection.CandlestickPatterns)).
		Int("chart_patterns", len(detection.ChartPatterns)).
		Str("signal", string(detection.OverallSignal)).
		Msg("Symbol scanned")

	return Result{Symbol: symbol, Detection: detection}
}

// Stats returns scanner statistics.
func (s *Scanner) Stats() Stats {
	return Stats{
		Workers: s.workers,
		Total:   s.total.Load(),
		Done:    s.done.Load(),
		Failed:  s.failed.Load(),
	}
}

// RankBySignal orders successful results by absolute signal strength, so the
// strongest bullish and bearish setups lead. Ties keep scan order. Failed
// results are dropped.
func RankBySignal(results []Result) []Result {
	ranked := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return math.Abs(ranked[i].Detection.SignalStrength) > math.Abs(ranked[j].Detection.SignalStrength)
	})
	return ranked
}
