package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"pattern-engine/internal/analysis/patterns"
	apperrors "pattern-engine/internal/errors"
	"pattern-engine/internal/logging"
	"pattern-engine/internal/models"
	"pattern-engine/internal/scanner"
	"pattern-engine/internal/store"
)

// addPatternCommands adds detection commands.
func addPatternCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newCandlesCmd(app))
	rootCmd.AddCommand(newChartCmd(app))
	rootCmd.AddCommand(newDetectCmd(app))
	rootCmd.AddCommand(newTypesCmd())
	rootCmd.AddCommand(newScanCmd(app))
}

// addInputFlags registers the flags that select a candle series.
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("symbol", "s", "", "symbol of the stored series")
	cmd.Flags().StringP("timeframe", "t", string(models.Timeframe1Day), "bar timeframe")
	cmd.Flags().IntP("limit", "n", 0, "most recent candles to analyse (default: scan.limit)")
	cmd.Flags().StringP("file", "f", "", "read candles from a CSV file instead of the store")
}

// seriesInput is the candle series a detection command analyses.
type seriesInput struct {
	Symbol    string
	Timeframe string
	Candles   []models.Candle
}

// loadInput reads candles from --file or from the store.
func (a *App) loadInput(cmd *cobra.Command) (seriesInput, error) {
	symbol, _ := cmd.Flags().GetString("symbol")
	timeframe, _ := cmd.Flags().GetString("timeframe")
	file, _ := cmd.Flags().GetString("file")
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		limit = a.Config.Scan.Limit
	}

	in := seriesInput{Symbol: strings.ToUpper(symbol), Timeframe: timeframe}

	if file != "" {
		candles, err := store.ReadCandlesFile(file)
		if err != nil {
			return in, apperrors.Wrapf(err, "reading %s", file)
		}
		if len(candles) == 0 {
			return in, apperrors.NewDataError("candles", in.Symbol, timeframe, "file has no rows", apperrors.ErrInsufficientData)
		}
		if limit > 0 && len(candles) > limit {
			candles = candles[len(candles)-limit:]
		}
		if in.Symbol == "" {
			in.Symbol = symbolFromPath(file)
		}
		in.Candles = candles
		return in, nil
	}

	if in.Symbol == "" {
		return in, apperrors.NewValidationError("symbol", symbol, "--symbol or --file is required")
	}

	st, err := a.OpenStore()
	if err != nil {
		return in, err
	}
	candles, err := st.GetLatestCandles(cmd.Context(), in.Symbol, timeframe, limit)
	if err != nil {
		return in, err
	}
	in.Candles = candles
	return in, nil
}

// symbolFromPath derives a symbol from a file name such as infy_1d.csv.
func symbolFromPath(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if i := strings.IndexAny(name, "_-."); i > 0 {
		name = name[:i]
	}
	return strings.ToUpper(name)
}

func newCandlesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "candles",
		Short: "Detect candlestick patterns",
		Long: `Detect single, double and triple candle patterns.

Examples:
  patterns candles --symbol INFY --timeframe 1d
  patterns candles --file infy_1d.csv --limit 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			in, err := app.loadInput(cmd)
			if err != nil {
				return err
			}

			found := app.Recognizer.DetectCandlestickPatterns(in.Candles)
			if output.IsJSON() {
				return output.JSON(found)
			}

			output.Bold("Candlestick Patterns - %s (%s, %d candles)", in.Symbol, in.Timeframe, len(in.Candles))
			printCandlestickTable(output, found, app.Config.UI.DateFormat)
			return nil
		},
	}
	addInputFlags(cmd)
	return cmd
}

func newChartCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Detect chart patterns",
		Long: `Detect multi-bar formations from swing pivots: head and shoulders,
double and triple tops and bottoms, triangles, wedges, channels, flags and pennants.

Examples:
  patterns chart --symbol INFY --timeframe 1h --limit 300`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			in, err := app.loadInput(cmd)
			if err != nil {
				return err
			}

			found := app.Recognizer.DetectChartPatterns(in.Candles)
			if output.IsJSON() {
				return output.JSON(found)
			}

			output.Bold("Chart Patterns - %s (%s, %d candles)", in.Symbol, in.Timeframe, len(in.Candles))
			printChartTable(output, found, app.Config.UI.DateFormat)
			return nil
		},
	}
	addInputFlags(cmd)
	return cmd
}

func newDetectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect all patterns and the overall signal",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			in, err := app.loadInput(cmd)
			if err != nil {
				return err
			}

			result := app.Recognizer.Detect(in.Symbol, in.Timeframe, in.Candles)
			logging.LogDetection(app.Logger, result.Symbol, result.Timeframe, result.CandlesAnalyzed,
				len(result.CandlestickPatterns), len(result.ChartPatterns),
				string(result.OverallSignal), result.SignalStrength)

			if output.IsJSON() {
				return output.JSON(result)
			}

			output.Bold("Pattern Detection - %s (%s, %d candles)", result.Symbol, result.Timeframe, result.CandlesAnalyzed)
			output.Println()
			output.Info("Candlestick Patterns")
			printCandlestickTable(output, result.CandlestickPatterns, app.Config.UI.DateFormat)
			output.Println()
			output.Info("Chart Patterns")
			printChartTable(output, result.ChartPatterns, app.Config.UI.DateFormat)
			output.Println()
			output.Printf("Overall signal: %s (%s)\n", output.SignalText(result.OverallSignal), FormatStrength(result.SignalStrength))
			return nil
		},
	}
	addInputFlags(cmd)
	return cmd
}

func printCandlestickTable(output *Output, found []patterns.CandlestickPattern, layout string) {
	if len(found) == 0 {
		output.Dim("No patterns found")
		return
	}

	t := output.NewTable("Time", "Pattern", "Bars", "Direction", "Confidence", "Details")
	for _, p := range found {
		t.AppendRow(table.Row{
			FormatDateTime(p.Timestamp, layout),
			p.Type.DisplayName(),
			p.CandleCount,
			output.Direction(p.Bullish),
			output.ConfidenceText(p.Confidence),
			FormatMetadata(p.Metadata),
		})
	}
	t.Render()
}

func printChartTable(output *Output, found []patterns.ChartPattern, layout string) {
	if len(found) == 0 {
		output.Dim("No patterns found")
		return
	}

	t := output.NewTable("Pattern", "Bars", "Ends", "Direction", "Target", "Confidence", "Status")
	for _, p := range found {
		status := "forming"
		if p.IsComplete {
			status = "complete"
		}
		t.AppendRow(table.Row{
			p.Type.DisplayName(),
			fmt.Sprintf("%d-%d", p.StartIndex, p.EndIndex),
			FormatDateTime(p.Timestamp, layout),
			output.Direction(p.Bullish),
			FormatTarget(p.PriceTarget),
			output.ConfidenceText(p.Confidence),
			status,
		})
	}
	t.Render()
}

func newTypesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List supported pattern types",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			family, _ := cmd.Flags().GetString("family")

			infos := make([]patterns.PatternInfo, 0)
			for _, info := range patterns.Catalog() {
				if family == "" || info.Family == family {
					infos = append(infos, info)
				}
			}

			if output.IsJSON() {
				return output.JSON(infos)
			}

			t := output.NewTable("ID", "Pattern", "Family", "Category", "Signal", "Description")
			for _, info := range infos {
				t.AppendRow(table.Row{
					info.ID,
					info.Name,
					info.Family,
					info.Category,
					output.SignalText(info.Signal),
					TruncateString(info.Description, 60),
				})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().String("family", "", "filter by family (candlestick or chart)")
	return cmd
}

func newScanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Detect patterns across stored symbols",
		Long: `Run detection concurrently over every stored symbol of a timeframe
and rank the results by absolute signal strength.

Examples:
  patterns scan --timeframe 1d
  patterns scan --timeframe 1h --symbols INFY,TCS --top 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			timeframe, _ := cmd.Flags().GetString("timeframe")
			symbols, _ := cmd.Flags().GetStringSlice("symbols")
			workers, _ := cmd.Flags().GetInt("workers")
			limit, _ := cmd.Flags().GetInt("limit")
			top, _ := cmd.Flags().GetInt("top")
			if workers <= 0 {
				workers = app.Config.Scan.Workers
			}
			if limit <= 0 {
				limit = app.Config.Scan.Limit
			}

			st, err := app.OpenStore()
			if err != nil {
				return err
			}

			if len(symbols) == 0 {
				symbols, err = st.ListSymbols(cmd.Context(), timeframe)
				if err != nil {
					return err
				}
			}
			for i := range symbols {
				symbols[i] = strings.ToUpper(strings.TrimSpace(symbols[i]))
			}
			if len(symbols) == 0 {
				return apperrors.NewDataError("series", "*", timeframe, "no stored symbols", apperrors.ErrDataNotFound)
			}

			sc := scanner.New(st, app.Recognizer, workers, limit, app.Logger)
			results, err := sc.Scan(cmd.Context(), timeframe, symbols)

			var scanErr *apperrors.ScanError
			if err != nil && !errors.As(err, &scanErr) {
				return err
			}

			ranked := scanner.RankBySignal(results)
			if top > 0 && len(ranked) > top {
				ranked = ranked[:top]
			}

			if output.IsJSON() {
				return output.JSON(ranked)
			}

			printScanTable(output, ranked)
			if scanErr != nil {
				for symbol, ferr := range scanErr.Failures {
					output.Warning("%s: %v", symbol, ferr)
				}
			}
			stats := sc.Stats()
			output.Dim("Scanned %d symbols with %d workers, %d failed", stats.Total, stats.Workers, stats.Failed)
			return nil
		},
	}
	cmd.Flags().StringP("timeframe", "t", string(models.Timeframe1Day), "bar timeframe")
	cmd.Flags().StringSlice("symbols", nil, "symbols to scan (default: all stored)")
	cmd.Flags().Int("workers", 0, "concurrent symbols (default: scan.workers)")
	cmd.Flags().IntP("limit", "n", 0, "most recent candles per symbol (default: scan.limit)")
	cmd.Flags().Int("top", 0, "show only the N strongest results")
	return cmd
}

func printScanTable(output *Output, ranked []scanner.Result) {
	if len(ranked) == 0 {
		output.Dim("No results")
		return
	}

	t := output.NewTable("#", "Symbol", "Signal", "Strength", "Candles", "Candlestick", "Chart", "Latest")
	for i, r := range ranked {
		d := r.Detection
		t.AppendRow(table.Row{
			i + 1,
			r.Symbol,
			output.SignalText(d.OverallSignal),
			FormatStrength(d.SignalStrength),
			d.CandlesAnalyzed,
			len(d.CandlestickPatterns),
			len(d.ChartPatterns),
			latestPattern(d),
		})
	}
	t.Render()
}

// latestPattern names the most recent detection of a result.
func latestPattern(d patterns.DetectionResult) string {
	best, bestIdx := "-", -1
	for _, p := range d.CandlestickPatterns {
		if p.EndIndex > bestIdx {
			best, bestIdx = p.Type.DisplayName(), p.EndIndex
		}
	}
	for _, p := range d.ChartPatterns {
		if p.EndIndex > bestIdx {
			best, bestIdx = p.Type.DisplayName(), p.EndIndex
		}
	}
	return best
}
