package cli

import (
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	apperrors "pattern-engine/internal/errors"
	"pattern-engine/internal/logging"
	"pattern-engine/internal/store"
)

// addDataCommands adds candle store commands.
func addDataCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newDataCmd(app))
}

func newDataCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Manage stored candle series",
		Long:  "Import, list and export the candle series kept in the local SQLite store.",
	}

	cmd.AddCommand(newDataImportCmd(app))
	cmd.AddCommand(newDataListCmd(app))
	cmd.AddCommand(newDataExportCmd(app))

	return cmd
}

func newDataImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import candles from a CSV file",
		Long: `Load OHLCV bars from a CSV file into the store.

The file needs a header row: timestamp,open,high,low,close,volume.
Timestamps may be RFC3339, a plain date, or unix seconds or milliseconds.
Existing bars with the same timestamp are replaced.`,
		Example: `  patterns data import infy_1d.csv --timeframe 1d
  patterns data import bars.csv --symbol TCS --timeframe 1h`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path := args[0]

			symbol, _ := cmd.Flags().GetString("symbol")
			timeframe, _ := cmd.Flags().GetString("timeframe")
			symbol = strings.ToUpper(symbol)
			if symbol == "" {
				symbol = symbolFromPath(path)
			}

			candles, err := store.ReadCandlesFile(path)
			if err != nil {
				output.Error("Failed to read %s: %v", path, err)
				return err
			}
			if len(candles) == 0 {
				return apperrors.NewDataError("candles", symbol, timeframe, "file has no rows", apperrors.ErrInsufficientData)
			}

			st, err := app.OpenStore()
			if err != nil {
				return err
			}

			if err := st.SaveCandles(cmd.Context(), symbol, timeframe, candles); err != nil {
				return apperrors.Wrapf(err, "saving %s/%s", symbol, timeframe)
			}
			if err := st.RecordImport(cmd.Context(), store.ImportRecord{
				Symbol:     symbol,
				Timeframe:  timeframe,
				Source:     path,
				Count:      len(candles),
				ImportedAt: time.Now().UTC(),
			}); err != nil {
				return err
			}

			logging.LogImport(app.Logger, symbol, timeframe, path, len(candles))

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol":    symbol,
					"timeframe": timeframe,
					"imported":  len(candles),
					"first":     candles[0].Timestamp,
					"last":      candles[len(candles)-1].Timestamp,
				})
			}

			output.Success("✓ Imported %d candles into %s/%s", len(candles), symbol, timeframe)
			output.Dim("%s → %s",
				FormatDateTime(candles[0].Timestamp, app.Config.UI.DateFormat),
				FormatDateTime(candles[len(candles)-1].Timestamp, app.Config.UI.DateFormat))
			return nil
		},
	}

	cmd.Flags().StringP("symbol", "s", "", "symbol (default: derived from the file name)")
	cmd.Flags().StringP("timeframe", "t", "1d", "bar timeframe")

	return cmd
}

func newDataListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored series",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			st, err := app.OpenStore()
			if err != nil {
				return err
			}
			series, err := st.ListSeries(cmd.Context())
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(series)
			}

			if len(series) == 0 {
				output.Dim("No stored series. Use 'patterns data import' to add one.")
				return nil
			}

			layout := app.Config.UI.DateFormat
			t := output.NewTable("Symbol", "Timeframe", "Candles", "First", "Last", "Imported From")
			for _, s := range series {
				source := "-"
				if rec, ok := st.GetLastImport(s.Symbol, string(s.Timeframe)); ok {
					source = TruncateString(rec.Source, 40)
				}
				t.AppendRow(table.Row{
					s.Symbol,
					s.Timeframe,
					s.Count,
					FormatDateTime(s.First, layout),
					FormatDateTime(s.Last, layout),
					source,
				})
			}
			t.Render()
			return nil
		},
	}
}

func newDataExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a stored series as CSV",
		Example: `  patterns data export --symbol INFY --timeframe 1d > infy.csv
  patterns data export -s TCS -t 1h -n 500 -o tcs_1h.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol, _ := cmd.Flags().GetString("symbol")
			timeframe, _ := cmd.Flags().GetString("timeframe")
			limit, _ := cmd.Flags().GetInt("limit")
			out, _ := cmd.Flags().GetString("output")

			symbol = strings.ToUpper(symbol)
			if symbol == "" {
				return apperrors.NewValidationError("symbol", symbol, "--symbol is required")
			}

			st, err := app.OpenStore()
			if err != nil {
				return err
			}
			candles, err := st.GetLatestCandles(cmd.Context(), symbol, timeframe, limit)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return apperrors.Wrapf(err, "creating %s", out)
				}
				defer f.Close()
				w = f
			}

			if err := store.WriteCandlesCSV(w, candles); err != nil {
				return err
			}

			logger := logging.FromContext(cmd.Context())
			logger.Info().
				Str("symbol", symbol).
				Str("timeframe", timeframe).
				Int("count", len(candles)).
				Str("output", out).
				Msg("Candles exported")
			return nil
		},
	}

	cmd.Flags().StringP("symbol", "s", "", "symbol of the stored series")
	cmd.Flags().StringP("timeframe", "t", "1d", "bar timeframe")
	cmd.Flags().IntP("limit", "n", 0, "most recent candles (default: all)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")

	return cmd
}
