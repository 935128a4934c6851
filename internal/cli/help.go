package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// addHelpCommands adds workflow help.
func addHelpCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newExamplesCmd())
}

func newExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflow examples",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("Common Workflow Examples")
			output.Println()

			examples := []struct {
				title    string
				commands []string
			}{
				{
					title: "Analyse a CSV File",
					commands: []string{
						"patterns candles --file infy_1d.csv          # Candlestick patterns",
						"patterns chart --file infy_1d.csv            # Chart formations",
						"patterns detect --file infy_1d.csv --json    # Everything, as JSON",
					},
				},
				{
					title: "Build a Local Store",
					commands: []string{
						"patterns data import infy_1d.csv -t 1d       # Symbol taken from file name",
						"patterns data import bars.csv -s TCS -t 1h",
						"patterns data list                           # Stored series",
						"patterns data export -s INFY -t 1d -o infy.csv",
					},
				},
				{
					title: "Scan the Store",
					commands: []string{
						"patterns scan -t 1d                          # Every stored symbol",
						"patterns scan -t 1h --symbols INFY,TCS --top 5",
						"patterns scan -t 1d --min-confidence 0.8     # High confidence only",
					},
				},
				{
					title: "Tune Detection",
					commands: []string{
						"patterns config path                         # Where config.toml lives",
						"patterns config show",
						"PATTERN_ENGINE_PATTERNS_PIVOT_LOOKBACK=3 patterns chart -s INFY",
						"patterns types --family chart                # Supported formations",
					},
				},
			}

			for _, ex := range examples {
				output.Bold(ex.title)
				for _, c := range ex.commands {
					parts := strings.SplitN(c, "#", 2)
					if len(parts) == 2 {
						output.Printf("  %s %s\n", output.Cyan(strings.TrimSpace(parts[0])), output.DimText(strings.TrimSpace(parts[1])))
					} else {
						output.Printf("  %s\n", output.Cyan(c))
					}
				}
				output.Println()
			}

			return nil
		},
	}
}
