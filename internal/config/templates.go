package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Pattern Engine Configuration

[patterns]
# Body/range ratio below which a bar is a doji
doji_body_ratio = 0.1
# Shadow/body ratio for hammer and shooting star shapes
shadow_body_ratio = 2.0
# Maximum shadow/range ratio for a marubozu
marubozu_shadow_ratio = 0.05
# Minimum body ratio for engulfing patterns
engulfing_ratio = 1.0
# Reserved
star_gap_ratio = 0.01
# Bars on each side of a pivot
pivot_lookback = 5
# Minimum bars before chart patterns are considered
min_pattern_bars = 10
# Advisory upper bound on pattern span
max_pattern_bars = 100
# Relative price tolerance for matching peaks and valleys
price_tolerance = 0.02
# Slope below which a trend line counts as flat (price per bar)
slope_tolerance = 0.1
# Patterns below this confidence are dropped
min_confidence = 0.6

[logging]
# Log level: debug, info, warn, error
level = "info"
console = true
# Rotating file log
file = false
max_size = 100
max_backups = 7
max_age = 30

[store]
# SQLite database with imported candles (defaults to candles.db next to this file)
# path = ""

[scan]
# Symbols scanned concurrently
workers = 4
# Most recent candles loaded per symbol
limit = 200

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "02-Jan-2006 15:04"
`

func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
