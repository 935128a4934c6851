package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatPrice formats a price with two decimal places.
func FormatPrice(price decimal.Decimal) string {
	return price.StringFixed(2)
}

// FormatTarget formats an optional price target.
func FormatTarget(target *decimal.Decimal) string {
	if target == nil {
		return "-"
	}
	return FormatPrice(*target)
}

// FormatVolume formats volume in compact form.
func FormatVolume(volume int64) string {
	switch {
	case volume >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", float64(volume)/1_000_000_000)
	case volume >= 1_000_000:
		return fmt.Sprintf("%.2fM", float64(volume)/1_000_000)
	case volume >= 1000:
		return fmt.Sprintf("%.2fK", float64(volume)/1000)
	}
	return fmt.Sprintf("%d", volume)
}

// FormatConfidence formats a 0..1 confidence as a percentage.
func FormatConfidence(conf float64) string {
	return fmt.Sprintf("%.0f%%", conf*100)
}

// FormatStrength formats a signed signal strength.
func FormatStrength(strength float64) string {
	return fmt.Sprintf("%+.2f", strength)
}

// FormatDateTime formats a timestamp with the configured layout.
func FormatDateTime(t time.Time, layout string) string {
	if layout == "" {
		layout = "02-Jan-2006 15:04"
	}
	return t.Format(layout)
}

// FormatMetadata renders pattern metadata as sorted key=value pairs.
func FormatMetadata(meta map[string]string) string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + meta[k]
	}
	return strings.Join(parts, " ")
}

// TruncateString truncates a string to max length with ellipsis.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
