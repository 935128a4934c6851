package cli

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

// Property: price, strength and volume formatting keep their value and unit.
func TestProperty_Formatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("FormatPrice has two decimals and preserves value", prop.ForAll(
		func(cents int64) bool {
			price := decimal.New(cents, -2)
			formatted := FormatPrice(price)

			parts := strings.Split(formatted, ".")
			if len(parts) != 2 || len(parts[1]) != 2 {
				t.Logf("Expected 2 decimal places for %s, got %s", price, formatted)
				return false
			}

			parsed, err := decimal.NewFromString(formatted)
			if err != nil || !parsed.Equal(price) {
				t.Logf("Value not preserved: original=%s, formatted=%s", price, formatted)
				return false
			}
			return true
		},
		gen.Int64Range(0, 1e12),
	))

	properties.Property("FormatStrength is signed", prop.ForAll(
		func(strength float64) bool {
			formatted := FormatStrength(strength)
			if strength >= 0 && !strings.HasPrefix(formatted, "+") {
				t.Logf("Expected + prefix for %f, got %s", strength, formatted)
				return false
			}
			parsed, err := strconv.ParseFloat(formatted, 64)
			return err == nil && math.Abs(parsed-strength) <= 0.005+1e-9
		},
		gen.Float64Range(-1, 1),
	))

	properties.Property("FormatVolume uses correct units", prop.ForAll(
		func(volume int64) bool {
			formatted := FormatVolume(volume)

			switch {
			case volume >= 1_000_000_000:
				return strings.HasSuffix(formatted, "B")
			case volume >= 1_000_000:
				return strings.HasSuffix(formatted, "M")
			case volume >= 1000:
				return strings.HasSuffix(formatted, "K")
			}
			return formatted == strconv.FormatInt(volume, 10)
		},
		gen.Int64Range(0, 1e12),
	))

	properties.Property("TruncateString respects max length", prop.ForAll(
		func(s string, maxLen int) bool {
			out := TruncateString(s, maxLen)
			if len(s) <= maxLen {
				return out == s
			}
			return len(out) == maxLen
		},
		gen.AlphaString(),
		gen.IntRange(0, 40),
	))

	properties.TestingRun(t)
}

func TestFormatConfidenceExamples(t *testing.T) {
	testCases := []struct {
		value    float64
		expected string
	}{
		{0, "0%"},
		{0.6, "60%"},
		{0.75, "75%"},
		{0.95, "95%"},
		{1, "100%"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			result := FormatConfidence(tc.value)
			if result != tc.expected {
				t.Errorf("FormatConfidence(%f) = %s, want %s", tc.value, result, tc.expected)
			}
		})
	}
}

func TestFormatTargetAndMetadata(t *testing.T) {
	if got := FormatTarget(nil); got != "-" {
		t.Errorf("FormatTarget(nil) = %s, want -", got)
	}

	target := decimal.RequireFromString("130")
	if got := FormatTarget(&target); got != "130.00" {
		t.Errorf("FormatTarget(130) = %s, want 130.00", got)
	}

	meta := map[string]string{"shadow_ratio": "20.0000", "body_ratio": "0.0500"}
	if got := FormatMetadata(meta); got != "body_ratio=0.0500 shadow_ratio=20.0000" {
		t.Errorf("FormatMetadata = %q", got)
	}
}
