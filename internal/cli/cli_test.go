package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pattern-engine/internal/analysis/patterns"
	apperrors "pattern-engine/internal/errors"
	"pattern-engine/internal/models"
	"pattern-engine/internal/scanner"
)

const dojiCSV = "timestamp,open,high,low,close,volume\n2024-01-02,100,105,95,100,1000\n"

// run executes the command tree against an isolated config directory.
func run(t *testing.T, configDir string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{"--config", configDir}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestImportThenDetect(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeCSV(t, dir, "infy_1d.csv", dojiCSV)

	out, err := run(t, dir, "data", "import", csvPath, "--timeframe", "1d", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"symbol": "INFY"`)
	assert.Contains(t, out, `"imported": 1`)

	out, err = run(t, dir, "detect", "--symbol", "infy", "--timeframe", "1d", "--json")
	require.NoError(t, err)

	var result patterns.DetectionResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "INFY", result.Symbol)
	assert.Equal(t, "1d", result.Timeframe)
	assert.Equal(t, 1, result.CandlesAnalyzed)
	assert.Empty(t, result.ChartPatterns)

	var kinds []patterns.CandlestickPatternType
	for _, p := range result.CandlestickPatterns {
		kinds = append(kinds, p.Type)
	}
	assert.Contains(t, kinds, patterns.Doji)
}

func TestDetectFromFileWithConfidenceOverride(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeCSV(t, dir, "bars.csv", dojiCSV)

	out, err := run(t, dir, "candles", "--file", csvPath, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"pattern_type": "doji"`)

	out, err = run(t, dir, "--min-confidence", "0.99", "detect", "--file", csvPath, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"symbol": "BARS"`)
	assert.Contains(t, out, `"candlestick_patterns": []`)
	assert.Contains(t, out, `"overall_signal": "neutral"`)
}

func TestDetectErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "detect", "--symbol", "NOPE")
	assert.ErrorIs(t, err, apperrors.ErrDataNotFound)

	_, err = run(t, dir, "chart")
	assert.ErrorIs(t, err, apperrors.ErrInputValidation)

	empty := writeCSV(t, dir, "empty.csv", "timestamp,open,high,low,close,volume\n")
	_, err = run(t, dir, "candles", "--file", empty)
	assert.ErrorIs(t, err, apperrors.ErrInsufficientData)

	_, err = run(t, dir, "--min-confidence", "1.5", "types")
	assert.ErrorIs(t, err, apperrors.ErrConfigInvalid)
}

func TestTypes(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "types", "--json")
	require.NoError(t, err)
	var all []patterns.PatternInfo
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	assert.Len(t, all, len(patterns.CandlestickPatternTypes())+len(patterns.ChartPatternTypes()))

	out, err = run(t, dir, "types", "--family", "chart", "--json")
	require.NoError(t, err)
	var chart []patterns.PatternInfo
	require.NoError(t, json.Unmarshal([]byte(out), &chart))
	assert.Len(t, chart, len(patterns.ChartPatternTypes()))

	out, err = run(t, dir, "types")
	require.NoError(t, err)
	assert.Contains(t, out, "Head and Shoulders")
}

func TestDataListAndExport(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeCSV(t, dir, "tcs.csv", dojiCSV)

	_, err := run(t, dir, "data", "import", csvPath, "-t", "1h")
	require.NoError(t, err)

	out, err := run(t, dir, "data", "list", "--json")
	require.NoError(t, err)
	var series []models.Series
	require.NoError(t, json.Unmarshal([]byte(out), &series))
	require.Len(t, series, 1)
	assert.Equal(t, "TCS", series[0].Symbol)
	assert.Equal(t, models.Timeframe1Hour, series[0].Timeframe)
	assert.Equal(t, 1, series[0].Count)

	out, err = run(t, dir, "data", "export", "-s", "TCS", "-t", "1h")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "timestamp,open,high,low,close,volume", lines[0])
	assert.Equal(t, "2024-01-02T00:00:00Z,100,105,95,100,1000", lines[1])
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"infy.csv", "sbin.csv"} {
		_, err := run(t, dir, "data", "import", writeCSV(t, dir, name, dojiCSV))
		require.NoError(t, err)
	}

	out, err := run(t, dir, "scan", "--timeframe", "1d", "--json")
	require.NoError(t, err)

	var results []scanner.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)

	symbols := []string{results[0].Symbol, results[1].Symbol}
	assert.ElementsMatch(t, []string{"INFY", "SBIN"}, symbols)

	_, err = run(t, dir, "scan", "--timeframe", "1w")
	assert.ErrorIs(t, err, apperrors.ErrDataNotFound)
}

func TestConfigAndVersion(t *testing.T) {
	dir := t.TempDir()

	out, err := run(t, dir, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), strings.TrimSpace(out))
	assert.FileExists(t, filepath.Join(dir, "config.toml"))

	_, err = run(t, dir, "config", "validate")
	require.NoError(t, err)

	out, err = run(t, dir, "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestSymbolFromPath(t *testing.T) {
	assert.Equal(t, "INFY", symbolFromPath("/data/infy_1d.csv"))
	assert.Equal(t, "TCS", symbolFromPath("tcs.csv"))
	assert.Equal(t, "BARS", symbolFromPath("bars"))
}
