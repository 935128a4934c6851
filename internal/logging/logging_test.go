package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("verbose"))
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := WithLogger(context.Background(), logger)
	fromCtx := FromContext(ctx)
	fromCtx.Info().Msg("hello")
	assert.Contains(t, buf.String(), "hello")

	// A bare context yields a no-op logger.
	bare := FromContext(context.Background())
	bare.Info().Msg("dropped")
	assert.NotContains(t, buf.String(), "dropped")
}

func TestLogDetection(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	LogDetection(logger, "TCS", "1h", 120, 4, 2, "bullish", 0.5)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "detection", entry["event"])
	assert.Equal(t, "TCS", entry["symbol"])
	assert.Equal(t, float64(120), entry["candles"])
	assert.Equal(t, "bullish", entry["signal"])
}

func TestLogScan(t *testing.T) {
	var buf bytes.Buffer
	LogScan(zerolog.New(&buf), "1d", 10, 1, time.Second, nil)
	assert.Contains(t, buf.String(), "Scan completed")
}
