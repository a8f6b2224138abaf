package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("verbose"))
}

func TestWithRequestID(t *testing.T) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx, logger := WithRequestID(context.Background(), base, "req-1")
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))

	LogAnalysis(WithPair(logger, "M2", "SPY"), 12, 11, 4, 0.83, 3*time.Millisecond)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "M2", entry["index"])
	assert.Equal(t, "SPY", entry["asset"])
	assert.Equal(t, float64(4), entry["optimal_lag"])
	assert.Equal(t, "analysis", entry["event"])

	// The context carries the same logger.
	buf.Reset()
	ctxLogger := FromContext(ctx)
	ctxLogger.Info().Msg("again")
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
}

func TestFromContextWithoutLogger(t *testing.T) {
	logger := FromContext(context.Background())
	assert.Equal(t, zerolog.Disabled, logger.GetLevel())
}

func TestNewLoggerWithConfigWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "test.log")
	logger := NewLoggerWithConfig(LogConfig{
		Level:    "info",
		File:     true,
		FilePath: path,
		MaxSize:  1,
	})
	logger.Info().Msg("hello")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
