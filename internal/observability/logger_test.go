package observability

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"

	"github.com/japaniel/lexigraph/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func setupTestLogger(cfg config.LoggerConfig) *bytes.Buffer {
	buf := new(bytes.Buffer)
	initializeLogger(cfg, zapcore.AddSync(buf))
	return buf
}

// resetGlobalLogger restores the package singletons between tests.
func resetGlobalLogger() {
	once = sync.Once{}
	globalLogger.Store(nil)
}

func TestInitializeLogger(t *testing.T) {
	t.Run("console logger colorizes levels", func(t *testing.T) {
		resetGlobalLogger()
		buf := setupTestLogger(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "lexigraph",
			Colors:      config.ColorConfig{Info: "green"},
		})

		GetLogger().Info("graph saved")
		Sync()

		out := buf.String()
		assert.Contains(t, out, "INFO")
		assert.Contains(t, out, "graph saved")
		assert.Contains(t, out, colorMap["green"])
		assert.Contains(t, out, colorReset)
	})

	t.Run("json logger emits structured fields", func(t *testing.T) {
		resetGlobalLogger()
		buf := setupTestLogger(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "lexigraph"})

		GetLogger().Info("step", zap.Int("frontier", 12))
		Sync()

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "lexigraph", entry["logger"])
		assert.EqualValues(t, 12, entry["frontier"])
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		resetGlobalLogger()
		buf := setupTestLogger(config.LoggerConfig{Level: "chatty", Format: "json"})

		GetLogger().Debug("hidden")
		GetLogger().Info("shown")
		Sync()

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestGetLoggerFallback(t *testing.T) {
	resetGlobalLogger()
	assert.NotNil(t, GetLogger())
}
