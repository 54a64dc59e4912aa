package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/graphchat/text2cypher/internal/config"
)

// syncBuffer adapts bytes.Buffer to zapcore.WriteSyncer.
type syncBuffer struct {
	bytes.Buffer
}

func (*syncBuffer) Sync() error { return nil }

func TestInitialize(t *testing.T) {
	t.Run("writes through the configured level", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)

		buf := &syncBuffer{}
		Initialize(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "test"}, zapcore.Lock(buf))

		logger := GetLogger()
		require.NotNil(t, logger)
		logger.Debug("debug line")
		logger.Info("info line")
		require.NoError(t, logger.Sync())

		out := buf.String()
		assert.Contains(t, out, "debug line")
		assert.Contains(t, out, "info line")
		assert.Contains(t, out, "test", "logger carries the service name")
	})

	t.Run("falls back to info on an invalid level", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)

		buf := &syncBuffer{}
		Initialize(config.LoggerConfig{Level: "chatty", Format: "json", ServiceName: "test"}, zapcore.Lock(buf))

		logger := GetLogger()
		logger.Debug("hidden")
		logger.Info("visible")
		require.NoError(t, logger.Sync())

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "visible")
	})

	t.Run("second initialization is a no-op", func(t *testing.T) {
		ResetForTest()
		t.Cleanup(ResetForTest)

		first := &syncBuffer{}
		second := &syncBuffer{}
		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "one"}, zapcore.Lock(first))
		Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "two"}, zapcore.Lock(second))

		GetLogger().Info("routed")
		require.NoError(t, GetLogger().Sync())
		assert.Contains(t, first.String(), "routed")
		assert.Empty(t, second.String())
	})
}

func TestGetLoggerBeforeInitialization(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	// Must never return nil, even uninitialized.
	assert.NotNil(t, GetLogger())
}
