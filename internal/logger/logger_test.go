package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		json  bool
		debug bool
		level zapcore.Level
	}{
		{name: "console info", level: zapcore.InfoLevel},
		{name: "json debug", json: true, debug: true, level: zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.json, tt.debug)
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.level))
			if !tt.debug {
				assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
			}
		})
	}
}

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  provider  ", Value: "  gemini  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	require.Len(t, fields, 1)
	assert.Equal(t, "provider", fields[0].Key)
	assert.Equal(t, "gemini", fields[0].String)
	assert.Empty(t, StringFields())
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	WithFields(log, zap.String("foo", "bar")).Info("test log")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "bar", entries[0].ContextMap()["foo"])

	fallback := WithFields(nil, zap.String("baz", "qux"))
	require.NotNil(t, fallback)
	fallback.Info("another log")
}

func TestCommonFields(t *testing.T) {
	fields := CommonFields("gemini", "")
	require.Len(t, fields, 1)
	assert.Equal(t, FieldProvider, fields[0].Key)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "0123456789ab", CacheKey("0123456789abcdef").String)
	assert.Equal(t, "abc", CacheKey("abc").String)
}

func TestTruncateForLog(t *testing.T) {
	assert.Equal(t, "hello", TruncateForLog("  hello  ", 10))
	assert.Equal(t, "hel...", TruncateForLog("hello", 3))
	assert.Equal(t, "", TruncateForLog("hello", 0))
}
