package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNop(t *testing.T) {
	logger := Nop()

	logger.Debug("debug message", "key", "value")
	logger.Info("info message")
	logger.Warn("warn message", "dangling")
	logger.Error("error message", "error", errors.New("boom"))
}

func Test_fields(t *testing.T) {
	testCases := []struct {
		name     string
		args     []any
		expected map[string]any
	}{
		{
			name:     "it pairs keys with values",
			args:     []any{"reason", "token_expired", "count", 2},
			expected: map[string]any{"reason": "token_expired", "count": 2},
		},
		{
			name:     "it flattens errors into their message",
			args:     []any{"error", errors.New("boom")},
			expected: map[string]any{"error": "boom"},
		},
		{
			name:     "it keeps a dangling value under a bad key",
			args:     []any{"reason", "x", "dangling"},
			expected: map[string]any{"reason": "x", badKey: "dangling"},
		},
		{
			name:     "it stringifies non-string keys",
			args:     []any{42, "answer"},
			expected: map[string]any{"42": "answer"},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, fields(testCase.args))
		})
	}
}

func TestNewLogrus(t *testing.T) {
	base, hook := logrustest.NewNullLogger()
	base.SetLevel(logrus.InfoLevel)
	logger := NewLogrus(base)

	logger.Debug("debug message")
	assert.Empty(t, hook.AllEntries(), "debug message should not be recorded at info level")

	logger.Warn("token rejected", "reason", "token_expired")
	require.Len(t, hook.AllEntries(), 1)

	entry := hook.LastEntry()
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "token rejected", entry.Message)
	assert.Equal(t, "token_expired", entry.Data["reason"])

	logger.Error("fetch failed", "error", errors.New("dial tcp"))
	assert.Equal(t, "dial tcp", hook.LastEntry().Data["error"])
}

func TestNewZap(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	logger := NewZap(zap.New(core))

	logger.Debug("debug message")
	assert.Equal(t, 0, recorded.Len(), "debug message should not be recorded at info level")

	logger.Info("key set fetched", "keys", 2)
	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "key set fetched", recorded.All()[0].Message)
	assert.Equal(t, int64(2), recorded.All()[0].ContextMap()["keys"])

	logger.Warn("warn message")
	logger.Error("error message")
	assert.Equal(t, 3, recorded.Len())
}

func TestNewZerolog(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerolog(zerolog.New(&buf))

	logger.Warn("token rejected", "reason", "invalid_signature")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "token rejected", line["message"])
	assert.Equal(t, "invalid_signature", line["reason"])
}
