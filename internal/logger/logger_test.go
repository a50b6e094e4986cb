package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	cases := []struct {
		level, format string
		enabled       zapcore.Level
		disabled      zapcore.Level
	}{
		{"", "", zapcore.InfoLevel, zapcore.DebugLevel},
		{"debug", "json", zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"WARN", "console", zapcore.WarnLevel, zapcore.InfoLevel},
	}
	for _, tc := range cases {
		log, err := New(tc.level, tc.format)
		require.NoError(t, err)
		assert.True(t, log.Core().Enabled(tc.enabled), tc.level)
		assert.False(t, log.Core().Enabled(tc.disabled), tc.level)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("chatty", "")
	assert.Error(t, err)
}
