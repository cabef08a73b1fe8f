package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"ERROR":   zapcore.ErrorLevel,
		"warn":    zapcore.WarnLevel,
		"INFO":    zapcore.InfoLevel,
		" debug ": zapcore.DebugLevel,
		"TRACE":   zapcore.DebugLevel,
		"":        zapcore.InfoLevel,
		"LOUD":    zapcore.InfoLevel,
	}
	for input, want := range tests {
		assert.Equal(t, want, ParseLevel(input), input)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	logger, err := New("WARN", false)
	assert.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}

func TestNamedToleratesNil(t *testing.T) {
	assert.NotNil(t, Named(nil, "catalog"))
}
