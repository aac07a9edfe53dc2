package logger

import (
	"testing"

	"github.com/AdamBeresnev/esport-cup/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.LoggerConfig
		level zapcore.Level
	}{
		{"json info", config.LoggerConfig{Level: "info", Format: "json"}, zapcore.InfoLevel},
		{"console debug", config.LoggerConfig{Level: "debug", Format: "console"}, zapcore.DebugLevel},
		{"json error", config.LoggerConfig{Level: "error", Format: "json"}, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.level, log.Level())
		})
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(config.LoggerConfig{Level: "loud", Format: "json"})
	assert.Error(t, err)
}
