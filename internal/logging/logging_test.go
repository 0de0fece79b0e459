package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantLevel zapcore.Level
	}{
		{"defaults", Config{}, zapcore.InfoLevel},
		{"debug console", Config{Level: "DEBUG", Encoding: "console"}, zapcore.DebugLevel},
		{"unknown level", Config{Level: "chatty"}, zapcore.InfoLevel},
		{"warn", Config{Level: "warn", Encoding: "json"}, zapcore.WarnLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.wantLevel))
			if tt.wantLevel > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.wantLevel-1))
			}
		})
	}
}

func TestNew_WritesToOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.log")
	l, err := New(Config{Level: "info", Output: path})
	require.NoError(t, err)
	l.Info("hello")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
}
