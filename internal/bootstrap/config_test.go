package bootstrap

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")

	assert.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
	logger.Warn("store degraded", "store", "redis")

	require.NotEmpty(t, buf.String())
	assert.Contains(t, buf.String(), `"msg":"store degraded"`)
	assert.Contains(t, buf.String(), `"store":"redis"`)
}

func TestLoadConfig(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Run("missing api url", func(t *testing.T) {
		t.Setenv("HOLYGRAIL_API_URL", "")
		require.NoError(t, os.Unsetenv("HOLYGRAIL_API_URL"))
		_, err := LoadConfig()
		require.Error(t, err)
	})

	t.Run("sanitized", func(t *testing.T) {
		t.Setenv("HOLYGRAIL_API_URL", "https://api.holygrail.example/v1/")
		t.Setenv("HTTP_COMPRESSION_LEVEL", "42")
		cfg, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, "https://api.holygrail.example/v1", cfg.API.BaseURL)
		assert.Equal(t, 9, cfg.HTTP.CompressionLevel)
	})
}
