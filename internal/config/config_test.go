package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/inamate/render-go/internal/engine"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.FPS)
	assert.Equal(t, engine.DefaultMaxSlots, cfg.MaxBufferSlots)

	opts := cfg.EngineOptions()
	assert.Equal(t, engine.DefaultMaxSlots, opts.MaxSlots)
	assert.True(t, opts.Fused)
	assert.False(t, opts.GrowBuffer)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("FPS", "60")
	t.Setenv("MAX_BUFFER_SLOTS", "1024")
	t.Setenv("GROW_BUFFER", "true")
	t.Setenv("FUSED_UPDATE", "false")
	t.Setenv("TEXTURE_WORKERS", "0")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 60, cfg.FPS)
	assert.Equal(t, 1, cfg.TextureWorkers)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, engine.Options{MaxSlots: 1024, GrowBuffer: true, Fused: false}, cfg.EngineOptions())
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"zero fps", "FPS", "0"},
		{"fast fps", "FPS", "500"},
		{"partial quad", "MAX_BUFFER_SLOTS", "100"},
		{"no slots", "MAX_BUFFER_SLOTS", "0"},
		{"not a number", "PORT", "eighty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLevelFallback(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, (&Config{LogLevel: "warn"}).Level())
	assert.Equal(t, slog.LevelInfo, (&Config{LogLevel: "loud"}).Level())
}

func TestOrigins(t *testing.T) {
	cfg := &Config{AllowedOrigins: " https://app.example.com, http://localhost:5173 ,,*"}
	assert.Equal(t, []string{"https://app.example.com", "http://localhost:5173", "*"}, cfg.Origins())
	assert.Equal(t, []string{"app.example.com", "localhost:5173", "*"}, cfg.OriginHosts())
}
