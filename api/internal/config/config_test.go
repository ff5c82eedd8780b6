package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "GEMINI_API_KEY", "GEMINI_MODEL", "DATABASE_URL", "EXPORT_ENABLED",
		"CHROME_URL", "EXPORT_TIMEOUT", "TELEGRAM_BOT_TOKEN", "WEBHOOK_URL", "OTEL_STDOUT",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()
	assert.Equal(t, "8000", cfg.Port)
	assert.Empty(t, cfg.GeminiAPIKey)
	assert.Equal(t, "gemini-3-flash-preview", cfg.GeminiModel)
	assert.True(t, cfg.ExportEnabled)
	assert.Equal(t, 45*time.Second, cfg.ExportTimeout)
	assert.False(t, cfg.OTelStdout)
	assert.Empty(t, cfg.DatabaseURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GEMINI_API_KEY", " key ")
	t.Setenv("GEMINI_MODEL", "gemini-2.5-flash")
	t.Setenv("EXPORT_ENABLED", "false")
	t.Setenv("EXPORT_TIMEOUT", "10s")
	t.Setenv("OTEL_STDOUT", "1")

	cfg := Load()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "key", cfg.GeminiAPIKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.False(t, cfg.ExportEnabled)
	assert.Equal(t, 10*time.Second, cfg.ExportTimeout)
	assert.True(t, cfg.OTelStdout)
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("EXPORT_ENABLED", "maybe")
	t.Setenv("EXPORT_TIMEOUT", "-3s")

	cfg := Load()
	assert.True(t, cfg.ExportEnabled)
	assert.Equal(t, 45*time.Second, cfg.ExportTimeout)
}
