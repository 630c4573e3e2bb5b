package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/config"
)

func setRequired(t *testing.T) {
	t.Setenv("API_KEY", "secret")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
}

func TestLoadConfig(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "9000")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, "gemini-1.5-flash-latest", cfg.GeminiModel)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout())
	assert.Equal(t, 30*time.Second, cfg.ModelTimeout())
	assert.Equal(t, int64(50<<20), cfg.MaxDocumentBytes())
	assert.False(t, cfg.EnableRunLog)
}

func TestLoadConfig_FromEnvFile(t *testing.T) {
	setRequired(t)
	// godotenv never overrides variables already present in the environment.
	os.Unsetenv("GEMINI_MODEL")

	content := []byte("GEMINI_MODEL=gemini-from-file")
	err := os.WriteFile(".env", content, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(".env")
	defer os.Unsetenv("GEMINI_MODEL")

	cfg, err := config.Load()
	assert.NoError(t, err)
	assert.Equal(t, "gemini-from-file", cfg.GeminiModel)
}

func TestLoadConfig_MissingAPIKey(t *testing.T) {
	setRequired(t)
	t.Setenv("API_KEY", "")

	cfg, err := config.Load()
	assert.ErrorIs(t, err, config.ErrMissingRequired)
	assert.Nil(t, cfg)
}

func TestLoadConfig_Toggles(t *testing.T) {
	setRequired(t)
	t.Setenv("ENABLE_RUN_LOG", "true")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("MODEL_TIMEOUT_SECONDS", "5")
	t.Setenv("LLM_RATE_LIMIT", "0")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.True(t, cfg.EnableRunLog)
	assert.Equal(t, 5*time.Second, cfg.ModelTimeout())
	assert.Equal(t, float64(0), cfg.LLMRateLimit)
	assert.Contains(t, cfg.DSN(), "host=db.internal")
}
