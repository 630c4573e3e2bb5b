package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/app"
	"docqa/internal/config"
)

type flakyDB struct {
	calls     int
	failUntil int
}

func (f *flakyDB) PingContext(ctx context.Context) error {
	f.calls++
	if f.calls <= f.failUntil {
		return errors.New("connection refused")
	}
	return nil
}

func TestPingWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failUntil int
		attempts  int
		wantErr   bool
		wantCalls int
	}{
		{"first try", 0, 3, false, 1},
		{"recovers", 2, 5, false, 3},
		{"gives up", 10, 3, true, 3},
		{"zero attempts still pings once", 0, 0, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &flakyDB{failUntil: tt.failUntil}
			err := app.PingWithRetry(context.Background(), db, tt.attempts, time.Millisecond)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, db.calls)
		})
	}
}

func TestPingWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	db := &flakyDB{failUntil: 10}
	err := app.PingWithRetry(ctx, db, 5, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, db.calls)
}

func TestNewGenerator(t *testing.T) {
	t.Run("openai", func(t *testing.T) {
		cfg := &config.Config{LLMProvider: config.ProviderOpenAI, OpenAIAPIKey: "k", OpenAIModel: "gpt-4o-mini"}
		gen, closer, err := app.NewGenerator(context.Background(), cfg)
		require.NoError(t, err)
		assert.NotNil(t, gen)
		assert.Nil(t, closer)
	})

	t.Run("gemini", func(t *testing.T) {
		cfg := &config.Config{LLMProvider: config.ProviderGemini, GeminiAPIKey: "k", GeminiModel: "gemini-1.5-flash-latest"}
		gen, closer, err := app.NewGenerator(context.Background(), cfg)
		require.NoError(t, err)
		assert.NotNil(t, gen)
		require.NotNil(t, closer)
		assert.NoError(t, closer.Close())
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := &config.Config{LLMProvider: "bard"}
		_, _, err := app.NewGenerator(context.Background(), cfg)
		assert.ErrorIs(t, err, config.ErrInvalidValue)
	})
}

func TestBootstrap_WithoutRunLog(t *testing.T) {
	cfg := &config.Config{
		LLMProvider:  config.ProviderOpenAI,
		OpenAIAPIKey: "k",
		OpenAIModel:  "gpt-4o-mini",
		LLMRateLimit: 2,
		LLMBurst:     1,
	}
	deps, err := app.Bootstrap(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, deps.DB)
	assert.NotNil(t, deps.Generator)
	assert.NoError(t, deps.Close())
}

func TestBootstrap_DatabaseUnreachable(t *testing.T) {
	cfg := &config.Config{
		LLMProvider:                config.ProviderOpenAI,
		OpenAIAPIKey:               "k",
		EnableRunLog:               true,
		DBHost:                     "127.0.0.1",
		DBPort:                     1,
		DBUser:                     "docqa",
		DBName:                     "docqa",
		BootstrapRetryAttempts:     1,
		BootstrapRetryDelaySeconds: 0,
	}
	deps, err := app.Bootstrap(context.Background(), cfg)
	assert.Error(t, err)
	assert.Nil(t, deps)
}
