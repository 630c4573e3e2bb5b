package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"docqa/internal/adapter/gemini"
	"docqa/internal/adapter/openai"
	"docqa/internal/config"
	"docqa/internal/llm"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

type Dependencies struct {
	// DB is nil unless the run log is enabled.
	DB        *sql.DB
	Generator llm.Generator

	closers []io.Closer
}

// Close releases the generator client and the database pool.
func (d *Dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func Bootstrap(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{}

	if cfg.EnableRunLog {
		db, err := OpenDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		deps.DB = db
		deps.closers = append(deps.closers, db)
	}

	gen, closer, err := NewGenerator(ctx, cfg)
	if err != nil {
		if cerr := deps.Close(); cerr != nil {
			slog.Warn("failed to release dependencies", "error", cerr)
		}
		return nil, err
	}
	if closer != nil {
		deps.closers = append(deps.closers, closer)
	}
	deps.Generator = llm.NewRateLimited(gen, cfg.LLMRateLimit, cfg.LLMBurst)

	return deps, nil
}

// OpenDatabase connects to Postgres, waits for it to accept connections and
// applies pending migrations.
func OpenDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	retryDelay := time.Duration(cfg.BootstrapRetryDelaySeconds) * time.Second
	if err := PingWithRetry(ctx, db, cfg.BootstrapRetryAttempts, retryDelay); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	if err := Migrate(db, cfg.MigrationPath); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func Migrate(db *sql.DB, path string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("migration driver error: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(path, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migration instance error: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up error: %w", err)
	}
	slog.Info("migrations applied", "path", path)
	return nil
}

type pinger interface {
	PingContext(ctx context.Context) error
}

// PingWithRetry pings up to attempts times, sleeping delay in between.
func PingWithRetry(ctx context.Context, db pinger, attempts int, delay time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		slog.Warn("failed to ping db, retrying...", "attempt", i+1, "max_attempts", attempts, "error", err)
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return err
}

// NewGenerator builds the client for the configured provider. The returned
// closer is nil when the client holds no resources.
func NewGenerator(ctx context.Context, cfg *config.Config) (llm.Generator, io.Closer, error) {
	switch cfg.LLMProvider {
	case config.ProviderGemini:
		g, err := gemini.NewGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, fmt.Errorf("gemini client error: %w", err)
		}
		return g, g, nil
	case config.ProviderOpenAI:
		return openai.NewGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil, nil
	default:
		return nil, nil, fmt.Errorf("%w: LLM_PROVIDER %q", config.ErrInvalidValue, cfg.LLMProvider)
	}
}
