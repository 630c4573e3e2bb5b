package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

var (
	ErrMissingRequired = errors.New("missing required configuration")
	ErrInvalidValue    = errors.New("invalid configuration value")
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	// Server
	ServerPort int    `envconfig:"SERVER_PORT" default:"8000"`
	APIKey     string `envconfig:"API_KEY"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`

	// Language model
	LLMProvider         string  `envconfig:"LLM_PROVIDER" default:"gemini"`
	GeminiAPIKey        string  `envconfig:"GEMINI_API_KEY"`
	GeminiModel         string  `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash-latest"`
	OpenAIAPIKey        string  `envconfig:"OPENAI_API_KEY"`
	OpenAIModel         string  `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAIBaseURL       string  `envconfig:"OPENAI_BASE_URL"`
	ModelTimeoutSeconds int     `envconfig:"MODEL_TIMEOUT_SECONDS" default:"30"`
	LLMRateLimit        float64 `envconfig:"LLM_RATE_LIMIT" default:"5"`
	LLMBurst            int     `envconfig:"LLM_BURST" default:"5"`

	// Document acquisition
	FetchTimeoutSeconds int    `envconfig:"FETCH_TIMEOUT_SECONDS" default:"30"`
	MaxDocumentSizeMB   int64  `envconfig:"MAX_DOCUMENT_SIZE_MB" default:"50"`
	TempDir             string `envconfig:"TEMP_DIR"`

	QueryLogPath string `envconfig:"QUERY_LOG_PATH" default:"data/logs/query.log"`

	// Run history
	EnableRunLog  bool   `envconfig:"ENABLE_RUN_LOG" default:"false"`
	DBHost        string `envconfig:"DB_HOST" default:"postgres"`
	DBPort        int    `envconfig:"DB_PORT" default:"5432"`
	DBUser        string `envconfig:"DB_USER" default:"docqa"`
	DBPass        string `envconfig:"DB_PASS" default:"password"`
	DBName        string `envconfig:"DB_NAME" default:"docqa"`
	MigrationPath string `envconfig:"MIGRATION_PATH" default:"file://migrations"`

	// Resilience
	BootstrapRetryAttempts     int `envconfig:"BOOTSTRAP_RETRY_ATTEMPTS" default:"10"`
	BootstrapRetryDelaySeconds int `envconfig:"BOOTSTRAP_RETRY_DELAY_SECONDS" default:"2"`
}

func Load() (*Config, error) {
	// Env vars set in the shell win; .env files only fill gaps.
	_ = godotenv.Load(".env")

	cwd, _ := os.Getwd()
	_ = godotenv.Load(filepath.Join(cwd, "../.env"))

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("%w: API_KEY", ErrMissingRequired)
	}

	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY", ErrMissingRequired)
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY", ErrMissingRequired)
		}
	default:
		return fmt.Errorf("%w: LLM_PROVIDER %q", ErrInvalidValue, c.LLMProvider)
	}

	if c.ModelTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: MODEL_TIMEOUT_SECONDS must be positive", ErrInvalidValue)
	}
	if c.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: FETCH_TIMEOUT_SECONDS must be positive", ErrInvalidValue)
	}
	if c.MaxDocumentSizeMB <= 0 {
		return fmt.Errorf("%w: MAX_DOCUMENT_SIZE_MB must be positive", ErrInvalidValue)
	}
	if c.LLMRateLimit < 0 {
		return fmt.Errorf("%w: LLM_RATE_LIMIT must not be negative", ErrInvalidValue)
	}

	if c.EnableRunLog {
		if c.DBHost == "" {
			return fmt.Errorf("%w: DB_HOST", ErrMissingRequired)
		}
		if c.DBUser == "" {
			return fmt.Errorf("%w: DB_USER", ErrMissingRequired)
		}
		if c.DBName == "" {
			return fmt.Errorf("%w: DB_NAME", ErrMissingRequired)
		}
	}
	return nil
}

func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.ModelTimeoutSeconds) * time.Second
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// MaxDocumentBytes is the upper bound for a remote document body.
func (c *Config) MaxDocumentBytes() int64 {
	return c.MaxDocumentSizeMB << 20
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName)
}
