package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting, read from the environment.
type Config struct {
	AppEnv  string `env:"APP_ENV" env-default:"development"`
	Port    string `env:"PORT" env-default:"5000"`
	LogMode string `env:"LOG_MODE" env-default:"development"`

	JWTSecret string        `env:"JWT_SECRET_KEY" env-default:"dev-secret-change-me"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" env-default:"24h"`

	DBDriver    string `env:"DB_DRIVER" env-default:"sqlite"`
	DatabaseURL string `env:"DATABASE_URL" env-default:"health.db"`

	LLMEndpoint        string        `env:"LLM_ENDPOINT" env-default:"http://127.0.0.1:11434/v1/chat/completions"`
	LLMModel           string        `env:"LLM_MODEL" env-default:"gemma2"`
	LLMAPIKey          string        `env:"LLM_API_KEY"`
	FallbackTokenDelay time.Duration `env:"FALLBACK_TOKEN_DELAY" env-default:"100ms"`

	RedisAddress  string `env:"REDIS_ADDRESS"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	RateLimitWindowSeconds int `env:"RATE_LIMIT_WINDOW_SECONDS" env-default:"10"`
	RateLimitCapacity      int `env:"RATE_LIMIT_CAPACITY" env-default:"5"`

	CORSOrigins []string `env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:3000,http://127.0.0.1:3000"`
}

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

// RateLimitWindow is the refill window of the chat rate limiter.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

// Load reads .env (skipped in production) and then the process environment.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		// a missing .env is fine, the host environment may carry everything
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if !slices.Contains([]string{"development", "staging", "production"}, c.AppEnv) {
		return fmt.Errorf("APP_ENV must be 'development', 'staging' or 'production', got %q", c.AppEnv)
	}
	if !slices.Contains([]string{"sqlite", "postgres", "mysql"}, c.DBDriver) {
		return fmt.Errorf("DB_DRIVER must be 'sqlite', 'postgres' or 'mysql', got %q", c.DBDriver)
	}
	if c.IsProduction() && (c.JWTSecret == "" || c.JWTSecret == "dev-secret-change-me") {
		return errors.New("JWT_SECRET_KEY must be set in production")
	}
	if c.TokenTTL <= 0 {
		return errors.New("TOKEN_TTL must be positive")
	}
	return nil
}
