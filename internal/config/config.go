package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/nglaszik/docwatch/internal/diff"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string // Empty runs on the in-memory store
	TablePrefix string
	CORSOrigins string
	DBMaxConns  int32
	// Auth
	JWKSURL  string
	DevOwner string // Fixed owner for local development when no JWKS is configured
	// Logging
	LogDir      string
	LogMaxFiles int
	Debug       bool

	Diff  DiffConfig  `yaml:"diff"`
	Retry RetryConfig `yaml:"retry"`
}

// DiffConfig controls the comparison unit and the alignment ceilings.
type DiffConfig struct {
	Unit            string `yaml:"unit"`
	MaxTokens       int    `yaml:"max_tokens"`
	MaxEditDistance int    `yaml:"max_edit_distance"`
}

// RetryConfig bounds retries of transient storage failures.
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
}

// Load builds the configuration from defaults, then the optional CONFIG_FILE
// YAML overlay, then environment variables. Later sources win.
func Load() (*Config, error) {
	env := getEnv("ENVIRONMENT", "dev")

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		TablePrefix: getTablePrefix(env),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		DBMaxConns:  25,
		JWKSURL:     getEnv("JWKS_URL", ""),
		DevOwner:    getEnv("AUTH_DEV_OWNER", ""),
		LogDir:      getEnv("LOG_DIR", ""),
		LogMaxFiles: 10,
		// Debug defaults to true outside production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
		Diff: DiffConfig{
			Unit:            string(diff.UnitWord),
			MaxTokens:       diff.DefaultMaxTokens,
			MaxEditDistance: diff.DefaultMaxEditDistance,
		},
		Retry: RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 50 * time.Millisecond,
			MaxInterval:     time.Second,
		},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.overlayEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) overlayEnv() error {
	if v := os.Getenv("DIFF_UNIT"); v != "" {
		c.Diff.Unit = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"DIFF_MAX_TOKENS", &c.Diff.MaxTokens},
		{"DIFF_MAX_EDIT_DISTANCE", &c.Diff.MaxEditDistance},
		{"RETRY_MAX_ATTEMPTS", &c.Retry.MaxAttempts},
		{"LOG_MAX_FILES", &c.LogMaxFiles},
	}
	for _, f := range ints {
		v := os.Getenv(f.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dst = n
	}

	if v := os.Getenv("DB_MAX_CONNS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return fmt.Errorf("DB_MAX_CONNS: %w", err)
		}
		c.DBMaxConns = int32(n)
	}

	if v := os.Getenv("RETRY_INITIAL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("RETRY_INITIAL_INTERVAL: %w", err)
		}
		c.Retry.InitialInterval = d
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(&c.Diff,
		validation.Field(&c.Diff.Unit, validation.Required, validation.In(string(diff.UnitWord), string(diff.UnitChar))),
		validation.Field(&c.Diff.MaxTokens, validation.Min(1)),
		validation.Field(&c.Diff.MaxEditDistance, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("diff: %w", err)
	}
	if err := validation.ValidateStruct(&c.Retry,
		validation.Field(&c.Retry.MaxAttempts, validation.Min(1), validation.Max(MaxRetryAttempts)),
		validation.Field(&c.Retry.InitialInterval, validation.Min(time.Duration(0))),
	); err != nil {
		return fmt.Errorf("retry: %w", err)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required),
		validation.Field(&c.LogMaxFiles, validation.Min(1)),
	)
}

// DiffOptions converts the diff section into engine options.
func (c *Config) DiffOptions() diff.Options {
	unit, _ := diff.ParseUnit(c.Diff.Unit)
	return diff.Options{
		Unit:            unit,
		MaxTokens:       c.Diff.MaxTokens,
		MaxEditDistance: c.Diff.MaxEditDistance,
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix, ok := os.LookupEnv("TABLE_PREFIX"); ok {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
