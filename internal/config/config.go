package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Storage backends
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Config is the server configuration, read from PARTYHUB_* environment variables
type Config struct {
	Host     string `env:"PARTYHUB_HOST"`
	Port     int    `env:"PARTYHUB_PORT" envDefault:"8080"`
	LogLevel string `env:"PARTYHUB_LOG_LEVEL" envDefault:"info"`

	StorageType string `env:"PARTYHUB_STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string `env:"PARTYHUB_REDIS_URL"`

	// GamesCatalog is an optional YAML file of game definitions
	GamesCatalog string `env:"PARTYHUB_GAMES_CATALOG"`

	ResumeTTL     time.Duration `env:"PARTYHUB_RESUME_TTL" envDefault:"24h"`
	JoinTTL       time.Duration `env:"PARTYHUB_JOIN_TTL" envDefault:"1h"`
	SweepInterval time.Duration `env:"PARTYHUB_SWEEP_INTERVAL" envDefault:"5m"`

	// AllowedOrigins lists browser origins permitted to open /platform; "*" allows any
	AllowedOrigins  []string      `env:"PARTYHUB_ALLOWED_ORIGINS" envSeparator:","`
	ShutdownTimeout time.Duration `env:"PARTYHUB_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// Load parses the environment and validates the result
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks cross-field constraints the env tags cannot express
func (c Config) Validate() error {
	switch c.StorageType {
	case StorageTypeMemory:
	case StorageTypeRedis:
		if c.RedisURL == "" {
			return errors.New("PARTYHUB_REDIS_URL is required when PARTYHUB_STORAGE_TYPE=redis")
		}
	default:
		return fmt.Errorf("invalid storage type %q: must be %q or %q", c.StorageType, StorageTypeMemory, StorageTypeRedis)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.ResumeTTL <= 0 || c.JoinTTL <= 0 {
		return errors.New("credential TTLs must be positive")
	}
	if c.SweepInterval < 0 {
		return errors.New("sweep interval must not be negative")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel converts LogLevel into a slog.Level
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
