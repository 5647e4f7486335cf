package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, StorageTypeMemory, cfg.StorageType)
	assert.Equal(t, 24*time.Hour, cfg.ResumeTTL)
	assert.Equal(t, time.Hour, cfg.JoinTTL)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.AllowedOrigins)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PARTYHUB_PORT", "9090")
	t.Setenv("PARTYHUB_LOG_LEVEL", "debug")
	t.Setenv("PARTYHUB_STORAGE_TYPE", "redis")
	t.Setenv("PARTYHUB_REDIS_URL", "redis://cache:6379/1")
	t.Setenv("PARTYHUB_RESUME_TTL", "2h")
	t.Setenv("PARTYHUB_SWEEP_INTERVAL", "0s")
	t.Setenv("PARTYHUB_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("PARTYHUB_GAMES_CATALOG", "games.yaml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, StorageTypeRedis, cfg.StorageType)
	assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
	assert.Equal(t, 2*time.Hour, cfg.ResumeTTL)
	assert.Zero(t, cfg.SweepInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "games.yaml", cfg.GamesCatalog)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("PARTYHUB_PORT", "not-a-port")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Port:        8080,
			LogLevel:    "info",
			StorageType: StorageTypeMemory,
			ResumeTTL:   time.Hour,
			JoinTTL:     time.Hour,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"redis without url", func(c *Config) { c.StorageType = StorageTypeRedis }, "PARTYHUB_REDIS_URL"},
		{"unknown storage", func(c *Config) { c.StorageType = "sqlite" }, "invalid storage type"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "invalid port"},
		{"zero ttl", func(c *Config) { c.JoinTTL = 0 }, "TTLs must be positive"},
		{"negative sweep", func(c *Config) { c.SweepInterval = -time.Second }, "sweep interval"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
