package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/partyhub/internal/config"
	"github.com/mcoot/partyhub/internal/dependencies/clock"
	"github.com/mcoot/partyhub/internal/dependencies/random"
	"github.com/mcoot/partyhub/internal/realtime"
	"github.com/mcoot/partyhub/internal/services/credential"
	"github.com/mcoot/partyhub/internal/services/games"
	"github.com/mcoot/partyhub/internal/services/ids"
	"github.com/mcoot/partyhub/internal/services/party"
	"github.com/mcoot/partyhub/internal/storage"
	"github.com/mcoot/partyhub/internal/storage/memory"
	redisstorage "github.com/mcoot/partyhub/internal/storage/redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	IDs             *ids.Generator
	Credentials     *credential.Service
	PartyController *party.Controller
	Registry        *games.Registry
	Router          *realtime.Router
}

// Config holds configuration for the application factory
type Config struct {
	// GamesCatalog is an optional YAML catalog loaded into the registry
	GamesCatalog string
	// Credentials holds token TTLs (optional)
	// If zero value, defaults to credential.DefaultConfig()
	Credentials credential.Config
	// Realtime holds router settings (optional)
	Realtime realtime.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// ConfigFromEnv converts the server configuration into factory settings
func ConfigFromEnv(cfg config.Config, logger *slog.Logger) Config {
	fc := Config{
		GamesCatalog: cfg.GamesCatalog,
		Credentials: credential.Config{
			ResumeTTL:   cfg.ResumeTTL,
			GameJoinTTL: cfg.JoinTTL,
		},
		Realtime: realtime.Config{
			SweepInterval: cfg.SweepInterval,
			EventBuffer:   realtime.DefaultConfig().EventBuffer,
		},
		Logger:      logger,
		StorageType: cfg.StorageType,
	}

	if cfg.StorageType == config.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		// The token index must outlive every credential it lists
		if cfg.ResumeTTL > redisCfg.CredentialIndexTTL {
			redisCfg.CredentialIndexTTL = cfg.ResumeTTL
		}
		fc.RedisConfig = &redisCfg
	}
	return fc
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = config.StorageTypeMemory
	}

	switch storageType {
	case config.StorageTypeMemory:
		store = memory.New()
	case config.StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	app := newWithDependencies(store, clk, rnd, cfg.Credentials, cfg.Realtime, logger)

	if cfg.GamesCatalog != "" {
		if err := app.Registry.LoadFile(cfg.GamesCatalog); err != nil {
			return nil, fmt.Errorf("load games catalog: %w", err)
		}
	}

	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	credCfg credential.Config,
	rtCfg realtime.Config,
	logger *slog.Logger,
) *App {
	if rtCfg == (realtime.Config{}) {
		rtCfg = realtime.DefaultConfig()
	}

	idGen := ids.New(rnd)
	credentials := credential.New(store, clk, rnd, credCfg, logger)
	partyController := party.NewController(store, credentials, idGen, clk, logger)
	registry := games.New(logger)
	router := realtime.NewRouter(partyController, credentials, registry, rtCfg, logger)

	return &App{
		Storage:         store,
		Clock:           clk,
		Random:          rnd,
		IDs:             idGen,
		Credentials:     credentials,
		PartyController: partyController,
		Registry:        registry,
		Router:          router,
	}
}

// Close releases storage resources held by the app
func (a *App) Close() error {
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
