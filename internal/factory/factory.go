package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/rajachanda/rps/internal/dependencies/clock"
	"github.com/rajachanda/rps/internal/dependencies/random"
	"github.com/rajachanda/rps/internal/dependencies/serial"
	"github.com/rajachanda/rps/internal/model"
	"github.com/rajachanda/rps/internal/services/bot"
	"github.com/rajachanda/rps/internal/services/broadcast"
	"github.com/rajachanda/rps/internal/services/coordinator"
	"github.com/rajachanda/rps/internal/services/match"
	"github.com/rajachanda/rps/internal/services/registry"
	"github.com/rajachanda/rps/internal/services/supervisor"
	"github.com/rajachanda/rps/internal/storage"
	"github.com/rajachanda/rps/internal/storage/memory"
	redisstorage "github.com/rajachanda/rps/internal/storage/redis"
	"github.com/rajachanda/rps/internal/web/ws"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random
	Domain *serial.Domain

	// Services
	Registry    *registry.Registry
	Engine      *match.Engine
	Supervisor  *supervisor.Supervisor
	Broadcaster *broadcast.Broadcaster
	Bot         *bot.Service
	Coordinator *coordinator.Coordinator

	// Hub is the live websocket transport. It is nil when the app was
	// built around another transport.
	Hub *ws.Hub
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// Match sets round pacing (optional)
	// If zero value, defaults to match.DefaultConfig()
	Match match.Config
	// Rooms sets room defaults (optional)
	Rooms coordinator.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
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

	hub := ws.NewHub(logger)
	app := newWithDependencies(store, clock.New(), random.New(), hub, cfg, logger)
	app.Hub = hub
	return app, nil
}

// Close releases the storage backend. Call it once the server has stopped.
func (a *App) Close() error {
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	transport broadcast.Transport,
	cfg Config,
	logger *slog.Logger,
) *App {
	matchCfg := cfg.Match
	if matchCfg == (match.Config{}) {
		matchCfg = match.DefaultConfig()
	}
	roomCfg := cfg.Rooms
	if roomCfg.DefaultTargetScore <= 0 {
		roomCfg.DefaultTargetScore = model.DefaultTargetScore
	}

	domain := serial.New(clk)
	reg := registry.New(store, clk, rnd, logger)
	broadcaster := broadcast.New(transport, logger)
	engine := match.New(reg, broadcaster, domain, matchCfg, logger)
	sup := supervisor.New(reg, engine, broadcaster, logger)
	botService := bot.NewService(bot.NewRandomStrategy(rnd), logger)
	coord := coordinator.New(domain, reg, engine, sup, botService, broadcaster, roomCfg, logger)

	return &App{
		Storage:     store,
		Clock:       clk,
		Random:      rnd,
		Domain:      domain,
		Registry:    reg,
		Engine:      engine,
		Supervisor:  sup,
		Broadcaster: broadcaster,
		Bot:         botService,
		Coordinator: coord,
	}
}
