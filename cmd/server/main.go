package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rajachanda/rps/internal/api"
	"github.com/rajachanda/rps/internal/config"
	"github.com/rajachanda/rps/internal/factory"
	"github.com/rajachanda/rps/internal/services/coordinator"
	"github.com/rajachanda/rps/internal/services/match"
	redisstorage "github.com/rajachanda/rps/internal/storage/redis"
	"github.com/rajachanda/rps/internal/web/ws"
)

func main() {
	// A missing .env is fine; anything else is worth a warning
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: could not load .env file: %v\n", err)
	}

	cfg := config.Default()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newCmd(&cfg).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCmd(cfg *config.Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("RPS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Rock-paper-scissors room server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), *cfg)
		},
	}

	fs := cmd.Flags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", cfg.Bind, "address to bind to (env: RPS_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on (env: RPS_PORT)")
	fs.StringVar(&cfg.Storage, "storage", cfg.Storage, "room table backend: memory or redis (env: RPS_STORAGE)")
	fs.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "redis connection url (env: RPS_REDIS_URL)")
	fs.DurationVar(&cfg.RoomTTL, "room-ttl", cfg.RoomTTL, "expiry of rooms stored in redis (env: RPS_ROOM_TTL)")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "how often old rooms are swept (env: RPS_SWEEP_INTERVAL)")
	fs.DurationVar(&cfg.RoomMaxAge, "room-max-age", cfg.RoomMaxAge, "age after which rooms are swept (env: RPS_ROOM_MAX_AGE)")
	fs.DurationVar(&cfg.StartDelay, "start-delay", cfg.StartDelay, "pause between game start and round one (env: RPS_START_DELAY)")
	fs.DurationVar(&cfg.RoundDelay, "round-delay", cfg.RoundDelay, "pause between a round result and the next round (env: RPS_ROUND_DELAY)")
	fs.IntVar(&cfg.Countdown, "countdown", cfg.Countdown, "advisory round countdown sent to clients (env: RPS_COUNTDOWN)")
	fs.IntVar(&cfg.DefaultTargetScore, "default-target-score", cfg.DefaultTargetScore, "score needed to win when a room does not set one (env: RPS_DEFAULT_TARGET_SCORE)")
	fs.StringSliceVar(&cfg.AllowedOrigins, "allowed-origins", cfg.AllowedOrigins, "browser origins allowed to connect (env: RPS_ALLOWED_ORIGINS)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error (env: RPS_LOG_LEVEL)")
	fs.DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "http read timeout (env: RPS_READ_TIMEOUT)")
	fs.DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "http write timeout (env: RPS_WRITE_TIMEOUT)")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "grace period for shutdown (env: RPS_SHUTDOWN_TIMEOUT)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func run(ctx context.Context, cfg config.Config) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	factoryCfg := factory.Config{
		Logger:      logger,
		StorageType: cfg.Storage,
		Match: match.Config{
			StartDelay: cfg.StartDelay,
			RoundDelay: cfg.RoundDelay,
			Countdown:  cfg.Countdown,
		},
		Rooms: coordinator.Config{DefaultTargetScore: cfg.DefaultTargetScore},
	}
	if cfg.Storage == config.StorageRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.RedisURL
		redisCfg.RoomTTL = cfg.RoomTTL
		factoryCfg.RedisConfig = &redisCfg
	}

	app, err := factory.New(factoryCfg)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	wsCfg := ws.DefaultConfig()
	wsCfg.AllowedOrigins = cfg.AllowedOrigins

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Coordinator:    app.Coordinator,
		Hub:            app.Hub,
		WS:             wsCfg,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	server := api.NewServer(router, api.ServerConfig{
		Host:            cfg.Bind,
		Port:            cfg.Port,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)
	server.OnShutdown(app.Hub.CloseAll)

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go app.Coordinator.RunSweeper(sweepCtx, cfg.SweepInterval, cfg.RoomMaxAge)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.Storage))

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}
