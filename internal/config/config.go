package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

// Config is the server configuration
type Config struct {
	Bind    string
	Port    int
	Storage string

	RedisURL string
	RoomTTL  time.Duration

	SweepInterval time.Duration
	RoomMaxAge    time.Duration

	StartDelay         time.Duration
	RoundDelay         time.Duration
	Countdown          int
	DefaultTargetScore int

	AllowedOrigins []string
	LogLevel       string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Default returns the configuration used when nothing is overridden
func Default() Config {
	return Config{
		Bind:               "0.0.0.0",
		Port:               3001,
		Storage:            StorageMemory,
		RoomTTL:            2 * time.Hour,
		SweepInterval:      30 * time.Minute,
		RoomMaxAge:         time.Hour,
		StartDelay:         3 * time.Second,
		RoundDelay:         3 * time.Second,
		Countdown:          10,
		DefaultTargetScore: 5,
		AllowedOrigins:     []string{"http://localhost:5173"},
		LogLevel:           "info",
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       15 * time.Second,
		ShutdownTimeout:    30 * time.Second,
	}
}

// Validate checks the configuration for values the server cannot run with
func (c Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port))
	}

	switch c.Storage {
	case StorageMemory:
	case StorageRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("--redis-url is required when --storage=redis"))
		}
		if c.RoomTTL < c.RoomMaxAge {
			errs = append(errs, fmt.Errorf("room-ttl (%s) must not be shorter than room-max-age (%s)", c.RoomTTL, c.RoomMaxAge))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid storage %q: must be %q or %q", c.Storage, StorageMemory, StorageRedis))
	}

	for name, d := range map[string]time.Duration{
		"sweep-interval":   c.SweepInterval,
		"room-max-age":     c.RoomMaxAge,
		"read-timeout":     c.ReadTimeout,
		"write-timeout":    c.WriteTimeout,
		"shutdown-timeout": c.ShutdownTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.StartDelay < 0 || c.RoundDelay < 0 {
		errs = append(errs, errors.New("start-delay and round-delay must not be negative"))
	}

	if c.Countdown < 1 {
		errs = append(errs, fmt.Errorf("countdown must be at least 1, got %d", c.Countdown))
	}
	if c.DefaultTargetScore < 1 {
		errs = append(errs, fmt.Errorf("default-target-score must be at least 1, got %d", c.DefaultTargetScore))
	}

	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Addr returns the listen address
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// Level parses LogLevel
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log-level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
