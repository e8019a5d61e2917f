package ws

import (
	"net/http"
	"slices"
	"time"
)

// Config holds websocket connection settings
type Config struct {
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration // Closed if no pong arrives within this window
	PingInterval   time.Duration
	MaxMessageSize int64
	SendBuffer     int
	AllowedOrigins []string // "*" allows any origin
}

// DefaultConfig returns default websocket settings
func DefaultConfig() Config {
	return Config{
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 4096,
		SendBuffer:     64,
		AllowedOrigins: []string{"http://localhost:5173"},
	}
}

// checkOrigin accepts same-origin requests (no Origin header) and the
// configured browser origins
func (c Config) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(c.AllowedOrigins, "*") || slices.Contains(c.AllowedOrigins, origin)
}
