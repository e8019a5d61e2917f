package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rajachanda/rps/internal/model"
)

// Handler receives the lifecycle of every connection
type Handler interface {
	HandleConnect(ctx context.Context, id model.ConnectionID)
	HandleMessage(ctx context.Context, id model.ConnectionID, raw []byte)
	HandleDisconnect(ctx context.Context, id model.ConnectionID)
}

// Endpoint upgrades HTTP requests into hub connections
type Endpoint struct {
	hub      *Hub
	handler  Handler
	config   Config
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewEndpoint creates an Endpoint
func NewEndpoint(hub *Hub, handler Handler, config Config, logger *slog.Logger) *Endpoint {
	return &Endpoint{
		hub:     hub,
		handler: handler,
		config:  config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     config.checkOrigin,
		},
		logger: logger.With(slog.String("component", "ws")),
	}
}

// ServeHTTP upgrades the request, assigns a fresh connection id and
// starts the connection's pumps
func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an error response
		e.logger.Warn("ws upgrade failed", slog.Any("error", err))
		return
	}

	client := &Client{
		id:          model.ConnectionID(uuid.NewString()),
		conn:        conn,
		send:        make(chan []byte, e.config.SendBuffer),
		connectedAt: time.Now(),
	}

	// The request context ends when this handler returns
	ctx := context.WithoutCancel(r.Context())

	e.hub.Register(client)
	e.handler.HandleConnect(ctx, client.id)

	go client.writePump(e.config, e.logger)
	go client.readPump(ctx, e.hub, e.handler, e.config, e.logger)
}
