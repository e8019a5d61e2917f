package ws

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rajachanda/rps/internal/model"
)

// Client is one websocket connection
type Client struct {
	id          model.ConnectionID
	conn        *websocket.Conn
	send        chan []byte
	connectedAt time.Time
}

// ID returns the connection id
func (c *Client) ID() model.ConnectionID {
	return c.id
}

// writePump drains the send queue and keeps the connection alive with pings.
// It is the only writer on the connection.
func (c *Client) writePump(cfg Config, logger *slog.Logger) {
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Debug("ws write failed",
					slog.String("connection_id", string(c.id)),
					slog.Any("error", err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump feeds inbound frames to the handler until the connection
// ends, then reports the disconnect
func (c *Client) readPump(ctx context.Context, hub *Hub, handler Handler, cfg Config, logger *slog.Logger) {
	defer func() {
		hub.Unregister(c)
		_ = c.conn.Close()
		handler.HandleDisconnect(ctx, c.id)
	}()

	c.conn.SetReadLimit(cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})

	for {
		kind, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Info("ws connection lost",
					slog.String("connection_id", string(c.id)),
					slog.Any("error", err))
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		handler.HandleMessage(ctx, c.id, message)
		_ = c.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	}
}
