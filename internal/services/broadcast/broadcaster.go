package broadcast

import (
	"log/slog"

	"github.com/rajachanda/rps/internal/model"
	"github.com/rajachanda/rps/internal/protocol"
)

// Transport delivers an encoded frame to one connection without blocking.
// It returns false when the frame was dropped.
type Transport interface {
	Send(id model.ConnectionID, msg []byte) bool
}

// Broadcaster is the single point that pushes events to connections.
// It never mutates rooms; callers commit their change first and hand over
// the committed room, so the recipients are exactly its participants.
type Broadcaster struct {
	transport Transport
	logger    *slog.Logger
}

// New creates a Broadcaster
func New(transport Transport, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		transport: transport,
		logger:    logger.With(slog.String("component", "broadcaster")),
	}
}

// ToRoom delivers event to every participant listed in room
func (b *Broadcaster) ToRoom(room *model.Room, event model.Event) {
	msg, ok := b.encode(event)
	if !ok {
		return
	}

	dropped := 0
	for _, p := range room.Participants {
		if !b.transport.Send(p.ID, msg) {
			dropped++
		}
	}

	if dropped > 0 {
		b.logger.Warn("broadcast partial failure",
			slog.String("room_code", string(room.Code)),
			slog.String("event", string(event.Name)),
			slog.Int("sent", len(room.Participants)-dropped),
			slog.Int("dropped", dropped))
	}
}

// ToConnection delivers event to a single connection
func (b *Broadcaster) ToConnection(id model.ConnectionID, event model.Event) {
	msg, ok := b.encode(event)
	if !ok {
		return
	}
	if !b.transport.Send(id, msg) {
		b.logger.Warn("message dropped",
			slog.String("connection_id", string(id)),
			slog.String("event", string(event.Name)))
	}
}

func (b *Broadcaster) encode(event model.Event) ([]byte, bool) {
	msg, err := protocol.EncodeEvent(event)
	if err != nil {
		b.logger.Error("failed to encode event",
			slog.String("event", string(event.Name)),
			slog.Any("error", err))
		return nil, false
	}
	return msg, true
}
