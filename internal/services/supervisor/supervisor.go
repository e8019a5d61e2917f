package supervisor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rajachanda/rps/internal/model"
	"github.com/rajachanda/rps/internal/services/registry"
)

// Broadcaster pushes events to the participants of a room
type Broadcaster interface {
	ToRoom(room *model.Room, event model.Event)
}

// TimerCanceller drops scheduled work for a room that no longer exists
type TimerCanceller interface {
	Forget(code model.RoomCode)
}

// Supervisor reacts to lost connections. Like the match engine it must
// be called inside the serialization domain.
type Supervisor struct {
	registry    *registry.Registry
	timers      TimerCanceller
	broadcaster Broadcaster
	logger      *slog.Logger
}

// New creates a Supervisor
func New(
	registry *registry.Registry,
	timers TimerCanceller,
	broadcaster Broadcaster,
	logger *slog.Logger,
) *Supervisor {
	return &Supervisor{
		registry:    registry,
		timers:      timers,
		broadcaster: broadcaster,
		logger:      logger.With(slog.String("component", "supervisor")),
	}
}

// OnDisconnect removes id from its room. An emptied room is deleted;
// otherwise the host role moves to the survivor if needed and the survivor
// is told. The match phase is left as it was, so a match that loses a
// player mid-game stays in playing until the room is swept.
func (s *Supervisor) OnDisconnect(ctx context.Context, id model.ConnectionID) error {
	room, err := s.registry.LookupByConnection(ctx, id)
	if errors.Is(err, model.ErrRoomNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	room.RemoveParticipant(id)

	if len(room.Participants) == 0 {
		s.timers.Forget(room.Code)
		if err := s.registry.DeleteRoom(ctx, room.Code); err != nil {
			return err
		}
		s.logger.Info("last player left, room removed",
			slog.String("room_code", string(room.Code)),
			slog.String("connection_id", string(id)))
		return nil
	}

	if room.HostID == id {
		room.HostID = room.Participants[0].ID
		s.logger.Info("host reassigned",
			slog.String("room_code", string(room.Code)),
			slog.String("host_id", string(room.HostID)))
	}

	if err := s.registry.Save(ctx, room); err != nil {
		return err
	}

	s.logger.Info("player left room",
		slog.String("room_code", string(room.Code)),
		slog.String("connection_id", string(id)),
		slog.String("phase", string(room.Phase)))

	s.broadcaster.ToRoom(room, model.NewRoomEvent(model.EventPlayerDisconnected, room))
	return nil
}
