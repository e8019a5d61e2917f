package registry

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rajachanda/rps/internal/dependencies/clock"
	"github.com/rajachanda/rps/internal/dependencies/random"
	"github.com/rajachanda/rps/internal/model"
	"github.com/rajachanda/rps/internal/storage"
)

const (
	// RoomCodeLength is the length of generated room codes
	RoomCodeLength = 6
	// RoomCodeAlphabet is the characters used in room codes
	RoomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Registry owns the room table: creation, joining, lookup and expiry.
// It knows nothing about rounds.
type Registry struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// New creates a Registry
func New(
	storage storage.Storage,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Registry {
	return &Registry{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger.With(slog.String("component", "registry")),
	}
}

// NormalizeCode trims and upper-cases a user-entered room code
func NormalizeCode(code string) model.RoomCode {
	return model.RoomCode(strings.ToUpper(strings.TrimSpace(code)))
}

// CreateRoom creates a waiting room with the host as its only participant.
// A non-positive targetScore falls back to the default.
func (r *Registry) CreateRoom(ctx context.Context, hostID model.ConnectionID, hostName string, targetScore int) (*model.Room, error) {
	code, err := r.newCode(ctx)
	if err != nil {
		return nil, err
	}

	if targetScore <= 0 {
		targetScore = model.DefaultTargetScore
	}

	room := &model.Room{
		Code:   code,
		HostID: hostID,
		Participants: []model.Participant{
			{ID: hostID, DisplayName: hostName, Score: 0},
		},
		TargetScore:    targetScore,
		Phase:          model.PhaseWaiting,
		CurrentRound:   0,
		PendingChoices: make(map[model.ConnectionID]model.Choice),
		CreatedAt:      r.clock.Now(),
	}

	if err := r.storage.SaveRoom(ctx, room); err != nil {
		r.logger.Error("failed to save room",
			slog.String("room_code", string(code)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	r.logger.Info("room created",
		slog.String("room_code", string(code)),
		slog.String("host_id", string(hostID)),
		slog.Int("target_score", targetScore),
	)

	return room, nil
}

// newCode draws codes until one is unused
func (r *Registry) newCode(ctx context.Context) (model.RoomCode, error) {
	for {
		code := model.RoomCode(r.random.String(RoomCodeLength, RoomCodeAlphabet))
		exists, err := r.storage.RoomExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("checking room code: %w", err)
		}
		if !exists {
			return code, nil
		}
		r.logger.Debug("room code collision, retrying", slog.String("room_code", string(code)))
	}
}

// JoinRoom seats a second participant. It does not broadcast.
func (r *Registry) JoinRoom(ctx context.Context, code model.RoomCode, id model.ConnectionID, name string) (*model.Room, error) {
	room, err := r.CheckJoinable(ctx, code)
	if err != nil {
		return nil, err
	}

	room.Participants = append(room.Participants, model.Participant{
		ID:          id,
		DisplayName: name,
		Score:       0,
	})

	if err := r.storage.SaveRoom(ctx, room); err != nil {
		return nil, err
	}

	r.logger.Info("player joined room",
		slog.String("room_code", string(code)),
		slog.String("connection_id", string(id)),
		slog.Int("player_count", len(room.Participants)),
	)

	return room, nil
}

// CheckJoinable returns the room if a new participant could take a seat in it
func (r *Registry) CheckJoinable(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	room, err := r.storage.GetRoom(ctx, code)
	if err != nil {
		return nil, err
	}
	if room.IsFull() {
		return nil, model.ErrRoomFull
	}
	if room.Phase != model.PhaseWaiting {
		return nil, model.ErrGameInProgress
	}
	return room, nil
}

// LookupByCode returns the room with the given code
func (r *Registry) LookupByCode(ctx context.Context, code model.RoomCode) (*model.Room, error) {
	return r.storage.GetRoom(ctx, code)
}

// LookupByConnection returns the room id is seated in.
// Rooms are few, so a scan is fine.
func (r *Registry) LookupByConnection(ctx context.Context, id model.ConnectionID) (*model.Room, error) {
	rooms, err := r.storage.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	for _, room := range rooms {
		if room.HasParticipant(id) {
			return room, nil
		}
	}
	return nil, model.ErrRoomNotFound
}

// Save persists a mutated room. Rooms without participants are refused;
// they must be deleted instead.
func (r *Registry) Save(ctx context.Context, room *model.Room) error {
	return r.storage.SaveRoom(ctx, room)
}

// DeleteRoom removes a room. Deleting a missing room is not an error.
func (r *Registry) DeleteRoom(ctx context.Context, code model.RoomCode) error {
	if err := r.storage.DeleteRoom(ctx, code); err != nil {
		return err
	}
	r.logger.Info("room deleted", slog.String("room_code", string(code)))
	return nil
}

// SweepExpired deletes every room created more than maxAge ago and
// returns the deleted codes
func (r *Registry) SweepExpired(ctx context.Context, maxAge time.Duration) ([]model.RoomCode, error) {
	rooms, err := r.storage.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	cutoff := r.clock.Now().Add(-maxAge)
	var removed []model.RoomCode
	for _, room := range rooms {
		if !room.CreatedAt.Before(cutoff) {
			continue
		}
		if err := r.storage.DeleteRoom(ctx, room.Code); err != nil {
			return removed, err
		}
		removed = append(removed, room.Code)
	}

	if len(removed) > 0 {
		r.logger.Info("expired rooms swept",
			slog.Int("removed", len(removed)),
			slog.Int("remaining", len(rooms)-len(removed)),
		)
	}
	return removed, nil
}

// Count returns the number of live rooms
func (r *Registry) Count(ctx context.Context) (int, error) {
	rooms, err := r.storage.ListRooms(ctx)
	if err != nil {
		return 0, err
	}
	return len(rooms), nil
}
