package storage

import (
	"context"

	"github.com/rajachanda/rps/internal/model"
)

// Storage is the room table. Implementations are not required to be
// safe for concurrent mutation of the same room; callers serialize.
type Storage interface {
	SaveRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, code model.RoomCode) (*model.Room, error)
	DeleteRoom(ctx context.Context, code model.RoomCode) error
	RoomExists(ctx context.Context, code model.RoomCode) (bool, error)
	// ListRooms returns every live room in no particular order
	ListRooms(ctx context.Context) ([]*model.Room, error)
}
