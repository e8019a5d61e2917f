package redis

import (
	"fmt"

	"github.com/rajachanda/rps/internal/model"
)

// Key prefix for all room data
const keyPrefix = "rps"

// roomKey returns the Redis key for a Room
func roomKey(code model.RoomCode) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, code)
}

// roomIndexKey returns the Redis key for the SET of live room codes
func roomIndexKey() string {
	return fmt.Sprintf("%s:idx:rooms", keyPrefix)
}
