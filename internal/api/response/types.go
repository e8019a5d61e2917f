package response

import "github.com/rajachanda/rps/internal/model"

// HealthResponse is returned by the health check
type HealthResponse struct {
	Status string `json:"status"`
}

// RoomResponse wraps a room snapshot
type RoomResponse struct {
	Room model.Snapshot `json:"room"`
}

// StatsResponse reports live counts
type StatsResponse struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}
