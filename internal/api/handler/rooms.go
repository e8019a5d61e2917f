package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rajachanda/rps/internal/api/apierr"
	"github.com/rajachanda/rps/internal/api/response"
	"github.com/rajachanda/rps/internal/model"
)

// RoomReader exposes read-only room state
type RoomReader interface {
	Snapshot(ctx context.Context, code model.RoomCode) (model.Snapshot, error)
	RoomCount(ctx context.Context) (int, error)
}

// ConnectionCounter reports live websocket connections
type ConnectionCounter interface {
	Count() int
}

// RoomHandler serves read-only room endpoints
type RoomHandler struct {
	rooms       RoomReader
	connections ConnectionCounter
}

// NewRoomHandler creates a RoomHandler
func NewRoomHandler(rooms RoomReader, connections ConnectionCounter) *RoomHandler {
	return &RoomHandler{rooms: rooms, connections: connections}
}

// Get handles GET /rooms/{code}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	if code == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("room code is required"))
		return
	}

	snap, err := h.rooms.Snapshot(r.Context(), model.RoomCode(code))
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RoomResponse{Room: snap})
}

// Stats handles GET /stats
func (h *RoomHandler) Stats(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.rooms.RoomCount(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.StatsResponse{
		Rooms:       rooms,
		Connections: h.connections.Count(),
	})
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.HealthResponse{Status: "ok"})
}
