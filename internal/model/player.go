package model

// ConnectionID is the opaque identifier of one client connection.
// It is the only notion of identity the server has.
type ConnectionID string

// Participant is a connection seated in a room
type Participant struct {
	ID          ConnectionID `json:"id"`
	DisplayName string       `json:"name"`
	Score       int          `json:"score"` // Reset only by rematch
}
