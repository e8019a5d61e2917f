package model

import "errors"

// Common errors used across the application
var (
	// Join errors, reported back to the requesting connection
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrGameInProgress = errors.New("game already in progress")

	// Ignored commands: dropped without any event
	ErrNotHost             = errors.New("connection is not the host")
	ErrNotParticipant      = errors.New("connection is not in the room")
	ErrWrongPhase          = errors.New("command not valid in current phase")
	ErrInsufficientPlayers = errors.New("two players are required")
	ErrRoundResolved       = errors.New("round already resolved")
	ErrInvalidChoice       = errors.New("invalid choice")

	// Storage errors
	ErrEmptyRoom = errors.New("room has no participants")
)

// userErrorMessages are shown to the client verbatim
var userErrorMessages = map[error]string{
	ErrRoomNotFound:   "Room not found",
	ErrRoomFull:       "Room is full",
	ErrGameInProgress: "Game already in progress",
}

// IsUserError reports whether err should be reported to the requester
func IsUserError(err error) bool {
	_, ok := userMessage(err)
	return ok
}

// UserMessage returns the client-facing message for a user error
func UserMessage(err error) string {
	msg, ok := userMessage(err)
	if !ok {
		return "Something went wrong"
	}
	return msg
}

func userMessage(err error) (string, bool) {
	for target, msg := range userErrorMessages {
		if errors.Is(err, target) {
			return msg, true
		}
	}
	return "", false
}

var ignoredErrors = []error{
	ErrRoomNotFound,
	ErrNotHost,
	ErrNotParticipant,
	ErrWrongPhase,
	ErrInsufficientPlayers,
	ErrRoundResolved,
	ErrInvalidChoice,
}

// IsIgnored reports whether err marks a command that should be dropped
// silently. A missing room is ignored for every command except joins.
func IsIgnored(err error) bool {
	for _, target := range ignoredErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
