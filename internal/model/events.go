package model

// EventName identifies an outbound event
type EventName string

const (
	// Connection events
	EventConnected EventName = "connected"

	// Room events
	EventRoomCreated        EventName = "room-created"
	EventRoomJoined         EventName = "room-joined"
	EventPlayerJoined       EventName = "player-joined"
	EventJoinError          EventName = "join-error"
	EventPlayerDisconnected EventName = "player-disconnected"

	// Match events
	EventGameStarted  EventName = "game-started"
	EventRoundStart   EventName = "round-start"
	EventRoundResult  EventName = "round-result"
	EventGameOver     EventName = "game-over"
	EventRematchReady EventName = "rematch-ready"

	// Single-player events
	EventAIResult EventName = "ai-result"
)

// Event is a named payload pushed to one or more connections
type Event struct {
	Name    EventName
	Payload any
}

// ConnectedPayload tells a new connection its own id
type ConnectedPayload struct {
	ConnectionID ConnectionID `json:"connectionId"`
}

// RoomCreatedPayload is sent to the creator of a room
type RoomCreatedPayload struct {
	RoomCode RoomCode `json:"roomCode"`
	Room     Snapshot `json:"room"`
}

// RoomPayload carries only the room snapshot
type RoomPayload struct {
	Room Snapshot `json:"room"`
}

// JoinErrorPayload explains why a join failed
type JoinErrorPayload struct {
	Message string `json:"message"`
}

// RoundStartPayload announces a new round and its advisory countdown
type RoundStartPayload struct {
	Round     int `json:"round"`
	Countdown int `json:"countdown"`
}

// RoundResultPayload reports a resolved round
type RoundResultPayload struct {
	Choices map[ConnectionID]Choice `json:"choices"`
	Result  RoundOutcome            `json:"result"`
	Room    Snapshot                `json:"room"`
}

// GameOverPayload names the match winner
type GameOverPayload struct {
	Winner Participant `json:"winner"`
	Room   Snapshot    `json:"room"`
}

// AIResultPayload reports a single-player round
type AIResultPayload struct {
	PlayerChoice Choice      `json:"playerChoice"`
	AIChoice     Choice      `json:"aiChoice"`
	Result       OutcomeKind `json:"result"`
	Message      string      `json:"message"`
}

// NewRoomEvent builds an event whose payload is just the room snapshot
func NewRoomEvent(name EventName, room *Room) Event {
	return Event{Name: name, Payload: RoomPayload{Room: room.Snapshot()}}
}
