package model

import "time"

// RoomCode is the short code players use to join a room
type RoomCode string

// Phase is the match-level state of a room
type Phase string

const (
	PhaseWaiting  Phase = "waiting"  // Gathering players or after a rematch
	PhasePlaying  Phase = "playing"  // Rounds in progress
	PhaseFinished Phase = "finished" // Someone reached the target score
)

// MaxParticipants is the number of seats in a room
const MaxParticipants = 2

// DefaultTargetScore is used when a room is created without a positive target
const DefaultTargetScore = 5

// Room pairs up to two participants for one match
type Room struct {
	Code           RoomCode                `json:"code"`
	HostID         ConnectionID            `json:"host"`
	Participants   []Participant           `json:"players"`
	TargetScore    int                     `json:"targetScore"`
	Phase          Phase                   `json:"gameState"`
	CurrentRound   int                     `json:"currentRound"`
	PendingChoices map[ConnectionID]Choice `json:"currentChoices"`
	CreatedAt      time.Time               `json:"createdAt"`

	// Epoch changes on every start and rematch so scheduled callbacks
	// can detect that the match they were scheduled for is gone.
	Epoch uint64 `json:"epoch"`
	// RoundResolved is set between a round-result and the next round-start
	RoundResolved bool `json:"roundResolved"`
}

// GetParticipant returns the participant with the given id, or nil
func (r *Room) GetParticipant(id ConnectionID) *Participant {
	for i := range r.Participants {
		if r.Participants[i].ID == id {
			return &r.Participants[i]
		}
	}
	return nil
}

// HasParticipant reports whether id holds a seat in the room
func (r *Room) HasParticipant(id ConnectionID) bool {
	return r.GetParticipant(id) != nil
}

// IsHost reports whether id is the current host
func (r *Room) IsHost(id ConnectionID) bool {
	return r.HostID != "" && r.HostID == id
}

// IsFull reports whether both seats are taken
func (r *Room) IsFull() bool {
	return len(r.Participants) >= MaxParticipants
}

// RemoveParticipant drops a participant, preserving the order of the rest.
// Returns false if id was not seated.
func (r *Room) RemoveParticipant(id ConnectionID) bool {
	for i, p := range r.Participants {
		if p.ID == id {
			r.Participants = append(r.Participants[:i], r.Participants[i+1:]...)
			delete(r.PendingChoices, id)
			return true
		}
	}
	return false
}

// AllChosen reports whether every seated participant has a pending choice
// and the room is full
func (r *Room) AllChosen() bool {
	if len(r.Participants) != MaxParticipants {
		return false
	}
	for _, p := range r.Participants {
		if _, ok := r.PendingChoices[p.ID]; !ok {
			return false
		}
	}
	return true
}

// Leader returns the first participant, in seat order, whose score has
// reached the target, or nil
func (r *Room) Leader() *Participant {
	for i := range r.Participants {
		if r.Participants[i].Score >= r.TargetScore {
			return &r.Participants[i]
		}
	}
	return nil
}

// ResetMatch puts the room back in the waiting phase with zeroed scores
func (r *Room) ResetMatch() {
	for i := range r.Participants {
		r.Participants[i].Score = 0
	}
	r.CurrentRound = 1
	r.Phase = PhaseWaiting
	r.PendingChoices = make(map[ConnectionID]Choice)
	r.RoundResolved = false
	r.Epoch++
}

// Snapshot is the client-facing view of a room
type Snapshot struct {
	Code           RoomCode                `json:"code"`
	HostID         ConnectionID            `json:"host"`
	Participants   []Participant           `json:"players"`
	TargetScore    int                     `json:"targetScore"`
	Phase          Phase                   `json:"gameState"`
	CurrentRound   int                     `json:"currentRound"`
	PendingChoices map[ConnectionID]Choice `json:"currentChoices"`
	CreatedAt      int64                   `json:"createdAt"` // Unix milliseconds
}

// Snapshot copies the room into its wire form. The copy shares no memory
// with the room, so later mutations do not leak into queued events.
func (r *Room) Snapshot() Snapshot {
	participants := make([]Participant, len(r.Participants))
	copy(participants, r.Participants)
	choices := make(map[ConnectionID]Choice, len(r.PendingChoices))
	for id, c := range r.PendingChoices {
		choices[id] = c
	}
	return Snapshot{
		Code:           r.Code,
		HostID:         r.HostID,
		Participants:   participants,
		TargetScore:    r.TargetScore,
		Phase:          r.Phase,
		CurrentRound:   r.CurrentRound,
		PendingChoices: choices,
		CreatedAt:      r.CreatedAt.UnixMilli(),
	}
}
