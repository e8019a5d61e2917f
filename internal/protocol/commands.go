package protocol

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rajachanda/rps/internal/model"
)

// CommandType identifies an inbound command
type CommandType string

const (
	CmdCreateRoom   CommandType = "create-room"
	CmdJoinRoom     CommandType = "join-room"
	CmdStartGame    CommandType = "start-game"
	CmdPlayerChoice CommandType = "player-choice"
	CmdRematch      CommandType = "rematch"
	CmdPlayAI       CommandType = "play-ai"
)

const (
	// MaxNameLength bounds display names, in runes
	MaxNameLength = 24
	// MaxTargetScore bounds the score needed to win a match
	MaxTargetScore = 99
)

var (
	ErrMalformed      = errors.New("malformed message")
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidPayload = errors.New("invalid payload")
)

// Command is one of the closed set of client commands.
// Validate normalizes the payload in place.
type Command interface {
	Type() CommandType
	Validate() error
}

// CreateRoom asks for a new room hosted by the sender
type CreateRoom struct {
	PlayerName  string `json:"playerName"`
	TargetScore int    `json:"targetScore,omitempty"`
}

// JoinRoom asks to take the second seat of a room
type JoinRoom struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

// StartGame asks the host's room to begin a match
type StartGame struct {
	RoomCode string `json:"roomCode"`
}

// PlayerChoice submits the sender's choice for the current round
type PlayerChoice struct {
	RoomCode string       `json:"roomCode"`
	Choice   model.Choice `json:"choice"`
}

// Rematch resets a room's match
type Rematch struct {
	RoomCode string `json:"roomCode"`
}

// PlayAI plays one round against the server's random opponent
type PlayAI struct {
	Choice model.Choice `json:"choice"`
}

func (*CreateRoom) Type() CommandType   { return CmdCreateRoom }
func (*JoinRoom) Type() CommandType     { return CmdJoinRoom }
func (*StartGame) Type() CommandType    { return CmdStartGame }
func (*PlayerChoice) Type() CommandType { return CmdPlayerChoice }
func (*Rematch) Type() CommandType      { return CmdRematch }
func (*PlayAI) Type() CommandType       { return CmdPlayAI }

func (c *CreateRoom) Validate() error {
	name, err := validateName(c.PlayerName)
	if err != nil {
		return err
	}
	if c.TargetScore > MaxTargetScore {
		return fmt.Errorf("%w: targetScore above %d", ErrInvalidPayload, MaxTargetScore)
	}
	c.PlayerName = name
	return nil
}

func (c *JoinRoom) Validate() error {
	name, err := validateName(c.PlayerName)
	if err != nil {
		return err
	}
	code, err := validateCode(c.RoomCode)
	if err != nil {
		return err
	}
	c.PlayerName, c.RoomCode = name, code
	return nil
}

func (c *StartGame) Validate() error {
	code, err := validateCode(c.RoomCode)
	c.RoomCode = code
	return err
}

func (c *PlayerChoice) Validate() error {
	code, err := validateCode(c.RoomCode)
	if err != nil {
		return err
	}
	choice, err := model.ParseChoice(string(c.Choice))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	c.RoomCode, c.Choice = code, choice
	return nil
}

func (c *Rematch) Validate() error {
	code, err := validateCode(c.RoomCode)
	c.RoomCode = code
	return err
}

func (c *PlayAI) Validate() error {
	choice, err := model.ParseChoice(string(c.Choice))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	c.Choice = choice
	return nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: playerName is required", ErrInvalidPayload)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", fmt.Errorf("%w: playerName longer than %d", ErrInvalidPayload, MaxNameLength)
	}
	return name, nil
}

// validateCode only normalizes; unknown or odd-length codes are left for
// the room lookup to reject so the client still gets "Room not found".
func validateCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return "", fmt.Errorf("%w: roomCode is required", ErrInvalidPayload)
	}
	return code, nil
}
