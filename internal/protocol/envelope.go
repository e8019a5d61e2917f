package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/rajachanda/rps/internal/model"
)

// Envelope is the wire frame for both directions
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// newCommand returns an empty command for a type tag
func newCommand(t CommandType) (Command, bool) {
	switch t {
	case CmdCreateRoom:
		return &CreateRoom{}, true
	case CmdJoinRoom:
		return &JoinRoom{}, true
	case CmdStartGame:
		return &StartGame{}, true
	case CmdPlayerChoice:
		return &PlayerChoice{}, true
	case CmdRematch:
		return &Rematch{}, true
	case CmdPlayAI:
		return &PlayAI{}, true
	default:
		return nil, false
	}
}

// DecodeCommand parses and validates one inbound frame
func DecodeCommand(raw []byte) (Command, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	cmd, ok := newCommand(CommandType(env.Type))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Type)
	}

	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, cmd); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
	}

	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// EncodeCommand frames a command for sending
func EncodeCommand(cmd Command) ([]byte, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: string(cmd.Type()), Data: data})
}

// EncodeEvent frames an outbound event
func EncodeEvent(event model.Event) ([]byte, error) {
	data, err := json.Marshal(event.Payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", event.Name, err)
	}
	return json.Marshal(Envelope{Type: string(event.Name), Data: data})
}

// DecodeEvent splits an outbound frame into its name and raw payload
func DecodeEvent(raw []byte) (model.EventName, json.RawMessage, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if env.Type == "" {
		return "", nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return model.EventName(env.Type), env.Data, nil
}
