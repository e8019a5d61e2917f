package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/rajachanda/rps/internal/model"
	"github.com/rajachanda/rps/internal/protocol"
)

var (
	errQuit   = errors.New("quit")
	errNoRoom = errors.New("not in a room yet")
)

const playHelp = `Commands:
  start                   start the match (host only)
  rock | paper | scissors choose for the current round (r, p, s also work)
  rematch                 reset scores for another match
  ai <choice>             play one round against the computer
  help                    show this text
  quit                    leave`

type playOptions struct {
	name   string
	create bool
	target int
	join   string
}

func newPlayCmd() *cobra.Command {
	var opts playOptions

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play interactively over a websocket",
		Long: `Connect to the server, create or join a room, then read commands from stdin.

` + playHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.create == (opts.join != "") {
				return errors.New("exactly one of --create or --join is required")
			}
			return runPlay(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "Display name")
	cmd.Flags().BoolVar(&opts.create, "create", false, "Create a new room")
	cmd.Flags().IntVar(&opts.target, "target", 0, "Target score for a created room (server default when 0)")
	cmd.Flags().StringVar(&opts.join, "join", "", "Code of a room to join")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func runPlay(ctx context.Context, opts playOptions, in io.Reader, out io.Writer) error {
	wsURL, err := client.WebSocketURL()
	if err != nil {
		return err
	}

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", wsURL, err)
	}

	s := newSession(conn, NewOutput(cfg.Output, out))
	defer s.close()

	var first protocol.Command
	if opts.create {
		first = &protocol.CreateRoom{PlayerName: opts.name, TargetScore: opts.target}
	} else {
		first = &protocol.JoinRoom{RoomCode: opts.join, PlayerName: opts.name}
	}
	if err := first.Validate(); err != nil {
		return err
	}
	if err := s.send(first); err != nil {
		return err
	}

	readDone := make(chan error, 1)
	go func() { readDone <- s.readLoop() }()

	done := make(chan struct{})
	defer close(done)
	lines := readLines(in, done)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readDone:
			return err
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			cmd, err := parseLine(line, s.roomCode())
			switch {
			case errors.Is(err, errQuit):
				return nil
			case err != nil:
				s.out.PrintMessage(err.Error())
			case cmd != nil:
				if err := s.send(cmd); err != nil {
					return err
				}
			}
		}
	}
}

// readLines feeds stdin lines until EOF or until done is closed
func readLines(in io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}

// parseLine maps one line of user input to a command. A nil command with a
// nil error means there is nothing to send.
func parseLine(line string, room model.RoomCode) (protocol.Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return nil, nil
	}

	verb := fields[0]
	switch verb {
	case "quit", "exit", "q":
		return nil, errQuit
	case "help", "?":
		return nil, errors.New(playHelp)
	case "ai":
		if len(fields) < 2 {
			return nil, errors.New("usage: ai <rock|paper|scissors>")
		}
		choice, err := parseChoiceWord(fields[1])
		if err != nil {
			return nil, err
		}
		return &protocol.PlayAI{Choice: choice}, nil
	}

	if room == "" {
		return nil, errNoRoom
	}
	switch verb {
	case "start":
		return &protocol.StartGame{RoomCode: string(room)}, nil
	case "rematch":
		return &protocol.Rematch{RoomCode: string(room)}, nil
	}

	choice, err := parseChoiceWord(verb)
	if err != nil {
		return nil, fmt.Errorf("unknown command %q, type help", verb)
	}
	return &protocol.PlayerChoice{RoomCode: string(room), Choice: choice}, nil
}

func parseChoiceWord(word string) (model.Choice, error) {
	switch word {
	case "r":
		return model.ChoiceRock, nil
	case "p":
		return model.ChoicePaper, nil
	case "s":
		return model.ChoiceScissors, nil
	}
	return model.ParseChoice(word)
}

// session tracks one interactive connection
type session struct {
	conn *websocket.Conn
	out  *Output

	writeMu sync.Mutex

	mu   sync.Mutex
	self model.ConnectionID
	room model.RoomCode
}

func newSession(conn *websocket.Conn, out *Output) *session {
	return &session{conn: conn, out: out}
}

func (s *session) send(cmd protocol.Command) error {
	frame, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("send %s: %w", cmd.Type(), err)
	}
	return nil
}

func (s *session) close() {
	s.writeMu.Lock()
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	s.writeMu.Unlock()
	_ = s.conn.Close()
}

func (s *session) roomCode() model.RoomCode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room
}

func (s *session) readLoop() error {
	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("connection lost: %w", err)
		}

		name, data, err := protocol.DecodeEvent(frame)
		if err != nil {
			continue
		}
		s.handleEvent(name, data)
	}
}

func (s *session) handleEvent(name model.EventName, data json.RawMessage) {
	if s.out.format == "json" {
		s.out.printJSON(protocol.Envelope{Type: string(name), Data: data})
	}

	s.mu.Lock()
	self := s.self
	s.mu.Unlock()

	text, state := describeEvent(name, data, self)

	s.mu.Lock()
	if state.self != "" {
		s.self = state.self
	}
	if state.room != "" {
		s.room = state.room
	}
	s.mu.Unlock()

	if s.out.format != "json" && text != "" {
		s.out.PrintMessage(text)
	}
}

// sessionState carries identity learned from an event
type sessionState struct {
	self model.ConnectionID
	room model.RoomCode
}

// describeEvent renders an event for a human and extracts any session state
// it carries
func describeEvent(name model.EventName, data json.RawMessage, self model.ConnectionID) (string, sessionState) {
	var state sessionState

	switch name {
	case model.EventConnected:
		var p model.ConnectedPayload
		if json.Unmarshal(data, &p) != nil {
			return "", state
		}
		state.self = p.ConnectionID
		return "Connected.", state

	case model.EventRoomCreated:
		var p model.RoomCreatedPayload
		if json.Unmarshal(data, &p) != nil {
			return "", state
		}
		state.room = p.RoomCode
		return fmt.Sprintf("Room %s created (first to %d). Share the code and type start once someone joins.",
			p.RoomCode, p.Room.TargetScore), state

	case model.EventRoomJoined:
		var p model.RoomPayload
		if json.Unmarshal(data, &p) != nil {
			return "", state
		}
		state.room = p.Room.Code
		return fmt.Sprintf("Joined room %s: %s. Waiting for the host to start.", p.Room.Code, scoreLine(p.Room)), state

	case model.EventPlayerJoined:
		var p model.RoomPayload
		if json.Unmarshal(data, &p) != nil {
			return "", state
		}
		return fmt.Sprintf("Player joined: %s", scoreLine(p.Room)), state

	case model.EventJoinError:
		var p model.JoinErrorPayload
		if json.Unmarshal(data, &p) != nil {
			return "", state
		}
		return "Could not join: " + p.Message, state

	case model.EventPlayerDisconnected:
		var p model.RoomPayload
		if json.Unmarshal(data, &p) != nil {
			return "", state
		}
		return fmt.Sprintf("Opponent left. Players: %s", scoreLine(p.Room)), state

	case model.EventGameStarted:
		return "Game started! Get ready...", state

	case model.EventRoundStart:
		var p model.RoundStartPayload
		if json.Unmarshal(data, &p) != nil {
			return "", state
		}
		return fmt.Sprintf("Round %d: choose rock, paper or scissors (%ds).", p.Round, p.Countdown), state

	case model.EventRoundResult:
		var p model.RoundResultPayload
		if json.Unmarshal(data, &p) != nil {
			return "", state
		}
		return describeRound(p, self), state

	case model.EventGameOver:
		var p model.GameOverPayload
		if json.Unmarshal(data, &p) != nil {
			return "", state
		}
		if p.Winner.ID == self {
			return fmt.Sprintf("You won the match! Final: %s. Type rematch to play again.", scoreLine(p.Room)), state
		}
		return fmt.Sprintf("%s won the match. Final: %s. Type rematch to play again.",
			p.Winner.DisplayName, scoreLine(p.Room)), state

	case model.EventRematchReady:
		return "Scores reset. The host can start again.", state

	case model.EventAIResult:
		var p model.AIResultPayload
		if json.Unmarshal(data, &p) != nil {
			return "", state
		}
		return fmt.Sprintf("You: %s, AI: %s. %s", p.PlayerChoice, p.AIChoice, p.Message), state
	}

	return fmt.Sprintf("%s: %s", name, string(data)), state
}

func describeRound(p model.RoundResultPayload, self model.ConnectionID) string {
	var mine, theirs model.Choice
	for id, c := range p.Choices {
		if id == self {
			mine = c
		} else {
			theirs = c
		}
	}

	verdict := p.Result.Message
	if p.Result.WinnerID != nil {
		if *p.Result.WinnerID == self {
			verdict = "You win the round!"
		} else {
			verdict = p.Result.WinnerName + " wins the round."
		}
	}

	if mine == "" {
		return fmt.Sprintf("Round %d: %s Score: %s", p.Room.CurrentRound, verdict, scoreLine(p.Room))
	}
	return fmt.Sprintf("Round %d: you %s, opponent %s. %s Score: %s",
		p.Room.CurrentRound, mine, theirs, verdict, scoreLine(p.Room))
}
