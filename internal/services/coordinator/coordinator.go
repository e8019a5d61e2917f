package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rajachanda/rps/internal/dependencies/serial"
	"github.com/rajachanda/rps/internal/model"
	"github.com/rajachanda/rps/internal/protocol"
	"github.com/rajachanda/rps/internal/services/bot"
	"github.com/rajachanda/rps/internal/services/match"
	"github.com/rajachanda/rps/internal/services/registry"
	"github.com/rajachanda/rps/internal/services/supervisor"
)

// Broadcaster pushes events to a room or a single connection
type Broadcaster interface {
	ToRoom(room *model.Room, event model.Event)
	ToConnection(id model.ConnectionID, event model.Event)
}

// Config holds room defaults applied to incoming commands
type Config struct {
	DefaultTargetScore int // used when create-room omits a positive target
}

// Coordinator is the entry point for everything a connection does.
// It runs each command inside the serialization domain and turns errors
// into join-error replies or silence.
type Coordinator struct {
	domain      *serial.Domain
	registry    *registry.Registry
	engine      *match.Engine
	supervisor  *supervisor.Supervisor
	bot         *bot.Service
	broadcaster Broadcaster
	config      Config
	logger      *slog.Logger
}

// New creates a Coordinator
func New(
	domain *serial.Domain,
	registry *registry.Registry,
	engine *match.Engine,
	supervisor *supervisor.Supervisor,
	bot *bot.Service,
	broadcaster Broadcaster,
	config Config,
	logger *slog.Logger,
) *Coordinator {
	return &Coordinator{
		domain:      domain,
		registry:    registry,
		engine:      engine,
		supervisor:  supervisor,
		bot:         bot,
		broadcaster: broadcaster,
		config:      config,
		logger:      logger.With(slog.String("component", "coordinator")),
	}
}

// HandleConnect tells a new connection its id
func (c *Coordinator) HandleConnect(ctx context.Context, id model.ConnectionID) {
	c.broadcaster.ToConnection(id, model.Event{
		Name:    model.EventConnected,
		Payload: model.ConnectedPayload{ConnectionID: id},
	})
}

// HandleMessage decodes one inbound frame and dispatches it.
// Frames outside the command set are dropped.
func (c *Coordinator) HandleMessage(ctx context.Context, id model.ConnectionID, raw []byte) {
	cmd, err := protocol.DecodeCommand(raw)
	if err != nil {
		c.logger.Debug("rejected message",
			slog.String("connection_id", string(id)),
			slog.String("error", err.Error()))
		return
	}
	c.Handle(ctx, id, cmd)
}

// Handle dispatches a validated command from id
func (c *Coordinator) Handle(ctx context.Context, id model.ConnectionID, cmd protocol.Command) {
	if ai, ok := cmd.(*protocol.PlayAI); ok {
		c.broadcaster.ToConnection(id, model.Event{
			Name:    model.EventAIResult,
			Payload: c.bot.PlayAgainst(ai.Choice),
		})
		return
	}

	var err error
	c.domain.Do(func() {
		err = c.dispatch(ctx, id, cmd)
	})
	c.report(id, cmd, err)
}

func (c *Coordinator) dispatch(ctx context.Context, id model.ConnectionID, cmd protocol.Command) error {
	switch cmd := cmd.(type) {
	case *protocol.CreateRoom:
		return c.createRoom(ctx, id, cmd)
	case *protocol.JoinRoom:
		return c.joinRoom(ctx, id, cmd)
	case *protocol.StartGame:
		return c.engine.Start(ctx, registry.NormalizeCode(cmd.RoomCode), id)
	case *protocol.PlayerChoice:
		return c.engine.SubmitChoice(ctx, registry.NormalizeCode(cmd.RoomCode), id, cmd.Choice)
	case *protocol.Rematch:
		return c.engine.Rematch(ctx, registry.NormalizeCode(cmd.RoomCode))
	default:
		return protocol.ErrUnknownCommand
	}
}

func (c *Coordinator) createRoom(ctx context.Context, id model.ConnectionID, cmd *protocol.CreateRoom) error {
	if err := c.supervisor.OnDisconnect(ctx, id); err != nil {
		return err
	}

	target := cmd.TargetScore
	if target <= 0 {
		target = c.config.DefaultTargetScore
	}

	room, err := c.registry.CreateRoom(ctx, id, cmd.PlayerName, target)
	if err != nil {
		return err
	}

	c.broadcaster.ToConnection(id, model.Event{
		Name:    model.EventRoomCreated,
		Payload: model.RoomCreatedPayload{RoomCode: room.Code, Room: room.Snapshot()},
	})
	return nil
}

func (c *Coordinator) joinRoom(ctx context.Context, id model.ConnectionID, cmd *protocol.JoinRoom) error {
	code := registry.NormalizeCode(cmd.RoomCode)

	// Already seated here: just resend the room.
	if current, err := c.registry.LookupByConnection(ctx, id); err == nil && current.Code == code {
		c.broadcaster.ToConnection(id, model.NewRoomEvent(model.EventRoomJoined, current))
		return nil
	}

	// A refused join keeps the current seat
	if _, err := c.registry.CheckJoinable(ctx, code); err != nil {
		return err
	}
	if err := c.supervisor.OnDisconnect(ctx, id); err != nil {
		return err
	}

	room, err := c.registry.JoinRoom(ctx, code, id, cmd.PlayerName)
	if err != nil {
		return err
	}

	c.broadcaster.ToConnection(id, model.NewRoomEvent(model.EventRoomJoined, room))
	c.broadcaster.ToRoom(room, model.NewRoomEvent(model.EventPlayerJoined, room))
	return nil
}

// report maps a command error to its visible effect
func (c *Coordinator) report(id model.ConnectionID, cmd protocol.Command, err error) {
	if err == nil {
		return
	}

	attrs := []any{
		slog.String("connection_id", string(id)),
		slog.String("command", string(cmd.Type())),
		slog.String("error", err.Error()),
	}

	switch {
	case cmd.Type() == protocol.CmdJoinRoom && model.IsUserError(err):
		c.logger.Info("join refused", attrs...)
		c.broadcaster.ToConnection(id, model.Event{
			Name:    model.EventJoinError,
			Payload: model.JoinErrorPayload{Message: model.UserMessage(err)},
		})
	case model.IsIgnored(err):
		c.logger.Debug("command ignored", attrs...)
	default:
		c.logger.Error("command failed", attrs...)
	}
}

// HandleDisconnect removes a closed connection from its room
func (c *Coordinator) HandleDisconnect(ctx context.Context, id model.ConnectionID) {
	var err error
	c.domain.Do(func() {
		err = c.supervisor.OnDisconnect(ctx, id)
	})
	if err != nil {
		c.logger.Error("disconnect handling failed",
			slog.String("connection_id", string(id)),
			slog.String("error", err.Error()))
	}
}

// Sweep deletes rooms older than maxAge and cancels their timers
func (c *Coordinator) Sweep(ctx context.Context, maxAge time.Duration) ([]model.RoomCode, error) {
	var (
		removed []model.RoomCode
		err     error
	)
	c.domain.Do(func() {
		removed, err = c.registry.SweepExpired(ctx, maxAge)
		for _, code := range removed {
			c.engine.Forget(code)
		}
	})
	return removed, err
}

// RunSweeper sweeps every interval until ctx is done
func (c *Coordinator) RunSweeper(ctx context.Context, interval, maxAge time.Duration) {
	ticker := c.domain.Clock().NewTicker(interval)
	defer ticker.Stop()

	c.logger.Info("room sweeper started",
		slog.Duration("interval", interval),
		slog.Duration("max_age", maxAge))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("room sweeper stopped")
			return
		case <-ticker.Chan():
			if _, err := c.Sweep(ctx, maxAge); err != nil && !errors.Is(err, context.Canceled) {
				c.logger.Error("room sweep failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RoomCount returns the number of live rooms
func (c *Coordinator) RoomCount(ctx context.Context) (int, error) {
	var (
		n   int
		err error
	)
	c.domain.Do(func() {
		n, err = c.registry.Count(ctx)
	})
	return n, err
}

// Snapshot returns the client view of a room
func (c *Coordinator) Snapshot(ctx context.Context, code model.RoomCode) (model.Snapshot, error) {
	var (
		snap model.Snapshot
		err  error
	)
	c.domain.Do(func() {
		var room *model.Room
		room, err = c.registry.LookupByCode(ctx, registry.NormalizeCode(string(code)))
		if err == nil {
			snap = room.Snapshot()
		}
	})
	return snap, err
}
