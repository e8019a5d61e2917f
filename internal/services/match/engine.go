package match

import (
	"context"
	"log/slog"
	"maps"
	"time"

	"github.com/rajachanda/rps/internal/dependencies/clock"
	"github.com/rajachanda/rps/internal/model"
	"github.com/rajachanda/rps/internal/services/registry"
	"github.com/rajachanda/rps/internal/services/rules"
)

// Broadcaster pushes events to the participants of a room
type Broadcaster interface {
	ToRoom(room *model.Room, event model.Event)
}

// Scheduler runs a callback inside the serialization domain after a delay
type Scheduler interface {
	AfterFunc(delay time.Duration, fn func()) clock.Timer
}

// Config holds the pacing of a match. Delays are advisory pauses for
// clients to render; no round has a deadline.
type Config struct {
	StartDelay time.Duration // game-started to the first round-start
	RoundDelay time.Duration // round-result to the next round-start
	Countdown  int           // advisory seconds carried by round-start
}

// DefaultConfig returns the standard pacing
func DefaultConfig() Config {
	return Config{
		StartDelay: 3 * time.Second,
		RoundDelay: 3 * time.Second,
		Countdown:  10,
	}
}

// Engine runs the round state machine of every room.
// All methods, and every callback it schedules, must run inside the
// serialization domain; the engine does no locking of its own.
type Engine struct {
	registry    *registry.Registry
	broadcaster Broadcaster
	scheduler   Scheduler
	config      Config
	logger      *slog.Logger

	timers map[model.RoomCode]clock.Timer
}

// New creates an Engine
func New(
	registry *registry.Registry,
	broadcaster Broadcaster,
	scheduler Scheduler,
	config Config,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		registry:    registry,
		broadcaster: broadcaster,
		scheduler:   scheduler,
		config:      config,
		logger:      logger.With(slog.String("component", "match")),
		timers:      make(map[model.RoomCode]clock.Timer),
	}
}

// Start begins a match. Only the host of a full waiting room may start it;
// anything else returns an error the caller is expected to ignore.
func (e *Engine) Start(ctx context.Context, code model.RoomCode, requester model.ConnectionID) error {
	room, err := e.registry.LookupByCode(ctx, code)
	if err != nil {
		return err
	}

	if room.Phase != model.PhaseWaiting {
		return model.ErrWrongPhase
	}
	if !room.IsHost(requester) {
		return model.ErrNotHost
	}
	if len(room.Participants) != model.MaxParticipants {
		return model.ErrInsufficientPlayers
	}

	room.Phase = model.PhasePlaying
	room.CurrentRound = 1
	room.PendingChoices = make(map[model.ConnectionID]model.Choice)
	room.RoundResolved = false
	room.Epoch++

	if err := e.registry.Save(ctx, room); err != nil {
		return err
	}

	e.logger.Info("match started",
		slog.String("room_code", string(code)),
		slog.Int("target_score", room.TargetScore))

	e.broadcaster.ToRoom(room, model.NewRoomEvent(model.EventGameStarted, room))

	epoch, round := room.Epoch, room.CurrentRound
	e.schedule(code, e.config.StartDelay, func(ctx context.Context) {
		room, ok := e.current(ctx, code, epoch, round)
		if !ok || room.RoundResolved {
			return
		}
		e.announceRound(room)
	})

	return nil
}

// SubmitChoice records a participant's choice, resolving the round once
// both seats have chosen. Resubmitting before resolution overwrites.
func (e *Engine) SubmitChoice(ctx context.Context, code model.RoomCode, id model.ConnectionID, choice model.Choice) error {
	room, err := e.registry.LookupByCode(ctx, code)
	if err != nil {
		return err
	}

	if room.Phase != model.PhasePlaying {
		return model.ErrWrongPhase
	}
	if !room.HasParticipant(id) {
		return model.ErrNotParticipant
	}
	if room.RoundResolved {
		return model.ErrRoundResolved
	}
	if !choice.IsValid() {
		return model.ErrInvalidChoice
	}

	if room.PendingChoices == nil {
		room.PendingChoices = make(map[model.ConnectionID]model.Choice)
	}
	room.PendingChoices[id] = choice

	plays, ready := rules.PlaysFor(room)
	if !ready {
		return e.registry.Save(ctx, room)
	}

	return e.resolve(ctx, room, plays)
}

// resolve scores a complete round and either ends the match or schedules
// the next round
func (e *Engine) resolve(ctx context.Context, room *model.Room, plays []model.Play) error {
	outcome := rules.DetermineWinner(plays[0], plays[1])
	if !outcome.IsTie() {
		room.GetParticipant(*outcome.WinnerID).Score++
	}
	room.RoundResolved = true

	leader := room.Leader()
	if leader != nil {
		room.Phase = model.PhaseFinished
	}

	if err := e.registry.Save(ctx, room); err != nil {
		return err
	}

	e.logger.Info("round resolved",
		slog.String("room_code", string(room.Code)),
		slog.Int("round", room.CurrentRound),
		slog.String("result", string(outcome.Kind)))

	e.broadcaster.ToRoom(room, model.Event{
		Name: model.EventRoundResult,
		Payload: model.RoundResultPayload{
			Choices: maps.Clone(room.PendingChoices),
			Result:  outcome,
			Room:    room.Snapshot(),
		},
	})

	if leader != nil {
		e.cancel(room.Code)
		e.logger.Info("match finished",
			slog.String("room_code", string(room.Code)),
			slog.String("winner_id", string(leader.ID)))
		e.broadcaster.ToRoom(room, model.Event{
			Name:    model.EventGameOver,
			Payload: model.GameOverPayload{Winner: *leader, Room: room.Snapshot()},
		})
		return nil
	}

	code, epoch, round := room.Code, room.Epoch, room.CurrentRound
	e.schedule(code, e.config.RoundDelay, func(ctx context.Context) {
		room, ok := e.current(ctx, code, epoch, round)
		if !ok || !room.RoundResolved {
			return
		}
		room.PendingChoices = make(map[model.ConnectionID]model.Choice)
		room.CurrentRound++
		room.RoundResolved = false
		if err := e.registry.Save(ctx, room); err != nil {
			e.logger.Error("failed to advance round",
				slog.String("room_code", string(code)),
				slog.Any("error", err))
			return
		}
		e.announceRound(room)
	})

	return nil
}

// Rematch resets a room of any phase back to waiting with zeroed scores.
// Participants and host are untouched.
func (e *Engine) Rematch(ctx context.Context, code model.RoomCode) error {
	room, err := e.registry.LookupByCode(ctx, code)
	if err != nil {
		return err
	}

	e.cancel(code)
	room.ResetMatch()

	if err := e.registry.Save(ctx, room); err != nil {
		return err
	}

	e.logger.Info("match reset", slog.String("room_code", string(code)))
	e.broadcaster.ToRoom(room, model.NewRoomEvent(model.EventRematchReady, room))
	return nil
}

// Forget cancels any pending timer for a room that is going away
func (e *Engine) Forget(code model.RoomCode) {
	e.cancel(code)
}

// pendingTimers returns the number of rooms with a scheduled timer
func (e *Engine) pendingTimers() int {
	return len(e.timers)
}

func (e *Engine) announceRound(room *model.Room) {
	e.broadcaster.ToRoom(room, model.Event{
		Name: model.EventRoundStart,
		Payload: model.RoundStartPayload{
			Round:     room.CurrentRound,
			Countdown: e.config.Countdown,
		},
	})
}

// current re-validates a timer against the room it was scheduled for.
// A deleted room, a new epoch, a phase change or a moved round all make
// the timer stale.
func (e *Engine) current(ctx context.Context, code model.RoomCode, epoch uint64, round int) (*model.Room, bool) {
	room, err := e.registry.LookupByCode(ctx, code)
	if err != nil {
		e.logger.Debug("stale timer: room gone", slog.String("room_code", string(code)))
		return nil, false
	}
	if room.Epoch != epoch || room.Phase != model.PhasePlaying || room.CurrentRound != round {
		e.logger.Debug("stale timer discarded",
			slog.String("room_code", string(code)),
			slog.Uint64("epoch", epoch),
			slog.Int("round", round))
		return nil, false
	}
	return room, true
}

// schedule replaces the room's pending timer
func (e *Engine) schedule(code model.RoomCode, delay time.Duration, fn func(ctx context.Context)) {
	e.cancel(code)

	var timer clock.Timer
	timer = e.scheduler.AfterFunc(delay, func() {
		if e.timers[code] == timer {
			delete(e.timers, code)
		}
		fn(context.Background())
	})
	e.timers[code] = timer
}

func (e *Engine) cancel(code model.RoomCode) {
	if timer, ok := e.timers[code]; ok {
		timer.Stop()
		delete(e.timers, code)
	}
}
