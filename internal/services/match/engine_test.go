package match

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rajachanda/rps/internal/dependencies/mocks"
	"github.com/rajachanda/rps/internal/dependencies/serial"
	"github.com/rajachanda/rps/internal/model"
	"github.com/rajachanda/rps/internal/services/registry"
	"github.com/rajachanda/rps/internal/storage/memory"
	"github.com/rajachanda/rps/internal/testutil"
)

const (
	host  model.ConnectionID = "host"
	guest model.ConnectionID = "guest"
)

type EngineSuite struct {
	suite.Suite
	clock       *mocks.MockClock
	random      *mocks.MockRandom
	broadcaster *mocks.MockBroadcaster
	domain      *serial.Domain
	registry    *registry.Registry
	engine      *Engine
	ctx         context.Context
	code        model.RoomCode
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.ctx = context.Background()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.broadcaster = mocks.NewMockBroadcaster()
	s.domain = serial.New(s.clock)
	s.registry = registry.New(memory.New(), s.clock, s.random, testutil.NopLogger())
	s.engine = New(s.registry, s.broadcaster, s.domain, DefaultConfig(), testutil.NopLogger())

	s.random.QueueString("ABC123")
	room, err := s.registry.CreateRoom(s.ctx, host, "Host", 3)
	s.Require().NoError(err)
	_, err = s.registry.JoinRoom(s.ctx, room.Code, guest, "Guest")
	s.Require().NoError(err)
	s.code = room.Code
}

// do runs fn inside the serialization domain, as the coordinator would
func (s *EngineSuite) do(fn func()) {
	s.domain.Do(fn)
}

func (s *EngineSuite) room() *model.Room {
	var room *model.Room
	s.do(func() {
		var err error
		room, err = s.registry.LookupByCode(s.ctx, s.code)
		s.Require().NoError(err)
	})
	return room
}

func (s *EngineSuite) start() {
	s.do(func() {
		s.Require().NoError(s.engine.Start(s.ctx, s.code, host))
	})
}

func (s *EngineSuite) choose(id model.ConnectionID, choice model.Choice) error {
	var err error
	s.do(func() {
		err = s.engine.SubmitChoice(s.ctx, s.code, id, choice)
	})
	return err
}

func (s *EngineSuite) pending() int {
	var n int
	s.do(func() { n = s.engine.pendingTimers() })
	return n
}

func (s *EngineSuite) countOf(name model.EventName) int {
	n := 0
	for _, got := range s.broadcaster.Names() {
		if got == name {
			n++
		}
	}
	return n
}

// waitForRoundStart advances past a delay and waits for the given round
func (s *EngineSuite) waitForRoundStart(delay time.Duration, round int) {
	s.clock.Advance(delay)
	s.Eventually(func() bool {
		d, ok := s.broadcaster.Last(model.EventRoundStart)
		return ok && d.Event.Payload.(model.RoundStartPayload).Round == round
	}, time.Second, 5*time.Millisecond)
}

// playRound submits both choices of one round, host first
func (s *EngineSuite) playRound(hostChoice, guestChoice model.Choice) {
	s.Require().NoError(s.choose(host, hostChoice))
	s.Require().NoError(s.choose(guest, guestChoice))
}

// Start tests

func (s *EngineSuite) TestStartSucceeds() {
	s.start()

	room := s.room()
	s.Equal(model.PhasePlaying, room.Phase)
	s.Equal(1, room.CurrentRound)
	s.Equal([]model.EventName{model.EventGameStarted}, s.broadcaster.Names())

	d, _ := s.broadcaster.Last(model.EventGameStarted)
	s.ElementsMatch([]model.ConnectionID{host, guest}, d.Recipients)
}

func (s *EngineSuite) TestStartAnnouncesFirstRoundAfterGrace() {
	s.start()

	s.clock.Advance(2 * time.Second)
	s.Never(func() bool { return s.countOf(model.EventRoundStart) > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	s.waitForRoundStart(time.Second, 1)
	d, _ := s.broadcaster.Last(model.EventRoundStart)
	s.Equal(model.RoundStartPayload{Round: 1, Countdown: 10}, d.Event.Payload)
}

func (s *EngineSuite) TestStartIgnoredForNonHost() {
	var err error
	s.do(func() { err = s.engine.Start(s.ctx, s.code, guest) })

	s.ErrorIs(err, model.ErrNotHost)
	s.Equal(model.PhaseWaiting, s.room().Phase)
	s.Empty(s.broadcaster.Names())
}

func (s *EngineSuite) TestStartIgnoredWithOnePlayer() {
	s.do(func() {
		room, _ := s.registry.LookupByCode(s.ctx, s.code)
		room.RemoveParticipant(guest)
		s.Require().NoError(s.registry.Save(s.ctx, room))
	})

	var err error
	s.do(func() { err = s.engine.Start(s.ctx, s.code, host) })

	s.ErrorIs(err, model.ErrInsufficientPlayers)
	s.Equal(model.PhaseWaiting, s.room().Phase)
	s.Empty(s.broadcaster.Names())
}

func (s *EngineSuite) TestStartIgnoredWhilePlaying() {
	s.start()
	s.broadcaster.Reset()

	var err error
	s.do(func() { err = s.engine.Start(s.ctx, s.code, host) })

	s.ErrorIs(err, model.ErrWrongPhase)
	s.Empty(s.broadcaster.Names())
}

func (s *EngineSuite) TestStartUnknownRoom() {
	var err error
	s.do(func() { err = s.engine.Start(s.ctx, "ZZZZZZ", host) })
	s.ErrorIs(err, model.ErrRoomNotFound)
}

// SubmitChoice tests

func (s *EngineSuite) TestTieLeavesScoresAndAdvances() {
	s.start()
	s.waitForRoundStart(3*time.Second, 1)

	s.playRound(model.ChoiceRock, model.ChoiceRock)

	d, ok := s.broadcaster.Last(model.EventRoundResult)
	s.Require().True(ok)
	payload := d.Event.Payload.(model.RoundResultPayload)
	s.True(payload.Result.IsTie())
	s.Nil(payload.Result.WinnerID)
	s.Equal("It's a tie!", payload.Result.Message)
	s.Equal(map[model.ConnectionID]model.Choice{host: model.ChoiceRock, guest: model.ChoiceRock}, payload.Choices)
	for _, p := range payload.Room.Participants {
		s.Zero(p.Score)
	}

	s.waitForRoundStart(3*time.Second, 2)
	room := s.room()
	s.Equal(2, room.CurrentRound)
	s.Empty(room.PendingChoices)
	s.Equal(model.PhasePlaying, room.Phase)
}

func (s *EngineSuite) TestWinIncrementsWinnerScore() {
	s.start()
	s.waitForRoundStart(3*time.Second, 1)

	s.playRound(model.ChoiceRock, model.ChoiceScissors)

	d, _ := s.broadcaster.Last(model.EventRoundResult)
	payload := d.Event.Payload.(model.RoundResultPayload)
	s.Require().NotNil(payload.Result.WinnerID)
	s.Equal(host, *payload.Result.WinnerID)
	s.Equal("Host wins this round!", payload.Result.Message)
	s.Equal(1, payload.Room.Participants[0].Score)
	s.Equal(0, payload.Room.Participants[1].Score)
	s.Equal(model.PhasePlaying, s.room().Phase)
}

func (s *EngineSuite) TestReachingTargetFinishesMatch() {
	s.start()
	for round := 1; round <= 3; round++ {
		s.waitForRoundStart(3*time.Second, round)
		s.playRound(model.ChoicePaper, model.ChoiceRock)
	}

	names := s.broadcaster.Names()
	s.Equal(model.EventGameOver, names[len(names)-1])
	s.Equal(model.EventRoundResult, names[len(names)-2])

	d, _ := s.broadcaster.Last(model.EventGameOver)
	payload := d.Event.Payload.(model.GameOverPayload)
	s.Equal(host, payload.Winner.ID)
	s.Equal(3, payload.Winner.Score)
	s.Equal(model.PhaseFinished, payload.Room.Phase)

	room := s.room()
	s.Equal(model.PhaseFinished, room.Phase)
	s.Equal(3, room.GetParticipant(host).Score)
	s.Zero(s.pending())

	s.clock.Advance(time.Minute)
	s.Never(func() bool { return s.countOf(model.EventRoundStart) > 3 }, 50*time.Millisecond, 5*time.Millisecond)
}

func (s *EngineSuite) TestLastWriteWins() {
	s.start()
	s.Require().NoError(s.choose(host, model.ChoiceRock))
	s.Require().NoError(s.choose(host, model.ChoiceScissors))
	s.Require().NoError(s.choose(guest, model.ChoicePaper))

	d, _ := s.broadcaster.Last(model.EventRoundResult)
	payload := d.Event.Payload.(model.RoundResultPayload)
	s.Equal(model.ChoiceScissors, payload.Choices[host])
	s.Equal(host, *payload.Result.WinnerID)
}

func (s *EngineSuite) TestSingleChoiceDoesNotResolve() {
	s.start()
	s.Require().NoError(s.choose(guest, model.ChoicePaper))

	s.Equal(0, s.countOf(model.EventRoundResult))
	s.Equal(model.ChoicePaper, s.room().PendingChoices[guest])
}

func (s *EngineSuite) TestChoiceIgnoredOutsidePlaying() {
	s.ErrorIs(s.choose(host, model.ChoiceRock), model.ErrWrongPhase)
	s.Empty(s.room().PendingChoices)
}

func (s *EngineSuite) TestChoiceIgnoredFromStranger() {
	s.start()
	s.ErrorIs(s.choose("stranger", model.ChoiceRock), model.ErrNotParticipant)
	s.Empty(s.room().PendingChoices)
}

func (s *EngineSuite) TestChoiceIgnoredBetweenRounds() {
	s.start()
	s.playRound(model.ChoiceRock, model.ChoiceRock)

	s.ErrorIs(s.choose(host, model.ChoicePaper), model.ErrRoundResolved)
	s.Equal(1, s.countOf(model.EventRoundResult))
	s.Equal(model.ChoiceRock, s.room().PendingChoices[host])
}

func (s *EngineSuite) TestInvalidChoiceIgnored() {
	s.start()
	s.ErrorIs(s.choose(host, "lizard"), model.ErrInvalidChoice)
	s.Empty(s.room().PendingChoices)
}

// Rematch tests

func (s *EngineSuite) TestRematchResetsMatch() {
	s.start()
	s.playRound(model.ChoiceRock, model.ChoiceScissors)

	s.do(func() { s.Require().NoError(s.engine.Rematch(s.ctx, s.code)) })

	room := s.room()
	s.Equal(model.PhaseWaiting, room.Phase)
	s.Equal(1, room.CurrentRound)
	s.Empty(room.PendingChoices)
	s.Len(room.Participants, 2)
	s.Equal(host, room.HostID)
	for _, p := range room.Participants {
		s.Zero(p.Score)
	}
	s.Equal(model.EventRematchReady, s.broadcaster.Names()[len(s.broadcaster.Names())-1])
}

func (s *EngineSuite) TestRematchIsIdempotent() {
	s.start()
	s.playRound(model.ChoiceRock, model.ChoiceScissors)

	s.do(func() { s.Require().NoError(s.engine.Rematch(s.ctx, s.code)) })
	once := s.room().Snapshot()
	s.do(func() { s.Require().NoError(s.engine.Rematch(s.ctx, s.code)) })
	twice := s.room().Snapshot()

	s.Equal(once, twice)
}

func (s *EngineSuite) TestRematchCancelsPendingAdvance() {
	s.start()
	s.waitForRoundStart(3*time.Second, 1)
	s.playRound(model.ChoiceRock, model.ChoiceScissors)

	s.do(func() { s.Require().NoError(s.engine.Rematch(s.ctx, s.code)) })
	s.Zero(s.pending())

	s.clock.Advance(time.Minute)
	s.Never(func() bool { return s.countOf(model.EventRoundStart) > 1 }, 50*time.Millisecond, 5*time.Millisecond)
	s.Equal(model.PhaseWaiting, s.room().Phase)
}

func (s *EngineSuite) TestRestartAfterRematchBeginsAtRoundOne() {
	s.start()
	s.playRound(model.ChoiceRock, model.ChoiceScissors)
	s.do(func() { s.Require().NoError(s.engine.Rematch(s.ctx, s.code)) })
	s.broadcaster.Reset()

	s.start()
	s.waitForRoundStart(3*time.Second, 1)
	s.Equal(1, s.room().CurrentRound)
}

func (s *EngineSuite) TestRematchUnknownRoom() {
	var err error
	s.do(func() { err = s.engine.Rematch(s.ctx, "ZZZZZZ") })
	s.ErrorIs(err, model.ErrRoomNotFound)
}

// Stale timer tests

func (s *EngineSuite) TestTimerDiscardedWhenRoomDeleted() {
	s.start()
	s.playRound(model.ChoiceRock, model.ChoiceRock)

	s.do(func() { s.Require().NoError(s.registry.DeleteRoom(s.ctx, s.code)) })

	s.clock.Advance(time.Minute)
	s.Never(func() bool { return s.countOf(model.EventRoundStart) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func (s *EngineSuite) TestTimerDiscardedWhenEpochChanged() {
	s.start()
	s.playRound(model.ChoiceRock, model.ChoiceRock)

	// Bump the epoch behind the engine's back; the timer is still armed.
	s.do(func() {
		room, _ := s.registry.LookupByCode(s.ctx, s.code)
		room.Epoch++
		s.Require().NoError(s.registry.Save(s.ctx, room))
	})

	s.clock.Advance(time.Minute)
	s.Never(func() bool { return s.countOf(model.EventRoundStart) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
	s.Equal(1, s.room().CurrentRound)
}

func (s *EngineSuite) TestForgetCancelsTimer() {
	s.start()
	s.Equal(1, s.pending())

	s.do(func() { s.engine.Forget(s.code) })
	s.Zero(s.pending())

	s.clock.Advance(time.Minute)
	s.Never(func() bool { return s.countOf(model.EventRoundStart) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}
