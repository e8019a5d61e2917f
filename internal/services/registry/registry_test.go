package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rajachanda/rps/internal/dependencies/mocks"
	"github.com/rajachanda/rps/internal/model"
	"github.com/rajachanda/rps/internal/storage/memory"
	"github.com/rajachanda/rps/internal/testutil"
)

type RegistrySuite struct {
	suite.Suite
	storage  *memory.Storage
	clock    *mocks.MockClock
	random   *mocks.MockRandom
	registry *Registry
	ctx      context.Context
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.registry = New(s.storage, s.clock, s.random, testutil.NopLogger())
	s.ctx = context.Background()
}

// CreateRoom tests

func (s *RegistrySuite) TestCreateRoomSucceeds() {
	s.random.QueueString("ABC123")

	room, err := s.registry.CreateRoom(s.ctx, "host-1", "Host", 3)
	s.Require().NoError(err)

	s.Equal(model.RoomCode("ABC123"), room.Code)
	s.Equal(model.ConnectionID("host-1"), room.HostID)
	s.Equal(model.PhaseWaiting, room.Phase)
	s.Equal(3, room.TargetScore)
	s.Equal(0, room.CurrentRound)
	s.Require().Len(room.Participants, 1)
	s.Equal("Host", room.Participants[0].DisplayName)
	s.Zero(room.Participants[0].Score)
	s.Empty(room.PendingChoices)
	s.Equal(s.clock.Now(), room.CreatedAt)
}

func (s *RegistrySuite) TestCreateRoomIsPersisted() {
	s.random.QueueString("ABC123")

	room, _ := s.registry.CreateRoom(s.ctx, "host-1", "Host", 3)

	got, err := s.registry.LookupByCode(s.ctx, room.Code)
	s.Require().NoError(err)
	s.Equal(room.Code, got.Code)
}

func (s *RegistrySuite) TestCreateRoomDefaultsTargetScore() {
	s.random.QueueString("ABC120", "ABC124")
	for _, target := range []int{0, -4} {
		room, err := s.registry.CreateRoom(s.ctx, "host-1", "Host", target)
		s.Require().NoError(err)
		s.Equal(model.DefaultTargetScore, room.TargetScore)
	}
}

func (s *RegistrySuite) TestCreateRoomRetriesOnCollision() {
	s.random.QueueString("AAAAAA", "AAAAAA", "AAAAAA", "BBBBBB")

	first, err := s.registry.CreateRoom(s.ctx, "host-1", "One", 5)
	s.Require().NoError(err)
	second, err := s.registry.CreateRoom(s.ctx, "host-2", "Two", 5)
	s.Require().NoError(err)

	s.Equal(model.RoomCode("AAAAAA"), first.Code)
	s.Equal(model.RoomCode("BBBBBB"), second.Code)
}

// JoinRoom tests

func (s *RegistrySuite) createRoom() *model.Room {
	s.random.QueueString("ABC123")
	room, err := s.registry.CreateRoom(s.ctx, "host-1", "Host", 3)
	s.Require().NoError(err)
	return room
}

func (s *RegistrySuite) TestJoinRoomSucceeds() {
	room := s.createRoom()

	joined, err := s.registry.JoinRoom(s.ctx, room.Code, "guest-1", "Guest")
	s.Require().NoError(err)

	s.Require().Len(joined.Participants, 2)
	s.Equal(model.ConnectionID("guest-1"), joined.Participants[1].ID)
	s.Zero(joined.Participants[1].Score)
	s.Equal(model.PhaseWaiting, joined.Phase)
	s.Equal(model.ConnectionID("host-1"), joined.HostID)
}

func (s *RegistrySuite) TestJoinRoomFailsIfNotFound() {
	_, err := s.registry.JoinRoom(s.ctx, "ZZZZZZ", "guest-1", "Guest")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *RegistrySuite) TestJoinRoomFailsIfFull() {
	room := s.createRoom()
	_, err := s.registry.JoinRoom(s.ctx, room.Code, "guest-1", "Guest")
	s.Require().NoError(err)

	_, err = s.registry.JoinRoom(s.ctx, room.Code, "guest-2", "Late")
	s.ErrorIs(err, model.ErrRoomFull)

	got, _ := s.registry.LookupByCode(s.ctx, room.Code)
	s.Len(got.Participants, 2)
}

func (s *RegistrySuite) TestJoinRoomFailsIfGameInProgress() {
	room := s.createRoom()
	room.Phase = model.PhaseFinished
	s.Require().NoError(s.registry.Save(s.ctx, room))

	_, err := s.registry.JoinRoom(s.ctx, room.Code, "guest-1", "Guest")
	s.ErrorIs(err, model.ErrGameInProgress)
}

func (s *RegistrySuite) TestCheckJoinableLeavesRoomUntouched() {
	room := s.createRoom()

	got, err := s.registry.CheckJoinable(s.ctx, room.Code)
	s.Require().NoError(err)
	s.Equal(room.Code, got.Code)

	stored, _ := s.registry.LookupByCode(s.ctx, room.Code)
	s.Len(stored.Participants, 1)

	_, err = s.registry.CheckJoinable(s.ctx, "ZZZZZZ")
	s.ErrorIs(err, model.ErrRoomNotFound)

	room.Phase = model.PhasePlaying
	s.Require().NoError(s.registry.Save(s.ctx, room))
	_, err = s.registry.CheckJoinable(s.ctx, room.Code)
	s.ErrorIs(err, model.ErrGameInProgress)
}

// Lookup tests

func (s *RegistrySuite) TestLookupByConnection() {
	room := s.createRoom()
	_, _ = s.registry.JoinRoom(s.ctx, room.Code, "guest-1", "Guest")

	got, err := s.registry.LookupByConnection(s.ctx, "guest-1")
	s.Require().NoError(err)
	s.Equal(room.Code, got.Code)

	_, err = s.registry.LookupByConnection(s.ctx, "stranger")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *RegistrySuite) TestNormalizeCode() {
	s.Equal(model.RoomCode("ABC123"), NormalizeCode("  abc123 "))
}

// Delete and sweep tests

func (s *RegistrySuite) TestDeleteRoomIsIdempotent() {
	room := s.createRoom()

	s.Require().NoError(s.registry.DeleteRoom(s.ctx, room.Code))
	s.Require().NoError(s.registry.DeleteRoom(s.ctx, room.Code))

	_, err := s.registry.LookupByCode(s.ctx, room.Code)
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *RegistrySuite) TestSaveRefusesEmptyRoom() {
	room := s.createRoom()
	room.RemoveParticipant("host-1")

	s.ErrorIs(s.registry.Save(s.ctx, room), model.ErrEmptyRoom)
}

func (s *RegistrySuite) TestSweepExpiredRemovesOnlyOldRooms() {
	s.random.QueueString("OLD111")
	_, err := s.registry.CreateRoom(s.ctx, "host-1", "Old", 3)
	s.Require().NoError(err)

	s.clock.Advance(45 * time.Minute)
	s.random.QueueString("NEW222")
	_, err = s.registry.CreateRoom(s.ctx, "host-2", "New", 3)
	s.Require().NoError(err)

	s.clock.Advance(30 * time.Minute)
	removed, err := s.registry.SweepExpired(s.ctx, time.Hour)
	s.Require().NoError(err)

	s.Equal([]model.RoomCode{"OLD111"}, removed)
	count, err := s.registry.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
	_, err = s.registry.LookupByCode(s.ctx, "NEW222")
	s.NoError(err)
}

func (s *RegistrySuite) TestSweepExpiredNothingToDo() {
	s.createRoom()

	removed, err := s.registry.SweepExpired(s.ctx, time.Hour)
	s.Require().NoError(err)
	s.Empty(removed)
}
