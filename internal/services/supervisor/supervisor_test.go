package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rajachanda/rps/internal/dependencies/mocks"
	"github.com/rajachanda/rps/internal/model"
	"github.com/rajachanda/rps/internal/services/registry"
	"github.com/rajachanda/rps/internal/storage/memory"
	"github.com/rajachanda/rps/internal/testutil"
)

type forgetRecorder struct {
	codes []model.RoomCode
}

func (f *forgetRecorder) Forget(code model.RoomCode) {
	f.codes = append(f.codes, code)
}

type SupervisorSuite struct {
	suite.Suite
	registry    *registry.Registry
	random      *mocks.MockRandom
	broadcaster *mocks.MockBroadcaster
	timers      *forgetRecorder
	supervisor  *Supervisor
	ctx         context.Context
	code        model.RoomCode
}

func TestSupervisorSuite(t *testing.T) {
	suite.Run(t, new(SupervisorSuite))
}

func (s *SupervisorSuite) SetupTest() {
	s.ctx = context.Background()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.broadcaster = mocks.NewMockBroadcaster()
	s.timers = &forgetRecorder{}
	s.registry = registry.New(memory.New(), clk, s.random, testutil.NopLogger())
	s.supervisor = New(s.registry, s.timers, s.broadcaster, testutil.NopLogger())

	s.random.QueueString("ABC123")
	room, err := s.registry.CreateRoom(s.ctx, "host", "Host", 3)
	s.Require().NoError(err)
	s.code = room.Code
}

func (s *SupervisorSuite) join() {
	_, err := s.registry.JoinRoom(s.ctx, s.code, "guest", "Guest")
	s.Require().NoError(err)
}

func (s *SupervisorSuite) TestUnknownConnectionIsNoop() {
	s.NoError(s.supervisor.OnDisconnect(s.ctx, "stranger"))
	s.Empty(s.broadcaster.Names())

	room, err := s.registry.LookupByCode(s.ctx, s.code)
	s.Require().NoError(err)
	s.Len(room.Participants, 1)
}

func (s *SupervisorSuite) TestGuestLeavesMidMatch() {
	s.join()
	room, _ := s.registry.LookupByCode(s.ctx, s.code)
	room.Phase = model.PhasePlaying
	room.CurrentRound = 2
	room.PendingChoices["guest"] = model.ChoiceRock
	s.Require().NoError(s.registry.Save(s.ctx, room))

	s.Require().NoError(s.supervisor.OnDisconnect(s.ctx, "guest"))

	room, err := s.registry.LookupByCode(s.ctx, s.code)
	s.Require().NoError(err)
	s.Len(room.Participants, 1)
	s.Equal(model.PhasePlaying, room.Phase)
	s.Equal(model.ConnectionID("host"), room.HostID)
	s.Empty(room.PendingChoices)

	d, ok := s.broadcaster.Last(model.EventPlayerDisconnected)
	s.Require().True(ok)
	s.Equal([]model.ConnectionID{"host"}, d.Recipients)
	payload := d.Event.Payload.(model.RoomPayload)
	s.Len(payload.Room.Participants, 1)
	s.Equal(model.PhasePlaying, payload.Room.Phase)
	s.Empty(s.timers.codes)
}

func (s *SupervisorSuite) TestHostLeavingPromotesGuest() {
	s.join()

	s.Require().NoError(s.supervisor.OnDisconnect(s.ctx, "host"))

	room, err := s.registry.LookupByCode(s.ctx, s.code)
	s.Require().NoError(err)
	s.Equal(model.ConnectionID("guest"), room.HostID)
	s.Equal(model.ConnectionID("guest"), room.Participants[0].ID)

	d, ok := s.broadcaster.Last(model.EventPlayerDisconnected)
	s.Require().True(ok)
	s.Equal(model.ConnectionID("guest"), d.Event.Payload.(model.RoomPayload).Room.HostID)
}

func (s *SupervisorSuite) TestLastPlayerLeavingDeletesRoom() {
	s.Require().NoError(s.supervisor.OnDisconnect(s.ctx, "host"))

	_, err := s.registry.LookupByCode(s.ctx, s.code)
	s.ErrorIs(err, model.ErrRoomNotFound)
	s.Empty(s.broadcaster.Names())
	s.Equal([]model.RoomCode{s.code}, s.timers.codes)
}

func (s *SupervisorSuite) TestBothLeaving() {
	s.join()

	s.Require().NoError(s.supervisor.OnDisconnect(s.ctx, "host"))
	s.Require().NoError(s.supervisor.OnDisconnect(s.ctx, "guest"))

	count, err := s.registry.Count(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
	s.Equal([]model.EventName{model.EventPlayerDisconnected}, s.broadcaster.Names())
}

func (s *SupervisorSuite) TestSecondDisconnectIsNoop() {
	s.join()

	s.Require().NoError(s.supervisor.OnDisconnect(s.ctx, "guest"))
	s.Require().NoError(s.supervisor.OnDisconnect(s.ctx, "guest"))

	s.Len(s.broadcaster.Names(), 1)
}
