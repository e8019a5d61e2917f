package mocks

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rajachanda/rps/internal/dependencies/clock"
)

// MockClock is a manually advanced clock for testing.
// Timers created through it fire only when Advance passes their deadline.
type MockClock = clockwork.FakeClock

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return clockwork.NewFakeClockAt(t)
}
