package factory

import (
	"time"

	"github.com/rajachanda/rps/internal/dependencies/mocks"
	"github.com/rajachanda/rps/internal/model"
	"github.com/rajachanda/rps/internal/protocol"
	"github.com/rajachanda/rps/internal/storage/memory"
	"github.com/rajachanda/rps/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock     *mocks.MockClock
	MockRandom    *mocks.MockRandom
	MockTransport *mocks.MockTransport
}

// NewTestApp creates an App with a fake clock, queued randomness and a
// transport that records every frame instead of sending it
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockTransport := mocks.NewMockTransport()

	app := newWithDependencies(store, mockClock, mockRandom, mockTransport, Config{}, testutil.NopLogger())

	return &TestApp{
		App:           app,
		MockClock:     mockClock,
		MockRandom:    mockRandom,
		MockTransport: mockTransport,
	}
}

// Received is one decoded frame delivered to a connection
type Received struct {
	Name model.EventName
	Data []byte
}

// Received decodes every frame delivered to id so far
func (t *TestApp) Received(id model.ConnectionID) []Received {
	frames := t.MockTransport.Frames(id)
	out := make([]Received, 0, len(frames))
	for _, frame := range frames {
		name, data, err := protocol.DecodeEvent(frame)
		if err != nil {
			continue
		}
		out = append(out, Received{Name: name, Data: data})
	}
	return out
}

// Names lists the event names delivered to id, in order
func (t *TestApp) Names(id model.ConnectionID) []model.EventName {
	received := t.Received(id)
	names := make([]model.EventName, 0, len(received))
	for _, r := range received {
		names = append(names, r.Name)
	}
	return names
}
