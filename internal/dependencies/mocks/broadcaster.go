package mocks

import (
	"sync"

	"github.com/rajachanda/rps/internal/model"
)

// Delivery is one event handed to a MockBroadcaster
type Delivery struct {
	Recipients []model.ConnectionID
	Event      model.Event
}

// MockBroadcaster records events instead of sending them
type MockBroadcaster struct {
	mu         sync.Mutex
	deliveries []Delivery
}

// NewMockBroadcaster creates an empty MockBroadcaster
func NewMockBroadcaster() *MockBroadcaster {
	return &MockBroadcaster{}
}

// ToRoom records event for every current participant of room
func (b *MockBroadcaster) ToRoom(room *model.Room, event model.Event) {
	ids := make([]model.ConnectionID, 0, len(room.Participants))
	for _, p := range room.Participants {
		ids = append(ids, p.ID)
	}
	b.record(Delivery{Recipients: ids, Event: event})
}

// ToConnection records event for a single connection
func (b *MockBroadcaster) ToConnection(id model.ConnectionID, event model.Event) {
	b.record(Delivery{Recipients: []model.ConnectionID{id}, Event: event})
}

func (b *MockBroadcaster) record(d Delivery) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deliveries = append(b.deliveries, d)
}

// Deliveries returns a copy of everything recorded so far
func (b *MockBroadcaster) Deliveries() []Delivery {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Delivery(nil), b.deliveries...)
}

// Names returns the recorded event names in order
func (b *MockBroadcaster) Names() []model.EventName {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]model.EventName, 0, len(b.deliveries))
	for _, d := range b.deliveries {
		names = append(names, d.Event.Name)
	}
	return names
}

// Last returns the most recent delivery with the given name
func (b *MockBroadcaster) Last(name model.EventName) (Delivery, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.deliveries) - 1; i >= 0; i-- {
		if b.deliveries[i].Event.Name == name {
			return b.deliveries[i], true
		}
	}
	return Delivery{}, false
}

// Reset forgets all recorded deliveries
func (b *MockBroadcaster) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deliveries = nil
}
