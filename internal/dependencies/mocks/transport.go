package mocks

import (
	"sync"

	"github.com/rajachanda/rps/internal/model"
)

// MockTransport records every frame sent to each connection
type MockTransport struct {
	mu     sync.Mutex
	frames map[model.ConnectionID][][]byte
	closed map[model.ConnectionID]bool
}

// NewMockTransport creates an empty MockTransport
func NewMockTransport() *MockTransport {
	return &MockTransport{
		frames: make(map[model.ConnectionID][][]byte),
		closed: make(map[model.ConnectionID]bool),
	}
}

// Send records msg for id. Sends to a connection marked gone report false.
func (t *MockTransport) Send(id model.ConnectionID, msg []byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed[id] {
		return false
	}
	t.frames[id] = append(t.frames[id], msg)
	return true
}

// Gone marks id as disconnected; later sends are dropped
func (t *MockTransport) Gone(id model.ConnectionID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed[id] = true
}

// Frames returns a copy of everything sent to id so far
func (t *MockTransport) Frames(id model.ConnectionID) [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([][]byte(nil), t.frames[id]...)
}

// Reset forgets all recorded frames
func (t *MockTransport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frames = make(map[model.ConnectionID][][]byte)
}
