package mocks

import (
	"fmt"
	"sync"

	"github.com/rajachanda/rps/internal/dependencies/random"
)

// MockRandom replays queued values. Once the string queue is empty it
// hands out sequential codes (R00001, R00002, ...) so room creation in
// tests never stalls on an empty code.
type MockRandom struct {
	mu       sync.Mutex
	ints     []int
	strings  []string
	fallback int
}

var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued value reduced into [0, n), or 0
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.ints) == 0 || n <= 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

// String returns the next queued value or a sequential fallback
func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.strings) > 0 {
		v := r.strings[0]
		r.strings = r.strings[1:]
		return v
	}
	r.fallback++
	return fmt.Sprintf("R%0*d", max(length-1, 1), r.fallback)
}

// QueueIntn appends values for Intn
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ints = append(r.ints, values...)
}

// QueueString appends values for String
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strings = append(r.strings, values...)
}
