package serial

import (
	"sync"
	"time"

	"github.com/rajachanda/rps/internal/dependencies/clock"
)

// Domain is the single serialization domain for the room table.
// Every inbound command and every timer callback runs while holding
// the same lock, so no two mutations of a room ever interleave.
type Domain struct {
	mu    sync.Mutex
	clock clock.Clock
}

// New creates a Domain whose timers come from clk
func New(clk clock.Clock) *Domain {
	return &Domain{clock: clk}
}

// Do runs fn inside the domain
func (d *Domain) Do(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

// AfterFunc schedules fn to run inside the domain after delay.
// Stopping the returned timer before it fires cancels fn.
func (d *Domain) AfterFunc(delay time.Duration, fn func()) clock.Timer {
	return d.clock.AfterFunc(delay, func() {
		d.Do(fn)
	})
}

// Clock returns the clock the domain schedules on
func (d *Domain) Clock() clock.Clock {
	return d.clock
}
