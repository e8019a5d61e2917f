package clock

import (
	"github.com/jonboulle/clockwork"
)

// Clock provides time operations and timers that can be faked in tests
type Clock = clockwork.Clock

// Timer is a cancellable one-shot timer created by a Clock
type Timer = clockwork.Timer

// New creates a Clock backed by the system clock
func New() Clock {
	return clockwork.NewRealClock()
}
