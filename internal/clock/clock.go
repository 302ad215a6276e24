package clock

import "time"

// Clock provides current time and delayed callbacks for deterministic tests.
// Params: none.
// Returns: current wall-clock time and timer scheduling.
type Clock interface {
	Now() time.Time
	AfterFunc(delay time.Duration, fn func()) Timer
}

// Timer is a cancellable scheduled callback.
// Params: none.
// Returns: true from Stop when the callback was prevented from running.
type Timer interface {
	Stop() bool
}

// RealClock reads current UTC time from system clock.
// Params: none.
// Returns: current UTC timestamp.
type RealClock struct{}

// Now returns current UTC time.
// Params: none.
// Returns: current UTC timestamp.
func (RealClock) Now() time.Time {
	return time.Now().UTC()
}

// AfterFunc runs fn on its own goroutine after delay elapses.
// Params: delay and callback.
// Returns: stoppable timer handle.
func (RealClock) AfterFunc(delay time.Duration, fn func()) Timer {
	return time.AfterFunc(delay, fn)
}
