package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a manually advanced clock for debounce and timestamp tests.
// Params: start time and scheduled callbacks.
// Returns: deterministic Clock implementation.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	seq     int
	pending []*fakeTimer
}

type fakeTimer struct {
	owner *Fake
	at    time.Time
	seq   int
	fn    func()
	done  bool
}

// NewFake creates fake clock positioned at start.
// Params: initial timestamp.
// Returns: fake clock.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the fake current time.
// Params: none.
// Returns: current fake timestamp.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// AfterFunc schedules fn to run when the clock is advanced past delay.
// Params: delay and callback.
// Returns: stoppable timer handle.
func (f *Fake) AfterFunc(delay time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	timer := &fakeTimer{owner: f, at: f.now.Add(delay), seq: f.seq, fn: fn}
	f.pending = append(f.pending, timer)
	return timer
}

// Advance moves time forward and runs due callbacks in schedule order on the caller goroutine.
// Params: duration to advance.
// Returns: none.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		next := f.nextDueLocked(target)
		if next == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		next.done = true
		f.now = next.at
		f.mu.Unlock()
		next.fn()
	}
}

// Pending reports how many timers are scheduled and not yet fired or stopped.
// Params: none.
// Returns: pending timer count.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, timer := range f.pending {
		if !timer.done {
			count++
		}
	}
	return count
}

func (f *Fake) nextDueLocked(target time.Time) *fakeTimer {
	live := f.pending[:0]
	for _, timer := range f.pending {
		if !timer.done {
			live = append(live, timer)
		}
	}
	f.pending = live
	sort.SliceStable(f.pending, func(i, j int) bool {
		if f.pending[i].at.Equal(f.pending[j].at) {
			return f.pending[i].seq < f.pending[j].seq
		}
		return f.pending[i].at.Before(f.pending[j].at)
	})
	if len(f.pending) == 0 || f.pending[0].at.After(target) {
		return nil
	}
	return f.pending[0]
}

// Stop cancels the timer when it has not fired yet.
// Params: none.
// Returns: true when the callback was prevented from running.
func (t *fakeTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	return true
}
