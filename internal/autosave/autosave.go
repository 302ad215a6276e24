// Package autosave turns a stream of data snapshots into debounced save calls
// with observable saving/error/last-saved status.
package autosave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"signalconfig/internal/clock"
)

const (
	// DefaultDelay is the idle period after the last change before an automatic save.
	DefaultDelay = 2 * time.Second
	// FallbackErrorMessage is reported when a failed save carries no message.
	FallbackErrorMessage = "Failed to save"

	TriggerAuto   = "auto"
	TriggerManual = "manual"
)

// ErrClosed is returned by ManualSave after Close.
var ErrClosed = errors.New("autosave scheduler closed")

// SaveFunc persists one snapshot.
type SaveFunc[T any] func(ctx context.Context, data T) error

// Observer receives one callback per finished save attempt.
// Params: trigger (auto/manual), save error, and elapsed time.
// Returns: none.
type Observer interface {
	ObserveSave(trigger string, err error, elapsed time.Duration)
}

// Options configures a scheduler.
// Params: initial snapshot, save callback, delay, enable flag, timeout, and collaborators.
// Returns: scheduler construction parameters.
type Options[T any] struct {
	Data   T
	OnSave SaveFunc[T]
	// Delay defaults to DefaultDelay when <=0.
	Delay time.Duration
	// Enabled defaults to true when nil.
	Enabled *bool
	// SaveTimeout bounds each save callback; zero leaves a hung callback running with IsSaving=true.
	SaveTimeout time.Duration
	Clock       clock.Clock
	Logger      *slog.Logger
	Observer    Observer
}

// Status is the observable scheduler state.
// Params: in-flight flag, last successful save time, and last error message.
// Returns: snapshot copy.
type Status struct {
	IsSaving  bool       `json:"isSaving"`
	LastSaved *time.Time `json:"lastSaved,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// Scheduler debounces snapshot changes into save calls.
// Params: one pending timer at most; saves are never cancelled once started.
// Returns: save scheduling with status tracking.
type Scheduler[T any] struct {
	mu          sync.Mutex
	onSave      SaveFunc[T]
	delay       time.Duration
	saveTimeout time.Duration
	clock       clock.Clock
	logger      *slog.Logger
	observer    Observer

	enabled    bool
	activated  bool
	closed     bool
	current    T
	baseline   string
	timer      clock.Timer
	generation uint64
	status     Status
}

// New creates a scheduler; when enabled, the initial snapshot becomes the baseline without a save.
// Params: scheduler options.
// Returns: scheduler ready to receive updates.
func New[T any](opts Options[T]) *Scheduler[T] {
	delay := opts.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	enabled := true
	if opts.Enabled != nil {
		enabled = *opts.Enabled
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	onSave := opts.OnSave
	if onSave == nil {
		onSave = func(context.Context, T) error { return nil }
	}

	s := &Scheduler[T]{
		onSave:      onSave,
		delay:       delay,
		saveTimeout: opts.SaveTimeout,
		clock:       clk,
		logger:      opts.Logger,
		observer:    opts.Observer,
		enabled:     enabled,
		current:     opts.Data,
	}
	if enabled {
		s.activated = true
		s.baseline = fingerprint(opts.Data)
	}
	return s
}

// Update supplies a new snapshot; a changed snapshot restarts the debounce delay.
// Params: latest data.
// Returns: none.
func (s *Scheduler[T]) Update(data T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = data
	if s.closed || !s.enabled {
		return
	}
	s.considerLocked()
}

// considerLocked activates the baseline on first call and schedules a save when current differs.
func (s *Scheduler[T]) considerLocked() {
	encoded := fingerprint(s.current)
	if !s.activated {
		s.activated = true
		s.baseline = encoded
		return
	}
	if encoded == s.baseline {
		return
	}
	s.baseline = encoded
	s.stopTimerLocked()

	generation := s.generation
	snapshot := s.current
	s.timer = s.clock.AfterFunc(s.delay, func() {
		s.fire(generation, snapshot)
	})
}

// fire runs the scheduled save unless the timer was superseded or stopped meanwhile.
func (s *Scheduler[T]) fire(generation uint64, snapshot T) {
	s.mu.Lock()
	if s.closed || generation != s.generation {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	_ = s.save(context.Background(), TriggerAuto, snapshot)
}

// ManualSave saves the latest snapshot immediately.
// Params: context for the save callback.
// Returns: save error (also recorded in Status); a pending automatic save survives a failure
// and is cancelled after success unless a newer change rescheduled it meanwhile.
func (s *Scheduler[T]) ManualSave(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	snapshot := s.current
	generation := s.generation
	s.mu.Unlock()

	if err := s.save(ctx, TriggerManual, snapshot); err != nil {
		return err
	}

	s.mu.Lock()
	if s.generation == generation && !s.closed {
		s.stopTimerLocked()
		s.baseline = fingerprint(snapshot)
	}
	s.mu.Unlock()
	return nil
}

// SetEnabled suspends or resumes automatic saves.
// Params: enable flag; disabling cancels a pending timer but not an in-flight save.
// Returns: none.
func (s *Scheduler[T]) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.enabled == enabled {
		return
	}
	s.enabled = enabled
	if !enabled {
		s.stopTimerLocked()
		return
	}
	s.considerLocked()
}

// Close cancels any pending timer; later updates are ignored.
// Params: none.
// Returns: none.
func (s *Scheduler[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTimerLocked()
}

// Status returns a copy of the current status.
// Params: none.
// Returns: status snapshot.
func (s *Scheduler[T]) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.status
	if out.LastSaved != nil {
		saved := *out.LastSaved
		out.LastSaved = &saved
	}
	return out
}

// Pending reports whether an automatic save is scheduled.
func (s *Scheduler[T]) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

func (s *Scheduler[T]) stopTimerLocked() {
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// save runs one save sequence and records its outcome.
// Params: context, trigger label, and snapshot to persist.
// Returns: save error.
func (s *Scheduler[T]) save(ctx context.Context, trigger string, snapshot T) error {
	s.mu.Lock()
	s.status.IsSaving = true
	s.status.Error = ""
	s.mu.Unlock()

	if s.saveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.saveTimeout)
		defer cancel()
	}

	started := s.clock.Now()
	err := s.invoke(ctx, snapshot)
	finished := s.clock.Now()

	s.mu.Lock()
	if err == nil {
		s.status.LastSaved = &finished
	} else {
		s.status.Error = ErrorMessage(err)
	}
	s.status.IsSaving = false
	s.mu.Unlock()

	if err != nil && s.logger != nil {
		s.logger.Warn("autosave failed", "trigger", trigger, "error", ErrorMessage(err))
	}
	if s.observer != nil {
		s.observer.ObserveSave(trigger, err, finished.Sub(started))
	}
	return err
}

// invoke calls the save callback, converting a panic into an error without message.
func (s *Scheduler[T]) invoke(ctx context.Context, snapshot T) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			if s.logger != nil {
				s.logger.Error("autosave callback panicked", "panic", fmt.Sprint(recovered))
			}
			err = errors.New("")
		}
	}()
	return s.onSave(ctx, snapshot)
}

// ErrorMessage renders a save error for display.
// Params: save error.
// Returns: error text or FallbackErrorMessage when the text is blank.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return FallbackErrorMessage
}

// fingerprint compares snapshots by serialized content instead of identity.
func fingerprint(data any) string {
	encoded, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf("%#v", data)
	}
	return string(encoded)
}
