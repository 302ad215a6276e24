package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"signalconfig/internal/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type payload map[string]int

type recorder struct {
	mu     sync.Mutex
	saved  []payload
	err    error
	panics bool
}

func (r *recorder) save(_ context.Context, data payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panics {
		panic("boom")
	}
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, data)
	return nil
}

func (r *recorder) calls() []payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]payload(nil), r.saved...)
}

type observation struct {
	trigger string
	failed  bool
}

type fakeObserver struct {
	mu   sync.Mutex
	seen []observation
}

func (o *fakeObserver) ObserveSave(trigger string, err error, _ time.Duration) {
	o.mu.Lock()
	o.seen = append(o.seen, observation{trigger: trigger, failed: err != nil})
	o.mu.Unlock()
}

func newTestScheduler(t *testing.T, rec *recorder, enabled *bool) (*Scheduler[payload], *clock.Fake) {
	t.Helper()
	fake := clock.NewFake(time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))
	s := New(Options[payload]{
		Data:    payload{"a": 1},
		OnSave:  rec.save,
		Delay:   time.Second,
		Enabled: enabled,
		Clock:   fake,
	})
	t.Cleanup(s.Close)
	return s, fake
}

func TestSchedulerDoesNotSaveInitialSnapshot(t *testing.T) {
	rec := &recorder{}
	s, fake := newTestScheduler(t, rec, nil)

	s.Update(payload{"a": 1})
	assert.False(t, s.Pending())
	fake.Advance(5 * time.Second)
	assert.Empty(t, rec.calls())
	assert.Nil(t, s.Status().LastSaved)
}

func TestSchedulerCoalescesRapidChanges(t *testing.T) {
	rec := &recorder{}
	s, fake := newTestScheduler(t, rec, nil)

	s.Update(payload{"a": 2})
	fake.Advance(500 * time.Millisecond)
	s.Update(payload{"a": 3})
	fake.Advance(time.Second - time.Millisecond)
	assert.Empty(t, rec.calls())

	fake.Advance(time.Millisecond)
	require.Equal(t, []payload{{"a": 3}}, rec.calls())

	status := s.Status()
	require.NotNil(t, status.LastSaved)
	assert.Equal(t, fake.Now(), *status.LastSaved)
	assert.False(t, status.IsSaving)
	assert.Empty(t, status.Error)
}

func TestSchedulerIgnoresIdenticalSnapshots(t *testing.T) {
	rec := &recorder{}
	s, fake := newTestScheduler(t, rec, nil)

	s.Update(payload{"a": 2})
	fake.Advance(time.Second)
	s.Update(payload{"a": 2})
	assert.False(t, s.Pending())
	fake.Advance(time.Second)
	assert.Len(t, rec.calls(), 1)
}

func TestManualSaveCancelsPendingTimer(t *testing.T) {
	rec := &recorder{}
	s, fake := newTestScheduler(t, rec, nil)

	s.Update(payload{"a": 2})
	require.True(t, s.Pending())
	require.NoError(t, s.ManualSave(context.Background()))
	assert.False(t, s.Pending())

	fake.Advance(3 * time.Second)
	assert.Equal(t, []payload{{"a": 2}}, rec.calls())

	s.Update(payload{"a": 2})
	assert.False(t, s.Pending())
}

func TestFailedManualSaveKeepsPendingAutosave(t *testing.T) {
	rec := &recorder{err: errors.New("disk full")}
	s, fake := newTestScheduler(t, rec, nil)

	s.Update(payload{"a": 2})
	require.Error(t, s.ManualSave(context.Background()))
	assert.True(t, s.Pending())
	assert.Equal(t, "disk full", s.Status().Error)

	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()

	fake.Advance(time.Second)
	assert.Equal(t, []payload{{"a": 2}}, rec.calls())
	assert.False(t, s.Pending())
	assert.Empty(t, s.Status().Error)
	assert.NotNil(t, s.Status().LastSaved)
}

func TestManualSaveKeepsNewerScheduledChange(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var (
		mu    sync.Mutex
		saved []payload
	)
	fake := clock.NewFake(time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))
	s := New(Options[payload]{
		Data: payload{"a": 1},
		OnSave: func(_ context.Context, data payload) error {
			mu.Lock()
			first := len(saved) == 0
			saved = append(saved, data)
			mu.Unlock()
			if first {
				close(started)
				<-release
			}
			return nil
		},
		Delay: time.Second,
		Clock: fake,
	})
	defer s.Close()

	s.Update(payload{"a": 2})
	done := make(chan error, 1)
	go func() {
		done <- s.ManualSave(context.Background())
	}()
	<-started
	s.Update(payload{"a": 3})
	close(release)
	require.NoError(t, <-done)

	assert.True(t, s.Pending())
	fake.Advance(time.Second)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []payload{{"a": 2}, {"a": 3}}, saved)
}

func TestUpdateDuringAutosaveReschedules(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var (
		mu    sync.Mutex
		saved []payload
	)
	fake := clock.NewFake(time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))
	s := New(Options[payload]{
		Data: payload{"a": 1},
		OnSave: func(_ context.Context, data payload) error {
			mu.Lock()
			first := len(saved) == 0
			saved = append(saved, data)
			mu.Unlock()
			if first {
				close(started)
				<-release
			}
			return nil
		},
		Delay: time.Second,
		Clock: fake,
	})
	defer s.Close()

	s.Update(payload{"a": 2})
	advanced := make(chan struct{})
	go func() {
		fake.Advance(time.Second)
		close(advanced)
	}()

	<-started
	assert.True(t, s.Status().IsSaving)
	s.Update(payload{"a": 3})
	assert.True(t, s.Pending())
	assert.True(t, s.Status().IsSaving)

	close(release)
	<-advanced
	assert.False(t, s.Status().IsSaving)

	fake.Advance(time.Second)
	assert.False(t, s.Pending())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []payload{{"a": 2}, {"a": 3}}, saved)
}

func TestSaveErrorsAreRecorded(t *testing.T) {
	tests := []struct {
		name string
		rec  *recorder
		want string
	}{
		{name: "message", rec: &recorder{err: errors.New("disk full")}, want: "disk full"},
		{name: "blank message", rec: &recorder{err: errors.New("")}, want: FallbackErrorMessage},
		{name: "panic", rec: &recorder{panics: true}, want: FallbackErrorMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, fake := newTestScheduler(t, tt.rec, nil)
			s.Update(payload{"a": 9})
			fake.Advance(time.Second)

			status := s.Status()
			assert.Equal(t, tt.want, status.Error)
			assert.False(t, status.IsSaving)
			assert.Nil(t, status.LastSaved)
		})
	}
}

func TestSuccessfulSaveClearsPreviousError(t *testing.T) {
	rec := &recorder{err: errors.New("offline")}
	s, _ := newTestScheduler(t, rec, nil)

	require.Error(t, s.ManualSave(context.Background()))
	assert.Equal(t, "offline", s.Status().Error)

	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()

	require.NoError(t, s.ManualSave(context.Background()))
	assert.Empty(t, s.Status().Error)
	assert.NotNil(t, s.Status().LastSaved)
}

func TestDisabledSchedulerActivatesOnFirstEnable(t *testing.T) {
	rec := &recorder{}
	disabled := false
	s, fake := newTestScheduler(t, rec, &disabled)

	s.Update(payload{"a": 2})
	assert.False(t, s.Pending())

	s.SetEnabled(true)
	assert.False(t, s.Pending())
	fake.Advance(2 * time.Second)
	assert.Empty(t, rec.calls())

	s.Update(payload{"a": 3})
	assert.True(t, s.Pending())
	s.SetEnabled(false)
	assert.False(t, s.Pending())
	fake.Advance(2 * time.Second)
	assert.Empty(t, rec.calls())
}

func TestReenableSchedulesChangesMadeWhileDisabled(t *testing.T) {
	rec := &recorder{}
	s, fake := newTestScheduler(t, rec, nil)

	s.Update(payload{"a": 2})
	s.SetEnabled(false)
	s.Update(payload{"a": 5})
	assert.False(t, s.Pending())

	s.SetEnabled(true)
	require.True(t, s.Pending())
	fake.Advance(time.Second)
	assert.Equal(t, []payload{{"a": 5}}, rec.calls())
}

func TestDisableDoesNotCancelInFlightSave(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	s := New(Options[payload]{
		Data: payload{"a": 1},
		OnSave: func(context.Context, payload) error {
			close(started)
			<-release
			return nil
		},
	})
	defer s.Close()

	done := make(chan error, 1)
	go func() {
		done <- s.ManualSave(context.Background())
	}()

	<-started
	assert.True(t, s.Status().IsSaving)
	s.SetEnabled(false)
	close(release)

	require.NoError(t, <-done)
	assert.False(t, s.Status().IsSaving)
	assert.NotNil(t, s.Status().LastSaved)
}

func TestSaveTimeoutBoundsCallback(t *testing.T) {
	s := New(Options[payload]{
		Data: payload{"a": 1},
		OnSave: func(ctx context.Context, _ payload) error {
			<-ctx.Done()
			return ctx.Err()
		},
		SaveTimeout: 20 * time.Millisecond,
	})
	defer s.Close()

	err := s.ManualSave(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, context.DeadlineExceeded.Error(), s.Status().Error)
	assert.False(t, s.Status().IsSaving)
}

func TestCloseStopsScheduling(t *testing.T) {
	rec := &recorder{}
	s, fake := newTestScheduler(t, rec, nil)

	s.Update(payload{"a": 2})
	s.Close()
	fake.Advance(5 * time.Second)
	assert.Empty(t, rec.calls())
	assert.Zero(t, fake.Pending())

	s.Update(payload{"a": 3})
	assert.False(t, s.Pending())
	assert.ErrorIs(t, s.ManualSave(context.Background()), ErrClosed)
}

func TestObserverSeesEveryAttempt(t *testing.T) {
	rec := &recorder{}
	observer := &fakeObserver{}
	fake := clock.NewFake(time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))
	s := New(Options[payload]{
		Data:     payload{},
		OnSave:   rec.save,
		Clock:    fake,
		Observer: observer,
	})
	defer s.Close()

	s.Update(payload{"b": 1})
	fake.Advance(DefaultDelay)
	require.NoError(t, s.ManualSave(context.Background()))

	observer.mu.Lock()
	defer observer.mu.Unlock()
	assert.Equal(t, []observation{
		{trigger: TriggerAuto},
		{trigger: TriggerManual},
	}, observer.seen)
}
