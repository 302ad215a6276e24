// Package editor composes the draft store, autosave scheduler, reveal gate, and launch publisher
// into one editing session per open draft.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"signalconfig/internal/autosave"
	"signalconfig/internal/clock"
	"signalconfig/internal/domain"
	"signalconfig/internal/draftstore"
	"signalconfig/internal/launch"
	"signalconfig/internal/logging"
	"signalconfig/internal/preview"
	"signalconfig/internal/storage"
	"signalconfig/internal/validation"
)

const (
	LaunchOutcomeLaunched = "launched"
	LaunchOutcomeInvalid  = "invalid"
	LaunchOutcomeError    = "error"
)

// Metrics receives editor-level measurements.
// Params: autosave, storage write, launch, and open-editor observations.
// Returns: sink implemented by the Prometheus recorder.
type Metrics interface {
	autosave.Observer
	draftstore.WriteObserver
	ObserveLaunch(outcome string)
	SetOpenEditors(count int)
}

// AutoSaveSettings controls the scheduler of newly opened editors.
// Params: enable flag, debounce delay, and per-save timeout.
// Returns: scheduler settings snapshot.
type AutoSaveSettings struct {
	Enabled     bool
	Delay       time.Duration
	SaveTimeout time.Duration
}

// Options wires editor collaborators.
// Params: storage backend, launch publisher, metrics, preview provider, directory, clock, and logger.
// Returns: editor construction parameters.
type Options struct {
	Storage   storage.Storage
	Publisher launch.Publisher
	Metrics   Metrics
	Previews  preview.Provider
	Directory preview.Directory
	Clock     clock.Clock
	Logger    *slog.Logger
	AutoSave  AutoSaveSettings
}

// LaunchResult describes one launch attempt.
// Params: launched flag, validation state, and published event id.
// Returns: response body for launch requests.
type LaunchResult struct {
	Launched   bool             `json:"launched"`
	EventID    string           `json:"eventId,omitempty"`
	Validation validation.State `json:"validation"`
}

// Snapshot is the full read model of an editor.
// Params: draft, per-section statuses, reveal flag, autosave status, and indicator label.
// Returns: response body for editor reads.
type Snapshot struct {
	ID           string                                      `json:"id"`
	Data         domain.SignalConfigData                     `json:"data"`
	Sections     map[domain.Section]draftstore.SectionStatus `json:"sections"`
	CanLaunch    bool                                        `json:"canLaunch"`
	ShowErrors   bool                                        `json:"showErrors"`
	AutoSave     autosave.Status                             `json:"autoSave"`
	Indicator    string                                      `json:"indicator"`
	StorageError string                                      `json:"storageError,omitempty"`
}

// Editor is one editing session over a single draft.
// Params: draft store, autosave scheduler, reveal gate, and launch publisher.
// Returns: editing operations safe for concurrent HTTP requests.
type Editor struct {
	id        string
	store     *draftstore.Store
	scheduler *autosave.Scheduler[domain.SignalConfigData]
	gate      validation.Gate
	publisher launch.Publisher
	metrics   Metrics
	clock     clock.Clock
	logger    *slog.Logger
}

// New builds an editor, optionally resuming a stored draft before autosave takes its baseline.
// Params: context, editor id, resume key (empty for a fresh draft), and options.
// Returns: editor or load error.
func New(ctx context.Context, id, resumeKey string, opts Options) (*Editor, error) {
	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = noopMetrics{}
	}
	publisher := opts.Publisher
	if publisher == nil {
		publisher = launch.LogPublisher{Logger: logger}
	}
	logger = logger.With(logging.KeyEditor, id)

	store := draftstore.New(opts.Storage, draftstore.Options{
		Clock:     clk,
		Logger:    logger,
		Metrics:   metrics,
		Previews:  opts.Previews,
		Directory: opts.Directory,
	})
	if resumeKey != "" {
		if err := store.LoadFromStorage(ctx, resumeKey); err != nil {
			return nil, fmt.Errorf("resume draft %q: %w", resumeKey, err)
		}
	}

	enabled := opts.AutoSave.Enabled
	e := &Editor{
		id:        id,
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		clock:     clk,
		logger:    logger,
	}
	e.scheduler = autosave.New(autosave.Options[domain.SignalConfigData]{
		Data: pendingChanges(store),
		OnSave: func(ctx context.Context, _ domain.SignalConfigData) error {
			return store.SaveToStorage(ctx)
		},
		Delay:       opts.AutoSave.Delay,
		Enabled:     &enabled,
		SaveTimeout: opts.AutoSave.SaveTimeout,
		Clock:       clk,
		Logger:      logger,
		Observer:    metrics,
	})
	return e, nil
}

// ID returns the editor id.
// Params: none.
// Returns: id assigned by the registry.
func (e *Editor) ID() string {
	return e.id
}

// Store exposes the underlying draft store.
// Params: none.
// Returns: store shared with the autosave callback.
func (e *Editor) Store() *draftstore.Store {
	return e.store
}

// Update merges patch into the draft and feeds the result to autosave.
// Params: context and partial update.
// Returns: store error (closed store only).
func (e *Editor) Update(ctx context.Context, patch domain.Patch) error {
	if err := e.store.UpdateData(ctx, patch); err != nil {
		return err
	}
	e.scheduler.Update(pendingChanges(e.store))
	return nil
}

// Resume replaces the draft with a stored one.
// Params: context and storage key.
// Returns: load error; state is unchanged on failure.
func (e *Editor) Resume(ctx context.Context, key string) error {
	if err := e.store.LoadFromStorage(ctx, key); err != nil {
		return err
	}
	e.scheduler.Update(pendingChanges(e.store))
	return nil
}

// Save writes the draft immediately.
// Params: context.
// Returns: save error, also reflected in the autosave status.
func (e *Editor) Save(ctx context.Context) error {
	return e.scheduler.ManualSave(ctx)
}

// SetAutoSave suspends or resumes automatic saves for this editor.
// Params: enable flag.
// Returns: none; an in-flight save is not cancelled.
func (e *Editor) SetAutoSave(enabled bool) {
	e.scheduler.SetEnabled(enabled)
}

// Launch reveals field errors and, when the draft is valid, completes, saves, and announces it.
// Params: context.
// Returns: launch result; error only when saving or publishing failed.
func (e *Editor) Launch(ctx context.Context) (LaunchResult, error) {
	e.gate.Attempt()
	state := e.store.Validation()
	if !state.IsValid {
		e.metrics.ObserveLaunch(LaunchOutcomeInvalid)
		return LaunchResult{Validation: state}, nil
	}

	if err := e.store.MarkAsComplete(ctx); err != nil {
		e.metrics.ObserveLaunch(LaunchOutcomeError)
		return LaunchResult{Validation: state}, fmt.Errorf("mark draft complete: %w", err)
	}
	e.scheduler.Update(pendingChanges(e.store))
	if err := e.scheduler.ManualSave(ctx); err != nil {
		e.metrics.ObserveLaunch(LaunchOutcomeError)
		return LaunchResult{Validation: state}, fmt.Errorf("save launched draft: %w", err)
	}

	event := launch.NewEvent(e.store.Data(), e.clock.Now())
	if err := e.publisher.Publish(ctx, event); err != nil {
		e.metrics.ObserveLaunch(LaunchOutcomeError)
		e.logger.Error("failed to publish launch event", logging.KeyEventID, event.ID, logging.KeyError, err.Error())
		return LaunchResult{Validation: state}, fmt.Errorf("publish launch: %w", err)
	}
	e.metrics.ObserveLaunch(LaunchOutcomeLaunched)
	return LaunchResult{Launched: true, EventID: event.ID, Validation: state}, nil
}

// FieldError returns the first error for field once a launch was attempted.
// Params: field key.
// Returns: message and true when revealed and present.
func (e *Editor) FieldError(field string) (string, bool) {
	return e.gate.FieldError(e.store.Validation(), field)
}

// Preview renders the content blocks personalized for recipientID.
// Params: recipient id (empty for placeholder tokens).
// Returns: rendered blocks and the values used.
func (e *Editor) Preview(recipientID string) ([]preview.Block, preview.Data, error) {
	values := e.store.PersonalizedPreview(recipientID)
	blocks, err := preview.Render(e.store.Data().ContentBlocks, values)
	if err != nil {
		return nil, values, err
	}
	return blocks, values, nil
}

// Snapshot returns the current read model.
// Params: none.
// Returns: draft, section statuses, autosave status, and indicator label.
func (e *Editor) Snapshot() Snapshot {
	sections := make(map[domain.Section]draftstore.SectionStatus, len(domain.Sections())+1)
	for _, section := range domain.Sections() {
		sections[section] = e.store.SectionStatus(section)
	}
	sections[domain.SectionOverall] = e.store.OverallStatus()

	status := e.scheduler.Status()
	out := Snapshot{
		ID:         e.id,
		Data:       e.store.Data(),
		Sections:   sections,
		CanLaunch:  e.store.CanLaunch(),
		ShowErrors: e.gate.Open(),
		AutoSave:   status,
		Indicator:  autosave.Indicator(status, e.clock.Now()),
	}
	if err := e.store.Err(); err != nil {
		out.StorageError = err.Error()
	}
	return out
}

// Reset restores the default draft and hides field errors again.
// Params: none.
// Returns: ErrClosed after Close.
func (e *Editor) Reset() error {
	if err := e.store.ResetData(); err != nil {
		return err
	}
	e.gate.Reset()
	e.scheduler.Update(pendingChanges(e.store))
	return nil
}

// Close stops autosave and closes the store.
// Params: none.
// Returns: none; an in-flight save still completes.
func (e *Editor) Close() {
	e.scheduler.Close()
	e.store.Close()
}

// pendingChanges returns the draft as autosave compares it.
// Params: draft store.
// Returns: draft copy without lastSaved, which every merge restamps.
func pendingChanges(store *draftstore.Store) domain.SignalConfigData {
	data := store.Data()
	data.LastSaved = nil
	return data
}

// IsClosed reports whether err comes from a closed editor.
// Params: error returned by an editor operation.
// Returns: true for store or scheduler closed errors.
func IsClosed(err error) bool {
	return errors.Is(err, draftstore.ErrClosed) || errors.Is(err, autosave.ErrClosed)
}

type noopMetrics struct{}

func (noopMetrics) ObserveSave(string, error, time.Duration) {}
func (noopMetrics) ObserveStorageWrite(string, error)        {}
func (noopMetrics) ObserveLaunch(string)                     {}
func (noopMetrics) SetOpenEditors(int)                       {}
