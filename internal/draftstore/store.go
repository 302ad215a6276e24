// Package draftstore holds the in-progress signal draft and persists it into local storage.
package draftstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"signalconfig/internal/clock"
	"signalconfig/internal/domain"
	"signalconfig/internal/logging"
	"signalconfig/internal/preview"
	"signalconfig/internal/storage"
	"signalconfig/internal/validation"
)

const (
	WriteOpportunistic = "opportunistic"
	WriteExplicit      = "save"
)

// ErrClosed is returned by mutating operations after Close.
var ErrClosed = errors.New("draft store closed")

// WriteObserver receives the outcome of every storage write.
type WriteObserver interface {
	ObserveStorageWrite(kind string, err error)
}

// Options configures store collaborators.
// Params: clock, logger, metrics hook, preview provider, and recipient directory.
// Returns: store construction parameters; nil fields get defaults.
type Options struct {
	Clock     clock.Clock
	Logger    *slog.Logger
	Metrics   WriteObserver
	Previews  preview.Provider
	Directory preview.Directory
}

// SectionStatus summarizes one section for progress display.
// Params: completeness flag and error messages.
// Returns: status for a section or the overall draft.
type SectionStatus struct {
	IsComplete bool     `json:"isComplete"`
	Errors     []string `json:"errors"`
	HasErrors  bool     `json:"hasErrors"`
}

// Store is the single source of truth for one draft.
// Params: storage backend plus injected collaborators.
// Returns: draft state with validation and local persistence.
type Store struct {
	mu        sync.RWMutex
	storage   storage.Storage
	clock     clock.Clock
	logger    *slog.Logger
	metrics   WriteObserver
	previews  preview.Provider
	directory preview.Directory

	data    domain.SignalConfigData
	lastErr error
	closed  bool
}

// New creates a store holding the default draft.
// Params: storage backend and options.
// Returns: ready store.
func New(backend storage.Storage, opts Options) *Store {
	clk := opts.Clock
	if clk == nil {
		clk = clock.RealClock{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	directory := opts.Directory
	if directory == nil {
		directory = preview.DefaultDirectory()
	}
	previews := opts.Previews
	if previews == nil {
		previews = preview.CannedProvider{Directory: directory}
	}
	return &Store{
		storage:   backend,
		clock:     clk,
		logger:    logger,
		metrics:   opts.Metrics,
		previews:  previews,
		directory: directory,
		data:      domain.DefaultSignal(),
	}
}

// Data returns a copy of the current draft.
func (s *Store) Data() domain.SignalConfigData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

// UpdateData merges patch, stamps lastSaved in memory, and writes through when the draft is non-blank.
// Params: context and partial update.
// Returns: ErrClosed only; write failures are recorded in Err and logged.
func (s *Store) UpdateData(ctx context.Context, patch domain.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	next := patch.Apply(s.data).Normalize()
	now := s.clock.Now()
	next.LastSaved = &now
	s.data = next

	if worthPersisting(next) {
		_ = s.writeLocked(ctx, WriteOpportunistic)
	}
	return nil
}

// ResetData restores the default draft without touching storage.
// Params: none.
// Returns: ErrClosed after Close.
func (s *Store) ResetData() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.data = domain.DefaultSignal()
	s.lastErr = nil
	return nil
}

// SaveToStorage writes the draft under its storage key.
// Params: context.
// Returns: wrapped write error (also recorded in Err) or ErrClosed.
func (s *Store) SaveToStorage(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return s.writeLocked(ctx, WriteExplicit)
}

// writeLocked stores the draft with lastSaved stamped at write time.
func (s *Store) writeLocked(ctx context.Context, kind string) error {
	record := s.data.Clone()
	now := s.clock.Now()
	record.LastSaved = &now
	key := record.StorageKey()

	err := s.encodeAndWrite(ctx, key, record)
	if s.metrics != nil {
		s.metrics.ObserveStorageWrite(kind, err)
	}
	if err != nil {
		s.lastErr = err
		s.logger.Error("failed to save signal config to storage", logging.KeyStorageKey, key, "kind", kind, logging.KeyError, err.Error())
		return err
	}
	s.lastErr = nil
	return nil
}

func (s *Store) encodeAndWrite(ctx context.Context, key string, record domain.SignalConfigData) error {
	body, err := domain.EncodeSignal(record)
	if err != nil {
		return err
	}
	if err := s.storage.SetItem(ctx, key, string(body)); err != nil {
		return fmt.Errorf("write draft %q: %w", key, err)
	}
	return nil
}

// LoadFromStorage replaces the draft with the record stored under key.
// Params: context and key (empty uses the default key).
// Returns: nil when absent; wrapped read or parse error with state left unchanged.
func (s *Store) LoadFromStorage(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		key = domain.DefaultStorageKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	raw, err := s.storage.GetItem(ctx, key)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && raw == "") {
		return nil
	}
	if err != nil {
		err = fmt.Errorf("read draft %q: %w", key, err)
		s.lastErr = err
		s.logger.Error("Error loading signal config from storage", logging.KeyStorageKey, key, logging.KeyError, err.Error())
		return err
	}

	loaded, err := domain.DecodeSignal([]byte(raw))
	if err != nil {
		err = fmt.Errorf("load draft %q: %w", key, err)
		s.lastErr = err
		s.logger.Error("Error loading signal config from storage", logging.KeyStorageKey, key, logging.KeyError, err.Error())
		return err
	}
	s.data = loaded
	s.lastErr = nil
	return nil
}

// SectionStatus evaluates one section, or every section for domain.SectionOverall.
// Params: section name.
// Returns: completeness and error messages; unknown sections report incomplete with no errors.
func (s *Store) SectionStatus(section domain.Section) SectionStatus {
	state := s.evaluate()
	if section == domain.SectionOverall {
		return overallStatus(state)
	}
	found, ok := state.Section(section)
	if !ok {
		return SectionStatus{IsComplete: false, Errors: []string{}}
	}
	return statusOf(found.Errors)
}

// OverallStatus aggregates all four sections.
func (s *Store) OverallStatus() SectionStatus {
	return overallStatus(s.evaluate())
}

// CanLaunch reports whether the draft has no validation errors.
func (s *Store) CanLaunch() bool {
	return s.evaluate().TotalErrors == 0
}

// Validation returns the full evaluated state under the store's rule set.
func (s *Store) Validation() validation.State {
	return s.evaluate()
}

func (s *Store) evaluate() validation.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return validation.Evaluate(s.data, validation.DraftRules)
}

// MarkAsComplete sets isComplete and clears isDraft.
// Params: context.
// Returns: ErrClosed after Close.
func (s *Store) MarkAsComplete(ctx context.Context) error {
	return s.UpdateData(ctx, domain.Patch{IsComplete: domain.Ptr(true), IsDraft: domain.Ptr(false)})
}

// MarkAsDraft sets isDraft and clears isComplete.
// Params: context.
// Returns: ErrClosed after Close.
func (s *Store) MarkAsDraft(ctx context.Context) error {
	return s.UpdateData(ctx, domain.Patch{IsDraft: domain.Ptr(true), IsComplete: domain.Ptr(false)})
}

// ValidateSignalName checks a candidate name.
func (s *Store) ValidateSignalName(name string) validation.NameResult {
	return validation.ValidateSignalName(name)
}

// RecipientName resolves a recipient display name with identity fallback.
func (s *Store) RecipientName(id string) string {
	return s.directory.Name(id)
}

// PersonalizedPreview returns preview values for recipientID (placeholders when empty).
func (s *Store) PersonalizedPreview(recipientID string) preview.Data {
	return s.previews.Preview(recipientID)
}

// StorageKey returns the key the draft is persisted under.
func (s *Store) StorageKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.StorageKey()
}

// Err returns the last persistence error, cleared by the next successful write or load.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Close marks the store unusable; storage is owned by the caller and stays open.
// Params: none.
// Returns: none.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// worthPersisting skips writing a fully blank draft.
func worthPersisting(data domain.SignalConfigData) bool {
	return data.SignalName != "" || data.DestinationType != domain.DestinationNone || len(data.SelectedMetrics) > 0
}

func statusOf(errs []domain.ValidationError) SectionStatus {
	messages := make([]string, 0, len(errs))
	for _, err := range errs {
		messages = append(messages, err.Message)
	}
	return SectionStatus{
		IsComplete: len(messages) == 0,
		Errors:     messages,
		HasErrors:  len(messages) > 0,
	}
}

func overallStatus(state validation.State) SectionStatus {
	return statusOf(state.Errors())
}
