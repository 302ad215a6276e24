package validation

import (
	"sync"

	"signalconfig/internal/domain"
)

// Gate hides field-level errors until the first launch attempt.
// Params: attempted flag guarded by mutex.
// Returns: reveal decision for field errors.
type Gate struct {
	mu        sync.Mutex
	attempted bool
}

// Attempt opens the gate.
// Params: none.
// Returns: none; field errors are revealed from now on.
func (g *Gate) Attempt() {
	g.mu.Lock()
	g.attempted = true
	g.mu.Unlock()
}

// Reset closes the gate again.
// Params: none.
// Returns: none; field errors are hidden until the next attempt.
func (g *Gate) Reset() {
	g.mu.Lock()
	g.attempted = false
	g.mu.Unlock()
}

// Open reports whether a launch was attempted.
// Params: none.
// Returns: true after Attempt and before Reset.
func (g *Gate) Open() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.attempted
}

// FieldError returns the first error for field only once the gate is open.
// Params: evaluated state and field key.
// Returns: message and true when revealed and present.
func (g *Gate) FieldError(state State, field string) (string, bool) {
	if !g.Open() {
		return "", false
	}
	return state.FirstError(field)
}

// Session is a standalone stateful validator over its own copy of a draft.
// Params: draft data, rule set, and reveal gate.
// Returns: validation state and gated field errors for form pages.
type Session struct {
	mu    sync.RWMutex
	data  domain.SignalConfigData
	rules RuleSet
	gate  Gate
}

// NewSession creates a session seeded with defaults merged with initial.
// Params: initial partial data.
// Returns: session using BasicRules.
func NewSession(initial domain.Patch) *Session {
	return NewSessionWithRules(initial, BasicRules)
}

// NewSessionWithRules creates a session with an explicit rule set.
// Params: initial partial data and rule set.
// Returns: session.
func NewSessionWithRules(initial domain.Patch, rules RuleSet) *Session {
	return NewDraftSession(initial.Apply(domain.DefaultSignal()), rules)
}

// NewDraftSession creates a session over a complete draft record.
// Params: draft record and rule set.
// Returns: session holding its own copy of data.
func NewDraftSession(data domain.SignalConfigData, rules RuleSet) *Session {
	return &Session{
		data:  data.Clone(),
		rules: rules,
	}
}

// Data returns a copy of the session draft.
// Params: none.
// Returns: draft copy safe to mutate.
func (s *Session) Data() domain.SignalConfigData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

// Update shallow-merges patch into the session draft.
// Params: partial update.
// Returns: none.
func (s *Session) Update(patch domain.Patch) {
	s.mu.Lock()
	s.data = patch.Apply(s.data)
	s.mu.Unlock()
}

// State evaluates the current draft.
// Params: none.
// Returns: aggregate validation state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Evaluate(s.data, s.rules)
}

// ShowErrors reports whether field errors are currently revealed.
// Params: none.
// Returns: reveal flag.
func (s *Session) ShowErrors() bool {
	return s.gate.Open()
}

// HasAttemptedLaunch is an alias of ShowErrors kept for form callers.
// Params: none.
// Returns: true once AttemptLaunch ran and ResetValidation did not follow.
func (s *Session) HasAttemptedLaunch() bool {
	return s.gate.Open()
}

// FieldError returns the first error message for field after a launch attempt.
// Params: field key.
// Returns: message and true; empty and false before AttemptLaunch or when the field is valid.
func (s *Session) FieldError(field string) (string, bool) {
	return s.gate.FieldError(s.State(), field)
}

// AttemptLaunch reveals field errors and reports current validity.
// Params: none.
// Returns: true when every section is valid.
func (s *Session) AttemptLaunch() bool {
	s.gate.Attempt()
	return s.State().IsValid
}

// ResetValidation hides field errors without touching data.
// Params: none.
// Returns: none.
func (s *Session) ResetValidation() {
	s.gate.Reset()
}
