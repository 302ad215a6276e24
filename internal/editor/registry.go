package editor

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned for an unknown editor id.
var ErrNotFound = errors.New("editor not found")

// Registry keeps open editors by id.
// Params: shared editor options; autosave settings may be swapped on config reload.
// Returns: editor lifecycle management for the HTTP surface.
type Registry struct {
	mu      sync.RWMutex
	opts    Options
	editors map[string]*Editor
}

// NewRegistry creates an empty registry.
// Params: options applied to every editor it opens.
// Returns: registry.
func NewRegistry(opts Options) *Registry {
	if opts.Metrics == nil {
		opts.Metrics = noopMetrics{}
	}
	return &Registry{opts: opts, editors: make(map[string]*Editor)}
}

// Open creates an editor with a fresh id, resuming resumeKey when non-empty.
// Params: context and optional storage key.
// Returns: opened editor or resume error.
func (r *Registry) Open(ctx context.Context, resumeKey string) (*Editor, error) {
	r.mu.RLock()
	opts := r.opts
	r.mu.RUnlock()

	ed, err := New(ctx, uuid.NewString(), resumeKey, opts)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.editors[ed.ID()] = ed
	count := len(r.editors)
	r.mu.Unlock()
	opts.Metrics.SetOpenEditors(count)
	return ed, nil
}

// Get returns the editor for id.
// Params: editor id.
// Returns: editor or ErrNotFound.
func (r *Registry) Get(id string) (*Editor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ed, ok := r.editors[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ed, nil
}

// Close closes and forgets one editor.
// Params: editor id.
// Returns: ErrNotFound for an unknown id.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	ed, ok := r.editors[id]
	delete(r.editors, id)
	count := len(r.editors)
	metrics := r.opts.Metrics
	r.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	ed.Close()
	metrics.SetOpenEditors(count)
	return nil
}

// CloseAll closes every editor.
// Params: none.
// Returns: none; the open-editor gauge drops to zero.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	editors := r.editors
	r.editors = make(map[string]*Editor)
	metrics := r.opts.Metrics
	r.mu.Unlock()
	for _, ed := range editors {
		ed.Close()
	}
	metrics.SetOpenEditors(0)
}

// Len returns the number of open editors.
// Params: none.
// Returns: editor count.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.editors)
}

// IDs returns open editor ids.
// Params: none.
// Returns: ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.editors))
	for id := range r.editors {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// SetAutoSave replaces autosave settings for editors opened afterwards.
// Params: new settings.
// Returns: none; open editors keep their scheduler.
func (r *Registry) SetAutoSave(settings AutoSaveSettings) {
	r.mu.Lock()
	r.opts.AutoSave = settings
	r.mu.Unlock()
}

// AutoSave returns the settings applied to newly opened editors.
// Params: none.
// Returns: settings snapshot.
func (r *Registry) AutoSave() AutoSaveSettings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.opts.AutoSave
}
