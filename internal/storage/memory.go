package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage keeps items in process memory for single-instance mode and tests.
// Params: item map and injected clock.
// Returns: storage implementation without external dependencies.
type MemoryStorage struct {
	mu    sync.RWMutex
	now   func() time.Time
	items map[string]memoryItem
}

type memoryItem struct {
	value     string
	updatedAt time.Time
}

// NewMemoryStorage creates in-memory storage.
// Params: now function (defaults to time.Now when nil).
// Returns: initialized in-memory storage.
func NewMemoryStorage(now func() time.Time) *MemoryStorage {
	if now == nil {
		now = time.Now
	}
	return &MemoryStorage{
		now:   now,
		items: make(map[string]memoryItem),
	}
}

// GetItem returns the stored value.
// Params: item key.
// Returns: value or ErrNotFound.
func (s *MemoryStorage) GetItem(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[key]
	if !ok {
		return "", ErrNotFound
	}
	return item.value, nil
}

// SetItem writes value unconditionally.
// Params: item key and serialized value.
// Returns: nil (in-memory update).
func (s *MemoryStorage) SetItem(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = memoryItem{value: value, updatedAt: s.now()}
	return nil
}

// RemoveItem deletes key; removing an absent key is not an error.
// Params: item key.
// Returns: nil (in-memory delete).
func (s *MemoryStorage) RemoveItem(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
	return nil
}

// Keys lists stored keys, most recently written first.
// Params: none.
// Returns: key list.
func (s *MemoryStorage) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.items))
	for key := range s.items {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		left, right := s.items[keys[i]].updatedAt, s.items[keys[j]].updatedAt
		if left.Equal(right) {
			return keys[i] < keys[j]
		}
		return left.After(right)
	})
	return keys, nil
}

// Close is a no-op for in-memory storage.
// Params: none.
// Returns: nil.
func (s *MemoryStorage) Close() error {
	return nil
}
