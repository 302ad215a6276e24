// Package storage provides the keyed local string store drafts are persisted into.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound indicates absent key.
var ErrNotFound = errors.New("not found")

// Storage is a flat key/value store of serialized records.
// Params: string keys and string values, like browser local storage.
// Returns: backend persistence behavior.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}
