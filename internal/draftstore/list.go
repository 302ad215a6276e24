package draftstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"signalconfig/internal/domain"
	"signalconfig/internal/storage"
)

// Draft is one displayable stored record.
type Draft struct {
	Key    string                  `json:"key"`
	Signal domain.SignalConfigData `json:"signal"`
}

// ListDrafts returns stored records that decode and carry a signal name.
// Params: context and storage backend.
// Returns: drafts in storage key order, or wrapped key listing error.
func ListDrafts(ctx context.Context, backend storage.Storage) ([]Draft, error) {
	keys, err := backend.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}

	drafts := make([]Draft, 0, len(keys))
	for _, key := range keys {
		raw, err := backend.GetItem(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read draft %q: %w", key, err)
		}
		signal, err := domain.DecodeSignal([]byte(raw))
		if err != nil || strings.TrimSpace(signal.SignalName) == "" {
			continue
		}
		drafts = append(drafts, Draft{Key: key, Signal: signal})
	}
	return drafts, nil
}
