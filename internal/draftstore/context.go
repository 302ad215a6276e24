package draftstore

import "context"

type storeKey struct{}

// WithStore attaches store to ctx for handlers that need the live draft.
func WithStore(ctx context.Context, store *Store) context.Context {
	return context.WithValue(ctx, storeKey{}, store)
}

// FromContext returns the store attached by WithStore.
// Params: context carrying a store.
// Returns: store; panics when none was attached since that is a wiring bug.
func FromContext(ctx context.Context) *Store {
	store, ok := ctx.Value(storeKey{}).(*Store)
	if !ok || store == nil {
		panic("draftstore: FromContext called without a store; wrap the context with WithStore")
	}
	return store
}
