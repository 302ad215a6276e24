package draftstore

import (
	"context"
	"testing"

	"signalconfig/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListDraftsSkipsUndisplayableRecords(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := storage.NewMemoryStorage(nil)
	require.NoError(t, backend.SetItem(ctx, "sig-1", `{"signalId":"sig-1","signalName":"Revenue digest"}`))
	require.NoError(t, backend.SetItem(ctx, "sig-2", `{"signalId":"sig-2","signalName":"   "}`))
	require.NoError(t, backend.SetItem(ctx, "sig-3", `{"signalId":"sig-3"}`))
	require.NoError(t, backend.SetItem(ctx, "sig-4", `garbage`))
	require.NoError(t, backend.SetItem(ctx, "current-signal-draft", `{"signalName":"Scratch"}`))

	drafts, err := ListDrafts(ctx, backend)
	require.NoError(t, err)

	names := map[string]string{}
	for _, draft := range drafts {
		names[draft.Key] = draft.Signal.SignalName
	}
	assert.Equal(t, map[string]string{
		"sig-1":                "Revenue digest",
		"current-signal-draft": "Scratch",
	}, names)
}
