package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSignal(t *testing.T) {
	t.Parallel()

	signal := DefaultSignal()
	assert.True(t, signal.IsDraft)
	assert.False(t, signal.IsComplete)
	assert.Equal(t, TriggerScheduled, signal.TriggerType)
	assert.NotNil(t, signal.SelectedRecipients)
	assert.NotNil(t, signal.SelectedMetrics)
	assert.NotNil(t, signal.ContentBlocks)
	assert.Equal(t, DefaultStorageKey, signal.StorageKey())

	signal.SignalID = "  sig-3 "
	assert.Equal(t, "sig-3", signal.StorageKey())
}

func TestPatchApplyIsShallowMerge(t *testing.T) {
	t.Parallel()

	base := DefaultSignal()
	base.SignalName = "Keep me"
	base.SelectedMetrics = []string{"revenue"}

	patch, err := DecodePatch([]byte(`{"signalPrompt":"new prompt","selectedMetrics":["churn","nps"]}`))
	require.NoError(t, err)
	out := patch.Apply(base)

	assert.Equal(t, "Keep me", out.SignalName)
	assert.Equal(t, "new prompt", out.SignalPrompt)
	assert.Equal(t, []string{"churn", "nps"}, out.SelectedMetrics)
	assert.Equal(t, []string{"revenue"}, base.SelectedMetrics)
}

func TestPatchApplyClearsWithEmptyValues(t *testing.T) {
	t.Parallel()

	base := DefaultSignal()
	base.SelectedChannel = "general"
	base.SelectedRecipients = []string{"me"}

	out := Patch{SelectedChannel: Ptr(""), SelectedRecipients: Ptr([]string{})}.Apply(base)
	assert.Empty(t, out.SelectedChannel)
	assert.Empty(t, out.SelectedRecipients)
}

func TestPatchApplyAssignsMissingBlockIDs(t *testing.T) {
	t.Parallel()

	level := 2
	out := Patch{ContentBlocks: Ptr([]ContentBlock{
		{ID: "b1", Type: "heading", Content: "Title", Level: &level},
		{Type: "paragraph", Content: "Body"},
	})}.Apply(DefaultSignal())

	require.Len(t, out.ContentBlocks, 2)
	assert.Equal(t, "b1", out.ContentBlocks[0].ID)
	assert.True(t, strings.HasPrefix(out.ContentBlocks[1].ID, "block-"))

	level = 3
	assert.Equal(t, 2, *out.ContentBlocks[0].Level)
}

func TestDecodePatchRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	_, err := DecodePatch([]byte(`{"signalName":"x","legacyTrigger":"cron"}`))
	require.Error(t, err)
}

func TestDecodeSignalNormalizesStatusFlags(t *testing.T) {
	t.Parallel()

	signal, err := DecodeSignal([]byte(`{"signalName":"Both","isDraft":true,"isComplete":true}`))
	require.NoError(t, err)
	assert.True(t, signal.IsComplete)
	assert.False(t, signal.IsDraft)
	assert.NotNil(t, signal.SelectedMetrics)

	_, err = DecodeSignal([]byte(`{"signalName":`))
	require.Error(t, err)
}

func TestEncodeSignalRoundTripKeepsLastSaved(t *testing.T) {
	t.Parallel()

	saved := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	signal := DefaultSignal()
	signal.SignalName = "Weekly"
	signal.LastSaved = &saved

	body, err := EncodeSignal(signal)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"lastSaved":"2026-10-15T09:30:00Z"`)
	assert.Contains(t, string(body), `"selectedRecipients":[]`)

	decoded, err := DecodeSignal(body)
	require.NoError(t, err)
	require.NotNil(t, decoded.LastSaved)
	assert.True(t, saved.Equal(*decoded.LastSaved))
}

func TestChannelAcceptsDestinations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		channel     ChannelKind
		destination DestinationType
		want        bool
	}{
		{ChannelSlack, DestinationChannel, true},
		{ChannelSlack, DestinationDirectMessage, true},
		{ChannelSlack, DestinationMailingList, false},
		{ChannelEmail, DestinationDistributionGroup, true},
		{ChannelEmail, DestinationChannel, false},
		{ChannelWebhook, DestinationNone, true},
		{"", DestinationChannel, true},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, tt.channel.Accepts(tt.destination), "%s/%s", tt.channel, tt.destination)
	}
	assert.True(t, ChannelWebhook.Valid())
	assert.False(t, ChannelKind("sms").Valid())
	assert.Nil(t, ChannelWebhook.Destinations())
}
