package validation

import (
	"testing"

	"signalconfig/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionDefaultsAndInitialData(t *testing.T) {
	t.Parallel()

	session := NewSession(domain.Patch{})
	data := session.Data()
	assert.Equal(t, domain.DestinationNone, data.DestinationType)
	assert.Equal(t, domain.TriggerScheduled, data.TriggerType)
	assert.Empty(t, data.SelectedRecipients)
	assert.False(t, data.HasContent)
	assert.False(t, session.HasAttemptedLaunch())

	session = NewSession(domain.Patch{
		DestinationType: domain.Ptr(domain.DestinationChannel),
		TriggerType:     domain.Ptr(domain.TriggerScheduled),
	})
	state := session.State()
	assert.Contains(t, messages(state.Receiver.Errors), "Please select a Slack channel")
	assert.Contains(t, messages(state.Trigger.Errors), "Please select a frequency")
	assert.Contains(t, messages(state.Trigger.Errors), "Please set a start date and time")
	assert.Contains(t, messages(state.Trigger.Errors), "Please select a timezone")
}

func TestSessionUpdatePreservesOtherFields(t *testing.T) {
	t.Parallel()

	session := NewSession(domain.Patch{SignalPrompt: domain.Ptr("Summarize weekly sales")})
	session.Update(domain.Patch{DestinationType: domain.Ptr(domain.DestinationDirectMessage)})

	data := session.Data()
	assert.Equal(t, "Summarize weekly sales", data.SignalPrompt)
	assert.Equal(t, domain.DestinationDirectMessage, data.DestinationType)
}

func TestSessionRevealGate(t *testing.T) {
	t.Parallel()

	session := NewSession(domain.Patch{DestinationType: domain.Ptr(domain.DestinationChannel)})
	for _, field := range []string{"selectedChannel", "frequency", "signalPrompt", "content", "unknown"} {
		_, ok := session.FieldError(field)
		assert.False(t, ok, field)
	}

	assert.False(t, session.AttemptLaunch())
	assert.True(t, session.ShowErrors())

	message, ok := session.FieldError("selectedChannel")
	require.True(t, ok)
	assert.Equal(t, "Please select a Slack channel", message)

	message, ok = session.FieldError("signalPrompt")
	require.True(t, ok)
	assert.Equal(t, "Please enter a signal prompt", message)

	session.ResetValidation()
	_, ok = session.FieldError("selectedChannel")
	assert.False(t, ok)
	assert.Equal(t, domain.DestinationChannel, session.Data().DestinationType)
}

func TestSessionAttemptLaunchValid(t *testing.T) {
	t.Parallel()

	signal := validSignal()
	session := NewSession(domain.Patch{
		DestinationType: domain.Ptr(signal.DestinationType),
		SelectedChannel: domain.Ptr(signal.SelectedChannel),
		Frequency:       domain.Ptr(signal.Frequency),
		StartDateTime:   domain.Ptr(signal.StartDateTime),
		Timezone:        domain.Ptr(signal.Timezone),
		SignalPrompt:    domain.Ptr(signal.SignalPrompt),
		SelectedMetrics: domain.Ptr(signal.SelectedMetrics),
		TimeFrame:       domain.Ptr(signal.TimeFrame),
		HasContent:      domain.Ptr(true),
	})
	assert.True(t, session.AttemptLaunch())
	_, ok := session.FieldError("selectedChannel")
	assert.False(t, ok)
	assert.Zero(t, session.State().TotalErrors)
}

func TestSessionErrorCountTracksUpdates(t *testing.T) {
	t.Parallel()

	session := NewSession(domain.Patch{})
	before := session.State().TotalErrors
	session.Update(domain.Patch{TimeFrame: domain.Ptr("last-30-days")})
	assert.Equal(t, before-1, session.State().TotalErrors)
}

func TestValidateSignalName(t *testing.T) {
	t.Parallel()

	result := ValidateSignalName("Hi")
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors[0], "at least 3 characters")

	result = ValidateSignalName("Valid Name")
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)

	result = ValidateSignalName("   ")
	assert.Equal(t, []string{"Signal name is required"}, result.Errors)

	result = ValidateSignalName("a@")
	assert.Len(t, result.Errors, 2)

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	result = ValidateSignalName(string(long))
	assert.Equal(t, []string{"Signal name must be less than 100 characters"}, result.Errors)
	assert.True(t, ValidateSignalName(string(long[:100])).IsValid)

	assert.True(t, ValidateSignalName("Weekly report - v1.2, go!").IsValid)
}
