package domain

// ChannelKind identifies the delivery channel a signal is configured for.
type ChannelKind string

const (
	// ChannelSlack delivers into Slack channels or direct messages.
	ChannelSlack ChannelKind = "slack"
	// ChannelEmail delivers to mailing lists or distribution groups.
	ChannelEmail ChannelKind = "email"
	// ChannelWebhook delivers JSON payloads to an HTTP endpoint.
	ChannelWebhook ChannelKind = "webhook"
)

// DestinationType selects the receiver variant inside a channel.
type DestinationType string

const (
	DestinationNone              DestinationType = ""
	DestinationChannel           DestinationType = "channel"
	DestinationDirectMessage     DestinationType = "direct-message"
	DestinationMailingList       DestinationType = "mailing-list"
	DestinationDistributionGroup DestinationType = "distribution-group"
)

var channelDestinations = map[ChannelKind][]DestinationType{
	ChannelSlack: {DestinationChannel, DestinationDirectMessage},
	ChannelEmail: {DestinationMailingList, DestinationDistributionGroup},
}

// Valid reports whether kind is one of the known channels.
// Params: none.
// Returns: true for slack/email/webhook.
func (k ChannelKind) Valid() bool {
	switch k {
	case ChannelSlack, ChannelEmail, ChannelWebhook:
		return true
	default:
		return false
	}
}

// Destinations lists destination types accepted by the channel.
// Params: none.
// Returns: allowed destination types; nil when the channel does not restrict them.
func (k ChannelKind) Destinations() []DestinationType {
	return append([]DestinationType(nil), channelDestinations[k]...)
}

// Accepts reports whether destination is valid for the channel.
// Params: destination type to check.
// Returns: true when the channel is unset, unrestricted, or lists destination.
func (k ChannelKind) Accepts(destination DestinationType) bool {
	allowed, restricted := channelDestinations[k]
	if !restricted {
		return true
	}
	for _, candidate := range allowed {
		if candidate == destination {
			return true
		}
	}
	return false
}

// TriggerType selects when a signal fires.
type TriggerType string

const (
	TriggerScheduled      TriggerType = "scheduled"
	TriggerOneTime        TriggerType = "one-time"
	TriggerAgentTriggered TriggerType = "agent-triggered"
)

// Section names one independently validated part of a signal.
type Section string

const (
	SectionReceiver Section = "receiver"
	SectionTrigger  Section = "trigger"
	SectionScope    Section = "scope"
	SectionContent  Section = "content"
	// SectionOverall aggregates the four sections in store status queries.
	SectionOverall Section = "overall"
)

// Sections lists the four concrete sections in display order.
func Sections() []Section {
	return []Section{SectionReceiver, SectionTrigger, SectionScope, SectionContent}
}

// ValidationError is one derived, user-facing field problem.
// Params: field key, human message, and owning section.
// Returns: value recomputed from the draft on every read.
type ValidationError struct {
	Field   string  `json:"field"`
	Message string  `json:"message"`
	Section Section `json:"section"`
}

// ValidationSection is the computed result for one section.
// Params: errors list plus validity and completeness flags.
// Returns: section summary.
type ValidationSection struct {
	Errors     []ValidationError `json:"errors"`
	IsValid    bool              `json:"isValid"`
	IsComplete bool              `json:"isComplete"`
}
