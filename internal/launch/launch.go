// Package launch announces launched signals to downstream delivery systems.
package launch

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"signalconfig/internal/domain"
	"signalconfig/internal/logging"
)

// Event is one launched signal announcement.
// Params: identity, routing metadata, and the full completed record.
// Returns: message published for downstream senders.
type Event struct {
	ID              string                  `json:"id"`
	SignalID        string                  `json:"signal_id"`
	SignalName      string                  `json:"signal_name"`
	Channel         domain.ChannelKind      `json:"channel,omitempty"`
	DestinationType domain.DestinationType  `json:"destination_type"`
	TriggerType     domain.TriggerType      `json:"trigger_type"`
	LaunchedAt      time.Time               `json:"launched_at"`
	Signal          domain.SignalConfigData `json:"signal"`
}

// NewEvent builds a launch event for signal.
// Params: completed signal and launch timestamp.
// Returns: event with deterministic ID.
func NewEvent(signal domain.SignalConfigData, launchedAt time.Time) Event {
	launchedAt = launchedAt.UTC()
	return Event{
		ID:              BuildEventID(signal.StorageKey(), signal.SignalName, launchedAt),
		SignalID:        signal.StorageKey(),
		SignalName:      signal.SignalName,
		Channel:         signal.Channel,
		DestinationType: signal.DestinationType,
		TriggerType:     signal.TriggerType,
		LaunchedAt:      launchedAt,
		Signal:          signal.Clone(),
	}
}

// BuildEventID creates deterministic id for one launch.
// Params: storage key, signal name, and launch time.
// Returns: stable SHA1-based id string used for JetStream de-duplication.
func BuildEventID(signalKey, signalName string, launchedAt time.Time) string {
	raw := fmt.Sprintf("%s|%s|%d", signalKey, signalName, launchedAt.UnixNano())
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Publisher announces launch events.
// Params: context and event payload.
// Returns: publish error.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// LogPublisher records launches in the service log for single mode.
// Params: logger receiving one line per launch.
// Returns: publisher without external dependencies.
type LogPublisher struct {
	Logger *slog.Logger
}

// Publish logs the launch.
// Params: context and event payload.
// Returns: nil.
func (p LogPublisher) Publish(ctx context.Context, event Event) error {
	if p.Logger == nil {
		return nil
	}
	p.Logger.InfoContext(ctx, "signal launched",
		logging.KeyEventID, event.ID,
		"signal_id", event.SignalID,
		"signal_name", event.SignalName,
		"destination_type", string(event.DestinationType),
		"trigger_type", string(event.TriggerType),
	)
	return nil
}

// Close is a no-op.
func (p LogPublisher) Close() error {
	return nil
}
