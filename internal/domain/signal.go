package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultStorageKey is the local storage key used when a draft has no signal ID.
const DefaultStorageKey = "current-signal-draft"

// SignalConfigData is the full in-progress signal draft.
// Params: receiver, trigger, scope, content, and status fields.
// Returns: record persisted under one local storage key.
type SignalConfigData struct {
	SignalID   string      `json:"signalId,omitempty"`
	SignalName string      `json:"signalName"`
	Channel    ChannelKind `json:"signalChannel,omitempty"`

	DestinationType    DestinationType `json:"destinationType"`
	SelectedChannel    string          `json:"selectedChannel"`
	SelectedRecipients []string        `json:"selectedRecipients"`

	TriggerType       TriggerType `json:"triggerType"`
	Frequency         string      `json:"frequency,omitempty"`
	StartDateTime     string      `json:"startDateTime,omitempty"`
	Timezone          string      `json:"timezone,omitempty"`
	ExecutionDateTime string      `json:"executionDateTime,omitempty"`
	MonitorMetric     string      `json:"monitorMetric,omitempty"`
	ConditionType     string      `json:"conditionType,omitempty"`
	Direction         string      `json:"direction,omitempty"`
	ThresholdValue    string      `json:"thresholdValue,omitempty"`
	TimeWindow        string      `json:"timeWindow,omitempty"`
	CheckFrequency    string      `json:"checkFrequency,omitempty"`
	CooldownPeriod    string      `json:"cooldownPeriod,omitempty"`

	SignalPrompt    string   `json:"signalPrompt"`
	SelectedMetrics []string `json:"selectedMetrics"`
	TimeFrame       string   `json:"timeFrame,omitempty"`

	HasContent    bool           `json:"hasContent"`
	ContentBlocks []ContentBlock `json:"contentBlocks"`

	IsDraft    bool       `json:"isDraft"`
	IsComplete bool       `json:"isComplete"`
	LastSaved  *time.Time `json:"lastSaved,omitempty"`
}

// ContentBlock is one element of the message template.
// Params: block identity, kind, text body, and optional heading level.
// Returns: content unit rendered into previews.
type ContentBlock struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Content string `json:"content"`
	Level   *int   `json:"level,omitempty"`
}

// NewBlockID returns a random content block identifier.
func NewBlockID() string {
	return "block-" + uuid.NewString()
}

// DefaultSignal returns the empty draft created when an editor is opened.
// Params: none.
// Returns: draft with isDraft=true and scheduled trigger.
func DefaultSignal() SignalConfigData {
	return SignalConfigData{
		SelectedRecipients: []string{},
		TriggerType:        TriggerScheduled,
		SelectedMetrics:    []string{},
		ContentBlocks:      []ContentBlock{},
		IsDraft:            true,
	}
}

// StorageKey returns the local storage key for this draft.
// Params: none.
// Returns: signal ID or DefaultStorageKey.
func (s SignalConfigData) StorageKey() string {
	if key := strings.TrimSpace(s.SignalID); key != "" {
		return key
	}
	return DefaultStorageKey
}

// Clone returns a deep copy that shares no slices with the receiver.
// Params: none.
// Returns: independent copy.
func (s SignalConfigData) Clone() SignalConfigData {
	out := s
	out.SelectedRecipients = append([]string{}, s.SelectedRecipients...)
	out.SelectedMetrics = append([]string{}, s.SelectedMetrics...)
	out.ContentBlocks = make([]ContentBlock, len(s.ContentBlocks))
	for i, block := range s.ContentBlocks {
		out.ContentBlocks[i] = block
		if block.Level != nil {
			level := *block.Level
			out.ContentBlocks[i].Level = &level
		}
	}
	if s.LastSaved != nil {
		saved := *s.LastSaved
		out.LastSaved = &saved
	}
	return out
}

// Normalize fills nil lists and enforces that isDraft and isComplete are never both true.
// Params: none.
// Returns: normalized copy.
func (s SignalConfigData) Normalize() SignalConfigData {
	out := s.Clone()
	if out.IsComplete && out.IsDraft {
		out.IsDraft = false
	}
	return out
}

// DecodeSignal decodes one stored draft record.
// Params: JSON document bytes; missing optional fields are treated as unset.
// Returns: normalized draft or decode error.
func DecodeSignal(raw []byte) (SignalConfigData, error) {
	var signal SignalConfigData
	if err := json.Unmarshal(raw, &signal); err != nil {
		return SignalConfigData{}, fmt.Errorf("decode signal: %w", err)
	}
	return signal.Normalize(), nil
}

// EncodeSignal encodes draft into its local storage record form.
// Params: draft to encode.
// Returns: JSON document or encode error.
func EncodeSignal(signal SignalConfigData) ([]byte, error) {
	body, err := json.Marshal(signal.Normalize())
	if err != nil {
		return nil, fmt.Errorf("encode signal: %w", err)
	}
	return body, nil
}

// Patch is a partial draft update; nil fields are left untouched by Apply.
// Params: pointer per mergeable field.
// Returns: shallow-merge update.
type Patch struct {
	SignalID   *string      `json:"signalId,omitempty"`
	SignalName *string      `json:"signalName,omitempty"`
	Channel    *ChannelKind `json:"signalChannel,omitempty"`

	DestinationType    *DestinationType `json:"destinationType,omitempty"`
	SelectedChannel    *string          `json:"selectedChannel,omitempty"`
	SelectedRecipients *[]string        `json:"selectedRecipients,omitempty"`

	TriggerType       *TriggerType `json:"triggerType,omitempty"`
	Frequency         *string      `json:"frequency,omitempty"`
	StartDateTime     *string      `json:"startDateTime,omitempty"`
	Timezone          *string      `json:"timezone,omitempty"`
	ExecutionDateTime *string      `json:"executionDateTime,omitempty"`
	MonitorMetric     *string      `json:"monitorMetric,omitempty"`
	ConditionType     *string      `json:"conditionType,omitempty"`
	Direction         *string      `json:"direction,omitempty"`
	ThresholdValue    *string      `json:"thresholdValue,omitempty"`
	TimeWindow        *string      `json:"timeWindow,omitempty"`
	CheckFrequency    *string      `json:"checkFrequency,omitempty"`
	CooldownPeriod    *string      `json:"cooldownPeriod,omitempty"`

	SignalPrompt    *string   `json:"signalPrompt,omitempty"`
	SelectedMetrics *[]string `json:"selectedMetrics,omitempty"`
	TimeFrame       *string   `json:"timeFrame,omitempty"`

	HasContent    *bool           `json:"hasContent,omitempty"`
	ContentBlocks *[]ContentBlock `json:"contentBlocks,omitempty"`

	IsDraft    *bool `json:"isDraft,omitempty"`
	IsComplete *bool `json:"isComplete,omitempty"`
}

// Ptr returns a pointer to v for building patches.
func Ptr[T any](v T) *T {
	return &v
}

// DecodePatch decodes one JSON partial update.
// Params: JSON object bytes; unknown fields are rejected.
// Returns: patch or decode error.
func DecodePatch(raw []byte) (Patch, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	var patch Patch
	if err := decoder.Decode(&patch); err != nil {
		return Patch{}, fmt.Errorf("decode patch: %w", err)
	}
	return patch, nil
}

// Apply shallow-merges patch onto base; new content blocks without an id get one.
// Params: base draft.
// Returns: merged copy; base is not modified.
func (p Patch) Apply(base SignalConfigData) SignalConfigData {
	out := base.Clone()
	setString(&out.SignalID, p.SignalID)
	setString(&out.SignalName, p.SignalName)
	if p.Channel != nil {
		out.Channel = *p.Channel
	}
	if p.DestinationType != nil {
		out.DestinationType = *p.DestinationType
	}
	setString(&out.SelectedChannel, p.SelectedChannel)
	if p.SelectedRecipients != nil {
		out.SelectedRecipients = append([]string{}, (*p.SelectedRecipients)...)
	}
	if p.TriggerType != nil {
		out.TriggerType = *p.TriggerType
	}
	setString(&out.Frequency, p.Frequency)
	setString(&out.StartDateTime, p.StartDateTime)
	setString(&out.Timezone, p.Timezone)
	setString(&out.ExecutionDateTime, p.ExecutionDateTime)
	setString(&out.MonitorMetric, p.MonitorMetric)
	setString(&out.ConditionType, p.ConditionType)
	setString(&out.Direction, p.Direction)
	setString(&out.ThresholdValue, p.ThresholdValue)
	setString(&out.TimeWindow, p.TimeWindow)
	setString(&out.CheckFrequency, p.CheckFrequency)
	setString(&out.CooldownPeriod, p.CooldownPeriod)
	setString(&out.SignalPrompt, p.SignalPrompt)
	if p.SelectedMetrics != nil {
		out.SelectedMetrics = append([]string{}, (*p.SelectedMetrics)...)
	}
	setString(&out.TimeFrame, p.TimeFrame)
	if p.HasContent != nil {
		out.HasContent = *p.HasContent
	}
	if p.ContentBlocks != nil {
		out.ContentBlocks = SignalConfigData{ContentBlocks: *p.ContentBlocks}.Clone().ContentBlocks
		for i := range out.ContentBlocks {
			if strings.TrimSpace(out.ContentBlocks[i].ID) == "" {
				out.ContentBlocks[i].ID = NewBlockID()
			}
		}
	}
	if p.IsDraft != nil {
		out.IsDraft = *p.IsDraft
	}
	if p.IsComplete != nil {
		out.IsComplete = *p.IsComplete
	}
	return out
}

func setString(dst *string, value *string) {
	if value != nil {
		*dst = *value
	}
}
