package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"signalconfig/internal/domain"

	"github.com/go-playground/validator/v10"
)

// RuleSet selects which variant of the section rules is applied.
// Params: content rule strictness.
// Returns: rule options shared by the session validator and the draft store.
type RuleSet struct {
	// RequireContentBlocks additionally demands at least one block and no blank block content.
	RequireContentBlocks bool
}

var (
	// BasicRules gates content on hasContent only.
	BasicRules = RuleSet{}
	// DraftRules is the draft store's rule set with content-block checks.
	DraftRules = RuleSet{RequireContentBlocks: true}
)

// fieldValidator is safe for concurrent use once the custom tags are registered.
var fieldValidator = newFieldValidator()

// newFieldValidator builds the validator with json field names and signal-specific tags.
// Params: none.
// Returns: configured validator; panics when a tag cannot be registered.
func newFieldValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		return name
	})
	custom := map[string]validator.Func{
		"signalnumber": func(fl validator.FieldLevel) bool {
			return IsNumeric(fl.Field().String())
		},
		"signalname": func(fl validator.FieldLevel) bool {
			return signalNamePattern.MatchString(fl.Field().String())
		},
		"destination_available": destinationAvailable,
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register validation %q: %v", tag, err))
		}
	}
	return v
}

// destinationAvailable checks the destination against the sibling Channel field.
// Params: field level positioned on the destination type.
// Returns: true when no channel is chosen yet or the channel accepts the destination.
func destinationAvailable(fl validator.FieldLevel) bool {
	channel := domain.ChannelKind(fl.Parent().FieldByName("Channel").String())
	return channel == "" || channel.Accepts(domain.DestinationType(fl.Field().String()))
}

type receiverForm struct {
	Channel            string   `json:"channel"`
	DestinationType    string   `json:"destinationType" validate:"required,destination_available"`
	SelectedChannel    string   `json:"selectedChannel" validate:"required_if=DestinationType channel"`
	SelectedRecipients []string `json:"selectedRecipients" validate:"required_if=DestinationType direct-message"`
}

// triggerForm carries the numeric fields only for agent-triggered drafts; other branches ignore them.
type triggerForm struct {
	TriggerType       string `json:"triggerType" validate:"oneof=scheduled one-time agent-triggered"`
	Frequency         string `json:"frequency" validate:"required_if=TriggerType scheduled"`
	StartDateTime     string `json:"startDateTime" validate:"required_if=TriggerType scheduled"`
	ExecutionDateTime string `json:"executionDateTime" validate:"required_if=TriggerType one-time"`
	Timezone          string `json:"timezone" validate:"required_if=TriggerType scheduled,required_if=TriggerType one-time"`
	MonitorMetric     string `json:"monitorMetric" validate:"required_if=TriggerType agent-triggered"`
	ConditionType     string `json:"conditionType" validate:"required_if=TriggerType agent-triggered"`
	Direction         string `json:"direction" validate:"required_if=TriggerType agent-triggered"`
	ThresholdValue    string `json:"thresholdValue" validate:"required_if=TriggerType agent-triggered,omitempty,signalnumber"`
	TimeWindow        string `json:"timeWindow" validate:"required_if=TriggerType agent-triggered"`
	CheckFrequency    string `json:"checkFrequency" validate:"required_if=TriggerType agent-triggered"`
	CooldownPeriod    string `json:"cooldownPeriod" validate:"omitempty,signalnumber"`
}

type scopeForm struct {
	SignalPrompt    string   `json:"signalPrompt" validate:"required,min=10"`
	SelectedMetrics []string `json:"selectedMetrics" validate:"min=1"`
	TimeFrame       string   `json:"timeFrame" validate:"required"`
}

type contentForm struct {
	HasContent bool `json:"content" validate:"required"`
}

type contentBlocksForm struct {
	HasContent bool     `json:"content" validate:"required"`
	Blocks     []string `json:"contentBlocks" validate:"min=1,dive,required"`
}

type ruleKey struct {
	field string
	tag   string
}

type messageFunc func(data domain.SignalConfigData) string

func fixed(text string) messageFunc {
	return func(domain.SignalConfigData) string { return text }
}

// fieldMessages maps a failed (field, tag) pair to the text shown next to the field.
var fieldMessages = map[ruleKey]messageFunc{
	{"destinationType", "required"}: fixed("Please select a destination type"),
	{"destinationType", "destination_available"}: func(data domain.SignalConfigData) string {
		return fmt.Sprintf("Destination type %q is not available for %s signals", data.DestinationType, data.Channel)
	},
	{"selectedChannel", "required_if"}:    fixed("Please select a Slack channel"),
	{"selectedRecipients", "required_if"}: fixed("Please select at least one recipient"),

	{"triggerType", "oneof"}:             fixed("Please select a trigger type"),
	{"frequency", "required_if"}:         fixed("Please select a frequency"),
	{"startDateTime", "required_if"}:     fixed("Please set a start date and time"),
	{"executionDateTime", "required_if"}: fixed("Please set an execution date and time"),
	{"timezone", "required_if"}:          fixed("Please select a timezone"),
	{"monitorMetric", "required_if"}:     fixed("Please select a metric to monitor"),
	{"conditionType", "required_if"}:     fixed("Please select a condition type"),
	{"direction", "required_if"}:         fixed("Please select a direction"),
	{"thresholdValue", "required_if"}:    fixed("Please enter a threshold value"),
	{"thresholdValue", "signalnumber"}:   fixed("Threshold must be a valid number"),
	{"timeWindow", "required_if"}:        fixed("Please select a time window"),
	{"checkFrequency", "required_if"}:    fixed("Please select a check frequency"),
	{"cooldownPeriod", "signalnumber"}:   fixed("Cooldown period must be a valid number"),

	{"signalPrompt", "required"}: fixed("Please enter a signal prompt"),
	{"signalPrompt", "min"}:      fixed("Signal prompt should be at least 10 characters"),
	{"selectedMetrics", "min"}:   fixed("Please select at least one metric"),
	{"timeFrame", "required"}:    fixed("Please select a time frame"),

	{"content", "required"}:       fixed("Please define content for your signal"),
	{"contentBlocks", "min"}:      fixed("Please add at least one content block"),
	{"contentBlocks", "required"}: fixed("All content blocks must have content"),
}

// ValidateReceiver checks destination selection.
// Params: draft and rule set.
// Returns: every receiver error that applies.
func ValidateReceiver(data domain.SignalConfigData, _ RuleSet) []domain.ValidationError {
	form := receiverForm{
		Channel:            string(data.Channel),
		DestinationType:    string(data.DestinationType),
		SelectedChannel:    data.SelectedChannel,
		SelectedRecipients: nonEmpty(data.SelectedRecipients),
	}
	return check(form, data, domain.SectionReceiver)
}

// ValidateTrigger checks the fields required by the active trigger type.
// Params: draft and rule set.
// Returns: every trigger error that applies.
func ValidateTrigger(data domain.SignalConfigData, _ RuleSet) []domain.ValidationError {
	form := triggerForm{
		TriggerType:       string(data.TriggerType),
		Frequency:         data.Frequency,
		StartDateTime:     data.StartDateTime,
		ExecutionDateTime: data.ExecutionDateTime,
		Timezone:          data.Timezone,
		MonitorMetric:     data.MonitorMetric,
		ConditionType:     data.ConditionType,
		Direction:         data.Direction,
		TimeWindow:        data.TimeWindow,
		CheckFrequency:    data.CheckFrequency,
	}
	if data.TriggerType == domain.TriggerAgentTriggered {
		form.ThresholdValue = strings.TrimSpace(data.ThresholdValue)
		form.CooldownPeriod = strings.TrimSpace(data.CooldownPeriod)
	}
	return check(form, data, domain.SectionTrigger)
}

// ValidateScope checks prompt, metrics, and time frame.
// Params: draft and rule set.
// Returns: every scope error that applies.
func ValidateScope(data domain.SignalConfigData, _ RuleSet) []domain.ValidationError {
	form := scopeForm{
		SignalPrompt:    strings.TrimSpace(data.SignalPrompt),
		SelectedMetrics: data.SelectedMetrics,
		TimeFrame:       data.TimeFrame,
	}
	return check(form, data, domain.SectionScope)
}

// ValidateContent checks that message content was defined.
// Params: draft and rule set; RequireContentBlocks enables block checks.
// Returns: every content error that applies.
func ValidateContent(data domain.SignalConfigData, rules RuleSet) []domain.ValidationError {
	if !rules.RequireContentBlocks {
		return check(contentForm{HasContent: data.HasContent}, data, domain.SectionContent)
	}
	blocks := make([]string, 0, len(data.ContentBlocks))
	for _, block := range data.ContentBlocks {
		blocks = append(blocks, strings.TrimSpace(block.Content))
	}
	return check(contentBlocksForm{HasContent: data.HasContent, Blocks: blocks}, data, domain.SectionContent)
}

// check runs the struct rules of form and translates failures into section errors.
// Params: section form, source draft for message formatting, and section name.
// Returns: errors in form field order, one per field and message.
func check(form any, data domain.SignalConfigData, section domain.Section) []domain.ValidationError {
	err := fieldValidator.Struct(form)
	if err == nil {
		return nil
	}
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) {
		panic(fmt.Sprintf("validate %T: %v", form, err))
	}

	var errs []domain.ValidationError
	seen := make(map[ruleKey]bool, len(failures))
	for _, failure := range failures {
		field, _, _ := strings.Cut(failure.Field(), "[")
		key := ruleKey{field: field, tag: failure.Tag()}
		if seen[key] {
			continue
		}
		seen[key] = true

		message := field + " is invalid"
		if render, ok := fieldMessages[key]; ok {
			message = render(data)
		}
		errs = append(errs, domain.ValidationError{Field: field, Message: message, Section: section})
	}
	return errs
}

// IsNumeric reports whether value parses to a finite real number.
// Params: raw text; surrounding whitespace is ignored, decimal separator is always '.'.
// Returns: true for finite numbers.
func IsNumeric(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return false
	}
	return !math.IsNaN(parsed) && !math.IsInf(parsed, 0)
}

// nonEmpty maps an empty slice to nil so required rules treat it as missing.
func nonEmpty(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return values
}
