package validation

import "signalconfig/internal/domain"

// State is the aggregate validation result of one draft.
// Params: per-section summaries and totals.
// Returns: derived view; never stored.
type State struct {
	Receiver    domain.ValidationSection `json:"receiver"`
	Trigger     domain.ValidationSection `json:"trigger"`
	Scope       domain.ValidationSection `json:"scope"`
	Content     domain.ValidationSection `json:"content"`
	IsValid     bool                     `json:"isValid"`
	HasErrors   bool                     `json:"hasErrors"`
	TotalErrors int                      `json:"totalErrors"`
}

// Evaluate runs every section validator against data.
// Params: draft and rule set.
// Returns: aggregate state.
func Evaluate(data domain.SignalConfigData, rules RuleSet) State {
	receiverErrs := ValidateReceiver(data, rules)
	triggerErrs := ValidateTrigger(data, rules)
	scopeErrs := ValidateScope(data, rules)
	contentErrs := ValidateContent(data, rules)

	state := State{
		Receiver: section(receiverErrs, len(receiverErrs) == 0 && receiverBranchComplete(data)),
		Trigger:  section(triggerErrs, len(triggerErrs) == 0),
		Scope:    section(scopeErrs, len(scopeErrs) == 0),
		Content:  section(contentErrs, len(contentErrs) == 0),
	}
	state.TotalErrors = len(receiverErrs) + len(triggerErrs) + len(scopeErrs) + len(contentErrs)
	state.IsValid = state.TotalErrors == 0
	state.HasErrors = !state.IsValid
	return state
}

// Section returns the summary for one named section.
// Params: section name.
// Returns: section summary and false for unknown names.
func (s State) Section(name domain.Section) (domain.ValidationSection, bool) {
	switch name {
	case domain.SectionReceiver:
		return s.Receiver, true
	case domain.SectionTrigger:
		return s.Trigger, true
	case domain.SectionScope:
		return s.Scope, true
	case domain.SectionContent:
		return s.Content, true
	default:
		return domain.ValidationSection{}, false
	}
}

// Errors returns all errors in section display order.
// Params: none.
// Returns: flattened error list.
func (s State) Errors() []domain.ValidationError {
	out := make([]domain.ValidationError, 0, s.TotalErrors)
	out = append(out, s.Receiver.Errors...)
	out = append(out, s.Trigger.Errors...)
	out = append(out, s.Scope.Errors...)
	out = append(out, s.Content.Errors...)
	return out
}

// FirstError returns the first message recorded for field.
// Params: field key.
// Returns: message and true when the field has an error.
func (s State) FirstError(field string) (string, bool) {
	for _, err := range s.Errors() {
		if err.Field == field {
			return err.Message, true
		}
	}
	return "", false
}

// receiverBranchComplete requires the destination-specific field, not just an empty error list.
// Mailing-list and distribution-group have no picker yet, so they never report complete.
func receiverBranchComplete(data domain.SignalConfigData) bool {
	switch data.DestinationType {
	case domain.DestinationChannel:
		return data.SelectedChannel != ""
	case domain.DestinationDirectMessage:
		return len(data.SelectedRecipients) > 0
	default:
		return false
	}
}

func section(errs []domain.ValidationError, complete bool) domain.ValidationSection {
	if errs == nil {
		errs = []domain.ValidationError{}
	}
	return domain.ValidationSection{
		Errors:     errs,
		IsValid:    len(errs) == 0,
		IsComplete: complete,
	}
}
