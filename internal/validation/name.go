package validation

import (
	"regexp"
	"strings"
)

var signalNamePattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-_.,!]+$`)

// nameRules are checked independently so every violated rule is reported.
var nameRules = []struct {
	tag     string
	message string
}{
	{tag: "min=3", message: "Signal name must be at least 3 characters long"},
	{tag: "max=100", message: "Signal name must be less than 100 characters"},
	{tag: "signalname", message: "Signal name contains invalid characters"},
}

// NameResult is the outcome of signal name validation.
// Params: validity flag and every violated rule.
// Returns: user-facing messages.
type NameResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// ValidateSignalName checks presence, length, and allowed characters.
// Params: raw name as typed.
// Returns: all violations, not just the first.
func ValidateSignalName(name string) NameResult {
	if fieldValidator.Var(strings.TrimSpace(name), "required") != nil {
		return NameResult{IsValid: false, Errors: []string{"Signal name is required"}}
	}

	errs := []string{}
	for _, rule := range nameRules {
		if fieldValidator.Var(name, rule.tag) != nil {
			errs = append(errs, rule.message)
		}
	}
	return NameResult{IsValid: len(errs) == 0, Errors: errs}
}
