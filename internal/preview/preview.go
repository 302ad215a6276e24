// Package preview produces personalized sample values for content previews.
package preview

import "strings"

// Data holds the values substituted into content block templates.
// Params: recipient-facing sample values.
// Returns: template input.
type Data struct {
	UserName         string `json:"userName"`
	TimePeriod       string `json:"timePeriod"`
	MetricValue      string `json:"metricValue"`
	PreviousValue    string `json:"previousValue"`
	ChangePercentage string `json:"changePercentage"`
	TrendDirection   string `json:"trendDirection"`
}

// Provider generates preview data for one recipient.
type Provider interface {
	Preview(recipientID string) Data
}

// Placeholders is the preview shown when no recipient is selected.
var Placeholders = Data{
	UserName:         "*user name*",
	TimePeriod:       "*time period*",
	MetricValue:      "*metric value*",
	PreviousValue:    "*previous value*",
	ChangePercentage: "*change %*",
	TrendDirection:   "*trend*",
}

// Directory maps recipient ids to display names.
type Directory map[string]string

// DefaultDirectory returns the built-in recipient list.
// Params: none.
// Returns: fresh directory copy safe to mutate.
func DefaultDirectory() Directory {
	return Directory{
		"me":            "Me (You)",
		"sarah-johnson": "Sarah Johnson",
		"mike-chen":     "Mike Chen",
		"emily-davis":   "Emily Davis",
		"alex-kim":      "Alex Kim",
		"john-smith":    "John Smith",
		"lisa-wong":     "Lisa Wong",
		"david-taylor":  "David Taylor",
	}
}

// Name resolves a recipient display name.
// Params: recipient id.
// Returns: known display name or the id itself.
func (d Directory) Name(id string) string {
	if name, ok := d[id]; ok && name != "" {
		return name
	}
	return id
}

// FirstName returns the first space-separated word of the display name.
func (d Directory) FirstName(id string) string {
	name := d.Name(id)
	if first, _, found := strings.Cut(name, " "); found {
		return first
	}
	return name
}

// CannedProvider returns fixed sample numbers with the recipient's first name.
// Params: recipient directory (DefaultDirectory when nil).
// Returns: deterministic preview provider.
type CannedProvider struct {
	Directory Directory
}

// Preview returns placeholder tokens for an empty id, sample values otherwise.
// Params: recipient id.
// Returns: preview data.
func (p CannedProvider) Preview(recipientID string) Data {
	if recipientID == "" {
		return Placeholders
	}
	directory := p.Directory
	if directory == nil {
		directory = DefaultDirectory()
	}
	return Data{
		UserName:         directory.FirstName(recipientID),
		TimePeriod:       "this week",
		MetricValue:      "1,234",
		PreviousValue:    "1,156",
		ChangePercentage: "+6.7",
		TrendDirection:   "up",
	}
}
