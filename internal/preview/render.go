package preview

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"signalconfig/internal/domain"
)

// Block is one content block after template substitution.
type Block struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Level *int   `json:"level,omitempty"`
	Text  string `json:"text"`
}

// FuncMap returns shared content template helpers.
// Params: none.
// Returns: deterministic helper map used by validation and rendering.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"json":  MarshalJSON,
		"trend": TrendArrow,
		"upper": strings.ToUpper,
	}
}

// ParseBlock parses one content block body with shared helpers.
// Params: template name and body.
// Returns: compiled template or parse error.
func ParseBlock(name, body string) (*template.Template, error) {
	return template.New(name).Funcs(FuncMap()).Option("missingkey=error").Parse(body)
}

// Render substitutes preview data into every content block.
// Params: content blocks and preview data.
// Returns: rendered blocks in input order or the first parse/execute error.
func Render(blocks []domain.ContentBlock, data Data) ([]Block, error) {
	out := make([]Block, 0, len(blocks))
	for _, block := range blocks {
		tmpl, err := ParseBlock(block.ID, block.Content)
		if err != nil {
			return nil, fmt.Errorf("parse block %s: %w", block.ID, err)
		}
		var text strings.Builder
		if err := tmpl.Execute(&text, data); err != nil {
			return nil, fmt.Errorf("render block %s: %w", block.ID, err)
		}
		out = append(out, Block{ID: block.ID, Type: block.Type, Level: block.Level, Text: text.String()})
	}
	return out, nil
}

// TrendArrow renders a trend direction as an arrow.
// Params: "up", "down", or anything else.
// Returns: arrow glyph, or the input unchanged when it is not a direction.
func TrendArrow(direction string) string {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "up":
		return "↑"
	case "down":
		return "↓"
	case "flat":
		return "→"
	default:
		return direction
	}
}

// MarshalJSON renders value into JSON string for template embedding.
// Params: template value of any type.
// Returns: marshaled JSON string or "null" on marshal failure.
func MarshalJSON(value any) string {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "null"
	}
	return string(encoded)
}
