package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// NarrativeService is the external narrative generator. The engine must keep
// functioning with generic fallback text when either call fails or returns
// unparsable content; state mutations never depend on narrative success.
type NarrativeService interface {
	// Generate produces narration for a prompt given the recent context
	// window.
	Generate(ctx context.Context, prompt string, recentContext []string) (string, error)

	// Ping checks that the backing model is reachable.
	Ping(ctx context.Context) error
}

// Directive actions the engine acts on. Anything else is narration-only and
// gets dropped with a warning.
const (
	DirectiveSkillCheck     = "skillCheck"
	DirectiveInitiateCombat = "initiateCombat"
)

// Directive is the structured payload extracted from generated narration. All
// fields are optional; an empty directive is valid.
type Directive struct {
	Description      string   `json:"description,omitempty"`
	Action           string   `json:"action,omitempty"`
	SuggestedActions []string `json:"suggested_actions,omitempty"`

	// Parameters for the skillCheck directive.
	Skill          string           `json:"skill,omitempty"`
	Difficulty     string           `json:"difficulty,omitempty"`
	SuccessOutcome DirectiveOutcome `json:"success_outcome,omitempty"`
	FailureOutcome DirectiveOutcome `json:"failure_outcome,omitempty"`

	// Parameters for the initiateCombat directive.
	Enemies []DirectiveEnemy `json:"enemies,omitempty"`
}

// DirectiveOutcome is an authored skill-check outcome carried by a directive.
type DirectiveOutcome struct {
	Description      string   `json:"description"`
	SuggestedActions []string `json:"suggestedActions,omitempty"`
}

// DirectiveEnemy is one roster entry of an initiateCombat directive.
type DirectiveEnemy struct {
	ID        string   `json:"id"`
	Count     int      `json:"count"`
	Modifiers []string `json:"modifiers,omitempty"`
}

type rawDirective struct {
	Description string `json:"description"`
	Action      string `json:"action"`
	Data        struct {
		SuggestedActions []string         `json:"suggestedActions"`
		Skill            string           `json:"skill"`
		Difficulty       string           `json:"difficulty"`
		SuccessOutcome   DirectiveOutcome `json:"successOutcome"`
		FailureOutcome   DirectiveOutcome `json:"failureOutcome"`
		Enemies          []DirectiveEnemy `json:"enemies"`
	} `json:"data"`
}

// ParseStructured extracts the JSON directive embedded in model output. It
// tolerates markdown fences and leading prose, scanning for the first
// balanced JSON object.
func ParseStructured(text string) (*Directive, error) {
	blob := extractJSONObject(text)
	if blob == "" {
		return nil, fmt.Errorf("no JSON object found in narrative output")
	}

	var raw rawDirective
	if err := json.Unmarshal([]byte(blob), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse narrative directive: %w", err)
	}

	return &Directive{
		Description:      raw.Description,
		Action:           raw.Action,
		SuggestedActions: raw.Data.SuggestedActions,
		Skill:            raw.Data.Skill,
		Difficulty:       raw.Data.Difficulty,
		SuccessOutcome:   raw.Data.SuccessOutcome,
		FailureOutcome:   raw.Data.FailureOutcome,
		Enemies:          raw.Data.Enemies,
	}, nil
}

// extractJSONObject returns the first balanced top-level JSON object in the
// text, or the empty string. Brace counting ignores braces inside JSON
// strings.
func extractJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
