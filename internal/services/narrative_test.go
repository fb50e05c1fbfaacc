package services

import (
	"context"
	"errors"
	"testing"
)

func TestParseStructured(t *testing.T) {
	tests := []struct {
		name            string
		input           string
		wantDescription string
		wantActions     []string
		wantErr         bool
	}{
		{
			name:            "bare object",
			input:           `{"description":"The hall is silent."}`,
			wantDescription: "The hall is silent.",
		},
		{
			name:            "markdown fenced",
			input:           "```json\n{\"description\":\"Frost creeps up the walls.\"}\n```",
			wantDescription: "Frost creeps up the walls.",
		},
		{
			name:            "leading prose",
			input:           `Here is the scene: {"description":"You step inside."}`,
			wantDescription: "You step inside.",
		},
		{
			name:            "suggested actions in data",
			input:           `{"description":"A door stands ajar.","data":{"suggestedActions":["Open the door","Listen first"]}}`,
			wantDescription: "A door stands ajar.",
			wantActions:     []string{"Open the door", "Listen first"},
		},
		{
			name:            "braces inside strings",
			input:           `{"description":"The sign reads {closed}."}`,
			wantDescription: "The sign reads {closed}.",
		},
		{
			name:    "no json at all",
			input:   "the model just rambles",
			wantErr: true,
		},
		{
			name:    "unbalanced object",
			input:   `{"description":"cut off`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			input:   `{description: broken}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStructured(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseStructured(%q) succeeded, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStructured(%q): %v", tt.input, err)
			}
			if got.Description != tt.wantDescription {
				t.Errorf("Description = %q, want %q", got.Description, tt.wantDescription)
			}
			if len(got.SuggestedActions) != len(tt.wantActions) {
				t.Fatalf("SuggestedActions = %v, want %v", got.SuggestedActions, tt.wantActions)
			}
			for i, want := range tt.wantActions {
				if got.SuggestedActions[i] != want {
					t.Errorf("SuggestedActions[%d] = %q, want %q", i, got.SuggestedActions[i], want)
				}
			}
		})
	}
}

func TestParseStructuredSkillCheckDirective(t *testing.T) {
	got, err := ParseStructured(`{"description":"The ice groans.","action":"skillCheck","data":{` +
		`"skill":"perception","difficulty":"moderate",` +
		`"successOutcome":{"description":"You spot the fracture.","suggestedActions":["Step around it"]},` +
		`"failureOutcome":{"description":"The surface gives no warning."}}}`)
	if err != nil {
		t.Fatalf("ParseStructured: %v", err)
	}
	if got.Action != DirectiveSkillCheck {
		t.Errorf("Action = %q, want %q", got.Action, DirectiveSkillCheck)
	}
	if got.Skill != "perception" || got.Difficulty != "moderate" {
		t.Errorf("Skill/Difficulty = %q/%q, want perception/moderate", got.Skill, got.Difficulty)
	}
	if got.SuccessOutcome.Description != "You spot the fracture." {
		t.Errorf("SuccessOutcome = %+v", got.SuccessOutcome)
	}
	if len(got.SuccessOutcome.SuggestedActions) != 1 || got.SuccessOutcome.SuggestedActions[0] != "Step around it" {
		t.Errorf("SuccessOutcome.SuggestedActions = %v", got.SuccessOutcome.SuggestedActions)
	}
	if got.FailureOutcome.Description != "The surface gives no warning." {
		t.Errorf("FailureOutcome = %+v", got.FailureOutcome)
	}
}

func TestParseStructuredCombatDirective(t *testing.T) {
	got, err := ParseStructured(`{"description":"Shapes drop from above.","action":"initiateCombat","data":{` +
		`"enemies":[{"id":"ice_imp","count":2,"modifiers":["weak"]}]}}`)
	if err != nil {
		t.Fatalf("ParseStructured: %v", err)
	}
	if got.Action != DirectiveInitiateCombat {
		t.Errorf("Action = %q, want %q", got.Action, DirectiveInitiateCombat)
	}
	if len(got.Enemies) != 1 {
		t.Fatalf("Enemies = %+v, want one entry", got.Enemies)
	}
	if e := got.Enemies[0]; e.ID != "ice_imp" || e.Count != 2 || len(e.Modifiers) != 1 || e.Modifiers[0] != "weak" {
		t.Errorf("Enemies[0] = %+v", e)
	}
}

func TestMockNarrativeDefaults(t *testing.T) {
	mock := NewMockNarrative()
	ctx := context.Background()

	raw, err := mock.Generate(ctx, "prompt", []string{"recent"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	directive, err := ParseStructured(raw)
	if err != nil {
		t.Fatalf("default mock output should parse: %v", err)
	}
	if directive.Description == "" {
		t.Error("default mock output should carry a description")
	}

	if err := mock.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestMockNarrativeTracksCalls(t *testing.T) {
	mock := NewMockNarrative()
	wantErr := errors.New("down")
	mock.GenerateFunc = func(ctx context.Context, prompt string, recent []string) (string, error) {
		return "", wantErr
	}

	_, err := mock.Generate(context.Background(), "first", nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Generate = %v, want %v", err, wantErr)
	}
	_, _ = mock.Generate(context.Background(), "second", []string{"a", "b"})

	if mock.CallCount() != 2 {
		t.Fatalf("CallCount = %d, want 2", mock.CallCount())
	}
	if mock.GenerateCalls[0].Prompt != "first" {
		t.Errorf("first prompt = %q", mock.GenerateCalls[0].Prompt)
	}
	if len(mock.GenerateCalls[1].RecentContext) != 2 {
		t.Errorf("second recent context = %v", mock.GenerateCalls[1].RecentContext)
	}
}

func TestAnthropicPingRequiresKey(t *testing.T) {
	svc := NewAnthropicService("", "claude-sonnet-4-20250514", nil)
	if err := svc.Ping(context.Background()); err == nil {
		t.Error("Ping with no api key should fail")
	}
}
