package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberworks/echofall/pkg/mode"
	"github.com/emberworks/echofall/pkg/session"
)

func TestResolveRoll(t *testing.T) {
	tests := []struct {
		roll  int
		skill int
		want  CheckResult
	}{
		{1, 0, CheckCriticalFailure},
		{1, 5, CheckCriticalFailure},
		{2, 0, CheckFailure},
		{2, 3, CheckFailure},
		{3, 0, CheckFailure},
		{3, 3, CheckFailure},
		{4, 0, CheckFailure},
		{4, 1, CheckSuccess},
		{5, 0, CheckSuccess},
		{5, 2, CheckSuccess},
		{6, 0, CheckSuccess},
		{6, 2, CheckSuccess},
		{7, 0, CheckSuccess},
		{7, 2, CheckSuccess},
		{8, 0, CheckSuccess},
		{8, 2, CheckSuccess},
		{9, 0, CheckSuccess},
		{9, 2, CheckSuccess},
		{10, 0, CheckCriticalSuccess},
		{10, 5, CheckCriticalSuccess},
	}
	for _, tt := range tests {
		got := ResolveRoll(tt.roll, tt.skill)
		if got != tt.want {
			t.Errorf("ResolveRoll(%d, %d) = %s, want %s", tt.roll, tt.skill, got, tt.want)
		}
	}
}

func testCheck() SkillCheckRequest {
	return SkillCheckRequest{
		Skill:      "perception",
		Difficulty: "moderate",
		Success: session.Outcome{
			Description:      "You spot the seam in the ice.",
			SuggestedActions: []string{"Pry the seam open"},
		},
		Failure: session.Outcome{
			Description: "The ice is a featureless sheet to your eyes.",
		},
	}
}

func TestStartSkillCheckValidation(t *testing.T) {
	e, _, _ := newTestEngine(t)
	s := newTestSession(t, e)
	ctx := context.Background()

	req := testCheck()
	req.Skill = "lockpicking"
	_, err := e.StartSkillCheck(ctx, s.ID, req)
	require.ErrorIs(t, err, ErrNotFound)

	req = testCheck()
	req.Difficulty = "impossible"
	_, err = e.StartSkillCheck(ctx, s.ID, req)
	require.ErrorIs(t, err, ErrNotFound)

	loaded := reloadSession(t, e, s.ID)
	assert.Equal(t, mode.Exploration, loaded.Mode)
	assert.False(t, loaded.SkillCheck.Active)
}

func TestSkillCheckSuccess(t *testing.T) {
	e, _, _ := newTestEngine(t)
	s := newTestSession(t, e)
	ctx := context.Background()

	result, err := e.StartSkillCheck(ctx, s.ID, testCheck())
	require.NoError(t, err)
	assert.Equal(t, mode.SkillCheck, result.Mode)

	loaded := reloadSession(t, e, s.ID)
	require.True(t, loaded.SkillCheck.Active)
	assert.Equal(t, 5, loaded.SkillCheck.Difficulty)

	// IntN(10) scripted to 6 makes the roll a 7.
	e.dice = &scriptDice{ints: []int{6}}
	result, err = e.ProcessAction(ctx, s.ID, mode.ActionAttempt, Payload{})
	require.NoError(t, err)
	assert.Equal(t, "You spot the seam in the ice.", result.Description)
	assert.Equal(t, mode.Exploration, result.Mode)

	loaded = reloadSession(t, e, s.ID)
	assert.False(t, loaded.SkillCheck.Active, "one resolution consumes the check")
	assert.Contains(t, loaded.Context.KeyEvents, "Skill check (perception): rolled 7, success")
}

func TestSkillCheckLowRollFailsUntrained(t *testing.T) {
	e, _, _ := newTestEngine(t)
	s := newTestSession(t, e)
	ctx := context.Background()

	// Vanguard has willpower 2 but the check is against knowledge, level 1.
	// Drop it to 0 so a 4 fails.
	loaded := reloadSession(t, e, s.ID)
	loaded.Player.Skills["knowledge"] = 0
	saveSession(t, e, loaded)

	req := testCheck()
	req.Skill = "knowledge"
	_, err := e.StartSkillCheck(ctx, s.ID, req)
	require.NoError(t, err)

	e.dice = &scriptDice{ints: []int{3}}
	result, err := e.ProcessAction(ctx, s.ID, mode.ActionAttempt, Payload{})
	require.NoError(t, err)
	assert.Equal(t, "The ice is a featureless sheet to your eyes.", result.Description)
}

func TestSkillCheckCriticalsDefaultToPlainOutcomes(t *testing.T) {
	e, _, _ := newTestEngine(t)
	s := newTestSession(t, e)
	ctx := context.Background()

	_, err := e.StartSkillCheck(ctx, s.ID, testCheck())
	require.NoError(t, err)

	// Natural 10: no authored critical outcome, so the plain success text
	// is used.
	e.dice = &scriptDice{ints: []int{9}}
	result, err := e.ProcessAction(ctx, s.ID, mode.ActionAttempt, Payload{})
	require.NoError(t, err)
	assert.Equal(t, "You spot the seam in the ice.", result.Description)

	loaded := reloadSession(t, e, s.ID)
	assert.Contains(t, loaded.Context.KeyEvents, "Skill check (perception): rolled 10, critical_success")
}

func TestSkillCheckAuthoredCriticalFailure(t *testing.T) {
	e, _, _ := newTestEngine(t)
	s := newTestSession(t, e)
	ctx := context.Background()

	req := testCheck()
	req.CriticalFailure = session.Outcome{Description: "The ice cracks under your hands."}
	_, err := e.StartSkillCheck(ctx, s.ID, req)
	require.NoError(t, err)

	e.dice = &scriptDice{ints: []int{0}}
	result, err := e.ProcessAction(ctx, s.ID, mode.ActionAttempt, Payload{})
	require.NoError(t, err)
	assert.Equal(t, "The ice cracks under your hands.", result.Description)
}

func TestSkillCheckAbort(t *testing.T) {
	e, _, _ := newTestEngine(t)
	s := newTestSession(t, e)
	ctx := context.Background()

	_, err := e.StartSkillCheck(ctx, s.ID, testCheck())
	require.NoError(t, err)

	result, err := e.ProcessAction(ctx, s.ID, mode.ActionAbort, Payload{})
	require.NoError(t, err)
	assert.Equal(t, mode.Exploration, result.Mode)
	assert.Contains(t, result.Description, "step back")

	loaded := reloadSession(t, e, s.ID)
	assert.False(t, loaded.SkillCheck.Active)
}

func TestNarrativeDirectiveStartsSkillCheck(t *testing.T) {
	e, _, narrative := newTestEngine(t)
	s := newTestSession(t, e)
	ctx := context.Background()

	narrative.GenerateFunc = func(ctx context.Context, prompt string, recent []string) (string, error) {
		return `{"description":"The ice groans underfoot.","action":"skillCheck","data":{` +
			`"skill":"perception","difficulty":"moderate",` +
			`"successOutcome":{"description":"You spot the fracture lines in time."},` +
			`"failureOutcome":{"description":"The surface gives no warning."}}}`, nil
	}

	result, err := e.ProcessAction(ctx, s.ID, mode.ActionExamine, Payload{})
	require.NoError(t, err)
	assert.Equal(t, mode.SkillCheck, result.Mode)
	assert.Contains(t, result.AllowedActions, mode.ActionAttempt)

	loaded := reloadSession(t, e, s.ID)
	require.True(t, loaded.SkillCheck.Active)
	assert.Equal(t, "perception", loaded.SkillCheck.Skill)
	assert.Equal(t, 5, loaded.SkillCheck.Difficulty)
	assert.Equal(t, "You spot the fracture lines in time.", loaded.SkillCheck.Success.Description)
	assert.Contains(t, loaded.Context.KeyEvents, "A perception check presents itself")

	// The armed check resolves through the normal attempt flow.
	narrative.GenerateFunc = nil
	e.dice = &scriptDice{ints: []int{6}}
	result, err = e.ProcessAction(ctx, s.ID, mode.ActionAttempt, Payload{})
	require.NoError(t, err)
	assert.Equal(t, mode.Exploration, result.Mode)
	assert.Equal(t, "You spot the fracture lines in time.", result.Description)

	loaded = reloadSession(t, e, s.ID)
	assert.False(t, loaded.SkillCheck.Active)
}

func TestNarrativeDirectiveUnknownSkillIsDropped(t *testing.T) {
	e, _, narrative := newTestEngine(t)
	s := newTestSession(t, e)
	ctx := context.Background()

	narrative.GenerateFunc = func(ctx context.Context, prompt string, recent []string) (string, error) {
		return `{"description":"Something shifts.","action":"skillCheck","data":{` +
			`"skill":"lockpicking","difficulty":"moderate"}}`, nil
	}

	result, err := e.ProcessAction(ctx, s.ID, mode.ActionExamine, Payload{})
	require.NoError(t, err)
	assert.Equal(t, mode.Exploration, result.Mode, "a bad directive never breaks the action")
	assert.Equal(t, "Something shifts.", result.Narrative)

	loaded := reloadSession(t, e, s.ID)
	assert.False(t, loaded.SkillCheck.Active)
}

func TestAttemptWithoutPendingCheck(t *testing.T) {
	e, _, _ := newTestEngine(t)
	s := newTestSession(t, e)
	ctx := context.Background()

	// Force SkillCheck mode without arming a check.
	_, err := e.TransitionMode(ctx, s.ID, mode.SkillCheck, "")
	require.NoError(t, err)
	_, err = e.ProcessAction(ctx, s.ID, mode.ActionAttempt, Payload{})
	require.ErrorIs(t, err, ErrInvalidAction)
	_, err = e.ProcessAction(ctx, s.ID, mode.ActionAbort, Payload{})
	require.ErrorIs(t, err, ErrInvalidAction)
}
