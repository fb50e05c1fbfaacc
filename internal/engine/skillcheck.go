package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/emberworks/echofall/pkg/mode"
	"github.com/emberworks/echofall/pkg/session"
)

// CheckResult classifies a resolved skill check roll.
type CheckResult string

const (
	CheckSuccess         CheckResult = "success"
	CheckFailure         CheckResult = "failure"
	CheckCriticalSuccess CheckResult = "critical_success"
	CheckCriticalFailure CheckResult = "critical_failure"
)

// ResolveRoll maps a d10 roll and the player's skill level to an outcome.
// A natural 1 always critically fails and a natural 10 always critically
// succeeds. Rolls of 5-9 succeed; a 4 succeeds only with at least one point
// in the skill; everything else fails. Difficulty shapes which checks get
// offered, not the roll itself.
func ResolveRoll(roll, skillLevel int) CheckResult {
	switch {
	case roll <= 1:
		return CheckCriticalFailure
	case roll >= 10:
		return CheckCriticalSuccess
	case roll >= 5:
		return CheckSuccess
	case roll == 4 && skillLevel > 0:
		return CheckSuccess
	default:
		return CheckFailure
	}
}

// SkillCheckRequest configures a skill check to offer the player. Outcome
// payloads are authored up front so resolution is a pure table lookup.
type SkillCheckRequest struct {
	Skill           string          `json:"skill"`
	Difficulty      string          `json:"difficulty"`
	Success         session.Outcome `json:"success"`
	Failure         session.Outcome `json:"failure"`
	CriticalSuccess session.Outcome `json:"critical_success,omitempty"`
	CriticalFailure session.Outcome `json:"critical_failure,omitempty"`
}

// StartSkillCheck transitions a session into SkillCheck mode with the given
// check pending. Critical outcomes default to the plain ones when the caller
// does not author them separately.
func (e *Engine) StartSkillCheck(ctx context.Context, sessionID uuid.UUID, req SkillCheckRequest) (*ActionResult, error) {
	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	s, err := e.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := e.beginSkillCheck(s, req); err != nil {
		return nil, err
	}

	if err := e.store.Save(ctx, s); err != nil {
		e.logger.Error("Failed to save session after skill check start", "id", s.ID, "error", err)
	}

	return &ActionResult{
		SessionID:      s.ID,
		Description:    fmt.Sprintf("A %s check stands before you.", req.Skill),
		Mode:           s.Mode,
		AllowedActions: s.AllowedActions(),
		Transitions:    s.AllowedTransitions(),
	}, nil
}

// beginSkillCheck validates the request against the content tables and puts
// a locked session into SkillCheck mode with the check pending.
func (e *Engine) beginSkillCheck(s *session.Session, req SkillCheckRequest) error {
	if _, ok := e.content.Skills()[req.Skill]; !ok {
		return fmt.Errorf("%w: skill %q", ErrNotFound, req.Skill)
	}
	threshold, ok := e.content.Difficulty(req.Difficulty)
	if !ok {
		return fmt.Errorf("%w: difficulty %q", ErrNotFound, req.Difficulty)
	}

	if err := e.applyTransition(s, mode.SkillCheck); err != nil {
		return err
	}

	critSuccess := req.CriticalSuccess
	if critSuccess.Description == "" {
		critSuccess = req.Success
	}
	critFailure := req.CriticalFailure
	if critFailure.Description == "" {
		critFailure = req.Failure
	}
	s.SkillCheck = session.SkillCheckState{
		Active:          true,
		Skill:           req.Skill,
		Difficulty:      threshold,
		Success:         req.Success,
		Failure:         req.Failure,
		CriticalSuccess: critSuccess,
		CriticalFailure: critFailure,
	}
	return nil
}

func (e *Engine) handleSkillAttempt(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	if !s.SkillCheck.Active {
		return handlerResult{}, fmt.Errorf("%w: no skill check pending", ErrInvalidAction)
	}

	check := s.SkillCheck
	roll := e.dice.IntN(10) + 1
	level := s.Player.SkillLevel(check.Skill)
	result := ResolveRoll(roll, level)

	var outcome session.Outcome
	switch result {
	case CheckCriticalSuccess:
		outcome = check.CriticalSuccess
	case CheckCriticalFailure:
		outcome = check.CriticalFailure
	case CheckSuccess:
		outcome = check.Success
	default:
		outcome = check.Failure
	}

	// One resolution consumes the check regardless of outcome.
	s.SkillCheck = session.SkillCheckState{}
	s.Context.AddKeyEvent(fmt.Sprintf("Skill check (%s): rolled %d, %s", check.Skill, roll, result))

	description := outcome.Description
	if description == "" {
		description = fmt.Sprintf("You attempt the %s check. (%s)", check.Skill, result)
	}
	return handlerResult{
		description:  description,
		transitionTo: mode.Exploration,
		suggested:    outcome.SuggestedActions,
	}, nil
}

func (e *Engine) handleSkillAbort(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	if !s.SkillCheck.Active {
		return handlerResult{}, fmt.Errorf("%w: no skill check pending", ErrInvalidAction)
	}
	skill := s.SkillCheck.Skill
	s.SkillCheck = session.SkillCheckState{}
	return handlerResult{
		description:  fmt.Sprintf("You step back from the %s attempt, unwilling to risk it.", skill),
		transitionTo: mode.Exploration,
	}, nil
}
