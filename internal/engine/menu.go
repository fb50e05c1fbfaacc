package engine

import (
	"context"
	"fmt"

	"github.com/emberworks/echofall/pkg/mode"
	"github.com/emberworks/echofall/pkg/session"
)

// Menu handlers. Menu mode suspends play; exit returns to whatever mode the
// player came from. Sessions are saved after every action anyway, so save
// here is an explicit checkpoint and load discards unsaved in-memory state
// by reloading from the store.

func (e *Engine) handleMenuSave(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	if err := e.store.Save(ctx, s); err != nil {
		return handlerResult{}, fmt.Errorf("saving game: %w", err)
	}
	return handlerResult{
		description:   "Game saved.",
		skipNarrative: true,
		suppressScene: true,
	}, nil
}

func (e *Engine) handleMenuLoad(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	loaded, err := e.store.Load(ctx, s.ID)
	if err != nil {
		return handlerResult{}, fmt.Errorf("loading game: %w", err)
	}
	if loaded == nil {
		return handlerResult{}, fmt.Errorf("%w: no saved game for session %s", ErrNotFound, s.ID)
	}
	*s = *loaded
	if s.Mode != mode.Menu {
		// Re-enter the menu so the player decides when to resume.
		s.PreviousMode = s.Mode
		s.Mode = mode.Menu
	}
	return handlerResult{
		description:   "Game loaded from the last save.",
		skipNarrative: true,
		suppressScene: true,
	}, nil
}

func (e *Engine) handleMenuSettings(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	switch p.Text {
	case "":
		state := "off"
		if s.Settings.Narration {
			state = "on"
		}
		return handlerResult{
			description:   fmt.Sprintf("Settings: narration %s.", state),
			skipNarrative: true,
			suppressScene: true,
		}, nil
	case "narration on":
		s.Settings.Narration = true
		return handlerResult{description: "Narration enabled.", skipNarrative: true, suppressScene: true}, nil
	case "narration off":
		s.Settings.Narration = false
		return handlerResult{description: "Narration disabled.", skipNarrative: true, suppressScene: true}, nil
	default:
		return handlerResult{}, fmt.Errorf("%w: unknown setting %q", ErrInvalidAction, p.Text)
	}
}

func (e *Engine) handleMenuExit(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	target := s.PreviousMode
	if target == "" || target == mode.Menu || !s.CanTransition(target) {
		target = mode.Exploration
	}
	return handlerResult{
		description:   "You close the menu and return to the game.",
		transitionTo:  target,
		skipNarrative: true,
	}, nil
}
