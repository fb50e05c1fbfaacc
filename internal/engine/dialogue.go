package engine

import (
	"context"
	"fmt"

	"github.com/emberworks/echofall/pkg/mode"
	"github.com/emberworks/echofall/pkg/session"
)

// handleDialogueLine covers both respond and question: the player speaks,
// the NPC's reply comes from the narrative layer and lands in the exchange
// history.
func (e *Engine) handleDialogueLine(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	if !s.Dialogue.Active {
		return handlerResult{}, fmt.Errorf("%w: no conversation in progress", ErrInvalidAction)
	}
	if p.Text == "" {
		return handlerResult{}, fmt.Errorf("%w: nothing to say", ErrInvalidAction)
	}

	npcName := s.Dialogue.NPCID
	if npc, err := s.World.NPC(s.Dialogue.NPCID); err == nil {
		npcName = npc.Name
	}

	s.Dialogue.AddExchange(session.PlayerTurnID, p.Text)
	return handlerResult{
		description: fmt.Sprintf("To %s you say: %q", npcName, p.Text),
	}, nil
}

func (e *Engine) handleLeaveDialogue(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	if !s.Dialogue.Active {
		return handlerResult{}, fmt.Errorf("%w: no conversation in progress", ErrInvalidAction)
	}

	npcName := s.Dialogue.NPCID
	if npc, err := s.World.NPC(s.Dialogue.NPCID); err == nil {
		npcName = npc.Name
	}
	if len(s.Dialogue.History) > 0 {
		s.Context.AddKeyEvent(fmt.Sprintf("Spoke with %s (%d exchanges)", npcName, len(s.Dialogue.History)))
	}
	s.Dialogue = session.DialogueState{}

	return handlerResult{
		description:  fmt.Sprintf("You take your leave of %s.", npcName),
		transitionTo: mode.Exploration,
	}, nil
}
