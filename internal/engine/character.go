package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/emberworks/echofall/pkg/actor"
	"github.com/emberworks/echofall/pkg/session"
)

// Level-up scaling.
const (
	levelUpHealthGain  = 5
	levelUpManaGain    = 3
	levelUpSkillPoints = 2
	xpPerLevelFactor   = 100
)

// levelUpCost is the experience required to advance past the given level.
func levelUpCost(level int) int {
	return level * xpPerLevelFactor
}

func (e *Engine) handleViewStats(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	player := s.Player

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s, level %d %s (%s).", player.Name, player.Level,
		actor.DisplayName(player.Class), actor.DisplayName(player.Origin))
	fmt.Fprintf(&sb, " Health %d/%d, Mana %d/%d.", player.Health, player.MaxHealth, player.Mana, player.MaxMana)
	fmt.Fprintf(&sb, " Experience %d (%d needed to advance).", player.Experience, levelUpCost(player.Level))
	if player.SkillPoints > 0 {
		fmt.Fprintf(&sb, " %d unspent skill points.", player.SkillPoints)
	}

	if len(player.Skills) > 0 {
		var skills []string
		for id := range e.content.Skills() {
			if level := player.SkillLevel(id); level > 0 {
				skills = append(skills, fmt.Sprintf("%s %d", id, level))
			}
		}
		if len(skills) > 0 {
			fmt.Fprintf(&sb, " Skills: %s.", strings.Join(skills, ", "))
		}
	}
	if len(player.Equipped) > 0 {
		var abilities []string
		for _, id := range player.Equipped {
			if a := player.FindAbility(id); a != nil {
				abilities = append(abilities, a.Name)
			}
		}
		fmt.Fprintf(&sb, " Equipped: %s.", strings.Join(abilities, ", "))
	}

	return handlerResult{description: sb.String(), skipNarrative: true}, nil
}

func (e *Engine) handleLevelUp(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	cost := levelUpCost(s.Player.Level)
	if s.Player.Experience < cost {
		return handlerResult{}, fmt.Errorf("%w: %d experience needed to reach level %d, you have %d",
			ErrInsufficientResource, cost, s.Player.Level+1, s.Player.Experience)
	}

	s.Player.Experience -= cost
	s.Player.Level++
	s.Player.MaxHealth += levelUpHealthGain
	s.Player.MaxMana += levelUpManaGain
	s.Player.Health = s.Player.MaxHealth
	s.Player.Mana = s.Player.MaxMana
	s.Player.SkillPoints += levelUpSkillPoints

	s.Context.AddKeyEvent(fmt.Sprintf("Leveled up to level %d", s.Player.Level))
	return handlerResult{
		description: fmt.Sprintf("You feel your power grow. Level %d: +%d max health, +%d max mana, %d skill points to spend. You are fully restored.",
			s.Player.Level, levelUpHealthGain, levelUpManaGain, levelUpSkillPoints),
	}, nil
}

func (e *Engine) handleAssignPoints(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	if p.SkillID == "" {
		return handlerResult{}, fmt.Errorf("%w: assign_points requires a skill", ErrInvalidAction)
	}
	if _, ok := e.content.Skills()[p.SkillID]; !ok {
		return handlerResult{}, fmt.Errorf("%w: skill %q", ErrNotFound, p.SkillID)
	}
	if s.Player.SkillPoints < 1 {
		return handlerResult{}, fmt.Errorf("%w: no skill points to spend", ErrInsufficientResource)
	}

	s.Player.SkillPoints--
	if s.Player.Skills == nil {
		s.Player.Skills = make(map[string]int)
	}
	s.Player.Skills[p.SkillID]++

	return handlerResult{
		description: fmt.Sprintf("Your %s improves to %d. %d skill points remain.",
			p.SkillID, s.Player.Skills[p.SkillID], s.Player.SkillPoints),
		skipNarrative: true,
	}, nil
}
