package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/emberworks/echofall/pkg/actor"
	"github.com/emberworks/echofall/pkg/mode"
	"github.com/emberworks/echofall/pkg/session"
)

// Combat tuning constants, matching the resolution rules the content tables
// were balanced against.
const (
	playerBaseDamage = 5

	// Roster modifier multipliers.
	eliteHealthMult      = 1.5
	eliteDamageMult      = 1.2
	weakHealthMult       = 0.7
	weakDamageMult       = 0.8
	aggressiveDamageMult = 1.3

	fleeChance = 0.5

	defendReduction = 0.5

	// Fraction of max health restored on a combat soft-fail. The player is
	// never permanently killed by the combat engine.
	softFailRestoreFraction = 0.2
)

// EnemyGroup describes one entry of a combat roster: a template, an instance
// count, and modifier tags (elite, weak, aggressive) scaling the template.
type EnemyGroup struct {
	TemplateID string   `json:"template_id"`
	Count      int      `json:"count"`
	Modifiers  []string `json:"modifiers,omitempty"`
}

// StartCombat transitions a session into Combat mode against the given
// roster. Initiative is [player] + enemies in roster order; a player_surprised
// ambush moves the player to the end instead.
func (e *Engine) StartCombat(ctx context.Context, sessionID uuid.UUID, roster []EnemyGroup, ambush string) (*ActionResult, error) {
	lock := e.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	s, err := e.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	outcome, err := e.beginCombat(s, roster, ambush)
	if err != nil {
		return nil, err
	}

	if err := e.store.Save(ctx, s); err != nil {
		e.logger.Error("Failed to save session after combat start", "id", s.ID, "error", err)
	}

	description := "Combat begins!"
	if outcome != "" {
		description += " " + outcome
	}

	combatCopy := s.Combat
	return &ActionResult{
		SessionID:      s.ID,
		Description:    description,
		Mode:           s.Mode,
		AllowedActions: s.AllowedActions(),
		Transitions:    s.AllowedTransitions(),
		Combat:         &combatCopy,
	}, nil
}

// beginCombat performs combat setup on a locked session. The returned outcome
// is non-empty when an ambush cascade ended combat before control reached the
// player, in which case the session has already returned to Exploration.
func (e *Engine) beginCombat(s *session.Session, roster []EnemyGroup, ambush string) (string, error) {
	if err := e.applyTransition(s, mode.Combat); err != nil {
		return "", err
	}

	enemies, err := e.instantiateRoster(roster)
	if err != nil {
		return "", err
	}
	if len(enemies) == 0 {
		return "", fmt.Errorf("%w: combat requires at least one enemy", ErrInvalidAction)
	}

	order := make([]string, 0, len(enemies)+1)
	order = append(order, session.PlayerTurnID)
	for _, enemy := range enemies {
		order = append(order, enemy.ID)
	}
	if ambush == session.AmbushPlayerSurprised {
		order = append(order[1:], session.PlayerTurnID)
	}
	if ambush == "" {
		ambush = session.AmbushNone
	}

	s.Combat = session.CombatState{
		Active:          true,
		Enemies:         enemies,
		InitiativeOrder: order,
		CurrentTurn:     order[0],
		Round:           1,
		AmbushState:     ambush,
	}
	s.Combat.AddLog("Combat begins!")

	names := make([]string, len(enemies))
	for i, enemy := range enemies {
		names[i] = enemy.Name
	}
	s.Context.AddKeyEvent("Entered combat against " + strings.Join(names, ", "))

	// An ambushed player's enemies act before control returns.
	if s.Combat.CurrentTurn != session.PlayerTurnID {
		if outcome := e.runEnemyTurns(s); outcome != "" {
			if err := e.applyTransition(s, mode.Exploration); err != nil {
				return "", err
			}
			return outcome, nil
		}
	}
	return "", nil
}

// instantiateRoster builds enemy instances from templates, applying modifier
// multipliers and assigning unique per-instance IDs.
func (e *Engine) instantiateRoster(roster []EnemyGroup) ([]*session.Enemy, error) {
	var enemies []*session.Enemy
	instances := make(map[string]int)
	for _, group := range roster {
		template, ok := e.content.Enemy(group.TemplateID)
		if !ok {
			return nil, fmt.Errorf("%w: enemy template %q", ErrNotFound, group.TemplateID)
		}
		count := group.Count
		if count < 1 {
			count = 1
		}
		for i := 0; i < count; i++ {
			instances[group.TemplateID]++
			health := template.Health
			damage := template.Damage
			for _, modifier := range group.Modifiers {
				switch modifier {
				case "elite":
					health = int(float64(health) * eliteHealthMult)
					damage = int(float64(damage) * eliteDamageMult)
				case "weak":
					health = int(float64(health) * weakHealthMult)
					damage = int(float64(damage) * weakDamageMult)
				case "aggressive":
					damage = int(float64(damage) * aggressiveDamageMult)
				}
			}
			enemies = append(enemies, &session.Enemy{
				ID:         fmt.Sprintf("%s_%d", group.TemplateID, instances[group.TemplateID]),
				TemplateID: group.TemplateID,
				Name:       template.Name,
				Health:     health,
				MaxHealth:  health,
				Damage:     damage,
				Abilities:  template.Abilities,
				Modifiers:  group.Modifiers,
			})
		}
	}
	return enemies, nil
}

// variation returns the uniform damage variation multiplier in [0.8, 1.2].
func (e *Engine) variation() float64 {
	return 0.8 + e.dice.Float64()*0.4
}

// requireCombatTurn validates that combat is active and it is the player's
// turn, without mutating anything.
func requireCombatTurn(s *session.Session) error {
	if !s.Combat.Active {
		return fmt.Errorf("%w: no active combat", ErrInvalidAction)
	}
	if s.Combat.CurrentTurn != session.PlayerTurnID {
		return fmt.Errorf("%w: it's not your turn", ErrInvalidAction)
	}
	return nil
}

// targetEnemy resolves the target of an offensive action. An empty target ID
// defaults to the first living enemy.
func targetEnemy(s *session.Session, targetID string) (*session.Enemy, error) {
	if targetID == "" {
		living := s.Combat.LivingEnemies()
		if len(living) == 0 {
			return nil, fmt.Errorf("%w: no living targets", ErrInvalidAction)
		}
		return living[0], nil
	}
	enemy := s.Combat.Enemy(targetID)
	if enemy == nil || enemy.Health <= 0 {
		return nil, fmt.Errorf("%w: target %q", ErrNotFound, targetID)
	}
	return enemy, nil
}

// damageEnemy applies damage to an enemy, clamping at zero, logging, and
// removing a defeated enemy from initiative.
func (e *Engine) damageEnemy(s *session.Session, enemy *session.Enemy, damage int, source string) {
	enemy.Health -= damage
	if enemy.Health < 0 {
		enemy.Health = 0
	}
	s.Combat.AddLog(fmt.Sprintf("Player %s %s for %d damage.", source, enemy.Name, damage))
	if enemy.Health == 0 {
		s.Combat.AddLog(fmt.Sprintf("%s was defeated!", enemy.Name))
		s.Context.AddKeyEvent("Defeated " + enemy.Name)
		s.Combat.RemoveFromInitiative(enemy.ID)
		s.Player.Experience += enemy.MaxHealth
	}
}

func (e *Engine) handleAttack(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	if err := requireCombatTurn(s); err != nil {
		return handlerResult{}, err
	}
	enemy, err := targetEnemy(s, p.TargetID)
	if err != nil {
		return handlerResult{}, err
	}

	damage := int(float64(playerBaseDamage) * (1 + s.Player.DamageBonus()) * e.variation())
	e.damageEnemy(s, enemy, damage, "attacks")

	description := fmt.Sprintf("You strike at the %s, dealing %d damage.", enemy.Name, damage)
	if enemy.Health == 0 {
		description += fmt.Sprintf(" The %s collapses before you.", enemy.Name)
	}
	return e.endPlayerTurn(s, description), nil
}

func (e *Engine) handleUseAbility(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	if err := requireCombatTurn(s); err != nil {
		return handlerResult{}, err
	}
	ability := s.Player.FindAbility(p.AbilityID)
	if ability == nil {
		return handlerResult{}, fmt.Errorf("%w: ability %q", ErrNotFound, p.AbilityID)
	}
	if ability.CurrentCooldown > 0 {
		return handlerResult{}, fmt.Errorf("%w: %s is on cooldown for %d more rounds", ErrInsufficientResource, ability.Name, ability.CurrentCooldown)
	}
	if s.Player.Mana < ability.ManaCost {
		return handlerResult{}, fmt.Errorf("%w: %s costs %d mana, you have %d", ErrInsufficientResource, ability.Name, ability.ManaCost, s.Player.Mana)
	}

	var enemy *session.Enemy
	if ability.Damage > 0 {
		var err error
		enemy, err = targetEnemy(s, p.TargetID)
		if err != nil {
			return handlerResult{}, err
		}
	}

	// Preconditions hold; commit the cast.
	s.Player.Mana -= ability.ManaCost
	ability.CurrentCooldown = ability.Cooldown

	var parts []string
	if enemy != nil {
		damage := int(float64(ability.Damage) * (1 + s.Player.DamageBonus()) * e.variation())
		e.damageEnemy(s, enemy, damage, "uses "+ability.Name+" on")
		part := fmt.Sprintf("You unleash %s, striking the %s for %d damage.", ability.Name, enemy.Name, damage)
		if enemy.Health == 0 {
			part += fmt.Sprintf(" The %s is destroyed by your power.", enemy.Name)
		}
		parts = append(parts, part)
	}
	if ability.Healing > 0 {
		healed := s.Player.Heal(ability.Healing)
		s.Combat.AddLog(fmt.Sprintf("Player uses %s and heals for %d health.", ability.Name, healed))
		parts = append(parts, fmt.Sprintf("You channel %s, restoring %d health.", ability.Name, healed))
	}
	if len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("You invoke %s, but nothing happens.", ability.Name))
	}

	return e.endPlayerTurn(s, strings.Join(parts, " ")), nil
}

func (e *Engine) handleCombatItem(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	if err := requireCombatTurn(s); err != nil {
		return handlerResult{}, err
	}
	item := s.Player.FindItem(p.ItemID)
	if item == nil {
		return handlerResult{}, fmt.Errorf("%w: item %q", ErrNotFound, p.ItemID)
	}

	var description string
	switch item.ItemType {
	case "healing":
		amount := item.HealingAmount
		if amount == 0 {
			amount = 10
		}
		healed := s.Player.Heal(amount)
		s.Player.RemoveItem(item.ID, 1)
		s.Combat.AddLog(fmt.Sprintf("Player uses %s and heals for %d health.", item.Name, healed))
		description = fmt.Sprintf("You quickly use the %s, restoring %d health.", item.Name, healed)

	case "damage":
		enemy, err := targetEnemy(s, p.TargetID)
		if err != nil {
			return handlerResult{}, err
		}
		amount := item.DamageAmount
		if amount == 0 {
			amount = 15
		}
		name := item.Name
		s.Player.RemoveItem(item.ID, 1)
		e.damageEnemy(s, enemy, amount, "uses "+name+" on")
		description = fmt.Sprintf("You hurl the %s at the %s, dealing %d damage.", name, enemy.Name, amount)
		if enemy.Health == 0 {
			description += fmt.Sprintf(" The %s is destroyed.", enemy.Name)
		}

	default:
		// Unknown item types are a no-op failure, not improvised behavior.
		return handlerResult{}, fmt.Errorf("%w: %s cannot be used in combat", ErrInvalidAction, item.Name)
	}

	return e.endPlayerTurn(s, description), nil
}

func (e *Engine) handleDefend(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	if err := requireCombatTurn(s); err != nil {
		return handlerResult{}, err
	}
	s.Player.AddStatusEffect(actor.StatusEffect{
		ID:          "defended",
		Name:        "Defensive Stance",
		Description: "Braced against incoming attacks",
		Duration:    1,
		EffectType:  actor.EffectDamageReduction,
		Value:       defendReduction,
	})
	s.Combat.AddLog("Player takes a defensive stance.")
	return e.endPlayerTurn(s, "You brace yourself, taking a defensive stance against the incoming attacks."), nil
}

func (e *Engine) handleFlee(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	if err := requireCombatTurn(s); err != nil {
		return handlerResult{}, err
	}
	if e.dice.Float64() < fleeChance {
		s.Combat.Active = false
		e.syncDefeatedToWorld(s)
		s.Combat.AddLog("Player successfully flees from combat.")
		s.Context.AddKeyEvent("Fled from combat")
		return handlerResult{
			description:  "You find an opening and successfully escape from the battle.",
			transitionTo: mode.Exploration,
		}, nil
	}
	s.Combat.AddLog("Player fails to flee from combat.")
	return e.endPlayerTurn(s, "You try to escape, but the enemies cut off your retreat!"), nil
}

// endPlayerTurn advances the initiative order past the player's action,
// ends combat in victory when no enemies remain, and otherwise runs enemy
// turns synchronously until control returns to the player or combat ends.
func (e *Engine) endPlayerTurn(s *session.Session, description string) handlerResult {
	roundBefore := s.Combat.Round
	s.Combat.NextTurn()
	if s.Combat.Round > roundBefore {
		e.tickRound(s)
	}

	if len(s.Combat.LivingEnemies()) == 0 {
		s.Combat.Active = false
		e.syncDefeatedToWorld(s)
		s.Context.AddKeyEvent("Combat ended - all enemies defeated")
		return handlerResult{
			description:  description + " The battle is over, and you stand victorious.",
			transitionTo: mode.Exploration,
		}
	}

	if s.Combat.CurrentTurn != session.PlayerTurnID {
		if outcome := e.runEnemyTurns(s); outcome != "" {
			description += " " + outcome
			return handlerResult{description: description, transitionTo: mode.Exploration}
		}
	}
	return handlerResult{description: description}
}

// runEnemyTurns resolves consecutive enemy turns as an explicit loop, bounded
// by the number of living participants per pass. It returns a non-empty
// outcome string when the cascade ended combat (player soft-fail), in which
// case the caller owes a transition back to Exploration.
func (e *Engine) runEnemyTurns(s *session.Session) string {
	for s.Combat.Active && s.Combat.CurrentTurn != session.PlayerTurnID {
		enemy := s.Combat.Enemy(s.Combat.CurrentTurn)
		if enemy == nil || enemy.Health <= 0 {
			// Stale initiative entry; skip it.
			s.Combat.RemoveFromInitiative(s.Combat.CurrentTurn)
			if len(s.Combat.InitiativeOrder) == 0 {
				s.Combat.Active = false
				return ""
			}
			s.Combat.CurrentTurn = s.Combat.InitiativeOrder[0]
			continue
		}

		damage := int(float64(enemy.Damage) * e.variation())
		if reduction := s.Player.DamageReduction(); reduction > 0 {
			damage = int(float64(damage) * (1 - reduction))
			s.Combat.AddLog(fmt.Sprintf("Player's defenses reduce the damage by %d%%.", int(reduction*100)))
		}
		s.Player.Damage(damage)
		s.Combat.AddLog(fmt.Sprintf("%s attacks player for %d damage.", enemy.Name, damage))
		s.Context.AddNarrative(fmt.Sprintf("The %s attacks you, dealing %d damage.", enemy.Name, damage))

		if s.Player.Health == 0 {
			// Soft-fail: combat ends, the player escapes with a sliver
			// of health, never a permanent death.
			restored := int(float64(s.Player.MaxHealth) * softFailRestoreFraction)
			if restored < 1 {
				restored = 1
			}
			s.Player.Health = restored
			s.Combat.Active = false
			e.syncDefeatedToWorld(s)
			s.Combat.AddLog("Player was defeated but manages to escape.")
			s.Context.AddKeyEvent("Player was defeated in combat")
			return "You are overwhelmed and barely manage to escape with your life."
		}

		roundBefore := s.Combat.Round
		s.Combat.NextTurn()
		if s.Combat.Round > roundBefore {
			e.tickRound(s)
		}
	}
	return ""
}

// syncDefeatedToWorld marks world NPCs dead when the combat instances that
// mirror them are defeated. Roster instance IDs line up with NPC IDs when
// combat was started from a location's hostiles, so defeated enemies stay
// down on re-entry.
func (e *Engine) syncDefeatedToWorld(s *session.Session) {
	for _, enemy := range s.Combat.Enemies {
		if enemy.Health > 0 {
			continue
		}
		if npc, err := s.World.NPC(enemy.ID); err == nil {
			npc.Health = 0
		}
	}
}

// tickRound fires once per completed initiative round: status effect
// durations count down and ability cooldowns recover.
func (e *Engine) tickRound(s *session.Session) {
	for _, name := range s.Player.TickStatusEffects() {
		s.Combat.AddLog(fmt.Sprintf("%s wears off.", name))
	}
	for i := range s.Player.Abilities {
		if s.Player.Abilities[i].CurrentCooldown > 0 {
			s.Player.Abilities[i].CurrentCooldown--
		}
	}
}
