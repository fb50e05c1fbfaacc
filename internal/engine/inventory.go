package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/emberworks/echofall/pkg/actor"
	"github.com/emberworks/echofall/pkg/session"
	"github.com/emberworks/echofall/pkg/world"
)

// handleUseConsumable covers use_item outside combat: Exploration, Dialogue,
// SkillCheck, and Inventory modes all share it. Combat routes through
// handleCombatItem instead.
func (e *Engine) handleUseConsumable(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	item := s.Player.FindItem(p.ItemID)
	if item == nil {
		return handlerResult{}, fmt.Errorf("%w: item %q", ErrNotFound, p.ItemID)
	}

	switch item.ItemType {
	case "healing", "consumable":
		amount := item.HealingAmount
		if amount == 0 {
			amount = 10
		}
		healed := s.Player.Heal(amount)
		name := item.Name
		s.Player.RemoveItem(item.ID, 1)
		if healed == 0 {
			return handlerResult{description: fmt.Sprintf("You use the %s, but you are already at full health.", name)}, nil
		}
		return handlerResult{description: fmt.Sprintf("You use the %s, restoring %d health.", name, healed)}, nil

	case "mana":
		amount := item.HealingAmount
		if amount == 0 {
			amount = 10
		}
		name := item.Name
		s.Player.RemoveItem(item.ID, 1)
		s.Player.RestoreMana(amount)
		return handlerResult{description: fmt.Sprintf("You use the %s, restoring %d mana.", name, amount)}, nil

	case "key", "quest":
		return handlerResult{
			description: fmt.Sprintf("The %s isn't something you use here. It probably fits somewhere specific.", item.Name),
		}, nil

	default:
		return handlerResult{}, fmt.Errorf("%w: the %s has no obvious use", ErrInvalidAction, item.Name)
	}
}

func (e *Engine) handleExamineItem(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	item := s.Player.FindItem(p.ItemID)
	if item == nil {
		return handlerResult{}, fmt.Errorf("%w: item %q", ErrNotFound, p.ItemID)
	}
	description := item.Description
	if description == "" {
		description = fmt.Sprintf("An unremarkable %s.", item.Name)
	}
	if item.Count > 1 {
		description += fmt.Sprintf(" You have %d of them.", item.Count)
	}
	return handlerResult{description: description, skipNarrative: true}, nil
}

func (e *Engine) handleDropItem(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	item := s.Player.FindItem(p.ItemID)
	if item == nil {
		return handlerResult{}, fmt.Errorf("%w: item %q", ErrNotFound, p.ItemID)
	}
	loc, err := s.World.CurrentLocation()
	if err != nil {
		return handlerResult{}, err
	}

	count := p.Count
	if count < 1 || count > item.Count {
		count = item.Count
	}
	dropped := world.LocationItem{
		ID:          item.ID,
		Name:        item.Name,
		Description: item.Description,
		ItemType:    item.ItemType,
		Count:       count,
	}
	name := item.Name
	if !s.Player.RemoveItem(item.ID, count) {
		return handlerResult{}, fmt.Errorf("%w: item %q", ErrNotFound, p.ItemID)
	}
	loc.Items = append(loc.Items, dropped)

	if count > 1 {
		return handlerResult{description: fmt.Sprintf("You drop %d %s on the ground.", count, name), skipNarrative: true}, nil
	}
	return handlerResult{description: fmt.Sprintf("You drop the %s on the ground.", name), skipNarrative: true}, nil
}

func (e *Engine) handleCombineItems(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	first := s.Player.FindItem(p.ItemID)
	if first == nil {
		return handlerResult{}, fmt.Errorf("%w: item %q", ErrNotFound, p.ItemID)
	}
	second := s.Player.FindItem(p.SecondItem)
	if second == nil {
		return handlerResult{}, fmt.Errorf("%w: item %q", ErrNotFound, p.SecondItem)
	}
	if first.ID == second.ID && first.Count < 2 {
		return handlerResult{}, fmt.Errorf("%w: you need two items to combine", ErrInvalidAction)
	}

	result, ok := combineRecipes[recipeKey(first.ID, second.ID)]
	if !ok {
		return handlerResult{
			description: fmt.Sprintf("You try to fit the %s and the %s together, but nothing comes of it.",
				first.Name, second.Name),
			skipNarrative: true,
		}, nil
	}

	// Snapshot the inputs before removal: the pointers go stale once the
	// inventory slice shifts, and a rollback must give back the originals.
	firstCopy, secondCopy := *first, *second
	firstCopy.Count, secondCopy.Count = 1, 1
	s.Player.RemoveItem(firstCopy.ID, 1)
	s.Player.RemoveItem(secondCopy.ID, 1)
	if !s.Player.AddItem(result) {
		// A full pack here means the result stack could not open a new
		// slot, so give the inputs back intact.
		s.Player.AddItem(firstCopy)
		s.Player.AddItem(secondCopy)
		return handlerResult{}, fmt.Errorf("%w: your pack is full", ErrInsufficientResource)
	}

	s.Context.AddKeyEvent(fmt.Sprintf("Combined %s and %s into %s", firstCopy.Name, secondCopy.Name, result.Name))
	return handlerResult{
		description: fmt.Sprintf("You work the %s and the %s together, producing %s.", firstCopy.Name, secondCopy.Name, result.Name),
	}, nil
}

// recipeKey orders the pair so combinations are symmetric.
func recipeKey(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + "+" + b
}

var combineRecipes = map[string]actor.Item{
	recipeKey("frost_shard", "empty_vial"): {
		ID:            "frost_tonic",
		Name:          "Frost Tonic",
		Description:   "A chilled tonic that knits wounds closed.",
		ItemType:      "healing",
		Count:         1,
		HealingAmount: 25,
	},
	recipeKey("frost_shard", "frost_shard"): {
		ID:           "shard_bomb",
		Name:         "Shard Bomb",
		Description:  "Two resonating shards bound together. Throwing it seems unwise, which is exactly the point.",
		ItemType:     "damage",
		Count:        1,
		DamageAmount: 20,
	},
}
