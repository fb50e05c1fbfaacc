package actor

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxEquippedAbilities bounds the set of abilities a player may have slotted
// at once.
const MaxEquippedAbilities = 4

// StatusEffect is a temporary modifier on the player. Duration counts down
// once per full combat round; an expired effect is removed before its next
// potential application.
type StatusEffect struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Duration    int     `json:"duration"` // rounds remaining
	EffectType  string  `json:"effect_type"`
	Value       float64 `json:"value"`
}

// Effect types recognized by the combat engine.
const (
	EffectDamageBonus     = "damage_bonus"
	EffectDamageReduction = "damage_reduction"
	EffectDamageOverTime  = "damage_over_time"
	EffectMovementPenalty = "movement_penalty"
)

// Item is a stackable inventory entry. Stacks merge by ID on add; quest items
// never stack.
type Item struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ItemType    string `json:"item_type"` // weapon, armor, healing, damage, key, quest, misc
	Count       int    `json:"count"`

	// Effect magnitudes for consumables. Zero means the item has no such
	// effect.
	HealingAmount int `json:"healing_amount,omitempty"`
	DamageAmount  int `json:"damage_amount,omitempty"`
}

// Ability is a castable player ability with a mana cost and an independent
// cooldown counter.
type Ability struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	ManaCost        int    `json:"mana_cost"`
	Cooldown        int    `json:"cooldown"`
	CurrentCooldown int    `json:"current_cooldown"`
	Damage          int    `json:"damage,omitempty"`
	Healing         int    `json:"healing,omitempty"`
}

// Player holds all player-character state for one session.
type Player struct {
	Name          string         `json:"name"`
	Class         string         `json:"class"`
	Origin        string         `json:"origin"`
	Level         int            `json:"level"`
	Experience    int            `json:"experience"`
	SkillPoints   int            `json:"skill_points"`
	Health        int            `json:"health"`
	MaxHealth     int            `json:"max_health"`
	Mana          int            `json:"mana"`
	MaxMana       int            `json:"max_mana"`
	Skills        map[string]int `json:"skills"`
	Abilities     []Ability      `json:"abilities,omitempty"`
	Equipped      []string       `json:"equipped_abilities,omitempty"` // ability IDs, bounded
	Inventory     []Item         `json:"inventory,omitempty"`
	MaxInventory  int            `json:"max_inventory"`
	StatusEffects []StatusEffect `json:"status_effects,omitempty"`
}

// SkillLevel returns the player's level in a skill, defaulting to 0 for
// unknown skills.
func (p *Player) SkillLevel(skill string) int {
	return p.Skills[skill]
}

// Damage reduces health, clamped at 0.
func (p *Player) Damage(amount int) {
	p.Health -= amount
	if p.Health < 0 {
		p.Health = 0
	}
}

// Heal restores health, clamped at MaxHealth, and returns the amount actually
// restored.
func (p *Player) Heal(amount int) int {
	old := p.Health
	p.Health += amount
	if p.Health > p.MaxHealth {
		p.Health = p.MaxHealth
	}
	return p.Health - old
}

// SpendMana deducts mana if available.
func (p *Player) SpendMana(amount int) error {
	if p.Mana < amount {
		return fmt.Errorf("insufficient mana: have %d, need %d", p.Mana, amount)
	}
	p.Mana -= amount
	return nil
}

// RestoreMana adds mana, clamped at MaxMana.
func (p *Player) RestoreMana(amount int) {
	p.Mana += amount
	if p.Mana > p.MaxMana {
		p.Mana = p.MaxMana
	}
}

// AddItem adds an item to the inventory. Stackable duplicates merge by ID;
// new stacks require a free slot. Returns false when the inventory is full.
func (p *Player) AddItem(item Item) bool {
	if item.Count < 1 {
		item.Count = 1
	}
	for i := range p.Inventory {
		if p.Inventory[i].ID == item.ID && p.Inventory[i].ItemType != "quest" {
			p.Inventory[i].Count += item.Count
			return true
		}
	}
	if len(p.Inventory) >= p.MaxInventory {
		return false
	}
	p.Inventory = append(p.Inventory, item)
	return true
}

// RemoveItem removes count units of an item. Removing more than the stack
// holds fails without mutating state; removing the exact count deletes the
// stack.
func (p *Player) RemoveItem(itemID string, count int) bool {
	for i := range p.Inventory {
		if p.Inventory[i].ID != itemID {
			continue
		}
		switch {
		case p.Inventory[i].Count > count:
			p.Inventory[i].Count -= count
			return true
		case p.Inventory[i].Count == count:
			p.Inventory = append(p.Inventory[:i], p.Inventory[i+1:]...)
			return true
		default:
			return false
		}
	}
	return false
}

// FindItem returns a pointer into the inventory for the given item ID.
func (p *Player) FindItem(itemID string) *Item {
	for i := range p.Inventory {
		if p.Inventory[i].ID == itemID {
			return &p.Inventory[i]
		}
	}
	return nil
}

// HasItem reports whether the player holds at least one of the given item.
func (p *Player) HasItem(itemID string) bool {
	return p.FindItem(itemID) != nil
}

// FindAbility returns a pointer to the ability with the given ID.
func (p *Player) FindAbility(abilityID string) *Ability {
	for i := range p.Abilities {
		if p.Abilities[i].ID == abilityID {
			return &p.Abilities[i]
		}
	}
	return nil
}

// EquipAbility slots an owned ability, honoring the equipped-set bound.
func (p *Player) EquipAbility(abilityID string) error {
	if p.FindAbility(abilityID) == nil {
		return fmt.Errorf("ability %q not owned", abilityID)
	}
	for _, id := range p.Equipped {
		if id == abilityID {
			return nil
		}
	}
	if len(p.Equipped) >= MaxEquippedAbilities {
		return fmt.Errorf("cannot equip more than %d abilities", MaxEquippedAbilities)
	}
	p.Equipped = append(p.Equipped, abilityID)
	return nil
}

// AddStatusEffect applies an effect, replacing any existing effect with the
// same ID.
func (p *Player) AddStatusEffect(effect StatusEffect) {
	for i := range p.StatusEffects {
		if p.StatusEffects[i].ID == effect.ID {
			p.StatusEffects[i] = effect
			return
		}
	}
	p.StatusEffects = append(p.StatusEffects, effect)
}

// RemoveStatusEffect drops the effect with the given ID.
func (p *Player) RemoveStatusEffect(effectID string) bool {
	for i := range p.StatusEffects {
		if p.StatusEffects[i].ID == effectID {
			p.StatusEffects = append(p.StatusEffects[:i], p.StatusEffects[i+1:]...)
			return true
		}
	}
	return false
}

// TickStatusEffects decrements every effect's remaining duration and removes
// the expired ones, returning their names.
func (p *Player) TickStatusEffects() []string {
	var expired []string
	remaining := p.StatusEffects[:0]
	for _, effect := range p.StatusEffects {
		effect.Duration--
		if effect.Duration <= 0 {
			expired = append(expired, effect.Name)
			continue
		}
		remaining = append(remaining, effect)
	}
	p.StatusEffects = remaining
	return expired
}

// DamageBonus sums all active damage-bonus effect values.
func (p *Player) DamageBonus() float64 {
	var bonus float64
	for _, effect := range p.StatusEffects {
		if effect.EffectType == EffectDamageBonus {
			bonus += effect.Value
		}
	}
	return bonus
}

// DamageReduction returns the strongest active damage-reduction value.
// Reductions do not stack; the best one wins.
func (p *Player) DamageReduction() float64 {
	var best float64
	for _, effect := range p.StatusEffects {
		if effect.EffectType == EffectDamageReduction && effect.Value > best {
			best = effect.Value
		}
	}
	return best
}

var titleCaser = cases.Title(language.AmericanEnglish)

// DisplayName humanizes a snake_case content ID for player-facing text,
// e.g. "echo_key" becomes "Echo Key".
func DisplayName(id string) string {
	return titleCaser.String(strings.ReplaceAll(id, "_", " "))
}
