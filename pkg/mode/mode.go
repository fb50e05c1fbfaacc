package mode

import "fmt"

// Mode is the top-level finite state of a game session. Exactly one mode is
// active per session, and the active mode gates both the legal action set and
// the legal transition set.
type Mode string

const (
	Exploration    Mode = "exploration"
	Combat         Mode = "combat"
	Dialogue       Mode = "dialogue"
	SkillCheck     Mode = "skill_check"
	Inventory      Mode = "inventory"
	CharacterSheet Mode = "character_sheet"
	Menu           Mode = "menu"
)

// Action is a player-submitted action kind. The set of actions is closed;
// dispatch in the engine switches exhaustively over these values.
type Action string

const (
	// Exploration actions
	ActionMove     Action = "move"
	ActionExamine  Action = "examine"
	ActionInteract Action = "interact"
	ActionTalk     Action = "talk"
	ActionUseItem  Action = "use_item"

	// Combat actions
	ActionAttack     Action = "attack"
	ActionUseAbility Action = "use_ability"
	ActionDefend     Action = "defend"
	ActionFlee       Action = "flee"

	// Dialogue actions
	ActionRespond  Action = "respond"
	ActionQuestion Action = "question"
	ActionLeave    Action = "leave"

	// Skill check actions
	ActionAttempt Action = "attempt"
	ActionAbort   Action = "abort"

	// Inventory actions
	ActionExamineItem  Action = "examine_item"
	ActionDropItem     Action = "drop_item"
	ActionCombineItems Action = "combine_items"

	// Character sheet actions
	ActionViewStats    Action = "view_stats"
	ActionLevelUp      Action = "level_up"
	ActionAssignPoints Action = "assign_points"

	// Menu actions
	ActionSave     Action = "save"
	ActionLoad     Action = "load"
	ActionSettings Action = "settings"
	ActionExit     Action = "exit"
)

// transitions is the directed transition table. It is a total function of
// Mode: every mode has an entry, and there is no terminal mode.
var transitions = map[Mode][]Mode{
	Exploration:    {Combat, Dialogue, SkillCheck, Inventory, CharacterSheet, Menu},
	Combat:         {Exploration, Inventory, Menu},
	Dialogue:       {Exploration, Combat, SkillCheck, Menu},
	SkillCheck:     {Exploration, Dialogue, Combat, Menu},
	Inventory:      {Exploration, Combat, Menu},
	CharacterSheet: {Exploration, Inventory, Menu},
	Menu:           {Exploration, Combat, Dialogue, SkillCheck, Inventory, CharacterSheet},
}

// actions is the per-mode legal action table.
var actions = map[Mode][]Action{
	Exploration:    {ActionMove, ActionExamine, ActionInteract, ActionTalk, ActionUseItem},
	Combat:         {ActionAttack, ActionUseAbility, ActionUseItem, ActionDefend, ActionFlee},
	Dialogue:       {ActionRespond, ActionQuestion, ActionLeave, ActionUseItem},
	SkillCheck:     {ActionAttempt, ActionUseItem, ActionAbort},
	Inventory:      {ActionExamineItem, ActionUseItem, ActionDropItem, ActionCombineItems},
	CharacterSheet: {ActionViewStats, ActionLevelUp, ActionAssignPoints},
	Menu:           {ActionSave, ActionLoad, ActionSettings, ActionExit},
}

// CanTransition reports whether a direct transition from one mode to another
// is legal.
func CanTransition(from, to Mode) bool {
	for _, m := range transitions[from] {
		if m == to {
			return true
		}
	}
	return false
}

// IsActionAllowed reports whether an action is legal in the given mode.
func IsActionAllowed(m Mode, a Action) bool {
	for _, allowed := range actions[m] {
		if allowed == a {
			return true
		}
	}
	return false
}

// AllowedActions returns the legal action set for a mode. The returned slice
// is a copy; callers may mutate it freely.
func AllowedActions(m Mode) []Action {
	out := make([]Action, len(actions[m]))
	copy(out, actions[m])
	return out
}

// AllowedTransitions returns the legal transition targets from a mode.
func AllowedTransitions(m Mode) []Mode {
	out := make([]Mode, len(transitions[m]))
	copy(out, transitions[m])
	return out
}

// All enumerates every mode, in a stable order.
func All() []Mode {
	return []Mode{Exploration, Combat, Dialogue, SkillCheck, Inventory, CharacterSheet, Menu}
}

// Parse validates a raw mode string.
func Parse(s string) (Mode, error) {
	m := Mode(s)
	if _, ok := transitions[m]; !ok {
		return "", fmt.Errorf("unknown mode %q", s)
	}
	return m, nil
}

// ParseAction validates a raw action string against the full closed set.
// Legality in the current mode is checked separately by IsActionAllowed.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	for _, list := range actions {
		for _, known := range list {
			if known == a {
				return a, nil
			}
		}
	}
	return "", fmt.Errorf("unknown action %q", s)
}
