package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/emberworks/echofall/pkg/actor"
	"github.com/emberworks/echofall/pkg/mode"
	"github.com/emberworks/echofall/pkg/session"
	"github.com/emberworks/echofall/pkg/world"
)

const maxSuggestedActions = 5

func (e *Engine) handleMove(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	if p.LocationID == "" {
		return handlerResult{}, fmt.Errorf("%w: move requires a location", ErrInvalidAction)
	}
	current, err := s.World.CurrentLocation()
	if err != nil {
		return handlerResult{}, err
	}
	if _, err := s.World.Location(p.LocationID); err != nil {
		return handlerResult{}, fmt.Errorf("%w: location %q", ErrNotFound, p.LocationID)
	}
	if !s.World.Connected(current.ID, p.LocationID) {
		return handlerResult{}, fmt.Errorf("%w: no path from %s to %s", ErrInvalidAction, current.Name, p.LocationID)
	}

	loc, err := s.World.MoveTo(p.LocationID)
	if err != nil {
		return handlerResult{}, err
	}
	if loc.VisitCount == 1 {
		s.Context.AddKeyEvent("Discovered " + loc.Name)
	}
	e.applyLocationQuestHooks(s, loc)

	description := loc.Description
	if loc.VisitCount > 1 {
		description = fmt.Sprintf("You return to %s. %s", loc.Name, loc.Description)
	}

	// Living hostiles ambush the player on entry.
	if hostiles := e.livingHostiles(s, loc); len(hostiles) > 0 {
		roster := rosterFromNPCs(hostiles)
		outcome, err := e.beginCombat(s, roster, session.AmbushPlayerSurprised)
		if err != nil {
			return handlerResult{}, err
		}
		names := make([]string, len(hostiles))
		for i, npc := range hostiles {
			names[i] = npc.Name
		}
		ambushed := fmt.Sprintf("%s Before you can react, hostile figures close in: %s!", description, strings.Join(names, ", "))
		if outcome != "" {
			ambushed += " " + outcome
		}
		return handlerResult{description: ambushed}, nil
	}

	return handlerResult{
		description: description,
		suggested:   e.suggestForLocation(s, loc),
	}, nil
}

func (e *Engine) handleExamine(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	loc, err := s.World.CurrentLocation()
	if err != nil {
		return handlerResult{}, err
	}

	// A single target ID may name an object, an NPC, or an item; search in
	// that order.
	target := p.ObjectID
	if target == "" {
		target = p.NPCID
	}
	if target == "" {
		target = p.ItemID
	}
	if target != "" {
		for _, obj := range loc.Objects {
			if obj.ID == target {
				return handlerResult{description: obj.Description}, nil
			}
		}
		if npc, err := s.World.NPC(target); err == nil && npc.Location == loc.ID {
			return handlerResult{description: npc.Description}, nil
		}
		for _, item := range loc.Items {
			if item.ID == target {
				return handlerResult{description: item.Description}, nil
			}
		}
		if item := s.Player.FindItem(target); item != nil {
			return handlerResult{description: item.Description}, nil
		}
		return handlerResult{}, fmt.Errorf("%w: nothing called %q here", ErrNotFound, target)
	}

	// No target: survey the whole area.
	var sb strings.Builder
	sb.WriteString(loc.Description)
	for _, obj := range loc.Objects {
		fmt.Fprintf(&sb, " You notice %s.", obj.Name)
	}
	for _, item := range loc.Items {
		fmt.Fprintf(&sb, " %s lies here.", item.Name)
	}
	for _, id := range loc.NPCs {
		if npc, err := s.World.NPC(id); err == nil && (!npc.Hostile || npc.Health > 0) {
			fmt.Fprintf(&sb, " %s is here.", npc.Name)
		}
	}
	return handlerResult{
		description: sb.String(),
		suggested:   e.suggestForLocation(s, loc),
	}, nil
}

func (e *Engine) handleInteract(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	loc, err := s.World.CurrentLocation()
	if err != nil {
		return handlerResult{}, err
	}

	// Interacting with a loose item picks it up.
	if p.ObjectID == "" && p.ItemID != "" {
		return e.pickUpItem(s, loc, p.ItemID)
	}
	if p.ObjectID == "" {
		return handlerResult{}, fmt.Errorf("%w: interact requires a target", ErrInvalidAction)
	}

	var obj *world.InteractiveObject
	for i := range loc.Objects {
		if loc.Objects[i].ID == p.ObjectID {
			obj = &loc.Objects[i]
			break
		}
	}
	if obj == nil {
		return handlerResult{}, fmt.Errorf("%w: object %q here", ErrNotFound, p.ObjectID)
	}

	if obj.RequiresItem != "" && !s.Player.HasItem(obj.RequiresItem) {
		return handlerResult{}, fmt.Errorf("%w: the %s does not respond; something is missing", ErrInsufficientResource, obj.Name)
	}

	switch obj.ID {
	case "frozen_beacon":
		e.completeObjective(s, "cathedral_mysteries", "activate_beacon")
		s.Context.AddKeyEvent("Activated the frozen beacon")
		return handlerResult{
			description: "You insert the Echo Key into the beacon. It flares with brilliant blue light, and a resonant hum fills the cathedral. Somewhere deeper in the structure, you hear ice cracking.",
		}, nil

	case "ice_wall":
		if err := s.World.AddConnection("frozen_cathedral_western_passage", "frozen_cathedral_hidden_chamber"); err != nil {
			return handlerResult{}, err
		}
		s.Context.AddKeyEvent("Broke through the ice wall, revealing a hidden chamber")
		return handlerResult{
			description: "You strike at the ice wall. Cracks spider across its surface, and with a thunderous crash it collapses, revealing a hidden chamber beyond.",
		}, nil
	}

	switch obj.InteractionType {
	case "examine":
		return handlerResult{description: obj.Description}, nil
	case "activate":
		return handlerResult{description: fmt.Sprintf("You activate %s. It stirs briefly, then falls quiet.", obj.Name)}, nil
	case "destroy":
		return handlerResult{description: fmt.Sprintf("You strike at %s, but it holds firm.", obj.Name)}, nil
	default:
		return handlerResult{description: fmt.Sprintf("You study %s, but find no obvious use for it.", obj.Name)}, nil
	}
}

func (e *Engine) handleTalk(ctx context.Context, s *session.Session, p Payload) (handlerResult, error) {
	if p.NPCID == "" {
		return handlerResult{}, fmt.Errorf("%w: talk requires an NPC", ErrInvalidAction)
	}
	loc, err := s.World.CurrentLocation()
	if err != nil {
		return handlerResult{}, err
	}
	npc, err := s.World.NPC(p.NPCID)
	if err != nil || npc.Location != loc.ID {
		return handlerResult{}, fmt.Errorf("%w: no one called %q here", ErrNotFound, p.NPCID)
	}

	if npc.Hostile && npc.Health > 0 {
		if _, err := e.beginCombat(s, rosterFromNPCs([]*world.NPC{npc}), session.AmbushNone); err != nil {
			return handlerResult{}, err
		}
		return handlerResult{
			description: fmt.Sprintf("The %s has no interest in words. It attacks!", npc.Name),
		}, nil
	}

	s.Dialogue = session.DialogueState{
		Active: true,
		NPCID:  npc.ID,
	}
	if npc.ID == "frosted_archivist" {
		e.activateQuest(s, "cathedral_mysteries")
	}
	return handlerResult{
		description:  fmt.Sprintf("%s turns to face you, waiting to hear what you have to say.", npc.Name),
		transitionTo: mode.Dialogue,
	}, nil
}

// pickUpItem moves an item stack from the current location into the player's
// inventory.
func (e *Engine) pickUpItem(s *session.Session, loc *world.Location, itemID string) (handlerResult, error) {
	found, err := s.World.RemoveItem(loc.ID, itemID)
	if err != nil || found == nil {
		return handlerResult{}, fmt.Errorf("%w: item %q here", ErrNotFound, itemID)
	}
	itemType := found.ItemType
	if itemType == "" {
		itemType = "misc"
	}
	ok := s.Player.AddItem(actor.Item{
		ID:          found.ID,
		Name:        found.Name,
		Description: found.Description,
		ItemType:    itemType,
		Count:       found.Count,
	})
	if !ok {
		// Put the stack back so a full inventory loses nothing.
		loc.Items = append(loc.Items, *found)
		return handlerResult{}, fmt.Errorf("%w: your pack is full", ErrInsufficientResource)
	}

	if itemID == "echo_key" {
		e.completeObjective(s, "cathedral_mysteries", "find_echo_key")
	}
	s.Context.AddKeyEvent("Picked up " + found.Name)
	return handlerResult{description: fmt.Sprintf("You pick up the %s.", found.Name)}, nil
}

// livingHostiles returns hostile NPCs in a location that are still alive.
func (e *Engine) livingHostiles(s *session.Session, loc *world.Location) []*world.NPC {
	var out []*world.NPC
	for _, id := range loc.NPCs {
		npc, err := s.World.NPC(id)
		if err != nil {
			continue
		}
		if npc.Hostile && npc.Health > 0 {
			out = append(out, npc)
		}
	}
	return out
}

// rosterFromNPCs converts world NPCs into a combat roster, one group per
// NPC so instance IDs line up with the NPC IDs they came from.
func rosterFromNPCs(npcs []*world.NPC) []EnemyGroup {
	groups := make(map[string]*EnemyGroup)
	var order []string
	for _, npc := range npcs {
		templateID := npcTemplateID(npc.ID)
		if g, ok := groups[templateID]; ok {
			g.Count++
			continue
		}
		groups[templateID] = &EnemyGroup{TemplateID: templateID, Count: 1}
		order = append(order, templateID)
	}
	roster := make([]EnemyGroup, 0, len(order))
	for _, id := range order {
		roster = append(roster, *groups[id])
	}
	return roster
}

// npcTemplateID strips the trailing instance suffix from an NPC ID
// (frost_guardian_1 -> frost_guardian).
func npcTemplateID(id string) string {
	if i := strings.LastIndex(id, "_"); i > 0 {
		suffix := id[i+1:]
		if suffix != "" && suffix[0] >= '0' && suffix[0] <= '9' {
			return id[:i]
		}
	}
	return id
}

// suggestForLocation builds suggested actions from what the location
// contains, capped at maxSuggestedActions.
func (e *Engine) suggestForLocation(s *session.Session, loc *world.Location) []string {
	suggested := []string{"Examine the area"}
	for _, obj := range loc.Objects {
		suggested = append(suggested, "Examine "+obj.Name)
	}
	for _, item := range loc.Items {
		suggested = append(suggested, "Pick up "+item.Name)
	}
	for _, id := range loc.NPCs {
		if npc, err := s.World.NPC(id); err == nil && !npc.Hostile {
			suggested = append(suggested, "Talk to "+npc.Name)
		}
	}
	for _, id := range loc.Connections {
		if dest, err := s.World.Location(id); err == nil {
			suggested = append(suggested, "Go to "+dest.Name)
		}
	}
	if len(suggested) > maxSuggestedActions {
		suggested = suggested[:maxSuggestedActions]
	}
	return suggested
}

// applyLocationQuestHooks advances quest objectives tied to reaching a
// location.
func (e *Engine) applyLocationQuestHooks(s *session.Session, loc *world.Location) {
	switch loc.ID {
	case "frozen_cathedral_eastern_corridor":
		e.completeObjective(s, "cathedral_mysteries", "investigate_whispers")
	case "frozen_cathedral_hidden_chamber":
		e.completeObjective(s, "cathedral_mysteries", "find_hidden_chamber")
	}
}

// activateQuest flips a quest to active if it has not started yet.
func (e *Engine) activateQuest(s *session.Session, questID string) {
	quest, err := s.World.Quest(questID)
	if err != nil || quest.Status != world.QuestInactive {
		return
	}
	if err := s.World.ActivateQuest(questID); err != nil {
		e.logger.Warn("Failed to activate quest", "quest", questID, "error", err)
		return
	}
	s.Context.AddKeyEvent("Started quest: " + quest.Name)
}

// completeObjective marks a quest objective completed when the quest is
// active, and records quest completion when that was the last one.
func (e *Engine) completeObjective(s *session.Session, questID, objectiveID string) {
	quest, err := s.World.Quest(questID)
	if err != nil || quest.Status != world.QuestActive {
		return
	}
	if quest.Objectives[objectiveID] == world.QuestCompleted {
		return
	}
	if err := s.World.UpdateObjective(questID, objectiveID, world.QuestCompleted); err != nil {
		e.logger.Warn("Failed to update quest objective", "quest", questID, "objective", objectiveID, "error", err)
		return
	}
	s.Context.AddKeyEvent(fmt.Sprintf("Quest progress (%s): %s completed", quest.Name, objectiveID))
	if quest.Status == world.QuestCompleted {
		s.Context.AddKeyEvent("Quest completed: " + quest.Name)
	}
}
