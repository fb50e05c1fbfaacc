package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/emberworks/echofall/pkg/actor"
	"github.com/emberworks/echofall/pkg/mode"
	"github.com/emberworks/echofall/pkg/world"
)

// Bounded-window capacities. Oldest entries are evicted first, strict FIFO.
const (
	SceneHistoryLimit     = 50
	NarrativeHistoryLimit = 10
	ActionHistoryLimit    = 10
	KeyEventLimit         = 25
	CombatLogLimit        = 20
)

// Ambush states for combat setup.
const (
	AmbushNone             = "none"
	AmbushPlayerSurprised  = "player_surprised"
	AmbushEnemiesSurprised = "enemies_surprised"
)

// PlayerTurnID is the initiative-order entry reserved for the player.
const PlayerTurnID = "player"

// Enemy is one instantiated combat participant, built from an enemy template
// plus modifier tags at combat setup.
type Enemy struct {
	ID         string   `json:"id"` // unique per-instance id
	TemplateID string   `json:"template_id"`
	Name       string   `json:"name"`
	Health     int      `json:"health"`
	MaxHealth  int      `json:"max_health"`
	Damage     int      `json:"damage"`
	Abilities  []string `json:"abilities,omitempty"`
	Modifiers  []string `json:"modifiers,omitempty"`
}

// CombatState is the combat-mode sub-state. It exists only while combat is
// active; Active=false marks it resolved.
type CombatState struct {
	Active          bool     `json:"active"`
	Enemies         []*Enemy `json:"enemies,omitempty"`
	InitiativeOrder []string `json:"initiative_order,omitempty"`
	CurrentTurn     string   `json:"current_turn,omitempty"`
	Round           int      `json:"round,omitempty"`
	Log             []string `json:"combat_log,omitempty"`
	AmbushState     string   `json:"ambush_state,omitempty"`
}

// AddLog appends one line to the bounded combat log.
func (c *CombatState) AddLog(entry string) {
	c.Log = append(c.Log, entry)
	if len(c.Log) > CombatLogLimit {
		c.Log = c.Log[len(c.Log)-CombatLogLimit:]
	}
}

// Enemy returns the living or dead enemy instance with the given ID.
func (c *CombatState) Enemy(id string) *Enemy {
	for _, e := range c.Enemies {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// LivingEnemies returns enemies with health above zero.
func (c *CombatState) LivingEnemies() []*Enemy {
	var out []*Enemy
	for _, e := range c.Enemies {
		if e.Health > 0 {
			out = append(out, e)
		}
	}
	return out
}

// RemoveFromInitiative drops a participant from the turn order.
func (c *CombatState) RemoveFromInitiative(id string) {
	out := c.InitiativeOrder[:0]
	for _, x := range c.InitiativeOrder {
		if x != id {
			out = append(out, x)
		}
	}
	c.InitiativeOrder = out
}

// NextTurn advances to the next participant in initiative order, wrapping
// back to the front and incrementing the round counter on wrap. Returns the
// new current turn ID.
func (c *CombatState) NextTurn() string {
	if len(c.InitiativeOrder) == 0 {
		c.CurrentTurn = ""
		return ""
	}
	idx := 0
	for i, id := range c.InitiativeOrder {
		if id == c.CurrentTurn {
			idx = i
			break
		}
	}
	next := (idx + 1) % len(c.InitiativeOrder)
	if next == 0 {
		c.Round++
	}
	c.CurrentTurn = c.InitiativeOrder[next]
	return c.CurrentTurn
}

// DialogueExchange is one line of NPC conversation.
type DialogueExchange struct {
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// DialogueState is the dialogue-mode sub-state.
type DialogueState struct {
	Active  bool               `json:"active"`
	NPCID   string             `json:"npc_id,omitempty"`
	History []DialogueExchange `json:"history,omitempty"`
	Options []string           `json:"options,omitempty"`
}

// AddExchange appends a dialogue line.
func (d *DialogueState) AddExchange(speaker, text string) {
	d.History = append(d.History, DialogueExchange{
		Speaker:   speaker,
		Text:      text,
		Timestamp: time.Now(),
	})
}

// Outcome is a pre-supplied skill-check outcome payload, selected by the
// resolver based on the roll.
type Outcome struct {
	Description      string   `json:"description"`
	SuggestedActions []string `json:"suggested_actions,omitempty"`
}

// SkillCheckState is the skill-check sub-state. Populated when a check is
// offered, consumed after one resolution or an explicit abort.
type SkillCheckState struct {
	Active          bool    `json:"active"`
	Skill           string  `json:"skill,omitempty"`
	Difficulty      int     `json:"difficulty,omitempty"`
	Success         Outcome `json:"success_outcome,omitempty"`
	Failure         Outcome `json:"failure_outcome,omitempty"`
	CriticalSuccess Outcome `json:"critical_success_outcome,omitempty"`
	CriticalFailure Outcome `json:"critical_failure_outcome,omitempty"`
}

// SceneRecord is one append-only entry of what happened, used for
// player-facing history.
type SceneRecord struct {
	Type       string    `json:"type"` // action, transition
	Mode       mode.Mode `json:"mode"`
	Action     string    `json:"action,omitempty"`
	Text       string    `json:"text"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NarrativeEntry is one timestamped narration line in the context window.
type NarrativeEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// ActionEntry pairs a player action with its resolved result.
type ActionEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Result    string    `json:"result"`
}

// NarrativeContext is the bounded window handed to the narrative generator.
type NarrativeContext struct {
	Narratives []NarrativeEntry `json:"narratives,omitempty"`
	Actions    []ActionEntry    `json:"actions,omitempty"`
	KeyEvents  []string         `json:"key_events,omitempty"`
}

// AddNarrative appends a narration line, evicting the oldest beyond the cap.
func (n *NarrativeContext) AddNarrative(text string) {
	n.Narratives = append(n.Narratives, NarrativeEntry{Timestamp: time.Now(), Text: text})
	if len(n.Narratives) > NarrativeHistoryLimit {
		n.Narratives = n.Narratives[len(n.Narratives)-NarrativeHistoryLimit:]
	}
}

// AddAction appends an action/result pair, evicting the oldest beyond the cap.
func (n *NarrativeContext) AddAction(action, result string) {
	n.Actions = append(n.Actions, ActionEntry{Timestamp: time.Now(), Action: action, Result: result})
	if len(n.Actions) > ActionHistoryLimit {
		n.Actions = n.Actions[len(n.Actions)-ActionHistoryLimit:]
	}
}

// AddKeyEvent records a narratively significant event.
func (n *NarrativeContext) AddKeyEvent(event string) {
	n.KeyEvents = append(n.KeyEvents, event)
	if len(n.KeyEvents) > KeyEventLimit {
		n.KeyEvents = n.KeyEvents[len(n.KeyEvents)-KeyEventLimit:]
	}
}

// Settings are the player-adjustable session options.
type Settings struct {
	// Narration enables LLM narration of action results. When off, the
	// engine's own descriptions are used verbatim.
	Narration bool `json:"narration"`
}

// Session is the complete state of one player's game: exactly one player,
// one world graph, one active mode, and the mode sub-states. Sessions are
// logically single-threaded; the engine serializes mutations per session ID.
type Session struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Mode mode.Mode `json:"mode"`
	// PreviousMode is where Menu mode returns to on exit.
	PreviousMode mode.Mode     `json:"previous_mode,omitempty"`
	Player       *actor.Player `json:"player"`
	World        *world.Graph  `json:"world"`
	Settings     Settings      `json:"settings"`

	Combat     CombatState      `json:"combat_state"`
	Dialogue   DialogueState    `json:"dialogue_state"`
	SkillCheck SkillCheckState  `json:"skill_check_state"`
	Scenes     []SceneRecord    `json:"scene_history,omitempty"`
	Context    NarrativeContext `json:"narrative_context"`
}

// New creates a session in the initial Exploration mode.
func New(player *actor.Player, w *world.Graph) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
		Mode:      mode.Exploration,
		Player:    player,
		World:     w,
		Settings:  Settings{Narration: true},
	}
}

// AddScene appends a scene record and trims the history window.
func (s *Session) AddScene(rec SceneRecord) {
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now()
	}
	s.Scenes = append(s.Scenes, rec)
	if len(s.Scenes) > SceneHistoryLimit {
		s.Scenes = s.Scenes[len(s.Scenes)-SceneHistoryLimit:]
	}
}

// CanTransition reports whether the session may move to the target mode.
func (s *Session) CanTransition(target mode.Mode) bool {
	return mode.CanTransition(s.Mode, target)
}

// AllowedActions returns the legal actions for the current mode.
func (s *Session) AllowedActions() []mode.Action {
	return mode.AllowedActions(s.Mode)
}

// AllowedTransitions returns the legal transition targets for the current
// mode.
func (s *Session) AllowedTransitions() []mode.Mode {
	return mode.AllowedTransitions(s.Mode)
}
